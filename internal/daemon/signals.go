package daemon

import (
	"os"
	"os/signal"
	"sync"
)

// SignalSource translates process signals into Events. Reload signals are
// never coalesced: every signal received produces one Event.
type SignalSource struct {
	sigChan  chan os.Signal
	events   chan Event
	stop     chan struct{}
	done     chan struct{}
	stopOnce sync.Once
}

// NewSignalSource creates a source listening for the platform's reload and
// terminate signals once started.
func NewSignalSource() *SignalSource {
	return &SignalSource{
		sigChan: make(chan os.Signal, 8),
		events:  make(chan Event, 8),
		stop:    make(chan struct{}),
		done:    make(chan struct{}),
	}
}

// Start begins listening for signals.
func (s *SignalSource) Start() {
	signals := append(append([]os.Signal(nil), reloadSignals...), terminateSignals...)
	signal.Notify(s.sigChan, signals...)

	go func() {
		defer close(s.done)
		for {
			select {
			case sig := <-s.sigChan:
				ev, ok := translateSignal(sig)
				if !ok {
					continue
				}
				select {
				case s.events <- ev:
				case <-s.stop:
					return
				}
			case <-s.stop:
				return
			}
		}
	}()
}

// Stop stops listening and restores default signal behavior. Safe to call
// more than once, and without a prior Start.
func (s *SignalSource) Stop() {
	s.stopOnce.Do(func() {
		signal.Stop(s.sigChan)
		close(s.stop)
	})
}

// Wait blocks until the forwarding goroutine started by Start has exited.
func (s *SignalSource) Wait() {
	<-s.done
}

// Events returns the translated event stream.
func (s *SignalSource) Events() <-chan Event {
	return s.events
}

// translateSignal maps a signal onto a request kind.
func translateSignal(sig os.Signal) (Event, bool) {
	for _, r := range reloadSignals {
		if sig == r {
			return Event{Kind: EventReload, Signal: sig}, true
		}
	}
	for _, t := range terminateSignals {
		if sig == t {
			return Event{Kind: EventTerminate, Signal: sig}, true
		}
	}
	return Event{}, false
}
