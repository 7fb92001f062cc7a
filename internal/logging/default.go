package logging

import (
	"sync"
	"sync/atomic"
)

// DefaultName is the name of the process-wide sink.
const DefaultName = "swarm"

var (
	defaultSink atomic.Pointer[Sink]
	defaultMu   sync.Mutex
)

// Default returns the process-wide sink, creating it on first use. The
// sink starts closed; open it with Default().Open.
func Default() *Sink {
	if s := defaultSink.Load(); s != nil {
		return s
	}

	defaultMu.Lock()
	defer defaultMu.Unlock()
	if s := defaultSink.Load(); s != nil {
		return s
	}
	s := NewSink(DefaultName)
	defaultSink.Store(s)
	return s
}

// ReleaseDefault closes and drops the process-wide sink. The next Default
// call creates a fresh one. Safe to call more than once.
func ReleaseDefault() {
	defaultMu.Lock()
	defer defaultMu.Unlock()
	if s := defaultSink.Swap(nil); s != nil {
		s.Close()
	}
}
