//go:build !windows

package daemon

import (
	"os"
	"syscall"
	"testing"
	"time"

	"golang.org/x/sys/unix"
)

func TestTranslateSignal(t *testing.T) {
	tests := []struct {
		sig    os.Signal
		want   EventKind
		wantOK bool
	}{
		{unix.SIGHUP, EventReload, true},
		{unix.SIGINT, EventTerminate, true},
		{unix.SIGQUIT, EventTerminate, true},
		{unix.SIGTERM, EventTerminate, true},
		{unix.SIGUSR1, 0, false},
	}

	for _, tt := range tests {
		t.Run(tt.sig.String(), func(t *testing.T) {
			ev, ok := translateSignal(tt.sig)
			if ok != tt.wantOK {
				t.Fatalf("translateSignal(%v) ok = %v, want %v", tt.sig, ok, tt.wantOK)
			}
			if ev.Kind != tt.want {
				t.Errorf("translateSignal(%v) kind = %v, want %v", tt.sig, ev.Kind, tt.want)
			}
		})
	}
}

func TestSignalSource_DeliversEveryReload(t *testing.T) {
	src := NewSignalSource()
	src.Start()
	defer func() {
		src.Stop()
		src.Wait()
	}()

	for i := 0; i < 3; i++ {
		if err := syscall.Kill(os.Getpid(), syscall.SIGHUP); err != nil {
			t.Fatalf("kill: %v", err)
		}
		select {
		case ev := <-src.Events():
			if ev.Kind != EventReload {
				t.Errorf("event %d kind = %v, want reload", i, ev.Kind)
			}
			if ev.Signal != unix.SIGHUP {
				t.Errorf("event %d signal = %v, want SIGHUP", i, ev.Signal)
			}
		case <-time.After(2 * time.Second):
			t.Fatalf("reload event %d not delivered", i)
		}
	}
}

func TestSignalSource_StopIsIdempotent(t *testing.T) {
	src := NewSignalSource()
	src.Start()
	src.Stop()
	src.Stop()

	done := make(chan struct{})
	go func() {
		src.Wait()
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Error("Wait() did not return after Stop()")
	}
}
