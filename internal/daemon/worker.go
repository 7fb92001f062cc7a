package daemon

import (
	"context"
	"log/slog"
	"runtime/debug"

	serrors "github.com/swarmcom/swarm/internal/errors"
	"github.com/swarmcom/swarm/internal/metrics"
)

// MainFunc is the application's main task. It runs once per Run on its own
// goroutine and should return promptly once ctx is cancelled. The return
// value becomes the exit code of Run.
type MainFunc func(ctx context.Context, args []string) int

// worker hosts a MainFunc.
type worker struct {
	cancel context.CancelFunc
	done   chan struct{}
	code   int
}

// startWorker runs main on a new goroutine. The worker context is detached
// from parent's cancellation so that the terminate hook always runs before
// the worker sees ctx.Done.
func startWorker(parent context.Context, main MainFunc, args []string, log *slog.Logger) *worker {
	ctx, cancel := context.WithCancel(context.WithoutCancel(parent))
	w := &worker{
		cancel: cancel,
		done:   make(chan struct{}),
	}

	go func() {
		defer close(w.done)
		w.code = runMain(ctx, main, args, log)
	}()
	return w
}

// runMain calls main, converting a panic into ExitSoftware.
func runMain(ctx context.Context, main MainFunc, args []string, log *slog.Logger) (code int) {
	defer func() {
		if p := recover(); p != nil {
			err := serrors.Newf(serrors.KindWorker, "panic: %v", p)
			log.Error("worker failed", "error", err, "stack", string(debug.Stack()))
			metrics.RecordWorkerPanic()
			code = serrors.ExitSoftware
		}
	}()

	if main == nil {
		<-ctx.Done()
		return serrors.ExitOK
	}
	return main(ctx, args)
}

// stop cancels the worker context and waits for main to return.
func (w *worker) stop() int {
	w.cancel()
	<-w.done
	return w.code
}
