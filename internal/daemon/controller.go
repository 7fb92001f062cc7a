// Package daemon drives the life cycle of a long-running process: option
// parsing, initialization, hosting the main task, reload and terminate
// handling, and shutdown. It also provides PID file handling and signal
// translation for controlling a daemon from another process.
package daemon

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"sync"
	"sync/atomic"

	"github.com/google/uuid"

	"github.com/swarmcom/swarm/internal/config"
	serrors "github.com/swarmcom/swarm/internal/errors"
	"github.com/swarmcom/swarm/internal/metrics"
	"github.com/swarmcom/swarm/internal/options"
)

// ErrAlreadyStarted is returned when the controller is configured after Run
// began.
var ErrAlreadyStarted = &serrors.Error{Kind: serrors.KindState, Message: "controller already started"}

// Hook is a life-cycle callback. It runs on the goroutine that called Run.
type Hook func(ctx context.Context) error

// Options configures a Controller.
type Options struct {
	// Name is the command name shown in the help text.
	Name string
	// Usage follows the command name on the usage line.
	Usage string
	// Header is printed below the usage line.
	Header string
	// ConfigFiles are loaded into the store during initialization. Files
	// that do not exist are skipped.
	ConfigFiles []string
	// PIDFile, if set, is written when running and removed when stopped.
	PIDFile string
	// HandleSignals translates SIGHUP into reload and SIGINT, SIGQUIT and
	// SIGTERM into terminate requests.
	HandleSignals bool
	// Logger receives life-cycle records. Defaults to slog.Default().
	Logger *slog.Logger
	// Stderr receives usage errors and help. Defaults to os.Stderr.
	Stderr io.Writer
	// Store is the configuration store. Defaults to a new store.
	Store *config.Store
}

// Controller runs a daemon through its life cycle:
//
//	created -> initializing -> running -> (reinitializing -> running)* -> terminating -> stopped
//
// Option errors and stop requests go from created straight to stopped; an
// initialization failure goes from initializing to stopped.
type Controller struct {
	opts     Options
	registry *options.Registry
	store    *config.Store
	log      *slog.Logger

	mu        sync.Mutex
	started   bool
	optionErr error
	pidPath   string
	init      Hook
	uninit    Hook
	reinit    Hook
	terminate Hook

	state   atomic.Int32
	pending []Event
	wake    chan struct{}
}

// New creates a controller in the created state.
func New(opts Options) *Controller {
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	if opts.Stderr == nil {
		opts.Stderr = os.Stderr
	}
	if opts.Store == nil {
		opts.Store = config.NewStore()
	}
	if opts.Name == "" {
		opts.Name = "swarmd"
	}

	return &Controller{
		opts:     opts,
		registry: options.NewRegistry(),
		store:    opts.Store,
		log:      opts.Logger,
		pidPath:  opts.PIDFile,
		wake:     make(chan struct{}, 1),
	}
}

// AddOption registers a command-line option. A collision is returned and
// also makes Run fail with a configuration error.
func (c *Controller) AddOption(d options.Descriptor, cb options.Callback) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.started {
		return ErrAlreadyStarted
	}
	if err := c.registry.Add(d, cb); err != nil {
		if c.optionErr == nil {
			c.optionErr = err
		}
		return err
	}
	return nil
}

func (c *Controller) setHook(dst *Hook, h Hook) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.started {
		return ErrAlreadyStarted
	}
	*dst = h
	return nil
}

// SetInitHook sets the hook run before the main task starts. A failing init
// hook ends the run with ExitConfig and skips the uninit hook.
func (c *Controller) SetInitHook(h Hook) error { return c.setHook(&c.init, h) }

// SetUninitHook sets the hook run after the main task has returned.
func (c *Controller) SetUninitHook(h Hook) error { return c.setHook(&c.uninit, h) }

// SetReinitHook sets the hook run for every reload request. Without a
// reinit hook a reload request terminates the daemon.
func (c *Controller) SetReinitHook(h Hook) error { return c.setHook(&c.reinit, h) }

// SetTerminateHook sets the hook run on a terminate request, before the
// main task's context is cancelled.
func (c *Controller) SetTerminateHook(h Hook) error { return c.setHook(&c.terminate, h) }

// SetPIDFile changes the PID file location. Unlike the other setters it may
// be called from option callbacks, as long as the controller has not left
// the created state.
func (c *Controller) SetPIDFile(path string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.State() != StateCreated {
		return ErrAlreadyStarted
	}
	c.pidPath = path
	return nil
}

// State returns the current state. Safe to call from any goroutine.
func (c *Controller) State() State {
	return State(c.state.Load())
}

// Store returns the configuration store.
func (c *Controller) Store() *config.Store {
	return c.store
}

// Options returns the option registry.
func (c *Controller) Options() *options.Registry {
	return c.registry
}

// FormatHelp writes the option summary to w.
func (c *Controller) FormatHelp(w io.Writer) error {
	return c.registry.FormatHelp(w, c.opts.Name, c.opts.Usage, c.opts.Header)
}

// LoadConfiguration merges a configuration file into the store.
func (c *Controller) LoadConfiguration(path string) error {
	return c.store.LoadFile(path)
}

// Reload requests a reload. Every call results in one run of the reinit
// hook. Safe to call from any goroutine, including hooks.
func (c *Controller) Reload() {
	c.enqueue(Event{Kind: EventReload})
}

// Terminate requests termination. Safe to call from any goroutine.
func (c *Controller) Terminate() {
	c.enqueue(Event{Kind: EventTerminate})
}

func (c *Controller) enqueue(ev Event) {
	c.mu.Lock()
	c.pending = append(c.pending, ev)
	c.mu.Unlock()

	select {
	case c.wake <- struct{}{}:
	default:
	}
}

func (c *Controller) drain() []Event {
	c.mu.Lock()
	defer c.mu.Unlock()
	events := c.pending
	c.pending = nil
	return events
}

func (c *Controller) transition(to State) {
	from := State(c.state.Swap(int32(to)))
	c.log.Debug("state transition", "from", from.String(), "to", to.String())
	metrics.RecordTransition(from.String(), to.String(), int(to))
}

// Run drives the life cycle and returns the process exit code:
//   - 0 when a stop request short-circuits option processing, otherwise the
//     main task's return value
//   - ExitUsage for bad arguments
//   - ExitConfig for option table or callback errors and init failures
//   - ExitSoftware when the main task panics or Run is called twice
//
// Cancelling ctx is a terminate request; the main task's context is
// cancelled only after the terminate hook returned.
func (c *Controller) Run(ctx context.Context, main MainFunc, args []string) int {
	c.mu.Lock()
	if c.started {
		c.mu.Unlock()
		c.log.Error("controller already started", "error", ErrAlreadyStarted)
		return serrors.ExitSoftware
	}
	c.started = true
	c.log = c.log.With("run_id", uuid.NewString())
	optionErr := c.optionErr
	hooks := struct{ init, uninit, reinit, terminate Hook }{c.init, c.uninit, c.reinit, c.terminate}
	c.mu.Unlock()

	if optionErr != nil {
		c.log.Error("invalid option table", "error", optionErr)
		fmt.Fprintf(c.opts.Stderr, "%s: %v\n", c.opts.Name, optionErr)
		c.transition(StateStopped)
		return serrors.ExitCode(optionErr)
	}

	res, err := c.registry.Parse(c.opts.Name, args)
	if err != nil {
		c.reportOptionError(err)
		c.transition(StateStopped)
		return serrors.ExitCode(err)
	}
	if res.Stop {
		if res.HelpRequested {
			_ = c.FormatHelp(c.opts.Stderr)
		}
		c.transition(StateStopped)
		return serrors.ExitOK
	}

	c.transition(StateInitializing)
	if err := c.initialize(ctx, hooks.init); err != nil {
		c.log.Error("initialization failed", "error", err)
		// The log channel is usually opened by the init hook itself.
		fmt.Fprintf(c.opts.Stderr, "%s: initialization failed: %v\n", c.opts.Name, err)
		c.transition(StateStopped)
		return serrors.ExitCode(err)
	}

	c.mu.Lock()
	pidPath := c.pidPath
	c.mu.Unlock()

	var pidFile *PIDFile
	if pidPath != "" {
		pidFile = NewPIDFile(pidPath)
		if err := pidFile.Write(); err != nil {
			c.log.Warn("failed to write PID file", "path", pidPath, "error", err)
			pidFile = nil
		}
	}

	var signals <-chan Event
	if c.opts.HandleSignals {
		src := NewSignalSource()
		src.Start()
		defer func() {
			src.Stop()
			src.Wait()
		}()
		signals = src.Events()
	}

	c.transition(StateRunning)
	c.log.Info("daemon running", "pid", os.Getpid())
	w := startWorker(ctx, main, res.Args, c.log)

	code := c.loop(ctx, w, signals, hooks.reinit, hooks.terminate)
	metrics.RecordWorkerExit(code)

	hookCtx := context.WithoutCancel(ctx)
	if err := runHook(hookCtx, hooks.uninit); err != nil {
		c.log.Error("uninit failed", "error", err)
	}
	if pidFile != nil {
		if err := pidFile.Remove(); err != nil {
			c.log.Warn("failed to remove PID file", "path", pidFile.Path(), "error", err)
		}
	}

	c.transition(StateStopped)
	c.log.Info("daemon stopped", "exit_code", code)
	return code
}

func (c *Controller) reportOptionError(err error) {
	if serrors.IsKind(err, serrors.KindUsage) {
		fmt.Fprintf(c.opts.Stderr, "%s: %v\n\n", c.opts.Name, err)
		_ = c.FormatHelp(c.opts.Stderr)
		return
	}
	c.log.Error("option processing failed", "error", err)
	fmt.Fprintf(c.opts.Stderr, "%s: %v\n", c.opts.Name, err)
}

// initialize loads the configured files and runs the init hook.
func (c *Controller) initialize(ctx context.Context, init Hook) error {
	for _, path := range c.opts.ConfigFiles {
		if _, err := os.Stat(path); os.IsNotExist(err) {
			c.log.Debug("config file not found, skipping", "path", path)
			continue
		}
		if err := c.store.LoadFile(path); err != nil {
			return serrors.Wrapf(serrors.KindInitialization, err, "load %s", path)
		}
		c.log.Debug("config file loaded", "path", path)
	}

	if err := runHook(ctx, init); err != nil {
		return serrors.Wrap(serrors.KindInitialization, err, "init hook")
	}
	return nil
}

// loop waits for requests until one of them terminates the daemon, and
// returns the main task's exit code.
func (c *Controller) loop(ctx context.Context, w *worker, signals <-chan Event, reinit, terminate Hook) int {
	done := ctx.Done()
	for {
		var events []Event
		select {
		case <-c.wake:
			events = c.drain()
		case ev := <-signals:
			c.log.Info("signal received", "event", ev.String())
			events = []Event{ev}
		case <-done:
			c.log.Info("context cancelled, terminating")
			events = []Event{{Kind: EventTerminate}}
		case <-w.done:
			c.log.Info("worker returned, terminating", "exit_code", w.code)
			events = []Event{{Kind: EventTerminate}}
		}

		for _, ev := range events {
			if ev.Kind == EventReload && reinit != nil {
				c.reload(ctx, reinit)
				continue
			}
			if ev.Kind == EventReload {
				c.log.Info("reload requested without reinit hook, terminating")
			}
			return c.shutdown(ctx, w, terminate)
		}
	}
}

func (c *Controller) reload(ctx context.Context, reinit Hook) {
	c.transition(StateReinitializing)
	metrics.RecordReload()
	if err := runHook(ctx, reinit); err != nil {
		c.log.Error("reinit failed", "error", err)
	}
	c.transition(StateRunning)
}

func (c *Controller) shutdown(ctx context.Context, w *worker, terminate Hook) int {
	c.transition(StateTerminating)
	if err := runHook(context.WithoutCancel(ctx), terminate); err != nil {
		c.log.Error("terminate hook failed", "error", err)
	}
	return w.stop()
}

// runHook calls h, converting a panic into an error. A nil hook succeeds.
func runHook(ctx context.Context, h Hook) (err error) {
	if h == nil {
		return nil
	}
	defer func() {
		if p := recover(); p != nil {
			err = fmt.Errorf("hook panicked: %v", p)
		}
	}()
	return h(ctx)
}
