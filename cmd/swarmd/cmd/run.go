package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"time"

	"github.com/spf13/cobra"

	"github.com/swarmcom/swarm/internal/config"
	"github.com/swarmcom/swarm/internal/daemon"
	serrors "github.com/swarmcom/swarm/internal/errors"
	"github.com/swarmcom/swarm/internal/logging"
	"github.com/swarmcom/swarm/internal/metrics"
	"github.com/swarmcom/swarm/internal/options"
	"github.com/swarmcom/swarm/internal/paths"
)

const (
	defaultMetricsAddr = ":9464"
	shutdownTimeout    = 5 * time.Second
)

var runCmd = &cobra.Command{
	Use:   "run [options] [args]",
	Short: "Run the daemon in the foreground",
	Long: `Run the swarm daemon in the foreground. Used by 'swarmd start' and by
service managers such as systemd or launchd.

Options are parsed by the daemon itself; see 'swarmd run --help'.`,
	DisableFlagParsing: true,
	Run: func(cmd *cobra.Command, args []string) {
		host := newDaemonHost(os.Stderr)
		if err := host.configure(); err != nil {
			fmt.Fprintf(os.Stderr, "swarmd: %v\n", err)
			os.Exit(serrors.ExitCode(err))
		}
		os.Exit(host.ctl.Run(context.Background(), host.heartbeat, args))
	},
}

func init() {
	rootCmd.AddCommand(runCmd)
}

// daemonHost owns what the life-cycle hooks set up and tear down.
type daemonHost struct {
	ctl    *daemon.Controller
	store  *config.Store
	sink   *logging.Sink
	stderr io.Writer

	configFiles []string
	interval    atomic.Int64

	metricsSrv *http.Server
	metricsLn  net.Listener
	watcher    *config.Watcher
}

func newDaemonHost(stderr io.Writer) *daemonHost {
	store := config.NewStore()
	config.ApplyDefaults(store)
	sink := logging.Default()

	h := &daemonHost{
		store:  store,
		sink:   sink,
		stderr: stderr,
	}
	h.ctl = daemon.New(daemon.Options{
		Name:          "swarmd run",
		Usage:         "[options] [args]",
		Header:        "Run the swarm daemon in the foreground.",
		ConfigFiles:   []string{paths.ConfigFile()},
		PIDFile:       paths.PIDFile(),
		HandleSignals: true,
		Logger:        slog.New(sink.Handler()),
		Stderr:        stderr,
		Store:         store,
	})
	return h
}

// configure registers the command-line options and life-cycle hooks.
func (h *daemonHost) configure() error {
	opts := []struct {
		desc options.Descriptor
		cb   options.Callback
	}{
		{options.Descriptor{FullName: "help", ShortName: "h", Description: "Show this help and exit."}, h.onHelp},
		{options.Descriptor{FullName: "config", ShortName: "c", ArgName: "FILE", ArgRequired: true, Repeatable: true,
			Description: "Load configuration from FILE. May be given more than once."}, h.onConfig},
		{options.Descriptor{FullName: "define", ShortName: "D", ArgName: "KEY=VALUE", ArgRequired: true, Repeatable: true,
			Description: "Set configuration property KEY to VALUE."}, h.onDefine},
		{options.Descriptor{FullName: "log-file", ShortName: "l", ArgName: "FILE", ArgRequired: true,
			Description: "Write the log to FILE."}, h.setKey("logging.file")},
		{options.Descriptor{FullName: "log-level", ShortName: "L", ArgName: "LEVEL", ArgRequired: true,
			Description: "Log priority threshold (fatal ... trace)."}, h.onLogLevel},
		{options.Descriptor{FullName: "pid-file", ShortName: "p", ArgName: "FILE", ArgRequired: true,
			Description: "Write the process id to FILE."}, h.onPIDFile},
		{options.Descriptor{FullName: "metrics-addr", ShortName: "m", ArgName: "ADDR",
			Description: "Serve Prometheus metrics on ADDR (default " + defaultMetricsAddr + ")."}, h.onMetricsAddr},
	}

	for _, o := range opts {
		if err := h.ctl.AddOption(o.desc, o.cb); err != nil {
			return err
		}
	}

	for _, set := range []func() error{
		func() error { return h.ctl.SetInitHook(h.init) },
		func() error { return h.ctl.SetReinitHook(h.reinit) },
		func() error { return h.ctl.SetTerminateHook(h.terminate) },
		func() error { return h.ctl.SetUninitHook(h.uninit) },
	} {
		if err := set(); err != nil {
			return err
		}
	}
	return nil
}

func (h *daemonHost) onHelp(string, string) (options.Result, error) {
	return options.StopProcessing, h.ctl.FormatHelp(h.stderr)
}

func (h *daemonHost) onConfig(_, value string) (options.Result, error) {
	h.configFiles = append(h.configFiles, value)
	return options.Continue, nil
}

func (h *daemonHost) onDefine(_, value string) (options.Result, error) {
	key, val, ok := strings.Cut(value, "=")
	if !ok || strings.TrimSpace(key) == "" {
		return options.Continue, fmt.Errorf("invalid definition %q, expected KEY=VALUE", value)
	}
	h.store.SetString(strings.TrimSpace(key), val)
	return options.Continue, nil
}

func (h *daemonHost) setKey(key string) options.Callback {
	return func(_, value string) (options.Result, error) {
		h.store.SetString(key, value)
		return options.Continue, nil
	}
}

func (h *daemonHost) onLogLevel(_, value string) (options.Result, error) {
	if _, err := logging.ParsePriority(value); err != nil {
		return options.Continue, err
	}
	h.store.SetString("logging.level", value)
	return options.Continue, nil
}

func (h *daemonHost) onPIDFile(_, value string) (options.Result, error) {
	return options.Continue, h.ctl.SetPIDFile(value)
}

func (h *daemonHost) onMetricsAddr(_, value string) (options.Result, error) {
	if value == "" {
		value = defaultMetricsAddr
	}
	h.store.SetString("metrics.listen", value)
	return options.Continue, nil
}

func (h *daemonHost) settings() (*config.Settings, error) {
	return config.Load(h.store)
}

func (h *daemonHost) init(ctx context.Context) error {
	for _, path := range h.configFiles {
		if err := h.store.LoadFile(path); err != nil {
			return fmt.Errorf("failed to load %s: %w", path, err)
		}
	}

	cfg, err := h.settings()
	if err != nil {
		return err
	}
	prio, err := logging.ParsePriority(cfg.Logging.Level)
	if err != nil {
		return err
	}

	if err := os.MkdirAll(filepath.Dir(cfg.Logging.File), 0700); err != nil {
		return fmt.Errorf("failed to create log directory: %w", err)
	}
	err = h.sink.Open(cfg.Logging.File,
		logging.WithPriority(prio),
		logging.WithFormat(cfg.Logging.Format),
		logging.WithPurgeCount(cfg.Logging.PurgeCount),
	)
	if err != nil {
		return err
	}
	logging.Setup(h.sink)
	h.interval.Store(int64(cfg.Heartbeat.Interval))

	if cfg.Metrics.Listen != "" {
		if err := h.startMetrics(cfg.Metrics.Listen); err != nil {
			logging.Error("metrics endpoint failed", "error", err)
			h.sink.Close()
			return err
		}
	}

	if files := h.store.Files(); len(files) > 0 {
		h.watcher = config.NewWatcher(files, func(path string) {
			logging.Information("configuration file changed", "path", path)
			h.ctl.Reload()
		})
		if err := h.watcher.Start(); err != nil {
			logging.Warning("configuration watcher disabled", "error", err)
			h.watcher = nil
		}
	}

	logging.Notice("swarmd initialized",
		"pid", os.Getpid(),
		"log_file", cfg.Logging.File,
		"level", prio.String(),
		"config_files", len(h.store.Files()),
	)
	return nil
}

func (h *daemonHost) startMetrics(addr string) error {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("failed to listen for metrics on %s: %w", addr, err)
	}

	mux := http.NewServeMux()
	mux.Handle("/metrics", metrics.Handler())
	srv := &http.Server{
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}
	h.metricsSrv = srv
	h.metricsLn = ln

	go func() {
		if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logging.Error("metrics server failed", "error", err)
		}
	}()
	logging.Information("metrics endpoint listening", "address", ln.Addr().String())
	return nil
}

func (h *daemonHost) reinit(ctx context.Context) error {
	if err := h.store.Reload(); err != nil {
		return fmt.Errorf("failed to reload configuration: %w", err)
	}
	cfg, err := h.settings()
	if err != nil {
		return err
	}
	prio, err := logging.ParsePriority(cfg.Logging.Level)
	if err != nil {
		return err
	}

	h.sink.SetPriority(prio)
	h.interval.Store(int64(cfg.Heartbeat.Interval))
	logging.Notice("configuration reloaded", "level", prio.String(), "heartbeat", cfg.Heartbeat.Interval.String())
	return nil
}

func (h *daemonHost) terminate(ctx context.Context) error {
	logging.Notice("termination requested")
	return nil
}

func (h *daemonHost) uninit(ctx context.Context) error {
	if h.watcher != nil {
		h.watcher.Stop()
	}

	var err error
	if h.metricsSrv != nil {
		shutdownCtx, cancel := context.WithTimeout(ctx, shutdownTimeout)
		defer cancel()
		if err = h.metricsSrv.Shutdown(shutdownCtx); err != nil {
			logging.Error("failed to stop metrics server", "error", err)
		}
	}

	logging.Notice("swarmd stopped")
	logging.ReleaseDefault()
	return err
}

func (h *daemonHost) heartbeatInterval() time.Duration {
	if d := time.Duration(h.interval.Load()); d > 0 {
		return d
	}
	return config.Default().Heartbeat.Interval
}

// heartbeat is the worker: it logs a line every heartbeat.interval until
// cancelled, picking up interval changes after a reload.
func (h *daemonHost) heartbeat(ctx context.Context, args []string) int {
	start := time.Now()
	interval := h.heartbeatInterval()
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	logging.Information("worker started", "args", strings.Join(args, " "), "interval", interval.String())
	beats := 0
	for {
		select {
		case <-ctx.Done():
			logging.Information("worker stopping", "beats", beats)
			return serrors.ExitOK
		case <-ticker.C:
			beats++
			logging.Information("heartbeat", "count", beats, "uptime", time.Since(start).Round(time.Millisecond).String())
			if next := h.heartbeatInterval(); next != interval {
				interval = next
				ticker.Reset(interval)
				logging.Debug("heartbeat interval changed", "interval", interval.String())
			}
		}
	}
}
