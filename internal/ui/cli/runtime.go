package cli

import (
	"context"
	stderrors "errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	coreapp "agatypes/internal/core/app"
	"agatypes/internal/core/config"
	"agatypes/internal/core/ports"
	"agatypes/internal/shared/observability"
)

// sessionFactory builds the session a command runs against.
type sessionFactory interface {
	New(cfg *config.Config) (*coreapp.App, error)
}

type coreSessionFactory struct{}

func (coreSessionFactory) New(cfg *config.Config) (*coreapp.App, error) {
	return coreapp.New(cfg, nil)
}

type runtime struct {
	opts    cliOptions
	cfg     *config.Config
	cfgPath string
	app     *coreapp.App
	svc     ports.TypeService
	stdout  io.Writer
	stderr  io.Writer
}

func Run(args []string) int {
	return run(args, os.Stdout, os.Stderr, coreSessionFactory{})
}

func run(args []string, stdout, stderr io.Writer, factory sessionFactory) int {
	opts, err := parseOptions(args, stderr)
	if err != nil {
		if stderrors.Is(err, flag.ErrHelp) {
			return 0
		}
		return 2
	}

	if opts.version {
		fmt.Fprintf(stdout, "agatypes v%s\n", versionString)
		return 0
	}
	if err := validateCommand(opts); err != nil {
		fmt.Fprintln(stderr, err.Error())
		fmt.Fprint(stderr, usage)
		return 2
	}

	cleanupLogs := configureLogging(stderr, opts.command == "inspect", opts.verbose)
	defer cleanupLogs()

	cfg, cfgPath, err := loadConfig(opts.configPath)
	if err != nil {
		slog.Error("failed to load config", "error", err)
		return 1
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if cfg.Observability.EnableTracing {
		shutdown, err := observability.InitTracing(ctx, cfg.Observability.OTLPEndpoint)
		if err != nil {
			slog.Error("failed to initialize tracing", "error", err)
			return 1
		}
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := shutdown(shutdownCtx); err != nil {
				slog.Warn("tracing shutdown failed", "error", err)
			}
		}()
	}

	if factory == nil {
		slog.Error("session factory is required")
		return 1
	}
	app, err := factory.New(cfg)
	if err != nil {
		slog.Error("failed to initialize session", "error", err)
		return 1
	}
	defer app.Close(context.Background())

	if cfg.Observability.Enabled {
		srv := NewObservabilityServer(fmt.Sprintf(":%d", cfg.Observability.Port), coreapp.NewHealthService(app))
		if err := srv.Start(ctx); err != nil {
			slog.Error("failed to start observability server", "error", err)
			return 1
		}
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			_ = srv.Stop(shutdownCtx)
		}()
	}

	rt := &runtime{
		opts:    opts,
		cfg:     cfg,
		cfgPath: cfgPath,
		app:     app,
		svc:     app.TypeService(),
		stdout:  stdout,
		stderr:  stderr,
	}
	if err := rt.dispatch(ctx); err != nil {
		reportError(stderr, err)
		return 1
	}
	return 0
}

// loadConfig reads path. The default path may be missing, in which case the
// defaults apply. Environment overrides are applied last.
func loadConfig(path string) (*config.Config, string, error) {
	cfg, err := config.Load(path)
	switch {
	case err == nil:
	case path == defaultConfigPath && stderrors.Is(err, os.ErrNotExist):
		cfg, path = config.DefaultConfig(), ""
	default:
		return nil, "", err
	}
	config.ApplyEnvOverrides(cfg)
	return cfg, path, nil
}

// watchConfig hot-reloads the session's options while a long-running
// command is active.
func (rt *runtime) watchConfig(ctx context.Context) func() {
	if rt.cfgPath == "" {
		return func() {}
	}
	w := config.NewWatcher(rt.cfgPath, rt.app.ApplyConfig)
	if err := w.Start(ctx); err != nil {
		slog.Warn("config watcher unavailable", "path", rt.cfgPath, "error", err)
		return func() {}
	}
	return w.Stop
}

func configureLogging(stderr io.Writer, uiMode, verbose bool) func() {
	logLevel := slog.LevelInfo
	if verbose {
		logLevel = slog.LevelDebug
	}

	output := stderr
	var closeFn func() = func() {}
	if uiMode {
		logPath := resolveLogPath()
		if err := os.MkdirAll(filepath.Dir(logPath), 0o700); err != nil {
			fmt.Fprintf(stderr, "warning: failed to create log dir for %s: %v\n", logPath, err)
		} else {
			if fi, err := os.Lstat(logPath); err == nil && (fi.Mode()&os.ModeSymlink) != 0 {
				fmt.Fprintf(stderr, "warning: refusing to write logs to symlink path %s\n", logPath)
			} else {
				f, err := os.OpenFile(logPath, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o600)
				if err == nil {
					output = f
					closeFn = func() { _ = f.Close() }
				} else {
					fmt.Fprintf(stderr, "warning: failed to open log file %s: %v\n", logPath, err)
				}
			}
		}
	}

	logger := slog.New(slog.NewTextHandler(output, &slog.HandlerOptions{Level: logLevel}))
	slog.SetDefault(logger)
	return closeFn
}

func resolveLogPath() string {
	if xdg := os.Getenv("XDG_STATE_HOME"); xdg != "" {
		return filepath.Join(xdg, "agatypes", "agatypes.log")
	}

	home, err := os.UserHomeDir()
	if err == nil && home != "" {
		return filepath.Join(home, ".local", "state", "agatypes", "agatypes.log")
	}

	return "agatypes.log"
}
