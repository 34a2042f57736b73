package cli

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"scopelens/internal/api"
	coreapp "scopelens/internal/core/app"
	"scopelens/internal/core/config"
	"scopelens/internal/shared/observability"
)

func Run(args []string) int {
	return run(context.Background(), args, os.Stdin, os.Stdout, os.Stderr)
}

func run(ctx context.Context, args []string, stdin io.Reader, stdout, stderr io.Writer) int {
	opts, err := parseOptions(args, stderr)
	if err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return 0
		}
		return 2
	}

	if opts.version {
		fmt.Fprintf(stdout, "scopelens v%s\n", versionString)
		return 0
	}

	cleanupLogs := configureLogging(opts.ui, opts.verbose, stderr)
	defer cleanupLogs()

	cfg, cfgPath, err := loadConfig(opts.configPath)
	if err != nil {
		slog.Error("failed to load config", "error", err)
		return 1
	}

	if err := applyModeOptions(&opts, cfg); err != nil {
		fmt.Fprintln(stderr, err.Error())
		return 1
	}

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	shutdownTracing, err := observability.InitTracing(ctx, observability.TracingConfig{
		Endpoint:    cfg.Observability.OTLPEndpoint,
		ServiceName: cfg.Observability.ServiceName,
		Insecure:    true,
	})
	if err != nil {
		slog.Error("failed to initialize tracing", "error", err)
		return 1
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := shutdownTracing(shutdownCtx); err != nil {
			slog.Warn("failed to flush traces", "error", err)
		}
	}()

	app, err := coreapp.New(cfg)
	if err != nil {
		slog.Error("failed to initialize analyzer", "error", err)
		return 1
	}

	longRunning := opts.serve || opts.watch
	if longRunning {
		if addr := cfg.Observability.MetricsAddress; addr != "" && !(opts.serve && addr == cfg.Server.Address) {
			obs := NewObservabilityServer(addr, app.AnalysisService())
			if err := obs.Start(ctx); err != nil {
				slog.Error("failed to start observability server", "error", err)
				return 1
			}
			defer stopWithTimeout(obs.Stop)
		}
		if cfgPath != "" {
			reloadOpts := opts
			cw := config.NewWatcher(cfgPath, func(next *config.Config) {
				o := reloadOpts
				if err := applyModeOptions(&o, next); err != nil {
					slog.Warn("ignoring reloaded config", "error", err)
					return
				}
				if err := app.Reload(next); err != nil {
					slog.Warn("ignoring reloaded config", "error", err)
				}
			})
			if err := cw.Start(ctx); err != nil {
				slog.Warn("config hot reload disabled", "error", err)
			} else {
				defer cw.Stop()
			}
		}
	}

	switch {
	case opts.serve:
		return runServer(ctx, app, cfg)
	case opts.ui:
		if err := runUI(ctx, app); err != nil {
			slog.Error("ui failed", "error", err)
			return 1
		}
		return 0
	case opts.watch:
		return runWatch(ctx, app, opts, stdout)
	default:
		return runOnce(ctx, app, opts, stdin, stdout)
	}
}

func runServer(ctx context.Context, app *coreapp.App, cfg *config.Config) int {
	srv, err := api.NewServer(cfg.Server, app.AnalysisService())
	if err != nil {
		slog.Error("failed to create api server", "error", err)
		return 1
	}
	if err := srv.ListenAndServe(ctx); err != nil {
		slog.Error("api server failed", "error", err)
		return 1
	}
	return 0
}

func runWatch(ctx context.Context, app *coreapp.App, opts cliOptions, stdout io.Writer) int {
	out := newReportWriter(stdout, opts.format == formatJSON)
	app.SetUpdateHandler(out.writeUpdate)
	if _, err := app.Watch(ctx); err != nil {
		slog.Error("failed to start watcher", "error", err)
		return 1
	}
	<-ctx.Done()
	return 0
}

// runOnce analyzes the positional files, or stdin when there are none.
func runOnce(ctx context.Context, app *coreapp.App, opts cliOptions, stdin io.Reader, stdout io.Writer) int {
	var updates []coreapp.Update
	if len(opts.args) == 0 {
		data, err := io.ReadAll(stdin)
		if err != nil {
			slog.Error("failed to read stdin", "error", err)
			return 1
		}
		start := time.Now()
		res, err := app.Analyzer().Parse(ctx, string(data))
		updates = append(updates, coreapp.Update{Result: res, Err: err, Duration: time.Since(start)})
	} else {
		for _, path := range opts.args {
			updates = append(updates, app.AnalyzeFile(ctx, path))
		}
	}

	var buf strings.Builder
	target := stdout
	if opts.output != "" {
		target = &buf
	}
	if err := newReportWriter(target, opts.format == formatJSON).writeAll(updates); err != nil {
		slog.Error("failed to write report", "error", err)
		return 1
	}
	if opts.output != "" {
		if err := writeString(opts.output, buf.String()); err != nil {
			slog.Error("failed to write report file", "path", opts.output, "error", err)
			return 1
		}
	}

	code := 0
	for _, u := range updates {
		if u.Err != nil {
			slog.Error("analysis failed", "path", u.Path, "error", u.Err)
			code = 1
		}
	}
	return code
}

func loadConfig(path string) (*config.Config, string, error) {
	cfg, err := config.Load(path)
	if err == nil {
		return cfg, path, nil
	}
	if path != defaultConfigPath || !errors.Is(err, os.ErrNotExist) {
		return nil, "", err
	}

	slog.Debug("no config file found, using defaults", "path", path)
	cfg = config.DefaultConfig()
	config.ApplyEnvOverrides(cfg)
	if errs := config.Validate(cfg); len(errs) > 0 {
		return nil, "", errors.Join(errs...)
	}
	return cfg, "", nil
}

const formatJSON = "json"

func applyModeOptions(opts *cliOptions, cfg *config.Config) error {
	if opts.ui {
		opts.watch = true
	}
	if opts.serve && opts.watch {
		return fmt.Errorf("-serve cannot be combined with -watch or -ui")
	}
	if opts.ui && opts.format == formatJSON {
		return fmt.Errorf("-format json is not available in -ui mode")
	}
	if opts.output != "" && (opts.watch || opts.serve) {
		return fmt.Errorf("-out only applies to single runs")
	}

	switch opts.format {
	case "", formatJSON:
	case "html", "terminal", "plain":
		cfg.Highlight.Format = opts.format
	default:
		return fmt.Errorf("-format must be one of html, terminal, plain, json")
	}
	if opts.ui {
		cfg.Highlight.Format = "terminal"
	}

	if opts.loader != "" {
		cfg.Analysis.Loader = opts.loader
		cfg.Analysis.Sourcefile = "input." + opts.loader
	}
	if opts.serve {
		cfg.Server.Enabled = true
	}
	if opts.watch && len(opts.args) > 0 {
		cfg.Watch.Paths = append([]string(nil), opts.args...)
	}

	if errs := config.Validate(cfg); len(errs) > 0 {
		return errors.Join(errs...)
	}
	return nil
}

func stopWithTimeout(stop func(context.Context) error) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := stop(ctx); err != nil {
		slog.Warn("shutdown failed", "error", err)
	}
}

func configureLogging(uiMode, verbose bool, stderr io.Writer) func() {
	logLevel := slog.LevelInfo
	if verbose {
		logLevel = slog.LevelDebug
	}

	output := stderr
	closeFn := func() {}
	if uiMode {
		logPath := resolveLogPath()
		if err := os.MkdirAll(filepath.Dir(logPath), 0o700); err != nil {
			fmt.Fprintf(stderr, "warning: failed to create log dir for %s: %v\n", logPath, err)
		} else if fi, err := os.Lstat(logPath); err == nil && (fi.Mode()&os.ModeSymlink) != 0 {
			fmt.Fprintf(stderr, "warning: refusing to write logs to symlink path %s\n", logPath)
		} else if f, err := os.OpenFile(logPath, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o600); err == nil {
			output = f
			closeFn = func() { _ = f.Close() }
		} else {
			fmt.Fprintf(stderr, "warning: failed to open log file %s: %v\n", logPath, err)
		}
	}

	logger := slog.New(slog.NewTextHandler(output, &slog.HandlerOptions{Level: logLevel}))
	slog.SetDefault(logger)
	return closeFn
}

func resolveLogPath() string {
	if xdg := os.Getenv("XDG_STATE_HOME"); xdg != "" {
		return filepath.Join(xdg, "scopelens", "scopelens.log")
	}

	home, err := os.UserHomeDir()
	if err == nil && home != "" {
		return filepath.Join(home, ".local", "state", "scopelens", "scopelens.log")
	}

	return "scopelens.log"
}
