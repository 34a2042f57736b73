package app

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"scopelens/internal/core/config"
	"scopelens/internal/core/errors"
	"scopelens/internal/core/ports"
	"scopelens/internal/core/watcher"
	"scopelens/internal/engine/ambient"
	"scopelens/internal/engine/highlight"
	"scopelens/internal/engine/transpile"
)

// Update is the outcome of analyzing one file in watch mode.
type Update struct {
	Path     string
	Result   *Result
	Err      error
	Removed  bool
	Duration time.Duration
}

type App struct {
	mu       sync.RWMutex
	config   *config.Config
	analyzer *Analyzer
	watcher  *watcher.Watcher

	updateMu sync.RWMutex
	onUpdate func(Update)
}

func New(cfg *config.Config) (*App, error) {
	analyzer, err := BuildAnalyzer(cfg)
	if err != nil {
		return nil, err
	}
	return &App{config: cfg, analyzer: analyzer}, nil
}

// BuildAnalyzer wires an Analyzer from configuration.
func BuildAnalyzer(cfg *config.Config) (*Analyzer, error) {
	set, err := ambient.Build(ambient.Options{
		File:    cfg.Ambient.File,
		Extra:   cfg.Ambient.Extra,
		Exclude: cfg.Ambient.Exclude,
	})
	if err != nil {
		return nil, errors.Wrap(err, errors.CodeValidationError, "build ambient name set")
	}
	return NewAnalyzer(AnalyzerOptions{
		Loader:      cfg.Analysis.Loader,
		Sourcefile:  cfg.Analysis.Sourcefile,
		StrictParse: cfg.Analysis.StrictParse,
		Ambient:     set,
		Renderer:    highlight.NewRenderer(cfg.Highlight.Format, cfg.Highlight.GlobalClass, cfg.Highlight.UndefinedClass),
	})
}

func (a *App) Config() *config.Config {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.config
}

func (a *App) Analyzer() *Analyzer {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.analyzer
}

// Reload swaps in a new configuration. Calls in flight finish on the old
// analyzer. A running watcher picks up the new debounce; paths and filters
// only change on the next Watch call.
func (a *App) Reload(cfg *config.Config) error {
	analyzer, err := BuildAnalyzer(cfg)
	if err != nil {
		return err
	}
	a.mu.Lock()
	a.config = cfg
	a.analyzer = analyzer
	w := a.watcher
	a.mu.Unlock()
	if w != nil {
		w.SetDebounce(cfg.Watch.Debounce)
	}
	slog.Info("analyzer reconfigured", "loader", analyzer.Loader(), "ambient_names", analyzer.Ambient().Len())
	return nil
}

func (a *App) SetUpdateHandler(fn func(Update)) {
	a.updateMu.Lock()
	defer a.updateMu.Unlock()
	a.onUpdate = fn
}

func (a *App) emit(u Update) {
	a.updateMu.RLock()
	fn := a.onUpdate
	a.updateMu.RUnlock()
	if fn != nil {
		fn(u)
	}
}

// AnalysisService exposes the app through the ports boundary.
func (a *App) AnalysisService() ports.AnalysisService {
	return NewAnalysisService(a)
}

// LoaderForPath picks the loader implied by a file extension, falling back
// to the configured loader.
func LoaderForPath(path, fallback string) string {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".ts", ".mts", ".cts":
		return transpile.LoaderTS
	case ".tsx":
		return transpile.LoaderTSX
	case ".jsx":
		return transpile.LoaderJSX
	case ".js", ".mjs", ".cjs":
		return transpile.LoaderJS
	}
	return fallback
}

func (a *App) AnalyzeFile(ctx context.Context, path string) Update {
	start := time.Now()
	u := Update{Path: path}
	data, err := os.ReadFile(path)
	if err != nil {
		u.Err = errors.AddContext(err, errors.CtxPath, path)
		return u
	}
	u.Result, u.Err = a.AnalysisService().Analyze(ctx, ports.AnalyzeRequest{
		Source: string(data),
		Loader: LoaderForPath(path, a.Analyzer().Loader()),
		Path:   path,
	})
	u.Duration = time.Since(start)
	return u
}

// HandleChanges re-analyzes every changed path and publishes one Update per
// path to the update handler.
func (a *App) HandleChanges(paths []string) {
	slog.Info("detected changes", "count", len(paths))
	ctx := context.Background()
	for _, path := range paths {
		if _, err := os.Stat(path); os.IsNotExist(err) {
			a.emit(Update{Path: path, Removed: true})
			continue
		}
		u := a.AnalyzeFile(ctx, path)
		if u.Err != nil {
			slog.Warn("analysis failed", "path", path, "error", u.Err)
		} else {
			slog.Debug("analysis complete", "path", path, "duration", u.Duration,
				"globals", u.Result.Globals, "undefined", u.Result.Undefined)
		}
		a.emit(u)
	}
}

// Watch analyzes every file under the configured watch paths once and then
// re-analyzes files as they change, until ctx is done.
func (a *App) Watch(ctx context.Context) (*watcher.Watcher, error) {
	cfg := a.Config()
	w, err := watcher.New(watcher.Options{
		Debounce:     cfg.Watch.Debounce,
		Extensions:   cfg.Watch.Extensions,
		ExcludeDirs:  cfg.Watch.ExcludeDirs,
		ExcludeFiles: cfg.Watch.ExcludeFiles,
	}, a.HandleChanges)
	if err != nil {
		return nil, errors.Wrap(err, errors.CodeValidationError, "create watcher")
	}

	files, err := w.Scan(cfg.Watch.Paths)
	if err != nil {
		w.Close()
		return nil, errors.AddContext(err, errors.CtxOperation, "initial_scan")
	}
	if len(files) > 0 {
		a.HandleChanges(files)
	}

	if err := w.Watch(cfg.Watch.Paths); err != nil {
		w.Close()
		return nil, errors.AddContext(err, errors.CtxOperation, "watch")
	}
	a.mu.Lock()
	a.watcher = w
	a.mu.Unlock()
	go func() {
		<-ctx.Done()
		w.Close()
		a.mu.Lock()
		if a.watcher == w {
			a.watcher = nil
		}
		a.mu.Unlock()
	}()
	slog.Info("watching", "paths", cfg.Watch.Paths, "files", len(files))
	return w, nil
}
