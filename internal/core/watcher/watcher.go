// Package watcher reports batches of changed source files under a set of roots.
package watcher

import (
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"scopelens/internal/shared/observability"
	"scopelens/internal/shared/util"

	"github.com/cespare/xxhash/v2"
	"github.com/fsnotify/fsnotify"
	"github.com/gobwas/glob"
)

// Options selects which files trigger a change notification.
type Options struct {
	Debounce     time.Duration
	Extensions   []string
	ExcludeDirs  []string
	ExcludeFiles []string
}

type pattern struct {
	glob glob.Glob
	// full patterns contain a separator and match the slash path, others the base name.
	full bool
}

// Watcher debounces filesystem events and calls onChange with the paths whose
// content actually changed. Writes that leave a file byte-identical are dropped.
type Watcher struct {
	fsWatcher    *fsnotify.Watcher
	debounce     time.Duration
	excludeDirs  []pattern
	excludeFiles []pattern
	extensions   map[string]bool
	onChange     func([]string)
	callbackMu   sync.Mutex

	pending   map[string]struct{}
	hashes    map[string]uint64
	pendingMu sync.Mutex
	timer     *time.Timer
	done      chan struct{}
	closeOnce sync.Once
}

func compile(patterns []string) ([]pattern, error) {
	out := make([]pattern, 0, len(patterns))
	for _, p := range patterns {
		p = util.NormalizePatternPath(p)
		if p == "" {
			continue
		}
		g, err := glob.Compile(p, '/')
		if err != nil {
			return nil, err
		}
		out = append(out, pattern{glob: g, full: util.ContainsPathSeparator(p)})
	}
	return out, nil
}

func matchAny(patterns []pattern, path string) bool {
	slashed := util.NormalizePatternPath(path)
	base := filepath.Base(path)
	for _, p := range patterns {
		if p.full {
			if p.glob.Match(slashed) {
				return true
			}
			continue
		}
		if p.glob.Match(base) {
			return true
		}
	}
	return false
}

func New(opts Options, onChange func([]string)) (*Watcher, error) {
	if onChange == nil {
		return nil, os.ErrInvalid
	}

	dirs, err := compile(opts.ExcludeDirs)
	if err != nil {
		return nil, err
	}
	files, err := compile(opts.ExcludeFiles)
	if err != nil {
		return nil, err
	}

	exts := make(map[string]bool, len(opts.Extensions))
	for _, ext := range opts.Extensions {
		ext = strings.ToLower(strings.TrimSpace(ext))
		if ext != "" {
			exts[ext] = true
		}
	}

	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}

	return &Watcher{
		fsWatcher:    fsw,
		debounce:     opts.Debounce,
		excludeDirs:  dirs,
		excludeFiles: files,
		extensions:   exts,
		onChange:     onChange,
		pending:      make(map[string]struct{}),
		hashes:       make(map[string]uint64),
		done:         make(chan struct{}),
	}, nil
}

// SetDebounce changes the quiet period for batches scheduled from now on.
func (w *Watcher) SetDebounce(debounce time.Duration) {
	w.pendingMu.Lock()
	defer w.pendingMu.Unlock()
	w.debounce = debounce
}

func (w *Watcher) Debounce() time.Duration {
	w.pendingMu.Lock()
	defer w.pendingMu.Unlock()
	return w.debounce
}

// Watch registers every non-excluded directory below paths and starts the
// event loop. Files already present are hashed so that a later no-op save
// does not fire.
func (w *Watcher) Watch(paths []string) error {
	for _, path := range paths {
		if err := w.watchRecursive(path, false); err != nil {
			return err
		}
	}

	go w.run()
	return nil
}

// Scan lists the accepted files under paths without watching them, in walk
// order. Excluded directories are not descended into.
func (w *Watcher) Scan(paths []string) ([]string, error) {
	var files []string
	for _, root := range paths {
		err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
			if err != nil {
				return err
			}
			if d.IsDir() {
				if path != root && w.shouldExcludeDir(path) {
					return filepath.SkipDir
				}
				return nil
			}
			if !w.shouldExcludeFile(path) {
				files = append(files, path)
			}
			return nil
		})
		if err != nil {
			return nil, err
		}
	}
	return files, nil
}

// Accepts reports whether path would be delivered to the callback.
func (w *Watcher) Accepts(path string) bool {
	return !w.shouldExcludeFile(path)
}

func (w *Watcher) watchRecursive(root string, enqueue bool) error {
	return filepath.Walk(root, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}

		if info.IsDir() {
			if path != root && w.shouldExcludeDir(path) {
				return filepath.SkipDir
			}
			return w.fsWatcher.Add(path)
		}

		if w.shouldExcludeFile(path) {
			return nil
		}
		if enqueue {
			w.scheduleChange(path)
			return nil
		}
		if sum, ok := hashFile(path); ok {
			w.pendingMu.Lock()
			w.hashes[path] = sum
			w.pendingMu.Unlock()
		}
		return nil
	})
}

func (w *Watcher) run() {
	for {
		select {
		case event, ok := <-w.fsWatcher.Events:
			if !ok {
				return
			}
			observability.WatcherEventsTotal.Inc()

			if event.Has(fsnotify.Create) {
				info, err := os.Stat(event.Name)
				if err == nil && info.IsDir() {
					if !w.shouldExcludeDir(event.Name) {
						if err := w.watchRecursive(event.Name, true); err != nil {
							slog.Warn("failed to watch new directory", "path", event.Name, "error", err)
						}
					}
					continue
				}
			}

			if w.shouldExcludeFile(event.Name) {
				continue
			}

			if event.Has(fsnotify.Write) || event.Has(fsnotify.Create) ||
				event.Has(fsnotify.Remove) || event.Has(fsnotify.Rename) {
				w.scheduleChange(event.Name)
			}

		case err, ok := <-w.fsWatcher.Errors:
			if !ok {
				return
			}
			slog.Error("watcher error", "error", err)

		case <-w.done:
			return
		}
	}
}

func (w *Watcher) scheduleChange(path string) {
	w.pendingMu.Lock()
	defer w.pendingMu.Unlock()

	w.pending[path] = struct{}{}

	if w.timer != nil {
		w.timer.Stop()
	}
	w.timer = time.AfterFunc(w.debounce, w.flushChanges)
}

func (w *Watcher) flushChanges() {
	w.pendingMu.Lock()
	candidates := make([]string, 0, len(w.pending))
	for path := range w.pending {
		candidates = append(candidates, path)
	}
	w.pending = make(map[string]struct{})

	changed := candidates[:0]
	for _, path := range candidates {
		sum, ok := hashFile(path)
		prev, seen := w.hashes[path]
		switch {
		case !ok && !seen:
			continue
		case !ok:
			delete(w.hashes, path)
		case seen && prev == sum:
			continue
		default:
			w.hashes[path] = sum
		}
		changed = append(changed, path)
	}
	w.pendingMu.Unlock()

	if len(changed) == 0 {
		return
	}
	select {
	case <-w.done:
		return
	default:
	}
	w.callbackMu.Lock()
	defer w.callbackMu.Unlock()
	w.onChange(changed)
}

func hashFile(path string) (uint64, bool) {
	data, err := os.ReadFile(path)
	if err != nil {
		return 0, false
	}
	return xxhash.Sum64(data), true
}

func (w *Watcher) shouldExcludeDir(path string) bool {
	return matchAny(w.excludeDirs, path)
}

func (w *Watcher) shouldExcludeFile(path string) bool {
	if len(w.extensions) > 0 && !w.extensions[strings.ToLower(filepath.Ext(path))] {
		return true
	}
	return matchAny(w.excludeFiles, path)
}

func (w *Watcher) Close() error {
	w.closeOnce.Do(func() { close(w.done) })
	w.pendingMu.Lock()
	if w.timer != nil {
		w.timer.Stop()
	}
	w.pendingMu.Unlock()
	return w.fsWatcher.Close()
}
