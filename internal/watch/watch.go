// Package watch re-renders documents when their sources change.
package watch

import (
	"context"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"git.home.luguber.info/inful/mdpipeline/internal/foundation/errors"
	"git.home.luguber.info/inful/mdpipeline/internal/logfields"
)

// Handler renders the changed source paths, relative to the watched root.
type Handler func(ctx context.Context, changed []string) error

// Watcher watches a directory tree and calls its handler with the sources
// that changed, at most once per debounce interval. Handler calls never
// overlap; changes arriving during a call are delivered afterwards.
type Watcher struct {
	root     string
	debounce time.Duration
	handler  Handler
	logger   *slog.Logger
	fs       *fsnotify.Watcher

	mu      sync.Mutex
	pending map[string]struct{}
	timer   *time.Timer
	ready   chan struct{}
}

// Option configures a Watcher.
type Option func(*Watcher)

func WithLogger(l *slog.Logger) Option {
	return func(w *Watcher) {
		if l != nil {
			w.logger = l
		}
	}
}

// New watches every directory below root.
func New(root string, debounce time.Duration, h Handler, opts ...Option) (*Watcher, error) {
	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, errors.FileSystemError("failed to resolve watch root").WithCause(err).WithContext("path", root).Build()
	}
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, errors.FileSystemError("failed to create file watcher").WithCause(err).Build()
	}
	w := &Watcher{
		root:     abs,
		debounce: debounce,
		handler:  h,
		logger:   slog.Default(),
		fs:       fw,
		pending:  map[string]struct{}{},
		ready:    make(chan struct{}, 1),
	}
	for _, opt := range opts {
		opt(w)
	}
	if err := w.addRecursive(abs); err != nil {
		_ = fw.Close()
		return nil, err
	}
	return w, nil
}

// Run processes events until ctx is done.
func (w *Watcher) Run(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	done := make(chan struct{})
	go func() {
		defer close(done)
		w.worker(ctx)
	}()
	defer func() {
		cancel()
		w.stopTimer()
		<-done
	}()

	w.logger.Info("Watching for changes", logfields.Path(w.root))
	for {
		select {
		case <-ctx.Done():
			return nil
		case ev, ok := <-w.fs.Events:
			if !ok {
				return nil
			}
			w.handleEvent(ev)
		case err, ok := <-w.fs.Errors:
			if !ok {
				return nil
			}
			w.logger.Warn("Watcher error", logfields.Error(err))
		}
	}
}

// Close stops watching.
func (w *Watcher) Close() error {
	w.stopTimer()
	return w.fs.Close()
}

func (w *Watcher) handleEvent(ev fsnotify.Event) {
	if ignored(ev.Name) {
		return
	}
	if ev.Has(fsnotify.Create) {
		if fi, err := os.Stat(ev.Name); err == nil && fi.IsDir() {
			if err := w.addRecursive(ev.Name); err != nil {
				w.logger.Warn("Failed to watch new directory", logfields.Path(ev.Name), logfields.Error(err))
			}
			return
		}
	}
	if !IsSource(ev.Name) || (ev.Has(fsnotify.Chmod) && !ev.Has(fsnotify.Write)) {
		return
	}
	rel, err := filepath.Rel(w.root, ev.Name)
	if err != nil {
		return
	}
	w.logger.Debug("Source change detected", logfields.Path(rel), slog.String("op", ev.Op.String()))
	w.trigger(filepath.ToSlash(rel))
}

// trigger queues path and restarts the debounce timer.
func (w *Watcher) trigger(path string) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.pending[path] = struct{}{}
	if w.timer != nil {
		w.timer.Stop()
	}
	w.timer = time.AfterFunc(w.debounce, func() {
		select {
		case w.ready <- struct{}{}:
		default:
		}
	})
}

func (w *Watcher) stopTimer() {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.timer != nil {
		w.timer.Stop()
	}
}

// take returns and clears the pending paths in sorted order.
func (w *Watcher) take() []string {
	w.mu.Lock()
	defer w.mu.Unlock()
	paths := make([]string, 0, len(w.pending))
	for p := range w.pending {
		paths = append(paths, p)
	}
	clear(w.pending)
	slices.Sort(paths)
	return paths
}

func (w *Watcher) worker(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case <-w.ready:
			changed := w.take()
			if len(changed) == 0 {
				continue
			}
			if err := w.handler(ctx, changed); err != nil {
				w.logger.Warn("Re-render failed", logfields.Error(err))
			}
		}
	}
}

func (w *Watcher) addRecursive(root string) error {
	return filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return nil
		}
		if !d.IsDir() {
			return nil
		}
		if path != root && ignored(path) {
			return filepath.SkipDir
		}
		if err := w.fs.Add(path); err != nil {
			w.logger.Warn("Failed to watch directory", logfields.Path(path), logfields.Error(err))
		}
		return nil
	})
}

// IsSource reports whether path names a Markdown or MDX source.
func IsSource(path string) bool {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".md", ".mdx", ".markdown":
		return true
	}
	return false
}

// ignored reports hidden files and editor temporaries.
func ignored(path string) bool {
	base := filepath.Base(path)
	switch {
	case strings.HasPrefix(base, "."),
		strings.HasSuffix(base, "~"),
		strings.HasSuffix(base, ".swp"),
		strings.HasSuffix(base, ".swx"),
		strings.HasPrefix(base, "#") && strings.HasSuffix(base, "#"):
		return true
	}
	return base == "node_modules"
}
