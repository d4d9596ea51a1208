package rag

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
)

// WatcherConfig holds configuration for the Watcher.
type WatcherConfig struct {
	Debounce time.Duration // settle time before a changed file is re-indexed (default: 2s)
}

// Watcher keeps an indexed directory tree current: changed or created
// indexable files are re-indexed after a debounce window, removed files are
// forgotten. Editors firing bursts of write events collapse into one
// re-index per file.
type Watcher struct {
	manager  *Manager
	fs       *fsnotify.Watcher
	debounce time.Duration

	mu       sync.Mutex
	dirty    map[string]time.Time // path → last event
	stopOnce sync.Once
	done     chan struct{}
}

// NewWatcher creates a watcher over root, registering every subdirectory.
func NewWatcher(manager *Manager, root string, cfg WatcherConfig) (*Watcher, error) {
	if cfg.Debounce <= 0 {
		cfg.Debounce = 2 * time.Second
	}

	fs, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	w := &Watcher{
		manager:  manager,
		fs:       fs,
		debounce: cfg.Debounce,
		dirty:    map[string]time.Time{},
		done:     make(chan struct{}),
	}
	if err := w.watchTree(root); err != nil {
		fs.Close()
		return nil, err
	}
	return w, nil
}

// watchTree registers root and all nested directories. fsnotify watches are
// per-directory and not recursive.
func (w *Watcher) watchTree(root string) error {
	pending := []string{root}
	for len(pending) > 0 {
		dir := pending[0]
		pending = pending[1:]

		if err := w.fs.Add(dir); err != nil {
			return err
		}
		entries, err := os.ReadDir(dir)
		if err != nil {
			slog.Warn("Watcher skipping unreadable directory", "path", dir, "error", err)
			continue
		}
		for _, entry := range entries {
			if entry.IsDir() {
				pending = append(pending, filepath.Join(dir, entry.Name()))
			}
		}
	}
	return nil
}

// Run processes filesystem events until ctx is cancelled.
func (w *Watcher) Run(ctx context.Context) {
	// Flush at half the debounce, floored so a tiny debounce cannot yield
	// a zero ticker interval.
	interval := w.debounce / 2
	if interval < time.Millisecond {
		interval = time.Millisecond
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	defer close(w.done)
	defer w.fs.Close()

	for {
		select {
		case <-ctx.Done():
			return
		case event, ok := <-w.fs.Events:
			if !ok {
				return
			}
			w.handle(ctx, event)
		case err, ok := <-w.fs.Errors:
			if !ok {
				return
			}
			slog.Warn("Watcher error", "error", err)
		case <-ticker.C:
			w.flush(ctx)
		}
	}
}

// Stop waits for the event loop to finish after ctx cancellation.
func (w *Watcher) Stop() {
	<-w.done
}

func (w *Watcher) handle(ctx context.Context, event fsnotify.Event) {
	switch {
	case event.Op.Has(fsnotify.Remove) || event.Op.Has(fsnotify.Rename):
		// The path may have been a file or a directory; prefix removal
		// covers both.
		if n, err := w.manager.Forget(ctx, event.Name); err != nil {
			slog.Warn("Watcher forget failed", "path", event.Name, "error", err)
		} else if n > 0 {
			slog.Info("Forgot removed path", "path", event.Name, "documents", n)
		}
		w.mu.Lock()
		delete(w.dirty, event.Name)
		w.mu.Unlock()

	case event.Op.Has(fsnotify.Create) || event.Op.Has(fsnotify.Write):
		if info, err := os.Stat(event.Name); err == nil && info.IsDir() {
			if event.Op.Has(fsnotify.Create) {
				if err := w.watchTree(event.Name); err != nil {
					slog.Warn("Watcher add directory failed", "path", event.Name, "error", err)
				}
			}
			return
		}
		if !IsIndexable(event.Name) {
			return
		}
		w.mu.Lock()
		w.dirty[event.Name] = time.Now()
		w.mu.Unlock()
	}
}

// flush re-indexes files whose debounce window has passed.
func (w *Watcher) flush(ctx context.Context) {
	w.mu.Lock()
	var due []string
	now := time.Now()
	for path, last := range w.dirty {
		if now.Sub(last) >= w.debounce {
			due = append(due, path)
			delete(w.dirty, path)
		}
	}
	w.mu.Unlock()

	for _, path := range due {
		if ctx.Err() != nil {
			return
		}
		if err := w.manager.ReindexFile(ctx, path); err != nil {
			slog.Warn("Watcher reindex failed", "path", path, "error", err)
			continue
		}
		slog.Info("Reindexed file", "path", path)
	}
}
