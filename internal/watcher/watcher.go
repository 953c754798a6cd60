// Package watcher polls project directories and reports changed files.
package watcher

import (
	"context"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"github.com/bmatcuk/doublestar/v4"

	"ngrev/internal/slogutil"
)

// EventType represents the type of file system event
type EventType int

const (
	EventCreate EventType = iota
	EventModify
	EventDelete
)

// Event is one file change under a watched root. Path is slash-separated
// and relative to the root.
type Event struct {
	Type      EventType
	Path      string
	Timestamp time.Time
}

// String returns a string representation of the event type
func (e EventType) String() string {
	switch e {
	case EventCreate:
		return "create"
	case EventModify:
		return "modify"
	case EventDelete:
		return "delete"
	default:
		return "unknown"
	}
}

// ChangeHandler is called with a debounced batch of changes under root
type ChangeHandler func(root string, events []Event)

// Config contains watcher configuration
type Config struct {
	DebounceMs     int
	PollInterval   time.Duration
	IgnorePatterns []string
}

// DefaultConfig returns the default watcher configuration
func DefaultConfig() Config {
	return Config{
		DebounceMs: 500,
		IgnorePatterns: []string{
			"**/*.log",
			"**/*.tmp",
			"node_modules/**",
			"dist/**",
			".git/**",
			".ngrev/**",
		},
		PollInterval: time.Second,
	}
}

// Watcher polls directory trees for file changes
type Watcher struct {
	config  Config
	logger  *slog.Logger
	handler ChangeHandler
	roots   map[string]*rootWatcher

	ctx    context.Context
	cancel context.CancelFunc
	mu     sync.RWMutex
	wg     sync.WaitGroup
}

type rootWatcher struct {
	root   string
	batch  *BatchDebouncer
	files  map[string]stamp
	stopCh chan struct{}
}

type stamp struct {
	size    int64
	modTime time.Time
}

// New creates a watcher. handler runs on a timer goroutine.
func New(config Config, logger *slog.Logger, handler ChangeHandler) *Watcher {
	if logger == nil {
		logger = slogutil.NewDiscardLogger()
	}
	if config.PollInterval <= 0 {
		config.PollInterval = DefaultConfig().PollInterval
	}
	ctx, cancel := context.WithCancel(context.Background())

	return &Watcher{
		config:  config,
		logger:  logger,
		handler: handler,
		roots:   make(map[string]*rootWatcher),
		ctx:     ctx,
		cancel:  cancel,
	}
}

// Watch starts polling root. Watching the same root twice is a no-op.
func (w *Watcher) Watch(root string) error {
	abs, err := filepath.Abs(root)
	if err != nil {
		return err
	}

	w.mu.Lock()
	defer w.mu.Unlock()

	if _, exists := w.roots[abs]; exists {
		return nil
	}

	files, err := w.scan(abs)
	if err != nil {
		return err
	}

	rw := &rootWatcher{
		root:   abs,
		files:  files,
		stopCh: make(chan struct{}),
	}
	rw.batch = NewBatchDebouncer(time.Duration(w.config.DebounceMs)*time.Millisecond, func(events []Event) {
		w.logger.Debug("Changes detected", "root", abs, "eventCount", len(events))
		if w.handler != nil {
			w.handler(abs, events)
		}
	})
	w.roots[abs] = rw

	w.wg.Add(1)
	go w.poll(rw)

	w.logger.Info("Watching directory", "path", abs, "files", len(files))
	return nil
}

// Unwatch stops polling root
func (w *Watcher) Unwatch(root string) {
	abs, err := filepath.Abs(root)
	if err != nil {
		return
	}

	w.mu.Lock()
	defer w.mu.Unlock()

	if rw, exists := w.roots[abs]; exists {
		close(rw.stopCh)
		rw.batch.Cancel()
		delete(w.roots, abs)
		w.logger.Info("Stopped watching directory", "path", abs)
	}
}

// Stop stops every poller and drops pending batches
func (w *Watcher) Stop() {
	w.cancel()

	w.mu.Lock()
	for path, rw := range w.roots {
		close(rw.stopCh)
		rw.batch.Cancel()
		delete(w.roots, path)
	}
	w.mu.Unlock()

	w.wg.Wait()
	w.logger.Debug("File watcher stopped")
}

func (w *Watcher) poll(rw *rootWatcher) {
	defer w.wg.Done()

	ticker := time.NewTicker(w.config.PollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			w.check(rw)
		case <-rw.stopCh:
			return
		case <-w.ctx.Done():
			return
		}
	}
}

// check rescans the tree and queues the difference from the last scan
func (w *Watcher) check(rw *rootWatcher) {
	files, err := w.scan(rw.root)
	if err != nil {
		w.logger.Warn("Scan failed", "root", rw.root, "error", err)
		return
	}

	events := diff(rw.files, files, time.Now())

	w.mu.Lock()
	defer w.mu.Unlock()
	select {
	case <-rw.stopCh:
		return
	default:
	}
	rw.files = files
	rw.batch.Add(events...)
}

func diff(before, after map[string]stamp, now time.Time) []Event {
	var events []Event
	for path, s := range after {
		old, ok := before[path]
		switch {
		case !ok:
			events = append(events, Event{Type: EventCreate, Path: path, Timestamp: now})
		case old != s:
			events = append(events, Event{Type: EventModify, Path: path, Timestamp: now})
		}
	}
	for path := range before {
		if _, ok := after[path]; !ok {
			events = append(events, Event{Type: EventDelete, Path: path, Timestamp: now})
		}
	}
	sort.Slice(events, func(i, j int) bool { return events[i].Path < events[j].Path })
	return events
}

func (w *Watcher) scan(root string) (map[string]stamp, error) {
	files := make(map[string]stamp)
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			if os.IsNotExist(err) && path != root {
				return nil
			}
			return err
		}
		rel, err := filepath.Rel(root, path)
		if err != nil || rel == "." {
			return err
		}
		rel = filepath.ToSlash(rel)
		if w.IsIgnored(rel) {
			if d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}
		if d.IsDir() {
			return nil
		}
		info, err := d.Info()
		if err != nil {
			return nil
		}
		files[rel] = stamp{size: info.Size(), modTime: info.ModTime()}
		return nil
	})
	return files, err
}

// IsIgnored reports whether a slash-separated relative path matches an
// ignore pattern
func (w *Watcher) IsIgnored(path string) bool {
	for _, pattern := range w.config.IgnorePatterns {
		if matched, _ := doublestar.Match(pattern, path); matched {
			return true
		}
	}
	return false
}

// Watched returns the watched roots, sorted
func (w *Watcher) Watched() []string {
	w.mu.RLock()
	defer w.mu.RUnlock()

	roots := make([]string, 0, len(w.roots))
	for path := range w.roots {
		roots = append(roots, path)
	}
	sort.Strings(roots)
	return roots
}

// Stats returns watcher statistics
func (w *Watcher) Stats() map[string]interface{} {
	w.mu.RLock()
	defer w.mu.RUnlock()

	files := 0
	for _, rw := range w.roots {
		files += len(rw.files)
	}
	return map[string]interface{}{
		"watchedRoots":   len(w.roots),
		"files":          files,
		"debounceMs":     w.config.DebounceMs,
		"ignorePatterns": len(w.config.IgnorePatterns),
	}
}
