// Package watch re-runs the extraction pipeline whenever a watched source
// tree changes. Grounded on the teacher's internal/core/mangle_watcher.go:
// same fsnotify + debounce-ticker event loop, narrowed from "watch one
// config directory and trigger a Mangle repair" to "watch a source tree and
// trigger pipeline.Run".
package watch

import (
	"context"
	"io/fs"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"grafema/internal/astparse"
	"grafema/internal/glog"
)

// Stats mirrors the teacher's MangleWatcherStats, narrowed to the events a
// source-tree watcher actually cares about.
type Stats struct {
	FilesChanged int
	RunsTriggered int
	Errors        int
}

// Watcher watches a root directory for JS/TS source changes and invokes
// OnChange, debounced, with the set of changed paths since the last run.
type Watcher struct {
	mu          sync.Mutex
	fsw         *fsnotify.Watcher
	root        string
	debounceDur time.Duration
	pending     map[string]bool
	stopCh      chan struct{}
	doneCh      chan struct{}
	stats       Stats

	OnChange func(ctx context.Context, changed []string)
}

// New builds a Watcher rooted at root with a 300ms debounce window — long
// enough to coalesce a save-all across several files, short enough to feel
// interactive.
func New(root string) (*Watcher, error) {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	return &Watcher{
		fsw: fsw, root: root, debounceDur: 300 * time.Millisecond,
		pending: make(map[string]bool), stopCh: make(chan struct{}), doneCh: make(chan struct{}),
	}, nil
}

// Start walks root adding every directory to the watcher (fsnotify is not
// recursive) and begins the event loop in a goroutine. Non-blocking.
func (w *Watcher) Start(ctx context.Context) error {
	if err := filepath.WalkDir(w.root, func(path string, d fs.DirEntry, err error) error {
		if err != nil || !d.IsDir() || skippedWatchDirs[filepath.Base(path)] {
			return nil
		}
		return w.fsw.Add(path)
	}); err != nil {
		return err
	}
	glog.Orchestrator("watch: watching %s", w.root)
	go w.run(ctx)
	return nil
}

var skippedWatchDirs = map[string]bool{"node_modules": true, ".git": true, "dist": true, "build": true, ".grafema": true}

// Stop stops the watcher and waits for the event loop to exit.
func (w *Watcher) Stop() {
	close(w.stopCh)
	<-w.doneCh
	_ = w.fsw.Close()
}

func (w *Watcher) run(ctx context.Context) {
	defer close(w.doneCh)
	ticker := time.NewTicker(w.debounceDur)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-w.stopCh:
			return
		case ev, ok := <-w.fsw.Events:
			if !ok {
				return
			}
			w.handleEvent(ev)
		case err, ok := <-w.fsw.Errors:
			if !ok {
				return
			}
			glog.OrchestratorWarn("watch: %v", err)
			w.mu.Lock()
			w.stats.Errors++
			w.mu.Unlock()
		case <-ticker.C:
			w.flush(ctx)
		}
	}
}

func (w *Watcher) handleEvent(ev fsnotify.Event) {
	if !astparse.Supports(ev.Name) {
		return
	}
	w.mu.Lock()
	w.pending[ev.Name] = true
	w.stats.FilesChanged++
	w.mu.Unlock()
}

func (w *Watcher) flush(ctx context.Context) {
	w.mu.Lock()
	if len(w.pending) == 0 {
		w.mu.Unlock()
		return
	}
	changed := make([]string, 0, len(w.pending))
	for path := range w.pending {
		changed = append(changed, path)
	}
	w.pending = make(map[string]bool)
	w.stats.RunsTriggered++
	w.mu.Unlock()

	if w.OnChange != nil {
		w.OnChange(ctx, changed)
	}
}

// Stats returns a snapshot of the watcher's activity counters.
func (w *Watcher) Stats() Stats {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.stats
}
