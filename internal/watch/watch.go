// Package watch rescans a project tree whenever files below it change.
package watch

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/paveg/textrules/internal/report"
	"go.uber.org/zap"
)

// DefaultDebounce is how long the tree must stay quiet before a rescan
const DefaultDebounce = 500 * time.Millisecond

// ScanFunc produces a report for the watched tree
type ScanFunc func(ctx context.Context) (*report.Report, error)

// Options configures a Watcher
type Options struct {
	// Debounce delays a rescan until no event arrived for this long
	Debounce time.Duration
	// Filter selects the file events that trigger a rescan. Nil accepts all.
	// Creating, removing or renaming a directory always triggers one.
	Filter func(path string) bool
	// OnReport receives every report, starting with the initial scan
	OnReport func(*report.Report)
	Logger   *zap.Logger
}

// Stats counts watcher activity
type Stats struct {
	Events    int
	Scans     int
	Errors    int
	LastScan  time.Time
	LastEvent string
}

// Watcher scans a tree once, then again after every settled burst of changes
type Watcher struct {
	root   string
	scan   ScanFunc
	opts   Options
	logger *zap.Logger

	// dirs holds the watched directories. Only the Run goroutine uses it.
	dirs map[string]struct{}

	mu    sync.RWMutex
	stats Stats
}

// New returns a watcher for root
func New(root string, scan ScanFunc, opts Options) *Watcher {
	if opts.Debounce <= 0 {
		opts.Debounce = DefaultDebounce
	}
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Watcher{root: root, scan: scan, opts: opts, logger: logger, dirs: make(map[string]struct{})}
}

// Run watches root until ctx is done. It returns nil on cancellation.
func Run(ctx context.Context, root string, scan ScanFunc, opts Options) error {
	return New(root, scan, opts).Run(ctx)
}

// Stats returns a snapshot of the watcher counters
func (w *Watcher) Stats() Stats {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.stats
}

// Run performs the initial scan, then rescans on changes until ctx is done.
func (w *Watcher) Run(ctx context.Context) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("creating watcher: %w", err)
	}
	defer watcher.Close()

	if err := w.addTree(watcher, w.root); err != nil {
		return err
	}
	w.logger.Info("watching", zap.String("root", w.root), zap.Duration("debounce", w.opts.Debounce))

	w.rescan(ctx)

	var (
		timer   *time.Timer
		pending <-chan time.Time
	)
	defer func() {
		if timer != nil {
			timer.Stop()
		}
	}()

	for {
		select {
		case <-ctx.Done():
			w.logger.Info("watch stopped", zap.String("root", w.root))
			return nil

		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if !w.handleEvent(watcher, event) {
				continue
			}
			if timer == nil {
				timer = time.NewTimer(w.opts.Debounce)
			} else {
				timer.Reset(w.opts.Debounce)
			}
			pending = timer.C

		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			w.logger.Error("watch error", zap.Error(err))
			w.mu.Lock()
			w.stats.Errors++
			w.mu.Unlock()

		case <-pending:
			pending = nil
			w.rescan(ctx)
		}
	}
}

// handleEvent reports whether event should trigger a rescan
func (w *Watcher) handleEvent(watcher *fsnotify.Watcher, event fsnotify.Event) bool {
	if event.Op == fsnotify.Chmod {
		return false
	}

	if event.Has(fsnotify.Create) {
		if info, err := os.Stat(event.Name); err == nil && info.IsDir() {
			if err := w.addTree(watcher, event.Name); err != nil {
				w.logger.Warn("unable to watch new directory", zap.String("path", event.Name), zap.Error(err))
			}
			w.record(event)
			return true
		}
	}

	if event.Has(fsnotify.Remove) || event.Has(fsnotify.Rename) {
		if w.forgetTree(watcher, event.Name) {
			w.record(event)
			return true
		}
	}

	if w.opts.Filter != nil && !w.opts.Filter(event.Name) {
		return false
	}
	w.record(event)
	return true
}

func (w *Watcher) record(event fsnotify.Event) {
	w.logger.Debug("change detected", zap.String("path", event.Name), zap.Stringer("op", event.Op))
	w.mu.Lock()
	w.stats.Events++
	w.stats.LastEvent = event.Name
	w.mu.Unlock()
}

// addTree watches dir and every directory below it
func (w *Watcher) addTree(watcher *fsnotify.Watcher, dir string) error {
	return filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			if path == dir {
				return fmt.Errorf("watching %s: %w", dir, err)
			}
			w.logger.Warn("skipping unreadable directory", zap.String("path", path), zap.Error(err))
			return filepath.SkipDir
		}
		if !d.IsDir() {
			return nil
		}
		if err := watcher.Add(path); err != nil {
			return fmt.Errorf("watching %s: %w", path, err)
		}
		w.dirs[filepath.Clean(path)] = struct{}{}
		return nil
	})
}

// forgetTree stops watching dir and the directories below it. It reports
// whether dir was watched.
func (w *Watcher) forgetTree(watcher *fsnotify.Watcher, dir string) bool {
	dir = filepath.Clean(dir)
	if _, ok := w.dirs[dir]; !ok {
		return false
	}

	prefix := dir + string(filepath.Separator)
	for path := range w.dirs {
		if path != dir && !strings.HasPrefix(path, prefix) {
			continue
		}
		delete(w.dirs, path)
		// The kernel drops the watch of a removed directory on its own.
		_ = watcher.Remove(path)
	}
	return true
}

func (w *Watcher) rescan(ctx context.Context) {
	r, err := w.scan(ctx)
	if err != nil {
		if ctx.Err() != nil {
			return
		}
		w.logger.Error("scan failed", zap.String("root", w.root), zap.Error(err))
		w.mu.Lock()
		w.stats.Errors++
		w.mu.Unlock()
		return
	}

	w.mu.Lock()
	w.stats.Scans++
	w.stats.LastScan = time.Now()
	w.mu.Unlock()

	if w.opts.OnReport != nil {
		w.opts.OnReport(r)
	}
}
