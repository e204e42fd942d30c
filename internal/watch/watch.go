// Package watch provides debounced file system watching over a
// registered workspace directory.
//
// Events are queued per path and released as one batch once the
// workspace has been quiet for the debounce interval, so an editor
// save-storm or a branch switch produces a single notification instead
// of hundreds.
package watch

import (
	"context"
	"fmt"
	"io/fs"
	"log"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
)

// BatchFunc receives the quiesced change batch: the sorted, de-duplicated
// paths that changed since the previous batch.
type BatchFunc func(ctx context.Context, paths []string)

// Config controls a Watcher.
type Config struct {
	// Dir is the workspace root to watch. Subdirectories are watched
	// recursively; VCS metadata directories are skipped.
	Dir string

	// DebounceInterval is how long the workspace must stay quiet before
	// a batch is released.
	DebounceInterval time.Duration

	// OnBatch is invoked with each released batch. Required.
	OnBatch BatchFunc

	// Logger receives event and error lines. Required.
	Logger *log.Logger
}

// DefaultDebounceInterval batches rapid successive writes.
const DefaultDebounceInterval = 500 * time.Millisecond

// Watcher watches one workspace directory tree.
type Watcher struct {
	cfg     Config
	watcher *fsnotify.Watcher

	mu      sync.Mutex
	pending map[string]time.Time
	running bool

	done chan struct{}
	wg   sync.WaitGroup
}

// New creates a Watcher for the configured directory.
func New(cfg Config) (*Watcher, error) {
	if cfg.OnBatch == nil {
		return nil, fmt.Errorf("watch: OnBatch is required")
	}
	if cfg.Logger == nil {
		return nil, fmt.Errorf("watch: Logger is required")
	}
	if cfg.DebounceInterval <= 0 {
		cfg.DebounceInterval = DefaultDebounceInterval
	}

	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create fsnotify watcher: %w", err)
	}

	return &Watcher{
		cfg:     cfg,
		watcher: fsw,
		pending: make(map[string]time.Time),
		done:    make(chan struct{}),
	}, nil
}

// Start registers the directory tree and begins watching. The batch
// callback runs on the watcher's goroutine until ctx is canceled or
// Stop is called.
func (w *Watcher) Start(ctx context.Context) error {
	w.mu.Lock()
	if w.running {
		w.mu.Unlock()
		return fmt.Errorf("watcher already running")
	}
	w.running = true
	w.mu.Unlock()

	if err := w.addTree(w.cfg.Dir); err != nil {
		return err
	}

	w.wg.Add(2)
	go w.collectEvents(ctx)
	go w.releaseBatches(ctx)
	return nil
}

// Stop shuts the watcher down and waits for its goroutines.
func (w *Watcher) Stop() error {
	w.mu.Lock()
	if !w.running {
		w.mu.Unlock()
		return nil
	}
	w.running = false
	w.mu.Unlock()

	close(w.done)
	err := w.watcher.Close()
	w.wg.Wait()
	if err != nil {
		return fmt.Errorf("failed to close watcher: %w", err)
	}
	return nil
}

// addTree registers dir and every subdirectory, skipping VCS metadata.
func (w *Watcher) addTree(dir string) error {
	return filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() {
			return nil
		}
		if skipDir(d.Name()) {
			return filepath.SkipDir
		}
		if err := w.watcher.Add(path); err != nil {
			return fmt.Errorf("failed to watch %s: %w", path, err)
		}
		return nil
	})
}

func skipDir(name string) bool {
	switch name {
	case ".git", ".fit", "_FOSSIL_":
		return true
	}
	return false
}

// collectEvents drains fsnotify events into the pending queue.
func (w *Watcher) collectEvents(ctx context.Context) {
	defer w.wg.Done()

	for {
		select {
		case <-ctx.Done():
			return
		case <-w.done:
			return

		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			if event.Op&(fsnotify.Create|fsnotify.Write|fsnotify.Remove|fsnotify.Rename) == 0 {
				continue
			}
			if ignored(event.Name) {
				continue
			}

			// New directories join the watch so nested changes are seen.
			if event.Has(fsnotify.Create) {
				if info, err := os.Stat(event.Name); err == nil && info.IsDir() {
					if err := w.addTree(event.Name); err != nil {
						w.cfg.Logger.Printf("failed to watch new directory: %v", err)
					}
				}
			}

			w.mu.Lock()
			w.pending[event.Name] = time.Now()
			w.mu.Unlock()

		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			w.cfg.Logger.Printf("watcher error: %v", err)
		}
	}
}

// ignored filters paths inside VCS metadata and editor temp files.
func ignored(path string) bool {
	for _, part := range strings.Split(filepath.ToSlash(path), "/") {
		if skipDir(part) {
			return true
		}
	}
	base := filepath.Base(path)
	return strings.HasSuffix(base, "~") || strings.HasSuffix(base, ".swp")
}

// releaseBatches ticks at the debounce interval and releases the queue
// once every pending path has been quiet long enough.
func (w *Watcher) releaseBatches(ctx context.Context) {
	defer w.wg.Done()

	ticker := time.NewTicker(w.cfg.DebounceInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-w.done:
			return
		case <-ticker.C:
			if batch := w.takeQuietBatch(); len(batch) > 0 {
				w.cfg.Logger.Printf("%d paths changed", len(batch))
				w.cfg.OnBatch(ctx, batch)
			}
		}
	}
}

// takeQuietBatch removes and returns the pending paths, or nil if any
// path is still inside its debounce window (the batch waits for the
// workspace to settle as a whole).
func (w *Watcher) takeQuietBatch() []string {
	w.mu.Lock()
	defer w.mu.Unlock()

	if len(w.pending) == 0 {
		return nil
	}

	now := time.Now()
	for _, queuedAt := range w.pending {
		if now.Sub(queuedAt) < w.cfg.DebounceInterval {
			return nil
		}
	}

	batch := make([]string, 0, len(w.pending))
	for path := range w.pending {
		batch = append(batch, path)
	}
	w.pending = make(map[string]time.Time)
	sort.Strings(batch)
	return batch
}
