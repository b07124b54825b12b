// Package fswatch watches a project tree with fsnotify and debounces
// bursts of filesystem events into a single re-entry to the
// differential orchestrator. It introduces no graph semantics: it
// only decides when to call back, not what to do, and it never holds
// the incremental index's write lock across an I/O wait since it
// never touches the index directly; the caller's trigger callback
// does.
package fswatch

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
)

// Watcher recursively watches root, skipping excludeDirs by base name,
// and calls onTrigger at most once per debounce window after the last
// observed event.
type Watcher struct {
	fsw         *fsnotify.Watcher
	root        string
	excludeDirs map[string]bool
	debounce    time.Duration
	onTrigger   func()

	mu     sync.Mutex
	timer  *time.Timer
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// New creates a Watcher over root. onTrigger runs on a timer
// goroutine (time.AfterFunc), not on the event-processing goroutine,
// so a slow trigger does not delay event processing; a trigger still
// running when the next debounce window expires runs concurrently
// with the next one.
func New(root string, excludeDirs []string, debounce time.Duration, onTrigger func()) (*Watcher, error) {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}

	excl := make(map[string]bool, len(excludeDirs))
	for _, d := range excludeDirs {
		excl[d] = true
	}

	return &Watcher{
		fsw:         fsw,
		root:        root,
		excludeDirs: excl,
		debounce:    debounce,
		onTrigger:   onTrigger,
	}, nil
}

// Start adds recursive watches under root and begins processing
// events until ctx is cancelled or Stop is called.
func (w *Watcher) Start(ctx context.Context) error {
	if err := w.addWatches(w.root); err != nil {
		return err
	}

	ctx, cancel := context.WithCancel(ctx)
	w.cancel = cancel

	w.wg.Add(1)
	go w.run(ctx)
	return nil
}

// Stop cancels event processing and closes the underlying fsnotify
// watcher, waiting for the processing goroutine to exit.
func (w *Watcher) Stop() error {
	if w.cancel != nil {
		w.cancel()
	}
	err := w.fsw.Close()
	w.wg.Wait()
	return err
}

func (w *Watcher) addWatches(root string) error {
	// Symlinks are not followed; Walk itself never descends into
	// symlinked directories.
	return filepath.Walk(root, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return nil
		}
		if !info.IsDir() {
			return nil
		}
		if w.excludeDirs[info.Name()] {
			return filepath.SkipDir
		}
		if addErr := w.fsw.Add(path); addErr != nil {
			return nil
		}
		return nil
	})
}

func (w *Watcher) run(ctx context.Context) {
	defer w.wg.Done()
	for {
		select {
		case <-ctx.Done():
			w.mu.Lock()
			if w.timer != nil {
				w.timer.Stop()
			}
			w.mu.Unlock()
			return

		case event, ok := <-w.fsw.Events:
			if !ok {
				return
			}
			w.handleEvent(event)

		case _, ok := <-w.fsw.Errors:
			if !ok {
				return
			}
		}
	}
}

func (w *Watcher) handleEvent(event fsnotify.Event) {
	if event.Op&fsnotify.Create != 0 {
		if info, err := os.Stat(event.Name); err == nil && info.IsDir() {
			if !w.excludeDirs[info.Name()] {
				_ = w.fsw.Add(event.Name)
			}
		}
	}

	w.mu.Lock()
	defer w.mu.Unlock()
	if w.timer != nil {
		w.timer.Stop()
	}
	w.timer = time.AfterFunc(w.debounce, w.onTrigger)
}
