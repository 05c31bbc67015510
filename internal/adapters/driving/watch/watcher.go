// Package watch reloads the published index when another process
// replaces the persisted generation.
package watch

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/custodia-labs/shelfwise/internal/core/domain"
	"github.com/custodia-labs/shelfwise/internal/logger"
)

// DefaultDebounce coalesces the burst of events a single write produces.
const DefaultDebounce = 250 * time.Millisecond

// Reloader publishes the persisted index generation.
type Reloader interface {
	Reload(ctx context.Context) (*domain.IndexInfo, error)
}

// Watcher triggers a reload whenever one of its files changes.
type Watcher struct {
	reloader Reloader
	files    map[string]struct{}
	dirs     []string
	debounce time.Duration

	// OnReload is called after every reload attempt. Optional.
	OnReload func(info *domain.IndexInfo, err error)
}

// New creates a watcher for files. The parent directories are watched
// rather than the files so that atomic replace-by-rename is seen.
func New(reloader Reloader, files ...string) (*Watcher, error) {
	if reloader == nil {
		return nil, errors.New("watch: reloader is required")
	}
	if len(files) == 0 {
		return nil, fmt.Errorf("%w: no files to watch", domain.ErrInvalidInput)
	}

	w := &Watcher{
		reloader: reloader,
		files:    make(map[string]struct{}, len(files)),
		debounce: DefaultDebounce,
	}
	seen := make(map[string]bool)
	for _, f := range files {
		abs, err := filepath.Abs(f)
		if err != nil {
			return nil, fmt.Errorf("watch: resolve %s: %w", f, err)
		}
		w.files[abs] = struct{}{}
		dir := filepath.Dir(abs)
		if !seen[dir] {
			seen[dir] = true
			w.dirs = append(w.dirs, dir)
		}
	}
	return w, nil
}

// SetDebounce changes the quiet period before a reload. Non-positive
// values reload on every event.
func (w *Watcher) SetDebounce(d time.Duration) {
	w.debounce = d
}

// Run watches until ctx is cancelled. Reload failures are logged and do
// not stop the watcher; the previously published generation stays live.
func (w *Watcher) Run(ctx context.Context) error {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("watch: create watcher: %w", err)
	}
	defer fsw.Close()

	for _, dir := range w.dirs {
		if err := os.MkdirAll(dir, 0o700); err != nil {
			return fmt.Errorf("watch: create %s: %w", dir, err)
		}
		if err := fsw.Add(dir); err != nil {
			return fmt.Errorf("watch: add %s: %w", dir, err)
		}
		logger.Debug("Watching %s", dir)
	}

	var (
		mu      sync.Mutex
		timer   *time.Timer
		pending sync.WaitGroup
	)
	defer func() {
		mu.Lock()
		if timer != nil && timer.Stop() {
			pending.Done()
		}
		mu.Unlock()
		pending.Wait()
	}()

	schedule := func() {
		mu.Lock()
		defer mu.Unlock()
		if timer != nil && timer.Stop() {
			pending.Done()
		}
		pending.Add(1)
		timer = time.AfterFunc(max(w.debounce, 0), func() {
			defer pending.Done()
			w.reload(ctx)
		})
	}

	for {
		select {
		case <-ctx.Done():
			return nil
		case event, ok := <-fsw.Events:
			if !ok {
				return nil
			}
			if w.relevant(event) {
				logger.Debug("Index file changed: %s (%s)", event.Name, event.Op)
				schedule()
			}
		case err, ok := <-fsw.Errors:
			if !ok {
				return nil
			}
			logger.Warn("watch: %v", err)
		}
	}
}

// relevant reports whether event touches a watched file in a way that can
// change its contents.
func (w *Watcher) relevant(event fsnotify.Event) bool {
	if _, ok := w.files[filepath.Clean(event.Name)]; !ok {
		return false
	}
	return event.Has(fsnotify.Create) || event.Has(fsnotify.Write) || event.Has(fsnotify.Rename)
}

func (w *Watcher) reload(ctx context.Context) {
	if ctx.Err() != nil {
		return
	}
	info, err := w.reloader.Reload(ctx)
	switch {
	case err != nil:
		logger.Warn("Index reload failed, keeping current generation: %v", err)
	default:
		logger.Info("Reloaded index generation %s (%d documents)", info.Generation, info.Documents)
	}
	if w.OnReload != nil {
		w.OnReload(info, err)
	}
}
