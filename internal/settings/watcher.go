package settings

import (
	"context"
	"fmt"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"

	"github.com/bobby-s-dev/weatherstar/internal/display"
)

const DefaultDebounce = 500 * time.Millisecond

// Watcher reloads the settings file when it changes on disk and passes new
// display flags to apply. Unchanged flags are not passed on.
type Watcher struct {
	store    *Store
	apply    func(display.Flags)
	watcher  *fsnotify.Watcher
	debounce time.Duration
	logger   *zap.Logger

	mu       sync.Mutex
	last     display.Flags
	reloadCh chan struct{}
	stopCh   chan struct{}
	stopOnce sync.Once
}

func NewWatcher(store *Store, current display.Flags, apply func(display.Flags), debounce time.Duration, logger *zap.Logger) (*Watcher, error) {
	if debounce <= 0 {
		debounce = DefaultDebounce
	}
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create file watcher: %w", err)
	}
	return &Watcher{
		store:    store,
		apply:    apply,
		watcher:  w,
		debounce: debounce,
		logger:   logger,
		last:     current,
		reloadCh: make(chan struct{}, 1),
		stopCh:   make(chan struct{}),
	}, nil
}

// Start watches the settings directory, which survives the file being
// replaced by a rename.
func (w *Watcher) Start(ctx context.Context) error {
	dir := filepath.Dir(w.store.Path())
	if err := w.watcher.Add(dir); err != nil {
		return fmt.Errorf("failed to watch settings directory %s: %w", dir, err)
	}

	w.logger.Info("Watching settings file", zap.String("path", w.store.Path()))
	go w.watchLoop(ctx)
	go w.reloadLoop(ctx)
	return nil
}

func (w *Watcher) Stop() error {
	var err error
	w.stopOnce.Do(func() {
		close(w.stopCh)
		err = w.watcher.Close()
	})
	return err
}

func (w *Watcher) watchLoop(ctx context.Context) {
	name := filepath.Base(w.store.Path())
	for {
		select {
		case <-ctx.Done():
			return
		case <-w.stopCh:
			return
		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			if filepath.Base(event.Name) != name {
				continue
			}
			if event.Has(fsnotify.Write) || event.Has(fsnotify.Create) || event.Has(fsnotify.Rename) {
				w.trigger()
			}
		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			w.logger.Error("Settings watcher error", zap.Error(err))
		}
	}
}

func (w *Watcher) trigger() {
	select {
	case w.reloadCh <- struct{}{}:
	default:
	}
}

func (w *Watcher) reloadLoop(ctx context.Context) {
	var timer *time.Timer
	defer func() {
		if timer != nil {
			timer.Stop()
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return
		case <-w.stopCh:
			return
		case <-w.reloadCh:
			if timer != nil {
				timer.Stop()
			}
			timer = time.AfterFunc(w.debounce, w.reload)
		}
	}
}

func (w *Watcher) reload() {
	settings, err := w.store.Load()
	if err != nil {
		w.logger.Error("Failed to reload settings", zap.Error(err))
		return
	}

	w.mu.Lock()
	changed := settings.Display != w.last
	w.last = settings.Display
	w.mu.Unlock()

	if !changed {
		return
	}
	w.logger.Info("Display flags changed on disk",
		zap.Bool("show_marine", settings.Display.ShowMarine),
		zap.Bool("show_msn", settings.Display.ShowMSN),
		zap.Bool("show_reddit", settings.Display.ShowReddit),
		zap.Bool("show_local_news", settings.Display.ShowLocalNews))
	w.apply(settings.Display)
}
