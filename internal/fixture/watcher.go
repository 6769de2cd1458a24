package fixture

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
)

// ReloadFunc is called after the fixture file changed and the backend reloaded it.
type ReloadFunc func(ctx context.Context) error

// Watcher reloads a file-backed Backend when its file changes and notifies a callback,
// typically one that re-hydrates the cache.
type Watcher struct {
	backend     *Backend
	onReload    ReloadFunc
	settleDelay time.Duration
	logger      *slog.Logger
}

// NewWatcher creates a watcher for backend's file. Bursts of writes within settleDelay
// collapse into one reload.
func NewWatcher(backend *Backend, onReload ReloadFunc, settleDelay time.Duration, logger *slog.Logger) *Watcher {
	if settleDelay <= 0 {
		settleDelay = 100 * time.Millisecond
	}
	return &Watcher{
		backend:     backend,
		onReload:    onReload,
		settleDelay: settleDelay,
		logger:      logger,
	}
}

// Run watches until ctx is cancelled. It watches the file's directory so editors that replace
// the file on save are still followed.
func (w *Watcher) Run(ctx context.Context) error {
	path := filepath.Clean(w.backend.Path())
	if path == "." {
		return errors.New("fixture watcher: backend was not loaded from a file")
	}

	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create fsnotify watcher: %w", err)
	}
	defer fsw.Close()

	if err := fsw.Add(filepath.Dir(path)); err != nil {
		return fmt.Errorf("watch %s: %w", filepath.Dir(path), err)
	}
	w.logger.Info("watching fixture", slog.String("path", path))

	var (
		settle *time.Timer
		fire   <-chan time.Time
	)
	defer func() {
		if settle != nil {
			settle.Stop()
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return nil

		case event, ok := <-fsw.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(event.Name) != path {
				continue
			}
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) && !event.Has(fsnotify.Rename) {
				continue
			}
			if settle == nil {
				settle = time.NewTimer(w.settleDelay)
			} else {
				settle.Reset(w.settleDelay)
			}
			fire = settle.C

		case err, ok := <-fsw.Errors:
			if !ok {
				return nil
			}
			w.logger.Warn("fixture watcher error", slog.Any("error", err))

		case <-fire:
			fire = nil
			w.reload(ctx, path)
		}
	}
}

func (w *Watcher) reload(ctx context.Context, path string) {
	if err := w.backend.Reload(); err != nil {
		w.logger.Warn("fixture reload failed, keeping previous data",
			slog.String("path", path),
			slog.Any("error", err),
		)
		return
	}
	if w.onReload == nil {
		return
	}
	if err := w.onReload(ctx); err != nil {
		w.logger.Error("fixture rehydrate failed", slog.String("path", path), slog.Any("error", err))
		return
	}
	w.logger.Info("fixture reloaded", slog.String("path", path))
}
