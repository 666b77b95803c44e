package template

import (
	"context"
	"errors"
	"log/slog"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
)

// DefaultWatchDebounce coalesces the burst of events editors emit on save.
const DefaultWatchDebounce = 100 * time.Millisecond

// Watch reloads the registry whenever the override file changes, until ctx
// is cancelled. The parent directory is watched so that editors which
// replace the file by rename are handled. onReload, if non-nil, receives the
// result of every reload attempt.
func (r *Registry) Watch(ctx context.Context, logger *slog.Logger, onReload func(error)) error {
	if r.path == "" {
		return errors.New("registry has no template file to watch")
	}
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	abs, err := filepath.Abs(r.path)
	if err != nil {
		watcher.Close()
		return err
	}
	if err := watcher.Add(filepath.Dir(abs)); err != nil {
		watcher.Close()
		return err
	}

	go func() {
		defer watcher.Close()
		var timer *time.Timer
		var timerC <-chan time.Time
		for {
			select {
			case <-ctx.Done():
				if timer != nil {
					timer.Stop()
				}
				return
			case event, ok := <-watcher.Events:
				if !ok {
					return
				}
				if filepath.Clean(event.Name) != abs {
					continue
				}
				if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) && !event.Has(fsnotify.Rename) {
					continue
				}
				if timer == nil {
					timer = time.NewTimer(DefaultWatchDebounce)
					timerC = timer.C
				} else {
					timer.Reset(DefaultWatchDebounce)
				}
			case <-timerC:
				timer, timerC = nil, nil
				err := r.Reload()
				if err != nil {
					logger.Error("template_reload", "path", r.path, "error", err.Error())
				} else {
					logger.Info("template_reload", "path", r.path)
				}
				if onReload != nil {
					onReload(err)
				}
			case err, ok := <-watcher.Errors:
				if !ok {
					return
				}
				logger.Warn("template_watch", "error", err.Error())
			}
		}
	}()
	return nil
}
