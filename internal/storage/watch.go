package storage

import (
	"context"
	"log/slog"
	"time"

	"github.com/fsnotify/fsnotify"
)

// ChangeCallback is called with the key whose file changed on disk.
type ChangeCallback func(key string)

// Watch starts an fsnotify watcher on the data directory of f and calls cb
// for every key whose file was edited, replaced or removed by something
// other than this process. Events are debounced per key. It returns when
// ctx is cancelled.
func Watch(ctx context.Context, f *FS, debounce time.Duration, logger *slog.Logger, cb ChangeCallback) error {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer w.Close()

	if err := w.Add(f.Root()); err != nil {
		return err
	}
	if debounce <= 0 {
		debounce = 200 * time.Millisecond
	}

	logger.Info("watcher: started", slog.String("root", f.Root()))

	pending := make(map[string]struct{})
	var flushTimer *time.Timer
	var flushCh <-chan time.Time

	schedule := func(key string) {
		pending[key] = struct{}{}
		if flushTimer == nil {
			flushTimer = time.NewTimer(debounce)
			flushCh = flushTimer.C
		} else {
			flushTimer.Reset(debounce)
		}
	}

	for {
		select {
		case <-ctx.Done():
			if flushTimer != nil {
				flushTimer.Stop()
			}
			logger.Info("watcher: stopped")
			return nil

		case <-flushCh:
			for key := range pending {
				delete(pending, key)
				if !f.ExternallyModified(key) {
					logger.Debug("watcher: own write ignored", slog.String("key", key))
					continue
				}
				logger.Info("watcher: external change", slog.String("key", key))
				if cb != nil {
					cb(key)
				}
				f.Acknowledge(key)
			}

		case ev, ok := <-w.Events:
			if !ok {
				return nil
			}
			if ev.Op&(fsnotify.Create|fsnotify.Write|fsnotify.Remove|fsnotify.Rename) == 0 {
				continue
			}
			key, ok := f.KeyForPath(ev.Name)
			if !ok {
				continue
			}
			schedule(key)

		case watchErr, ok := <-w.Errors:
			if !ok {
				return nil
			}
			logger.Error("watcher: error", slog.String("error", watchErr.Error()))
		}
	}
}
