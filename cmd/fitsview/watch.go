package main

import (
	"log/slog"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
)

// settle is how long a file must stay quiet before a reload fires.
const settle = 200 * time.Millisecond

// watchFile calls onChange after path is written or replaced. The parent
// directory is watched so editors that save by rename are seen. The
// returned func stops the watcher.
func watchFile(path string, onChange func(), logger *slog.Logger) (func() error, error) {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	if err := w.Add(filepath.Dir(path)); err != nil {
		_ = w.Close()
		return nil, err
	}
	target := filepath.Clean(path)

	var (
		mu    sync.Mutex
		timer *time.Timer
	)
	fire := func() {
		mu.Lock()
		defer mu.Unlock()
		if timer == nil {
			timer = time.AfterFunc(settle, onChange)
			return
		}
		timer.Reset(settle)
	}

	go func() {
		for {
			select {
			case ev, ok := <-w.Events:
				if !ok {
					return
				}
				if filepath.Clean(ev.Name) != target {
					continue
				}
				if ev.Has(fsnotify.Write) || ev.Has(fsnotify.Create) {
					logger.Debug("image changed", "path", ev.Name, "op", ev.Op.String())
					fire()
				}
			case err, ok := <-w.Errors:
				if !ok {
					return
				}
				logger.Warn("watch error", "err", err)
			}
		}
	}()

	return func() error {
		mu.Lock()
		if timer != nil {
			timer.Stop()
		}
		mu.Unlock()
		return w.Close()
	}, nil
}
