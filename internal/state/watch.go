package state

import (
	"context"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"
)

// Watch reloads the model or dataset when its file changes, coalescing
// bursts of events within debounce. It returns once the watcher is set up;
// watching stops when ctx is done.
func (r *Runtime) Watch(ctx context.Context, debounce time.Duration) error {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}

	targets := map[string]func() error{}
	if p := r.ModelPath(); p != "" {
		targets[absClean(p)] = r.ReloadModel
	}
	if p := r.DatasetPath(); p != "" {
		targets[absClean(p)] = r.ReloadDataset
	}
	// Watch directories so atomic replace-by-rename is seen.
	dirs := map[string]struct{}{}
	for p := range targets {
		dirs[filepath.Dir(p)] = struct{}{}
	}
	for d := range dirs {
		if err := w.Add(d); err != nil {
			_ = w.Close()
			return err
		}
	}

	go func() {
		defer w.Close()

		var (
			mu     sync.Mutex
			timers = map[string]*time.Timer{}
		)
		defer func() {
			mu.Lock()
			for _, t := range timers {
				t.Stop()
			}
			mu.Unlock()
		}()

		for {
			select {
			case <-ctx.Done():
				return
			case e, ok := <-w.Events:
				if !ok {
					return
				}
				path := absClean(e.Name)
				reload, watched := targets[path]
				if !watched || e.Op&(fsnotify.Create|fsnotify.Write|fsnotify.Rename) == 0 {
					continue
				}
				mu.Lock()
				if t := timers[path]; t != nil {
					t.Stop()
				}
				timers[path] = time.AfterFunc(debounce, func() {
					if ctx.Err() != nil {
						return
					}
					r.log.Info("file changed, reloading", zap.String("path", path))
					_ = reload()
				})
				mu.Unlock()
			case err, ok := <-w.Errors:
				if !ok {
					return
				}
				r.log.Warn("watcher error", zap.Error(err))
			}
		}
	}()
	return nil
}

func absClean(p string) string {
	if abs, err := filepath.Abs(p); err == nil {
		return abs
	}
	return filepath.Clean(p)
}
