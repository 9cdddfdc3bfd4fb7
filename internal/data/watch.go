package data

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
)

// DefaultDebounce coalesces the burst of events a single save produces.
const DefaultDebounce = 100 * time.Millisecond

// ReloadFunc receives the reloaded document, or the error that prevented
// loading it.
type ReloadFunc func(doc []byte, err error)

// WatchOption configures Watch.
type WatchOption func(*watchConfig)

type watchConfig struct {
	debounce time.Duration
}

// WithDebounce sets how long Watch waits for events to settle.
func WithDebounce(d time.Duration) WatchOption {
	return func(c *watchConfig) {
		if d > 0 {
			c.debounce = d
		}
	}
}

// Watch reloads the document at path whenever it is written, created or
// renamed into place, and passes the result to onReload. The parent
// directory is watched so that editors replacing the file are seen. Watch
// blocks until ctx is done and then returns nil.
func Watch(ctx context.Context, path string, onReload ReloadFunc, opts ...WatchOption) error {
	cfg := watchConfig{debounce: DefaultDebounce}
	for _, opt := range opts {
		opt(&cfg)
	}

	abs, err := filepath.Abs(path)
	if err != nil {
		return err
	}

	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("watch %s: %w", path, err)
	}
	defer fsw.Close()

	if err := fsw.Add(filepath.Dir(abs)); err != nil {
		return fmt.Errorf("watch %s: %w", path, err)
	}

	timer := time.NewTimer(cfg.debounce)
	timer.Stop()
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil

		case ev, ok := <-fsw.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(ev.Name) != abs {
				continue
			}
			if ev.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) == 0 {
				continue
			}
			timer.Reset(cfg.debounce)

		case err, ok := <-fsw.Errors:
			if !ok {
				return nil
			}
			onReload(nil, fmt.Errorf("watch %s: %w", path, err))

		case <-timer.C:
			doc, err := Load(abs)
			onReload(doc, err)
		}
	}
}
