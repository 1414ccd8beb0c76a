package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/fsnotify/fsnotify"
)

// Watcher rechecks tree files when they are created or written.
type Watcher struct {
	cfg Config
	w   *fsnotify.Watcher
}

func NewWatcher(cfg Config) (*Watcher, error) {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("watch: %w", err)
	}
	return &Watcher{cfg: cfg, w: w}, nil
}

// Add watches a file or directory. Directories are watched for the files
// inside them, not recursively.
func (fw *Watcher) Add(path string) error {
	if err := fw.w.Add(path); err != nil {
		return fmt.Errorf("watch %s: %w", path, err)
	}
	return nil
}

func (fw *Watcher) Close() error {
	return fw.w.Close()
}

// relevant reports whether ev should trigger a recheck.
func (fw *Watcher) relevant(ev fsnotify.Event) bool {
	if ev.Op&(fsnotify.Create|fsnotify.Write) == 0 {
		return false
	}
	if !fw.cfg.HasExtension(ev.Name) {
		return false
	}
	info, err := os.Stat(ev.Name)
	return err == nil && !info.IsDir()
}

// Run checks every changed file and passes the result to onResult until
// ctx is done or the watcher is closed. Watcher errors are passed to
// onError.
func (fw *Watcher) Run(ctx context.Context, onResult func(FileResult), onError func(error)) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case ev, ok := <-fw.w.Events:
			if !ok {
				return nil
			}
			if !fw.relevant(ev) {
				continue
			}
			onResult(CheckFile(filepath.Clean(ev.Name), fw.cfg))
		case err, ok := <-fw.w.Errors:
			if !ok {
				return nil
			}
			if onError != nil {
				onError(err)
			}
		}
	}
}
