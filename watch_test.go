package main

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/nalgeon/be"
)

func TestWatcherChecksChangedTrees(t *testing.T) {
	fw, err := NewWatcher(DefaultConfig())
	if err != nil {
		t.Skipf("file watching unavailable: %v", err)
	}
	defer fw.Close()

	dir := t.TempDir()
	be.Err(t, fw.Add(dir), nil)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	results := make(chan FileResult, 16)
	done := make(chan error, 1)
	go func() {
		done <- fw.Run(ctx, func(r FileResult) {
			select {
			case results <- r:
			default:
			}
		}, nil)
	}()

	// Ignored: wrong extension.
	be.Err(t, os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("x"), 0o644), nil)

	// Rename so the tree appears complete in a single event.
	target := filepath.Join(dir, "f.tree")
	tmp := filepath.Join(dir, "f.partial")
	be.Err(t, os.WriteFile(tmp, []byte(`(func "f" (var "n" ^{type: number} "s"))`), 0o644), nil)
	be.Err(t, os.Rename(tmp, target), nil)

	for {
		select {
		case r := <-results:
			be.Equal(t, r.Path, target)
			if r.Err != nil {
				continue
			}
			be.Equal(t, diagnosticStrings(r.Result), []string{
				"1: string is incompatible with number",
			})
			cancel()
			be.Err(t, <-done, context.Canceled)
			return
		case <-ctx.Done():
			t.Fatal("no result before the timeout")
		}
	}
}
