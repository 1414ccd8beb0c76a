package main

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"

	"golang.org/x/sync/errgroup"
)

// FileResult is the outcome of checking one file. Err is an input error
// (unreadable file, malformed or unresolvable tree); internal failures are
// reported per function in Result.
type FileResult struct {
	Path    string
	Program *ASTNode
	Result  *CheckResult
	Err     error
}

func (fr FileResult) HasErrors() bool {
	return fr.Err != nil || (fr.Result != nil && fr.Result.HasErrors())
}

// CheckSource decodes, resolves and checks one tree.
func CheckSource(src string, cfg Config) (*ASTNode, *CheckResult, error) {
	program, err := Decode(src)
	if err != nil {
		return nil, nil, err
	}
	if err := Resolve(program); err != nil {
		return program, nil, err
	}
	return program, CheckProgram(program, cfg), nil
}

func CheckFile(path string, cfg Config) FileResult {
	data, err := os.ReadFile(path)
	if err != nil {
		return FileResult{Path: path, Err: fmt.Errorf("read %s: %w", path, err)}
	}
	program, result, err := CheckSource(string(data), cfg)
	if err != nil {
		err = fmt.Errorf("%s: %w", path, err)
	}
	return FileResult{Path: path, Program: program, Result: result, Err: err}
}

// CheckFiles checks paths concurrently, at most cfg.Jobs at a time. The
// results are in the order of paths. The returned error is only set when
// ctx is cancelled.
func CheckFiles(ctx context.Context, paths []string, cfg Config) ([]FileResult, error) {
	results := make([]FileResult, len(paths))
	jobs := cfg.Jobs
	if jobs < 1 {
		jobs = 1
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(jobs)
	for i, path := range paths {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			results[i] = CheckFile(path, cfg)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}

// CollectFiles expands directories in roots to the files below them with
// one of the configured extensions. Files named explicitly are kept as they
// are. The result is sorted and free of duplicates.
func CollectFiles(roots []string, cfg Config) ([]string, error) {
	seen := make(map[string]bool)
	var files []string
	add := func(path string) {
		if !seen[path] {
			seen[path] = true
			files = append(files, path)
		}
	}

	for _, root := range roots {
		info, err := os.Stat(root)
		if err != nil {
			return nil, fmt.Errorf("stat %s: %w", root, err)
		}
		if !info.IsDir() {
			add(root)
			continue
		}
		err = filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
			if err != nil {
				return err
			}
			if !d.IsDir() && cfg.HasExtension(path) {
				add(path)
			}
			return nil
		})
		if err != nil {
			return nil, fmt.Errorf("walk %s: %w", root, err)
		}
	}
	sort.Strings(files)
	return files, nil
}
