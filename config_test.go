package main

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/nalgeon/be"
)

func TestParseConfigDefaults(t *testing.T) {
	cfg, err := ParseConfig(nil, "flowcheck.yaml")
	be.Err(t, err, nil)
	want := DefaultConfig()
	want.Path = "flowcheck.yaml"
	be.Equal(t, cfg, want)
}

func TestParseConfig(t *testing.T) {
	cfg, err := ParseConfig([]byte(`
requires: ">= 0.2, < 1.0"
max_loop_passes: 4
jobs: 3
report_each_member: false
format: json
extensions: [".tree", ".sexp"]
`), "cfg.yaml")
	be.Err(t, err, nil)
	be.Equal(t, cfg.Requires, ">= 0.2, < 1.0")
	be.Equal(t, cfg.MaxLoopPasses, 4)
	be.Equal(t, cfg.Jobs, 3)
	be.Equal(t, cfg.ReportEachMember, false)
	be.Equal(t, cfg.Format, "json")
	be.Equal(t, cfg.Extensions, []string{".tree", ".sexp"})
}

func TestParseConfigUnknownKey(t *testing.T) {
	_, err := ParseConfig([]byte("max_passes: 3\n"), "cfg.yaml")
	be.True(t, err != nil)
	be.True(t, strings.Contains(err.Error(), "max_passes"))
}

func TestParseConfigMalformed(t *testing.T) {
	_, err := ParseConfig([]byte("jobs: [1\n"), "cfg.yaml")
	be.True(t, err != nil)
	be.True(t, strings.Contains(err.Error(), "config: parse cfg.yaml"))
}

func TestConfigValidationCollectsEveryIssue(t *testing.T) {
	_, err := ParseConfig([]byte(`
max_loop_passes: 1
jobs: 0
format: xml
extensions: [tree]
`), "cfg.yaml")

	var verr *ValidationError
	be.True(t, errors.As(err, &verr))
	be.Equal(t, verr.Path, "cfg.yaml")
	be.Equal(t, len(verr.Issues), 4)
	be.True(t, strings.HasPrefix(err.Error(), "config validation failed for cfg.yaml:\n- max_loop_passes"))
}

func TestConfigRequires(t *testing.T) {
	tests := []struct {
		requires string
		want     string
	}{
		{">= 0.3", ""},
		{"~0.3.0", ""},
		{"^1.0", "does not satisfy"},
		{"not a version", "invalid constraint"},
	}
	for _, tt := range tests {
		t.Run(tt.requires, func(t *testing.T) {
			cfg := DefaultConfig()
			cfg.Requires = tt.requires
			err := cfg.Validate()
			if tt.want == "" {
				be.Err(t, err, nil)
				return
			}
			be.True(t, err != nil)
			be.True(t, strings.Contains(err.Error(), tt.want))
		})
	}
}

func TestLoadAndFindConfig(t *testing.T) {
	root := t.TempDir()
	path := filepath.Join(root, ConfigFileName)
	be.Err(t, os.WriteFile(path, []byte("jobs: 2\n"), 0o644), nil)
	nested := filepath.Join(root, "a", "b")
	be.Err(t, os.MkdirAll(nested, 0o755), nil)

	found, ok := FindConfig(nested)
	be.True(t, ok)
	be.Equal(t, found, path)

	cfg, err := LoadConfig(found)
	be.Err(t, err, nil)
	be.Equal(t, cfg.Jobs, 2)
	be.Equal(t, cfg.Path, path)

	_, err = LoadConfig(filepath.Join(root, "missing.yaml"))
	be.Err(t, err, os.ErrNotExist)
}

func TestHasExtension(t *testing.T) {
	cfg := DefaultConfig()
	be.True(t, cfg.HasExtension("dir/f.tree"))
	be.True(t, !cfg.HasExtension("dir/f.tree.bak"))
	cfg.Extensions = nil
	be.True(t, !cfg.HasExtension("dir/f.tree"))
}
