package main

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"runtime"
	"strings"

	"github.com/Masterminds/semver/v3"
	"gopkg.in/yaml.v3"
)

// Version is the version of flowcheck checked against a config's requires
// constraint.
const Version = "0.3.0"

// ConfigFileName is the file FindConfig looks for.
const ConfigFileName = "flowcheck.yaml"

// Config controls the checker and the drivers around it.
type Config struct {
	// Path is the file the config was loaded from; empty for defaults.
	Path string
	// Requires is a semver constraint on Version.
	Requires string
	// MaxLoopPasses bounds the passes made over one loop, counting the
	// discarded first pass. Must be at least 2.
	MaxLoopPasses int
	// Jobs is the number of files checked concurrently.
	Jobs int
	// ReportEachMember reports every incompatible member of a union as its
	// own diagnostic instead of one diagnostic per use.
	ReportEachMember bool
	// Format is "text" or "json".
	Format string
	// Extensions lists the file suffixes batch and watch pick up.
	Extensions []string
}

func DefaultConfig() Config {
	return Config{
		MaxLoopPasses:    2,
		Jobs:             runtime.GOMAXPROCS(0),
		ReportEachMember: true,
		Format:           "text",
		Extensions:       []string{".tree"},
	}
}

type configFile struct {
	Requires         string   `yaml:"requires"`
	MaxLoopPasses    *int     `yaml:"max_loop_passes"`
	Jobs             *int     `yaml:"jobs"`
	ReportEachMember *bool    `yaml:"report_each_member"`
	Format           string   `yaml:"format"`
	Extensions       []string `yaml:"extensions"`
}

// ValidationError aggregates config validation failures.
type ValidationError struct {
	Path   string
	Issues []string
}

func (e *ValidationError) Error() string {
	if len(e.Issues) == 0 {
		return "config: invalid configuration"
	}
	var b strings.Builder
	b.WriteString("config validation failed")
	if e.Path != "" {
		b.WriteString(" for " + e.Path)
	}
	b.WriteString(":")
	for _, issue := range e.Issues {
		b.WriteString("\n- ")
		b.WriteString(issue)
	}
	return b.String()
}

// LoadConfig reads and validates a config file.
func LoadConfig(path string) (Config, error) {
	if path == "" {
		return Config{}, fmt.Errorf("config: empty path")
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("config: read %s: %w", path, err)
	}
	return ParseConfig(data, path)
}

// ParseConfig decodes a config from data. Keys that are absent keep their
// defaults; unknown keys are an error. path is only used in messages.
func ParseConfig(data []byte, path string) (Config, error) {
	cfg := DefaultConfig()
	cfg.Path = path

	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)

	var raw configFile
	if err := decoder.Decode(&raw); err != nil {
		if errors.Is(err, io.EOF) {
			return cfg, nil
		}
		return Config{}, fmt.Errorf("config: parse %s: %w", path, err)
	}

	cfg.Requires = strings.TrimSpace(raw.Requires)
	if raw.MaxLoopPasses != nil {
		cfg.MaxLoopPasses = *raw.MaxLoopPasses
	}
	if raw.Jobs != nil {
		cfg.Jobs = *raw.Jobs
	}
	if raw.ReportEachMember != nil {
		cfg.ReportEachMember = *raw.ReportEachMember
	}
	if raw.Format != "" {
		cfg.Format = raw.Format
	}
	if raw.Extensions != nil {
		cfg.Extensions = raw.Extensions
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate reports every invalid setting at once.
func (cfg Config) Validate() error {
	errs := ValidationError{Path: cfg.Path}
	if cfg.Requires != "" {
		constraint, err := semver.NewConstraint(cfg.Requires)
		if err != nil {
			errs.Issues = append(errs.Issues, fmt.Sprintf("requires: invalid constraint %q: %v", cfg.Requires, err))
		} else if !constraint.Check(semver.MustParse(Version)) {
			errs.Issues = append(errs.Issues, fmt.Sprintf("requires: flowcheck %s does not satisfy %s", Version, cfg.Requires))
		}
	}
	if cfg.MaxLoopPasses < 2 {
		errs.Issues = append(errs.Issues, fmt.Sprintf("max_loop_passes must be at least 2, got %d", cfg.MaxLoopPasses))
	}
	if cfg.Jobs < 1 {
		errs.Issues = append(errs.Issues, fmt.Sprintf("jobs must be positive, got %d", cfg.Jobs))
	}
	if cfg.Format != "text" && cfg.Format != "json" {
		errs.Issues = append(errs.Issues, fmt.Sprintf("format must be text or json, got %q", cfg.Format))
	}
	for i, ext := range cfg.Extensions {
		if !strings.HasPrefix(ext, ".") {
			errs.Issues = append(errs.Issues, fmt.Sprintf("extensions[%d] must start with a dot, got %q", i, ext))
		}
	}
	if len(errs.Issues) > 0 {
		return &errs
	}
	return nil
}

// FindConfig looks for ConfigFileName in dir and its parents.
func FindConfig(dir string) (string, bool) {
	dir, err := filepath.Abs(dir)
	if err != nil {
		return "", false
	}
	for {
		path := filepath.Join(dir, ConfigFileName)
		if info, err := os.Stat(path); err == nil && !info.IsDir() {
			return path, true
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return "", false
		}
		dir = parent
	}
}

// HasExtension reports whether path ends in one of the configured
// extensions.
func (cfg Config) HasExtension(path string) bool {
	for _, ext := range cfg.Extensions {
		if strings.HasSuffix(path, ext) {
			return true
		}
	}
	return false
}
