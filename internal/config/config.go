// Package config loads and validates the relver workspace configuration.
// The engine itself never reads configuration: everything it needs is passed
// per invocation, and this package is the only place defaults live.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	relerrors "git.home.luguber.info/inful/relver/internal/errors"
)

// DefaultExclusions are the path components skipped during hashing unless a
// config overrides them: dependency caches, VCS metadata, OS metadata, and
// build output. The manifest directory is excluded unconditionally elsewhere.
var DefaultExclusions = []string{"node_modules", ".git", ".DS_Store", "dist", "build"}

// Config is the root workspace configuration.
type Config struct {
	// Workspace is the directory artifact paths are resolved against.
	Workspace string `yaml:"workspace"`

	Log      LogConfig        `yaml:"log"`
	Defaults ArtifactDefaults `yaml:"defaults"`

	Artifacts []Artifact `yaml:"artifacts"`

	Scan    ScanConfig     `yaml:"scan"`
	History *HistoryConfig `yaml:"history,omitempty"`
	Events  *EventsConfig  `yaml:"events,omitempty"`
	Daemon  DaemonConfig   `yaml:"daemon"`
}

// ArtifactDefaults supplies per-artifact settings not stated on an artifact.
type ArtifactDefaults struct {
	Entry    string   `yaml:"entry"`
	Exclude  []string `yaml:"exclude"`
	PinsFile string   `yaml:"pins_file"`
}

// Artifact declares one versioned unit of shared source code.
type Artifact struct {
	Name string `yaml:"name"`
	Path string `yaml:"path"`

	// Entry optionally designates the export-surface entry point, relative
	// to Path. "none" disables the default entry point for this artifact.
	Entry string `yaml:"entry"`

	// Exclude extends the exclusion set for this artifact.
	Exclude []string `yaml:"exclude"`

	// PinsFile optionally points at a shared pinned-versions file, relative
	// to the workspace.
	PinsFile string `yaml:"pins_file"`
}

// ScanConfig controls the multi-artifact orchestrator.
type ScanConfig struct {
	// Workers bounds concurrent per-artifact decision runs.
	Workers int `yaml:"workers"`
}

// HistoryConfig enables the sqlite decision history store.
type HistoryConfig struct {
	// Path is the database file, relative to the workspace.
	Path string `yaml:"path"`
}

// EventsConfig enables NATS publication of decision results.
type EventsConfig struct {
	URL           string `yaml:"url"`
	SubjectPrefix string `yaml:"subject_prefix"`
}

// DaemonConfig controls daemon mode.
type DaemonConfig struct {
	// Interval between scheduled workspace scans.
	Interval time.Duration `yaml:"interval"`

	// Listen is the HTTP address for /healthz, /api/status and /metrics.
	Listen string `yaml:"listen"`

	// Watch enables fsnotify-triggered rescans of artifact directories.
	Watch bool `yaml:"watch"`

	// Debounce coalesces bursts of file events before a rescan.
	Debounce time.Duration `yaml:"debounce"`
}

// Load reads, expands, defaults, and validates the configuration at path.
// A .env file next to the process, if any, is folded into the environment
// first (never overriding existing variables), then ${VAR} references in the
// YAML are expanded.
func Load(path string) (*Config, error) {
	// Best effort: absence of a .env file is the normal case.
	_ = godotenv.Load()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, relerrors.ConfigNotFound(path)
		}
		return nil, fmt.Errorf("read config file: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal([]byte(os.ExpandEnv(string(data))), &cfg); err != nil {
		return nil, relerrors.Wrap(err, relerrors.CategoryConfig, relerrors.SeverityFatal, "config file is not valid YAML").
			WithContext("path", path)
	}

	cfg.applyDefaults(filepath.Dir(path))
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) applyDefaults(configDir string) {
	if c.Workspace == "" {
		c.Workspace = configDir
	}
	if c.Log.Level == "" {
		c.Log.Level = LogLevelInfo
	}
	if c.Log.Format == "" {
		c.Log.Format = LogFormatText
	}
	if c.Defaults.Exclude == nil {
		c.Defaults.Exclude = DefaultExclusions
	}
	if c.Scan.Workers <= 0 {
		c.Scan.Workers = 4
	}
	if c.Daemon.Interval <= 0 {
		c.Daemon.Interval = 5 * time.Minute
	}
	if c.Daemon.Listen == "" {
		c.Daemon.Listen = ":9475"
	}
	if c.Daemon.Debounce <= 0 {
		c.Daemon.Debounce = 2 * time.Second
	}
	if c.Events != nil && c.Events.SubjectPrefix == "" {
		c.Events.SubjectPrefix = "relver.decisions"
	}
}

// Validate checks structural invariants the rest of the program relies on.
func (c *Config) Validate() error {
	seen := make(map[string]struct{}, len(c.Artifacts))
	for i, a := range c.Artifacts {
		if a.Name == "" {
			return relerrors.ValidationFailed(fmt.Sprintf("artifacts[%d].name", i), "must not be empty")
		}
		if a.Path == "" {
			return relerrors.ValidationFailed(fmt.Sprintf("artifacts[%d].path", i), "must not be empty")
		}
		if _, dup := seen[a.Name]; dup {
			return relerrors.ValidationFailed(fmt.Sprintf("artifacts[%d].name", i), "duplicate artifact name "+a.Name)
		}
		seen[a.Name] = struct{}{}
	}
	if c.Events != nil && c.Events.URL == "" {
		return relerrors.ValidationFailed("events.url", "must not be empty when events are configured")
	}
	if c.History != nil && c.History.Path == "" {
		return relerrors.ValidationFailed("history.path", "must not be empty when history is configured")
	}
	return nil
}

// ResolveArtifact merges defaults into a and resolves its paths against the
// workspace, producing the concrete settings for one decision run.
func (c *Config) ResolveArtifact(a Artifact) Artifact {
	out := a
	out.Path = c.resolve(a.Path)

	switch {
	case a.Entry == "none":
		out.Entry = ""
	case a.Entry == "" && c.Defaults.Entry != "":
		out.Entry = c.Defaults.Entry
	}

	out.Exclude = append(append([]string{}, c.Defaults.Exclude...), a.Exclude...)

	if out.PinsFile == "" {
		out.PinsFile = c.Defaults.PinsFile
	}
	if out.PinsFile != "" {
		out.PinsFile = c.resolve(out.PinsFile)
	}
	return out
}

// HistoryPath returns the history database path resolved against the
// workspace. Only meaningful when History is configured.
func (c *Config) HistoryPath() string {
	if c.History == nil {
		return ""
	}
	return c.resolve(c.History.Path)
}

// ArtifactByName returns the resolved artifact with the given name.
func (c *Config) ArtifactByName(name string) (Artifact, bool) {
	for _, a := range c.Artifacts {
		if a.Name == name {
			return c.ResolveArtifact(a), true
		}
	}
	return Artifact{}, false
}

func (c *Config) resolve(p string) string {
	if filepath.IsAbs(p) {
		return p
	}
	return filepath.Join(c.Workspace, p)
}
