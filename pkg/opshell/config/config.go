// Package config loads opshell settings from CUE files validated against a
// closed schema, then applies environment overrides.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	"github.com/spf13/afero"
)

// Schema is the CUE schema every config file is unified with. Defaults are
// marked with '*'.
const Schema = `
api_key:   *"" | string
model:     *"gemini-2.5-flash" | (string & != "")
data_dir:  *"" | string
operator:  *"andoy" | (string & =~"^[a-z_][a-z0-9_-]*$")
log_level: *"warn" | "trace" | "debug" | "info" | "error"
build: {
	speed: *1.0 | (number & >=0)
}
`

// Environment variables consulted for the API key, first set wins.
var APIKeyEnv = []string{"GOOGLE_API_KEY", "API_KEY"}

// Build tunes the simulated lifecycle.
type Build struct {
	// Speed scales step durations; 0 finishes steps immediately.
	Speed float64 `json:"speed"`
}

// Config is the resolved configuration.
type Config struct {
	APIKey   string `json:"api_key"`
	Model    string `json:"model"`
	DataDir  string `json:"data_dir"`
	Operator string `json:"operator"`
	LogLevel string `json:"log_level"`
	Build    Build  `json:"build"`
}

// Source is one config file. A missing optional file is skipped.
type Source struct {
	Path     string
	Optional bool
}

// Option configures a Loader
type Option func(*Loader)

// WithGetenv sets the environment lookup
func WithGetenv(getenv func(string) string) Option {
	return func(l *Loader) {
		l.getenv = getenv
	}
}

// Loader reads configuration once and caches the result.
type Loader struct {
	fs      afero.Fs
	sources []Source
	getenv  func(string) string
	load    func() (Config, error)
}

// NewLoader creates a loader over sources on fs. Sources are unified with
// each other, so two files may not set the same key to different values.
func NewLoader(fs afero.Fs, sources []Source, opts ...Option) *Loader {
	l := &Loader{
		fs:      fs,
		sources: sources,
		getenv:  os.Getenv,
	}
	for _, opt := range opts {
		opt(l)
	}
	l.load = sync.OnceValues(l.read)
	return l
}

// Load returns the configuration.
func (l *Loader) Load() (Config, error) {
	return l.load()
}

func (l *Loader) read() (Config, error) {
	ctx := cuecontext.New()
	value := ctx.CompileString("close({"+Schema+"})", cue.Filename("schema.cue"))
	if err := value.Err(); err != nil {
		return Config{}, fmt.Errorf("invalid config schema: %w", err)
	}

	for _, src := range l.sources {
		content, err := afero.ReadFile(l.fs, src.Path)
		if err != nil {
			if src.Optional && errors.Is(err, os.ErrNotExist) {
				continue
			}
			return Config{}, fmt.Errorf("failed to read config %s: %w", src.Path, err)
		}
		file := ctx.CompileBytes(content, cue.Filename(src.Path))
		if err := file.Err(); err != nil {
			return Config{}, fmt.Errorf("failed to parse config %s: %w", src.Path, err)
		}
		value = value.Unify(file)
		if err := value.Validate(); err != nil {
			return Config{}, fmt.Errorf("invalid config %s: %w", src.Path, err)
		}
	}

	var cfg Config
	if err := value.Decode(&cfg); err != nil {
		return Config{}, fmt.Errorf("failed to decode config: %w", err)
	}

	for _, name := range APIKeyEnv {
		if v := l.getenv(name); v != "" {
			cfg.APIKey = v
			break
		}
	}
	if cfg.DataDir == "" {
		cfg.DataDir = DefaultDataDir()
	}
	return cfg, nil
}

// DefaultPath is the config file read when none is given.
func DefaultPath() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		return filepath.Join(".opshell", "config.cue")
	}
	return filepath.Join(dir, "opshell", "config.cue")
}

// DefaultDataDir is where containers are stored when data_dir is unset.
func DefaultDataDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".opshell"
	}
	return filepath.Join(home, ".opshell")
}
