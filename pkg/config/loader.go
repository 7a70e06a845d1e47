package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

// ErrNotFound indicates that the configuration file does not exist.
var ErrNotFound = errors.New("configuration file not found")

// ParseError indicates that the configuration file exists but could
// not be materialized into a mapping.
type ParseError struct {
	File string
	Err  error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("%q cannot be parsed: %v", e.File, e.Err)
}

func (e *ParseError) Unwrap() error { return e.Err }

// EnvPrefix is the prefix for environment overrides of configuration
// keys (NIKOLA_CACHE_FOLDER overrides CACHE_FOLDER).
const EnvPrefix = "NIKOLA"

// Loader resolves the configuration file into a Config mapping.
type Loader struct {
	env *viper.Viper
}

// NewLoader creates a configuration loader.
func NewLoader() *Loader {
	v := viper.New()
	v.SetEnvPrefix(EnvPrefix)
	v.AutomaticEnv()
	return &Loader{env: v}
}

// Load reads and parses the configuration file at path.
//
// The file may be YAML or JSON; JSON is tried first, then YAML. A
// missing file resolves to ErrNotFound with an empty mapping; a file
// that fails to parse resolves to a ParseError. Keys present in the
// file may be overridden through NIKOLA_* environment variables.
func (l *Loader) Load(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return Config{}, fmt.Errorf("%q: %w", path, ErrNotFound)
		}
		return Config{}, &ParseError{File: path, Err: err}
	}

	cfg := Config{}

	if err := json.Unmarshal(data, &cfg); err != nil {
		cfg = Config{}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return Config{}, &ParseError{File: path, Err: err}
		}
	}
	if cfg == nil {
		cfg = Config{}
	}

	l.applyEnvOverrides(cfg)

	return cfg, nil
}

// applyEnvOverrides replaces values of keys that have a matching
// NIKOLA_* environment variable set.
func (l *Loader) applyEnvOverrides(cfg Config) {
	for k := range cfg {
		if v := l.env.Get(k); v != nil {
			cfg[k] = v
		}
	}
}

// FindRoot searches upward from dir for the directory containing the
// configuration file named marker. It returns "" when no project root
// is found.
func FindRoot(dir, marker string) string {
	abs, err := filepath.Abs(dir)
	if err != nil {
		return ""
	}
	for {
		if _, err := os.Stat(filepath.Join(abs, marker)); err == nil {
			return abs
		}
		parent := filepath.Dir(abs)
		if parent == abs {
			return ""
		}
		abs = parent
	}
}

// PluginsMarker is the package-marker file expected inside a plugins
// directory.
const PluginsMarker = "manifest.yml"

// EnsurePluginsPackage creates an empty plugins package marker when a
// plugins directory exists without one. Called only for real projects.
func EnsurePluginsPackage(root string) error {
	pluginsDir := filepath.Join(root, "plugins")
	info, err := os.Stat(pluginsDir)
	if err != nil || !info.IsDir() {
		return nil
	}
	marker := filepath.Join(pluginsDir, PluginsMarker)
	if _, err := os.Stat(marker); err == nil {
		return nil
	}
	return os.WriteFile(marker, []byte("# Plugin modules go here.\n"), 0644)
}
