// Package config provides configuration management for lockgate.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/mrz1836/lockgate/internal/fileutil"
	gateerr "github.com/mrz1836/lockgate/pkg/errors"
)

// Config represents the application configuration.
type Config struct {
	Version   int             `yaml:"version"`
	Home      string          `yaml:"home"`
	Store     StoreConfig     `yaml:"store"`
	Lock      LockConfig      `yaml:"lock"`
	Biometric BiometricConfig `yaml:"biometric"`
	Output    OutputConfig    `yaml:"output"`
	Logging   LoggingConfig   `yaml:"logging"`
}

// StoreConfig selects where lock settings and the activity clock are persisted.
type StoreConfig struct {
	Backend string `yaml:"backend"`
	Path    string `yaml:"path"`
}

// LockConfig defines engine tuning and presentation rules for the lock gate.
type LockConfig struct {
	TickSeconds             int    `yaml:"tick_seconds"`
	HashScheme              string `yaml:"hash_scheme"`
	PINLength               int    `yaml:"pin_length"`
	CorruptPolicy           string `yaml:"corrupt_policy"`
	UnlockAttemptsPerMinute int    `yaml:"unlock_attempts_per_minute"`
}

// BiometricConfig selects the biometric adapter.
type BiometricConfig struct {
	Provider string `yaml:"provider"`
	Command  string `yaml:"command"`
	Modality string `yaml:"modality"`
}

// OutputConfig defines output formatting settings.
type OutputConfig struct {
	DefaultFormat string `yaml:"default_format"`
	Color         string `yaml:"color"`
	Verbose       bool   `yaml:"verbose"`
}

// LoggingConfig defines logging settings.
type LoggingConfig struct {
	Level string `yaml:"level"`
	File  string `yaml:"file"`
}

// Load reads configuration from the specified file.
func Load(path string) (*Config, error) {
	// #nosec G304 -- config file path is derived from the lockgate home
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	cfg := Defaults()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, gateerr.WithCause(gateerr.ErrConfigInvalid, err)
	}

	return cfg, nil
}

// Save writes configuration to the specified file.
func Save(cfg *Config, path string) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}

	return fileutil.WriteAtomic(path, data, 0o600)
}

// Path returns the config file path inside a lockgate home.
func Path(home string) string {
	return filepath.Join(home, "config.yaml")
}

// ExpandHome replaces a leading "~/" with the user's home directory.
func ExpandHome(path string) string {
	if !strings.HasPrefix(path, "~/") {
		return path
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return path
	}
	return filepath.Join(home, path[2:])
}

// GetHome returns the lockgate home directory path.
func (c *Config) GetHome() string {
	return c.Home
}

// StorePath returns the backend location, defaulting to a path inside home.
func (c *Config) StorePath() string {
	if c.Store.Path != "" {
		return ExpandHome(c.Store.Path)
	}
	home := ExpandHome(c.Home)
	if c.Store.Backend == BackendSQLite {
		return filepath.Join(home, "lockgate.db")
	}
	return filepath.Join(home, "state")
}

// GetLoggingLevel returns the configured logging level.
func (c *Config) GetLoggingLevel() string {
	return c.Logging.Level
}

// GetLoggingFile returns the configured log file path.
func (c *Config) GetLoggingFile() string {
	return c.Logging.File
}

// GetOutputFormat returns the default output format.
func (c *Config) GetOutputFormat() string {
	return c.Output.DefaultFormat
}

// IsVerbose returns true if verbose output is enabled.
func (c *Config) IsVerbose() bool {
	return c.Output.Verbose
}

// Validate reports the first setting that the rest of lockgate cannot honor.
func (c *Config) Validate() error {
	if !contains(Backends, c.Store.Backend) {
		return invalid("store.backend", c.Store.Backend)
	}
	if c.Lock.TickSeconds <= 0 {
		return invalid("lock.tick_seconds", fmt.Sprint(c.Lock.TickSeconds))
	}
	if !contains(HashSchemes, c.Lock.HashScheme) {
		return invalid("lock.hash_scheme", c.Lock.HashScheme)
	}
	if c.Lock.PINLength <= 0 {
		return invalid("lock.pin_length", fmt.Sprint(c.Lock.PINLength))
	}
	if !contains(CorruptPolicies, c.Lock.CorruptPolicy) {
		return invalid("lock.corrupt_policy", c.Lock.CorruptPolicy)
	}
	if c.Lock.UnlockAttemptsPerMinute <= 0 {
		return invalid("lock.unlock_attempts_per_minute", fmt.Sprint(c.Lock.UnlockAttemptsPerMinute))
	}
	if !contains(BiometricProviders, c.Biometric.Provider) {
		return invalid("biometric.provider", c.Biometric.Provider)
	}
	if c.Biometric.Provider == BiometricCommand && strings.TrimSpace(c.Biometric.Command) == "" {
		return invalid("biometric.command", c.Biometric.Command)
	}
	return nil
}

func invalid(key, value string) error {
	return gateerr.WithDetails(gateerr.ErrConfigInvalid, map[string]string{
		"key":   key,
		"value": value,
	})
}

func contains(set []string, v string) bool {
	for _, s := range set {
		if s == v {
			return true
		}
	}
	return false
}

// DefaultHome returns the default lockgate home directory.
func DefaultHome() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".lockgate"
	}
	return filepath.Join(home, ".lockgate")
}
