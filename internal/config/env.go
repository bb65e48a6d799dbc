package config

import (
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/mrz1836/go-sanitize"
)

// Environment variable names.
const (
	EnvHome         = "LOCKGATE_HOME"
	EnvStore        = "LOCKGATE_STORE"
	EnvOutputFormat = "LOCKGATE_OUTPUT_FORMAT"
	EnvVerbose      = "LOCKGATE_VERBOSE"
	EnvLogLevel     = "LOCKGATE_LOG_LEVEL"
	EnvTickSeconds  = "LOCKGATE_TICK_SECONDS"
	EnvHashScheme   = "LOCKGATE_HASH_SCHEME"
	EnvNoColor      = "NO_COLOR"
)

// ApplyEnvironment applies environment variable overrides to the configuration.
//
//nolint:gocognit,gocyclo // Environment variable overrides require sequential checks
func ApplyEnvironment(cfg *Config) {
	if v := os.Getenv(EnvHome); v != "" {
		cfg.Home = SanitizePath(v)
	}

	if v := os.Getenv(EnvStore); v != "" {
		cfg.Store.Backend = strings.ToLower(strings.TrimSpace(v))
	}

	if v := os.Getenv(EnvOutputFormat); v != "" {
		cfg.Output.DefaultFormat = strings.ToLower(v)
	}

	if v := os.Getenv(EnvVerbose); v != "" {
		cfg.Output.Verbose = parseBool(v)
	}

	if v := os.Getenv(EnvLogLevel); v != "" {
		cfg.Logging.Level = strings.ToLower(v)
	}

	// NO_COLOR disables colored output
	if _, ok := os.LookupEnv(EnvNoColor); ok {
		cfg.Output.Color = "never"
	}

	if v := os.Getenv(EnvTickSeconds); v != "" {
		if secs, err := strconv.Atoi(strings.TrimSpace(v)); err == nil && secs > 0 {
			cfg.Lock.TickSeconds = secs
		}
	}

	if v := os.Getenv(EnvHashScheme); v != "" {
		cfg.Lock.HashScheme = strings.ToLower(strings.TrimSpace(v))
	}
}

// parseBool parses a boolean string value.
func parseBool(s string) bool {
	s = strings.ToLower(strings.TrimSpace(s))
	if s == "1" || s == "true" || s == "yes" || s == "on" {
		return true
	}
	b, _ := strconv.ParseBool(s)
	return b
}

// SanitizePath strips control characters and surrounding whitespace from a
// user-supplied path, keeping a leading "~/" intact.
func SanitizePath(path string) string {
	path = strings.TrimSpace(sanitize.SingleLine(path))
	if path == "" {
		return path
	}
	if strings.HasPrefix(path, "~/") {
		return "~/" + filepath.Clean(path[2:])
	}
	return filepath.Clean(path)
}
