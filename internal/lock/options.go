package lock

import (
	"time"

	"github.com/mrz1836/lockgate/internal/metrics"
)

// Store persists the lock policy and the activity clock.
//
// Load returns DefaultSettings and a nil error when nothing is stored. An
// undecodable record yields DefaultSettings and an error wrapping
// ErrSettingsCorrupt. LoadLastActivity reports found=false when absent.
type Store interface {
	Load() (Settings, error)
	Save(Settings) error
	LoadLastActivity() (time.Time, bool, error)
	SaveLastActivity(time.Time) error
}

// Logger receives engine diagnostics.
type Logger interface {
	Debug(format string, args ...any)
	Info(format string, args ...any)
	Error(format string, args ...any)
}

type nopLogger struct{}

func (nopLogger) Debug(string, ...any) {}
func (nopLogger) Info(string, ...any)  {}
func (nopLogger) Error(string, ...any) {}

// CorruptPolicy decides the gate state when the stored settings record
// cannot be decoded.
type CorruptPolicy string

const (
	// FailOpen treats a corrupt record as "lock disabled".
	FailOpen CorruptPolicy = "open"
	// FailClosed treats a corrupt record as locked with no credential,
	// until Disable or Enable reconfigures the gate.
	FailClosed CorruptPolicy = "closed"
)

// DefaultTickInterval is how often the inactivity check runs.
const DefaultTickInterval = 30 * time.Second

// DefaultBiometricReason is shown by providers that display a prompt.
const DefaultBiometricReason = "Unlock lockgate"

// Option configures an Engine.
type Option func(*Engine)

// WithClock replaces the wall clock.
func WithClock(c Clock) Option {
	return func(e *Engine) { e.clock = c }
}

// WithScheduler replaces the ticker used for the inactivity check.
func WithScheduler(s Scheduler) Option {
	return func(e *Engine) { e.sched = s }
}

// WithHasher selects the scheme used for new credential hashes.
func WithHasher(h Hasher) Option {
	return func(e *Engine) { e.hasher = h }
}

// WithBiometric attaches a biometric provider.
func WithBiometric(p BiometricProvider) Option {
	return func(e *Engine) { e.bio = p }
}

// WithLogger attaches a logger.
func WithLogger(l Logger) Option {
	return func(e *Engine) { e.log = l }
}

// WithMetrics records engine events into m.
func WithMetrics(m *metrics.Metrics) Option {
	return func(e *Engine) { e.metrics = m }
}

// WithTickInterval sets the inactivity check interval.
func WithTickInterval(d time.Duration) Option {
	return func(e *Engine) {
		if d > 0 {
			e.tick = d
		}
	}
}

// WithCorruptPolicy sets how a corrupt settings record is treated.
func WithCorruptPolicy(p CorruptPolicy) Option {
	return func(e *Engine) { e.policy = p }
}

// WithBiometricReason sets the prompt text passed to the provider.
func WithBiometricReason(reason string) Option {
	return func(e *Engine) { e.reason = reason }
}
