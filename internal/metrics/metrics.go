// Package metrics provides lock gate counters.
// Counters are atomic so the engine, ticker goroutine, and biometric
// challenges can record without sharing a lock.
package metrics

import (
	"sync/atomic"
	"time"
)

// Metrics holds lock gate metrics using atomic counters for thread safety.
type Metrics struct {
	// Gate transitions
	locks   atomic.Int64
	unlocks atomic.Int64

	// Credential checks
	verifySuccess atomic.Int64
	verifyFailure atomic.Int64
	throttled     atomic.Int64

	// Biometric challenges
	biometricAttempts  atomic.Int64
	biometricSuccesses atomic.Int64
	biometricNanos     atomic.Int64

	// Periodic inactivity checks
	ticks atomic.Int64

	// Store writes that failed
	persistErrors atomic.Int64
}

// Global is the process-wide metrics instance.
//
//nolint:gochecknoglobals // Intentional global for metrics access
var Global = &Metrics{}

// RecordLock records a transition into the locked state.
func (m *Metrics) RecordLock() {
	m.locks.Add(1)
}

// RecordUnlock records a transition out of the locked state.
func (m *Metrics) RecordUnlock() {
	m.unlocks.Add(1)
}

// RecordVerify records the outcome of a PIN comparison.
func (m *Metrics) RecordVerify(ok bool) {
	if ok {
		m.verifySuccess.Add(1)
		return
	}
	m.verifyFailure.Add(1)
}

// RecordThrottled records an unlock attempt rejected by the rate limiter.
func (m *Metrics) RecordThrottled() {
	m.throttled.Add(1)
}

// RecordBiometric records a finished biometric challenge and its duration.
func (m *Metrics) RecordBiometric(ok bool, duration time.Duration) {
	m.biometricAttempts.Add(1)
	m.biometricNanos.Add(duration.Nanoseconds())
	if ok {
		m.biometricSuccesses.Add(1)
	}
}

// RecordTick records one periodic inactivity check.
func (m *Metrics) RecordTick() {
	m.ticks.Add(1)
}

// RecordPersist records a store write, counting it only when it failed.
func (m *Metrics) RecordPersist(err error) {
	if err != nil {
		m.persistErrors.Add(1)
	}
}

// Snapshot is a point-in-time copy of all metrics.
type Snapshot struct {
	Locks              int64 `json:"locks"`
	Unlocks            int64 `json:"unlocks"`
	VerifySuccess      int64 `json:"verify_success"`
	VerifyFailure      int64 `json:"verify_failure"`
	Throttled          int64 `json:"throttled"`
	BiometricAttempts  int64 `json:"biometric_attempts"`
	BiometricSuccesses int64 `json:"biometric_successes"`
	Ticks              int64 `json:"ticks"`
	PersistErrors      int64 `json:"persist_errors"`
}

// Snapshot returns a point-in-time copy of all metrics.
func (m *Metrics) Snapshot() Snapshot {
	return Snapshot{
		Locks:              m.locks.Load(),
		Unlocks:            m.unlocks.Load(),
		VerifySuccess:      m.verifySuccess.Load(),
		VerifyFailure:      m.verifyFailure.Load(),
		Throttled:          m.throttled.Load(),
		BiometricAttempts:  m.biometricAttempts.Load(),
		BiometricSuccesses: m.biometricSuccesses.Load(),
		Ticks:              m.ticks.Load(),
		PersistErrors:      m.persistErrors.Load(),
	}
}

// BiometricAvgMs returns the average challenge duration in milliseconds.
// Returns 0 if no challenge has finished.
func (m *Metrics) BiometricAvgMs() float64 {
	n := m.biometricAttempts.Load()
	if n == 0 {
		return 0
	}
	return float64(m.biometricNanos.Load()) / float64(n) / 1e6
}

// VerifyFailureRate returns failed PIN checks as a percentage (0-100).
// Returns 0 if no PIN has been checked.
func (m *Metrics) VerifyFailureRate() float64 {
	ok := m.verifySuccess.Load()
	bad := m.verifyFailure.Load()
	total := ok + bad
	if total == 0 {
		return 0
	}
	return float64(bad) / float64(total) * 100
}

// Reset resets all metrics to zero.
func (m *Metrics) Reset() {
	m.locks.Store(0)
	m.unlocks.Store(0)
	m.verifySuccess.Store(0)
	m.verifyFailure.Store(0)
	m.throttled.Store(0)
	m.biometricAttempts.Store(0)
	m.biometricSuccesses.Store(0)
	m.biometricNanos.Store(0)
	m.ticks.Store(0)
	m.persistErrors.Store(0)
}
