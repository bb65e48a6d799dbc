package lock

import (
	"context"
	"strings"
	"sync"
	"sync/atomic"
)

// Modality is the kind of biometric sensor a device offers.
type Modality int

// Biometric modalities.
const (
	ModalityNone Modality = iota
	ModalityFingerprint
	ModalityFace
)

// String returns a string representation of the Modality.
func (m Modality) String() string {
	switch m {
	case ModalityFingerprint:
		return "fingerprint"
	case ModalityFace:
		return "face"
	default:
		return "none"
	}
}

// MarshalText renders the modality by name in JSON output.
func (m Modality) MarshalText() ([]byte, error) {
	return []byte(m.String()), nil
}

// ParseModality maps a config value to a Modality. Unknown values are none.
func ParseModality(s string) Modality {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "fingerprint", "touch", "touchid":
		return ModalityFingerprint
	case "face", "faceid":
		return ModalityFace
	default:
		return ModalityNone
	}
}

// BiometricProvider is the device capability behind biometric unlock.
// Available and Modality are side-effect free. Authenticate blocks until
// the user completes or abandons the challenge; a false result and a
// non-nil error are both treated as "not verified".
type BiometricProvider interface {
	Available() bool
	Modality() Modality
	Authenticate(ctx context.Context, reason string) (bool, error)
}

// unavailableBiometric is used when no provider is configured.
type unavailableBiometric struct{}

func (unavailableBiometric) Available() bool    { return false }
func (unavailableBiometric) Modality() Modality { return ModalityNone }
func (unavailableBiometric) Authenticate(context.Context, string) (bool, error) {
	return false, nil
}

// Challenge is an in-flight biometric attempt. Result is valid once Done
// is closed. A detached challenge reports false regardless of how the
// provider eventually resolves.
type Challenge struct {
	done     chan struct{}
	once     sync.Once
	ok       bool
	detached atomic.Bool
}

func newChallenge() *Challenge {
	return &Challenge{done: make(chan struct{})}
}

func (c *Challenge) finish(ok bool) {
	c.once.Do(func() {
		c.ok = ok
		close(c.done)
	})
}

// Done is closed when the provider has resolved.
func (c *Challenge) Done() <-chan struct{} {
	return c.done
}

// Result reports whether the user was verified. It returns false before
// Done is closed and after Detach.
func (c *Challenge) Result() bool {
	if c.detached.Load() {
		return false
	}
	select {
	case <-c.done:
		return c.ok
	default:
		return false
	}
}

// Detach marks the caller as no longer interested. The provider keeps
// running to completion; its outcome is discarded.
func (c *Challenge) Detach() {
	c.detached.Store(true)
}

// Detached reports whether Detach was called.
func (c *Challenge) Detached() bool {
	return c.detached.Load()
}
