// Package biometric provides the device adapters behind lock.BiometricProvider.
//
// A terminal has no sensor of its own, so lockgate offers three adapters:
// None for machines without biometrics, Scripted for demos and tests, and
// Command for delegating to an external verifier such as fprintd-verify.
package biometric

import (
	"context"
	"io"

	"github.com/mrz1836/lockgate/internal/config"
	"github.com/mrz1836/lockgate/internal/lock"
)

// New builds the adapter selected by cfg.Provider. The scripted adapter
// asks for a y/n answer on in and writes its prompt to out.
func New(cfg config.BiometricConfig, in LineSource, out io.Writer) lock.BiometricProvider {
	modality := lock.ParseModality(cfg.Modality)

	switch cfg.Provider {
	case config.BiometricScripted:
		return NewPrompted(modality, in, out)
	case config.BiometricCommand:
		return NewCommand(cfg.Command, modality)
	default:
		return None{}
	}
}

// None reports no biometric hardware.
type None struct{}

// Available always returns false.
func (None) Available() bool { return false }

// Modality always returns lock.ModalityNone.
func (None) Modality() lock.Modality { return lock.ModalityNone }

// Authenticate never verifies.
func (None) Authenticate(_ context.Context, _ string) (bool, error) {
	return false, nil
}
