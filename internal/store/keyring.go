package store

import (
	"encoding/base64"
	"errors"
	"fmt"
	"time"

	"github.com/zalando/go-keyring"
)

// KeyringService is the keychain service name for lockgate records.
const KeyringService = "lockgate"

// probeKeyringTimeout bounds the availability probe so a hung keyring
// daemon cannot block startup.
const probeKeyringTimeout = 3 * time.Second

// ErrKeyringUnavailable indicates the OS keyring did not answer the probe.
var ErrKeyringUnavailable = errors.New("keyring unavailable")

// Keyring is the subset of a secret store the keyring backend needs.
type Keyring interface {
	Set(service, user, secret string) error
	Get(service, user string) (string, error)
	Delete(service, user string) error
}

// OSKeyring implements Keyring using the OS keychain.
type OSKeyring struct{}

// Set stores a secret in the OS keyring.
func (OSKeyring) Set(service, user, secret string) error {
	return keyring.Set(service, user, secret)
}

// Get retrieves a secret from the OS keyring.
func (OSKeyring) Get(service, user string) (string, error) {
	return keyring.Get(service, user)
}

// Delete removes a secret from the OS keyring.
func (OSKeyring) Delete(service, user string) error {
	return keyring.Delete(service, user)
}

// KeyringBackend stores each record as a base64 secret under
// KeyringService.
type KeyringBackend struct {
	kr      Keyring
	service string
}

// NewKeyringBackend probes kr and fails with ErrKeyringUnavailable when
// it does not respond correctly in time. A nil kr uses the OS keyring.
func NewKeyringBackend(kr Keyring) (*KeyringBackend, error) {
	if kr == nil {
		kr = OSKeyring{}
	}
	b := &KeyringBackend{kr: kr, service: KeyringService}
	if !probeKeyring(kr, probeKeyringTimeout) {
		return nil, ErrKeyringUnavailable
	}
	return b, nil
}

// Name returns "keyring".
func (b *KeyringBackend) Name() string { return "keyring" }

// Get reads and decodes a secret.
func (b *KeyringBackend) Get(key string) ([]byte, bool, error) {
	secret, err := b.kr.Get(b.service, key)
	if errors.Is(err, keyring.ErrNotFound) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	data, err := base64.StdEncoding.DecodeString(secret)
	if err != nil {
		return nil, false, fmt.Errorf("decoding keyring value %s: %w", key, err)
	}
	return data, true, nil
}

// Put encodes and stores a secret.
func (b *KeyringBackend) Put(key string, value []byte) error {
	return b.kr.Set(b.service, key, base64.StdEncoding.EncodeToString(value))
}

// Delete removes a secret. Missing secrets are not an error.
func (b *KeyringBackend) Delete(key string) error {
	err := b.kr.Delete(b.service, key)
	if errors.Is(err, keyring.ErrNotFound) {
		return nil
	}
	return err
}

// Close is a no-op.
func (b *KeyringBackend) Close() error { return nil }

// probeKeyring writes, reads back, and deletes a throwaway secret.
func probeKeyring(kr Keyring, timeout time.Duration) bool {
	ch := make(chan bool, 1)
	go func() {
		ch <- probeKeyringSync(kr)
	}()

	select {
	case ok := <-ch:
		return ok
	case <-time.After(timeout):
		return false
	}
}

func probeKeyringSync(kr Keyring) bool {
	const (
		probeService = KeyringService + "-probe"
		probeUser    = "probe"
		probeValue   = "test"
	)

	if err := kr.Set(probeService, probeUser, probeValue); err != nil {
		return false
	}

	val, err := kr.Get(probeService, probeUser)
	if err != nil || val != probeValue {
		_ = kr.Delete(probeService, probeUser)
		return false
	}

	return kr.Delete(probeService, probeUser) == nil
}
