// Package store persists lock settings and the activity clock.
//
// Every backend is a small key-value store holding two records,
// lock_settings and last_activity. Store adapts a backend to the
// lock.Store contract and owns the record encoding.
package store

import (
	"errors"
	"fmt"
	"time"

	"github.com/mrz1836/lockgate/internal/lock"
)

// Backend is a key-value store for the two lock records.
// Get reports found=false for a missing key.
type Backend interface {
	Name() string
	Get(key string) (value []byte, found bool, err error)
	Put(key string, value []byte) error
	Delete(key string) error
	Close() error
}

// quarantiner is implemented by backends that can move an unreadable
// record aside instead of overwriting it on the next save.
type quarantiner interface {
	Quarantine(key string) (string, error)
}

// writeTimer is implemented by backends that record when each key was
// last written.
type writeTimer interface {
	UpdatedAt(key string) (time.Time, bool, error)
}

// Store implements lock.Store over a Backend.
type Store struct {
	backend Backend
}

var _ lock.Store = (*Store)(nil)

// New wraps a backend.
func New(b Backend) *Store {
	return &Store{backend: b}
}

// Backend returns the name of the underlying backend.
func (s *Store) Backend() string {
	return s.backend.Name()
}

// Load returns the stored settings. A missing record yields defaults and
// a nil error.
func (s *Store) Load() (lock.Settings, error) {
	data, found, err := s.backend.Get(KeySettings)
	if err != nil {
		return lock.DefaultSettings(), fmt.Errorf("reading %s from %s: %w", KeySettings, s.backend.Name(), err)
	}
	if !found {
		return lock.DefaultSettings(), nil
	}

	settings, err := DecodeSettings(data)
	if err == nil {
		return settings, nil
	}

	if q, ok := s.backend.(quarantiner); ok {
		moved, qerr := q.Quarantine(KeySettings)
		if qerr != nil {
			return settings, fmt.Errorf("%w (also failed to move record: %w)", err, qerr)
		}
		return settings, fmt.Errorf("%w (moved to %s)", err, moved)
	}
	return settings, err
}

// Save writes the settings record.
func (s *Store) Save(settings lock.Settings) error {
	data, err := EncodeSettings(settings)
	if err != nil {
		return err
	}
	if err := s.backend.Put(KeySettings, data); err != nil {
		return fmt.Errorf("writing %s to %s: %w", KeySettings, s.backend.Name(), err)
	}
	return nil
}

// LoadLastActivity returns the stored activity time.
func (s *Store) LoadLastActivity() (time.Time, bool, error) {
	data, found, err := s.backend.Get(KeyLastActivity)
	if err != nil {
		return time.Time{}, false, fmt.Errorf("reading %s from %s: %w", KeyLastActivity, s.backend.Name(), err)
	}
	if !found {
		return time.Time{}, false, nil
	}
	t, err := DecodeTimestamp(data)
	if err != nil {
		return time.Time{}, false, err
	}
	return t, true, nil
}

// SaveLastActivity writes the activity time.
func (s *Store) SaveLastActivity(t time.Time) error {
	if err := s.backend.Put(KeyLastActivity, EncodeTimestamp(t)); err != nil {
		return fmt.Errorf("writing %s to %s: %w", KeyLastActivity, s.backend.Name(), err)
	}
	return nil
}

// SettingsSavedAt reports when the settings record was last written. It
// reports found=false for backends that do not track write times.
func (s *Store) SettingsSavedAt() (time.Time, bool, error) {
	wt, ok := s.backend.(writeTimer)
	if !ok {
		return time.Time{}, false, nil
	}
	at, found, err := wt.UpdatedAt(KeySettings)
	if err != nil {
		return time.Time{}, false, fmt.Errorf("reading %s write time from %s: %w", KeySettings, s.backend.Name(), err)
	}
	return at, found, nil
}

// Reset removes both records, returning the installation to first-run
// state.
func (s *Store) Reset() error {
	return errors.Join(
		s.backend.Delete(KeySettings),
		s.backend.Delete(KeyLastActivity),
	)
}

// Close releases the backend.
func (s *Store) Close() error {
	return s.backend.Close()
}
