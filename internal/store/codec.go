package store

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/mrz1836/lockgate/internal/lock"
)

// Record keys shared by every backend.
const (
	KeySettings     = "lock_settings"
	KeyLastActivity = "last_activity"
)

// SchemaVersion is the version written into every settings envelope.
const SchemaVersion = 1

type envelope struct {
	SchemaVersion int             `json:"schema_version"`
	Settings      json.RawMessage `json:"settings"`
}

// EncodeSettings serializes settings into the versioned envelope.
func EncodeSettings(s lock.Settings) ([]byte, error) {
	inner, err := json.Marshal(s)
	if err != nil {
		return nil, fmt.Errorf("encoding settings: %w", err)
	}
	return json.Marshal(envelope{SchemaVersion: SchemaVersion, Settings: inner})
}

// DecodeSettings parses an envelope. Any problem with the bytes, including
// an unknown schema version or settings that fail validation, returns
// defaults and an error wrapping lock.ErrSettingsCorrupt.
func DecodeSettings(data []byte) (lock.Settings, error) {
	var env envelope
	if err := json.Unmarshal(data, &env); err != nil {
		return lock.DefaultSettings(), fmt.Errorf("%w: %w", lock.ErrSettingsCorrupt, err)
	}
	if env.SchemaVersion != SchemaVersion {
		return lock.DefaultSettings(), fmt.Errorf("%w: schema version %d", lock.ErrSettingsCorrupt, env.SchemaVersion)
	}
	if len(env.Settings) == 0 {
		return lock.DefaultSettings(), fmt.Errorf("%w: missing settings", lock.ErrSettingsCorrupt)
	}

	s := lock.DefaultSettings()
	if err := json.Unmarshal(env.Settings, &s); err != nil {
		return lock.DefaultSettings(), fmt.Errorf("%w: %w", lock.ErrSettingsCorrupt, err)
	}
	if err := s.Validate(); err != nil {
		return lock.DefaultSettings(), fmt.Errorf("%w: %w", lock.ErrSettingsCorrupt, err)
	}
	return s, nil
}

// EncodeTimestamp renders t as decimal seconds since the epoch.
func EncodeTimestamp(t time.Time) []byte {
	return []byte(strconv.FormatInt(t.Unix(), 10))
}

// DecodeTimestamp parses seconds since the epoch. Fractional seconds are
// accepted. Zero, negative, non-finite and out of range values are rejected.
func DecodeTimestamp(data []byte) (time.Time, error) {
	raw := strings.TrimSpace(string(data))
	secs, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return time.Time{}, fmt.Errorf("parsing last activity %q: %w", raw, err)
	}
	if math.IsNaN(secs) || math.IsInf(secs, 0) {
		return time.Time{}, fmt.Errorf("parsing last activity %q: not finite", raw)
	}
	if secs <= 0 {
		return time.Time{}, fmt.Errorf("parsing last activity %q: not positive", raw)
	}
	if secs >= math.MaxInt64 {
		return time.Time{}, fmt.Errorf("parsing last activity %q: out of range", raw)
	}
	whole := int64(secs)
	frac := int64((secs - float64(whole)) * 1e9)
	return time.Unix(whole, frac), nil
}
