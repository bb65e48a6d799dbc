package store

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mrz1836/lockgate/internal/lock"
)

func TestEncodeSettings_Envelope(t *testing.T) {
	t.Parallel()

	data, err := EncodeSettings(lock.DefaultSettings())
	require.NoError(t, err)
	assert.JSONEq(t, `{
		"schema_version": 1,
		"settings": {
			"enabled": false,
			"biometric_enabled": false,
			"trigger": "on_open",
			"inactivity_timeout_minutes": 5
		}
	}`, string(data))
}

func TestDecodeSettings_Corrupt(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		data string
	}{
		{"not json", `{garbage`},
		{"unknown schema", `{"schema_version":2,"settings":{"trigger":"on_open","inactivity_timeout_minutes":5}}`},
		{"missing settings", `{"schema_version":1}`},
		{"bad trigger", `{"schema_version":1,"settings":{"trigger":"sometimes","inactivity_timeout_minutes":5}}`},
		{"zero timeout", `{"schema_version":1,"settings":{"trigger":"on_open","inactivity_timeout_minutes":0}}`},
		{"enabled without hash", `{"schema_version":1,"settings":{"enabled":true,"trigger":"on_open","inactivity_timeout_minutes":5}}`},
		{"wrong type", `{"schema_version":1,"settings":{"enabled":"yes"}}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			s, err := DecodeSettings([]byte(tt.data))
			require.ErrorIs(t, err, lock.ErrSettingsCorrupt)
			assert.True(t, s.Equal(lock.DefaultSettings()))
		})
	}
}

func TestDecodeSettings_MissingFieldsTakeDefaults(t *testing.T) {
	t.Parallel()

	s, err := DecodeSettings([]byte(`{"schema_version":1,"settings":{"trigger":"after_inactivity"}}`))
	require.NoError(t, err)
	assert.Equal(t, lock.TriggerAfterInactivity, s.Trigger)
	assert.Equal(t, 5, s.InactivityTimeoutMinutes)
}

func TestTimestampCodec(t *testing.T) {
	t.Parallel()

	ts := time.Unix(1700000123, 0)
	assert.Equal(t, "1700000123", string(EncodeTimestamp(ts)))

	got, err := DecodeTimestamp([]byte("1700000123"))
	require.NoError(t, err)
	assert.True(t, got.Equal(ts))

	got, err = DecodeTimestamp([]byte(" 1700000123.5\n"))
	require.NoError(t, err)
	assert.Equal(t, int64(1700000123), got.Unix())
	assert.InDelta(t, 500_000_000, got.Nanosecond(), 1000)

	for _, bad := range []string{"", "abc", "0", "-5", "NaN", "Inf", "+Inf", "-Inf", "1e300", "9.3e18"} {
		_, err := DecodeTimestamp([]byte(bad))
		assert.Error(t, err, bad)
	}
}
