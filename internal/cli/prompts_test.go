package cli

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mrz1836/lockgate/internal/config"
	"github.com/mrz1836/lockgate/internal/output"
	gateerr "github.com/mrz1836/lockgate/pkg/errors"
)

// promptContext returns a context that reads stdin and writes prompts to errOut.
func promptContext(stdin string, errOut *bytes.Buffer) *CommandContext {
	var stdout bytes.Buffer
	return NewCommandContext(config.Defaults(), config.NullLogger(), output.NewFormatter(output.FormatText, &stdout)).
		WithInput(strings.NewReader(stdin)).
		WithErrOut(errOut)
}

func TestCheckPIN(t *testing.T) {
	tests := []struct {
		name    string
		pin     string
		length  int
		wantErr bool
	}{
		{"four digits", "1234", 4, false},
		{"leading zeros", "0007", 4, false},
		{"six digits", "123456", 6, false},
		{"empty", "", 4, true},
		{"too short", "123", 4, true},
		{"too long", "12345", 4, true},
		{"letters", "12ab", 4, true},
		{"space", "12 4", 4, true},
		{"unicode digits", "١٢٣٤", 4, true},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			err := checkPIN([]byte(tc.pin), tc.length)
			if !tc.wantErr {
				require.NoError(t, err)
				return
			}
			require.ErrorIs(t, err, gateerr.ErrInvalidPIN)
		})
	}
}

func TestReadSecret(t *testing.T) {
	var errOut bytes.Buffer
	c := promptContext("1234\r\n5678\n9012", &errOut)

	for _, want := range []string{"1234", "5678", "9012"} {
		got, err := c.readSecret("PIN: ")
		require.NoError(t, err)
		assert.Equal(t, want, string(got))
	}
	assert.Equal(t, 3, strings.Count(errOut.String(), "PIN: "))

	_, err := c.readSecret("PIN: ")
	require.ErrorIs(t, err, gateerr.ErrInvalidInput)
}

func TestPromptPIN(t *testing.T) {
	var errOut bytes.Buffer

	pin, err := promptContext(" 1234 \n", &errOut).promptPIN("Enter PIN: ")
	require.NoError(t, err)
	assert.Equal(t, "1234", string(pin.Bytes()))
	pin.Destroy()

	// Any length verifies so a changed pin_length keeps old PINs usable.
	pin, err = promptContext("12\n", &errOut).promptPIN("Enter PIN: ")
	require.NoError(t, err)
	pin.Destroy()

	_, err = promptContext("   \n", &errOut).promptPIN("Enter PIN: ")
	require.ErrorIs(t, err, gateerr.ErrInvalidPIN)
}

func TestPromptNewPIN(t *testing.T) {
	var errOut bytes.Buffer

	pin, err := promptContext("4321\n4321\n", &errOut).promptNewPIN()
	require.NoError(t, err)
	assert.Equal(t, "4321", string(pin.Bytes()))
	pin.Destroy()
	assert.Contains(t, errOut.String(), "Enter new 4-digit PIN: ")

	_, err = promptContext("4321\n1234\n", &errOut).promptNewPIN()
	require.ErrorIs(t, err, gateerr.ErrPINMismatch)

	_, err = promptContext("43a1\n", &errOut).promptNewPIN()
	require.ErrorIs(t, err, gateerr.ErrInvalidPIN)

	_, err = promptContext("4321\n", &errOut).promptNewPIN()
	require.ErrorIs(t, err, gateerr.ErrInvalidInput, "confirmation missing")
}
