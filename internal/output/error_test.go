package output_test

import (
	"bytes"
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mrz1836/lockgate/internal/output"
	gateerr "github.com/mrz1836/lockgate/pkg/errors"
)

// failingWriter implements io.Writer but always returns an error.
type failingWriter struct{}

func (failingWriter) Write(_ []byte) (n int, err error) {
	//nolint:err113 // Test error, not wrapped
	return 0, errors.New("write failed")
}

func TestFormatError_NilError(t *testing.T) {
	t.Parallel()

	for _, f := range []output.Format{output.FormatJSON, output.FormatText} {
		var buf bytes.Buffer
		require.NoError(t, output.FormatError(&buf, nil, f))
		assert.Empty(t, buf.String())
	}
}

func TestFormatError_GenericError(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	//nolint:err113 // Test error, intentionally not wrapped
	require.NoError(t, output.FormatError(&buf, errors.New("something went wrong"), output.FormatJSON))

	var result output.ErrorOutput
	require.NoError(t, json.Unmarshal(buf.Bytes(), &result))
	assert.Equal(t, "GENERAL_ERROR", result.Error.Code)
	assert.Equal(t, "something went wrong", result.Error.Message)
	assert.Equal(t, gateerr.ExitGeneral, result.Error.ExitCode)

	buf.Reset()
	//nolint:err113 // Test error, intentionally not wrapped
	require.NoError(t, output.FormatError(&buf, errors.New("something went wrong"), output.FormatText))
	assert.Equal(t, "Error: something went wrong\n", buf.String())
}

func TestFormatError_GateError_JSON(t *testing.T) {
	t.Parallel()

	err := gateerr.WithDetails(gateerr.ErrInvalidTrigger, map[string]string{"value": "on_opne"})
	err = gateerr.WithSuggestion(err, `did you mean "on_open"?`)

	var buf bytes.Buffer
	require.NoError(t, output.FormatError(&buf, err, output.FormatJSON))

	var result output.ErrorOutput
	require.NoError(t, json.Unmarshal(buf.Bytes(), &result))
	assert.Equal(t, "INVALID_TRIGGER", result.Error.Code)
	assert.Equal(t, "invalid lock trigger", result.Error.Message)
	assert.Equal(t, gateerr.ExitInput, result.Error.ExitCode)
	assert.Equal(t, "on_opne", result.Error.Details["value"])
	assert.Equal(t, `did you mean "on_open"?`, result.Error.Suggestion)
	assert.Contains(t, buf.String(), "{\n  \"error\":")
}

func TestFormatError_GateError_Text(t *testing.T) {
	t.Parallel()

	//nolint:err113 // Test error, intentionally not wrapped
	err := gateerr.WithCause(gateerr.ErrPersistFailed, errors.New("disk full"))
	err = gateerr.WithDetails(err, map[string]string{"zulu": "z", "alpha": "a"})
	err = gateerr.WithSuggestion(err, "free some space")

	var buf bytes.Buffer
	require.NoError(t, output.FormatError(&buf, err, output.FormatText))

	got := buf.String()
	assert.Contains(t, got, "Error: lock settings could not be saved\n")
	assert.Contains(t, got, "Cause: disk full\n")
	assert.Contains(t, got, "Suggestion: free some space")
	assert.Less(t, strings.Index(got, "alpha:"), strings.Index(got, "zulu:"))
}

func TestFormatError_EmptyDetailsOmitted(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	require.NoError(t, output.FormatError(&buf, gateerr.ErrWrongPIN, output.FormatJSON))
	assert.NotContains(t, buf.String(), `"details"`)
	assert.NotContains(t, buf.String(), `"cause"`)
}

func TestFormatError_WriteFailure(t *testing.T) {
	t.Parallel()

	require.Error(t, output.FormatError(failingWriter{}, gateerr.ErrWrongPIN, output.FormatText))
	require.Error(t, output.FormatError(failingWriter{}, gateerr.ErrWrongPIN, output.FormatJSON))
}

func TestFormatSuccess(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	require.NoError(t, output.FormatSuccess(&buf, "PIN enabled", output.FormatJSON))

	var result map[string]string
	require.NoError(t, json.Unmarshal(buf.Bytes(), &result))
	assert.Equal(t, map[string]string{"status": "success", "message": "PIN enabled"}, result)

	buf.Reset()
	require.NoError(t, output.FormatSuccess(&buf, "PIN enabled", output.FormatText))
	assert.Equal(t, "PIN enabled\n", buf.String())
}
