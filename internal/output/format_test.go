package output_test

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mrz1836/lockgate/internal/output"
)

func TestFormatter_JSON(t *testing.T) {
	t.Parallel()
	var buf bytes.Buffer
	f := output.NewFormatter(output.FormatJSON, &buf)

	require.NoError(t, f.Print(map[string]string{"state": "locked"}))

	var result map[string]string
	require.NoError(t, json.Unmarshal(buf.Bytes(), &result))
	assert.Equal(t, "locked", result["state"])
	assert.True(t, f.IsJSON())
	assert.False(t, f.Color())
}

func TestFormatter_Text(t *testing.T) {
	t.Parallel()
	var buf bytes.Buffer
	f := output.NewFormatter(output.FormatText, &buf)

	require.NoError(t, f.Print("hello"))
	require.NoError(t, f.Printf("%d minutes\n", 5))
	require.NoError(t, f.Println("bye"))
	assert.Equal(t, "hello\n5 minutes\nbye\n", buf.String())
	assert.False(t, f.IsJSON())
}

func TestFormatter_AutoResolvesToJSONWhenPiped(t *testing.T) {
	t.Parallel()
	var buf bytes.Buffer
	f := output.NewFormatter(output.FormatAuto, &buf)
	assert.Equal(t, output.FormatJSON, f.Format())
	assert.Same(t, &buf, f.Writer())
}

func TestFormatter_WithColor(t *testing.T) {
	t.Parallel()
	f := output.NewFormatter(output.FormatText, &bytes.Buffer{}).WithColor(true)
	assert.True(t, f.Color())
}

func TestDetectColor(t *testing.T) {
	t.Parallel()
	var buf bytes.Buffer
	assert.True(t, output.DetectColor(&buf, "always"))
	assert.False(t, output.DetectColor(&buf, "never"))
	assert.False(t, output.DetectColor(&buf, "auto"), "buffers are not terminals")
}

func TestParseFormat(t *testing.T) {
	t.Parallel()
	tests := []struct {
		input    string
		expected output.Format
	}{
		{"json", output.FormatJSON},
		{"JSON", output.FormatJSON},
		{"text", output.FormatText},
		{" Text ", output.FormatText},
		{"auto", output.FormatAuto},
		{"", output.FormatAuto},
		{"yaml", output.FormatAuto},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.expected, output.ParseFormat(tt.input))
		})
	}
}

func TestDetectFormat_Explicit(t *testing.T) {
	t.Parallel()
	var buf bytes.Buffer
	assert.Equal(t, output.FormatText, output.DetectFormat(&buf, output.FormatText))
	assert.Equal(t, output.FormatJSON, output.DetectFormat(&buf, ""))
}
