package biometric_test

import (
	"bytes"
	"context"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mrz1836/lockgate/internal/biometric"
	"github.com/mrz1836/lockgate/internal/config"
	"github.com/mrz1836/lockgate/internal/host"
	"github.com/mrz1836/lockgate/internal/lock"
	"github.com/mrz1836/lockgate/internal/store"
)

func TestNew_SelectsAdapter(t *testing.T) {
	t.Parallel()

	tests := []struct {
		provider string
		want     any
	}{
		{config.BiometricNone, biometric.None{}},
		{"", biometric.None{}},
		{config.BiometricScripted, &biometric.Scripted{}},
		{config.BiometricCommand, &biometric.Command{}},
	}

	for _, tt := range tests {
		t.Run(tt.provider, func(t *testing.T) {
			t.Parallel()
			cfg := config.Defaults().Biometric
			cfg.Provider = tt.provider
			got := biometric.New(cfg, host.NewLineFeed(strings.NewReader("")), &bytes.Buffer{})
			assert.IsType(t, tt.want, got)
		})
	}
}

func TestNone(t *testing.T) {
	t.Parallel()

	var p lock.BiometricProvider = biometric.None{}
	assert.False(t, p.Available())
	assert.Equal(t, lock.ModalityNone, p.Modality())
	ok, err := p.Authenticate(context.Background(), "Unlock")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestScripted_OutcomesInOrder(t *testing.T) {
	t.Parallel()

	p := biometric.NewScripted(lock.ModalityFace, false, true)
	assert.True(t, p.Available())
	assert.Equal(t, lock.ModalityFace, p.Modality())

	ctx := context.Background()
	for _, want := range []bool{false, true, true} {
		ok, err := p.Authenticate(ctx, "Unlock")
		require.NoError(t, err)
		assert.Equal(t, want, ok)
	}
}

func TestScripted_NoOutcomesFails(t *testing.T) {
	t.Parallel()

	ok, err := biometric.NewScripted(lock.ModalityFingerprint).Authenticate(context.Background(), "")
	require.NoError(t, err)
	assert.False(t, ok)
	assert.False(t, biometric.NewScripted(lock.ModalityNone, true).Available())
}

func TestScripted_DelayHonorsContext(t *testing.T) {
	t.Parallel()

	p := biometric.NewScripted(lock.ModalityFingerprint, true).WithDelay(time.Hour)
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()

	ok, err := p.Authenticate(ctx, "Unlock")
	require.ErrorIs(t, err, context.DeadlineExceeded)
	assert.False(t, ok)
}

func TestPrompted(t *testing.T) {
	t.Parallel()

	var out bytes.Buffer
	p := biometric.NewPrompted(lock.ModalityFingerprint, host.NewLineFeed(strings.NewReader("y\nno\nYes")), &out)
	ctx := context.Background()

	ok, err := p.Authenticate(ctx, "Unlock lockgate")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Contains(t, out.String(), "[simulated fingerprint] Unlock lockgate - accept? [y/N]: ")

	ok, err = p.Authenticate(ctx, "Unlock lockgate")
	require.NoError(t, err)
	assert.False(t, ok)

	ok, err = p.Authenticate(ctx, "Unlock lockgate")
	require.NoError(t, err)
	assert.True(t, ok, "final line without newline still counts")

	_, err = p.Authenticate(ctx, "Unlock lockgate")
	require.Error(t, err, "input exhausted")
}

func TestPrompted_TimeoutLeavesLineForNextReader(t *testing.T) {
	t.Parallel()

	pr, pw := io.Pipe()
	t.Cleanup(func() { _ = pw.Close() })
	feed := host.NewLineFeed(pr)
	p := biometric.NewPrompted(lock.ModalityFace, feed, io.Discard)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	ok, err := p.Authenticate(ctx, "Unlock lockgate")
	require.ErrorIs(t, err, context.DeadlineExceeded)
	assert.False(t, ok)
	assert.True(t, feed.Pending())

	go func() { _, _ = io.WriteString(pw, "1234\n") }()

	line, err := feed.ReadLine(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "1234\n", line)
	assert.False(t, feed.Pending())
}

func requireBinary(t *testing.T, name string) {
	t.Helper()
	if _, err := exec.LookPath(name); err != nil {
		t.Skipf("%s not on PATH", name)
	}
}

func TestCommand_ExitStatus(t *testing.T) {
	t.Parallel()
	requireBinary(t, "true")
	requireBinary(t, "false")

	ok, err := biometric.NewCommand("true", lock.ModalityFingerprint).Authenticate(context.Background(), "x")
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = biometric.NewCommand("false", lock.ModalityFingerprint).Authenticate(context.Background(), "x")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestCommand_PassesArgsAndReason(t *testing.T) {
	t.Parallel()
	requireBinary(t, "sh")

	script := filepath.Join(t.TempDir(), "verify.sh")
	body := "[ \"$1\" = right ] && [ \"$LOCKGATE_REASON\" = \"Unlock lockgate\" ]\n"
	require.NoError(t, os.WriteFile(script, []byte(body), 0o600))

	ok, err := biometric.NewCommand("sh "+script+" right", lock.ModalityFingerprint).
		Authenticate(context.Background(), "Unlock lockgate")
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = biometric.NewCommand("sh "+script+" left", lock.ModalityFingerprint).
		Authenticate(context.Background(), "Unlock lockgate")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestCommand_Availability(t *testing.T) {
	t.Parallel()
	requireBinary(t, "true")

	assert.True(t, biometric.NewCommand("true", lock.ModalityFingerprint).Available())
	assert.False(t, biometric.NewCommand("true", lock.ModalityNone).Available())
	assert.False(t, biometric.NewCommand("lockgate-no-such-verifier", lock.ModalityFingerprint).Available())
	assert.False(t, biometric.NewCommand("   ", lock.ModalityFingerprint).Available())

	_, err := biometric.NewCommand("", lock.ModalityFingerprint).Authenticate(context.Background(), "x")
	require.Error(t, err)
}

func TestCommand_ContextKillsVerifier(t *testing.T) {
	t.Parallel()
	requireBinary(t, "sleep")

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	start := time.Now()
	ok, err := biometric.NewCommand("sleep 10", lock.ModalityFingerprint).Authenticate(ctx, "x")
	require.Error(t, err)
	assert.False(t, ok)
	assert.Less(t, time.Since(start), 5*time.Second)
}

func TestCommand_DrivesEngineChallenge(t *testing.T) {
	t.Parallel()
	requireBinary(t, "true")

	e := lock.NewEngine(store.NewMemory(),
		lock.WithBiometric(biometric.NewCommand("true", lock.ModalityFingerprint)),
	)
	assert.True(t, e.IsBiometricCapable())
	assert.Equal(t, lock.ModalityFingerprint, e.BiometricModality())
	assert.True(t, e.AuthenticateBiometrically(context.Background()))
	require.NoError(t, e.Close())
}
