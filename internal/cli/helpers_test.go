package cli

import (
	"bytes"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/require"

	"github.com/mrz1836/lockgate/internal/config"
	"github.com/mrz1836/lockgate/internal/host"
)

// result holds what one CLI invocation wrote.
type result struct {
	stdout string
	stderr string
	err    error
}

// resetFlags puts every bound flag back to its default so invocations do
// not leak into each other.
func resetFlags() {
	homeDir = ""
	outputFormat = "auto"
	verbose = false
	configForce = false
	runBiometricTimeout = host.DefaultBiometricTimeout
	runEphemeral = false

	walkCommands(rootCmd, func(c *cobra.Command) {
		if f := c.Flags().Lookup("help"); f != nil {
			_ = f.Value.Set("false")
			f.Changed = false
		}
	})
}

// execute runs lockgate with the given stdin against home. Output defaults
// to text; a later -o in args wins.
func execute(t *testing.T, home, stdin string, args ...string) result {
	t.Helper()
	return executeFrom(t, home, strings.NewReader(stdin), args...)
}

// executeFrom is execute reading stdin from r.
func executeFrom(t *testing.T, home string, r io.Reader, args ...string) result {
	t.Helper()

	for _, env := range []string{
		config.EnvHome, config.EnvStore, config.EnvOutputFormat, config.EnvVerbose,
		config.EnvTickSeconds, config.EnvHashScheme,
	} {
		t.Setenv(env, "")
	}
	t.Setenv(config.EnvLogLevel, "off")

	resetFlags()
	var stdout, stderr bytes.Buffer
	rootCmd.SetIn(r)
	rootCmd.SetOut(&stdout)
	rootCmd.SetErr(&stderr)
	rootCmd.SetArgs(append([]string{"--home", home, "-o", "text"}, args...))
	t.Cleanup(func() {
		rootCmd.SetIn(nil)
		rootCmd.SetOut(nil)
		rootCmd.SetErr(nil)
		rootCmd.SetArgs(nil)
	})

	err := rootCmd.Execute()
	return result{stdout: stdout.String(), stderr: stderr.String(), err: err}
}

// mustExecute is execute that fails the test on error.
func mustExecute(t *testing.T, home, stdin string, args ...string) result {
	t.Helper()
	r := execute(t, home, stdin, args...)
	require.NoError(t, r.err, "lockgate %s\nstdout: %s\nstderr: %s", strings.Join(args, " "), r.stdout, r.stderr)
	return r
}

// enableLock sets PIN 1234 in a fresh home and returns the home.
func enableLock(t *testing.T) string {
	t.Helper()
	home := t.TempDir()
	mustExecute(t, home, "1234\n1234\n", "pin", "set")
	return home
}

// writeConfig writes a config file into home after applying edit to the defaults.
func writeConfig(t *testing.T, home string, edit func(c *config.Config)) {
	t.Helper()
	c := config.Defaults()
	c.Home = home
	c.Logging.Level = "off"
	edit(c)
	require.NoError(t, config.Save(c, config.Path(home)))
}

// settingsFile is where the file backend keeps the lock settings.
func settingsFile(home string) string {
	return filepath.Join(home, "state", "lock_settings.json")
}

func readFile(t *testing.T, path string) string {
	t.Helper()
	data, err := os.ReadFile(path) //nolint:gosec // Test path
	require.NoError(t, err)
	return string(data)
}
