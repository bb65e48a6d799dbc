package cli

import (
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/mrz1836/lockgate/internal/host"
)

//nolint:gochecknoglobals // Cobra CLI pattern requires package-level flag variables
var (
	runBiometricTimeout time.Duration
	runEphemeral        bool
)

//nolint:gochecknoglobals // Cobra CLI pattern requires package-level command variables
var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Start an interactive host session",
	Long: `Run the lock gate against this terminal as if it were the application.

Commands are read one per line: foreground, inactive, background, tick,
activity, unlock [pin], lock, status, stats, help, quit. Ctrl-Z sends the
session to the background and fg brings it back.

Failed unlock attempts are throttled per lock.unlock_attempts_per_minute.
With --ephemeral the session works on an in-memory copy of the saved
settings and nothing it changes is written back.`,
	Example: `  lockgate run
  lockgate run --ephemeral
  printf 'background\nforeground\nunlock\n1234\nstatus\n' | lockgate run`,
	GroupID: groupGate,
	Args:    cobra.NoArgs,
	RunE:    runHost,
}

//nolint:gochecknoinits // Cobra CLI pattern requires init for command registration
func init() {
	rootCmd.AddCommand(runCmd)
	runCmd.Flags().DurationVar(&runBiometricTimeout, "biometric-timeout", host.DefaultBiometricTimeout,
		"how long to wait for the biometric provider before falling back to the PIN")
	runCmd.Flags().BoolVar(&runEphemeral, "ephemeral", false, "work on an in-memory copy of the saved settings")
}

func runHost(cmd *cobra.Command, _ []string) error {
	cc := commandContext(cmd)

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	open := cc.OpenGate
	if runEphemeral {
		open = cc.OpenEphemeralGate
	}
	gate, err := open(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = gate.Close() }()

	session := host.New(gate.Engine, host.Options{
		Lines:            cc.Lines,
		Out:              cmd.OutOrStdout(),
		Notifier:         cc.Notifier,
		ReadPIN:          cc.readSecret,
		Throttle:         host.NewThrottle(cc.Config.Lock.UnlockAttemptsPerMinute),
		Logger:           cc.Logger,
		Metrics:          cc.Metrics,
		BiometricTimeout: runBiometricTimeout,
		Signals:          true,
	})
	cc.Logger.Debug("host session %s on %s store", session.ID, gate.Backend())

	return session.Run(ctx)
}
