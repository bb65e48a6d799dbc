package cli

import (
	"github.com/spf13/cobra"

	gateerr "github.com/mrz1836/lockgate/pkg/errors"
)

// pinCmd is the parent command for PIN management.
//
//nolint:gochecknoglobals // Cobra CLI pattern requires package-level command variables
var pinCmd = &cobra.Command{
	Use:     "pin",
	Short:   "Manage the app-lock PIN",
	Long:    `Turn the app lock on by setting a PIN, change it, verify it, or turn the lock off.`,
	GroupID: groupGate,
}

//nolint:gochecknoglobals // Cobra CLI pattern requires package-level command variables
var pinSetCmd = &cobra.Command{
	Use:   "set",
	Short: "Set a PIN and turn the app lock on",
	Long: `Prompt for a new PIN twice and turn the app lock on.

The current session stays unlocked; the gate first closes on the next event
that matches the lock trigger.`,
	Example: `  lockgate pin set
  printf '1234\n1234\n' | lockgate pin set`,
	Args: cobra.NoArgs,
	RunE: runPINSet,
}

//nolint:gochecknoglobals // Cobra CLI pattern requires package-level command variables
var pinChangeCmd = &cobra.Command{
	Use:     "change",
	Short:   "Change the PIN",
	Long:    `Prompt for the current PIN, then for the new PIN twice. The old PIN stops working immediately.`,
	Example: `  lockgate pin change`,
	Args:    cobra.NoArgs,
	RunE:    runPINChange,
}

//nolint:gochecknoglobals // Cobra CLI pattern requires package-level command variables
var pinDisableCmd = &cobra.Command{
	Use:   "disable",
	Short: "Turn the app lock off",
	Long: `Prompt for the current PIN and turn the app lock off. The lock policy is
reset to its defaults.

If the stored settings could not be read and the gate failed closed, no PIN is
asked for.`,
	Example: `  lockgate pin disable`,
	Args:    cobra.NoArgs,
	RunE:    runPINDisable,
}

//nolint:gochecknoglobals // Cobra CLI pattern requires package-level command variables
var pinVerifyCmd = &cobra.Command{
	Use:   "verify",
	Short: "Check a PIN against the stored one",
	Long:  `Prompt for a PIN and report whether it matches. Exits with status 3 when it does not.`,
	Example: `  lockgate pin verify
  echo 1234 | lockgate pin verify -o json`,
	Args: cobra.NoArgs,
	RunE: runPINVerify,
}

//nolint:gochecknoinits // Cobra CLI pattern requires init for command registration
func init() {
	rootCmd.AddCommand(pinCmd)
	pinCmd.AddCommand(pinSetCmd, pinChangeCmd, pinDisableCmd, pinVerifyCmd)
}

func runPINSet(cmd *cobra.Command, _ []string) error {
	cc := commandContext(cmd)
	gate, err := cc.OpenGate(cmd.Context())
	if err != nil {
		return err
	}
	defer func() { _ = gate.Close() }()

	if gate.Settings().Enabled {
		return gateerr.WithSuggestion(gateerr.ErrLockEnabled, "use 'lockgate pin change' to replace the PIN")
	}

	pin, err := cc.promptNewPIN()
	if err != nil {
		return err
	}
	defer pin.Destroy()

	if err := gate.Enable(pin.Bytes()); err != nil {
		return err
	}
	cc.Notifier.Success("PIN enabled")
	return nil
}

func runPINChange(cmd *cobra.Command, _ []string) error {
	cc := commandContext(cmd)
	gate, err := cc.OpenGate(cmd.Context())
	if err != nil {
		return err
	}
	defer func() { _ = gate.Close() }()

	if !gate.Settings().Enabled {
		return gateerr.WithSuggestion(gateerr.ErrLockDisabled, "run 'lockgate pin set' first")
	}
	if err := cc.requirePIN(gate, "Enter current PIN: "); err != nil {
		return err
	}

	pin, err := cc.promptNewPIN()
	if err != nil {
		return err
	}
	defer pin.Destroy()

	if err := gate.ChangeCredential(pin.Bytes()); err != nil {
		return err
	}
	cc.Notifier.Success("PIN updated")
	return nil
}

func runPINDisable(cmd *cobra.Command, _ []string) error {
	cc := commandContext(cmd)
	gate, err := cc.OpenGate(cmd.Context())
	if err != nil {
		return err
	}
	defer func() { _ = gate.Close() }()

	st := gate.Status()
	switch {
	case st.FailClosed:
		cc.Logger.Info("disabling a gate that failed closed")
		if err := gate.ClearStore(); err != nil {
			return gateerr.WithCause(gateerr.ErrStoreUnavailable, err)
		}
	case !st.Settings.Enabled:
		cc.Notifier.Info("App lock is already off")
		return nil
	default:
		if err := cc.requirePIN(gate, "Enter PIN to disable: "); err != nil {
			return err
		}
	}

	if err := gate.Disable(); err != nil {
		return err
	}
	cc.Notifier.Success("PIN disabled")
	return nil
}

func runPINVerify(cmd *cobra.Command, _ []string) error {
	cc := commandContext(cmd)
	gate, err := cc.OpenGate(cmd.Context())
	if err != nil {
		return err
	}
	defer func() { _ = gate.Close() }()

	if !gate.Settings().Enabled {
		return gateerr.WithSuggestion(gateerr.ErrLockDisabled, "run 'lockgate pin set' first")
	}
	if err := cc.requirePIN(gate, "Enter PIN: "); err != nil {
		return err
	}
	cc.Notifier.Success("PIN verified")
	return nil
}

// requirePIN prompts for the current PIN and fails with ErrWrongPIN when it
// does not verify.
func (c *CommandContext) requirePIN(gate *Gate, prompt string) error {
	pin, err := c.promptPIN(prompt)
	if err != nil {
		return err
	}
	defer pin.Destroy()

	if !gate.Verify(pin.Bytes()) {
		c.Logger.Info("PIN check failed")
		return gateerr.ErrWrongPIN
	}
	return nil
}
