package cli

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/mrz1836/lockgate/internal/lock"
	gateerr "github.com/mrz1836/lockgate/pkg/errors"
)

// policyCmd is the parent command for the lock policy.
//
//nolint:gochecknoglobals // Cobra CLI pattern requires package-level command variables
var policyCmd = &cobra.Command{
	Use:     "policy",
	Short:   "Configure when the gate locks",
	Long:    `Choose what closes the gate and whether biometrics may open it.`,
	GroupID: groupGate,
}

//nolint:gochecknoglobals // Cobra CLI pattern requires package-level command variables
var policyTriggerCmd = &cobra.Command{
	Use:   "trigger <on_open|on_background|after_inactivity>",
	Short: "Set the lock trigger",
	Long: `Set which event closes the gate:

  on_open           lock whenever the app is opened or returns from the background
  on_background     lock when the app returns from the background
  after_inactivity  lock once no activity was recorded for the inactivity timeout`,
	Example: `  lockgate policy trigger on_background
  lockgate policy trigger after-inactivity`,
	Args:      cobra.ExactArgs(1),
	ValidArgs: triggerNames(),
	RunE:      runPolicyTrigger,
}

//nolint:gochecknoglobals // Cobra CLI pattern requires package-level command variables
var policyTimeoutCmd = &cobra.Command{
	Use:   "timeout <minutes>",
	Short: "Set the inactivity timeout",
	Long: `Set how many minutes without activity close the gate when the trigger is
after_inactivity. The usual choices are 1, 5, 15, and 30; any positive number
of minutes is accepted.`,
	Example:   `  lockgate policy timeout 15`,
	Args:      cobra.ExactArgs(1),
	ValidArgs: timeoutPresets(),
	RunE:      runPolicyTimeout,
}

//nolint:gochecknoglobals // Cobra CLI pattern requires package-level command variables
var policyBiometricsCmd = &cobra.Command{
	Use:   "biometrics <on|off>",
	Short: "Allow or forbid biometric unlock",
	Long: `Allow or forbid unlocking with the configured biometric provider. Turning it
on requires biometric.provider to be set to something other than none.`,
	Example: `  lockgate policy biometrics on
  lockgate policy biometrics off`,
	Args:      cobra.ExactArgs(1),
	ValidArgs: []string{"on", "off"},
	RunE:      runPolicyBiometrics,
}

//nolint:gochecknoinits // Cobra CLI pattern requires init for command registration
func init() {
	rootCmd.AddCommand(policyCmd)
	policyCmd.AddCommand(policyTriggerCmd, policyTimeoutCmd, policyBiometricsCmd)
}

func triggerNames() []string {
	names := make([]string, 0, len(lock.Triggers))
	for _, t := range lock.Triggers {
		names = append(names, string(t))
	}
	return names
}

func timeoutPresets() []string {
	presets := make([]string, 0, len(lock.TimeoutPresets))
	for _, m := range lock.TimeoutPresets {
		presets = append(presets, strconv.Itoa(m))
	}
	return presets
}

func runPolicyTrigger(cmd *cobra.Command, args []string) error {
	trigger, err := lock.ParseTrigger(args[0])
	if err != nil {
		return err
	}

	cc := commandContext(cmd)
	gate, err := cc.OpenGate(cmd.Context())
	if err != nil {
		return err
	}
	defer func() { _ = gate.Close() }()

	if err := gate.SetTrigger(trigger); err != nil {
		return err
	}
	cc.Notifier.Successf("Lock trigger set to %s", strings.ToLower(trigger.Description()))
	cc.hintIfDisabled(gate)
	return nil
}

func runPolicyTimeout(cmd *cobra.Command, args []string) error {
	minutes, err := strconv.Atoi(strings.TrimSpace(args[0]))
	if err != nil || minutes <= 0 {
		return gateerr.WithSuggestion(
			gateerr.WithDetails(gateerr.ErrInvalidTimeout, map[string]string{"value": args[0]}),
			fmt.Sprintf("use a positive number of minutes, e.g. %s", strings.Join(timeoutPresets(), ", ")),
		)
	}

	cc := commandContext(cmd)
	gate, err := cc.OpenGate(cmd.Context())
	if err != nil {
		return err
	}
	defer func() { _ = gate.Close() }()

	if err := gate.SetInactivityTimeout(minutes); err != nil {
		return err
	}
	cc.Notifier.Successf("Inactivity timeout set to %s", lock.TimeoutLabel(minutes))
	if t := gate.Settings().Trigger; t != lock.TriggerAfterInactivity {
		cc.Notifier.Infof("The timeout applies once the trigger is %s", lock.TriggerAfterInactivity)
	}
	cc.hintIfDisabled(gate)
	return nil
}

func runPolicyBiometrics(cmd *cobra.Command, args []string) error {
	enabled, err := parseOnOff(args[0])
	if err != nil {
		return err
	}

	cc := commandContext(cmd)
	gate, err := cc.OpenGate(cmd.Context())
	if err != nil {
		return err
	}
	defer func() { _ = gate.Close() }()

	if enabled && !gate.IsBiometricCapable() {
		return gateerr.WithSuggestion(
			gateerr.ErrBiometricUnavailable,
			"set biometric.provider with 'lockgate config set biometric.provider command'",
		)
	}

	if err := gate.SetBiometricEnabled(enabled); err != nil {
		return err
	}
	if enabled {
		cc.Notifier.Successf("Biometric unlock (%s) enabled", gate.BiometricModality())
	} else {
		cc.Notifier.Success("Biometric unlock disabled")
	}
	cc.hintIfDisabled(gate)
	return nil
}

func (c *CommandContext) hintIfDisabled(gate *Gate) {
	if !gate.Settings().Enabled {
		c.Notifier.Info("App lock is off; run 'lockgate pin set' to turn it on")
	}
}

func parseOnOff(s string) (bool, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "on", "true", "yes", "1":
		return true, nil
	case "off", "false", "no", "0":
		return false, nil
	default:
		return false, gateerr.WithSuggestion(
			gateerr.WithDetails(gateerr.ErrInvalidInput, map[string]string{"value": s}),
			"use on or off",
		)
	}
}
