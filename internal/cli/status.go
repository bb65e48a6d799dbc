package cli

import (
	"io"
	"time"

	"github.com/spf13/cobra"

	"github.com/mrz1836/lockgate/internal/config"
	"github.com/mrz1836/lockgate/internal/lock"
	"github.com/mrz1836/lockgate/internal/output"
)

//nolint:gochecknoglobals // Cobra CLI pattern requires package-level command variables
var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show the lock policy and the predicted gate state",
	Long: `Show the lock policy together with the state the gate would take if the app
opened now.`,
	Example: `  lockgate status
  lockgate status -o json`,
	GroupID: groupGate,
	Args:    cobra.NoArgs,
	RunE:    runStatus,
}

//nolint:gochecknoinits // Cobra CLI pattern requires init for command registration
func init() {
	rootCmd.AddCommand(statusCmd)
}

// StatusReport is the status command's JSON document. The credential hash
// is never part of it.
type StatusReport struct {
	Enabled            bool         `json:"enabled"`
	Trigger            lock.Trigger `json:"trigger"`
	TimeoutMinutes     int          `json:"inactivity_timeout_minutes"`
	BiometricEnabled   bool         `json:"biometric_enabled"`
	BiometricAvailable bool         `json:"biometric_available"`
	Modality           string       `json:"biometric_modality"`
	LastActivity       time.Time    `json:"last_activity"`
	OnOpen             string       `json:"on_open"`
	FailClosed         bool         `json:"fail_closed"`
	Backend            string       `json:"backend"`
	StorePath          string       `json:"store_path,omitempty"`
	SettingsSavedAt    *time.Time   `json:"settings_saved_at,omitempty"`
}

func runStatus(cmd *cobra.Command, _ []string) error {
	cc := commandContext(cmd)
	gate, err := cc.OpenGate(cmd.Context())
	if err != nil {
		return err
	}
	defer func() { _ = gate.Close() }()

	report := buildStatusReport(gate, cc.Config.StorePath())
	if at, found, err := gate.SettingsSavedAt(); err != nil {
		cc.Logger.Error("%v", err)
	} else if found {
		report.SettingsSavedAt = &at
	}
	if cc.Formatter.IsJSON() {
		return cc.Formatter.Print(report)
	}
	return writeStatusText(cc.Formatter.Writer(), report)
}

func buildStatusReport(gate *Gate, storePath string) StatusReport {
	st := gate.Status()
	r := StatusReport{
		Enabled:            st.Settings.Enabled,
		Trigger:            st.Settings.Trigger,
		TimeoutMinutes:     st.Settings.InactivityTimeoutMinutes,
		BiometricEnabled:   st.Settings.BiometricEnabled,
		BiometricAvailable: gate.IsBiometricCapable(),
		Modality:           gate.BiometricModality().String(),
		LastActivity:       st.LastActivity,
		OnOpen:             gate.PredictOnOpen().String(),
		FailClosed:         st.FailClosed,
		Backend:            gate.Backend(),
	}
	switch r.Backend {
	case config.BackendFile, config.BackendSQLite:
		r.StorePath = storePath
	}
	return r
}

func writeStatusText(w io.Writer, r StatusReport) error {
	t := output.KeyValue().AddRow("App lock:", onOff(r.Enabled))
	if r.Enabled {
		t.AddRow("Trigger:", r.Trigger.Description())
		if r.Trigger == lock.TriggerAfterInactivity {
			t.AddRow("Timeout:", lock.TimeoutLabel(r.TimeoutMinutes))
		}
	}

	bio := onOff(r.BiometricEnabled)
	if r.BiometricAvailable {
		bio += " (" + r.Modality + ")"
	} else {
		bio += " (unavailable)"
	}
	t.AddRow("Biometrics:", bio)

	if !r.LastActivity.IsZero() {
		t.AddRow("Last activity:", r.LastActivity.Local().Format(time.DateTime))
	}
	t.AddRow("On open:", r.OnOpen)

	store := r.Backend
	if r.StorePath != "" {
		store += " " + r.StorePath
	}
	t.AddRow("Store:", store)
	if r.SettingsSavedAt != nil {
		t.AddRow("Settings saved:", r.SettingsSavedAt.Local().Format(time.DateTime))
	}

	if r.FailClosed {
		t.AddRow("Warning:", "settings were unreadable; run 'lockgate pin disable' to reset")
	}
	return t.Render(w)
}

func onOff(b bool) string {
	if b {
		return "on"
	}
	return "off"
}
