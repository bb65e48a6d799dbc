package host

import (
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/agnivade/levenshtein"

	"github.com/mrz1836/lockgate/internal/lock"
	"github.com/mrz1836/lockgate/internal/output"
	gateerr "github.com/mrz1836/lockgate/pkg/errors"
)

type command struct {
	usage string
	help  string
	run   func(ctx context.Context, s *Session, args []string) (bool, error)
}

//nolint:gochecknoglobals // Fixed command table, filled in init
var commands map[string]command

//nolint:funlen // One entry per command
func init() {
	commands = map[string]command{
		"foreground": {"foreground", "the app becomes active", func(_ context.Context, s *Session, _ []string) (bool, error) {
			s.engine.NotifyForeground()
			return false, nil
		}},
		"inactive": {"inactive", "the app is visible but not interactive", func(_ context.Context, s *Session, _ []string) (bool, error) {
			s.engine.NotifyInactive()
			return false, nil
		}},
		"background": {"background", "the app moves to the background", func(_ context.Context, s *Session, _ []string) (bool, error) {
			s.engine.NotifyBackground()
			return false, nil
		}},
		"tick": {"tick", "run the inactivity check now", func(_ context.Context, s *Session, _ []string) (bool, error) {
			s.engine.NotifyPeriodicTick()
			return false, nil
		}},
		"activity": {"activity", "record user activity", func(_ context.Context, s *Session, _ []string) (bool, error) {
			if s.engine.State() == lock.Locked {
				s.notify.Info("Locked; unlock first")
				return false, nil
			}
			return false, s.engine.RecordActivity()
		}},
		"unlock": {"unlock [pin]", "unlock with biometrics or PIN", func(ctx context.Context, s *Session, args []string) (bool, error) {
			pinOnly := len(args) > 0 && strings.EqualFold(args[0], MethodPIN)
			return false, s.unlock(ctx, pinOnly)
		}},
		"lock": {"lock", "lock now", func(_ context.Context, s *Session, _ []string) (bool, error) {
			if !s.engine.Settings().Enabled {
				s.notify.Info("App lock is off")
				return false, nil
			}
			s.engine.Lock()
			return false, nil
		}},
		"status": {"status", "show the gate and policy", func(_ context.Context, s *Session, _ []string) (bool, error) {
			return false, WriteStatus(s.out, s.engine.Status())
		}},
		"stats": {"stats", "show session counters", func(_ context.Context, s *Session, _ []string) (bool, error) {
			return false, s.writeStats()
		}},
		"help": {"help", "list commands", func(_ context.Context, s *Session, _ []string) (bool, error) {
			return false, writeHelp(s)
		}},
		"quit": {"quit", "end the session", func(context.Context, *Session, []string) (bool, error) {
			return true, nil
		}},
		"exit": {"exit", "end the session", func(context.Context, *Session, []string) (bool, error) {
			return true, nil
		}},
	}
}

//nolint:gochecknoglobals // Display order for help
var commandOrder = []string{
	"foreground", "inactive", "background", "tick", "activity",
	"unlock", "lock", "status", "stats", "help", "quit",
}

func writeHelp(s *Session) error {
	t := output.KeyValue()
	for _, name := range commandOrder {
		c := commands[name]
		t.AddRow(c.usage, c.help)
	}
	return t.Render(s.out)
}

func unknownCommand(name string) error {
	err := gateerr.WithDetails(gateerr.ErrInvalidInput, map[string]string{"command": name})

	best, bestDist := "", 4
	for _, candidate := range commandOrder {
		if d := levenshtein.ComputeDistance(name, candidate); d < bestDist {
			best, bestDist = candidate, d
		}
	}
	if best != "" {
		return gateerr.WithSuggestion(err, fmt.Sprintf("did you mean %q?", best))
	}
	return gateerr.WithSuggestion(err, "type 'help' for a list of commands")
}

// WriteStatus renders a status snapshot as a two-column table.
func WriteStatus(w io.Writer, st lock.Status) error {
	s := st.Settings
	t := output.KeyValue().
		AddRow("Gate:", st.State.String()).
		AddRow("Phase:", st.Phase).
		AddRow("App lock:", onOff(s.Enabled))

	if s.Enabled {
		t.AddRow("Trigger:", s.Trigger.Description())
		if s.Trigger == lock.TriggerAfterInactivity {
			t.AddRow("Timeout:", lock.TimeoutLabel(s.InactivityTimeoutMinutes))
		}
		t.AddRow("Biometrics:", onOff(s.BiometricEnabled))
	}
	if !st.LastActivity.IsZero() {
		t.AddRow("Last activity:", st.LastActivity.Local().Format(time.DateTime))
	}
	if st.FailClosed {
		t.AddRow("Warning:", "settings were unreadable; gate is closed until the PIN is reset")
	}
	return t.Render(w)
}

func onOff(b bool) string {
	if b {
		return "on"
	}
	return "off"
}

func (s *Session) writeStats() error {
	snap := s.metrics.Snapshot()
	return output.KeyValue().
		AddRow("Locks:", fmt.Sprint(snap.Locks)).
		AddRow("Unlocks:", fmt.Sprint(snap.Unlocks)).
		AddRow("PIN checks:", fmt.Sprintf("%d ok, %d failed (%.0f%%)",
			snap.VerifySuccess, snap.VerifyFailure, s.metrics.VerifyFailureRate())).
		AddRow("Throttled:", fmt.Sprint(snap.Throttled)).
		AddRow("Biometric:", fmt.Sprintf("%d/%d ok, avg %.0fms",
			snap.BiometricSuccesses, snap.BiometricAttempts, s.metrics.BiometricAvgMs())).
		AddRow("Ticks:", fmt.Sprint(snap.Ticks)).
		AddRow("Save errors:", fmt.Sprint(snap.PersistErrors)).
		Render(s.out)
}
