package lock

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/agnivade/levenshtein"

	gateerr "github.com/mrz1836/lockgate/pkg/errors"
)

// Trigger selects which lifecycle condition closes the gate.
type Trigger string

// Lock triggers. The values are the persisted representation.
const (
	TriggerOnOpen          Trigger = "on_open"
	TriggerOnBackground    Trigger = "on_background"
	TriggerAfterInactivity Trigger = "after_inactivity"
)

// Triggers lists every trigger in display order.
//
//nolint:gochecknoglobals // Fixed enumeration
var Triggers = []Trigger{TriggerOnOpen, TriggerOnBackground, TriggerAfterInactivity}

// TimeoutPresets are the inactivity timeouts offered to the user, in minutes.
// Any positive value is accepted.
//
//nolint:gochecknoglobals // Fixed enumeration
var TimeoutPresets = []int{1, 5, 15, 30}

// maxSuggestionDistance bounds how far a typo can be from a trigger name
// and still be offered as a suggestion.
const maxSuggestionDistance = 4

// Valid reports whether t is one of the known triggers.
func (t Trigger) Valid() bool {
	switch t {
	case TriggerOnOpen, TriggerOnBackground, TriggerAfterInactivity:
		return true
	default:
		return false
	}
}

// Description is the human-readable label for t.
func (t Trigger) Description() string {
	switch t {
	case TriggerOnOpen:
		return "When app opens"
	case TriggerOnBackground:
		return "When app goes to background"
	case TriggerAfterInactivity:
		return "After inactivity"
	default:
		return string(t)
	}
}

// ParseTrigger accepts a trigger name in its persisted form. Dashes and
// case are normalized. Unknown names yield ErrInvalidTrigger with the
// closest known name as a suggestion.
func ParseTrigger(s string) (Trigger, error) {
	norm := strings.ToLower(strings.TrimSpace(s))
	norm = strings.ReplaceAll(norm, "-", "_")

	t := Trigger(norm)
	if t.Valid() {
		return t, nil
	}

	err := gateerr.WithDetails(gateerr.ErrInvalidTrigger, map[string]string{"value": s})
	if suggestion := suggestTrigger(norm); suggestion != "" {
		return "", gateerr.WithSuggestion(err, fmt.Sprintf("did you mean %q?", suggestion))
	}
	return "", gateerr.WithSuggestion(err, "valid triggers: on_open, on_background, after_inactivity")
}

func suggestTrigger(s string) Trigger {
	if s == "" {
		return ""
	}
	best := Trigger("")
	bestDist := maxSuggestionDistance + 1
	for _, t := range Triggers {
		d := levenshtein.ComputeDistance(s, string(t))
		if d < bestDist {
			best, bestDist = t, d
		}
	}
	return best
}

// TimeoutLabel renders a timeout in minutes the way the settings screen does.
func TimeoutLabel(minutes int) string {
	if minutes == 1 {
		return "1 minute"
	}
	return fmt.Sprintf("%d minutes", minutes)
}

// Settings is the persisted lock policy, one record per installation.
type Settings struct {
	Enabled                  bool    `json:"enabled"`
	CredentialHash           []byte  `json:"credential_hash,omitempty"`
	BiometricEnabled         bool    `json:"biometric_enabled"`
	Trigger                  Trigger `json:"trigger"`
	InactivityTimeoutMinutes int     `json:"inactivity_timeout_minutes"`
}

// DefaultSettings is the policy used when nothing has been configured.
func DefaultSettings() Settings {
	return Settings{
		Enabled:                  false,
		CredentialHash:           nil,
		BiometricEnabled:         false,
		Trigger:                  TriggerOnOpen,
		InactivityTimeoutMinutes: 5,
	}
}

// Clone returns a deep copy so callers cannot alias the credential hash.
func (s Settings) Clone() Settings {
	out := s
	if s.CredentialHash != nil {
		out.CredentialHash = append([]byte(nil), s.CredentialHash...)
	}
	return out
}

// Equal compares two settings field by field.
func (s Settings) Equal(o Settings) bool {
	return s.Enabled == o.Enabled &&
		bytes.Equal(s.CredentialHash, o.CredentialHash) &&
		s.BiometricEnabled == o.BiometricEnabled &&
		s.Trigger == o.Trigger &&
		s.InactivityTimeoutMinutes == o.InactivityTimeoutMinutes
}

// HasCredential reports whether a credential hash is stored.
func (s Settings) HasCredential() bool {
	return len(s.CredentialHash) > 0
}

// Validate checks that the record can drive the engine. Stored records
// failing this are treated as corrupt.
func (s Settings) Validate() error {
	if !s.Trigger.Valid() {
		return gateerr.WithDetails(gateerr.ErrInvalidTrigger, map[string]string{"value": string(s.Trigger)})
	}
	if s.InactivityTimeoutMinutes <= 0 {
		return gateerr.WithDetails(gateerr.ErrInvalidTimeout, map[string]string{
			"value": fmt.Sprint(s.InactivityTimeoutMinutes),
		})
	}
	if s.Enabled && !s.HasCredential() {
		return fmt.Errorf("%w: enabled without a credential", ErrSettingsCorrupt)
	}
	return nil
}
