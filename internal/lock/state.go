package lock

import "fmt"

// State is the gate status observed by the presentation layer.
type State int

const (
	// Unlocked means content may be shown.
	Unlocked State = iota
	// Locked means content must stay hidden until Unlock.
	Locked
)

// String returns a string representation of the State.
func (s State) String() string {
	switch s {
	case Unlocked:
		return "unlocked"
	case Locked:
		return "locked"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

// MarshalText renders the state by name in JSON output.
func (s State) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// Phase is the host application's lifecycle phase.
type Phase int

const (
	// PhaseActive means the application is in the foreground and interactive.
	PhaseActive Phase = iota
	// PhaseInactive means the application is visible but not receiving input.
	PhaseInactive
	// PhaseBackground means the application is not visible.
	PhaseBackground
)

// String returns a string representation of the Phase.
func (p Phase) String() string {
	switch p {
	case PhaseActive:
		return "active"
	case PhaseInactive:
		return "inactive"
	case PhaseBackground:
		return "background"
	default:
		return fmt.Sprintf("phase(%d)", int(p))
	}
}
