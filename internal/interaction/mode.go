// Package interaction turns per-frame gesture candidates into debounced
// interaction events and a two-state display mode.
package interaction

import (
	"fmt"
	"time"
)

// Mode is the display configuration driven by confirmed gestures.
type Mode int

const (
	// Formed is the assembled display. It is the initial mode.
	Formed Mode = iota
	// Chaos is the scattered display.
	Chaos
)

func (m Mode) String() string {
	switch m {
	case Formed:
		return "formed"
	case Chaos:
		return "chaos"
	default:
		return fmt.Sprintf("mode(%d)", int(m))
	}
}

// ParseMode parses the text form of a Mode.
func ParseMode(s string) (Mode, error) {
	switch s {
	case "formed":
		return Formed, nil
	case "chaos":
		return Chaos, nil
	default:
		return Formed, fmt.Errorf("unknown mode %q", s)
	}
}

// MarshalText implements encoding.TextMarshaler.
func (m Mode) MarshalText() ([]byte, error) {
	return []byte(m.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (m *Mode) UnmarshalText(text []byte) error {
	parsed, err := ParseMode(string(text))
	if err != nil {
		return err
	}
	*m = parsed
	return nil
}

// Toggle returns the other mode.
func (m Mode) Toggle() Mode {
	if m == Chaos {
		return Formed
	}
	return Chaos
}

// ModeChange records an actual mode transition.
type ModeChange struct {
	From Mode      `json:"from"`
	To   Mode      `json:"to"`
	At   time.Time `json:"at"`
}

// ModeMachine holds the current mode. It has no terminal state.
type ModeMachine struct {
	mode Mode
}

// NewModeMachine creates a machine in the given mode.
func NewModeMachine(initial Mode) *ModeMachine {
	return &ModeMachine{mode: initial}
}

// Mode returns the current mode.
func (m *ModeMachine) Mode() Mode {
	return m.mode
}

// Transition moves to the target mode. It reports a change only when the
// target differs from the current mode; self-transitions are silent.
func (m *ModeMachine) Transition(to Mode, at time.Time) (ModeChange, bool) {
	if to == m.mode {
		return ModeChange{}, false
	}
	change := ModeChange{From: m.mode, To: to, At: at}
	m.mode = to
	return change, true
}
