// Package typewriter drives the hero's "typing" effect: it types out a role,
// holds it, deletes it, then moves on to the next role, forever.
//
// Machine is the pure state machine. Cycler owns one Machine and a single
// timer, and emits a Frame after every transition until its context ends.
package typewriter

import (
	"errors"
	"fmt"
	"time"
)

// ErrInvalidConfiguration is returned when a cycler cannot be built from the
// roles or timings it was given.
var ErrInvalidConfiguration = errors.New("typewriter: invalid configuration")

// Mode reports whether the displayed text is being extended or truncated.
type Mode int

const (
	Growing Mode = iota
	Shrinking
)

func (m Mode) String() string {
	switch m {
	case Growing:
		return "growing"
	case Shrinking:
		return "shrinking"
	default:
		return fmt.Sprintf("Mode(%d)", int(m))
	}
}

// MarshalText lets Mode appear as a word in JSON frames.
func (m Mode) MarshalText() ([]byte, error) {
	return []byte(m.String()), nil
}

// UnmarshalText accepts the words written by MarshalText.
func (m *Mode) UnmarshalText(b []byte) error {
	switch string(b) {
	case "growing":
		*m = Growing
	case "shrinking":
		*m = Shrinking
	default:
		return fmt.Errorf("typewriter: unknown mode %q", b)
	}
	return nil
}

// Timing holds the wait before each kind of transition.
type Timing struct {
	Type   time.Duration // before appending a character
	Hold   time.Duration // before a fully typed role starts shrinking
	Delete time.Duration // before removing a character
	Pause  time.Duration // before moving to the next role
}

// DefaultTiming is the cadence used by the hero section.
var DefaultTiming = Timing{
	Type:   100 * time.Millisecond,
	Hold:   1200 * time.Millisecond,
	Delete: 50 * time.Millisecond,
	Pause:  300 * time.Millisecond,
}

// Validate reports an error wrapping ErrInvalidConfiguration if any delay
// is not positive.
func (t Timing) Validate() error {
	for _, d := range []struct {
		name string
		v    time.Duration
	}{{"type", t.Type}, {"hold", t.Hold}, {"delete", t.Delete}, {"pause", t.Pause}} {
		if d.v <= 0 {
			return fmt.Errorf("%w: %s delay must be positive, got %s", ErrInvalidConfiguration, d.name, d.v)
		}
	}
	return nil
}

// State is a snapshot of a Machine.
type State struct {
	RoleIndex int
	Displayed string
	Mode      Mode
}

// Machine is the typewriter state machine. It is not safe for concurrent
// use; Cycler serialises access to it.
type Machine struct {
	roles  [][]rune
	timing Timing

	index int
	// shown is the number of runes of roles[index] currently displayed.
	shown int
	mode  Mode
}

// NewMachine returns a Machine positioned at the first role with nothing
// displayed. It fails with ErrInvalidConfiguration if roles is empty,
// contains an empty role, or timing has a non-positive delay.
func NewMachine(roles []string, timing Timing) (*Machine, error) {
	if len(roles) == 0 {
		return nil, fmt.Errorf("%w: role list is empty", ErrInvalidConfiguration)
	}
	if err := timing.Validate(); err != nil {
		return nil, err
	}
	rs := make([][]rune, len(roles))
	for i, r := range roles {
		if r == "" {
			return nil, fmt.Errorf("%w: role %d is empty", ErrInvalidConfiguration, i)
		}
		rs[i] = []rune(r)
	}
	return &Machine{roles: rs, timing: timing, mode: Growing}, nil
}

// Roles returns a copy of the role list.
func (m *Machine) Roles() []string {
	out := make([]string, len(m.roles))
	for i, r := range m.roles {
		out[i] = string(r)
	}
	return out
}

// State returns the current state.
func (m *Machine) State() State {
	return State{
		RoleIndex: m.index,
		Displayed: string(m.roles[m.index][:m.shown]),
		Mode:      m.mode,
	}
}

// Role returns the role currently being typed or deleted.
func (m *Machine) Role() string {
	return string(m.roles[m.index])
}

// Delay returns how long to wait before the next Tick.
func (m *Machine) Delay() time.Duration {
	current := len(m.roles[m.index])
	switch {
	case m.mode == Growing && m.shown < current:
		return m.timing.Type
	case m.mode == Growing:
		return m.timing.Hold
	case m.shown > 0:
		return m.timing.Delete
	default:
		return m.timing.Pause
	}
}

// Tick applies exactly one transition.
func (m *Machine) Tick() {
	current := len(m.roles[m.index])
	switch {
	case m.mode == Growing && m.shown < current:
		m.shown++
	case m.mode == Growing:
		m.mode = Shrinking
	case m.shown > 0:
		m.shown--
	default:
		m.mode = Growing
		m.index = (m.index + 1) % len(m.roles)
	}
}

// CycleLength is the number of ticks needed to type and delete every role
// once and return to the initial state.
func (m *Machine) CycleLength() int {
	n := 0
	for _, r := range m.roles {
		n += 2*len(r) + 2
	}
	return n
}
