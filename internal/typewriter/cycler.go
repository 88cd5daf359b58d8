package typewriter

import (
	"context"
	"time"
)

// DefaultCursor is appended to the displayed text of every frame.
const DefaultCursor = "|"

// Frame is what a Cycler emits after each transition.
type Frame struct {
	Seq       int64  `json:"seq"`
	Text      string `json:"text"`
	Displayed string `json:"displayed"`
	Role      string `json:"role"`
	RoleIndex int    `json:"role_index"`
	Mode      Mode   `json:"mode"`
}

// Options configures a Cycler.
type Options struct {
	Timing Timing
	Cursor string
}

// Cycler runs a Machine on a single timer. Each Cycler belongs to exactly one
// consumer; create one per stream and let its context end with the stream.
type Cycler struct {
	machine *Machine
	cursor  string
	seq     int64
	ticks   int64
}

// New builds a Cycler. A zero Options uses DefaultTiming and DefaultCursor.
func New(roles []string, opts Options) (*Cycler, error) {
	timing := opts.Timing
	if timing == (Timing{}) {
		timing = DefaultTiming
	}
	m, err := NewMachine(roles, timing)
	if err != nil {
		return nil, err
	}
	cursor := opts.Cursor
	if cursor == "" {
		cursor = DefaultCursor
	}
	return &Cycler{machine: m, cursor: cursor}, nil
}

// Frame returns the frame for the current state without advancing it.
func (c *Cycler) Frame() Frame {
	s := c.machine.State()
	return Frame{
		Seq:       c.seq,
		Text:      s.Displayed + c.cursor,
		Displayed: s.Displayed,
		Role:      c.machine.Role(),
		RoleIndex: s.RoleIndex,
		Mode:      s.Mode,
	}
}

// Ticks reports how many transitions have been applied. It must not be
// called while Run is in progress.
func (c *Cycler) Ticks() int64 {
	return c.ticks
}

// Run emits the initial frame, then waits the delay chosen by the current
// state, ticks, and emits again, until ctx is done or emit fails.
//
// Run returns ctx.Err() on cancellation and emit's error otherwise. Once ctx
// is done no further tick is applied and emit is not called again, even if
// the pending timer has already fired.
func (c *Cycler) Run(ctx context.Context, emit func(Frame) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := emit(c.Frame()); err != nil {
		return err
	}

	timer := time.NewTimer(c.machine.Delay())
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-timer.C:
		}
		// Both cases can be ready at once; a cancelled stream must not tick.
		if err := ctx.Err(); err != nil {
			return err
		}

		c.machine.Tick()
		c.ticks++
		c.seq++
		if err := emit(c.Frame()); err != nil {
			return err
		}
		timer.Reset(c.machine.Delay())
	}
}
