package layout

import (
	"errors"
	"fmt"
)

// State is the pagination state of a layout run
type State int

const (
	StatePageClosed State = iota
	StatePageOpen
	StateEmittingRow
	StatePageBreakNeeded
)

func (s State) String() string {
	switch s {
	case StatePageClosed:
		return "PageClosed"
	case StatePageOpen:
		return "PageOpen"
	case StateEmittingRow:
		return "EmittingRow"
	case StatePageBreakNeeded:
		return "PageBreakNeeded"
	default:
		return fmt.Sprintf("State(%d)", int(s))
	}
}

// ErrInvalidTransition is returned when the engine attempts an illegal state change
var ErrInvalidTransition = errors.New("invalid layout state transition")

var transitions = map[State][]State{
	StatePageClosed:      {StatePageOpen},
	StatePageOpen:        {StateEmittingRow, StatePageBreakNeeded, StatePageClosed},
	StateEmittingRow:     {StateEmittingRow, StatePageBreakNeeded, StatePageClosed},
	StatePageBreakNeeded: {StatePageClosed},
}

// CanTransition reports whether from -> to is allowed
func CanTransition(from, to State) bool {
	for _, s := range transitions[from] {
		if s == to {
			return true
		}
	}
	return false
}

type machine struct {
	state State
}

func (m *machine) to(next State) error {
	if !CanTransition(m.state, next) {
		return fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, m.state, next)
	}
	m.state = next
	return nil
}
