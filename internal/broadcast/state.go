package broadcast

import (
	"fmt"
	"slices"
)

// State represents broadcast readiness.
type State string

const (
	Idle     State = "IDLE"
	Prepared State = "PREPARED"
	Sending  State = "SENDING"
)

// validTransitions defines allowed state transitions.
var validTransitions = map[State][]State{
	Idle:     {Prepared},
	Prepared: {Sending, Idle},
	Sending:  {Idle, Prepared},
}

// StateChange is the payload for state change events.
type StateChange struct {
	From State `json:"from"`
	To   State `json:"to"`
}

func checkTransition(from, to State) error {
	if !slices.Contains(validTransitions[from], to) {
		return fmt.Errorf("invalid transition from %s to %s", from, to)
	}
	return nil
}
