package game

import "fmt"

type State string

const (
	StateIdle        State = "Idle"
	StateCollecting  State = "Collecting"
	StateFreestyling State = "Freestyling"
	StateJudging     State = "Judging"
	StateFinished    State = "Finished"
	StateTerminated  State = "Terminated"
)

// validTransitions is the closed transition table. Termination is legal from
// every state and handled separately; Terminated itself is absorbing.
var validTransitions = map[State][]State{
	StateIdle:        {StateCollecting},
	StateCollecting:  {StateFreestyling, StateJudging},
	StateFreestyling: {StateCollecting, StateJudging},
	StateJudging:     {StateCollecting, StateFinished},
	StateFinished:    {StateIdle},
}

func canTransition(from, to State) bool {
	if to == StateTerminated {
		return from != StateTerminated
	}
	for _, s := range validTransitions[from] {
		if s == to {
			return true
		}
	}
	return false
}

// errInvalidTransition marks a programming defect, never a player mistake.
// It is logged and aborts the offending operation without reaching a sink.
type errInvalidTransition struct {
	from, to State
}

func (e errInvalidTransition) Error() string {
	return fmt.Sprintf("invalid state transition %s -> %s", e.from, e.to)
}
