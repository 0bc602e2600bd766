package store

// State is the pipeline state of a job record.
type State string

// Pipeline states. The happy path is scraped → approved → ready → submitted;
// skipped and rejected are side exits reachable from any non-terminal state.
const (
	StateScraped   State = "scraped"
	StateApproved  State = "approved"
	StateReady     State = "ready"
	StateSubmitted State = "submitted"
	StateSkipped   State = "skipped"
	StateRejected  State = "rejected"
)

// transitions is the single source of truth for legal state changes.
// A state not present as a key is terminal.
var transitions = map[State][]State{
	StateScraped:  {StateApproved, StateSkipped, StateRejected},
	StateApproved: {StateReady, StateSubmitted, StateSkipped, StateRejected},
	StateReady:    {StateSubmitted, StateSkipped, StateRejected},
}

// Terminal reports whether no further transitions are permitted from s.
func (s State) Terminal() bool {
	_, ok := transitions[s]
	return !ok
}

// Valid reports whether s is a known pipeline state.
func (s State) Valid() bool {
	switch s {
	case StateScraped, StateApproved, StateReady, StateSubmitted, StateSkipped, StateRejected:
		return true
	}
	return false
}

// CanTransition reports whether a record may move from one state to another.
// Staying in the same state is always allowed: failed attempts update
// attempt_count and last_error without changing state.
func CanTransition(from, to State) bool {
	if from == to {
		return true
	}
	for _, next := range transitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

// States lists all states in pipeline order, for stats display.
func States() []State {
	return []State{StateScraped, StateApproved, StateReady, StateSubmitted, StateSkipped, StateRejected}
}
