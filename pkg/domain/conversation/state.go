package conversation

import (
	"encoding/json"
	"fmt"
)

// State tracks a session's progress through the planning dialogue.
type State string

const (
	StateInitial       State = "initial"
	StateQuestioning   State = "questioning"
	StateReady         State = "ready"
	StatePlanGenerated State = "plan_generated"
)

// validTransitions defines the allowed state transitions and their events.
// The machine is strictly forward; no event returns a session to an
// earlier state.
var validTransitions = map[State]map[string]State{
	StateInitial: {
		"begin": StateQuestioning,
	},
	StateQuestioning: {
		"ready": StateReady,
	},
	StateReady: {
		"generate": StatePlanGenerated,
	},
	StatePlanGenerated: {},
}

// AllStates returns every valid conversation state in dialogue order.
func AllStates() []State {
	return []State{
		StateInitial,
		StateQuestioning,
		StateReady,
		StatePlanGenerated,
	}
}

// IsValid returns true if the state is one of the defined states.
func (s State) IsValid() bool {
	switch s {
	case StateInitial, StateQuestioning, StateReady, StatePlanGenerated:
		return true
	default:
		return false
	}
}

// String returns the string representation of the state.
func (s State) String() string {
	return string(s)
}

// CanTransitionWith returns true if the given event can trigger a
// transition from this state.
func (s State) CanTransitionWith(event string) bool {
	transitions, ok := validTransitions[s]
	if !ok {
		return false
	}

	_, ok = transitions[event]
	return ok
}

// TransitionWith returns the target state for a given event, or an error if
// the event is not allowed from this state.
func (s State) TransitionWith(event string) (State, error) {
	transitions, ok := validTransitions[s]
	if !ok {
		return s, fmt.Errorf("no transitions defined for state: %s", s)
	}

	target, ok := transitions[event]
	if !ok {
		return s, fmt.Errorf("event '%s' not allowed from state '%s'", event, s)
	}

	return target, nil
}

// ValidEvents returns all events that can be triggered from this state.
func (s State) ValidEvents() []string {
	transitions, ok := validTransitions[s]
	if !ok {
		return nil
	}

	var events []string
	for event := range transitions {
		events = append(events, event)
	}
	return events
}

// IsFinal returns true if this is the terminal state.
func (s State) IsFinal() bool {
	return s == StatePlanGenerated
}

// IsReady returns true if the session has enough context for plan generation.
func (s State) IsReady() bool {
	return s == StateReady || s == StatePlanGenerated
}

// DisplayName returns a human-readable display name for the state.
func (s State) DisplayName() string {
	switch s {
	case StateInitial:
		return "Initial"
	case StateQuestioning:
		return "Questioning"
	case StateReady:
		return "Ready"
	case StatePlanGenerated:
		return "Plan Generated"
	default:
		return string(s)
	}
}

// ParseState parses a string into a State.
func ParseState(s string) (State, error) {
	state := State(s)
	if !state.IsValid() {
		return "", fmt.Errorf("invalid conversation state: %s", s)
	}
	return state, nil
}

// MarshalJSON implements json.Marshaler.
func (s State) MarshalJSON() ([]byte, error) {
	return json.Marshal(string(s))
}

// UnmarshalJSON implements json.Unmarshaler.
func (s *State) UnmarshalJSON(data []byte) error {
	var str string
	if err := json.Unmarshal(data, &str); err != nil {
		return err
	}

	// Accept empty string as initial for backward compatibility
	if str == "" {
		*s = StateInitial
		return nil
	}

	state := State(str)
	if !state.IsValid() {
		return fmt.Errorf("invalid conversation state: %s", str)
	}

	*s = state
	return nil
}
