package conversation

import (
	"fmt"

	"github.com/felixgeelhaar/statekit"
)

// State constants for statekit integration.
// These must remain as untyped string constants for statekit.StateID
// compatibility. Values are kept in sync with the State constants in state.go.
const (
	fsmInitial       = "initial"
	fsmQuestioning   = "questioning"
	fsmReady         = "ready"
	fsmPlanGenerated = "plan_generated"
)

// init validates at startup that FSM state constants match State values.
func init() {
	stateMap := map[string]State{
		fsmInitial:       StateInitial,
		fsmQuestioning:   StateQuestioning,
		fsmReady:         StateReady,
		fsmPlanGenerated: StatePlanGenerated,
	}

	for fsmState, state := range stateMap {
		if fsmState != string(state) {
			panic(fmt.Sprintf("FSM state %q does not match State %q - constants are out of sync", fsmState, state))
		}
	}
}

// sessionContext carries state data for the machine.
type sessionContext struct {
	SessionID string
}

// StateMachine enforces the forward-only dialogue lifecycle.
type StateMachine struct {
	interpreter *statekit.Interpreter[sessionContext]
}

// NewStateMachine builds a machine starting in the given state.
func NewStateMachine(initialState State, sessionID string) (*StateMachine, error) {
	if !initialState.IsValid() {
		return nil, fmt.Errorf("invalid initial state: %s", initialState)
	}

	builder := statekit.NewMachine[sessionContext]("session-machine").
		WithInitial(statekit.StateID(initialState)).
		WithContext(sessionContext{SessionID: sessionID})

	builder.State(fsmInitial).
		On("begin").Target(fsmQuestioning).
		Done()

	builder.State(fsmQuestioning).
		On("ready").Target(fsmReady).
		Done()

	builder.State(fsmReady).
		On("generate").Target(fsmPlanGenerated).
		Done()

	// Terminal: no outgoing transitions.
	builder.State(fsmPlanGenerated).
		Done()

	machine, err := builder.Build()
	if err != nil {
		return nil, fmt.Errorf("failed to build state machine: %w", err)
	}

	interpreter := statekit.NewInterpreter(machine)
	interpreter.Start()

	return &StateMachine{interpreter: interpreter}, nil
}

// Transition attempts to advance the session with the given event.
func (sm *StateMachine) Transition(event string) error {
	before := sm.Current()
	sm.interpreter.Send(statekit.Event{Type: statekit.EventType(event)})
	after := sm.Current()

	if before != after {
		return nil
	}

	// In statekit, if no transition matches the state stays the same.
	return fmt.Errorf("the event '%s' is not allowed while the session is in the '%s' state", event, before)
}

// Current returns the current state as a State value object.
func (sm *StateMachine) Current() State {
	return State(sm.interpreter.State().Value)
}

// CanTransition checks if the given event is valid for the current state.
// This delegates to the State value object for consistency.
func (sm *StateMachine) CanTransition(event string) bool {
	return sm.Current().CanTransitionWith(event)
}

// IsFinal returns true if the session has reached its terminal state.
func (sm *StateMachine) IsFinal() bool {
	return sm.Current().IsFinal()
}
