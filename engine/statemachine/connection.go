package statemachine

// Connection is a directed edge between two animation states, optionally
// carrying a transition. Fields are slab indices; -1 marks absence.
type Connection struct {
	// Start is the slab index of the connection's start state.
	Start int

	// End is the slab index of the connection's end state.
	End int

	// Transition is the slab index of the transition riding this connection,
	// or -1 when the connection switches states directly.
	Transition int

	// MachineIndex is the connection's own slot index, or -1 once erased.
	// Stale handles held by callers remain detectable through it.
	MachineIndex int
}

// HasTransition reports whether a transition rides this connection.
//
// Returns:
//   - bool: true if a transition is bound
func (c *Connection) HasTransition() bool {
	return c.Transition > -1
}

// StartState returns the connection's start state.
//
// Parameters:
//   - sm: the owning state machine
//
// Returns:
//   - *AnimationState: the start state
func (c *Connection) StartState(sm *StateMachine) *AnimationState {
	return sm.AnimationStateAt(c.Start)
}

// EndState returns the connection's end state.
//
// Parameters:
//   - sm: the owning state machine
//
// Returns:
//   - *AnimationState: the end state
func (c *Connection) EndState(sm *StateMachine) *AnimationState {
	return sm.AnimationStateAt(c.End)
}

// TransitionState returns the transition riding this connection, or nil.
//
// Parameters:
//   - sm: the owning state machine
//
// Returns:
//   - *TransitionState: the bound transition, or nil
func (c *Connection) TransitionState(sm *StateMachine) *TransitionState {
	if !c.HasTransition() {
		return nil
	}
	return sm.Transition(c.Transition)
}
