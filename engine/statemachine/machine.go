package statemachine

import (
	"errors"
	"fmt"

	"github.com/Carmen-Shannon/rig-go/common"
	"github.com/google/uuid"
)

// Errors surfaced by graph edits. Structural failures abort the operation
// and leave the machine unchanged.
var (
	// ErrStateNotFound is returned when a name or id resolves to no live state.
	ErrStateNotFound = errors.New("state not found")

	// ErrStateNotConnected is returned when two states share no connection.
	ErrStateNotConnected = errors.New("states not connected")

	// ErrTransitionAlreadyBound is returned when binding a transition to a
	// connection that already carries one.
	ErrTransitionAlreadyBound = errors.New("connection already has a transition")

	// ErrNotAnimationState is returned when a connection endpoint is not an
	// animation state.
	ErrNotAnimationState = errors.New("connection endpoints must be animation states")
)

// StateMachine is a persistent graph of animation states, transitions, and
// connections. Slots are slab-allocated: erasing pushes the index onto a free
// list and nils the slot, so indices held elsewhere stay valid handles and
// the next add reuses the slot.
//
// The machine is shared read-only by controllers in steady state; all
// mutation belongs to the orchestrator before workers start.
type StateMachine struct {
	states      []*AnimationState
	transitions []*TransitionState
	connections []Connection

	erasedStates      []int
	erasedTransitions []int
	erasedConnections []int

	name  string
	id    uuid.UUID
	clock common.Clock
}

// New creates an empty state machine.
//
// Parameters:
//   - name: the machine's registry name
//
// Returns:
//   - *StateMachine: the new machine
func New(name string) *StateMachine {
	return &StateMachine{name: name, id: uuid.New()}
}

// Name returns the machine's registry name.
//
// Returns:
//   - string: the machine name
func (sm *StateMachine) Name() string { return sm.name }

// SetName sets the machine's registry name.
//
// Parameters:
//   - name: the new name
func (sm *StateMachine) SetName(name string) { sm.name = name }

// Uuid returns the machine's stable identity.
//
// Returns:
//   - uuid.UUID: the machine id
func (sm *StateMachine) Uuid() uuid.UUID { return sm.id }

// SetClock sets the time source injected into transition timers added to
// this machine. Used by deterministic simulations and tests.
//
// Parameters:
//   - clock: the time source, or nil for the wall clock
func (sm *StateMachine) SetClock(clock common.Clock) {
	sm.clock = clock
	for _, t := range sm.transitions {
		if t != nil {
			t.SetClock(clock)
		}
	}
}

// AddState registers an animation state, reusing an erased slot when one is
// free.
//
// Parameters:
//   - state: the state to register
//
// Returns:
//   - StateId: the state's tagged slot handle
func (sm *StateMachine) AddState(state *AnimationState) StateId {
	var idx int
	if n := len(sm.erasedStates); n > 0 {
		idx = sm.erasedStates[n-1]
		sm.erasedStates = sm.erasedStates[:n-1]
		sm.states[idx] = state
	} else {
		idx = len(sm.states)
		sm.states = append(sm.states, state)
	}
	state.setMachineIndex(idx)
	return state.Id()
}

// AddTransition registers a transition and binds it to a connection. The
// connection must not already carry a transition.
//
// Parameters:
//   - transition: the transition to register
//   - connectionIndex: the connection the transition rides
//
// Returns:
//   - StateId: the transition's tagged slot handle
//   - error: ErrTransitionAlreadyBound if the connection is taken
func (sm *StateMachine) AddTransition(transition *TransitionState, connectionIndex int) (StateId, error) {
	conn := sm.Connection(connectionIndex)
	if conn == nil {
		return NoState, fmt.Errorf("connection %d: %w", connectionIndex, ErrStateNotConnected)
	}
	if conn.HasTransition() {
		return NoState, fmt.Errorf("connection %d (%s -> %s): %w",
			connectionIndex, conn.StartState(sm).Name(), conn.EndState(sm).Name(), ErrTransitionAlreadyBound)
	}

	var idx int
	if n := len(sm.erasedTransitions); n > 0 {
		idx = sm.erasedTransitions[n-1]
		sm.erasedTransitions = sm.erasedTransitions[:n-1]
		sm.transitions[idx] = transition
	} else {
		idx = len(sm.transitions)
		sm.transitions = append(sm.transitions, transition)
	}
	transition.setMachineIndex(idx)
	transition.connection = connectionIndex
	if sm.clock != nil {
		transition.SetClock(sm.clock)
	}
	conn.Transition = idx
	return transition.Id(), nil
}

// AddConnection creates a directed edge between two animation states and
// caches its index on both endpoints.
//
// Parameters:
//   - start: the start state's handle
//   - end: the end state's handle
//
// Returns:
//   - int: the connection's slot index
//   - error: ErrNotAnimationState or ErrStateNotFound on bad endpoints
func (sm *StateMachine) AddConnection(start, end StateId) (int, error) {
	if start.Kind != StateTypeAnimation || end.Kind != StateTypeAnimation {
		return -1, ErrNotAnimationState
	}
	startState := sm.AnimationStateAt(start.Index)
	endState := sm.AnimationStateAt(end.Index)
	if startState == nil || endState == nil {
		return -1, ErrStateNotFound
	}

	var idx int
	if n := len(sm.erasedConnections); n > 0 {
		idx = sm.erasedConnections[n-1]
		sm.erasedConnections = sm.erasedConnections[:n-1]
		sm.connections[idx] = Connection{Start: start.Index, End: end.Index, Transition: -1, MachineIndex: idx}
	} else {
		idx = len(sm.connections)
		sm.connections = append(sm.connections, Connection{Start: start.Index, End: end.Index, Transition: -1, MachineIndex: idx})
	}

	startState.addConnection(idx)
	endState.addConnection(idx)
	return idx, nil
}

// RemoveConnection erases a connection, removes its index from both
// endpoints' caches, and removes any transition riding it.
//
// Parameters:
//   - index: the connection's slot index
//
// Returns:
//   - error: ErrStateNotConnected if the slot is already erased
func (sm *StateMachine) RemoveConnection(index int) error {
	conn := sm.Connection(index)
	if conn == nil {
		return fmt.Errorf("connection %d: %w", index, ErrStateNotConnected)
	}

	if s := conn.StartState(sm); s != nil {
		s.removeConnection(index)
	}
	if e := conn.EndState(sm); e != nil {
		e.removeConnection(index)
	}

	if conn.HasTransition() {
		sm.RemoveTransition(index)
	}

	conn.MachineIndex = -1
	sm.erasedConnections = append(sm.erasedConnections, index)
	return nil
}

// RemoveTransition unbinds and erases the transition riding a connection.
//
// Parameters:
//   - connectionIndex: the connection whose transition is removed
func (sm *StateMachine) RemoveTransition(connectionIndex int) {
	if connectionIndex < 0 || connectionIndex >= len(sm.connections) {
		return
	}
	conn := &sm.connections[connectionIndex]
	tIdx := conn.Transition
	if tIdx < 0 {
		return
	}
	conn.Transition = -1

	if t := sm.transitions[tIdx]; t != nil {
		t.setMachineIndex(-1)
		t.connection = -1
	}
	sm.transitions[tIdx] = nil
	sm.erasedTransitions = append(sm.erasedTransitions, tIdx)
}

// RemoveState erases a state. For an animation state every touching
// connection (and its transition) is removed first; for a transition only
// its binding is undone. Erasure cost is proportional to the connections
// touched.
//
// Parameters:
//   - id: the state's tagged handle
//
// Returns:
//   - error: ErrStateNotFound if the slot is already erased
func (sm *StateMachine) RemoveState(id StateId) error {
	switch id.Kind {
	case StateTypeAnimation:
		state := sm.AnimationStateAt(id.Index)
		if state == nil {
			return ErrStateNotFound
		}
		// Copy: RemoveConnection mutates the state's cached list
		touched := append([]int(nil), state.connections...)
		for _, connIdx := range touched {
			if err := sm.RemoveConnection(connIdx); err != nil {
				return err
			}
		}
		state.setMachineIndex(-1)
		sm.states[id.Index] = nil
		sm.erasedStates = append(sm.erasedStates, id.Index)
		return nil
	case StateTypeTransition:
		t := sm.Transition(id.Index)
		if t == nil {
			return ErrStateNotFound
		}
		sm.RemoveTransition(t.connection)
		return nil
	default:
		return ErrStateNotFound
	}
}

// State resolves a tagged handle to a live state.
//
// Parameters:
//   - id: the state's tagged handle
//
// Returns:
//   - State: the state, or nil for erased slots and NoState
func (sm *StateMachine) State(id StateId) State {
	switch id.Kind {
	case StateTypeAnimation:
		if s := sm.AnimationStateAt(id.Index); s != nil {
			return s
		}
	case StateTypeTransition:
		if t := sm.Transition(id.Index); t != nil {
			return t
		}
	}
	return nil
}

// AnimationStateAt returns the animation state in the given slot, or nil.
//
// Parameters:
//   - idx: the slot index
//
// Returns:
//   - *AnimationState: the state, or nil for erased or out-of-range slots
func (sm *StateMachine) AnimationStateAt(idx int) *AnimationState {
	if idx < 0 || idx >= len(sm.states) {
		return nil
	}
	return sm.states[idx]
}

// Transition returns the transition in the given slot, or nil.
//
// Parameters:
//   - idx: the slot index
//
// Returns:
//   - *TransitionState: the transition, or nil for erased or out-of-range slots
func (sm *StateMachine) Transition(idx int) *TransitionState {
	if idx < 0 || idx >= len(sm.transitions) {
		return nil
	}
	return sm.transitions[idx]
}

// Connection returns the live connection in the given slot, or nil.
//
// Parameters:
//   - idx: the slot index
//
// Returns:
//   - *Connection: the connection, or nil for erased or out-of-range slots
func (sm *StateMachine) Connection(idx int) *Connection {
	if idx < 0 || idx >= len(sm.connections) {
		return nil
	}
	c := &sm.connections[idx]
	if c.MachineIndex < 0 {
		return nil
	}
	return c
}

// StateByName finds a live state by name, searching animation states first
// and transitions second. Counts are small; a linear scan is fine.
//
// Parameters:
//   - name: the state name
//
// Returns:
//   - State: the state, or nil on miss
func (sm *StateMachine) StateByName(name string) State {
	for _, s := range sm.states {
		if s != nil && s.Name() == name {
			return s
		}
	}
	for _, t := range sm.transitions {
		if t != nil && t.Name() == name {
			return t
		}
	}
	return nil
}

// StateByUuid finds a live state by its stable identity.
//
// Parameters:
//   - id: the state uuid
//
// Returns:
//   - State: the state, or nil on miss
func (sm *StateMachine) StateByUuid(id uuid.UUID) State {
	for _, s := range sm.states {
		if s != nil && s.Uuid() == id {
			return s
		}
	}
	for _, t := range sm.transitions {
		if t != nil && t.Uuid() == id {
			return t
		}
	}
	return nil
}

// ConnectsTo scans from's cached connections for an edge from -> to.
//
// Parameters:
//   - from: the candidate start state
//   - to: the candidate end state
//
// Returns:
//   - int: the connection index when found
//   - bool: true if the edge exists
func (sm *StateMachine) ConnectsTo(from, to State) (int, bool) {
	for _, connIdx := range from.Connections() {
		conn := sm.Connection(connIdx)
		if conn == nil {
			continue
		}
		if conn.Start != from.MachineIndex() {
			continue
		}
		if next := conn.EndState(sm); next != nil && next.Uuid() == to.Uuid() {
			return connIdx, true
		}
	}
	return -1, false
}

// ConnectsFrom scans to's cached connections for an edge from -> to.
//
// Parameters:
//   - to: the candidate end state
//   - from: the candidate start state
//
// Returns:
//   - int: the connection index when found
//   - bool: true if the edge exists
func (sm *StateMachine) ConnectsFrom(to, from State) (int, bool) {
	for _, connIdx := range to.Connections() {
		conn := sm.Connection(connIdx)
		if conn == nil {
			continue
		}
		if conn.End != to.MachineIndex() {
			continue
		}
		if prev := conn.StartState(sm); prev != nil && prev.Uuid() == from.Uuid() {
			return connIdx, true
		}
	}
	return -1, false
}

// NumLiveStates counts the occupied animation-state slots.
//
// Returns:
//   - int: the live state count
func (sm *StateMachine) NumLiveStates() int {
	n := 0
	for _, s := range sm.states {
		if s != nil {
			n++
		}
	}
	return n
}

// NumLiveTransitions counts the occupied transition slots.
//
// Returns:
//   - int: the live transition count
func (sm *StateMachine) NumLiveTransitions() int {
	n := 0
	for _, t := range sm.transitions {
		if t != nil {
			n++
		}
	}
	return n
}

// NumLiveConnections counts the non-erased connection slots.
//
// Returns:
//   - int: the live connection count
func (sm *StateMachine) NumLiveConnections() int {
	n := 0
	for i := range sm.connections {
		if sm.connections[i].MachineIndex >= 0 {
			n++
		}
	}
	return n
}

// LiveStates returns the occupied animation-state slots in index order.
//
// Returns:
//   - []*AnimationState: the live states
func (sm *StateMachine) LiveStates() []*AnimationState {
	out := make([]*AnimationState, 0, len(sm.states))
	for _, s := range sm.states {
		if s != nil {
			out = append(out, s)
		}
	}
	return out
}

// LiveTransitions returns the occupied transition slots in index order.
//
// Returns:
//   - []*TransitionState: the live transitions
func (sm *StateMachine) LiveTransitions() []*TransitionState {
	out := make([]*TransitionState, 0, len(sm.transitions))
	for _, t := range sm.transitions {
		if t != nil {
			out = append(out, t)
		}
	}
	return out
}
