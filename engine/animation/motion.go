package animation

import (
	"fmt"
	"sync/atomic"

	"github.com/Carmen-Shannon/rig-go/common"
	"github.com/Carmen-Shannon/rig-go/engine/statemachine"
	"github.com/google/uuid"
)

// StatusFlags carry a motion's runtime status bits.
type StatusFlags uint32

const (
	// StatusPlaying is set while the motion's timer is running.
	StatusPlaying StatusFlags = 1 << iota
)

// BehaviorFlags carry a motion's configured behavior bits. They are
// persisted with the motion.
type BehaviorFlags uint32

const (
	// BehaviorAutoPlay makes the motion follow its state's first outgoing
	// connection whenever the state finishes.
	BehaviorAutoPlay BehaviorFlags = 1 << iota

	// BehaviorDestroyOnDone removes the motion from its controller once its
	// state finishes.
	BehaviorDestroyOnDone
)

var motionCounter atomic.Uint64

// Motion is a cursor into the state machine for one entity. It owns its own
// elapsed-time clock and is mutated only through its controller's action
// queue.
type Motion struct {
	name       string
	id         uuid.UUID
	controller *Controller
	stateID    statemachine.StateId
	timer      common.Timer
	status     StatusFlags
	behavior   BehaviorFlags
}

func newMotion(c *Controller) *Motion {
	m := &Motion{
		name:       fmt.Sprintf("motion%d", motionCounter.Add(1)-1),
		id:         uuid.New(),
		controller: c,
		stateID:    statemachine.NoState,
		timer:      common.NewTimerWithClock(c.clock),
		status:     StatusPlaying,
	}
	return m
}

// Name returns the motion's name.
//
// Returns:
//   - string: the motion name
func (m *Motion) Name() string { return m.name }

// SetName sets the motion's name.
//
// Parameters:
//   - name: the new name
func (m *Motion) SetName(name string) { m.name = name }

// Uuid returns the motion's stable identity.
//
// Returns:
//   - uuid.UUID: the motion id
func (m *Motion) Uuid() uuid.UUID { return m.id }

// StateId returns the tagged handle of the motion's current state.
//
// Returns:
//   - statemachine.StateId: the current state handle, NoState before the first move
func (m *Motion) StateId() statemachine.StateId { return m.stateID }

// CurrentState resolves the motion's current state against the machine.
//
// Returns:
//   - statemachine.State: the current state, or nil before the first move
func (m *Motion) CurrentState() statemachine.State {
	return m.controller.machine.State(m.stateID)
}

// Behavior returns the motion's behavior flags.
//
// Returns:
//   - BehaviorFlags: the configured behavior
func (m *Motion) Behavior() BehaviorFlags { return m.behavior }

// SetBehavior replaces the motion's behavior flags.
//
// Parameters:
//   - flags: the new behavior flags
func (m *Motion) SetBehavior(flags BehaviorFlags) { m.behavior = flags }

// AutoPlaying reports whether the motion auto-advances when its state is done.
//
// Returns:
//   - bool: true if BehaviorAutoPlay is set
func (m *Motion) AutoPlaying() bool { return m.behavior&BehaviorAutoPlay != 0 }

// Playing reports whether the motion's clock is running.
//
// Returns:
//   - bool: true if playing
func (m *Motion) Playing() bool { return m.status&StatusPlaying != 0 }

// ElapsedTime returns seconds on the motion's clock. The clock restarts on
// every state change, except that leaving a transition hands the motion the
// transition's clock, so the time spent in the transition is included.
//
// Returns:
//   - float64: the elapsed seconds
func (m *Motion) ElapsedTime() float64 { return m.timer.Elapsed() }

// Timer returns a snapshot of the motion's clock.
//
// Returns:
//   - common.Timer: the snapshot
func (m *Motion) Timer() common.Timer { return m.timer }

// Pause stops the motion's clock and clears the playing flag.
func (m *Motion) Pause() {
	m.status &^= StatusPlaying
	m.timer.Stop()
}

// Play resumes the motion's clock and sets the playing flag.
func (m *Motion) Play() {
	m.status |= StatusPlaying
	m.timer.Start()
}

// QueueMove resolves a state name and queues a move toward it on the
// controller's action queue. The move is applied on the controller's next
// tick, in enqueue order.
//
// Parameters:
//   - stateName: the target state's name
//
// Returns:
//   - bool: false if no state with that name exists
func (m *Motion) QueueMove(stateName string) bool {
	state := m.controller.machine.StateByName(stateName)
	if state == nil {
		return false
	}
	m.controller.QueueAction(MotionAction{Type: ActionMove, Motion: m, Target: state.Id()})
	return true
}

// QueueDestroy queues removal of the motion from its controller.
func (m *Motion) QueueDestroy() {
	m.controller.QueueAction(MotionAction{Type: ActionDestroy, Motion: m})
}

// IsDone reports whether the motion's current state has finished. An
// animation state is done when every clip has consumed its allotted plays at
// the motion's elapsed time; clips still loading hold the state open. A
// transition is done when its timer passes its total time.
//
// Returns:
//   - bool: true when the current state has finished
func (m *Motion) IsDone() bool {
	current := m.CurrentState()
	if current == nil {
		return true
	}

	switch s := current.(type) {
	case *statemachine.AnimationState:
		elapsed := m.timer.Elapsed()
		for i := range s.Clips {
			ref := &s.Clips[i]
			cl := ref.Resolve(m.controller.clips)
			if cl == nil {
				return false
			}
			if _, done := cl.AnimationTime(elapsed, ref.Settings, s.Playback); !done {
				return false
			}
		}
		return true
	case *statemachine.TransitionState:
		return s.IsDone()
	}
	return false
}

// move applies the state-change rules against the motion's current state:
//
//  1. No current state: enter the target directly.
//  2. Target is the current state: no-op.
//  3. From an animation state: follow the connection to the target, riding
//     its transition when one is bound. A missing connection is reported and
//     the target is entered anyway.
//  4. From a transition: moving back to its start state is a reversal and
//     requires a connection from end to start (riding its transition when
//     bound); without one the move is dropped. Any other target completes
//     the transition and snaps to the target.
//
// On success the motion's timer restarts, the old state's OnExit may replace
// it with the transition's timer, and the new state's OnEntry runs.
func (m *Motion) move(target statemachine.State) {
	sm := m.controller.machine
	current := m.CurrentState()
	var next statemachine.State
	var reversedFrom *statemachine.TransitionState

	if current == nil {
		next = target
	} else {
		if current.Uuid() == target.Uuid() {
			return
		}

		switch cs := current.(type) {
		case *statemachine.AnimationState:
			if connIdx, ok := sm.ConnectsTo(cs, target); ok {
				conn := sm.Connection(connIdx)
				if t := conn.TransitionState(sm); t != nil {
					next = t
				} else {
					next = target
				}
			} else {
				m.controller.logger.Warn("states not connected, moving anyway",
					"motion", m.name, "from", current.Name(), "to", target.Name())
				next = target
			}
		case *statemachine.TransitionState:
			start := cs.Start(sm)
			if start != nil && target.Uuid() == start.Uuid() {
				// Reversal: require a connection back from end to start
				var connIdx int
				var ok bool
				if end := cs.End(sm); end != nil {
					connIdx, ok = sm.ConnectsTo(end, start)
				}
				if ok {
					conn := sm.Connection(connIdx)
					if t := conn.TransitionState(sm); t != nil {
						next = t
						reversedFrom = cs
					} else {
						next = start
					}
				} else {
					m.controller.logger.Debug("reversal dropped, no connection back",
						"motion", m.name, "transition", cs.Name())
					return
				}
			} else {
				// Treat the transition as completed and snap to the target
				next = target
			}
		}
	}

	m.timer.Restart()
	if current != nil {
		if inherited, ok := current.OnExit(); ok {
			m.timer = inherited
		}
	}
	m.stateID = next.Id()
	next.OnEntry()

	if reversedFrom != nil {
		// A reversal picks up where the interrupted transition left off: the
		// reverse transition starts with the complementary phase so the
		// blended pose is continuous across the interruption.
		if rt, ok := next.(*statemachine.TransitionState); ok {
			remaining := rt.TotalTime() - reversedFrom.Timer().Elapsed()
			if remaining < 0 {
				remaining = 0
			}
			rt.Timer().RestartAt(remaining)
		}
	}
}

// autoMove advances the motion along its state's canonical exit: the first
// connection leaving an animation state, or a transition's own connection.
func (m *Motion) autoMove() {
	current := m.CurrentState()
	if current == nil {
		return
	}

	sm := m.controller.machine
	switch cs := current.(type) {
	case *statemachine.AnimationState:
		for _, connIdx := range cs.Connections() {
			conn := sm.Connection(connIdx)
			if conn == nil || conn.Start != cs.MachineIndex() {
				continue
			}
			if end := conn.EndState(sm); end != nil {
				m.move(end)
			}
			return
		}
	case *statemachine.TransitionState:
		if end := cs.End(sm); end != nil {
			m.move(end)
		}
	}
}
