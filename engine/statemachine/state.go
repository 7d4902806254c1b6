package statemachine

import (
	"math"

	"github.com/Carmen-Shannon/rig-go/common"
	"github.com/Carmen-Shannon/rig-go/engine/clip"
	"github.com/google/uuid"
	"github.com/tanema/gween/ease"
)

// StateType tags the two state variants. The values match the persisted
// stateType field.
type StateType int

const (
	// StateTypeNone marks the absence of a state (a motion that has not moved yet).
	StateTypeNone StateType = 0

	// StateTypeAnimation is a state that plays clips.
	StateTypeAnimation StateType = 1

	// StateTypeTransition is a state that blends between two animation states.
	StateTypeTransition StateType = 2
)

// StateId is a tagged handle to a state slot: the kind selects the slab, the
// index selects the slot within it.
type StateId struct {
	// Kind is None, Animation, or Transition.
	Kind StateType

	// Index is the slot index within the kind's slab.
	Index int
}

// NoState is the StateId of a motion that has not entered any state.
var NoState = StateId{Kind: StateTypeNone}

// State is the common surface of AnimationState and TransitionState.
// Behavior is dispatched by type switch on the concrete types; the interface
// only carries what the graph and the motions need uniformly.
type State interface {
	// Name returns the state's unique name within its machine.
	Name() string

	// SetName sets the state's name.
	SetName(name string)

	// Uuid returns the state's stable identity, preserved across slot reuse.
	Uuid() uuid.UUID

	// Type returns the state's variant tag.
	Type() StateType

	// Id returns the state's tagged slot handle.
	Id() StateId

	// MachineIndex returns the slot index within the state's slab, or -1 when
	// the state is not registered.
	MachineIndex() int

	// Connections returns the cached indices of connections touching this state.
	Connections() []int

	// OnEntry runs when a motion enters the state.
	OnEntry()

	// OnExit runs when a motion leaves the state. When the returned bool is
	// true, the returned timer replaces the motion's timer so the incoming
	// state inherits the elapsed phase.
	OnExit() (common.Timer, bool)

	setMachineIndex(idx int)
	addConnection(idx int)
	removeConnection(idx int)
}

// AnimationState plays one or more clips under a shared playback mode.
type AnimationState struct {
	// Playback controls how the state's clips map time onto their duration.
	Playback clip.PlaybackMode

	// Clips are the state's clip references, blended by their settings.
	Clips []clip.Ref

	name         string
	id           uuid.UUID
	machineIndex int
	connections  []int
}

// NewAnimationState creates an unregistered animation state.
//
// Parameters:
//   - name: the state's unique name
//
// Returns:
//   - *AnimationState: the new state
func NewAnimationState(name string) *AnimationState {
	return &AnimationState{
		Playback:     clip.PlaybackLoop,
		name:         name,
		id:           uuid.New(),
		machineIndex: -1,
	}
}

// AddClip appends a clip reference to the state.
//
// Parameters:
//   - ref: the clip reference to add
func (s *AnimationState) AddClip(ref clip.Ref) {
	s.Clips = append(s.Clips, ref)
}

// Name returns the state's name.
func (s *AnimationState) Name() string { return s.name }

// SetName sets the state's name.
func (s *AnimationState) SetName(name string) { s.name = name }

// Uuid returns the state's stable identity.
func (s *AnimationState) Uuid() uuid.UUID { return s.id }

// Type returns StateTypeAnimation.
func (s *AnimationState) Type() StateType { return StateTypeAnimation }

// Id returns the state's tagged slot handle.
func (s *AnimationState) Id() StateId { return StateId{Kind: StateTypeAnimation, Index: s.machineIndex} }

// MachineIndex returns the state's slot index, or -1 when unregistered.
func (s *AnimationState) MachineIndex() int { return s.machineIndex }

// Connections returns the cached connection indices touching this state.
func (s *AnimationState) Connections() []int { return s.connections }

// OnEntry is a no-op for animation states.
func (s *AnimationState) OnEntry() {}

// OnExit is a no-op for animation states.
func (s *AnimationState) OnExit() (common.Timer, bool) { return common.Timer{}, false }

func (s *AnimationState) setMachineIndex(idx int) { s.machineIndex = idx }

func (s *AnimationState) addConnection(idx int) { s.connections = append(s.connections, idx) }

func (s *AnimationState) removeConnection(idx int) {
	for i, c := range s.connections {
		if c == idx {
			s.connections = append(s.connections[:i], s.connections[i+1:]...)
			return
		}
	}
}

// TransitionKind selects how the outgoing state behaves while fading.
type TransitionKind int

const (
	// TransitionSmooth keeps the outgoing clips playing while they fade out.
	TransitionSmooth TransitionKind = 0

	// TransitionFirstFrozen freezes the outgoing clips on the frame at which
	// the transition began.
	TransitionFirstFrozen TransitionKind = 1
)

// TransitionSettings shapes a transition's cross-fade.
type TransitionSettings struct {
	// Kind selects smooth or first-frozen fading for the outgoing state.
	Kind TransitionKind `json:"transitionType"`

	// FadeInSec is how long the incoming state takes to reach full weight.
	FadeInSec float32 `json:"fadeInTime"`

	// FadeOutSec is how long the outgoing state takes to reach zero weight.
	FadeOutSec float32 `json:"fadeOutTime"`

	// FadeInWeight scales the incoming clips' blend weights.
	FadeInWeight float32 `json:"fadeInWeight"`

	// FadeOutWeight scales the outgoing clips' blend weights.
	FadeOutWeight float32 `json:"fadeOutWeight"`

	// FadeInEase shapes the fade-in curve. Nil means linear. Not serialized.
	FadeInEase ease.TweenFunc `json:"-"`

	// FadeOutEase shapes the fade-out curve. Nil means linear. Not serialized.
	FadeOutEase ease.TweenFunc `json:"-"`
}

// TotalTime returns the transition's duration: the longer of the two fades.
//
// Returns:
//   - float64: the transition duration in seconds
func (ts TransitionSettings) TotalTime() float64 {
	return math.Max(float64(ts.FadeInSec), float64(ts.FadeOutSec))
}

// TransitionState blends the fade-out of its connection's start state with
// the fade-in of its end state over a fixed duration. It owns its own timer,
// restarted each time a motion enters it.
type TransitionState struct {
	// Settings shape the cross-fade.
	Settings TransitionSettings

	name         string
	id           uuid.UUID
	connection   int
	timer        common.Timer
	machineIndex int
}

// NewTransitionState creates an unregistered transition with the given
// settings. It is bound to a connection when added to a machine.
//
// Parameters:
//   - name: the transition's unique name
//   - settings: the cross-fade settings
//
// Returns:
//   - *TransitionState: the new transition
func NewTransitionState(name string, settings TransitionSettings) *TransitionState {
	return &TransitionState{
		Settings:     settings,
		name:         name,
		id:           uuid.New(),
		connection:   -1,
		machineIndex: -1,
	}
}

// Name returns the transition's name.
func (t *TransitionState) Name() string { return t.name }

// SetName sets the transition's name.
func (t *TransitionState) SetName(name string) { t.name = name }

// Uuid returns the transition's stable identity.
func (t *TransitionState) Uuid() uuid.UUID { return t.id }

// Type returns StateTypeTransition.
func (t *TransitionState) Type() StateType { return StateTypeTransition }

// Id returns the transition's tagged slot handle.
func (t *TransitionState) Id() StateId {
	return StateId{Kind: StateTypeTransition, Index: t.machineIndex}
}

// MachineIndex returns the transition's slot index, or -1 when unregistered.
func (t *TransitionState) MachineIndex() int { return t.machineIndex }

// Connections returns the transition's bound connection as a one-element
// slice, or nil when unbound.
func (t *TransitionState) Connections() []int {
	if t.connection < 0 {
		return nil
	}
	return []int{t.connection}
}

// ConnectionIndex returns the index of the connection this transition rides.
//
// Returns:
//   - int: the connection index, or -1 when unbound
func (t *TransitionState) ConnectionIndex() int { return t.connection }

// Timer returns the transition's own stopwatch.
//
// Returns:
//   - *common.Timer: the transition timer
func (t *TransitionState) Timer() *common.Timer { return &t.timer }

// SetClock replaces the transition timer's time source.
//
// Parameters:
//   - clock: the new time source, or nil for the wall clock
func (t *TransitionState) SetClock(clock common.Clock) {
	t.timer = common.NewTimerWithClock(clock)
}

// TotalTime returns the transition's duration in seconds.
//
// Returns:
//   - float64: max(fade-in, fade-out)
func (t *TransitionState) TotalTime() float64 { return t.Settings.TotalTime() }

// IsDone reports whether the transition's timer has run past its duration.
//
// Returns:
//   - bool: true when the cross-fade has completed
func (t *TransitionState) IsDone() bool {
	return t.timer.Elapsed() >= t.TotalTime()
}

// Start returns the animation state this transition fades out.
//
// Parameters:
//   - sm: the owning state machine
//
// Returns:
//   - *AnimationState: the outgoing state, or nil when unbound
func (t *TransitionState) Start(sm *StateMachine) *AnimationState {
	if t.connection < 0 {
		return nil
	}
	return sm.AnimationStateAt(sm.Connection(t.connection).Start)
}

// End returns the animation state this transition fades in.
//
// Parameters:
//   - sm: the owning state machine
//
// Returns:
//   - *AnimationState: the incoming state, or nil when unbound
func (t *TransitionState) End(sm *StateMachine) *AnimationState {
	if t.connection < 0 {
		return nil
	}
	return sm.AnimationStateAt(sm.Connection(t.connection).End)
}

// OnEntry restarts the transition's timer.
func (t *TransitionState) OnEntry() {
	t.timer.Restart()
}

// OnExit hands the transition's timer to the motion so the incoming state
// inherits the elapsed phase.
func (t *TransitionState) OnExit() (common.Timer, bool) {
	return t.timer, true
}

func (t *TransitionState) setMachineIndex(idx int) { t.machineIndex = idx }

func (t *TransitionState) addConnection(idx int) { t.connection = idx }

func (t *TransitionState) removeConnection(idx int) {
	if t.connection == idx {
		t.connection = -1
	}
}
