package animation

import (
	"log/slog"
	"sync"

	"github.com/Carmen-Shannon/rig-go/common"
	"github.com/Carmen-Shannon/rig-go/engine/clip"
	"github.com/Carmen-Shannon/rig-go/engine/skeleton"
	"github.com/Carmen-Shannon/rig-go/engine/statemachine"
	"github.com/go-gl/mathgl/mgl32"
	"github.com/google/uuid"
)

// MotionSnapshot is one motion's publishable status.
type MotionSnapshot struct {
	// Name is the motion's name.
	Name string

	// State is the motion's current state handle.
	State statemachine.StateId

	// StateName is the current state's name, empty before the first move.
	StateName string

	// ElapsedSec is the motion's elapsed time.
	ElapsedSec float64

	// Playing reports whether the motion's clock is running.
	Playing bool
}

// Status is a controller's publishable status for tooling and serialization.
type Status struct {
	// Playing reports whether the controller advances its motions.
	Playing bool

	// Motions are the per-motion snapshots, in motion order.
	Motions []MotionSnapshot
}

// Controller aggregates one skeleton reference, any number of motions, one
// action queue, and one blend queue, and owns the published matrix palette.
// One controller animates one entity.
//
// Thread model: QueueAction may be called from any goroutine; Advance runs
// on exactly one (the animation worker); Palette readers take the read lock.
type Controller struct {
	name      string
	modelName string

	skeleton *skeleton.Skeleton
	clips    *clip.Store
	machine  *statemachine.StateMachine
	clock    common.Clock
	logger   *slog.Logger

	motions []*Motion

	actionMu sync.Mutex
	pending  []MotionAction
	working  []MotionAction

	blendQueue BlendQueue

	paletteMu sync.RWMutex
	palette   []mgl32.Mat4

	isPlaying bool
}

// ControllerOption configures a Controller during construction.
type ControllerOption func(*Controller)

// WithSkeleton attaches the controller's skeleton.
//
// Parameters:
//   - s: the skeleton to animate
//
// Returns:
//   - ControllerOption: the option
func WithSkeleton(s *skeleton.Skeleton) ControllerOption {
	return func(c *Controller) {
		c.skeleton = s
	}
}

// WithClipStore attaches the store the controller resolves clips from.
//
// Parameters:
//   - store: the clip store
//
// Returns:
//   - ControllerOption: the option
func WithClipStore(store *clip.Store) ControllerOption {
	return func(c *Controller) {
		c.clips = store
	}
}

// WithMachine attaches the state machine the controller's motions traverse.
//
// Parameters:
//   - sm: the shared state machine
//
// Returns:
//   - ControllerOption: the option
func WithMachine(sm *statemachine.StateMachine) ControllerOption {
	return func(c *Controller) {
		c.machine = sm
	}
}

// WithClock replaces the time source for the controller's motion timers.
//
// Parameters:
//   - clock: the time source, or nil for the wall clock
//
// Returns:
//   - ControllerOption: the option
func WithClock(clock common.Clock) ControllerOption {
	return func(c *Controller) {
		c.clock = clock
	}
}

// WithLogger replaces the controller's logger.
//
// Parameters:
//   - logger: the logger to use
//
// Returns:
//   - ControllerOption: the option
func WithLogger(logger *slog.Logger) ControllerOption {
	return func(c *Controller) {
		c.logger = logger
	}
}

// WithModelName records the name of the model resource this controller
// animates, carried through persistence.
//
// Parameters:
//   - name: the model resource name
//
// Returns:
//   - ControllerOption: the option
func WithModelName(name string) ControllerOption {
	return func(c *Controller) {
		c.modelName = name
	}
}

// NewController creates a controller configured by the given options. A
// machine is required for motions to move; the skeleton may arrive later via
// SetSkeleton.
//
// Parameters:
//   - name: the controller's name
//   - options: variadic configuration options
//
// Returns:
//   - *Controller: the new controller
func NewController(name string, options ...ControllerOption) *Controller {
	c := &Controller{
		name:      name,
		logger:    slog.Default(),
		isPlaying: true,
	}
	for _, opt := range options {
		opt(c)
	}
	c.blendQueue.init(c)
	if c.skeleton != nil {
		c.skeleton.IdentityPose(&c.palette)
	}
	return c
}

// Name returns the controller's name.
//
// Returns:
//   - string: the controller name
func (c *Controller) Name() string { return c.name }

// ModelName returns the name of the model resource this controller animates.
//
// Returns:
//   - string: the model name
func (c *Controller) ModelName() string { return c.modelName }

// Machine returns the state machine the controller's motions traverse.
//
// Returns:
//   - *statemachine.StateMachine: the machine
func (c *Controller) Machine() *statemachine.StateMachine { return c.machine }

// ClipStore returns the store the controller resolves clips from.
//
// Returns:
//   - *clip.Store: the clip store
func (c *Controller) ClipStore() *clip.Store { return c.clips }

// Skeleton returns the controller's skeleton, or nil before it loads.
//
// Returns:
//   - *skeleton.Skeleton: the skeleton
func (c *Controller) Skeleton() *skeleton.Skeleton { return c.skeleton }

// SetSkeleton attaches a late-loaded skeleton and seeds the palette with the
// identity pose. Must happen before the worker starts advancing.
//
// Parameters:
//   - s: the skeleton to animate
func (c *Controller) SetSkeleton(s *skeleton.Skeleton) {
	c.paletteMu.Lock()
	defer c.paletteMu.Unlock()
	c.skeleton = s
	c.skeleton.IdentityPose(&c.palette)
	c.blendQueue.invalidateBindPose()
}

// Playing reports whether the controller advances its motions.
//
// Returns:
//   - bool: true if playing
func (c *Controller) Playing() bool { return c.isPlaying }

// SetPlaying toggles whether Advance does any work.
//
// Parameters:
//   - playing: the new playing state
func (c *Controller) SetPlaying(playing bool) { c.isPlaying = playing }

// Motions returns the controller's motions. The slice is owned by the
// controller; callers must not mutate it.
//
// Returns:
//   - []*Motion: the motions
func (c *Controller) Motions() []*Motion { return c.motions }

// AddMotion creates a motion and moves it into the given state immediately.
// Setup-time API: call before the worker starts, or queue moves instead.
//
// Parameters:
//   - state: the initial state
//
// Returns:
//   - *Motion: the new motion
func (c *Controller) AddMotion(state statemachine.State) *Motion {
	m := newMotion(c)
	c.motions = append(c.motions, m)
	if state != nil {
		m.move(state)
	}
	return m
}

// Motion finds a motion by name.
//
// Parameters:
//   - name: the motion name
//
// Returns:
//   - *Motion: the motion, or nil on miss
func (c *Controller) Motion(name string) *Motion {
	for _, m := range c.motions {
		if m.name == name {
			return m
		}
	}
	return nil
}

// MotionByUuid finds a motion by its stable identity.
//
// Parameters:
//   - id: the motion uuid
//
// Returns:
//   - *Motion: the motion, or nil on miss
func (c *Controller) MotionByUuid(id uuid.UUID) *Motion {
	for _, m := range c.motions {
		if m.id == id {
			return m
		}
	}
	return nil
}

func (c *Controller) removeMotion(motion *Motion) {
	for i, m := range c.motions {
		if m.id == motion.id {
			c.motions = append(c.motions[:i], c.motions[i+1:]...)
			return
		}
	}
	c.logger.Warn("remove of unknown motion", "motion", motion.Name())
}

// QueueAction enqueues a motion action. Safe from any goroutine; actions are
// applied in enqueue order on the controller's next tick. Actions enqueued
// while a tick is applying actions land on the tick after it.
//
// Parameters:
//   - action: the action to enqueue
func (c *Controller) QueueAction(action MotionAction) {
	c.actionMu.Lock()
	c.pending = append(c.pending, action)
	c.actionMu.Unlock()
}

// Advance runs one animation tick: queue implicit auto-moves for finished
// motions, drain the action queue, gather and weight the active clips, and —
// when the entity is in view — sample, blend, and compose the palette.
//
// The palette write lock is held for the whole tick so readers never observe
// a torn palette; hold time is bounded by the cost of one hierarchy
// composition.
//
// Parameters:
//   - dt: seconds since the previous tick
//   - inView: whether the entity passed the frustum gate this tick
func (c *Controller) Advance(dt float64, inView bool) {
	_ = dt // motions are clock-driven; dt only paces the caller

	if c.skeleton == nil || !c.isPlaying {
		return
	}

	c.paletteMu.Lock()
	defer c.paletteMu.Unlock()

	c.updateMotions()

	c.blendQueue.RefreshActiveClips()
	c.blendQueue.UpdateWeights()

	if !inView {
		// Weights were advanced above, so the first visible frame blends
		// exactly as an always-visible run would. The palette keeps its last
		// composed pose.
		return
	}

	if c.blendQueue.NumActiveClips() == 0 {
		return
	}

	c.blendQueue.SampleAndBlend()
	if err := c.blendQueue.ComposeHierarchy(&c.palette); err != nil {
		c.logger.Error("compose hierarchy", "controller", c.name, "error", err)
	}
}

// updateMotions queues implicit actions for finished motions, then swaps the
// pending actions in and applies them in FIFO order.
func (c *Controller) updateMotions() {
	for _, m := range c.motions {
		if !m.IsDone() {
			continue
		}
		if m.behavior&BehaviorDestroyOnDone != 0 {
			c.QueueAction(MotionAction{Type: ActionDestroy, Motion: m})
			continue
		}
		if m.AutoPlaying() {
			c.QueueAction(MotionAction{Type: ActionAutoMove, Motion: m})
			continue
		}
		if cur := m.CurrentState(); cur != nil && cur.Type() == statemachine.StateTypeTransition {
			// Transitions always complete forward on their own
			c.QueueAction(MotionAction{Type: ActionAutoMove, Motion: m})
		}
	}

	c.actionMu.Lock()
	c.working, c.pending = c.pending, c.working[:0]
	c.actionMu.Unlock()

	for i := range c.working {
		c.working[i].perform(c)
	}
	c.working = c.working[:0]
}

// Palette copies the published palette into dst, growing it as needed. The
// copy happens under the read lock, so it always reflects a completed tick.
//
// Parameters:
//   - dst: the destination buffer, reused when capacity allows
//
// Returns:
//   - []mgl32.Mat4: dst resized to the bone count with the palette copied in
func (c *Controller) Palette(dst []mgl32.Mat4) []mgl32.Mat4 {
	c.paletteMu.RLock()
	defer c.paletteMu.RUnlock()
	if cap(dst) < len(c.palette) {
		dst = make([]mgl32.Mat4, len(c.palette))
	}
	dst = dst[:len(c.palette)]
	copy(dst, c.palette)
	return dst
}

// PaletteInto copies the published palette into a caller-sized buffer.
//
// Parameters:
//   - dst: the destination buffer; its length must equal the bone count
//
// Returns:
//   - error: ErrPaletteSizeMismatch when dst has the wrong length
func (c *Controller) PaletteInto(dst []mgl32.Mat4) error {
	c.paletteMu.RLock()
	defer c.paletteMu.RUnlock()
	if len(dst) != len(c.palette) {
		return ErrPaletteSizeMismatch
	}
	copy(dst, c.palette)
	return nil
}

// Status snapshots the controller's publishable state for tooling.
//
// Returns:
//   - Status: the status snapshot
func (c *Controller) Status() Status {
	st := Status{Playing: c.isPlaying}
	for _, m := range c.motions {
		snap := MotionSnapshot{
			Name:       m.Name(),
			State:      m.StateId(),
			ElapsedSec: m.ElapsedTime(),
			Playing:    m.Playing(),
		}
		if s := m.CurrentState(); s != nil {
			snap.StateName = s.Name()
		}
		st.Motions = append(st.Motions, snap)
	}
	return st
}
