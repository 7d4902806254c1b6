// Package process drives controllers on a fixed-step cooperative scheduler.
// Each controller gets one Process; a Scheduler ticks every attached process
// on a shared worker pool so per-entity animation runs off the render thread.
package process

import (
	"log/slog"
	"sync/atomic"

	"github.com/Carmen-Shannon/rig-go/common"
	"github.com/Carmen-Shannon/rig-go/engine/animation"
	"github.com/go-gl/mathgl/mgl32"
)

// ViewVolume is the culling oracle: it answers whether a world-space box is
// at least partially visible. The camera owns the implementation.
type ViewVolume interface {
	// IsVisible reports whether the box intersects the view volume.
	//
	// Parameters:
	//   - box: the world-space bounding box
	//
	// Returns:
	//   - bool: true when at least partially visible
	IsVisible(box common.AABB) bool
}

// WorldTransformProvider supplies the entity's world matrix for the frustum
// gate. The scene graph owns the implementation.
type WorldTransformProvider interface {
	// WorldTransform returns the entity's current world matrix.
	//
	// Returns:
	//   - mgl32.Mat4: the world matrix
	WorldTransform() mgl32.Mat4
}

// Process is the cooperative per-entity animation process. Each fixed step
// it advances its controller, gating the expensive sample-and-compose half
// of the tick on the entity's visibility. Aborting stops further ticks; the
// tick in flight always completes so the palette stays consistent.
type Process struct {
	controller *animation.Controller
	view       ViewVolume
	transform  WorldTransformProvider
	localBox   common.AABB

	elapsedSec  float64
	initialized bool
	aborted     atomic.Bool
	logger      *slog.Logger

	// tick record for the scheduler's frame stats; written on the worker
	// goroutine, read by the scheduler after the frame barrier
	lastTicked bool
	lastInView bool
}

// ProcessOption configures a Process during construction.
type ProcessOption func(*Process)

// WithViewVolume attaches the culling oracle. Without one every tick is
// treated as visible.
//
// Parameters:
//   - view: the culling oracle
//
// Returns:
//   - ProcessOption: the option
func WithViewVolume(view ViewVolume) ProcessOption {
	return func(p *Process) {
		p.view = view
	}
}

// WithWorldTransform attaches the entity's world transform provider and its
// local-space bounds for the frustum gate.
//
// Parameters:
//   - transform: the world transform provider
//   - localBox: the entity's local-space bounding box
//
// Returns:
//   - ProcessOption: the option
func WithWorldTransform(transform WorldTransformProvider, localBox common.AABB) ProcessOption {
	return func(p *Process) {
		p.transform = transform
		p.localBox = localBox
	}
}

// WithProcessLogger replaces the process logger.
//
// Parameters:
//   - logger: the logger to use
//
// Returns:
//   - ProcessOption: the option
func WithProcessLogger(logger *slog.Logger) ProcessOption {
	return func(p *Process) {
		p.logger = logger
	}
}

// NewProcess creates a process for one controller.
//
// Parameters:
//   - controller: the controller to drive
//   - options: variadic configuration options
//
// Returns:
//   - *Process: the new process
func NewProcess(controller *animation.Controller, options ...ProcessOption) *Process {
	p := &Process{
		controller: controller,
		logger:     slog.Default(),
	}
	for _, opt := range options {
		opt(p)
	}
	return p
}

// Controller returns the controller this process drives.
//
// Returns:
//   - *animation.Controller: the controller
func (p *Process) Controller() *animation.Controller {
	return p.controller
}

// ElapsedSec returns the total seconds this process has advanced.
//
// Returns:
//   - float64: the accumulated time
func (p *Process) ElapsedSec() float64 {
	return p.elapsedSec
}

// Abort stops the process. The current tick, if one is running, completes
// normally; later ticks are skipped and the scheduler detaches the process.
// Pending controller actions are discarded with it.
func (p *Process) Abort() {
	p.aborted.Store(true)
}

// Aborted reports whether the process has been stopped.
//
// Returns:
//   - bool: true once Abort has been called
func (p *Process) Aborted() bool {
	return p.aborted.Load()
}

// onInit succeeds once the controller's skeleton is available. Retried every
// tick until then.
func (p *Process) onInit() bool {
	if p.initialized {
		return true
	}
	if p.controller == nil {
		// The controller is gone; there is nothing left to drive
		p.logger.Error("animation process lost its controller")
		p.Abort()
		return false
	}
	if p.controller.Skeleton() == nil {
		return false
	}
	p.initialized = true
	p.logger.Debug("animation process initialized", "controller", p.controller.Name())
	return true
}

// OnFixedUpdate runs one tick: advance the process clock, then advance the
// controller with the visibility verdict for this frame. Invisible entities
// still drain actions and update weights so the first visible frame matches
// an always-visible run; only sampling and hierarchy composition are
// skipped.
//
// Parameters:
//   - deltaMs: the fixed step in milliseconds
func (p *Process) OnFixedUpdate(deltaMs uint64) {
	p.lastTicked = false
	if p.aborted.Load() {
		return
	}
	if !p.onInit() {
		return
	}

	dt := float64(deltaMs) / 1000.0
	p.elapsedSec += dt

	inView := p.inView()
	p.lastTicked = true
	p.lastInView = inView

	p.controller.Advance(dt, inView)
}

// inView runs the frustum gate. Without a culling oracle or transform
// provider the entity counts as visible.
func (p *Process) inView() bool {
	if p.view == nil || p.transform == nil {
		return true
	}
	worldBox := common.TransformAABB(p.localBox, p.transform.WorldTransform())
	return p.view.IsVisible(worldBox)
}
