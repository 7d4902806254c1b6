package game_object

import (
	"sync"
	"sync/atomic"

	"github.com/Carmen-Shannon/rig-go/common"
	"github.com/Carmen-Shannon/rig-go/engine/animation"
	"github.com/go-gl/mathgl/mgl32"
)

// idCounter hands out unique object ids.
var idCounter atomic.Uint64

type gameObject struct {
	id      uint64
	name    string
	enabled atomic.Bool

	mu       sync.Mutex
	position mgl32.Vec3
	rotation mgl32.Vec3 // Euler radians, applied Y * X * Z
	scale    mgl32.Vec3

	localBounds common.AABB
	controller  *animation.Controller
}

// GameObject is an animated scene entity: a world transform, local bounds,
// and the animation controller driving its skeleton. It supplies the world
// matrix the animation process feeds to the frustum gate.
type GameObject interface {
	// ID returns the object's unique identifier.
	//
	// Returns:
	//   - uint64: the object ID
	ID() uint64

	// Name returns the object's display name.
	//
	// Returns:
	//   - string: the object name
	Name() string

	// Enabled returns whether this object is enabled for animation.
	//
	// Returns:
	//   - bool: true if enabled
	Enabled() bool

	// SetEnabled toggles whether this object is animated.
	//
	// Parameters:
	//   - enabled: the new enabled state
	SetEnabled(enabled bool)

	// Controller returns the animation controller driving this object.
	//
	// Returns:
	//   - *animation.Controller: the controller, or nil for static objects
	Controller() *animation.Controller

	// SetTransform replaces the object's position, rotation, and scale.
	//
	// Parameters:
	//   - position: world-space position
	//   - rotation: Euler rotation in radians, applied Y * X * Z
	//   - scale: per-axis scale factors
	SetTransform(position, rotation, scale mgl32.Vec3)

	// Position returns the object's world-space position.
	//
	// Returns:
	//   - mgl32.Vec3: the position
	Position() mgl32.Vec3

	// WorldTransform returns the object's current world matrix.
	//
	// Returns:
	//   - mgl32.Mat4: the world matrix
	WorldTransform() mgl32.Mat4

	// LocalBounds returns the object's local-space bounding box used for
	// visibility testing.
	//
	// Returns:
	//   - common.AABB: the local bounds
	LocalBounds() common.AABB
}

var _ GameObject = &gameObject{}

func (g *gameObject) ID() uint64 {
	return g.id
}

func (g *gameObject) Name() string {
	return g.name
}

func (g *gameObject) Enabled() bool {
	return g.enabled.Load()
}

func (g *gameObject) SetEnabled(enabled bool) {
	g.enabled.Store(enabled)
}

func (g *gameObject) Controller() *animation.Controller {
	return g.controller
}

func (g *gameObject) SetTransform(position, rotation, scale mgl32.Vec3) {
	g.mu.Lock()
	g.position = position
	g.rotation = rotation
	g.scale = scale
	g.mu.Unlock()
}

func (g *gameObject) Position() mgl32.Vec3 {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.position
}

func (g *gameObject) WorldTransform() mgl32.Mat4 {
	g.mu.Lock()
	defer g.mu.Unlock()

	rotation := mgl32.AnglesToQuat(g.rotation.Y(), g.rotation.X(), g.rotation.Z(), mgl32.YXZ)
	return common.ComposeTRS(g.position, rotation, g.scale)
}

func (g *gameObject) LocalBounds() common.AABB {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.localBounds
}
