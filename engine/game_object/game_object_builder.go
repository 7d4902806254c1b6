package game_object

import (
	"github.com/Carmen-Shannon/rig-go/common"
	"github.com/Carmen-Shannon/rig-go/engine/animation"
	"github.com/go-gl/mathgl/mgl32"
)

// GameObjectBuilderOption is a functional option for configuring a GameObject via NewGameObject.
type GameObjectBuilderOption func(*gameObject)

// WithName sets the object's display name.
//
// Parameters:
//   - name: the display name
//
// Returns:
//   - GameObjectBuilderOption: a function that applies the name option
func WithName(name string) GameObjectBuilderOption {
	return func(g *gameObject) {
		g.name = name
	}
}

// WithPosition sets the object's initial world position.
//
// Parameters:
//   - position: the world-space position
//
// Returns:
//   - GameObjectBuilderOption: a function that applies the position option
func WithPosition(position mgl32.Vec3) GameObjectBuilderOption {
	return func(g *gameObject) {
		g.position = position
	}
}

// WithRotation sets the object's initial Euler rotation in radians.
//
// Parameters:
//   - rotation: rotation angles around each axis, applied Y * X * Z
//
// Returns:
//   - GameObjectBuilderOption: a function that applies the rotation option
func WithRotation(rotation mgl32.Vec3) GameObjectBuilderOption {
	return func(g *gameObject) {
		g.rotation = rotation
	}
}

// WithScale sets the object's initial scale.
//
// Parameters:
//   - scale: per-axis scale factors
//
// Returns:
//   - GameObjectBuilderOption: a function that applies the scale option
func WithScale(scale mgl32.Vec3) GameObjectBuilderOption {
	return func(g *gameObject) {
		g.scale = scale
	}
}

// WithLocalBounds sets the local-space bounding box used for visibility.
//
// Parameters:
//   - bounds: the local-space box
//
// Returns:
//   - GameObjectBuilderOption: a function that applies the bounds option
func WithLocalBounds(bounds common.AABB) GameObjectBuilderOption {
	return func(g *gameObject) {
		g.localBounds = bounds
	}
}

// WithController attaches the animation controller driving this object.
//
// Parameters:
//   - controller: the controller
//
// Returns:
//   - GameObjectBuilderOption: a function that applies the controller option
func WithController(controller *animation.Controller) GameObjectBuilderOption {
	return func(g *gameObject) {
		g.controller = controller
	}
}

// NewGameObject creates an enabled GameObject at the origin with unit scale
// and a unit bounding box, overridden by the given options.
//
// Parameters:
//   - options: variadic list of GameObjectBuilderOption functions
//
// Returns:
//   - GameObject: the new object
func NewGameObject(options ...GameObjectBuilderOption) GameObject {
	g := &gameObject{
		id:    idCounter.Add(1),
		scale: mgl32.Vec3{1, 1, 1},
		localBounds: common.AABB{
			Min: mgl32.Vec3{-0.5, -0.5, -0.5},
			Max: mgl32.Vec3{0.5, 0.5, 0.5},
		},
	}
	g.enabled.Store(true)
	for _, opt := range options {
		opt(g)
	}
	return g
}
