// package common contains common types that are used throughout this runtime. They are not interface-wrapped structs, just plain structs that express
// commonly used data-types.
package common

import (
	"github.com/go-gl/mathgl/mgl32"
)

// Transform represents a decomposed transform for animation interpolation.
type Transform struct {
	// Translation is the position offset.
	Translation mgl32.Vec3

	// Rotation is the orientation as a quaternion.
	Rotation mgl32.Quat

	// Scale is the scale factor along each axis.
	Scale mgl32.Vec3
}

// IdentityTransform returns a Transform with zero translation, identity rotation, and unit scale.
//
// Returns:
//   - Transform: the identity transform
func IdentityTransform() Transform {
	return Transform{
		Translation: mgl32.Vec3{},
		Rotation:    mgl32.QuatIdent(),
		Scale:       mgl32.Vec3{1, 1, 1},
	}
}

// Matrix composes the transform into a 4x4 matrix as translation * rotation * scale.
//
// Returns:
//   - mgl32.Mat4: the composed local matrix
func (t Transform) Matrix() mgl32.Mat4 {
	return ComposeTRS(t.Translation, t.Rotation, t.Scale)
}

// AABB is an axis-aligned bounding box in world space.
type AABB struct {
	// Min is the minimum corner of the box.
	Min mgl32.Vec3

	// Max is the maximum corner of the box.
	Max mgl32.Vec3
}

// Center returns the midpoint of the box.
//
// Returns:
//   - mgl32.Vec3: the box center
func (b AABB) Center() mgl32.Vec3 {
	return b.Min.Add(b.Max).Mul(0.5)
}

// HalfExtents returns the half-size of the box along each axis.
//
// Returns:
//   - mgl32.Vec3: the half extents
func (b AABB) HalfExtents() mgl32.Vec3 {
	return b.Max.Sub(b.Min).Mul(0.5)
}
