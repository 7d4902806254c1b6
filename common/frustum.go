package common

import (
	"math"

	"github.com/go-gl/mathgl/mgl32"
)

// Plane represents a plane in 3D space using the equation: ax + by + cz + d = 0
// where (a, b, c) is the normal and d is the distance from origin.
type Plane struct {
	Normal   mgl32.Vec3
	Distance float32
}

// Frustum represents the six planes of a view frustum for culling.
// Planes are oriented so that positive half-space is inside the frustum.
type Frustum struct {
	Planes [6]Plane // Left, Right, Bottom, Top, Near, Far
}

// FrustumPlane indices for clarity
const (
	FrustumLeft   = 0
	FrustumRight  = 1
	FrustumBottom = 2
	FrustumTop    = 3
	FrustumNear   = 4
	FrustumFar    = 5
)

// ExtractFrustumFromMatrix extracts frustum planes from a view-projection matrix.
// The matrix is the combined Projection * View matrix (projection.Mul4(view)).
// Uses the Gribb/Hartmann method for plane extraction.
//
// Reference: https://www8.cs.umu.se/kurser/5DV051/HT12/lab/plane_extraction.pdf
//
// Parameters:
//   - viewProj: the view-projection matrix (column-major)
//
// Returns:
//   - Frustum: the extracted frustum with normalized planes
func ExtractFrustumFromMatrix(viewProj mgl32.Mat4) Frustum {
	var f Frustum

	// For column-major matrix M, element M[row][col] is at index col*4 + row
	// So M[i][j] = viewProj[j*4 + i]

	// Left plane: row3 + row0
	f.Planes[FrustumLeft].Normal = mgl32.Vec3{viewProj[3] + viewProj[0], viewProj[7] + viewProj[4], viewProj[11] + viewProj[8]}
	f.Planes[FrustumLeft].Distance = viewProj[15] + viewProj[12]

	// Right plane: row3 - row0
	f.Planes[FrustumRight].Normal = mgl32.Vec3{viewProj[3] - viewProj[0], viewProj[7] - viewProj[4], viewProj[11] - viewProj[8]}
	f.Planes[FrustumRight].Distance = viewProj[15] - viewProj[12]

	// Bottom plane: row3 + row1
	f.Planes[FrustumBottom].Normal = mgl32.Vec3{viewProj[3] + viewProj[1], viewProj[7] + viewProj[5], viewProj[11] + viewProj[9]}
	f.Planes[FrustumBottom].Distance = viewProj[15] + viewProj[13]

	// Top plane: row3 - row1
	f.Planes[FrustumTop].Normal = mgl32.Vec3{viewProj[3] - viewProj[1], viewProj[7] - viewProj[5], viewProj[11] - viewProj[9]}
	f.Planes[FrustumTop].Distance = viewProj[15] - viewProj[13]

	// Near plane: row3 + row2
	f.Planes[FrustumNear].Normal = mgl32.Vec3{viewProj[3] + viewProj[2], viewProj[7] + viewProj[6], viewProj[11] + viewProj[10]}
	f.Planes[FrustumNear].Distance = viewProj[15] + viewProj[14]

	// Far plane: row3 - row2
	f.Planes[FrustumFar].Normal = mgl32.Vec3{viewProj[3] - viewProj[2], viewProj[7] - viewProj[6], viewProj[11] - viewProj[10]}
	f.Planes[FrustumFar].Distance = viewProj[15] - viewProj[14]

	// Normalize all planes so distance comparisons are in world units
	for i := range f.Planes {
		length := float32(math.Sqrt(float64(f.Planes[i].Normal.Dot(f.Planes[i].Normal))))
		if length > 0 {
			f.Planes[i].Normal = f.Planes[i].Normal.Mul(1.0 / length)
			f.Planes[i].Distance /= length
		}
	}

	return f
}

// IntersectsAABB tests whether an axis-aligned bounding box is at least
// partially inside the frustum. Uses the positive-vertex test: for each plane,
// the box is outside if its most-positive corner is behind the plane.
//
// Parameters:
//   - box: the world-space bounding box to test
//
// Returns:
//   - bool: true if the box intersects or is contained by the frustum
func (f Frustum) IntersectsAABB(box AABB) bool {
	for i := range f.Planes {
		p := &f.Planes[i]

		// Select the corner furthest along the plane normal
		positive := mgl32.Vec3{box.Min.X(), box.Min.Y(), box.Min.Z()}
		if p.Normal.X() >= 0 {
			positive[0] = box.Max.X()
		}
		if p.Normal.Y() >= 0 {
			positive[1] = box.Max.Y()
		}
		if p.Normal.Z() >= 0 {
			positive[2] = box.Max.Z()
		}

		if p.Normal.Dot(positive)+p.Distance < 0 {
			return false
		}
	}
	return true
}

// TransformAABB transforms a local-space bounding box by a world matrix and
// returns the world-space axis-aligned box that encloses the result.
//
// Parameters:
//   - box: the local-space bounding box
//   - world: the world transform matrix
//
// Returns:
//   - AABB: the enclosing world-space box
func TransformAABB(box AABB, world mgl32.Mat4) AABB {
	center := box.Center()
	extents := box.HalfExtents()

	worldCenter := mgl32.TransformCoordinate(center, world)

	// Enclosing extents from the absolute values of the rotation/scale block
	var worldExtents mgl32.Vec3
	for row := 0; row < 3; row++ {
		sum := float32(0)
		for col := 0; col < 3; col++ {
			sum += float32(math.Abs(float64(world[col*4+row]))) * extents[col]
		}
		worldExtents[row] = sum
	}

	return AABB{
		Min: worldCenter.Sub(worldExtents),
		Max: worldCenter.Add(worldExtents),
	}
}
