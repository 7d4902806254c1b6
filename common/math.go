package common

import (
	"math"

	"github.com/go-gl/mathgl/mgl32"
)

// Lerp linearly interpolates between a and b by t.
//
// Parameters:
//   - a: start value
//   - b: end value
//   - t: interpolation factor (0 = a, 1 = b)
//
// Returns:
//   - float32: the interpolated value
func Lerp(a, b, t float32) float32 {
	return a + (b-a)*t
}

// LerpVec3 linearly interpolates between two vectors by t.
//
// Parameters:
//   - a: start vector
//   - b: end vector
//   - t: interpolation factor (0 = a, 1 = b)
//
// Returns:
//   - mgl32.Vec3: the interpolated vector
func LerpVec3(a, b mgl32.Vec3, t float32) mgl32.Vec3 {
	return a.Add(b.Sub(a).Mul(t))
}

// WeightedSumVec3 computes the weighted sum of a run of vectors.
// vals[0..len(weights)] are combined as Σ weights[i] * vals[i].
//
// Parameters:
//   - vals: the vectors to combine (must be at least len(weights) long)
//   - weights: the per-vector weights
//
// Returns:
//   - mgl32.Vec3: the weighted sum
func WeightedSumVec3(vals []mgl32.Vec3, weights []float32) mgl32.Vec3 {
	var out mgl32.Vec3
	for i, w := range weights {
		out = out.Add(vals[i].Mul(w))
	}
	return out
}

// SlerpPairWeights converts a set of normalized blend weights into the pair
// weights used by SuccessiveSlerp. The pair weight for quaternion i is
// w[i] / Σ_{k ≤ i} w[k], so that successively slerping q0, q1, ... with the
// pair weights reproduces a weighted spherical average.
//
// Parameters:
//   - weights: normalized blend weights, one per quaternion
//   - dst: optional destination slice, reused when capacity allows
//
// Returns:
//   - []float32: pair weights of length len(weights)-1 (weights[0] needs none)
func SlerpPairWeights(weights []float32, dst []float32) []float32 {
	dst = dst[:0]
	if len(weights) == 0 {
		return dst
	}
	denom := weights[0]
	for i := 1; i < len(weights); i++ {
		denom += weights[i]
		if denom == 0 {
			dst = append(dst, 0)
			continue
		}
		dst = append(dst, weights[i]/denom)
	}
	return dst
}

// SuccessiveSlerp spherically interpolates a run of quaternions using
// pre-computed pair weights. The accumulator starts at quats[0] and is slerped
// toward quats[i] by pairWeights[i-1] for each following quaternion.
//
// Parameters:
//   - quats: the quaternions to combine (must be at least len(pairWeights)+1 long)
//   - pairWeights: pair weights from SlerpPairWeights
//
// Returns:
//   - mgl32.Quat: the blended, normalized quaternion
func SuccessiveSlerp(quats []mgl32.Quat, pairWeights []float32) mgl32.Quat {
	q := quats[0]
	for i, w := range pairWeights {
		q = mgl32.QuatSlerp(q, quats[i+1], w)
	}
	return q.Normalize()
}

// ComposeTRS builds a local matrix from translation, rotation, and scale,
// composed as T * R * S.
//
// Parameters:
//   - t: translation
//   - r: rotation quaternion
//   - s: scale
//
// Returns:
//   - mgl32.Mat4: the composed matrix
func ComposeTRS(t mgl32.Vec3, r mgl32.Quat, s mgl32.Vec3) mgl32.Mat4 {
	translation := mgl32.Translate3D(t.X(), t.Y(), t.Z())
	scale := mgl32.Scale3D(s.X(), s.Y(), s.Z())
	return translation.Mul4(r.Mat4()).Mul4(scale)
}

// IsFiniteQuat reports whether every component of the quaternion is finite.
//
// Parameters:
//   - q: the quaternion to check
//
// Returns:
//   - bool: true if no component is NaN or infinite
func IsFiniteQuat(q mgl32.Quat) bool {
	return isFinite(q.W) && isFinite(q.V.X()) && isFinite(q.V.Y()) && isFinite(q.V.Z())
}

// IsFiniteVec3 reports whether every component of the vector is finite.
//
// Parameters:
//   - v: the vector to check
//
// Returns:
//   - bool: true if no component is NaN or infinite
func IsFiniteVec3(v mgl32.Vec3) bool {
	return isFinite(v.X()) && isFinite(v.Y()) && isFinite(v.Z())
}

func isFinite(f float32) bool {
	f64 := float64(f)
	return !math.IsNaN(f64) && !math.IsInf(f64, 0)
}
