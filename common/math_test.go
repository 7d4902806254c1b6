package common

import (
	"math"
	"testing"

	"github.com/go-gl/mathgl/mgl32"
)

func quatApproxEqual(a, b mgl32.Quat, tol float32) bool {
	// q and -q are the same rotation
	d := a.Dot(b)
	return float32(math.Abs(float64(d))) > 1-tol
}

func TestSlerpPairWeightsTwoClips(t *testing.T) {
	weights := []float32{0.25, 0.75}
	pair := SlerpPairWeights(weights, nil)
	if len(pair) != 1 {
		t.Fatalf("pair weight count = %d, want 1", len(pair))
	}
	if math.Abs(float64(pair[0]-0.75)) > 1e-6 {
		t.Fatalf("pair[0] = %f, want 0.75", pair[0])
	}
}

func TestSuccessiveSlerpMatchesPairwiseSlerp(t *testing.T) {
	q0 := mgl32.QuatIdent()
	q1 := mgl32.QuatRotate(float32(math.Pi/2), mgl32.Vec3{0, 1, 0})

	pair := SlerpPairWeights([]float32{0.5, 0.5}, nil)
	got := SuccessiveSlerp([]mgl32.Quat{q0, q1}, pair)
	want := mgl32.QuatSlerp(q0, q1, 0.5)

	if !quatApproxEqual(got, want, 1e-5) {
		t.Fatalf("SuccessiveSlerp = %v, want %v", got, want)
	}
}

func TestSuccessiveSlerpEqualThirds(t *testing.T) {
	// Three equal weights: every quaternion should pull the average evenly
	q := []mgl32.Quat{
		mgl32.QuatRotate(0.2, mgl32.Vec3{1, 0, 0}),
		mgl32.QuatRotate(0.4, mgl32.Vec3{1, 0, 0}),
		mgl32.QuatRotate(0.6, mgl32.Vec3{1, 0, 0}),
	}
	pair := SlerpPairWeights([]float32{1.0 / 3, 1.0 / 3, 1.0 / 3}, nil)
	got := SuccessiveSlerp(q, pair)
	want := mgl32.QuatRotate(0.4, mgl32.Vec3{1, 0, 0})

	if !quatApproxEqual(got, want, 1e-4) {
		t.Fatalf("blended rotation = %v, want %v", got, want)
	}
}

func TestWeightedSumVec3(t *testing.T) {
	vals := []mgl32.Vec3{{1, 0, 0}, {0, 1, 0}}
	got := WeightedSumVec3(vals, []float32{0.5, 0.5})
	want := mgl32.Vec3{0.5, 0.5, 0}
	if got.Sub(want).Len() > 1e-6 {
		t.Fatalf("WeightedSumVec3 = %v, want %v", got, want)
	}
}

func TestComposeTRSOrdering(t *testing.T) {
	// Scale then rotate then translate: a unit X point under 90° yaw and
	// scale 2 should land at translation + (0, 0, -2)
	m := ComposeTRS(
		mgl32.Vec3{1, 2, 3},
		mgl32.QuatRotate(float32(math.Pi/2), mgl32.Vec3{0, 1, 0}),
		mgl32.Vec3{2, 2, 2},
	)
	got := mgl32.TransformCoordinate(mgl32.Vec3{1, 0, 0}, m)
	want := mgl32.Vec3{1, 2, 1}
	if got.Sub(want).Len() > 1e-5 {
		t.Fatalf("transformed point = %v, want %v", got, want)
	}
}

func TestIsFiniteQuat(t *testing.T) {
	if !IsFiniteQuat(mgl32.QuatIdent()) {
		t.Fatal("identity quaternion should be finite")
	}
	bad := mgl32.Quat{W: float32(math.NaN())}
	if IsFiniteQuat(bad) {
		t.Fatal("NaN quaternion should not be finite")
	}
}
