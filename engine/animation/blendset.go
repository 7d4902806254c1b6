package animation

import (
	"github.com/go-gl/mathgl/mgl32"
)

// BlendSet is the per-frame scratch buffer the blend queue samples clips
// into. It holds three parallel flat arrays of stride * numJoints entries;
// the sample for clip c at joint j lives at index j*stride + c, so one
// joint's samples across all clips are contiguous for the blend pass.
type BlendSet struct {
	stride    int
	numJoints int

	// Translations are the sampled translations, one per (joint, clip).
	Translations []mgl32.Vec3

	// Rotations are the sampled rotations, one per (joint, clip).
	Rotations []mgl32.Quat

	// Scales are the sampled scales, one per (joint, clip).
	Scales []mgl32.Vec3
}

// Resize prepares the set for a frame with the given active clip count and
// animated joint count. Backing arrays are reused when capacity allows.
//
// Parameters:
//   - stride: the number of active clips
//   - numJoints: the number of animated joints
func (b *BlendSet) Resize(stride, numJoints int) {
	b.stride = stride
	b.numJoints = numJoints
	n := stride * numJoints
	if cap(b.Translations) < n {
		b.Translations = make([]mgl32.Vec3, n)
		b.Rotations = make([]mgl32.Quat, n)
		b.Scales = make([]mgl32.Vec3, n)
		return
	}
	b.Translations = b.Translations[:n]
	b.Rotations = b.Rotations[:n]
	b.Scales = b.Scales[:n]
}

// Stride returns the active clip count the set was sized for.
//
// Returns:
//   - int: the stride
func (b *BlendSet) Stride() int {
	return b.stride
}

// NumJoints returns the animated joint count the set was sized for.
//
// Returns:
//   - int: the joint count
func (b *BlendSet) NumJoints() int {
	return b.numJoints
}

// Set writes one sample.
//
// Parameters:
//   - joint: the animated-joint slot
//   - clipIndex: the active clip's index
//   - t: the sampled translation
//   - r: the sampled rotation
//   - s: the sampled scale
func (b *BlendSet) Set(joint, clipIndex int, t mgl32.Vec3, r mgl32.Quat, s mgl32.Vec3) {
	idx := joint*b.stride + clipIndex
	b.Translations[idx] = t
	b.Rotations[idx] = r
	b.Scales[idx] = s
}
