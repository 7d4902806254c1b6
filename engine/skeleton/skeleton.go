package skeleton

import (
	"errors"
	"fmt"

	"github.com/Carmen-Shannon/rig-go/common"
	"github.com/go-gl/mathgl/mgl32"
)

// ErrInvalidSkeletonIndex is returned when a joint, parent, or bone index
// falls outside the skeleton being built.
var ErrInvalidSkeletonIndex = errors.New("invalid skeleton index")

// Bone attaches a palette slot and inverse bind matrix to a joint. Joints
// without bones shape the hierarchy but are never uploaded for skinning.
type Bone struct {
	// Index is the bone's slot in the matrix palette.
	Index uint32

	// Offset is the inverse bind pose matrix (model space to bone space).
	Offset mgl32.Mat4
}

// Joint is a node in the skeleton hierarchy.
type Joint struct {
	// Name identifies the joint; animation tracks target joints by name.
	Name string

	// Parent is the index of the parent joint, or -1 for the root.
	Parent int32

	// Children are the indices of this joint's child joints.
	Children []uint32

	// LocalBind is the joint's bind-pose transform relative to its parent.
	LocalBind mgl32.Mat4

	// BindPose is LocalBind decomposed into TRS, used as the fallback pose
	// for joints a clip does not cover.
	BindPose common.Transform

	// IsAnimated marks joints that receive blended transforms each frame.
	IsAnimated bool

	// Bone is the attached bone, or nil for hierarchy-only joints.
	Bone *Bone

	// TransformIndex is the joint's slot in the blended-transform array, or
	// -1 for joints that are not animated.
	TransformIndex int32
}

// HasBone reports whether the joint carries a bone.
//
// Returns:
//   - bool: true if the joint influences skinned vertices
func (j *Joint) HasBone() bool {
	return j.Bone != nil
}

// Skeleton is an immutable per-model joint tree. It is shared read-only by
// every controller animating an instance of the model.
type Skeleton struct {
	nodes             []Joint
	rootIndex         uint32
	boneNodes         []uint32
	globalInverse     mgl32.Mat4
	inverseBindPose   []mgl32.Mat4
	numAnimatedJoints uint32
}

// Root returns the index of the root joint.
//
// Returns:
//   - uint32: the root joint index
func (s *Skeleton) Root() uint32 {
	return s.rootIndex
}

// Node returns the joint at the given index.
//
// Parameters:
//   - i: the joint index
//
// Returns:
//   - *Joint: the joint
func (s *Skeleton) Node(i uint32) *Joint {
	return &s.nodes[i]
}

// NumNodes returns the number of joints in the hierarchy.
//
// Returns:
//   - int: the joint count
func (s *Skeleton) NumNodes() int {
	return len(s.nodes)
}

// BoneCount returns the number of joints carrying bones, which is also the
// length of the matrix palette.
//
// Returns:
//   - int: the bone count
func (s *Skeleton) BoneCount() int {
	return len(s.boneNodes)
}

// BoneNodes maps bone index to joint index.
//
// Returns:
//   - []uint32: joint index per bone slot
func (s *Skeleton) BoneNodes() []uint32 {
	return s.boneNodes
}

// NumAnimatedJoints returns how many joints receive blended transforms.
//
// Returns:
//   - uint32: the animated joint count
func (s *Skeleton) NumAnimatedJoints() uint32 {
	return s.numAnimatedJoints
}

// GlobalInverseTransform returns the inverse of the model's root transform,
// applied shader-side together with the palette and inverse bind pose.
//
// Returns:
//   - mgl32.Mat4: the global inverse transform
func (s *Skeleton) GlobalInverseTransform() mgl32.Mat4 {
	return s.globalInverse
}

// InverseBindPose returns the per-bone inverse bind matrices, indexed by
// bone slot.
//
// Returns:
//   - []mgl32.Mat4: the inverse bind pose
func (s *Skeleton) InverseBindPose() []mgl32.Mat4 {
	return s.inverseBindPose
}

// IdentityPose fills out with one identity matrix per bone, sizing it as
// needed. Used to seed a controller's palette before the first blended frame.
//
// Parameters:
//   - out: the palette buffer to fill, resized to the bone count
func (s *Skeleton) IdentityPose(out *[]mgl32.Mat4) {
	n := len(s.boneNodes)
	if cap(*out) < n {
		*out = make([]mgl32.Mat4, n)
	}
	*out = (*out)[:n]
	for i := range *out {
		(*out)[i] = mgl32.Ident4()
	}
}

// Builder assembles and validates a Skeleton. Joints are added parent-first;
// Build checks the single-root, contiguous-transform-index, and unique-bone
// invariants before returning the immutable skeleton.
type Builder struct {
	nodes         []Joint
	globalInverse mgl32.Mat4
}

// NewBuilder creates a skeleton builder with an identity global inverse.
//
// Returns:
//   - *Builder: the new builder
func NewBuilder() *Builder {
	return &Builder{globalInverse: mgl32.Ident4()}
}

// SetGlobalInverse sets the inverse of the model's root transform.
//
// Parameters:
//   - m: the global inverse matrix
//
// Returns:
//   - *Builder: the builder, for chaining
func (b *Builder) SetGlobalInverse(m mgl32.Mat4) *Builder {
	b.globalInverse = m
	return b
}

// AddJoint appends a joint and wires it to its parent.
//
// Parameters:
//   - name: the joint name
//   - parent: the parent joint index, or -1 for the root
//   - bind: the local bind-pose transform
//
// Returns:
//   - uint32: the new joint's index
//   - error: ErrInvalidSkeletonIndex if parent is out of range
func (b *Builder) AddJoint(name string, parent int32, bind common.Transform) (uint32, error) {
	if parent >= int32(len(b.nodes)) {
		return 0, fmt.Errorf("joint %q parent %d: %w", name, parent, ErrInvalidSkeletonIndex)
	}
	idx := uint32(len(b.nodes))
	b.nodes = append(b.nodes, Joint{
		Name:           name,
		Parent:         parent,
		LocalBind:      bind.Matrix(),
		BindPose:       bind,
		TransformIndex: -1,
	})
	if parent >= 0 {
		b.nodes[parent].Children = append(b.nodes[parent].Children, idx)
	}
	return idx, nil
}

// MarkAnimated flags a joint as animated. Transform indices are assigned in
// joint order during Build.
//
// Parameters:
//   - joint: the joint index
//
// Returns:
//   - error: ErrInvalidSkeletonIndex if joint is out of range
func (b *Builder) MarkAnimated(joint uint32) error {
	if int(joint) >= len(b.nodes) {
		return fmt.Errorf("joint %d: %w", joint, ErrInvalidSkeletonIndex)
	}
	b.nodes[joint].IsAnimated = true
	return nil
}

// BindBone attaches a bone with the given inverse bind matrix to a joint.
// Bone palette slots are assigned in joint order during Build.
//
// Parameters:
//   - joint: the joint index
//   - offset: the inverse bind pose matrix
//
// Returns:
//   - error: ErrInvalidSkeletonIndex if joint is out of range
func (b *Builder) BindBone(joint uint32, offset mgl32.Mat4) error {
	if int(joint) >= len(b.nodes) {
		return fmt.Errorf("joint %d: %w", joint, ErrInvalidSkeletonIndex)
	}
	b.nodes[joint].Bone = &Bone{Offset: offset}
	return nil
}

// Build validates the hierarchy and produces the immutable skeleton.
//
// Returns:
//   - *Skeleton: the built skeleton
//   - error: if the hierarchy has no root or multiple roots (parent order is checked earlier, by AddJoint)
func (b *Builder) Build() (*Skeleton, error) {
	s := &Skeleton{
		nodes:         b.nodes,
		globalInverse: b.globalInverse,
	}
	b.nodes = nil

	rootCount := 0
	for i := range s.nodes {
		j := &s.nodes[i]
		if j.Parent < 0 {
			s.rootIndex = uint32(i)
			rootCount++
		}
		if j.IsAnimated {
			j.TransformIndex = int32(s.numAnimatedJoints)
			s.numAnimatedJoints++
		}
		if j.Bone != nil {
			j.Bone.Index = uint32(len(s.boneNodes))
			s.boneNodes = append(s.boneNodes, uint32(i))
			s.inverseBindPose = append(s.inverseBindPose, j.Bone.Offset)
		}
	}

	if rootCount != 1 {
		return nil, fmt.Errorf("skeleton has %d roots, want exactly 1", rootCount)
	}
	return s, nil
}
