package skeleton

import (
	"errors"
	"testing"

	"github.com/Carmen-Shannon/rig-go/common"
	"github.com/go-gl/mathgl/mgl32"
)

func buildTestSkeleton(t *testing.T) *Skeleton {
	t.Helper()
	b := NewBuilder()
	root, err := b.AddJoint("root", -1, common.IdentityTransform())
	if err != nil {
		t.Fatal(err)
	}
	spine, err := b.AddJoint("spine", int32(root), common.IdentityTransform())
	if err != nil {
		t.Fatal(err)
	}
	arm, err := b.AddJoint("arm", int32(spine), common.IdentityTransform())
	if err != nil {
		t.Fatal(err)
	}

	if err := b.MarkAnimated(spine); err != nil {
		t.Fatal(err)
	}
	if err := b.MarkAnimated(arm); err != nil {
		t.Fatal(err)
	}
	if err := b.BindBone(spine, mgl32.Ident4()); err != nil {
		t.Fatal(err)
	}
	if err := b.BindBone(arm, mgl32.Ident4()); err != nil {
		t.Fatal(err)
	}

	s, err := b.Build()
	if err != nil {
		t.Fatal(err)
	}
	return s
}

func TestBuildAssignsContiguousIndices(t *testing.T) {
	s := buildTestSkeleton(t)

	if s.NumAnimatedJoints() != 2 {
		t.Fatalf("NumAnimatedJoints = %d, want 2", s.NumAnimatedJoints())
	}
	if s.BoneCount() != 2 {
		t.Fatalf("BoneCount = %d, want 2", s.BoneCount())
	}

	seenTransform := map[int32]bool{}
	seenBone := map[uint32]bool{}
	for i := 0; i < s.NumNodes(); i++ {
		j := s.Node(uint32(i))
		if j.IsAnimated {
			if seenTransform[j.TransformIndex] {
				t.Fatalf("duplicate transform index %d", j.TransformIndex)
			}
			seenTransform[j.TransformIndex] = true
			if j.TransformIndex < 0 || j.TransformIndex >= int32(s.NumAnimatedJoints()) {
				t.Fatalf("transform index %d out of range", j.TransformIndex)
			}
		}
		if j.HasBone() {
			if seenBone[j.Bone.Index] {
				t.Fatalf("duplicate bone index %d", j.Bone.Index)
			}
			seenBone[j.Bone.Index] = true
		}
	}
}

func TestBuildRejectsMultipleRoots(t *testing.T) {
	b := NewBuilder()
	if _, err := b.AddJoint("a", -1, common.IdentityTransform()); err != nil {
		t.Fatal(err)
	}
	if _, err := b.AddJoint("b", -1, common.IdentityTransform()); err != nil {
		t.Fatal(err)
	}
	if _, err := b.Build(); err == nil {
		t.Fatal("expected error for two roots")
	}
}

func TestAddJointRejectsForwardParent(t *testing.T) {
	b := NewBuilder()
	if _, err := b.AddJoint("a", 5, common.IdentityTransform()); !errors.Is(err, ErrInvalidSkeletonIndex) {
		t.Fatalf("err = %v, want ErrInvalidSkeletonIndex", err)
	}
}

func TestBoneNodesMapping(t *testing.T) {
	s := buildTestSkeleton(t)
	for boneIdx, nodeIdx := range s.BoneNodes() {
		j := s.Node(nodeIdx)
		if !j.HasBone() || j.Bone.Index != uint32(boneIdx) {
			t.Fatalf("bone %d maps to node %d with mismatched bone data", boneIdx, nodeIdx)
		}
	}
}

func TestIdentityPose(t *testing.T) {
	s := buildTestSkeleton(t)
	var pose []mgl32.Mat4
	s.IdentityPose(&pose)
	if len(pose) != s.BoneCount() {
		t.Fatalf("pose length = %d, want %d", len(pose), s.BoneCount())
	}
	for i, m := range pose {
		if m != mgl32.Ident4() {
			t.Fatalf("pose[%d] is not identity", i)
		}
	}
}
