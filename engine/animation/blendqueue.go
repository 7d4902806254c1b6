package animation

import (
	"fmt"

	"github.com/Carmen-Shannon/rig-go/common"
	"github.com/Carmen-Shannon/rig-go/engine/skeleton"
	"github.com/Carmen-Shannon/rig-go/engine/statemachine"
	"github.com/go-gl/mathgl/mgl32"
	"github.com/tanema/gween/ease"
)

// reportKey identifies an unresolved (state, clip) pair so the warning is
// logged once until the clip resolves.
type reportKey struct {
	state string
	clip  string
}

// BlendQueue runs the per-frame blend pipeline for one controller: gather
// the clips active across the controller's motions, resolve their weights
// under any running transitions, sample each clip at its local time, blend
// the samples jointwise, and compose the skeleton hierarchy into the matrix
// palette.
type BlendQueue struct {
	controller *Controller

	playData       []PlayData
	untimedWeights []float32
	clipWeights    []float32
	slerpWeights   []float32

	blendSet        BlendSet
	localTransforms []common.Transform

	// bindPose caches each animated joint's bind TRS by transform index, the
	// fallback for joints a clip does not cover.
	bindPose      []common.Transform
	bindPoseValid bool

	reported map[reportKey]struct{}
}

func (q *BlendQueue) init(c *Controller) {
	q.controller = c
	q.reported = make(map[reportKey]struct{})
}

func (q *BlendQueue) invalidateBindPose() {
	q.bindPoseValid = false
}

// NumActiveClips returns how many clips the last RefreshActiveClips gathered.
//
// Returns:
//   - int: the active clip count
func (q *BlendQueue) NumActiveClips() int {
	return len(q.playData)
}

// ClipWeights returns the normalized weights of the last UpdateWeights call,
// in gather order. The slice is owned by the queue.
//
// Returns:
//   - []float32: the normalized clip weights
func (q *BlendQueue) ClipWeights() []float32 {
	return q.clipWeights
}

// RefreshActiveClips clears and regathers the frame's active clips from
// every motion's current state. Clips whose handles are still loading are
// skipped (and reported once per state/clip pair); a transition contributes
// its start state's clips fading out and its end state's clips fading in.
func (q *BlendQueue) RefreshActiveClips() {
	c := q.controller
	q.playData = q.playData[:0]
	q.untimedWeights = q.untimedWeights[:0]
	q.slerpWeights = q.slerpWeights[:0]

	for _, m := range c.motions {
		switch s := m.CurrentState().(type) {
		case *statemachine.AnimationState:
			q.gatherState(m, s)
		case *statemachine.TransitionState:
			q.gatherTransition(m, s)
		case nil:
			// Motion has not moved yet
		}
	}

	if len(q.playData) > 0 {
		q.blendSet.Resize(len(q.playData), int(c.skeleton.NumAnimatedJoints()))
	}
}

func (q *BlendQueue) gatherState(m *Motion, s *statemachine.AnimationState) {
	for i := range s.Clips {
		ref := &s.Clips[i]
		cl := ref.Resolve(q.controller.clips)
		if cl == nil {
			q.reportUnresolved(s.Name(), ref.Name)
			continue
		}
		q.clearReport(s.Name(), ref.Name)
		q.playData = append(q.playData, PlayData{
			Clip:     cl,
			Settings: ref.Settings,
			Mode:     s.Playback,
			Timer:    m.Timer(),
		})
		q.untimedWeights = append(q.untimedWeights, ref.Settings.BlendWeight)
	}
}

func (q *BlendQueue) gatherTransition(m *Motion, t *statemachine.TransitionState) {
	sm := q.controller.machine
	start := t.Start(sm)
	end := t.End(sm)
	if start == nil || end == nil {
		return
	}

	transition := TransitionPlayData{
		TotalTime:   float32(t.TotalTime()),
		FadeInTime:  t.Settings.FadeInSec,
		FadeOutTime: t.Settings.FadeOutSec,
		FadeInEase:  t.Settings.FadeInEase,
		FadeOutEase: t.Settings.FadeOutEase,
	}
	frozen := t.Settings.Kind == statemachine.TransitionFirstFrozen

	for i := range start.Clips {
		ref := &start.Clips[i]
		cl := ref.Resolve(q.controller.clips)
		if cl == nil {
			q.reportUnresolved(t.Name(), ref.Name)
			continue
		}
		q.clearReport(t.Name(), ref.Name)
		q.playData = append(q.playData, PlayData{
			Clip:            cl,
			Settings:        ref.Settings,
			Mode:            start.Playback,
			Timer:           m.Timer(),
			Status:          PlayStatusFadingOut,
			TransitionTimer: *t.Timer(),
			Transition:      transition,
			Frozen:          frozen,
		})
		q.untimedWeights = append(q.untimedWeights, ref.Settings.BlendWeight*t.Settings.FadeOutWeight)
	}

	for i := range end.Clips {
		ref := &end.Clips[i]
		cl := ref.Resolve(q.controller.clips)
		if cl == nil {
			q.reportUnresolved(t.Name(), ref.Name)
			continue
		}
		q.clearReport(t.Name(), ref.Name)
		q.playData = append(q.playData, PlayData{
			Clip:            cl,
			Settings:        ref.Settings,
			Mode:            end.Playback,
			Timer:           m.Timer(),
			Status:          PlayStatusFadingIn,
			TransitionTimer: *t.Timer(),
			Transition:      transition,
		})
		q.untimedWeights = append(q.untimedWeights, ref.Settings.BlendWeight*t.Settings.FadeInWeight)
	}
}

func (q *BlendQueue) reportUnresolved(stateName, clipName string) {
	key := reportKey{state: stateName, clip: clipName}
	if _, seen := q.reported[key]; seen {
		return
	}
	q.reported[key] = struct{}{}
	q.controller.logger.Warn("clip unresolved, skipping",
		"controller", q.controller.name, "state", stateName, "clip", clipName, "error", ErrClipUnresolved)
}

func (q *BlendQueue) clearReport(stateName, clipName string) {
	delete(q.reported, reportKey{state: stateName, clip: clipName})
}

// UpdateWeights resolves this frame's clip weights: the gathered weights are
// scaled by each fading clip's eased fade progress, normalized to sum to
// one, and converted into the pair weights consumed by the successive-slerp
// rotation blend.
func (q *BlendQueue) UpdateWeights() {
	n := len(q.playData)
	q.clipWeights = append(q.clipWeights[:0], q.untimedWeights...)
	if n == 0 {
		return
	}

	for i := range q.playData {
		pd := &q.playData[i]
		t := &pd.Transition
		switch {
		case pd.IsFadingIn():
			transitionTime := float32(pd.TransitionTimer.Elapsed())
			var factor float32
			if t.FadeInTime > 0 {
				factor = (transitionTime - t.TotalTime + t.FadeInTime) / t.FadeInTime
			} else {
				factor = 1
			}
			q.clipWeights[i] *= applyEase(t.FadeInEase, clamp01(factor))
		case pd.IsFadingOut():
			transitionTime := float32(pd.TransitionTimer.Elapsed())
			var factor float32
			if t.FadeOutTime > 0 {
				factor = 1 - transitionTime/t.FadeOutTime
			}
			q.clipWeights[i] *= applyEase(t.FadeOutEase, clamp01(factor))
		}
	}

	q.normalizeClipWeights()
	q.slerpWeights = common.SlerpPairWeights(q.clipWeights, q.slerpWeights)
}

func (q *BlendQueue) normalizeClipWeights() {
	var sum float32
	for _, w := range q.clipWeights {
		sum += w
	}
	if sum <= 0 {
		return
	}
	inv := 1.0 / sum
	for i := range q.clipWeights {
		q.clipWeights[i] *= inv
	}
}

// applyEase maps a linear fade progress through the transition's easing
// curve; a nil curve is linear.
func applyEase(fn ease.TweenFunc, progress float32) float32 {
	if fn == nil {
		return progress
	}
	return fn(progress, 0, 1, 1)
}

func clamp01(f float32) float32 {
	if f < 0 {
		return 0
	}
	if f > 1 {
		return 1
	}
	return f
}

// SampleAndBlend samples every active clip at its local time into the blend
// set, then reduces the set jointwise into local transforms: translations
// and scales by weighted sum, rotations by successive slerp. Joints a clip
// does not cover contribute their bind pose; a non-finite blend result
// reverts the joint to bind pose for the frame.
func (q *BlendQueue) SampleAndBlend() {
	numClips := len(q.playData)
	q.localTransforms = q.localTransforms[:0]
	if numClips == 0 {
		return
	}

	q.refreshBindPose()
	stride := q.blendSet.Stride()
	numJoints := q.blendSet.NumJoints()

	// Seed every column with the bind pose so sparse clips blend against it
	for j := 0; j < numJoints; j++ {
		bind := q.bindPose[j]
		for ci := 0; ci < stride; ci++ {
			q.blendSet.Set(j, ci, bind.Translation, bind.Rotation, bind.Scale)
		}
	}

	for i := range q.playData {
		pd := &q.playData[i]
		elapsed := pd.Timer.Elapsed()
		if pd.Frozen {
			elapsed = 0
		}
		animTime, _ := pd.Clip.AnimationTime(elapsed, pd.Settings, pd.Mode)
		clipIndex := i
		pd.Clip.InterpolatedFrame(animTime, func(transformIndex int32, t mgl32.Vec3, r mgl32.Quat, s mgl32.Vec3) {
			if transformIndex < 0 || int(transformIndex) >= numJoints {
				return
			}
			q.blendSet.Set(int(transformIndex), clipIndex, t, r, s)
		})
	}

	if stride == 1 {
		for j := 0; j < numJoints; j++ {
			local := common.Transform{
				Translation: q.blendSet.Translations[j],
				Rotation:    q.blendSet.Rotations[j],
				Scale:       q.blendSet.Scales[j],
			}
			if !common.IsFiniteQuat(local.Rotation) || !common.IsFiniteVec3(local.Scale) || local.Scale.Len() == 0 {
				local = q.bindPose[j]
			}
			q.localTransforms = append(q.localTransforms, local)
		}
		return
	}

	for j := 0; j < numJoints; j++ {
		base := j * stride
		blended := common.Transform{
			Translation: common.WeightedSumVec3(q.blendSet.Translations[base:base+stride], q.clipWeights),
			Rotation:    common.SuccessiveSlerp(q.blendSet.Rotations[base:base+stride], q.slerpWeights),
			Scale:       common.WeightedSumVec3(q.blendSet.Scales[base:base+stride], q.clipWeights),
		}
		if !common.IsFiniteQuat(blended.Rotation) || !common.IsFiniteVec3(blended.Scale) || blended.Scale.Len() == 0 {
			blended = q.bindPose[j]
		}
		q.localTransforms = append(q.localTransforms, blended)
	}
}

// refreshBindPose rebuilds the transform-index ordered bind pose cache.
func (q *BlendQueue) refreshBindPose() {
	if q.bindPoseValid {
		return
	}
	skel := q.controller.skeleton
	n := int(skel.NumAnimatedJoints())
	if cap(q.bindPose) < n {
		q.bindPose = make([]common.Transform, n)
	}
	q.bindPose = q.bindPose[:n]
	for i := range q.bindPose {
		q.bindPose[i] = common.IdentityTransform()
	}
	for i := 0; i < skel.NumNodes(); i++ {
		joint := skel.Node(uint32(i))
		if joint.TransformIndex >= 0 && int(joint.TransformIndex) < n {
			q.bindPose[joint.TransformIndex] = joint.BindPose
		}
	}
	q.bindPoseValid = true
}

// ComposeHierarchy walks the skeleton depth-first from the root, replacing
// each animated joint's local bind matrix with its blended transform, and
// writes each bone's world matrix into out at the bone's palette slot.
//
// Parameters:
//   - out: the palette buffer; sized to the bone count when empty
//
// Returns:
//   - error: ErrPaletteSizeMismatch when out is non-empty with the wrong length
func (q *BlendQueue) ComposeHierarchy(out *[]mgl32.Mat4) error {
	skel := q.controller.skeleton
	numBones := skel.BoneCount()
	if len(*out) == 0 {
		if cap(*out) < numBones {
			*out = make([]mgl32.Mat4, numBones)
		}
		*out = (*out)[:numBones]
	} else if len(*out) != numBones {
		return fmt.Errorf("have %d bones, palette holds %d: %w", numBones, len(*out), ErrPaletteSizeMismatch)
	}

	q.composeJoint(skel, skel.Root(), mgl32.Ident4(), *out)
	return nil
}

func (q *BlendQueue) composeJoint(skel *skeleton.Skeleton, jointIndex uint32, parentWorld mgl32.Mat4, out []mgl32.Mat4) {
	joint := skel.Node(jointIndex)

	local := joint.LocalBind
	if joint.IsAnimated && int(joint.TransformIndex) < len(q.localTransforms) {
		local = q.localTransforms[joint.TransformIndex].Matrix()
	}

	world := parentWorld.Mul4(local)

	// Boneless joints shape the hierarchy but never reach the palette
	if joint.HasBone() {
		out[joint.Bone.Index] = world
	}

	for _, child := range joint.Children {
		q.composeJoint(skel, child, world, out)
	}
}
