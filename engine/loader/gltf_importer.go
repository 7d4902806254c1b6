package loader

import (
	"encoding/binary"
	"errors"
	"fmt"
	"math"
	"sort"

	"github.com/Carmen-Shannon/rig-go/common"
	"github.com/Carmen-Shannon/rig-go/engine/clip"
	"github.com/Carmen-Shannon/rig-go/engine/skeleton"
	"github.com/go-gl/mathgl/mgl32"
	"github.com/qmuntal/gltf"
)

// Common errors returned by the importer
var (
	errNoNodes          = errors.New("document has no nodes")
	errNotFloatAccessor = errors.New("accessor component type is not float")
)

// nodeChannels collects one animation's raw channel data for a single node.
type nodeChannels struct {
	translation *rawChannel
	rotation    *rawChannel
	scale       *rawChannel
}

// rawChannel is one sampler's timestamps and flat output values.
type rawChannel struct {
	times  []float32
	values []float32
}

// importRig extracts the skeleton and clips from a parsed glTF document.
func importRig(name string, doc *gltf.Document) (*Rig, error) {
	if len(doc.Nodes) == 0 {
		return nil, errNoNodes
	}

	// Build node parent hierarchy
	parents := make([]int, len(doc.Nodes))
	for i := range parents {
		parents[i] = -1
	}
	for parentIdx, node := range doc.Nodes {
		for _, childIdx := range node.Children {
			parents[childIdx] = parentIdx
		}
	}

	// Nodes targeted by any animation channel are the animated joints
	animated := make(map[int]bool)
	for _, anim := range doc.Animations {
		for _, channel := range anim.Channels {
			if channel.Target.Node != nil {
				animated[int(*channel.Target.Node)] = true
			}
		}
	}

	// Bone slots come from the first skin's joint list
	boneOffsets := make(map[int]mgl32.Mat4)
	if len(doc.Skins) > 0 {
		skin := doc.Skins[0]
		inverseBind := make([]mgl32.Mat4, len(skin.Joints))
		for i := range inverseBind {
			inverseBind[i] = mgl32.Ident4()
		}
		if skin.InverseBindMatrices != nil {
			matrices, err := readAccessorFloats(doc, int(*skin.InverseBindMatrices))
			if err != nil {
				return nil, fmt.Errorf("inverse bind matrices: %w", err)
			}
			for i := 0; i < len(skin.Joints) && i*16+16 <= len(matrices); i++ {
				// glTF stores matrices column-major, same as mgl32.Mat4
				copy(inverseBind[i][:], matrices[i*16:i*16+16])
			}
		}
		for i, jointIdx := range skin.Joints {
			boneOffsets[int(jointIdx)] = inverseBind[i]
		}
	}

	skel, nodeToJoint, err := buildSkeleton(doc, parents, animated, boneOffsets)
	if err != nil {
		return nil, err
	}

	rig := &Rig{Name: name, Skeleton: skel}
	for i, anim := range doc.Animations {
		clipName := anim.Name
		if clipName == "" {
			clipName = fmt.Sprintf("animation_%d", i)
		}
		c, err := importClip(doc, anim, clipName, skel, nodeToJoint)
		if err != nil {
			return nil, fmt.Errorf("animation %q: %w", clipName, err)
		}
		if c != nil {
			rig.Clips = append(rig.Clips, c)
		}
	}

	return rig, nil
}

// buildSkeleton assembles the joint hierarchy in depth-first pre-order. A
// synthetic root is added when the document has several root nodes, so the
// single-root invariant always holds.
func buildSkeleton(doc *gltf.Document, parents []int, animated map[int]bool, boneOffsets map[int]mgl32.Mat4) (*skeleton.Skeleton, map[int]uint32, error) {
	var roots []int
	for i, p := range parents {
		if p < 0 {
			roots = append(roots, i)
		}
	}

	builder := skeleton.NewBuilder()
	nodeToJoint := make(map[int]uint32, len(doc.Nodes))

	rootParent := int32(-1)
	if len(roots) > 1 {
		idx, err := builder.AddJoint("scene_root", -1, common.IdentityTransform())
		if err != nil {
			return nil, nil, err
		}
		rootParent = int32(idx)
	} else if len(roots) == 1 {
		rootLocal := nodeTransform(doc.Nodes[roots[0]])
		builder.SetGlobalInverse(rootLocal.Matrix().Inv())
	}

	var addNode func(nodeIdx int, parentJoint int32) error
	addNode = func(nodeIdx int, parentJoint int32) error {
		node := doc.Nodes[nodeIdx]
		jointName := node.Name
		if jointName == "" {
			jointName = fmt.Sprintf("node_%d", nodeIdx)
		}
		idx, err := builder.AddJoint(jointName, parentJoint, nodeTransform(node))
		if err != nil {
			return err
		}
		nodeToJoint[nodeIdx] = idx
		if animated[nodeIdx] {
			if err := builder.MarkAnimated(idx); err != nil {
				return err
			}
		}
		if offset, ok := boneOffsets[nodeIdx]; ok {
			if err := builder.BindBone(idx, offset); err != nil {
				return err
			}
		}
		for _, child := range node.Children {
			if err := addNode(int(child), int32(idx)); err != nil {
				return err
			}
		}
		return nil
	}

	for _, root := range roots {
		if err := addNode(root, rootParent); err != nil {
			return nil, nil, err
		}
	}

	skel, err := builder.Build()
	if err != nil {
		return nil, nil, err
	}
	return skel, nodeToJoint, nil
}

// nodeTransform reads a node's TRS, substituting identity components.
func nodeTransform(node *gltf.Node) common.Transform {
	t := common.IdentityTransform()
	if node.Translation != [3]float64{0, 0, 0} {
		t.Translation = mgl32.Vec3{
			float32(node.Translation[0]),
			float32(node.Translation[1]),
			float32(node.Translation[2]),
		}
	}
	if node.Rotation != [4]float64{0, 0, 0, 1} {
		t.Rotation = mgl32.Quat{
			W: float32(node.Rotation[3]),
			V: mgl32.Vec3{
				float32(node.Rotation[0]),
				float32(node.Rotation[1]),
				float32(node.Rotation[2]),
			},
		}
	}
	if node.Scale != [3]float64{1, 1, 1} && node.Scale != [3]float64{0, 0, 0} {
		t.Scale = mgl32.Vec3{
			float32(node.Scale[0]),
			float32(node.Scale[1]),
			float32(node.Scale[2]),
		}
	}
	return t
}

// importClip converts one glTF animation into a Clip. Every targeted node
// gets a track resampled onto the union key-time grid, so missing sampler
// times are interpolated against their nearest neighbors at load rather
// than at playback. glTF timestamps are seconds; clips keep them as ticks
// at a rate of one tick per second.
func importClip(doc *gltf.Document, anim *gltf.Animation, clipName string, skel *skeleton.Skeleton, nodeToJoint map[int]uint32) (*clip.Clip, error) {
	perNode := make(map[int]*nodeChannels)
	var keyTimes []float32

	for _, channel := range anim.Channels {
		if channel.Target.Node == nil {
			continue
		}
		sampler := anim.Samplers[channel.Sampler]

		times, err := readAccessorFloats(doc, int(sampler.Input))
		if err != nil {
			return nil, fmt.Errorf("sampler input: %w", err)
		}
		values, err := readAccessorFloats(doc, int(sampler.Output))
		if err != nil {
			return nil, fmt.Errorf("sampler output: %w", err)
		}
		if len(times) == 0 {
			continue
		}

		nodeIdx := int(*channel.Target.Node)
		nc, ok := perNode[nodeIdx]
		if !ok {
			nc = &nodeChannels{}
			perNode[nodeIdx] = nc
		}
		raw := &rawChannel{times: times, values: values}
		switch channel.Target.Path {
		case gltf.TRSTranslation:
			nc.translation = raw
		case gltf.TRSRotation:
			nc.rotation = raw
		case gltf.TRSScale:
			nc.scale = raw
		default:
			// Morph-target weights are not part of the rig
			continue
		}
		keyTimes = append(keyTimes, times...)
	}

	if len(perNode) == 0 {
		return nil, nil
	}

	keyTimes = sortUnique(keyTimes)
	duration := float64(keyTimes[len(keyTimes)-1])

	c := &clip.Clip{
		Name:           clipName,
		TicksPerSecond: 1.0,
		DurationTicks:  duration,
		KeyTimes:       keyTimes,
	}

	// Stable track order: document node order
	nodeIndices := make([]int, 0, len(perNode))
	for nodeIdx := range perNode {
		nodeIndices = append(nodeIndices, nodeIdx)
	}
	sort.Ints(nodeIndices)

	for _, nodeIdx := range nodeIndices {
		nc := perNode[nodeIdx]
		jointIdx, ok := nodeToJoint[nodeIdx]
		if !ok {
			continue
		}
		joint := skel.Node(jointIdx)
		base := joint.BindPose

		track := clip.NodeTrack{
			NodeName:       joint.Name,
			TransformIndex: joint.TransformIndex,
			Translations:   make([]mgl32.Vec3, len(keyTimes)),
			Rotations:      make([]mgl32.Quat, len(keyTimes)),
			Scales:         make([]mgl32.Vec3, len(keyTimes)),
		}
		for i, t := range keyTimes {
			track.Translations[i] = sampleVec3(nc.translation, t, base.Translation)
			track.Rotations[i] = sampleQuat(nc.rotation, t, base.Rotation)
			track.Scales[i] = sampleVec3(nc.scale, t, base.Scale)
		}
		if !joint.HasBone() {
			c.NumNonBones++
		}
		c.NodeTracks = append(c.NodeTracks, track)
	}

	return c, nil
}

// sampleVec3 linearly resamples a 3-component channel at time t, falling
// back to base when the channel is absent.
func sampleVec3(ch *rawChannel, t float32, base mgl32.Vec3) mgl32.Vec3 {
	if ch == nil || len(ch.times) == 0 {
		return base
	}
	i0, i1, factor := channelSpan(ch.times, t)
	v0 := mgl32.Vec3{ch.values[i0*3], ch.values[i0*3+1], ch.values[i0*3+2]}
	if i0 == i1 {
		return v0
	}
	v1 := mgl32.Vec3{ch.values[i1*3], ch.values[i1*3+1], ch.values[i1*3+2]}
	return common.LerpVec3(v0, v1, factor)
}

// sampleQuat spherically resamples a rotation channel at time t, falling
// back to base when the channel is absent.
func sampleQuat(ch *rawChannel, t float32, base mgl32.Quat) mgl32.Quat {
	if ch == nil || len(ch.times) == 0 {
		return base
	}
	i0, i1, factor := channelSpan(ch.times, t)
	q0 := mgl32.Quat{
		W: ch.values[i0*4+3],
		V: mgl32.Vec3{ch.values[i0*4], ch.values[i0*4+1], ch.values[i0*4+2]},
	}
	if i0 == i1 {
		return q0
	}
	q1 := mgl32.Quat{
		W: ch.values[i1*4+3],
		V: mgl32.Vec3{ch.values[i1*4], ch.values[i1*4+1], ch.values[i1*4+2]},
	}
	return mgl32.QuatSlerp(q0, q1, factor)
}

// channelSpan locates the keyframe pair bracketing t and the interpolation
// factor between them. Times outside the channel clamp to its ends.
func channelSpan(times []float32, t float32) (int, int, float32) {
	idx := sort.Search(len(times), func(i int) bool {
		return times[i] > t
	})
	if idx == 0 {
		return 0, 0, 0
	}
	if idx == len(times) {
		last := len(times) - 1
		return last, last, 0
	}
	i0 := idx - 1
	span := times[idx] - times[i0]
	if span <= 0 {
		return i0, i0, 0
	}
	return i0, idx, (t - times[i0]) / span
}

// sortUnique sorts timestamps ascending and removes duplicates.
func sortUnique(times []float32) []float32 {
	sort.Slice(times, func(i, j int) bool { return times[i] < times[j] })
	out := times[:0]
	for i, t := range times {
		if i == 0 || t != out[len(out)-1] {
			out = append(out, t)
		}
	}
	return out
}

// readAccessorFloats reads float data from a glTF accessor.
func readAccessorFloats(doc *gltf.Document, accessorIndex int) ([]float32, error) {
	if accessorIndex < 0 || accessorIndex >= len(doc.Accessors) {
		return nil, fmt.Errorf("invalid accessor index: %d", accessorIndex)
	}

	accessor := doc.Accessors[accessorIndex]
	if accessor.ComponentType != gltf.ComponentFloat {
		return nil, errNotFloatAccessor
	}
	if accessor.BufferView == nil {
		return nil, fmt.Errorf("accessor %d has no buffer view", accessorIndex)
	}
	bufferView := doc.BufferViews[*accessor.BufferView]
	buffer := doc.Buffers[bufferView.Buffer]

	data := buffer.Data[bufferView.ByteOffset+accessor.ByteOffset:]

	var elemCount int
	switch accessor.Type {
	case gltf.AccessorScalar:
		elemCount = 1
	case gltf.AccessorVec2:
		elemCount = 2
	case gltf.AccessorVec3:
		elemCount = 3
	case gltf.AccessorVec4:
		elemCount = 4
	case gltf.AccessorMat4:
		elemCount = 16
	default:
		return nil, fmt.Errorf("unsupported accessor type: %v", accessor.Type)
	}

	count := int(accessor.Count) * elemCount
	if count*4 > len(data) {
		return nil, fmt.Errorf("accessor %d overruns its buffer", accessorIndex)
	}

	out := make([]float32, count)
	for i := range out {
		out[i] = math.Float32frombits(binary.LittleEndian.Uint32(data[i*4:]))
	}
	return out, nil
}
