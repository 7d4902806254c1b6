package animation

import (
	"math"
	"testing"

	"github.com/Carmen-Shannon/rig-go/common"
	"github.com/Carmen-Shannon/rig-go/engine/clip"
	"github.com/Carmen-Shannon/rig-go/engine/skeleton"
	"github.com/Carmen-Shannon/rig-go/engine/statemachine"
	"github.com/go-gl/mathgl/mgl32"
)

func TestWeightNormalization(t *testing.T) {
	f := newFixture(t)
	a := f.addState(t, "A", constantClip("ca", mgl32.Vec3{1, 0, 0}), clip.PlaybackLoop)
	b := f.addState(t, "B", constantClip("cb", mgl32.Vec3{0, 1, 0}), clip.PlaybackLoop)
	f.connect(t, a, b, 1.0)

	m := f.ctrl.AddMotion(a)
	m.QueueMove("B")
	f.tick(0)
	f.tick(0.25)

	weights := f.ctrl.blendQueue.ClipWeights()
	if len(weights) != 2 {
		t.Fatalf("active clips = %d, want 2", len(weights))
	}
	var sum float32
	for _, w := range weights {
		sum += w
	}
	if math.Abs(float64(sum)-1) > 1e-5 {
		t.Fatalf("weight sum = %f, want 1", sum)
	}
}

func TestTransitionWeightMonotonicity(t *testing.T) {
	f := newFixture(t)
	a := f.addState(t, "A", constantClip("ca", mgl32.Vec3{1, 0, 0}), clip.PlaybackLoop)
	b := f.addState(t, "B", constantClip("cb", mgl32.Vec3{0, 1, 0}), clip.PlaybackLoop)
	f.connect(t, a, b, 1.0)

	m := f.ctrl.AddMotion(a)
	m.QueueMove("B")
	f.tick(0)

	var lastOut, lastIn float32 = 2, -1
	samples := 0
	for i := 0; i < 10; i++ {
		f.tick(0.1)
		weights := f.ctrl.blendQueue.ClipWeights()
		if len(weights) != 2 {
			// Transition completed, nothing left to check
			break
		}
		fadingOut, fadingIn := weights[0], weights[1]
		if fadingOut > lastOut+1e-6 {
			t.Fatalf("fade-out weight rose from %f to %f", lastOut, fadingOut)
		}
		if fadingIn < lastIn-1e-6 {
			t.Fatalf("fade-in weight fell from %f to %f", lastIn, fadingIn)
		}
		lastOut, lastIn = fadingOut, fadingIn
		samples++
	}
	if samples < 5 {
		t.Fatalf("observed only %d transition frames", samples)
	}
	if lastOut >= lastIn {
		t.Fatalf("fade-out %f should end below fade-in %f", lastOut, lastIn)
	}
}

// multiBoneFixture builds a three-bone chain so hierarchy composition and
// bone coverage have something to walk.
func multiBoneFixture(t *testing.T) *fixture {
	t.Helper()
	b := skeleton.NewBuilder()
	root, err := b.AddJoint("root", -1, common.IdentityTransform())
	if err != nil {
		t.Fatal(err)
	}
	hip := common.IdentityTransform()
	hip.Translation = mgl32.Vec3{0, 1, 0}
	j1, err := b.AddJoint("hip", int32(root), hip)
	if err != nil {
		t.Fatal(err)
	}
	knee := common.IdentityTransform()
	knee.Translation = mgl32.Vec3{0, 1, 0}
	j2, err := b.AddJoint("knee", int32(j1), knee)
	if err != nil {
		t.Fatal(err)
	}
	for _, j := range []uint32{root, j1, j2} {
		if err := b.BindBone(j, mgl32.Ident4()); err != nil {
			t.Fatal(err)
		}
	}
	if err := b.MarkAnimated(j1); err != nil {
		t.Fatal(err)
	}
	skel, err := b.Build()
	if err != nil {
		t.Fatal(err)
	}

	f := &fixture{
		clock: common.NewManualClock(),
		store: clip.NewStore(),
		sm:    statemachine.New("multibone"),
	}
	f.sm.SetClock(f.clock.Now)
	f.ctrl = NewController("multibone",
		WithSkeleton(skel),
		WithClipStore(f.store),
		WithMachine(f.sm),
		WithClock(f.clock.Now),
	)
	return f
}

func TestComposeHierarchyCoversEveryBone(t *testing.T) {
	f := multiBoneFixture(t)

	// hip slides +X over one second; knee and root ride the bind pose
	c := &clip.Clip{
		Name:           "hipslide",
		TicksPerSecond: 25,
		DurationTicks:  25,
		KeyTimes:       []float32{0, 25},
		NodeTracks: []clip.NodeTrack{
			{
				NodeName:       "hip",
				TransformIndex: 0,
				Translations:   []mgl32.Vec3{{0, 1, 0}, {1, 1, 0}},
				Rotations:      []mgl32.Quat{mgl32.QuatIdent(), mgl32.QuatIdent()},
				Scales:         []mgl32.Vec3{{1, 1, 1}, {1, 1, 1}},
			},
		},
	}
	s := f.addState(t, "S", c, clip.PlaybackLoop)
	f.ctrl.AddMotion(s)
	f.tick(0.5)

	palette := f.ctrl.Palette(nil)
	if len(palette) != 3 {
		t.Fatalf("palette length = %d, want 3", len(palette))
	}

	// Bone order follows joint order: root, hip, knee
	rootT := mgl32.Vec3{palette[0][12], palette[0][13], palette[0][14]}
	hipT := mgl32.Vec3{palette[1][12], palette[1][13], palette[1][14]}
	kneeT := mgl32.Vec3{palette[2][12], palette[2][13], palette[2][14]}

	if !vecNear(rootT, mgl32.Vec3{0, 0, 0}, 1e-5) {
		t.Fatalf("root = %v, want origin", rootT)
	}
	if !vecNear(hipT, mgl32.Vec3{0.5, 1, 0}, 1e-5) {
		t.Fatalf("hip = %v, want (0.5,1,0)", hipT)
	}
	// The knee hangs off the animated hip, so it inherits the slide
	if !vecNear(kneeT, mgl32.Vec3{0.5, 2, 0}, 1e-5) {
		t.Fatalf("knee = %v, want (0.5,2,0)", kneeT)
	}
}

func TestUnresolvedClipIsSkipped(t *testing.T) {
	f := newFixture(t)

	s := f.addState(t, "S", constantClip("loaded", mgl32.Vec3{1, 0, 0}), clip.PlaybackLoop)
	s.AddClip(clip.NewRef("pending", "pending"))
	f.store.Declare("pending")

	f.ctrl.AddMotion(s)
	f.tick(0.1)

	if got := f.ctrl.blendQueue.NumActiveClips(); got != 1 {
		t.Fatalf("active clips = %d, want 1 (unresolved skipped)", got)
	}
	got := f.paletteTranslation(t, 0)
	if !vecNear(got, mgl32.Vec3{1, 0, 0}, 1e-5) {
		t.Fatalf("palette = %v, want the loaded clip's pose", got)
	}

	// Publishing the clip brings it into the next frame's active set
	f.store.Publish("pending", constantClip("pending", mgl32.Vec3{0, 1, 0}))
	f.tick(0.1)
	if got := f.ctrl.blendQueue.NumActiveClips(); got != 2 {
		t.Fatalf("active clips after publish = %d, want 2", got)
	}
}

func TestNonFiniteRotationFallsBackToBindPose(t *testing.T) {
	f := newFixture(t)

	bad := constantClip("bad", mgl32.Vec3{5, 5, 5})
	bad.NodeTracks[0].Rotations[0] = mgl32.Quat{W: float32(math.NaN())}
	other := constantClip("other", mgl32.Vec3{1, 0, 0})

	s := f.addState(t, "S", bad, clip.PlaybackLoop)
	f.store.Publish(other.Name, other)
	s.AddClip(clip.NewRef(other.Name, other.Name))

	f.ctrl.AddMotion(s)
	f.tick(0.1)

	// The blended rotation is poisoned, so the joint reverts to bind pose
	got := f.paletteTranslation(t, 0)
	if !vecNear(got, mgl32.Vec3{0, 0, 0}, 1e-5) {
		t.Fatalf("palette = %v, want bind pose origin", got)
	}
}

func TestFirstFrozenTransitionFreezesOutgoingClips(t *testing.T) {
	f := newFixture(t)
	a := f.addState(t, "A", slideClip("slide"), clip.PlaybackLoop)
	b := f.addState(t, "B", constantClip("cb", mgl32.Vec3{0, 1, 0}), clip.PlaybackLoop)

	connIdx, err := f.sm.AddConnection(a.Id(), b.Id())
	if err != nil {
		t.Fatal(err)
	}
	tr := statemachine.NewTransitionState("freeze", statemachine.TransitionSettings{
		Kind:          statemachine.TransitionFirstFrozen,
		FadeInSec:     1,
		FadeOutSec:    1,
		FadeInWeight:  1,
		FadeOutWeight: 1,
	})
	if _, err := f.sm.AddTransition(tr, connIdx); err != nil {
		t.Fatal(err)
	}

	m := f.ctrl.AddMotion(a)
	m.QueueMove("B")
	f.tick(0)
	f.tick(0.5)

	// The outgoing slide is frozen on its first frame (origin), so the
	// midpoint blend is pure fade-in of B at half weight
	got := f.paletteTranslation(t, 0)
	if !vecNear(got, mgl32.Vec3{0, 0.5, 0}, 1e-5) {
		t.Fatalf("palette = %v, want (0,0.5,0) with the outgoing clip frozen", got)
	}
}
