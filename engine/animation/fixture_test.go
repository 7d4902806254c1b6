package animation

import (
	"testing"
	"time"

	"github.com/Carmen-Shannon/rig-go/common"
	"github.com/Carmen-Shannon/rig-go/engine/clip"
	"github.com/Carmen-Shannon/rig-go/engine/skeleton"
	"github.com/Carmen-Shannon/rig-go/engine/statemachine"
	"github.com/go-gl/mathgl/mgl32"
)

// fixture wires a minimal runtime: a two-joint skeleton (root plus one
// animated bone), a clip store, a machine, and a controller, all driven by a
// manual clock.
type fixture struct {
	clock *common.ManualClock
	store *clip.Store
	sm    *statemachine.StateMachine
	ctrl  *Controller
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	f := &fixture{
		clock: common.NewManualClock(),
		store: clip.NewStore(),
		sm:    statemachine.New("test"),
	}
	f.sm.SetClock(f.clock.Now)
	f.ctrl = NewController("test",
		WithSkeleton(twoJointSkeleton(t)),
		WithClipStore(f.store),
		WithMachine(f.sm),
		WithClock(f.clock.Now),
	)
	return f
}

// tick advances the manual clock and runs one controller tick.
func (f *fixture) tick(dt float64) {
	f.clock.Advance(time.Duration(dt * float64(time.Second)))
	f.ctrl.Advance(dt, true)
}

// paletteTranslation reads the translation column of palette entry i.
func (f *fixture) paletteTranslation(t *testing.T, i int) mgl32.Vec3 {
	t.Helper()
	palette := f.ctrl.Palette(nil)
	if i >= len(palette) {
		t.Fatalf("palette has %d entries, want index %d", len(palette), i)
	}
	m := palette[i]
	return mgl32.Vec3{m[12], m[13], m[14]}
}

func twoJointSkeleton(t *testing.T) *skeleton.Skeleton {
	t.Helper()
	b := skeleton.NewBuilder()
	root, err := b.AddJoint("root", -1, common.IdentityTransform())
	if err != nil {
		t.Fatal(err)
	}
	bone0, err := b.AddJoint("bone0", int32(root), common.IdentityTransform())
	if err != nil {
		t.Fatal(err)
	}
	if err := b.MarkAnimated(bone0); err != nil {
		t.Fatal(err)
	}
	if err := b.BindBone(bone0, mgl32.Ident4()); err != nil {
		t.Fatal(err)
	}
	s, err := b.Build()
	if err != nil {
		t.Fatal(err)
	}
	return s
}

// slideClip is one second long at 25 ticks/sec, sliding bone0 from the
// origin to (1,0,0).
func slideClip(name string) *clip.Clip {
	return &clip.Clip{
		Name:           name,
		TicksPerSecond: 25,
		DurationTicks:  25,
		KeyTimes:       []float32{0, 25},
		NodeTracks: []clip.NodeTrack{
			{
				NodeName:       "bone0",
				TransformIndex: 0,
				Translations:   []mgl32.Vec3{{0, 0, 0}, {1, 0, 0}},
				Rotations:      []mgl32.Quat{mgl32.QuatIdent(), mgl32.QuatIdent()},
				Scales:         []mgl32.Vec3{{1, 1, 1}, {1, 1, 1}},
			},
		},
	}
}

// constantClip holds bone0 at a fixed translation.
func constantClip(name string, at mgl32.Vec3) *clip.Clip {
	return &clip.Clip{
		Name:           name,
		TicksPerSecond: 25,
		DurationTicks:  25,
		KeyTimes:       []float32{0},
		NodeTracks: []clip.NodeTrack{
			{
				NodeName:       "bone0",
				TransformIndex: 0,
				Translations:   []mgl32.Vec3{at},
				Rotations:      []mgl32.Quat{mgl32.QuatIdent()},
				Scales:         []mgl32.Vec3{{1, 1, 1}},
			},
		},
	}
}

// shortClip is a clip that finishes one play in the given seconds.
func shortClip(name string, seconds float64) *clip.Clip {
	return &clip.Clip{
		Name:           name,
		TicksPerSecond: 25,
		DurationTicks:  25 * seconds,
		KeyTimes:       []float32{0, float32(25 * seconds)},
		NodeTracks: []clip.NodeTrack{
			{
				NodeName:       "bone0",
				TransformIndex: 0,
				Translations:   []mgl32.Vec3{{0, 0, 0}, {0, 1, 0}},
				Rotations:      []mgl32.Quat{mgl32.QuatIdent(), mgl32.QuatIdent()},
				Scales:         []mgl32.Vec3{{1, 1, 1}, {1, 1, 1}},
			},
		},
	}
}

// addState registers a state playing one published clip.
func (f *fixture) addState(t *testing.T, name string, c *clip.Clip, mode clip.PlaybackMode) *statemachine.AnimationState {
	t.Helper()
	f.store.Publish(c.Name, c)
	s := statemachine.NewAnimationState(name)
	s.Playback = mode
	s.AddClip(clip.NewRef(c.Name, c.Name))
	f.sm.AddState(s)
	return s
}

// connect adds a connection, optionally with a smooth transition of the
// given symmetric fade time.
func (f *fixture) connect(t *testing.T, from, to *statemachine.AnimationState, fadeSec float32) *statemachine.TransitionState {
	t.Helper()
	connIdx, err := f.sm.AddConnection(from.Id(), to.Id())
	if err != nil {
		t.Fatal(err)
	}
	if fadeSec <= 0 {
		return nil
	}
	tr := statemachine.NewTransitionState(from.Name()+"_to_"+to.Name(), statemachine.TransitionSettings{
		Kind:          statemachine.TransitionSmooth,
		FadeInSec:     fadeSec,
		FadeOutSec:    fadeSec,
		FadeInWeight:  1,
		FadeOutWeight: 1,
	})
	if _, err := f.sm.AddTransition(tr, connIdx); err != nil {
		t.Fatal(err)
	}
	return tr
}
