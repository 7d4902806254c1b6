package animation

import (
	"sync"
	"testing"

	"github.com/Carmen-Shannon/rig-go/engine/clip"
	"github.com/go-gl/mathgl/mgl32"
)

func TestActionsApplyInFIFOOrder(t *testing.T) {
	f := newFixture(t)
	a := f.addState(t, "A", constantClip("ca", mgl32.Vec3{1, 0, 0}), clip.PlaybackLoop)
	b := f.addState(t, "B", constantClip("cb", mgl32.Vec3{0, 1, 0}), clip.PlaybackLoop)
	c := f.addState(t, "C", constantClip("cc", mgl32.Vec3{0, 0, 1}), clip.PlaybackLoop)
	f.connect(t, a, b, 0)
	f.connect(t, b, c, 0)

	m := f.ctrl.AddMotion(a)
	m.QueueMove("B")
	m.QueueMove("C")

	f.tick(0)

	if cur := m.CurrentState(); cur == nil || cur.Uuid() != c.Uuid() {
		t.Fatalf("current state = %v, want C (both moves applied in order)", cur)
	}
}

func TestQueueMoveUnknownStateReturnsFalse(t *testing.T) {
	f := newFixture(t)
	a := f.addState(t, "A", constantClip("ca", mgl32.Vec3{1, 0, 0}), clip.PlaybackLoop)
	m := f.ctrl.AddMotion(a)

	if m.QueueMove("missing") {
		t.Fatal("QueueMove to a missing state should return false")
	}
	f.tick(0)
	if cur := m.CurrentState(); cur == nil || cur.Uuid() != a.Uuid() {
		t.Fatal("motion should stay put after a rejected queue")
	}
}

func TestConcurrentQueueingIsSafe(t *testing.T) {
	f := newFixture(t)
	a := f.addState(t, "A", constantClip("ca", mgl32.Vec3{1, 0, 0}), clip.PlaybackLoop)
	b := f.addState(t, "B", constantClip("cb", mgl32.Vec3{0, 1, 0}), clip.PlaybackLoop)
	f.connect(t, a, b, 0)
	f.connect(t, b, a, 0)
	m := f.ctrl.AddMotion(a)

	var wg sync.WaitGroup
	for g := 0; g < 8; g++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := 0; i < 100; i++ {
				m.QueueMove("B")
				m.QueueMove("A")
			}
		}()
	}
	done := make(chan struct{})
	go func() {
		defer close(done)
		for i := 0; i < 50; i++ {
			f.ctrl.Advance(0.001, true)
		}
	}()
	wg.Wait()
	<-done

	f.tick(0)
	if m.CurrentState() == nil {
		t.Fatal("motion lost its state under concurrent queueing")
	}
}

func TestPaletteIntoSizeMismatch(t *testing.T) {
	f := newFixture(t)
	s := f.addState(t, "S", constantClip("c", mgl32.Vec3{1, 0, 0}), clip.PlaybackLoop)
	f.ctrl.AddMotion(s)
	f.tick(0.1)

	wrong := make([]mgl32.Mat4, 7)
	if err := f.ctrl.PaletteInto(wrong); err == nil {
		t.Fatal("expected ErrPaletteSizeMismatch")
	}

	right := make([]mgl32.Mat4, f.ctrl.Skeleton().BoneCount())
	if err := f.ctrl.PaletteInto(right); err != nil {
		t.Fatalf("PaletteInto with the right size failed: %v", err)
	}
}

func TestStatusSnapshot(t *testing.T) {
	f := newFixture(t)
	s := f.addState(t, "S", constantClip("c", mgl32.Vec3{1, 0, 0}), clip.PlaybackLoop)
	m := f.ctrl.AddMotion(s)
	m.SetName("hero")
	f.tick(0.25)

	st := f.ctrl.Status()
	if !st.Playing {
		t.Fatal("controller should report playing")
	}
	if len(st.Motions) != 1 {
		t.Fatalf("motion snapshots = %d, want 1", len(st.Motions))
	}
	snap := st.Motions[0]
	if snap.Name != "hero" || snap.StateName != "S" {
		t.Fatalf("snapshot = %+v", snap)
	}
	if snap.ElapsedSec < 0.24 || snap.ElapsedSec > 0.26 {
		t.Fatalf("snapshot elapsed = %f, want ~0.25", snap.ElapsedSec)
	}
}

func TestAdvanceWithoutSkeletonIsNoOp(t *testing.T) {
	f := newFixture(t)
	ctrl := NewController("skeletonless",
		WithClipStore(f.store),
		WithMachine(f.sm),
		WithClock(f.clock.Now),
	)
	ctrl.Advance(0.1, true)
	if got := len(ctrl.Palette(nil)); got != 0 {
		t.Fatalf("palette length = %d, want 0 before the skeleton loads", got)
	}
}

func TestPausedControllerHoldsPalette(t *testing.T) {
	f := newFixture(t)
	s := f.addState(t, "S", slideClip("slide"), clip.PlaybackLoop)
	f.ctrl.AddMotion(s)
	f.tick(0.25)
	before := f.paletteTranslation(t, 0)

	f.ctrl.SetPlaying(false)
	f.tick(0.5)
	after := f.paletteTranslation(t, 0)
	if !vecNear(before, after, 1e-6) {
		t.Fatalf("palette moved while the controller was stopped: %v -> %v", before, after)
	}
}
