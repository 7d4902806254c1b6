package statemachine

import (
	"errors"
	"testing"
)

func addStates(t *testing.T, sm *StateMachine, names ...string) []StateId {
	t.Helper()
	ids := make([]StateId, 0, len(names))
	for _, name := range names {
		ids = append(ids, sm.AddState(NewAnimationState(name)))
	}
	return ids
}

// checkIntegrity verifies that every cached connection index on every live
// state points at a live connection touching that state.
func checkIntegrity(t *testing.T, sm *StateMachine) {
	t.Helper()
	for _, s := range sm.LiveStates() {
		for _, connIdx := range s.Connections() {
			conn := sm.Connection(connIdx)
			if conn == nil {
				t.Fatalf("state %q caches erased connection %d", s.Name(), connIdx)
			}
			if conn.Start != s.MachineIndex() && conn.End != s.MachineIndex() {
				t.Fatalf("state %q caches connection %d that does not touch it", s.Name(), connIdx)
			}
		}
	}
}

func TestAddConnectionCachesBothEndpoints(t *testing.T) {
	sm := New("test")
	ids := addStates(t, sm, "a", "b")

	connIdx, err := sm.AddConnection(ids[0], ids[1])
	if err != nil {
		t.Fatal(err)
	}

	a := sm.AnimationStateAt(ids[0].Index)
	b := sm.AnimationStateAt(ids[1].Index)
	if len(a.Connections()) != 1 || a.Connections()[0] != connIdx {
		t.Fatalf("start cache = %v, want [%d]", a.Connections(), connIdx)
	}
	if len(b.Connections()) != 1 || b.Connections()[0] != connIdx {
		t.Fatalf("end cache = %v, want [%d]", b.Connections(), connIdx)
	}
	checkIntegrity(t, sm)
}

func TestConnectsToAndFrom(t *testing.T) {
	sm := New("test")
	ids := addStates(t, sm, "a", "b")
	connIdx, err := sm.AddConnection(ids[0], ids[1])
	if err != nil {
		t.Fatal(err)
	}

	a := sm.AnimationStateAt(ids[0].Index)
	b := sm.AnimationStateAt(ids[1].Index)

	if got, ok := sm.ConnectsTo(a, b); !ok || got != connIdx {
		t.Fatalf("ConnectsTo(a,b) = %d,%v want %d,true", got, ok, connIdx)
	}
	if _, ok := sm.ConnectsTo(b, a); ok {
		t.Fatal("ConnectsTo(b,a) should miss on a directed edge")
	}
	if got, ok := sm.ConnectsFrom(b, a); !ok || got != connIdx {
		t.Fatalf("ConnectsFrom(b,a) = %d,%v want %d,true", got, ok, connIdx)
	}
}

func TestRemoveStateRemovesTouchingConnections(t *testing.T) {
	sm := New("test")
	ids := addStates(t, sm, "a", "b", "c")
	if _, err := sm.AddConnection(ids[0], ids[1]); err != nil {
		t.Fatal(err)
	}
	if _, err := sm.AddConnection(ids[1], ids[2]); err != nil {
		t.Fatal(err)
	}

	if err := sm.RemoveState(ids[1]); err != nil {
		t.Fatal(err)
	}

	if sm.NumLiveConnections() != 0 {
		t.Fatalf("live connections = %d, want 0", sm.NumLiveConnections())
	}
	checkIntegrity(t, sm)
}

func TestSlotReuseAfterRemoval(t *testing.T) {
	sm := New("test")
	ids := addStates(t, sm, "s0", "s1", "s2")
	if _, err := sm.AddConnection(ids[0], ids[1]); err != nil {
		t.Fatal(err)
	}
	if _, err := sm.AddConnection(ids[1], ids[2]); err != nil {
		t.Fatal(err)
	}

	if err := sm.RemoveState(ids[1]); err != nil {
		t.Fatal(err)
	}

	d := NewAnimationState("d")
	dID := sm.AddState(d)
	if dID.Index != 1 {
		t.Fatalf("reused index = %d, want 1", dID.Index)
	}
	if len(d.Connections()) != 0 {
		t.Fatalf("fresh state in reused slot has %d cached connections, want 0", len(d.Connections()))
	}
	checkIntegrity(t, sm)
}

func TestSlotReuseAfterBulkRemoval(t *testing.T) {
	sm := New("test")
	const n = 8
	ids := make([]StateId, 0, n)
	for i := 0; i < n; i++ {
		ids = append(ids, sm.AddState(NewAnimationState(string(rune('a'+i)))))
	}
	for _, id := range ids {
		if err := sm.RemoveState(id); err != nil {
			t.Fatal(err)
		}
	}
	next := sm.AddState(NewAnimationState("reused"))
	if next.Index >= n {
		t.Fatalf("index after full removal = %d, want < %d", next.Index, n)
	}
}

func TestTransitionBinding(t *testing.T) {
	sm := New("test")
	ids := addStates(t, sm, "a", "b")
	connIdx, err := sm.AddConnection(ids[0], ids[1])
	if err != nil {
		t.Fatal(err)
	}

	tID, err := sm.AddTransition(NewTransitionState("a_to_b", TransitionSettings{FadeInSec: 1, FadeOutSec: 1}), connIdx)
	if err != nil {
		t.Fatal(err)
	}

	conn := sm.Connection(connIdx)
	if !conn.HasTransition() || conn.Transition != tID.Index {
		t.Fatalf("connection transition = %d, want %d", conn.Transition, tID.Index)
	}

	tr := sm.Transition(tID.Index)
	if tr.Start(sm).Name() != "a" || tr.End(sm).Name() != "b" {
		t.Fatalf("transition endpoints = %q -> %q, want a -> b", tr.Start(sm).Name(), tr.End(sm).Name())
	}

	// Second bind on the same connection must fail and change nothing
	if _, err := sm.AddTransition(NewTransitionState("dup", TransitionSettings{}), connIdx); !errors.Is(err, ErrTransitionAlreadyBound) {
		t.Fatalf("err = %v, want ErrTransitionAlreadyBound", err)
	}
	if sm.NumLiveTransitions() != 1 {
		t.Fatalf("live transitions = %d, want 1", sm.NumLiveTransitions())
	}
}

func TestRemoveConnectionRemovesTransition(t *testing.T) {
	sm := New("test")
	ids := addStates(t, sm, "a", "b")
	connIdx, err := sm.AddConnection(ids[0], ids[1])
	if err != nil {
		t.Fatal(err)
	}
	if _, err := sm.AddTransition(NewTransitionState("t", TransitionSettings{}), connIdx); err != nil {
		t.Fatal(err)
	}

	if err := sm.RemoveConnection(connIdx); err != nil {
		t.Fatal(err)
	}
	if sm.NumLiveTransitions() != 0 {
		t.Fatalf("live transitions = %d, want 0", sm.NumLiveTransitions())
	}
	if sm.Connection(connIdx) != nil {
		t.Fatal("erased connection still resolves")
	}
	checkIntegrity(t, sm)
}

func TestLookupByNameAndUuid(t *testing.T) {
	sm := New("test")
	ids := addStates(t, sm, "idle", "walk")
	connIdx, err := sm.AddConnection(ids[0], ids[1])
	if err != nil {
		t.Fatal(err)
	}
	if _, err := sm.AddTransition(NewTransitionState("idle_to_walk", TransitionSettings{}), connIdx); err != nil {
		t.Fatal(err)
	}

	if got := sm.StateByName("walk"); got == nil || got.Name() != "walk" {
		t.Fatal("lookup by name missed a live state")
	}
	if got := sm.StateByName("idle_to_walk"); got == nil || got.Type() != StateTypeTransition {
		t.Fatal("lookup by name should fall through to transitions")
	}
	if sm.StateByName("nope") != nil {
		t.Fatal("lookup miss should return nil")
	}

	walk := sm.StateByName("walk")
	if got := sm.StateByUuid(walk.Uuid()); got != walk {
		t.Fatal("lookup by uuid missed")
	}
}

func TestErasedSlotDetectableThroughMachineIndex(t *testing.T) {
	sm := New("test")
	ids := addStates(t, sm, "a", "b")
	connIdx, err := sm.AddConnection(ids[0], ids[1])
	if err != nil {
		t.Fatal(err)
	}
	if err := sm.RemoveConnection(connIdx); err != nil {
		t.Fatal(err)
	}
	// A stale handle held by a caller must be detectably invalid
	if sm.Connection(connIdx) != nil {
		t.Fatal("erased connection should resolve to nil")
	}
}
