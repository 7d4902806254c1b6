package statemachine

import (
	"encoding/json"
	"testing"

	"github.com/Carmen-Shannon/rig-go/engine/clip"
)

func buildPersistableMachine(t *testing.T) *StateMachine {
	t.Helper()
	sm := New("locomotion")

	idle := NewAnimationState("idle")
	idle.Playback = clip.PlaybackLoop
	idle.AddClip(clip.NewRef("idle", "idle_anim"))

	walk := NewAnimationState("walk")
	walk.Playback = clip.PlaybackLoop
	walk.AddClip(clip.NewRef("walk", "walk_anim"))

	jump := NewAnimationState("jump")
	jump.Playback = clip.PlaybackOnce

	idleID := sm.AddState(idle)
	walkID := sm.AddState(walk)
	jumpID := sm.AddState(jump)

	c0, err := sm.AddConnection(idleID, walkID)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := sm.AddConnection(walkID, jumpID); err != nil {
		t.Fatal(err)
	}

	settings := TransitionSettings{
		Kind:          TransitionSmooth,
		FadeInSec:     0.25,
		FadeOutSec:    0.5,
		FadeInWeight:  1,
		FadeOutWeight: 1,
	}
	if _, err := sm.AddTransition(NewTransitionState("idle_to_walk", settings), c0); err != nil {
		t.Fatal(err)
	}

	return sm
}

func TestMachineRoundTrip(t *testing.T) {
	sm := buildPersistableMachine(t)

	data, err := json.Marshal(sm)
	if err != nil {
		t.Fatal(err)
	}

	loaded := New("")
	if err := json.Unmarshal(data, loaded); err != nil {
		t.Fatal(err)
	}

	if loaded.Name() != "locomotion" {
		t.Fatalf("name = %q, want locomotion", loaded.Name())
	}
	if loaded.NumLiveStates() != sm.NumLiveStates() {
		t.Fatalf("states = %d, want %d", loaded.NumLiveStates(), sm.NumLiveStates())
	}
	if loaded.NumLiveTransitions() != sm.NumLiveTransitions() {
		t.Fatalf("transitions = %d, want %d", loaded.NumLiveTransitions(), sm.NumLiveTransitions())
	}
	if loaded.NumLiveConnections() != sm.NumLiveConnections() {
		t.Fatalf("connections = %d, want %d", loaded.NumLiveConnections(), sm.NumLiveConnections())
	}

	idle := loaded.StateByName("idle")
	walk := loaded.StateByName("walk")
	if idle == nil || walk == nil {
		t.Fatal("states lost in round trip")
	}
	connIdx, ok := loaded.ConnectsTo(idle, walk)
	if !ok {
		t.Fatal("idle -> walk connection lost")
	}
	tr := loaded.Connection(connIdx).TransitionState(loaded)
	if tr == nil || tr.Name() != "idle_to_walk" {
		t.Fatal("transition lost or unbound")
	}
	if tr.Settings.FadeOutSec != 0.5 {
		t.Fatalf("fadeOut = %f, want 0.5", tr.Settings.FadeOutSec)
	}

	jump := loaded.StateByName("jump").(*AnimationState)
	if jump.Playback != clip.PlaybackOnce {
		t.Fatalf("jump playback = %v, want once", jump.Playback)
	}

	walkState := walk.(*AnimationState)
	if len(walkState.Clips) != 1 || walkState.Clips[0].Animation != "walk_anim" {
		t.Fatalf("walk clips = %+v, want one ref to walk_anim", walkState.Clips)
	}
}

func TestRoundTripSkipsErasedSlots(t *testing.T) {
	sm := buildPersistableMachine(t)
	jump := sm.StateByName("jump")
	if err := sm.RemoveState(jump.Id()); err != nil {
		t.Fatal(err)
	}

	data, err := json.Marshal(sm)
	if err != nil {
		t.Fatal(err)
	}
	loaded := New("")
	if err := json.Unmarshal(data, loaded); err != nil {
		t.Fatal(err)
	}

	if loaded.NumLiveStates() != 2 {
		t.Fatalf("states = %d, want 2", loaded.NumLiveStates())
	}
	if loaded.StateByName("jump") != nil {
		t.Fatal("erased state survived the round trip")
	}
	// Indices are recomputed densely on read
	for _, s := range loaded.LiveStates() {
		if s.MachineIndex() < 0 || s.MachineIndex() > 1 {
			t.Fatalf("state %q has sparse index %d", s.Name(), s.MachineIndex())
		}
	}
}

func TestReadAcceptsLegacyObjectForm(t *testing.T) {
	legacy := `{
		"name": "legacy",
		"animationStates": {
			"idle": {"stateType": 1, "clips": {"idle": {"name": "idle", "animation": "idle_anim", "settings": {"speedFactor": 1, "blendWeight": 1, "tickOffset": 0, "timeOffsetSec": 0, "numPlays": -1}}}},
			"walk": {"stateType": 1, "playbackMode": 1}
		},
		"connections": [{"start": "idle", "end": "walk"}],
		"transitions": [{"name": "t", "stateType": 2, "settings": {"transitionType": 0, "fadeInTime": 0.1, "fadeOutTime": 0.2, "fadeInWeight": 1, "fadeOutWeight": 1}, "start": "idle", "end": "walk"}]
	}`

	sm := New("")
	if err := json.Unmarshal([]byte(legacy), sm); err != nil {
		t.Fatal(err)
	}

	if sm.NumLiveStates() != 2 {
		t.Fatalf("states = %d, want 2", sm.NumLiveStates())
	}
	idle := sm.StateByName("idle").(*AnimationState)
	if idle.Playback != clip.PlaybackLoop {
		t.Fatalf("missing playbackMode should default to loop, got %v", idle.Playback)
	}
	if len(idle.Clips) != 1 || idle.Clips[0].Animation != "idle_anim" {
		t.Fatalf("idle clips = %+v", idle.Clips)
	}
	if sm.NumLiveTransitions() != 1 {
		t.Fatalf("transitions = %d, want 1", sm.NumLiveTransitions())
	}
}

func TestReadSkipsInlineTransitionStates(t *testing.T) {
	doc := `{
		"name": "m",
		"animationStates": [
			{"name": "a", "stateType": 1},
			{"name": "legacy_inline", "stateType": 2}
		],
		"connections": [],
		"transitions": []
	}`
	sm := New("")
	if err := json.Unmarshal([]byte(doc), sm); err != nil {
		t.Fatal(err)
	}
	if sm.NumLiveStates() != 1 {
		t.Fatalf("states = %d, want 1 (inline transition skipped)", sm.NumLiveStates())
	}
}

func TestRegistryRoundTrip(t *testing.T) {
	reg := NewRegistry()
	reg.Add(buildPersistableMachine(t))

	data, err := json.Marshal(reg)
	if err != nil {
		t.Fatal(err)
	}

	loaded := NewRegistry()
	if err := json.Unmarshal(data, loaded); err != nil {
		t.Fatal(err)
	}
	if loaded.Get("locomotion") == nil {
		t.Fatal("machine lost in registry round trip")
	}
}
