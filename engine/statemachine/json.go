package statemachine

import (
	"encoding/json"
	"fmt"

	"github.com/Carmen-Shannon/rig-go/engine/clip"
)

// stateDoc is the persisted form of an animation state. Clips are keyed by
// clip name.
type stateDoc struct {
	Name         string              `json:"name"`
	StateType    int                 `json:"stateType"`
	PlaybackMode *int                `json:"playbackMode,omitempty"`
	Clips        map[string]clip.Ref `json:"clips,omitempty"`
}

// transitionDoc is the persisted form of a transition, bound by the names of
// its connection's endpoints.
type transitionDoc struct {
	Name         string             `json:"name"`
	StateType    int                `json:"stateType"`
	PlaybackMode int                `json:"playbackMode"`
	Settings     TransitionSettings `json:"settings"`
	Start        string             `json:"start"`
	End          string             `json:"end"`
}

// connectionDoc is the persisted form of a connection.
type connectionDoc struct {
	Start string `json:"start"`
	End   string `json:"end"`
}

// machineDoc is the persisted form of a whole machine. AnimationStates is
// raw because readers must accept both the array form (written today) and a
// legacy object keyed by state name.
type machineDoc struct {
	Name            string          `json:"name"`
	AnimationStates json.RawMessage `json:"animationStates"`
	Transitions     []transitionDoc `json:"transitions"`
	Connections     []connectionDoc `json:"connections"`
}

// MarshalJSON writes the machine's live slots. Erased slots are omitted;
// indices are recomputed on read. animationStates is always written in array
// form.
func (sm *StateMachine) MarshalJSON() ([]byte, error) {
	states := make([]stateDoc, 0, len(sm.states))
	for _, s := range sm.states {
		if s == nil {
			continue
		}
		mode := int(s.Playback)
		doc := stateDoc{
			Name:         s.Name(),
			StateType:    int(StateTypeAnimation),
			PlaybackMode: &mode,
		}
		if len(s.Clips) > 0 {
			doc.Clips = make(map[string]clip.Ref, len(s.Clips))
			for _, ref := range s.Clips {
				doc.Clips[ref.Name] = ref
			}
		}
		states = append(states, doc)
	}

	transitions := make([]transitionDoc, 0, len(sm.transitions))
	for _, t := range sm.transitions {
		if t == nil {
			continue
		}
		transitions = append(transitions, transitionDoc{
			Name:      t.Name(),
			StateType: int(StateTypeTransition),
			Settings:  t.Settings,
			Start:     t.Start(sm).Name(),
			End:       t.End(sm).Name(),
		})
	}

	connections := make([]connectionDoc, 0, len(sm.connections))
	for i := range sm.connections {
		c := &sm.connections[i]
		if c.MachineIndex < 0 {
			continue
		}
		connections = append(connections, connectionDoc{
			Start: c.StartState(sm).Name(),
			End:   c.EndState(sm).Name(),
		})
	}

	rawStates, err := json.Marshal(states)
	if err != nil {
		return nil, err
	}
	return json.Marshal(machineDoc{
		Name:            sm.name,
		AnimationStates: rawStates,
		Transitions:     transitions,
		Connections:     connections,
	})
}

// UnmarshalJSON rebuilds a machine from its persisted form: states first,
// then connections (resolved by endpoint name), then transitions (bound to
// the connection between their named endpoints).
func (sm *StateMachine) UnmarshalJSON(data []byte) error {
	var doc machineDoc
	if err := json.Unmarshal(data, &doc); err != nil {
		return err
	}

	sm.states = nil
	sm.transitions = nil
	sm.connections = nil
	sm.erasedStates = nil
	sm.erasedTransitions = nil
	sm.erasedConnections = nil
	if doc.Name != "" {
		sm.name = doc.Name
	}

	states, err := decodeStateDocs(doc.AnimationStates)
	if err != nil {
		return err
	}
	for _, sd := range states {
		if sd.StateType == int(StateTypeTransition) {
			// Legacy inline transition; the transitions array is authoritative
			continue
		}
		state := NewAnimationState(sd.Name)
		state.Playback = clip.PlaybackLoop
		if sd.PlaybackMode != nil {
			state.Playback = clip.PlaybackMode(*sd.PlaybackMode)
		}
		for _, ref := range sd.Clips {
			state.AddClip(ref)
		}
		sm.AddState(state)
	}

	for _, cd := range doc.Connections {
		start := sm.StateByName(cd.Start)
		end := sm.StateByName(cd.End)
		if start == nil || end == nil {
			return fmt.Errorf("connection %q -> %q: %w", cd.Start, cd.End, ErrStateNotFound)
		}
		if _, err := sm.AddConnection(start.Id(), end.Id()); err != nil {
			return err
		}
	}

	for _, td := range doc.Transitions {
		start := sm.StateByName(td.Start)
		end := sm.StateByName(td.End)
		if start == nil || end == nil {
			return fmt.Errorf("transition %q (%q -> %q): %w", td.Name, td.Start, td.End, ErrStateNotFound)
		}
		connIdx, ok := sm.ConnectsTo(start, end)
		if !ok {
			return fmt.Errorf("transition %q (%q -> %q): %w", td.Name, td.Start, td.End, ErrStateNotConnected)
		}
		if _, err := sm.AddTransition(NewTransitionState(td.Name, td.Settings), connIdx); err != nil {
			return err
		}
	}

	return nil
}

// decodeStateDocs accepts animationStates in array form or in the historical
// object form where states are keyed by name and the key supplies the name.
func decodeStateDocs(raw json.RawMessage) ([]stateDoc, error) {
	if len(raw) == 0 {
		return nil, nil
	}

	var states []stateDoc
	if err := json.Unmarshal(raw, &states); err == nil {
		return states, nil
	}

	var byName map[string]stateDoc
	if err := json.Unmarshal(raw, &byName); err != nil {
		return nil, fmt.Errorf("animationStates is neither array nor object: %w", err)
	}
	for name, sd := range byName {
		sd.Name = name
		states = append(states, sd)
	}
	return states, nil
}
