package animation

import (
	"encoding/json"
	"fmt"

	"github.com/Carmen-Shannon/rig-go/engine/statemachine"
	"github.com/google/uuid"
)

// motionDoc is a motion's persisted form.
type motionDoc struct {
	Name          string `json:"name"`
	StateName     string `json:"stateName"`
	BehaviorFlags uint32 `json:"behaviorFlags"`
}

// controllerDoc is a controller's persisted form. StateMachine is raw
// because it holds either a registry name (written today) or an embedded
// machine object (legacy).
type controllerDoc struct {
	Model        string          `json:"model,omitempty"`
	StateMachine json.RawMessage `json:"stateMachine,omitempty"`
	Motions      []motionDoc     `json:"motions"`
	IsPlaying    bool            `json:"isPlaying"`

	// Legacy fields, read-only
	AnimationStates json.RawMessage `json:"animationStates,omitempty"`
	CurrentState    string          `json:"currentState,omitempty"`
}

// MarshalJSON writes the controller with its machine referenced by name.
func (c *Controller) MarshalJSON() ([]byte, error) {
	doc := controllerDoc{
		Model:     c.modelName,
		IsPlaying: c.isPlaying,
		Motions:   make([]motionDoc, 0, len(c.motions)),
	}
	if c.machine != nil {
		name, err := json.Marshal(c.machine.Name())
		if err != nil {
			return nil, err
		}
		doc.StateMachine = name
	}
	for _, m := range c.motions {
		md := motionDoc{
			Name:          m.Name(),
			BehaviorFlags: uint32(m.Behavior()),
		}
		if s := m.CurrentState(); s != nil {
			md.StateName = s.Name()
		}
		doc.Motions = append(doc.Motions, md)
	}
	return json.Marshal(doc)
}

// LoadController reads a controller document. The machine is resolved
// through the registry when referenced by name; legacy documents embedding
// the machine (either under stateMachine or inline at the top level) get a
// fresh machine registered under its own name.
//
// Parameters:
//   - data: the controller JSON document
//   - registry: the machine registry to resolve against
//   - options: additional construction options (skeleton, clip store, clock)
//
// Returns:
//   - *Controller: the loaded controller
//   - error: on malformed documents or unresolved machine names
func LoadController(data []byte, registry *statemachine.Registry, options ...ControllerOption) (*Controller, error) {
	var doc controllerDoc
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, err
	}

	machine, err := resolveMachine(&doc, data, registry)
	if err != nil {
		return nil, err
	}

	opts := append([]ControllerOption{
		WithModelName(doc.Model),
		WithMachine(machine),
	}, options...)
	c := NewController(doc.Model, opts...)
	c.isPlaying = doc.IsPlaying

	if doc.CurrentState != "" && len(doc.Motions) == 0 {
		// Legacy single-state form becomes one motion
		doc.Motions = []motionDoc{{StateName: doc.CurrentState}}
	}

	for _, md := range doc.Motions {
		state := machine.StateByName(md.StateName)
		if state == nil {
			return nil, fmt.Errorf("motion %q state %q: %w", md.Name, md.StateName, statemachine.ErrStateNotFound)
		}
		m := c.AddMotion(state)
		if md.Name != "" {
			m.SetName(md.Name)
		}
		m.SetBehavior(BehaviorFlags(md.BehaviorFlags))
	}

	return c, nil
}

func resolveMachine(doc *controllerDoc, data []byte, registry *statemachine.Registry) (*statemachine.StateMachine, error) {
	if len(doc.AnimationStates) > 0 {
		// Legacy: the machine was inlined into the controller document
		sm := statemachine.New(fmt.Sprintf("sm_%s", uuid.NewString()))
		if err := json.Unmarshal(data, sm); err != nil {
			return nil, err
		}
		registry.Add(sm)
		return sm, nil
	}

	if len(doc.StateMachine) == 0 {
		return nil, fmt.Errorf("controller document has no state machine")
	}

	var name string
	if err := json.Unmarshal(doc.StateMachine, &name); err == nil {
		sm := registry.Get(name)
		if sm == nil {
			return nil, fmt.Errorf("state machine %q not registered", name)
		}
		return sm, nil
	}

	// Legacy: embedded machine object
	sm := statemachine.New(fmt.Sprintf("sm_%s", uuid.NewString()))
	if err := json.Unmarshal(doc.StateMachine, sm); err != nil {
		return nil, err
	}
	registry.Add(sm)
	return sm, nil
}
