package animation

import (
	"log/slog"

	"github.com/Carmen-Shannon/rig-go/engine/statemachine"
)

// ActionType tags the three motion actions.
type ActionType int

const (
	// ActionMove moves a motion toward a target state.
	ActionMove ActionType = iota

	// ActionAutoMove advances a motion along its first outgoing connection.
	ActionAutoMove

	// ActionDestroy removes a motion from its controller.
	ActionDestroy
)

// MotionAction is one queued mutation of a motion. Every state change flows
// through the controller's action queue so motions are never mutated while
// the blend queue iterates them.
type MotionAction struct {
	// Type selects the action.
	Type ActionType

	// Motion is the motion acted upon.
	Motion *Motion

	// Target is the destination state for ActionMove.
	Target statemachine.StateId
}

// perform applies the action. Runs on the controller's tick, never on the
// enqueuing goroutine.
func (a *MotionAction) perform(c *Controller) {
	switch a.Type {
	case ActionDestroy:
		c.removeMotion(a.Motion)
	case ActionMove:
		target := c.machine.State(a.Target)
		if target == nil {
			c.logger.Warn("move target no longer exists", "motion", a.Motion.Name(), "target", a.Target)
			return
		}
		a.Motion.move(target)
	case ActionAutoMove:
		a.Motion.autoMove()
	default:
		slog.Error("unknown motion action", "type", int(a.Type))
	}
}
