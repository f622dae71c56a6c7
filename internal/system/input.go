package system

import (
	"time"

	"github.com/arpgproto/arpg/internal/component"
	"github.com/arpgproto/arpg/internal/core/ecs"
	"github.com/arpgproto/arpg/internal/core/event"
	coresys "github.com/arpgproto/arpg/internal/core/system"
	"github.com/arpgproto/arpg/internal/input"
	"github.com/arpgproto/arpg/internal/picking"
	"github.com/arpgproto/arpg/internal/world"
	"github.com/go-gl/mathgl/mgl64"
)

// InputSystem turns the pointer's ground intersection and each controlled
// actor's action state into motion targets. Phase 0 (Input).
type InputSystem struct {
	ws *world.State
}

func NewInputSystem(ws *world.State) *InputSystem {
	return &InputSystem{ws: ws}
}

func (s *InputSystem) Phase() coresys.Phase { return coresys.PhaseInput }

func (s *InputSystem) Update(_ time.Duration) {
	hit, hasHit := s.ws.Cursor.Intersection()
	// NaN or infinite hits never reach the integrator.
	hasHit = hasHit && picking.Finite(hit)

	ecs.Each2(s.ws.Controlled, s.ws.Actions, func(id ecs.EntityID, _ *component.Controlled, act *input.ActionState) {
		m, ok := s.ws.Motions.Get(id)
		if !ok {
			return
		}
		switch {
		case act.Pressed(input.ActionMoveTo):
			if !hasHit {
				return
			}
			dest := mgl64.Vec2{hit[0], hit[2]}
			if d, moving := component.Destination(m.State()); moving && d == dest {
				return
			}
			m.Transition(component.MovingToState(dest))
			event.Emit(s.ws.Bus, event.MotionStarted{Actor: id, Destination: dest})
		case act.Pressed(input.ActionStop):
			if component.IsMoving(m.State()) {
				m.Transition(component.IdleState())
			}
		}
	})
}
