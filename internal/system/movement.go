package system

import (
	"math"
	"time"

	"github.com/arpgproto/arpg/internal/component"
	"github.com/arpgproto/arpg/internal/core/ecs"
	"github.com/arpgproto/arpg/internal/core/event"
	coresys "github.com/arpgproto/arpg/internal/core/system"
	"github.com/arpgproto/arpg/internal/world"
	"github.com/go-gl/mathgl/mgl64"
)

// MovementParams are the integrator constants.
type MovementParams struct {
	Speed          float64 // ground units per second
	ArrivalEpsilon float64 // pre-step arrival radius
	ArrivalSnapSq  float64 // post-step arrival threshold, squared distance
	YawOffset      float64 // radians added to the travel heading
}

// DefaultMovementParams matches the shipped character asset: 4 u/s and a
// half-turn yaw correction so the model faces its direction of travel.
func DefaultMovementParams() MovementParams {
	return MovementParams{
		Speed:          4.0,
		ArrivalEpsilon: 0.001,
		ArrivalSnapSq:  0.001,
		YawOffset:      math.Pi,
	}
}

// MovementSystem steps every MovingTo actor toward its destination.
// Phase 2 (Update).
type MovementSystem struct {
	ws     *world.State
	params MovementParams
}

func NewMovementSystem(ws *world.State, params MovementParams) *MovementSystem {
	return &MovementSystem{ws: ws, params: params}
}

func (s *MovementSystem) Phase() coresys.Phase { return coresys.PhaseUpdate }

func (s *MovementSystem) Update(dt time.Duration) {
	secs := dt.Seconds()
	eps := s.params.ArrivalEpsilon

	ecs.Each2(s.ws.Motions, s.ws.Transforms, func(id ecs.EntityID, m *component.Motion, tr *component.Transform) {
		dest, moving := component.Destination(m.State())
		if !moving {
			return
		}
		p := tr.Ground()
		remaining := dest.Sub(p)
		if remaining.Dot(remaining) <= eps*eps {
			s.arrive(id, m, p)
			return
		}

		reach := s.params.Speed * secs
		dir := normalizeOrZero(remaining)
		step := clampLength(dir.Mul(reach), remaining.Len())
		p = p.Add(step)
		if dir != (mgl64.Vec2{}) {
			tr.Rotation = Facing(dir, s.params.YawOffset)
		}

		left := dest.Sub(p)
		if left.Dot(left) < s.params.ArrivalSnapSq {
			// Land exactly on the target, but only when this tick's step
			// could have covered the whole way. Otherwise keep walking so a
			// single tick never exceeds speed*dt.
			if remaining.Len() <= reach {
				p = dest
				tr.SetGround(p)
				s.arrive(id, m, p)
				return
			}
			if left.Dot(left) <= eps*eps {
				tr.SetGround(p)
				s.arrive(id, m, p)
				return
			}
		}
		tr.SetGround(p)
	})
}

func (s *MovementSystem) arrive(id ecs.EntityID, m *component.Motion, p mgl64.Vec2) {
	m.Transition(component.IdleState())
	event.Emit(s.ws.Bus, event.MotionArrived{Actor: id, Position: p})
}

// Facing returns the rotation about +Y that turns local -Z toward dir on
// the ground plane, plus yawOffset radians.
func Facing(dir mgl64.Vec2, yawOffset float64) mgl64.Quat {
	yaw := math.Atan2(-dir[0], -dir[1]) + yawOffset
	return mgl64.QuatRotate(yaw, mgl64.Vec3{0, 1, 0})
}

// normalizeOrZero returns the unit vector along v, or zero when v is too
// short to have a direction.
func normalizeOrZero(v mgl64.Vec2) mgl64.Vec2 {
	l := v.Len()
	if l < 1e-12 || math.IsNaN(l) || math.IsInf(l, 0) {
		return mgl64.Vec2{}
	}
	return v.Mul(1 / l)
}

// clampLength shortens v to at most max.
func clampLength(v mgl64.Vec2, max float64) mgl64.Vec2 {
	l := v.Len()
	if l <= max || l == 0 {
		return v
	}
	return v.Mul(max / l)
}

// ModelForward returns the local axis that Facing turns toward the travel
// direction for the given yaw offset. With a half-turn offset it is +Z.
func ModelForward(yawOffset float64) mgl64.Vec3 {
	return mgl64.QuatRotate(-yawOffset, mgl64.Vec3{0, 1, 0}).Rotate(mgl64.Vec3{0, 0, -1})
}
