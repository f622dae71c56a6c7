package component

import "github.com/go-gl/mathgl/mgl64"

// MotionState is the navigation status of an actor: either Idle or
// MovingTo a ground-plane destination. The interface is sealed; Idle and
// MovingTo are the only implementations.
type MotionState interface {
	motionState()
}

// Idle means the actor has no destination.
type Idle struct{}

// MovingTo carries the destination of the current movement episode.
type MovingTo struct {
	Destination mgl64.Vec2
}

func (Idle) motionState()     {}
func (MovingTo) motionState() {}

func IdleState() MotionState { return Idle{} }

func MovingToState(p mgl64.Vec2) MotionState { return MovingTo{Destination: p} }

// IsMoving reports whether s is a MovingTo state.
func IsMoving(s MotionState) bool {
	_, ok := s.(MovingTo)
	return ok
}

// Destination returns the target of a MovingTo state.
func Destination(s MotionState) (mgl64.Vec2, bool) {
	m, ok := s.(MovingTo)
	return m.Destination, ok
}

// Motion holds an actor's MotionState. Transition is the only way to change
// it; every transition that alters the value raises the changed flag, which
// the animation selector consumes once per tick.
type Motion struct {
	state   MotionState
	changed bool
}

func NewMotion() *Motion {
	return &Motion{state: Idle{}}
}

// State returns the current variant. A zero Motion reads as Idle.
func (m *Motion) State() MotionState {
	if m.state == nil {
		return Idle{}
	}
	return m.state
}

// Transition replaces the state. Re-setting an identical value leaves the
// changed flag untouched.
func (m *Motion) Transition(s MotionState) {
	if s == nil {
		s = Idle{}
	}
	if s == m.State() {
		return
	}
	m.state = s
	m.changed = true
}

// Changed reports whether the state changed since the flag was last cleared.
func (m *Motion) Changed() bool { return m.changed }

func (m *Motion) ClearChanged() { m.changed = false }
