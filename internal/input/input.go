// Package input maps pointer buttons to player actions.
package input

import (
	"fmt"
	"strings"
)

// Button is a pointer button reported by the host.
type Button uint8

const (
	ButtonNone Button = iota
	ButtonLeft
	ButtonRight
	ButtonMiddle
)

var buttonNames = map[string]Button{
	"left":   ButtonLeft,
	"right":  ButtonRight,
	"middle": ButtonMiddle,
}

// ParseButton accepts "left", "right" or "middle" (case-insensitive).
func ParseButton(name string) (Button, error) {
	b, ok := buttonNames[strings.ToLower(strings.TrimSpace(name))]
	if !ok {
		return ButtonNone, fmt.Errorf("unknown button %q", name)
	}
	return b, nil
}

// Action is a logical player command.
type Action uint8

const (
	ActionMoveTo Action = iota
	ActionStop
	actionCount
)

func (a Action) String() string {
	switch a {
	case ActionMoveTo:
		return "move_to"
	case ActionStop:
		return "stop"
	}
	return fmt.Sprintf("action(%d)", a)
}

// InputMap binds buttons to actions. One button drives at most one action.
type InputMap struct {
	bindings map[Button]Action
}

func NewInputMap() *InputMap {
	return &InputMap{bindings: make(map[Button]Action, 4)}
}

// Bind assigns b to a, replacing any previous action for b.
func (m *InputMap) Bind(b Button, a Action) *InputMap {
	m.bindings[b] = a
	return m
}

// Action returns the action bound to b.
func (m *InputMap) Action(b Button) (Action, bool) {
	a, ok := m.bindings[b]
	return a, ok
}

// Apply resolves the set of held buttons into the action state.
func (m *InputMap) Apply(held []Button, s *ActionState) {
	s.Reset()
	for _, b := range held {
		if a, ok := m.bindings[b]; ok {
			s.Press(a)
		}
	}
}

// ActionState holds which actions are pressed for the current tick.
// A held button keeps its action pressed on every tick.
type ActionState struct {
	pressed [actionCount]bool
}

func (s *ActionState) Press(a Action) {
	if a < actionCount {
		s.pressed[a] = true
	}
}

func (s *ActionState) Release(a Action) {
	if a < actionCount {
		s.pressed[a] = false
	}
}

func (s *ActionState) Pressed(a Action) bool {
	return a < actionCount && s.pressed[a]
}

func (s *ActionState) Reset() {
	s.pressed = [actionCount]bool{}
}
