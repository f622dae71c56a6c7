package system

import (
	"time"

	"github.com/arpgproto/arpg/internal/core/event"
	coresys "github.com/arpgproto/arpg/internal/core/system"
)

// EventDispatchSystem swaps the bus buffers and delivers last tick's events.
// Register it before every other Input-phase system so subscribers see
// events before the tick's own logic runs.
type EventDispatchSystem struct {
	bus *event.Bus
}

func NewEventDispatchSystem(bus *event.Bus) *EventDispatchSystem {
	return &EventDispatchSystem{bus: bus}
}

func (s *EventDispatchSystem) Phase() coresys.Phase { return coresys.PhaseInput }

func (s *EventDispatchSystem) Update(_ time.Duration) {
	s.bus.SwapBuffers()
	s.bus.DispatchAll()
}
