package system

import (
	"time"

	"github.com/arpgproto/arpg/internal/component"
	"github.com/arpgproto/arpg/internal/core/ecs"
	coresys "github.com/arpgproto/arpg/internal/core/system"
	"github.com/arpgproto/arpg/internal/world"
)

// Playback receives play commands for a playback handle.
type Playback interface {
	Play(handle ecs.EntityID, clip component.ClipID, repeat bool)
}

// AnimationSystem selects the idle or moving clip for every actor whose
// motion state changed this tick. Phase 3 (PostUpdate).
type AnimationSystem struct {
	ws       *world.State
	playback Playback
}

func NewAnimationSystem(ws *world.State, playback Playback) *AnimationSystem {
	return &AnimationSystem{ws: ws, playback: playback}
}

func (s *AnimationSystem) Phase() coresys.Phase { return coresys.PhasePostUpdate }

func (s *AnimationSystem) Update(_ time.Duration) {
	ecs.Each2(s.ws.Motions, s.ws.Bindings, func(_ ecs.EntityID, m *component.Motion, b *component.AnimationBinding) {
		if !m.Changed() {
			return
		}
		m.ClearChanged()
		if !b.Bound() {
			return
		}
		clip := b.ClipFor(m.State())
		if clip == b.Playing {
			return
		}
		s.playback.Play(b.Player, clip, true)
		b.Playing = clip
	})
}
