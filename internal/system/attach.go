package system

import (
	"time"

	"github.com/arpgproto/arpg/internal/core/ecs"
	"github.com/arpgproto/arpg/internal/core/event"
	coresys "github.com/arpgproto/arpg/internal/core/system"
	"github.com/arpgproto/arpg/internal/world"
)

// AttachSystem binds newly created playback handles to the actor that owns
// them. An actor's handle sits two levels down: actor, scene root, armature.
// Handles with any other ancestry belong to scenery and are ignored.
// A bound handle normally starts on the idle clip, but an actor that was
// already sent walking before its scene loaded starts on the moving clip.
// Phase 1 (PreUpdate).
type AttachSystem struct {
	ws       *world.State
	playback Playback
	pending  []ecs.EntityID
}

func NewAttachSystem(ws *world.State, playback Playback) *AttachSystem {
	s := &AttachSystem{ws: ws, playback: playback}
	event.Subscribe(ws.Bus, func(e event.PlaybackHandleAdded) {
		s.pending = append(s.pending, e.Handle)
	})
	return s
}

func (s *AttachSystem) Phase() coresys.Phase { return coresys.PhasePreUpdate }

func (s *AttachSystem) Update(_ time.Duration) {
	for _, handle := range s.pending {
		s.attach(handle)
	}
	s.pending = s.pending[:0]
}

// Pending returns the number of handles waiting for the next update.
func (s *AttachSystem) Pending() int { return len(s.pending) }

func (s *AttachSystem) attach(handle ecs.EntityID) {
	if !s.ws.ECS.Alive(handle) {
		return
	}
	parent, ok := s.ws.ParentOf(handle)
	if !ok || !s.ws.Children.Has(parent) {
		return
	}
	actor, ok := s.ws.ParentOf(parent)
	if !ok {
		return
	}
	binding, ok := s.ws.Bindings.Get(actor)
	if !ok {
		return
	}
	if !binding.Bind(handle) {
		return
	}
	// A freshly spawned actor is Idle. One that was already sent walking
	// before its scene loaded starts on the moving clip instead.
	clip := binding.Idle
	if m, ok := s.ws.Motions.Get(actor); ok {
		clip = binding.ClipFor(m.State())
	}
	s.playback.Play(handle, clip, true)
	binding.Playing = clip
}
