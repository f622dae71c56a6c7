// Package scene stands in for the asset pipeline: it materializes each
// entity's imported scene some ticks after spawn and reports the new
// animation players on the bus.
package scene

import (
	"time"

	"github.com/arpgproto/arpg/internal/component"
	"github.com/arpgproto/arpg/internal/core/ecs"
	"github.com/arpgproto/arpg/internal/core/event"
	coresys "github.com/arpgproto/arpg/internal/core/system"
	"github.com/arpgproto/arpg/internal/world"
	"go.uber.org/zap"
)

// Starter starts a clip on a playback handle.
type Starter interface {
	Play(handle ecs.EntityID, clip component.ClipID, repeat bool)
}

// Spawner builds owner -> scene root -> armature for every pending scene
// whose delay has run out. The armature carries the AnimationPlayer.
// Phase 4 (Output).
type Spawner struct {
	ws      *world.State
	starter Starter
	log     *zap.Logger
	built   int
}

func NewSpawner(ws *world.State, starter Starter, log *zap.Logger) *Spawner {
	return &Spawner{ws: ws, starter: starter, log: log}
}

func (s *Spawner) Phase() coresys.Phase { return coresys.PhaseOutput }

func (s *Spawner) Update(_ time.Duration) {
	for _, id := range s.ws.Scenes.IDs() {
		sc, ok := s.ws.Scenes.Get(id)
		if !ok {
			continue
		}
		if sc.Delay > 0 {
			sc.Delay--
			continue
		}
		s.materialize(id, sc)
		s.ws.Scenes.Remove(id)
	}
}

// Built returns how many scenes have been materialized.
func (s *Spawner) Built() int { return s.built }

func (s *Spawner) materialize(owner ecs.EntityID, sc *world.PendingScene) {
	root := s.ws.CreateNode(owner)
	armature := s.ws.CreateNode(root)
	s.ws.Players.Set(armature, &component.AnimationPlayer{})

	// Scenery animates on its own; actors get their clip from the binding.
	if sc.Clip != "" {
		s.starter.Play(armature, sc.Clip, true)
	}
	event.Emit(s.ws.Bus, event.PlaybackHandleAdded{Handle: armature})
	s.built++

	s.log.Debug("scene materialized",
		zap.Stringer("owner", owner),
		zap.Stringer("armature", armature),
	)
}
