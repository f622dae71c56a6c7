package world

import (
	"github.com/arpgproto/arpg/internal/component"
	"github.com/arpgproto/arpg/internal/core/ecs"
	"github.com/arpgproto/arpg/internal/core/event"
	"github.com/arpgproto/arpg/internal/data"
	"github.com/arpgproto/arpg/internal/input"
	"github.com/arpgproto/arpg/internal/picking"
)

// PendingScene marks an entity whose imported scene has not materialized yet.
// The scene host counts Delay down one tick at a time.
type PendingScene struct {
	Delay int
	Clip  component.ClipID // prop clip started by the host; empty for actors
}

// State holds the simulation world: the ECS container, the event bus, the
// typed component stores and the host resources the systems share.
// Accessed only from the game loop goroutine; no locks.
type State struct {
	ECS    *ecs.World
	Bus    *event.Bus
	Ground picking.GroundPlane
	Cursor picking.Cursor
	Clips  *data.ClipTable

	Transforms *ecs.PtrComponentStore[component.Transform]
	Motions    *ecs.PtrComponentStore[component.Motion]
	Bindings   *ecs.PtrComponentStore[component.AnimationBinding]
	Players    *ecs.PtrComponentStore[component.AnimationPlayer]
	Parents    *ecs.PtrComponentStore[component.Parent]
	Children   *ecs.PtrComponentStore[component.Children]
	Characters *ecs.PtrComponentStore[component.Character]
	Props      *ecs.PtrComponentStore[component.Prop]
	Controlled *ecs.PtrComponentStore[component.Controlled]
	Actions    *ecs.PtrComponentStore[input.ActionState]
	Scenes     *ecs.PtrComponentStore[PendingScene]
}

// NewState creates an empty world over the given ground surface.
func NewState(ground picking.GroundPlane, clips *data.ClipTable) *State {
	w := ecs.NewWorld()
	r := w.Registry()
	return &State{
		ECS:    w,
		Bus:    event.NewBus(),
		Ground: ground,
		Clips:  clips,

		Transforms: ecs.Track[component.Transform](r),
		Motions:    ecs.Track[component.Motion](r),
		Bindings:   ecs.Track[component.AnimationBinding](r),
		Players:    ecs.Track[component.AnimationPlayer](r),
		Parents:    ecs.Track[component.Parent](r),
		Children:   ecs.Track[component.Children](r),
		Characters: ecs.Track[component.Character](r),
		Props:      ecs.Track[component.Prop](r),
		Controlled: ecs.Track[component.Controlled](r),
		Actions:    ecs.Track[input.ActionState](r),
		Scenes:     ecs.Track[PendingScene](r),
	}
}

// SpawnActor creates a character from its template. The actor starts Idle
// with an unbound animation binding; its scene materializes later.
func (s *State) SpawnActor(tmpl *data.CharacterTemplate) ecs.EntityID {
	id := s.ECS.CreateEntity()
	s.Transforms.Set(id, component.NewTransform(tmpl.X, tmpl.Y, tmpl.Z))
	s.Motions.Set(id, component.NewMotion())
	s.Bindings.Set(id, &component.AnimationBinding{
		Idle:   component.ClipID(tmpl.IdleClip),
		Moving: component.ClipID(tmpl.MovingClip),
	})
	s.Characters.Set(id, &component.Character{Name: tmpl.Name, Glyph: tmpl.GlyphRune()})
	if tmpl.Controlled {
		s.Controlled.Set(id, &component.Controlled{})
		s.Actions.Set(id, &input.ActionState{})
	}
	s.Scenes.Set(id, &PendingScene{Delay: tmpl.SceneDelay})
	return id
}

// SpawnProp creates a piece of scenery. Props with a clip get an animation
// player that belongs to no actor.
func (s *State) SpawnProp(p data.PropEntry) ecs.EntityID {
	id := s.ECS.CreateEntity()
	s.Transforms.Set(id, component.NewTransform(p.X, 0, p.Z))
	s.Props.Set(id, &component.Prop{Name: p.Name, Glyph: p.GlyphRune()})
	if p.Clip != "" {
		s.Scenes.Set(id, &PendingScene{Clip: component.ClipID(p.Clip)})
	}
	return id
}

// CreateNode creates a bare hierarchy node under parent.
func (s *State) CreateNode(parent ecs.EntityID) ecs.EntityID {
	id := s.ECS.CreateEntity()
	s.SetParent(id, parent)
	return id
}

// SetParent nests child under parent, detaching it from any previous parent.
func (s *State) SetParent(child, parent ecs.EntityID) {
	if old, ok := s.Parents.Get(child); ok {
		if oldChildren, ok := s.Children.Get(old.ID); ok {
			oldChildren.Remove(child)
		}
	}
	s.Parents.Set(child, &component.Parent{ID: parent})
	children, ok := s.Children.Get(parent)
	if !ok {
		children = &component.Children{}
		s.Children.Set(parent, children)
	}
	children.IDs = append(children.IDs, child)
}

// ParentOf returns the direct parent of id.
func (s *State) ParentOf(id ecs.EntityID) (ecs.EntityID, bool) {
	p, ok := s.Parents.Get(id)
	if !ok {
		return 0, false
	}
	return p.ID, true
}

// Descendants returns every entity nested under root, depth first.
func (s *State) Descendants(root ecs.EntityID) []ecs.EntityID {
	var out []ecs.EntityID
	var walk func(ecs.EntityID)
	walk = func(id ecs.EntityID) {
		children, ok := s.Children.Get(id)
		if !ok {
			return
		}
		for _, c := range children.IDs {
			out = append(out, c)
			walk(c)
		}
	}
	walk(root)
	return out
}

// Despawn queues id and its whole hierarchy for end-of-tick destruction.
// Despawning an entity already queued this tick does nothing.
func (s *State) Despawn(id ecs.EntityID) {
	if !s.ECS.Alive(id) || s.ECS.Queued(id) {
		return
	}
	if parent, ok := s.ParentOf(id); ok {
		if children, ok := s.Children.Get(parent); ok {
			children.Remove(id)
		}
	}
	for _, d := range s.Descendants(id) {
		s.ECS.MarkForDestruction(d)
	}
	s.ECS.MarkForDestruction(id)
	if s.Characters.Has(id) {
		event.Emit(s.Bus, event.ActorDespawned{Actor: id})
	}
}

// ControlledActor returns the lowest-id controlled actor, if any.
func (s *State) ControlledActor() (ecs.EntityID, bool) {
	ids := s.Controlled.IDs()
	if len(ids) == 0 {
		return 0, false
	}
	return ids[0], true
}

// Actors returns all character entities in id order.
func (s *State) Actors() []ecs.EntityID {
	return s.Characters.IDs()
}
