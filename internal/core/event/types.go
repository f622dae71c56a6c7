package event

import (
	"github.com/arpgproto/arpg/internal/core/ecs"
	"github.com/go-gl/mathgl/mgl64"
)

// PlaybackHandleAdded is raised by the scene host when a new animation
// playback handle entity has been instantiated somewhere in the hierarchy.
type PlaybackHandleAdded struct {
	Handle ecs.EntityID
}

// MotionStarted is raised when a controlled actor receives a new destination.
type MotionStarted struct {
	Actor       ecs.EntityID
	Destination mgl64.Vec2
}

// MotionArrived is raised when a movement episode ends at its destination.
type MotionArrived struct {
	Actor    ecs.EntityID
	Position mgl64.Vec2
}

// ActorDespawned is raised when an actor and its hierarchy are queued for destruction.
type ActorDespawned struct {
	Actor ecs.EntityID
}
