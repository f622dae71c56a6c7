package component

import (
	"time"

	"github.com/arpgproto/arpg/internal/core/ecs"
)

// ClipID names an animation clip in the clip table.
type ClipID string

// AnimationBinding ties an actor to its two clips and, once the scene host
// has instantiated it, to the live playback handle.
type AnimationBinding struct {
	Idle   ClipID
	Moving ClipID

	// Player is the playback handle entity; zero until bound, never reset after.
	Player ecs.EntityID

	// Playing is the clip last commanded on Player.
	Playing ClipID
}

func (b *AnimationBinding) Bound() bool { return !b.Player.IsZero() }

// Bind records the playback handle. Returns false when a handle is already bound.
func (b *AnimationBinding) Bind(handle ecs.EntityID) bool {
	if b.Bound() || handle.IsZero() {
		return false
	}
	b.Player = handle
	return true
}

// ClipFor maps a motion state to the clip that should be playing.
func (b *AnimationBinding) ClipFor(s MotionState) ClipID {
	if IsMoving(s) {
		return b.Moving
	}
	return b.Idle
}

// AnimationPlayer is the state of a live playback handle.
type AnimationPlayer struct {
	Clip    ClipID
	Repeat  bool
	Elapsed time.Duration
	Frame   int
	Done    bool // a non-repeating clip reached its last frame
	Starts  int  // number of clip (re)starts, for diagnostics
}
