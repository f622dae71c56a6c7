// Package anim is the host-side animation playback layer. It owns the
// AnimationPlayer components: starting clips on command and advancing
// frames every tick.
package anim

import (
	"time"

	"github.com/arpgproto/arpg/internal/component"
	"github.com/arpgproto/arpg/internal/core/ecs"
	coresys "github.com/arpgproto/arpg/internal/core/system"
	"github.com/arpgproto/arpg/internal/data"
	"github.com/arpgproto/arpg/internal/world"
	"go.uber.org/zap"
)

// ClipEventKind says why a listener is being notified.
type ClipEventKind int

const (
	ClipStarted ClipEventKind = iota
	ClipLooped
	ClipFinished
)

func (k ClipEventKind) String() string {
	switch k {
	case ClipStarted:
		return "started"
	case ClipLooped:
		return "looped"
	case ClipFinished:
		return "finished"
	}
	return "unknown"
}

// ClipEvent describes a playback milestone on one handle.
type ClipEvent struct {
	Handle ecs.EntityID
	Clip   *data.Clip
	Kind   ClipEventKind
}

// Listener observes playback milestones. Used by the audio cue player.
type Listener interface {
	OnClip(e ClipEvent)
}

// Playback executes play commands against AnimationPlayer components.
type Playback struct {
	ws        *world.State
	listeners []Listener
	log       *zap.Logger
}

func NewPlayback(ws *world.State, log *zap.Logger) *Playback {
	return &Playback{ws: ws, log: log}
}

func (p *Playback) AddListener(l Listener) {
	p.listeners = append(p.listeners, l)
}

// Play starts clip on handle. Commanding the clip that is already running
// only updates the repeat mode; the clip is not restarted.
func (p *Playback) Play(handle ecs.EntityID, clip component.ClipID, repeat bool) {
	pl, ok := p.ws.Players.Get(handle)
	if !ok {
		p.log.Debug("play on entity without player",
			zap.Stringer("handle", handle), zap.String("clip", string(clip)))
		return
	}
	if pl.Clip == clip && !pl.Done {
		pl.Repeat = repeat
		return
	}
	c := p.clip(clip)
	if c == nil {
		p.log.Warn("unknown animation clip",
			zap.Stringer("handle", handle), zap.String("clip", string(clip)))
	}
	*pl = component.AnimationPlayer{
		Clip:   clip,
		Repeat: repeat,
		Starts: pl.Starts + 1,
	}
	if c != nil {
		p.notify(ClipEvent{Handle: handle, Clip: c, Kind: ClipStarted})
	}
}

// Glyph returns the rune of the frame handle is currently showing.
func (p *Playback) Glyph(handle ecs.EntityID) (rune, bool) {
	pl, ok := p.ws.Players.Get(handle)
	if !ok {
		return 0, false
	}
	c := p.clip(pl.Clip)
	if c == nil {
		return 0, false
	}
	return c.Rune(pl.Frame), true
}

func (p *Playback) clip(id component.ClipID) *data.Clip {
	if p.ws.Clips == nil || id == "" {
		return nil
	}
	return p.ws.Clips.Get(string(id))
}

func (p *Playback) notify(e ClipEvent) {
	for _, l := range p.listeners {
		l.OnClip(e)
	}
}

// advance moves one player forward by dt.
func (p *Playback) advance(handle ecs.EntityID, pl *component.AnimationPlayer, dt time.Duration) {
	if pl.Done {
		return
	}
	c := p.clip(pl.Clip)
	if c == nil || c.FrameDuration() <= 0 {
		return
	}
	pl.Elapsed += dt
	frame := int(pl.Elapsed / c.FrameDuration())
	count := c.FrameCount()
	if frame < count {
		pl.Frame = frame
		return
	}
	if !pl.Repeat {
		pl.Frame = count - 1
		pl.Elapsed = c.Length()
		pl.Done = true
		p.notify(ClipEvent{Handle: handle, Clip: c, Kind: ClipFinished})
		return
	}
	pl.Elapsed %= c.Length()
	pl.Frame = int(pl.Elapsed / c.FrameDuration())
	p.notify(ClipEvent{Handle: handle, Clip: c, Kind: ClipLooped})
}

// PlaybackSystem advances every animation player. Phase 4 (Output).
type PlaybackSystem struct {
	playback *Playback
}

func NewPlaybackSystem(playback *Playback) *PlaybackSystem {
	return &PlaybackSystem{playback: playback}
}

func (s *PlaybackSystem) Phase() coresys.Phase { return coresys.PhaseOutput }

func (s *PlaybackSystem) Update(dt time.Duration) {
	s.playback.ws.Players.Each(func(id ecs.EntityID, pl *component.AnimationPlayer) {
		s.playback.advance(id, pl, dt)
	})
}
