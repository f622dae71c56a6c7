// Package audio plays short tones when animation clips start or loop:
// footsteps while running, a soft blip when settling into idle.
package audio

import (
	"fmt"
	"math"
	"time"

	"github.com/arpgproto/arpg/internal/anim"
	"github.com/gopxl/beep"
	"github.com/gopxl/beep/effects"
	"github.com/gopxl/beep/generators"
	"github.com/gopxl/beep/speaker"
	"go.uber.org/zap"
)

// Sink accepts finished streamers for playback.
type Sink interface {
	Play(s beep.Streamer)
}

type speakerSink struct{}

func (speakerSink) Play(s beep.Streamer) { speaker.Play(s) }

// OpenSpeaker initializes the system audio device with a 100ms buffer.
func OpenSpeaker(rate beep.SampleRate) (Sink, error) {
	if err := speaker.Init(rate, rate.N(time.Second/10)); err != nil {
		return nil, fmt.Errorf("init speaker: %w", err)
	}
	return speakerSink{}, nil
}

// CloseSpeaker releases the audio device.
func CloseSpeaker() {
	speaker.Close()
}

// CuePlayer turns clip start and loop events into sine blips.
type CuePlayer struct {
	sink   Sink
	rate   beep.SampleRate
	length time.Duration
	volume float64 // linear gain, 0..1
	log    *zap.Logger
	played int
}

func NewCuePlayer(sink Sink, rate beep.SampleRate, length time.Duration, volume float64, log *zap.Logger) *CuePlayer {
	return &CuePlayer{sink: sink, rate: rate, length: length, volume: volume, log: log}
}

// OnClip implements anim.Listener.
func (c *CuePlayer) OnClip(e anim.ClipEvent) {
	if e.Kind == anim.ClipFinished || e.Clip == nil || e.Clip.CueHz <= 0 {
		return
	}
	s, err := c.Cue(e.Clip.CueHz)
	if err != nil {
		c.log.Warn("audio cue failed", zap.String("clip", e.Clip.ID), zap.Error(err))
		return
	}
	c.sink.Play(s)
	c.played++
}

// Played returns the number of cues handed to the sink.
func (c *CuePlayer) Played() int { return c.played }

// Cue builds a single tone of the configured length and volume.
func (c *CuePlayer) Cue(hz float64) (beep.Streamer, error) {
	tone, err := generators.SineTone(c.rate, hz)
	if err != nil {
		return nil, fmt.Errorf("sine tone %.1fHz: %w", hz, err)
	}
	vol := &effects.Volume{
		Streamer: beep.Take(c.rate.N(c.length), tone),
		Base:     2,
		Silent:   c.volume <= 0,
	}
	if !vol.Silent {
		vol.Volume = math.Log2(c.volume)
	}
	return vol, nil
}
