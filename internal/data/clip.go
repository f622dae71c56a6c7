package data

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Clip is a looping glyph animation with an optional audio cue.
type Clip struct {
	ID      string  `yaml:"id"`
	Frames  string  `yaml:"frames"`   // one rune per frame
	FrameMS int     `yaml:"frame_ms"` // duration of a single frame
	CueHz   float64 `yaml:"cue_hz"`   // 0 = silent

	runes []rune
}

// FrameCount returns the number of frames (at least 1).
func (c *Clip) FrameCount() int {
	return len(c.runes)
}

// FrameDuration returns how long one frame is shown.
func (c *Clip) FrameDuration() time.Duration {
	return time.Duration(c.FrameMS) * time.Millisecond
}

// Length returns the duration of one full pass through the clip.
func (c *Clip) Length() time.Duration {
	return c.FrameDuration() * time.Duration(len(c.runes))
}

// Rune returns the glyph of frame i, wrapping around.
func (c *Clip) Rune(i int) rune {
	if len(c.runes) == 0 {
		return '?'
	}
	if i < 0 {
		i = 0
	}
	return c.runes[i%len(c.runes)]
}

type clipListFile struct {
	Clips []Clip `yaml:"clips"`
}

// ClipTable provides lookup of animation clips by id.
type ClipTable struct {
	clips map[string]*Clip
}

// LoadClipTable loads clips.yaml.
func LoadClipTable(path string) (*ClipTable, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read clip list: %w", err)
	}
	return ParseClipTable(raw)
}

// ParseClipTable builds a table from YAML bytes.
func ParseClipTable(raw []byte) (*ClipTable, error) {
	var f clipListFile
	if err := yaml.Unmarshal(raw, &f); err != nil {
		return nil, fmt.Errorf("parse clip list: %w", err)
	}
	t := &ClipTable{clips: make(map[string]*Clip, len(f.Clips))}
	for i := range f.Clips {
		c := &f.Clips[i]
		if c.ID == "" {
			return nil, fmt.Errorf("clip #%d: missing id", i)
		}
		c.runes = []rune(c.Frames)
		if len(c.runes) == 0 {
			return nil, fmt.Errorf("clip %s: no frames", c.ID)
		}
		if c.FrameMS <= 0 {
			c.FrameMS = 100
		}
		t.clips[c.ID] = c
	}
	return t, nil
}

// Get returns the clip with the given id, or nil if none.
func (t *ClipTable) Get(id string) *Clip {
	return t.clips[id]
}

// Count returns the total number of clips loaded.
func (t *ClipTable) Count() int {
	return len(t.clips)
}
