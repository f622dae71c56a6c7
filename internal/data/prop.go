package data

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// PropEntry places an animated piece of scenery. Its animation player hangs
// directly under the prop's scene root, never under an actor.
type PropEntry struct {
	Name  string  `yaml:"name"`
	Glyph string  `yaml:"glyph"`
	X     float64 `yaml:"x"`
	Z     float64 `yaml:"z"`
	Clip  string  `yaml:"clip"` // empty = static prop without a player
}

// GlyphRune returns the first rune of Glyph, or '#'.
func (p *PropEntry) GlyphRune() rune {
	for _, r := range p.Glyph {
		return r
	}
	return '#'
}

type propListFile struct {
	Props []PropEntry `yaml:"props"`
}

// LoadPropList loads props.yaml. A missing file yields an empty list.
func LoadPropList(path string) ([]PropEntry, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("read prop list: %w", err)
	}
	var f propListFile
	if err := yaml.Unmarshal(raw, &f); err != nil {
		return nil, fmt.Errorf("parse prop list: %w", err)
	}
	return f.Props, nil
}
