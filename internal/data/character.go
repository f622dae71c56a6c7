package data

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// CharacterTemplate holds static data for a spawnable actor loaded from YAML.
type CharacterTemplate struct {
	Name       string  `yaml:"name"`
	Glyph      string  `yaml:"glyph"`
	X          float64 `yaml:"x"`
	Y          float64 `yaml:"y"` // height above ground
	Z          float64 `yaml:"z"`
	IdleClip   string  `yaml:"idle_clip"`
	MovingClip string  `yaml:"moving_clip"`
	Controlled bool    `yaml:"controlled"`
	// SceneDelay is the number of ticks the imported scene takes to
	// materialize its animation player after the actor spawns.
	SceneDelay int `yaml:"scene_delay"`
}

// GlyphRune returns the first rune of Glyph, or '@'.
func (c *CharacterTemplate) GlyphRune() rune {
	for _, r := range c.Glyph {
		return r
	}
	return '@'
}

type characterListFile struct {
	Characters []CharacterTemplate `yaml:"characters"`
}

// CharacterTable holds all character templates in file order.
type CharacterTable struct {
	list   []*CharacterTemplate
	byName map[string]*CharacterTemplate
}

// LoadCharacterTable loads characters.yaml.
func LoadCharacterTable(path string) (*CharacterTable, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read character list: %w", err)
	}
	var f characterListFile
	if err := yaml.Unmarshal(raw, &f); err != nil {
		return nil, fmt.Errorf("parse character list: %w", err)
	}
	t := &CharacterTable{
		list:   make([]*CharacterTemplate, 0, len(f.Characters)),
		byName: make(map[string]*CharacterTemplate, len(f.Characters)),
	}
	for i := range f.Characters {
		c := &f.Characters[i]
		if c.Name == "" {
			return nil, fmt.Errorf("character #%d: missing name", i)
		}
		if c.IdleClip == "" || c.MovingClip == "" {
			return nil, fmt.Errorf("character %s: idle_clip and moving_clip are required", c.Name)
		}
		if _, dup := t.byName[c.Name]; dup {
			return nil, fmt.Errorf("character %s: duplicate name", c.Name)
		}
		if c.SceneDelay < 0 {
			c.SceneDelay = 0
		}
		t.list = append(t.list, c)
		t.byName[c.Name] = c
	}
	return t, nil
}

// Get returns a template by name, or nil if not found.
func (t *CharacterTable) Get(name string) *CharacterTemplate {
	return t.byName[name]
}

// All returns the templates in file order.
func (t *CharacterTable) All() []*CharacterTemplate {
	return t.list
}

// Count returns the total number of templates loaded.
func (t *CharacterTable) Count() int {
	return len(t.list)
}
