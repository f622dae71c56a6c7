package component

// Character stores descriptive data for an actor entity.
// Pure data. Mutations happen in systems.
type Character struct {
	Name  string
	Glyph rune // fallback glyph when no clip frame is available
}

// Controlled marks the actor driven by the local pointer input.
type Controlled struct{}

// Prop marks an animated scenery entity (not a character).
type Prop struct {
	Name  string
	Glyph rune
}
