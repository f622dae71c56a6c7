package term

import (
	"fmt"
	"math"
	"time"

	"github.com/arpgproto/arpg/internal/component"
	"github.com/arpgproto/arpg/internal/core/ecs"
	coresys "github.com/arpgproto/arpg/internal/core/system"
	"github.com/arpgproto/arpg/internal/world"
	"github.com/gdamore/tcell/v2"
	"github.com/go-gl/mathgl/mgl64"
)

// Canvas is the drawing surface. tcell.Screen satisfies it.
type Canvas interface {
	Size() (int, int)
	SetContent(x, y int, primary rune, combining []rune, style tcell.Style)
}

// Presenter flushes a finished frame. tcell.Screen satisfies it.
type Presenter interface {
	Show()
}

// GlyphSource reports the glyph a playback handle currently shows.
type GlyphSource interface {
	Glyph(handle ecs.EntityID) (rune, bool)
}

var (
	styleGround = tcell.StyleDefault.Foreground(tcell.ColorDarkGreen)
	styleProp   = tcell.StyleDefault.Foreground(tcell.ColorOlive)
	styleActor  = tcell.StyleDefault.Foreground(tcell.ColorWhite).Bold(true)
	styleHero   = tcell.StyleDefault.Foreground(tcell.ColorYellow).Bold(true)
	styleFacing = tcell.StyleDefault.Foreground(tcell.ColorAqua)
	styleTarget = tcell.StyleDefault.Foreground(tcell.ColorRed)
	styleHUD    = tcell.StyleDefault.Foreground(tcell.ColorSilver)
)

// Renderer draws the world each tick. Phase 4 (Output), registered after
// the playback system so glyphs show the current frame.
type Renderer struct {
	ws      *world.State
	canvas  Canvas
	glyphs  GlyphSource
	camera  Camera
	title   string
	forward mgl64.Vec3 // model-space axis the character faces
	frames  uint64
}

func NewRenderer(ws *world.State, canvas Canvas, glyphs GlyphSource, camera Camera, title string) *Renderer {
	return &Renderer{
		ws:      ws,
		canvas:  canvas,
		glyphs:  glyphs,
		camera:  camera,
		title:   title,
		forward: mgl64.Vec3{0, 0, 1},
	}
}

// SetForward changes the local axis treated as the model's front.
func (r *Renderer) SetForward(axis mgl64.Vec3) { r.forward = axis }

func (r *Renderer) Phase() coresys.Phase { return coresys.PhaseOutput }

func (r *Renderer) Update(_ time.Duration) {
	r.frames++
	r.clear()
	r.drawGround()
	r.drawProps()
	r.drawActors()
	r.drawHUD()
	if p, ok := r.canvas.(Presenter); ok {
		p.Show()
	}
}

func (r *Renderer) clear() {
	w, h := r.canvas.Size()
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			r.canvas.SetContent(x, y, ' ', nil, tcell.StyleDefault)
		}
	}
}

func (r *Renderer) drawGround() {
	cols, rows := r.camera.Extent()
	for y := 0; y < rows; y++ {
		for x := 0; x < cols; x++ {
			r.put(r.camera.OffsetX+x, r.camera.OffsetY+y, '.', styleGround)
		}
	}
}

func (r *Renderer) drawProps() {
	ecs.Each2(r.ws.Props, r.ws.Transforms, func(id ecs.EntityID, p *component.Prop, tr *component.Transform) {
		glyph := p.Glyph
		if g, ok := r.handleGlyph(id); ok {
			glyph = g
		}
		cx, cy := r.camera.Cell(tr.Ground())
		r.put(cx, cy, glyph, styleProp)
	})
}

func (r *Renderer) drawActors() {
	ecs.Each2(r.ws.Characters, r.ws.Transforms, func(id ecs.EntityID, c *component.Character, tr *component.Transform) {
		cx, cy := r.camera.Cell(tr.Ground())

		if m, ok := r.ws.Motions.Get(id); ok {
			if dest, moving := component.Destination(m.State()); moving {
				tx, ty := r.camera.Cell(dest)
				r.put(tx, ty, 'x', styleTarget)
			}
		}

		fwd := tr.Rotation.Rotate(r.forward)
		dx, dy, arrow := facingMarker(fwd)
		r.put(cx+dx, cy+dy, arrow, styleFacing)

		glyph := c.Glyph
		if b, ok := r.ws.Bindings.Get(id); ok && b.Bound() {
			if g, ok := r.glyphs.Glyph(b.Player); ok {
				glyph = g
			}
		}
		style := styleActor
		if r.ws.Controlled.Has(id) {
			style = styleHero
		}
		r.put(cx, cy, glyph, style)
	})
}

func (r *Renderer) drawHUD() {
	line := r.title
	if id, ok := r.ws.ControlledActor(); ok {
		if tr, ok := r.ws.Transforms.Get(id); ok {
			p := tr.Ground()
			line += fmt.Sprintf("  pos %.2f,%.2f", p[0], p[1])
		}
		if m, ok := r.ws.Motions.Get(id); ok {
			line += "  " + describe(m.State())
		}
	}
	line += fmt.Sprintf("  frame %d  [click: move  right: stop  q: quit]", r.frames)
	x := 0
	for _, ch := range line {
		r.put(x, 0, ch, styleHUD)
		x++
	}
}

// handleGlyph returns the current frame of the first player under id.
func (r *Renderer) handleGlyph(id ecs.EntityID) (rune, bool) {
	for _, d := range r.ws.Descendants(id) {
		if r.ws.Players.Has(d) {
			return r.glyphs.Glyph(d)
		}
	}
	return 0, false
}

func (r *Renderer) put(x, y int, ch rune, style tcell.Style) {
	w, h := r.canvas.Size()
	if x < 0 || y < 0 || x >= w || y >= h {
		return
	}
	r.canvas.SetContent(x, y, ch, nil, style)
}

// facingMarker picks the neighbouring cell and arrow for a world-space
// forward vector, snapping to the dominant ground axis.
func facingMarker(fwd mgl64.Vec3) (int, int, rune) {
	if math.Abs(fwd[0]) >= math.Abs(fwd[2]) {
		if fwd[0] >= 0 {
			return 1, 0, '>'
		}
		return -1, 0, '<'
	}
	if fwd[2] >= 0 {
		return 0, 1, 'v'
	}
	return 0, -1, '^'
}

func describe(s component.MotionState) string {
	if d, ok := component.Destination(s); ok {
		return fmt.Sprintf("moving to %.2f,%.2f", d[0], d[1])
	}
	return "idle"
}
