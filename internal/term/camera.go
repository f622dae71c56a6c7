// Package term is the interactive terminal host: a top-down orthographic
// view of the ground drawn with tcell, with the mouse as the pointer.
package term

import (
	"math"

	"github.com/arpgproto/arpg/internal/picking"
	"github.com/go-gl/mathgl/mgl64"
)

// Camera maps terminal cells to ground rays and back. It looks straight
// down from Height; one ground unit spans CellsX columns and CellsZ rows.
// Ground +Z grows down the screen.
type Camera struct {
	Ground  picking.GroundPlane
	CellsX  float64
	CellsZ  float64
	OffsetX int // column of the ground's Min corner
	OffsetY int // row of the ground's Min corner
	Height  float64
}

func NewCamera(ground picking.GroundPlane, cellsX, cellsZ float64, offsetY int) Camera {
	return Camera{
		Ground:  ground,
		CellsX:  cellsX,
		CellsZ:  cellsZ,
		OffsetY: offsetY,
		Height:  ground.Height + 100,
	}
}

// Ray returns the pointer ray through the center of cell (cx, cy).
func (c Camera) Ray(cx, cy int) picking.Ray {
	x := c.Ground.Min[0] + (float64(cx-c.OffsetX)+0.5)/c.CellsX
	z := c.Ground.Min[1] + (float64(cy-c.OffsetY)+0.5)/c.CellsZ
	return picking.Ray{
		Origin:    mgl64.Vec3{x, c.Height, z},
		Direction: mgl64.Vec3{0, -1, 0},
	}
}

// Cell returns the cell showing ground point p.
func (c Camera) Cell(p mgl64.Vec2) (int, int) {
	cx := c.OffsetX + int(math.Floor((p[0]-c.Ground.Min[0])*c.CellsX))
	cy := c.OffsetY + int(math.Floor((p[1]-c.Ground.Min[1])*c.CellsZ))
	return cx, cy
}

// Extent returns the number of columns and rows the ground occupies.
func (c Camera) Extent() (int, int) {
	size := c.Ground.Max.Sub(c.Ground.Min)
	return int(math.Ceil(size[0] * c.CellsX)), int(math.Ceil(size[1] * c.CellsZ))
}
