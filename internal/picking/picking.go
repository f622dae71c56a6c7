// Package picking resolves pointer rays against the ground plane.
package picking

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"
)

// Ray is a half-line from Origin along Direction.
type Ray struct {
	Origin    mgl64.Vec3
	Direction mgl64.Vec3
}

// GroundPlane is the horizontal playable surface at Height, bounded on the
// ground by Min/Max (x, z) inclusive.
type GroundPlane struct {
	Height float64
	Min    mgl64.Vec2
	Max    mgl64.Vec2
}

// NewGroundPlane returns a width x depth surface with its corner at the origin.
func NewGroundPlane(width, depth float64) GroundPlane {
	return GroundPlane{Max: mgl64.Vec2{width, depth}}
}

// Contains reports whether the ground point p lies on the surface.
func (g GroundPlane) Contains(p mgl64.Vec2) bool {
	return p[0] >= g.Min[0] && p[0] <= g.Max[0] && p[1] >= g.Min[1] && p[1] <= g.Max[1]
}

// Center returns the middle of the surface.
func (g GroundPlane) Center() mgl64.Vec2 {
	return g.Min.Add(g.Max).Mul(0.5)
}

// Intersect returns the point where r hits the surface. No hit when the ray
// runs parallel to the plane, points away from it, or lands outside the bounds.
func (g GroundPlane) Intersect(r Ray) (mgl64.Vec3, bool) {
	dy := r.Direction[1]
	if math.Abs(dy) < 1e-12 {
		return mgl64.Vec3{}, false
	}
	t := (g.Height - r.Origin[1]) / dy
	if t < 0 || math.IsNaN(t) || math.IsInf(t, 0) {
		return mgl64.Vec3{}, false
	}
	hit := r.Origin.Add(r.Direction.Mul(t))
	if !g.Contains(mgl64.Vec2{hit[0], hit[2]}) {
		return mgl64.Vec3{}, false
	}
	return hit, true
}

// Cursor is the latest pointer-to-ground intersection, written by the host
// input layer and read by the move translator.
type Cursor struct {
	hit   mgl64.Vec3
	valid bool
}

// Set records a hit.
func (c *Cursor) Set(p mgl64.Vec3) {
	c.hit = p
	c.valid = true
}

// Clear records that the pointer is off the playable surface.
func (c *Cursor) Clear() {
	c.hit = mgl64.Vec3{}
	c.valid = false
}

// Update stores the result of an Intersect call.
func (c *Cursor) Update(p mgl64.Vec3, ok bool) {
	if ok {
		c.Set(p)
		return
	}
	c.Clear()
}

// Intersection returns the current hit, if any.
func (c *Cursor) Intersection() (mgl64.Vec3, bool) {
	return c.hit, c.valid
}

// Finite reports whether every component of v is a real number.
func Finite(v mgl64.Vec3) bool {
	for _, x := range v {
		if math.IsNaN(x) || math.IsInf(x, 0) {
			return false
		}
	}
	return true
}
