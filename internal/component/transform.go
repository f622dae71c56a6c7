package component

import "github.com/go-gl/mathgl/mgl64"

// Transform is the host-owned 3-D placement of an entity. The behavior core
// only touches the ground projection (X, Z) and the yaw rotation.
type Transform struct {
	Translation mgl64.Vec3
	Rotation    mgl64.Quat
}

// NewTransform places an entity at (x, y, z) with identity rotation.
func NewTransform(x, y, z float64) *Transform {
	return &Transform{
		Translation: mgl64.Vec3{x, y, z},
		Rotation:    mgl64.QuatIdent(),
	}
}

// Ground returns the ground-plane projection (x, z).
func (t *Transform) Ground() mgl64.Vec2 {
	return mgl64.Vec2{t.Translation[0], t.Translation[2]}
}

// SetGround writes the ground-plane projection, keeping the height.
func (t *Transform) SetGround(p mgl64.Vec2) {
	t.Translation[0] = p[0]
	t.Translation[2] = p[1]
}
