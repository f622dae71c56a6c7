package scripting

import (
	"time"

	"github.com/arpgproto/arpg/internal/component"
	"github.com/arpgproto/arpg/internal/core/ecs"
	"github.com/arpgproto/arpg/internal/core/event"
	coresys "github.com/arpgproto/arpg/internal/core/system"
	"github.com/arpgproto/arpg/internal/input"
	"github.com/arpgproto/arpg/internal/picking"
	"github.com/arpgproto/arpg/internal/world"
	"github.com/go-gl/mathgl/mgl64"
)

// probeHeight is where the scripted pointer ray starts above the ground.
const probeHeight = 50.0

// Driver feeds scripted input into the world the way a mouse would: it
// casts a ray straight down at the script's (x, z), stores the hit on the
// cursor and sets every controlled actor's action state. Register it after
// the event dispatcher and before the move translator. Phase 0 (Input).
type Driver struct {
	engine *Engine
	ws     *world.State
	tick   uint64
}

func NewDriver(engine *Engine, ws *world.State) *Driver {
	d := &Driver{engine: engine, ws: ws}
	g := ws.Ground
	engine.SetGround(g.Min[0], g.Min[1], g.Max[0], g.Max[1])
	event.Subscribe(ws.Bus, func(e event.MotionArrived) {
		if ws.Controlled.Has(e.Actor) {
			engine.Arrived(e.Position[0], e.Position[1])
		}
	})
	return d
}

func (d *Driver) Phase() coresys.Phase { return coresys.PhaseInput }

func (d *Driver) Update(_ time.Duration) {
	d.tick++
	cmd := d.engine.Input(d.tick)

	if cmd.HasHit {
		ray := picking.Ray{
			Origin:    mgl64.Vec3{cmd.X, d.ws.Ground.Height + probeHeight, cmd.Z},
			Direction: mgl64.Vec3{0, -1, 0},
		}
		d.ws.Cursor.Update(d.ws.Ground.Intersect(ray))
	} else {
		d.ws.Cursor.Clear()
	}

	ecs.Each2(d.ws.Controlled, d.ws.Actions, func(_ ecs.EntityID, _ *component.Controlled, act *input.ActionState) {
		act.Reset()
		if cmd.Pressed {
			act.Press(input.ActionMoveTo)
		}
		if cmd.Stop {
			act.Press(input.ActionStop)
		}
	})
}

// Tick returns the number of ticks driven so far.
func (d *Driver) Tick() uint64 { return d.tick }
