package system

import (
	"math"
	"testing"
	"time"

	"github.com/arpgproto/arpg/internal/component"
	"github.com/arpgproto/arpg/internal/core/ecs"
	"github.com/arpgproto/arpg/internal/core/event"
	coresys "github.com/arpgproto/arpg/internal/core/system"
	"github.com/arpgproto/arpg/internal/data"
	"github.com/arpgproto/arpg/internal/input"
	"github.com/arpgproto/arpg/internal/picking"
	"github.com/arpgproto/arpg/internal/world"
	"github.com/go-gl/mathgl/mgl64"
)

const tick = 16 * time.Millisecond

type playCall struct {
	handle ecs.EntityID
	clip   component.ClipID
	repeat bool
}

type recordingPlayback struct {
	calls []playCall
}

func (r *recordingPlayback) Play(handle ecs.EntityID, clip component.ClipID, repeat bool) {
	r.calls = append(r.calls, playCall{handle, clip, repeat})
}

func newTestWorld() *world.State {
	return world.NewState(picking.NewGroundPlane(16, 16), nil)
}

func spawnHero(ws *world.State, x, z float64) ecs.EntityID {
	return ws.SpawnActor(&data.CharacterTemplate{
		Name: "hero", X: x, Z: z,
		IdleClip: "idle", MovingClip: "run",
		Controlled: true,
	})
}

// attachScene builds actor -> scene root -> armature and returns the armature.
func attachScene(ws *world.State, owner ecs.EntityID) ecs.EntityID {
	root := ws.CreateNode(owner)
	armature := ws.CreateNode(root)
	ws.Players.Set(armature, &component.AnimationPlayer{})
	return armature
}

// near compares with an absolute tolerance; quaternion round-off leaves
// values like 1e-16 where an exact zero is expected.
func near(got, want mgl64.Vec3) bool {
	return got.Sub(want).Len() <= 1e-9
}

func groundPos(t *testing.T, ws *world.State, id ecs.EntityID) mgl64.Vec2 {
	t.Helper()
	tr, ok := ws.Transforms.Get(id)
	if !ok {
		t.Fatalf("Expected transform on %v", id)
	}
	return tr.Ground()
}

func motionOf(t *testing.T, ws *world.State, id ecs.EntityID) *component.Motion {
	t.Helper()
	m, ok := ws.Motions.Get(id)
	if !ok {
		t.Fatalf("Expected motion on %v", id)
	}
	return m
}

// TestArrivalConvergence verifies actors reach the destination within the tick bound
func TestArrivalConvergence(t *testing.T) {
	cases := []struct {
		name  string
		start mgl64.Vec2
		dest  mgl64.Vec2
		dt    time.Duration
	}{
		{"diagonal", mgl64.Vec2{0, 0}, mgl64.Vec2{3, 4}, tick},
		{"short hop", mgl64.Vec2{5, 5}, mgl64.Vec2{5.01, 5}, tick},
		{"frame spike", mgl64.Vec2{1, 1}, mgl64.Vec2{9, 12}, 750 * time.Millisecond},
		{"odd step", mgl64.Vec2{2, 7}, mgl64.Vec2{-3.3, 0.25}, 33 * time.Millisecond},
	}
	params := DefaultMovementParams()

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			ws := newTestWorld()
			hero := spawnHero(ws, tc.start[0], tc.start[1])
			motionOf(t, ws, hero).Transition(component.MovingToState(tc.dest))
			sys := NewMovementSystem(ws, params)

			dist := tc.dest.Sub(tc.start).Len()
			bound := int(math.Ceil(dist/(params.Speed*tc.dt.Seconds()))) + 1

			ticks := 0
			for ticks < bound && component.IsMoving(motionOf(t, ws, hero).State()) {
				sys.Update(tc.dt)
				ticks++
			}

			if component.IsMoving(motionOf(t, ws, hero).State()) {
				t.Fatalf("Expected Idle within %d ticks", bound)
			}
			if d := groundPos(t, ws, hero).Sub(tc.dest).Len(); d > params.ArrivalEpsilon {
				t.Errorf("Expected final position within %v of destination, off by %v", params.ArrivalEpsilon, d)
			}
		})
	}
}

// TestNoOvershoot verifies distance to target never grows across a step
func TestNoOvershoot(t *testing.T) {
	ws := newTestWorld()
	hero := spawnHero(ws, 0, 0)
	dest := mgl64.Vec2{7, -2}
	motionOf(t, ws, hero).Transition(component.MovingToState(dest))
	sys := NewMovementSystem(ws, DefaultMovementParams())

	prev := dest.Sub(groundPos(t, ws, hero)).Len()
	for i := 0; i < 1000 && component.IsMoving(motionOf(t, ws, hero).State()); i++ {
		// Alternate small and huge frame times.
		dt := tick
		if i%3 == 2 {
			dt = 2 * time.Second
		}
		sys.Update(dt)
		cur := dest.Sub(groundPos(t, ws, hero)).Len()
		if cur > prev {
			t.Fatalf("Tick %d: distance grew from %v to %v", i, prev, cur)
		}
		prev = cur
	}
}

// TestRetargetReplacesDestination verifies a new target takes effect on the very next step
func TestRetargetReplacesDestination(t *testing.T) {
	ws := newTestWorld()
	hero := spawnHero(ws, 0, 0)
	sys := NewMovementSystem(ws, DefaultMovementParams())
	m := motionOf(t, ws, hero)

	m.Transition(component.MovingToState(mgl64.Vec2{10, 0}))
	for i := 0; i < 5; i++ {
		sys.Update(tick)
	}

	d2 := mgl64.Vec2{0, 10}
	m.Transition(component.MovingToState(d2))
	before := groundPos(t, ws, hero)
	sys.Update(tick)
	after := groundPos(t, ws, hero)

	moved := after.Sub(before).Normalize()
	want := d2.Sub(before).Normalize()
	if moved.Dot(want) < 0.9999 {
		t.Errorf("Expected step toward %v, moved along %v", want, moved)
	}
	if got, _ := component.Destination(m.State()); got != d2 {
		t.Errorf("Expected destination %v, got %v", d2, got)
	}
}

// TestZeroDistanceClick verifies a target at the current position ends the episode without moving
func TestZeroDistanceClick(t *testing.T) {
	ws := newTestWorld()
	hero := spawnHero(ws, 4, 4)
	var arrived []event.MotionArrived
	event.Subscribe(ws.Bus, func(e event.MotionArrived) { arrived = append(arrived, e) })

	m := motionOf(t, ws, hero)
	m.Transition(component.MovingToState(mgl64.Vec2{4, 4}))
	tr, _ := ws.Transforms.Get(hero)
	rot := tr.Rotation

	NewMovementSystem(ws, DefaultMovementParams()).Update(tick)

	if component.IsMoving(m.State()) {
		t.Error("Expected Idle after one tick")
	}
	if p := groundPos(t, ws, hero); p != (mgl64.Vec2{4, 4}) {
		t.Errorf("Expected position unchanged, got %v", p)
	}
	if tr.Rotation != rot {
		t.Error("Expected facing unchanged")
	}

	ws.Bus.SwapBuffers()
	ws.Bus.DispatchAll()
	if len(arrived) != 1 || arrived[0].Actor != hero {
		t.Errorf("Expected one MotionArrived for %v, got %v", hero, arrived)
	}
}

// TestFacingFollowsTravel verifies local +Z points along travel with the default offset
func TestFacingFollowsTravel(t *testing.T) {
	dirs := []mgl64.Vec2{{1, 0}, {0, 1}, {-1, 0}, {0, -1}, mgl64.Vec2{1, 1}.Normalize()}
	for _, d := range dirs {
		q := Facing(d, math.Pi)
		fwd := q.Rotate(mgl64.Vec3{0, 0, 1})
		want := mgl64.Vec3{d[0], 0, d[1]}
		if !near(fwd, want) {
			t.Errorf("Direction %v: expected forward %v, got %v", d, want, fwd)
		}
	}

	// Without the correction the model's -Z leads.
	q := Facing(mgl64.Vec2{1, 0}, 0)
	if back := q.Rotate(mgl64.Vec3{0, 0, -1}); !near(back, mgl64.Vec3{1, 0, 0}) {
		t.Errorf("Expected -Z along travel without offset, got %v", back)
	}
}

func TestNormalizeAndClamp(t *testing.T) {
	if v := normalizeOrZero(mgl64.Vec2{}); v != (mgl64.Vec2{}) {
		t.Errorf("Expected zero vector, got %v", v)
	}
	if v := normalizeOrZero(mgl64.Vec2{3, 4}); math.Abs(v.Len()-1) > 1e-12 {
		t.Errorf("Expected unit length, got %v", v.Len())
	}
	if v := clampLength(mgl64.Vec2{3, 4}, 2.5); math.Abs(v.Len()-2.5) > 1e-12 {
		t.Errorf("Expected clamped length 2.5, got %v", v.Len())
	}
	if v := clampLength(mgl64.Vec2{0.3, 0.4}, 2.5); v != (mgl64.Vec2{0.3, 0.4}) {
		t.Errorf("Expected short vector unchanged, got %v", v)
	}
}

// TestSelectorFiresOncePerTransition verifies Idle,Idle,Moving,Moving,Moving,Idle yields two plays
func TestSelectorFiresOncePerTransition(t *testing.T) {
	ws := newTestWorld()
	hero := spawnHero(ws, 0, 0)
	handle := attachScene(ws, hero)
	b, _ := ws.Bindings.Get(hero)
	b.Bind(handle)
	b.Playing = b.Idle

	pb := &recordingPlayback{}
	sel := NewAnimationSystem(ws, pb)
	m := motionOf(t, ws, hero)
	dest := component.MovingToState(mgl64.Vec2{3, 3})

	sequence := []component.MotionState{
		component.IdleState(), component.IdleState(),
		dest, dest, dest,
		component.IdleState(),
	}
	for _, st := range sequence {
		m.Transition(st)
		sel.Update(tick)
	}

	if len(pb.calls) != 2 {
		t.Fatalf("Expected 2 play commands, got %d: %v", len(pb.calls), pb.calls)
	}
	want := []playCall{{handle, "run", true}, {handle, "idle", true}}
	for i := range want {
		if pb.calls[i] != want[i] {
			t.Errorf("Call %d: expected %v, got %v", i, want[i], pb.calls[i])
		}
	}
}

// TestSelectorRetargetKeepsClip verifies redirecting mid-walk does not restart the moving clip
func TestSelectorRetargetKeepsClip(t *testing.T) {
	ws := newTestWorld()
	hero := spawnHero(ws, 0, 0)
	handle := attachScene(ws, hero)
	b, _ := ws.Bindings.Get(hero)
	b.Bind(handle)
	b.Playing = b.Idle

	pb := &recordingPlayback{}
	sel := NewAnimationSystem(ws, pb)
	m := motionOf(t, ws, hero)

	m.Transition(component.MovingToState(mgl64.Vec2{1, 0}))
	sel.Update(tick)
	m.Transition(component.MovingToState(mgl64.Vec2{0, 1}))
	sel.Update(tick)

	if len(pb.calls) != 1 {
		t.Errorf("Expected 1 play command, got %d", len(pb.calls))
	}
	if m.Changed() {
		t.Error("Expected changed flag cleared")
	}
}

// TestSelectorUnboundClearsFlag verifies an unbound actor issues nothing and still consumes the change
func TestSelectorUnboundClearsFlag(t *testing.T) {
	ws := newTestWorld()
	hero := spawnHero(ws, 0, 0)
	pb := &recordingPlayback{}
	sel := NewAnimationSystem(ws, pb)
	m := motionOf(t, ws, hero)

	m.Transition(component.MovingToState(mgl64.Vec2{1, 1}))
	sel.Update(tick)

	if len(pb.calls) != 0 {
		t.Errorf("Expected no play commands, got %v", pb.calls)
	}
	if m.Changed() {
		t.Error("Expected changed flag cleared")
	}
}

// TestAttachBindsOnce verifies the actor binds its own handle and ignores scenery and later handles
func TestAttachBindsOnce(t *testing.T) {
	ws := newTestWorld()
	hero := spawnHero(ws, 0, 0)
	prop := ws.SpawnProp(data.PropEntry{Name: "windmill", Clip: "spin"})
	pb := &recordingPlayback{}
	dispatch := NewEventDispatchSystem(ws.Bus)
	attach := NewAttachSystem(ws, pb)

	heroHandle := attachScene(ws, hero)
	event.Emit(ws.Bus, event.PlaybackHandleAdded{Handle: heroHandle})
	dispatch.Update(tick)
	attach.Update(tick)

	b, _ := ws.Bindings.Get(hero)
	if b.Player != heroHandle {
		t.Fatalf("Expected binding to %v, got %v", heroHandle, b.Player)
	}
	if len(pb.calls) != 1 || pb.calls[0] != (playCall{heroHandle, "idle", true}) {
		t.Fatalf("Expected idle play on %v, got %v", heroHandle, pb.calls)
	}
	if b.Playing != "idle" {
		t.Errorf("Expected Playing idle, got %q", b.Playing)
	}

	propHandle := attachScene(ws, prop)
	event.Emit(ws.Bus, event.PlaybackHandleAdded{Handle: propHandle})
	dispatch.Update(tick)
	attach.Update(tick)

	if len(pb.calls) != 1 {
		t.Errorf("Expected scenery handle to cause no play, got %v", pb.calls)
	}
	if b.Player != heroHandle {
		t.Errorf("Expected binding unchanged, got %v", b.Player)
	}

	// A second handle under the same actor is ignored.
	again := attachScene(ws, hero)
	event.Emit(ws.Bus, event.PlaybackHandleAdded{Handle: again})
	dispatch.Update(tick)
	attach.Update(tick)

	if b.Player != heroHandle || len(pb.calls) != 1 {
		t.Errorf("Expected re-fire to be a no-op, binding %v calls %v", b.Player, pb.calls)
	}
	if attach.Pending() != 0 {
		t.Errorf("Expected queue drained, got %d", attach.Pending())
	}
}

// TestAttachIgnoresShallowHandle verifies a handle directly under an actor is not bound
func TestAttachIgnoresShallowHandle(t *testing.T) {
	ws := newTestWorld()
	hero := spawnHero(ws, 0, 0)
	pb := &recordingPlayback{}
	attach := NewAttachSystem(ws, pb)

	shallow := ws.CreateNode(hero)
	event.Emit(ws.Bus, event.PlaybackHandleAdded{Handle: shallow})
	ws.Bus.SwapBuffers()
	ws.Bus.DispatchAll()
	attach.Update(tick)

	if b, _ := ws.Bindings.Get(hero); b.Bound() {
		t.Error("Expected actor to stay unbound")
	}
	if len(pb.calls) != 0 {
		t.Errorf("Expected no play commands, got %v", pb.calls)
	}
}

// TestTranslator covers the pointer-to-target rules
func TestTranslator(t *testing.T) {
	ws := newTestWorld()
	hero := spawnHero(ws, 1, 1)
	npc := ws.SpawnActor(&data.CharacterTemplate{Name: "npc", IdleClip: "idle", MovingClip: "run"})
	sys := NewInputSystem(ws)
	act, _ := ws.Actions.Get(hero)
	m := motionOf(t, ws, hero)

	// No intersection: pressing does nothing.
	act.Press(input.ActionMoveTo)
	sys.Update(tick)
	if component.IsMoving(m.State()) {
		t.Fatal("Expected no target without an intersection")
	}

	// Intersection without the action: nothing.
	act.Reset()
	ws.Cursor.Set(mgl64.Vec3{5, 0, 6})
	sys.Update(tick)
	if component.IsMoving(m.State()) {
		t.Fatal("Expected no target without the move action")
	}

	// Both: target is the ground projection.
	act.Press(input.ActionMoveTo)
	sys.Update(tick)
	if d, ok := component.Destination(m.State()); !ok || d != (mgl64.Vec2{5, 6}) {
		t.Fatalf("Expected MovingTo (5,6), got %v", m.State())
	}

	// Re-click overrides.
	ws.Cursor.Set(mgl64.Vec3{2, 0, 3})
	sys.Update(tick)
	if d, _ := component.Destination(m.State()); d != (mgl64.Vec2{2, 3}) {
		t.Errorf("Expected redirect to (2,3), got %v", d)
	}

	// Non-finite hits are dropped.
	ws.Cursor.Set(mgl64.Vec3{math.NaN(), 0, 1})
	sys.Update(tick)
	if d, _ := component.Destination(m.State()); d != (mgl64.Vec2{2, 3}) {
		t.Errorf("Expected NaN hit ignored, got %v", d)
	}

	if component.IsMoving(motionOf(t, ws, npc).State()) {
		t.Error("Expected uncontrolled actor untouched")
	}
}

// TestTranslatorStop verifies the stop action idles a moving actor and loses to move
func TestTranslatorStop(t *testing.T) {
	ws := newTestWorld()
	hero := spawnHero(ws, 0, 0)
	sys := NewInputSystem(ws)
	act, _ := ws.Actions.Get(hero)
	m := motionOf(t, ws, hero)
	ws.Cursor.Set(mgl64.Vec3{3, 0, 3})

	act.Press(input.ActionMoveTo)
	act.Press(input.ActionStop)
	sys.Update(tick)
	if !component.IsMoving(m.State()) {
		t.Fatal("Expected move to win over stop")
	}

	act.Release(input.ActionMoveTo)
	sys.Update(tick)
	if component.IsMoving(m.State()) {
		t.Error("Expected stop to idle the actor")
	}
}

// TestPipeline runs the full tick order: bind, walk, arrive
func TestPipeline(t *testing.T) {
	ws := newTestWorld()
	hero := spawnHero(ws, 0, 0)
	pb := &recordingPlayback{}

	runner := coresys.NewRunner()
	runner.Register(NewEventDispatchSystem(ws.Bus))
	runner.Register(NewInputSystem(ws))
	runner.Register(NewAttachSystem(ws, pb))
	runner.Register(NewMovementSystem(ws, DefaultMovementParams()))
	runner.Register(NewAnimationSystem(ws, pb))
	runner.Register(NewCleanupSystem(ws))

	var arrivals int
	event.Subscribe(ws.Bus, func(event.MotionArrived) { arrivals++ })

	handle := attachScene(ws, hero)
	event.Emit(ws.Bus, event.PlaybackHandleAdded{Handle: handle})
	runner.Tick(tick)

	act, _ := ws.Actions.Get(hero)
	act.Press(input.ActionMoveTo)
	ws.Cursor.Set(mgl64.Vec3{1, 0, 0})

	runner.Tick(tick)
	act.Reset()

	for i := 0; i < 100; i++ {
		runner.Tick(tick)
	}

	want := []playCall{{handle, "idle", true}, {handle, "run", true}, {handle, "idle", true}}
	if len(pb.calls) != len(want) {
		t.Fatalf("Expected %d plays, got %v", len(want), pb.calls)
	}
	for i := range want {
		if pb.calls[i] != want[i] {
			t.Errorf("Call %d: expected %v, got %v", i, want[i], pb.calls[i])
		}
	}
	if p := groundPos(t, ws, hero); p != (mgl64.Vec2{1, 0}) {
		t.Errorf("Expected hero at (1,0), got %v", p)
	}
	if arrivals != 1 {
		t.Errorf("Expected 1 arrival, got %d", arrivals)
	}

	ws.Despawn(hero)
	runner.Tick(tick)
	if ws.ECS.Alive(handle) {
		t.Error("Expected handle destroyed with its actor")
	}
}

func TestModelForward(t *testing.T) {
	for _, offset := range []float64{0, math.Pi, math.Pi / 2, 1.234} {
		dir := mgl64.Vec2{0.6, -0.8}
		got := Facing(dir, offset).Rotate(ModelForward(offset))
		if !near(got, mgl64.Vec3{0.6, 0, -0.8}) {
			t.Errorf("Offset %v: expected model forward along travel, got %v", offset, got)
		}
	}
	if f := ModelForward(math.Pi); !near(f, mgl64.Vec3{0, 0, 1}) {
		t.Errorf("Expected +Z for a half turn, got %v", f)
	}
}

// TestAttachWhileMoving verifies a late scene starts on the clip matching the current motion
func TestAttachWhileMoving(t *testing.T) {
	ws := newTestWorld()
	hero := spawnHero(ws, 0, 0)
	pb := &recordingPlayback{}
	attach := NewAttachSystem(ws, pb)
	sel := NewAnimationSystem(ws, pb)

	motionOf(t, ws, hero).Transition(component.MovingToState(mgl64.Vec2{5, 0}))
	sel.Update(tick)

	handle := attachScene(ws, hero)
	event.Emit(ws.Bus, event.PlaybackHandleAdded{Handle: handle})
	ws.Bus.SwapBuffers()
	ws.Bus.DispatchAll()
	attach.Update(tick)

	if len(pb.calls) != 1 || pb.calls[0] != (playCall{handle, "run", true}) {
		t.Fatalf("Expected run clip on bind, got %v", pb.calls)
	}

	motionOf(t, ws, hero).Transition(component.IdleState())
	sel.Update(tick)
	if len(pb.calls) != 2 || pb.calls[1].clip != "idle" {
		t.Errorf("Expected idle after stopping, got %v", pb.calls)
	}
}

// TestArrivalSnapRespectsSpeed verifies the last-tick snap never moves an actor further than speed*dt
func TestArrivalSnapRespectsSpeed(t *testing.T) {
	ws := newTestWorld()
	hero := spawnHero(ws, 0, 0)
	params := DefaultMovementParams()
	sys := NewMovementSystem(ws, params)
	m := motionOf(t, ws, hero)
	// 0.094 is within the snap radius (sqrt 0.001 ~ 0.0316) of the point reached after one step.
	dest := mgl64.Vec2{0.094, 0}
	m.Transition(component.MovingToState(dest))

	maxStep := params.Speed * tick.Seconds()
	sys.Update(tick)
	if moved := groundPos(t, ws, hero).Len(); moved > maxStep+1e-12 {
		t.Fatalf("Expected at most %v moved in one tick, got %v", maxStep, moved)
	}
	if !component.IsMoving(m.State()) {
		t.Fatal("Expected actor still moving after a capped step")
	}

	sys.Update(tick)
	if component.IsMoving(m.State()) {
		t.Error("Expected arrival on the second tick")
	}
	if p := groundPos(t, ws, hero); p != dest {
		t.Errorf("Expected exact arrival at %v, got %v", dest, p)
	}
}
