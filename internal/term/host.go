package term

import (
	"fmt"
	"time"

	"github.com/arpgproto/arpg/internal/component"
	"github.com/arpgproto/arpg/internal/core/ecs"
	coresys "github.com/arpgproto/arpg/internal/core/system"
	"github.com/arpgproto/arpg/internal/input"
	"github.com/arpgproto/arpg/internal/world"
	"github.com/gdamore/tcell/v2"
)

// OpenScreen initializes the terminal with mouse reporting on.
func OpenScreen() (tcell.Screen, error) {
	screen, err := tcell.NewScreen()
	if err != nil {
		return nil, fmt.Errorf("new screen: %w", err)
	}
	if err := screen.Init(); err != nil {
		return nil, fmt.Errorf("init screen: %w", err)
	}
	screen.EnableMouse()
	screen.Clear()
	return screen, nil
}

// Host tracks the terminal pointer and feeds it to the world each tick.
// HandleEvent runs on the loop goroutine between ticks. Phase 0 (Input).
type Host struct {
	ws     *world.State
	camera Camera
	keymap *input.InputMap

	pointerX, pointerY int
	pointerIn          bool
	held               []input.Button
}

func NewHost(ws *world.State, camera Camera, keymap *input.InputMap) *Host {
	return &Host{ws: ws, camera: camera, keymap: keymap}
}

// HandleEvent consumes one terminal event. Returns false when the user asked
// to quit.
func (h *Host) HandleEvent(ev tcell.Event) bool {
	switch ev := ev.(type) {
	case *tcell.EventKey:
		if ev.Key() == tcell.KeyEscape || ev.Key() == tcell.KeyCtrlC ||
			(ev.Key() == tcell.KeyRune && ev.Rune() == 'q') {
			return false
		}
	case *tcell.EventMouse:
		h.pointerX, h.pointerY = ev.Position()
		h.pointerIn = true
		h.held = heldButtons(ev.Buttons(), h.held[:0])
	}
	return true
}

// Held returns the buttons down at the last mouse event.
func (h *Host) Held() []input.Button { return h.held }

func heldButtons(mask tcell.ButtonMask, out []input.Button) []input.Button {
	if mask&tcell.Button1 != 0 {
		out = append(out, input.ButtonLeft)
	}
	if mask&tcell.Button2 != 0 {
		out = append(out, input.ButtonRight)
	}
	if mask&tcell.Button3 != 0 {
		out = append(out, input.ButtonMiddle)
	}
	return out
}

func (h *Host) Phase() coresys.Phase { return coresys.PhaseInput }

func (h *Host) Update(_ time.Duration) {
	if h.pointerIn {
		h.ws.Cursor.Update(h.ws.Ground.Intersect(h.camera.Ray(h.pointerX, h.pointerY)))
	} else {
		h.ws.Cursor.Clear()
	}
	ecs.Each2(h.ws.Controlled, h.ws.Actions, func(_ ecs.EntityID, _ *component.Controlled, act *input.ActionState) {
		h.keymap.Apply(h.held, act)
	})
}
