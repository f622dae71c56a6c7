package scripting

import (
	"fmt"

	lua "github.com/yuin/gopher-lua"
	"go.uber.org/zap"
)

// Command is one tick of scripted pointer input.
type Command struct {
	X, Z    float64
	HasHit  bool // false when the script leaves the pointer off the ground
	Pressed bool // move action
	Stop    bool // stop action
}

// Engine wraps a single gopher-lua VM running an input script.
// Single-goroutine access only (game loop).
//
// Script contract:
//
//	function input(tick) return nil | {x=, z=, pressed=, stop=} end
//	function on_arrived(x, z) end   -- optional
type Engine struct {
	vm  *lua.LState
	log *zap.Logger
}

// NewEngine creates a Lua engine and loads the script at path.
func NewEngine(path string, log *zap.Logger) (*Engine, error) {
	vm := lua.NewState(lua.Options{
		SkipOpenLibs: false,
	})

	// Set API version global
	vm.SetGlobal("API_VERSION", lua.LNumber(1))

	e := &Engine{vm: vm, log: log}
	vm.SetGlobal("log", vm.NewFunction(e.luaLog))

	if err := vm.DoFile(path); err != nil {
		vm.Close()
		return nil, fmt.Errorf("load %s: %w", path, err)
	}
	if vm.GetGlobal("input") == lua.LNil {
		vm.Close()
		return nil, fmt.Errorf("load %s: function input not defined", path)
	}
	e.log.Debug("loaded lua script", zap.String("file", path))
	return e, nil
}

// SetGround exposes the playable bounds to the script as GROUND.
func (e *Engine) SetGround(minX, minZ, maxX, maxZ float64) {
	t := e.vm.NewTable()
	t.RawSetString("min_x", lua.LNumber(minX))
	t.RawSetString("min_z", lua.LNumber(minZ))
	t.RawSetString("max_x", lua.LNumber(maxX))
	t.RawSetString("max_z", lua.LNumber(maxZ))
	e.vm.SetGlobal("GROUND", t)
}

// Input calls the Lua input function. A nil return, a script error or a
// non-table result all mean "no input this tick".
func (e *Engine) Input(tick uint64) Command {
	if err := e.vm.CallByParam(lua.P{
		Fn:      e.vm.GetGlobal("input"),
		NRet:    1,
		Protect: true,
	}, lua.LNumber(tick)); err != nil {
		e.log.Error("lua input error", zap.Uint64("tick", tick), zap.Error(err))
		return Command{}
	}

	result := e.vm.Get(-1)
	e.vm.Pop(1)

	rt, ok := result.(*lua.LTable)
	if !ok {
		if result != lua.LNil {
			e.log.Error("lua input returned non-table", zap.String("type", result.Type().String()))
		}
		return Command{}
	}

	cmd := Command{
		Pressed: lua.LVAsBool(rt.RawGetString("pressed")),
		Stop:    lua.LVAsBool(rt.RawGetString("stop")),
	}
	x, xok := rt.RawGetString("x").(lua.LNumber)
	z, zok := rt.RawGetString("z").(lua.LNumber)
	if xok && zok {
		cmd.X, cmd.Z, cmd.HasHit = float64(x), float64(z), true
	}
	return cmd
}

// Arrived calls on_arrived when the script defines it.
func (e *Engine) Arrived(x, z float64) {
	fn := e.vm.GetGlobal("on_arrived")
	if fn == lua.LNil {
		return
	}
	if err := e.vm.CallByParam(lua.P{
		Fn:      fn,
		NRet:    0,
		Protect: true,
	}, lua.LNumber(x), lua.LNumber(z)); err != nil {
		e.log.Error("lua on_arrived error", zap.Error(err))
	}
}

func (e *Engine) luaLog(L *lua.LState) int {
	e.log.Info("lua", zap.String("msg", L.CheckString(1)))
	return 0
}

// Close shuts down the Lua VM.
func (e *Engine) Close() {
	e.vm.Close()
}
