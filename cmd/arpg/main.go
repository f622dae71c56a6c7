package main

import (
	"flag"
	"fmt"
	"math"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/arpgproto/arpg/internal/anim"
	"github.com/arpgproto/arpg/internal/audio"
	"github.com/arpgproto/arpg/internal/component"
	"github.com/arpgproto/arpg/internal/config"
	"github.com/arpgproto/arpg/internal/core/event"
	coresys "github.com/arpgproto/arpg/internal/core/system"
	"github.com/arpgproto/arpg/internal/data"
	"github.com/arpgproto/arpg/internal/input"
	"github.com/arpgproto/arpg/internal/picking"
	"github.com/arpgproto/arpg/internal/scene"
	"github.com/arpgproto/arpg/internal/scripting"
	"github.com/arpgproto/arpg/internal/system"
	"github.com/arpgproto/arpg/internal/term"
	"github.com/arpgproto/arpg/internal/world"
	"github.com/gdamore/tcell/v2"
	"github.com/go-gl/mathgl/mgl64"
	"github.com/google/uuid"
	"github.com/gopxl/beep"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "fatal: %v\n", err)
		os.Exit(1)
	}
}

type options struct {
	config   string
	headless bool
	script   string
	ticks    int
}

// game is everything a loop needs to drive one session.
type game struct {
	cfg      *config.Config
	ws       *world.State
	playback *anim.Playback
	keymap   *input.InputMap
	log      *zap.Logger
}

func run() error {
	var opts options
	flag.StringVar(&opts.config, "config", "", "config file (default: $ARPG_CONFIG or config/arpg.toml)")
	flag.BoolVar(&opts.headless, "headless", false, "run without a terminal, driven by a Lua input script")
	flag.StringVar(&opts.script, "script", "", "input script for -headless (default: <data.scripts>/demo.lua)")
	flag.IntVar(&opts.ticks, "ticks", 600, "ticks to simulate with -headless")
	flag.Parse()

	// 1. Load config
	cfgPath := "config/arpg.toml"
	if p := os.Getenv("ARPG_CONFIG"); p != "" {
		cfgPath = p
	}
	if opts.config != "" {
		cfgPath = opts.config
	}
	cfg, err := config.Load(cfgPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	// 2. Init logger. The terminal owns stderr while the interactive view is up.
	logCfg := cfg.Logging
	if !opts.headless && (logCfg.Output == "stderr" || logCfg.Output == "stdout") {
		logCfg.Output = "arpg.log"
	}
	log, err := newLogger(logCfg)
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}
	defer log.Sync()
	log = log.With(zap.String("run", uuid.NewString()))

	// 3. Load data and populate the world
	g, err := newGame(cfg, log)
	if err != nil {
		return err
	}

	// 4. Audio cues (optional)
	if cfg.Audio.Enabled {
		rate := beep.SampleRate(cfg.Audio.SampleRate)
		sink, err := audio.OpenSpeaker(rate)
		if err != nil {
			log.Warn("audio disabled", zap.Error(err))
		} else {
			defer audio.CloseSpeaker()
			g.playback.AddListener(audio.NewCuePlayer(sink, rate, cfg.Audio.CueLength, cfg.Audio.Volume, log))
		}
	}

	if opts.headless {
		script := opts.script
		if script == "" {
			script = filepath.Join(cfg.Data.Scripts, "demo.lua")
		}
		return runHeadless(g, script, opts.ticks)
	}
	return runInteractive(g)
}

func newGame(cfg *config.Config, log *zap.Logger) (*game, error) {
	clips, err := data.LoadClipTable(cfg.Data.Clips)
	if err != nil {
		return nil, fmt.Errorf("clips: %w", err)
	}
	chars, err := data.LoadCharacterTable(cfg.Data.Characters)
	if err != nil {
		return nil, fmt.Errorf("characters: %w", err)
	}
	props, err := data.LoadPropList(cfg.Data.Props)
	if err != nil {
		return nil, fmt.Errorf("props: %w", err)
	}
	keymap, err := buildInputMap(cfg.Input)
	if err != nil {
		return nil, fmt.Errorf("input: %w", err)
	}
	log.Info("data loaded",
		zap.Int("clips", clips.Count()),
		zap.Int("characters", chars.Count()),
		zap.Int("props", len(props)),
	)

	ws := world.NewState(picking.NewGroundPlane(cfg.Game.MapWidth, cfg.Game.MapHeight), clips)
	for _, tmpl := range chars.All() {
		for _, clip := range []string{tmpl.IdleClip, tmpl.MovingClip} {
			if clips.Get(clip) == nil {
				log.Warn("character references unknown clip",
					zap.String("character", tmpl.Name), zap.String("clip", clip))
			}
		}
		if !ws.Ground.Contains(mgl64.Vec2{tmpl.X, tmpl.Z}) {
			log.Warn("character spawns off the ground", zap.String("character", tmpl.Name))
		}
		ws.SpawnActor(tmpl)
	}
	for _, p := range props {
		ws.SpawnProp(p)
	}

	event.Subscribe(ws.Bus, func(e event.MotionStarted) {
		log.Debug("motion started",
			zap.Stringer("actor", e.Actor),
			zap.Float64("x", e.Destination[0]), zap.Float64("z", e.Destination[1]))
	})
	event.Subscribe(ws.Bus, func(e event.MotionArrived) {
		log.Debug("motion arrived",
			zap.Stringer("actor", e.Actor),
			zap.Float64("x", e.Position[0]), zap.Float64("z", e.Position[1]))
	})

	return &game{
		cfg:      cfg,
		ws:       ws,
		playback: anim.NewPlayback(ws, log),
		keymap:   keymap,
		log:      log,
	}, nil
}

// buildRunner registers the systems in tick order. pointer feeds the cursor
// and action states; view, when set, draws after playback has advanced.
func (g *game) buildRunner(pointer, view coresys.System) *coresys.Runner {
	runner := coresys.NewRunner()
	runner.Register(system.NewEventDispatchSystem(g.ws.Bus))
	runner.Register(pointer)
	runner.Register(system.NewInputSystem(g.ws))
	runner.Register(system.NewAttachSystem(g.ws, g.playback))
	runner.Register(system.NewMovementSystem(g.ws, movementParams(g.cfg.Movement)))
	runner.Register(system.NewAnimationSystem(g.ws, g.playback))
	runner.Register(scene.NewSpawner(g.ws, g.playback, g.log))
	runner.Register(anim.NewPlaybackSystem(g.playback))
	if view != nil {
		runner.Register(view)
	}
	runner.Register(system.NewCleanupSystem(g.ws))
	return runner
}

func runHeadless(g *game, script string, ticks int) error {
	engine, err := scripting.NewEngine(script, g.log)
	if err != nil {
		return fmt.Errorf("script: %w", err)
	}
	defer engine.Close()

	runner := g.buildRunner(scripting.NewDriver(engine, g.ws), nil)
	g.log.Info("headless run",
		zap.String("script", script),
		zap.Int("ticks", ticks),
		zap.Duration("tick_rate", g.cfg.Game.TickRate),
	)
	for i := 0; i < ticks; i++ {
		runner.Tick(g.cfg.Game.TickRate)
	}
	g.reportActors()
	return nil
}

func runInteractive(g *game) error {
	screen, err := term.OpenScreen()
	if err != nil {
		return fmt.Errorf("terminal: %w", err)
	}
	defer screen.Fini()

	cfg := g.cfg
	camera := term.NewCamera(g.ws.Ground, float64(cfg.Game.CellsPerUnitX), float64(cfg.Game.CellsPerUnitZ), 1)
	host := term.NewHost(g.ws, camera, g.keymap)
	renderer := term.NewRenderer(g.ws, screen, g.playback, camera, cfg.Game.Title)
	renderer.SetForward(system.ModelForward(yawOffset(cfg.Movement)))
	runner := g.buildRunner(host, renderer)

	events := make(chan tcell.Event, 64)
	go func() {
		for {
			ev := screen.PollEvent()
			if ev == nil {
				close(events)
				return
			}
			events <- ev
		}
	}()

	shutdownCh := make(chan os.Signal, 1)
	signal.Notify(shutdownCh, syscall.SIGINT, syscall.SIGTERM)

	ticker := time.NewTicker(cfg.Game.TickRate)
	defer ticker.Stop()

	g.log.Info("game loop started", zap.Duration("tick_rate", cfg.Game.TickRate))
	for {
		select {
		case <-ticker.C:
			runner.Tick(cfg.Game.TickRate)
		case ev, ok := <-events:
			if !ok {
				return nil
			}
			if _, resized := ev.(*tcell.EventResize); resized {
				screen.Sync()
			}
			if !host.HandleEvent(ev) {
				g.log.Info("quit requested", zap.Uint64("ticks", runner.Ticks()))
				g.reportActors()
				return nil
			}
		case sig := <-shutdownCh:
			g.log.Info("shutdown signal", zap.String("signal", sig.String()))
			g.reportActors()
			return nil
		}
	}
}

// reportActors logs where every actor ended up.
func (g *game) reportActors() {
	for _, id := range g.ws.Actors() {
		c, _ := g.ws.Characters.Get(id)
		tr, _ := g.ws.Transforms.Get(id)
		m, _ := g.ws.Motions.Get(id)
		b, _ := g.ws.Bindings.Get(id)
		p := tr.Ground()
		state := "idle"
		if component.IsMoving(m.State()) {
			state = "moving"
		}
		g.log.Info("actor",
			zap.String("name", c.Name),
			zap.Float64("x", p[0]),
			zap.Float64("z", p[1]),
			zap.String("state", state),
			zap.Bool("bound", b.Bound()),
			zap.String("clip", string(b.Playing)),
		)
	}
}

func buildInputMap(cfg config.InputConfig) (*input.InputMap, error) {
	m := input.NewInputMap()
	move, err := input.ParseButton(cfg.MoveButton)
	if err != nil {
		return nil, fmt.Errorf("move_button: %w", err)
	}
	m.Bind(move, input.ActionMoveTo)
	if cfg.StopButton != "" {
		stop, err := input.ParseButton(cfg.StopButton)
		if err != nil {
			return nil, fmt.Errorf("stop_button: %w", err)
		}
		if stop == move {
			return nil, fmt.Errorf("stop_button %q is already the move button", cfg.StopButton)
		}
		m.Bind(stop, input.ActionStop)
	}
	return m, nil
}

func movementParams(cfg config.MovementConfig) system.MovementParams {
	return system.MovementParams{
		Speed:          cfg.Speed,
		ArrivalEpsilon: cfg.ArrivalEpsilon,
		ArrivalSnapSq:  cfg.ArrivalSnapSq,
		YawOffset:      yawOffset(cfg),
	}
}

func yawOffset(cfg config.MovementConfig) float64 {
	return cfg.YawOffsetDegrees * math.Pi / 180
}

func newLogger(cfg config.LoggingConfig) (*zap.Logger, error) {
	var level zapcore.Level
	if err := level.UnmarshalText([]byte(cfg.Level)); err != nil {
		level = zapcore.InfoLevel
	}

	var zapCfg zap.Config
	if cfg.Format == "json" {
		zapCfg = zap.NewProductionConfig()
	} else {
		zapCfg = zap.NewDevelopmentConfig()
		zapCfg.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
		if cfg.Output != "stderr" && cfg.Output != "stdout" {
			zapCfg.EncoderConfig.EncodeLevel = zapcore.CapitalLevelEncoder
		}
		zapCfg.EncoderConfig.EncodeTime = zapcore.TimeEncoderOfLayout("15:04:05")
		zapCfg.EncoderConfig.ConsoleSeparator = "  "
		zapCfg.DisableCaller = true
		zapCfg.DisableStacktrace = true
	}
	zapCfg.Level = zap.NewAtomicLevelAt(level)
	if cfg.Output != "" {
		zapCfg.OutputPaths = []string{cfg.Output}
	}

	return zapCfg.Build()
}
