package config

import (
	"fmt"
	"math"
	"os"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/caarlos0/env/v11"
)

type Config struct {
	Game     GameConfig     `toml:"game"`
	Movement MovementConfig `toml:"movement"`
	Input    InputConfig    `toml:"input"`
	Data     DataConfig     `toml:"data"`
	Audio    AudioConfig    `toml:"audio"`
	Logging  LoggingConfig  `toml:"logging"`
}

type GameConfig struct {
	Title     string        `toml:"title"`
	TickRate  time.Duration `toml:"tick_rate" env:"ARPG_TICK_RATE"`
	MapWidth  float64       `toml:"map_width"`
	MapHeight float64       `toml:"map_height"`
	// CellsPerUnit is the terminal resolution of one ground unit (x, z).
	CellsPerUnitX int `toml:"cells_per_unit_x"`
	CellsPerUnitZ int `toml:"cells_per_unit_z"`
}

type MovementConfig struct {
	Speed            float64 `toml:"speed" env:"ARPG_SPEED"`                   // distance units per second
	ArrivalEpsilon   float64 `toml:"arrival_epsilon"`                          // pre-step arrival distance
	ArrivalSnapSq    float64 `toml:"arrival_snap_sq"`                          // post-step arrival, squared distance
	YawOffsetDegrees float64 `toml:"yaw_offset_degrees" env:"ARPG_YAW_OFFSET"` // asset forward-axis correction
}

type InputConfig struct {
	MoveButton string `toml:"move_button"`
	StopButton string `toml:"stop_button"` // empty disables the stop action
}

type DataConfig struct {
	Characters string `toml:"characters" env:"ARPG_CHARACTERS"`
	Clips      string `toml:"clips"`
	Props      string `toml:"props"`
	Scripts    string `toml:"scripts"`
}

type AudioConfig struct {
	Enabled    bool          `toml:"enabled" env:"ARPG_AUDIO"`
	SampleRate int           `toml:"sample_rate"`
	CueLength  time.Duration `toml:"cue_length"`
	Volume     float64       `toml:"volume"`
}

type LoggingConfig struct {
	Level  string `toml:"level" env:"ARPG_LOG_LEVEL"`
	Format string `toml:"format" env:"ARPG_LOG_FORMAT"` // "json" or "console"
	Output string `toml:"output" env:"ARPG_LOG_OUTPUT"` // file path, "stderr" or "stdout"
}

// Load reads a TOML file over the defaults, then applies ARPG_* environment
// overrides.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config %s: %w", path, err)
	}
	cfg := Default()
	if err := toml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse config %s: %w", path, err)
	}
	if err := ApplyEnv(cfg); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config %s: %w", path, err)
	}
	return cfg, nil
}

// ApplyEnv overrides fields tagged with env from the process environment.
// Unset variables leave the current values alone.
func ApplyEnv(cfg *Config) error {
	if err := env.Parse(cfg); err != nil {
		return fmt.Errorf("parse env: %w", err)
	}
	return nil
}

// Validate rejects values the simulation cannot run with.
func (c *Config) Validate() error {
	switch {
	case c.Game.TickRate <= 0:
		return fmt.Errorf("game.tick_rate must be positive, got %s", c.Game.TickRate)
	case c.Game.MapWidth <= 0 || c.Game.MapHeight <= 0:
		return fmt.Errorf("game map must have positive size, got %gx%g", c.Game.MapWidth, c.Game.MapHeight)
	case c.Game.CellsPerUnitX <= 0 || c.Game.CellsPerUnitZ <= 0:
		return fmt.Errorf("game cells per unit must be positive")
	case !finite(c.Movement.Speed) || c.Movement.Speed <= 0:
		return fmt.Errorf("movement.speed must be positive, got %g", c.Movement.Speed)
	case c.Movement.ArrivalEpsilon <= 0 || c.Movement.ArrivalSnapSq <= 0:
		return fmt.Errorf("movement arrival thresholds must be positive")
	case !finite(c.Movement.YawOffsetDegrees):
		return fmt.Errorf("movement.yaw_offset_degrees must be finite, got %g", c.Movement.YawOffsetDegrees)
	case c.Input.MoveButton == "":
		return fmt.Errorf("input.move_button is required")
	}
	return nil
}

// Default returns the configuration the prototype ships with.
func Default() *Config {
	return &Config{
		Game: GameConfig{
			Title:         "ARPG",
			TickRate:      16 * time.Millisecond,
			MapWidth:      16,
			MapHeight:     16,
			CellsPerUnitX: 4,
			CellsPerUnitZ: 2,
		},
		Movement: MovementConfig{
			Speed:            4.0,
			ArrivalEpsilon:   0.001,
			ArrivalSnapSq:    0.001,
			YawOffsetDegrees: 180,
		},
		Input: InputConfig{
			MoveButton: "left",
			StopButton: "right",
		},
		Data: DataConfig{
			Characters: "data/yaml/characters.yaml",
			Clips:      "data/yaml/clips.yaml",
			Props:      "data/yaml/props.yaml",
			Scripts:    "scripts",
		},
		Audio: AudioConfig{
			Enabled:    false,
			SampleRate: 44100,
			CueLength:  60 * time.Millisecond,
			Volume:     0.3,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "console",
			Output: "stderr",
		},
	}
}

func finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
