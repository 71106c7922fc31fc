// pkg/config/config.go
package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"os"
	"strings"
	"time"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/spf13/viper"

	"github.com/opd-ai/go-flightsim/pkg/flight"
	"github.com/opd-ai/go-flightsim/pkg/terrain"
)

// EnvPrefix is prepended to every environment override, e.g.
// FLIGHTSIM_FLIGHT_MAX_SPEED or FLIGHTSIM_LOG_LEVEL.
const EnvPrefix = "FLIGHTSIM"

// ErrInvalidConfig is returned by Validate.
var ErrInvalidConfig = errors.New("invalid configuration")

// Terrain kinds.
const (
	TerrainRolling = "rolling"
	TerrainFlat    = "flat"
)

// Config is the complete simulator configuration.
type Config struct {
	Flight   FlightConfig   `json:"flight" mapstructure:"flight"`
	Terrain  TerrainConfig  `json:"terrain" mapstructure:"terrain"`
	Loop     LoopConfig     `json:"loop" mapstructure:"loop"`
	Log      LogConfig      `json:"log" mapstructure:"log"`
	Metrics  MetricsConfig  `json:"metrics" mapstructure:"metrics"`
	Recorder RecorderConfig `json:"recorder" mapstructure:"recorder"`
	Terminal TerminalConfig `json:"terminal" mapstructure:"terminal"`
}

// FlightConfig holds the flight model tunables.
type FlightConfig struct {
	MaxSpeed             float64 `json:"max_speed" mapstructure:"max_speed"`
	MinSpeed             float64 `json:"min_speed" mapstructure:"min_speed"`
	Acceleration         float64 `json:"acceleration" mapstructure:"acceleration"`
	CruiseSpeed          float64 `json:"cruise_speed" mapstructure:"cruise_speed"`
	TurnRate             float64 `json:"turn_rate" mapstructure:"turn_rate"`
	PitchRate            float64 `json:"pitch_rate" mapstructure:"pitch_rate"`
	RollRate             float64 `json:"roll_rate" mapstructure:"roll_rate"`
	PitchLimit           float64 `json:"pitch_limit" mapstructure:"pitch_limit"`
	TerrainRecoveryPitch float64 `json:"terrain_recovery_pitch" mapstructure:"terrain_recovery_pitch"`
	Clearance            float64 `json:"clearance" mapstructure:"clearance"`
	WorldSize            float64 `json:"world_size" mapstructure:"world_size"`
	SpawnX               float64 `json:"spawn_x" mapstructure:"spawn_x"`
	SpawnY               float64 `json:"spawn_y" mapstructure:"spawn_y"`
	SpawnZ               float64 `json:"spawn_z" mapstructure:"spawn_z"`
	CameraHeight         float64 `json:"camera_height" mapstructure:"camera_height"`
	CameraDistance       float64 `json:"camera_distance" mapstructure:"camera_distance"`
	CameraLookAhead      float64 `json:"camera_look_ahead" mapstructure:"camera_look_ahead"`
}

// TerrainConfig selects the height field.
type TerrainConfig struct {
	Kind       string  `json:"kind" mapstructure:"kind"`
	FlatHeight float64 `json:"flat_height" mapstructure:"flat_height"`
	MinHeight  float64 `json:"min_height" mapstructure:"min_height"`
	MaxHeight  float64 `json:"max_height" mapstructure:"max_height"`
}

// LoopConfig controls the frame scheduler.
type LoopConfig struct {
	FrameRate    int     `json:"frame_rate" mapstructure:"frame_rate"`
	MaxDeltaTime float64 `json:"max_delta_time" mapstructure:"max_delta_time"`
	KeyBuffer    int     `json:"key_buffer" mapstructure:"key_buffer"`
}

// LogConfig controls structured logging.
type LogConfig struct {
	Level      string `json:"level" mapstructure:"level"`
	File       string `json:"file" mapstructure:"file"`
	MaxSizeMB  int    `json:"max_size_mb" mapstructure:"max_size_mb"`
	MaxBackups int    `json:"max_backups" mapstructure:"max_backups"`
}

// MetricsConfig controls the metrics and health HTTP listener.
type MetricsConfig struct {
	Enabled    bool          `json:"enabled" mapstructure:"enabled"`
	Address    string        `json:"address" mapstructure:"address"`
	StaleAfter time.Duration `json:"stale_after" mapstructure:"stale_after"`
}

// RecorderConfig controls the flight recorder.
type RecorderConfig struct {
	Path        string        `json:"path" mapstructure:"path"`
	MaxFailures uint32        `json:"max_failures" mapstructure:"max_failures"`
	OpenTimeout time.Duration `json:"open_timeout" mapstructure:"open_timeout"`
}

// TerminalConfig controls the terminal front-end.
type TerminalConfig struct {
	HoldWindow time.Duration `json:"hold_window" mapstructure:"hold_window"`
}

// Default returns the stock configuration.
func Default() *Config {
	return &Config{
		Flight: FlightConfig{
			MaxSpeed:             flight.MaxSpeed,
			MinSpeed:             flight.MinSpeed,
			Acceleration:         flight.Acceleration,
			CruiseSpeed:          flight.CruiseSpeed,
			TurnRate:             flight.TurnRate,
			PitchRate:            flight.PitchRate,
			RollRate:             flight.RollRate,
			PitchLimit:           flight.PitchLimit,
			TerrainRecoveryPitch: flight.TerrainRecoveryPitch,
			Clearance:            flight.Clearance,
			WorldSize:            flight.WorldSize,
			SpawnX:               flight.SpawnPoint.X(),
			SpawnY:               flight.SpawnPoint.Y(),
			SpawnZ:               flight.SpawnPoint.Z(),
			CameraHeight:         flight.CameraHeight,
			CameraDistance:       flight.CameraDistance,
			CameraLookAhead:      flight.CameraLookAhead,
		},
		Terrain: TerrainConfig{
			Kind:      TerrainRolling,
			MinHeight: terrain.DefaultMinHeight,
			MaxHeight: terrain.DefaultMaxHeight,
		},
		Loop: LoopConfig{
			FrameRate:    60,
			MaxDeltaTime: flight.MaxDeltaTime,
			KeyBuffer:    64,
		},
		Log: LogConfig{
			Level:      "info",
			MaxSizeMB:  32,
			MaxBackups: 3,
		},
		Metrics: MetricsConfig{
			Enabled:    false,
			Address:    ":9090",
			StaleAfter: 2 * time.Second,
		},
		Recorder: RecorderConfig{
			MaxFailures: 5,
			OpenTimeout: 30 * time.Second,
		},
		Terminal: TerminalConfig{
			HoldWindow: 550 * time.Millisecond,
		},
	}
}

func setDefaults(v *viper.Viper) {
	d := Default()

	v.SetDefault("flight.max_speed", d.Flight.MaxSpeed)
	v.SetDefault("flight.min_speed", d.Flight.MinSpeed)
	v.SetDefault("flight.acceleration", d.Flight.Acceleration)
	v.SetDefault("flight.cruise_speed", d.Flight.CruiseSpeed)
	v.SetDefault("flight.turn_rate", d.Flight.TurnRate)
	v.SetDefault("flight.pitch_rate", d.Flight.PitchRate)
	v.SetDefault("flight.roll_rate", d.Flight.RollRate)
	v.SetDefault("flight.pitch_limit", d.Flight.PitchLimit)
	v.SetDefault("flight.terrain_recovery_pitch", d.Flight.TerrainRecoveryPitch)
	v.SetDefault("flight.clearance", d.Flight.Clearance)
	v.SetDefault("flight.world_size", d.Flight.WorldSize)
	v.SetDefault("flight.spawn_x", d.Flight.SpawnX)
	v.SetDefault("flight.spawn_y", d.Flight.SpawnY)
	v.SetDefault("flight.spawn_z", d.Flight.SpawnZ)
	v.SetDefault("flight.camera_height", d.Flight.CameraHeight)
	v.SetDefault("flight.camera_distance", d.Flight.CameraDistance)
	v.SetDefault("flight.camera_look_ahead", d.Flight.CameraLookAhead)

	v.SetDefault("terrain.kind", d.Terrain.Kind)
	v.SetDefault("terrain.flat_height", d.Terrain.FlatHeight)
	v.SetDefault("terrain.min_height", d.Terrain.MinHeight)
	v.SetDefault("terrain.max_height", d.Terrain.MaxHeight)

	v.SetDefault("loop.frame_rate", d.Loop.FrameRate)
	v.SetDefault("loop.max_delta_time", d.Loop.MaxDeltaTime)
	v.SetDefault("loop.key_buffer", d.Loop.KeyBuffer)

	v.SetDefault("log.level", d.Log.Level)
	v.SetDefault("log.file", d.Log.File)
	v.SetDefault("log.max_size_mb", d.Log.MaxSizeMB)
	v.SetDefault("log.max_backups", d.Log.MaxBackups)

	v.SetDefault("metrics.enabled", d.Metrics.Enabled)
	v.SetDefault("metrics.address", d.Metrics.Address)
	v.SetDefault("metrics.stale_after", d.Metrics.StaleAfter)

	v.SetDefault("recorder.path", d.Recorder.Path)
	v.SetDefault("recorder.max_failures", d.Recorder.MaxFailures)
	v.SetDefault("recorder.open_timeout", d.Recorder.OpenTimeout)

	v.SetDefault("terminal.hold_window", d.Terminal.HoldWindow)
}

// Load reads configuration from defaults, an optional JSON file and
// FLIGHTSIM_* environment variables, in increasing precedence.
func Load(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		v.SetConfigType("json")
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Save writes the configuration to path as indented JSON.
func (c *Config) Save(path string) error {
	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// Validate checks value ranges and returns ErrInvalidConfig naming the first
// offending field.
func (c *Config) Validate() error {
	f := c.Flight
	checks := []struct {
		ok    bool
		field string
		msg   string
	}{
		{f.MinSpeed > 0, "flight.min_speed", "must be positive"},
		{f.MinSpeed < f.MaxSpeed, "flight.min_speed", "must be below flight.max_speed"},
		{f.CruiseSpeed >= f.MinSpeed && f.CruiseSpeed <= f.MaxSpeed, "flight.cruise_speed", "must be within [min_speed, max_speed]"},
		{f.Acceleration > 0, "flight.acceleration", "must be positive"},
		{f.TurnRate > 0, "flight.turn_rate", "must be positive"},
		{f.PitchRate > 0, "flight.pitch_rate", "must be positive"},
		{f.RollRate > 0, "flight.roll_rate", "must be positive"},
		{f.PitchLimit > 0 && f.PitchLimit < math.Pi/2, "flight.pitch_limit", "must be in (0, pi/2)"},
		{f.Clearance >= 0, "flight.clearance", "must not be negative"},
		{f.WorldSize > 0, "flight.world_size", "must be positive"},
		{f.CameraDistance > 0, "flight.camera_distance", "must be positive"},
		{c.Terrain.Kind == TerrainRolling || c.Terrain.Kind == TerrainFlat, "terrain.kind", "must be rolling or flat"},
		{c.Terrain.MinHeight <= c.Terrain.MaxHeight, "terrain.min_height", "must not exceed terrain.max_height"},
		{c.Loop.FrameRate > 0, "loop.frame_rate", "must be positive"},
		{c.Loop.MaxDeltaTime > 0 && c.Loop.MaxDeltaTime <= flight.MaxDeltaTime, "loop.max_delta_time", "must be in (0, 0.1]"},
		{c.Loop.KeyBuffer > 0, "loop.key_buffer", "must be positive"},
		{c.Metrics.StaleAfter > 0, "metrics.stale_after", "must be positive"},
		{c.Recorder.MaxFailures > 0, "recorder.max_failures", "must be positive"},
		{c.Recorder.OpenTimeout > 0, "recorder.open_timeout", "must be positive"},
		{c.Terminal.HoldWindow > 0, "terminal.hold_window", "must be positive"},
	}

	for _, chk := range checks {
		if !chk.ok {
			return fmt.Errorf("%w: %s %s", ErrInvalidConfig, chk.field, chk.msg)
		}
	}
	return nil
}

// FlightParams converts the flight section to integrator parameters.
func (c *Config) FlightParams() flight.Params {
	f := c.Flight
	return flight.Params{
		MaxSpeed:             f.MaxSpeed,
		MinSpeed:             f.MinSpeed,
		Acceleration:         f.Acceleration,
		CruiseSpeed:          f.CruiseSpeed,
		PitchRate:            f.PitchRate,
		RollRate:             f.RollRate,
		TurnRate:             f.TurnRate,
		PitchLimit:           f.PitchLimit,
		TerrainRecoveryPitch: f.TerrainRecoveryPitch,
		Clearance:            f.Clearance,
		MaxRadius:            f.WorldSize / 2.2,
		SpawnPoint:           mgl64.Vec3{f.SpawnX, f.SpawnY, f.SpawnZ},
		CameraHeight:         f.CameraHeight,
		CameraDistance:       f.CameraDistance,
		CameraLookAhead:      f.CameraLookAhead,
	}
}

// TerrainField builds the configured height field.
func (c *Config) TerrainField() terrain.Field {
	if c.Terrain.Kind == TerrainFlat {
		return terrain.Flat(c.Terrain.FlatHeight)
	}
	return terrain.Rolling{
		WorldSize: c.Flight.WorldSize,
		MinHeight: c.Terrain.MinHeight,
		MaxHeight: c.Terrain.MaxHeight,
	}
}

// TickInterval is the frame period implied by loop.frame_rate.
func (c *Config) TickInterval() time.Duration {
	return time.Second / time.Duration(c.Loop.FrameRate)
}
