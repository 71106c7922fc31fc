package flight

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"

	"github.com/opd-ai/go-flightsim/pkg/physics"
)

// Mode is the integrator mode for a tick.
type Mode int

const (
	// ModeFlying is a normal integration step.
	ModeFlying Mode = iota
	// ModeReset means the reset control was held and the aircraft was respawned.
	ModeReset
)

func (m Mode) String() string {
	if m == ModeReset {
		return "reset"
	}
	return "flying"
}

// AircraftState is the aircraft's kinematic state. Altitude and Heading are
// derived by the integrator and only change on flying ticks.
type AircraftState struct {
	Position mgl64.Vec3
	Speed    float64
	Pitch    float64
	Roll     float64
	Yaw      float64

	// Altitude is floor(Position.Y) as of the last flying tick.
	Altitude float64
	// Heading is the travel bearing in degrees, in [0, 360).
	Heading float64
}

// Attitude returns the three orientation angles.
func (s AircraftState) Attitude() physics.Attitude {
	return physics.Attitude{Pitch: s.Pitch, Yaw: s.Yaw, Roll: s.Roll}
}

// Orientation is the rotation used for travel direction and camera placement.
func (s AircraftState) Orientation() mgl64.Quat {
	return s.Attitude().Quat()
}

// ModelRotation orients the visual aircraft model: yaw, then pitch, then roll
// about the model's own axes.
func (s AircraftState) ModelRotation() mgl64.Quat {
	return s.Attitude().ComposeLocal(physics.ModelRotationOrder)
}

// Telemetry returns the HUD values floored to integers.
func (s AircraftState) Telemetry() Telemetry {
	return Telemetry{
		Speed:    int(math.Floor(s.Speed)),
		Altitude: int(math.Floor(s.Altitude)),
		Heading:  int(math.Floor(s.Heading)),
	}
}

// CameraPose places the chase camera.
type CameraPose struct {
	Position mgl64.Vec3
	Target   mgl64.Vec3
}

// Telemetry is the HUD trio.
type Telemetry struct {
	Speed    int `json:"speed" msgpack:"speed"`
	Altitude int `json:"altitude" msgpack:"altitude"`
	Heading  int `json:"heading" msgpack:"heading"`
}

// HeadingDegrees converts a travel vector to a bearing in [0, 360).
func HeadingDegrees(v mgl64.Vec3) float64 {
	deg := math.Atan2(-v.X(), -v.Z()) * 180 / math.Pi
	return math.Mod(deg+360, 360)
}
