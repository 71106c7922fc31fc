package flight

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"

	"github.com/opd-ai/go-flightsim/pkg/terrain"
)

// Tunable flight constants. Speeds are km/h-equivalent, distances are world
// units, angles are radians and angular rates are radians per tick.
const (
	MaxSpeed     = 500.0
	MinSpeed     = 50.0
	Acceleration = 50.0
	CruiseSpeed  = 100.0

	TurnRate  = 0.02
	PitchRate = 0.02
	RollRate  = 0.02

	PitchLimit           = math.Pi / 4
	TerrainRecoveryPitch = -0.1

	WorldSize = terrain.DefaultWorldSize
	MaxRadius = WorldSize / 2.2
	Clearance = 10.0

	CameraHeight    = 20.0
	CameraDistance  = 100.0
	CameraLookAhead = 50.0

	// MaxDeltaTime is the largest step the scheduler may pass to the integrator.
	MaxDeltaTime = 0.1
)

// SpawnPoint is where the aircraft starts and returns to on reset.
var SpawnPoint = mgl64.Vec3{0, 100, 0}

// Params carries the tunables used by an Integrator.
type Params struct {
	MaxSpeed     float64
	MinSpeed     float64
	Acceleration float64
	CruiseSpeed  float64

	PitchRate float64
	RollRate  float64
	TurnRate  float64

	PitchLimit           float64
	TerrainRecoveryPitch float64

	Clearance float64
	MaxRadius float64

	SpawnPoint mgl64.Vec3

	CameraHeight    float64
	CameraDistance  float64
	CameraLookAhead float64
}

// DefaultParams returns the stock flight model.
func DefaultParams() Params {
	return Params{
		MaxSpeed:             MaxSpeed,
		MinSpeed:             MinSpeed,
		Acceleration:         Acceleration,
		CruiseSpeed:          CruiseSpeed,
		PitchRate:            PitchRate,
		RollRate:             RollRate,
		TurnRate:             TurnRate,
		PitchLimit:           PitchLimit,
		TerrainRecoveryPitch: TerrainRecoveryPitch,
		Clearance:            Clearance,
		MaxRadius:            MaxRadius,
		SpawnPoint:           SpawnPoint,
		CameraHeight:         CameraHeight,
		CameraDistance:       CameraDistance,
		CameraLookAhead:      CameraLookAhead,
	}
}

// CameraOffset is the chase camera position relative to the aircraft before rotation.
func (p Params) CameraOffset() mgl64.Vec3 {
	return mgl64.Vec3{0, p.CameraHeight, -p.CameraDistance}
}

// CameraLookVector is the camera target relative to the aircraft before rotation.
func (p Params) CameraLookVector() mgl64.Vec3 {
	return mgl64.Vec3{0, 0, p.CameraLookAhead}
}
