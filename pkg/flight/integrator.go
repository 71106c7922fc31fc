// Package flight implements the per-tick arcade flight model and chase camera.
package flight

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"

	"github.com/opd-ai/go-flightsim/pkg/input"
	"github.com/opd-ai/go-flightsim/pkg/physics"
	"github.com/opd-ai/go-flightsim/pkg/terrain"
)

// headingEpsilon is the smallest horizontal displacement that updates heading.
const headingEpsilon = 1e-12

// Outcome describes what happened during one Step.
type Outcome struct {
	State  AircraftState
	Camera CameraPose
	Mode   Mode

	// Displacement is the travel vector applied this tick.
	Displacement mgl64.Vec3
	// TerrainContact is set when the terrain floor lifted the aircraft.
	TerrainContact bool
	// BoundaryClamped is set when the aircraft was projected back inside the world.
	BoundaryClamped bool
}

// Integrator owns an AircraftState and advances it one tick at a time.
// It is not safe for concurrent use.
type Integrator struct {
	params  Params
	terrain terrain.Field
	state   AircraftState
	camera  CameraPose
}

// NewIntegrator returns an integrator with the aircraft at the spawn point.
// A nil field is treated as flat ground at height zero.
func NewIntegrator(params Params, field terrain.Field) *Integrator {
	if field == nil {
		field = terrain.Flat(0)
	}
	in := &Integrator{params: params, terrain: field}
	in.Reset()
	in.state.Altitude = math.Floor(params.SpawnPoint.Y())
	in.camera = in.cameraFor(in.state)
	return in
}

// Params returns the integrator tunables.
func (in *Integrator) Params() Params { return in.params }

// Terrain returns the height field the integrator clamps against.
func (in *Integrator) Terrain() terrain.Field { return in.terrain }

// State returns the current aircraft state.
func (in *Integrator) State() AircraftState { return in.state }

// Camera returns the camera pose from the last flying tick.
func (in *Integrator) Camera() CameraPose { return in.camera }

// SetState replaces the aircraft state and re-derives the camera.
func (in *Integrator) SetState(s AircraftState) {
	in.state = s
	in.camera = in.cameraFor(s)
}

// Reset respawns the aircraft at the spawn point at cruise speed with a level
// attitude. Altitude, heading and the camera keep their previous values.
func (in *Integrator) Reset() {
	in.state.Position = in.params.SpawnPoint
	in.state.Speed = in.params.CruiseSpeed
	in.state.Pitch = 0
	in.state.Roll = 0
	in.state.Yaw = 0
}

// Tick advances one step and returns the new state and camera pose.
func (in *Integrator) Tick(flags input.ControlFlags, dt float64) (AircraftState, CameraPose) {
	out := in.Step(flags, dt)
	return out.State, out.Camera
}

// Step advances one step. dt is in seconds and must be non-negative.
// Angular rates are applied per tick and do not scale with dt.
func (in *Integrator) Step(flags input.ControlFlags, dt float64) Outcome {
	if flags.Has(input.Reset) {
		in.Reset()
		return Outcome{State: in.state, Camera: in.camera, Mode: ModeReset}
	}

	p := in.params
	s := in.state

	if flags.Has(input.Accelerate) {
		s.Speed = math.Min(s.Speed+p.Acceleration*dt, p.MaxSpeed)
	}
	if flags.Has(input.Decelerate) {
		s.Speed = math.Max(s.Speed-p.Acceleration*dt, p.MinSpeed)
	}

	if flags.Has(input.PitchForward) {
		s.Pitch -= p.PitchRate
	}
	if flags.Has(input.PitchBack) {
		s.Pitch += p.PitchRate
	}
	s.Pitch = physics.Clamp(s.Pitch, -p.PitchLimit, p.PitchLimit)

	if flags.Has(input.RollLeft) {
		s.Roll += p.RollRate
	}
	if flags.Has(input.RollRight) {
		s.Roll -= p.RollRate
	}
	if flags.Has(input.YawLeft) {
		s.Yaw += p.TurnRate
	}
	if flags.Has(input.YawRight) {
		s.Yaw -= p.TurnRate
	}

	dir := physics.Normalize(s.Attitude().Rotate(physics.Forward))
	disp := dir.Mul(s.Speed * dt)
	s.Position = s.Position.Add(disp)

	out := Outcome{Mode: ModeFlying, Displacement: disp}
	out.TerrainContact = in.applyTerrainFloor(&s)

	s.Position, out.BoundaryClamped = physics.ClampToRadius(s.Position, p.MaxRadius)
	if out.BoundaryClamped && in.applyTerrainFloor(&s) {
		out.TerrainContact = true
	}

	s.Altitude = math.Floor(s.Position.Y())
	if physics.HorizontalLength(disp) > headingEpsilon {
		s.Heading = HeadingDegrees(disp)
	}

	in.state = s
	in.camera = in.cameraFor(s)

	out.State = s
	out.Camera = in.camera
	return out
}

// applyTerrainFloor lifts the aircraft to the minimum altitude over the
// terrain. A descending aircraft is given a nose-up recovery pitch.
func (in *Integrator) applyTerrainFloor(s *AircraftState) bool {
	floor := in.terrain.HeightAt(s.Position.X(), s.Position.Z()) + in.params.Clearance
	if s.Position.Y() >= floor {
		return false
	}
	s.Position[1] = floor
	if s.Pitch > 0 {
		s.Pitch = in.params.TerrainRecoveryPitch
	}
	return true
}

func (in *Integrator) cameraFor(s AircraftState) CameraPose {
	att := s.Attitude()
	return CameraPose{
		Position: s.Position.Add(att.Rotate(in.params.CameraOffset())),
		Target:   s.Position.Add(att.Rotate(in.params.CameraLookVector())),
	}
}
