// Package engine drives the flight model: it owns the aircraft, consumes key
// events and publishes frames to renderers.
package engine

import (
	"context"
	"math"
	"sync"
	"sync/atomic"

	"github.com/go-gl/mathgl/mgl64"

	"github.com/opd-ai/go-flightsim/pkg/event"
	"github.com/opd-ai/go-flightsim/pkg/flight"
	"github.com/opd-ai/go-flightsim/pkg/input"
	"github.com/opd-ai/go-flightsim/pkg/logging"
	"github.com/opd-ai/go-flightsim/pkg/terrain"
)

// Propeller spin per frame, in radians per unit of speed.
const propellerSpinFactor = 0.01

const defaultKeyBuffer = 64

// Frame is an immutable snapshot of one simulation step.
type Frame struct {
	Tick           uint64
	DeltaTime      float64
	Mode           flight.Mode
	Flags          input.ControlFlags
	State          flight.AircraftState
	Camera         flight.CameraPose
	Telemetry      flight.Telemetry
	ModelRotation  mgl64.Quat
	PropellerAngle float64

	TerrainContact  bool
	BoundaryClamped bool
}

// Options configures a Simulation. Zero values select defaults.
type Options struct {
	Params       flight.Params
	Terrain      terrain.Field
	Bindings     map[input.Code]input.Control
	MaxDeltaTime float64
	KeyBuffer    int
	SessionID    string
	Logger       *logging.Logger
	EventBus     *event.Bus
}

// Simulation owns the integrator and input tracker. Advance must be called
// from a single goroutine; SubmitKey and Snapshot are safe from any goroutine.
type Simulation struct {
	EventBus  *event.Bus
	SessionID string

	integrator   *flight.Integrator
	tracker      *input.Tracker
	keys         chan input.KeyEvent
	logger       *logging.Logger
	maxDeltaTime float64

	loaded    atomic.Bool
	tick      uint64
	propeller float64

	// previous-tick edges, so events fire once per episode
	wasReset    bool
	wasContact  bool
	wasBoundary bool

	mu    sync.RWMutex
	frame Frame
}

// NewSimulation creates a simulation with the aircraft at the spawn point.
// Ticks are ignored until MarkLoaded is called.
func NewSimulation(opts Options) *Simulation {
	if opts.Params == (flight.Params{}) {
		opts.Params = flight.DefaultParams()
	}
	if opts.Terrain == nil {
		opts.Terrain = terrain.NewRolling()
	}
	if opts.Bindings == nil {
		opts.Bindings = input.DefaultBindings
	}
	if opts.MaxDeltaTime <= 0 || opts.MaxDeltaTime > flight.MaxDeltaTime {
		opts.MaxDeltaTime = flight.MaxDeltaTime
	}
	if opts.KeyBuffer <= 0 {
		opts.KeyBuffer = defaultKeyBuffer
	}
	if opts.Logger == nil {
		opts.Logger = logging.NewLogger()
	}
	if opts.EventBus == nil {
		opts.EventBus = event.NewEventBus()
	}
	if opts.SessionID == "" {
		opts.SessionID = logging.GenerateCorrelationID()
	}

	s := &Simulation{
		EventBus:     opts.EventBus,
		SessionID:    opts.SessionID,
		integrator:   flight.NewIntegrator(opts.Params, opts.Terrain),
		tracker:      input.NewTrackerWithBindings(opts.Bindings),
		keys:         make(chan input.KeyEvent, opts.KeyBuffer),
		logger:       opts.Logger,
		maxDeltaTime: opts.MaxDeltaTime,
	}
	s.frame = s.buildFrame(flight.Outcome{
		State:  s.integrator.State(),
		Camera: s.integrator.Camera(),
	}, 0)
	return s
}

// MarkLoaded opens the update gate once the aircraft model is ready.
func (s *Simulation) MarkLoaded() {
	if s.loaded.CompareAndSwap(false, true) {
		s.EventBus.Publish(event.NewLifecycleEvent(event.SimulationLoaded, s, s.SessionID, "model ready"))
	}
}

// Loaded reports whether MarkLoaded has been called.
func (s *Simulation) Loaded() bool {
	return s.loaded.Load()
}

// SubmitKey queues a key event for the next Advance. It never blocks and
// reports false if the queue is full.
func (s *Simulation) SubmitKey(ev input.KeyEvent) bool {
	select {
	case s.keys <- ev:
		return true
	default:
		return false
	}
}

// Terrain returns the height field the aircraft flies over.
func (s *Simulation) Terrain() terrain.Field {
	return s.integrator.Terrain()
}

// Params returns the flight tunables.
func (s *Simulation) Params() flight.Params {
	return s.integrator.Params()
}

// Snapshot returns the latest frame.
func (s *Simulation) Snapshot() Frame {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.frame
}

// Advance drains pending key events and, once loaded, integrates one tick.
// dt is clamped to [0, MaxDeltaTime].
func (s *Simulation) Advance(dt float64) Frame {
	s.drainKeys()

	if !s.Loaded() {
		s.mu.Lock()
		s.frame.Flags = s.tracker.Flags()
		frame := s.frame
		s.mu.Unlock()
		return frame
	}

	dt = math.Min(math.Max(dt, 0), s.maxDeltaTime)
	if math.IsNaN(dt) {
		dt = 0
	}

	out := s.integrator.Step(s.tracker.Flags(), dt)
	s.tick++
	s.propeller = math.Mod(s.propeller+out.State.Speed*propellerSpinFactor, 2*math.Pi)

	frame := s.buildFrame(out, dt)
	s.mu.Lock()
	s.frame = frame
	s.mu.Unlock()

	s.publishEdges(frame)
	return frame
}

func (s *Simulation) drainKeys() {
	for {
		select {
		case ev := <-s.keys:
			s.tracker.Apply(ev)
		default:
			return
		}
	}
}

func (s *Simulation) buildFrame(out flight.Outcome, dt float64) Frame {
	return Frame{
		Tick:            s.tick,
		DeltaTime:       dt,
		Mode:            out.Mode,
		Flags:           s.tracker.Flags(),
		State:           out.State,
		Camera:          out.Camera,
		Telemetry:       out.State.Telemetry(),
		ModelRotation:   out.State.ModelRotation(),
		PropellerAngle:  s.propeller,
		TerrainContact:  out.TerrainContact,
		BoundaryClamped: out.BoundaryClamped,
	}
}

func (s *Simulation) publishEdges(f Frame) {
	ctx := logging.WithCorrelationID(context.Background(), s.SessionID)
	reset := f.Mode == flight.ModeReset

	if reset && !s.wasReset {
		s.logger.Info(ctx, "aircraft reset", "tick", f.Tick)
		s.publishFlight(event.AircraftReset, f)
	}
	if f.TerrainContact && !s.wasContact {
		s.logger.Debug(ctx, "terrain contact", "tick", f.Tick, "altitude", f.Telemetry.Altitude)
		s.publishFlight(event.TerrainContact, f)
	}
	if f.BoundaryClamped && !s.wasBoundary {
		s.logger.Debug(ctx, "boundary reached", "tick", f.Tick, "heading", f.Telemetry.Heading)
		s.publishFlight(event.BoundaryReached, f)
	}

	s.wasReset = reset
	s.wasContact = f.TerrainContact
	s.wasBoundary = f.BoundaryClamped
}

func (s *Simulation) publishFlight(t event.Type, f Frame) {
	s.EventBus.Publish(event.NewFlightEvent(t, s, f.Tick, f.State.Position, f.State.Speed, f.State.Pitch))
}
