package engo

import (
	"context"
	"testing"

	"github.com/go-gl/mathgl/mgl64"

	"github.com/opd-ai/go-flightsim/pkg/engine"
	"github.com/opd-ai/go-flightsim/pkg/event"
	"github.com/opd-ai/go-flightsim/pkg/terrain"
)

func newTestScene(t *testing.T, onExit func()) (*FlightScene, *engine.Simulation) {
	t.Helper()
	sim := engine.NewSimulation(engine.Options{Terrain: terrain.Flat(0), Logger: quietLogger()})
	return NewFlightScene(context.Background(), sim, quietLogger(), onExit), sim
}

func TestNewFlightScene(t *testing.T) {
	scene, _ := newTestScene(t, nil)

	if scene.Type() != SceneType {
		t.Errorf("Expected Type() to return %q, got %q", SceneType, scene.Type())
	}
	if scene.Loop() == nil {
		t.Fatal("Expected a frame loop")
	}
	if scene.HUD() == nil || scene.camera == nil || scene.input == nil || scene.renderer == nil {
		t.Fatal("Expected systems to be created")
	}
	if scene.Active() {
		t.Error("Expected scene to be inactive before Setup")
	}
}

func TestFlightScene_StepWaitsForLoad(t *testing.T) {
	scene, sim := newTestScene(t, nil)
	step := &stepSystem{scene: scene}

	step.Update(1.0 / 60)
	if f := sim.Snapshot(); f.Tick != 0 {
		t.Fatalf("Expected no tick before the model is loaded, got %d", f.Tick)
	}

	sim.MarkLoaded()
	for i := 0; i < 3; i++ {
		step.Update(1.0 / 60)
	}

	f := sim.Snapshot()
	if f.Tick != 3 {
		t.Fatalf("Expected tick 3, got %d", f.Tick)
	}
	if telemetry, _ := scene.HUD().Lines(); telemetry != TelemetryText(f) {
		t.Errorf("Expected HUD to show the latest frame, got %q", telemetry)
	}
	if scene.Loop().LastFrameAt().IsZero() {
		t.Error("Expected the loop to record the frame time")
	}
	// the idle pre-load frame is rendered too
	if scene.renderer.Frames() != 4 {
		t.Errorf("Expected 4 rendered frames, got %d", scene.renderer.Frames())
	}
}

func TestFlightScene_EventsBecomeNotices(t *testing.T) {
	exited := false
	scene, sim := newTestScene(t, func() { exited = true })
	scene.subscribeToEvents()

	sim.EventBus.Publish(event.NewFlightEvent(event.TerrainContact, sim, 1, mgl64.Vec3{}, 100, 0))
	sim.EventBus.Publish(event.NewRecorderEvent(nil, "closed", "open"))

	_, line := scene.HUD().Lines()
	if line != "TERRAIN CONTACT  RECORDER OFFLINE" {
		t.Errorf("unexpected notices %q", line)
	}

	scene.Exit()
	if !exited {
		t.Error("Expected onExit to run")
	}

	sim.EventBus.Publish(event.NewFlightEvent(event.AircraftReset, sim, 2, mgl64.Vec3{}, 100, 0))
	if got := len(scene.HUD().Notices()); got != 2 {
		t.Errorf("Expected no notices after Exit, got %d", got)
	}
}
