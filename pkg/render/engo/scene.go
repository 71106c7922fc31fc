package engo

import (
	"context"
	"sync/atomic"

	"github.com/EngoEngine/ecs"
	"github.com/EngoEngine/engo"
	"github.com/EngoEngine/engo/common"

	"github.com/opd-ai/go-flightsim/pkg/engine"
	"github.com/opd-ai/go-flightsim/pkg/event"
	"github.com/opd-ai/go-flightsim/pkg/logging"
)

// SceneType is the engo scene name.
const SceneType = "FlightScene"

var notices = map[event.Type]string{
	event.AircraftReset:   "RESET",
	event.TerrainContact:  "TERRAIN CONTACT",
	event.BoundaryReached: "WORLD BOUNDARY",
	event.RecorderTripped: "RECORDER OFFLINE",
}

// FlightScene is the engo scene hosting the simulation. engo's update loop
// drives the frame clock: every engo frame advances the simulation once.
type FlightScene struct {
	ctx    context.Context
	sim    *engine.Simulation
	loop   *engine.Loop
	logger *logging.Logger
	onExit func()

	world    *ecs.World
	renderer *EngoRenderer
	camera   *CameraSystem
	input    *InputSystem
	hud      *HUDSystem

	subs   []*event.Subscription
	active atomic.Bool
}

// NewFlightScene creates the scene and its frame loop. onExit, if set, runs
// when engo leaves the scene.
func NewFlightScene(ctx context.Context, sim *engine.Simulation, logger *logging.Logger, onExit func()) *FlightScene {
	if logger == nil {
		logger = logging.NewLogger()
	}
	scene := &FlightScene{
		ctx:    ctx,
		sim:    sim,
		logger: logger,
		onExit: onExit,
		camera: NewCameraSystem(),
		hud:    NewHUDSystem(),
	}
	scene.renderer = NewEngoRenderer(nil, sim.Terrain(), sim.Params().MaxRadius, scene.camera, scene.hud)
	scene.loop = engine.NewLoop(sim, scene.renderer, 0, logger)
	scene.input = NewInputSystem(sim.SubmitKey, engo.Exit, logger)
	return scene
}

// Type returns the scene type (required by Engo)
func (scene *FlightScene) Type() string {
	return SceneType
}

// Loop returns the frame loop, for registering observers.
func (scene *FlightScene) Loop() *engine.Loop {
	return scene.loop
}

// Active reports whether the scene is set up and not yet exited.
func (scene *FlightScene) Active() bool {
	return scene.active.Load()
}

// HUD returns the HUD system.
func (scene *FlightScene) HUD() *HUDSystem {
	return scene.hud
}

// Preload registers the HUD font (required by Engo)
func (scene *FlightScene) Preload() {
	if err := PreloadFont(); err != nil {
		scene.logger.Error(scene.ctx, "font preload failed", err)
	}
}

// Setup builds the world once the window exists (required by Engo)
func (scene *FlightScene) Setup(u engo.Updater) {
	world, ok := u.(*ecs.World)
	if !ok {
		panic("flight scene requires an *ecs.World updater")
	}
	scene.world = world
	scene.renderer.world = world

	SetupInputBindings()

	rs := &common.RenderSystem{}
	world.AddSystem(rs)
	if err := scene.renderer.Initialize(rs); err != nil {
		panic("Failed to initialize renderer: " + err.Error())
	}

	world.AddSystem(scene.input)
	world.AddSystem(&stepSystem{scene: scene})
	world.AddSystem(scene.camera)
	world.AddSystem(scene.hud)

	scene.subscribeToEvents()

	// The aircraft sprite is ready: open the update gate.
	scene.sim.MarkLoaded()
	scene.active.Store(true)
	scene.logger.Info(scene.ctx, "flight scene ready", "tiles", scene.renderer.TileCount())
}

func (scene *FlightScene) subscribeToEvents() {
	for t, msg := range notices {
		scene.subs = append(scene.subs, scene.sim.EventBus.Subscribe(t, func(event.Event) {
			scene.hud.AddNotice(msg)
		}))
	}
}

// Exit is called when the scene is exiting (required by Engo)
func (scene *FlightScene) Exit() {
	for _, sub := range scene.subs {
		sub.Cancel()
	}
	scene.subs = nil
	scene.active.Store(false)
	if scene.onExit != nil {
		scene.onExit()
	}
}

// stepSystem advances the simulation once per engo frame.
type stepSystem struct {
	scene *FlightScene
}

func (s *stepSystem) Remove(ecs.BasicEntity) {}

func (s *stepSystem) Update(dt float32) {
	s.scene.loop.Step(s.scene.ctx, float64(dt))
}
