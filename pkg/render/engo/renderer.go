package engo

import (
	"fmt"
	"image/color"
	"math"

	"github.com/EngoEngine/ecs"
	"github.com/EngoEngine/engo"
	"github.com/EngoEngine/engo/common"

	"github.com/opd-ai/go-flightsim/pkg/engine"
	"github.com/opd-ai/go-flightsim/pkg/terrain"
)

// DefaultTileSize is the edge of one terrain tile in world units.
const DefaultTileSize = 200.0

// Tile is one square of the shaded terrain map.
type Tile struct {
	X, Z float64
	Band terrain.Band
}

// TerrainTiles samples field on a grid of size-unit squares covering the
// disc of the given radius.
func TerrainTiles(field terrain.Field, radius, size float64) []Tile {
	if size <= 0 || radius <= 0 {
		return nil
	}
	n := int(math.Ceil(radius / size))
	tiles := make([]Tile, 0, 4*n*n)
	for i := -n; i < n; i++ {
		for j := -n; j < n; j++ {
			x := (float64(i) + 0.5) * size
			z := (float64(j) + 0.5) * size
			if math.Hypot(x, z) > radius+size/2 {
				continue
			}
			tiles = append(tiles, Tile{X: x, Z: z, Band: terrain.BandOf(field.HeightAt(x, z))})
		}
	}
	return tiles
}

// AircraftPose returns the plane position of the aircraft and its sprite
// rotation in degrees clockwise from north.
func AircraftPose(f engine.Frame) (engo.Point, float32) {
	pos := f.State.Position
	return Project(pos.X(), pos.Z()), float32(f.State.Heading)
}

type sprite struct {
	ecs.BasicEntity
	common.RenderComponent
	common.SpaceComponent
}

// EngoRenderer implements engine.Renderer on an engo world.
type EngoRenderer struct {
	world        *ecs.World
	renderSystem *common.RenderSystem
	assets       *AssetManager

	field     terrain.Field
	maxRadius float64
	tileSize  float64

	aircraft *sprite
	marker   *sprite
	tiles    []*sprite

	camera *CameraSystem
	hud    *HUDSystem
	frames uint64
}

// NewEngoRenderer creates a renderer. Initialize must run before frames are
// drawn; until then RenderFrame only updates the camera and HUD.
func NewEngoRenderer(world *ecs.World, field terrain.Field, maxRadius float64, camera *CameraSystem, hud *HUDSystem) *EngoRenderer {
	if field == nil {
		field = terrain.Flat(0)
	}
	return &EngoRenderer{
		world:     world,
		assets:    NewAssetManager(),
		field:     field,
		maxRadius: maxRadius,
		tileSize:  DefaultTileSize,
		camera:    camera,
		hud:       hud,
	}
}

// Initialize uploads assets and creates the map, aircraft and HUD entities.
func (r *EngoRenderer) Initialize(rs *common.RenderSystem) error {
	r.renderSystem = rs
	if err := r.assets.LoadAssets(); err != nil {
		return fmt.Errorf("failed to load assets: %w", err)
	}

	tilePixels := float32(r.tileSize * PixelsPerUnit)
	for _, t := range TerrainTiles(r.field, r.maxRadius, r.tileSize) {
		s := r.addSprite(r.assets.TileSprite(t.Band), tilePixels, 0)
		s.RenderComponent.Scale = engo.Point{X: tilePixels / TileSpriteSize, Y: tilePixels / TileSpriteSize}
		s.SetCenter(Project(t.X, t.Z))
		r.tiles = append(r.tiles, s)
	}

	r.marker = r.addSprite(r.assets.MarkerSprite(), MarkerSpriteSize, 5)
	r.aircraft = r.addSprite(r.assets.AircraftSprite(), AircraftSpriteSize, 10)

	if r.hud != nil {
		r.hud.Attach(rs, r.assets.Font())
	}
	return nil
}

func (r *EngoRenderer) addSprite(d common.Drawable, size float32, z float32) *sprite {
	s := &sprite{BasicEntity: ecs.NewBasic()}
	s.RenderComponent = common.RenderComponent{Drawable: d, Color: color.White}
	s.RenderComponent.SetZIndex(z)
	s.SpaceComponent = common.SpaceComponent{Width: size, Height: size}
	r.renderSystem.Add(&s.BasicEntity, &s.RenderComponent, &s.SpaceComponent)
	return s
}

// Clear implements engine.Renderer. engo clears the window itself.
func (r *EngoRenderer) Clear() {}

// RenderFrame implements engine.Renderer.
func (r *EngoRenderer) RenderFrame(f engine.Frame) {
	center, rotation := AircraftPose(f)
	if r.aircraft != nil {
		r.aircraft.Rotation = rotation
		r.aircraft.SetCenter(center)
	}
	if r.marker != nil {
		cam := f.Camera.Position
		r.marker.SetCenter(Project(cam.X(), cam.Z()))
	}
	if r.camera != nil {
		target := f.Camera.Target
		r.camera.SetTarget(Project(target.X(), target.Z()))
	}
	if r.hud != nil {
		r.hud.UpdateFrame(f)
	}
}

// Present implements engine.Renderer.
func (r *EngoRenderer) Present() {
	r.frames++
}

// Frames returns the number of frames presented.
func (r *EngoRenderer) Frames() uint64 {
	return r.frames
}

// TileCount returns the number of terrain tiles created by Initialize.
func (r *EngoRenderer) TileCount() int {
	return len(r.tiles)
}

var _ engine.Renderer = (*EngoRenderer)(nil)
