// Package engo renders the flight simulation in a window using the Engo
// game engine: a top-down terrain map that follows the chase camera, the
// aircraft sprite and a telemetry HUD.
package engo

import (
	"bytes"
	"fmt"
	"image"
	"image/color"
	"image/draw"

	"github.com/EngoEngine/engo"
	"github.com/EngoEngine/engo/common"
	"golang.org/x/image/font/gofont/goregular"

	"github.com/opd-ai/go-flightsim/pkg/terrain"
)

// FontURL is the virtual file the HUD font is registered under.
const FontURL = "goregular.ttf"

// Sprite sizes in pixels.
const (
	AircraftSpriteSize = 16
	MarkerSpriteSize   = 6
	TileSpriteSize     = 4
)

var bandColors = map[terrain.Band]color.NRGBA{
	terrain.Water:   {30, 60, 140, 255},
	terrain.Lowland: {70, 140, 60, 255},
	terrain.Hills:   {40, 100, 40, 255},
	terrain.Upland:  {130, 120, 60, 255},
	terrain.Peaks:   {200, 200, 200, 255},
}

// aircraftPattern is a top-down silhouette pointing up (north).
var aircraftPattern = []string{
	".......##.......",
	".......##.......",
	"......####......",
	"......####......",
	"......####......",
	"..############..",
	"################",
	"################",
	"......####......",
	"......####......",
	".......##.......",
	".......##.......",
	".....######.....",
	"....########....",
	".......##.......",
	"................",
}

// AssetManager builds and owns the procedural sprites and the HUD font.
type AssetManager struct {
	aircraft common.Drawable
	marker   common.Drawable
	tiles    map[terrain.Band]common.Drawable
	font     *common.Font
}

// NewAssetManager creates an empty asset manager.
func NewAssetManager() *AssetManager {
	return &AssetManager{
		tiles: make(map[terrain.Band]common.Drawable),
	}
}

// PreloadFont registers the embedded Go font with engo's file loader. It must
// run in Scene.Preload.
func PreloadFont() error {
	if err := engo.Files.LoadReaderData(FontURL, bytes.NewReader(goregular.TTF)); err != nil {
		return fmt.Errorf("failed to load HUD font: %w", err)
	}
	return nil
}

// LoadAssets uploads every sprite and prepares the HUD font. It needs an
// OpenGL context and must run in Scene.Setup.
func (am *AssetManager) LoadAssets() error {
	am.aircraft = convertToEngoTexture(AircraftImage())
	am.marker = convertToEngoTexture(solidImage(MarkerSpriteSize, color.NRGBA{0, 255, 255, 255}))
	for band, c := range bandColors {
		am.tiles[band] = convertToEngoTexture(solidImage(TileSpriteSize, c))
	}

	am.font = &common.Font{
		URL:  FontURL,
		FG:   color.White,
		Size: 18,
	}
	if err := am.font.CreatePreloaded(); err != nil {
		return fmt.Errorf("failed to prepare HUD font: %w", err)
	}
	return nil
}

// AircraftImage renders the aircraft silhouette.
func AircraftImage() *image.NRGBA {
	img := createBaseImage(AircraftSpriteSize, AircraftSpriteSize)
	drawPatternOnImage(img, aircraftPattern, color.NRGBA{255, 220, 0, 255})
	return img
}

// BandColor returns the map colour for a terrain band.
func BandColor(b terrain.Band) color.NRGBA {
	if c, ok := bandColors[b]; ok {
		return c
	}
	return bandColors[terrain.Water]
}

func solidImage(size int, c color.NRGBA) *image.NRGBA {
	img := image.NewNRGBA(image.Rect(0, 0, size, size))
	draw.Draw(img, img.Bounds(), &image.Uniform{c}, image.Point{}, draw.Src)
	return img
}

// createBaseImage creates a transparent image with the given dimensions.
func createBaseImage(width, height int) *image.NRGBA {
	img := image.NewNRGBA(image.Rect(0, 0, width, height))
	draw.Draw(img, img.Bounds(), &image.Uniform{color.NRGBA{0, 0, 0, 0}}, image.Point{}, draw.Src)
	return img
}

// drawPatternOnImage paints every '#' of pattern in c.
func drawPatternOnImage(img *image.NRGBA, pattern []string, c color.NRGBA) {
	bounds := img.Bounds()
	for y, row := range pattern {
		if y >= bounds.Dy() {
			break
		}
		for x, pixel := range row {
			if x >= bounds.Dx() {
				break
			}
			if pixel == '#' {
				img.SetNRGBA(x, y, c)
			}
		}
	}
}

func convertToEngoTexture(img *image.NRGBA) common.Drawable {
	return common.NewTextureSingle(common.NewImageObject(img))
}

// AircraftSprite returns the aircraft sprite.
func (am *AssetManager) AircraftSprite() common.Drawable {
	return am.aircraft
}

// MarkerSprite returns the chase-camera marker sprite.
func (am *AssetManager) MarkerSprite() common.Drawable {
	return am.marker
}

// TileSprite returns the tile for a band, falling back to water.
func (am *AssetManager) TileSprite(b terrain.Band) common.Drawable {
	if sprite, ok := am.tiles[b]; ok {
		return sprite
	}
	return am.tiles[terrain.Water]
}

// Font returns the HUD font, or nil before LoadAssets.
func (am *AssetManager) Font() *common.Font {
	return am.font
}
