package engo

import (
	"image/color"
	"testing"

	"github.com/opd-ai/go-flightsim/pkg/terrain"
)

func TestNewAssetManager(t *testing.T) {
	am := NewAssetManager()

	if am.tiles == nil {
		t.Fatal("Expected tiles map to be initialized")
	}
	if len(am.tiles) != 0 {
		t.Errorf("Expected no tiles before LoadAssets, got %d", len(am.tiles))
	}
	if am.AircraftSprite() != nil || am.MarkerSprite() != nil {
		t.Error("Expected sprites to be nil before LoadAssets")
	}
	if am.TileSprite(terrain.Peaks) != nil {
		t.Error("Expected nil tile before LoadAssets")
	}
	if am.Font() != nil {
		t.Error("Expected nil font before LoadAssets")
	}
}

func TestLoadAssets_RequiresGLContext(t *testing.T) {
	// LoadAssets uploads textures and rasterizes the font, which needs a
	// window. The image generation behind it is covered below.
	t.Log("LoadAssets requires an OpenGL context and is exercised by the engo front-end")
}

func TestAircraftImage(t *testing.T) {
	img := AircraftImage()

	if b := img.Bounds(); b.Dx() != AircraftSpriteSize || b.Dy() != AircraftSpriteSize {
		t.Fatalf("Expected %dx%d image, got %v", AircraftSpriteSize, AircraftSpriteSize, b)
	}

	tests := []struct {
		name   string
		x, y   int
		opaque bool
	}{
		{"nose", 7, 0, true},
		{"left wingtip", 0, 6, true},
		{"right wingtip", 15, 7, true},
		{"tail", 8, 13, true},
		{"corner", 0, 0, false},
		{"beside nose", 3, 1, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a := img.NRGBAAt(tt.x, tt.y).A
			if (a == 255) != tt.opaque {
				t.Errorf("pixel (%d, %d) alpha %d, opaque=%v expected", tt.x, tt.y, a, tt.opaque)
			}
		})
	}
}

func TestAircraftImage_IsSymmetric(t *testing.T) {
	img := AircraftImage()
	for y := 0; y < AircraftSpriteSize; y++ {
		for x := 0; x < AircraftSpriteSize/2; x++ {
			l := img.NRGBAAt(x, y).A
			r := img.NRGBAAt(AircraftSpriteSize-1-x, y).A
			if l != r {
				t.Fatalf("row %d not symmetric at column %d", y, x)
			}
		}
	}
}

func TestBandColor(t *testing.T) {
	seen := make(map[color.NRGBA]terrain.Band)
	for _, b := range []terrain.Band{terrain.Water, terrain.Lowland, terrain.Hills, terrain.Upland, terrain.Peaks} {
		c := BandColor(b)
		if other, dup := seen[c]; dup {
			t.Errorf("bands %v and %v share colour %v", b, other, c)
		}
		seen[c] = b
	}

	if BandColor(terrain.Band(42)) != BandColor(terrain.Water) {
		t.Error("Expected unknown band to fall back to water")
	}
}

func TestSolidImage(t *testing.T) {
	c := color.NRGBA{10, 20, 30, 255}
	img := solidImage(TileSpriteSize, c)
	for y := 0; y < TileSpriteSize; y++ {
		for x := 0; x < TileSpriteSize; x++ {
			if got := img.NRGBAAt(x, y); got != c {
				t.Fatalf("pixel (%d, %d) = %v, want %v", x, y, got, c)
			}
		}
	}
}

func TestDrawPatternOnImage_ClipsToBounds(t *testing.T) {
	img := createBaseImage(2, 2)
	drawPatternOnImage(img, []string{"####", "####", "####"}, color.NRGBA{255, 0, 0, 255})

	for y := 0; y < 2; y++ {
		for x := 0; x < 2; x++ {
			if img.NRGBAAt(x, y).R != 255 {
				t.Errorf("pixel (%d, %d) not painted", x, y)
			}
		}
	}
}
