// Package terrain provides the ground height query used for terrain clamping.
package terrain

import "math"

// Default height-field parameters.
const (
	DefaultWorldSize = 10000.0
	DefaultMinHeight = -20.0
	DefaultMaxHeight = 200.0
	noiseScale       = 0.002
)

// Field answers ground height queries. Implementations must be pure and
// deterministic.
type Field interface {
	HeightAt(x, z float64) float64
}

// Func adapts a plain function to a Field.
type Func func(x, z float64) float64

// HeightAt implements Field.
func (f Func) HeightAt(x, z float64) float64 { return f(x, z) }

// Flat is a Field of constant height.
type Flat float64

// HeightAt implements Field.
func (f Flat) HeightAt(x, z float64) float64 { return float64(f) }

// Rolling is the default synthetic landscape: three octaves of sine hills,
// clamped to [MinHeight, MaxHeight], fading to zero toward the world edge so the
// border meets the water plane.
type Rolling struct {
	WorldSize float64
	MinHeight float64
	MaxHeight float64
}

// NewRolling returns the default landscape.
func NewRolling() Rolling {
	return Rolling{
		WorldSize: DefaultWorldSize,
		MinHeight: DefaultMinHeight,
		MaxHeight: DefaultMaxHeight,
	}
}

// HeightAt implements Field.
func (r Rolling) HeightAt(x, z float64) float64 {
	octave := func(freq, amplitude float64) float64 {
		return (math.Sin(x*noiseScale*freq) + math.Sin(z*noiseScale*freq)) * amplitude
	}
	h := r.MinHeight + octave(1, 50) + octave(2, 25) + octave(4, 12.5)
	h = math.Min(math.Max(h, r.MinHeight), r.MaxHeight)
	return h * r.EdgeFactor(x, z)
}

// EdgeFactor is 1 inside radius WorldSize/2.5 and falls linearly to 0 over the
// next WorldSize/10.
func (r Rolling) EdgeFactor(x, z float64) float64 {
	d := math.Hypot(x, z)
	fade := (d - r.WorldSize/2.5) / (r.WorldSize / 10)
	return 1 - math.Min(1, math.Max(0, fade))
}

// Band is a coarse height classification used for map shading.
type Band int

const (
	Water Band = iota
	Lowland
	Hills
	Upland
	Peaks
)

var bandNames = []string{"water", "lowland", "hills", "upland", "peaks"}

func (b Band) String() string {
	if b >= 0 && int(b) < len(bandNames) {
		return bandNames[b]
	}
	return "unknown"
}

// BandOf classifies a ground height.
func BandOf(h float64) Band {
	switch {
	case h <= 0:
		return Water
	case h < 40:
		return Lowland
	case h < 90:
		return Hills
	case h < 140:
		return Upland
	default:
		return Peaks
	}
}
