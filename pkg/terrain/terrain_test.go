package terrain

import (
	"math"
	"testing"
)

func TestRolling_HeightAt(t *testing.T) {
	r := NewRolling()

	tests := []struct {
		name     string
		x, z     float64
		expected float64
	}{
		// Every sine term is zero at the origin, so only the offset remains.
		{"origin", 0, 0, DefaultMinHeight},
		// Beyond the fade band the terrain is flattened to sea level.
		{"far_outside", 6000, 0, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := r.HeightAt(tt.x, tt.z); math.Abs(got-tt.expected) > 1e-9 {
				t.Errorf("HeightAt(%v, %v) = %v, expected %v", tt.x, tt.z, got, tt.expected)
			}
		})
	}
}

func TestRolling_HeightBounds(t *testing.T) {
	r := NewRolling()
	for x := -5000.0; x <= 5000; x += 137 {
		for z := -5000.0; z <= 5000; z += 211 {
			h := r.HeightAt(x, z)
			if h < DefaultMinHeight-1e-9 || h > DefaultMaxHeight+1e-9 {
				t.Fatalf("HeightAt(%v, %v) = %v outside [%v, %v]", x, z, h, DefaultMinHeight, DefaultMaxHeight)
			}
		}
	}
}

func TestRolling_PeakValue(t *testing.T) {
	// x = z = pi/2/scale puts the first octave at its maximum of 100; the
	// second octave is sin(pi)=0 and the fourth is sin(2pi)=0.
	r := NewRolling()
	p := math.Pi / 2 / noiseScale
	expected := DefaultMinHeight + 100
	if got := r.HeightAt(p, p); math.Abs(got-expected) > 1e-6 {
		t.Errorf("HeightAt(peak) = %v, expected %v", got, expected)
	}
}

func TestRolling_EdgeFactor(t *testing.T) {
	r := NewRolling()
	tests := []struct {
		name     string
		distance float64
		expected float64
	}{
		{"center", 0, 1},
		{"fade_start", 4000, 1},
		{"fade_middle", 4500, 0.5},
		{"fade_end", 5000, 0},
		{"beyond", 8000, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := r.EdgeFactor(tt.distance, 0); math.Abs(got-tt.expected) > 1e-9 {
				t.Errorf("EdgeFactor(%v) = %v, expected %v", tt.distance, got, tt.expected)
			}
		})
	}
}

func TestAdapters(t *testing.T) {
	var f Field = Flat(42)
	if got := f.HeightAt(1, 2); got != 42 {
		t.Errorf("Flat.HeightAt() = %v, expected 42", got)
	}

	f = Func(func(x, z float64) float64 { return x - z })
	if got := f.HeightAt(5, 3); got != 2 {
		t.Errorf("Func.HeightAt() = %v, expected 2", got)
	}
}

func TestBandOf(t *testing.T) {
	tests := []struct {
		height float64
		want   Band
	}{
		{-20, Water},
		{0, Water},
		{0.5, Lowland},
		{39.9, Lowland},
		{40, Hills},
		{120, Upland},
		{140, Peaks},
		{200, Peaks},
	}
	for _, tt := range tests {
		if got := BandOf(tt.height); got != tt.want {
			t.Errorf("BandOf(%v) = %v, want %v", tt.height, got, tt.want)
		}
	}
	if Band(9).String() != "unknown" {
		t.Errorf("unexpected name for out-of-range band")
	}
}
