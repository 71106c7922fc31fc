package physics

import (
	"math"
	"testing"

	"github.com/go-gl/mathgl/mgl64"
)

func TestClamp(t *testing.T) {
	tests := []struct {
		name      string
		v, lo, hi float64
		expected  float64
	}{
		{"inside", 3, 0, 10, 3},
		{"below", -2, 0, 10, 0},
		{"above", 12, 0, 10, 10},
		{"at_low_edge", 0, 0, 10, 0},
		{"at_high_edge", 10, 0, 10, 10},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Clamp(tt.v, tt.lo, tt.hi); got != tt.expected {
				t.Errorf("Clamp(%v, %v, %v) = %v, expected %v", tt.v, tt.lo, tt.hi, got, tt.expected)
			}
		})
	}
}

func TestClampToRadius(t *testing.T) {
	t.Run("inside_is_untouched", func(t *testing.T) {
		p := mgl64.Vec3{30, 12, 40}
		got, moved := ClampToRadius(p, 100)
		if moved || got != p {
			t.Errorf("ClampToRadius() = %v, %v; expected %v, false", got, moved, p)
		}
	})

	t.Run("outside_is_projected_on_bearing", func(t *testing.T) {
		p := mgl64.Vec3{300, 55, 400}
		got, moved := ClampToRadius(p, 100)
		if !moved {
			t.Fatal("expected point to be moved")
		}
		if !vecNear(got, mgl64.Vec3{60, 55, 80}) {
			t.Errorf("ClampToRadius() = %v, expected (60,55,80)", got)
		}
		if math.Abs(HorizontalLength(got)-100) > epsilon {
			t.Errorf("projected radius = %v, expected 100", HorizontalLength(got))
		}
	})

	t.Run("negative_quadrant", func(t *testing.T) {
		got, _ := ClampToRadius(mgl64.Vec3{-500, 0, 0}, 100)
		if !vecNear(got, mgl64.Vec3{-100, 0, 0}) {
			t.Errorf("ClampToRadius() = %v, expected (-100,0,0)", got)
		}
	})
}
