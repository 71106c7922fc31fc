package physics

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"
)

// Clamp saturates v to [lo, hi].
func Clamp(v, lo, hi float64) float64 {
	return math.Max(math.Min(v, hi), lo)
}

// ClampToRadius keeps p within radius of the origin in the XZ plane. A point
// outside is moved back onto the circle along the same bearing; Y is untouched.
// The second return value reports whether p was moved.
func ClampToRadius(p mgl64.Vec3, radius float64) (mgl64.Vec3, bool) {
	if HorizontalLength(p) <= radius {
		return p, false
	}
	bearing := math.Atan2(p.Z(), p.X())
	return mgl64.Vec3{math.Cos(bearing) * radius, p.Y(), math.Sin(bearing) * radius}, true
}
