// pkg/physics/vector.go
package physics

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"
)

// World axes and the aircraft's local forward direction.
var (
	AxisX   = mgl64.Vec3{1, 0, 0}
	AxisY   = mgl64.Vec3{0, 1, 0}
	AxisZ   = mgl64.Vec3{0, 0, 1}
	Forward = mgl64.Vec3{0, 0, 1}
)

// Axis identifies one of the three attitude angles and the axis it turns about.
type Axis int

const (
	// Pitch turns about X.
	Pitch Axis = iota
	// Yaw turns about Y.
	Yaw
	// Roll turns about Z.
	Roll
)

func (a Axis) String() string {
	switch a {
	case Pitch:
		return "pitch"
	case Yaw:
		return "yaw"
	case Roll:
		return "roll"
	default:
		return "unknown"
	}
}

// Vector returns the unit axis the angle rotates about.
func (a Axis) Vector() mgl64.Vec3 {
	switch a {
	case Pitch:
		return AxisX
	case Yaw:
		return AxisY
	default:
		return AxisZ
	}
}

// RotationOrder lists axes in the order their rotations are applied.
type RotationOrder [3]Axis

// HeadingRotationOrder is the order used for the travel direction and the
// chase camera. Changing it changes how the aircraft flies.
var HeadingRotationOrder = RotationOrder{Pitch, Yaw, Roll}

// ModelRotationOrder is the order used to orient the visual aircraft model.
var ModelRotationOrder = RotationOrder{Yaw, Pitch, Roll}

// Attitude holds the three orientation angles in radians.
type Attitude struct {
	Pitch float64
	Yaw   float64
	Roll  float64
}

// Angle returns the angle for an axis.
func (a Attitude) Angle(axis Axis) float64 {
	switch axis {
	case Pitch:
		return a.Pitch
	case Yaw:
		return a.Yaw
	default:
		return a.Roll
	}
}

// ComposeWorld composes the rotations as successive turns about the fixed world
// axes, first element of order applied first.
func (a Attitude) ComposeWorld(order RotationOrder) mgl64.Quat {
	q := mgl64.QuatIdent()
	for _, axis := range order {
		q = mgl64.QuatRotate(a.Angle(axis), axis.Vector()).Mul(q)
	}
	return q
}

// ComposeLocal composes the rotations as successive turns about the body's own
// axes, first element of order applied first.
func (a Attitude) ComposeLocal(order RotationOrder) mgl64.Quat {
	q := mgl64.QuatIdent()
	for _, axis := range order {
		q = q.Mul(mgl64.QuatRotate(a.Angle(axis), axis.Vector()))
	}
	return q
}

// Quat returns the heading rotation (HeadingRotationOrder about world axes).
func (a Attitude) Quat() mgl64.Quat {
	return a.ComposeWorld(HeadingRotationOrder)
}

// Rotate applies the heading rotation to v.
func (a Attitude) Rotate(v mgl64.Vec3) mgl64.Vec3 {
	return a.Quat().Rotate(v)
}

// Normalize returns a unit vector in the same direction, or the zero vector.
func Normalize(v mgl64.Vec3) mgl64.Vec3 {
	length := v.Len()
	if length == 0 {
		return mgl64.Vec3{}
	}
	return v.Mul(1 / length)
}

// HorizontalLength returns the length of v projected onto the XZ plane.
func HorizontalLength(v mgl64.Vec3) float64 {
	return math.Hypot(v.X(), v.Z())
}
