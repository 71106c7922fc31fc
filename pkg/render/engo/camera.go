package engo

import (
	"github.com/EngoEngine/ecs"
	"github.com/EngoEngine/engo"
	"github.com/EngoEngine/engo/common"
)

// PixelsPerUnit is the map scale: pixels per world unit.
const PixelsPerUnit = 0.5

// Project maps world (X, Z) onto the engo plane. North (-Z) is up and
// east (-X) is right, matching compass headings.
func Project(x, z float64) engo.Point {
	return engo.Point{X: float32(-x * PixelsPerUnit), Y: float32(z * PixelsPerUnit)}
}

// Unproject is the inverse of Project.
func Unproject(p engo.Point) (x, z float64) {
	return -float64(p.X) / PixelsPerUnit, float64(p.Y) / PixelsPerUnit
}

// CameraSystem keeps the engo camera over the chase camera's look-at point.
type CameraSystem struct {
	// Target to follow
	target    engo.Point
	targetSet bool

	zoom    float32
	minZoom float32
	maxZoom float32

	followSpeed float32
	smoothing   bool

	currentPos engo.Point
}

// NewCameraSystem creates a new camera system
func NewCameraSystem() *CameraSystem {
	return &CameraSystem{
		zoom:        1.0,
		minZoom:     0.25,
		maxZoom:     3.0,
		followSpeed: 4.0,
		smoothing:   true,
	}
}

// Remove satisfies the ecs.System interface
func (cs *CameraSystem) Remove(basic ecs.BasicEntity) {}

// Update moves toward the target and sends the result to engo's camera.
func (cs *CameraSystem) Update(dt float32) {
	cs.handleZoomInput()

	if cs.targetSet {
		cs.updateCameraPosition(dt)
	}

	cs.applyCameraTransform()
}

func (cs *CameraSystem) handleZoomInput() {
	if engo.Input == nil {
		return
	}
	if scrollY := engo.Input.Mouse.ScrollY; scrollY != 0 {
		cs.SetZoom(cs.zoom * (1.0 + scrollY*0.1))
	}
	if engo.Input.Button(ButtonZoomIn).Down() {
		cs.SetZoom(cs.zoom * 1.02)
	}
	if engo.Input.Button(ButtonZoomOut).Down() {
		cs.SetZoom(cs.zoom * 0.98)
	}
}

// updateCameraPosition eases the camera toward the target.
func (cs *CameraSystem) updateCameraPosition(dt float32) {
	if !cs.smoothing {
		cs.currentPos = cs.target
		return
	}
	k := cs.followSpeed * dt
	if k > 1 {
		k = 1
	}
	cs.currentPos.X += (cs.target.X - cs.currentPos.X) * k
	cs.currentPos.Y += (cs.target.Y - cs.currentPos.Y) * k
}

func (cs *CameraSystem) applyCameraTransform() {
	if engo.Mailbox == nil {
		return
	}
	engo.Mailbox.Dispatch(common.CameraMessage{Axis: common.XAxis, Value: cs.currentPos.X})
	engo.Mailbox.Dispatch(common.CameraMessage{Axis: common.YAxis, Value: cs.currentPos.Y})
	engo.Mailbox.Dispatch(common.CameraMessage{Axis: common.ZAxis, Value: 1 / cs.zoom})
}

// SetTarget sets the plane position for the camera to follow. The first
// target snaps the camera into place.
func (cs *CameraSystem) SetTarget(target engo.Point) {
	first := !cs.targetSet
	cs.target = target
	cs.targetSet = true

	if first || !cs.smoothing {
		cs.currentPos = target
	}
}

// ClearTarget clears the camera target
func (cs *CameraSystem) ClearTarget() {
	cs.targetSet = false
}

// SetZoom sets the camera zoom level
func (cs *CameraSystem) SetZoom(zoom float32) {
	cs.zoom = cs.clampZoom(zoom)
}

// GetZoom returns the current zoom level
func (cs *CameraSystem) GetZoom() float32 {
	return cs.zoom
}

func (cs *CameraSystem) clampZoom(zoom float32) float32 {
	if zoom < cs.minZoom {
		return cs.minZoom
	}
	if zoom > cs.maxZoom {
		return cs.maxZoom
	}
	return zoom
}

// SetFollowSpeed sets the camera follow speed
func (cs *CameraSystem) SetFollowSpeed(speed float32) {
	cs.followSpeed = speed
}

// EnableSmoothing enables or disables camera smoothing
func (cs *CameraSystem) EnableSmoothing(enabled bool) {
	cs.smoothing = enabled
}

// GetCurrentPosition returns the current camera position
func (cs *CameraSystem) GetCurrentPosition() engo.Point {
	return cs.currentPos
}

// WorldToScreen converts a plane position to window coordinates for a window
// of the given size.
func (cs *CameraSystem) WorldToScreen(p engo.Point, width, height float32) engo.Point {
	return engo.Point{
		X: (p.X-cs.currentPos.X)*cs.zoom + width/2,
		Y: (p.Y-cs.currentPos.Y)*cs.zoom + height/2,
	}
}

// ScreenToWorld is the inverse of WorldToScreen.
func (cs *CameraSystem) ScreenToWorld(p engo.Point, width, height float32) engo.Point {
	return engo.Point{
		X: (p.X-width/2)/cs.zoom + cs.currentPos.X,
		Y: (p.Y-height/2)/cs.zoom + cs.currentPos.Y,
	}
}

// SetZoomLimits sets the minimum and maximum zoom levels
func (cs *CameraSystem) SetZoomLimits(min, max float32) {
	cs.minZoom = min
	cs.maxZoom = max
	cs.zoom = cs.clampZoom(cs.zoom)
}

// GetZoomLimits returns the current zoom limits
func (cs *CameraSystem) GetZoomLimits() (float32, float32) {
	return cs.minZoom, cs.maxZoom
}
