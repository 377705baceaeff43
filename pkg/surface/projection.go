package surface

import (
	"math"

	"gonum.org/v1/gonum/spatial/r3"
)

const (
	// MinZoom and MaxZoom bound the wheel-controlled zoom scale.
	MinZoom = 0.5
	MaxZoom = 3.0

	// MinElevation and MaxElevation bound the tilt to keep the camera from
	// gimbal-flipping over the top or under the plane.
	MinElevation = 0.2
	MaxElevation = math.Pi / 2.2

	// heightScale exaggerates the height axis before the elevation
	// rotation so the core's topology reads clearly.
	heightScale = 15.0

	// baseScale is the pixel scale applied on top of the zoom factor.
	baseScale = 8.0

	// Perspective divide constants: k = perspectiveNum/(perspectiveDen - depth).
	perspectiveNum = 400.0
	perspectiveDen = 500.0

	// idleSpinStep is the azimuth advance per frame while not dragging.
	idleSpinStep = 0.004

	// dragSensitivity converts pointer deltas to radians.
	dragSensitivity = 0.01

	// wheelZoomStep is the zoom change per discrete wheel step.
	wheelZoomStep = 0.1
)

// Projection is the camera state: azimuth and elevation angles plus zoom.
// It is owned exclusively by one view; input handlers and the idle spin are
// the only writers, and the render pass the only other reader.
type Projection struct {
	Azimuth   float64
	Elevation float64
	Zoom      float64
}

// NewProjection returns the initial camera pose.
func NewProjection() Projection {
	return Projection{Azimuth: 0.6, Elevation: 1.0, Zoom: 1.0}
}

// Project maps a grid point to canvas coordinates centered on (cx, cy):
// rotate by azimuth about Z, scale the height axis, rotate by elevation
// about X, perspective-divide on the post-rotation depth, then scale and
// translate.
func (p Projection) Project(pt GridPoint, cx, cy float64) (float64, float64) {
	return p.project(pt.LocalX, pt.LocalY, pt.Height, cx, cy)
}

// ProjectFlat projects a point at height zero, used for the reference plane.
func (p Projection) ProjectFlat(localX, localY, cx, cy float64) (float64, float64) {
	return p.project(localX, localY, 0, cx, cy)
}

func (p Projection) project(lx, ly, h, cx, cy float64) (float64, float64) {
	az := r3.NewRotation(p.Azimuth, r3.Vec{Z: 1})
	el := r3.NewRotation(p.Elevation, r3.Vec{X: 1})

	v := az.Rotate(r3.Vec{X: lx, Y: ly})
	v.Z = h * heightScale
	v = el.Rotate(v)

	k := perspectiveNum / (perspectiveDen - v.Y)
	s := k * baseScale * p.Zoom
	return cx + v.X*s, cy - v.Z*s
}

// Spin advances the idle auto-rotation by one frame.
func (p *Projection) Spin() {
	p.Azimuth += idleSpinStep
}

// Drag applies a pointer drag delta: horizontal movement rotates the
// azimuth, vertical movement tilts the elevation within its clamp.
func (p *Projection) Drag(dx, dy float64) {
	p.Azimuth += dx * dragSensitivity
	p.Elevation = clamp(p.Elevation+dy*dragSensitivity, MinElevation, MaxElevation)
}

// Wheel applies discrete wheel steps to the zoom, pinned to its bounds.
// Positive steps zoom in.
func (p *Projection) Wheel(steps float64) {
	p.Zoom = clamp(p.Zoom+steps*wheelZoomStep, MinZoom, MaxZoom)
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
