package surface

import (
	"math"
	"testing"
)

func almostEqual(a, b, eps float64) bool {
	return math.Abs(a-b) <= eps
}

func TestProjectionPeriodicInAzimuth(t *testing.T) {
	p := NewProjection()
	q := p
	q.Azimuth += 2 * math.Pi

	pt := GridPoint{LocalX: 5, LocalY: -3, Height: 0.7}
	x0, y0 := p.Project(pt, 240, 240)
	x1, y1 := q.Project(pt, 240, 240)

	if !almostEqual(x0, x1, 1e-9) || !almostEqual(y0, y1, 1e-9) {
		t.Errorf("projection not periodic: (%v, %v) vs (%v, %v)", x0, y0, x1, y1)
	}
}

func TestProjectionCenterPointMapsToCanvasCenter(t *testing.T) {
	p := NewProjection()
	x, y := p.ProjectFlat(0, 0, 240, 240)
	if !almostEqual(x, 240, 1e-9) || !almostEqual(y, 240, 1e-9) {
		t.Errorf("grid origin projects to (%v, %v), want (240, 240)", x, y)
	}
}

func TestProjectionZoomScalesAboutCenter(t *testing.T) {
	p := NewProjection()
	pt := GridPoint{LocalX: 8, LocalY: 4, Height: 0.5}

	x1, y1 := p.Project(pt, 240, 240)
	p.Zoom = 2.0
	x2, y2 := p.Project(pt, 240, 240)

	d1 := math.Hypot(x1-240, y1-240)
	d2 := math.Hypot(x2-240, y2-240)
	if !almostEqual(d2, 2*d1, 1e-9) {
		t.Errorf("distance at zoom 2 = %v, want twice %v", d2, d1)
	}
}

func TestProjectionHeightRaisesPoint(t *testing.T) {
	p := NewProjection()
	_, yFlat := p.ProjectFlat(0, 0, 240, 240)
	_, yTall := p.Project(GridPoint{Height: 1}, 240, 240)

	// Canvas Y grows downward, so a taller point lands higher up.
	if yTall >= yFlat {
		t.Errorf("peak projects at y=%v, want above flat y=%v", yTall, yFlat)
	}
}

func TestSpinAdvancesAzimuthOnly(t *testing.T) {
	p := NewProjection()
	before := p
	p.Spin()

	if p.Azimuth <= before.Azimuth {
		t.Errorf("azimuth = %v, want > %v", p.Azimuth, before.Azimuth)
	}
	if p.Elevation != before.Elevation || p.Zoom != before.Zoom {
		t.Error("spin must not touch elevation or zoom")
	}
}

func TestDragClampsElevation(t *testing.T) {
	p := NewProjection()
	p.Drag(0, 1e6)
	if p.Elevation != MaxElevation {
		t.Errorf("elevation = %v, want pinned at %v", p.Elevation, MaxElevation)
	}

	p.Drag(0, -1e6)
	if p.Elevation != MinElevation {
		t.Errorf("elevation = %v, want pinned at %v", p.Elevation, MinElevation)
	}
}

func TestDragRotatesAzimuthUnclamped(t *testing.T) {
	p := NewProjection()
	p.Drag(1000, 0)
	want := 0.6 + 1000*0.01
	if !almostEqual(p.Azimuth, want, 1e-9) {
		t.Errorf("azimuth = %v, want %v", p.Azimuth, want)
	}
}

func TestWheelClampsZoom(t *testing.T) {
	p := NewProjection()
	p.Wheel(100)
	if p.Zoom != MaxZoom {
		t.Errorf("zoom = %v, want pinned at %v", p.Zoom, MaxZoom)
	}

	p.Wheel(-100)
	if p.Zoom != MinZoom {
		t.Errorf("zoom = %v, want pinned at %v", p.Zoom, MinZoom)
	}

	p.Wheel(1)
	if !almostEqual(p.Zoom, MinZoom+0.1, 1e-9) {
		t.Errorf("zoom = %v, want one step above %v", p.Zoom, MinZoom)
	}
}
