package surface

import (
	"fmt"
	"image"
	"sync"

	"github.com/fogleman/gg"

	"psfdiag/pkg/psfdiag"
)

// nearZeroHeight separates signal strokes from the noise floor; segments
// at or below it are drawn in a neutral tint.
const nearZeroHeight = 0.02

// thickStrokeHeight is the height above which vertical strokes are
// thickened for peak emphasis.
const thickStrokeHeight = 0.5

// View owns one grid plus the camera state and renders frames of it.
// Input handlers and the frame loop may live on different goroutines in
// desktop hosts, so mutation goes through the view's lock; under a
// single-threaded wasm host the lock is uncontended.
type View struct {
	mu       sync.Mutex
	grid     *Grid
	proj     Projection
	dragging bool
}

// NewView builds a view over a cropped buffer with the default camera.
func NewView(buf *psfdiag.PixelBuffer) *View {
	return &View{grid: BuildGrid(buf), proj: NewProjection()}
}

// SetBuffer rebuilds the grid for a structurally different buffer. The
// camera pose survives a tone-map toggle (newImage false) but resets when
// a wholly new source image arrives (newImage true).
func (v *View) SetBuffer(buf *psfdiag.PixelBuffer, newImage bool) {
	grid := BuildGrid(buf)
	v.mu.Lock()
	v.grid = grid
	if newImage {
		v.proj = NewProjection()
	}
	v.mu.Unlock()
}

// PointerDown begins a drag; the idle spin pauses while dragging.
func (v *View) PointerDown() {
	v.mu.Lock()
	v.dragging = true
	v.mu.Unlock()
}

// PointerUp ends a drag.
func (v *View) PointerUp() {
	v.mu.Lock()
	v.dragging = false
	v.mu.Unlock()
}

// Drag applies a pointer movement delta while dragging.
func (v *View) Drag(dx, dy float64) {
	v.mu.Lock()
	v.dragging = true
	v.proj.Drag(dx, dy)
	v.mu.Unlock()
}

// Wheel applies discrete zoom steps.
func (v *View) Wheel(steps float64) {
	v.mu.Lock()
	v.proj.Wheel(steps)
	v.mu.Unlock()
}

// Zoom returns the current zoom factor for HUD readouts.
func (v *View) Zoom() float64 {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.proj.Zoom
}

// Projection returns a snapshot of the camera state.
func (v *View) Projection() Projection {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.proj
}

// Advance runs one animation tick: the idle spin, unless a drag is active.
func (v *View) Advance() {
	v.mu.Lock()
	if !v.dragging {
		v.proj.Spin()
	}
	v.mu.Unlock()
}

// Frame renders the wireframe at the given canvas size.
func (v *View) Frame(width, height int) *image.RGBA {
	v.mu.Lock()
	grid := v.grid
	proj := v.proj
	v.mu.Unlock()

	return renderFrame(grid, proj, width, height)
}

func renderFrame(grid *Grid, proj Projection, width, height int) *image.RGBA {
	dc := gg.NewContext(width, height)
	cx := float64(width) / 2
	cy := float64(height) / 2

	dc.SetRGB255(8, 10, 16)
	dc.Clear()

	n := grid.N

	// Structural pass: horizontal scan-lines in a faint constant tint.
	dc.SetLineWidth(1)
	dc.SetRGBA(0.33, 0.40, 0.55, 0.35)
	for iy := 0; iy <= n; iy++ {
		sx, sy := proj.Project(grid.At(0, iy), cx, cy)
		dc.MoveTo(sx, sy)
		for ix := 1; ix <= n; ix++ {
			sx, sy = proj.Project(grid.At(ix, iy), cx, cy)
			dc.LineTo(sx, sy)
		}
		dc.Stroke()
	}

	// Signal pass: vertical strokes colored by the higher endpoint,
	// thickened above the peak-emphasis height, neutral near the floor.
	for ix := 0; ix <= n; ix++ {
		for iy := 0; iy < n; iy++ {
			a := grid.At(ix, iy)
			b := grid.At(ix, iy+1)
			top := a
			if b.Height > a.Height {
				top = b
			}

			if top.Height <= nearZeroHeight {
				dc.SetRGBA(0.28, 0.30, 0.36, 0.8)
				dc.SetLineWidth(1)
			} else {
				dc.SetColor(top.Color)
				if top.Height > thickStrokeHeight {
					dc.SetLineWidth(2.5)
				} else {
					dc.SetLineWidth(1)
				}
			}

			x0, y0 := proj.Project(a, cx, cy)
			x1, y1 := proj.Project(b, cx, cy)
			dc.DrawLine(x0, y0, x1, y1)
			dc.Stroke()
		}
	}

	// Reference plane at height zero through the grid's extreme corners.
	half := float64(n) / 2
	corners := [4][2]float64{{-half, -half}, {half, -half}, {half, half}, {-half, half}}
	dc.SetRGBA(0.45, 0.50, 0.62, 0.45)
	dc.SetLineWidth(1)
	x0, y0 := proj.ProjectFlat(corners[0][0], corners[0][1], cx, cy)
	dc.MoveTo(x0, y0)
	for i := 1; i < 4; i++ {
		xi, yi := proj.ProjectFlat(corners[i][0], corners[i][1], cx, cy)
		dc.LineTo(xi, yi)
	}
	dc.ClosePath()
	dc.Stroke()

	// Zoom readout.
	dc.SetRGB(0.78, 0.82, 0.90)
	dc.DrawString(fmt.Sprintf("zoom %.1fx", proj.Zoom), 8, float64(height)-8)

	img, _ := dc.Image().(*image.RGBA)
	return img
}
