// Package surface renders a cropped PSF buffer as an interactive rotating
// 3D wireframe of its intensity surface.
package surface

import (
	"image/color"

	"github.com/lucasb-eyer/go-colorful"

	"psfdiag/pkg/psfdiag"
)

// GridN is the number of cells per side of the height-field; the grid has
// (GridN+1)^2 sample points.
const GridN = 32

const (
	hueLow  = 240.0 // blue at the noise floor
	hueHigh = 30.0  // orange at the peak
)

// GridPoint is one sample of the height-field: centered local coordinates,
// a height in [0, 1], and its display color.
type GridPoint struct {
	LocalX float64
	LocalY float64
	Height float64
	Color  color.RGBA
}

// Grid is the downsampled height-field for one cropped buffer. It is built
// once per new buffer (or tone-mode change) and read-only during animation.
type Grid struct {
	N      int
	points []GridPoint
}

// BuildGrid downsamples the crop to a (GridN+1)x(GridN+1) height-field by
// nearest-sample lookup at evenly spaced steps. Height is mean luminosity
// over 255; color sweeps from blue (low) to orange (high). A nil or empty
// buffer yields a flat grid at height zero.
func BuildGrid(buf *psfdiag.PixelBuffer) *Grid {
	n := GridN
	g := &Grid{N: n, points: make([]GridPoint, (n+1)*(n+1))}

	empty := buf == nil || buf.Width < 1 || buf.Height < 1

	stepX, stepY := 0.0, 0.0
	if !empty {
		stepX = float64(buf.Width) / float64(n)
		stepY = float64(buf.Height) / float64(n)
	}

	for iy := 0; iy <= n; iy++ {
		for ix := 0; ix <= n; ix++ {
			h := 0.0
			if !empty {
				sy := int(float64(iy) * stepY)
				if sy > buf.Height-1 {
					sy = buf.Height - 1
				}
				sx := int(float64(ix) * stepX)
				if sx > buf.Width-1 {
					sx = buf.Width - 1
				}
				h = buf.Luminosity(sx, sy) / 255.0
			}
			g.points[iy*(n+1)+ix] = GridPoint{
				LocalX: float64(ix) - float64(n)/2,
				LocalY: float64(iy) - float64(n)/2,
				Height: h,
				Color:  HeightColor(h),
			}
		}
	}
	return g
}

// At returns the sample at grid index (ix, iy).
func (g *Grid) At(ix, iy int) GridPoint {
	return g.points[iy*(g.N+1)+ix]
}

// HeightColor maps a height in [0, 1] onto the hue sweep at full
// saturation and 60% lightness.
func HeightColor(h float64) color.RGBA {
	if h < 0 {
		h = 0
	}
	if h > 1 {
		h = 1
	}
	hue := hueLow + (hueHigh-hueLow)*h
	r, g, b := colorful.Hsl(hue, 1.0, 0.6).RGB255()
	return color.RGBA{R: r, G: g, B: b, A: 255}
}
