package psfdiag

import (
	"math"

	"gonum.org/v1/gonum/stat"
)

const (
	// centroidMassFraction is the fraction of the peak luminosity a pixel
	// must exceed to contribute to the center-of-mass accumulators.
	centroidMassFraction = 0.2

	// backgroundFraction bounds the luminosity of pixels counted as sky
	// background.
	backgroundFraction = 0.1

	// DefaultSaturationRadius is the half-width of the square window
	// inspected for clipped pixels around the centroid.
	DefaultSaturationRadius = 3

	// saturationChannelLevel marks a channel as clipped.
	saturationChannelLevel = 250

	// saturationPixelLimit is the number of clipped pixels tolerated before
	// the core is flagged as saturated.
	saturationPixelLimit = 4
)

// Centroid is the intensity-weighted position of the PSF core, together
// with the peak channel-averaged luminosity observed in the buffer.
// Coordinates are unclamped floating-point buffer coordinates.
type Centroid struct {
	X      float64
	Y      float64
	MaxVal float64
}

// ProcessingStats holds the calibrated measurements derived from one buffer.
// FWHMPixels is always >= 0. Refined is nil unless Gaussian refinement was
// requested and converged.
type ProcessingStats struct {
	Centroid        Centroid
	FWHMPixels      float64
	SNR             float64
	PeakIntensity   float64
	BackgroundLevel float64
	Refined         *RefinedPSF
}

// ComputeCentroid locates the PSF core by center of mass. The peak
// luminosity is found in a first pass so the 20%-of-peak mass threshold is
// stable regardless of scan order; a streaming single-pass variant would
// admit every background pixel scanned before the core is discovered.
// A blank buffer yields the geometric center with MaxVal 0. The input is
// never mutated.
func ComputeCentroid(buf *PixelBuffer) Centroid {
	peak := peakLuminosity(buf)

	var mass, mx, my float64
	threshold := peak * centroidMassFraction
	for y := 0; y < buf.Height; y++ {
		for x := 0; x < buf.Width; x++ {
			lum := buf.Luminosity(x, y)
			if lum > threshold {
				mass += lum
				mx += float64(x) * lum
				my += float64(y) * lum
			}
		}
	}

	if mass == 0 {
		return Centroid{X: float64(buf.Width) / 2, Y: float64(buf.Height) / 2, MaxVal: 0}
	}
	return Centroid{X: mx / mass, Y: my / mass, MaxVal: peak}
}

func peakLuminosity(buf *PixelBuffer) float64 {
	peak := 0.0
	for y := 0; y < buf.Height; y++ {
		for x := 0; x < buf.Width; x++ {
			if lum := buf.Luminosity(x, y); lum > peak {
				peak = lum
			}
		}
	}
	return peak
}

// CheckSaturation reports whether the core around (cx, cy) is structurally
// clipped: more than saturationPixelLimit pixels inside the enclosing square
// of the given radius have any channel at or above 250. This is a boolean
// clipping signal, not a measurement.
func CheckSaturation(buf *PixelBuffer, cx, cy float64, radius int) bool {
	x0 := int(cx) - radius
	x1 := int(cx) + radius
	y0 := int(cy) - radius
	y1 := int(cy) + radius
	if x0 < 0 {
		x0 = 0
	}
	if y0 < 0 {
		y0 = 0
	}
	if x1 > buf.Width-1 {
		x1 = buf.Width - 1
	}
	if y1 > buf.Height-1 {
		y1 = buf.Height - 1
	}

	count := 0
	for y := y0; y <= y1; y++ {
		for x := x0; x <= x1; x++ {
			r, g, b, _ := buf.RGBA(x, y)
			if r >= saturationChannelLevel || g >= saturationChannelLevel || b >= saturationChannelLevel {
				count++
				if count > saturationPixelLimit {
					return true
				}
			}
		}
	}
	return false
}

// EstimateStats measures the PSF core: centroid, FWHM from the half-max
// pixel count (disk-area inversion, assumes a roughly circular core),
// shot-noise-limited SNR, and the sky background level. Degenerate input
// produces zero values, never an error or NaN.
func EstimateStats(buf *PixelBuffer) ProcessingStats {
	centroid := ComputeCentroid(buf)
	peak := centroid.MaxVal

	halfMax := peak / 2
	bgCeiling := peak * backgroundFraction
	halfMaxCount := 0
	var bgSamples []float64
	for y := 0; y < buf.Height; y++ {
		for x := 0; x < buf.Width; x++ {
			lum := buf.Luminosity(x, y)
			if lum > halfMax && peak > 0 {
				halfMaxCount++
			}
			if lum < bgCeiling {
				bgSamples = append(bgSamples, lum)
			}
		}
	}

	fwhm := 2 * math.Sqrt(float64(halfMaxCount)/math.Pi)

	background := 0.0
	if len(bgSamples) > 0 {
		background = stat.Mean(bgSamples, nil)
	}

	signal := peak - background
	noise := math.Sqrt(background + 1) // shot-noise approximation, floored at 1
	snr := signal / noise

	return ProcessingStats{
		Centroid:        centroid,
		FWHMPixels:      fwhm,
		SNR:             snr,
		PeakIntensity:   peak,
		BackgroundLevel: background,
	}
}
