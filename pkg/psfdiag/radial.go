package psfdiag

import "math"

// DefaultMaxRadius is the number of radius bins in a radial profile.
const DefaultMaxRadius = 64

// RadialDataPoint is one bin of the intensity-vs-radius curve.
// Intensity is normalized against the center bin; IdealDiffraction is a
// synthetic Gaussian-like baseline for visual comparison only, NOT a
// physically accurate Airy pattern.
type RadialDataPoint struct {
	Radius           int
	Intensity        float64
	IdealDiffraction float64
}

// RadialProfile averages luminosity over concentric integer-radius rings
// around (cx, cy). The result always has exactly maxRadius entries, ordered
// by radius 0..maxRadius-1. Bins with no contributing pixels report
// intensity 0; there is no interpolation across gaps.
func RadialProfile(buf *PixelBuffer, cx, cy float64, maxRadius int) []RadialDataPoint {
	sums := make([]float64, maxRadius)
	counts := make([]int, maxRadius)

	for y := 0; y < buf.Height; y++ {
		for x := 0; x < buf.Width; x++ {
			dx := float64(x) - cx
			dy := float64(y) - cy
			dist := math.Sqrt(dx*dx + dy*dy)
			if dist < float64(maxRadius) {
				bin := int(dist)
				sums[bin] += buf.Luminosity(x, y)
				counts[bin]++
			}
		}
	}

	// Normalize against the center bin; an empty center bin falls back to
	// full scale so the profile stays bounded.
	peakRef := 255.0
	if counts[0] > 0 {
		peakRef = sums[0] / float64(counts[0])
	}
	if peakRef == 0 {
		peakRef = 255.0
	}

	profile := make([]RadialDataPoint, maxRadius)
	for r := 0; r < maxRadius; r++ {
		intensity := 0.0
		if counts[r] > 0 {
			intensity = sums[r] / float64(counts[r]) / peakRef
		}
		profile[r] = RadialDataPoint{
			Radius:           r,
			Intensity:        intensity,
			IdealDiffraction: idealDiffraction(r),
		}
	}
	return profile
}

// idealDiffraction is the illustrative reference curve attached to each bin.
func idealDiffraction(radius int) float64 {
	r := float64(radius)
	return math.Exp(-0.1 * r * r)
}
