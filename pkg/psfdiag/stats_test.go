package psfdiag

import (
	"math"
	"testing"
)

func grayBuffer(width, height int, fill byte) *PixelBuffer {
	buf := NewPixelBuffer(width, height)
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			buf.SetGray(x, y, fill)
		}
	}
	return buf
}

func almostEqual(a, b, eps float64) bool {
	return math.Abs(a-b) <= eps
}

func TestComputeCentroidBlankBuffer(t *testing.T) {
	buf := grayBuffer(32, 48, 0)

	c := ComputeCentroid(buf)
	if c.X != 16 || c.Y != 24 {
		t.Errorf("centroid = (%v, %v), want geometric center (16, 24)", c.X, c.Y)
	}
	if c.MaxVal != 0 {
		t.Errorf("MaxVal = %v, want 0", c.MaxVal)
	}
}

func TestComputeCentroidSinglePixel(t *testing.T) {
	buf := grayBuffer(32, 32, 0)
	buf.SetGray(10, 7, 255)

	c := ComputeCentroid(buf)
	if c.X != 10 || c.Y != 7 {
		t.Errorf("centroid = (%v, %v), want (10, 7)", c.X, c.Y)
	}
	if c.MaxVal != 255 {
		t.Errorf("MaxVal = %v, want 255", c.MaxVal)
	}
}

func TestComputeCentroidIgnoresFaintBackground(t *testing.T) {
	// A uniform background well below 20% of the peak must not drag the
	// centroid toward the image center of mass.
	buf := grayBuffer(64, 64, 10)
	for y := 40; y < 45; y++ {
		for x := 50; x < 55; x++ {
			buf.SetGray(x, y, 200)
		}
	}

	c := ComputeCentroid(buf)
	if !almostEqual(c.X, 52, 1e-9) || !almostEqual(c.Y, 42, 1e-9) {
		t.Errorf("centroid = (%v, %v), want (52, 42)", c.X, c.Y)
	}
}

func TestCheckSaturation(t *testing.T) {
	tests := []struct {
		name    string
		clipped int
		want    bool
	}{
		{"no clipped pixels", 0, false},
		{"at the tolerated limit", 4, false},
		{"one past the limit", 5, true},
		{"fully clipped core", 20, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			buf := grayBuffer(32, 32, 0)
			placed := 0
			for y := 14; y < 19 && placed < tt.clipped; y++ {
				for x := 14; x < 19 && placed < tt.clipped; x++ {
					buf.SetGray(x, y, 255)
					placed++
				}
			}
			if got := CheckSaturation(buf, 16, 16, DefaultSaturationRadius); got != tt.want {
				t.Errorf("CheckSaturation with %d clipped pixels = %v, want %v", tt.clipped, got, tt.want)
			}
		})
	}
}

func TestCheckSaturationSingleChannel(t *testing.T) {
	// One clipped channel is enough to count the pixel, even when the
	// averaged luminosity stays moderate.
	buf := grayBuffer(16, 16, 0)
	for i := 0; i < 5; i++ {
		buf.SetRGBA(6+i, 8, 255, 0, 0, 255)
	}
	if !CheckSaturation(buf, 8, 8, DefaultSaturationRadius) {
		t.Error("expected saturation from red-channel clipping")
	}
}

func TestCheckSaturationWindowClampsAtEdges(t *testing.T) {
	buf := grayBuffer(8, 8, 255)
	// Must not panic or read out of bounds for a corner centroid.
	if !CheckSaturation(buf, 0, 0, DefaultSaturationRadius) {
		t.Error("expected saturation in a fully clipped corner window")
	}
}

func TestEstimateStatsBlankBuffer(t *testing.T) {
	stats := EstimateStats(grayBuffer(32, 32, 0))

	if stats.PeakIntensity != 0 {
		t.Errorf("PeakIntensity = %v, want 0", stats.PeakIntensity)
	}
	if stats.FWHMPixels != 0 {
		t.Errorf("FWHMPixels = %v, want 0", stats.FWHMPixels)
	}
	if stats.SNR != 0 {
		t.Errorf("SNR = %v, want 0", stats.SNR)
	}
	if stats.BackgroundLevel != 0 {
		t.Errorf("BackgroundLevel = %v, want 0", stats.BackgroundLevel)
	}
}

func TestEstimateStatsPlateau(t *testing.T) {
	// 5x5 plateau of 200 centered at (32, 32) over a background of 10.
	buf := grayBuffer(64, 64, 10)
	for y := 30; y <= 34; y++ {
		for x := 30; x <= 34; x++ {
			buf.SetGray(x, y, 200)
		}
	}

	stats := EstimateStats(buf)

	if !almostEqual(stats.Centroid.X, 32, 1e-9) || !almostEqual(stats.Centroid.Y, 32, 1e-9) {
		t.Errorf("centroid = (%v, %v), want (32, 32)", stats.Centroid.X, stats.Centroid.Y)
	}
	if stats.PeakIntensity != 200 {
		t.Errorf("PeakIntensity = %v, want 200", stats.PeakIntensity)
	}
	if !almostEqual(stats.BackgroundLevel, 10, 1e-9) {
		t.Errorf("BackgroundLevel = %v, want 10", stats.BackgroundLevel)
	}

	// 25 pixels above half max, inverted through the disk area.
	wantFWHM := 2 * math.Sqrt(25/math.Pi)
	if !almostEqual(stats.FWHMPixels, wantFWHM, 1e-9) {
		t.Errorf("FWHMPixels = %v, want %v", stats.FWHMPixels, wantFWHM)
	}

	wantSNR := (200 - 10) / math.Sqrt(11)
	if !almostEqual(stats.SNR, wantSNR, 1e-9) {
		t.Errorf("SNR = %v, want %v", stats.SNR, wantSNR)
	}
	if math.IsNaN(stats.SNR) || math.IsInf(stats.SNR, 0) || stats.SNR <= 0 {
		t.Errorf("SNR = %v, want finite positive", stats.SNR)
	}
}

func TestEstimateStatsGaussian(t *testing.T) {
	// Synthetic circular Gaussian, sigma 3, peak 240, no background.
	const sigma = 3.0
	buf := NewPixelBuffer(64, 64)
	for y := 0; y < 64; y++ {
		for x := 0; x < 64; x++ {
			dx := float64(x) - 32
			dy := float64(y) - 32
			v := 240 * math.Exp(-(dx*dx+dy*dy)/(2*sigma*sigma))
			buf.SetGray(x, y, byte(v+0.5))
		}
	}

	stats := EstimateStats(buf)

	if !almostEqual(stats.Centroid.X, 32, 0.1) || !almostEqual(stats.Centroid.Y, 32, 0.1) {
		t.Errorf("centroid = (%v, %v), want near (32, 32)", stats.Centroid.X, stats.Centroid.Y)
	}

	// Half-max pixel counting should land close to the analytic FWHM.
	wantFWHM := 2 * sigma * math.Sqrt(2*math.Log(2))
	if !almostEqual(stats.FWHMPixels, wantFWHM, 0.5) {
		t.Errorf("FWHMPixels = %v, want %v +/- 0.5", stats.FWHMPixels, wantFWHM)
	}
}
