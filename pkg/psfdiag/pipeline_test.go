package psfdiag

import (
	"math"
	"testing"
)

func TestAnalyzePlateauEndToEnd(t *testing.T) {
	// The canonical fixture: a 5x5 plateau of 200 centered at (32, 32)
	// over a uniform background of 10.
	buf := grayBuffer(64, 64, 10)
	for y := 30; y <= 34; y++ {
		for x := 30; x <= 34; x++ {
			buf.SetGray(x, y, 200)
		}
	}

	result := Analyze(buf, DefaultOptions())

	if !almostEqual(result.Stats.Centroid.X, 32, 0.5) || !almostEqual(result.Stats.Centroid.Y, 32, 0.5) {
		t.Errorf("centroid = (%v, %v), want (32, 32)",
			result.Stats.Centroid.X, result.Stats.Centroid.Y)
	}
	if result.Stats.PeakIntensity != 200 {
		t.Errorf("peak = %v, want 200", result.Stats.PeakIntensity)
	}
	if result.Stats.SNR <= 0 || math.IsInf(result.Stats.SNR, 0) || math.IsNaN(result.Stats.SNR) {
		t.Errorf("SNR = %v, want finite positive", result.Stats.SNR)
	}
	if result.Assessment.Saturated {
		t.Error("plateau at 200 must not be flagged saturated")
	}
	if !result.Assessment.OK() {
		t.Errorf("assessment blocks a clean star: %v", result.Assessment.Findings())
	}
	if len(result.Profile) != DefaultMaxRadius {
		t.Errorf("len(Profile) = %d, want %d", len(result.Profile), DefaultMaxRadius)
	}
	if result.Crop.Width != DefaultCropSize || result.Crop.Height != DefaultCropSize {
		t.Errorf("crop = %dx%d, want %dx%d",
			result.Crop.Width, result.Crop.Height, DefaultCropSize, DefaultCropSize)
	}
}

func TestAnalyzeBlankBuffer(t *testing.T) {
	result := Analyze(grayBuffer(64, 64, 0), DefaultOptions())

	if result.Assessment.OK() {
		t.Error("blank buffer must be blocked from diagnosis")
	}
	if !result.Assessment.SignalTooWeak {
		t.Error("blank buffer should flag SignalTooWeak")
	}
	for _, p := range result.Profile {
		if math.IsNaN(p.Intensity) {
			t.Fatal("NaN in profile for blank buffer")
		}
	}
}

func TestAnalyzeSaturatedCore(t *testing.T) {
	buf := grayBuffer(64, 64, 5)
	for y := 29; y <= 35; y++ {
		for x := 29; x <= 35; x++ {
			buf.SetGray(x, y, 255)
		}
	}

	result := Analyze(buf, DefaultOptions())
	if !result.Assessment.Saturated {
		t.Error("clipped 7x7 core must be flagged saturated")
	}
	// Saturation warns, it does not block.
	if !result.Assessment.OK() {
		t.Errorf("saturation should not block: %v", result.Assessment.Findings())
	}
}

func TestAnalyzeDoesNotMutateInput(t *testing.T) {
	buf := grayBuffer(64, 64, 10)
	buf.SetGray(32, 32, 250)
	before := buf.Clone()

	opts := DefaultOptions()
	opts.Denoise = true
	opts.LogStretch = true
	Analyze(buf, opts)

	for i := range buf.Pix {
		if buf.Pix[i] != before.Pix[i] {
			t.Fatalf("input buffer mutated at byte %d", i)
		}
	}
}

func TestAnalyzeLogStretchAppliesToCropOnly(t *testing.T) {
	buf := grayBuffer(64, 64, 0)
	buf.SetGray(32, 32, 100)
	// A faint wing pixel next to the core.
	buf.SetGray(33, 32, 30)

	plain := Analyze(buf, DefaultOptions())

	opts := DefaultOptions()
	opts.LogStretch = true
	stretched := Analyze(buf, opts)

	// Stats are measured on linear data in both runs.
	if plain.Stats.PeakIntensity != stretched.Stats.PeakIntensity {
		t.Errorf("peak changed under log stretch: %v vs %v",
			plain.Stats.PeakIntensity, stretched.Stats.PeakIntensity)
	}
	// The crop is brighter in stretch mode.
	cx, cy := DefaultCropSize/2, DefaultCropSize/2
	if stretched.Crop.Luminosity(cx+1, cy) <= plain.Crop.Luminosity(cx+1, cy) {
		t.Errorf("stretched wing %v not brighter than linear %v",
			stretched.Crop.Luminosity(cx+1, cy), plain.Crop.Luminosity(cx+1, cy))
	}
}

func TestAnalyzeDenoiseCropSource(t *testing.T) {
	// With denoise enabled the crop comes from the filtered buffer, so a
	// host re-cropping on a tone toggle must filter first to match.
	buf := grayBuffer(64, 64, 20)
	buf.SetGray(32, 32, 200)
	buf.SetGray(10, 10, 255) // hot pixel outside the core

	opts := DefaultOptions()
	opts.Denoise = true
	result := Analyze(buf, opts)

	filtered := MedianFilter3(buf)
	want := Crop(filtered, result.Stats.Centroid.X, result.Stats.Centroid.Y, opts.CropSize, false)
	for i := range want.Pix {
		if result.Crop.Pix[i] != want.Pix[i] {
			t.Fatalf("crop byte %d = %d, want %d (filtered source)", i, result.Crop.Pix[i], want.Pix[i])
		}
	}

	raw := Crop(buf, result.Stats.Centroid.X, result.Stats.Centroid.Y, opts.CropSize, false)
	same := true
	for i := range raw.Pix {
		if result.Crop.Pix[i] != raw.Pix[i] {
			same = false
			break
		}
	}
	if same {
		t.Error("denoised crop is identical to the raw crop; filter not applied")
	}
}

func TestAnalyzeRefinement(t *testing.T) {
	const sigma = 2.5
	buf := NewPixelBuffer(64, 64)
	for y := 0; y < 64; y++ {
		for x := 0; x < 64; x++ {
			dx := float64(x) - 32
			dy := float64(y) - 32
			v := 10 + 200*math.Exp(-(dx*dx+dy*dy)/(2*sigma*sigma))
			buf.SetGray(x, y, byte(v+0.5))
		}
	}

	opts := DefaultOptions()
	opts.RefinePSF = true
	result := Analyze(buf, opts)

	if result.Stats.Refined == nil {
		t.Fatal("expected a refined PSF for a clean Gaussian")
	}
	wantFWHM := sigma * 2 * math.Sqrt(2*math.Log(2))
	if !almostEqual(result.Stats.Refined.FWHMPixels, wantFWHM, 0.5) {
		t.Errorf("refined FWHM = %v, want %v +/- 0.5", result.Stats.Refined.FWHMPixels, wantFWHM)
	}

	// Refinement off leaves the field nil.
	plain := Analyze(buf, DefaultOptions())
	if plain.Stats.Refined != nil {
		t.Error("Refined must stay nil when refinement is disabled")
	}
}
