package psfdiag

// Options selects thresholds and optional passes for one analysis run.
type Options struct {
	MinPeak          float64
	MinSNR           float64
	SaturationRadius int
	MaxRadius        int
	CropSize         int
	LogStretch       bool
	Denoise          bool
	RefinePSF        bool
	FitGoodness      float64
}

// DefaultOptions returns the standard thresholds.
func DefaultOptions() Options {
	return Options{
		MinPeak:          DefaultMinPeak,
		MinSNR:           DefaultMinSNR,
		SaturationRadius: DefaultSaturationRadius,
		MaxRadius:        DefaultMaxRadius,
		CropSize:         DefaultCropSize,
		FitGoodness:      DefaultFitGoodness,
	}
}

// Result bundles everything derived from one source image. All of it is
// recomputed from scratch when a new image arrives or the tone-mapping mode
// toggles a re-crop; nothing is cached across images.
type Result struct {
	Stats      ProcessingStats
	Assessment Assessment
	Profile    []RadialDataPoint
	Crop       *PixelBuffer
}

// Analyze runs the full measurement pipeline over one buffer: statistics,
// saturation check, validation, radial profile, and the crop that feeds
// both the display and the diagnosis payload. The input buffer is never
// mutated. Analyze never fails: degenerate input produces degenerate
// measurements and a blocking assessment, not an error.
func Analyze(buf *PixelBuffer, opts Options) *Result {
	if opts.MaxRadius <= 0 {
		opts.MaxRadius = DefaultMaxRadius
	}
	if opts.CropSize <= 0 {
		opts.CropSize = DefaultCropSize
	}
	if opts.SaturationRadius <= 0 {
		opts.SaturationRadius = DefaultSaturationRadius
	}

	src := buf
	if opts.Denoise {
		src = MedianFilter3(buf)
	}

	stats := EstimateStats(src)
	saturated := CheckSaturation(src, stats.Centroid.X, stats.Centroid.Y, opts.SaturationRadius)

	profile := RadialProfile(src, stats.Centroid.X, stats.Centroid.Y, opts.MaxRadius)
	crop := Crop(src, stats.Centroid.X, stats.Centroid.Y, opts.CropSize, opts.LogStretch)

	if opts.RefinePSF {
		// Fit against the raw crop; the log curve would distort the profile.
		rawCrop := crop
		if opts.LogStretch {
			rawCrop = Crop(src, stats.Centroid.X, stats.Centroid.Y, opts.CropSize, false)
		}
		cropCentroid := ComputeCentroid(rawCrop)
		stats.Refined = RefinePSF(rawCrop, cropCentroid, stats.BackgroundLevel, opts.FitGoodness)
	}

	return &Result{
		Stats:      stats,
		Assessment: Assess(stats, saturated, opts.MinPeak, opts.MinSNR),
		Profile:    profile,
		Crop:       crop,
	}
}
