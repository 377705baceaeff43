package psfdiag

const (
	// DefaultMinPeak is the minimum peak intensity required before the
	// crop is considered worth sending for diagnosis.
	DefaultMinPeak = 20.0

	// DefaultMinSNR is the minimum signal-to-noise ratio required before
	// the crop is considered worth sending for diagnosis.
	DefaultMinSNR = 3.0
)

// Assessment is the structured verdict on one measured buffer. Blocking
// findings stop downstream analysis; the stats themselves are still
// computed and displayed so the user can see why. Saturation is a warning
// only: analysis proceeds but results may be unreliable. Nothing in the
// pipeline escalates any of these to a panic or process failure.
type Assessment struct {
	SignalTooWeak bool
	LowSNR        bool
	Saturated     bool
}

// OK reports whether no blocking finding is present.
func (a Assessment) OK() bool {
	return !a.SignalTooWeak && !a.LowSNR
}

// Findings returns human-readable findings, blockers first.
func (a Assessment) Findings() []string {
	var out []string
	if a.SignalTooWeak {
		out = append(out, "signal too weak: peak intensity below minimum")
	}
	if a.LowSNR {
		out = append(out, "signal-to-noise ratio below minimum")
	}
	if a.Saturated {
		out = append(out, "warning: core is saturated, shape information may be lost")
	}
	return out
}

// Assess applies the validation thresholds to a measured buffer.
// Non-positive thresholds fall back to the defaults.
func Assess(stats ProcessingStats, saturated bool, minPeak, minSNR float64) Assessment {
	if minPeak <= 0 {
		minPeak = DefaultMinPeak
	}
	if minSNR <= 0 {
		minSNR = DefaultMinSNR
	}
	return Assessment{
		SignalTooWeak: stats.PeakIntensity < minPeak,
		LowSNR:        stats.SNR < minSNR,
		Saturated:     saturated,
	}
}
