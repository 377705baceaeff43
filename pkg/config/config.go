// Package config loads the analyzer configuration from YAML and supplies
// defaults when no file is given.
package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"psfdiag/pkg/psfdiag"
)

// Config is the application configuration. Instrument values are captured
// here and forwarded verbatim in the diagnosis payload; the analyzer never
// interprets them.
type Config struct {
	Analysis struct {
		// MinPeak blocks analysis when the peak intensity is below it.
		MinPeak float64 `yaml:"minPeak"`

		// MinSNR blocks analysis when the signal-to-noise ratio is below it.
		MinSNR float64 `yaml:"minSNR"`

		// SaturationRadius is the half-width of the clipping check window.
		SaturationRadius int `yaml:"saturationRadius"`

		// MaxRadius is the number of radial profile bins.
		MaxRadius int `yaml:"maxRadius"`

		// Denoise enables the 3x3 median pre-pass.
		Denoise bool `yaml:"denoise"`

		// RefinePSF enables the elliptical Gaussian refinement fit.
		RefinePSF bool `yaml:"refinePSF"`
	} `yaml:"analysis"`

	Crop struct {
		// Size is the side length of the square crop around the centroid.
		Size int `yaml:"size"`

		// LogStretch tone-maps the crop for display and upload.
		LogStretch bool `yaml:"logStretch"`
	} `yaml:"crop"`

	Surface struct {
		// CanvasSize is the side length of the rendered wireframe frame.
		CanvasSize int `yaml:"canvasSize"`

		// FrameIntervalMS is the desktop frame pacing in milliseconds.
		FrameIntervalMS int `yaml:"frameIntervalMs"`
	} `yaml:"surface"`

	Instrument psfdiag.Instrument `yaml:"instrument"`
}

// Default returns the configuration used when no file is supplied.
func Default() *Config {
	cfg := &Config{}
	cfg.Analysis.MinPeak = psfdiag.DefaultMinPeak
	cfg.Analysis.MinSNR = psfdiag.DefaultMinSNR
	cfg.Analysis.SaturationRadius = psfdiag.DefaultSaturationRadius
	cfg.Analysis.MaxRadius = psfdiag.DefaultMaxRadius
	cfg.Crop.Size = psfdiag.DefaultCropSize
	cfg.Surface.CanvasSize = 480
	cfg.Surface.FrameIntervalMS = 33
	return cfg
}

// Load reads a YAML configuration file over the defaults.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config %s: %w", path, err)
	}
	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config %s: %w", path, err)
	}
	return cfg, nil
}

// Options converts the analysis and crop sections into pipeline options.
func (c *Config) Options() psfdiag.Options {
	opts := psfdiag.DefaultOptions()
	opts.MinPeak = c.Analysis.MinPeak
	opts.MinSNR = c.Analysis.MinSNR
	opts.SaturationRadius = c.Analysis.SaturationRadius
	opts.MaxRadius = c.Analysis.MaxRadius
	opts.Denoise = c.Analysis.Denoise
	opts.RefinePSF = c.Analysis.RefinePSF
	opts.CropSize = c.Crop.Size
	opts.LogStretch = c.Crop.LogStretch
	return opts
}
