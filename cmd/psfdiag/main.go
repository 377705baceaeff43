package main

import (
	"flag"
	"fmt"
	"image/png"
	"os"
	"strings"

	"psfdiag/pkg/config"
	"psfdiag/pkg/psfdiag"
	"psfdiag/pkg/surface"
)

func main() {
	if err := run(os.Args[1:]); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run(args []string) error {
	fs := flag.NewFlagSet("psfdiag", flag.ContinueOnError)
	configPath := fs.String("config", "", "YAML configuration file")
	stretch := fs.Bool("stretch", false, "apply the log stretch to the crop")
	denoise := fs.Bool("denoise", false, "apply the 3x3 median pre-pass")
	refine := fs.Bool("refine", false, "fit an elliptical Gaussian to the core")
	cropOut := fs.String("crop", "", "write the cropped payload image (PNG)")
	surfaceOut := fs.String("surface", "", "write one rendered surface frame (PNG)")
	radialOut := fs.String("radial", "", "write the radial profile (CSV)")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() < 1 {
		return fmt.Errorf("usage: psfdiag [flags] <input-image>")
	}
	inputPath := fs.Arg(0)

	cfg := config.Default()
	if *configPath != "" {
		var err error
		cfg, err = config.Load(*configPath)
		if err != nil {
			return err
		}
	}
	opts := cfg.Options()
	if *stretch {
		opts.LogStretch = true
	}
	if *denoise {
		opts.Denoise = true
	}
	if *refine {
		opts.RefinePSF = true
	}

	fmt.Printf("Loading: %s\n", inputPath)
	buf, err := loadBuffer(inputPath)
	if err != nil {
		return err
	}

	result := psfdiag.Analyze(buf, opts)
	printReport(buf, result)

	if *radialOut != "" {
		if err := writeRadialCSV(*radialOut, result.Profile); err != nil {
			return err
		}
		fmt.Printf("Radial profile written: %s\n", *radialOut)
	}

	if *cropOut != "" {
		req, err := psfdiag.BuildAnalysisRequest(result.Crop, result.Stats, cfg.Instrument, opts.LogStretch)
		if err != nil {
			return err
		}
		if err := os.WriteFile(*cropOut, req.ImagePNG, 0644); err != nil {
			return fmt.Errorf("writing crop: %w", err)
		}
		fmt.Printf("Analysis payload image written: %s (%d bytes)\n", *cropOut, len(req.ImagePNG))
	}

	if *surfaceOut != "" {
		if err := writeSurfaceFrame(*surfaceOut, result.Crop, cfg.Surface.CanvasSize); err != nil {
			return err
		}
		fmt.Printf("Surface frame written: %s\n", *surfaceOut)
	}

	return nil
}

func loadBuffer(path string) (*psfdiag.PixelBuffer, error) {
	lower := strings.ToLower(path)
	if strings.HasSuffix(lower, ".fits") || strings.HasSuffix(lower, ".fit") {
		return psfdiag.ReadFITS(path)
	}
	return loadImageFile(path)
}

func printReport(buf *psfdiag.PixelBuffer, result *psfdiag.Result) {
	stats := result.Stats

	fmt.Println()
	fmt.Println("=== PSF Measurements ===")
	fmt.Printf("  Image size:   %d x %d\n", buf.Width, buf.Height)
	fmt.Printf("  Centroid:     (%.2f, %.2f)\n", stats.Centroid.X, stats.Centroid.Y)
	fmt.Printf("  Peak:         %.1f\n", stats.PeakIntensity)
	fmt.Printf("  Background:   %.2f\n", stats.BackgroundLevel)
	fmt.Printf("  FWHM:         %.2f px\n", stats.FWHMPixels)
	fmt.Printf("  SNR:          %.1f\n", stats.SNR)
	if r := stats.Refined; r != nil {
		fmt.Printf("  FWHM (fit):   %.2f px (%.2f x %.2f, R²=%.3f)\n", r.FWHMPixels, r.FWHMX, r.FWHMY, r.RSquared)
		fmt.Printf("  Eccentricity: %.3f\n", r.Eccentricity)
	}
	for _, finding := range result.Assessment.Findings() {
		fmt.Printf("  ! %s\n", finding)
	}
	if result.Assessment.OK() {
		fmt.Println("  Ready for diagnosis.")
	} else {
		fmt.Println("  Blocked: signal quality insufficient for diagnosis.")
	}
	fmt.Println("========================")
}

func writeRadialCSV(path string, profile []psfdiag.RadialDataPoint) error {
	var sb strings.Builder
	sb.WriteString("radius,intensity,idealDiffraction\n")
	for _, p := range profile {
		fmt.Fprintf(&sb, "%d,%g,%g\n", p.Radius, p.Intensity, p.IdealDiffraction)
	}
	if err := os.WriteFile(path, []byte(sb.String()), 0644); err != nil {
		return fmt.Errorf("writing radial profile: %w", err)
	}
	return nil
}

func writeSurfaceFrame(path string, crop *psfdiag.PixelBuffer, size int) error {
	if size <= 0 {
		size = 480
	}
	view := surface.NewView(crop)
	frame := view.Frame(size, size)

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("writing surface frame: %w", err)
	}
	defer f.Close()
	if err := png.Encode(f, frame); err != nil {
		return fmt.Errorf("encoding surface frame: %w", err)
	}
	return nil
}
