// Command psfview shows the interactive 3D surface of a star's point
// spread function. Drag rotates the view, the mouse wheel zooms, and the
// surface spins slowly while idle.
package main

import (
	"flag"
	"fmt"
	"image"
	"os"
	"time"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/app"
	fynecanvas "fyne.io/fyne/v2/canvas"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/widget"

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
	fs := flag.NewFlagSet("psfview", flag.ContinueOnError)
	configPath := fs.String("config", "", "YAML configuration file")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() < 1 {
		return fmt.Errorf("usage: psfview [flags] <input-image>")
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

	buf, err := loadBuffer(inputPath)
	if err != nil {
		return err
	}
	result := psfdiag.Analyze(buf, opts)

	// The stretch toggle re-crops below; it must read the same source the
	// pipeline measured, which is the filtered buffer when denoise is on.
	source := buf
	if opts.Denoise {
		source = psfdiag.MedianFilter3(buf)
	}

	a := app.New()
	w := a.NewWindow("psfview")

	view := surface.NewView(result.Crop)
	sw := newSurfaceWidget(view)

	stats := result.Stats
	statsLabel := widget.NewLabel(fmt.Sprintf(
		"centroid (%.1f, %.1f)   peak %.0f   FWHM %.2f px   SNR %.1f",
		stats.Centroid.X, stats.Centroid.Y, stats.PeakIntensity, stats.FWHMPixels, stats.SNR))

	stretchCheck := widget.NewCheck("Log stretch", func(on bool) {
		crop := psfdiag.Crop(source, stats.Centroid.X, stats.Centroid.Y, opts.CropSize, on)
		view.SetBuffer(crop, false)
		sw.Refresh()
	})
	stretchCheck.SetChecked(opts.LogStretch)

	interval := time.Duration(cfg.Surface.FrameIntervalMS) * time.Millisecond
	loop := surface.NewLoop(view, surface.TimerScheduler(interval), sw.Refresh)
	loop.Start()
	defer loop.Stop()

	size := float32(cfg.Surface.CanvasSize)
	w.SetContent(container.NewBorder(nil, container.NewHBox(stretchCheck, statsLabel), nil, nil, sw))
	w.Resize(fyne.NewSize(size, size+40))
	w.ShowAndRun()
	return nil
}

// surfaceWidget draws the rendered surface frames and forwards pointer
// gestures to the shared view.
type surfaceWidget struct {
	widget.BaseWidget

	view   *surface.View
	raster *fynecanvas.Raster
}

func newSurfaceWidget(view *surface.View) *surfaceWidget {
	sw := &surfaceWidget{view: view}
	sw.raster = fynecanvas.NewRaster(func(w, h int) image.Image {
		if w < 1 || h < 1 {
			return image.NewRGBA(image.Rect(0, 0, 1, 1))
		}
		return view.Frame(w, h)
	})
	sw.ExtendBaseWidget(sw)
	return sw
}

func (sw *surfaceWidget) CreateRenderer() fyne.WidgetRenderer {
	return widget.NewSimpleRenderer(sw.raster)
}

func (sw *surfaceWidget) MinSize() fyne.Size {
	return fyne.NewSize(240, 240)
}

func (sw *surfaceWidget) Dragged(ev *fyne.DragEvent) {
	sw.view.PointerDown()
	sw.view.Drag(float64(ev.Dragged.DX), float64(ev.Dragged.DY))
	sw.Refresh()
}

func (sw *surfaceWidget) DragEnd() {
	sw.view.PointerUp()
}

func (sw *surfaceWidget) Scrolled(ev *fyne.ScrollEvent) {
	if ev.Scrolled.DY > 0 {
		sw.view.Wheel(1)
	} else if ev.Scrolled.DY < 0 {
		sw.view.Wheel(-1)
	}
	sw.Refresh()
}
