//go:build js && wasm

package main

import (
	"bytes"
	"fmt"
	"image"
	"sync"
	"syscall/js"

	"psfdiag/pkg/psfdiag"
	"psfdiag/pkg/surface"
)

var (
	mu       sync.Mutex
	lastCrop *psfdiag.PixelBuffer
	view     *surface.View
	loop     *surface.Loop
	ctx2d    js.Value
)

func main() {
	js.Global().Set("analyzeImage", js.FuncOf(analyzeImage))
	js.Global().Set("analyzeFITS", js.FuncOf(analyzeFITS))
	js.Global().Set("startSurface", js.FuncOf(startSurface))
	js.Global().Set("stopSurface", js.FuncOf(stopSurface))
	js.Global().Set("surfacePointerDown", js.FuncOf(surfacePointerDown))
	js.Global().Set("surfacePointerUp", js.FuncOf(surfacePointerUp))
	js.Global().Set("surfaceDrag", js.FuncOf(surfaceDrag))
	js.Global().Set("surfaceWheel", js.FuncOf(surfaceWheel))
	select {} // block forever
}

// analyzeImage(width, height, rgbaBytes, options) runs the diagnostic
// pipeline over a raw RGBA buffer, usually lifted straight out of a
// canvas ImageData object.
func analyzeImage(this js.Value, args []js.Value) interface{} {
	if len(args) < 3 {
		return errorResult("usage: analyzeImage(width, height, rgbaBytes, options)")
	}

	width := args[0].Int()
	height := args[1].Int()
	jsBytes := args[2]
	length := jsBytes.Get("length").Int()
	if width <= 0 || height <= 0 || length != width*height*4 {
		return errorResult(fmt.Sprintf("pixel buffer size %d does not match %dx%d RGBA", length, width, height))
	}

	buf := psfdiag.NewPixelBuffer(width, height)
	js.CopyBytesToGo(buf.Pix, jsBytes)

	var optArg js.Value
	if len(args) >= 4 {
		optArg = args[3]
	}
	return runPipeline(buf, optArg)
}

// analyzeFITS(fileBytes, options) accepts a raw FITS file instead of
// canvas pixels.
func analyzeFITS(this js.Value, args []js.Value) interface{} {
	if len(args) < 1 {
		return errorResult("usage: analyzeFITS(fileBytes, options)")
	}

	jsBytes := args[0]
	fileBytes := make([]byte, jsBytes.Get("length").Int())
	js.CopyBytesToGo(fileBytes, jsBytes)

	buf, err := psfdiag.DecodeFITS(bytes.NewReader(fileBytes))
	if err != nil {
		return errorResult("FITS parse error: " + err.Error())
	}

	var optArg js.Value
	if len(args) >= 2 {
		optArg = args[1]
	}
	return runPipeline(buf, optArg)
}

func runPipeline(buf *psfdiag.PixelBuffer, optArg js.Value) interface{} {
	opts := parseOptions(optArg)

	// A tone-map toggle re-runs the pipeline over the same pixels; the
	// camera pose must survive that. Only a wholly new image resets it.
	sameImage := false
	if optArg.Type() == js.TypeObject {
		if v := optArg.Get("sameImage"); v.Type() == js.TypeBoolean {
			sameImage = v.Bool()
		}
	}

	result := psfdiag.Analyze(buf, opts)

	mu.Lock()
	lastCrop = result.Crop
	if view != nil {
		view.SetBuffer(result.Crop, !sameImage)
	}
	mu.Unlock()

	stats := result.Stats
	jsResult := map[string]interface{}{
		"centroidX":  stats.Centroid.X,
		"centroidY":  stats.Centroid.Y,
		"peak":       stats.PeakIntensity,
		"background": stats.BackgroundLevel,
		"fwhm":       stats.FWHMPixels,
		"snr":        stats.SNR,
		"saturated":  result.Assessment.Saturated,
		"ok":         result.Assessment.OK(),
	}
	if r := stats.Refined; r != nil {
		jsResult["fwhmFit"] = r.FWHMPixels
		jsResult["eccentricity"] = r.Eccentricity
		jsResult["fitRSquared"] = r.RSquared
	}

	findings := result.Assessment.Findings()
	jsFindings := make([]interface{}, len(findings))
	for i, f := range findings {
		jsFindings[i] = f
	}
	jsResult["findings"] = jsFindings

	jsProfile := make([]interface{}, len(result.Profile))
	for i, p := range result.Profile {
		jsProfile[i] = map[string]interface{}{
			"radius":           p.Radius,
			"intensity":        p.Intensity,
			"idealDiffraction": p.IdealDiffraction,
		}
	}
	jsResult["radialProfile"] = jsProfile

	pngBytes, err := psfdiag.EncodePNG(result.Crop)
	if err == nil {
		uint8Array := js.Global().Get("Uint8Array").New(len(pngBytes))
		js.CopyBytesToJS(uint8Array, pngBytes)
		jsResult["cropPNG"] = uint8Array
	}

	return js.ValueOf(jsResult)
}

func parseOptions(arg js.Value) psfdiag.Options {
	opts := psfdiag.DefaultOptions()
	if arg.Type() != js.TypeObject {
		return opts
	}
	if v := arg.Get("logStretch"); v.Type() == js.TypeBoolean {
		opts.LogStretch = v.Bool()
	}
	if v := arg.Get("denoise"); v.Type() == js.TypeBoolean {
		opts.Denoise = v.Bool()
	}
	if v := arg.Get("refinePSF"); v.Type() == js.TypeBoolean {
		opts.RefinePSF = v.Bool()
	}
	if v := arg.Get("minPeak"); v.Type() == js.TypeNumber {
		opts.MinPeak = v.Float()
	}
	if v := arg.Get("minSNR"); v.Type() == js.TypeNumber {
		opts.MinSNR = v.Float()
	}
	if v := arg.Get("cropSize"); v.Type() == js.TypeNumber {
		opts.CropSize = v.Int()
	}
	return opts
}

// startSurface(canvasId) begins the spin/render loop onto the named
// canvas. A running loop is stopped first, so re-binding to another
// canvas is safe.
func startSurface(this js.Value, args []js.Value) interface{} {
	if len(args) < 1 {
		return errorResult("usage: startSurface(canvasId)")
	}

	canvas := js.Global().Get("document").Call("getElementById", args[0].String())
	if canvas.IsNull() {
		return errorResult("canvas not found: " + args[0].String())
	}

	mu.Lock()
	defer mu.Unlock()
	if lastCrop == nil {
		return errorResult("no image analyzed yet")
	}
	if loop != nil {
		loop.Stop()
	}

	ctx2d = canvas.Call("getContext", "2d")
	width := canvas.Get("width").Int()
	height := canvas.Get("height").Int()

	if view == nil {
		view = surface.NewView(lastCrop)
	}
	v := view
	loop = surface.NewLoop(v, rafScheduler, func() {
		drawFrame(v.Frame(width, height))
	})
	loop.Start()
	return js.Null()
}

func stopSurface(this js.Value, args []js.Value) interface{} {
	mu.Lock()
	defer mu.Unlock()
	if loop != nil {
		loop.Stop()
		loop = nil
	}
	return js.Null()
}

func surfacePointerDown(this js.Value, args []js.Value) interface{} {
	mu.Lock()
	defer mu.Unlock()
	if view != nil {
		view.PointerDown()
	}
	return js.Null()
}

func surfacePointerUp(this js.Value, args []js.Value) interface{} {
	mu.Lock()
	defer mu.Unlock()
	if view != nil {
		view.PointerUp()
	}
	return js.Null()
}

func surfaceDrag(this js.Value, args []js.Value) interface{} {
	if len(args) < 2 {
		return errorResult("usage: surfaceDrag(dx, dy)")
	}
	mu.Lock()
	defer mu.Unlock()
	if view != nil {
		view.Drag(args[0].Float(), args[1].Float())
	}
	return js.Null()
}

func surfaceWheel(this js.Value, args []js.Value) interface{} {
	if len(args) < 1 {
		return errorResult("usage: surfaceWheel(steps)")
	}
	mu.Lock()
	defer mu.Unlock()
	if view != nil {
		view.Wheel(args[0].Float())
	}
	return js.Null()
}

// rafScheduler runs fn on the browser's next animation frame. The
// js.Func releases itself after firing so each frame costs one handle.
func rafScheduler(fn func()) {
	var cb js.Func
	cb = js.FuncOf(func(this js.Value, args []js.Value) interface{} {
		cb.Release()
		fn()
		return nil
	})
	js.Global().Call("requestAnimationFrame", cb)
}

func drawFrame(frame *image.RGBA) {
	w := frame.Rect.Dx()
	h := frame.Rect.Dy()

	clamped := js.Global().Get("Uint8ClampedArray").New(len(frame.Pix))
	jsBytes := js.Global().Get("Uint8Array").New(clamped.Get("buffer"))
	js.CopyBytesToJS(jsBytes, frame.Pix)

	imageData := js.Global().Get("ImageData").New(clamped, w, h)
	ctx2d.Call("putImageData", imageData, 0, 0)
}

func errorResult(msg string) interface{} {
	return js.ValueOf(map[string]interface{}{
		"error": msg,
	})
}
