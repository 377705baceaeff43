//go:build !purego && !js

package main

import (
	"fmt"

	"gocv.io/x/gocv"

	"psfdiag/pkg/psfdiag"
)

func loadImageFile(path string) (*psfdiag.PixelBuffer, error) {
	src := gocv.IMRead(path, gocv.IMReadColor)
	if src.Empty() {
		return nil, fmt.Errorf("could not load image: %s", path)
	}
	defer src.Close()

	rgba := gocv.NewMat()
	defer rgba.Close()
	gocv.CvtColor(src, &rgba, gocv.ColorBGRToRGBA)

	img, err := rgba.ToImage()
	if err != nil {
		return nil, fmt.Errorf("converting image: %w", err)
	}
	return psfdiag.FromImage(img), nil
}
