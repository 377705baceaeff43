package main

import (
	"fmt"
	"image"
	_ "image/jpeg"
	_ "image/png"
	"os"
	"strings"

	_ "golang.org/x/image/tiff"

	"psfdiag/pkg/psfdiag"
)

func loadBuffer(path string) (*psfdiag.PixelBuffer, error) {
	lower := strings.ToLower(path)
	if strings.HasSuffix(lower, ".fits") || strings.HasSuffix(lower, ".fit") {
		return psfdiag.ReadFITS(path)
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening image: %w", err)
	}
	defer f.Close()

	img, _, err := image.Decode(f)
	if err != nil {
		return nil, fmt.Errorf("decoding image: %w", err)
	}
	return psfdiag.FromImage(img), nil
}
