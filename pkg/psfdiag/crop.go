package psfdiag

import (
	"bytes"
	"fmt"
	"image/png"
	"math"
)

// DefaultCropSize is the side length of the analysis window extracted
// around the centroid.
const DefaultCropSize = 64

// logStretchScale maps the full 8-bit input range back onto [0, 255] after
// the log curve: 255/log(256).
var logStretchScale = 255.0 / math.Log(256)

// Crop extracts a size×size window whose top-left corner is the centroid
// minus size/2. Samples outside the source raster come out opaque black,
// matching what a host canvas hands back for out-of-range reads. The result
// is always a fresh buffer; the source is never aliased or mutated. When
// logStretch is set the crop is tone-mapped before being returned.
func Crop(src *PixelBuffer, cx, cy float64, size int, logStretch bool) *PixelBuffer {
	x0 := int(math.Round(cx)) - size/2
	y0 := int(math.Round(cy)) - size/2

	out := NewPixelBuffer(size, size)
	for y := 0; y < size; y++ {
		sy := y0 + y
		for x := 0; x < size; x++ {
			sx := x0 + x
			if sx < 0 || sx >= src.Width || sy < 0 || sy >= src.Height {
				out.SetRGBA(x, y, 0, 0, 0, 255)
				continue
			}
			r, g, b, a := src.RGBA(sx, sy)
			out.SetRGBA(x, y, r, g, b, a)
		}
	}

	if logStretch {
		return LogStretch(out)
	}
	return out
}

// LogStretch remaps each of R, G and B through out = (255/log 256)·log(1+in)
// to make faint wings visible. The curve is monotonic and one-way: it does
// not reconstruct linear intensities and must never be treated as
// calibration. Alpha is untouched. A new buffer is returned.
func LogStretch(src *PixelBuffer) *PixelBuffer {
	out := src.Clone()
	for i := 0; i < len(out.Pix); i += 4 {
		out.Pix[i] = stretchByte(out.Pix[i])
		out.Pix[i+1] = stretchByte(out.Pix[i+1])
		out.Pix[i+2] = stretchByte(out.Pix[i+2])
	}
	return out
}

// StretchValue is the tone curve on a single channel value in [0, 255].
func StretchValue(v float64) float64 {
	return logStretchScale * math.Log(1+v)
}

func stretchByte(v byte) byte {
	s := StretchValue(float64(v))
	if s >= 255 {
		return 255
	}
	return byte(s + 0.5)
}

// EncodePNG encodes the buffer as PNG bytes, the display representation
// handed to presentation collaborators and to the diagnosis service.
func EncodePNG(buf *PixelBuffer) ([]byte, error) {
	var b bytes.Buffer
	if err := png.Encode(&b, buf.ToImage()); err != nil {
		return nil, fmt.Errorf("encoding crop: %w", err)
	}
	return b.Bytes(), nil
}
