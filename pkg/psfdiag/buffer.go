package psfdiag

import (
	"image"
	"image/color"
)

// PixelBuffer is a rectangular grid of interleaved 8-bit RGBA samples in
// row-major order, length Width*Height*4. A buffer is treated as immutable
// once handed to an analysis stage; stages that derive a new image allocate
// a fresh buffer instead of writing through the one they were given.
type PixelBuffer struct {
	Width  int
	Height int
	Pix    []byte
}

// NewPixelBuffer allocates a zeroed buffer of the given dimensions.
func NewPixelBuffer(width, height int) *PixelBuffer {
	return &PixelBuffer{
		Width:  width,
		Height: height,
		Pix:    make([]byte, width*height*4),
	}
}

// FromImage copies an arbitrary decoded image into a PixelBuffer.
func FromImage(img image.Image) *PixelBuffer {
	bounds := img.Bounds()
	w, h := bounds.Dx(), bounds.Dy()
	buf := NewPixelBuffer(w, h)
	i := 0
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			r, g, b, a := img.At(bounds.Min.X+x, bounds.Min.Y+y).RGBA()
			buf.Pix[i] = byte(r >> 8)
			buf.Pix[i+1] = byte(g >> 8)
			buf.Pix[i+2] = byte(b >> 8)
			buf.Pix[i+3] = byte(a >> 8)
			i += 4
		}
	}
	return buf
}

// Clone returns an independent copy. Crops and async hand-offs always copy,
// never alias.
func (b *PixelBuffer) Clone() *PixelBuffer {
	out := &PixelBuffer{Width: b.Width, Height: b.Height, Pix: make([]byte, len(b.Pix))}
	copy(out.Pix, b.Pix)
	return out
}

// Luminosity returns the mean of the R, G and B channels at (x, y).
// RGB is always collapsed to mean luminosity; there is no per-channel
// photometry anywhere in the pipeline.
func (b *PixelBuffer) Luminosity(x, y int) float64 {
	i := (y*b.Width + x) * 4
	return (float64(b.Pix[i]) + float64(b.Pix[i+1]) + float64(b.Pix[i+2])) / 3.0
}

// RGBA returns the channel values at (x, y).
func (b *PixelBuffer) RGBA(x, y int) (r, g, bl, a byte) {
	i := (y*b.Width + x) * 4
	return b.Pix[i], b.Pix[i+1], b.Pix[i+2], b.Pix[i+3]
}

// SetRGBA writes the channel values at (x, y). Only buffer producers
// (decoders, crop, tone-map) call this.
func (b *PixelBuffer) SetRGBA(x, y int, r, g, bl, a byte) {
	i := (y*b.Width + x) * 4
	b.Pix[i] = r
	b.Pix[i+1] = g
	b.Pix[i+2] = bl
	b.Pix[i+3] = a
}

// SetGray writes an opaque gray sample at (x, y).
func (b *PixelBuffer) SetGray(x, y int, v byte) {
	b.SetRGBA(x, y, v, v, v, 255)
}

// ToImage copies the buffer into a stdlib RGBA image.
func (b *PixelBuffer) ToImage() *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, b.Width, b.Height))
	for y := 0; y < b.Height; y++ {
		row := y * b.Width * 4
		copy(img.Pix[y*img.Stride:], b.Pix[row:row+b.Width*4])
	}
	return img
}

// ColorAt returns the sample at (x, y) as a color.RGBA.
func (b *PixelBuffer) ColorAt(x, y int) color.RGBA {
	r, g, bl, a := b.RGBA(x, y)
	return color.RGBA{R: r, G: g, B: bl, A: a}
}
