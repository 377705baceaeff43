package psfdiag

// MedianFilter3 applies a 3x3 median filter to each of the R, G and B
// channels, replicating edge samples. It knocks out hot pixels and cosmic
// ray hits that would otherwise hijack the peak and centroid estimates.
// Alpha passes through. A new buffer is returned; off by default in the
// pipeline.
func MedianFilter3(src *PixelBuffer) *PixelBuffer {
	w, h := src.Width, src.Height
	out := NewPixelBuffer(w, h)

	for y := 0; y < h; y++ {
		y0, y2 := y-1, y+1
		if y0 < 0 {
			y0 = 0
		}
		if y2 >= h {
			y2 = h - 1
		}
		for x := 0; x < w; x++ {
			x0, x2 := x-1, x+1
			if x0 < 0 {
				x0 = 0
			}
			if x2 >= w {
				x2 = w - 1
			}
			for ch := 0; ch < 3; ch++ {
				v := median9(
					src.channel(x0, y0, ch), src.channel(x, y0, ch), src.channel(x2, y0, ch),
					src.channel(x0, y, ch), src.channel(x, y, ch), src.channel(x2, y, ch),
					src.channel(x0, y2, ch), src.channel(x, y2, ch), src.channel(x2, y2, ch),
				)
				out.Pix[(y*w+x)*4+ch] = v
			}
			out.Pix[(y*w+x)*4+3] = src.Pix[(y*w+x)*4+3]
		}
	}
	return out
}

func (b *PixelBuffer) channel(x, y, ch int) byte {
	return b.Pix[(y*b.Width+x)*4+ch]
}

// median9 selects the median of nine samples with the 19-exchange
// median-of-9 network (Paeth, Graphics Gems), avoiding a sort allocation
// per pixel.
func median9(a, b, c, d, e, f, g, h, i byte) byte {
	if b > c {
		b, c = c, b
	}
	if e > f {
		e, f = f, e
	}
	if h > i {
		h, i = i, h
	}
	if a > b {
		a, b = b, a
	}
	if d > e {
		d, e = e, d
	}
	if g > h {
		g, h = h, g
	}
	if b > c {
		b, c = c, b
	}
	if e > f {
		e, f = f, e
	}
	if h > i {
		h, i = i, h
	}
	if a > d {
		a, d = d, a
	}
	if f > i {
		f, i = i, f
	}
	if e > h {
		e, h = h, e
	}
	if d > g {
		d, g = g, d
	}
	if b > e {
		b, e = e, b
	}
	if c > f {
		c, f = f, c
	}
	if e > h {
		e, h = h, e
	}
	if e > c {
		e, c = c, e
	}
	if g > e {
		g, e = e, g
	}
	if e > c {
		e, c = c, e
	}
	return e
}
