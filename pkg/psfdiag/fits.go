package psfdiag

import (
	"encoding/binary"
	"fmt"
	"io"
	"math"
	"os"
	"strconv"
	"strings"
)

const fitsBlockSize = 2880
const fitsCardSize = 80

// ReadFITS loads the primary HDU of a FITS file into a PixelBuffer.
// Integer and float images are supported; physical values (BSCALE/BZERO
// applied) are min-max normalized to the 8-bit range and replicated across
// RGB, since the pipeline collapses to mean luminosity anyway.
func ReadFITS(path string) (*PixelBuffer, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening FITS: %w", err)
	}
	defer f.Close()
	return DecodeFITS(f)
}

// DecodeFITS reads a FITS primary HDU from r.
func DecodeFITS(r io.Reader) (*PixelBuffer, error) {
	hdr, err := readFITSHeader(r)
	if err != nil {
		return nil, err
	}

	bitpix, ok := hdr.intVal("BITPIX")
	if !ok {
		return nil, fmt.Errorf("FITS header missing BITPIX")
	}
	naxis, _ := hdr.intVal("NAXIS")
	if naxis < 2 {
		return nil, fmt.Errorf("unsupported FITS NAXIS %d", naxis)
	}
	width, ok := hdr.intVal("NAXIS1")
	if !ok || width <= 0 {
		return nil, fmt.Errorf("FITS header missing NAXIS1")
	}
	height, ok := hdr.intVal("NAXIS2")
	if !ok || height <= 0 {
		return nil, fmt.Errorf("FITS header missing NAXIS2")
	}

	bscale := 1.0
	if v, ok := hdr.floatVal("BSCALE"); ok {
		bscale = v
	}
	bzero := 0.0
	if v, ok := hdr.floatVal("BZERO"); ok {
		bzero = v
	}

	n := width * height
	bytesPerPixel := intAbs(bitpix) / 8
	raw := make([]byte, n*bytesPerPixel)
	if _, err := io.ReadFull(r, raw); err != nil {
		return nil, fmt.Errorf("reading FITS data: %w", err)
	}

	values := make([]float64, n)
	switch bitpix {
	case 8:
		for i := 0; i < n; i++ {
			values[i] = float64(raw[i])
		}
	case 16:
		for i := 0; i < n; i++ {
			values[i] = float64(int16(binary.BigEndian.Uint16(raw[i*2:])))
		}
	case 32:
		for i := 0; i < n; i++ {
			values[i] = float64(int32(binary.BigEndian.Uint32(raw[i*4:])))
		}
	case -32:
		for i := 0; i < n; i++ {
			values[i] = float64(math.Float32frombits(binary.BigEndian.Uint32(raw[i*4:])))
		}
	case -64:
		for i := 0; i < n; i++ {
			values[i] = math.Float64frombits(binary.BigEndian.Uint64(raw[i*8:]))
		}
	default:
		return nil, fmt.Errorf("unsupported FITS BITPIX %d", bitpix)
	}

	lo, hi := math.Inf(1), math.Inf(-1)
	for i := range values {
		values[i] = values[i]*bscale + bzero
		if values[i] < lo {
			lo = values[i]
		}
		if values[i] > hi {
			hi = values[i]
		}
	}

	buf := NewPixelBuffer(width, height)
	span := hi - lo
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			v := byte(0)
			if span > 0 {
				v = byte((values[y*width+x] - lo) / span * 255.0)
			}
			buf.SetGray(x, y, v)
		}
	}
	return buf, nil
}

type fitsHeader map[string]string

func (h fitsHeader) intVal(key string) (int, bool) {
	v, ok := h[key]
	if !ok {
		return 0, false
	}
	i, err := strconv.Atoi(strings.TrimSpace(v))
	if err != nil {
		return 0, false
	}
	return i, true
}

func (h fitsHeader) floatVal(key string) (float64, bool) {
	v, ok := h[key]
	if !ok {
		return 0, false
	}
	f, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
	if err != nil {
		return 0, false
	}
	return f, true
}

// readFITSHeader consumes 2880-byte header blocks up to and including the
// one holding the END card.
func readFITSHeader(r io.Reader) (fitsHeader, error) {
	hdr := make(fitsHeader)
	block := make([]byte, fitsBlockSize)
	sawEnd := false
	sawSimple := false

	for !sawEnd {
		if _, err := io.ReadFull(r, block); err != nil {
			return nil, fmt.Errorf("reading FITS header: %w", err)
		}
		for off := 0; off < fitsBlockSize; off += fitsCardSize {
			card := string(block[off : off+fitsCardSize])
			key := strings.TrimSpace(card[:8])
			if key == "END" {
				sawEnd = true
				break
			}
			if key == "" || key == "COMMENT" || key == "HISTORY" {
				continue
			}
			if len(card) < 10 || card[8] != '=' {
				continue
			}
			value := strings.TrimSpace(card[10:])
			if i := strings.IndexByte(value, '/'); i >= 0 && !strings.HasPrefix(value, "'") {
				value = strings.TrimSpace(value[:i])
			}
			value = strings.Trim(value, "' ")
			hdr[key] = value
			if key == "SIMPLE" {
				sawSimple = true
			}
		}
	}

	if !sawSimple {
		return nil, fmt.Errorf("not a FITS file: SIMPLE card missing")
	}
	return hdr, nil
}

func intAbs(x int) int {
	if x < 0 {
		return -x
	}
	return x
}
