package fits

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"
)

const (
	blockSize     = 2880
	cardSize      = 80
	cardsPerBlock = blockSize / cardSize
)

// header is the parsed primary header.
type header struct {
	values map[string]string
	bitpix int
	naxis  []int
	bzero  float64
	bscale float64
	blank  *int64
}

func decodeFITS(r io.Reader) (*Image, error) {
	h, err := readHeader(r)
	if err != nil {
		return nil, err
	}
	w, ht, err := h.dims()
	if err != nil {
		return nil, err
	}
	pixels, err := readData(r, h, w*ht)
	if err != nil {
		return nil, err
	}
	return &Image{
		Pixels: pixels,
		Width:  uint32(w),  //nolint:gosec // bounded by dims
		Height: uint32(ht), //nolint:gosec // bounded by dims
		Format: "fits",
		Header: h.values,
	}, nil
}

func readHeader(r io.Reader) (*header, error) {
	h := &header{values: make(map[string]string), bscale: 1}
	block := make([]byte, blockSize)
	first := true
	for {
		if _, err := io.ReadFull(r, block); err != nil {
			return nil, fmt.Errorf("%w: header: %w", ErrTruncated, err)
		}
		for i := range cardsPerBlock {
			card := string(block[i*cardSize : (i+1)*cardSize])
			key := strings.TrimSpace(card[:8])
			if first {
				first = false
				if key != "SIMPLE" || cardValue(card) != "T" {
					return nil, fmt.Errorf("%w: missing SIMPLE = T", ErrUnsupportedFormat)
				}
			}
			if key == "END" {
				return h, h.parse()
			}
			if key == "" || card[8:10] != "= " {
				continue // COMMENT, HISTORY, blank
			}
			h.values[key] = cardValue(card)
		}
	}
}

// cardValue extracts the value field of a card, dropping the inline
// comment and string quotes.
func cardValue(card string) string {
	v := card[10:]
	if s := strings.TrimLeft(v, " "); strings.HasPrefix(s, "'") {
		// Quoted string: '' is an escaped quote.
		var b strings.Builder
		for i := 1; i < len(s); i++ {
			if s[i] == '\'' {
				if i+1 < len(s) && s[i+1] == '\'' {
					b.WriteByte('\'')
					i++
					continue
				}
				break
			}
			b.WriteByte(s[i])
		}
		return strings.TrimRight(b.String(), " ")
	}
	if i := strings.IndexByte(v, '/'); i >= 0 {
		v = v[:i]
	}
	return strings.TrimSpace(v)
}

func (h *header) parse() error {
	var err error
	if h.bitpix, err = h.int("BITPIX"); err != nil {
		return err
	}
	switch h.bitpix {
	case 8, 16, 32, 64, -32, -64:
	default:
		return fmt.Errorf("%w: %d", ErrUnsupportedBitpix, h.bitpix)
	}

	n, err := h.int("NAXIS")
	if err != nil {
		return err
	}
	if n < 0 || n > maxAxes {
		return fmt.Errorf("%w: NAXIS = %d", ErrNotImage, n)
	}
	h.naxis = make([]int, n)
	for i := range n {
		if h.naxis[i], err = h.int(fmt.Sprintf("NAXIS%d", i+1)); err != nil {
			return err
		}
	}

	if v, ok := h.values["BZERO"]; ok {
		if h.bzero, err = parseFloat(v); err != nil {
			return fmt.Errorf("fits: BZERO: %w", err)
		}
	}
	if v, ok := h.values["BSCALE"]; ok {
		if h.bscale, err = parseFloat(v); err != nil {
			return fmt.Errorf("fits: BSCALE: %w", err)
		}
	}
	if v, ok := h.values["BLANK"]; ok && h.bitpix > 0 {
		b, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			return fmt.Errorf("fits: BLANK: %w", err)
		}
		h.blank = &b
	}
	return nil
}

func (h *header) int(key string) (int, error) {
	v, ok := h.values[key]
	if !ok {
		return 0, fmt.Errorf("%w: missing %s", ErrNotImage, key)
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("fits: %s: %w", key, err)
	}
	return n, nil
}

// parseFloat accepts the Fortran D exponent FITS allows.
func parseFloat(v string) (float64, error) {
	return strconv.ParseFloat(strings.ReplaceAll(strings.ToUpper(v), "D", "E"), 64)
}

const (
	// maxAxes is the largest NAXIS the format allows.
	maxAxes = 999
	// maxSide bounds each image dimension.
	maxSide = 1 << 20
	// maxPixels bounds width*height.
	maxPixels = 1 << 30
	// readChunk is the most data read, and allocated ahead of it, at once.
	readChunk = 1 << 20
)

// dims returns width (NAXIS1) and height (NAXIS2).
func (h *header) dims() (int, int, error) {
	switch {
	case len(h.naxis) == 2:
	case len(h.naxis) == 3 && h.naxis[2] == 1:
	default:
		return 0, 0, fmt.Errorf("%w: NAXIS = %d %v", ErrNotImage, len(h.naxis), h.naxis)
	}
	w, ht := h.naxis[0], h.naxis[1]
	if w <= 0 || ht <= 0 || w > maxSide || ht > maxSide || int64(w)*int64(ht) > maxPixels {
		return 0, 0, fmt.Errorf("%w: %dx%d", ErrNotImage, w, ht)
	}
	return w, ht, nil
}

// readData decodes n samples. It reads in chunks and grows the result as
// data arrives, so a header declaring more data than the file holds fails
// with ErrTruncated without allocating the declared size.
func readData(r io.Reader, h *header, n int) ([]float32, error) {
	size := abs(h.bitpix) / 8
	sample := h.sampler()
	buf := make([]byte, min(n*size, readChunk))
	out := make([]float32, 0, min(n, readChunk/size))
	for len(out) < n {
		chunk := buf[:min(n-len(out), len(buf)/size)*size]
		if _, err := io.ReadFull(r, chunk); err != nil {
			if errors.Is(err, io.ErrUnexpectedEOF) || errors.Is(err, io.EOF) {
				return nil, fmt.Errorf("%w: data unit has %d of %d samples", ErrTruncated, len(out), n)
			}
			return nil, err
		}
		for off := 0; off < len(chunk); off += size {
			out = append(out, sample(chunk[off:]))
		}
	}
	return out, nil
}

// sampler returns the decoder for one big-endian sample of the header's
// BITPIX, applying BZERO/BSCALE and mapping BLANK to NaN.
func (h *header) sampler() func(b []byte) float32 {
	be := binary.BigEndian
	scale := func(v float64) float32 { return float32(h.bzero + h.bscale*v) }
	integer := func(v int64) float32 {
		if h.blank != nil && *h.blank == v {
			return float32(math.NaN())
		}
		return scale(float64(v))
	}
	switch h.bitpix {
	case 8:
		return func(b []byte) float32 { return integer(int64(b[0])) }
	case 16:
		return func(b []byte) float32 {
			return integer(int64(int16(be.Uint16(b)))) //nolint:gosec // two's complement reinterpretation
		}
	case 32:
		return func(b []byte) float32 {
			return integer(int64(int32(be.Uint32(b)))) //nolint:gosec // two's complement reinterpretation
		}
	case 64:
		return func(b []byte) float32 {
			return integer(int64(be.Uint64(b))) //nolint:gosec // two's complement reinterpretation
		}
	case -32:
		return func(b []byte) float32 { return scale(float64(math.Float32frombits(be.Uint32(b)))) }
	default:
		return func(b []byte) float32 { return scale(math.Float64frombits(be.Uint64(b))) }
	}
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}
