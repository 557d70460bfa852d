package fits

import (
	"fmt"
	"image"
	"image/color"
	"io"
)

// decodeRaster converts a decoded raster image to single-channel floats.
// Gray images keep their native range (0-255 or 0-65535); color images
// are reduced to 16-bit luminance.
func decodeRaster(r io.Reader, decode func(io.Reader) (image.Image, error), format string) (*Image, error) {
	src, err := decode(r)
	if err != nil {
		return nil, fmt.Errorf("fits: decode %s: %w", format, err)
	}
	b := src.Bounds()
	w, h := b.Dx(), b.Dy()
	if w <= 0 || h <= 0 {
		return nil, fmt.Errorf("%w: empty %s", ErrNotImage, format)
	}

	px := make([]float32, w*h)
	switch m := src.(type) {
	case *image.Gray:
		for y := range h {
			row := m.Pix[y*m.Stride : y*m.Stride+w]
			for x, v := range row {
				px[y*w+x] = float32(v)
			}
		}
	case *image.Gray16:
		for y := range h {
			for x := range w {
				px[y*w+x] = float32(m.Gray16At(b.Min.X+x, b.Min.Y+y).Y)
			}
		}
	default:
		for y := range h {
			for x := range w {
				g := color.Gray16Model.Convert(src.At(b.Min.X+x, b.Min.Y+y)).(color.Gray16)
				px[y*w+x] = float32(g.Y)
			}
		}
	}

	return &Image{
		Pixels: px,
		Width:  uint32(w), //nolint:gosec // image bounds fit uint32
		Height: uint32(h), //nolint:gosec // image bounds fit uint32
		Format: format,
	}, nil
}
