package fits

import (
	"bufio"
	"errors"
	"fmt"
	"image/png"
	"io"
	"os"

	"github.com/h2non/filetype"
	"github.com/h2non/filetype/types"
	"golang.org/x/image/tiff"
)

// Errors returned by Load and Decode.
var (
	// ErrNotImage is returned when the primary HDU holds no 2-D image.
	ErrNotImage = errors.New("fits: primary HDU is not a 2-D image")

	// ErrUnsupportedBitpix is returned for BITPIX values outside
	// 8, 16, 32, 64, -32 and -64.
	ErrUnsupportedBitpix = errors.New("fits: unsupported BITPIX")

	// ErrTruncated is returned when the header or data unit ends early.
	ErrTruncated = errors.New("fits: truncated file")

	// ErrUnsupportedFormat is returned for inputs that are neither FITS,
	// TIFF nor PNG.
	ErrUnsupportedFormat = errors.New("fits: unsupported image format")
)

// Image is a decoded single-channel image.
type Image struct {
	// Pixels holds Width*Height values, row-major.
	Pixels []float32

	Width  uint32
	Height uint32

	// Format is "fits", "tiff" or "png".
	Format string

	// Header holds FITS keyword values as written in the file, with string
	// quotes removed. Nil for other formats.
	Header map[string]string
}

// fitsType is registered with filetype so FITS files are recognised by
// their first header card.
var fitsType = filetype.NewType("fits", "image/fits")

func init() {
	filetype.AddMatcher(fitsType, func(buf []byte) bool {
		return len(buf) >= 30 && string(buf[:9]) == "SIMPLE  ="
	})
}

// sniffLen is how many leading bytes filetype inspects.
const sniffLen = 262

// Load reads the image at path. The format is detected from the content,
// not the extension.
func Load(path string) (*Image, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	img, err := Decode(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return img, nil
}

// Decode reads an image from r, detecting its format.
func Decode(r io.Reader) (*Image, error) {
	br := bufio.NewReaderSize(r, 64*1024)
	head, err := br.Peek(sniffLen)
	if err != nil && !errors.Is(err, io.EOF) && !errors.Is(err, bufio.ErrBufferFull) {
		return nil, err
	}

	kind, _ := filetype.Match(head)
	switch kind {
	case fitsType:
		return decodeFITS(br)
	case types.Unknown:
		return nil, ErrUnsupportedFormat
	}
	switch kind.Extension {
	case "tif":
		return decodeRaster(br, tiff.Decode, "tiff")
	case "png":
		return decodeRaster(br, png.Decode, "png")
	}
	return nil, fmt.Errorf("%w: %s", ErrUnsupportedFormat, kind.MIME.Value)
}
