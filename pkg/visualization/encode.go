package visualization

import (
	"errors"
	"fmt"
	"image"
	"image/jpeg"
	"image/png"
	"io"
	"strings"

	"golang.org/x/image/bmp"
	"golang.org/x/image/tiff"
)

// ErrUnknownFormat is returned for an image format without an encoder
var ErrUnknownFormat = errors.New("unknown image format")

// DefaultFormat is the raster format written when none is configured
const DefaultFormat = "jpg"

// jpegQuality matches the quality used for all JPEG output
const jpegQuality = 90

type encoder func(w io.Writer, img image.Image) error

var encoders = map[string]encoder{
	"jpg": func(w io.Writer, img image.Image) error {
		return jpeg.Encode(w, img, &jpeg.Options{Quality: jpegQuality})
	},
	"png": png.Encode,
	"bmp": bmp.Encode,
	"tiff": func(w io.Writer, img image.Image) error {
		return tiff.Encode(w, img, &tiff.Options{Compression: tiff.Deflate})
	},
}

// NormalizeFormat lower-cases a format name and resolves aliases
func NormalizeFormat(format string) (string, error) {
	f := strings.ToLower(strings.TrimPrefix(format, "."))
	switch f {
	case "":
		f = DefaultFormat
	case "jpeg":
		f = "jpg"
	case "tif":
		f = "tiff"
	}
	if _, ok := encoders[f]; !ok {
		return "", fmt.Errorf("%w: %q", ErrUnknownFormat, format)
	}
	return f, nil
}

// Encode writes img to w in the named format
func Encode(w io.Writer, img image.Image, format string) error {
	f, err := NormalizeFormat(format)
	if err != nil {
		return err
	}
	return encoders[f](w, img)
}
