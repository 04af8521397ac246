package raster

import (
	"bytes"
	"fmt"
	"image"
	_ "image/jpeg"
	"image/png"

	"golang.org/x/xerrors"
)

// Image is a read-only handle to decoded pixel data. The comparison engine
// never mutates it; it derives independent working copies instead, so a
// single Image may be shared across concurrent comparisons.
type Image struct {
	pixels   image.Image
	hasAlpha bool
}

// Decode parses PNG or JPEG bytes into an Image.
func Decode(data []byte) (*Image, error) {
	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, xerrors.Errorf("failed to decode image: %w", err)
	}
	return FromImage(img), nil
}

// FromImage wraps an already decoded image.
func FromImage(img image.Image) *Image {
	return &Image{
		pixels:   img,
		hasAlpha: carriesAlpha(img),
	}
}

func (i *Image) Width() int {
	return i.pixels.Bounds().Dx()
}

func (i *Image) Height() int {
	return i.pixels.Bounds().Dy()
}

// HasAlpha reports whether the pixel buffer carries an alpha channel.
// It is about channel presence, not actual transparency: a fully opaque
// PNG stored as RGBA still has alpha.
func (i *Image) HasAlpha() bool {
	return i.hasAlpha
}

// AspectRatio returns the reduced integer ratio of the original
// dimensions, e.g. "16:9".
func (i *Image) AspectRatio() string {
	return Ratio(i.Width(), i.Height())
}

// Ratio reduces width:height to its simplest integer form. Degenerate
// dimensions yield "0:0".
func Ratio(width int, height int) string {
	if width <= 0 || height <= 0 {
		return "0:0"
	}
	d := gcd(width, height)
	return fmt.Sprintf("%d:%d", width/d, height/d)
}

// Pixels exposes the underlying buffer for reading.
func (i *Image) Pixels() image.Image {
	return i.pixels
}

// EncodePNG serializes the pixel buffer as PNG.
func (i *Image) EncodePNG() ([]byte, error) {
	var buffer bytes.Buffer
	if err := png.Encode(&buffer, i.pixels); err != nil {
		return nil, xerrors.Errorf("failed to encode image: %w", err)
	}
	return buffer.Bytes(), nil
}

func carriesAlpha(img image.Image) bool {
	switch img.(type) {
	case *image.RGBA, *image.NRGBA, *image.RGBA64, *image.NRGBA64, *image.Alpha, *image.Alpha16:
		return true
	case *image.YCbCr, *image.Gray, *image.Gray16, *image.CMYK:
		return false
	}
	// Unknown representation, probe a pixel.
	bounds := img.Bounds()
	if bounds.Empty() {
		return false
	}
	_, _, _, a := img.At(bounds.Min.X, bounds.Min.Y).RGBA()
	return a < 0xffff
}

func gcd(a int, b int) int {
	for b != 0 {
		a, b = b, a%b
	}
	return a
}
