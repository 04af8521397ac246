package comparison

import (
	"image"
	"image/color"
	"image/draw"
	"math"

	xdraw "golang.org/x/image/draw"
	"golang.org/x/xerrors"

	"visual-comparator/internal/raster"
)

// normalize produces two equally sized, alpha-free working copies of the
// inputs plus the scale factor that was applied.
//
// The scale factor min(aw/ew, ah/eh) is applied uniformly to the expected
// image; the actual image is then resampled to exactly the expected
// working grid. That second resample is not aspect preserving when the
// originals disagree on aspect ratio, so every comparison always yields
// two identically sized buffers. Callers that care about aspect fidelity
// check Result.Proportional.
func normalize(actual *raster.Image, expected *raster.Image) (act *image.NRGBA, exp *image.NRGBA, scale float64, err error) {
	if actual.Width() <= 0 || actual.Height() <= 0 {
		return nil, nil, 0, xerrors.Errorf("actual image has degenerate dimensions %dx%d", actual.Width(), actual.Height())
	}
	if expected.Width() <= 0 || expected.Height() <= 0 {
		return nil, nil, 0, xerrors.Errorf("expected image has degenerate dimensions %dx%d", expected.Width(), expected.Height())
	}

	scale = math.Min(
		float64(actual.Width())/float64(expected.Width()),
		float64(actual.Height())/float64(expected.Height()),
	)

	width := expected.Width()
	height := expected.Height()
	if scale != 1.0 {
		width = int(math.Round(float64(expected.Width()) * scale))
		height = int(math.Round(float64(expected.Height()) * scale))
		if width < 1 {
			width = 1
		}
		if height < 1 {
			height = 1
		}
	}

	exp = resample(expected.Pixels(), width, height)
	act = resample(actual.Pixels(), width, height)
	return act, exp, scale, nil
}

// resample flattens transparency onto an opaque white background and
// scales to the requested grid in one pass. Called with the source's own
// dimensions it degrades to a flattening copy, which keeps the working
// buffers independent from caller-owned pixel data.
func resample(src image.Image, width int, height int) *image.NRGBA {
	dst := image.NewNRGBA(image.Rect(0, 0, width, height))
	draw.Draw(dst, dst.Bounds(), image.NewUniform(color.White), image.Point{}, draw.Src)

	bounds := src.Bounds()
	if bounds.Dx() == width && bounds.Dy() == height {
		draw.Draw(dst, dst.Bounds(), src, bounds.Min, draw.Over)
		return dst
	}
	xdraw.ApproxBiLinear.Scale(dst, dst.Bounds(), src, bounds, xdraw.Over, nil)
	return dst
}
