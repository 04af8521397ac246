package comparison

import (
	"bytes"
	"encoding/base64"
	"image"
	"image/color"
	"image/draw"
	"image/png"

	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"
	"golang.org/x/xerrors"
)

// Severity bands, evaluated on a grayscale copy of the raw difference
// with descending thresholds. A pixel lands in the first band whose
// threshold it reaches, so the bands never overlap.
const (
	changedThreshold    = 96 // actual changed relative to expected
	varianceThreshold   = 48 // expected-only variance
	colorShiftThreshold = 16 // hue/tone shift above noise
)

const legendPanelHeight = 28

var (
	changedColor    = color.NRGBA{R: 224, G: 40, B: 40, A: 255}
	varianceColor   = color.NRGBA{R: 40, G: 80, B: 224, A: 255}
	colorShiftColor = color.NRGBA{R: 255, G: 165, B: 0, A: 255}

	compareOutlineColor = color.NRGBA{R: 0, G: 176, B: 80, A: 255}
	excludeOutlineColor = color.NRGBA{R: 120, G: 120, B: 120, A: 255}

	legendBackground = color.NRGBA{R: 24, G: 24, B: 24, A: 255}
	legendText       = color.NRGBA{R: 240, G: 240, B: 240, A: 255}
)

// renderReport composites the diagnostic artifact: severity highlighting
// painted over the expected working copy, region overlays, and one or two
// legend panels appended below.
func (s *session) renderReport(compare []Region, exclude []Region) *image.NRGBA {
	highlighted := s.paintSeverityBands()
	s.outlineRegions(highlighted, compare, exclude)

	panels := 1
	if len(compare) > 0 || len(exclude) > 0 {
		panels = 2
	}

	report := image.NewNRGBA(image.Rect(0, 0, s.width, s.height+panels*legendPanelHeight))
	draw.Draw(report, highlighted.Bounds(), highlighted, image.Point{}, draw.Src)

	bandLegend := legendPanel(s.width, []legendEntry{
		{changedColor, "changed"},
		{varianceColor, "variance"},
		{colorShiftColor, "color shift"},
	})
	draw.Draw(report, bandLegend.Bounds().Add(image.Pt(0, s.height)), bandLegend, image.Point{}, draw.Src)

	if panels == 2 {
		regionLegend := legendPanel(s.width, []legendEntry{
			{compareOutlineColor, "compare region"},
			{excludeOutlineColor, "excluded region"},
		})
		draw.Draw(report, regionLegend.Bounds().Add(image.Pt(0, s.height+legendPanelHeight)), regionLegend, image.Point{}, draw.Src)
	}

	return report
}

// paintSeverityBands classifies every differing pixel by the BT.601 luma
// of its raw difference and paints the band color over a copy of the
// expected working image. Masked pixels carry zero difference and are
// never painted.
func (s *session) paintSeverityBands() *image.NRGBA {
	out := image.NewNRGBA(image.Rect(0, 0, s.width, s.height))
	copy(out.Pix, s.expected.Pix)

	for y := 0; y < s.height; y++ {
		diffRow := y * s.width * 3
		outRow := out.PixOffset(0, y)

		for x := 0; x < s.width; x++ {
			diffOffset := diffRow + x*3
			dr := int(s.diff[diffOffset])
			dg := int(s.diff[diffOffset+1])
			db := int(s.diff[diffOffset+2])

			luma := (299*dr + 587*dg + 114*db) / 1000

			var c color.NRGBA
			switch {
			case luma >= changedThreshold:
				c = changedColor
			case luma >= varianceThreshold:
				c = varianceColor
			case luma >= colorShiftThreshold:
				c = colorShiftColor
			default:
				continue
			}

			outOffset := outRow + x*4
			out.Pix[outOffset] = c.R
			out.Pix[outOffset+1] = c.G
			out.Pix[outOffset+2] = c.B
			out.Pix[outOffset+3] = 255
		}
	}

	return out
}

// outlineRegions draws the region overlays at the working resolution.
// Exclude regions additionally get a diagonal hatch so ignored areas read
// as ignored even when their outline is cropped.
func (s *session) outlineRegions(dst *image.NRGBA, compare []Region, exclude []Region) {
	for _, r := range compare {
		x0, y0, x1, y1 := r.scaled(s.scale, s.width, s.height)
		drawOutline(dst, x0, y0, x1, y1, compareOutlineColor)
	}

	for _, r := range exclude {
		x0, y0, x1, y1 := r.scaled(s.scale, s.width, s.height)
		for y := y0; y < y1; y++ {
			for x := x0; x < x1; x++ {
				if (x+y)%8 == 0 {
					dst.SetNRGBA(x, y, excludeOutlineColor)
				}
			}
		}
		drawOutline(dst, x0, y0, x1, y1, excludeOutlineColor)
	}
}

func drawOutline(dst *image.NRGBA, x0 int, y0 int, x1 int, y1 int, c color.NRGBA) {
	bounds := dst.Bounds()
	for thickness := 0; thickness < 3; thickness++ {
		for x := x0 - thickness; x < x1+thickness; x++ {
			if x >= 0 && x < bounds.Max.X {
				if y0-thickness >= 0 {
					dst.SetNRGBA(x, y0-thickness, c)
				}
				if y1+thickness-1 < bounds.Max.Y {
					dst.SetNRGBA(x, y1+thickness-1, c)
				}
			}
		}
		for y := y0 - thickness; y < y1+thickness; y++ {
			if y >= 0 && y < bounds.Max.Y {
				if x0-thickness >= 0 {
					dst.SetNRGBA(x0-thickness, y, c)
				}
				if x1+thickness-1 < bounds.Max.X {
					dst.SetNRGBA(x1+thickness-1, y, c)
				}
			}
		}
	}
}

type legendEntry struct {
	color color.NRGBA
	label string
}

func legendPanel(width int, entries []legendEntry) *image.NRGBA {
	panel := image.NewNRGBA(image.Rect(0, 0, width, legendPanelHeight))
	draw.Draw(panel, panel.Bounds(), image.NewUniform(legendBackground), image.Point{}, draw.Src)

	drawer := &font.Drawer{
		Dst:  panel,
		Src:  image.NewUniform(legendText),
		Face: basicfont.Face7x13,
	}

	const swatchSize = 12
	x := 6
	for _, entry := range entries {
		swatch := image.Rect(x, (legendPanelHeight-swatchSize)/2, x+swatchSize, (legendPanelHeight+swatchSize)/2)
		draw.Draw(panel, swatch, image.NewUniform(entry.color), image.Point{}, draw.Src)

		drawer.Dot = fixed.P(x+swatchSize+4, legendPanelHeight/2+basicfont.Face7x13.Height/2-2)
		drawer.DrawString(entry.label)

		x += swatchSize + 4 + drawer.MeasureString(entry.label).Ceil() + 14
	}

	return panel
}

func encodeDataURI(img image.Image) (string, error) {
	var buffer bytes.Buffer
	if err := png.Encode(&buffer, img); err != nil {
		return "", xerrors.Errorf("failed to encode report image: %w", err)
	}
	return "data:image/png;base64," + base64.StdEncoding.EncodeToString(buffer.Bytes()), nil
}
