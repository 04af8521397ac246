package comparison

import (
	"image"
	"image/color"
	"testing"
)

func uniformNRGBA(width int, height int, c color.NRGBA) *image.NRGBA {
	img := image.NewNRGBA(image.Rect(0, 0, width, height))
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			img.SetNRGBA(x, y, c)
		}
	}
	return img
}

func TestComputeScore(t *testing.T) {
	t.Parallel()

	t.Run("IdenticalBuffers", func(t *testing.T) {
		t.Parallel()

		c := color.NRGBA{R: 128, G: 64, B: 32, A: 255}
		s := newSession(uniformNRGBA(4, 4, c), uniformNRGBA(4, 4, c), 1.0)
		s.active = 16

		if got := s.computeScore(); got != 100 {
			t.Errorf("expected score 100, got %v", got)
		}
	})

	t.Run("MaximalDifference", func(t *testing.T) {
		t.Parallel()

		s := newSession(
			uniformNRGBA(4, 4, color.NRGBA{R: 0, G: 0, B: 0, A: 255}),
			uniformNRGBA(4, 4, color.NRGBA{R: 255, G: 255, B: 255, A: 255}),
			1.0,
		)
		s.active = 16

		if got := s.computeScore(); got != 0 {
			t.Errorf("expected score 0, got %v", got)
		}
	})

	t.Run("MaskedPixelsCarryZeroDifference", func(t *testing.T) {
		t.Parallel()

		s := newSession(
			uniformNRGBA(4, 4, color.NRGBA{R: 0, G: 0, B: 0, A: 255}),
			uniformNRGBA(4, 4, color.NRGBA{R: 255, G: 255, B: 255, A: 255}),
			1.0,
		)
		s.mask = make([]bool, 16)
		s.mask[0] = true
		s.active = 1

		if got := s.computeScore(); got != 0 {
			t.Errorf("expected score 0 over the single active pixel, got %v", got)
		}
		if s.diff[0] != 255 || s.diff[1] != 255 || s.diff[2] != 255 {
			t.Errorf("expected full difference on the active pixel, got %v", s.diff[:3])
		}
		// The pixel next to it is masked out, its slot must stay zero.
		if s.diff[3] != 0 || s.diff[4] != 0 || s.diff[5] != 0 {
			t.Errorf("expected zero difference on masked pixels, got %v", s.diff[3:6])
		}
	})

	t.Run("SingleRowImage", func(t *testing.T) {
		t.Parallel()

		// Fewer rows than workers exercises the empty band edge.
		c := color.NRGBA{R: 10, G: 20, B: 30, A: 255}
		s := newSession(uniformNRGBA(64, 1, c), uniformNRGBA(64, 1, c), 1.0)
		s.active = 64

		if got := s.computeScore(); got != 100 {
			t.Errorf("expected score 100, got %v", got)
		}
	})
}

func TestPaintSeverityBands(t *testing.T) {
	t.Parallel()

	expected := uniformNRGBA(4, 1, color.NRGBA{R: 200, G: 200, B: 200, A: 255})
	s := newSession(uniformNRGBA(4, 1, color.NRGBA{R: 200, G: 200, B: 200, A: 255}), expected, 1.0)
	s.active = 4

	// Hand-placed raw differences, one per band plus one below every
	// threshold. Luma of a uniform difference equals the difference.
	set := func(x int, v uint8) {
		s.diff[x*3] = v
		s.diff[x*3+1] = v
		s.diff[x*3+2] = v
	}
	set(0, 255) // changed
	set(1, 64)  // variance
	set(2, 20)  // color shift
	set(3, 4)   // below every threshold

	out := s.paintSeverityBands()

	if got := out.NRGBAAt(0, 0); got != changedColor {
		t.Errorf("expected changed color at x=0, got %v", got)
	}
	if got := out.NRGBAAt(1, 0); got != varianceColor {
		t.Errorf("expected variance color at x=1, got %v", got)
	}
	if got := out.NRGBAAt(2, 0); got != colorShiftColor {
		t.Errorf("expected color shift color at x=2, got %v", got)
	}
	if got := out.NRGBAAt(3, 0); got != expected.NRGBAAt(3, 0) {
		t.Errorf("expected untouched pixel to keep the expected color, got %v", got)
	}
}

func TestRenderReport(t *testing.T) {
	t.Parallel()

	t.Run("SingleLegendPanelWithoutRegions", func(t *testing.T) {
		t.Parallel()

		c := color.NRGBA{R: 100, G: 100, B: 100, A: 255}
		s := newSession(uniformNRGBA(200, 10, c), uniformNRGBA(200, 10, c), 1.0)
		s.active = 2000

		report := s.renderReport(nil, nil)

		if got := report.Bounds().Dy(); got != 10+legendPanelHeight {
			t.Errorf("expected report height %d, got %d", 10+legendPanelHeight, got)
		}
		if got := report.NRGBAAt(0, 10); got != legendBackground {
			t.Errorf("expected legend background below the image, got %v", got)
		}
	})

	t.Run("TwoLegendPanelsWithRegions", func(t *testing.T) {
		t.Parallel()

		c := color.NRGBA{R: 100, G: 100, B: 100, A: 255}
		s := newSession(uniformNRGBA(200, 20, c), uniformNRGBA(200, 20, c), 1.0)
		s.active = 4000

		report := s.renderReport([]Region{{X: 4, Y: 4, Width: 8, Height: 8}}, nil)

		if got := report.Bounds().Dy(); got != 20+2*legendPanelHeight {
			t.Errorf("expected report height %d, got %d", 20+2*legendPanelHeight, got)
		}
	})

	t.Run("CompareRegionIsOutlined", func(t *testing.T) {
		t.Parallel()

		c := color.NRGBA{R: 100, G: 100, B: 100, A: 255}
		s := newSession(uniformNRGBA(20, 20, c), uniformNRGBA(20, 20, c), 1.0)
		s.active = 400

		report := s.renderReport([]Region{{X: 4, Y: 4, Width: 8, Height: 8}}, nil)

		if got := report.NRGBAAt(4, 4); got != compareOutlineColor {
			t.Errorf("expected compare outline at region corner, got %v", got)
		}
		if got := report.NRGBAAt(8, 8); got == compareOutlineColor {
			t.Errorf("expected region interior to stay unpainted")
		}
	})

	t.Run("ExcludeRegionIsHatched", func(t *testing.T) {
		t.Parallel()

		c := color.NRGBA{R: 100, G: 100, B: 100, A: 255}
		s := newSession(uniformNRGBA(20, 20, c), uniformNRGBA(20, 20, c), 1.0)
		s.active = 400

		report := s.renderReport(nil, []Region{{X: 4, Y: 4, Width: 10, Height: 10}})

		// (x+y)%8 == 0 inside the region interior.
		if got := report.NRGBAAt(8, 8); got != excludeOutlineColor {
			t.Errorf("expected hatch pixel inside exclude region, got %v", got)
		}
		if got := report.NRGBAAt(8, 9); got == excludeOutlineColor {
			t.Errorf("expected off-hatch interior pixel to stay unpainted")
		}
	})
}
