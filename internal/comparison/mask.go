package comparison

import "errors"

// EmptyMaskError is returned when the supplied regions leave no active
// pixel, e.g. exclude regions fully covering the compare regions. Scoring
// an empty pixel set has no defined mean, so the engine rejects it up
// front rather than inventing a score.
var EmptyMaskError = errors.New("active mask contains no pixels")

// buildActiveMask converts the caller's regions into the single boolean
// mask used for scoring and diff visualization, sized to the working
// grid. The compare regions are OR-combined (absent means whole image),
// then the exclude regions are subtracted. Exclusion always wins,
// including over the implicit whole-image default.
//
// Returns the mask, the number of active pixels, and EmptyMaskError when
// that number is zero. A nil mask means every pixel is active.
func buildActiveMask(compare []Region, exclude []Region, scale float64, width int, height int) ([]bool, int, error) {
	if len(compare) == 0 && len(exclude) == 0 {
		return nil, width * height, nil
	}

	mask := make([]bool, width*height)

	if len(compare) == 0 {
		for i := range mask {
			mask[i] = true
		}
	} else {
		for _, r := range compare {
			x0, y0, x1, y1 := r.scaled(scale, width, height)
			for y := y0; y < y1; y++ {
				row := y * width
				for x := x0; x < x1; x++ {
					mask[row+x] = true
				}
			}
		}
	}

	for _, r := range exclude {
		x0, y0, x1, y1 := r.scaled(scale, width, height)
		for y := y0; y < y1; y++ {
			row := y * width
			for x := x0; x < x1; x++ {
				mask[row+x] = false
			}
		}
	}

	active := 0
	for _, v := range mask {
		if v {
			active++
		}
	}
	if active == 0 {
		return nil, 0, EmptyMaskError
	}
	return mask, active, nil
}
