// Package comparison decides whether two raster images are the same
// within a configurable tolerance and produces a human readable
// difference artifact.
//
// A comparison runs four synchronous stages: the normalizer strips alpha
// and resamples both inputs to a common grid, the mask builder converts
// caller regions into an active pixel mask, the scorer derives a 0-100
// match score from the masked per-channel difference, and the report
// renderer composites the diagnostic image. All per-call state lives in
// a session constructed inside Compare, so one Comparator can be shared
// across goroutines.
package comparison

import (
	"encoding/base64"
	"strings"

	"golang.org/x/xerrors"

	"visual-comparator/internal/raster"
)

// Options configure a single comparison.
type Options struct {
	// Threshold is the allowed mismatch in score points, 0 to 100.
	// Zero selects pixel-perfect mode.
	Threshold float64
	// CompareRegions restrict scoring to their union. Empty means the
	// whole image.
	CompareRegions []Region
	// ExcludeRegions are subtracted from the active area. Exclusion
	// wins over inclusion.
	ExcludeRegions []Region
}

// Result is the outcome of one comparison. The difference image is
// present whenever a comparison ran, pass or fail.
type Result struct {
	Match        bool    `json:"match"`
	Score        float64 `json:"score"`
	Proportional bool    `json:"proportional"`
	Scaled       bool    `json:"scaled"`
	PixelPerfect bool    `json:"pixelPerfect"`
	Partial      bool    `json:"partial"`
	Width        int     `json:"width"`
	Height       int     `json:"height"`
	Ratio        string  `json:"ratio"`
	// DifferenceImage is the report artifact as a PNG data URI, ready
	// for embedding in a test report without a filesystem round trip.
	DifferenceImage string `json:"differenceImage"`
}

// DifferencePNG decodes the embedded report artifact back to raw PNG
// bytes, for callers that persist it instead of embedding it.
func (r *Result) DifferencePNG() ([]byte, error) {
	const prefix = "data:image/png;base64,"
	if !strings.HasPrefix(r.DifferenceImage, prefix) {
		return nil, xerrors.New("result carries no difference image")
	}
	data, err := base64.StdEncoding.DecodeString(strings.TrimPrefix(r.DifferenceImage, prefix))
	if err != nil {
		return nil, xerrors.Errorf("failed to decode difference image: %w", err)
	}
	return data, nil
}

// Comparator is the visual comparison engine. The zero value is ready to
// use; it holds no state between calls.
type Comparator struct{}

func NewComparator() *Comparator {
	return &Comparator{}
}

// Compare is the primitive every caller-facing operation flows through.
// It never mutates the inputs.
func (c *Comparator) Compare(actual *raster.Image, expected *raster.Image, opts Options) (*Result, error) {
	if opts.Threshold < 0 || opts.Threshold > 100 {
		return nil, xerrors.Errorf("threshold must be within [0, 100], got %v", opts.Threshold)
	}

	actualWork, expectedWork, scale, err := normalize(actual, expected)
	if err != nil {
		return nil, err
	}

	s := newSession(actualWork, expectedWork, scale)
	defer s.reset()

	mask, active, err := buildActiveMask(opts.CompareRegions, opts.ExcludeRegions, scale, s.width, s.height)
	if err != nil {
		return nil, err
	}
	s.mask = mask
	s.active = active

	score := s.computeScore()

	pixelPerfect := opts.Threshold == 0
	var match bool
	if pixelPerfect {
		// A rescaled comparison can never pass pixel-perfect, even if
		// the content is visually identical.
		match = score == 100 &&
			actual.AspectRatio() == expected.AspectRatio() &&
			actual.Width() == expected.Width() &&
			actual.Height() == expected.Height() &&
			actual.HasAlpha() == expected.HasAlpha()
	} else {
		match = score >= 100-opts.Threshold
	}

	report, err := encodeDataURI(s.renderReport(opts.CompareRegions, opts.ExcludeRegions))
	if err != nil {
		return nil, err
	}

	return &Result{
		Match:           match,
		Score:           score,
		Proportional:    actual.AspectRatio() == expected.AspectRatio(),
		Scaled:          scale != 1.0,
		PixelPerfect:    pixelPerfect,
		Partial:         len(opts.CompareRegions) > 0 || len(opts.ExcludeRegions) > 0,
		Width:           s.width,
		Height:          s.height,
		Ratio:           raster.Ratio(s.width, s.height),
		DifferenceImage: report,
	}, nil
}

// Equal runs a pixel-perfect comparison over the whole image.
func (c *Comparator) Equal(actual *raster.Image, expected *raster.Image) (*Result, error) {
	return c.Compare(actual, expected, Options{})
}

// NotEqual runs a pixel-perfect comparison and inverts the verdict.
func (c *Comparator) NotEqual(actual *raster.Image, expected *raster.Image) (*Result, error) {
	result, err := c.Compare(actual, expected, Options{})
	if err != nil {
		return nil, err
	}
	result.Match = !result.Match
	return result, nil
}

// Similar runs a fuzzy comparison with optional compare and exclude
// regions.
func (c *Comparator) Similar(actual *raster.Image, expected *raster.Image, threshold float64, compare []Region, exclude []Region) (*Result, error) {
	return c.Compare(actual, expected, Options{
		Threshold:      threshold,
		CompareRegions: compare,
		ExcludeRegions: exclude,
	})
}

// MatchInRegions restricts the comparison entirely to the given regions.
func (c *Comparator) MatchInRegions(actual *raster.Image, expected *raster.Image, threshold float64, regions ...Region) (*Result, error) {
	return c.Compare(actual, expected, Options{
		Threshold:      threshold,
		CompareRegions: regions,
	})
}

// MatchExcludingRegions compares the whole image minus the given regions.
func (c *Comparator) MatchExcludingRegions(actual *raster.Image, expected *raster.Image, threshold float64, regions ...Region) (*Result, error) {
	return c.Compare(actual, expected, Options{
		Threshold:      threshold,
		ExcludeRegions: regions,
	})
}
