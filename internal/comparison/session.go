package comparison

import "image"

// session owns all mutable state of a single comparison: the two
// normalized working copies, the scale factor, the raw difference buffer
// and the active mask. It is constructed inside Compare and never shared,
// which makes the engine itself stateless and reentrant.
type session struct {
	actual   *image.NRGBA
	expected *image.NRGBA
	scale    float64
	width    int
	height   int

	// diff holds the per-pixel, per-channel absolute difference in
	// row-major RGB order. Pixels outside the active mask stay zero.
	diff []uint8

	// mask marks the active pixels; nil means the whole image.
	mask   []bool
	active int
}

func newSession(actual *image.NRGBA, expected *image.NRGBA, scale float64) *session {
	width := expected.Bounds().Dx()
	height := expected.Bounds().Dy()
	return &session{
		actual:   actual,
		expected: expected,
		scale:    scale,
		width:    width,
		height:   height,
		diff:     make([]uint8, width*height*3),
	}
}

// reset drops every buffer so a leaked session reference cannot keep
// megabytes of pixel data alive after the comparison returned.
func (s *session) reset() {
	s.actual = nil
	s.expected = nil
	s.diff = nil
	s.mask = nil
	s.active = 0
}
