package comparison

import (
	"encoding/json"

	"golang.org/x/xerrors"
)

// Region is a rectangle in the expected image's original, unscaled
// coordinate space. Regions are value objects supplied fresh per
// comparison.
type Region struct {
	X      int `json:"x"`
	Y      int `json:"y"`
	Width  int `json:"width"`
	Height int `json:"height"`
}

// UnmarshalJSON rejects regions that do not carry all of x, y, width
// and height. A partially specified rectangle is always a caller bug,
// so it fails before any pixel work happens.
func (r *Region) UnmarshalJSON(data []byte) error {
	var raw struct {
		X      *int `json:"x"`
		Y      *int `json:"y"`
		Width  *int `json:"width"`
		Height *int `json:"height"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return xerrors.Errorf("failed to parse region: %w", err)
	}
	if raw.X == nil || raw.Y == nil || raw.Width == nil || raw.Height == nil {
		return xerrors.Errorf("region requires all of x, y, width and height: %s", string(data))
	}
	r.X = *raw.X
	r.Y = *raw.Y
	r.Width = *raw.Width
	r.Height = *raw.Height
	return nil
}

// ParseRegions decodes a JSON array of regions, e.g.
// [{"x":0,"y":0,"width":100,"height":50}]. Used by the CLI flags and
// the HTTP form fields.
func ParseRegions(s string) ([]Region, error) {
	if s == "" {
		return nil, nil
	}
	var regions []Region
	if err := json.Unmarshal([]byte(s), &regions); err != nil {
		return nil, err
	}
	return regions, nil
}

// scaled maps the region into the normalized working grid. Coordinates
// are multiplied by the scale factor and truncated, then clamped to the
// grid.
func (r Region) scaled(scale float64, width int, height int) (x0 int, y0 int, x1 int, y1 int) {
	x0 = int(float64(r.X) * scale)
	y0 = int(float64(r.Y) * scale)
	x1 = x0 + int(float64(r.Width)*scale)
	y1 = y0 + int(float64(r.Height)*scale)

	x0 = clamp(x0, 0, width)
	y0 = clamp(y0, 0, height)
	x1 = clamp(x1, 0, width)
	y1 = clamp(y1, 0, height)
	return x0, y0, x1, y1
}

func clamp(v int, lo int, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
