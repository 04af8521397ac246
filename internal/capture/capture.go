package capture

import (
	"context"
)

type CaptureOptions struct {
	// MaskSelectors are CSS selectors blacked out before the shot, for
	// page areas that are known to vary (clocks, ads, avatars).
	MaskSelectors []string
	Headers       map[string]string
}

type CaptureResult struct {
	Screenshot []byte
}

// Capturer produces the "actual" image of a visual comparison.
type Capturer interface {
	Capture(ctx context.Context, url string, options CaptureOptions) (*CaptureResult, error)
}
