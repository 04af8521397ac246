package storage

import (
	"context"
	"fmt"
	"time"
)

// Storage persists comparison artifacts: golden baselines, captured
// screenshots and rendered difference reports.
type Storage interface {
	// Put stores data with the given key and returns the storage URL
	Put(ctx context.Context, key string, data []byte) (string, error)
	// Get retrieves data from the given storage URL
	Get(ctx context.Context, url string) ([]byte, error)
}

// BaselineKey is the canonical location of the golden image for a named
// check.
func BaselineKey(name string) string {
	return fmt.Sprintf("baseline/%s.png", name)
}

// CaptureKey locates a captured screenshot for a named check at a point
// in time.
func CaptureKey(name string, t time.Time) string {
	return fmt.Sprintf("capture/%s/%s.png", name, t.Format("20060102150405"))
}

// ReportKey locates a rendered difference report for a named check at a
// point in time.
func ReportKey(name string, t time.Time) string {
	return fmt.Sprintf("report/%s/%s.png", name, t.Format("20060102150405"))
}
