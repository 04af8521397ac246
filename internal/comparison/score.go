package comparison

import (
	"runtime"
	"sync"
	"sync/atomic"
)

// computeScore fills the session's difference buffer and derives the
// 0-100 match score: a luminance normalized inverse mean absolute error
// confined to the active mask. 100 means no measurable difference.
//
// The work is split into row bands across GOMAXPROCS workers; each band
// accumulates locally and publishes once through the atomic total.
func (s *session) computeScore() float64 {
	// Use GOMAXPROCS instead of runtime.NumCPU() to consider cgroup.
	// https://tip.golang.org/doc/go1.25#container-aware-gomaxprocs
	numWorkers := runtime.GOMAXPROCS(0)

	rowsPerWorker := s.height / numWorkers

	var total int64
	var wg sync.WaitGroup
	wg.Add(numWorkers)

	for i := 0; i < numWorkers; i++ {
		startY := i * rowsPerWorker
		endY := startY + rowsPerWorker
		if i == numWorkers-1 {
			endY = s.height
		}

		go func(startY int, endY int) {
			defer wg.Done()
			atomic.AddInt64(&total, s.diffRows(startY, endY))
		}(startY, endY)
	}

	wg.Wait()

	mean := float64(total) / float64(s.active*3)
	score := 100 - mean*100/255
	if score < 0 {
		return 0
	}
	if score > 100 {
		return 100
	}
	return score
}

func (s *session) diffRows(startY int, endY int) int64 {
	var sum int64

	for y := startY; y < endY; y++ {
		actualRow := s.actual.PixOffset(0, y)
		expectedRow := s.expected.PixOffset(0, y)
		diffRow := y * s.width * 3
		maskRow := y * s.width

		for x := 0; x < s.width; x++ {
			if s.mask != nil && !s.mask[maskRow+x] {
				continue
			}

			actualOffset := actualRow + x*4
			expectedOffset := expectedRow + x*4
			diffOffset := diffRow + x*3

			dr := absDiff(s.actual.Pix[actualOffset], s.expected.Pix[expectedOffset])
			dg := absDiff(s.actual.Pix[actualOffset+1], s.expected.Pix[expectedOffset+1])
			db := absDiff(s.actual.Pix[actualOffset+2], s.expected.Pix[expectedOffset+2])

			s.diff[diffOffset] = dr
			s.diff[diffOffset+1] = dg
			s.diff[diffOffset+2] = db

			sum += int64(dr) + int64(dg) + int64(db)
		}
	}

	return sum
}

func absDiff(a uint8, b uint8) uint8 {
	if a > b {
		return a - b
	}
	return b - a
}
