package utils

import (
	"sync"
	"time"
)

// SlidingWindow keeps the timestamps seen within the last window duration.
type SlidingWindow struct {
	mu     sync.Mutex
	window time.Duration
	hits   []time.Time
}

func NewSlidingWindow(window time.Duration) *SlidingWindow {
	return &SlidingWindow{window: window}
}

func (w *SlidingWindow) Add(now time.Time) int {
	w.mu.Lock()
	defer w.mu.Unlock()

	w.pruneLocked(now.Add(-w.window))
	w.hits = append(w.hits, now)
	return len(w.hits)
}

func (w *SlidingWindow) Count(now time.Time) int {
	w.mu.Lock()
	defer w.mu.Unlock()

	w.pruneLocked(now.Add(-w.window))
	return len(w.hits)
}

// Trim drops hits older than maxAge without touching the window length,
// and reports how many remain.
func (w *SlidingWindow) Trim(now time.Time, maxAge time.Duration) int {
	w.mu.Lock()
	defer w.mu.Unlock()

	w.pruneLocked(now.Add(-maxAge))
	return len(w.hits)
}

func (w *SlidingWindow) Reset() {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.hits = nil
}

func (w *SlidingWindow) pruneLocked(cutoff time.Time) {
	idx := 0
	for _, hit := range w.hits {
		if hit.After(cutoff) {
			break
		}
		idx++
	}
	w.hits = w.hits[idx:]
}
