package utils

import (
	"testing"
	"time"
)

func TestSlidingWindowAdd(t *testing.T) {
	window := NewSlidingWindow(2 * time.Second)
	now := time.Now()
	if count := window.Add(now); count != 1 {
		t.Fatalf("expected 1, got %d", count)
	}
	window.Add(now.Add(500 * time.Millisecond))
	if count := window.Count(now.Add(1 * time.Second)); count != 2 {
		t.Fatalf("expected 2, got %d", count)
	}
	if count := window.Count(now.Add(3 * time.Second)); count != 0 {
		t.Fatalf("expected 0, got %d", count)
	}
}

func TestSlidingWindowTrimAndReset(t *testing.T) {
	window := NewSlidingWindow(5 * time.Second)
	now := time.Unix(100, 0)
	window.Add(now)
	window.Add(now.Add(8 * time.Second))

	if remaining := window.Trim(now.Add(12*time.Second), 10*time.Second); remaining != 1 {
		t.Fatalf("expected 1 after trim, got %d", remaining)
	}
	if count := window.Count(now.Add(12 * time.Second)); count != 1 {
		t.Fatalf("expected trimmed hit to stay within the window, got %d", count)
	}
	window.Reset()
	if count := window.Count(now.Add(12 * time.Second)); count != 0 {
		t.Fatalf("expected empty window after reset, got %d", count)
	}
}
