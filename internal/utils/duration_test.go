package utils

import (
	"testing"
	"time"
)

func TestParseDuration(t *testing.T) {
	d, err := ParseDuration("10m", MaxTimeoutDuration)
	if err != nil || d != 10*time.Minute {
		t.Fatalf("expected 10m, got %v (%v)", d, err)
	}
	d, err = ParseDuration("2d", MaxTimeoutDuration)
	if err != nil || d != 48*time.Hour {
		t.Fatalf("expected 48h, got %v (%v)", d, err)
	}
	d, err = ParseDuration("15", MaxTimeoutDuration)
	if err != nil || d != 15*time.Minute {
		t.Fatalf("expected bare number as minutes, got %v (%v)", d, err)
	}
}

func TestParseDurationRejects(t *testing.T) {
	if _, err := ParseDuration("abc", MaxTimeoutDuration); err != ErrInvalidDuration {
		t.Fatalf("expected invalid, got %v", err)
	}
	if _, err := ParseDuration("-5m", MaxTimeoutDuration); err != ErrInvalidDuration {
		t.Fatalf("expected invalid for negative, got %v", err)
	}
	if _, err := ParseDuration("29d", MaxTimeoutDuration); err != ErrDurationTooLong {
		t.Fatalf("expected too long, got %v", err)
	}
	if _, err := ParseDuration("28d", MaxTimeoutDuration); err != nil {
		t.Fatalf("expected 28d accepted, got %v", err)
	}
}

func TestFormatDuration(t *testing.T) {
	if got := FormatDuration(26*time.Hour + 5*time.Minute); got != "1 day 2 hours 5 minutes" {
		t.Fatalf("unexpected %q", got)
	}
	if got := FormatDuration(7 * 24 * time.Hour); got != "7 days" {
		t.Fatalf("unexpected %q", got)
	}
}
