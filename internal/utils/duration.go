package utils

import (
	"errors"
	"strconv"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
)

var (
	ErrInvalidDuration = errors.New("invalid duration, use formats like 10m, 1h or 2d")
	ErrDurationTooLong = errors.New("duration exceeds the maximum")
	MaxTimeoutDuration = 28 * 24 * time.Hour
)

// ParseDuration accepts <n>s, <n>m, <n>h, <n>d and <n>w. A bare number is
// read as minutes. Results above max are rejected when max is positive.
func ParseDuration(value string, max time.Duration) (time.Duration, error) {
	value = strings.ToLower(strings.TrimSpace(value))
	if value == "" {
		return 0, ErrInvalidDuration
	}

	unit := time.Minute
	number := value
	switch value[len(value)-1] {
	case 's':
		unit = time.Second
		number = value[:len(value)-1]
	case 'm':
		unit = time.Minute
		number = value[:len(value)-1]
	case 'h':
		unit = time.Hour
		number = value[:len(value)-1]
	case 'd':
		unit = 24 * time.Hour
		number = value[:len(value)-1]
	case 'w':
		unit = 7 * 24 * time.Hour
		number = value[:len(value)-1]
	}

	amount, err := strconv.Atoi(number)
	if err != nil || amount <= 0 {
		return 0, ErrInvalidDuration
	}
	if max > 0 && int64(amount) > int64(max/unit) {
		return 0, ErrDurationTooLong
	}
	return time.Duration(amount) * unit, nil
}

// FormatDuration renders d as "2 days 3 hours"-style text, dropping zero parts.
func FormatDuration(d time.Duration) string {
	if d < time.Minute {
		seconds := int64(d / time.Second)
		return plural(seconds, "second")
	}
	days := int64(d / (24 * time.Hour))
	d -= time.Duration(days) * 24 * time.Hour
	hours := int64(d / time.Hour)
	d -= time.Duration(hours) * time.Hour
	minutes := int64(d / time.Minute)

	var parts []string
	if days > 0 {
		parts = append(parts, plural(days, "day"))
	}
	if hours > 0 {
		parts = append(parts, plural(hours, "hour"))
	}
	if minutes > 0 {
		parts = append(parts, plural(minutes, "minute"))
	}
	return strings.Join(parts, " ")
}

// Since renders the distance from then to now, like "3 hours ago".
func Since(then, now time.Time) string {
	return humanize.RelTime(then, now, "ago", "from now")
}

func plural(n int64, unit string) string {
	if n == 1 {
		return "1 " + unit
	}
	return humanize.Comma(n) + " " + unit + "s"
}
