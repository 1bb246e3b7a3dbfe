package vesting

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
)

var ErrInvalidDuration = errors.New("invalid duration")

const (
	secondsPerMinute = 60
	secondsPerHour   = 60 * secondsPerMinute
	secondsPerDay    = 24 * secondsPerHour
	secondsPerWeek   = 7 * secondsPerDay
)

// ParseDuration parses "<amount> <unit>" (e.g. "3 days", "1.5 hour") into whole seconds.
// A month is 30 days and a year 365 days.
func ParseDuration(s string) (int64, error) {
	fields := strings.Fields(s)
	if len(fields) != 2 {
		return 0, fmt.Errorf("%w: %q", ErrInvalidDuration, s)
	}
	n, err := strconv.ParseFloat(fields[0], 64)
	if err != nil || n <= 0 || math.IsInf(n, 0) {
		return 0, fmt.Errorf("%w: %q", ErrInvalidDuration, s)
	}
	var unit float64
	switch strings.TrimSuffix(strings.ToLower(fields[1]), "s") {
	case "second":
		unit = 1
	case "minute":
		unit = secondsPerMinute
	case "hour":
		unit = secondsPerHour
	case "day":
		unit = secondsPerDay
	case "week":
		unit = secondsPerWeek
	case "month":
		unit = 30 * secondsPerDay
	case "year":
		unit = 365 * secondsPerDay
	default:
		return 0, fmt.Errorf("%w: unknown unit %q", ErrInvalidDuration, fields[1])
	}
	secs := math.Round(n * unit)
	if secs < 1 || secs > math.MaxInt64/2 {
		return 0, fmt.Errorf("%w: %q", ErrInvalidDuration, s)
	}
	return int64(secs), nil
}

// FormatDurationShort renders seconds in the largest unit that is at least one,
// e.g. "2.50 days". Months are four weeks and years twelve months here, matching
// the rate display units.
func FormatDurationShort(seconds int64) string {
	s := float64(seconds)
	days := s / secondsPerDay
	years := days / 7 / 4 / 12
	switch {
	case years >= 1:
		return fmt.Sprintf("%.2f years", years)
	case days >= 1:
		return fmt.Sprintf("%.2f days", days)
	case s/secondsPerHour >= 1:
		return fmt.Sprintf("%.2f hours", s/secondsPerHour)
	case s/secondsPerMinute >= 1:
		return fmt.Sprintf("%.2f minutes", s/secondsPerMinute)
	default:
		return fmt.Sprintf("%.2f seconds", s)
	}
}
