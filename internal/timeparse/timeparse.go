// Package timeparse converts short human-readable durations like "10m",
// "2h" or "3d" into time.Duration values.
package timeparse

import (
	"errors"
	"strconv"
	"time"
)

// ErrInvalidFormat is returned for anything that is not digits followed by
// exactly one of the unit characters m, h or d.
var ErrInvalidFormat = errors.New("invalid duration format: use Xm, Xh, or Xd")

// Parse parses a duration string. The grammar is one or more digits followed
// by a single unit character: m (minutes), h (hours) or d (days).
// Case-sensitive, no whitespace, no combined units.
func Parse(s string) (time.Duration, error) {
	if len(s) < 2 {
		return 0, ErrInvalidFormat
	}

	digits := s[:len(s)-1]
	for i := 0; i < len(digits); i++ {
		if digits[i] < '0' || digits[i] > '9' {
			return 0, ErrInvalidFormat
		}
	}

	n, err := strconv.ParseInt(digits, 10, 64)
	if err != nil {
		return 0, ErrInvalidFormat
	}

	switch s[len(s)-1] {
	case 'm':
		return time.Duration(n) * time.Minute, nil
	case 'h':
		return time.Duration(n) * time.Hour, nil
	case 'd':
		return time.Duration(n) * 24 * time.Hour, nil
	default:
		return 0, ErrInvalidFormat
	}
}
