package timeparse

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParse(t *testing.T) {
	tests := []struct {
		input string
		want  time.Duration
	}{
		{"10m", 10 * time.Minute},
		{"2h", 2 * time.Hour},
		{"3d", 72 * time.Hour},
		{"1m", time.Minute},
		{"90m", 90 * time.Minute},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := Parse(tt.input)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestParseMilliseconds(t *testing.T) {
	// The original wire-level contract is milliseconds.
	got, err := Parse("10m")
	require.NoError(t, err)
	assert.Equal(t, int64(600000), got.Milliseconds())

	got, err = Parse("2h")
	require.NoError(t, err)
	assert.Equal(t, int64(7200000), got.Milliseconds())

	got, err = Parse("3d")
	require.NoError(t, err)
	assert.Equal(t, int64(259200000), got.Milliseconds())
}

func TestParseInvalid(t *testing.T) {
	for _, input := range []string{
		"",
		"10",
		"m10",
		"-5m",
		"10M",
		"10s",
		"1h30m",
		"10 m",
		"h",
		"ten minutes",
	} {
		t.Run(input, func(t *testing.T) {
			_, err := Parse(input)
			assert.ErrorIs(t, err, ErrInvalidFormat)
		})
	}
}
