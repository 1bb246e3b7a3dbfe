package vesting

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestToDisplayAmount(t *testing.T) {
	assert.Equal(t, 1.0, ToDisplayAmount(100_000_000))
	assert.Equal(t, 0.5, ToDisplayAmount(50_000_000))
	assert.Zero(t, ToDisplayAmount(0))
}

func TestToBaseUnits(t *testing.T) {
	got, err := ToBaseUnits(1.5)
	require.NoError(t, err)
	assert.Equal(t, uint64(150_000_000), got)

	got, err = ToBaseUnits(0.000000014)
	require.NoError(t, err)
	assert.Equal(t, uint64(1), got)

	for _, bad := range []float64{-1, math.NaN(), math.Inf(1), 1e20} {
		_, err := ToBaseUnits(bad)
		assert.ErrorIs(t, err, ErrInvalidAmount, "input %v", bad)
	}
}

func TestParseDisplayAmount(t *testing.T) {
	cases := map[string]uint64{
		"1":           100_000_000,
		"0.1":         10_000_000,
		" 2.5 ":       250_000_000,
		"0.00000001":  1,
		"0.000000015": 2,
		"0.000000014": 1,
	}
	for in, want := range cases {
		got, err := ParseDisplayAmount(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got, in)
	}
	for _, bad := range []string{"", "abc", "-1", "1/3", "1e3", "999999999999999999999"} {
		_, err := ParseDisplayAmount(bad)
		assert.ErrorIs(t, err, ErrInvalidAmount, bad)
	}
}

func TestFormatBaseUnits(t *testing.T) {
	assert.Equal(t, "1", FormatBaseUnits(100_000_000))
	assert.Equal(t, "1.5", FormatBaseUnits(150_000_000))
	assert.Equal(t, "0.00000001", FormatBaseUnits(1))
}
