package vesting

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lumera-labs/lumera-streams/pkg/types"
)

func TestVestingFraction(t *testing.T) {
	cases := []struct {
		name                 string
		now, start, duration int64
		want                 float64
	}{
		{"pending", 5000, 0, 100, 0},
		{"at start", 1000, 1000, 100, 0},
		{"midway", 1050, 1000, 100, 0.5},
		{"at end", 1100, 1000, 100, 1},
		{"after end", 9999, 1000, 100, 1},
		{"clock skew", 900, 1000, 100, 0},
		{"zero duration", 900, 1000, 0, 1},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, VestingFraction(tc.now, tc.start, tc.duration))
		})
	}
}

func TestClaimableAmountNeverNaN(t *testing.T) {
	got := ClaimableAmount(10, 1000, 1000, 0)
	require.False(t, math.IsNaN(got))
	assert.Equal(t, 10.0, got)
}

func TestClassifyScenario(t *testing.T) {
	rec := types.StreamRecord{TotalAmount: 120, StartTimestamp: 1000, DurationSeconds: 120, StreamID: 1}

	c := Classify(rec, 1060)
	assert.Equal(t, types.StateActive, c.State)
	assert.Equal(t, 60.0, c.Claimable)

	c = Classify(rec, 1120)
	assert.Equal(t, types.StateCompleted, c.State)
	assert.Equal(t, 120.0, c.Claimable)

	c = Classify(rec, 1000)
	assert.Equal(t, types.StateActive, c.State)
	assert.Equal(t, 0.0, c.Claimable)
}

func TestClassifyPendingIgnoresClock(t *testing.T) {
	rec := types.StreamRecord{TotalAmount: 50, DurationSeconds: 10, StreamID: 2}
	for _, now := range []int64{0, 1, 1 << 40} {
		c := Classify(rec, now)
		assert.Equal(t, types.StatePending, c.State)
		assert.Zero(t, c.Claimable)
	}
}

func TestClassifyZeroDurationIsCompleted(t *testing.T) {
	rec := types.StreamRecord{TotalAmount: 7, StartTimestamp: 500, StreamID: 3}
	c := Classify(rec, 100)
	assert.Equal(t, types.StateCompleted, c.State)
	assert.Equal(t, 7.0, c.Claimable)
}

func TestClassifyZeroTotal(t *testing.T) {
	rec := types.StreamRecord{StartTimestamp: 10, DurationSeconds: 10}
	assert.Zero(t, Classify(rec, 15).Claimable)
	assert.Zero(t, Classify(rec, 25).Claimable)
}

func TestEntryProgressAndRemaining(t *testing.T) {
	rec := types.StreamRecord{TotalAmount: 200, StartTimestamp: 100, DurationSeconds: 100}
	e := Entry(rec, 125)
	assert.Equal(t, 0.25, e.Progress)
	assert.Equal(t, int64(200), e.EndsAt)
	assert.Equal(t, 150.0, Remaining(rec, 125))
	assert.Zero(t, Remaining(rec, 300))

	pending := Entry(types.StreamRecord{TotalAmount: 1, DurationSeconds: 5}, 125)
	assert.Zero(t, pending.EndsAt)
	assert.Zero(t, pending.Progress)
}

func TestValidate(t *testing.T) {
	require.NoError(t, Validate(types.StreamRecord{TotalAmount: 1, DurationSeconds: 1}))
	require.NoError(t, Validate(types.StreamRecord{TotalAmount: 1, StartTimestamp: 4}))
	for _, rec := range []types.StreamRecord{
		{TotalAmount: -1, DurationSeconds: 1},
		{TotalAmount: math.NaN(), DurationSeconds: 1},
		{TotalAmount: math.Inf(1), DurationSeconds: 1},
		{TotalAmount: 1, DurationSeconds: -5},
		{TotalAmount: 1, DurationSeconds: 5, StartTimestamp: -1},
	} {
		assert.ErrorIs(t, Validate(rec), ErrMalformedRecord)
	}
}

func TestRatePerSecond(t *testing.T) {
	assert.Equal(t, 1.0, RatePerSecond(100, 100))
	assert.Zero(t, RatePerSecond(100, 0))
}
