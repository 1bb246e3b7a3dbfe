package rate

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/lumera-labs/lumera-streams/pkg/types"
)

func TestNetRateEmpty(t *testing.T) {
	assert.Zero(t, NetRate(nil, nil, 0))
	assert.Zero(t, NetRate([]types.StreamRecord{}, []types.StreamRecord{}, 123))
}

func TestNetRateSingleIncoming(t *testing.T) {
	in := []types.StreamRecord{{StreamID: 1, TotalAmount: 100, StartTimestamp: 1000, DurationSeconds: 100}}
	assert.Equal(t, 1.0, NetRate(nil, in, 1050))
}

func TestNetRateIgnoresInactive(t *testing.T) {
	in := []types.StreamRecord{
		{StreamID: 1, TotalAmount: 100, StartTimestamp: 1000, DurationSeconds: 100}, // active
		{StreamID: 2, TotalAmount: 100, DurationSeconds: 100},                       // pending
		{StreamID: 3, TotalAmount: 100, StartTimestamp: 10, DurationSeconds: 100},   // completed
		{StreamID: 4, TotalAmount: -5, StartTimestamp: 1000, DurationSeconds: 100},  // malformed
	}
	out := []types.StreamRecord{
		{StreamID: 5, TotalAmount: 50, StartTimestamp: 1000, DurationSeconds: 200},
	}
	assert.Equal(t, 0.75, NetRate(out, in, 1050))
	assert.Equal(t, -0.25, NetRate(out, nil, 1050))
}

func TestScale(t *testing.T) {
	v, u := Scale(2)
	assert.Equal(t, 2.0, v)
	assert.Equal(t, "s", u.Name)

	v, u = Scale(0.5)
	assert.Equal(t, 30.0, v)
	assert.Equal(t, "min", u.Name)

	v, u = Scale(-1.0 / 3600)
	assert.InDelta(t, -1.0, v, 1e-12)
	assert.Equal(t, "hr", u.Name)

	_, u = Scale(1e-12)
	assert.Equal(t, "year", u.Name)

	v, u = Scale(0)
	assert.Zero(t, v)
	assert.Equal(t, "s", u.Name)
}

func TestFormat(t *testing.T) {
	assert.Equal(t, "0 APT / s", Format(0, "APT"))
	assert.Equal(t, "1.5 APT / s", Format(1.5, "APT"))
	assert.Equal(t, "1,234.568 APT / s", Format(1234.5678, "APT"))
	assert.Equal(t, "30 APT / min", Format(0.5, "APT"))
	assert.Equal(t, "-2 APT / day", Format(-2.0/86400, "APT"))
}
