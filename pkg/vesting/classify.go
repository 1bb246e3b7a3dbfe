package vesting

import (
	"errors"
	"fmt"
	"math"

	"github.com/lumera-labs/lumera-streams/pkg/types"
)

var ErrMalformedRecord = errors.New("malformed stream record")

// Classification is the lifecycle state and claimable amount of a stream at one instant.
type Classification struct {
	State     types.LifecycleState `json:"state"`
	Claimable float64              `json:"claimable"`
}

// Validate reports records whose numbers would poison display or sorting.
// A zero duration is tolerated; Classify treats it as vesting instantly.
func Validate(rec types.StreamRecord) error {
	switch {
	case math.IsNaN(rec.TotalAmount) || math.IsInf(rec.TotalAmount, 0):
		return fmt.Errorf("%w: stream %d total is %v", ErrMalformedRecord, rec.StreamID, rec.TotalAmount)
	case rec.TotalAmount < 0:
		return fmt.Errorf("%w: stream %d total %v is negative", ErrMalformedRecord, rec.StreamID, rec.TotalAmount)
	case rec.DurationSeconds < 0:
		return fmt.Errorf("%w: stream %d duration %d is negative", ErrMalformedRecord, rec.StreamID, rec.DurationSeconds)
	case rec.StartTimestamp < 0:
		return fmt.Errorf("%w: stream %d start %d is negative", ErrMalformedRecord, rec.StreamID, rec.StartTimestamp)
	}
	return nil
}

// Classify derives the lifecycle state of rec at now.
func Classify(rec types.StreamRecord, now int64) Classification {
	if rec.StartTimestamp == 0 {
		return Classification{State: types.StatePending}
	}
	if rec.DurationSeconds <= 0 || now-rec.StartTimestamp >= rec.DurationSeconds {
		return Classification{State: types.StateCompleted, Claimable: rec.TotalAmount}
	}
	return Classification{
		State:     types.StateActive,
		Claimable: ClaimableAmount(rec.TotalAmount, now, rec.StartTimestamp, rec.DurationSeconds),
	}
}

// Entry classifies rec and attaches the derived display fields.
func Entry(rec types.StreamRecord, now int64) types.StreamEntry {
	c := Classify(rec, now)
	e := types.StreamEntry{
		StreamRecord: rec,
		State:        c.State,
		Claimable:    c.Claimable,
		EndsAt:       rec.EndTimestamp(),
	}
	switch {
	case c.State == types.StateCompleted:
		e.Progress = 1
	case rec.TotalAmount > 0:
		e.Progress = c.Claimable / rec.TotalAmount
	}
	return e
}

// Remaining is the part of the total not yet vested at now.
func Remaining(rec types.StreamRecord, now int64) float64 {
	c := Classify(rec, now)
	if c.State == types.StateCompleted {
		return 0
	}
	return rec.TotalAmount - c.Claimable
}
