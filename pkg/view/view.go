// Package view groups streams by lifecycle state and orders them for display.
// Every function classifies the whole batch against one shared timestamp.
package view

import (
	"sort"
	"strings"

	"github.com/lumera-labs/lumera-streams/pkg/types"
	"github.com/lumera-labs/lumera-streams/pkg/vesting"
)

// Classify evaluates every valid record at now. Malformed records are dropped and counted.
func Classify(records []types.StreamRecord, now int64) ([]types.StreamEntry, int) {
	out := make([]types.StreamEntry, 0, len(records))
	skipped := 0
	for _, rec := range records {
		if err := vesting.Validate(rec); err != nil {
			skipped++
			continue
		}
		out = append(out, vesting.Entry(rec, now))
	}
	return out, skipped
}

// Partition splits records into the Active (pending or vesting) and Completed groups.
func Partition(records []types.StreamRecord, now int64) types.Partition {
	entries, skipped := Classify(records, now)
	return partitionEntries(entries, skipped)
}

func partitionEntries(entries []types.StreamEntry, skipped int) types.Partition {
	p := types.Partition{
		Active:    make([]types.StreamEntry, 0),
		Completed: make([]types.StreamEntry, 0),
		Skipped:   skipped,
	}
	for _, e := range entries {
		if e.State == types.StateCompleted {
			p.Completed = append(p.Completed, e)
		} else {
			p.Active = append(p.Active, e)
		}
	}
	return p
}

// PartitionSorted partitions records and orders each group by key.
func PartitionSorted(records []types.StreamRecord, key types.SortKey, now int64) types.Partition {
	entries, skipped := Classify(records, now)
	SortEntries(entries, key)
	return partitionEntries(entries, skipped)
}

// Select returns the group matching status.
func Select(p types.Partition, status types.FilterStatus) []types.StreamEntry {
	if status == types.FilterCompleted {
		return p.Completed
	}
	return p.Active
}

// Sort classifies records at now and returns them ordered by key. The input is not modified.
func Sort(records []types.StreamRecord, key types.SortKey, now int64) []types.StreamEntry {
	entries, _ := Classify(records, now)
	SortEntries(entries, key)
	return entries
}

// SortEntries orders already classified entries in place. Equal keys fall back to
// stream id ascending so repeated sorts are reproducible.
func SortEntries(entries []types.StreamEntry, key types.SortKey) {
	less := comparator(key)
	sort.SliceStable(entries, func(i, j int) bool {
		a, b := entries[i], entries[j]
		if c := less(a, b); c != 0 {
			return c < 0
		}
		return a.StreamID < b.StreamID
	})
}

type compareFunc func(a, b types.StreamEntry) int

func comparator(key types.SortKey) compareFunc {
	switch key {
	case types.SortOldest:
		return func(a, b types.StreamEntry) int { return cmpUint(a.StreamID, b.StreamID) }
	case types.SortTotalAmountHighToLow:
		return func(a, b types.StreamEntry) int { return cmpFloat(b.TotalAmount, a.TotalAmount) }
	case types.SortTotalAmountLowToHigh:
		return func(a, b types.StreamEntry) int { return cmpFloat(a.TotalAmount, b.TotalAmount) }
	case types.SortEndDateFarToClose:
		return func(a, b types.StreamEntry) int { return cmpInt(b.EndTimestamp(), a.EndTimestamp()) }
	case types.SortEndDateCloseToFar:
		return func(a, b types.StreamEntry) int { return cmpInt(a.EndTimestamp(), b.EndTimestamp()) }
	case types.SortClaimableHighToLow:
		return func(a, b types.StreamEntry) int { return cmpFloat(b.Claimable, a.Claimable) }
	case types.SortClaimableLowToHigh:
		return func(a, b types.StreamEntry) int { return cmpFloat(a.Claimable, b.Claimable) }
	default:
		return func(a, b types.StreamEntry) int { return cmpUint(b.StreamID, a.StreamID) }
	}
}

func cmpUint(a, b uint64) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	}
	return 0
}

func cmpInt(a, b int64) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	}
	return 0
}

func cmpFloat(a, b float64) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	}
	return 0
}

// ParseSortKey accepts a SortKey identifier ("end_date_close_to_far", "end-date-close-to-far")
// or its menu label ("End Date - Close to Far"). Unknown input yields MostRecent and false.
func ParseSortKey(s string) (types.SortKey, bool) {
	n := normalize(s)
	if n == "" {
		return types.SortMostRecent, false
	}
	for _, k := range types.SortKeys {
		if n == normalize(string(k)) || n == normalize(k.Label()) {
			return k, true
		}
	}
	return types.SortMostRecent, false
}

// ParseFilterStatus accepts "active" or "completed" in any case. Unknown input yields Active and false.
func ParseFilterStatus(s string) (types.FilterStatus, bool) {
	switch normalize(s) {
	case "active":
		return types.FilterActive, true
	case "completed":
		return types.FilterCompleted, true
	}
	return types.FilterActive, false
}

func normalize(s string) string {
	var b strings.Builder
	for _, r := range strings.ToLower(s) {
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') {
			b.WriteRune(r)
		}
	}
	return b.String()
}
