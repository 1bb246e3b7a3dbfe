package history

import (
	"sort"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lumera-labs/lumera-streams/pkg/types"
)

func id(v uint64) *uint64 { return &v }

func TestBuildHistoryOnlyClaimedMatches(t *testing.T) {
	logs := RawLogs{
		types.EventCreated:   {{StreamID: id(3), Timestamp: 100, Amount: id(100_000_000)}},
		types.EventAccepted:  {{StreamID: id(3), Timestamp: 200}},
		types.EventClaimed:   {{StreamID: id(7), Timestamp: 500}},
		types.EventCancelled: nil,
	}
	got := BuildHistory(7, logs)
	require.Len(t, got, 1)
	assert.Equal(t, types.EventClaimed, got[0].Kind)
	assert.Equal(t, int64(500), got[0].Timestamp)
	assert.Equal(t, uint64(7), got[0].StreamID)
}

func TestBuildHistoryOrderAndPayloads(t *testing.T) {
	logs := RawLogs{
		types.EventCreated:   {{StreamID: id(1), Timestamp: 10, Amount: id(250_000_000)}},
		types.EventAccepted:  {{StreamID: id(1), Timestamp: 20}},
		types.EventClaimed:   {{StreamID: id(1), Timestamp: 40}, {StreamID: id(1), Timestamp: 30}},
		types.EventCancelled: {{StreamID: id(1), Timestamp: 30, AmountToSender: id(50_000_000), AmountToRecipient: id(200_000_000)}},
	}
	got := BuildHistory(1, logs)
	require.Len(t, got, 5)

	assert.True(t, sort.SliceIsSorted(got, func(i, j int) bool { return got[i].Timestamp < got[j].Timestamp }))
	assert.Equal(t, types.EventCreated, got[0].Kind)
	require.NotNil(t, got[0].Amount)
	assert.Equal(t, 2.5, *got[0].Amount)

	// claimed and cancelled share timestamp 30: kind order puts claimed first
	assert.Equal(t, types.EventClaimed, got[2].Kind)
	assert.Equal(t, types.EventCancelled, got[3].Kind)
	require.NotNil(t, got[3].AmountToSender)
	assert.Equal(t, 0.5, *got[3].AmountToSender)
	assert.Equal(t, 2.0, *got[3].AmountToRecipient)
	assert.Equal(t, int64(40), got[4].Timestamp)
}

func TestBuildHistorySkipsMalformedAndMissing(t *testing.T) {
	logs := RawLogs{
		types.EventClaimed: {{Timestamp: 1}, {StreamID: id(9), Timestamp: 2}},
	}
	got := BuildHistory(9, logs)
	require.Len(t, got, 1)
	assert.Equal(t, int64(2), got[0].Timestamp)

	assert.Empty(t, BuildHistory(9, nil))
	assert.NotNil(t, BuildHistory(9, nil))
}

func TestBuildHistoryDeterministic(t *testing.T) {
	logs := RawLogs{
		types.EventAccepted: {{StreamID: id(2), Timestamp: 5}},
		types.EventCreated:  {{StreamID: id(2), Timestamp: 5}},
		types.EventClaimed:  {{StreamID: id(2), Timestamp: 5}},
	}
	first := BuildHistory(2, logs)
	for i := 0; i < 10; i++ {
		assert.Equal(t, first, BuildHistory(2, logs))
	}
	assert.Equal(t, []types.EventKind{types.EventCreated, types.EventAccepted, types.EventClaimed},
		[]types.EventKind{first[0].Kind, first[1].Kind, first[2].Kind})
}

func TestSummarizeAndDescribe(t *testing.T) {
	logs := RawLogs{
		types.EventCreated:   {{StreamID: id(1), Timestamp: 1, Amount: id(300_000_000)}},
		types.EventClaimed:   {{StreamID: id(1), Timestamp: 2}, {StreamID: id(1), Timestamp: 3}},
		types.EventCancelled: {{StreamID: id(1), Timestamp: 4, AmountToSender: id(100_000_000), AmountToRecipient: id(100_000_000)}},
	}
	events := BuildHistory(1, logs)
	tot := Summarize(events)
	assert.Equal(t, 3.0, tot.Created)
	assert.Equal(t, 2, tot.Claims)
	assert.True(t, tot.Cancelled)
	assert.Equal(t, 1.0, tot.ToSender)

	assert.Equal(t, "Stream created: 3 APT streaming", Describe(events[0], "APT"))
	assert.Equal(t, "Stream claimed: APT claimed", Describe(events[1], "APT"))
	assert.Equal(t, "Unknown event", Describe(types.Event{Kind: types.EventUnknown}, "APT"))
}
