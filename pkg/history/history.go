// Package history merges the four append-only stream event logs into a per-stream,
// time-ordered audit trail. It holds no state; every call recomputes the view.
package history

import (
	"fmt"
	"sort"

	"github.com/lumera-labs/lumera-streams/pkg/types"
	"github.com/lumera-labs/lumera-streams/pkg/vesting"
)

// RawLogs holds raw event logs keyed by kind. A missing kind is an empty log.
type RawLogs map[types.EventKind][]types.RawEvent

// BuildHistory returns every event referencing streamID, ordered by timestamp.
// Events sharing a timestamp keep kind order (created, accepted, claimed, cancelled),
// then their position in the source log. Entries without a stream id are skipped.
func BuildHistory(streamID uint64, logs RawLogs) []types.Event {
	out := make([]types.Event, 0)
	for _, kind := range types.EventKinds {
		for _, raw := range logs[kind] {
			if raw.StreamID == nil || *raw.StreamID != streamID {
				continue
			}
			out = append(out, convert(kind, streamID, raw))
		}
	}
	// out is already grouped in kind order, so a stable sort by timestamp is enough.
	sort.SliceStable(out, func(i, j int) bool { return out[i].Timestamp < out[j].Timestamp })
	return out
}

func convert(kind types.EventKind, streamID uint64, raw types.RawEvent) types.Event {
	ev := types.Event{Kind: kind, StreamID: streamID, Timestamp: raw.Timestamp}
	switch kind {
	case types.EventCreated:
		ev.Amount = display(raw.Amount)
	case types.EventCancelled:
		ev.AmountToSender = display(raw.AmountToSender)
		ev.AmountToRecipient = display(raw.AmountToRecipient)
	}
	return ev
}

func display(base *uint64) *float64 {
	if base == nil {
		return nil
	}
	v := vesting.ToDisplayAmount(*base)
	return &v
}

// Totals aggregates the amounts that moved over a stream's history.
type Totals struct {
	Created     float64 `json:"created"`
	ToSender    float64 `json:"to_sender"`
	ToRecipient float64 `json:"to_recipient"`
	Claims      int     `json:"claims"`
	Cancelled   bool    `json:"cancelled"`
}

// Summarize folds a history into Totals.
func Summarize(events []types.Event) Totals {
	var t Totals
	for _, ev := range events {
		switch ev.Kind {
		case types.EventCreated:
			if ev.Amount != nil {
				t.Created += *ev.Amount
			}
		case types.EventClaimed:
			t.Claims++
		case types.EventCancelled:
			t.Cancelled = true
			if ev.AmountToSender != nil {
				t.ToSender += *ev.AmountToSender
			}
			if ev.AmountToRecipient != nil {
				t.ToRecipient += *ev.AmountToRecipient
			}
		}
	}
	return t
}

// Describe renders a one-line label for an event, using symbol as the token ticker.
func Describe(ev types.Event, symbol string) string {
	switch ev.Kind {
	case types.EventCreated:
		if ev.Amount != nil {
			return fmt.Sprintf("Stream created: %g %s streaming", *ev.Amount, symbol)
		}
		return "Stream created"
	case types.EventAccepted:
		return "Stream accepted"
	case types.EventClaimed:
		return fmt.Sprintf("Stream claimed: %s claimed", symbol)
	case types.EventCancelled:
		if ev.AmountToSender != nil && ev.AmountToRecipient != nil {
			return fmt.Sprintf("Stream cancelled: %g %s to sender, %g %s to recipient",
				*ev.AmountToSender, symbol, *ev.AmountToRecipient, symbol)
		}
		return "Stream cancelled"
	default:
		return "Unknown event"
	}
}
