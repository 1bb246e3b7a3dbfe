package types

import (
	"fmt"
	"strings"
)

// EventKind tags an audit entry with the log it came from. The numeric order is the
// tie-break order for events sharing a timestamp.
type EventKind uint8

const (
	EventCreated EventKind = iota
	EventAccepted
	EventClaimed
	EventCancelled
	EventUnknown
)

// EventKinds lists the four sourced kinds in enumeration order.
var EventKinds = []EventKind{EventCreated, EventAccepted, EventClaimed, EventCancelled}

func (k EventKind) String() string {
	switch k {
	case EventCreated:
		return "stream_created"
	case EventAccepted:
		return "stream_accepted"
	case EventClaimed:
		return "stream_claimed"
	case EventCancelled:
		return "stream_cancelled"
	default:
		return "unknown"
	}
}

func (k EventKind) MarshalText() ([]byte, error) { return []byte(k.String()), nil }

func (k *EventKind) UnmarshalText(b []byte) error {
	*k = ParseEventKind(string(b))
	return nil
}

// ParseEventKind accepts "stream_created" or the short form "created".
func ParseEventKind(s string) EventKind {
	switch strings.TrimPrefix(strings.ToLower(strings.TrimSpace(s)), "stream_") {
	case "created":
		return EventCreated
	case "accepted":
		return EventAccepted
	case "claimed":
		return EventClaimed
	case "cancelled", "canceled":
		return EventCancelled
	default:
		return EventUnknown
	}
}

// Store returns the on-chain event handle name for the kind.
func (k EventKind) Store() string {
	switch k {
	case EventCreated:
		return "stream_create_events"
	case EventAccepted:
		return "stream_accept_events"
	case EventClaimed:
		return "stream_claim_events"
	case EventCancelled:
		return "stream_close_events"
	default:
		return ""
	}
}

// KindForStore maps an event handle name back to its kind.
func KindForStore(store string) EventKind {
	for _, k := range EventKinds {
		if k.Store() == store {
			return k
		}
	}
	return EventUnknown
}

// RawEvent is one entry of an on-chain event log. Amounts are base units. A nil StreamID
// marks an entry whose payload could not be attributed to a stream.
type RawEvent struct {
	StreamID          *uint64 `json:"stream_id,omitempty"`
	Timestamp         int64   `json:"timestamp"`
	SequenceNumber    uint64  `json:"sequence_number"`
	Amount            *uint64 `json:"amount,omitempty"`
	AmountToSender    *uint64 `json:"amount_to_sender,omitempty"`
	AmountToRecipient *uint64 `json:"amount_to_recipient,omitempty"`
}

// Event is an immutable entry of a stream's history. Amounts are display units.
type Event struct {
	Kind      EventKind `json:"kind"`
	StreamID  uint64    `json:"stream_id"`
	Timestamp int64     `json:"timestamp"`
	// Amount is set for created events.
	Amount *float64 `json:"amount,omitempty"`
	// AmountToSender and AmountToRecipient are set for cancelled events.
	AmountToSender    *float64 `json:"amount_to_sender,omitempty"`
	AmountToRecipient *float64 `json:"amount_to_recipient,omitempty"`
}

func (e Event) String() string {
	return fmt.Sprintf("%s@%d", e.Kind, e.Timestamp)
}
