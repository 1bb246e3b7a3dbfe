// Package types holds the data shapes shared by the stream engine, the ledger client and the API.
package types

import "time"

// StreamRecord is a vesting grant as read from the streaming module. TotalAmount is in
// display units; conversion from on-chain base units happens at the ledger boundary.
type StreamRecord struct {
	Sender    string `json:"sender"`
	Recipient string `json:"recipient"`
	// TotalAmount is the locked amount in display units (base units / 1e8).
	TotalAmount float64 `json:"total_amount"`
	// StartTimestamp is seconds since epoch; 0 means the recipient has not accepted yet.
	StartTimestamp  int64  `json:"start_timestamp"`
	DurationSeconds int64  `json:"duration_seconds"`
	StreamID        uint64 `json:"stream_id"`
}

// EndTimestamp returns start+duration, or 0 for a stream that has not been accepted.
func (r StreamRecord) EndTimestamp() int64 {
	if r.StartTimestamp == 0 {
		return 0
	}
	return r.StartTimestamp + r.DurationSeconds
}

// LifecycleState is derived from (record, now) on every evaluation and never stored.
type LifecycleState string

const (
	StatePending   LifecycleState = "pending"
	StateActive    LifecycleState = "active"
	StateCompleted LifecycleState = "completed"
)

// StreamEntry is a record together with its classification at a batch timestamp.
type StreamEntry struct {
	StreamRecord
	State     LifecycleState `json:"state"`
	Claimable float64        `json:"claimable"`
	// Progress is Claimable/TotalAmount in [0,1].
	Progress float64 `json:"progress"`
	EndsAt   int64   `json:"ends_at,omitempty"`
}

// Partition groups classified streams for display. Pending streams are listed under Active.
type Partition struct {
	Active    []StreamEntry `json:"active"`
	Completed []StreamEntry `json:"completed"`
	// Skipped counts malformed records left out of both groups.
	Skipped int `json:"skipped,omitempty"`
}

// AccountStreams is the network data behind a wallet view: both stream lists as read from
// the ledger. It carries no lifecycle state.
type AccountStreams struct {
	Account   string         `json:"account"`
	Incoming  []StreamRecord `json:"incoming"`
	Outgoing  []StreamRecord `json:"outgoing"`
	FetchedAt time.Time      `json:"fetched_at"`
}

// WalletSnapshot is everything a wallet page shows, evaluated at a single instant.
type WalletSnapshot struct {
	Account   string        `json:"account"`
	Now       int64         `json:"now"`
	UpdatedAt time.Time     `json:"updated_at"`
	ETag      string        `json:"etag"`
	Sort      SortKey       `json:"sort"`
	Incoming  Partition     `json:"incoming"`
	Outgoing  []StreamEntry `json:"outgoing"`
	// NetRatePerSecond is incoming minus outgoing vesting rate over active streams.
	NetRatePerSecond float64 `json:"net_rate_per_second"`
	NetRateDisplay   string  `json:"net_rate_display"`
}
