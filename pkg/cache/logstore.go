// Package cache keeps recently computed wallet snapshots and fetched event logs.
package cache

import (
	"context"
	"sync"
	"time"

	"github.com/lumera-labs/lumera-streams/pkg/clock"
	"github.com/lumera-labs/lumera-streams/pkg/types"
)

// LogStore caches whole event logs by kind. Get reports a miss with ok == false.
type LogStore interface {
	Get(ctx context.Context, kind types.EventKind) (events []types.RawEvent, ok bool, err error)
	Put(ctx context.Context, kind types.EventKind, events []types.RawEvent) error
}

type memEntry struct {
	events []types.RawEvent
	stored time.Time
}

// MemoryLogStore is an in-process LogStore with a fixed TTL.
type MemoryLogStore struct {
	mu      sync.RWMutex
	entries map[types.EventKind]memEntry
	ttl     time.Duration
	clock   clock.Clock
}

func NewMemoryLogStore(ttl time.Duration, c clock.Clock) *MemoryLogStore {
	if c == nil {
		c = clock.System{}
	}
	return &MemoryLogStore{entries: make(map[types.EventKind]memEntry), ttl: ttl, clock: c}
}

func (m *MemoryLogStore) Get(_ context.Context, kind types.EventKind) ([]types.RawEvent, bool, error) {
	m.mu.RLock()
	e, ok := m.entries[kind]
	m.mu.RUnlock()
	if !ok || (m.ttl > 0 && m.clock.Now().Sub(e.stored) > m.ttl) {
		return nil, false, nil
	}
	return e.events, true, nil
}

func (m *MemoryLogStore) Put(_ context.Context, kind types.EventKind, events []types.RawEvent) error {
	m.mu.Lock()
	m.entries[kind] = memEntry{events: events, stored: m.clock.Now()}
	m.mu.Unlock()
	return nil
}
