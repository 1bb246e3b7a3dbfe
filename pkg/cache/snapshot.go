package cache

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/lumera-labs/lumera-streams/pkg/clock"
	"github.com/lumera-labs/lumera-streams/pkg/types"
)

// Computer fetches an account's streams and evaluates them at an instant.
type Computer interface {
	FetchStreams(ctx context.Context, account string) (*types.AccountStreams, error)
	Evaluate(streams *types.AccountStreams, sort types.SortKey, now time.Time) *types.WalletSnapshot
}

type Options struct {
	TTL   time.Duration
	Clock clock.Clock
}

// SnapshotCache holds the fetched stream lists per account. Lifecycle state is never
// stored: Snapshot re-evaluates the cached records at the current time on every call.
type SnapshotCache struct {
	mu      sync.RWMutex
	streams map[string]*types.AccountStreams
	ttl     time.Duration
	clock   clock.Clock
	comp    Computer
}

func NewSnapshotCache(comp Computer, opt Options) *SnapshotCache {
	if opt.TTL <= 0 {
		opt.TTL = 30 * time.Second
	}
	if opt.Clock == nil {
		opt.Clock = clock.System{}
	}
	return &SnapshotCache{streams: make(map[string]*types.AccountStreams), ttl: opt.TTL, clock: opt.Clock, comp: comp}
}

// Get returns the cached stream lists and whether they are still within TTL.
func (c *SnapshotCache) Get(account string) (*types.AccountStreams, bool) {
	c.mu.RLock()
	s := c.streams[account]
	c.mu.RUnlock()
	if s == nil {
		return nil, false
	}
	if c.clock.Now().Sub(s.FetchedAt) > c.ttl {
		return s, false
	}
	return s, true
}

// Update refetches and stores the stream lists of account.
func (c *SnapshotCache) Update(ctx context.Context, account string) (*types.AccountStreams, error) {
	s, err := c.comp.FetchStreams(ctx, account)
	if err != nil {
		return nil, err
	}
	c.mu.Lock()
	c.streams[account] = s
	c.mu.Unlock()
	return s, nil
}

// Fetch returns fresh cached stream lists or refetches them.
func (c *SnapshotCache) Fetch(ctx context.Context, account string) (*types.AccountStreams, error) {
	if s, fresh := c.Get(account); fresh {
		return s, nil
	}
	return c.Update(ctx, account)
}

// Snapshot evaluates the account's streams, sampling the clock once for the whole batch.
func (c *SnapshotCache) Snapshot(ctx context.Context, account string, sort types.SortKey) (*types.WalletSnapshot, error) {
	s, err := c.Fetch(ctx, account)
	if err != nil {
		return nil, err
	}
	return c.comp.Evaluate(s, sort, c.clock.Now()), nil
}

// RunRefresher refetches the stream lists of each account every interval until ctx is done.
func (c *SnapshotCache) RunRefresher(ctx context.Context, accounts []string, interval time.Duration) {
	if interval <= 0 {
		interval = c.ttl
	}
	t := time.NewTicker(interval)
	defer t.Stop()
	for {
		for _, a := range accounts {
			if _, err := c.Update(ctx, a); err != nil && ctx.Err() == nil {
				slog.Warn("stream refresh failed", "account", a, "err", err)
			}
		}
		select {
		case <-ctx.Done():
			return
		case <-t.C:
		}
	}
}
