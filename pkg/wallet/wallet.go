// Package wallet assembles everything a wallet page shows: both stream lists, the net
// vesting rate and per-stream event histories.
package wallet

import (
	"context"
	"crypto/sha1"
	"encoding/hex"
	"log/slog"
	"strconv"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/lumera-labs/lumera-streams/pkg/cache"
	"github.com/lumera-labs/lumera-streams/pkg/clock"
	"github.com/lumera-labs/lumera-streams/pkg/history"
	"github.com/lumera-labs/lumera-streams/pkg/metrics"
	"github.com/lumera-labs/lumera-streams/pkg/rate"
	"github.com/lumera-labs/lumera-streams/pkg/types"
	"github.com/lumera-labs/lumera-streams/pkg/vesting"
	"github.com/lumera-labs/lumera-streams/pkg/view"
)

// Source reads stream state from the ledger.
type Source interface {
	OutgoingStreams(ctx context.Context, account string) ([]types.StreamRecord, error)
	IncomingStreams(ctx context.Context, account string) ([]types.StreamRecord, error)
	EventLog(ctx context.Context, kind types.EventKind) ([]types.RawEvent, error)
}

type Options struct {
	Clock clock.Clock
	// Logs caches event logs between History calls. Nil disables caching.
	Logs    cache.LogStore
	Symbol  string
	Metrics *metrics.Metrics
}

type Computer struct {
	src     Source
	clock   clock.Clock
	logs    cache.LogStore
	symbol  string
	metrics *metrics.Metrics
}

func NewComputer(src Source, opt Options) *Computer {
	if opt.Clock == nil {
		opt.Clock = clock.System{}
	}
	if opt.Symbol == "" {
		opt.Symbol = "APT"
	}
	return &Computer{src: src, clock: opt.Clock, logs: opt.Logs, symbol: opt.Symbol, metrics: opt.Metrics}
}

func (c *Computer) Symbol() string { return c.symbol }

// ComputeSnapshot fetches both stream lists and evaluates them at a single instant.
func (c *Computer) ComputeSnapshot(ctx context.Context, account string, sort types.SortKey) (*types.WalletSnapshot, error) {
	streams, err := c.FetchStreams(ctx, account)
	if err != nil {
		return nil, err
	}
	return c.Evaluate(streams, sort, c.clock.Now()), nil
}

// FetchStreams reads both stream lists of account concurrently. Either failing fails the call.
func (c *Computer) FetchStreams(ctx context.Context, account string) (*types.AccountStreams, error) {
	var incoming, outgoing []types.StreamRecord
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		recs, err := c.src.IncomingStreams(gctx, account)
		if err != nil {
			c.metrics.LedgerError("incoming")
			return err
		}
		incoming = recs
		return nil
	})
	g.Go(func() error {
		recs, err := c.src.OutgoingStreams(gctx, account)
		if err != nil {
			c.metrics.LedgerError("outgoing")
			return err
		}
		outgoing = recs
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}
	if skipped := countMalformed(incoming) + countMalformed(outgoing); skipped > 0 {
		slog.Debug("skipped malformed stream records", "account", account, "count", skipped)
		c.metrics.Skipped(skipped)
	}
	return &types.AccountStreams{
		Account:   account,
		Incoming:  incoming,
		Outgoing:  outgoing,
		FetchedAt: c.clock.Now().UTC(),
	}, nil
}

func countMalformed(records []types.StreamRecord) int {
	n := 0
	for _, rec := range records {
		if vesting.Validate(rec) != nil {
			n++
		}
	}
	return n
}

// Evaluate classifies, partitions and sorts streams at nowT. It reads no network and keeps
// no state, so cached records can be re-evaluated on every call.
func (c *Computer) Evaluate(streams *types.AccountStreams, sort types.SortKey, nowT time.Time) *types.WalletSnapshot {
	start := time.Now()
	now := nowT.Unix()
	in := view.PartitionSorted(streams.Incoming, sort, now)
	out, _ := view.Classify(streams.Outgoing, now)
	view.SortEntries(out, sort)
	net := rate.NetRate(streams.Outgoing, streams.Incoming, now)

	snap := &types.WalletSnapshot{
		Account:          streams.Account,
		Now:              now,
		UpdatedAt:        nowT.UTC(),
		Sort:             sort,
		Incoming:         in,
		Outgoing:         out,
		NetRatePerSecond: net,
		NetRateDisplay:   rate.Format(net, c.symbol),
	}
	snap.ETag = computeETag(snap)
	c.metrics.ObserveCompute(time.Since(start))
	return snap
}

// History returns the merged audit trail of one stream. A log that cannot be read is
// logged and treated as empty.
func (c *Computer) History(ctx context.Context, streamID uint64) ([]types.Event, error) {
	logs, err := c.Logs(ctx)
	if err != nil {
		return nil, err
	}
	return history.BuildHistory(streamID, logs), nil
}

// Logs reads the four event logs concurrently, through the LogStore when configured.
func (c *Computer) Logs(ctx context.Context) (history.RawLogs, error) {
	results := make([][]types.RawEvent, len(types.EventKinds))
	g, gctx := errgroup.WithContext(ctx)
	for i, kind := range types.EventKinds {
		g.Go(func() error {
			results[i] = c.eventLog(gctx, kind)
			return gctx.Err()
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	logs := make(history.RawLogs, len(results))
	for i, kind := range types.EventKinds {
		logs[kind] = results[i]
	}
	return logs, nil
}

func (c *Computer) eventLog(ctx context.Context, kind types.EventKind) []types.RawEvent {
	if c.logs != nil {
		evs, ok, err := c.logs.Get(ctx, kind)
		if err != nil {
			slog.Warn("event cache read failed", "kind", kind, "err", err)
		} else if ok {
			return evs
		}
	}
	evs, err := c.src.EventLog(ctx, kind)
	if err != nil {
		if ctx.Err() == nil {
			slog.Warn("event log fetch failed", "kind", kind, "err", err)
			c.metrics.LedgerError("events")
		}
		return nil
	}
	if c.logs != nil {
		if err := c.logs.Put(ctx, kind, evs); err != nil {
			slog.Warn("event cache write failed", "kind", kind, "err", err)
		}
	}
	return evs
}

func computeETag(s *types.WalletSnapshot) string {
	h := sha1.New()
	h.Write([]byte(s.Account))
	h.Write([]byte{0})
	h.Write([]byte(s.Sort))
	h.Write([]byte{0})
	h.Write([]byte(strconv.FormatInt(s.Now, 10)))
	h.Write([]byte{0})
	for _, group := range [][]types.StreamEntry{s.Incoming.Active, s.Incoming.Completed, s.Outgoing} {
		for _, e := range group {
			h.Write([]byte(strconv.FormatUint(e.StreamID, 10)))
			h.Write([]byte(e.State))
			h.Write([]byte(strconv.FormatFloat(e.Claimable, 'g', -1, 64)))
			h.Write([]byte{0})
		}
		h.Write([]byte{1})
	}
	return hex.EncodeToString(h.Sum(nil))
}
