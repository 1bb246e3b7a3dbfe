package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"time"

	"github.com/lumera-labs/lumera-streams/pkg/clock"
	"github.com/lumera-labs/lumera-streams/pkg/config"
	"github.com/lumera-labs/lumera-streams/pkg/history"
	"github.com/lumera-labs/lumera-streams/pkg/ledger"
	"github.com/lumera-labs/lumera-streams/pkg/logging"
	"github.com/lumera-labs/lumera-streams/pkg/types"
	"github.com/lumera-labs/lumera-streams/pkg/vesting"
	"github.com/lumera-labs/lumera-streams/pkg/view"
	"github.com/lumera-labs/lumera-streams/pkg/wallet"
)

func main() {
	var (
		cfgPath     = flag.String("config", getEnv("STREAMS_CONFIG", ""), "Path to YAML config file")
		nodeURL     = flag.String("node", getEnv("STREAMS_NODE_URL", ""), "Fullnode REST base URL")
		moduleAddr  = flag.String("module", getEnv("STREAMS_MODULE_ADDRESS", ""), "Address that published the streaming module")
		account     = flag.String("account", getEnv("STREAMS_ACCOUNT", ""), "Wallet address to inspect")
		sortKey     = flag.String("sort", "most_recent", "Stream ordering")
		status      = flag.String("status", "active", "Incoming group: active|completed")
		streamID    = flag.Int64("history", -1, "Print the event history of this stream id instead of a snapshot")
		txHash      = flag.String("tx", "", "Look up a submitted transaction by hash")
		payload     = flag.String("payload", "", "Print an unsigned payload: create|accept|claim|cancel")
		counterpart = flag.String("to", "", "Recipient (create, cancel) or sender (accept, claim, cancel)")
		amount      = flag.String("amount", "", "Token amount for create, e.g. 1.5")
		duration    = flag.String("duration", "", "Stream duration for create, e.g. \"2 weeks\"")
		ledgerClock = flag.Bool("ledger-clock", false, "Evaluate at the latest ledger timestamp instead of the local clock")
		pretty      = flag.Bool("pretty", true, "Pretty-print JSON output")
	)
	flag.Parse()

	cfg, err := config.Read(*cfgPath)
	if err != nil {
		fatal("config load failed", err)
	}
	if *nodeURL != "" {
		cfg.Node.URL = *nodeURL
	}
	if *moduleAddr != "" {
		cfg.Module.Address = *moduleAddr
	}
	cfg.ApplyDefaults()
	if err := cfg.Validate(); err != nil {
		fatal("config invalid", err)
	}
	req := request{
		account: *account, sort: *sortKey, status: *status, streamID: *streamID, txHash: *txHash,
		payload: *payload, counterpart: *counterpart, amount: *amount, duration: *duration,
		ledgerClock: *ledgerClock, pretty: *pretty,
	}
	if err := run(cfg, req); err != nil {
		fatal("request failed", err)
	}
}

type request struct {
	account, sort, status        string
	streamID                     int64
	txHash, payload, counterpart string
	amount, duration             string
	ledgerClock, pretty          bool
}

// run owns the deferred cleanups so they complete before main exits.
func run(cfg *config.Config, req request) error {
	cfg.Logging.Console = true
	if _, closer, err := logging.Setup(cfg.Logging); err == nil {
		defer closer.Close()
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	client := ledger.NewClient(cfg.Node.URL, &http.Client{Timeout: cfg.Node.Timeout}, ledger.Module{
		Address:         cfg.Module.Address,
		Name:            cfg.Module.Name,
		ResourceAccount: cfg.Module.ResourceAccount,
	}).WithEventLimit(cfg.Events.Limit)

	var (
		out any
		err error
	)
	switch {
	case req.payload != "":
		out, err = buildPayload(client, req.payload, req.account, req.counterpart, req.amount, req.duration)
	case req.txHash != "":
		out, err = client.Transaction(ctx, req.txHash)
	case req.streamID >= 0:
		out, err = streamHistory(ctx, client, uint64(req.streamID), cfg.Token.Symbol)
	default:
		out, err = snapshot(ctx, client, cfg, req.account, req.sort, req.status, req.ledgerClock)
	}
	if err != nil {
		return err
	}

	enc := json.NewEncoder(os.Stdout)
	if req.pretty {
		enc.SetIndent("", "  ")
	}
	if err := enc.Encode(out); err != nil {
		return fmt.Errorf("encode: %w", err)
	}
	return nil
}

func snapshot(ctx context.Context, client *ledger.Client, cfg *config.Config, account, sortRaw, statusRaw string, useLedger bool) (any, error) {
	if account == "" {
		return nil, fmt.Errorf("-account is required")
	}
	key, ok := view.ParseSortKey(sortRaw)
	if !ok {
		return nil, fmt.Errorf("unknown sort %q", sortRaw)
	}
	st, ok := view.ParseFilterStatus(statusRaw)
	if !ok {
		return nil, fmt.Errorf("unknown status %q", statusRaw)
	}
	var clk clock.Clock = clock.System{}
	if useLedger {
		t, err := client.LedgerTime(ctx)
		if err != nil {
			return nil, err
		}
		clk = clock.Fixed(t)
	}
	comp := wallet.NewComputer(client, wallet.Options{Clock: clk, Symbol: cfg.Token.Symbol})
	snap, err := comp.ComputeSnapshot(ctx, account, key)
	if err != nil {
		return nil, err
	}
	return struct {
		Account   string              `json:"account"`
		Now       int64               `json:"now"`
		Sort      string              `json:"sort"`
		Status    types.FilterStatus  `json:"status"`
		Incoming  []types.StreamEntry `json:"incoming"`
		Outgoing  []types.StreamEntry `json:"outgoing"`
		Skipped   int                 `json:"skipped,omitempty"`
		NetRate   float64             `json:"net_rate_per_second"`
		RateLabel string              `json:"net_rate"`
	}{snap.Account, snap.Now, key.Label(), st, view.Select(snap.Incoming, st), snap.Outgoing,
		snap.Incoming.Skipped, snap.NetRatePerSecond, snap.NetRateDisplay}, nil
}

func streamHistory(ctx context.Context, client *ledger.Client, id uint64, symbol string) (any, error) {
	events, err := wallet.NewComputer(client, wallet.Options{Symbol: symbol}).History(ctx, id)
	if err != nil {
		return nil, err
	}
	lines := make([]string, 0, len(events))
	for _, ev := range events {
		lines = append(lines, time.Unix(ev.Timestamp, 0).UTC().Format(time.RFC3339)+" "+history.Describe(ev, symbol))
	}
	return struct {
		StreamID uint64         `json:"stream_id"`
		Totals   history.Totals `json:"totals"`
		Events   []types.Event  `json:"events"`
		Lines    []string       `json:"lines"`
	}{id, history.Summarize(events), events, lines}, nil
}

func buildPayload(client *ledger.Client, kind, account, counterpart, amount, duration string) (any, error) {
	switch kind {
	case "create":
		base, err := vesting.ParseDisplayAmount(amount)
		if err != nil {
			return nil, err
		}
		secs, err := vesting.ParseDuration(duration)
		if err != nil {
			return nil, err
		}
		return client.CreateStreamPayload(counterpart, base, secs)
	case "accept":
		return client.AcceptStreamPayload(counterpart), nil
	case "claim":
		return client.ClaimStreamPayload(counterpart), nil
	case "cancel":
		// account is the sender when cancelling, counterpart the recipient
		return client.CancelStreamPayload(account, counterpart), nil
	default:
		return nil, fmt.Errorf("unknown payload %q", kind)
	}
}

func fatal(msg string, err error) {
	slog.Error(msg, "err", err)
	os.Exit(1)
}

func getEnv(k, def string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return def
}
