// Package ledger reads the streaming module's state from a fullnode REST API and builds its
// entry-function payloads.
package ledger

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/lumera-labs/lumera-streams/pkg/types"
	"github.com/lumera-labs/lumera-streams/pkg/vesting"
)

// ErrUpstream marks failures reported by the fullnode (non-200 responses).
var ErrUpstream = errors.New("ledger upstream error")

// Module locates the streaming module on chain.
type Module struct {
	// Address is the account that published the module.
	Address string
	// Name is the module name, e.g. "pay_me_a_river".
	Name string
	// ResourceAccount holds the ModuleEventStore resource.
	ResourceAccount string
}

func (m Module) function(name string) string {
	return m.Address + "::" + m.Name + "::" + name
}

type Client struct {
	base       string
	client     *http.Client
	module     Module
	eventLimit int
}

func NewClient(base string, httpClient *http.Client, module Module) *Client {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 10 * time.Second}
	}
	if module.ResourceAccount == "" {
		module.ResourceAccount = module.Address
	}
	return &Client{base: strings.TrimRight(base, "/"), client: httpClient, module: module, eventLimit: 10000}
}

// WithEventLimit sets the page size used when reading event logs.
func (c *Client) WithEventLimit(n int) *Client {
	if n > 0 {
		c.eventLimit = n
	}
	return c
}

func (c *Client) Module() Module { return c.module }

func (c *Client) do(req *http.Request, what string, out any) error {
	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("ledger %s: %w", what, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		b, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return fmt.Errorf("ledger %s: %w: status %d: %s", what, ErrUpstream, resp.StatusCode, strings.TrimSpace(string(b)))
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("ledger %s: decode: %w", what, err)
	}
	return nil
}

func (c *Client) get(ctx context.Context, u, what string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "application/json")
	return c.do(req, what, out)
}

type viewRequest struct {
	Function      string   `json:"function"`
	TypeArguments []string `json:"type_arguments"`
	Arguments     []string `json:"arguments"`
}

// View calls a view function of the streaming module and returns its raw return values.
func (c *Client) View(ctx context.Context, fn string, args ...string) ([]json.RawMessage, error) {
	if args == nil {
		args = []string{}
	}
	body, err := json.Marshal(viewRequest{Function: c.module.function(fn), TypeArguments: []string{}, Arguments: args})
	if err != nil {
		return nil, err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.base+"/v1/view", bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	var out []json.RawMessage
	if err := c.do(req, "view "+fn, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// OutgoingStreams returns the streams account is sending.
func (c *Client) OutgoingStreams(ctx context.Context, account string) ([]types.StreamRecord, error) {
	vals, err := c.View(ctx, "get_senders_streams", account)
	if err != nil {
		return nil, err
	}
	return decodeStreams(vals, func(counterparty string) (string, string) { return account, counterparty })
}

// IncomingStreams returns the streams account is receiving.
func (c *Client) IncomingStreams(ctx context.Context, account string) ([]types.StreamRecord, error) {
	vals, err := c.View(ctx, "get_receivers_streams", account)
	if err != nil {
		return nil, err
	}
	return decodeStreams(vals, func(counterparty string) (string, string) { return counterparty, account })
}

// decodeStreams reads the five parallel vectors returned by the stream view functions:
// counterparty addresses, start seconds, duration seconds, base-unit amounts, stream ids.
// Ragged vectors are cut to the shortest; rows with unparsable numbers are dropped.
func decodeStreams(vals []json.RawMessage, parties func(string) (sender, recipient string)) ([]types.StreamRecord, error) {
	if len(vals) < 5 {
		return nil, fmt.Errorf("ledger streams: expected 5 return values, got %d", len(vals))
	}
	cols := make([][]json.RawMessage, 5)
	n := -1
	for i := range cols {
		if err := json.Unmarshal(vals[i], &cols[i]); err != nil {
			return nil, fmt.Errorf("ledger streams: column %d: %w", i, err)
		}
		if n < 0 || len(cols[i]) < n {
			n = len(cols[i])
		}
	}
	out := make([]types.StreamRecord, 0, n)
	for i := 0; i < n; i++ {
		var addr string
		if err := json.Unmarshal(cols[0][i], &addr); err != nil {
			continue
		}
		start, ok1 := parseUint(cols[1][i])
		dur, ok2 := parseUint(cols[2][i])
		amt, ok3 := parseUint(cols[3][i])
		id, ok4 := parseUint(cols[4][i])
		if !ok1 || !ok2 || !ok3 || !ok4 {
			continue
		}
		sender, recipient := parties(addr)
		out = append(out, types.StreamRecord{
			Sender:          sender,
			Recipient:       recipient,
			TotalAmount:     vesting.ToDisplayAmount(amt),
			StartTimestamp:  int64(start),
			DurationSeconds: int64(dur),
			StreamID:        id,
		})
	}
	return out, nil
}

// EventLog reads one of the module's event stores.
func (c *Client) EventLog(ctx context.Context, kind types.EventKind) ([]types.RawEvent, error) {
	store := kind.Store()
	if store == "" {
		return nil, fmt.Errorf("ledger events: no store for kind %s", kind)
	}
	handle := c.module.Address + "::" + c.module.Name + "::ModuleEventStore"
	u := fmt.Sprintf("%s/v1/accounts/%s/events/%s/%s?limit=%d",
		c.base, url.PathEscape(c.module.ResourceAccount), url.PathEscape(handle), url.PathEscape(store), c.eventLimit)
	var raw []struct {
		SequenceNumber json.RawMessage            `json:"sequence_number"`
		Data           map[string]json.RawMessage `json:"data"`
	}
	if err := c.get(ctx, u, "events "+store, &raw); err != nil {
		return nil, err
	}
	out := make([]types.RawEvent, 0, len(raw))
	for _, r := range raw {
		out = append(out, decodeEvent(r.SequenceNumber, r.Data))
	}
	return out, nil
}

func decodeEvent(seq json.RawMessage, data map[string]json.RawMessage) types.RawEvent {
	ev := types.RawEvent{}
	if v, ok := parseUint(seq); ok {
		ev.SequenceNumber = v
	}
	if v, ok := optUint(data, "stream_id"); ok {
		ev.StreamID = &v
	}
	if v, ok := optUint(data, "timestamp"); ok {
		ev.Timestamp = int64(v)
	}
	if v, ok := optUint(data, "amount"); ok {
		ev.Amount = &v
	}
	if v, ok := optUint(data, "amount_to_sender"); ok {
		ev.AmountToSender = &v
	}
	if v, ok := optUint(data, "amount_to_receiver", "amount_to_recipient"); ok {
		ev.AmountToRecipient = &v
	}
	return ev
}

func optUint(data map[string]json.RawMessage, keys ...string) (uint64, bool) {
	for _, k := range keys {
		if raw, ok := data[k]; ok {
			return parseUint(raw)
		}
	}
	return 0, false
}

// parseUint accepts u64 values encoded either as JSON strings (the fullnode default) or numbers.
func parseUint(raw json.RawMessage) (uint64, bool) {
	if len(raw) == 0 {
		return 0, false
	}
	s := string(raw)
	if raw[0] == '"' {
		if err := json.Unmarshal(raw, &s); err != nil {
			return 0, false
		}
	}
	v, err := strconv.ParseUint(strings.TrimSpace(s), 10, 64)
	if err != nil {
		return 0, false
	}
	return v, true
}

// LedgerTime returns the timestamp of the latest committed ledger version.
func (c *Client) LedgerTime(ctx context.Context) (time.Time, error) {
	var out struct {
		LedgerTimestamp json.RawMessage `json:"ledger_timestamp"`
	}
	if err := c.get(ctx, c.base+"/v1", "ledger info", &out); err != nil {
		return time.Time{}, err
	}
	us, ok := parseUint(out.LedgerTimestamp)
	if !ok {
		return time.Time{}, fmt.Errorf("ledger info: bad ledger_timestamp %s", string(out.LedgerTimestamp))
	}
	return time.UnixMicro(int64(us)).UTC(), nil
}
