package ledger

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lumera-labs/lumera-streams/pkg/types"
)

var testModule = Module{Address: "0xcafe", Name: "pay_me_a_river", ResourceAccount: "0xbeef"}

func TestIncomingStreamsDecodesParallelVectors(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/v1/view", r.URL.Path)
		require.Equal(t, http.MethodPost, r.Method)
		var req viewRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "0xcafe::pay_me_a_river::get_receivers_streams", req.Function)
		assert.Equal(t, []string{"0xme"}, req.Arguments)
		_, _ = w.Write([]byte(`[
			["0xa", "0xb", "0xc"],
			["1000", "0", "bogus"],
			["120", "60", "10"],
			["12000000000", 150000000, "1"],
			["1", "2", "3", "4"]
		]`))
	}))
	defer ts.Close()

	c := NewClient(ts.URL, ts.Client(), testModule)
	recs, err := c.IncomingStreams(context.Background(), "0xme")
	require.NoError(t, err)
	require.Len(t, recs, 2)
	assert.Equal(t, types.StreamRecord{Sender: "0xa", Recipient: "0xme", TotalAmount: 120, StartTimestamp: 1000, DurationSeconds: 120, StreamID: 1}, recs[0])
	assert.Equal(t, 1.5, recs[1].TotalAmount)
	assert.Zero(t, recs[1].StartTimestamp)
}

func TestOutgoingStreamsAssignsParties(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`[["0xr"],["5"],["10"],["100000000"],["9"]]`))
	}))
	defer ts.Close()

	recs, err := NewClient(ts.URL, ts.Client(), testModule).OutgoingStreams(context.Background(), "0xme")
	require.NoError(t, err)
	require.Len(t, recs, 1)
	assert.Equal(t, "0xme", recs[0].Sender)
	assert.Equal(t, "0xr", recs[0].Recipient)
}

func TestViewUpstreamError(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "function not found", http.StatusBadRequest)
	}))
	defer ts.Close()

	_, err := NewClient(ts.URL, ts.Client(), testModule).IncomingStreams(context.Background(), "0xme")
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrUpstream))
	assert.Contains(t, err.Error(), "function not found")
}

func TestShortViewResponse(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`[[],[]]`))
	}))
	defer ts.Close()

	_, err := NewClient(ts.URL, ts.Client(), testModule).IncomingStreams(context.Background(), "0xme")
	require.Error(t, err)
}

func TestEventLog(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/accounts/0xbeef/events/0xcafe::pay_me_a_river::ModuleEventStore/stream_close_events", r.URL.Path)
		assert.Equal(t, "25", r.URL.Query().Get("limit"))
		_, _ = w.Write([]byte(`[
			{"sequence_number":"0","data":{"stream_id":"7","timestamp":"500","amount_to_sender":"100","amount_to_receiver":"200"}},
			{"sequence_number":"1","data":{"timestamp":"501"}}
		]`))
	}))
	defer ts.Close()

	c := NewClient(ts.URL, ts.Client(), testModule).WithEventLimit(25)
	evs, err := c.EventLog(context.Background(), types.EventCancelled)
	require.NoError(t, err)
	require.Len(t, evs, 2)
	require.NotNil(t, evs[0].StreamID)
	assert.Equal(t, uint64(7), *evs[0].StreamID)
	assert.Equal(t, int64(500), evs[0].Timestamp)
	assert.Equal(t, uint64(100), *evs[0].AmountToSender)
	assert.Equal(t, uint64(200), *evs[0].AmountToRecipient)
	assert.Nil(t, evs[1].StreamID)
	assert.Equal(t, uint64(1), evs[1].SequenceNumber)

	_, err = c.EventLog(context.Background(), types.EventUnknown)
	assert.Error(t, err)
}

func TestLedgerTime(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"chain_id":2,"ledger_version":"10","ledger_timestamp":"1700000000123456"}`))
	}))
	defer ts.Close()

	got, err := NewClient(ts.URL, ts.Client(), testModule).LedgerTime(context.Background())
	require.NoError(t, err)
	assert.Equal(t, time.UnixMicro(1700000000123456).UTC(), got)
}
