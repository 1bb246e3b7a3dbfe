package ledger

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubSigner struct {
	got  EntryFunctionPayload
	hash string
	err  error
}

func (s *stubSigner) SignAndSubmit(_ context.Context, p EntryFunctionPayload) (string, error) {
	s.got = p
	return s.hash, s.err
}

func TestPayloadBuilders(t *testing.T) {
	c := NewClient("http://node", nil, testModule)

	p, err := c.CreateStreamPayload("0xr", 150_000_000, 3600)
	require.NoError(t, err)
	assert.Equal(t, "entry_function_payload", p.Type)
	assert.Equal(t, "0xcafe::pay_me_a_river::create_stream", p.Function)
	assert.Equal(t, []string{"0xr", "150000000", "3600"}, p.Arguments)

	_, err = c.CreateStreamPayload("", 1, 1)
	assert.ErrorIs(t, err, ErrInvalidPayload)
	_, err = c.CreateStreamPayload("0xr", 0, 1)
	assert.ErrorIs(t, err, ErrInvalidPayload)
	_, err = c.CreateStreamPayload("0xr", 1, 0)
	assert.ErrorIs(t, err, ErrInvalidPayload)

	assert.Equal(t, []string{"0xs"}, c.AcceptStreamPayload("0xs").Arguments)
	assert.Equal(t, "0xcafe::pay_me_a_river::claim_stream", c.ClaimStreamPayload("0xs").Function)
	assert.Equal(t, []string{"0xs", "0xr"}, c.CancelStreamPayload("0xs", "0xr").Arguments)
}

func TestSubmit(t *testing.T) {
	c := NewClient("http://node", nil, testModule)
	s := &stubSigner{hash: "0xhash"}
	res, err := c.Submit(context.Background(), s, c.ClaimStreamPayload("0xs"))
	require.NoError(t, err)
	assert.Equal(t, TransactionResult{Hash: "0xhash", Pending: true}, res)
	assert.Equal(t, "0xcafe::pay_me_a_river::claim_stream", s.got.Function)

	_, err = c.Submit(context.Background(), &stubSigner{err: errors.New("user rejected")}, c.ClaimStreamPayload("0xs"))
	assert.ErrorContains(t, err, "user rejected")
	_, err = c.Submit(context.Background(), nil, c.ClaimStreamPayload("0xs"))
	assert.Error(t, err)
}

func TestTransaction(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/transactions/by_hash/0xhash", r.URL.Path)
		_, _ = w.Write([]byte(`{"type":"user_transaction","hash":"0xhash","success":true,"vm_status":"Executed successfully","version":"42"}`))
	}))
	defer ts.Close()

	res, err := NewClient(ts.URL, ts.Client(), testModule).Transaction(context.Background(), "0xhash")
	require.NoError(t, err)
	assert.True(t, res.Success)
	assert.False(t, res.Pending)
	assert.Equal(t, uint64(42), res.Version)
}
