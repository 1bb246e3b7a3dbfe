package ledger

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strconv"
)

// EntryFunctionPayload is an unsigned call to one of the module's entry functions.
type EntryFunctionPayload struct {
	Type          string   `json:"type"`
	Function      string   `json:"function"`
	TypeArguments []string `json:"type_arguments"`
	Arguments     []string `json:"arguments"`
}

// Signer signs and submits a payload on behalf of the connected wallet and returns the
// transaction hash. Key handling lives entirely behind this interface.
type Signer interface {
	SignAndSubmit(ctx context.Context, payload EntryFunctionPayload) (string, error)
}

// TransactionResult is the observed outcome of a submitted transaction.
type TransactionResult struct {
	Hash     string `json:"hash"`
	Pending  bool   `json:"pending"`
	Success  bool   `json:"success"`
	VMStatus string `json:"vm_status,omitempty"`
	Version  uint64 `json:"version,omitempty"`
}

var ErrInvalidPayload = errors.New("invalid transaction payload")

func (c *Client) payload(fn string, args ...string) EntryFunctionPayload {
	return EntryFunctionPayload{
		Type:          "entry_function_payload",
		Function:      c.module.function(fn),
		TypeArguments: []string{},
		Arguments:     args,
	}
}

// CreateStreamPayload locks amount base units for recipient, vesting over durationSeconds.
func (c *Client) CreateStreamPayload(recipient string, amount uint64, durationSeconds int64) (EntryFunctionPayload, error) {
	if recipient == "" {
		return EntryFunctionPayload{}, fmt.Errorf("%w: missing recipient", ErrInvalidPayload)
	}
	if amount == 0 {
		return EntryFunctionPayload{}, fmt.Errorf("%w: amount must be positive", ErrInvalidPayload)
	}
	if durationSeconds <= 0 {
		return EntryFunctionPayload{}, fmt.Errorf("%w: duration must be positive", ErrInvalidPayload)
	}
	return c.payload("create_stream", recipient,
		strconv.FormatUint(amount, 10), strconv.FormatInt(durationSeconds, 10)), nil
}

// AcceptStreamPayload starts vesting of the pending stream from sender.
func (c *Client) AcceptStreamPayload(sender string) EntryFunctionPayload {
	return c.payload("accept_stream", sender)
}

// ClaimStreamPayload withdraws the vested part of the stream from sender.
func (c *Client) ClaimStreamPayload(sender string) EntryFunctionPayload {
	return c.payload("claim_stream", sender)
}

// CancelStreamPayload rejects (recipient side) or cancels (sender side) a stream.
func (c *Client) CancelStreamPayload(sender, recipient string) EntryFunctionPayload {
	return c.payload("cancel_stream", sender, recipient)
}

// Submit hands payload to signer and reports the transaction as pending. The state
// change becomes visible on the next stream fetch.
func (c *Client) Submit(ctx context.Context, signer Signer, payload EntryFunctionPayload) (TransactionResult, error) {
	if signer == nil {
		return TransactionResult{}, errors.New("ledger submit: no signer")
	}
	hash, err := signer.SignAndSubmit(ctx, payload)
	if err != nil {
		return TransactionResult{}, fmt.Errorf("ledger submit %s: %w", payload.Function, err)
	}
	return TransactionResult{Hash: hash, Pending: true}, nil
}

// Transaction looks up a submitted transaction by hash.
func (c *Client) Transaction(ctx context.Context, hash string) (TransactionResult, error) {
	var out struct {
		Type     string `json:"type"`
		Hash     string `json:"hash"`
		Success  bool   `json:"success"`
		VMStatus string `json:"vm_status"`
		Version  string `json:"version"`
	}
	if err := c.get(ctx, c.base+"/v1/transactions/by_hash/"+url.PathEscape(hash), "transaction", &out); err != nil {
		return TransactionResult{}, err
	}
	res := TransactionResult{
		Hash:     out.Hash,
		Pending:  out.Type == "pending_transaction",
		Success:  out.Success,
		VMStatus: out.VMStatus,
	}
	if v, err := strconv.ParseUint(out.Version, 10, 64); err == nil {
		res.Version = v
	}
	return res, nil
}
