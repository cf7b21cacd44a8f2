package market

import (
	"context"
	"strings"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// withdrawalAliases folds the backend's mixed-case and Arabic
// withdrawal status spellings into canonical values.
var withdrawalAliases = map[string]WithdrawalStatus{
	"pending":      WithdrawalPending,
	"approved":     WithdrawalApproved,
	"rejected":     WithdrawalRejected,
	"قيد الانتظار": WithdrawalPending,
	"موافق عليه":   WithdrawalApproved,
	"مرفوض":        WithdrawalRejected,
}

// NormalizeWithdrawalStatus maps a raw status value to its canonical
// form. Unknown values map to WithdrawalUnknown, never an error.
func NormalizeWithdrawalStatus(raw string) WithdrawalStatus {
	key := strings.ToLower(strings.TrimSpace(raw))
	if s, ok := withdrawalAliases[key]; ok {
		return s
	}
	if s, ok := withdrawalAliases[strings.TrimSpace(raw)]; ok {
		return s
	}
	return WithdrawalUnknown
}

// GetWallet fetches the server-computed wallet snapshot. The balance is
// never derived locally.
func (c *Client) GetWallet(ctx context.Context) (*Wallet, error) {
	var w Wallet
	if err := c.get(ctx, "/api/provider/wallet", &w); err != nil {
		return nil, err
	}
	return &w, nil
}

// ListWithdrawals returns the provider's withdrawal history with
// statuses normalized on decode.
func (c *Client) ListWithdrawals(ctx context.Context) ([]Withdrawal, error) {
	var wire []withdrawalWire
	if err := c.get(ctx, "/api/provider/withdrawals", &wire); err != nil {
		return nil, err
	}
	out := make([]Withdrawal, len(wire))
	for i, w := range wire {
		out[i] = w.toWithdrawal()
	}
	return out, nil
}

// withdrawalRequest carries an idempotency key so a retried request
// does not create a duplicate record server-side.
type withdrawalRequest struct {
	Amount         string `json:"amount"`
	Method         string `json:"method"`
	IdempotencyKey string `json:"idempotency_key"`
}

// RequestWithdrawal asks the server to create a withdrawal request and
// returns the created record.
func (c *Client) RequestWithdrawal(ctx context.Context, amount decimal.Decimal, method string) (*Withdrawal, error) {
	req := withdrawalRequest{
		Amount:         amount.String(),
		Method:         method,
		IdempotencyKey: uuid.New().String(),
	}
	var wire withdrawalWire
	if err := c.post(ctx, "/api/provider/withdrawals", req, &wire); err != nil {
		return nil, err
	}
	w := wire.toWithdrawal()
	return &w, nil
}

// GetProvider fetches the provider profile, including assigned
// categories that gate open-order visibility.
func (c *Client) GetProvider(ctx context.Context) (*Provider, error) {
	var p Provider
	if err := c.get(ctx, "/api/provider/profile", &p); err != nil {
		return nil, err
	}
	return &p, nil
}
