package wallet

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/shopspring/decimal"

	"partsdesk/cache"
	"partsdesk/market"
	"partsdesk/store"
)

const walletTTL = 10 * time.Minute

// Backend is the wallet surface of the marketplace client.
type Backend interface {
	GetWallet(ctx context.Context) (*market.Wallet, error)
	ListWithdrawals(ctx context.Context) ([]market.Withdrawal, error)
	RequestWithdrawal(ctx context.Context, amount decimal.Decimal, method string) (*market.Withdrawal, error)
}

// Emitter receives wallet change events.
type Emitter interface {
	WalletUpdated(balance decimal.Decimal)
}

type nullEmitter struct{}

func (nullEmitter) WalletUpdated(decimal.Decimal) {}

// Manager caches the server-authoritative wallet. The balance is only
// ever replaced by a refetch; nothing here computes money locally.
type Manager struct {
	mu          sync.RWMutex
	backend     Backend
	db          *store.DB
	hot         *cache.RedisStore
	emitter     Emitter
	wallet      *market.Wallet
	withdrawals []market.Withdrawal
}

func NewManager(backend Backend, db *store.DB, hot *cache.RedisStore, emitter Emitter) *Manager {
	if emitter == nil {
		emitter = nullEmitter{}
	}
	return &Manager{backend: backend, db: db, hot: hot, emitter: emitter}
}

// WarmStart loads the last cached wallet snapshot and the local
// withdrawals mirror so reads work before the first refresh.
func (m *Manager) WarmStart(ctx context.Context) {
	if m.hot != nil {
		if payload, err := m.hot.GetWallet(ctx); err == nil && payload != nil {
			var w market.Wallet
			if err := json.Unmarshal(payload, &w); err == nil {
				m.mu.Lock()
				m.wallet = &w
				m.mu.Unlock()
			}
		}
	}
	if m.db != nil {
		recs, err := m.db.ListWithdrawals()
		if err != nil {
			log.Printf("wallet: load withdrawals mirror: %v", err)
			return
		}
		list := make([]market.Withdrawal, 0, len(recs))
		for _, r := range recs {
			list = append(list, recordToWithdrawal(r))
		}
		m.mu.Lock()
		m.withdrawals = list
		m.mu.Unlock()
	}
}

// Refresh refetches the wallet and withdrawal history. On failure the
// cached copy is retained.
func (m *Manager) Refresh(ctx context.Context) error {
	w, err := m.backend.GetWallet(ctx)
	if err != nil {
		return fmt.Errorf("wallet: refresh: %w", err)
	}
	list, err := m.backend.ListWithdrawals(ctx)
	if err != nil {
		return fmt.Errorf("wallet: withdrawals: %w", err)
	}
	if ctx.Err() != nil {
		return ctx.Err()
	}

	m.mu.Lock()
	m.wallet = w
	m.withdrawals = list
	m.mu.Unlock()

	m.persist(ctx, w, list)
	m.emitter.WalletUpdated(w.Balance)
	return nil
}

func (m *Manager) persist(ctx context.Context, w *market.Wallet, list []market.Withdrawal) {
	if m.db != nil {
		for _, wd := range list {
			rec := withdrawalToRecord(wd)
			if err := m.db.UpsertWithdrawal(&rec); err != nil {
				log.Printf("wallet: mirror withdrawal %s: %v", wd.ID, err)
			}
		}
	}
	if m.hot != nil {
		payload, err := json.Marshal(w)
		if err != nil {
			return
		}
		if err := m.hot.SetWallet(ctx, payload, walletTTL); err != nil {
			log.Printf("wallet: cache snapshot: %v", err)
		}
	}
}

// Balance returns the cached balance and whether a wallet has been
// loaded at all.
func (m *Manager) Balance() (decimal.Decimal, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.wallet == nil {
		return decimal.Zero, false
	}
	return m.wallet.Balance, true
}

// Wallet returns a copy of the cached wallet, or nil before first load.
func (m *Manager) Wallet() *market.Wallet {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.wallet == nil {
		return nil
	}
	w := *m.wallet
	return &w
}

// Withdrawals returns a copy of the cached withdrawal history.
func (m *Manager) Withdrawals() []market.Withdrawal {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]market.Withdrawal, len(m.withdrawals))
	copy(out, m.withdrawals)
	return out
}

// RequestWithdrawal submits a new withdrawal request and refreshes the
// wallet afterwards. Requests are create-only; approval and rejection
// happen server-side and arrive via refetch.
func (m *Manager) RequestWithdrawal(ctx context.Context, amount decimal.Decimal, method string) (*market.Withdrawal, error) {
	if amount.Sign() <= 0 {
		return nil, fmt.Errorf("wallet: amount must be positive")
	}
	if bal, ok := m.Balance(); ok && amount.GreaterThan(bal) {
		return nil, fmt.Errorf("wallet: amount exceeds balance %s", bal)
	}

	wd, err := m.backend.RequestWithdrawal(ctx, amount, method)
	if err != nil {
		return nil, fmt.Errorf("wallet: request: %w", err)
	}
	if err := m.Refresh(ctx); err != nil {
		log.Printf("wallet: post-request refresh: %v", err)
	}
	return wd, nil
}

func withdrawalToRecord(w market.Withdrawal) store.WithdrawalRecord {
	rec := store.WithdrawalRecord{
		ID:          w.ID,
		Amount:      w.Amount.String(),
		Method:      w.Method,
		Status:      string(w.Status),
		RequestedAt: w.RequestedAt,
	}
	if w.ProcessedAt != nil {
		rec.ProcessedAt = w.ProcessedAt
	}
	return rec
}

func recordToWithdrawal(r store.WithdrawalRecord) market.Withdrawal {
	amount, err := decimal.NewFromString(r.Amount)
	if err != nil {
		amount = decimal.Zero
	}
	return market.Withdrawal{
		ID:          r.ID,
		Amount:      amount,
		Method:      r.Method,
		Status:      market.NormalizeWithdrawalStatus(r.Status),
		RequestedAt: r.RequestedAt,
		ProcessedAt: r.ProcessedAt,
	}
}
