package orders

import (
	"context"
	"errors"
	"math"
	"path/filepath"
	"testing"
	"time"

	"partsdesk/config"
	"partsdesk/market"
	"partsdesk/status"
	"partsdesk/store"
)

func testDB(t *testing.T) *store.DB {
	t.Helper()
	cfg := &config.CacheConfig{
		Driver: "sqlite",
		SQLite: config.SQLiteConfig{Path: filepath.Join(t.TempDir(), "orders.db")},
	}
	db, err := store.Open(cfg)
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

func draft() QuoteDraft {
	return QuoteDraft{Price: 150.5, PartStatus: market.PartNew, PartSizeCategory: market.SizeSmall}
}

func quoteFixture(t *testing.T, st status.Status) (*QuoteEngine, *fakeBackend, *Repository) {
	t.Helper()
	be := &fakeBackend{open: []market.Order{order("ORD-1", st, time.Now())}}
	repo := NewRepository(be, nil, nil, nil, nil)
	if err := repo.Refresh(context.Background(), ViewOpen); err != nil {
		t.Fatal(err)
	}
	return NewQuoteEngine(repo, be, nil), be, repo
}

func TestSubmitQuote_ValidationBeforeNetwork(t *testing.T) {
	cases := []struct {
		name  string
		mod   func(*QuoteDraft)
		want  error
	}{
		{"negative price", func(d *QuoteDraft) { d.Price = -1 }, ErrBadPrice},
		{"nan price", func(d *QuoteDraft) { d.Price = math.NaN() }, ErrBadPrice},
		{"inf price", func(d *QuoteDraft) { d.Price = math.Inf(1) }, ErrBadPrice},
		{"bad part status", func(d *QuoteDraft) { d.PartStatus = "refurbished" }, ErrBadPart},
		{"bad size", func(d *QuoteDraft) { d.PartSizeCategory = "giant" }, ErrBadSize},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			eng, be, _ := quoteFixture(t, status.Pending)
			d := draft()
			tc.mod(&d)
			_, err := eng.SubmitQuote(context.Background(), "ORD-1", d, nil)
			if !errors.Is(err, tc.want) {
				t.Fatalf("err = %v, want %v", err, tc.want)
			}
			if be.quoteCalls != 0 {
				t.Fatal("invalid draft reached the backend")
			}
		})
	}
}

func TestSubmitQuote_ZeroPriceAllowed(t *testing.T) {
	eng, be, _ := quoteFixture(t, status.Pending)
	d := draft()
	d.Price = 0
	if _, err := eng.SubmitQuote(context.Background(), "ORD-1", d, nil); err != nil {
		t.Fatal(err)
	}
	if be.quoteCalls != 1 {
		t.Fatalf("quoteCalls = %d", be.quoteCalls)
	}
}

func TestSubmitQuote_OptimisticPendingToQuoted(t *testing.T) {
	eng, be, repo := quoteFixture(t, status.Pending)
	// Fail the reconcile refetch so the optimistic patch stays visible.
	be.mu.Lock()
	be.openErr = errors.New("backend busy")
	be.mu.Unlock()

	created, err := eng.SubmitQuote(context.Background(), "ORD-1", draft(), nil)
	if err != nil {
		t.Fatal(err)
	}
	if created.ID != "q-created" {
		t.Fatalf("created = %+v", created)
	}
	got := repo.Open()
	if got[0].Status != status.Quoted {
		t.Fatalf("status = %s, want optimistic quoted", got[0].Status)
	}
	if len(got[0].Quotes) != 1 || got[0].Quotes[0].ID != "q-created" {
		t.Fatalf("quote not appended: %+v", got[0].Quotes)
	}
}

func TestSubmitQuote_AppendsAndRefetches(t *testing.T) {
	be := &fakeBackend{open: []market.Order{order("ORD-1", status.Pending, time.Now())}}
	repo := NewRepository(be, nil, nil, nil, nil)
	if err := repo.Refresh(context.Background(), ViewOpen); err != nil {
		t.Fatal(err)
	}
	// Simulate the server recording the quote: subsequent fetches return
	// the order as quoted with one quote attached.
	be.mu.Lock()
	be.open[0].Status = status.Quoted
	be.open[0].Quotes = []market.Quote{{ID: "q-created", OrderNumber: "ORD-1"}}
	be.bids = append([]market.Order(nil), be.open...)
	be.mu.Unlock()

	eng := NewQuoteEngine(repo, be, nil)
	if _, err := eng.SubmitQuote(context.Background(), "ORD-1", draft(), nil); err != nil {
		t.Fatal(err)
	}

	open := repo.Open()
	if open[0].Status != status.Quoted || len(open[0].Quotes) != 1 {
		t.Fatalf("open after quote = %+v", open[0])
	}
	if bids := repo.MyBids(); len(bids) != 1 || bids[0].OrderNumber != "ORD-1" {
		t.Fatalf("bids view not refreshed: %+v", bids)
	}
	if be.openCalls < 2 || be.bidsCalls < 1 {
		t.Fatalf("expected reconcile refetches, got open=%d bids=%d", be.openCalls, be.bidsCalls)
	}
}

func TestSubmitQuote_RequoteWhileQuoted(t *testing.T) {
	eng, be, _ := quoteFixture(t, status.Quoted)
	if _, err := eng.SubmitQuote(context.Background(), "ORD-1", draft(), nil); err != nil {
		t.Fatal(err)
	}
	if be.quoteCalls != 1 {
		t.Fatalf("quoteCalls = %d", be.quoteCalls)
	}
}

func TestSubmitQuote_RejectedAfterAcceptance(t *testing.T) {
	eng, be, _ := quoteFixture(t, status.PaymentPending)
	_, err := eng.SubmitQuote(context.Background(), "ORD-1", draft(), nil)
	if !errors.Is(err, ErrNotQuotable) {
		t.Fatalf("err = %v, want ErrNotQuotable", err)
	}
	if be.quoteCalls != 0 {
		t.Fatal("closed order reached the backend")
	}
}

func TestSubmitQuote_NetworkFailureLeavesCacheUntouched(t *testing.T) {
	eng, be, repo := quoteFixture(t, status.Pending)
	be.mu.Lock()
	be.quoteErr = errors.New("502")
	be.mu.Unlock()

	_, err := eng.SubmitQuote(context.Background(), "ORD-1", draft(), nil)
	if err == nil {
		t.Fatal("expected error")
	}
	got := repo.Open()
	if got[0].Status != status.Pending || len(got[0].Quotes) != 0 {
		t.Fatalf("cache mutated on failure: %+v", got[0])
	}
}
