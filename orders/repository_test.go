package orders

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"partsdesk/market"
	"partsdesk/status"
)

type fakeBackend struct {
	mu             sync.Mutex
	open           []market.Order
	bids           []market.Order
	accepted       []market.Order
	single         *market.Order
	openErr        error
	quoteErr       error
	statusErr      error
	getErr         error
	quoteResult    *market.Quote
	openCalls      int
	bidsCalls      int
	acceptedCalls  int
	quoteCalls     int
	statusCalls    int
	getCalls       int
	lastStatus     status.Status
	lastCategories []string
	onOpenFetch    func()
}

func (f *fakeBackend) OpenOrders(ctx context.Context, categories []string) ([]market.Order, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.openCalls++
	f.lastCategories = append([]string(nil), categories...)
	if f.onOpenFetch != nil {
		f.onOpenFetch()
	}
	if f.openErr != nil {
		return nil, f.openErr
	}
	return append([]market.Order(nil), f.open...), nil
}

func (f *fakeBackend) GetOrder(ctx context.Context, orderNumber string) (*market.Order, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.getCalls++
	if f.getErr != nil {
		return nil, f.getErr
	}
	if f.single != nil && f.single.OrderNumber == orderNumber {
		o := *f.single
		return &o, nil
	}
	for _, list := range [][]market.Order{f.open, f.bids, f.accepted} {
		for i := range list {
			if list[i].OrderNumber == orderNumber {
				o := list[i]
				return &o, nil
			}
		}
	}
	return nil, errors.New("order not found")
}

func (f *fakeBackend) MyBids(ctx context.Context) ([]market.Order, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.bidsCalls++
	return append([]market.Order(nil), f.bids...), nil
}

func (f *fakeBackend) AcceptedOrders(ctx context.Context) ([]market.Order, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.acceptedCalls++
	return append([]market.Order(nil), f.accepted...), nil
}

func (f *fakeBackend) SubmitQuote(ctx context.Context, orderNumber string, q market.Quote, _ []market.MediaUpload) (*market.Quote, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.quoteCalls++
	if f.quoteErr != nil {
		return nil, f.quoteErr
	}
	if f.quoteResult != nil {
		return f.quoteResult, nil
	}
	q.ID = "q-created"
	return &q, nil
}

func (f *fakeBackend) UpdateStatus(ctx context.Context, orderNumber string, next status.Status) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.statusCalls++
	if f.statusErr != nil {
		return f.statusErr
	}
	f.lastStatus = next
	for i := range f.accepted {
		if f.accepted[i].OrderNumber == orderNumber {
			f.accepted[i].Status = next
		}
	}
	return nil
}

func order(num string, st status.Status, created time.Time) market.Order {
	return market.Order{
		OrderNumber:    num,
		Status:         st,
		DeliveryMethod: status.DeliveryShipping,
		CreatedAt:      created,
	}
}

func TestRefresh_PopulatesView(t *testing.T) {
	be := &fakeBackend{open: []market.Order{order("ORD-1", status.Pending, time.Now())}}
	repo := NewRepository(be, nil, nil, nil, nil)

	if err := repo.Refresh(context.Background(), ViewOpen); err != nil {
		t.Fatal(err)
	}
	if got := repo.Open(); len(got) != 1 || got[0].OrderNumber != "ORD-1" {
		t.Fatalf("Open() = %+v", got)
	}
}

func TestRefresh_KeepsStaleCacheOnFailure(t *testing.T) {
	be := &fakeBackend{open: []market.Order{order("ORD-1", status.Pending, time.Now())}}
	repo := NewRepository(be, nil, nil, nil, nil)
	if err := repo.Refresh(context.Background(), ViewOpen); err != nil {
		t.Fatal(err)
	}

	be.mu.Lock()
	be.openErr = errors.New("backend down")
	be.mu.Unlock()
	err := repo.Refresh(context.Background(), ViewOpen)
	if err == nil {
		t.Fatal("expected error")
	}
	if got := repo.Open(); len(got) != 1 || got[0].OrderNumber != "ORD-1" {
		t.Fatalf("stale cache lost: %+v", got)
	}
}

func TestRefresh_CancelledContextNotApplied(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	be := &fakeBackend{open: []market.Order{order("ORD-NEW", status.Pending, time.Now())}}
	be.onOpenFetch = cancel

	repo := NewRepository(be, nil, nil, nil, nil)
	err := repo.Refresh(ctx, ViewOpen)
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("err = %v, want context.Canceled", err)
	}
	if got := repo.Open(); len(got) != 0 {
		t.Fatalf("cancelled refresh mutated cache: %+v", got)
	}
}

func TestList_SortedNewestFirstCopy(t *testing.T) {
	now := time.Now()
	be := &fakeBackend{open: []market.Order{
		order("ORD-old", status.Pending, now.Add(-2*time.Hour)),
		order("ORD-new", status.Pending, now),
		order("ORD-mid", status.Pending, now.Add(-time.Hour)),
	}}
	repo := NewRepository(be, nil, nil, nil, nil)
	if err := repo.Refresh(context.Background(), ViewOpen); err != nil {
		t.Fatal(err)
	}

	got := repo.Open()
	want := []string{"ORD-new", "ORD-mid", "ORD-old"}
	for i, w := range want {
		if got[i].OrderNumber != w {
			t.Fatalf("order %d = %s, want %s", i, got[i].OrderNumber, w)
		}
	}

	// Mutating the returned slice must not touch the projection.
	got[0].Status = status.Cancelled
	if again := repo.Open(); again[0].Status == status.Cancelled {
		t.Fatal("List returned a live reference into the cache")
	}
}

func TestApplyOptimistic(t *testing.T) {
	be := &fakeBackend{open: []market.Order{order("ORD-1", status.Pending, time.Now())}}
	repo := NewRepository(be, nil, nil, nil, nil)
	if err := repo.Refresh(context.Background(), ViewOpen); err != nil {
		t.Fatal(err)
	}

	if !repo.ApplyOptimistic(ViewOpen, "ORD-1", func(o *market.Order) { o.Status = status.Quoted }) {
		t.Fatal("patch did not find order")
	}
	if got := repo.Open(); got[0].Status != status.Quoted {
		t.Fatalf("status = %s, want quoted", got[0].Status)
	}
	if repo.ApplyOptimistic(ViewOpen, "ORD-missing", func(o *market.Order) {}) {
		t.Fatal("patch applied to missing order")
	}
}

func TestMutateThenReconcile_FailureDiscardsPatch(t *testing.T) {
	be := &fakeBackend{open: []market.Order{order("ORD-1", status.Pending, time.Now())}}
	repo := NewRepository(be, nil, nil, nil, nil)
	if err := repo.Refresh(context.Background(), ViewOpen); err != nil {
		t.Fatal(err)
	}

	callErr := errors.New("rejected")
	err := repo.MutateThenReconcile(context.Background(), ViewOpen, "ORD-1",
		func(o *market.Order) { o.Status = status.Quoted },
		func(context.Context) error { return callErr })
	if !errors.Is(err, callErr) {
		t.Fatalf("err = %v", err)
	}
	// The canonical refetch restores the server truth, no rollback math.
	if got := repo.Open(); got[0].Status != status.Pending {
		t.Fatalf("status = %s, want pending restored from server", got[0].Status)
	}
}

func TestWarmStart_FromStoreSnapshot(t *testing.T) {
	db := testDB(t)
	be := &fakeBackend{open: []market.Order{{
		OrderNumber: "ORD-1",
		Status:      status.Pending,
		Quotes:      []market.Quote{{ID: "q1", Price: decimal.NewFromInt(100)}},
		CreatedAt:   time.Now().UTC(),
	}}}
	repo := NewRepository(be, db, nil, nil, nil)
	if err := repo.Refresh(context.Background(), ViewOpen); err != nil {
		t.Fatal(err)
	}

	// A fresh repository over the same store sees the snapshot without
	// touching the backend.
	cold := NewRepository(&fakeBackend{}, db, nil, nil, nil)
	cold.WarmStart(context.Background())
	got := cold.Open()
	if len(got) != 1 || got[0].OrderNumber != "ORD-1" {
		t.Fatalf("warm start = %+v", got)
	}
	if !got[0].Quotes[0].Price.Equal(decimal.NewFromInt(100)) {
		t.Fatalf("price lost in snapshot: %s", got[0].Quotes[0].Price)
	}
}

func TestRefresh_ForwardsCategories(t *testing.T) {
	be := &fakeBackend{open: []market.Order{order("ORD-1", status.Pending, time.Now())}}
	repo := NewRepository(be, nil, nil, nil, nil)

	repo.SetCategories([]string{"engine", "suspension"})
	if err := repo.Refresh(context.Background(), ViewOpen); err != nil {
		t.Fatal(err)
	}

	be.mu.Lock()
	got := append([]string(nil), be.lastCategories...)
	be.mu.Unlock()
	if len(got) != 2 || got[0] != "engine" || got[1] != "suspension" {
		t.Fatalf("categories sent to backend = %v", got)
	}
}

func TestFetchOrder_FoldsIntoCachedView(t *testing.T) {
	now := time.Now()
	be := &fakeBackend{accepted: []market.Order{order("ORD-1", status.Processing, now)}}
	repo := NewRepository(be, nil, nil, nil, nil)
	if err := repo.Refresh(context.Background(), ViewAccepted); err != nil {
		t.Fatal(err)
	}

	// The backend has moved on since the last view refresh.
	shipped := order("ORD-1", status.Shipped, now)
	be.mu.Lock()
	be.single = &shipped
	be.mu.Unlock()

	got, err := repo.FetchOrder(context.Background(), "ORD-1")
	if err != nil {
		t.Fatal(err)
	}
	if got.Status != status.Shipped {
		t.Fatalf("fetched status = %s, want shipped", got.Status)
	}
	if cached, _, ok := repo.Find("ORD-1"); !ok || cached.Status != status.Shipped {
		t.Fatalf("cached entry not updated: %+v", cached)
	}
}

func TestFetchOrder_CacheMissServedLive(t *testing.T) {
	stray := order("ORD-stray", status.Pending, time.Now())
	be := &fakeBackend{single: &stray}
	repo := NewRepository(be, nil, nil, nil, nil)

	got, err := repo.FetchOrder(context.Background(), "ORD-stray")
	if err != nil {
		t.Fatal(err)
	}
	if got.OrderNumber != "ORD-stray" {
		t.Fatalf("fetched = %+v", got)
	}
	if be.getCalls != 1 {
		t.Fatalf("getCalls = %d, want 1", be.getCalls)
	}
}

func TestInvalidate_ClearsViewsAndSnapshots(t *testing.T) {
	db := testDB(t)
	be := &fakeBackend{open: []market.Order{order("ORD-1", status.Pending, time.Now())}}
	repo := NewRepository(be, db, nil, nil, nil)
	if err := repo.Refresh(context.Background(), ViewOpen); err != nil {
		t.Fatal(err)
	}

	repo.Invalidate(context.Background())
	if got := repo.Open(); len(got) != 0 {
		t.Fatalf("views survived invalidate: %+v", got)
	}
	payload, _, err := db.LoadSnapshot(ViewOpen)
	if err != nil {
		t.Fatal(err)
	}
	if payload != nil {
		t.Fatal("snapshot survived invalidate")
	}
}

func TestFind_AcrossViews(t *testing.T) {
	be := &fakeBackend{
		open:     []market.Order{order("ORD-open", status.Pending, time.Now())},
		accepted: []market.Order{order("ORD-acc", status.Processing, time.Now())},
	}
	repo := NewRepository(be, nil, nil, nil, nil)
	if err := repo.RefreshAll(context.Background()); err != nil {
		t.Fatal(err)
	}

	if _, view, ok := repo.Find("ORD-acc"); !ok || view != ViewAccepted {
		t.Fatalf("Find ORD-acc = %q, %v", view, ok)
	}
	if _, _, ok := repo.Find("ORD-nope"); ok {
		t.Fatal("found nonexistent order")
	}
}
