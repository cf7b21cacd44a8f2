package orders

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"sort"
	"sync"

	"partsdesk/cache"
	"partsdesk/market"
	"partsdesk/status"
	"partsdesk/store"
)

// View names. These double as snapshot keys in the local store and the
// Redis cache.
const (
	ViewOpen     = "open_orders"
	ViewMyBids   = "my_bids"
	ViewAccepted = "accepted_orders"
)

var allViews = []string{ViewOpen, ViewMyBids, ViewAccepted}

// Backend is the subset of the marketplace client the order subsystem
// needs. market.Client satisfies it.
type Backend interface {
	OpenOrders(ctx context.Context, categories []string) ([]market.Order, error)
	MyBids(ctx context.Context) ([]market.Order, error)
	AcceptedOrders(ctx context.Context) ([]market.Order, error)
	GetOrder(ctx context.Context, orderNumber string) (*market.Order, error)
	SubmitQuote(ctx context.Context, orderNumber string, q market.Quote, media []market.MediaUpload) (*market.Quote, error)
	UpdateStatus(ctx context.Context, orderNumber string, next status.Status) error
}

// Repository holds the local projections of marketplace orders. The
// server is authoritative; the repository caches, patches optimistically
// and reconciles by refetching.
type Repository struct {
	mu         sync.RWMutex
	backend    Backend
	db         *store.DB
	hot        *cache.RedisStore
	emitter    EventEmitter
	categories []string
	views      map[string][]market.Order
}

// NewRepository creates a repository. db and hot may be nil, in which
// case snapshots are not persisted.
func NewRepository(backend Backend, db *store.DB, hot *cache.RedisStore, emitter EventEmitter, categories []string) *Repository {
	if emitter == nil {
		emitter = NullEmitter{}
	}
	return &Repository{
		backend:    backend,
		db:         db,
		hot:        hot,
		emitter:    emitter,
		categories: categories,
		views:      make(map[string][]market.Order),
	}
}

// WarmStart loads the last persisted snapshots so the projections are
// usable before the first refresh. Redis is tried first, then the local
// store. Missing or corrupt snapshots are skipped.
func (r *Repository) WarmStart(ctx context.Context) {
	for _, view := range allViews {
		payload := r.loadSnapshot(ctx, view)
		if payload == nil {
			continue
		}
		var list []market.Order
		if err := json.Unmarshal(payload, &list); err != nil {
			log.Printf("orders: snapshot %s corrupt, skipping: %v", view, err)
			continue
		}
		r.mu.Lock()
		r.views[view] = list
		r.mu.Unlock()
	}
}

func (r *Repository) loadSnapshot(ctx context.Context, view string) []byte {
	if r.hot != nil {
		if payload, err := r.hot.GetView(ctx, view); err == nil && payload != nil {
			return payload
		}
	}
	if r.db != nil {
		payload, _, err := r.db.LoadSnapshot(view)
		if err != nil {
			log.Printf("orders: load snapshot %s: %v", view, err)
			return nil
		}
		return payload
	}
	return nil
}

// Refresh fetches the named view from the backend. On failure the stale
// cache is retained and the error returned. A refresh whose context was
// cancelled before completion does not apply its result.
func (r *Repository) Refresh(ctx context.Context, view string) error {
	var (
		list []market.Order
		err  error
	)
	switch view {
	case ViewOpen:
		list, err = r.backend.OpenOrders(ctx, r.Categories())
	case ViewMyBids:
		list, err = r.backend.MyBids(ctx)
	case ViewAccepted:
		list, err = r.backend.AcceptedOrders(ctx)
	default:
		return fmt.Errorf("orders: unknown view %q", view)
	}
	if err != nil {
		return fmt.Errorf("orders: refresh %s: %w", view, err)
	}
	if ctx.Err() != nil {
		// The caller went away while the fetch was in flight.
		return ctx.Err()
	}

	r.mu.Lock()
	r.views[view] = list
	r.mu.Unlock()

	r.persist(ctx, view, list)
	r.emitter.OrdersRefreshed(view, len(list))
	return nil
}

// SetCategories replaces the category filter applied to open-order
// fetches. The next refresh picks it up.
func (r *Repository) SetCategories(categories []string) {
	r.mu.Lock()
	r.categories = append([]string(nil), categories...)
	r.mu.Unlock()
}

// Categories returns the current open-order category filter.
func (r *Repository) Categories() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return append([]string(nil), r.categories...)
}

// FetchOrder pulls a single order from the backend and folds it into
// whichever projection already holds it. Used for cache misses on the
// order detail view.
func (r *Repository) FetchOrder(ctx context.Context, orderNumber string) (*market.Order, error) {
	o, err := r.backend.GetOrder(ctx, orderNumber)
	if err != nil {
		return nil, fmt.Errorf("orders: fetch %s: %w", orderNumber, err)
	}
	if ctx.Err() != nil {
		return nil, ctx.Err()
	}
	r.mu.Lock()
	for _, view := range allViews {
		list := r.views[view]
		for i := range list {
			if list[i].OrderNumber == orderNumber {
				list[i] = *o
			}
		}
	}
	r.mu.Unlock()
	return o, nil
}

// Invalidate drops the in-memory projections and their persisted
// snapshots, both local and Redis. Run when the acting provider
// identity changes or via the dashboard's hard-refresh action, so no
// view ever warm-starts from another account's data.
func (r *Repository) Invalidate(ctx context.Context) {
	r.mu.Lock()
	r.views = make(map[string][]market.Order)
	r.mu.Unlock()

	if r.db != nil {
		for _, view := range allViews {
			if err := r.db.DeleteSnapshot(view); err != nil {
				log.Printf("orders: delete snapshot %s: %v", view, err)
			}
		}
	}
	if r.hot != nil {
		if err := r.hot.Flush(ctx); err != nil {
			log.Printf("orders: flush hot cache: %v", err)
		}
	}
}

// RefreshAll refreshes every projection, returning the first error but
// attempting all views regardless.
func (r *Repository) RefreshAll(ctx context.Context) error {
	var first error
	for _, view := range allViews {
		if err := r.Refresh(ctx, view); err != nil && first == nil {
			first = err
		}
	}
	return first
}

// persist writes the view snapshot through to the local store and the
// Redis cache. Store first so a Redis outage never loses the snapshot.
func (r *Repository) persist(ctx context.Context, view string, list []market.Order) {
	payload, err := json.Marshal(list)
	if err != nil {
		log.Printf("orders: marshal %s snapshot: %v", view, err)
		return
	}
	if r.db != nil {
		if err := r.db.SaveSnapshot(view, payload); err != nil {
			log.Printf("orders: save snapshot %s: %v", view, err)
		}
	}
	if r.hot != nil {
		if err := r.hot.SetView(ctx, view, payload); err != nil {
			log.Printf("orders: cache snapshot %s: %v", view, err)
		}
	}
}

// List returns a sorted copy of the named view, newest first. The copy
// is the caller's to keep; repository storage order is not guaranteed.
func (r *Repository) List(view string) []market.Order {
	r.mu.RLock()
	src := r.views[view]
	out := make([]market.Order, len(src))
	copy(out, src)
	r.mu.RUnlock()

	sort.SliceStable(out, func(i, j int) bool {
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	return out
}

// Open returns the open-orders projection, newest first.
func (r *Repository) Open() []market.Order { return r.List(ViewOpen) }

// MyBids returns the orders this provider has quoted on, newest first.
func (r *Repository) MyBids() []market.Order { return r.List(ViewMyBids) }

// Accepted returns the orders whose quote was accepted, newest first.
func (r *Repository) Accepted() []market.Order { return r.List(ViewAccepted) }

// Find looks up an order by number across all views. The returned order
// is a copy.
func (r *Repository) Find(orderNumber string) (market.Order, string, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, view := range allViews {
		for i := range r.views[view] {
			if r.views[view][i].OrderNumber == orderNumber {
				return r.views[view][i], view, true
			}
		}
	}
	return market.Order{}, "", false
}

// ApplyOptimistic patches the cached order in place. Returns false when
// the order is not in the view. The patch is provisional; callers must
// follow up with a refetch to reconcile with the server.
func (r *Repository) ApplyOptimistic(view, orderNumber string, patch func(*market.Order)) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	list := r.views[view]
	for i := range list {
		if list[i].OrderNumber == orderNumber {
			patch(&list[i])
			return true
		}
	}
	return false
}

// MutateThenReconcile applies an optimistic patch, runs the server call,
// and refetches the view either way: on success to pick up the
// server-computed result, on failure to discard the patch. There is no
// local rollback math.
func (r *Repository) MutateThenReconcile(ctx context.Context, view, orderNumber string, patch func(*market.Order), call func(context.Context) error) error {
	r.ApplyOptimistic(view, orderNumber, patch)
	callErr := call(ctx)
	if err := r.Refresh(ctx, view); err != nil {
		log.Printf("orders: reconcile %s: %v", view, err)
	}
	return callErr
}
