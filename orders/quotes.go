package orders

import (
	"context"
	"errors"
	"fmt"
	"log"
	"math"

	"github.com/shopspring/decimal"

	"partsdesk/market"
	"partsdesk/status"
)

// Validation errors returned before any network call is made.
var (
	ErrBadPrice    = errors.New("price must be a non-negative finite number")
	ErrBadPart     = errors.New("part status must be new or used")
	ErrBadSize     = errors.New("unknown part size category")
	ErrNotQuotable = errors.New("order no longer accepts quotes")
)

var sizeCategories = map[string]bool{
	market.SizeSmall:  true,
	market.SizeMedium: true,
	market.SizeLarge:  true,
	market.SizeBulky:  true,
}

// QuoteDraft is the provider's input for a new quote. Price arrives as
// a raw float from the form layer and is validated before conversion to
// decimal.
type QuoteDraft struct {
	Price            float64 `json:"price"`
	PartStatus       string  `json:"part_status"`
	PartSizeCategory string  `json:"part_size_category"`
	Notes            string  `json:"notes"`
}

func (d *QuoteDraft) validate() error {
	if math.IsNaN(d.Price) || math.IsInf(d.Price, 0) || d.Price < 0 {
		return ErrBadPrice
	}
	if d.PartStatus != market.PartNew && d.PartStatus != market.PartUsed {
		return ErrBadPart
	}
	if !sizeCategories[d.PartSizeCategory] {
		return ErrBadSize
	}
	return nil
}

// QuoteEngine submits quotes against open orders.
type QuoteEngine struct {
	repo    *Repository
	backend Backend
	emitter EventEmitter
}

func NewQuoteEngine(repo *Repository, backend Backend, emitter EventEmitter) *QuoteEngine {
	if emitter == nil {
		emitter = NullEmitter{}
	}
	return &QuoteEngine{repo: repo, backend: backend, emitter: emitter}
}

// SubmitQuote validates the draft, submits it with any media, then
// patches the cached order optimistically and refetches. Re-quoting is
// allowed while the order is still pending or quoted; each submission
// creates a new quote. On network failure the cache is untouched.
func (e *QuoteEngine) SubmitQuote(ctx context.Context, orderNumber string, draft QuoteDraft, media []market.MediaUpload) (*market.Quote, error) {
	if err := draft.validate(); err != nil {
		return nil, err
	}
	if order, _, ok := e.repo.Find(orderNumber); ok {
		if order.Status != status.Pending && order.Status != status.Quoted {
			return nil, fmt.Errorf("%w: %s is %s", ErrNotQuotable, orderNumber, order.Status)
		}
	}

	q := market.Quote{
		OrderNumber:      orderNumber,
		Price:            decimal.NewFromFloat(draft.Price),
		PartStatus:       draft.PartStatus,
		PartSizeCategory: draft.PartSizeCategory,
		Notes:            draft.Notes,
	}
	created, err := e.backend.SubmitQuote(ctx, orderNumber, q, media)
	if err != nil {
		return nil, fmt.Errorf("quote %s: %w", orderNumber, err)
	}
	if created == nil {
		created = &q
	}

	e.repo.ApplyOptimistic(ViewOpen, orderNumber, func(o *market.Order) {
		o.Quotes = append(o.Quotes, *created)
		if o.Status == status.Pending {
			o.Status = status.Quoted
		}
	})
	e.emitter.QuoteSubmitted(orderNumber, created.ID)

	// Server-trusted reconcile. The quote moves the order into the bids
	// view, so both projections change.
	for _, view := range []string{ViewOpen, ViewMyBids} {
		if err := e.repo.Refresh(ctx, view); err != nil {
			log.Printf("orders: post-quote refresh %s: %v", view, err)
		}
	}
	return created, nil
}
