package orders

import (
	"context"
	"errors"
	"fmt"

	"partsdesk/market"
	"partsdesk/status"
)

// Errors returned before any network call is made.
var (
	ErrUnknownOrder      = errors.New("order not in cache")
	ErrInvalidTransition = errors.New("invalid status transition")
)

// Controller drives the fulfillment status lifecycle for accepted
// orders. Transitions are validated locally against the status table
// before the backend is called; invalid requests never reach the
// network and never touch the cache.
type Controller struct {
	repo    *Repository
	backend Backend
	emitter EventEmitter
}

func NewController(repo *Repository, backend Backend, emitter EventEmitter) *Controller {
	if emitter == nil {
		emitter = NullEmitter{}
	}
	return &Controller{repo: repo, backend: backend, emitter: emitter}
}

// UpdateStatus advances an order to next. The cached order is patched
// optimistically and the accepted view refetched afterwards either way;
// wallet credit and any server-side side effects come back with the
// refetch, never from local math.
func (c *Controller) UpdateStatus(ctx context.Context, orderNumber string, next status.Status) error {
	order, view, ok := c.repo.Find(orderNumber)
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownOrder, orderNumber)
	}
	from := order.Status
	if !status.CanTransition(from, next, order.DeliveryMethod) {
		return fmt.Errorf("%w: %s -> %s (%s)", ErrInvalidTransition, from, next, order.DeliveryMethod)
	}

	err := c.repo.MutateThenReconcile(ctx, view, orderNumber,
		func(o *market.Order) { o.Status = next },
		func(ctx context.Context) error {
			return c.backend.UpdateStatus(ctx, orderNumber, next)
		})
	if err != nil {
		return fmt.Errorf("update %s: %w", orderNumber, err)
	}
	c.emitter.StatusChanged(orderNumber, from, next)
	return nil
}

// NextStatuses lists the transitions currently allowed for an order, in
// lifecycle order. Used by the API to drive the action buttons.
func (c *Controller) NextStatuses(orderNumber string) ([]status.Status, error) {
	order, _, ok := c.repo.Find(orderNumber)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownOrder, orderNumber)
	}
	if order.Status == status.Processing {
		// The forward step out of processing depends on how the order
		// is fulfilled.
		return []status.Status{status.NextFulfillment(order.DeliveryMethod), status.Cancelled}, nil
	}
	candidates := []status.Status{
		status.Quoted, status.PaymentPending, status.Processing,
		status.ProviderReceived, status.ReadyForPickup, status.Shipped,
		status.OutForDelivery, status.Delivered, status.Completed,
		status.Cancelled,
	}
	var out []status.Status
	for _, next := range candidates {
		if status.CanTransition(order.Status, next, order.DeliveryMethod) {
			out = append(out, next)
		}
	}
	return out, nil
}
