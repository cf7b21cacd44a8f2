package engine

import (
	"context"
	"encoding/json"
	"log"
	"time"

	"partsdesk/notify"
	"partsdesk/orders"
)

// Refetch satisfies notify.Sink. Each debounced notification class maps
// to the corresponding projection refetch; refetches are idempotent, so
// duplicate or overlapping notifications only cost extra fetches.
func (e *Engine) Refetch(class string) {
	ctx, cancel := context.WithTimeout(context.Background(), refetchTimeout)
	defer cancel()

	var err error
	switch class {
	case notify.ClassOpenOrders:
		err = e.repo.Refresh(ctx, orders.ViewOpen)
	case notify.ClassMyBids:
		err = e.repo.Refresh(ctx, orders.ViewMyBids)
	case notify.ClassAcceptedOrders:
		err = e.repo.Refresh(ctx, orders.ViewAccepted)
	case notify.ClassWallet:
		err = e.wallet.Refresh(ctx)
	default:
		return
	}
	if err != nil {
		log.Printf("engine: refetch %s: %v", class, err)
	}
}

// Toast satisfies notify.Sink. Pass-through notifications are put on
// the bus for the SSE hub.
func (e *Engine) Toast(typ string, data json.RawMessage) {
	e.Events.EmitType(EventToast, ToastEvent{Kind: typ, Data: data})
}

// BrokerStatusChanged surfaces messaging connection state onto the bus
// so the dashboard can show when real-time updates are degraded. The
// messaging client invokes it from its connect and connection-lost
// callbacks.
func (e *Engine) BrokerStatusChanged(connected bool, err error) {
	evt := BrokerEvent{Connected: connected}
	if err != nil {
		evt.Error = err.Error()
	}
	t := EventBrokerConnected
	if !connected {
		t = EventBrokerDisconnected
	}
	e.Events.EmitType(t, evt)
}

// reconcileLoop periodically refreshes every projection as a safety net
// under lost or dropped notifications.
func (e *Engine) reconcileLoop() {
	interval := e.cfg.Reconcile.Interval
	if interval <= 0 {
		interval = 5 * time.Minute
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-e.stopChan:
			return
		case <-ticker.C:
			ctx, cancel := context.WithTimeout(context.Background(), refetchTimeout)
			if err := e.repo.RefreshAll(ctx); err != nil {
				log.Printf("engine: reconcile orders: %v", err)
			}
			if err := e.wallet.Refresh(ctx); err != nil {
				log.Printf("engine: reconcile wallet: %v", err)
			}
			cancel()
		}
	}
}
