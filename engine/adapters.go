package engine

import (
	"github.com/shopspring/decimal"

	"partsdesk/status"
)

// orderEmitter adapts the engine's EventBus to the orders.EventEmitter interface.
type orderEmitter struct {
	bus *EventBus
}

func (e *orderEmitter) OrdersRefreshed(view string, count int) {
	e.bus.EmitType(EventOrdersRefreshed, OrdersRefreshedEvent{View: view, Count: count})
}

func (e *orderEmitter) QuoteSubmitted(orderNumber, quoteID string) {
	e.bus.EmitType(EventQuoteSubmitted, QuoteSubmittedEvent{
		OrderNumber: orderNumber, QuoteID: quoteID,
	})
}

func (e *orderEmitter) StatusChanged(orderNumber string, from, to status.Status) {
	e.bus.EmitType(EventOrderStatusChanged, OrderStatusChangedEvent{
		OrderNumber: orderNumber, OldStatus: string(from), NewStatus: string(to),
	})
}

// walletEmitter adapts the engine's EventBus to the wallet.Emitter interface.
type walletEmitter struct {
	bus *EventBus
}

func (e *walletEmitter) WalletUpdated(balance decimal.Decimal) {
	e.bus.EmitType(EventWalletUpdated, WalletUpdatedEvent{Balance: balance.String()})
}
