package engine

import (
	"encoding/json"
	"time"
)

// EventType identifies the kind of event emitted by the Engine.
type EventType int

const (
	// Order events
	EventOrdersRefreshed EventType = iota + 1
	EventQuoteSubmitted
	EventOrderStatusChanged

	// Wallet events
	EventWalletUpdated

	// Notification events
	EventToast

	// Broker events
	EventBrokerConnected
	EventBrokerDisconnected
)

// Event is the envelope emitted by the Engine's EventBus.
type Event struct {
	Type      EventType
	Timestamp time.Time
	Payload   interface{}
}

// OrdersRefreshedEvent is emitted after a projection is refetched.
type OrdersRefreshedEvent struct {
	View  string `json:"view"`
	Count int    `json:"count"`
}

// QuoteSubmittedEvent is emitted when a quote is accepted by the backend.
type QuoteSubmittedEvent struct {
	OrderNumber string `json:"order_number"`
	QuoteID     string `json:"quote_id"`
}

// OrderStatusChangedEvent is emitted on fulfillment state transitions.
type OrderStatusChangedEvent struct {
	OrderNumber string `json:"order_number"`
	OldStatus   string `json:"old_status"`
	NewStatus   string `json:"new_status"`
}

// WalletUpdatedEvent is emitted after a wallet refetch.
type WalletUpdatedEvent struct {
	Balance string `json:"balance"`
}

// ToastEvent carries a pass-through notification for the dashboard.
type ToastEvent struct {
	Kind string          `json:"kind"`
	Data json.RawMessage `json:"data,omitempty"`
}

// BrokerEvent is emitted when the messaging connection state changes.
type BrokerEvent struct {
	Connected bool   `json:"connected"`
	Error     string `json:"error,omitempty"`
}
