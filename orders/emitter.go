package orders

import "partsdesk/status"

// EventEmitter receives domain events from the repository, quote engine
// and controller. The engine adapts these onto the event bus.
type EventEmitter interface {
	OrdersRefreshed(view string, count int)
	QuoteSubmitted(orderNumber, quoteID string)
	StatusChanged(orderNumber string, from, to status.Status)
}

// NullEmitter drops all events. Useful in tests and tools.
type NullEmitter struct{}

func (NullEmitter) OrdersRefreshed(string, int)                   {}
func (NullEmitter) QuoteSubmitted(string, string)                 {}
func (NullEmitter) StatusChanged(string, status.Status, status.Status) {}
