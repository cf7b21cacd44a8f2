package notify

import (
	"encoding/json"
	"fmt"
	"log"
	"sync"
	"time"
)

// Refetch classes. Each notification type maps to at most one class;
// the debouncer coalesces bursts within a class into a single refetch.
const (
	ClassOpenOrders     = "open_orders"
	ClassMyBids         = "my_bids"
	ClassAcceptedOrders = "accepted_orders"
	ClassWallet         = "wallet"
)

// classFor routes a notification type to its refetch class. Types not
// listed here carry no data consequence and are ignored (aside from the
// toast, which the sink decides on).
var classFor = map[string]string{
	"NEW_ORDER":                   ClassOpenOrders,
	"ORDER_UPDATED":               ClassOpenOrders,
	"ORDER_CANCELLED":             ClassOpenOrders,
	"OFFER_ACCEPTED_PROVIDER_WIN": ClassMyBids,
	"OFFER_REJECTED":              ClassMyBids,
	"ORDER_STATUS_CHANGED":        ClassAcceptedOrders,
	"PAYMENT_CONFIRMED":           ClassAcceptedOrders,
	"WALLET_CREDITED":             ClassWallet,
	"WITHDRAWAL_PROCESSED":        ClassWallet,
}

// toastable types are surfaced to the UI even when they trigger no
// refetch.
var toastable = map[string]bool{
	"ANNOUNCEMENT":                true,
	"NEW_ORDER":                   true,
	"OFFER_ACCEPTED_PROVIDER_WIN": true,
	"OFFER_REJECTED":              true,
	"WALLET_CREDITED":             true,
	"WITHDRAWAL_PROCESSED":        true,
}

// envelope is the wire shape of a channel notification. Only the type
// discriminator is inspected before routing; the data payload is passed
// through opaque.
type envelope struct {
	Type string          `json:"type"`
	Data json.RawMessage `json:"data"`
}

// Subscriber is the messaging surface the listener needs.
type Subscriber interface {
	Subscribe(channel string, handler func(payload []byte)) (func(), error)
}

// Sink receives the listener's coalesced output.
type Sink interface {
	Refetch(class string)
	Toast(typ string, data json.RawMessage)
}

// Listener subscribes to the private provider and user channels and
// turns raw notifications into debounced refetch requests.
type Listener struct {
	mu         sync.Mutex
	sub        Subscriber
	sink       Sink
	debounce   *Debouncer
	prefix     string
	providerID string
	userID     string
	cancels    []func()
}

func NewListener(sub Subscriber, sink Sink, prefix string, window time.Duration) *Listener {
	return &Listener{
		sub:      sub,
		sink:     sink,
		debounce: NewDebouncer(window),
		prefix:   prefix,
	}
}

// Start subscribes for the given identity. Calling Start again with a
// different identity tears down the old subscriptions first.
func (l *Listener) Start(providerID, userID string) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if providerID == l.providerID && userID == l.userID && len(l.cancels) > 0 {
		return nil
	}
	l.teardownLocked()
	l.providerID = providerID
	l.userID = userID

	channels := []string{
		l.prefix + "provider." + providerID,
		l.prefix + "user." + userID,
	}
	for _, ch := range channels {
		cancel, err := l.sub.Subscribe(ch, l.handle)
		if err != nil {
			l.teardownLocked()
			return fmt.Errorf("notify: subscribe %s: %w", ch, err)
		}
		l.cancels = append(l.cancels, cancel)
	}
	log.Printf("notify: listening on %v", channels)
	return nil
}

// Stop unsubscribes from all channels and drops pending debounces.
func (l *Listener) Stop() {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.teardownLocked()
}

func (l *Listener) teardownLocked() {
	for _, cancel := range l.cancels {
		cancel()
	}
	l.cancels = nil
	l.debounce.Stop()
}

func (l *Listener) handle(payload []byte) {
	var env envelope
	if err := json.Unmarshal(payload, &env); err != nil {
		log.Printf("notify: bad payload: %v", err)
		return
	}
	if env.Type == "" {
		return
	}

	if toastable[env.Type] {
		l.sink.Toast(env.Type, env.Data)
	}

	class, ok := classFor[env.Type]
	if !ok {
		// Unknown or toast-only types trigger no refetch.
		return
	}
	l.debounce.Trigger(class, func() {
		l.sink.Refetch(class)
	})
}
