// Package status models the canonical order lifecycle states, the
// alias table that folds legacy English/Arabic variants into them, and
// the transition rules per delivery method.
package status

import "strings"

// Status is a canonical order lifecycle state.
type Status string

// Canonical order statuses.
const (
	Pending          Status = "pending"
	Quoted           Status = "quoted"
	PaymentPending   Status = "payment_pending"
	Processing       Status = "processing"
	ProviderReceived Status = "provider_received"
	ReadyForPickup   Status = "ready_for_pickup"
	Shipped          Status = "shipped"
	OutForDelivery   Status = "out_for_delivery"
	Delivered        Status = "delivered"
	Completed        Status = "completed"
	Cancelled        Status = "cancelled"

	// Unknown is the sentinel for status strings not in the alias table.
	// It renders with a default style and is never an error.
	Unknown Status = "unknown"
)

// DeliveryMethod selects which status path an order follows.
type DeliveryMethod string

const (
	DeliveryPickup   DeliveryMethod = "pickup"
	DeliveryShipping DeliveryMethod = "shipping"
)

// aliases maps legacy backend status spellings (mixed case English and
// Arabic variants) to canonical statuses. Lookups are done on the
// trimmed, lowercased raw value; Arabic keys are matched verbatim.
var aliases = map[string]Status{
	"pending":           Pending,
	"new":               Pending,
	"open":              Pending,
	"quoted":            Quoted,
	"offered":           Quoted,
	"payment_pending":   PaymentPending,
	"awaiting_payment":  PaymentPending,
	"processing":        Processing,
	"in_progress":       Processing,
	"provider_received": ProviderReceived,
	"ready_for_pickup":  ReadyForPickup,
	"ready":             ReadyForPickup,
	"shipped":           Shipped,
	"out_for_delivery":  OutForDelivery,
	"delivered":         Delivered,
	"completed":         Completed,
	"complete":          Completed,
	"cancelled":         Cancelled,
	"canceled":          Cancelled,

	"قيد الانتظار":         Pending,
	"تم التسعير":           Quoted,
	"بانتظار الدفع":        PaymentPending,
	"قيد المعالجة":         Processing,
	"تم الاستلام من المزود": ProviderReceived,
	"جاهز للاستلام":        ReadyForPickup,
	"تم الشحن":             Shipped,
	"قيد التوصيل":          OutForDelivery,
	"تم التوصيل":           Delivered,
	"مكتمل":                Completed,
	"ملغي":                 Cancelled,
}

// Canonical folds a raw backend status string into a canonical Status.
// Unrecognized values map to Unknown rather than erroring.
func Canonical(raw string) Status {
	key := strings.ToLower(strings.TrimSpace(raw))
	if s, ok := aliases[key]; ok {
		return s
	}
	// Arabic aliases are stored as-is; retry without lowercasing.
	if s, ok := aliases[strings.TrimSpace(raw)]; ok {
		return s
	}
	return Unknown
}

// transitions defines the allowed next states shared by both delivery
// methods. Processing is handled separately because its next state
// depends on the delivery method.
var transitions = map[Status][]Status{
	Pending:          {Quoted, Cancelled},
	Quoted:           {PaymentPending, Cancelled},
	PaymentPending:   {Processing, Cancelled},
	ProviderReceived: {Shipped, Cancelled},
	ReadyForPickup:   {Delivered, Completed, Cancelled},
	Shipped:          {OutForDelivery, Delivered, Cancelled},
	OutForDelivery:   {Delivered, Cancelled},
}

// CanTransition reports whether from → to is an allowed transition for
// the given delivery method. Terminal states allow no transitions.
func CanTransition(from, to Status, method DeliveryMethod) bool {
	if IsTerminal(from) {
		return false
	}
	if from == Processing {
		switch method {
		case DeliveryPickup:
			return to == ReadyForPickup || to == Cancelled
		default:
			return to == ProviderReceived || to == Cancelled
		}
	}
	for _, s := range transitions[from] {
		if s == to {
			return true
		}
	}
	return false
}

// NextFulfillment returns the forward step out of Processing for the
// given delivery method.
func NextFulfillment(method DeliveryMethod) Status {
	if method == DeliveryPickup {
		return ReadyForPickup
	}
	return ProviderReceived
}

// IsTerminal returns true if no transition may leave the status.
func IsTerminal(s Status) bool {
	return s == Delivered || s == Completed || s == Cancelled
}

// Label returns the display label for a status. Unknown values get a
// default label instead of an error.
func Label(s Status) string {
	switch s {
	case Pending:
		return "Pending"
	case Quoted:
		return "Quoted"
	case PaymentPending:
		return "Payment Pending"
	case Processing:
		return "Processing"
	case ProviderReceived:
		return "Received from Provider"
	case ReadyForPickup:
		return "Ready for Pickup"
	case Shipped:
		return "Shipped"
	case OutForDelivery:
		return "Out for Delivery"
	case Delivered:
		return "Delivered"
	case Completed:
		return "Completed"
	case Cancelled:
		return "Cancelled"
	default:
		return "Unknown"
	}
}

// Color returns the badge color class for a status.
func Color(s Status) string {
	switch s {
	case Pending, Quoted:
		return "bg-yellow-100 text-yellow-800"
	case PaymentPending:
		return "bg-orange-100 text-orange-800"
	case Processing, ProviderReceived, ReadyForPickup:
		return "bg-blue-100 text-blue-800"
	case Shipped, OutForDelivery:
		return "bg-indigo-100 text-indigo-800"
	case Delivered, Completed:
		return "bg-green-100 text-green-800"
	case Cancelled:
		return "bg-gray-100 text-gray-800"
	default:
		return "bg-gray-100 text-gray-800"
	}
}
