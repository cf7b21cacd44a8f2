package market

import (
	"encoding/json"
	"time"

	"github.com/shopspring/decimal"

	"partsdesk/status"
)

// Order is a customer request for a car part, tracked through the
// fulfillment lifecycle. FormData is the opaque car/part description
// payload and is never interpreted locally.
type Order struct {
	OrderNumber     string                `json:"order_number"`
	Status          status.Status         `json:"status"`
	DeliveryMethod  status.DeliveryMethod `json:"delivery_method"`
	FormData        json.RawMessage       `json:"form_data,omitempty"`
	Quotes          []Quote               `json:"quotes"`
	AcceptedQuoteID *string               `json:"accepted_quote_id,omitempty"`
	CustomerName    string                `json:"customer_name,omitempty"`
	CustomerPhone   string                `json:"customer_phone,omitempty"`
	CustomerCity    string                `json:"customer_city,omitempty"`
	Categories      []string              `json:"categories,omitempty"`
	CreatedAt       time.Time             `json:"created_at"`
	UpdatedAt       time.Time             `json:"updated_at"`
}

// AcceptedQuote resolves the accepted quote reference, or nil if none
// is set or the reference is dangling.
func (o *Order) AcceptedQuote() *Quote {
	if o.AcceptedQuoteID == nil {
		return nil
	}
	for i := range o.Quotes {
		if o.Quotes[i].ID == *o.AcceptedQuoteID {
			return &o.Quotes[i]
		}
	}
	return nil
}

// Quote is a provider's price offer against an open order.
type Quote struct {
	ID               string          `json:"id"`
	OrderNumber      string          `json:"order_number"`
	ProviderID       string          `json:"provider_id"`
	Price            decimal.Decimal `json:"price"`
	PartStatus       string          `json:"part_status"`
	PartSizeCategory string          `json:"part_size_category"`
	Notes            string          `json:"notes,omitempty"`
	Media            []MediaRef      `json:"media,omitempty"`
	CreatedAt        time.Time       `json:"created_at"`
}

// Part condition values for Quote.PartStatus.
const (
	PartNew  = "new"
	PartUsed = "used"
)

// Part size categories for Quote.PartSizeCategory.
const (
	SizeSmall  = "small"
	SizeMedium = "medium"
	SizeLarge  = "large"
	SizeBulky  = "bulky"
)

// MediaRef points at an uploaded media item attached to a quote.
type MediaRef struct {
	Kind string `json:"kind"` // image, video, voice
	URL  string `json:"url"`
}

// MediaUpload is a media item to attach when submitting a quote.
type MediaUpload struct {
	Kind     string
	Filename string
	Data     []byte
}

// Provider is the authenticated parts vendor account.
type Provider struct {
	ID                 string          `json:"id"`
	Name               string          `json:"name"`
	WalletBalance      decimal.Decimal `json:"wallet_balance"`
	AssignedCategories []string        `json:"assigned_categories"`
}

// Wallet is the server-computed balance snapshot.
type Wallet struct {
	Balance   decimal.Decimal `json:"balance"`
	Withdrawn decimal.Decimal `json:"withdrawn"`
}

// WithdrawalStatus is a canonical withdrawal request state.
type WithdrawalStatus string

const (
	WithdrawalPending  WithdrawalStatus = "pending"
	WithdrawalApproved WithdrawalStatus = "approved"
	WithdrawalRejected WithdrawalStatus = "rejected"
	WithdrawalUnknown  WithdrawalStatus = "unknown"
)

// Withdrawal is an append-only withdrawal request record. The client
// only requests creation and mirrors server-reported state.
type Withdrawal struct {
	ID          string           `json:"id"`
	Amount      decimal.Decimal  `json:"amount"`
	Method      string           `json:"method"`
	Status      WithdrawalStatus `json:"status"`
	RequestedAt time.Time        `json:"requested_at"`
	ProcessedAt *time.Time       `json:"processed_at,omitempty"`
}

// orderWire is the raw backend order shape before status normalization.
type orderWire struct {
	OrderNumber     string          `json:"order_number"`
	Status          string          `json:"status"`
	DeliveryMethod  string          `json:"delivery_method"`
	FormData        json.RawMessage `json:"form_data"`
	Quotes          []Quote         `json:"quotes"`
	AcceptedQuoteID *string         `json:"accepted_quote_id"`
	CustomerName    string          `json:"customer_name"`
	CustomerPhone   string          `json:"customer_phone"`
	CustomerCity    string          `json:"customer_city"`
	Categories      []string        `json:"categories"`
	CreatedAt       time.Time       `json:"created_at"`
	UpdatedAt       time.Time       `json:"updated_at"`
}

func (w orderWire) toOrder() Order {
	method := status.DeliveryMethod(w.DeliveryMethod)
	if method != status.DeliveryPickup {
		method = status.DeliveryShipping
	}
	return Order{
		OrderNumber:     w.OrderNumber,
		Status:          status.Canonical(w.Status),
		DeliveryMethod:  method,
		FormData:        w.FormData,
		Quotes:          w.Quotes,
		AcceptedQuoteID: w.AcceptedQuoteID,
		CustomerName:    w.CustomerName,
		CustomerPhone:   w.CustomerPhone,
		CustomerCity:    w.CustomerCity,
		Categories:      w.Categories,
		CreatedAt:       w.CreatedAt,
		UpdatedAt:       w.UpdatedAt,
	}
}

// withdrawalWire is the raw backend withdrawal shape. Status values
// arrive in mixed casing and language variants and are normalized.
type withdrawalWire struct {
	ID          string          `json:"id"`
	Amount      decimal.Decimal `json:"amount"`
	Method      string          `json:"method"`
	Status      string          `json:"status"`
	RequestedAt time.Time       `json:"requested_at"`
	ProcessedAt *time.Time      `json:"processed_at"`
}

func (w withdrawalWire) toWithdrawal() Withdrawal {
	return Withdrawal{
		ID:          w.ID,
		Amount:      w.Amount,
		Method:      w.Method,
		Status:      NormalizeWithdrawalStatus(w.Status),
		RequestedAt: w.RequestedAt,
		ProcessedAt: w.ProcessedAt,
	}
}
