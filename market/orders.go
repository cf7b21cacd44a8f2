package market

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"mime/multipart"
	"net/url"
	"strings"

	"partsdesk/status"
)

// OpenOrders returns orders visible to this provider: pending status,
// category intersecting the provider's assigned categories, not already
// quoted by this provider. Filtering is server-side; statuses are
// normalized on decode.
func (c *Client) OpenOrders(ctx context.Context, categories []string) ([]Order, error) {
	path := "/api/provider/orders/open"
	if len(categories) > 0 {
		path += "?categories=" + url.QueryEscape(strings.Join(categories, ","))
	}
	var wire []orderWire
	if err := c.get(ctx, path, &wire); err != nil {
		return nil, err
	}
	return fromWire(wire), nil
}

// MyBids returns orders this provider has quoted on.
func (c *Client) MyBids(ctx context.Context) ([]Order, error) {
	var wire []orderWire
	if err := c.get(ctx, "/api/provider/orders/bids", &wire); err != nil {
		return nil, err
	}
	return fromWire(wire), nil
}

// AcceptedOrders returns orders where this provider's quote was accepted.
func (c *Client) AcceptedOrders(ctx context.Context) ([]Order, error) {
	var wire []orderWire
	if err := c.get(ctx, "/api/provider/orders/accepted", &wire); err != nil {
		return nil, err
	}
	return fromWire(wire), nil
}

// GetOrder fetches a single order by number.
func (c *Client) GetOrder(ctx context.Context, orderNumber string) (*Order, error) {
	var wire orderWire
	if err := c.get(ctx, "/api/provider/orders/"+url.PathEscape(orderNumber), &wire); err != nil {
		return nil, err
	}
	o := wire.toOrder()
	return &o, nil
}

// UpdateStatus requests a status transition. The server may still
// reject transitions the local controller allows; wallet side effects
// are server-computed, so callers must refetch rather than patch.
func (c *Client) UpdateStatus(ctx context.Context, orderNumber string, next status.Status) error {
	body := map[string]string{"status": string(next)}
	return c.post(ctx, "/api/provider/orders/"+url.PathEscape(orderNumber)+"/status", body, nil)
}

// quoteSubmission is the JSON part of a multipart quote upload.
type quoteSubmission struct {
	Price            string `json:"price"`
	PartStatus       string `json:"part_status"`
	PartSizeCategory string `json:"part_size_category"`
	Notes            string `json:"notes,omitempty"`
}

// SubmitQuote uploads a quote with optional media as multipart form
// data and returns the created quote as reported by the server.
func (c *Client) SubmitQuote(ctx context.Context, orderNumber string, q Quote, media []MediaUpload) (*Quote, error) {
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)

	sub := quoteSubmission{
		Price:            q.Price.String(),
		PartStatus:       q.PartStatus,
		PartSizeCategory: q.PartSizeCategory,
		Notes:            q.Notes,
	}
	payload, err := json.Marshal(sub)
	if err != nil {
		return nil, fmt.Errorf("market marshal quote: %w", err)
	}
	if err := w.WriteField("quote", string(payload)); err != nil {
		return nil, fmt.Errorf("market quote field: %w", err)
	}

	for i, m := range media {
		name := fmt.Sprintf("media_%d", i)
		fw, err := w.CreateFormFile(name, m.Filename)
		if err != nil {
			return nil, fmt.Errorf("market media part: %w", err)
		}
		if _, err := fw.Write(m.Data); err != nil {
			return nil, fmt.Errorf("market media write: %w", err)
		}
		if err := w.WriteField(name+"_kind", m.Kind); err != nil {
			return nil, fmt.Errorf("market media kind: %w", err)
		}
	}
	if err := w.Close(); err != nil {
		return nil, fmt.Errorf("market multipart close: %w", err)
	}

	var created Quote
	path := "/api/provider/orders/" + url.PathEscape(orderNumber) + "/quotes"
	if err := c.postRaw(ctx, path, w.FormDataContentType(), &buf, &created); err != nil {
		return nil, err
	}
	return &created, nil
}

func fromWire(wire []orderWire) []Order {
	orders := make([]Order, len(wire))
	for i, w := range wire {
		orders[i] = w.toOrder()
	}
	return orders
}
