package models

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

// OrderRequest is one proposed order inside an advisor payload. Qty is
// positive for buys and negative for sells; Price must be >= 0.
type OrderRequest struct {
	Ticker string          `json:"ticker"`
	Qty    decimal.Decimal `json:"qty"`
	Price  decimal.Decimal `json:"price"`
}

// Validate checks the boundary rules before the payload is trusted.
func (o *OrderRequest) Validate() error {
	if strings.TrimSpace(o.Ticker) == "" {
		return fmt.Errorf("order ticker must not be empty")
	}
	if o.Price.IsNegative() {
		return fmt.Errorf("order price for %s must be >= 0, got %s", o.Ticker, o.Price)
	}
	return nil
}

// Decision is the structured payload returned by the tactical (daily)
// advisor call. Zero orders is a valid outcome.
type Decision struct {
	Summary     string         `json:"daily_summary"`
	Orders      []OrderRequest `json:"orders"`
	Explanation string         `json:"explanation"`
}

// Validate rejects malformed decisions before any state change is attempted.
func (d *Decision) Validate() error {
	for i := range d.Orders {
		if err := d.Orders[i].Validate(); err != nil {
			return fmt.Errorf("invalid decision: %w", err)
		}
	}
	return nil
}

// Research is the structured payload returned by the strategic (weekly)
// research call. Orders here are advisories for the next tactical cycle,
// never applied directly.
type Research struct {
	Text   string         `json:"research"`
	Orders []OrderRequest `json:"orders"`
}

// Validate rejects malformed research payloads before any state change.
func (r *Research) Validate() error {
	if strings.TrimSpace(r.Text) == "" {
		return fmt.Errorf("invalid research: empty research text")
	}
	for i := range r.Orders {
		if err := r.Orders[i].Validate(); err != nil {
			return fmt.Errorf("invalid research: %w", err)
		}
	}
	return nil
}
