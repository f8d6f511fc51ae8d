package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Order is one executed instruction from the advisor. Orders are an
// append-only ledger: rows are inserted once and never updated or deleted.
// Qty is positive for a buy and negative for a sell.
type Order struct {
	ID        int             `json:"id"`
	Date      time.Time       `json:"date"`
	Ticker    string          `json:"ticker"`
	Qty       decimal.Decimal `json:"qty"`
	Price     decimal.Decimal `json:"price"`
	CreatedAt time.Time       `json:"created_at"`
}

// IsBuy reports whether the order increases the position.
func (o *Order) IsBuy() bool {
	return o.Qty.IsPositive()
}

// IsSell reports whether the order reduces the position.
func (o *Order) IsSell() bool {
	return o.Qty.IsNegative()
}

// Notional returns |qty| * price.
func (o *Order) Notional() decimal.Decimal {
	return o.Qty.Abs().Mul(o.Price)
}

// PendingOrder is an advisory produced by the weekly research cycle.
// It is not an executed order: the next tactical cycle surfaces pending
// advisories to the advisor and marks them consumed, and only orders the
// advisor returns that day are actually applied.
type PendingOrder struct {
	ID        int             `json:"id"`
	Date      time.Time       `json:"date"`
	Ticker    string          `json:"ticker"`
	Qty       decimal.Decimal `json:"qty"`
	Price     decimal.Decimal `json:"price"`
	Consumed  bool            `json:"consumed"`
	CreatedAt time.Time       `json:"created_at"`
}
