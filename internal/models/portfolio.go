package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// DateFormat is the canonical calendar-day format used everywhere a date
// crosses a boundary (database, prompts, API payloads).
const DateFormat = "2006-01-02"

// Position represents a holding as of a given calendar day.
// Uniqueness is per (date, ticker); the current book is the latest row
// per ticker, which may sit on different dates when tickers have gaps.
type Position struct {
	ID        int             `json:"id"`
	Date      time.Time       `json:"date"`
	Ticker    string          `json:"ticker"`
	Qty       decimal.Decimal `json:"qty"`
	AvgPrice  decimal.Decimal `json:"avg_price"`
	CreatedAt time.Time       `json:"created_at"`
	UpdatedAt time.Time       `json:"updated_at"`
}

// MarketValue returns qty * price.
func (p *Position) MarketValue(price decimal.Decimal) decimal.Decimal {
	return p.Qty.Mul(price)
}

// CashSnapshot represents the uninvested cash balance on a calendar day.
// TotalPortfolioAmount is cash plus the marked value of all positions; it
// is nil when no mark was computed for that day.
type CashSnapshot struct {
	Date                 time.Time        `json:"date"`
	Amount               decimal.Decimal  `json:"amount"`
	TotalPortfolioAmount *decimal.Decimal `json:"total_portfolio_amount,omitempty"`
	CreatedAt            time.Time        `json:"created_at"`
	UpdatedAt            time.Time        `json:"updated_at"`
}
