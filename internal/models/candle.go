package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Candle represents one daily OHLCV bar for a ticker. Rows are keyed by
// (date, ticker) and re-ingestion overwrites in place, so syncing the same
// feed result twice leaves the table unchanged.
type Candle struct {
	Date        time.Time       `json:"date"`
	Ticker      string          `json:"ticker"`
	Open        decimal.Decimal `json:"open"`
	High        decimal.Decimal `json:"high"`
	Low         decimal.Decimal `json:"low"`
	Close       decimal.Decimal `json:"close"`
	Volume      int64           `json:"volume"`
	Dividends   decimal.Decimal `json:"dividends"`
	StockSplits decimal.Decimal `json:"stock_splits"`
	CreatedAt   time.Time       `json:"created_at"`
	UpdatedAt   time.Time       `json:"updated_at"`
}
