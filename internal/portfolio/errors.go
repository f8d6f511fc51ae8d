package portfolio

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// InvalidOrderError rejects an order batch on a malformed order or a batch
// that would drive cash below zero. It aborts the whole batch; nothing is
// persisted.
type InvalidOrderError struct {
	Ticker string
	Reason string
}

func (e *InvalidOrderError) Error() string {
	if e.Ticker == "" {
		return fmt.Sprintf("invalid order batch: %s", e.Reason)
	}
	return fmt.Sprintf("invalid order for %s: %s", e.Ticker, e.Reason)
}

// InsufficientPositionError rejects a sell that exceeds the held quantity,
// including any sell of a ticker not held at all.
type InsufficientPositionError struct {
	Ticker    string
	Held      decimal.Decimal
	Requested decimal.Decimal
}

func (e *InsufficientPositionError) Error() string {
	return fmt.Sprintf("insufficient position in %s: held %s, sell %s",
		e.Ticker, e.Held, e.Requested)
}
