// Package marketdata fetches daily bars from the price feed and merges
// them into the Store without duplicating or corrupting history.
package marketdata

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/quantpilot/advisor/internal/models"
)

// Feed is the price-feed boundary: given a ticker, return its freshest
// daily bar or an explicit failure for that ticker.
type Feed interface {
	LatestDaily(ctx context.Context, ticker string) (*models.Candle, error)
}

// PartialFetchError lists tickers whose fetch failed. It is non-fatal:
// synchronization proceeded for every other ticker and the cycle
// continues.
type PartialFetchError struct {
	Failed map[string]error
}

// Tickers returns the failed tickers in sorted order.
func (e *PartialFetchError) Tickers() []string {
	tickers := make([]string, 0, len(e.Failed))
	for t := range e.Failed {
		tickers = append(tickers, t)
	}
	sort.Strings(tickers)
	return tickers
}

func (e *PartialFetchError) Error() string {
	return fmt.Sprintf("fetch failed for: %s", strings.Join(e.Tickers(), ", "))
}
