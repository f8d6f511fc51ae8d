package marketdata

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/piquette/finance-go/chart"
	"github.com/piquette/finance-go/datetime"
	"github.com/shopspring/decimal"

	"github.com/quantpilot/advisor/internal/models"
)

// lookbackDays is wide enough to cover weekends and market holidays so
// that the trailing window always contains at least one trading day.
const lookbackDays = 10

// YahooFeed fetches daily bars from Yahoo Finance.
type YahooFeed struct{}

// NewYahooFeed creates a Yahoo Finance price feed.
func NewYahooFeed() *YahooFeed {
	return &YahooFeed{}
}

// LatestDaily returns the most recent daily bar for the ticker. The bar's
// date is the actual trading day, not the fetch day, so weekend runs
// re-ingest Friday's bar idempotently.
func (f *YahooFeed) LatestDaily(ctx context.Context, ticker string) (*models.Candle, error) {
	ticker = strings.ToUpper(strings.TrimSpace(ticker))
	if ticker == "" {
		return nil, fmt.Errorf("ticker must not be empty")
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	end := time.Now()
	start := end.AddDate(0, 0, -lookbackDays)
	params := &chart.Params{
		Symbol:   ticker,
		Start:    datetime.New(&start),
		End:      datetime.New(&end),
		Interval: datetime.OneDay,
	}

	iter := chart.Get(params)

	var latest *models.Candle
	for iter.Next() {
		bar := iter.Bar()
		day := time.Unix(int64(bar.Timestamp), 0).UTC()
		latest = &models.Candle{
			Date:        time.Date(day.Year(), day.Month(), day.Day(), 0, 0, 0, 0, time.UTC),
			Ticker:      ticker,
			Open:        bar.Open,
			High:        bar.High,
			Low:         bar.Low,
			Close:       bar.Close,
			Volume:      int64(bar.Volume),
			Dividends:   decimal.Zero,
			StockSplits: decimal.Zero,
		}
	}
	if err := iter.Err(); err != nil {
		return nil, fmt.Errorf("failed to fetch bars for %s: %w", ticker, err)
	}
	if latest == nil {
		return nil, fmt.Errorf("no recent bars for %s", ticker)
	}
	return latest, nil
}
