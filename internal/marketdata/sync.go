package marketdata

import (
	"context"

	"github.com/rs/zerolog"

	"github.com/quantpilot/advisor/internal/models"
)

// CandleStore is the subset of the database layer the synchronizer writes to.
type CandleStore interface {
	UpsertCandleBatch(candles []*models.Candle) error
}

// Syncer merges fresh daily bars into the Store. Re-running with the same
// feed result is a no-op from the caller's observable perspective.
type Syncer struct {
	store CandleStore
	feed  Feed
	log   zerolog.Logger
}

// NewSyncer creates a candle synchronizer.
func NewSyncer(store CandleStore, feed Feed, log zerolog.Logger) *Syncer {
	return &Syncer{
		store: store,
		feed:  feed,
		log:   log.With().Str("component", "candle_sync").Logger(),
	}
}

// Sync fetches the freshest bar per ticker, upserts them in one batch,
// and returns the bars it persisted. A failed fetch never blocks the
// others: successes are persisted and the failures come back as a
// *PartialFetchError for the caller to log. A Store failure is returned
// as-is and is fatal.
func (s *Syncer) Sync(ctx context.Context, tickers []string) ([]*models.Candle, error) {
	var candles []*models.Candle
	failed := make(map[string]error)

	for _, ticker := range tickers {
		candle, err := s.feed.LatestDaily(ctx, ticker)
		if err != nil {
			s.log.Warn().Err(err).Str("ticker", ticker).Msg("Fetch failed, skipping ticker")
			failed[ticker] = err
			continue
		}
		candles = append(candles, candle)
	}

	if err := s.store.UpsertCandleBatch(candles); err != nil {
		return nil, err
	}

	s.log.Info().Int("upserted", len(candles)).Int("failed", len(failed)).Msg("Candle sync complete")

	if len(failed) > 0 {
		return candles, &PartialFetchError{Failed: failed}
	}
	return candles, nil
}
