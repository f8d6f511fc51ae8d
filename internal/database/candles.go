package database

import (
	"fmt"
	"time"

	"github.com/quantpilot/advisor/internal/models"
)

const candleUpsert = `
	INSERT INTO candles (date, ticker, open, high, low, close, volume, dividends, stock_splits, created_at, updated_at)
	VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
	ON CONFLICT (date, ticker) DO UPDATE SET
		open = EXCLUDED.open,
		high = EXCLUDED.high,
		low = EXCLUDED.low,
		close = EXCLUDED.close,
		volume = EXCLUDED.volume,
		dividends = EXCLUDED.dividends,
		stock_splits = EXCLUDED.stock_splits,
		updated_at = EXCLUDED.updated_at
`

// UpsertCandle inserts or overwrites one daily bar keyed by (date, ticker).
func (db *DB) UpsertCandle(c *models.Candle) error {
	now := time.Now()
	_, err := db.conn.Exec(candleUpsert,
		c.Date, c.Ticker, c.Open, c.High, c.Low, c.Close, c.Volume, c.Dividends, c.StockSplits, now, now,
	)
	if err != nil {
		return storageErr(fmt.Sprintf("upsert candle for %s", c.Ticker), err)
	}
	return nil
}

// UpsertCandleBatch upserts multiple bars in a single transaction.
// Re-running the same batch leaves the table observably unchanged.
func (db *DB) UpsertCandleBatch(candles []*models.Candle) error {
	if len(candles) == 0 {
		return nil
	}

	tx, err := db.conn.Begin()
	if err != nil {
		return storageErr("begin candle batch", err)
	}
	defer tx.Rollback()

	stmt, err := tx.Prepare(candleUpsert)
	if err != nil {
		return storageErr("prepare candle upsert", err)
	}
	defer stmt.Close()

	now := time.Now()
	for _, c := range candles {
		_, err := stmt.Exec(c.Date, c.Ticker, c.Open, c.High, c.Low, c.Close, c.Volume, c.Dividends, c.StockSplits, now, now)
		if err != nil {
			return storageErr(fmt.Sprintf("upsert candle for %s", c.Ticker), err)
		}
	}

	if err := tx.Commit(); err != nil {
		return storageErr("commit candle batch", err)
	}
	return nil
}

// GetLatestCandles returns the most recent bar per ticker.
func (db *DB) GetLatestCandles() ([]*models.Candle, error) {
	query := `
		SELECT DISTINCT ON (ticker) date, ticker, open, high, low, close, volume, dividends, stock_splits, created_at, updated_at
		FROM candles
		ORDER BY ticker, date DESC
	`
	rows, err := db.conn.Query(query)
	if err != nil {
		return nil, storageErr("query latest candles", err)
	}
	defer rows.Close()

	var candles []*models.Candle
	for rows.Next() {
		var c models.Candle
		err := rows.Scan(&c.Date, &c.Ticker, &c.Open, &c.High, &c.Low, &c.Close,
			&c.Volume, &c.Dividends, &c.StockSplits, &c.CreatedAt, &c.UpdatedAt)
		if err != nil {
			return nil, storageErr("scan candle", err)
		}
		candles = append(candles, &c)
	}
	if err := rows.Err(); err != nil {
		return nil, storageErr("iterate candles", err)
	}
	return candles, nil
}

// GetCandleHistory returns the most recent bars for a ticker, newest
// first, capped at limit.
func (db *DB) GetCandleHistory(ticker string, limit int) ([]*models.Candle, error) {
	query := `
		SELECT date, ticker, open, high, low, close, volume, dividends, stock_splits, created_at, updated_at
		FROM candles
		WHERE ticker = $1
		ORDER BY date DESC
		LIMIT $2
	`
	rows, err := db.conn.Query(query, ticker, limit)
	if err != nil {
		return nil, storageErr(fmt.Sprintf("query candle history for %s", ticker), err)
	}
	defer rows.Close()

	var candles []*models.Candle
	for rows.Next() {
		var c models.Candle
		err := rows.Scan(&c.Date, &c.Ticker, &c.Open, &c.High, &c.Low, &c.Close,
			&c.Volume, &c.Dividends, &c.StockSplits, &c.CreatedAt, &c.UpdatedAt)
		if err != nil {
			return nil, storageErr("scan candle", err)
		}
		candles = append(candles, &c)
	}
	if err := rows.Err(); err != nil {
		return nil, storageErr("iterate candles", err)
	}
	return candles, nil
}
