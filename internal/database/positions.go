package database

import (
	"fmt"
	"time"

	"github.com/quantpilot/advisor/internal/models"
)

// UpsertPosition inserts or overwrites the position row for (date, ticker).
func (db *DB) UpsertPosition(p *models.Position) error {
	query := `
		INSERT INTO positions (date, ticker, qty, avg_price, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (date, ticker) DO UPDATE SET
			qty = EXCLUDED.qty,
			avg_price = EXCLUDED.avg_price,
			updated_at = EXCLUDED.updated_at
		RETURNING id
	`
	now := time.Now()
	err := db.conn.QueryRow(query, p.Date, p.Ticker, p.Qty, p.AvgPrice, now, now).Scan(&p.ID)
	if err != nil {
		return storageErr(fmt.Sprintf("upsert position for %s", p.Ticker), err)
	}
	p.CreatedAt = now
	p.UpdatedAt = now
	return nil
}

// GetCurrentPositions returns the latest row per ticker. The selection is
// per ticker rather than a global latest date: a ticker untouched for a
// week still contributes its last known row.
func (db *DB) GetCurrentPositions() ([]*models.Position, error) {
	query := `
		SELECT DISTINCT ON (ticker) id, date, ticker, qty, avg_price, created_at, updated_at
		FROM positions
		ORDER BY ticker, date DESC, id DESC
	`
	rows, err := db.conn.Query(query)
	if err != nil {
		return nil, storageErr("query current positions", err)
	}
	defer rows.Close()

	var positions []*models.Position
	for rows.Next() {
		var p models.Position
		if err := rows.Scan(&p.ID, &p.Date, &p.Ticker, &p.Qty, &p.AvgPrice, &p.CreatedAt, &p.UpdatedAt); err != nil {
			return nil, storageErr("scan position", err)
		}
		positions = append(positions, &p)
	}
	if err := rows.Err(); err != nil {
		return nil, storageErr("iterate positions", err)
	}
	return positions, nil
}

// GetPositionHistory returns every stored row for a ticker, oldest first.
func (db *DB) GetPositionHistory(ticker string) ([]*models.Position, error) {
	query := `
		SELECT id, date, ticker, qty, avg_price, created_at, updated_at
		FROM positions
		WHERE ticker = $1
		ORDER BY date, id
	`
	rows, err := db.conn.Query(query, ticker)
	if err != nil {
		return nil, storageErr(fmt.Sprintf("query position history for %s", ticker), err)
	}
	defer rows.Close()

	var positions []*models.Position
	for rows.Next() {
		var p models.Position
		if err := rows.Scan(&p.ID, &p.Date, &p.Ticker, &p.Qty, &p.AvgPrice, &p.CreatedAt, &p.UpdatedAt); err != nil {
			return nil, storageErr("scan position", err)
		}
		positions = append(positions, &p)
	}
	if err := rows.Err(); err != nil {
		return nil, storageErr("iterate positions", err)
	}
	return positions, nil
}
