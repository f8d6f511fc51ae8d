package database

import (
	"database/sql"
	"time"

	"github.com/shopspring/decimal"

	"github.com/quantpilot/advisor/internal/models"
)

// UpsertCashSnapshot inserts or overwrites the cash snapshot for its date.
func (db *DB) UpsertCashSnapshot(c *models.CashSnapshot) error {
	query := `
		INSERT INTO cash_snapshots (date, amount, total_portfolio_amount, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (date) DO UPDATE SET
			amount = EXCLUDED.amount,
			total_portfolio_amount = EXCLUDED.total_portfolio_amount,
			updated_at = EXCLUDED.updated_at
	`
	now := time.Now()
	var total interface{}
	if c.TotalPortfolioAmount != nil {
		total = c.TotalPortfolioAmount.String()
	}

	_, err := db.conn.Exec(query, c.Date, c.Amount, total, now, now)
	if err != nil {
		return storageErr("upsert cash snapshot", err)
	}
	c.CreatedAt = now
	c.UpdatedAt = now
	return nil
}

// GetLatestCash returns the cash snapshot with the maximum date, or nil
// when the table is empty.
func (db *DB) GetLatestCash() (*models.CashSnapshot, error) {
	query := `
		SELECT date, amount, total_portfolio_amount, created_at, updated_at
		FROM cash_snapshots
		ORDER BY date DESC
		LIMIT 1
	`
	return db.scanCashRow(db.conn.QueryRow(query))
}

// GetLatestCashBefore returns the most recent cash snapshot strictly
// before the given date, or nil when no such row exists. The Decision
// Applier uses it as the balance an order batch starts from.
func (db *DB) GetLatestCashBefore(date time.Time) (*models.CashSnapshot, error) {
	query := `
		SELECT date, amount, total_portfolio_amount, created_at, updated_at
		FROM cash_snapshots
		WHERE date < $1
		ORDER BY date DESC
		LIMIT 1
	`
	return db.scanCashRow(db.conn.QueryRow(query, date))
}

func (db *DB) scanCashRow(row *sql.Row) (*models.CashSnapshot, error) {
	var c models.CashSnapshot
	var total sql.NullString

	err := row.Scan(&c.Date, &c.Amount, &total, &c.CreatedAt, &c.UpdatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, storageErr("get cash snapshot", err)
	}

	if total.Valid {
		amount, err := decimal.NewFromString(total.String)
		if err != nil {
			return nil, storageErr("parse total portfolio amount", err)
		}
		c.TotalPortfolioAmount = &amount
	}
	return &c, nil
}
