package database

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/quantpilot/advisor/internal/models"
)

// CreatePendingOrders stores advisories from the strategic cycle in a
// single transaction. They are surfaced to the next tactical cycle, not
// executed here.
func (db *DB) CreatePendingOrders(pending []*models.PendingOrder) error {
	if len(pending) == 0 {
		return nil
	}

	tx, err := db.conn.Begin()
	if err != nil {
		return storageErr("begin pending order batch", err)
	}
	defer tx.Rollback()

	if err := createPendingOrdersTx(tx, pending); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return storageErr("commit pending order batch", err)
	}
	return nil
}

func createPendingOrdersTx(tx *sql.Tx, pending []*models.PendingOrder) error {
	query := `
		INSERT INTO pending_orders (date, ticker, qty, price, consumed, created_at)
		VALUES ($1, $2, $3, $4, false, $5)
		RETURNING id
	`
	now := time.Now()
	for _, p := range pending {
		if err := tx.QueryRow(query, p.Date, p.Ticker, p.Qty, p.Price, now).Scan(&p.ID); err != nil {
			return storageErr(fmt.Sprintf("create pending order for %s", p.Ticker), err)
		}
		p.CreatedAt = now
	}
	return nil
}

// GetUnconsumedPendingOrders returns advisories not yet surfaced to a
// tactical cycle, oldest first.
func (db *DB) GetUnconsumedPendingOrders() ([]*models.PendingOrder, error) {
	query := `
		SELECT id, date, ticker, qty, price, consumed, created_at
		FROM pending_orders
		WHERE consumed = false
		ORDER BY date, id
	`
	rows, err := db.conn.Query(query)
	if err != nil {
		return nil, storageErr("query pending orders", err)
	}
	defer rows.Close()

	var pending []*models.PendingOrder
	for rows.Next() {
		var p models.PendingOrder
		if err := rows.Scan(&p.ID, &p.Date, &p.Ticker, &p.Qty, &p.Price, &p.Consumed, &p.CreatedAt); err != nil {
			return nil, storageErr("scan pending order", err)
		}
		pending = append(pending, &p)
	}
	if err := rows.Err(); err != nil {
		return nil, storageErr("iterate pending orders", err)
	}
	return pending, nil
}

// ConsumePendingOrders marks advisories consumed once a tactical cycle
// has surfaced them to the advisor, in a single transaction.
func (db *DB) ConsumePendingOrders(ids []int) error {
	if len(ids) == 0 {
		return nil
	}

	tx, err := db.conn.Begin()
	if err != nil {
		return storageErr("begin pending order consumption", err)
	}
	defer tx.Rollback()

	if err := markPendingConsumedTx(tx, ids); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return storageErr("commit pending order consumption", err)
	}
	return nil
}

func markPendingConsumedTx(tx *sql.Tx, ids []int) error {
	query := `UPDATE pending_orders SET consumed = true WHERE id = $1`
	for _, id := range ids {
		if _, err := tx.Exec(query, id); err != nil {
			return storageErr(fmt.Sprintf("mark pending order %d consumed", id), err)
		}
	}
	return nil
}
