package database

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/quantpilot/advisor/internal/models"
)

// CreateOrder appends one order to the ledger. Orders are insert-only;
// there is no update or delete path.
func (db *DB) CreateOrder(o *models.Order) error {
	query := `
		INSERT INTO orders (date, ticker, qty, price, created_at)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id
	`
	now := time.Now()
	err := db.conn.QueryRow(query, o.Date, o.Ticker, o.Qty, o.Price, now).Scan(&o.ID)
	if err != nil {
		return storageErr(fmt.Sprintf("create order for %s", o.Ticker), err)
	}
	o.CreatedAt = now
	return nil
}

const orderColumns = "id, date, ticker, qty, price, created_at"

// GetOrdersOnLatestDate returns every order sharing the maximum order
// date, in insertion order. A trading day can produce multiple orders and
// all of them are returned, never an arbitrary single row. Empty table
// yields an empty slice.
func (db *DB) GetOrdersOnLatestDate() ([]*models.Order, error) {
	query := `
		SELECT ` + orderColumns + `
		FROM orders
		WHERE date = (SELECT MAX(date) FROM orders)
		ORDER BY id
	`
	return db.scanOrders(db.conn.Query(query))
}

// GetOrdersSince returns all orders on or after the given date, in
// (date, id) order.
func (db *DB) GetOrdersSince(date time.Time) ([]*models.Order, error) {
	query := `
		SELECT ` + orderColumns + `
		FROM orders
		WHERE date >= $1
		ORDER BY date, id
	`
	return db.scanOrders(db.conn.Query(query, date))
}

func (db *DB) scanOrders(rows *sql.Rows, err error) ([]*models.Order, error) {
	if err != nil {
		return nil, storageErr("query orders", err)
	}
	defer rows.Close()

	var orders []*models.Order
	for rows.Next() {
		var o models.Order
		if err := rows.Scan(&o.ID, &o.Date, &o.Ticker, &o.Qty, &o.Price, &o.CreatedAt); err != nil {
			return nil, storageErr("scan order", err)
		}
		orders = append(orders, &o)
	}
	if err := rows.Err(); err != nil {
		return nil, storageErr("iterate orders", err)
	}
	return orders, nil
}
