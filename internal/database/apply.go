package database

import (
	"fmt"
	"time"

	"github.com/quantpilot/advisor/internal/models"
)

// TradeBatch is the full persisted outcome of one applied decision: the
// order ledger rows, the resulting position rows, the new cash snapshot,
// and any strategic advisories consumed along the way.
type TradeBatch struct {
	Date               time.Time
	Orders             []*models.Order
	Positions          []*models.Position
	Cash               *models.CashSnapshot
	ConsumedPendingIDs []int
}

// ApplyTradeBatch commits an applied decision in ONE transaction: every
// order insert, every position upsert, the cash snapshot, and the pending
// order consumption either all commit or none do. This is the load-bearing
// correctness property of the whole system; any error on any row rolls the
// entire batch back.
func (db *DB) ApplyTradeBatch(b *TradeBatch) error {
	tx, err := db.conn.Begin()
	if err != nil {
		return storageErr("begin trade batch", err)
	}
	defer tx.Rollback()

	now := time.Now()

	orderInsert := `
		INSERT INTO orders (date, ticker, qty, price, created_at)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id
	`
	for _, o := range b.Orders {
		if err := tx.QueryRow(orderInsert, o.Date, o.Ticker, o.Qty, o.Price, now).Scan(&o.ID); err != nil {
			return storageErr(fmt.Sprintf("insert order for %s", o.Ticker), err)
		}
		o.CreatedAt = now
	}

	positionUpsert := `
		INSERT INTO positions (date, ticker, qty, avg_price, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (date, ticker) DO UPDATE SET
			qty = EXCLUDED.qty,
			avg_price = EXCLUDED.avg_price,
			updated_at = EXCLUDED.updated_at
		RETURNING id
	`
	for _, p := range b.Positions {
		if err := tx.QueryRow(positionUpsert, p.Date, p.Ticker, p.Qty, p.AvgPrice, now, now).Scan(&p.ID); err != nil {
			return storageErr(fmt.Sprintf("upsert position for %s", p.Ticker), err)
		}
		p.CreatedAt = now
		p.UpdatedAt = now
	}

	if b.Cash != nil {
		cashUpsert := `
			INSERT INTO cash_snapshots (date, amount, total_portfolio_amount, created_at, updated_at)
			VALUES ($1, $2, $3, $4, $5)
			ON CONFLICT (date) DO UPDATE SET
				amount = EXCLUDED.amount,
				total_portfolio_amount = EXCLUDED.total_portfolio_amount,
				updated_at = EXCLUDED.updated_at
		`
		var total interface{}
		if b.Cash.TotalPortfolioAmount != nil {
			total = b.Cash.TotalPortfolioAmount.String()
		}
		if _, err := tx.Exec(cashUpsert, b.Cash.Date, b.Cash.Amount, total, now, now); err != nil {
			return storageErr("upsert cash snapshot", err)
		}
		b.Cash.CreatedAt = now
		b.Cash.UpdatedAt = now
	}

	if err := markPendingConsumedTx(tx, b.ConsumedPendingIDs); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return storageErr("commit trade batch", err)
	}
	return nil
}

// SaveResearchOutcome persists the strategic cycle's side effects in one
// transaction: the dated research note and any advisories for the next
// tactical cycle.
func (db *DB) SaveResearchOutcome(note *models.ResearchNote, pending []*models.PendingOrder) error {
	tx, err := db.conn.Begin()
	if err != nil {
		return storageErr("begin research outcome", err)
	}
	defer tx.Rollback()

	now := time.Now()
	noteUpsert := `
		INSERT INTO research_notes (date, body, created_at)
		VALUES ($1, $2, $3)
		ON CONFLICT (date) DO UPDATE SET body = EXCLUDED.body
	`
	if _, err := tx.Exec(noteUpsert, note.Date, note.Body, now); err != nil {
		return storageErr("insert research note", err)
	}
	note.CreatedAt = now

	if err := createPendingOrdersTx(tx, pending); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return storageErr("commit research outcome", err)
	}
	return nil
}
