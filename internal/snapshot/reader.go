// Package snapshot assembles the consistent point-in-time portfolio view
// handed to the decision provider. A snapshot is built once per cycle and
// discarded after the cycle completes.
package snapshot

import (
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/quantpilot/advisor/internal/models"
)

// Store is the subset of the database layer the reader consumes.
type Store interface {
	GetCurrentPositions() ([]*models.Position, error)
	GetLatestCash() (*models.CashSnapshot, error)
	GetOrdersOnLatestDate() ([]*models.Order, error)
	GetOrdersSince(date time.Time) ([]*models.Order, error)
	GetLatestResearchNote() (*models.ResearchNote, error)
	GetLatestCandles() ([]*models.Candle, error)
	GetUnconsumedPendingOrders() ([]*models.PendingOrder, error)
}

// EmptyDataError reports tables that had no rows while reading a snapshot.
// It is non-fatal: the snapshot is still returned with empty collections
// and the cycle continues with reduced context.
type EmptyDataError struct {
	Tables []string
}

func (e *EmptyDataError) Error() string {
	return fmt.Sprintf("no rows in: %s", strings.Join(e.Tables, ", "))
}

// Reader builds portfolio snapshots from the Store.
type Reader struct {
	store Store
	log   zerolog.Logger
}

// NewReader creates a snapshot reader.
func NewReader(store Store, log zerolog.Logger) *Reader {
	return &Reader{
		store: store,
		log:   log.With().Str("component", "snapshot").Logger(),
	}
}

// Read assembles the snapshot for the given cycle kind. On success the
// returned error is either nil or an *EmptyDataError naming the tables
// that contributed nothing; any other error is fatal to the cycle.
func (r *Reader) Read(kind models.CycleKind) (*models.PortfolioSnapshot, error) {
	snap := &models.PortfolioSnapshot{Kind: kind}
	var empty []string

	positions, err := r.store.GetCurrentPositions()
	if err != nil {
		return nil, err
	}
	if len(positions) == 0 {
		empty = append(empty, "positions")
	}
	snap.Positions = positions

	cash, err := r.store.GetLatestCash()
	if err != nil {
		return nil, err
	}
	if cash == nil {
		empty = append(empty, "cash_snapshots")
	}
	snap.Cash = cash

	orders, err := r.store.GetOrdersOnLatestDate()
	if err != nil {
		return nil, err
	}
	if len(orders) == 0 {
		empty = append(empty, "orders")
	}
	snap.LatestOrders = orders

	research, err := r.store.GetLatestResearchNote()
	if err != nil {
		return nil, err
	}
	if research == nil {
		empty = append(empty, "research_notes")
	}
	snap.Research = research

	candles, err := r.store.GetLatestCandles()
	if err != nil {
		return nil, err
	}
	if len(candles) == 0 {
		empty = append(empty, "candles")
	}
	snap.Candles = candles

	switch kind {
	case models.CycleTactical:
		pending, err := r.store.GetUnconsumedPendingOrders()
		if err != nil {
			return nil, err
		}
		snap.PendingAdvisories = pending
	case models.CycleStrategic:
		weekAgo := time.Now().UTC().AddDate(0, 0, -7)
		weekOrders, err := r.store.GetOrdersSince(weekAgo)
		if err != nil {
			return nil, err
		}
		snap.WeekOrders = weekOrders
	}

	if len(empty) > 0 {
		r.log.Warn().Strs("tables", empty).Msg("Snapshot built with reduced context")
		return snap, &EmptyDataError{Tables: empty}
	}
	return snap, nil
}
