// Package portfolio implements the order-application arithmetic: weighted
// average cost on buys, cost basis preserved on sells, cash conservation,
// and the portfolio-total mark. It is pure; persistence belongs to the
// database package.
package portfolio

import (
	"sort"
	"time"

	"github.com/shopspring/decimal"

	"github.com/quantpilot/advisor/internal/models"
)

// TradeResult is the in-memory outcome of applying one order batch. It
// carries only what changed: the ledger rows to insert, the position rows
// to upsert for the batch date, and the new cash snapshot.
type TradeResult struct {
	Date      time.Time
	Orders    []*models.Order
	Positions []*models.Position
	Cash      *models.CashSnapshot
	CashDelta decimal.Decimal
}

// ApplyOrders applies a batch of advisor orders to the snapshot's current
// book, in the order received.
//
// Rules, per order:
//   - price < 0 fails the whole batch with InvalidOrderError
//   - qty == 0 is a no-op for the book but is still recorded in the ledger
//   - a buy folds into the weighted average cost; cash decreases by qty*price
//   - a sell keeps avg_price (selling does not change the cost basis of the
//     remainder); cash increases by |qty|*price; selling more than held,
//     including any sell of an unheld ticker, fails with
//     InsufficientPositionError
//
// Any failure aborts the batch: the caller must not persist anything from
// a failed call. The final cash amount must not be negative.
func ApplyOrders(snap *models.PortfolioSnapshot, date time.Time, orders []models.OrderRequest) (*TradeResult, error) {
	book := make(map[string]*models.Position, len(snap.Positions))
	for _, p := range snap.Positions {
		book[p.Ticker] = &models.Position{
			Date:     date,
			Ticker:   p.Ticker,
			Qty:      p.Qty,
			AvgPrice: p.AvgPrice,
		}
	}

	result := &TradeResult{Date: date, CashDelta: decimal.Zero}
	touched := make(map[string]bool, len(orders))

	for _, req := range orders {
		if req.Price.IsNegative() {
			return nil, &InvalidOrderError{Ticker: req.Ticker, Reason: "price must be >= 0"}
		}

		// Every order lands in the ledger, zero-qty included: the ledger
		// is a historical record, not a derived artifact.
		order := &models.Order{
			Date:   date,
			Ticker: req.Ticker,
			Qty:    req.Qty,
			Price:  req.Price,
		}
		result.Orders = append(result.Orders, order)

		if req.Qty.IsZero() {
			continue
		}

		pos, held := book[req.Ticker]

		if order.IsBuy() {
			if !held {
				book[req.Ticker] = &models.Position{
					Date:     date,
					Ticker:   req.Ticker,
					Qty:      req.Qty,
					AvgPrice: req.Price,
				}
			} else {
				newQty := pos.Qty.Add(req.Qty)
				cost := pos.Qty.Mul(pos.AvgPrice).Add(order.Notional())
				pos.AvgPrice = cost.Div(newQty)
				pos.Qty = newQty
				pos.Date = date
			}
			result.CashDelta = result.CashDelta.Sub(order.Notional())
		} else {
			if !held {
				return nil, &InsufficientPositionError{
					Ticker:    req.Ticker,
					Held:      decimal.Zero,
					Requested: req.Qty.Abs(),
				}
			}
			newQty := pos.Qty.Add(req.Qty)
			if newQty.IsNegative() {
				return nil, &InsufficientPositionError{
					Ticker:    req.Ticker,
					Held:      pos.Qty,
					Requested: req.Qty.Abs(),
				}
			}
			pos.Qty = newQty
			pos.Date = date
			result.CashDelta = result.CashDelta.Add(order.Notional())
		}
		touched[req.Ticker] = true
	}

	prevCash := decimal.Zero
	if snap.Cash != nil {
		prevCash = snap.Cash.Amount
	}
	newCash := prevCash.Add(result.CashDelta)
	if newCash.IsNegative() {
		return nil, &InvalidOrderError{Reason: "batch would drive cash below zero: " + newCash.String()}
	}

	for ticker := range touched {
		result.Positions = append(result.Positions, book[ticker])
	}
	sort.Slice(result.Positions, func(i, j int) bool {
		return result.Positions[i].Ticker < result.Positions[j].Ticker
	})

	total := totalPortfolioAmount(newCash, book, snap.LatestCloses())
	result.Cash = &models.CashSnapshot{
		Date:                 date,
		Amount:               newCash,
		TotalPortfolioAmount: &total,
	}

	return result, nil
}

// totalPortfolioAmount marks every position at its most recent close.
// A ticker with no candle on record is marked at its average cost.
func totalPortfolioAmount(cash decimal.Decimal, book map[string]*models.Position, closes map[string]*models.Candle) decimal.Decimal {
	total := cash
	for ticker, pos := range book {
		if pos.Qty.IsZero() {
			continue
		}
		price := pos.AvgPrice
		if c, ok := closes[ticker]; ok {
			price = c.Close
		}
		total = total.Add(pos.MarketValue(price))
	}
	return total
}
