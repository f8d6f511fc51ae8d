package portfolio

import (
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/quantpilot/advisor/internal/models"
)

var testDate = time.Date(2025, 1, 3, 0, 0, 0, 0, time.UTC)

func snapshotWith(positions []*models.Position, cash float64, candles []*models.Candle) *models.PortfolioSnapshot {
	amount := decimal.NewFromFloat(cash)
	return &models.PortfolioSnapshot{
		Kind:      models.CycleTactical,
		Positions: positions,
		Cash:      &models.CashSnapshot{Date: testDate.AddDate(0, 0, -1), Amount: amount},
		Candles:   candles,
	}
}

func position(ticker string, qty, avgPrice float64) *models.Position {
	return &models.Position{
		Date:     testDate.AddDate(0, 0, -1),
		Ticker:   ticker,
		Qty:      decimal.NewFromFloat(qty),
		AvgPrice: decimal.NewFromFloat(avgPrice),
	}
}

func order(ticker string, qty, price float64) models.OrderRequest {
	return models.OrderRequest{
		Ticker: ticker,
		Qty:    decimal.NewFromFloat(qty),
		Price:  decimal.NewFromFloat(price),
	}
}

func TestApplyOrders_WeightedAverageCost(t *testing.T) {
	snap := snapshotWith(nil, 10000, nil)

	// First buy into an empty book.
	result, err := ApplyOrders(snap, testDate, []models.OrderRequest{order("AAPL", 10, 100)})
	require.NoError(t, err)
	require.Len(t, result.Positions, 1)
	assert.True(t, decimal.NewFromInt(10).Equal(result.Positions[0].Qty))
	assert.True(t, decimal.NewFromInt(100).Equal(result.Positions[0].AvgPrice))

	// Second buy at a higher price averages the cost basis.
	snap = snapshotWith([]*models.Position{position("AAPL", 10, 100)}, 9000, nil)
	result, err = ApplyOrders(snap, testDate, []models.OrderRequest{order("AAPL", 10, 120)})
	require.NoError(t, err)
	require.Len(t, result.Positions, 1)
	assert.True(t, decimal.NewFromInt(20).Equal(result.Positions[0].Qty), "qty = %s", result.Positions[0].Qty)
	assert.True(t, decimal.NewFromInt(110).Equal(result.Positions[0].AvgPrice), "avg = %s", result.Positions[0].AvgPrice)
}

func TestApplyOrders_SellKeepsCostBasis(t *testing.T) {
	snap := snapshotWith([]*models.Position{position("AAPL", 20, 110)}, 1000, nil)

	result, err := ApplyOrders(snap, testDate, []models.OrderRequest{order("AAPL", -5, 130)})
	require.NoError(t, err)
	require.Len(t, result.Positions, 1)
	assert.True(t, decimal.NewFromInt(15).Equal(result.Positions[0].Qty))
	assert.True(t, decimal.NewFromInt(110).Equal(result.Positions[0].AvgPrice),
		"selling must not change the cost basis of the remainder")
	assert.True(t, decimal.NewFromInt(1650).Equal(result.Cash.Amount), "cash = %s", result.Cash.Amount)
}

func TestApplyOrders_CashConservation(t *testing.T) {
	snap := snapshotWith([]*models.Position{position("AAPL", 50, 90)}, 5000, nil)

	orders := []models.OrderRequest{
		order("MSFT", 10, 200),  // -2000
		order("AAPL", -20, 95),  // +1900
		order("GOOGL", 5, 150),  // -750
	}
	result, err := ApplyOrders(snap, testDate, orders)
	require.NoError(t, err)

	// new_cash == old_cash - sum(buys) + sum(sells), exactly.
	expected := decimal.NewFromInt(5000 - 2000 + 1900 - 750)
	assert.True(t, expected.Equal(result.Cash.Amount), "cash = %s", result.Cash.Amount)
	assert.True(t, decimal.NewFromInt(-850).Equal(result.CashDelta))
}

func TestApplyOrders_OversellRejected(t *testing.T) {
	snap := snapshotWith([]*models.Position{position("AAPL", 3, 100)}, 1000, nil)

	_, err := ApplyOrders(snap, testDate, []models.OrderRequest{order("AAPL", -5, 100)})
	require.Error(t, err)

	var insufficientErr *InsufficientPositionError
	require.True(t, errors.As(err, &insufficientErr))
	assert.Equal(t, "AAPL", insufficientErr.Ticker)
	assert.True(t, decimal.NewFromInt(3).Equal(insufficientErr.Held))
	assert.True(t, decimal.NewFromInt(5).Equal(insufficientErr.Requested))
}

func TestApplyOrders_SellUnheldTickerRejected(t *testing.T) {
	snap := snapshotWith(nil, 1000, nil)

	_, err := ApplyOrders(snap, testDate, []models.OrderRequest{order("TSLA", -1, 200)})
	var insufficientErr *InsufficientPositionError
	require.True(t, errors.As(err, &insufficientErr))
	assert.True(t, insufficientErr.Held.IsZero())
}

func TestApplyOrders_NegativePriceRejected(t *testing.T) {
	snap := snapshotWith(nil, 1000, nil)

	_, err := ApplyOrders(snap, testDate, []models.OrderRequest{order("AAPL", 1, -10)})
	var invalidErr *InvalidOrderError
	require.True(t, errors.As(err, &invalidErr))
}

func TestApplyOrders_ZeroQtyRecordedButSkipped(t *testing.T) {
	snap := snapshotWith(nil, 1000, nil)

	result, err := ApplyOrders(snap, testDate, []models.OrderRequest{order("AAPL", 0, 100)})
	require.NoError(t, err)

	// The ledger row still exists: orders are history, not derived state.
	require.Len(t, result.Orders, 1)
	assert.Empty(t, result.Positions)
	assert.True(t, decimal.NewFromInt(1000).Equal(result.Cash.Amount))
}

func TestApplyOrders_MidBatchFailureReturnsNothing(t *testing.T) {
	snap := snapshotWith([]*models.Position{position("AAPL", 10, 100)}, 10000, nil)

	orders := []models.OrderRequest{
		order("AAPL", 5, 100),
		order("MSFT", 2, 300),
		order("AAPL", -50, 100), // oversell: the whole batch must fail
		order("GOOGL", 1, 150),
	}
	result, err := ApplyOrders(snap, testDate, orders)
	require.Error(t, err)
	assert.Nil(t, result, "a failed batch must not return partial results")
}

func TestApplyOrders_CashCannotGoNegative(t *testing.T) {
	snap := snapshotWith(nil, 100, nil)

	_, err := ApplyOrders(snap, testDate, []models.OrderRequest{order("AAPL", 10, 100)})
	var invalidErr *InvalidOrderError
	require.True(t, errors.As(err, &invalidErr))
}

func TestApplyOrders_TotalPortfolioUsesLatestClose(t *testing.T) {
	candles := []*models.Candle{
		{Date: testDate, Ticker: "AAPL", Close: decimal.NewFromInt(130)},
	}
	snap := snapshotWith([]*models.Position{
		position("AAPL", 10, 100),
		position("MSFT", 2, 300), // no candle: marks at average cost
	}, 1000, candles)

	result, err := ApplyOrders(snap, testDate, []models.OrderRequest{order("AAPL", 5, 120)})
	require.NoError(t, err)

	// cash 1000-600=400; AAPL 15*130=1950; MSFT 2*300=600
	require.NotNil(t, result.Cash.TotalPortfolioAmount)
	assert.True(t, decimal.NewFromInt(2950).Equal(*result.Cash.TotalPortfolioAmount),
		"total = %s", result.Cash.TotalPortfolioAmount)
}

func TestApplyOrders_SellToFlatKeepsZeroQtyRow(t *testing.T) {
	snap := snapshotWith([]*models.Position{position("AAPL", 10, 100)}, 0, nil)

	result, err := ApplyOrders(snap, testDate, []models.OrderRequest{order("AAPL", -10, 120)})
	require.NoError(t, err)
	require.Len(t, result.Positions, 1)
	assert.True(t, result.Positions[0].Qty.IsZero())
	assert.True(t, decimal.NewFromInt(1200).Equal(result.Cash.Amount))
}
