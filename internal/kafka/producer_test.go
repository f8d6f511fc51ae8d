package kafka

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"

	"github.com/quantpilot/advisor/internal/models"
)

func TestNewOrderEvent(t *testing.T) {
	date := time.Date(2026, 8, 25, 0, 0, 0, 0, time.UTC)

	t.Run("buy order", func(t *testing.T) {
		event := newOrderEvent(date, &models.Order{
			Date: date, Ticker: "AAPL",
			Qty: decimal.NewFromInt(10), Price: decimal.NewFromFloat(175),
		})

		assert.Equal(t, "ORDER_EXECUTED", event.EventType)
		assert.Equal(t, "2026-08-25", event.Date)
		assert.Equal(t, "BUY", event.Side)
		assert.True(t, decimal.NewFromFloat(1750).Equal(event.Notional))
	})

	t.Run("sell order carries absolute notional", func(t *testing.T) {
		event := newOrderEvent(date, &models.Order{
			Date: date, Ticker: "MSFT",
			Qty: decimal.NewFromInt(-3), Price: decimal.NewFromFloat(400),
		})

		assert.Equal(t, "SELL", event.Side)
		assert.True(t, decimal.NewFromFloat(1200).Equal(event.Notional))
	})

	t.Run("zero qty is a hold", func(t *testing.T) {
		event := newOrderEvent(date, &models.Order{
			Date: date, Ticker: "AAPL",
			Qty: decimal.Zero, Price: decimal.NewFromFloat(175),
		})

		assert.Equal(t, "HOLD", event.Side)
		assert.True(t, event.Notional.IsZero())
	})
}
