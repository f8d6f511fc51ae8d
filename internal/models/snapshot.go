package models

// CycleKind distinguishes the two temporal flows that share the Store.
type CycleKind string

const (
	// CycleTactical is the daily flow: decide and execute orders.
	CycleTactical CycleKind = "tactical"
	// CycleStrategic is the weekly flow: deep research plus advisories.
	CycleStrategic CycleKind = "strategic"
)

// PortfolioSnapshot is a consistent point-in-time view of everything the
// advisor needs. It is built once per cycle, passed by value between
// components, and discarded after the cycle persists its results; no
// mutable portfolio state survives across cycles outside the Store.
type PortfolioSnapshot struct {
	Kind      CycleKind      `json:"kind"`
	Positions []*Position    `json:"positions"`
	Cash      *CashSnapshot  `json:"cash,omitempty"`
	// LatestOrders holds every order sharing the maximum order date: a
	// trading day can produce multiple orders and all of them are context.
	LatestOrders []*Order `json:"latest_orders"`
	// WeekOrders is the trailing week of orders; populated for the
	// strategic cycle only.
	WeekOrders []*Order      `json:"week_orders,omitempty"`
	Research   *ResearchNote `json:"research,omitempty"`
	// Candles holds the most recent bar per ticker.
	Candles []*Candle `json:"candles"`
	// PendingAdvisories are unconsumed strategic-cycle orders surfaced to
	// the tactical advisor; populated for the tactical cycle only.
	PendingAdvisories []*PendingOrder `json:"pending_advisories,omitempty"`
}

// Tickers returns the deduplicated ticker universe of the snapshot's
// positions, in first-seen order.
func (s *PortfolioSnapshot) Tickers() []string {
	seen := make(map[string]bool, len(s.Positions))
	var tickers []string
	for _, p := range s.Positions {
		if p.Ticker == "" || seen[p.Ticker] {
			continue
		}
		seen[p.Ticker] = true
		tickers = append(tickers, p.Ticker)
	}
	return tickers
}

// LatestCloses returns the most recent close per ticker from the
// snapshot's candles.
func (s *PortfolioSnapshot) LatestCloses() map[string]*Candle {
	closes := make(map[string]*Candle, len(s.Candles))
	for _, c := range s.Candles {
		closes[c.Ticker] = c
	}
	return closes
}
