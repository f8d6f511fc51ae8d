package snapshot

import (
	"fmt"
	"strings"

	"github.com/quantpilot/advisor/internal/models"
)

// Serialize renders a snapshot as the plain-text context block embedded in
// advisor prompts. Sections with no data are rendered as "(none)" so the
// advisor sees an explicit absence rather than a missing section.
func Serialize(snap *models.PortfolioSnapshot) string {
	var b strings.Builder

	b.WriteString("## Positions\n")
	if len(snap.Positions) == 0 {
		b.WriteString("(none)\n")
	} else {
		b.WriteString("date | ticker | qty | avg_price\n")
		for _, p := range snap.Positions {
			fmt.Fprintf(&b, "%s | %s | %s | %s\n",
				p.Date.Format(models.DateFormat), p.Ticker, p.Qty, p.AvgPrice)
		}
	}

	b.WriteString("\n## Cash\n")
	if snap.Cash == nil {
		b.WriteString("(none)\n")
	} else {
		fmt.Fprintf(&b, "date: %s amount: %s", snap.Cash.Date.Format(models.DateFormat), snap.Cash.Amount)
		if snap.Cash.TotalPortfolioAmount != nil {
			fmt.Fprintf(&b, " total_portfolio: %s", snap.Cash.TotalPortfolioAmount)
		}
		b.WriteString("\n")
	}

	b.WriteString("\n## Latest orders\n")
	writeOrders(&b, snap.LatestOrders)

	if len(snap.WeekOrders) > 0 {
		b.WriteString("\n## Orders in the last week\n")
		writeOrders(&b, snap.WeekOrders)
	}

	b.WriteString("\n## Latest close per ticker\n")
	if len(snap.Candles) == 0 {
		b.WriteString("(none)\n")
	} else {
		b.WriteString("date | ticker | close | volume\n")
		for _, c := range snap.Candles {
			fmt.Fprintf(&b, "%s | %s | %s | %d\n",
				c.Date.Format(models.DateFormat), c.Ticker, c.Close, c.Volume)
		}
	}

	if len(snap.PendingAdvisories) > 0 {
		b.WriteString("\n## Advisories from the last weekly research (not yet executed)\n")
		for _, p := range snap.PendingAdvisories {
			fmt.Fprintf(&b, "%s | %s | qty %s | price %s\n",
				p.Date.Format(models.DateFormat), p.Ticker, p.Qty, p.Price)
		}
	}

	b.WriteString("\n## Latest weekly research\n")
	if snap.Research == nil {
		b.WriteString("(none)\n")
	} else {
		fmt.Fprintf(&b, "# %s\n%s\n", snap.Research.Date.Format(models.DateFormat), snap.Research.Body)
	}

	return b.String()
}

func writeOrders(b *strings.Builder, orders []*models.Order) {
	if len(orders) == 0 {
		b.WriteString("(none)\n")
		return
	}
	b.WriteString("date | ticker | qty | price\n")
	for _, o := range orders {
		fmt.Fprintf(b, "%s | %s | %s | %s\n",
			o.Date.Format(models.DateFormat), o.Ticker, o.Qty, o.Price)
	}
}
