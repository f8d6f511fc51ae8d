package advisor

import (
	"fmt"
	"time"

	"github.com/quantpilot/advisor/internal/models"
)

const dailyInstructions = `You are managing a long-only stock portfolio.
Review the portfolio context below and decide today's orders, if any.
Doing nothing is a valid decision.

Constraints:
- Never sell more of a ticker than is currently held.
- Order prices must be realistic against the latest closes provided.
- Cash after all orders must stay >= 0.

Reply with strict JSON only, no code fences, in this exact shape:
{"daily_summary": string, "orders": [{"ticker": string, "qty": number, "price": number}], "explanation": string}
Positive qty buys, negative qty sells. Use an empty orders list for no action.`

const weeklyInstructions = `You are running the weekly deep-research review
for a long-only stock portfolio. Analyze the portfolio context below:
recent orders, performance versus the latest closes, and anything notable
about the held names. Form a view for the coming week.

Reply with strict JSON only, no code fences, in this exact shape:
{"research": string, "orders": [{"ticker": string, "qty": number, "price": number}]}
Orders here are advisories for the next daily session, not immediate
executions. Use an empty orders list when no trades are warranted.`

// DailyPrompt builds the tactical prompt from the serialized snapshot.
func DailyPrompt(snapshotText string, date time.Time) string {
	return fmt.Sprintf("%s\n\nToday is %s.\n\n# Portfolio context\n\n%s",
		dailyInstructions, date.Format(models.DateFormat), snapshotText)
}

// WeeklyPrompt builds the strategic prompt from the serialized snapshot.
func WeeklyPrompt(snapshotText string, date time.Time) string {
	return fmt.Sprintf("%s\n\nToday is %s.\n\n# Portfolio context\n\n%s",
		weeklyInstructions, date.Format(models.DateFormat), snapshotText)
}
