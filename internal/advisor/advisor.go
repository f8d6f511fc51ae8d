// Package advisor is the boundary to the external advisory process. The
// engine treats the provider as opaque: prompts go in, structured
// decisions come out, and everything is validated here before any state
// change is attempted.
package advisor

import (
	"context"
	"errors"

	"github.com/quantpilot/advisor/internal/models"
)

// ErrDecisionTimeout reports that the provider did not answer within the
// caller's deadline. Nothing has been persisted when it is returned.
var ErrDecisionTimeout = errors.New("decision provider timed out")

// Advisor produces structured decisions from serialized snapshots.
type Advisor interface {
	// DailyDecision runs the tactical call: a summary, zero or more
	// orders, and an explanation.
	DailyDecision(ctx context.Context, prompt string) (*models.Decision, error)
	// WeeklyResearch runs the strategic call: long-form research plus
	// advisories for the next tactical cycle.
	WeeklyResearch(ctx context.Context, prompt string) (*models.Research, error)
}
