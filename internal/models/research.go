package models

import "time"

// ResearchNote is one dated entry in the weekly research log. Notes are
// append-only in date order; the latest note is the one with the maximum
// date.
type ResearchNote struct {
	Date      time.Time `json:"date"`
	Body      string    `json:"body"`
	CreatedAt time.Time `json:"created_at"`
}
