package database

import (
	"database/sql"
	"time"

	"github.com/quantpilot/advisor/internal/models"
)

// AppendResearchNote stores one dated research entry. Notes are
// append-only in date order; re-running the same strategic cycle on the
// same day overwrites that day's body instead of duplicating it.
func (db *DB) AppendResearchNote(n *models.ResearchNote) error {
	query := `
		INSERT INTO research_notes (date, body, created_at)
		VALUES ($1, $2, $3)
		ON CONFLICT (date) DO UPDATE SET body = EXCLUDED.body
	`
	now := time.Now()
	_, err := db.conn.Exec(query, n.Date, n.Body, now)
	if err != nil {
		return storageErr("append research note", err)
	}
	n.CreatedAt = now
	return nil
}

// GetLatestResearchNote returns the note with the maximum date, or nil
// when no research has been written yet.
func (db *DB) GetLatestResearchNote() (*models.ResearchNote, error) {
	query := `
		SELECT date, body, created_at
		FROM research_notes
		ORDER BY date DESC
		LIMIT 1
	`
	var n models.ResearchNote
	err := db.conn.QueryRow(query).Scan(&n.Date, &n.Body, &n.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, storageErr("get latest research note", err)
	}
	return &n, nil
}
