// Package ingest holds the shared pieces of the per-format import providers.
package ingest

import (
	"context"

	"github.com/claude/repsight/internal/models"
)

// Result holds the outcome of an ingest operation.
type Result struct {
	Source           string `json:"source"`
	SessionsReceived int    `json:"sessions_received"`
	SessionsInserted int    `json:"sessions_inserted"`
	SetsReceived     int    `json:"sets_received"`
	SetsInserted     int64  `json:"sets_inserted"`
	Message          string `json:"message,omitempty"`
}

// SessionWriter persists parsed sessions. Both the Postgres store and the
// local SQLite store satisfy it. Re-inserting a session with the same ID
// replaces its sets.
type SessionWriter interface {
	InsertSessions(ctx context.Context, sessions []models.Session, userID int) (int, int64, error)
}

// Store writes sessions through w and fills in a Result.
func Store(ctx context.Context, w SessionWriter, source string, sessions []models.Session, userID int) (*Result, error) {
	result := &Result{Source: source, SessionsReceived: len(sessions)}
	for _, s := range sessions {
		result.SetsReceived += len(s.Sets)
	}
	if len(sessions) == 0 {
		result.Message = "no sessions found"
		return result, nil
	}

	inserted, sets, err := w.InsertSessions(ctx, sessions, userID)
	if err != nil {
		return nil, err
	}
	result.SessionsInserted = inserted
	result.SetsInserted = sets
	return result, nil
}
