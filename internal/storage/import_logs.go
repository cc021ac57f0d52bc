package storage

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
)

// Import log statuses.
const (
	ImportSuccess = "success"
	ImportError   = "error"
)

// ImportLog records the outcome of one ingest request or CLI import run.
type ImportLog struct {
	ID               int64            `json:"id" db:"id"`
	UserID           int              `json:"user_id" db:"user_id"`
	CreatedAt        time.Time        `json:"created_at" db:"created_at"`
	Source           string           `json:"source" db:"source"`
	Status           string           `json:"status" db:"status"`
	SessionsReceived int              `json:"sessions_received" db:"sessions_received"`
	SessionsInserted int              `json:"sessions_inserted" db:"sessions_inserted"`
	SetsReceived     int              `json:"sets_received" db:"sets_received"`
	SetsInserted     int64            `json:"sets_inserted" db:"sets_inserted"`
	DurationMs       *int             `json:"duration_ms" db:"duration_ms"`
	ErrorMessage     *string          `json:"error_message" db:"error_message"`
	Metadata         *json.RawMessage `json:"metadata" db:"metadata"`
}

// Finish sets the status, error message and duration from the run's outcome.
func (l *ImportLog) Finish(err error, elapsed time.Duration) {
	ms := int(elapsed.Milliseconds())
	l.DurationMs = &ms
	l.Status = ImportSuccess
	l.ErrorMessage = nil
	if err != nil {
		l.Status = ImportError
		msg := err.Error()
		l.ErrorMessage = &msg
	}
}

// SetMetadata stores v as the entry's JSON metadata.
func (l *ImportLog) SetMetadata(v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("encoding import metadata: %w", err)
	}
	raw := json.RawMessage(data)
	l.Metadata = &raw
	return nil
}

// InsertImportLog creates a new import log entry and returns its ID.
func (db *DB) InsertImportLog(ctx context.Context, log ImportLog) (int64, error) {
	var id int64
	err := db.Pool.QueryRow(ctx,
		`INSERT INTO import_logs (user_id, source, status, sessions_received, sessions_inserted,
		 sets_received, sets_inserted, duration_ms, error_message, metadata)
		 VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10)
		 RETURNING id`,
		log.UserID, log.Source, log.Status, log.SessionsReceived, log.SessionsInserted,
		log.SetsReceived, log.SetsInserted, log.DurationMs, log.ErrorMessage, log.Metadata,
	).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("inserting import log: %w", err)
	}
	return id, nil
}

// QueryImportLogs returns a user's most recent import logs, newest first.
func (db *DB) QueryImportLogs(ctx context.Context, userID, limit int) ([]ImportLog, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := db.Pool.Query(ctx,
		`SELECT id, user_id, created_at, source, status, sessions_received, sessions_inserted,
		 sets_received, sets_inserted, duration_ms, error_message, metadata
		 FROM import_logs
		 WHERE user_id = $1
		 ORDER BY created_at DESC, id DESC
		 LIMIT $2`,
		userID, limit)
	if err != nil {
		return nil, fmt.Errorf("querying import logs: %w", err)
	}
	logs, err := pgx.CollectRows(rows, pgx.RowToStructByName[ImportLog])
	if err != nil {
		return nil, fmt.Errorf("scanning import logs: %w", err)
	}
	return logs, nil
}
