// Package localstore keeps sessions in a single SQLite file so imports and
// reports work without a Postgres server. It also remembers which files
// were imported so directory re-scans skip unchanged exports.
package localstore

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "modernc.org/sqlite"

	"github.com/claude/repsight/internal/models"
	"github.com/claude/repsight/internal/storage"
)

// Store is a SQLite-backed session store.
type Store struct {
	db *sql.DB
}

var schema = []string{
	`CREATE TABLE IF NOT EXISTS sessions (
		id         TEXT PRIMARY KEY,
		user_id    INTEGER NOT NULL,
		source     TEXT NOT NULL,
		name       TEXT NOT NULL DEFAULT '',
		started_at INTEGER,
		ended_at   INTEGER,
		sets_json  TEXT NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS sessions_user_started ON sessions (user_id, started_at)`,
	`CREATE TABLE IF NOT EXISTS imported_files (
		path        TEXT PRIMARY KEY,
		size        INTEGER NOT NULL,
		hash        TEXT NOT NULL,
		imported_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
	)`,
}

// Open opens (or creates) the store at path.
func Open(path string) (*Store, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("creating store dir %s: %w", dir, err)
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("opening local store: %w", err)
	}
	db.SetMaxOpenConns(1)

	for _, stmt := range schema {
		if _, err := db.Exec(stmt); err != nil {
			db.Close()
			return nil, fmt.Errorf("creating local store schema: %w", err)
		}
	}
	return &Store{db: db}, nil
}

// Close closes the store.
func (s *Store) Close() error {
	return s.db.Close()
}

// InsertSessions stores sessions, replacing any with the same derived ID.
// IDs are derived the same way as in the Postgres store.
func (s *Store) InsertSessions(ctx context.Context, sessions []models.Session, userID int) (int, int64, error) {
	if len(sessions) == 0 {
		return 0, 0, nil
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, 0, fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	ids := storage.SessionUUIDs(userID, sessions)
	var sets int64
	for i, sess := range sessions {
		setsJSON, err := json.Marshal(sess.Sets)
		if err != nil {
			return 0, 0, fmt.Errorf("encoding sets: %w", err)
		}
		_, err = tx.ExecContext(ctx,
			`INSERT OR REPLACE INTO sessions (id, user_id, source, name, started_at, ended_at, sets_json)
			 VALUES (?, ?, ?, ?, ?, ?, ?)`,
			ids[i].String(), userID, sess.Source, sess.Name,
			unixNano(sess.StartedAt), unixNanoPtr(sess.EndedAt), string(setsJSON))
		if err != nil {
			return 0, 0, fmt.Errorf("inserting session: %w", err)
		}
		sets += int64(len(sess.Sets))
	}

	if err := tx.Commit(); err != nil {
		return 0, 0, fmt.Errorf("committing sessions: %w", err)
	}
	return len(sessions), sets, nil
}

// QuerySessions returns the user's sessions in [start, end), oldest first.
// Zero bounds leave that side of the window open; with both open, undated
// sessions are included.
func (s *Store) QuerySessions(ctx context.Context, start, end time.Time, userID int) ([]models.Session, error) {
	query := `SELECT id, source, name, started_at, ended_at, sets_json FROM sessions WHERE user_id = ?`
	args := []any{userID}
	var conds []string
	if !start.IsZero() {
		conds = append(conds, "started_at >= ?")
		args = append(args, start.UnixNano())
	}
	if !end.IsZero() {
		conds = append(conds, "started_at < ?")
		args = append(args, end.UnixNano())
	}
	if len(conds) > 0 {
		query += " AND " + strings.Join(conds, " AND ")
	}
	query += " ORDER BY started_at ASC NULLS FIRST, rowid ASC"

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("querying sessions: %w", err)
	}
	defer rows.Close()

	var result []models.Session
	for rows.Next() {
		var (
			sess           models.Session
			started, ended sql.NullInt64
			setsJSON       string
		)
		if err := rows.Scan(&sess.ID, &sess.Source, &sess.Name, &started, &ended, &setsJSON); err != nil {
			return nil, fmt.Errorf("scanning session: %w", err)
		}
		if started.Valid {
			sess.StartedAt = time.Unix(0, started.Int64).UTC()
		}
		if ended.Valid {
			t := time.Unix(0, ended.Int64).UTC()
			sess.EndedAt = &t
		}
		if err := json.Unmarshal([]byte(setsJSON), &sess.Sets); err != nil {
			return nil, fmt.Errorf("decoding sets for session %s: %w", sess.ID, err)
		}
		result = append(result, sess)
	}
	return result, rows.Err()
}

// IsImported checks if a file was already imported with the same size and hash.
func (s *Store) IsImported(relPath string, size int64, hash string) (bool, error) {
	var count int
	err := s.db.QueryRow(
		`SELECT COUNT(*) FROM imported_files WHERE path = ? AND size = ? AND hash = ?`,
		relPath, size, hash,
	).Scan(&count)
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

// MarkImported records that a file was successfully imported.
func (s *Store) MarkImported(relPath string, size int64, hash string) error {
	_, err := s.db.Exec(
		`INSERT OR REPLACE INTO imported_files (path, size, hash) VALUES (?, ?, ?)`,
		relPath, size, hash,
	)
	return err
}

func unixNano(t time.Time) any {
	if t.IsZero() {
		return nil
	}
	return t.UnixNano()
}

func unixNanoPtr(t *time.Time) any {
	if t == nil {
		return nil
	}
	return unixNano(*t)
}
