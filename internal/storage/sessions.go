package storage

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/claude/repsight/internal/analytics"
	"github.com/claude/repsight/internal/models"
)

// ErrNotFound is returned when a session does not exist for the user.
var ErrNotFound = errors.New("not found")

// sessionNamespace scopes the deterministic session IDs.
var sessionNamespace = uuid.MustParse("8f0c6c2e-4a57-4b36-9d0e-3a1f5e2b7c41")

// SessionUUID derives a stable ID for a single session. See SessionUUIDs.
func SessionUUID(userID int, s models.Session) uuid.UUID {
	return SessionUUIDs(userID, []models.Session{s})[0]
}

// SessionUUIDs derives stable IDs for a batch so that re-importing the same
// export replaces rows instead of duplicating them. Sessions carrying their
// own ID are keyed on it. Others are keyed on start time, name and a hash of
// their sets, plus an occurrence counter so identical sessions within one
// batch stay distinct.
func SessionUUIDs(userID int, sessions []models.Session) []uuid.UUID {
	ids := make([]uuid.UUID, len(sessions))
	seen := make(map[string]int)
	for i, s := range sessions {
		key := s.ID
		if key == "" {
			key = contentKey(s)
			n := seen[key]
			seen[key] = n + 1
			key += "|" + strconv.Itoa(n)
		}
		ids[i] = uuid.NewSHA1(sessionNamespace, []byte(strconv.Itoa(userID)+"|"+s.Source+"|"+key))
	}
	return ids
}

func contentKey(s models.Session) string {
	h := sha256.New()
	// Marshal sorts map keys, so equal sets hash equally. A set that cannot
	// be encoded falls back to its formatted value.
	if b, err := json.Marshal(s.Sets); err == nil {
		h.Write(b)
	} else {
		fmt.Fprintf(h, "%v", s.Sets)
	}
	return s.StartedAt.UTC().Format(time.RFC3339Nano) + "|" + s.Name + "|" + hex.EncodeToString(h.Sum(nil))
}

// InsertSessions stores sessions and their set logs in one transaction.
// Existing sessions with the same derived ID are replaced. Returns the
// number of sessions and sets written.
func (db *DB) InsertSessions(ctx context.Context, sessions []models.Session, userID int) (int, int64, error) {
	if len(sessions) == 0 {
		return 0, 0, nil
	}

	tx, err := db.Pool.Begin(ctx)
	if err != nil {
		return 0, 0, fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	ids := SessionUUIDs(userID, sessions)
	var setsInserted int64
	for i, s := range sessions {
		id := ids[i]
		if _, err := tx.Exec(ctx, `DELETE FROM sessions WHERE id = $1`, id); err != nil {
			return 0, 0, fmt.Errorf("replacing session: %w", err)
		}
		_, err := tx.Exec(ctx,
			`INSERT INTO sessions (id, user_id, source, external_id, name, started_at, ended_at)
			 VALUES ($1,$2,$3,$4,$5,$6,$7)`,
			id, userID, s.Source, nullString(s.ID), s.Name, nullTime(s.StartedAt), s.EndedAt)
		if err != nil {
			return 0, 0, fmt.Errorf("inserting session: %w", err)
		}
		n, err := insertLogs(ctx, tx, id, s.Sets)
		if err != nil {
			return 0, 0, err
		}
		setsInserted += n
	}

	if err := tx.Commit(ctx); err != nil {
		return 0, 0, fmt.Errorf("committing sessions: %w", err)
	}
	return len(sessions), setsInserted, nil
}

const logColumns = 11

func insertLogs(ctx context.Context, tx pgx.Tx, sessionID uuid.UUID, sets []models.RawSet) (int64, error) {
	if len(sets) == 0 {
		return 0, nil
	}

	query := `INSERT INTO workout_logs (session_id, position, exercise_name, target_muscle_group,
		category_snapshot, weight_kg, reps, sets_repeat, time_seconds, distance_meters, metrics_data) VALUES `
	args := make([]any, 0, len(sets)*logColumns)
	valueStrings := make([]string, 0, len(sets))

	for i, r := range sets {
		base := i * logColumns
		placeholders := make([]string, logColumns)
		for j := range placeholders {
			placeholders[j] = "$" + strconv.Itoa(base+j+1)
		}
		valueStrings = append(valueStrings, "("+strings.Join(placeholders, ",")+")")

		metrics, err := encodeMetrics(r.CustomMetrics)
		if err != nil {
			return 0, err
		}
		args = append(args, sessionID, i, r.Exercise.Name, r.Exercise.TargetMuscleGroup,
			r.CategorySnapshot, NumericParam(r.WeightKg), NumericParam(r.Reps), NumericParam(r.SetsRepeat),
			NumericParam(r.TimeSeconds), NumericParam(r.DistanceMeters), metrics)
	}

	tag, err := tx.Exec(ctx, query+strings.Join(valueStrings, ","), args...)
	if err != nil {
		return 0, fmt.Errorf("inserting workout logs: %w", err)
	}
	return tag.RowsAffected(), nil
}

// NumericParam converts a loosely typed set value into a nullable column
// value. Missing values stay NULL; anything else goes through the analytics
// coercion so stored rows score the same as the original payload.
func NumericParam(v any) *float64 {
	if v == nil {
		return nil
	}
	f := analytics.CoerceNumber(v)
	return &f
}

func encodeMetrics(m map[string]any) ([]byte, error) {
	if len(m) == 0 {
		return nil, nil
	}
	b, err := json.Marshal(m)
	if err != nil {
		return nil, fmt.Errorf("encoding metrics_data: %w", err)
	}
	return b, nil
}

func nullString(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

func nullTime(t time.Time) *time.Time {
	if t.IsZero() {
		return nil
	}
	return &t
}

// DeleteSessionsBySource removes every session a source imported for the
// user. Set logs go with them.
func (db *DB) DeleteSessionsBySource(ctx context.Context, source string, userID int) (int64, error) {
	tag, err := db.Pool.Exec(ctx,
		`DELETE FROM sessions WHERE source = $1 AND user_id = $2`, source, userID)
	if err != nil {
		return 0, fmt.Errorf("deleting %s sessions: %w", source, err)
	}
	return tag.RowsAffected(), nil
}

// RangeClause builds the started_at filter for a query window. Zero bounds
// are open; with both open, undated sessions are included too. Placeholders
// start at $next.
func RangeClause(start, end time.Time, next int) (string, []any) {
	var (
		conds []string
		args  []any
	)
	if !start.IsZero() {
		conds = append(conds, "started_at >= $"+strconv.Itoa(next))
		args = append(args, start)
		next++
	}
	if !end.IsZero() {
		conds = append(conds, "started_at < $"+strconv.Itoa(next))
		args = append(args, end)
	}
	if len(conds) == 0 {
		return "", nil
	}
	return " AND " + strings.Join(conds, " AND "), args
}

// QuerySessions returns the user's sessions in [start, end) with their set
// logs, oldest first. Zero bounds leave that side of the window open.
func (db *DB) QuerySessions(ctx context.Context, start, end time.Time, userID int) ([]models.Session, error) {
	clause, rangeArgs := RangeClause(start, end, 2)
	rows, err := db.Pool.Query(ctx,
		`SELECT id, source, COALESCE(name, ''), started_at, ended_at
		 FROM sessions
		 WHERE user_id = $1`+clause+`
		 ORDER BY started_at ASC NULLS FIRST, created_at ASC`,
		append([]any{userID}, rangeArgs...)...)
	if err != nil {
		return nil, fmt.Errorf("querying sessions: %w", err)
	}
	defer rows.Close()

	var (
		result []models.Session
		ids    []uuid.UUID
	)
	for rows.Next() {
		s, id, err := scanSession(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, s)
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if len(ids) == 0 {
		return result, nil
	}

	logs, err := db.queryLogs(ctx, ids)
	if err != nil {
		return nil, err
	}
	for i := range result {
		result[i].Sets = logs[ids[i]]
	}
	return result, nil
}

// GetSession retrieves a single session with its set logs.
func (db *DB) GetSession(ctx context.Context, sessionID uuid.UUID, userID int) (*models.Session, error) {
	row := db.Pool.QueryRow(ctx,
		`SELECT id, source, COALESCE(name, ''), started_at, ended_at
		 FROM sessions
		 WHERE id = $1 AND user_id = $2`,
		sessionID, userID)

	s, id, err := scanSession(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}

	logs, err := db.queryLogs(ctx, []uuid.UUID{id})
	if err != nil {
		return nil, err
	}
	s.Sets = logs[id]
	return &s, nil
}

func scanSession(row pgx.Row) (models.Session, uuid.UUID, error) {
	var (
		s         models.Session
		id        uuid.UUID
		startedAt *time.Time
	)
	if err := row.Scan(&id, &s.Source, &s.Name, &startedAt, &s.EndedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return s, id, err
		}
		return s, id, fmt.Errorf("scanning session: %w", err)
	}
	s.ID = id.String()
	if startedAt != nil {
		s.StartedAt = *startedAt
	}
	return s, id, nil
}

func (db *DB) queryLogs(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID][]models.RawSet, error) {
	rows, err := db.Pool.Query(ctx,
		`SELECT session_id, exercise_name, target_muscle_group, category_snapshot,
		 weight_kg, reps, sets_repeat, time_seconds, distance_meters, metrics_data
		 FROM workout_logs
		 WHERE session_id = ANY($1)
		 ORDER BY session_id, position`,
		ids)
	if err != nil {
		return nil, fmt.Errorf("querying workout logs: %w", err)
	}
	defer rows.Close()

	out := make(map[uuid.UUID][]models.RawSet, len(ids))
	for rows.Next() {
		var (
			sessionID                          uuid.UUID
			name, target                       *string
			r                                  models.RawSet
			weight, reps, repeat, secs, meters *float64
			metrics                            []byte
		)
		if err := rows.Scan(&sessionID, &name, &target, &r.CategorySnapshot,
			&weight, &reps, &repeat, &secs, &meters, &metrics); err != nil {
			return nil, fmt.Errorf("scanning workout log: %w", err)
		}
		if name != nil {
			r.Exercise.Name = *name
		}
		if target != nil {
			r.Exercise.TargetMuscleGroup = *target
		}
		r.WeightKg = numericValue(weight)
		r.Reps = numericValue(reps)
		r.SetsRepeat = numericValue(repeat)
		r.TimeSeconds = numericValue(secs)
		r.DistanceMeters = numericValue(meters)
		if len(metrics) > 0 {
			if err := json.Unmarshal(metrics, &r.CustomMetrics); err != nil {
				return nil, fmt.Errorf("decoding metrics_data: %w", err)
			}
		}
		out[sessionID] = append(out[sessionID], r)
	}
	return out, rows.Err()
}

// numericValue keeps NULL columns as missing values rather than zeros.
func numericValue(f *float64) any {
	if f == nil {
		return nil
	}
	return *f
}
