package storage

import (
	"context"
	"fmt"
	"time"
)

// DataStats holds aggregate statistics about a user's stored sessions.
type DataStats struct {
	TotalSessions    int64        `json:"total_sessions"`
	UndatedSessions  int64        `json:"undated_sessions"`
	TotalSets        int64        `json:"total_sets"`
	EarliestSession  *time.Time   `json:"earliest_session"`
	LatestSession    *time.Time   `json:"latest_session"`
	SessionsBySource []SourceStat `json:"sessions_by_source"`
}

// SourceStat holds session and set counts for one import source.
type SourceStat struct {
	Source   string `json:"source"`
	Sessions int64  `json:"sessions"`
	Sets     int64  `json:"sets"`
}

// GetDataStats returns aggregate statistics for a user's stored data.
func (db *DB) GetDataStats(ctx context.Context, userID int) (*DataStats, error) {
	stats := &DataStats{SessionsBySource: []SourceStat{}}

	err := db.Pool.QueryRow(ctx,
		`SELECT COUNT(*), COUNT(*) FILTER (WHERE started_at IS NULL), MIN(started_at), MAX(started_at)
		 FROM sessions WHERE user_id = $1`, userID,
	).Scan(&stats.TotalSessions, &stats.UndatedSessions, &stats.EarliestSession, &stats.LatestSession)
	if err != nil {
		return nil, fmt.Errorf("counting sessions: %w", err)
	}

	err = db.Pool.QueryRow(ctx,
		`SELECT COUNT(*) FROM workout_logs l
		 JOIN sessions s ON s.id = l.session_id
		 WHERE s.user_id = $1`, userID,
	).Scan(&stats.TotalSets)
	if err != nil {
		return nil, fmt.Errorf("counting sets: %w", err)
	}

	rows, err := db.Pool.Query(ctx,
		`SELECT s.source, COUNT(DISTINCT s.id), COUNT(l.session_id)
		 FROM sessions s
		 LEFT JOIN workout_logs l ON l.session_id = s.id
		 WHERE s.user_id = $1
		 GROUP BY s.source
		 ORDER BY COUNT(DISTINCT s.id) DESC`, userID)
	if err != nil {
		return nil, fmt.Errorf("querying sessions by source: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var s SourceStat
		if err := rows.Scan(&s.Source, &s.Sessions, &s.Sets); err != nil {
			return nil, fmt.Errorf("scanning source stat: %w", err)
		}
		stats.SessionsBySource = append(stats.SessionsBySource, s)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	return stats, nil
}
