// Package export decodes the JSON session export produced by the mobile and
// web clients:
//
//	{"sessions": [{"started_at": ..., "end_time": ..., "workout_logs": [...]}]}
//
// A bare array of sessions is accepted as well.
package export

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"

	"github.com/claude/repsight/internal/ingest"
	"github.com/claude/repsight/internal/models"
)

// SourceName tags sessions imported from a JSON export.
const SourceName = "export"

type wireSession struct {
	ID        any             `json:"id"`
	Name      any             `json:"name"`
	Source    any             `json:"source"`
	StartedAt json.RawMessage `json:"started_at"`
	EndTime   json.RawMessage `json:"end_time"`
	Logs      []models.RawSet `json:"workout_logs"`
}

type wireEnvelope struct {
	Sessions []wireSession `json:"sessions"`
}

// timestamp layouts accepted in addition to RFC 3339.
var zonedLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02 15:04:05.999999999Z07:00",
	"2006-01-02 15:04:05.999999999-07",
	"2006-01-02T15:04:05.999999999-07",
}

var localLayouts = []string{
	"2006-01-02T15:04:05.999999999",
	"2006-01-02 15:04:05.999999999",
	"2006-01-02 15:04",
	"2006-01-02",
}

// Decode reads an export. Malformed JSON is the only error: unparsable
// timestamps become zero times and odd numeric values are left for the
// analytics normalizer. Timestamps without a zone are read in loc.
func Decode(r io.Reader, loc *time.Location) ([]models.Session, error) {
	if loc == nil {
		loc = time.UTC
	}
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("reading export: %w", err)
	}
	data = bytes.TrimSpace(data)
	if len(data) == 0 {
		return nil, nil
	}

	var wire []wireSession
	if data[0] == '[' {
		if err := json.Unmarshal(data, &wire); err != nil {
			return nil, fmt.Errorf("decoding session array: %w", err)
		}
	} else {
		var env wireEnvelope
		if err := json.Unmarshal(data, &env); err != nil {
			return nil, fmt.Errorf("decoding export: %w", err)
		}
		wire = env.Sessions
	}

	sessions := make([]models.Session, 0, len(wire))
	for _, w := range wire {
		s := models.Session{
			ID:        models.Label(w.ID),
			Name:      models.Label(w.Name),
			Source:    models.Label(w.Source),
			StartedAt: parseTimestamp(w.StartedAt, loc),
			Sets:      w.Logs,
		}
		if s.Source == "" {
			s.Source = SourceName
		}
		if end := parseTimestamp(w.EndTime, loc); !end.IsZero() {
			s.EndedAt = &end
		}
		sessions = append(sessions, s)
	}
	return sessions, nil
}

func parseTimestamp(raw json.RawMessage, loc *time.Location) time.Time {
	if len(raw) == 0 {
		return time.Time{}
	}
	var v any
	if err := json.Unmarshal(raw, &v); err != nil {
		return time.Time{}
	}
	switch t := v.(type) {
	case string:
		return ParseTime(t, loc)
	case float64:
		// Unix epoch; values past year 2286 in seconds are milliseconds.
		if t > 1e10 {
			return time.UnixMilli(int64(t)).In(loc)
		}
		return time.Unix(int64(t), 0).In(loc)
	}
	return time.Time{}
}

// ParseTime parses the timestamp formats seen in exports, returning the zero
// time when none match.
func ParseTime(s string, loc *time.Location) time.Time {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}
	}
	for _, layout := range zonedLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t
		}
	}
	for _, layout := range localLayouts {
		if t, err := time.ParseInLocation(layout, s, loc); err == nil {
			return t
		}
	}
	return time.Time{}
}

// Provider ingests JSON exports.
type Provider struct {
	w   ingest.SessionWriter
	loc *time.Location
	log *slog.Logger
}

// NewProvider creates a JSON export ingest provider.
func NewProvider(w ingest.SessionWriter, loc *time.Location, log *slog.Logger) *Provider {
	return &Provider{w: w, loc: loc, log: log}
}

// Ingest decodes an export and stores its sessions.
func (p *Provider) Ingest(ctx context.Context, r io.Reader, userID int) (*ingest.Result, error) {
	sessions, err := Decode(r, p.loc)
	if err != nil {
		return nil, err
	}
	result, err := ingest.Store(ctx, p.w, SourceName, sessions, userID)
	if err != nil {
		return nil, fmt.Errorf("storing export sessions: %w", err)
	}
	p.log.Info("export import", "sessions", result.SessionsReceived, "sets", result.SetsReceived)
	return result, nil
}
