package alpha

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/claude/repsight/internal/ingest"
)

// Provider processes Alpha Progression CSV exports.
type Provider struct {
	w   ingest.SessionWriter
	loc *time.Location
	log *slog.Logger
}

// NewProvider creates a new Alpha Progression ingest provider. Session times
// in the CSV are interpreted in loc.
func NewProvider(w ingest.SessionWriter, loc *time.Location, log *slog.Logger) *Provider {
	return &Provider{w: w, loc: loc, log: log}
}

// Ingest parses a CSV export and stores its working sets. Sessions that were
// imported before are replaced, so re-imports reflect the latest parser output.
func (p *Provider) Ingest(ctx context.Context, r io.Reader, userID int) (*ingest.Result, error) {
	parsed, err := Parse(r, p.loc)
	if err != nil {
		return nil, fmt.Errorf("parsing CSV: %w", err)
	}

	sessions := ToSessions(parsed)
	result, err := ingest.Store(ctx, p.w, SourceName, sessions, userID)
	if err != nil {
		return nil, fmt.Errorf("storing alpha sessions: %w", err)
	}
	p.log.Info("alpha import",
		"sessions", result.SessionsReceived,
		"sets", result.SetsReceived,
		"sets_inserted", result.SetsInserted,
	)
	return result, nil
}
