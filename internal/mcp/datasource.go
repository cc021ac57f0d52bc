package mcp

import (
	"context"
	"time"

	"github.com/claude/repsight/internal/localstore"
	"github.com/claude/repsight/internal/models"
	"github.com/claude/repsight/internal/storage"
)

// DataSource abstracts the session store for MCP tools. *storage.DB (Postgres),
// *localstore.Store (SQLite) and HTTPClient (remote via REST API) satisfy it.
// Zero bounds leave that side of the window open.
type DataSource interface {
	QuerySessions(ctx context.Context, start, end time.Time, userID int) ([]models.Session, error)
}

var (
	_ DataSource = (*storage.DB)(nil)
	_ DataSource = (*localstore.Store)(nil)
)
