package mcp

import (
	"context"
	"log/slog"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/claude/repsight/internal/analytics"
	"github.com/claude/repsight/internal/metrics"
	"github.com/claude/repsight/internal/storage"
)

type contextKey int

const userIDKey contextKey = iota

// UserIDFromContext extracts the user ID injected by the transport layer.
func UserIDFromContext(ctx context.Context) int {
	if id, ok := ctx.Value(userIDKey).(int); ok {
		return id
	}
	return storage.LocalUserID
}

// WithUserID returns a context with the given user ID.
func WithUserID(ctx context.Context, userID int) context.Context {
	return context.WithValue(ctx, userIDKey, userID)
}

// New creates an MCP server with all tools and resources registered.
// opts are the report defaults; tool arguments may override them per call.
func New(ds DataSource, opts analytics.Options, m *metrics.Manager, version string, log *slog.Logger) *server.MCPServer {
	s := server.NewMCPServer("RepSight", version,
		server.WithToolCapabilities(false),
		server.WithResourceCapabilities(false, false),
		server.WithInstructions("RepSight workout analytics server. Reports muscle balance, weekly training volume, consistency and estimated one-rep maxes from logged strength and cardio sessions. All data is scoped to the authenticated user."),
	)

	h := &handlers{ds: ds, opts: opts, metrics: m, log: log}

	s.AddTools(
		server.ServerTool{Tool: toolGetTrainingReport, Handler: h.getTrainingReport},
		server.ServerTool{Tool: toolGetMuscleBalance, Handler: h.getMuscleBalance},
		server.ServerTool{Tool: toolGetVolumeTrend, Handler: h.getVolumeTrend},
		server.ServerTool{Tool: toolGetConsistency, Handler: h.getConsistency},
		server.ServerTool{Tool: toolGetLiftRecords, Handler: h.getLiftRecords},
		server.ServerTool{Tool: toolGetSessions, Handler: h.getSessions},
		server.ServerTool{Tool: toolClassifyExercise, Handler: h.classifyExercise},
	)

	s.AddResources(
		server.ServerResource{Resource: resWeeklySummary, Handler: h.weeklySummary},
		server.ServerResource{Resource: resLiftRecords, Handler: h.liftRecords},
	)

	return s
}

// handlers holds dependencies for MCP tool/resource handlers.
type handlers struct {
	ds      DataSource
	opts    analytics.Options
	metrics *metrics.Manager
	log     *slog.Logger
}

// --- Resource definitions ---

var resWeeklySummary = mcp.NewResource(
	"repsight://weekly_summary",
	"Weekly Summary",
	mcp.WithResourceDescription("Totals for the current week so far: sessions, sets, work score per muscle group and active days"),
	mcp.WithMIMEType("application/json"),
)

var resLiftRecords = mcp.NewResource(
	"repsight://lift_records",
	"Lift Records",
	mcp.WithResourceDescription("Best estimated one-rep max per exercise over the full history"),
	mcp.WithMIMEType("application/json"),
)
