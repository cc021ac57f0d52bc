package server

import (
	"context"
	"io/fs"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	mcpserver "github.com/mark3labs/mcp-go/server"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/claude/repsight/internal/analytics"
	"github.com/claude/repsight/internal/ingest"
	"github.com/claude/repsight/internal/ingest/alpha"
	"github.com/claude/repsight/internal/ingest/export"
	"github.com/claude/repsight/internal/ingest/fitfile"
	"github.com/claude/repsight/internal/mcp"
	"github.com/claude/repsight/internal/metrics"
	"github.com/claude/repsight/internal/models"
	"github.com/claude/repsight/internal/storage"
)

// Store is the persistence the HTTP API needs. *storage.DB satisfies it.
type Store interface {
	ingest.SessionWriter
	QuerySessions(ctx context.Context, start, end time.Time, userID int) ([]models.Session, error)
	GetSession(ctx context.Context, sessionID uuid.UUID, userID int) (*models.Session, error)
	GetDataStats(ctx context.Context, userID int) (*storage.DataStats, error)
	InsertImportLog(ctx context.Context, log storage.ImportLog) (int64, error)
	QueryImportLogs(ctx context.Context, userID, limit int) ([]storage.ImportLog, error)
	GetOrCreateUser(ctx context.Context, login, displayName string) (int, error)
	Ping(ctx context.Context) error
}

var _ Store = (*storage.DB)(nil)

// Options configures a Server.
type Options struct {
	APIKey string
	// Analytics holds the report defaults; requests may override them.
	Analytics analytics.Options
	Metrics   *metrics.Manager
	// Registry is served at MetricsPath when set.
	Registry    *prometheus.Registry
	MetricsPath string
}

// Server holds dependencies for HTTP handlers.
type Server struct {
	db      Store
	export  *export.Provider
	alpha   *alpha.Provider
	fit     *fitfile.Provider
	opts    Options
	metrics *metrics.Manager
	whois   WhoIsClient
	log     *slog.Logger
	router  chi.Router
}

// New creates a new Server with all routes configured.
func New(db Store, opts Options, log *slog.Logger) *Server {
	loc := opts.Analytics.Location
	if loc == nil {
		loc = time.UTC
		opts.Analytics.Location = loc
	}
	s := &Server{
		db:      db,
		export:  export.NewProvider(db, loc, log),
		alpha:   alpha.NewProvider(db, loc, log),
		fit:     fitfile.NewProvider(db, log),
		opts:    opts,
		metrics: opts.Metrics,
		log:     log,
		router:  chi.NewRouter(),
	}
	s.routes()
	return s
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

func (s *Server) routes() {
	s.router.Use(RequestLogging(s.log))
	s.router.Use(CORS)

	s.router.Get("/healthz", s.handleHealth)

	// Ingest endpoints (API key required)
	s.router.Route("/api/v1/ingest", func(r chi.Router) {
		r.Use(APIKeyAuth(s.opts.APIKey))
		r.Use(s.identify)
		r.Post("/", s.handleIngest(export.SourceName, s.export))
		r.Post("/alpha", s.handleIngest(alpha.SourceName, s.alpha))
		r.Post("/fit", s.handleIngest(fitfile.SourceName, s.fit))
	})

	s.router.Group(func(r chi.Router) {
		r.Use(s.identify)

		r.Post("/api/v1/analytics/compute", s.handleCompute)

		r.Get("/api/v1/sessions", s.handleQuerySessions)
		r.Get("/api/v1/sessions/{id}", s.handleGetSession)
		r.Get("/api/v1/analytics/report", s.handleReport)
		r.Get("/api/v1/analytics/muscle-balance", s.handleMuscleBalance)
		r.Get("/api/v1/analytics/volume-trend", s.handleVolumeTrend)
		r.Get("/api/v1/analytics/consistency", s.handleConsistency)
		r.Get("/api/v1/analytics/records", s.handleRecords)
		r.Get("/api/v1/stats", s.handleStats)
		r.Get("/api/v1/import-logs", s.handleImportLogs)
		r.Get("/api/v1/me", s.handleMe)
	})

	if s.opts.Registry != nil {
		path := s.opts.MetricsPath
		if path == "" {
			path = "/metrics"
		}
		s.router.Handle(path, metrics.Handler(s.opts.Registry))
	}
}

// SetTailscale switches request identity from the local dev user to the
// Tailscale user behind each connection.
func (s *Server) SetTailscale(lc WhoIsClient) {
	s.whois = lc
}

// SetMCP mounts the MCP server at /mcp using the streamable HTTP transport.
// Tools see the same user identity as the REST handlers.
func (s *Server) SetMCP(mcpSrv *mcpserver.MCPServer) {
	h := mcpserver.NewStreamableHTTPServer(mcpSrv,
		mcpserver.WithHTTPContextFunc(func(ctx context.Context, r *http.Request) context.Context {
			return mcp.WithUserID(ctx, userIDFromContext(r))
		}),
	)
	s.router.With(s.identify).Handle("/mcp", h)
}

// SetFrontend mounts a static dashboard filesystem.
// Unmatched routes serve index.html for client-side routing.
func (s *Server) SetFrontend(webFS fs.FS) {
	fileServer := http.FileServerFS(webFS)

	s.router.NotFound(func(w http.ResponseWriter, r *http.Request) {
		// Try to serve the exact file first
		f, err := webFS.Open(r.URL.Path[1:]) // strip leading /
		if err == nil {
			f.Close()
			fileServer.ServeHTTP(w, r)
			return
		}
		// Fallback to index.html for SPA routing
		r.URL.Path = "/"
		fileServer.ServeHTTP(w, r)
	})
}

// identify picks the identity middleware at request time so SetTailscale
// can be called after the routes are built.
func (s *Server) identify(next http.Handler) http.Handler {
	dev := DevIdentity(next)
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if s.whois != nil {
			TailscaleIdentity(s.whois, s.db, s.log)(next).ServeHTTP(w, r)
			return
		}
		dev.ServeHTTP(w, r)
	})
}
