package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/claude/repsight/internal/analytics"
	"github.com/claude/repsight/internal/ingest"
	"github.com/claude/repsight/internal/ingest/export"
	"github.com/claude/repsight/internal/models"
	"github.com/claude/repsight/internal/storage"
)

// maxUploadBytes caps ingest and compute request bodies.
const maxUploadBytes = 64 << 20

// defaultSessionDays is the window /sessions lists when no start is given.
// days=0 lists the full history.
const defaultSessionDays = 30

type ingester interface {
	Ingest(ctx context.Context, r io.Reader, userID int) (*ingest.Result, error)
}

func (s *Server) handleIngest(source string, p ingester) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		uid, ok := mustUserID(w, r)
		if !ok {
			return
		}
		started := time.Now()
		result, err := p.Ingest(r.Context(), http.MaxBytesReader(w, r.Body, maxUploadBytes), uid)
		s.logImport(uid, source, result, err, time.Since(started))
		if err != nil {
			s.log.Error("ingest error", "source", source, "error", err)
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
			return
		}
		s.metrics.ObserveIngest(source, result.SessionsInserted)
		writeJSON(w, http.StatusOK, result)
	}
}

// handleCompute analyzes the posted export without storing it.
func (s *Server) handleCompute(w http.ResponseWriter, r *http.Request) {
	opts, err := s.reportOptions(r)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}
	sessions, err := export.Decode(http.MaxBytesReader(w, r.Body, maxUploadBytes), opts.Location)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid JSON: " + err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, s.analyze(sessions, opts, time.Now()))
}

func (s *Server) handleQuerySessions(w http.ResponseWriter, r *http.Request) {
	uid, ok := mustUserID(w, r)
	if !ok {
		return
	}
	days := defaultSessionDays
	if v := r.URL.Query().Get("days"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": fmt.Sprintf("invalid days %q", v)})
			return
		}
		days = n
	}
	opts, err := s.reportOptions(r)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}
	start, end, err := parseTimeRange(r, days, opts.Location)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}
	sessions, err := s.db.QuerySessions(r.Context(), start, end, uid)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
		return
	}
	if sessions == nil {
		sessions = []models.Session{}
	}
	writeJSON(w, http.StatusOK, sessions)
}

func (s *Server) handleGetSession(w http.ResponseWriter, r *http.Request) {
	uid, ok := mustUserID(w, r)
	if !ok {
		return
	}
	sessionID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid session ID"})
		return
	}

	sess, err := s.db.GetSession(r.Context(), sessionID, uid)
	if errors.Is(err, storage.ErrNotFound) {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "session not found"})
		return
	}
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"session":    sess,
		"classified": analytics.Prepare([]models.Session{*sess})[0],
	})
}

func (s *Server) handleReport(w http.ResponseWriter, r *http.Request) {
	if report, ok := s.storedReport(w, r); ok {
		writeJSON(w, http.StatusOK, report)
	}
}

func (s *Server) handleMuscleBalance(w http.ResponseWriter, r *http.Request) {
	if report, ok := s.storedReport(w, r); ok {
		writeJSON(w, http.StatusOK, report.MuscleBalance)
	}
}

func (s *Server) handleVolumeTrend(w http.ResponseWriter, r *http.Request) {
	if report, ok := s.storedReport(w, r); ok {
		writeJSON(w, http.StatusOK, report.WeeklyVolume)
	}
}

func (s *Server) handleConsistency(w http.ResponseWriter, r *http.Request) {
	if report, ok := s.storedReport(w, r); ok {
		writeJSON(w, http.StatusOK, report.Consistency)
	}
}

func (s *Server) handleRecords(w http.ResponseWriter, r *http.Request) {
	if report, ok := s.storedReport(w, r); ok {
		writeJSON(w, http.StatusOK, report.LiftRecords)
	}
}

func (s *Server) handleMe(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, userInfoFromContext(r))
}

// storedReport analyzes the caller's stored sessions. Analytics cover the
// full history unless start or end is given. On failure the error response
// has been written and ok is false.
func (s *Server) storedReport(w http.ResponseWriter, r *http.Request) (*analytics.Report, bool) {
	uid, ok := mustUserID(w, r)
	if !ok {
		return nil, false
	}
	opts, err := s.reportOptions(r)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return nil, false
	}
	start, end, err := parseTimeRange(r, 0, opts.Location)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return nil, false
	}

	began := time.Now()
	sessions, err := s.db.QuerySessions(r.Context(), start, end, uid)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
		return nil, false
	}
	return s.analyze(sessions, opts, began), true
}

func (s *Server) analyze(sessions []models.Session, opts analytics.Options, began time.Time) *analytics.Report {
	prepared := analytics.Prepare(sessions)
	report := analytics.AnalyzePrepared(prepared, opts)
	s.metrics.ObserveClassified(prepared)
	s.metrics.ObserveReport("rest", time.Since(began))
	return report
}

// reportOptions applies the weeks, limit and tz query parameters over the
// server defaults.
func (s *Server) reportOptions(r *http.Request) (analytics.Options, error) {
	opts := s.opts.Analytics
	q := r.URL.Query()
	if v := q.Get("weeks"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			return opts, fmt.Errorf("invalid weeks %q", v)
		}
		opts.TrendWeeks = n
	}
	if v := q.Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			return opts, fmt.Errorf("invalid limit %q", v)
		}
		opts.TopLifts = n
	}
	if v := q.Get("tz"); v != "" {
		loc, err := time.LoadLocation(v)
		if err != nil {
			return opts, fmt.Errorf("invalid tz %q", v)
		}
		opts.Location = loc
	}
	return opts, nil
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

// parseTimeRange reads start and end (RFC 3339 or YYYY-MM-DD; a date-only end
// includes that whole day). Date-only bounds are calendar days in loc.
// Without a start, the window is the last defaultDays days, or unbounded when
// defaultDays is 0.
func parseTimeRange(r *http.Request, defaultDays int, loc *time.Location) (start, end time.Time, err error) {
	if loc == nil {
		loc = time.Local
	}
	startStr := r.URL.Query().Get("start")
	endStr := r.URL.Query().Get("end")

	if endStr != "" {
		end, err = time.Parse(time.RFC3339, endStr)
		if err != nil {
			end, err = time.ParseInLocation("2006-01-02", endStr, loc)
			if err != nil {
				return time.Time{}, time.Time{}, fmt.Errorf("invalid end %q", endStr)
			}
			// End of day for date-only
			end = end.AddDate(0, 0, 1)
		}
	}

	if startStr == "" {
		if defaultDays > 0 {
			if end.IsZero() {
				end = time.Now()
			}
			start = end.AddDate(0, 0, -defaultDays)
		}
		return start, end, nil
	}

	start, err = time.Parse(time.RFC3339, startStr)
	if err != nil {
		start, err = time.ParseInLocation("2006-01-02", startStr, loc)
		if err != nil {
			return time.Time{}, time.Time{}, fmt.Errorf("invalid start %q", startStr)
		}
	}
	return start, end, nil
}
