package server

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/claude/repsight/internal/analytics"
	"github.com/claude/repsight/internal/ingest"
	"github.com/claude/repsight/internal/metrics"
	"github.com/claude/repsight/internal/models"
	"github.com/claude/repsight/internal/storage"
)

// TestHandleMeDefault verifies the /api/v1/me endpoint returns the dev user
// identity when no Tailscale middleware is active.
func TestHandleMeDefault(t *testing.T) {
	s := &Server{}
	req := httptest.NewRequest(http.MethodGet, "/api/v1/me", nil)
	ctx := context.WithValue(req.Context(), userInfoKey, UserInfo{Login: "local", DisplayName: "Local Dev User"})
	req = req.WithContext(ctx)
	rec := httptest.NewRecorder()

	s.handleMe(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}

	var info UserInfo
	if err := json.NewDecoder(rec.Body).Decode(&info); err != nil {
		t.Fatalf("decode error: %v", err)
	}
	if info.Login != "local" {
		t.Errorf("login = %q, want %q", info.Login, "local")
	}
	if info.DisplayName != "Local Dev User" {
		t.Errorf("display_name = %q, want %q", info.DisplayName, "Local Dev User")
	}
}

// TestHandleMeTailscaleUser verifies the /api/v1/me endpoint returns the
// Tailscale user identity when set in context.
func TestHandleMeTailscaleUser(t *testing.T) {
	s := &Server{}
	req := httptest.NewRequest(http.MethodGet, "/api/v1/me", nil)
	ctx := context.WithValue(req.Context(), userInfoKey, UserInfo{Login: "alice@example.com", DisplayName: "Alice"})
	req = req.WithContext(ctx)
	rec := httptest.NewRecorder()

	s.handleMe(rec, req)

	var info UserInfo
	if err := json.NewDecoder(rec.Body).Decode(&info); err != nil {
		t.Fatalf("decode error: %v", err)
	}
	if info.Login != "alice@example.com" {
		t.Errorf("login = %q, want %q", info.Login, "alice@example.com")
	}
	if info.DisplayName != "Alice" {
		t.Errorf("display_name = %q, want %q", info.DisplayName, "Alice")
	}
}

const benchPressExport = `{"sessions":[{"started_at":"2024-01-10T18:00:00Z","end_time":"2024-01-10T19:00:00Z",
  "workout_logs":[{"weight_kg":80,"reps":8,"sets":3,"category_snapshot":"pectorales","exercise":{"name":"Press banca"}}]}]}`

func benchPressSessions() []models.Session {
	start := time.Date(2024, 1, 10, 18, 0, 0, 0, time.UTC)
	snapshot := "pectorales"
	return []models.Session{
		{
			ID: "s1", Source: "export", StartedAt: start,
			Sets: []models.RawSet{{WeightKg: 80.0, Reps: 8.0, SetsRepeat: 3.0, CategorySnapshot: &snapshot,
				Exercise: models.ExerciseRef{Name: "Press banca"}}},
		},
		{
			ID: "s2", Source: "export", StartedAt: start.AddDate(0, 0, 7),
			Sets: []models.RawSet{{WeightKg: 100.0, Reps: 5.0, Exercise: models.ExerciseRef{Name: "Sentadilla"}}},
		},
	}
}

func newTestServer(t *testing.T, opts Options) (*Server, *MockStore) {
	t.Helper()
	ctrl := gomock.NewController(t)
	store := NewMockStore(ctrl)
	if opts.Analytics.Location == nil {
		opts.Analytics = analytics.Options{Location: time.UTC}
	}
	if opts.APIKey == "" {
		opts.APIKey = "test-key"
	}
	return New(store, opts, slog.New(slog.NewTextHandler(io.Discard, nil))), store
}

func do(s *Server, method, target, body string, header map[string]string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	for k, v := range header {
		req.Header.Set(k, v)
	}
	rec := httptest.NewRecorder()
	s.ServeHTTP(rec, req)
	return rec
}

// TestIngestExport verifies the JSON ingest endpoint stores sessions and logs the import.
func TestIngestExport(t *testing.T) {
	s, store := newTestServer(t, Options{})

	store.EXPECT().InsertSessions(gomock.Any(), gomock.Len(1), 1).Return(1, int64(1), nil)
	store.EXPECT().InsertImportLog(gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, log storage.ImportLog) (int64, error) {
			assert.Equal(t, "export", log.Source)
			assert.Equal(t, "success", log.Status)
			assert.Equal(t, 1, log.SessionsInserted)
			assert.Nil(t, log.ErrorMessage)
			return 1, nil
		})

	rec := do(s, http.MethodPost, "/api/v1/ingest/", benchPressExport, map[string]string{"X-API-Key": "test-key"})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var result ingest.Result
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&result))
	assert.Equal(t, 1, result.SessionsInserted)
	assert.Equal(t, 1, result.SetsReceived)
}

// TestIngestRequiresAPIKey verifies ingest is rejected without the key and nothing is stored.
func TestIngestRequiresAPIKey(t *testing.T) {
	s, _ := newTestServer(t, Options{})

	rec := do(s, http.MethodPost, "/api/v1/ingest/", benchPressExport, nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = do(s, http.MethodPost, "/api/v1/ingest/", benchPressExport, map[string]string{"X-API-Key": "wrong"})
	assert.Equal(t, http.StatusForbidden, rec.Code)
}

// TestIngestFITError verifies a broken upload is reported and logged as failed.
func TestIngestFITError(t *testing.T) {
	s, store := newTestServer(t, Options{})

	store.EXPECT().InsertImportLog(gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, log storage.ImportLog) (int64, error) {
			assert.Equal(t, "fit", log.Source)
			assert.Equal(t, "error", log.Status)
			require.NotNil(t, log.ErrorMessage)
			return 1, nil
		})

	rec := do(s, http.MethodPost, "/api/v1/ingest/fit", "not a fit file", map[string]string{"X-API-Key": "test-key"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

// TestCompute verifies the stateless endpoint analyzes the posted payload without touching storage.
func TestCompute(t *testing.T) {
	s, _ := newTestServer(t, Options{})

	rec := do(s, http.MethodPost, "/api/v1/analytics/compute", benchPressExport, nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var report analytics.Report
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&report))
	require.Len(t, report.MuscleBalance, len(models.MuscleGroups))
	assert.Equal(t, models.Chest, report.MuscleBalance[0].Group)
	assert.Equal(t, 1920.0, report.MuscleBalance[0].WorkScoreSum)
	assert.Equal(t, map[string]int{"2024-01-10": 1}, map[string]int(report.Consistency))
	require.Len(t, report.LiftRecords, 1)
	assert.Equal(t, 101.0, report.LiftRecords[0].Estimated1RM)
}

// TestComputeInvalidJSON verifies malformed payloads are a client error.
func TestComputeInvalidJSON(t *testing.T) {
	s, _ := newTestServer(t, Options{})
	rec := do(s, http.MethodPost, "/api/v1/analytics/compute", `{"sessions": [`, nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

// TestReportFullHistory verifies stored analytics default to an unbounded window.
func TestReportFullHistory(t *testing.T) {
	s, store := newTestServer(t, Options{})
	store.EXPECT().QuerySessions(gomock.Any(), time.Time{}, time.Time{}, 1).Return(benchPressSessions(), nil)

	rec := do(s, http.MethodGet, "/api/v1/analytics/report", "", nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var report analytics.Report
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&report))
	assert.Equal(t, analytics.ClassifierVersion, report.ClassifierVersion)
	assert.Equal(t, "UTC", report.Timezone)
	require.Len(t, report.WeeklyVolume, 2)
	assert.Equal(t, 1920.0, report.WeeklyVolume[0].TotalWorkScore)
	assert.Equal(t, 500.0, report.WeeklyVolume[1].TotalWorkScore)
	assert.Equal(t, 2, report.Summary.Sessions)
}

// TestRecordsLimit verifies the limit parameter truncates lift records.
func TestRecordsLimit(t *testing.T) {
	s, store := newTestServer(t, Options{})
	store.EXPECT().QuerySessions(gomock.Any(), gomock.Any(), gomock.Any(), 1).Return(benchPressSessions(), nil)

	rec := do(s, http.MethodGet, "/api/v1/analytics/records?limit=1", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var records []analytics.LiftRecord
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&records))
	require.Len(t, records, 1)
	assert.Equal(t, "Sentadilla", records[0].ExerciseName)
	assert.Equal(t, 117.0, records[0].Estimated1RM)
}

// TestAnalyticsSubResources verifies each analytics endpoint returns its slice of the report.
func TestAnalyticsSubResources(t *testing.T) {
	s, store := newTestServer(t, Options{})
	store.EXPECT().QuerySessions(gomock.Any(), gomock.Any(), gomock.Any(), 1).Return(benchPressSessions(), nil).Times(3)

	rec := do(s, http.MethodGet, "/api/v1/analytics/muscle-balance", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var balance []analytics.MuscleBalanceEntry
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&balance))
	assert.Len(t, balance, 8)

	rec = do(s, http.MethodGet, "/api/v1/analytics/volume-trend?weeks=1", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var trend []analytics.WeeklyVolumeBucket
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&trend))
	require.Len(t, trend, 1)
	assert.Equal(t, "Jan 15", trend[0].Label)

	rec = do(s, http.MethodGet, "/api/v1/analytics/consistency", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var days map[string]int
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&days))
	assert.Equal(t, map[string]int{"2024-01-10": 1, "2024-01-17": 1}, days)
}

// TestReportBadParams verifies invalid query parameters are rejected before querying.
func TestReportBadParams(t *testing.T) {
	s, _ := newTestServer(t, Options{})
	for _, target := range []string{
		"/api/v1/analytics/report?weeks=-1",
		"/api/v1/analytics/report?limit=abc",
		"/api/v1/analytics/report?tz=Nowhere/City",
		"/api/v1/analytics/report?start=yesterday",
	} {
		rec := do(s, http.MethodGet, target, "", nil)
		assert.Equal(t, http.StatusBadRequest, rec.Code, target)
	}
}

// TestQuerySessionsDefaultWindow verifies session listing defaults to the last 30 days.
func TestQuerySessionsDefaultWindow(t *testing.T) {
	s, store := newTestServer(t, Options{})
	store.EXPECT().QuerySessions(gomock.Any(), gomock.Any(), gomock.Any(), 1).
		DoAndReturn(func(_ context.Context, start, end time.Time, _ int) ([]models.Session, error) {
			assert.InDelta(t, (30 * 24 * time.Hour).Hours(), end.Sub(start).Hours(), 1)
			return nil, nil
		})

	rec := do(s, http.MethodGet, "/api/v1/sessions", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `[]`, rec.Body.String())
}

// TestQuerySessionsFullHistory verifies days=0 lists every session.
func TestQuerySessionsFullHistory(t *testing.T) {
	s, store := newTestServer(t, Options{})
	store.EXPECT().QuerySessions(gomock.Any(), time.Time{}, time.Time{}, 1).Return(benchPressSessions(), nil)

	rec := do(s, http.MethodGet, "/api/v1/sessions?days=0", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var got []models.Session
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	assert.Len(t, got, 2)

	rec = do(s, http.MethodGet, "/api/v1/sessions?days=-1", "", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

// TestGetSession verifies a stored session is returned with its classified sets.
func TestGetSession(t *testing.T) {
	s, store := newTestServer(t, Options{})
	id := uuid.New()
	sess := benchPressSessions()[0]
	store.EXPECT().GetSession(gomock.Any(), id, 1).Return(&sess, nil)

	rec := do(s, http.MethodGet, "/api/v1/sessions/"+id.String(), "", nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var body struct {
		Classified analytics.ClassifiedSession `json:"classified"`
	}
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&body))
	require.Len(t, body.Classified.Sets, 1)
	assert.Equal(t, models.Chest, body.Classified.Sets[0].Group)
}

// TestGetSessionErrors verifies invalid and unknown IDs.
func TestGetSessionErrors(t *testing.T) {
	s, store := newTestServer(t, Options{})

	rec := do(s, http.MethodGet, "/api/v1/sessions/not-a-uuid", "", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	store.EXPECT().GetSession(gomock.Any(), gomock.Any(), 1).Return(nil, storage.ErrNotFound)
	rec = do(s, http.MethodGet, "/api/v1/sessions/"+uuid.NewString(), "", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

// TestHealth verifies the health check reflects database reachability without identity.
func TestHealth(t *testing.T) {
	s, store := newTestServer(t, Options{})

	store.EXPECT().Ping(gomock.Any()).Return(nil)
	rec := do(s, http.MethodGet, "/healthz", "", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"ok"}`, rec.Body.String())

	store.EXPECT().Ping(gomock.Any()).Return(errors.New("connection refused"))
	rec = do(s, http.MethodGet, "/healthz", "", nil)
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.Contains(t, rec.Body.String(), "connection refused")
}

// TestImportLogsEndpoint verifies the limit parameter reaches storage.
func TestImportLogsEndpoint(t *testing.T) {
	s, store := newTestServer(t, Options{})
	store.EXPECT().QueryImportLogs(gomock.Any(), 1, 5).Return(nil, nil)

	rec := do(s, http.MethodGet, "/api/v1/import-logs?limit=5", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `[]`, rec.Body.String())
}

// TestMetricsEndpoint verifies the Prometheus registry is served and reports are counted.
func TestMetricsEndpoint(t *testing.T) {
	reg := prometheus.NewRegistry()
	s, _ := newTestServer(t, Options{Registry: reg, Metrics: metrics.NewManager(reg)})

	rec := do(s, http.MethodPost, "/api/v1/analytics/compute", benchPressExport, nil)
	require.Equal(t, http.StatusOK, rec.Code)

	rec = do(s, http.MethodGet, "/metrics", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `repsight_reports_total{surface="rest"} 1`)
	assert.Contains(t, rec.Body.String(), `repsight_sets_classified_total{group="Chest",source="snapshot"} 1`)
}

// TestParseTimeRange verifies date formats, date-only end expansion and defaults.
func TestParseTimeRange(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/?start=2024-01-01&end=2024-01-31", nil)
	start, end, err := parseTimeRange(req, 0, time.UTC)
	require.NoError(t, err)
	assert.Equal(t, time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC), start)
	assert.Equal(t, time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC), end)

	req = httptest.NewRequest(http.MethodGet, "/?start=2024-01-01T10:00:00Z", nil)
	start, end, err = parseTimeRange(req, 0, time.UTC)
	require.NoError(t, err)
	assert.Equal(t, time.Date(2024, 1, 1, 10, 0, 0, 0, time.UTC), start)
	assert.True(t, end.IsZero())

	req = httptest.NewRequest(http.MethodGet, "/", nil)
	start, end, err = parseTimeRange(req, 0, time.UTC)
	require.NoError(t, err)
	assert.True(t, start.IsZero())
	assert.True(t, end.IsZero())

	req = httptest.NewRequest(http.MethodGet, "/?end=garbage", nil)
	_, _, err = parseTimeRange(req, 0, time.UTC)
	assert.Error(t, err)
}

// TestParseTimeRangeLocation verifies date-only bounds are calendar days in
// the requested location.
func TestParseTimeRangeLocation(t *testing.T) {
	ny, err := time.LoadLocation("America/New_York")
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodGet, "/?start=2024-01-10&end=2024-01-10", nil)
	start, end, err := parseTimeRange(req, 0, ny)
	require.NoError(t, err)
	assert.True(t, start.Equal(time.Date(2024, 1, 10, 5, 0, 0, 0, time.UTC)), "start = %v", start)
	assert.True(t, end.Equal(time.Date(2024, 1, 11, 5, 0, 0, 0, time.UTC)), "end = %v", end)

	req = httptest.NewRequest(http.MethodGet, "/?end=2024-01-10T23:00:00Z", nil)
	_, end, err = parseTimeRange(req, 0, ny)
	require.NoError(t, err)
	assert.True(t, end.Equal(time.Date(2024, 1, 10, 23, 0, 0, 0, time.UTC)), "explicit instants ignore the location")
}

// TestReportWindowUsesTimezone verifies the tz parameter sets the calendar
// day of a date-only end, so that evening sessions stay in the window.
func TestReportWindowUsesTimezone(t *testing.T) {
	s, store := newTestServer(t, Options{})
	store.EXPECT().QuerySessions(gomock.Any(), gomock.Any(), gomock.Any(), 1).
		DoAndReturn(func(_ context.Context, start, end time.Time, _ int) ([]models.Session, error) {
			assert.True(t, start.IsZero())
			assert.True(t, end.Equal(time.Date(2024, 1, 11, 5, 0, 0, 0, time.UTC)), "end = %v", end)
			return nil, nil
		})

	rec := do(s, http.MethodGet, "/api/v1/analytics/consistency?end=2024-01-10&tz=America/New_York", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
}
