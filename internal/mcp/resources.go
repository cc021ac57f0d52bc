package mcp

import (
	"context"
	"encoding/json"
	"time"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/claude/repsight/internal/analytics"
)

func (h *handlers) weeklySummary(ctx context.Context, req mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
	began := time.Now()
	uid := UserIDFromContext(ctx)
	weekStart := analytics.WeekStart(began, h.opts.Location)

	raw, err := h.ds.QuerySessions(ctx, weekStart, time.Time{}, uid)
	if err != nil {
		return nil, err
	}
	prepared := analytics.Prepare(raw)
	h.metrics.ObserveClassified(prepared)
	report := analytics.AnalyzePrepared(prepared, h.opts)
	h.metrics.ObserveReport("mcp", time.Since(began))

	return jsonContents(req.Params.URI, map[string]any{
		"week_start":       weekStart.Format("2006-01-02"),
		"timezone":         report.Timezone,
		"sessions":         report.Summary.Sessions,
		"sets":             report.Summary.Sets,
		"active_days":      report.Summary.ActiveDays,
		"total_work_score": report.Summary.TotalWorkScore,
		"muscle_balance":   nonNil(report.MuscleBalance),
	})
}

func (h *handlers) liftRecords(ctx context.Context, req mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
	uid := UserIDFromContext(ctx)

	raw, err := h.ds.QuerySessions(ctx, time.Time{}, time.Time{}, uid)
	if err != nil {
		return nil, err
	}

	return jsonContents(req.Params.URI, nonNil(analytics.LiftRecords(analytics.Prepare(raw), h.opts.TopLifts)))
}

func jsonContents(uri string, v any) ([]mcp.ResourceContents, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}

	return []mcp.ResourceContents{
		mcp.TextResourceContents{
			URI:      uri,
			MIMEType: "application/json",
			Text:     string(data),
		},
	}, nil
}
