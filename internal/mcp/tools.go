package mcp

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/spf13/cast"

	"github.com/claude/repsight/internal/analytics"
	"github.com/claude/repsight/internal/models"
)

// defaultSessionDays is the window get_sessions lists when no start is given.
const defaultSessionDays = 14

// timeRange parses optional start/end arguments. A date-only end includes
// that whole day, and date-only bounds are calendar days in loc. Without a
// start the window is the last defaultDays days, or the full history when
// defaultDays is 0.
func timeRange(startStr, endStr string, defaultDays int, loc *time.Location) (time.Time, time.Time, error) {
	var start, end time.Time
	if loc == nil {
		loc = time.Local
	}

	if endStr != "" {
		t, dateOnly, err := parseFlexTime(endStr, loc)
		if err != nil {
			return time.Time{}, time.Time{}, err
		}
		end = t
		if dateOnly {
			end = end.AddDate(0, 0, 1)
		}
	}

	if startStr != "" {
		t, _, err := parseFlexTime(startStr, loc)
		if err != nil {
			return time.Time{}, time.Time{}, err
		}
		start = t
	} else if defaultDays > 0 {
		if end.IsZero() {
			end = time.Now()
		}
		start = end.AddDate(0, 0, -defaultDays)
	}

	return start, end, nil
}

func parseFlexTime(s string, loc *time.Location) (time.Time, bool, error) {
	t, err := time.Parse(time.RFC3339, s)
	if err == nil {
		return t, false, nil
	}
	t, err = time.ParseInLocation("2006-01-02", s, loc)
	if err == nil {
		return t, true, nil
	}
	return time.Time{}, false, err
}

// reportOptions applies the weeks, limit and tz arguments over the defaults.
func (h *handlers) reportOptions(req mcp.CallToolRequest) (analytics.Options, error) {
	opts := h.opts
	args := req.GetArguments()
	if v, ok := args["weeks"]; ok {
		n, err := cast.ToIntE(v)
		if err != nil || n < 0 {
			return opts, fmt.Errorf("invalid weeks %v", v)
		}
		opts.TrendWeeks = n
	}
	if v, ok := args["limit"]; ok {
		n, err := cast.ToIntE(v)
		if err != nil || n < 0 {
			return opts, fmt.Errorf("invalid limit %v", v)
		}
		opts.TopLifts = n
	}
	if tz := req.GetString("tz", ""); tz != "" {
		loc, err := time.LoadLocation(tz)
		if err != nil {
			return opts, fmt.Errorf("invalid tz %q", tz)
		}
		opts.Location = loc
	}
	return opts, nil
}

// --- Tool definitions ---

var (
	argStart = mcp.WithString("start", mcp.Description("Start date (ISO 8601 or YYYY-MM-DD). Defaults to the full history."))
	argEnd   = mcp.WithString("end", mcp.Description("End date (ISO 8601 or YYYY-MM-DD; a date includes that whole day). Defaults to open."))
	argTZ    = mcp.WithString("tz", mcp.Description("IANA timezone for calendar days and weeks (e.g. 'Europe/Madrid'). Defaults to the server setting."))
	argWeeks = mcp.WithNumber("weeks", mcp.Description("Keep the most recent N weekly buckets. 0 keeps all."))
	argLimit = mcp.WithNumber("limit", mcp.Description("Keep the N strongest lifts. 0 keeps all."))
)

var toolGetTrainingReport = mcp.NewTool("get_training_report",
	mcp.WithDescription("Full training report: muscle-group balance, weekly work-score trend, daily consistency map, estimated one-rep max records and headline totals."),
	argStart, argEnd, argTZ, argWeeks, argLimit,
)

var toolGetMuscleBalance = mcp.NewTool("get_muscle_balance",
	mcp.WithDescription("Total work score per muscle group, always all eight groups (Chest, Back, Legs, Shoulders, Biceps, Triceps, Core, Cardio) in that order, with a shared radar-chart axis scale."),
	argStart, argEnd,
)

var toolGetVolumeTrend = mcp.NewTool("get_volume_trend",
	mcp.WithDescription("Summed work score per calendar week (weeks start Monday), oldest first."),
	argStart, argEnd, argTZ, argWeeks,
)

var toolGetConsistency = mcp.NewTool("get_consistency",
	mcp.WithDescription("Sessions per calendar day (YYYY-MM-DD), plus the number of active days."),
	argStart, argEnd, argTZ,
)

var toolGetLiftRecords = mcp.NewTool("get_lift_records",
	mcp.WithDescription("Best estimated one-rep max per exercise (Epley formula, rounded to the kilogram) with the set that produced it, strongest first."),
	argStart, argEnd, argLimit,
	mcp.WithString("exercise", mcp.Description("Filter by exercise name (partial match, e.g. 'press')")),
)

var toolGetSessions = mcp.NewTool("get_sessions",
	mcp.WithDescription("Sessions with every set classified: muscle group, which classification step resolved it, volume rule and work score."),
	mcp.WithString("start", mcp.Description("Start date. Defaults to 14 days ago.")),
	mcp.WithString("end", mcp.Description("End date. Defaults to now.")),
	mcp.WithString("exercise", mcp.Description("Keep only sets whose exercise name contains this text")),
)

var toolClassifyExercise = mcp.NewTool("classify_exercise",
	mcp.WithDescription("Resolve the muscle group for an exercise the way logged sets are classified: category snapshot, then target muscle group, then name keywords, then Cardio."),
	mcp.WithString("name", mcp.Description("Exercise name (e.g. 'Press banca')")),
	mcp.WithString("snapshot", mcp.Description("Category tag recorded with the set (e.g. 'pectorales')")),
	mcp.WithString("target", mcp.Description("Target muscle group from the exercise catalog")),
)

// --- Tool handlers ---

// sessions loads and classifies the caller's sessions in the requested window.
func (h *handlers) sessions(ctx context.Context, req mcp.CallToolRequest, defaultDays int, loc *time.Location) ([]analytics.ClassifiedSession, *mcp.CallToolResult) {
	start, end, err := timeRange(req.GetString("start", ""), req.GetString("end", ""), defaultDays, loc)
	if err != nil {
		return nil, mcp.NewToolResultError("invalid date format: " + err.Error())
	}

	raw, err := h.ds.QuerySessions(ctx, start, end, UserIDFromContext(ctx))
	if err != nil {
		h.log.Error("mcp query sessions", "tool", req.Params.Name, "error", err)
		return nil, mcp.NewToolResultError("query failed: " + err.Error())
	}

	prepared := analytics.Prepare(raw)
	h.metrics.ObserveClassified(prepared)
	return prepared, nil
}

// report runs the engine for a tool call and hands the result to pick.
func (h *handlers) report(ctx context.Context, req mcp.CallToolRequest, pick func(*analytics.Report) any) (*mcp.CallToolResult, error) {
	began := time.Now()
	opts, err := h.reportOptions(req)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	prepared, errResult := h.sessions(ctx, req, 0, opts.Location)
	if errResult != nil {
		return errResult, nil
	}

	report := analytics.AnalyzePrepared(prepared, opts)
	h.metrics.ObserveReport("mcp", time.Since(began))
	return jsonResult(pick(report))
}

func jsonResult(v any) (*mcp.CallToolResult, error) {
	result, err := mcp.NewToolResultJSON(v)
	if err != nil {
		return mcp.NewToolResultError("serialization failed"), nil
	}
	return result, nil
}

func (h *handlers) getTrainingReport(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return h.report(ctx, req, func(r *analytics.Report) any { return r })
}

func (h *handlers) getMuscleBalance(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return h.report(ctx, req, func(r *analytics.Report) any {
		return map[string]any{"muscle_balance": nonNil(r.MuscleBalance)}
	})
}

func (h *handlers) getVolumeTrend(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return h.report(ctx, req, func(r *analytics.Report) any {
		return map[string]any{"timezone": r.Timezone, "weeks": nonNil(r.WeeklyVolume)}
	})
}

func (h *handlers) getConsistency(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return h.report(ctx, req, func(r *analytics.Report) any {
		return map[string]any{
			"timezone":    r.Timezone,
			"active_days": r.Consistency.ActiveDays(),
			"days":        nonNil(r.Consistency.Days()),
		}
	})
}

func (h *handlers) getLiftRecords(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	filter := strings.ToLower(strings.TrimSpace(req.GetString("exercise", "")))
	return h.report(ctx, req, func(r *analytics.Report) any {
		records := make([]analytics.LiftRecord, 0, len(r.LiftRecords))
		for _, rec := range r.LiftRecords {
			if filter == "" || strings.Contains(strings.ToLower(rec.ExerciseName), filter) {
				records = append(records, rec)
			}
		}
		return map[string]any{"lift_records": records}
	})
}

func (h *handlers) getSessions(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	sessions, errResult := h.sessions(ctx, req, defaultSessionDays, h.opts.Location)
	if errResult != nil {
		return errResult, nil
	}

	filter := strings.ToLower(strings.TrimSpace(req.GetString("exercise", "")))
	out := make([]analytics.ClassifiedSession, 0, len(sessions))
	for _, s := range sessions {
		if filter != "" {
			kept := s.Sets[:0:0]
			for _, set := range s.Sets {
				if strings.Contains(strings.ToLower(set.ExerciseName), filter) {
					kept = append(kept, set)
				}
			}
			if len(kept) == 0 {
				continue
			}
			s.Sets = kept
		}
		out = append(out, s)
	}
	return jsonResult(map[string]any{"sessions": out})
}

func (h *handlers) classifyExercise(_ context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	name := req.GetString("name", "")
	snapshot := req.GetString("snapshot", "")
	target := req.GetString("target", "")
	if name == "" && snapshot == "" && target == "" {
		return mcp.NewToolResultError("at least one of name, snapshot or target is required"), nil
	}

	set := analytics.NormalizeSet(models.RawSet{
		CategorySnapshot: &snapshot,
		Exercise:         models.ExerciseRef{Name: name, TargetMuscleGroup: target},
	})
	c := analytics.Classify(set)
	return jsonResult(map[string]any{
		"exercise_name": set.ExerciseName,
		"group":         c.Group,
		"source":        c.Source,
	})
}

// nonNil keeps empty results encoded as [] rather than null.
func nonNil[T any](s []T) []T {
	if s == nil {
		return []T{}
	}
	return s
}
