package analytics

import (
	"time"

	"github.com/claude/repsight/internal/models"
)

// Options controls calendar and truncation behavior of Analyze.
type Options struct {
	// Location defines local calendar days and weeks. Nil means time.Local.
	Location *time.Location
	// TrendWeeks keeps the most recent N weekly buckets; 0 keeps all.
	TrendWeeks int
	// TopLifts keeps the N strongest lift records; 0 keeps all.
	TopLifts int
}

// DefaultOptions returns local time, ten weeks of trend and the top ten lifts.
func DefaultOptions() Options {
	return Options{Location: time.Local, TrendWeeks: 10, TopLifts: 10}
}

// Summary holds headline totals for a report.
type Summary struct {
	Sessions               int            `json:"sessions"`
	DatedSessions          int            `json:"dated_sessions"`
	Sets                   int            `json:"sets"`
	ActiveDays             int            `json:"active_days"`
	TotalWorkScore         float64        `json:"total_work_score"`
	AvgWorkScorePerSession float64        `json:"avg_work_score_per_session"`
	TotalDurationSec       float64        `json:"total_duration_sec"`
	AvgSessionDurationSec  float64        `json:"avg_session_duration_sec"`
	SetsByModality         map[string]int `json:"sets_by_modality"`
	SetsByClassification   map[string]int `json:"sets_by_classification"`
	SetsByGroup            map[string]int `json:"sets_by_group"`
}

// Report bundles every aggregate computed from one session collection.
type Report struct {
	ClassifierVersion string               `json:"classifier_version"`
	Timezone          string               `json:"timezone"`
	MuscleBalance     []MuscleBalanceEntry `json:"muscle_balance"`
	WeeklyVolume      []WeeklyVolumeBucket `json:"weekly_volume"`
	Consistency       ConsistencyMap       `json:"consistency"`
	LiftRecords       []LiftRecord         `json:"lift_records"`
	Summary           Summary              `json:"summary"`
}

// Analyze computes the full report. It never fails: empty or malformed input
// yields zero-valued aggregates.
func Analyze(sessions []models.Session, opts Options) *Report {
	return AnalyzePrepared(Prepare(sessions), opts)
}

// AnalyzePrepared is Analyze for sessions that were already classified.
func AnalyzePrepared(sessions []ClassifiedSession, opts Options) *Report {
	loc := opts.Location
	if loc == nil {
		loc = time.Local
	}
	consistency := DailyActivity(sessions, loc)
	return &Report{
		ClassifierVersion: ClassifierVersion,
		Timezone:          loc.String(),
		MuscleBalance:     MuscleBalance(sessions),
		WeeklyVolume:      WeeklyVolume(sessions, loc, opts.TrendWeeks),
		Consistency:       consistency,
		LiftRecords:       LiftRecords(sessions, opts.TopLifts),
		Summary:           summarize(sessions, consistency),
	}
}

func summarize(sessions []ClassifiedSession, consistency ConsistencyMap) Summary {
	sum := Summary{
		Sessions:             len(sessions),
		ActiveDays:           consistency.ActiveDays(),
		SetsByModality:       map[string]int{},
		SetsByClassification: map[string]int{},
		SetsByGroup:          map[string]int{},
	}

	var timed int
	for _, s := range sessions {
		if s.Dated() {
			sum.DatedSessions++
		}
		if d := s.Duration(); d > 0 {
			sum.TotalDurationSec += d.Seconds()
			timed++
		}
		for _, set := range s.Sets {
			sum.Sets++
			sum.TotalWorkScore += set.WorkScore
			sum.SetsByModality[set.Rule.String()]++
			sum.SetsByClassification[string(set.Source)]++
			sum.SetsByGroup[string(set.Group)]++
		}
	}
	sum.AvgWorkScorePerSession = safeDiv(sum.TotalWorkScore, float64(sum.Sessions))
	sum.AvgSessionDurationSec = safeDiv(sum.TotalDurationSec, float64(timed))
	return sum
}
