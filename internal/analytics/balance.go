package analytics

import "github.com/claude/repsight/internal/models"

const (
	// AxisHeadroom scales the largest group sum to leave room on a radar chart.
	AxisHeadroom = 1.2
	// DefaultAxisScale is used when nothing has been trained.
	DefaultAxisScale = 10
)

// MuscleBalanceEntry is one spoke of the muscle-balance chart.
type MuscleBalanceEntry struct {
	Group        models.MuscleGroup `json:"group"`
	WorkScoreSum float64            `json:"work_score_sum"`
	AxisScale    float64            `json:"axis_scale"`
}

// MuscleBalance sums WorkScore per canonical group. It always returns all
// eight groups in canonical order, sharing one axis scale.
func MuscleBalance(sessions []ClassifiedSession) []MuscleBalanceEntry {
	sums := make(map[models.MuscleGroup]float64, len(models.MuscleGroups))
	for _, s := range sessions {
		for _, set := range s.Sets {
			sums[set.Group] += set.WorkScore
		}
	}

	var peak float64
	for _, g := range models.MuscleGroups {
		if sums[g] > peak {
			peak = sums[g]
		}
	}
	scale := float64(DefaultAxisScale)
	if peak > 0 {
		scale = finite(peak * AxisHeadroom)
	}

	entries := make([]MuscleBalanceEntry, 0, len(models.MuscleGroups))
	for _, g := range models.MuscleGroups {
		entries = append(entries, MuscleBalanceEntry{Group: g, WorkScoreSum: sums[g], AxisScale: scale})
	}
	return entries
}
