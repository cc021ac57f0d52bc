package analytics

import (
	"math"
	"sort"
	"time"
)

// BestLift is the set that produced an exercise's top estimate.
type BestLift struct {
	WeightKg float64   `json:"weight_kg"`
	Reps     float64   `json:"reps"`
	Date     time.Time `json:"date"`
}

// LiftRecord is the best estimated one-rep max seen for an exercise.
type LiftRecord struct {
	ExerciseName string   `json:"exercise_name"`
	Estimated1RM float64  `json:"estimated_1rm"`
	BestLift     BestLift `json:"best_lift"`
}

// Estimated1RM applies the Epley formula, rounded to the nearest kilogram.
// A single rep is the lift itself and zero reps estimate nothing.
func Estimated1RM(weightKg, reps float64) float64 {
	if math.IsNaN(weightKg) || math.IsNaN(reps) || weightKg <= 0 || reps <= 0 {
		return 0
	}
	if reps == 1 {
		return finite(weightKg)
	}
	return finite(math.Round(weightKg * (1 + reps/30)))
}

// LiftRecords keeps the highest estimate per exercise name, ranked from
// strongest down. Equal estimates keep whichever set was seen first, and
// limit <= 0 returns every exercise.
func LiftRecords(sessions []ClassifiedSession, limit int) []LiftRecord {
	index := make(map[string]int)
	records := []LiftRecord{}

	for _, s := range sessions {
		for _, set := range s.Sets {
			if set.ExerciseName == "" || set.WeightKg <= 0 {
				continue
			}
			est := Estimated1RM(set.WeightKg, set.Reps)
			if est <= 0 {
				continue
			}
			rec := LiftRecord{
				ExerciseName: set.ExerciseName,
				Estimated1RM: est,
				BestLift:     BestLift{WeightKg: set.WeightKg, Reps: set.Reps, Date: s.StartedAt},
			}
			i, seen := index[set.ExerciseName]
			if !seen {
				index[set.ExerciseName] = len(records)
				records = append(records, rec)
				continue
			}
			if est > records[i].Estimated1RM {
				records[i] = rec
			}
		}
	}

	sort.SliceStable(records, func(a, b int) bool {
		return records[a].Estimated1RM > records[b].Estimated1RM
	})
	if limit > 0 && len(records) > limit {
		records = records[:limit]
	}
	return records
}
