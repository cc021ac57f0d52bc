package alpha

import (
	"strings"

	"github.com/claude/repsight/internal/models"
)

// SourceName tags sessions imported from Alpha Progression.
const SourceName = "alpha_progression"

// equipmentTags maps Alpha Progression equipment labels onto the generic
// category tags other clients store. The classifier skips these, so Alpha
// sets are grouped by exercise name.
var equipmentTags = map[string]string{
	"machine":       "strength_machine",
	"smith machine": "strength_machine",
	"barbell":       "free_weight",
	"dumbbells":     "free_weight",
	"dumbbell":      "free_weight",
	"ez bar":        "free_weight",
	"kettlebell":    "free_weight",
	"kettlebells":   "free_weight",
	"cable":         "cable",
	"cables":        "cable",
	"band":          "accessory",
	"bands":         "accessory",
}

// ToSessions converts parsed workouts into analytics sessions.
// Warmup sets are left out.
func ToSessions(workouts []Workout) []models.Session {
	out := make([]models.Session, 0, len(workouts))
	for _, w := range workouts {
		s := models.Session{
			Name:      w.Title,
			Source:    SourceName,
			StartedAt: w.StartedAt,
		}
		if d, ok := parseLength(w.Length); ok && d > 0 {
			end := w.StartedAt.Add(d)
			s.EndedAt = &end
		}
		for _, ex := range w.Exercises {
			tag := equipmentTag(ex.Equipment)
			for _, set := range ex.Sets {
				if set.Warmup {
					continue
				}
				raw := models.RawSet{
					WeightKg:   set.WeightKg,
					Reps:       set.Reps,
					SetsRepeat: 1,
					Exercise:   models.ExerciseRef{Name: ex.Name},
				}
				if tag != "" {
					t := tag
					raw.CategorySnapshot = &t
				}
				s.Sets = append(s.Sets, raw)
			}
		}
		out = append(out, s)
	}
	return out
}

func equipmentTag(equipment string) string {
	e := strings.ToLower(strings.TrimSpace(equipment))
	if e == "" {
		return ""
	}
	if tag, ok := equipmentTags[e]; ok {
		return tag
	}
	return "other"
}
