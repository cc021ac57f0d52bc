package analytics

import (
	"time"

	"github.com/claude/repsight/internal/models"
)

// ClassifiedSet is a normalized set with its group and score attached.
type ClassifiedSet struct {
	NormalizedSet
	Group     models.MuscleGroup `json:"group"`
	Source    Source             `json:"source"`
	Rule      Rule               `json:"rule"`
	WorkScore float64            `json:"work_score"`
}

// ClassifiedSession is a session whose sets carry scores and groups.
type ClassifiedSession struct {
	ID        string          `json:"id,omitempty"`
	Name      string          `json:"name,omitempty"`
	StartedAt time.Time       `json:"started_at"`
	EndedAt   *time.Time      `json:"end_time,omitempty"`
	Sets      []ClassifiedSet `json:"sets"`
}

// Dated reports whether the session has a calendar position.
func (s ClassifiedSession) Dated() bool {
	return !s.StartedAt.IsZero()
}

// Duration is the non-negative session length.
func (s ClassifiedSession) Duration() time.Duration {
	return models.Session{StartedAt: s.StartedAt, EndedAt: s.EndedAt}.Duration()
}

// WorkScore sums the session's set scores.
func (s ClassifiedSession) WorkScore() float64 {
	var sum float64
	for _, set := range s.Sets {
		sum += set.WorkScore
	}
	return sum
}

// Prepare normalizes, scores and classifies every set.
func Prepare(sessions []models.Session) []ClassifiedSession {
	normalized := Normalize(sessions)
	out := make([]ClassifiedSession, 0, len(normalized))
	for _, ns := range normalized {
		cs := ClassifiedSession{
			ID:        ns.ID,
			Name:      ns.Name,
			StartedAt: ns.StartedAt,
			EndedAt:   ns.EndedAt,
			Sets:      make([]ClassifiedSet, 0, len(ns.Sets)),
		}
		for _, set := range ns.Sets {
			cs.Sets = append(cs.Sets, ClassifySet(set))
		}
		out = append(out, cs)
	}
	return out
}

// ClassifySet scores and classifies a single normalized set.
func ClassifySet(set NormalizedSet) ClassifiedSet {
	c := Classify(set)
	return ClassifiedSet{
		NormalizedSet: set,
		Group:         c.Group,
		Source:        c.Source,
		Rule:          Modality(set),
		WorkScore:     WorkScore(set),
	}
}
