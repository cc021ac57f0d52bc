// Package analytics turns raw workout logs into training metrics: a unitless
// volume score per set, a canonical muscle group per set, estimated one-rep
// maxes, weekly volume buckets and a daily consistency map.
//
// Everything here is a pure function over an in-memory slice of sessions.
// There is no I/O, no goroutines and no package state, so callers may share
// inputs across goroutines as long as they do not mutate them.
package analytics

import (
	"encoding/json"
	"math"
	"sort"
	"strings"
	"time"

	"github.com/claude/repsight/internal/models"
	"github.com/spf13/cast"
)

// NormalizedSet is a RawSet with every numeric field resolved to a finite float.
type NormalizedSet struct {
	WeightKg          float64            `json:"weight_kg"`
	Reps              float64            `json:"reps"`
	SetsRepeat        float64            `json:"sets"`
	TimeSeconds       float64            `json:"time_seconds"`
	DistanceMeters    float64            `json:"distance_meters"`
	CustomMetrics     map[string]float64 `json:"custom_metrics,omitempty"`
	CategorySnapshot  string             `json:"category_snapshot,omitempty"`
	ExerciseName      string             `json:"exercise_name,omitempty"`
	TargetMuscleGroup string             `json:"target_muscle_group,omitempty"`
}

// NormalizedSession is a Session whose sets have been normalized.
type NormalizedSession struct {
	ID        string
	Name      string
	StartedAt time.Time
	EndedAt   *time.Time
	Sets      []NormalizedSet
}

// Normalize resolves every set of every session. It never fails.
func Normalize(sessions []models.Session) []NormalizedSession {
	out := make([]NormalizedSession, 0, len(sessions))
	for _, s := range sessions {
		ns := NormalizedSession{
			ID:        s.ID,
			Name:      s.Name,
			StartedAt: s.StartedAt,
			EndedAt:   s.EndedAt,
			Sets:      make([]NormalizedSet, 0, len(s.Sets)),
		}
		for _, raw := range s.Sets {
			ns.Sets = append(ns.Sets, NormalizeSet(raw))
		}
		out = append(out, ns)
	}
	return out
}

// NormalizeSet coerces the loosely typed fields of a RawSet. Missing or
// non-numeric quantities become 0, negatives are clamped to 0, and a missing,
// zero or negative repeat count becomes 1.
func NormalizeSet(raw models.RawSet) NormalizedSet {
	n := NormalizedSet{
		WeightKg:          nonNegative(CoerceNumber(raw.WeightKg)),
		Reps:              nonNegative(CoerceNumber(raw.Reps)),
		SetsRepeat:        CoerceNumber(raw.SetsRepeat),
		TimeSeconds:       nonNegative(CoerceNumber(raw.TimeSeconds)),
		DistanceMeters:    nonNegative(CoerceNumber(raw.DistanceMeters)),
		ExerciseName:      strings.TrimSpace(raw.Exercise.Name),
		TargetMuscleGroup: strings.TrimSpace(raw.Exercise.TargetMuscleGroup),
	}
	if n.SetsRepeat <= 0 {
		n.SetsRepeat = 1
	}
	if raw.CategorySnapshot != nil {
		n.CategorySnapshot = strings.TrimSpace(*raw.CategorySnapshot)
	}
	for k, v := range raw.CustomMetrics {
		f, ok := toNumber(v)
		if !ok {
			continue
		}
		if n.CustomMetrics == nil {
			n.CustomMetrics = make(map[string]float64, len(raw.CustomMetrics))
		}
		n.CustomMetrics[k] = f
	}
	return n
}

// CoerceNumber converts a loosely typed value to a finite float64, returning
// 0 for nil, booleans, unparsable strings, NaN and infinities.
func CoerceNumber(v any) float64 {
	f, _ := toNumber(v)
	return f
}

func toNumber(v any) (float64, bool) {
	var (
		f   float64
		err error
	)
	switch t := v.(type) {
	case nil, bool:
		return 0, false
	case json.Number:
		f, err = cast.ToFloat64E(t.String())
	case string:
		t = strings.TrimSpace(t)
		if t == "" {
			return 0, false
		}
		f, err = cast.ToFloat64E(t)
	default:
		f, err = cast.ToFloat64E(t)
	}
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, false
	}
	return f, true
}

// metricsSum adds custom metric values in key order so the result is stable.
func metricsSum(m map[string]float64) float64 {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var sum float64
	for _, k := range keys {
		sum += m[k]
	}
	return sum
}

func nonNegative(f float64) float64 {
	if f < 0 {
		return 0
	}
	return f
}

// finite maps NaN and infinities to 0.
func finite(f float64) float64 {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0
	}
	return f
}

// safeDiv returns a/b, or 0 when the quotient is undefined.
func safeDiv(a, b float64) float64 {
	if b == 0 {
		return 0
	}
	return finite(a / b)
}
