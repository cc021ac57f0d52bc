package models

import (
	"encoding/json"
	"strings"
	"time"

	"github.com/spf13/cast"
)

// MuscleGroup is one of the eight canonical training categories.
type MuscleGroup string

const (
	Chest     MuscleGroup = "Chest"
	Back      MuscleGroup = "Back"
	Legs      MuscleGroup = "Legs"
	Shoulders MuscleGroup = "Shoulders"
	Biceps    MuscleGroup = "Biceps"
	Triceps   MuscleGroup = "Triceps"
	Core      MuscleGroup = "Core"
	Cardio    MuscleGroup = "Cardio"
)

// MuscleGroups lists every canonical group in display order.
var MuscleGroups = []MuscleGroup{Chest, Back, Legs, Shoulders, Biceps, Triceps, Core, Cardio}

// ExerciseRef is the catalog entry a logged set points at.
type ExerciseRef struct {
	Name              string `json:"name,omitempty"`
	TargetMuscleGroup string `json:"target_muscle_group,omitempty"`
}

// UnmarshalJSON accepts non-string labels and a bare exercise name.
func (e *ExerciseRef) UnmarshalJSON(data []byte) error {
	var aux struct {
		Name              any `json:"name"`
		TargetMuscleGroup any `json:"target_muscle_group"`
	}
	if err := json.Unmarshal(data, &aux); err != nil {
		var v any
		if json.Unmarshal(data, &v) != nil {
			return err
		}
		*e = ExerciseRef{Name: Label(v)}
		return nil
	}
	*e = ExerciseRef{Name: Label(aux.Name), TargetMuscleGroup: Label(aux.TargetMuscleGroup)}
	return nil
}

// Label renders a decoded JSON scalar as text. Numbers and booleans are
// formatted, null and composite values become "".
func Label(v any) string {
	return cast.ToString(v)
}

// RawSet is one logged set as it arrives from a client or export file.
// Numeric fields are left untyped: clients send numbers, numeric strings,
// nulls or nothing at all, and the analytics normalizer sorts that out.
type RawSet struct {
	WeightKg         any            `json:"weight_kg,omitempty"`
	Reps             any            `json:"reps,omitempty"`
	SetsRepeat       any            `json:"sets,omitempty"`
	TimeSeconds      any            `json:"time,omitempty"`
	DistanceMeters   any            `json:"distance,omitempty"`
	CustomMetrics    map[string]any `json:"metrics_data,omitempty"`
	CategorySnapshot *string        `json:"category_snapshot,omitempty"`
	Exercise         ExerciseRef    `json:"exercise"`
}

// UnmarshalJSON accepts metrics_data either as an object or as a JSON-encoded
// string, and a category_snapshot of any scalar type.
func (s *RawSet) UnmarshalJSON(data []byte) error {
	type rawSetAlias RawSet
	aux := struct {
		*rawSetAlias
		CustomMetrics    json.RawMessage `json:"metrics_data,omitempty"`
		CategorySnapshot any             `json:"category_snapshot,omitempty"`
	}{rawSetAlias: (*rawSetAlias)(s)}

	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}
	s.CustomMetrics = decodeMetrics(aux.CustomMetrics)
	s.CategorySnapshot = nil
	if aux.CategorySnapshot != nil {
		snapshot := Label(aux.CategorySnapshot)
		s.CategorySnapshot = &snapshot
	}
	return nil
}

func decodeMetrics(raw json.RawMessage) map[string]any {
	if len(raw) == 0 {
		return nil
	}
	var m map[string]any
	if json.Unmarshal(raw, &m) == nil {
		return m
	}
	var encoded string
	if json.Unmarshal(raw, &encoded) == nil && strings.TrimSpace(encoded) != "" {
		if json.Unmarshal([]byte(encoded), &m) == nil {
			return m
		}
	}
	return nil
}

// Session is a workout session with its nested set logs.
type Session struct {
	ID        string     `json:"id,omitempty"`
	Name      string     `json:"name,omitempty"`
	Source    string     `json:"source,omitempty"`
	StartedAt time.Time  `json:"started_at"`
	EndedAt   *time.Time `json:"end_time,omitempty"`
	Sets      []RawSet   `json:"workout_logs"`
}

// Duration returns the session length, or zero when the end time is missing
// or precedes the start.
func (s Session) Duration() time.Duration {
	if s.EndedAt == nil || s.StartedAt.IsZero() {
		return 0
	}
	d := s.EndedAt.Sub(s.StartedAt)
	if d < 0 {
		return 0
	}
	return d
}

// Dated reports whether the session carries a usable start time.
func (s Session) Dated() bool {
	return !s.StartedAt.IsZero()
}
