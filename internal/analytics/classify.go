package analytics

import (
	"strings"

	"github.com/claude/repsight/internal/models"
)

// ClassifierVersion changes whenever a table below changes in a way that can
// move a set to a different group.
const ClassifierVersion = "1"

// Source records which step of the fallback chain resolved a set.
type Source string

const (
	SourceSnapshot Source = "snapshot"
	SourceTarget   Source = "target"
	SourceName     Source = "name"
	SourceFallback Source = "fallback"
)

// Classification is the resolved muscle group of a set.
type Classification struct {
	Group  models.MuscleGroup `json:"group"`
	Source Source             `json:"source"`
}

// KeywordRule maps exercise-name substrings to a group.
type KeywordRule struct {
	Group    models.MuscleGroup
	Keywords []string
}

// Groups are tested in this order and the first hit wins, so "press militar"
// lands in Chest and "extension de triceps" in Legs.
var keywordRules = []KeywordRule{
	{models.Back, []string{"jalon", "remo", "dominadas", "polea", "pull"}},
	{models.Chest, []string{"press", "banco", "pec", "cruce", "chest"}},
	{models.Legs, []string{"sentadilla", "prensa", "extension", "curl femoral", "zancada", "squat", "leg"}},
	{models.Shoulders, []string{"militar", "lateral", "hombro", "shoulder"}},
	{models.Biceps, []string{"curl", "biceps"}},
	{models.Triceps, []string{"triceps", "copa", "fondos"}},
	{models.Core, []string{"abs", "crunch", "plancha", "core"}},
	{models.Cardio, []string{"correr", "elíptica", "bici", "cardio"}},
}

// Equipment-style tags some clients store where a muscle group belongs.
var ignoredTags = []string{"free_weight", "strength_machine", "cable", "accessory", "custom", "other", "unknown"}

var ignoredTagSet = func() map[string]bool {
	m := make(map[string]bool, len(ignoredTags))
	for _, t := range ignoredTags {
		m[t] = true
	}
	return m
}()

// groupSynonyms maps lower-cased anatomical labels to canonical groups.
var groupSynonyms = map[string]models.MuscleGroup{
	"chest":      models.Chest,
	"pecho":      models.Chest,
	"pectoral":   models.Chest,
	"pectorales": models.Chest,
	"pecs":       models.Chest,

	"back":       models.Back,
	"espalda":    models.Back,
	"dorsal":     models.Back,
	"dorsales":   models.Back,
	"lats":       models.Back,
	"trapecio":   models.Back,
	"traps":      models.Back,
	"upper back": models.Back,
	"lower back": models.Back,
	"lumbares":   models.Back,

	"legs":           models.Legs,
	"piernas":        models.Legs,
	"cuadriceps":     models.Legs,
	"cuádriceps":     models.Legs,
	"quadriceps":     models.Legs,
	"quads":          models.Legs,
	"isquios":        models.Legs,
	"isquiotibiales": models.Legs,
	"hamstrings":     models.Legs,
	"gluteos":        models.Legs,
	"glúteos":        models.Legs,
	"glutes":         models.Legs,
	"gemelos":        models.Legs,
	"pantorrillas":   models.Legs,
	"calves":         models.Legs,
	"aductores":      models.Legs,

	"shoulders": models.Shoulders,
	"hombros":   models.Shoulders,
	"hombro":    models.Shoulders,
	"deltoides": models.Shoulders,
	"delts":     models.Shoulders,

	"biceps": models.Biceps,
	"bíceps": models.Biceps,

	"triceps": models.Triceps,
	"tríceps": models.Triceps,

	"core":        models.Core,
	"abs":         models.Core,
	"abdomen":     models.Core,
	"abdominales": models.Core,
	"oblicuos":    models.Core,
	"obliques":    models.Core,

	"cardio":         models.Cardio,
	"cardiovascular": models.Cardio,
}

// KeywordRules returns a copy of the ordered name-keyword table.
func KeywordRules() []KeywordRule {
	out := make([]KeywordRule, len(keywordRules))
	for i, r := range keywordRules {
		out[i] = KeywordRule{Group: r.Group, Keywords: append([]string(nil), r.Keywords...)}
	}
	return out
}

// IgnoredTags returns the generic tags that never resolve a group.
func IgnoredTags() []string {
	return append([]string(nil), ignoredTags...)
}

// ResolveGroupTag maps a snapshot or target tag to a canonical group.
// Generic equipment tags and unknown labels do not resolve.
func ResolveGroupTag(tag string) (models.MuscleGroup, bool) {
	key := strings.ToLower(strings.TrimSpace(tag))
	if key == "" || ignoredTagSet[key] {
		return "", false
	}
	key = strings.Join(strings.FieldsFunc(key, func(r rune) bool {
		return r == '_' || r == '-' || r == ' '
	}), " ")
	g, ok := groupSynonyms[key]
	return g, ok
}

// MatchExerciseName applies the keyword table to an exercise name.
func MatchExerciseName(name string) (models.MuscleGroup, bool) {
	lower := strings.ToLower(strings.TrimSpace(name))
	if lower == "" {
		return "", false
	}
	for _, rule := range keywordRules {
		for _, kw := range rule.Keywords {
			if strings.Contains(lower, kw) {
				return rule.Group, true
			}
		}
	}
	return "", false
}

// Classify resolves a set's muscle group: snapshot tag, then the exercise's
// target group, then name keywords, then Cardio. It always returns a group.
func Classify(s NormalizedSet) Classification {
	return ClassifyFields(s.CategorySnapshot, s.TargetMuscleGroup, s.ExerciseName)
}

// ClassifyFields runs the fallback chain on the individual inputs.
func ClassifyFields(snapshot, target, name string) Classification {
	if g, ok := ResolveGroupTag(snapshot); ok {
		return Classification{Group: g, Source: SourceSnapshot}
	}
	if g, ok := ResolveGroupTag(target); ok {
		return Classification{Group: g, Source: SourceTarget}
	}
	if g, ok := MatchExerciseName(name); ok {
		return Classification{Group: g, Source: SourceName}
	}
	return Classification{Group: models.Cardio, Source: SourceFallback}
}
