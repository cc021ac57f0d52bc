package analytics

import "fmt"

// Rule identifies which modality formula produced a set's WorkScore.
type Rule int

const (
	RuleNone Rule = iota
	RuleLoad
	RuleTime
	RuleDistance
	RuleReps
	RuleCustom
)

var ruleNames = [...]string{"none", "load", "time", "distance", "bodyweight_reps", "custom"}

func (r Rule) String() string {
	if r < 0 || int(r) >= len(ruleNames) {
		return "unknown"
	}
	return ruleNames[r]
}

// MarshalText encodes the rule by name.
func (r Rule) MarshalText() ([]byte, error) {
	return []byte(r.String()), nil
}

// UnmarshalText decodes a rule name. Unknown names are an error.
func (r *Rule) UnmarshalText(text []byte) error {
	for i, name := range ruleNames {
		if name == string(text) {
			*r = Rule(i)
			return nil
		}
	}
	return fmt.Errorf("unknown work score rule %q", text)
}

// WorkScore weighting constants. Stored scores and charts depend on these
// exact values, so they do not change without a data migration.
const (
	TimeFactor     = 1.5
	DistanceFactor = 0.5
	RepSeconds     = 60
	RepFactor      = 0.5
	CustomFactor   = 0.5
)

// Modality picks the first rule that applies to the set, in priority order:
// load, time, distance, bodyweight reps, custom metrics.
func Modality(s NormalizedSet) Rule {
	switch {
	case s.WeightKg > 0:
		return RuleLoad
	case s.TimeSeconds > 0:
		return RuleTime
	case s.DistanceMeters > 0:
		return RuleDistance
	case s.Reps > 0:
		return RuleReps
	case len(s.CustomMetrics) > 0:
		return RuleCustom
	default:
		return RuleNone
	}
}

// WorkScore is the unitless training volume of one set. Exactly one rule
// contributes; the result is finite and never negative.
func WorkScore(s NormalizedSet) float64 {
	var score float64
	switch Modality(s) {
	case RuleLoad:
		score = s.WeightKg * s.Reps * s.SetsRepeat
	case RuleTime:
		score = s.TimeSeconds * TimeFactor
	case RuleDistance:
		score = s.DistanceMeters * DistanceFactor
	case RuleReps:
		score = s.Reps * RepSeconds * s.SetsRepeat * RepFactor
	case RuleCustom:
		score = metricsSum(s.CustomMetrics) * CustomFactor
	}
	return nonNegative(finite(score))
}
