package analytics_test

import (
	"encoding/json"
	"math"
	"testing"

	"github.com/claude/repsight/internal/analytics"
	"github.com/claude/repsight/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func strPtr(s string) *string { return &s }

// TestCoerceNumber verifies loose numeric coercion of client-supplied values.
func TestCoerceNumber(t *testing.T) {
	tests := []struct {
		name string
		in   any
		want float64
	}{
		{"nil", nil, 0},
		{"float", 82.5, 82.5},
		{"int", 8, 8},
		{"int64", int64(12), 12},
		{"uint8", uint8(3), 3},
		{"numeric string", "80", 80},
		{"padded string", "  62.5 ", 62.5},
		{"json number", json.Number("17.5"), 17.5},
		{"empty string", "", 0},
		{"garbage string", "heavy", 0},
		{"bool", true, 0},
		{"nan", math.NaN(), 0},
		{"inf", math.Inf(1), 0},
		{"nan string", "NaN", 0},
		{"slice", []int{1}, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, analytics.CoerceNumber(tt.in))
		})
	}
}

// TestNormalizeSetDefaults verifies that a completely empty set normalizes to
// zero quantities with a repeat count of one.
func TestNormalizeSetDefaults(t *testing.T) {
	n := analytics.NormalizeSet(models.RawSet{})
	assert.Zero(t, n.WeightKg)
	assert.Zero(t, n.Reps)
	assert.Zero(t, n.TimeSeconds)
	assert.Zero(t, n.DistanceMeters)
	assert.Equal(t, 1.0, n.SetsRepeat)
	assert.Empty(t, n.CustomMetrics)
	assert.Empty(t, n.CategorySnapshot)
}

// TestNormalizeSetRepeat verifies repeat-count handling for zero, negative and string input.
func TestNormalizeSetRepeat(t *testing.T) {
	tests := []struct {
		in   any
		want float64
	}{
		{nil, 1},
		{0, 1},
		{-2, 1},
		{"3", 3},
		{4.0, 4},
	}
	for _, tt := range tests {
		n := analytics.NormalizeSet(models.RawSet{SetsRepeat: tt.in})
		assert.Equal(t, tt.want, n.SetsRepeat, "sets=%v", tt.in)
	}
}

// TestNormalizeSetClampsNegatives verifies negative quantities never reach scoring.
func TestNormalizeSetClampsNegatives(t *testing.T) {
	n := analytics.NormalizeSet(models.RawSet{WeightKg: -20, Reps: "-5", TimeSeconds: -1, DistanceMeters: -100.0})
	assert.Zero(t, n.WeightKg)
	assert.Zero(t, n.Reps)
	assert.Zero(t, n.TimeSeconds)
	assert.Zero(t, n.DistanceMeters)
}

// TestNormalizeSetCustomMetrics verifies non-numeric custom metric values are dropped.
func TestNormalizeSetCustomMetrics(t *testing.T) {
	n := analytics.NormalizeSet(models.RawSet{
		CustomMetrics: map[string]any{"rounds": 5.0, "level": "7", "note": "felt good", "done": true},
	})
	require.Len(t, n.CustomMetrics, 2)
	assert.Equal(t, 5.0, n.CustomMetrics["rounds"])
	assert.Equal(t, 7.0, n.CustomMetrics["level"])
}

// TestNormalizeSetTrimsLabels verifies snapshot and exercise labels are trimmed.
func TestNormalizeSetTrimsLabels(t *testing.T) {
	n := analytics.NormalizeSet(models.RawSet{
		CategorySnapshot: strPtr("  Pectorales "),
		Exercise:         models.ExerciseRef{Name: " Press banca ", TargetMuscleGroup: " chest"},
	})
	assert.Equal(t, "Pectorales", n.CategorySnapshot)
	assert.Equal(t, "Press banca", n.ExerciseName)
	assert.Equal(t, "chest", n.TargetMuscleGroup)
}

// TestNormalizeKeepsSessionShape verifies sessions and set order survive normalization.
func TestNormalizeKeepsSessionShape(t *testing.T) {
	sessions := []models.Session{
		{ID: "a", Sets: []models.RawSet{{Reps: 1}, {Reps: 2}}},
		{ID: "b"},
	}
	out := analytics.Normalize(sessions)
	require.Len(t, out, 2)
	assert.Equal(t, "a", out[0].ID)
	require.Len(t, out[0].Sets, 2)
	assert.Equal(t, 2.0, out[0].Sets[1].Reps)
	assert.Empty(t, out[1].Sets)
}
