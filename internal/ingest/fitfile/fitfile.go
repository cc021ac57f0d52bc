// Package fitfile imports Garmin FIT activity files. Strength activities
// carry one set message per working set; other activities are reduced to a
// single cardio set built from the session summary.
package fitfile

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"math"
	"strings"
	"time"

	"github.com/muktihari/fit/decoder"
	"github.com/muktihari/fit/profile/mesgdef"
	"github.com/muktihari/fit/profile/typedef"
	"github.com/muktihari/fit/proto"

	"github.com/claude/repsight/internal/ingest"
	"github.com/claude/repsight/internal/models"
)

// SourceName tags sessions imported from FIT files.
const SourceName = "fit"

// Decode reads every activity in a FIT stream. Chained FIT files produce
// one session per activity.
func Decode(r io.Reader) ([]models.Session, error) {
	dec := decoder.New(r)
	var sessions []models.Session
	for dec.Next() {
		fit, err := dec.Decode()
		if err != nil {
			return nil, fmt.Errorf("decoding FIT: %w", err)
		}
		if s, ok := toSession(fit); ok {
			sessions = append(sessions, s)
		}
	}
	return sessions, nil
}

func toSession(fit *proto.FIT) (models.Session, bool) {
	var (
		summary *mesgdef.Session
		sets    []models.RawSet
		first   time.Time
	)
	for i := range fit.Messages {
		msg := &fit.Messages[i]
		switch msg.Num {
		case typedef.MesgNumSession:
			if summary == nil {
				summary = mesgdef.NewSession(msg)
			}
		case typedef.MesgNumSet:
			set := mesgdef.NewSet(msg)
			if set.SetType != typedef.SetTypeActive {
				continue
			}
			if first.IsZero() && !set.StartTime.IsZero() {
				first = set.StartTime
			}
			sets = append(sets, fromSet(set))
		}
	}
	if summary == nil && len(sets) == 0 {
		return models.Session{}, false
	}

	s := models.Session{Source: SourceName, Sets: sets}
	if summary != nil {
		s.StartedAt = summary.StartTime
		s.Name = sportName(summary.Sport)
		if elapsed := summary.TotalElapsedTimeScaled(); validPositive(elapsed) && !s.StartedAt.IsZero() {
			end := s.StartedAt.Add(time.Duration(elapsed * float64(time.Second)))
			s.EndedAt = &end
		}
		if len(sets) == 0 {
			s.Sets = []models.RawSet{cardioSet(summary)}
		}
	}
	if s.StartedAt.IsZero() {
		s.StartedAt = first
	}
	if !s.StartedAt.IsZero() {
		s.ID = fmt.Sprintf("fit-%d", s.StartedAt.Unix())
	}
	return s, true
}

func fromSet(set *mesgdef.Set) models.RawSet {
	raw := models.RawSet{SetsRepeat: 1}
	if w := set.WeightScaled(); validPositive(w) {
		raw.WeightKg = w
	}
	if set.Repetitions != math.MaxUint16 {
		raw.Reps = int(set.Repetitions)
	}
	if d := set.DurationScaled(); validPositive(d) {
		raw.TimeSeconds = d
	}
	if len(set.Category) > 0 && set.Category[0] != typedef.ExerciseCategoryInvalid {
		raw.Exercise.Name = categoryName(set.Category[0])
	}
	return raw
}

func cardioSet(summary *mesgdef.Session) models.RawSet {
	raw := models.RawSet{SetsRepeat: 1, Exercise: models.ExerciseRef{Name: sportName(summary.Sport)}}
	if elapsed := summary.TotalElapsedTimeScaled(); validPositive(elapsed) {
		raw.TimeSeconds = elapsed
	}
	if dist := summary.TotalDistanceScaled(); validPositive(dist) {
		raw.DistanceMeters = dist
	}
	return raw
}

// categoryName turns "bench_press" into "bench press" so the name matcher
// sees separate words.
func categoryName(c typedef.ExerciseCategory) string {
	return strings.ReplaceAll(c.String(), "_", " ")
}

func sportName(s typedef.Sport) string {
	if s == typedef.SportInvalid {
		return ""
	}
	return strings.ReplaceAll(s.String(), "_", " ")
}

func validPositive(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0) && v > 0
}

// Provider ingests FIT files.
type Provider struct {
	w   ingest.SessionWriter
	log *slog.Logger
}

// NewProvider creates a FIT ingest provider.
func NewProvider(w ingest.SessionWriter, log *slog.Logger) *Provider {
	return &Provider{w: w, log: log}
}

// Ingest decodes a FIT stream and stores its sessions.
func (p *Provider) Ingest(ctx context.Context, r io.Reader, userID int) (*ingest.Result, error) {
	sessions, err := Decode(r)
	if err != nil {
		return nil, err
	}
	result, err := ingest.Store(ctx, p.w, SourceName, sessions, userID)
	if err != nil {
		return nil, fmt.Errorf("storing FIT sessions: %w", err)
	}
	p.log.Info("fit import", "sessions", result.SessionsReceived, "sets", result.SetsReceived)
	return result, nil
}
