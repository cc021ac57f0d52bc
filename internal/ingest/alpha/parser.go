package alpha

import (
	"bufio"
	"fmt"
	"io"
	"regexp"
	"strconv"
	"strings"
	"time"
)

// Workout is one session block of an Alpha Progression CSV export.
type Workout struct {
	Title     string
	StartedAt time.Time
	Length    string
	Exercises []Exercise
}

// Exercise is a numbered exercise block inside a workout.
type Exercise struct {
	Position   int
	Name       string
	Equipment  string
	TargetReps int
	Sets       []Set
}

// Set is one logged set. Warmups come from the exercise header line.
type Set struct {
	Position       int
	WeightKg       float64
	BodyweightPlus bool
	Reps           int
	RIR            float64
	Warmup         bool
}

var (
	// "Legs · Day 2";"2026-02-19 4:54 h";"1:02 hr"
	workoutLine = regexp.MustCompile(`^"(.+)";"(\d{4}-\d{2}-\d{2}\s+\d+:\d+)\s+h";"(.+)"$`)

	// "1. Hack Squats · Machine · 8 reps · 2 dropsets";"WU1 · 37,5 kg · 9 reps"
	exerciseLine = regexp.MustCompile(`^"(\d+)\.\s+(.+?)(?:\s+·\s+(\S.*?))?\s+·\s+(\d+)\s+reps(.*?)"(?:;"(.+)")?$`)

	// 1;115;8;1
	setLine = regexp.MustCompile(`^(\d+);(.+);(\d+);(.+)$`)

	// WU1 · 37,5 kg · 9 reps
	warmupField = regexp.MustCompile(`WU(\d+)\s+·\s+(.+?)\s+kg\s+·\s+(\d+)\s+reps`)

	lengthField = regexp.MustCompile(`^(?:(\d+):(\d{2})\s*hr?|(\d+)\s*min)$`)
)

const columnHeader = "#;KG;REPS;RIR"

// parser accumulates workouts line by line. A blank line or a new workout
// header closes the open workout.
type parser struct {
	loc      *time.Location
	workouts []Workout
	workout  *Workout
	exercise *Exercise
}

// Parse reads an Alpha Progression CSV export. Workout timestamps carry no
// zone and are read in loc (nil means UTC). Unrecognised lines are ignored.
func Parse(r io.Reader, loc *time.Location) ([]Workout, error) {
	if loc == nil {
		loc = time.UTC
	}
	p := &parser{loc: loc}

	scanner := bufio.NewScanner(r)
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		if err := p.line(strings.TrimSpace(scanner.Text())); err != nil {
			return nil, fmt.Errorf("line %d: %w", lineNo, err)
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("reading CSV: %w", err)
	}
	p.closeWorkout()
	return p.workouts, nil
}

func (p *parser) line(line string) error {
	switch {
	case line == "":
		p.closeWorkout()
	case line == columnHeader:
	case workoutLine.MatchString(line):
		return p.startWorkout(workoutLine.FindStringSubmatch(line))
	case exerciseLine.MatchString(line):
		return p.startExercise(line, exerciseLine.FindStringSubmatch(line))
	case setLine.MatchString(line):
		return p.addSet(line, setLine.FindStringSubmatch(line))
	}
	return nil
}

func (p *parser) startWorkout(m []string) error {
	p.closeWorkout()
	started, err := parseStartedAt(m[2], p.loc)
	if err != nil {
		return err
	}
	p.workout = &Workout{Title: m[1], StartedAt: started, Length: m[3]}
	return nil
}

func (p *parser) startExercise(line string, m []string) error {
	if p.workout == nil {
		return fmt.Errorf("exercise outside a workout: %q", line)
	}
	p.closeExercise()
	pos, _ := strconv.Atoi(m[1])
	target, _ := strconv.Atoi(m[4])
	p.exercise = &Exercise{
		Position:   pos,
		Name:       strings.TrimSpace(m[2]),
		Equipment:  strings.TrimSpace(m[3]),
		TargetReps: target,
		Sets:       parseWarmups(m[6]),
	}
	return nil
}

func (p *parser) addSet(line string, m []string) error {
	if p.exercise == nil {
		return fmt.Errorf("set outside an exercise: %q", line)
	}
	pos, _ := strconv.Atoi(m[1])
	weight, plus := parseWeight(m[2])
	reps, _ := strconv.Atoi(m[3])
	p.exercise.Sets = append(p.exercise.Sets, Set{
		Position:       pos,
		WeightKg:       weight,
		BodyweightPlus: plus,
		Reps:           reps,
		RIR:            parseDecimal(m[4]),
	})
	return nil
}

func (p *parser) closeExercise() {
	if p.exercise != nil && p.workout != nil {
		p.workout.Exercises = append(p.workout.Exercises, *p.exercise)
	}
	p.exercise = nil
}

func (p *parser) closeWorkout() {
	p.closeExercise()
	if p.workout != nil {
		p.workouts = append(p.workouts, *p.workout)
	}
	p.workout = nil
}

// parseStartedAt reads "2026-02-19 4:54" or "2026-02-19 16:54" in loc.
func parseStartedAt(s string, loc *time.Location) (time.Time, error) {
	for _, layout := range []string{"2006-01-02 15:04", "2006-01-02 3:04"} {
		if t, err := time.ParseInLocation(layout, s, loc); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("cannot parse workout date %q", s)
}

// parseWarmups reads the "<br>"-separated warmup field of an exercise header.
func parseWarmups(field string) []Set {
	if field == "" {
		return nil
	}
	var sets []Set
	for _, part := range strings.Split(field, "<br>") {
		m := warmupField.FindStringSubmatch(part)
		if m == nil {
			continue
		}
		pos, _ := strconv.Atoi(m[1])
		weight, plus := parseWeight(m[2])
		reps, _ := strconv.Atoi(m[3])
		sets = append(sets, Set{Position: pos, WeightKg: weight, BodyweightPlus: plus, Reps: reps, Warmup: true})
	}
	return sets
}

// parseWeight reads "102,5" as 102.5 and "+35" as bodyweight plus 35.
func parseWeight(s string) (float64, bool) {
	s = strings.TrimSpace(s)
	if rest, ok := strings.CutPrefix(s, "+"); ok {
		return parseDecimal(rest), true
	}
	return parseDecimal(s), false
}

// parseDecimal accepts a comma decimal separator. Garbage reads as 0.
func parseDecimal(s string) float64 {
	f, _ := strconv.ParseFloat(strings.ReplaceAll(strings.TrimSpace(s), ",", "."), 64)
	return f
}

// parseLength reads the "1:02 hr" or "45 min" workout length.
func parseLength(s string) (time.Duration, bool) {
	m := lengthField.FindStringSubmatch(strings.TrimSpace(s))
	switch {
	case m == nil:
		return 0, false
	case m[3] != "":
		mins, _ := strconv.Atoi(m[3])
		return time.Duration(mins) * time.Minute, true
	}
	hours, _ := strconv.Atoi(m[1])
	mins, _ := strconv.Atoi(m[2])
	return time.Duration(hours)*time.Hour + time.Duration(mins)*time.Minute, true
}
