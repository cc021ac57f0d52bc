package analytics

import (
	"sort"
	"time"
)

// WeeklyVolumeBucket is the summed WorkScore of one local calendar week.
type WeeklyVolumeBucket struct {
	WeekStart      time.Time `json:"week_start"`
	Label          string    `json:"label"`
	TotalWorkScore float64   `json:"total_work_score"`
	Sessions       int       `json:"sessions"`
}

// WeekStart returns local midnight of the Monday on or before t.
func WeekStart(t time.Time, loc *time.Location) time.Time {
	if loc == nil {
		loc = time.Local
	}
	local := t.In(loc)
	offset := int(local.Weekday()) - 1
	if local.Weekday() == time.Sunday {
		offset = 6
	}
	// time.Date normalizes a day underflow into the previous month.
	return time.Date(local.Year(), local.Month(), local.Day()-offset, 0, 0, 0, 0, loc)
}

// WeeklyVolume buckets sessions by local week, oldest first, keeping the most
// recent weeks buckets (weeks <= 0 keeps all). Undated sessions are skipped.
func WeeklyVolume(sessions []ClassifiedSession, loc *time.Location, weeks int) []WeeklyVolumeBucket {
	byWeek := make(map[time.Time]*WeeklyVolumeBucket)
	for _, s := range sessions {
		if !s.Dated() {
			continue
		}
		start := WeekStart(s.StartedAt, loc)
		b, ok := byWeek[start]
		if !ok {
			b = &WeeklyVolumeBucket{WeekStart: start}
			byWeek[start] = b
		}
		b.Sessions++
		b.TotalWorkScore += s.WorkScore()
	}

	buckets := make([]WeeklyVolumeBucket, 0, len(byWeek))
	for _, b := range byWeek {
		buckets = append(buckets, *b)
	}
	sort.Slice(buckets, func(i, j int) bool {
		return buckets[i].WeekStart.Before(buckets[j].WeekStart)
	})
	if weeks > 0 && len(buckets) > weeks {
		buckets = buckets[len(buckets)-weeks:]
	}

	layout := "Jan 2"
	if len(buckets) > 0 && buckets[0].WeekStart.Year() != buckets[len(buckets)-1].WeekStart.Year() {
		layout = "Jan 2, 2006"
	}
	for i := range buckets {
		buckets[i].Label = buckets[i].WeekStart.Format(layout)
	}
	return buckets
}
