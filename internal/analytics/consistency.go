package analytics

import (
	"sort"
	"time"
)

const dayLayout = "2006-01-02"

// ConsistencyMap counts sessions per local calendar day (YYYY-MM-DD).
// Days without sessions are absent.
type ConsistencyMap map[string]int

// DayActivity is one entry of a ConsistencyMap.
type DayActivity struct {
	Date         string `json:"date"`
	SessionCount int    `json:"session_count"`
}

// DailyActivity groups dated sessions by their local start day.
func DailyActivity(sessions []ClassifiedSession, loc *time.Location) ConsistencyMap {
	if loc == nil {
		loc = time.Local
	}
	m := ConsistencyMap{}
	for _, s := range sessions {
		if !s.Dated() {
			continue
		}
		m[s.StartedAt.In(loc).Format(dayLayout)]++
	}
	return m
}

// Days returns the entries in ascending date order.
func (m ConsistencyMap) Days() []DayActivity {
	days := make([]DayActivity, 0, len(m))
	for d, n := range m {
		days = append(days, DayActivity{Date: d, SessionCount: n})
	}
	sort.Slice(days, func(i, j int) bool { return days[i].Date < days[j].Date })
	return days
}

// ActiveDays is the number of days with at least one session.
func (m ConsistencyMap) ActiveDays() int {
	return len(m)
}
