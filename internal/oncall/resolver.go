// Package oncall resolves which doctor is on duty at a given point in time by
// scanning the duty roster for a matching day-of-week and time window.
package oncall

import (
	"strings"
	"time"

	"github.com/atendeai/clinicbot/internal/clinicdata"
)

const minutesPerDay = 24 * 60

// dayNames maps time.Weekday to the Portuguese day names used in the roster.
var dayNames = [...]string{
	time.Sunday:    "domingo",
	time.Monday:    "segunda",
	time.Tuesday:   "terça",
	time.Wednesday: "quarta",
	time.Thursday:  "quinta",
	time.Friday:    "sexta",
	time.Saturday:  "sábado",
}

// DayName returns the roster's Portuguese name for a weekday.
func DayName(d time.Weekday) string {
	return dayNames[d]
}

// Resolver answers "who is on duty at instant t" against a fixed roster.
type Resolver struct {
	roster []clinicdata.DutyRecord
}

// NewResolver creates a resolver over the given roster. The roster is scanned
// in order; when windows overlap the first match wins.
func NewResolver(roster []clinicdata.DutyRecord) *Resolver {
	return &Resolver{roster: roster}
}

// OnDuty returns the doctor on duty at the given instant, or ok=false when no
// roster window covers it. A window covers minute m when
// startHour*60 <= m < endHour*60, with an end hour of 0 meaning 24:00.
func (r *Resolver) OnDuty(at time.Time) (doctor string, ok bool) {
	day := DayName(at.Weekday())
	minute := at.Hour()*60 + at.Minute()

	for _, rec := range r.roster {
		if !strings.EqualFold(strings.TrimSpace(rec.Day), day) {
			continue
		}
		start := rec.StartHour * 60
		end := rec.EndHour * 60
		if rec.EndHour == 0 {
			// 0H closes the day rather than opening it.
			end = minutesPerDay
		}
		if minute >= start && minute < end {
			return rec.Doctor, true
		}
	}
	return "", false
}
