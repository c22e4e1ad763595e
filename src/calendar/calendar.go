// Package calendar provides business-day arithmetic against the Argentine
// market holiday table.
package calendar

import "time"

const dayFormat = "2006-01-02"

// Calendar answers business-day questions for a fixed holiday table.
// Years not present in the table are treated as having no holidays; that is a
// known limitation of the table, not an error condition.
type Calendar struct {
	holidays map[string]struct{}
}

// NewArgentina returns a calendar loaded with the Argentine national holiday
// table for 2024-2026.
func NewArgentina() *Calendar {
	return New(argentinaHolidays)
}

// New builds a calendar from a list of "YYYY-MM-DD" holiday dates.
func New(dates []string) *Calendar {
	holidays := make(map[string]struct{}, len(dates))
	for _, d := range dates {
		holidays[d] = struct{}{}
	}
	return &Calendar{holidays: holidays}
}

// IsBusinessDay reports whether the date falls on a settlement-eligible day:
// not a Saturday, not a Sunday, and not in the holiday table.
func (c *Calendar) IsBusinessDay(date time.Time) bool {
	switch date.Weekday() {
	case time.Saturday, time.Sunday:
		return false
	}
	_, holiday := c.holidays[date.Format(dayFormat)]
	return !holiday
}

// AddBusinessDays advances the date one calendar day at a time, counting a day
// only when it is a business day, until n business days have been counted.
// Time of day is preserved from the input.
func (c *Calendar) AddBusinessDays(start time.Time, n int) time.Time {
	date := start
	for counted := 0; counted < n; {
		date = date.AddDate(0, 0, 1)
		if c.IsBusinessDay(date) {
			counted++
		}
	}
	return date
}

// CalendarDaysBetween normalizes both dates to midnight and returns the whole
// day difference to - from. The result is negative when to precedes from.
func CalendarDaysBetween(from, to time.Time) int {
	fromMidnight := time.Date(from.Year(), from.Month(), from.Day(), 0, 0, 0, 0, from.Location())
	toMidnight := time.Date(to.Year(), to.Month(), to.Day(), 0, 0, 0, 0, to.Location())
	return int(toMidnight.Sub(fromMidnight).Hours() / 24)
}

// SettlementPlazoCI returns the settlement term of a CI operation expressed in
// calendar days: T+1 business day minus the CI date. A Friday yields 3, a
// Thursday 1.
func (c *Calendar) SettlementPlazoCI(date time.Time) int {
	return CalendarDaysBetween(date, c.AddBusinessDays(date, 1))
}

// Argentine national holidays, including bridge days ("feriados puente").
var argentinaHolidays = []string{
	// 2024
	"2024-01-01",
	"2024-02-12",
	"2024-02-13",
	"2024-03-24",
	"2024-03-28",
	"2024-03-29",
	"2024-04-01",
	"2024-04-02",
	"2024-05-01",
	"2024-05-25",
	"2024-06-17",
	"2024-06-20",
	"2024-06-21",
	"2024-07-09",
	"2024-08-17",
	"2024-10-11",
	"2024-10-12",
	"2024-11-18",
	"2024-12-08",
	"2024-12-25",
	// 2025
	"2025-01-01",
	"2025-03-03",
	"2025-03-04",
	"2025-03-24",
	"2025-04-02",
	"2025-04-17",
	"2025-04-18",
	"2025-05-01",
	"2025-05-02",
	"2025-05-25",
	"2025-06-16",
	"2025-06-20",
	"2025-07-09",
	"2025-08-15",
	"2025-10-12",
	"2025-11-21",
	"2025-11-24",
	"2025-12-08",
	"2025-12-25",
	// 2026
	"2026-01-01",
	"2026-02-16",
	"2026-02-17",
	"2026-03-24",
	"2026-04-02",
	"2026-04-03",
	"2026-05-01",
	"2026-05-25",
	"2026-06-17",
	"2026-06-20",
	"2026-07-09",
	"2026-08-17",
	"2026-10-12",
	"2026-11-20",
	"2026-12-08",
	"2026-12-25",
}
