// Package schedule derives time-windowed views from a flat activity list.
//
// Every function is pure: it never mutates its input and never blocks. Calendar
// arithmetic happens in the location of the reference time passed in, so callers
// control what "local" means. Output order is always stable with respect to the
// input order when start times tie.
package schedule

import (
	"slices"
	"time"

	"familyplanner/internal/models"
	"familyplanner/internal/permissions"
)

// Display caps for compact lists
const (
	ListCap     = 3 // dashboard lists such as "Tomorrow"
	WeekCellCap = 4 // one day cell in the week grid
)

const (
	DaysPerWeek    = 7
	MonthGridCells = 6 * DaysPerWeek
)

// StartOfDay returns midnight of t's calendar day in t's location
func StartOfDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}

// AddDays moves a day start by n calendar days, staying at midnight across DST changes
func AddDays(day time.Time, n int) time.Time {
	y, m, d := day.Date()
	return time.Date(y, m, d+n, 0, 0, 0, 0, day.Location())
}

// DayBounds returns the inclusive [00:00:00.000, 23:59:59.999] window of day
func DayBounds(day time.Time) (time.Time, time.Time) {
	start := StartOfDay(day)
	// Measured back from the next midnight so 23- and 25-hour days stay correct.
	return start, AddDays(start, 1).Add(-time.Millisecond)
}

// SameDay reports whether a and b fall on the same calendar day in a's location
func SameDay(a, b time.Time) bool {
	b = b.In(a.Location())
	ay, am, ad := a.Date()
	by, bm, bd := b.Date()
	return ay == by && am == bm && ad == bd
}

// On returns the activities whose start time falls within day, bounds inclusive
func On(activities []models.Activity, day time.Time) []models.Activity {
	start, end := DayBounds(day)
	return between(activities, start, end)
}

// Tomorrow returns the activities starting in [tomorrow 00:00, the day after 00:00)
func Tomorrow(activities []models.Activity, now time.Time) []models.Activity {
	from := AddDays(StartOfDay(now), 1)
	to := AddDays(from, 1)
	var out []models.Activity
	for _, a := range activities {
		if !a.StartTime.Before(from) && a.StartTime.Before(to) {
			out = append(out, a)
		}
	}
	return out
}

// StrictlyAfter returns the activities starting after instant, earliest first
func StrictlyAfter(activities []models.Activity, instant time.Time) []models.Activity {
	var out []models.Activity
	for _, a := range activities {
		if a.StartTime.After(instant) {
			out = append(out, a)
		}
	}
	SortByStart(out)
	return out
}

// SortByStart orders activities by start time in place, keeping ties in input order
func SortByStart(activities []models.Activity) {
	slices.SortStableFunc(activities, func(a, b models.Activity) int {
		return a.StartTime.Compare(b.StartTime)
	})
}

func between(activities []models.Activity, start, end time.Time) []models.Activity {
	var out []models.Activity
	for _, a := range activities {
		if !a.StartTime.Before(start) && !a.StartTime.After(end) {
			out = append(out, a)
		}
	}
	return out
}

// WeekStart returns the Sunday on or before date, at midnight
func WeekStart(date time.Time) time.Time {
	day := StartOfDay(date)
	return AddDays(day, -int(day.Weekday()))
}

// WeekOf returns the seven days of date's week, Sunday first
func WeekOf(date time.Time) []time.Time {
	start := WeekStart(date)
	days := make([]time.Time, DaysPerWeek)
	for i := range days {
		days[i] = AddDays(start, i)
	}
	return days
}

// Cell is one day of a calendar grid
type Cell struct {
	Date    time.Time
	InMonth bool
}

// MonthGrid returns 42 cells (six full weeks) starting on the Sunday on or
// before the first of date's month
func MonthGrid(date time.Time) []Cell {
	first := time.Date(date.Year(), date.Month(), 1, 0, 0, 0, 0, date.Location())
	start := WeekStart(first)
	cells := make([]Cell, MonthGridCells)
	for i := range cells {
		day := AddDays(start, i)
		cells[i] = Cell{
			Date:    day,
			InMonth: day.Month() == first.Month() && day.Year() == first.Year(),
		}
	}
	return cells
}

// WeekSchedule returns date's week with each day's activities attached
func WeekSchedule(activities []models.Activity, date time.Time) []models.DaySchedule {
	days := WeekOf(date)
	out := make([]models.DaySchedule, len(days))
	for i, day := range days {
		out[i] = models.DaySchedule{Date: day, Activities: On(activities, day)}
	}
	return out
}

// MonthCell is a month grid cell with its activities attached
type MonthCell struct {
	Cell
	Activities []models.Activity
}

// MonthSchedule returns date's 42-cell month grid with activities attached
func MonthSchedule(activities []models.Activity, date time.Time) []MonthCell {
	grid := MonthGrid(date)
	out := make([]MonthCell, len(grid))
	for i, cell := range grid {
		out[i] = MonthCell{Cell: cell, Activities: On(activities, cell.Date)}
	}
	return out
}

// VisibleTo applies the visibility rule for identity. Viewers with
// ViewAllActivities see everything; others only what is assigned to them.
func VisibleTo(identity *models.Member, perms permissions.Set, activities []models.Activity) []models.Activity {
	if identity == nil {
		return []models.Activity{}
	}
	if perms.ViewAllActivities {
		return activities
	}
	return ForMember(activities, identity.ID)
}

// ForMember returns the activities a member owns or benefits from
func ForMember(activities []models.Activity, memberID string) []models.Activity {
	out := []models.Activity{}
	for _, a := range activities {
		if a.IsAssignedTo(memberID) {
			out = append(out, a)
		}
	}
	return out
}

// Capped is a display-limited list plus how many items were left out
type Capped struct {
	Shown    []models.Activity
	Overflow int
}

// Cap keeps at most limit activities and counts the remainder for a "+N more" badge
func Cap(activities []models.Activity, limit int) Capped {
	if limit < 0 {
		limit = 0
	}
	if len(activities) <= limit {
		return Capped{Shown: activities}
	}
	return Capped{Shown: activities[:limit], Overflow: len(activities) - limit}
}
