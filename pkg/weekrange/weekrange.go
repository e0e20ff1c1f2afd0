package weekrange

import (
	"fmt"
	"time"
)

const dateLayout = "2006-01-02"

// Window is the Monday to Sunday span shown by the week view.
type Window struct {
	Start time.Time // Monday 00:00
	End   time.Time // Sunday 00:00
	Week  WeekNumber
	// Year is the calendar year used for labelling, taken from End.
	Year int
}

// Date builds a midnight time from a 1-based month.
func Date(year, month, day int, loc *time.Location) time.Time {
	if loc == nil {
		loc = time.Local
	}
	return time.Date(year, time.Month(month), day, 0, 0, 0, 0, loc)
}

// ParseDate parses an ISO "YYYY-MM-DD" date at midnight in loc.
func ParseDate(s string, loc *time.Location) (time.Time, error) {
	if loc == nil {
		loc = time.Local
	}
	t, err := time.ParseInLocation(dateLayout, s, loc)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date %q: %w", s, err)
	}
	return t, nil
}

// FormatDate is the inverse of ParseDate.
func FormatDate(t time.Time) string {
	return t.Format(dateLayout)
}

// StartOfDay returns midnight of t in t's location.
func StartOfDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}

// WeekStart returns the Monday at or before t. Sunday belongs to the week that
// started six days earlier.
func WeekStart(t time.Time) time.Time {
	day := StartOfDay(t)
	offset := int(day.Weekday()) - 1
	if day.Weekday() == time.Sunday {
		offset = 6
	}
	return day.AddDate(0, 0, -offset)
}

// WeekEnd returns the Sunday that closes the week of t.
func WeekEnd(t time.Time) time.Time {
	return WeekStart(t).AddDate(0, 0, 6)
}

// Range bundles the week boundaries of t with its ISO week number.
func Range(t time.Time) Window {
	start := WeekStart(t)
	end := start.AddDate(0, 0, 6)
	return Window{
		Start: start,
		End:   end,
		Week:  WeekNumberFromDate(t),
		Year:  end.Year(),
	}
}

// Days expands the week of t into its seven calendar days.
func Days(t time.Time) [7]time.Time {
	var days [7]time.Time
	day := WeekStart(t)
	for i := range days {
		days[i] = day
		day = day.AddDate(0, 0, 1)
	}
	return days
}

func NextWeek(t time.Time) time.Time {
	return WeekStart(t).AddDate(0, 0, 7)
}

func PreviousWeek(t time.Time) time.Time {
	return WeekStart(t).AddDate(0, 0, -7)
}

// SameDay compares calendar dates only, ignoring time of day and location.
func SameDay(a, b time.Time) bool {
	ay, am, ad := a.Date()
	by, bm, bd := b.Date()
	return ay == by && am == bm && ad == bd
}

// Days returns the seven days of the window.
func (w Window) Days() [7]time.Time {
	return Days(w.Start)
}

// Contains reports whether the calendar date of t falls inside the window.
func (w Window) Contains(t time.Time) bool {
	d := time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, w.Start.Location())
	return !d.Before(w.Start) && !d.After(w.End)
}

// Label formats the window for headers, e.g. "Dec 30 – Jan 5, 2025" or "Jan 6 – 12, 2025".
func (w Window) Label() string {
	if w.Start.Month() == w.End.Month() {
		return fmt.Sprintf("%s – %d, %d", w.Start.Format("Jan 2"), w.End.Day(), w.Year)
	}
	return fmt.Sprintf("%s – %s, %d", w.Start.Format("Jan 2"), w.End.Format("Jan 2"), w.Year)
}
