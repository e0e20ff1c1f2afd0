package weekrange

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

type WeekNumber struct {
	Year int
	Week int
}

// WeekNumberFromDate returns the ISO-8601 week of t: the week is assigned to
// the year of its Thursday, so early January days can belong to the previous
// year's last week and late December days to week 1 of the next year.
func WeekNumberFromDate(t time.Time) WeekNumber {
	year, week := StartOfDay(t).ISOWeek()
	return WeekNumber{Year: year, Week: week}
}

// ParseWeekNumber converts ISO 8601 week format e.g. "2025-W03" to WeekNumber.
func ParseWeekNumber(s string) (WeekNumber, error) {
	yearPart, weekPart, ok := strings.Cut(s, "-W")
	if !ok {
		return WeekNumber{}, fmt.Errorf("invalid ISO week format: %s", s)
	}
	year, err := strconv.Atoi(yearPart)
	if err != nil {
		return WeekNumber{}, fmt.Errorf("invalid year: %w", err)
	}
	week, err := strconv.Atoi(weekPart)
	if err != nil {
		return WeekNumber{}, fmt.Errorf("invalid week: %w", err)
	}
	if week < 1 || week > 53 {
		return WeekNumber{}, fmt.Errorf("week out of range: %d", week)
	}
	return WeekNumber{Year: year, Week: week}, nil
}

// Monday returns the first day of the week in loc. January 4th always lies in week 1.
func (w WeekNumber) Monday(loc *time.Location) time.Time {
	jan4 := Date(w.Year, 1, 4, loc)
	return WeekStart(jan4).AddDate(0, 0, (w.Week-1)*7)
}

func (w WeekNumber) Equal(other WeekNumber) bool {
	return w.Year == other.Year && w.Week == other.Week
}

// Before reports whether w refers to a week that occurs before other.
func (w WeekNumber) Before(other WeekNumber) bool {
	if w.Year != other.Year {
		return w.Year < other.Year
	}
	return w.Week < other.Week
}

// After reports whether w refers to a week that occurs after other.
func (w WeekNumber) After(other WeekNumber) bool {
	return other.Before(w)
}

func (w WeekNumber) String() string {
	return fmt.Sprintf("%04d-W%02d", w.Year, w.Week)
}
