package calendar

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/klokku/weekcal/pkg/layout"
	"github.com/teambition/rrule-go"
)

var (
	ErrEventNotFound = errors.New("event not found")
	ErrInvalidEvent  = errors.New("invalid event")
)

type Event struct {
	UID         uuid.NullUUID
	Title       string
	Description string
	Location    string
	Color       string
	// Date is the calendar day of the event (or of its first occurrence). Only
	// year, month and day are meaningful.
	Date time.Time
	// StartTime and EndTime are local "HH:MM" wall-clock strings. Either may be empty.
	StartTime string
	EndTime   string
	AllDay    bool
	// Recurrence is an RFC 5545 RRULE value such as "FREQ=WEEKLY;BYDAY=MO,WE".
	Recurrence string
}

// Occurrence is a single instance of an event on a concrete day.
type Occurrence struct {
	Event Event
	Day   time.Time
}

// normalize validates e and returns it with canonical times and a UTC date.
func (e Event) normalize() (Event, error) {
	e.Title = strings.TrimSpace(e.Title)
	if e.Title == "" {
		return Event{}, fmt.Errorf("%w: title is required", ErrInvalidEvent)
	}
	if e.Date.IsZero() {
		return Event{}, fmt.Errorf("%w: date is required", ErrInvalidEvent)
	}
	e.Date = civilDate(e.Date)

	if e.AllDay {
		e.StartTime, e.EndTime = "", ""
	}
	if e.StartTime == "" && e.EndTime != "" {
		return Event{}, fmt.Errorf("%w: end time without start time", ErrInvalidEvent)
	}
	if e.StartTime != "" {
		start, err := layout.ParseClock(e.StartTime)
		if err != nil {
			return Event{}, fmt.Errorf("%w: start time: %w", ErrInvalidEvent, err)
		}
		e.StartTime = layout.FormatMinutes(start)
		if e.EndTime != "" {
			end, err := layout.ParseClock(e.EndTime)
			if err != nil {
				return Event{}, fmt.Errorf("%w: end time: %w", ErrInvalidEvent, err)
			}
			if end < start {
				return Event{}, fmt.Errorf("%w: end time %s is before start time %s", ErrInvalidEvent, e.EndTime, e.StartTime)
			}
			e.EndTime = layout.FormatMinutes(end)
		}
	}

	e.Recurrence = strings.TrimPrefix(strings.TrimSpace(e.Recurrence), "RRULE:")
	if e.Recurrence != "" {
		if _, err := parseRule(e.Recurrence); err != nil {
			return Event{}, fmt.Errorf("%w: recurrence: %w", ErrInvalidEvent, err)
		}
	}
	return e, nil
}

// parseRule parses an RRULE value. An event has one start time, so rules
// repeating more often than daily are rejected.
func parseRule(value string) (*rrule.RRule, error) {
	r, err := rrule.StrToRRule(value)
	if err != nil {
		return nil, err
	}
	if freq := r.OrigOptions.Freq; freq > rrule.DAILY {
		return nil, fmt.Errorf("frequency %s repeats more than once a day", freq)
	}
	return r, nil
}

func (e Event) IsRecurring() bool {
	return e.Recurrence != ""
}

// civilDate keeps the calendar day of t as midnight UTC so it survives the
// round trip through a DATE column regardless of the caller's zone.
func civilDate(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
