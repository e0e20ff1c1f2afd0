package weekview

import (
	"context"
	"fmt"
	"strings"
	"time"

	ics "github.com/arran4/golang-ical"
	"github.com/klokku/weekcal/pkg/calendar"
	"github.com/klokku/weekcal/pkg/layout"
	"github.com/klokku/weekcal/pkg/weekrange"
)

const (
	productId = "-//weekcal//Week Export//EN"
	uidDomain = "weekcal"
	// floatingLayout has no zone designator, so clients show the wall-clock time as stored.
	floatingLayout = "20060102T150405"
)

// ExportWeek renders every occurrence of the week containing date as an
// iCalendar document. Each occurrence of a recurring event becomes its own VEVENT.
func (s *Service) ExportWeek(ctx context.Context, date time.Time) ([]byte, error) {
	window := weekrange.Range(civilDay(date))
	occurrences, err := s.calendar.GetEvents(ctx, window.Start, window.End)
	if err != nil {
		return nil, fmt.Errorf("failed to get events of week %s: %w", window.Week, err)
	}

	cal := ics.NewCalendar()
	cal.SetProductId(productId)
	cal.SetMethod(ics.MethodPublish)
	cal.SetXWRCalName(fmt.Sprintf("Week %s", window.Label()))

	stamp := s.clock.Now()
	for _, o := range occurrences {
		s.addOccurrence(cal, o, stamp)
	}
	return []byte(cal.Serialize()), nil
}

func (s *Service) addOccurrence(cal *ics.Calendar, o calendar.Occurrence, stamp time.Time) {
	e := o.Event
	vevent := cal.AddEvent(occurrenceUid(o))
	vevent.SetDtStampTime(stamp)
	vevent.SetSummary(e.Title)
	if e.Description != "" {
		vevent.SetDescription(e.Description)
	}
	if e.Location != "" {
		vevent.SetLocation(e.Location)
	}
	if e.Color != "" {
		vevent.SetColor(e.Color)
	}

	if e.AllDay {
		vevent.SetAllDayStartAt(o.Day)
		vevent.SetAllDayEndAt(o.Day.AddDate(0, 0, 1))
		return
	}
	// A timed event without a start sits in the first hour, as on the grid.
	start, end := o.Day, o.Day.Add(time.Hour)
	if e.StartTime != "" {
		start = o.Day.Add(time.Duration(layout.ToMinutes(e.StartTime)) * time.Minute)
		end = start.Add(time.Duration(s.metrics.DefaultDuration) * time.Minute)
		if e.EndTime != "" {
			end = o.Day.Add(time.Duration(layout.ToMinutes(e.EndTime)) * time.Minute)
		}
	}
	vevent.SetProperty(ics.ComponentPropertyDtStart, start.Format(floatingLayout))
	vevent.SetProperty(ics.ComponentPropertyDtEnd, end.Format(floatingLayout))
}

// occurrenceUid keeps UIDs unique within the document when a series repeats in the week.
func occurrenceUid(o calendar.Occurrence) string {
	uid := o.Event.UID.UUID.String()
	if o.Event.IsRecurring() {
		uid += "-" + strings.ReplaceAll(weekrange.FormatDate(o.Day), "-", "")
	}
	return uid + "@" + uidDomain
}
