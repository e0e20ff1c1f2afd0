package weekview

import (
	"context"
	"fmt"
	"time"

	"github.com/klokku/weekcal/internal/clock"
	"github.com/klokku/weekcal/pkg/calendar"
	"github.com/klokku/weekcal/pkg/layout"
	"github.com/klokku/weekcal/pkg/user"
	"github.com/klokku/weekcal/pkg/weekrange"
)

// WeekView is a laid out Monday to Sunday week.
type WeekView struct {
	Window     weekrange.Window
	HourHeight float64
	Days       [7]Day
	// NowLine is the offset of the current-time line, set only when today is in the window.
	NowLine *float64
}

type Day struct {
	Date    time.Time
	IsToday bool
	AllDay  []calendar.Occurrence
	Timed   []TimedOccurrence
}

type TimedOccurrence struct {
	calendar.Occurrence
	Position layout.Position
}

type NowLine struct {
	Date time.Time
	Time string
	Top  float64
}

type Service struct {
	calendar calendar.Calendar
	metrics  layout.Metrics
	clock    clock.Clock
}

func NewService(cal calendar.Calendar, metrics layout.Metrics, clk clock.Clock) *Service {
	return &Service{calendar: cal, metrics: metrics, clock: clk}
}

// Today is the current civil date of the user, as midnight UTC.
func (s *Service) Today(ctx context.Context) time.Time {
	return civilDay(s.now(ctx))
}

// GetWeek lays out the week containing date for a viewport of the given width.
func (s *Service) GetWeek(ctx context.Context, date time.Time, viewportWidth int) (WeekView, error) {
	now := s.now(ctx)
	window := weekrange.Range(civilDay(date))
	hourHeight := s.metrics.HourHeight(viewportWidth)

	occurrences, err := s.calendar.GetEvents(ctx, window.Start, window.End)
	if err != nil {
		return WeekView{}, fmt.Errorf("failed to get events of week %s: %w", window.Week, err)
	}

	view := WeekView{Window: window, HourHeight: hourHeight}
	for i, d := range window.Days() {
		view.Days[i] = Day{
			Date:    d,
			IsToday: layout.ShowNowLine(d, now),
			AllDay:  []calendar.Occurrence{},
			Timed:   []TimedOccurrence{},
		}
	}
	for _, o := range occurrences {
		i := dayIndex(window, o.Day)
		if i < 0 {
			continue
		}
		if o.Event.AllDay {
			view.Days[i].AllDay = append(view.Days[i].AllDay, o)
			continue
		}
		view.Days[i].Timed = append(view.Days[i].Timed, TimedOccurrence{
			Occurrence: o,
			Position:   s.metrics.EventPosition(o.Event.StartTime, o.Event.EndTime, hourHeight),
		})
	}

	if window.Contains(civilDay(now)) {
		top := layout.CurrentTimePosition(now, hourHeight)
		view.NowLine = &top
	}
	return view, nil
}

// CurrentTime positions the current-time line for a viewport of the given width.
func (s *Service) CurrentTime(ctx context.Context, viewportWidth int) NowLine {
	now := s.now(ctx)
	return NowLine{
		Date: civilDay(now),
		Time: layout.FormatClock(now),
		Top:  layout.CurrentTimePosition(now, s.metrics.HourHeight(viewportWidth)),
	}
}

// now is the clock reading in the user's timezone, or the server's when no user is known.
func (s *Service) now(ctx context.Context) time.Time {
	timezone := ""
	if u, err := user.CurrentUser(ctx); err == nil {
		timezone = u.Settings.Timezone
	}
	return clock.NowIn(s.clock, timezone)
}

func dayIndex(window weekrange.Window, day time.Time) int {
	for i, d := range window.Days() {
		if weekrange.SameDay(d, day) {
			return i
		}
	}
	return -1
}

func civilDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return weekrange.Date(y, int(m), d, time.UTC)
}
