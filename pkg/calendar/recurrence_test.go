package calendar

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/klokku/weekcal/pkg/weekrange"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func day(y, m, d int) time.Time {
	return weekrange.Date(y, m, d, time.UTC)
}

func days(occurrences []Occurrence) []string {
	result := make([]string, 0, len(occurrences))
	for _, o := range occurrences {
		result = append(result, weekrange.FormatDate(o.Day))
	}
	return result
}

func TestExpand_SingleEvents(t *testing.T) {
	events := []Event{
		{Title: "before", Date: day(2025, 1, 5)},
		{Title: "first day", Date: day(2025, 1, 6)},
		{Title: "last day", Date: day(2025, 1, 12)},
		{Title: "after", Date: day(2025, 1, 13)},
	}

	occurrences := expand(events, day(2025, 1, 6), day(2025, 1, 12), 0)

	require.Len(t, occurrences, 2)
	assert.Equal(t, "first day", occurrences[0].Event.Title)
	assert.Equal(t, "last day", occurrences[1].Event.Title)
}

func TestExpand_RecurringEvents(t *testing.T) {
	tests := []struct {
		name     string
		event    Event
		from, to time.Time
		wantDays []string
	}{
		{
			name:     "weekly on two weekdays",
			event:    Event{Title: "gym", Date: day(2025, 1, 6), Recurrence: "FREQ=WEEKLY;BYDAY=MO,WE"},
			from:     day(2025, 1, 13),
			to:       day(2025, 1, 19),
			wantDays: []string{"2025-01-13", "2025-01-15"},
		},
		{
			name:     "count limits the series",
			event:    Event{Title: "course", Date: day(2025, 1, 1), Recurrence: "FREQ=DAILY;COUNT=3"},
			from:     day(2024, 12, 30),
			to:       day(2025, 1, 5),
			wantDays: []string{"2025-01-01", "2025-01-02", "2025-01-03"},
		},
		{
			name:     "until is inclusive",
			event:    Event{Title: "sprint", Date: day(2025, 1, 6), Recurrence: "FREQ=DAILY;UNTIL=20250108T000000Z"},
			from:     day(2025, 1, 6),
			to:       day(2025, 1, 12),
			wantDays: []string{"2025-01-06", "2025-01-07", "2025-01-08"},
		},
		{
			name:     "series starting after the range",
			event:    Event{Title: "later", Date: day(2025, 2, 1), Recurrence: "FREQ=DAILY"},
			from:     day(2025, 1, 6),
			to:       day(2025, 1, 12),
			wantDays: []string{},
		},
		{
			name:     "monthly across the year boundary",
			event:    Event{Title: "rent", Date: day(2024, 11, 30), Recurrence: "FREQ=MONTHLY;BYMONTHDAY=-1"},
			from:     day(2024, 12, 30),
			to:       day(2025, 1, 5),
			wantDays: []string{"2024-12-31"},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			occurrences := expand([]Event{tt.event}, tt.from, tt.to, 0)

			assert.Equal(t, tt.wantDays, days(occurrences))
			for _, o := range occurrences {
				assert.Equal(t, tt.event.Title, o.Event.Title)
			}
		})
	}
}

func TestExpand_CapsOccurrencesPerEvent(t *testing.T) {
	events := []Event{{Title: "daily", Date: day(2025, 1, 1), Recurrence: "FREQ=DAILY"}}

	occurrences := expand(events, day(2025, 1, 1), day(2025, 1, 31), 3)

	assert.Equal(t, []string{"2025-01-01", "2025-01-02", "2025-01-03"}, days(occurrences))
}

func TestExpand_StopsAtCapForDenseRule(t *testing.T) {
	events := []Event{{Title: "vitamins", Date: day(2000, 1, 1), Recurrence: "FREQ=DAILY"}}

	occurrences := expand(events, day(2025, 1, 1), day(2125, 1, 1), 5)

	assert.Equal(t, []string{"2025-01-01", "2025-01-02", "2025-01-03", "2025-01-04", "2025-01-05"}, days(occurrences))
}

func TestExpand_OneOccurrencePerDay(t *testing.T) {
	events := []Event{{Title: "meds", Date: day(2025, 1, 6), StartTime: "08:00", Recurrence: "FREQ=DAILY;BYHOUR=8,14,20"}}

	occurrences := expand(events, day(2025, 1, 6), day(2025, 1, 7), 0)

	assert.Equal(t, []string{"2025-01-06", "2025-01-07"}, days(occurrences))
}

func TestExpand_StoredSubDailyRuleFallsBackToSingleEvent(t *testing.T) {
	events := []Event{{Title: "ping", Date: day(2025, 1, 6), StartTime: "09:00", Recurrence: "FREQ=HOURLY"}}

	occurrences := expand(events, day(2025, 1, 6), day(2025, 1, 7), 0)

	assert.Equal(t, []string{"2025-01-06"}, days(occurrences))
}

func TestExpand_UnparsableRuleFallsBackToSingleEvent(t *testing.T) {
	uid := uuid.New()
	events := []Event{{UID: uuid.NullUUID{UUID: uid, Valid: true}, Title: "broken", Date: day(2025, 1, 7), Recurrence: "FREQ=SOMETIMES"}}

	occurrences := expand(events, day(2025, 1, 6), day(2025, 1, 12), 0)

	require.Len(t, occurrences, 1)
	assert.Equal(t, "2025-01-07", weekrange.FormatDate(occurrences[0].Day))
	assert.Equal(t, uid, occurrences[0].Event.UID.UUID)
}

func TestExpand_SortsAllDayFirstThenByStartTime(t *testing.T) {
	events := []Event{
		{Title: "lunch", Date: day(2025, 1, 7), StartTime: "12:00", EndTime: "13:00"},
		{Title: "standup", Date: day(2025, 1, 7), StartTime: "09:15", EndTime: "09:30"},
		{Title: "holiday", Date: day(2025, 1, 7), AllDay: true},
		{Title: "monday", Date: day(2025, 1, 6), StartTime: "18:00"},
	}

	occurrences := expand(events, day(2025, 1, 6), day(2025, 1, 12), 0)

	titles := make([]string, 0, len(occurrences))
	for _, o := range occurrences {
		titles = append(titles, o.Event.Title)
	}
	assert.Equal(t, []string{"monday", "holiday", "standup", "lunch"}, titles)
}

func TestNormalize(t *testing.T) {
	warsaw, _ := time.LoadLocation("Europe/Warsaw")

	t.Run("canonicalises times and date", func(t *testing.T) {
		e, err := Event{Title: " Standup ", Date: time.Date(2025, 1, 7, 23, 30, 0, 0, warsaw), StartTime: "9:05", EndTime: "09:30"}.normalize()

		require.NoError(t, err)
		assert.Equal(t, "Standup", e.Title)
		assert.Equal(t, "09:05", e.StartTime)
		assert.Equal(t, "09:30", e.EndTime)
		assert.True(t, day(2025, 1, 7).Equal(e.Date))
	})

	t.Run("all day clears times", func(t *testing.T) {
		e, err := Event{Title: "Holiday", Date: day(2025, 1, 1), AllDay: true, StartTime: "10:00"}.normalize()

		require.NoError(t, err)
		assert.Empty(t, e.StartTime)
		assert.Empty(t, e.EndTime)
	})

	t.Run("strips the RRULE prefix", func(t *testing.T) {
		e, err := Event{Title: "Gym", Date: day(2025, 1, 6), Recurrence: "RRULE:FREQ=WEEKLY"}.normalize()

		require.NoError(t, err)
		assert.Equal(t, "FREQ=WEEKLY", e.Recurrence)
		assert.True(t, e.IsRecurring())
	})

	invalid := []struct {
		name  string
		event Event
	}{
		{"missing title", Event{Date: day(2025, 1, 1)}},
		{"missing date", Event{Title: "x"}},
		{"end without start", Event{Title: "x", Date: day(2025, 1, 1), EndTime: "10:00"}},
		{"out of range start", Event{Title: "x", Date: day(2025, 1, 1), StartTime: "25:99"}},
		{"end before start", Event{Title: "x", Date: day(2025, 1, 1), StartTime: "10:00", EndTime: "09:00"}},
		{"bad rule", Event{Title: "x", Date: day(2025, 1, 1), Recurrence: "FREQ=SOMETIMES"}},
		{"hourly rule", Event{Title: "x", Date: day(2025, 1, 1), StartTime: "09:00", Recurrence: "FREQ=HOURLY"}},
		{"minutely rule", Event{Title: "x", Date: day(2025, 1, 1), Recurrence: "FREQ=MINUTELY;INTERVAL=30"}},
	}
	for _, tt := range invalid {
		t.Run(tt.name, func(t *testing.T) {
			_, err := tt.event.normalize()
			assert.ErrorIs(t, err, ErrInvalidEvent)
		})
	}
}
