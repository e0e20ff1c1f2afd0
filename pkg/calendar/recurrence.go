package calendar

import (
	"sort"
	"time"

	log "github.com/sirupsen/logrus"
)

const defaultMaxOccurrences = 1000

// expand turns events into occurrences on the days from..to, inclusive.
// A recurring event whose rule no longer parses is treated as a single event.
func expand(events []Event, from, to time.Time, maxPerEvent int) []Occurrence {
	if maxPerEvent <= 0 {
		maxPerEvent = defaultMaxOccurrences
	}
	from, to = civilDate(from), civilDate(to)

	occurrences := make([]Occurrence, 0, len(events))
	for _, e := range events {
		if e.IsRecurring() {
			if days, ok := recurrenceDays(e, from, to, maxPerEvent); ok {
				for _, day := range days {
					occurrences = append(occurrences, Occurrence{Event: e, Day: civilDate(day)})
				}
				continue
			}
		}
		if day := civilDate(e.Date); !day.Before(from) && !day.After(to) {
			occurrences = append(occurrences, Occurrence{Event: e, Day: day})
		}
	}

	sortOccurrences(occurrences)
	return occurrences
}

// recurrenceDays walks the series in order and stops at the end of the window
// or after maxPerEvent days, so a dense rule never materialises past the cap.
func recurrenceDays(e Event, from, to time.Time, maxPerEvent int) ([]time.Time, bool) {
	r, err := parseRule(e.Recurrence)
	if err != nil {
		log.Errorf("failed to parse recurrence %q of event %s: %v", e.Recurrence, e.UID.UUID, err)
		return nil, false
	}
	r.DTStart(civilDate(e.Date))

	var days []time.Time
	next := r.Iterator()
	for instance, ok := next(); ok; instance, ok = next() {
		day := civilDate(instance)
		if day.After(to) {
			break
		}
		if day.Before(from) || (len(days) > 0 && days[len(days)-1].Equal(day)) {
			continue
		}
		if len(days) == maxPerEvent {
			log.Warnf("event %s has more than %d occurrences between %s and %s, keeping the first %d",
				e.UID.UUID, maxPerEvent, from.Format(time.DateOnly), to.Format(time.DateOnly), maxPerEvent)
			break
		}
		days = append(days, day)
	}
	return days, true
}

// sortOccurrences orders by day, then all-day first, then start time.
func sortOccurrences(occurrences []Occurrence) {
	sort.SliceStable(occurrences, func(i, j int) bool {
		a, b := occurrences[i], occurrences[j]
		if !a.Day.Equal(b.Day) {
			return a.Day.Before(b.Day)
		}
		if a.Event.AllDay != b.Event.AllDay {
			return a.Event.AllDay
		}
		return a.Event.StartTime < b.Event.StartTime
	})
}
