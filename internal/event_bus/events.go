package event_bus

import "time"

type CalendarEventChangeKind string

const (
	CalendarEventCreated CalendarEventChangeKind = "created"
	CalendarEventUpdated CalendarEventChangeKind = "updated"
	CalendarEventDeleted CalendarEventChangeKind = "deleted"
)

// CalendarEventChanged is published after a calendar event is stored, modified or removed.
type CalendarEventChanged struct {
	Kind   CalendarEventChangeKind
	UserId int
	UID    string
	// Dates are the calendar days whose layout changed: the event date and,
	// for an update that moved the event, its previous date.
	Dates []time.Time
	// Recurring is set when the event repeats, so any week may be affected.
	Recurring bool
}

// NowTick is published once a minute by the now line ticker.
type NowTick struct {
	At time.Time
}
