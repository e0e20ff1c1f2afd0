package clock

import "time"

type Clock interface {
	Now() time.Time
}

type System struct{}

func (System) Now() time.Time {
	return time.Now()
}

// Fixed always reports the same instant. It is meant for tests.
type Fixed struct {
	At time.Time
}

func (f *Fixed) Now() time.Time {
	return f.At
}

func (f *Fixed) Set(now time.Time) {
	f.At = now
}

// Advance moves the clock forward by d.
func (f *Fixed) Advance(d time.Duration) {
	f.At = f.At.Add(d)
}

// NowIn returns the clock's time in the named IANA zone, falling back to the
// server's local zone when the name is empty or unknown.
func NowIn(c Clock, timezone string) time.Time {
	return c.Now().In(Location(timezone))
}

func Location(timezone string) *time.Location {
	if timezone == "" {
		return time.Local
	}
	loc, err := time.LoadLocation(timezone)
	if err != nil {
		return time.Local
	}
	return loc
}
