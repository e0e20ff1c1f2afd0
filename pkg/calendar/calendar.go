package calendar

import (
	"context"
	"time"
)

// Calendar is the read side used by views that lay out occurrences.
type Calendar interface {
	GetEvents(ctx context.Context, from time.Time, to time.Time) ([]Occurrence, error)
}
