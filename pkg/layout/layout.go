package layout

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/klokku/weekcal/pkg/weekrange"
)

var ErrInvalidClock = errors.New("invalid wall-clock time")

// Metrics holds the constants of the 24-hour day grid.
type Metrics struct {
	CompactHourHeight float64
	NormalHourHeight  float64
	// CompactBreakpoint is the widest viewport, in logical pixels, that still uses the compact tier.
	CompactBreakpoint int
	MinEventHeight    float64
	// DefaultDuration is the assumed length, in minutes, of an event without an end time.
	DefaultDuration int
}

// Position is the vertical placement of an event on the day grid, in pixels.
type Position struct {
	Top    float64 `json:"top"`
	Height float64 `json:"height"`
}

func DefaultMetrics() Metrics {
	return Metrics{
		CompactHourHeight: 50,
		NormalHourHeight:  60,
		CompactBreakpoint: 480,
		MinEventHeight:    20,
		DefaultDuration:   60,
	}
}

// HourHeight picks the pixels-per-hour tier for a viewport width. The width is
// sampled by the caller on every render.
func (m Metrics) HourHeight(viewportWidth int) float64 {
	if viewportWidth <= m.CompactBreakpoint {
		return m.CompactHourHeight
	}
	return m.NormalHourHeight
}

// EventPosition places an event given its "HH:MM" start and end. An empty end
// means DefaultDuration minutes; an empty start yields a one hour block at the
// top of the grid.
func (m Metrics) EventPosition(start, end string, hourHeight float64) Position {
	if strings.TrimSpace(start) == "" {
		return Position{Top: 0, Height: hourHeight}
	}
	startMinutes := ToMinutes(start)
	endMinutes := startMinutes + m.DefaultDuration
	if strings.TrimSpace(end) != "" {
		endMinutes = ToMinutes(end)
	}
	height := float64(endMinutes-startMinutes) / 60 * hourHeight
	return Position{
		Top:    float64(startMinutes) / 60 * hourHeight,
		Height: max(height, m.MinEventHeight),
	}
}

// CurrentTimePosition is the offset of the "now" line on the grid.
func CurrentTimePosition(now time.Time, hourHeight float64) float64 {
	return float64(ToMinutes(FormatClock(now))) / 60 * hourHeight
}

// ShowNowLine reports whether the now line belongs on the column of day.
func ShowNowLine(day, now time.Time) bool {
	return weekrange.SameDay(day, now)
}

// ToMinutes converts "HH:MM" to minutes since midnight. Anything that does not
// parse, including out of range values such as "25:99", counts as midnight so
// layout always has a renderable position.
func ToMinutes(s string) int {
	minutes, err := ParseClock(s)
	if err != nil {
		return 0
	}
	return minutes
}

// ParseClock is the strict form of ToMinutes.
func ParseClock(s string) (int, error) {
	hh, mm, ok := strings.Cut(strings.TrimSpace(s), ":")
	if !ok || len(hh) == 0 || len(hh) > 2 || len(mm) != 2 || !digits(hh) || !digits(mm) {
		return 0, fmt.Errorf("%w: %q", ErrInvalidClock, s)
	}
	hours, err := strconv.Atoi(hh)
	if err != nil || hours < 0 || hours > 23 {
		return 0, fmt.Errorf("%w: %q", ErrInvalidClock, s)
	}
	minutes, err := strconv.Atoi(mm)
	if err != nil || minutes < 0 || minutes > 59 {
		return 0, fmt.Errorf("%w: %q", ErrInvalidClock, s)
	}
	return hours*60 + minutes, nil
}

func digits(s string) bool {
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

func FormatClock(t time.Time) string {
	return t.Format("15:04")
}

// FormatMinutes renders minutes since midnight as zero padded "HH:MM".
func FormatMinutes(minutes int) string {
	return fmt.Sprintf("%02d:%02d", minutes/60, minutes%60)
}
