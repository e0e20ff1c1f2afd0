package weekrange

import (
	"testing"
	"time"
)

func TestWeekNumberFromDate(t *testing.T) {
	tests := []struct {
		name string
		date time.Time
		want WeekNumber
	}{
		{"first of january on a wednesday", Date(2025, 1, 1, time.UTC), WeekNumber{Year: 2025, Week: 1}},
		{"late december belongs to next year", Date(2025, 12, 29, warsaw), WeekNumber{Year: 2026, Week: 1}},
		{"early january belongs to previous year", Date(2027, 1, 3, time.UTC), WeekNumber{Year: 2026, Week: 53}},
		{"sunday stays in the monday week", Date(2025, 2, 2, time.UTC), WeekNumber{Year: 2025, Week: 5}},
		{"late evening is not shifted", time.Date(2025, 1, 12, 23, 59, 0, 0, warsaw), WeekNumber{Year: 2025, Week: 2}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := WeekNumberFromDate(tt.date); got != tt.want {
				t.Errorf("WeekNumberFromDate() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestParseWeekNumber(t *testing.T) {
	tests := []struct {
		input   string
		want    WeekNumber
		wantErr bool
	}{
		{"2025-W03", WeekNumber{Year: 2025, Week: 3}, false},
		{"2026-W53", WeekNumber{Year: 2026, Week: 53}, false},
		{"2025-03", WeekNumber{}, true},
		{"abcd-W03", WeekNumber{}, true},
		{"2025-W54", WeekNumber{}, true},
		{"2025-Wxx", WeekNumber{}, true},
	}
	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := ParseWeekNumber(tt.input)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ParseWeekNumber(%q) error = %v, wantErr %v", tt.input, err, tt.wantErr)
			}
			if got != tt.want {
				t.Fatalf("ParseWeekNumber(%q) = %v, want %v", tt.input, got, tt.want)
			}
			if !tt.wantErr && got.String() != tt.input {
				t.Fatalf("String() = %q, want %q", got.String(), tt.input)
			}
		})
	}
}

func TestWeekNumberMonday(t *testing.T) {
	tests := []struct {
		week WeekNumber
		want time.Time
	}{
		{WeekNumber{Year: 2025, Week: 1}, Date(2024, 12, 30, time.UTC)},
		{WeekNumber{Year: 2025, Week: 3}, Date(2025, 1, 13, time.UTC)},
		{WeekNumber{Year: 2026, Week: 1}, Date(2025, 12, 29, time.UTC)},
		{WeekNumber{Year: 2026, Week: 53}, Date(2026, 12, 28, time.UTC)},
	}
	for _, tt := range tests {
		t.Run(tt.week.String(), func(t *testing.T) {
			got := tt.week.Monday(time.UTC)
			if !got.Equal(tt.want) {
				t.Fatalf("Monday() = %v, want %v", got, tt.want)
			}
			if back := WeekNumberFromDate(got); back != tt.week {
				t.Fatalf("WeekNumberFromDate(Monday()) = %v, want %v", back, tt.week)
			}
		})
	}
}

func TestWeekNumberOrdering(t *testing.T) {
	tests := []struct {
		name                 string
		left, right          WeekNumber
		equal, before, after bool
	}{
		{"same week", WeekNumber{2025, 3}, WeekNumber{2025, 3}, true, false, false},
		{"earlier week same year", WeekNumber{2025, 2}, WeekNumber{2025, 3}, false, true, false},
		{"later week same year", WeekNumber{2025, 4}, WeekNumber{2025, 3}, false, false, true},
		{"earlier year", WeekNumber{2024, 52}, WeekNumber{2025, 1}, false, true, false},
		{"later year", WeekNumber{2026, 1}, WeekNumber{2025, 52}, false, false, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.left.Equal(tt.right); got != tt.equal {
				t.Errorf("Equal(%v, %v) = %v, want %v", tt.left, tt.right, got, tt.equal)
			}
			if got := tt.left.Before(tt.right); got != tt.before {
				t.Errorf("Before(%v, %v) = %v, want %v", tt.left, tt.right, got, tt.before)
			}
			if got := tt.left.After(tt.right); got != tt.after {
				t.Errorf("After(%v, %v) = %v, want %v", tt.left, tt.right, got, tt.after)
			}
		})
	}
}
