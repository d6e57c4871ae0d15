package domain

import (
	"testing"
	"time"
)

func TestDaysUntil(t *testing.T) {
	cases := []struct {
		name string
		from time.Time
		to   time.Time
		want int
	}{
		{
			"same day",
			time.Date(2024, 6, 1, 9, 30, 0, 0, time.UTC),
			time.Date(2024, 6, 1, 23, 59, 0, 0, time.UTC),
			0,
		},
		{
			"week ahead",
			time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC),
			time.Date(2024, 6, 8, 0, 0, 0, 0, time.UTC),
			7,
		},
		{
			"past renewal",
			time.Date(2024, 6, 10, 0, 0, 0, 0, time.UTC),
			time.Date(2024, 6, 7, 0, 0, 0, 0, time.UTC),
			-3,
		},
	}

	for _, tc := range cases {
		if got := DaysUntil(tc.from, tc.to); got != tc.want {
			t.Errorf("%s: DaysUntil = %d, want %d", tc.name, got, tc.want)
		}
	}
}

func TestDaysUntilAcrossDSTTransitions(t *testing.T) {
	loc, err := time.LoadLocation("America/New_York")
	if err != nil {
		t.Skipf("tzdata unavailable: %v", err)
	}

	// Spring forward (2024-03-10): the span is an hour short in wall-clock
	// time but must still count whole calendar days.
	from := time.Date(2024, 3, 8, 12, 0, 0, 0, loc)
	to := time.Date(2024, 3, 12, 0, 0, 0, 0, loc)
	if got := DaysUntil(from, to); got != 4 {
		t.Errorf("across spring-forward: DaysUntil = %d, want 4", got)
	}

	// Fall back (2024-11-03): the extra hour must not add a day either.
	from = time.Date(2024, 11, 1, 12, 0, 0, 0, loc)
	to = time.Date(2024, 11, 5, 0, 0, 0, 0, loc)
	if got := DaysUntil(from, to); got != 4 {
		t.Errorf("across fall-back: DaysUntil = %d, want 4", got)
	}
}

func TestDateOnly(t *testing.T) {
	ts := time.Date(2024, 6, 1, 17, 45, 12, 999, time.UTC)
	d := DateOnly(ts)
	if d.Hour() != 0 || d.Minute() != 0 || d.Second() != 0 || d.Nanosecond() != 0 {
		t.Fatalf("DateOnly left a time component: %v", d)
	}
	if d.Year() != 2024 || d.Month() != time.June || d.Day() != 1 {
		t.Fatalf("DateOnly changed the date: %v", d)
	}
}
