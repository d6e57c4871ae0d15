package scheduler

import (
	"fmt"
	"time"
)

// Trigger computes when a job should next fire.
type Trigger interface {
	// Next returns the first fire time strictly after the given instant.
	Next(after time.Time) time.Time
	// Describe returns a human-readable trigger description for introspection.
	Describe() string
}

// DailyTrigger fires once per calendar day at a fixed wall-clock time.
type DailyTrigger struct {
	Hour   int
	Minute int
}

func (t DailyTrigger) Next(after time.Time) time.Time {
	candidate := time.Date(after.Year(), after.Month(), after.Day(), t.Hour, t.Minute, 0, 0, after.Location())
	if !candidate.After(after) {
		candidate = candidate.AddDate(0, 0, 1)
	}
	return candidate
}

func (t DailyTrigger) Describe() string {
	return fmt.Sprintf("daily at %02d:%02d", t.Hour, t.Minute)
}

// WeeklyTrigger fires once per week on a fixed weekday at a fixed time.
type WeeklyTrigger struct {
	Weekday time.Weekday
	Hour    int
	Minute  int
}

func (t WeeklyTrigger) Next(after time.Time) time.Time {
	daysAhead := (int(t.Weekday) - int(after.Weekday()) + 7) % 7
	candidate := time.Date(after.Year(), after.Month(), after.Day(), t.Hour, t.Minute, 0, 0, after.Location())
	candidate = candidate.AddDate(0, 0, daysAhead)
	if !candidate.After(after) {
		candidate = candidate.AddDate(0, 0, 7)
	}
	return candidate
}

func (t WeeklyTrigger) Describe() string {
	return fmt.Sprintf("weekly on %s at %02d:%02d", t.Weekday, t.Hour, t.Minute)
}

// IntervalTrigger fires at a fixed interval. Used for ad-hoc jobs added at
// runtime.
type IntervalTrigger struct {
	Every time.Duration
}

func (t IntervalTrigger) Next(after time.Time) time.Time {
	return after.Add(t.Every)
}

func (t IntervalTrigger) Describe() string {
	return fmt.Sprintf("every %s", t.Every)
}
