package model

import (
	"errors"
	"fmt"
	"time"
)

type RecurrencePattern string

const (
	RecurrenceNone    RecurrencePattern = "none"
	RecurrenceDaily   RecurrencePattern = "daily"
	RecurrenceWeekly  RecurrencePattern = "weekly"
	RecurrenceMonthly RecurrencePattern = "monthly"
	RecurrenceYearly  RecurrencePattern = "yearly"
	RecurrenceCustom  RecurrencePattern = "custom"
)

var (
	ErrInvalidRecurrencePattern = errors.New("model: invalid recurrence pattern")
	ErrInvalidInterval          = errors.New("model: invalid recurrence interval")
	ErrNoRecurrence             = errors.New("model: task does not recur")
)

func (p RecurrencePattern) IsValid() bool {
	switch p {
	case RecurrenceNone, RecurrenceDaily, RecurrenceWeekly, RecurrenceMonthly, RecurrenceYearly, RecurrenceCustom:
		return true
	default:
		return false
	}
}

// Recurrence describes how a task repeats. Interval multiplies the pattern's
// step (every 2 weeks) and is the day count for the custom pattern. Count,
// when positive, is the number of occurrences still to come including this one.
type Recurrence struct {
	Pattern  RecurrencePattern `json:"pattern" bson:"pattern"`
	Interval int               `json:"interval,omitempty" bson:"interval,omitempty"`
	EndDate  *time.Time        `json:"endDate,omitempty" bson:"endDate,omitempty"`
	Count    int               `json:"count,omitempty" bson:"count,omitempty"`
}

func (r Recurrence) Validate() error {
	if !r.Pattern.IsValid() {
		return fmt.Errorf("%w: %q", ErrInvalidRecurrencePattern, r.Pattern)
	}
	if r.Interval < 0 {
		return fmt.Errorf("%w: %d", ErrInvalidInterval, r.Interval)
	}
	if r.Pattern == RecurrenceCustom && r.Interval == 0 {
		return fmt.Errorf("%w: custom pattern needs a positive interval", ErrInvalidInterval)
	}
	if r.Count < 0 {
		return errors.New("model: recurrence count must not be negative")
	}
	return nil
}

func (r Recurrence) Repeats() bool {
	return r.Pattern != "" && r.Pattern != RecurrenceNone
}

// NextAfter returns the occurrence following from. ok is false when the series
// has ended, either by count or by end date.
func (r Recurrence) NextAfter(from time.Time) (next time.Time, ok bool, err error) {
	if err := r.Validate(); err != nil {
		return time.Time{}, false, err
	}
	if !r.Repeats() {
		return time.Time{}, false, ErrNoRecurrence
	}
	if r.Count == 1 {
		return time.Time{}, false, nil
	}

	n := r.Interval
	if n <= 0 {
		n = 1
	}
	switch r.Pattern {
	case RecurrenceDaily, RecurrenceCustom:
		next = from.AddDate(0, 0, n)
	case RecurrenceWeekly:
		next = from.AddDate(0, 0, 7*n)
	case RecurrenceMonthly:
		next = addMonthsClamped(from, n)
	case RecurrenceYearly:
		next = addMonthsClamped(from, 12*n)
	}
	if r.EndDate != nil && next.After(*r.EndDate) {
		return time.Time{}, false, nil
	}
	return next, true, nil
}

// Advance returns the descriptor carried by the next occurrence.
func (r Recurrence) Advance() Recurrence {
	out := r
	if out.Count > 0 {
		out.Count--
	}
	return out
}

func (r Recurrence) Preview(from time.Time, count int) ([]time.Time, error) {
	if count <= 0 {
		return []time.Time{}, nil
	}
	out := make([]time.Time, 0, count)
	cursor := from
	rule := r
	for i := 0; i < count; i++ {
		next, ok, err := rule.NextAfter(cursor)
		if err != nil {
			return nil, err
		}
		if !ok {
			break
		}
		out = append(out, next)
		cursor = next
		rule = rule.Advance()
	}
	return out, nil
}

// addMonthsClamped moves by whole months, pinning to the last day when the
// target month is shorter (Jan 31 + 1 month = Feb 28).
func addMonthsClamped(from time.Time, months int) time.Time {
	y, m, d := from.Date()
	firstOfTarget := time.Date(y, m, 1, from.Hour(), from.Minute(), from.Second(), from.Nanosecond(), from.Location()).AddDate(0, months, 0)
	last := lastDayOfMonth(firstOfTarget)
	if d > last {
		d = last
	}
	ty, tm, _ := firstOfTarget.Date()
	return time.Date(ty, tm, d, from.Hour(), from.Minute(), from.Second(), from.Nanosecond(), from.Location())
}

func lastDayOfMonth(t time.Time) int {
	y, m, _ := t.Date()
	return time.Date(y, m+1, 0, 0, 0, 0, 0, t.Location()).Day()
}
