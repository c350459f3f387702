package model

import (
	"errors"
	"testing"
	"time"
)

func TestRecurrenceNextAfterPatterns(t *testing.T) {
	from := time.Date(2026, 1, 31, 9, 0, 0, 0, time.UTC)
	cases := []struct {
		rule Recurrence
		want string
	}{
		{Recurrence{Pattern: RecurrenceDaily}, "2026-02-01 09:00"},
		{Recurrence{Pattern: RecurrenceWeekly, Interval: 2}, "2026-02-14 09:00"},
		{Recurrence{Pattern: RecurrenceMonthly}, "2026-02-28 09:00"},
		{Recurrence{Pattern: RecurrenceYearly}, "2027-01-31 09:00"},
		{Recurrence{Pattern: RecurrenceCustom, Interval: 3}, "2026-02-03 09:00"},
	}
	for _, tc := range cases {
		next, ok, err := tc.rule.NextAfter(from)
		if err != nil || !ok {
			t.Fatalf("%s: unexpected result ok=%v err=%v", tc.rule.Pattern, ok, err)
		}
		if got := next.Format("2006-01-02 15:04"); got != tc.want {
			t.Fatalf("%s: got %s want %s", tc.rule.Pattern, got, tc.want)
		}
	}
}

func TestRecurrenceEndsByDateAndCount(t *testing.T) {
	from := time.Date(2026, 2, 1, 9, 0, 0, 0, time.UTC)
	end := time.Date(2026, 2, 2, 0, 0, 0, 0, time.UTC)
	rule := Recurrence{Pattern: RecurrenceDaily, EndDate: &end}
	if _, ok, err := rule.NextAfter(from); err != nil || ok {
		t.Fatalf("expected series to end by date, ok=%v err=%v", ok, err)
	}

	list, err := (Recurrence{Pattern: RecurrenceDaily, Count: 3}).Preview(from, 10)
	if err != nil {
		t.Fatalf("preview failed: %v", err)
	}
	if len(list) != 2 {
		t.Fatalf("expected 2 remaining occurrences, got %d", len(list))
	}
}

func TestRecurrenceValidate(t *testing.T) {
	if err := (Recurrence{Pattern: "hourly"}).Validate(); !errors.Is(err, ErrInvalidRecurrencePattern) {
		t.Fatalf("expected ErrInvalidRecurrencePattern, got %v", err)
	}
	if err := (Recurrence{Pattern: RecurrenceCustom}).Validate(); !errors.Is(err, ErrInvalidInterval) {
		t.Fatalf("expected ErrInvalidInterval, got %v", err)
	}
	if _, _, err := (Recurrence{Pattern: RecurrenceNone}).NextAfter(time.Now()); !errors.Is(err, ErrNoRecurrence) {
		t.Fatalf("expected ErrNoRecurrence, got %v", err)
	}
}
