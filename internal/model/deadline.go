package model

import "time"

// MinuteWindow returns the half-open range [start, end) of the calendar minute
// containing t. Seconds and sub-second parts are discarded.
func MinuteWindow(t time.Time) (time.Time, time.Time) {
	start := t.UTC().Truncate(time.Minute)
	return start, start.Add(time.Minute)
}

func SameMinute(a, b time.Time) bool {
	sa, _ := MinuteWindow(a)
	sb, _ := MinuteWindow(b)
	return sa.Equal(sb)
}
