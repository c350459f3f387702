package commands

import (
	"strconv"
	"strings"
	"time"
)

const defaultHour = 9

var absoluteLayouts = []string{
	time.RFC3339,
	"2006-01-02T15:04",
	"2006-01-02 15:04",
}

// ResolveWhen turns a deadline expression into an absolute time. Accepted
// forms: RFC3339, 2006-01-02T15:04, 2006-01-02 (09:00), today/tomorrow with an
// optional HH:MM, and an offset such as +90m, +2h or +3d.
func ResolveWhen(expr string, now time.Time, loc *time.Location) (time.Time, error) {
	if loc == nil {
		loc = time.Local
	}
	s := strings.TrimSpace(expr)
	if s == "" {
		return time.Time{}, invalid("time is empty")
	}
	if strings.HasPrefix(s, "+") {
		d, err := ParseSpan(s[1:])
		if err != nil {
			return time.Time{}, err
		}
		return now.Add(d).Truncate(time.Minute), nil
	}
	for _, layout := range absoluteLayouts {
		if t, err := time.ParseInLocation(layout, s, loc); err == nil {
			return t, nil
		}
	}
	if t, err := time.ParseInLocation("2006-01-02", s, loc); err == nil {
		return t.Add(defaultHour * time.Hour), nil
	}

	fields := strings.Fields(strings.ToLower(strings.ReplaceAll(s, "@", " ")))
	if len(fields) == 0 {
		return time.Time{}, invalid("unrecognised time %q", expr)
	}
	base := now.In(loc)
	switch fields[0] {
	case "today":
	case "tomorrow":
		base = base.AddDate(0, 0, 1)
	default:
		return time.Time{}, invalid("unrecognised time %q", expr)
	}
	hour, minute := defaultHour, 0
	if len(fields) > 1 {
		clock, err := time.Parse("15:04", fields[1])
		if err != nil {
			return time.Time{}, invalid("unrecognised clock time %q", fields[1])
		}
		hour, minute = clock.Hour(), clock.Minute()
	}
	y, m, d := base.Date()
	return time.Date(y, m, d, hour, minute, 0, 0, loc), nil
}

var spanUnits = map[string]time.Duration{
	"m": time.Minute, "min": time.Minute, "mins": time.Minute, "minute": time.Minute, "minutes": time.Minute,
	"h": time.Hour, "hour": time.Hour, "hours": time.Hour,
	"d": 24 * time.Hour, "day": 24 * time.Hour, "days": 24 * time.Hour,
	"w": 7 * 24 * time.Hour, "week": 7 * 24 * time.Hour, "weeks": 7 * 24 * time.Hour,
}

// ParseSpan reads a positive duration such as 30m, 1h30m, 2d or "2 days".
func ParseSpan(expr string) (time.Duration, error) {
	s := strings.ToLower(strings.TrimSpace(expr))
	if d, err := time.ParseDuration(s); err == nil {
		if d <= 0 {
			return 0, invalid("duration must be positive")
		}
		return d, nil
	}
	compact := strings.ReplaceAll(s, " ", "")
	i := 0
	for i < len(compact) && compact[i] >= '0' && compact[i] <= '9' {
		i++
	}
	if i == 0 {
		return 0, invalid("unrecognised duration %q", expr)
	}
	n, err := strconv.Atoi(compact[:i])
	if err != nil || n <= 0 {
		return 0, invalid("duration must be positive")
	}
	unit, ok := spanUnits[compact[i:]]
	if !ok {
		return 0, invalid("unrecognised duration unit %q", compact[i:])
	}
	return time.Duration(n) * unit, nil
}
