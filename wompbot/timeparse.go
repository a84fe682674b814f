package wompbot

import (
	"regexp"
	"strconv"
	"strings"
	"time"
)

// defaultWeekdayHour is the time-of-day used for day-of-week expressions
// that don't include an explicit clock time ("friday" -> friday 09:00).
const defaultWeekdayHour = 9

var (
	relativeDurationPattern = regexp.MustCompile(
		`(?i)^(?:in\s+)?(\d+)\s*(minutes?|mins?|hours?|hrs?|days?|weeks?)$`,
	)
	clockTimePattern = regexp.MustCompile(
		`(?i)\bat\s+(\d{1,2})(?::(\d{2}))?\s*(am|pm)?\b`,
	)
	weekdayPattern = regexp.MustCompile(
		`(?i)\b(monday|tuesday|wednesday|thursday|friday|saturday|sunday|mon|tues|tue|weds|wed|thurs|thur|thu|fri|sat|sun)\b`,
	)
	bareIntegerPattern = regexp.MustCompile(`^\d+$`)
)

var weekdaysByName = map[string]time.Weekday{
	"monday": time.Monday, "mon": time.Monday,
	"tuesday": time.Tuesday, "tues": time.Tuesday, "tue": time.Tuesday,
	"wednesday": time.Wednesday, "weds": time.Wednesday, "wed": time.Wednesday,
	"thursday": time.Thursday, "thurs": time.Thursday, "thur": time.Thursday,
	"thu": time.Thursday,
	"friday":   time.Friday, "fri": time.Friday,
	"saturday": time.Saturday, "sat": time.Saturday,
	"sunday": time.Sunday, "sun": time.Sunday,
}

// timeMatcher attempts to resolve a time expression against a reference
// time, returning false if the expression doesn't match its pattern.
type timeMatcher func(expr string, now time.Time) (time.Time, bool)

// timeMatchers is tried in order; the first matcher to claim an
// expression wins, and no later matcher is attempted.
var timeMatchers = []timeMatcher{
	matchRelativeDuration,
	matchTomorrow,
	matchNextWeek,
	matchWeekday,
	matchBareClock,
	matchBareInteger,
}

// ParseTimeExpression converts a free-text time expression ("in 5 minutes",
// "tomorrow at 3pm", "friday", "30") into an absolute timestamp relative
// to the given reference time. The second return value is false if no
// pattern recognized the expression - callers treat that as a normal
// result, not an error.
func ParseTimeExpression(expr string, now time.Time) (time.Time, bool) {
	expr = strings.TrimSpace(expr)
	if expr == "" {
		return time.Time{}, false
	}
	for _, matcher := range timeMatchers {
		if resolved, ok := matcher(expr, now); ok {
			return resolved, true
		}
	}
	return time.Time{}, false
}

// matchRelativeDuration resolves expressions like "in 5 minutes",
// "2 hours", "3 days", "1 week".
func matchRelativeDuration(expr string, now time.Time) (time.Time, bool) {
	m := relativeDurationPattern.FindStringSubmatch(expr)
	if m == nil {
		return time.Time{}, false
	}
	n, err := strconv.Atoi(m[1])
	if err != nil {
		return time.Time{}, false
	}
	unit := strings.ToLower(m[2])
	switch {
	case strings.HasPrefix(unit, "min"):
		return now.Add(time.Duration(n) * time.Minute), true
	case strings.HasPrefix(unit, "h"):
		return now.Add(time.Duration(n) * time.Hour), true
	case strings.HasPrefix(unit, "day"):
		return now.AddDate(0, 0, n), true
	case strings.HasPrefix(unit, "week"):
		return now.AddDate(0, 0, 7*n), true
	default:
		return time.Time{}, false
	}
}

// matchTomorrow resolves any expression containing "tomorrow". With an
// explicit clock time ("tomorrow at 3pm") the time-of-day is overridden;
// otherwise the current time-of-day is kept, with seconds zeroed.
func matchTomorrow(expr string, now time.Time) (time.Time, bool) {
	if !strings.Contains(strings.ToLower(expr), "tomorrow") {
		return time.Time{}, false
	}
	tomorrow := now.AddDate(0, 0, 1)
	if hour, minute, ok := parseClockTime(expr); ok {
		return time.Date(
			tomorrow.Year(), tomorrow.Month(), tomorrow.Day(),
			hour, minute, 0, 0, now.Location(),
		), true
	}
	return time.Date(
		tomorrow.Year(), tomorrow.Month(), tomorrow.Day(),
		tomorrow.Hour(), tomorrow.Minute(), 0, 0, now.Location(),
	), true
}

// matchNextWeek resolves any expression containing "next week" to
// now + 7 days. Unlike "tomorrow", the time-of-day is left untouched
// (seconds included) - longstanding behavior, kept as-is.
func matchNextWeek(expr string, now time.Time) (time.Time, bool) {
	if !strings.Contains(strings.ToLower(expr), "next week") {
		return time.Time{}, false
	}
	return now.AddDate(0, 0, 7), true
}

// matchWeekday resolves a day-of-week name ("friday", "fri") to the next
// occurrence of that weekday strictly after today. Naming today's weekday
// always resolves to next week, never to today. An explicit clock time is
// applied if present, otherwise 09:00.
func matchWeekday(expr string, now time.Time) (time.Time, bool) {
	m := weekdayPattern.FindStringSubmatch(expr)
	if m == nil {
		return time.Time{}, false
	}
	target, ok := weekdaysByName[strings.ToLower(m[1])]
	if !ok {
		return time.Time{}, false
	}

	daysAhead := (int(target) - int(now.Weekday()) + 7) % 7
	if daysAhead == 0 {
		daysAhead = 7
	}

	hour := defaultWeekdayHour
	minute := 0
	if h, min, clockOK := parseClockTime(expr); clockOK {
		hour = h
		minute = min
	}

	day := now.AddDate(0, 0, daysAhead)
	return time.Date(
		day.Year(), day.Month(), day.Day(),
		hour, minute, 0, 0, now.Location(),
	), true
}

// matchBareClock resolves "at 5pm" / "at 17:30" to today at that time,
// rolling forward to tomorrow if that time has already passed.
func matchBareClock(expr string, now time.Time) (time.Time, bool) {
	hour, minute, ok := parseClockTime(expr)
	if !ok {
		return time.Time{}, false
	}
	resolved := time.Date(
		now.Year(), now.Month(), now.Day(),
		hour, minute, 0, 0, now.Location(),
	)
	if !resolved.After(now) {
		resolved = resolved.AddDate(0, 0, 1)
	}
	return resolved, true
}

// matchBareInteger resolves an all-digits expression as a minute count
// ("30" == "in 30 minutes").
func matchBareInteger(expr string, now time.Time) (time.Time, bool) {
	if !bareIntegerPattern.MatchString(expr) {
		return time.Time{}, false
	}
	n, err := strconv.Atoi(expr)
	if err != nil {
		return time.Time{}, false
	}
	return now.Add(time.Duration(n) * time.Minute), true
}

// parseClockTime extracts an "at H[:MM][am|pm]" clock time from the
// expression, applying 12-hour arithmetic: "pm" with hour < 12 adds 12,
// "am" with hour 12 becomes 0. Out-of-range values don't match.
func parseClockTime(expr string) (hour int, minute int, ok bool) {
	m := clockTimePattern.FindStringSubmatch(expr)
	if m == nil {
		return 0, 0, false
	}
	hour, err := strconv.Atoi(m[1])
	if err != nil {
		return 0, 0, false
	}
	if m[2] != "" {
		minute, err = strconv.Atoi(m[2])
		if err != nil {
			return 0, 0, false
		}
	}

	switch strings.ToLower(m[3]) {
	case "pm":
		if hour < 12 {
			hour += 12
		}
	case "am":
		if hour == 12 {
			hour = 0
		}
	}

	if hour > 23 || minute > 59 {
		return 0, 0, false
	}
	return hour, minute, true
}
