package timeutil

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"
)

// ParseError indicates that a date, time or duration string could not be
// understood. It is returned before any network call is made, so callers can
// distinguish bad input from remote failures.
type ParseError struct {
	Input  string
	Reason string
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("cannot parse %q: %s", e.Input, e.Reason)
}

// Date is a calendar date without a time or timezone attached.
type Date struct {
	Year  int
	Month time.Month
	Day   int
}

// ParseDate accepts DD-MM-YYYY or YYYY-MM-DD, in that order of preference.
func ParseDate(s string) (Date, error) {
	s = strings.TrimSpace(s)
	for _, layout := range []string{"02-01-2006", "2006-01-02"} {
		if t, err := time.Parse(layout, s); err == nil {
			return Date{Year: t.Year(), Month: t.Month(), Day: t.Day()}, nil
		}
	}
	return Date{}, &ParseError{Input: s, Reason: "expected DD-MM-YYYY or YYYY-MM-DD"}
}

// Weekday returns the day of the week for the date.
func (d Date) Weekday() time.Weekday {
	return time.Date(d.Year, d.Month, d.Day, 0, 0, 0, 0, time.UTC).Weekday()
}

// IsWeekend reports whether the date falls on a Saturday or Sunday.
func (d Date) IsWeekend() bool {
	wd := d.Weekday()
	return wd == time.Saturday || wd == time.Sunday
}

func (d Date) String() string {
	return fmt.Sprintf("%04d-%02d-%02d", d.Year, int(d.Month), d.Day)
}

// Clock is a wall-clock time of day.
type Clock struct {
	Hour   int
	Minute int
}

func (c Clock) String() string {
	return fmt.Sprintf("%02d:%02d", c.Hour, c.Minute)
}

// TimeOrDuration is the result of parsing an end-of-meeting token, which may
// be either an absolute wall-clock time ("15:30") or a duration ("2h", "45m").
type TimeOrDuration struct {
	Clock      Clock
	Duration   time.Duration
	IsDuration bool
}

var digitRun = regexp.MustCompile(`\d+`)

// ParseClock parses an HH:MM wall-clock time.
func ParseClock(s string) (Clock, error) {
	s = strings.TrimSpace(s)
	t, err := time.Parse("15:04", s)
	if err != nil {
		return Clock{}, &ParseError{Input: s, Reason: "expected HH:MM"}
	}
	return Clock{Hour: t.Hour(), Minute: t.Minute()}, nil
}

// ParseTimeOrDuration parses either an HH:MM wall-clock time or a single-unit
// duration such as "2h", "2hr", "30m" or "45min". Compound durations mixing
// hours and minutes ("1h30m") are rejected rather than guessed at.
func ParseTimeOrDuration(s string) (TimeOrDuration, error) {
	s = strings.ToLower(strings.TrimSpace(s))

	if strings.Contains(s, ":") {
		c, err := ParseClock(s)
		if err != nil {
			return TimeOrDuration{}, err
		}
		return TimeOrDuration{Clock: c}, nil
	}

	hasHours := strings.Contains(s, "h")
	hasMinutes := strings.Contains(s, "m")
	if hasHours && hasMinutes {
		return TimeOrDuration{}, &ParseError{Input: s, Reason: "compound durations are not supported; use HH:MM or a single unit like 2h or 90m"}
	}

	switch {
	case hasHours:
		n, err := leadingNumber(s)
		if err != nil {
			return TimeOrDuration{}, err
		}
		return TimeOrDuration{Duration: time.Duration(n) * time.Hour, IsDuration: true}, nil
	case hasMinutes:
		n, err := leadingNumber(s)
		if err != nil {
			return TimeOrDuration{}, err
		}
		return TimeOrDuration{Duration: time.Duration(n) * time.Minute, IsDuration: true}, nil
	}

	return TimeOrDuration{}, &ParseError{Input: s, Reason: "expected HH:MM, Nh or Nm"}
}

func leadingNumber(s string) (int, error) {
	run := digitRun.FindString(s)
	if run == "" {
		return 0, &ParseError{Input: s, Reason: "no digits found"}
	}
	n, err := strconv.Atoi(run)
	if err != nil {
		return 0, &ParseError{Input: s, Reason: "invalid number"}
	}
	return n, nil
}

// ResolveEnd turns an end token into an absolute (date, clock) pair. A
// duration is added to the start and may roll the end over onto the next
// calendar date; the returned date reflects that.
func ResolveEnd(date Date, start Clock, end TimeOrDuration) (Date, Clock) {
	if !end.IsDuration {
		return date, end.Clock
	}
	t := time.Date(date.Year, date.Month, date.Day, start.Hour, start.Minute, 0, 0, time.UTC).Add(end.Duration)
	return Date{Year: t.Year(), Month: t.Month(), Day: t.Day()}, Clock{Hour: t.Hour(), Minute: t.Minute()}
}

var fixedOffset = regexp.MustCompile(`^(?:utc)?([+-])(\d{2}):(\d{2})$`)

// LoadLocation resolves a timezone identifier to a location. It accepts IANA
// names ("Asia/Singapore") and fixed offsets ("UTC+08:00", "-05:30"). An
// empty identifier is an error: the default timezone is configuration, never
// inherited from the host.
func LoadLocation(name string) (*time.Location, error) {
	trimmed := strings.TrimSpace(name)
	if trimmed == "" {
		return nil, &ParseError{Input: name, Reason: "timezone is required"}
	}

	if m := fixedOffset.FindStringSubmatch(strings.ToLower(trimmed)); m != nil {
		hours, _ := strconv.Atoi(m[2])
		minutes, _ := strconv.Atoi(m[3])
		offset := hours*3600 + minutes*60
		if m[1] == "-" {
			offset = -offset
		}
		return time.FixedZone(trimmed, offset), nil
	}

	loc, err := time.LoadLocation(trimmed)
	if err != nil {
		return nil, &ParseError{Input: name, Reason: "unknown timezone"}
	}
	return loc, nil
}

// ToUTC interprets a date and wall-clock time in the given location and
// converts the instant to UTC.
func ToUTC(d Date, c Clock, loc *time.Location) time.Time {
	return time.Date(d.Year, d.Month, d.Day, c.Hour, c.Minute, 0, 0, loc).UTC()
}
