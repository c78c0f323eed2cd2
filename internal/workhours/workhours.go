// Package workhours decides whether a time window falls inside a person's
// working time, combining roster preferences with holiday detection.
package workhours

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/teemow/conflictfewer/internal/directory"
	"github.com/teemow/conflictfewer/internal/holiday"
	"github.com/teemow/conflictfewer/internal/timeutil"
)

// Status is the outcome of a working-time check. Reason is a short
// human-readable explanation when Working is false.
type Status struct {
	Working bool
	Reason  string
}

// HolidayChecker is the holiday lookup used by the checker.
type HolidayChecker interface {
	IsHoliday(ctx context.Context, date timeutil.Date, country string) bool
}

var _ HolidayChecker = (*holiday.Checker)(nil)

// Checker evaluates working-time status against a user's preferences.
type Checker struct {
	holidays       HolidayChecker
	defaultCountry string
}

// NewChecker creates a checker. A nil holidays lookup skips holiday checks.
func NewChecker(holidays HolidayChecker) *Checker {
	return &Checker{holidays: holidays}
}

// WithDefaultCountry sets the country used for holiday lookups when a
// user record carries none. Returns the checker for chaining.
func (c *Checker) WithDefaultCountry(country string) *Checker {
	c.defaultCountry = country
	return c
}

// Check reports whether the given instant is working time for the user.
// The instant is evaluated in the user's own timezone; a user with no
// usable timezone is evaluated in the instant's original location. Checks
// run cheapest first so the holiday search only fires when nothing else
// already excludes the time.
func (c *Checker) Check(ctx context.Context, user directory.User, at time.Time) Status {
	local := at
	if user.Timezone != "" {
		if loc, err := timeutil.LoadLocation(user.Timezone); err == nil {
			local = at.In(loc)
		}
	}
	date := timeutil.Date{Year: local.Year(), Month: local.Month(), Day: local.Day()}

	prefs := user.Preferences

	for _, v := range prefs.VacationDates {
		if v == date.String() {
			return Status{Reason: fmt.Sprintf("%s is on vacation on %s", user.Username, date)}
		}
	}

	if len(prefs.WorkingDays) > 0 && !containsDay(prefs.WorkingDays, local.Weekday()) {
		return Status{Reason: fmt.Sprintf("%s is not a working day for %s", local.Weekday(), user.Username)}
	}

	if start, end, ok := hoursWindow(prefs.WorkingHours); ok {
		minute := local.Hour()*60 + local.Minute()
		if minute < start || minute >= end {
			return Status{Reason: fmt.Sprintf("%s is outside working hours (%s-%s) for %s",
				local.Format("15:04"), prefs.WorkingHours.Start, prefs.WorkingHours.End, user.Username)}
		}
	}

	country := user.Country
	if country == "" {
		country = c.defaultCountry
	}
	if !prefs.WorkOnHolidays && c.holidays != nil && country != "" {
		if c.holidays.IsHoliday(ctx, date, country) {
			return Status{Reason: fmt.Sprintf("%s is a public holiday in %s", date, country)}
		}
	}

	return Status{Working: true}
}

// CheckWindow checks both ends of an interval and reports the first
// violation. A window that starts and ends inside working time counts as
// working time.
func (c *Checker) CheckWindow(ctx context.Context, user directory.User, window timeutil.Interval) Status {
	if st := c.Check(ctx, user, window.Start); !st.Working {
		return st
	}
	// The end bound is exclusive, so check the last contained instant.
	return c.Check(ctx, user, window.End.Add(-time.Minute))
}

func containsDay(days []string, day time.Weekday) bool {
	name := day.String()
	for _, d := range days {
		if strings.EqualFold(strings.TrimSpace(d), name) {
			return true
		}
	}
	return false
}

func hoursWindow(h directory.WorkingHours) (startMinute, endMinute int, ok bool) {
	if h.Start == "" || h.End == "" {
		return 0, 0, false
	}
	start, err := timeutil.ParseClock(h.Start)
	if err != nil {
		return 0, 0, false
	}
	end, err := timeutil.ParseClock(h.End)
	if err != nil {
		return 0, 0, false
	}
	return start.Hour*60 + start.Minute, end.Hour*60 + end.Minute, true
}
