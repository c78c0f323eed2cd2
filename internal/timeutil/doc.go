// Package timeutil normalizes the flexible date, time and duration input a
// scheduling request arrives with into unambiguous UTC intervals.
//
// Dates are accepted as DD-MM-YYYY or YYYY-MM-DD. End-of-meeting tokens may
// be an absolute HH:MM wall-clock time or a single-unit duration ("2h",
// "30m"); durations are resolved against the start time with calendar-date
// rollover tracked. Wall-clock instants are interpreted in an explicitly
// supplied timezone (IANA name or fixed UTC offset) and converted to UTC
// before any comparison happens.
package timeutil
