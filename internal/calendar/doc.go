// Package calendar provides a client for the Google Calendar API, scoped to
// what the scheduling pipeline needs: free/busy queries for single
// identities, conflict listing across calendars, calendar name resolution
// and event creation.
//
// The client never retries and never bounds a call's latency itself; both
// are the caller's job. The availability coordinator wraps each free/busy
// call with its own timeout.
package calendar
