// Package cmd implements the command-line interface for conflictfewer.
//
// This package provides the following commands:
//   - auth: Authorize access to a Google Calendar account
//   - check: Check attendee availability for a time window
//   - conflicts: List your own events overlapping a time window
//   - validate: Run the validation pipeline without creating an event
//   - schedule: Validate and create a calendar event
//   - slots: Find open slots where every attendee is free
//   - history: Show scheduling history from the session store
//   - version: Display version information
package cmd
