package calendar

import (
	"time"

	calendar "google.golang.org/api/calendar/v3"

	"github.com/teemow/conflictfewer/internal/timeutil"
)

// EventInput represents the input for creating a calendar event. Start and
// End are absolute UTC instants produced by the time normalizer.
type EventInput struct {
	Title       string
	Description string
	Location    string
	Window      timeutil.Interval
	Attendees   []string

	// SendUpdates controls whether attendees receive email notifications.
	SendUpdates bool
}

// EventSummary represents a simplified calendar event for listing and
// conflict reporting.
type EventSummary struct {
	ID              string
	Summary         string
	Location        string
	Start           time.Time
	End             time.Time
	Organizer       string
	Status          string
	Attendees       []AttendeeInfo
	HTMLLink        string
	CalendarSummary string // display name of the calendar the event lives on
}

// AttendeeInfo represents information about an event attendee.
type AttendeeInfo struct {
	Email          string
	DisplayName    string
	ResponseStatus string // "needsAction", "declined", "tentative", "accepted"
	Optional       bool
	Organizer      bool
}

// CalendarInfo represents information about a calendar.
type CalendarInfo struct {
	ID         string
	Summary    string
	TimeZone   string
	Primary    bool
	Selected   bool
	AccessRole string // "owner", "writer", "reader", "freeBusyReader"
}

// BusyRange is one occupied sub-interval of an attendee's calendar. Detail
// is empty for real calendar conflicts and carries a reason for synthetic
// blocks (vacation, outside working hours).
type BusyRange struct {
	Start  time.Time
	End    time.Time
	Detail string
}

// FreeBusyResult is the outcome of one free/busy query for one identity.
// ErrorReason is set when the identity's calendar could not be read (access
// denied, not found); the query itself still succeeded.
type FreeBusyResult struct {
	Identity    string
	Busy        []BusyRange
	ErrorReason string
}

// Available reports whether the identity has no busy ranges and no error.
func (r FreeBusyResult) Available() bool {
	return r.ErrorReason == "" && len(r.Busy) == 0
}

// CreatedEvent is returned after successful event creation.
type CreatedEvent struct {
	ID         string
	CalendarID string
	HTMLLink   string
	Window     timeutil.Interval
}

// toEventSummary converts a Google Calendar event to an EventSummary.
func toEventSummary(event *calendar.Event) EventSummary {
	summary := EventSummary{
		ID:       event.Id,
		Summary:  event.Summary,
		Location: event.Location,
		Status:   event.Status,
		HTMLLink: event.HtmlLink,
	}

	if event.Start != nil {
		if event.Start.DateTime != "" {
			if t, err := time.Parse(time.RFC3339, event.Start.DateTime); err == nil {
				summary.Start = t
			}
		} else if event.Start.Date != "" {
			if t, err := time.Parse("2006-01-02", event.Start.Date); err == nil {
				summary.Start = t
			}
		}
	}

	if event.End != nil {
		if event.End.DateTime != "" {
			if t, err := time.Parse(time.RFC3339, event.End.DateTime); err == nil {
				summary.End = t
			}
		} else if event.End.Date != "" {
			if t, err := time.Parse("2006-01-02", event.End.Date); err == nil {
				summary.End = t
			}
		}
	}

	if event.Organizer != nil {
		summary.Organizer = event.Organizer.Email
	}

	for _, att := range event.Attendees {
		summary.Attendees = append(summary.Attendees, AttendeeInfo{
			Email:          att.Email,
			DisplayName:    att.DisplayName,
			ResponseStatus: att.ResponseStatus,
			Optional:       att.Optional,
			Organizer:      att.Organizer,
		})
	}

	return summary
}

// toCalendarInfo converts a Google Calendar list entry to CalendarInfo.
func toCalendarInfo(entry *calendar.CalendarListEntry) CalendarInfo {
	selected := entry.Selected
	if entry.Primary {
		selected = true
	}
	return CalendarInfo{
		ID:         entry.Id,
		Summary:    entry.Summary,
		TimeZone:   entry.TimeZone,
		Primary:    entry.Primary,
		Selected:   selected,
		AccessRole: entry.AccessRole,
	}
}
