package calendar

import (
	"context"
	"fmt"
	"net/http"
	"sort"
	"strings"
	"time"

	"golang.org/x/oauth2"
	calendar "google.golang.org/api/calendar/v3"
	"google.golang.org/api/option"

	"github.com/teemow/conflictfewer/internal/google"
	"github.com/teemow/conflictfewer/internal/instrumentation"
	"github.com/teemow/conflictfewer/internal/timeutil"
)

// Client wraps the Google Calendar service.
type Client struct {
	svc           *calendar.Service
	account       string
	tokenProvider google.TokenProvider
	metrics       *instrumentation.Metrics
}

// Account returns the account name this client is associated with.
func (c *Client) Account() string {
	return c.account
}

// WithMetrics attaches a recorder for per-call API metrics. Returns the
// client for chaining; a nil recorder leaves metrics off.
func (c *Client) WithMetrics(m *instrumentation.Metrics) *Client {
	c.metrics = m
	return c
}

// observe records one Google Calendar API call.
func (c *Client) observe(ctx context.Context, operation string, start time.Time, err error) {
	if c.metrics == nil {
		return
	}
	status := instrumentation.StatusSuccess
	if err != nil {
		status = instrumentation.StatusError
	}
	c.metrics.RecordGoogleAPIOperation(ctx, instrumentation.ServiceCalendar, operation, status, time.Since(start))
}

// HasTokenForAccount checks if a valid OAuth token exists for the specified account.
func HasTokenForAccount(account string) bool {
	return google.NewFileTokenProvider().HasTokenForAccount(account)
}

// HasToken checks if a valid OAuth token exists for the default account.
func HasToken() bool {
	return HasTokenForAccount("default")
}

// NewClientForAccountWithProvider creates a new Calendar client with OAuth2
// authentication for a specific account. The OAuth token is retrieved from
// the given token provider.
func NewClientForAccountWithProvider(ctx context.Context, account string, tokenProvider google.TokenProvider) (*Client, error) {
	if tokenProvider == nil {
		return nil, fmt.Errorf("token provider cannot be nil")
	}

	token, err := tokenProvider.GetTokenForAccount(ctx, account)
	if err != nil {
		return nil, fmt.Errorf("failed to get Google OAuth token for account %s: %w", account, err)
	}

	conf := google.GetOAuthConfig()
	tokenSource := conf.TokenSource(ctx, token)
	client := oauth2.NewClient(ctx, tokenSource)

	// Force HTTP/1.1 by disabling HTTP/2
	transport := client.Transport.(*oauth2.Transport)
	transport.Base = &http.Transport{
		ForceAttemptHTTP2: false,
	}

	svc, err := calendar.NewService(ctx, option.WithHTTPClient(client))
	if err != nil {
		return nil, fmt.Errorf("failed to create Calendar service: %w", err)
	}

	return &Client{
		svc:           svc,
		account:       account,
		tokenProvider: tokenProvider,
	}, nil
}

// NewClientForAccount creates a new Calendar client using the default
// file-based token provider.
func NewClientForAccount(ctx context.Context, account string) (*Client, error) {
	return NewClientForAccountWithProvider(ctx, account, google.NewFileTokenProvider())
}

// NewClient creates a new Calendar client for the default account.
func NewClient(ctx context.Context) (*Client, error) {
	return NewClientForAccount(ctx, "default")
}

// FreeBusy performs exactly one free/busy query for one identity over one
// window. A calendar-level problem (access denied, not found) is reported in
// the result's ErrorReason, not as an error; an error return means the query
// itself failed. The client never retries: bounding the call's wall-clock
// cost is the caller's responsibility.
func (c *Client) FreeBusy(ctx context.Context, identity string, window timeutil.Interval) (FreeBusyResult, error) {
	query := &calendar.FreeBusyRequest{
		TimeMin:  window.Start.Format(time.RFC3339),
		TimeMax:  window.End.Format(time.RFC3339),
		TimeZone: "UTC",
		Items:    []*calendar.FreeBusyRequestItem{{Id: identity}},
	}

	ctx, span := instrumentation.StartGoogleAPISpan(ctx, instrumentation.ServiceCalendar, instrumentation.OperationFreeBusy)
	defer span.End()

	start := time.Now()
	result, err := c.svc.Freebusy.Query(query).Context(ctx).Do()
	c.observe(ctx, instrumentation.OperationFreeBusy, start, err)
	if err != nil {
		instrumentation.SetSpanError(span, err)
		return FreeBusyResult{}, fmt.Errorf("failed to query freebusy for %s: %w", identity, err)
	}

	out := FreeBusyResult{Identity: identity}

	cal, ok := result.Calendars[identity]
	if !ok {
		out.ErrorReason = "no calendar data returned"
		return out, nil
	}

	if len(cal.Errors) > 0 {
		out.ErrorReason = cal.Errors[0].Reason
		return out, nil
	}

	for _, busy := range cal.Busy {
		start, err := time.Parse(time.RFC3339, busy.Start)
		if err != nil {
			continue
		}
		end, err := time.Parse(time.RFC3339, busy.End)
		if err != nil {
			continue
		}
		out.Busy = append(out.Busy, BusyRange{Start: start, End: end})
	}

	return out, nil
}

// ListEvents lists events in a calendar overlapping the window.
func (c *Client) ListEvents(ctx context.Context, calendarID string, window timeutil.Interval) ([]EventSummary, error) {
	start := time.Now()
	events, err := c.svc.Events.List(calendarID).
		TimeMin(window.Start.Format(time.RFC3339)).
		TimeMax(window.End.Format(time.RFC3339)).
		SingleEvents(true).
		OrderBy("startTime").
		Context(ctx).
		Do()
	c.observe(ctx, instrumentation.OperationList, start, err)
	if err != nil {
		return nil, fmt.Errorf("failed to list events: %w", err)
	}

	var summaries []EventSummary
	for _, event := range events.Items {
		summaries = append(summaries, toEventSummary(event))
	}

	return summaries, nil
}

// EventSource is the slice of Client the conflict scan needs, split out
// so tests can substitute a fake.
type EventSource interface {
	ListCalendars(ctx context.Context) ([]CalendarInfo, error)
	ListEvents(ctx context.Context, calendarID string, window timeutil.Interval) ([]EventSummary, error)
}

// CollectConflicts gathers events overlapping the window across all
// selected calendars the source can read events on, tagging each with the
// owning calendar's display name. A freeBusyReader calendar only exposes
// busy blocks, so it is skipped here.
func CollectConflicts(ctx context.Context, src EventSource, window timeutil.Interval) ([]EventSummary, error) {
	calendars, err := src.ListCalendars(ctx)
	if err != nil {
		return nil, err
	}

	var conflicts []EventSummary
	for _, cal := range calendars {
		if !cal.Selected || cal.AccessRole == "freeBusyReader" {
			continue
		}
		events, err := src.ListEvents(ctx, cal.ID, window)
		if err != nil {
			return nil, fmt.Errorf("failed to list events on %s: %w", cal.ID, err)
		}
		for _, ev := range events {
			if ev.Status == "cancelled" {
				continue
			}
			ev.CalendarSummary = cal.Summary
			conflicts = append(conflicts, ev)
		}
	}

	return conflicts, nil
}

// ListConflicts collects the account's events overlapping the window.
func (c *Client) ListConflicts(ctx context.Context, window timeutil.Interval) ([]EventSummary, error) {
	return CollectConflicts(ctx, c, window)
}

// ListCalendars lists all calendars accessible to the user.
func (c *Client) ListCalendars(ctx context.Context) ([]CalendarInfo, error) {
	return c.listCalendars(ctx, "")
}

func (c *Client) listCalendars(ctx context.Context, minAccessRole string) ([]CalendarInfo, error) {
	call := c.svc.CalendarList.List()
	if minAccessRole != "" {
		call = call.MinAccessRole(minAccessRole)
	}
	start := time.Now()
	list, err := call.Context(ctx).Do()
	c.observe(ctx, instrumentation.OperationList, start, err)
	if err != nil {
		return nil, fmt.Errorf("failed to list calendars: %w", err)
	}

	var calendars []CalendarInfo
	for _, entry := range list.Items {
		calendars = append(calendars, toCalendarInfo(entry))
	}

	return calendars, nil
}

// ResolveCalendarID resolves a calendar display name to its ID. The empty
// string and "primary" map to the primary calendar; an unknown name falls
// back to primary rather than failing the whole scheduling flow.
func (c *Client) ResolveCalendarID(ctx context.Context, name string) (string, error) {
	if name == "" || strings.EqualFold(name, "primary") {
		return "primary", nil
	}

	calendars, err := c.listCalendars(ctx, "writer")
	if err != nil {
		return "", err
	}

	for _, cal := range calendars {
		if strings.EqualFold(cal.Summary, name) {
			return cal.ID, nil
		}
	}

	return "primary", nil
}

// CreateEvent creates a new calendar event with UTC times and notifies
// attendees.
func (c *Client) CreateEvent(ctx context.Context, calendarID string, input EventInput) (*CreatedEvent, error) {
	event := &calendar.Event{
		Summary:     input.Title,
		Description: input.Description,
		Location:    input.Location,
		Start: &calendar.EventDateTime{
			DateTime: input.Window.Start.Format(time.RFC3339),
			TimeZone: "UTC",
		},
		End: &calendar.EventDateTime{
			DateTime: input.Window.End.Format(time.RFC3339),
			TimeZone: "UTC",
		},
	}

	for _, email := range input.Attendees {
		event.Attendees = append(event.Attendees, &calendar.EventAttendee{Email: email})
	}

	call := c.svc.Events.Insert(calendarID, event)
	if input.SendUpdates {
		call = call.SendUpdates("all")
	}

	ctx, span := instrumentation.StartGoogleAPISpan(ctx, instrumentation.ServiceCalendar, instrumentation.OperationInsert)
	defer span.End()

	start := time.Now()
	created, err := call.Context(ctx).Do()
	c.observe(ctx, instrumentation.OperationInsert, start, err)
	if err != nil {
		instrumentation.SetSpanError(span, err)
		return nil, fmt.Errorf("failed to create event: %w", err)
	}

	return &CreatedEvent{
		ID:         created.Id,
		CalendarID: calendarID,
		HTMLLink:   created.HtmlLink,
		Window:     input.Window,
	}, nil
}

// OrganizerEmail returns the email of the primary calendar's owner, used to
// keep the organizer out of the attendee list.
func (c *Client) OrganizerEmail(ctx context.Context) (string, error) {
	start := time.Now()
	primary, err := c.svc.Calendars.Get("primary").Context(ctx).Do()
	c.observe(ctx, instrumentation.OperationGet, start, err)
	if err != nil {
		return "", fmt.Errorf("failed to get primary calendar: %w", err)
	}
	return primary.Id, nil
}

// AvailableSlot represents an open window long enough for the requested
// meeting, shared between FindAvailableSlots and the slots command.
type AvailableSlot struct {
	Start    time.Time
	End      time.Time
	Duration time.Duration
}

// FindAvailableSlots finds windows within [timeMin, timeMax) where all
// attendees are free for at least the requested duration.
func (c *Client) FindAvailableSlots(ctx context.Context, attendees []string, duration time.Duration, window timeutil.Interval) ([]AvailableSlot, error) {
	var allBusy []BusyRange
	for _, attendee := range attendees {
		result, err := c.FreeBusy(ctx, attendee, window)
		if err != nil {
			return nil, err
		}
		if result.ErrorReason != "" {
			return nil, fmt.Errorf("cannot read calendar for %s: %s", attendee, result.ErrorReason)
		}
		allBusy = append(allBusy, result.Busy...)
	}

	merged := MergeBusyRanges(allBusy)

	var slots []AvailableSlot
	cursor := window.Start
	for _, busy := range merged {
		if busy.Start.After(cursor) {
			gap := busy.Start.Sub(cursor)
			if gap >= duration {
				slots = append(slots, AvailableSlot{Start: cursor, End: busy.Start, Duration: gap})
			}
		}
		if busy.End.After(cursor) {
			cursor = busy.End
		}
	}
	if window.End.After(cursor) {
		gap := window.End.Sub(cursor)
		if gap >= duration {
			slots = append(slots, AvailableSlot{Start: cursor, End: window.End, Duration: gap})
		}
	}

	return slots, nil
}

// MergeBusyRanges merges overlapping or adjacent busy ranges into a sorted,
// disjoint list.
func MergeBusyRanges(ranges []BusyRange) []BusyRange {
	if len(ranges) == 0 {
		return nil
	}

	sorted := make([]BusyRange, len(ranges))
	copy(sorted, ranges)
	sort.Slice(sorted, func(i, j int) bool {
		return sorted[i].Start.Before(sorted[j].Start)
	})

	merged := []BusyRange{sorted[0]}
	for _, current := range sorted[1:] {
		last := &merged[len(merged)-1]
		if !current.Start.After(last.End) {
			if current.End.After(last.End) {
				last.End = current.End
			}
			continue
		}
		merged = append(merged, current)
	}

	return merged
}
