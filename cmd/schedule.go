package cmd

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/teemow/conflictfewer/internal/calendar"
	"github.com/teemow/conflictfewer/internal/emailutil"
	"github.com/teemow/conflictfewer/internal/instrumentation"
	"github.com/teemow/conflictfewer/internal/logging"
	"github.com/teemow/conflictfewer/internal/policy"
	"github.com/teemow/conflictfewer/internal/reasoning"
	"github.com/teemow/conflictfewer/internal/session"
	"github.com/teemow/conflictfewer/internal/validation"
)

func newScheduleCmd() *cobra.Command {
	var (
		dateStr      string
		startStr     string
		endStr       string
		title        string
		description  string
		location     string
		team         string
		calendarName string
		force        bool
		sendUpdates  bool
	)

	cmd := &cobra.Command{
		Use:   "schedule [attendee emails...]",
		Short: "Validate and create a calendar event",
		Long: `Validate a meeting request and, when nothing blocks it, create the
event on the target calendar.

Attendee addresses are checked for typos and disposable domains before
any remote call. The full validation pipeline then runs; a blocking
issue stops creation unless --force is given. Warnings never block.

  conflictfewer schedule --date 30-09-2026 --start 14:00 --end 1h \
      --title "Design review" alice@example.com bob@example.com`,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := context.Background()
			app, err := newApp(ctx)
			if err != nil {
				return err
			}
			defer app.Close(ctx)

			date, start, end, window, err := app.resolveWindow(dateStr, startStr, endStr)
			if err != nil {
				return err
			}
			if !window.Start.After(time.Now()) {
				return fmt.Errorf("meeting start %s is in the past", window.Start.Format(time.RFC3339))
			}

			attendees, err := app.expandAttendees(args, team)
			if err != nil {
				return err
			}
			if err := vetAttendees(attendees); err != nil {
				return err
			}

			client, err := app.calendarClient(ctx)
			if err != nil {
				return err
			}

			ctx, span := instrumentation.StartCommandSpan(ctx, "schedule",
				instrumentation.NewSpanAttributeBuilder().
					WithCommand("schedule").
					WithAccount(app.account()).
					WithAttendees(len(attendees)).
					Build()...)
			defer span.End()

			invocation := instrumentation.NewCommandInvocation("schedule").
				WithAccount(app.account()).
				WithAttendees(len(attendees)).
				WithSpanContext(ctx)
			if organizer, err := client.OrganizerEmail(ctx); err == nil {
				invocation.WithOrganizer(organizer)
			}

			engine := app.policyEngine()
			orchestrator := validation.NewOrchestrator(app.coordinator(client), engine, app.logger)

			app.thoughts.Thinkf(reasoning.TypePlanning, "validating %q before creation", title)
			verdict := orchestrator.Validate(ctx, validation.EventDetails{
				Title:     title,
				Date:      date,
				Start:     start,
				End:       end,
				Window:    window,
				Attendees: attendees,
				Location:  location,
			})

			recordVerdict(ctx, app, verdict)
			recordPolicyViolations(ctx, app, engine, policy.EventSummary{
				Date:          date,
				Start:         start,
				End:           end,
				AttendeeCount: len(attendees),
			})

			printVerdict(verdict)
			if !verdict.Valid {
				if !force {
					err := fmt.Errorf("%d blocking issue(s) found; re-run with --force to schedule anyway", len(verdict.Issues()))
					app.audit.LogCommandInvocation(invocation.CompleteWithError(err))
					instrumentation.SetSpanError(span, err)
					return err
				}
				app.thoughts.Think(reasoning.TypeDecision, "blocking issues overridden by --force")
				fmt.Println("Blocking issues overridden by --force.")
			}

			if calendarName == "" {
				calendarName = app.cfg.Calendar
			}
			calendarID, err := client.ResolveCalendarID(ctx, calendarName)
			if err != nil {
				app.audit.LogCommandInvocation(invocation.CompleteWithError(err))
				instrumentation.SetSpanError(span, err)
				return err
			}

			created, err := client.CreateEvent(ctx, calendarID, calendar.EventInput{
				Title:       title,
				Description: description,
				Location:    location,
				Window:      window,
				Attendees:   attendees,
				SendUpdates: sendUpdates,
			})
			if err != nil {
				app.audit.LogCommandInvocation(invocation.CompleteWithError(err))
				instrumentation.SetSpanError(span, err)
				return fmt.Errorf("failed to create event: %w", err)
			}

			if m := app.provider.Metrics(); m != nil {
				m.RecordEventCreated(ctx, app.account())
			}
			invocation.WithEvent(created.ID).CompleteSuccess()
			app.audit.LogCommandInvocation(invocation)
			app.audit.LogCommandAudit(invocation)
			instrumentation.SetSpanSuccess(span)

			rememberEvent(ctx, app, created, title)

			fmt.Printf("Event created: %s\n", created.ID)
			if created.HTMLLink != "" {
				fmt.Printf("  %s\n", created.HTMLLink)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&dateStr, "date", "", "Meeting date (DD-MM-YYYY or YYYY-MM-DD)")
	cmd.Flags().StringVar(&startStr, "start", "", "Start time (HH:MM)")
	cmd.Flags().StringVar(&endStr, "end", "", "End time (HH:MM) or duration (e.g. 1h, 90m)")
	cmd.Flags().StringVar(&title, "title", "", "Meeting title")
	cmd.Flags().StringVar(&description, "description", "", "Meeting description")
	cmd.Flags().StringVar(&location, "location", "", "Meeting location or room")
	cmd.Flags().StringVar(&team, "team", "", "Add every member of this roster team as an attendee")
	cmd.Flags().StringVar(&calendarName, "calendar", "", "Target calendar name or ID (default: from config)")
	cmd.Flags().BoolVar(&force, "force", false, "Create the event even when blocking issues were found")
	cmd.Flags().BoolVar(&sendUpdates, "send-updates", true, "Email attendees about the new event")
	_ = cmd.MarkFlagRequired("date")
	_ = cmd.MarkFlagRequired("start")
	_ = cmd.MarkFlagRequired("end")
	_ = cmd.MarkFlagRequired("title")

	return cmd
}

// vetAttendees rejects syntactically broken or disposable addresses before
// any remote call and points out likely domain typos.
func vetAttendees(attendees []string) error {
	report := emailutil.Validate(attendees)
	if report.Clean() {
		return nil
	}

	var problems []string
	for _, inv := range report.Invalid {
		problems = append(problems, fmt.Sprintf("%s: %s", inv.Email, inv.Reason))
	}
	for _, typo := range report.TypoSuggestions {
		problems = append(problems, fmt.Sprintf("%s: did you mean %s?", typo.Original, typo.Suggestion))
	}
	return fmt.Errorf("attendee address problems:\n  %s", strings.Join(problems, "\n  "))
}

// rememberEvent appends the created event to the session history when
// session persistence is configured. Failures are logged, never fatal;
// the event already exists on the calendar.
func rememberEvent(ctx context.Context, a *app, created *calendar.CreatedEvent, title string) {
	if a.cfg.SessionDB == "" {
		return
	}

	store, err := session.Open(a.cfg.SessionDB)
	if err != nil {
		a.logger.Warn("failed to open session store", logging.Err(err))
		return
	}
	defer store.Close()

	sess, err := store.LatestSession(ctx, a.account())
	if err != nil {
		sess, err = store.CreateSession(ctx, a.account())
		if err != nil {
			a.logger.Warn("failed to create session", logging.Err(err))
			return
		}
	}

	summary := fmt.Sprintf("scheduled %q (%s)", title, created.Window)
	if _, err := store.AppendMessage(ctx, sess.ID, "assistant", summary); err != nil {
		a.logger.Warn("failed to append session message", logging.Err(err))
	}
	if _, err := store.RecordEvent(ctx, sess.ID, created.ID, created.CalendarID, title, created.HTMLLink, created.Window); err != nil {
		a.logger.Warn("failed to record scheduled event", logging.Err(err))
	}
}
