package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/teemow/conflictfewer/internal/instrumentation"
	"github.com/teemow/conflictfewer/internal/policy"
	"github.com/teemow/conflictfewer/internal/reasoning"
	"github.com/teemow/conflictfewer/internal/validation"
)

func newValidateCmd() *cobra.Command {
	var (
		dateStr  string
		startStr string
		endStr   string
		title    string
		location string
		team     string
	)

	cmd := &cobra.Command{
		Use:   "validate [attendee emails...]",
		Short: "Validate a meeting without creating it",
		Long: `Run the full validation pipeline for a meeting request: calendar
conflicts, room availability, timezone sanity and policy compliance.
The four dimensions run concurrently and each reports separately.

The command exits non-zero when a blocking issue is found. Warnings are
printed but never block.`,
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
			attendees, err := app.expandAttendees(args, team)
			if err != nil {
				return err
			}

			client, err := app.calendarClient(ctx)
			if err != nil {
				return err
			}

			ctx, span := instrumentation.StartCommandSpan(ctx, "validate",
				instrumentation.NewSpanAttributeBuilder().
					WithCommand("validate").
					WithAccount(app.account()).
					WithAttendees(len(attendees)).
					Build()...)
			defer span.End()

			invocation := instrumentation.NewCommandInvocation("validate").
				WithAccount(app.account()).
				WithAttendees(len(attendees)).
				WithSpanContext(ctx)

			app.thoughts.Thinkf(reasoning.TypePlanning, "validating %q across all dimensions", title)

			engine := app.policyEngine()
			orchestrator := validation.NewOrchestrator(app.coordinator(client), engine, app.logger)
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
			app.audit.LogCommandInvocation(invocation.CompleteSuccess())
			instrumentation.SetSpanSuccess(span)

			printVerdict(verdict)
			if !verdict.Valid {
				return fmt.Errorf("%d blocking issue(s) found", len(verdict.Issues()))
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&dateStr, "date", "", "Meeting date (DD-MM-YYYY or YYYY-MM-DD)")
	cmd.Flags().StringVar(&startStr, "start", "", "Start time (HH:MM)")
	cmd.Flags().StringVar(&endStr, "end", "", "End time (HH:MM) or duration (e.g. 1h, 90m)")
	cmd.Flags().StringVar(&title, "title", "", "Meeting title")
	cmd.Flags().StringVar(&location, "location", "", "Meeting location or room")
	cmd.Flags().StringVar(&team, "team", "", "Add every member of this roster team as an attendee")
	_ = cmd.MarkFlagRequired("date")
	_ = cmd.MarkFlagRequired("start")
	_ = cmd.MarkFlagRequired("end")

	return cmd
}

// recordVerdict feeds validation outcomes into metrics.
func recordVerdict(ctx context.Context, a *app, verdict *validation.Verdict) {
	m := a.provider.Metrics()
	if m == nil {
		return
	}

	status := instrumentation.StatusValid
	if !verdict.Valid {
		status = instrumentation.StatusInvalid
	}
	m.RecordValidation(ctx, status)

	for dim, result := range verdict.Results {
		dimStatus := instrumentation.StatusValid
		if len(result.Issues) > 0 {
			dimStatus = instrumentation.StatusInvalid
		}
		m.RecordValidationDimension(ctx, string(dim), dimStatus, result.Elapsed)
	}
}

// recordPolicyViolations evaluates the rules once more for metrics; the
// evaluators are pure so the extra pass is free of side effects.
func recordPolicyViolations(ctx context.Context, a *app, engine *policy.Engine, event policy.EventSummary) {
	m := a.provider.Metrics()
	if m == nil {
		return
	}
	for _, v := range engine.Check(event) {
		m.RecordPolicyViolation(ctx, v.RuleID, string(v.Severity))
	}
}

func printVerdict(verdict *validation.Verdict) {
	if verdict.Valid {
		fmt.Println("Validation passed.")
	} else {
		fmt.Println("Validation FAILED.")
	}

	for _, issue := range verdict.Issues() {
		fmt.Printf("  blocking  %s\n", issue)
	}
	for _, warning := range verdict.Warnings() {
		fmt.Printf("  warning   %s\n", warning)
	}
}
