package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/teemow/conflictfewer/internal/calendar"
	"github.com/teemow/conflictfewer/internal/instrumentation"
	"github.com/teemow/conflictfewer/internal/reasoning"
	"github.com/teemow/conflictfewer/internal/timeutil"
)

func newConflictsCmd() *cobra.Command {
	var (
		dateStr  string
		startStr string
		endStr   string
	)

	cmd := &cobra.Command{
		Use:   "conflicts",
		Short: "List your own events overlapping a time window",
		Long: `List the events already on your calendars that overlap the given
window, with the calendar each one lives on. Use this to see what a new
meeting would collide with before scheduling it.

  conflictfewer conflicts --date 30-09-2026 --start 14:00 --end 1h`,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := context.Background()
			app, err := newApp(ctx)
			if err != nil {
				return err
			}
			defer app.Close(ctx)

			_, _, _, window, err := app.resolveWindow(dateStr, startStr, endStr)
			if err != nil {
				return err
			}

			client, err := app.calendarClient(ctx)
			if err != nil {
				return err
			}

			ctx, span := instrumentation.StartCommandSpan(ctx, "conflicts",
				instrumentation.NewSpanAttributeBuilder().
					WithCommand("conflicts").
					WithAccount(app.account()).
					Build()...)
			defer span.End()

			invocation := instrumentation.NewCommandInvocation("conflicts").
				WithAccount(app.account()).
				WithSpanContext(ctx)

			app.thoughts.Thinkf(reasoning.TypeAnalysis, "scanning calendars for events over %s", window)

			conflicts, err := client.ListConflicts(ctx, window)
			if err != nil {
				app.audit.LogCommandInvocation(invocation.CompleteWithError(err))
				instrumentation.SetSpanError(span, err)
				return err
			}

			app.audit.LogCommandInvocation(invocation.CompleteSuccess())
			instrumentation.SetSpanSuccess(span)

			printConflicts(window, conflicts)
			return nil
		},
	}

	cmd.Flags().StringVar(&dateStr, "date", "", "Meeting date (DD-MM-YYYY or YYYY-MM-DD)")
	cmd.Flags().StringVar(&startStr, "start", "", "Start time (HH:MM)")
	cmd.Flags().StringVar(&endStr, "end", "", "End time (HH:MM) or duration (e.g. 1h, 90m)")
	_ = cmd.MarkFlagRequired("date")
	_ = cmd.MarkFlagRequired("start")
	_ = cmd.MarkFlagRequired("end")

	return cmd
}

// printConflicts renders the overlapping events in conflicts' output format.
func printConflicts(window timeutil.Interval, events []calendar.EventSummary) {
	fmt.Printf("Window: %s\n", window)

	if len(events) == 0 {
		fmt.Println("No conflicting events.")
		return
	}

	for _, ev := range events {
		title := ev.Summary
		if title == "" {
			title = "(no title)"
		}
		fmt.Printf("  %s - %s UTC  %s", ev.Start.Format("15:04"), ev.End.Format("15:04"), title)
		if ev.CalendarSummary != "" {
			fmt.Printf("  [%s]", ev.CalendarSummary)
		}
		fmt.Println()
	}
	fmt.Printf("%d conflicting event(s).\n", len(events))
}
