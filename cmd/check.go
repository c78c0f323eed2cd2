package cmd

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/spf13/cobra"

	"github.com/teemow/conflictfewer/internal/availability"
	"github.com/teemow/conflictfewer/internal/instrumentation"
	"github.com/teemow/conflictfewer/internal/reasoning"
)

func newCheckCmd() *cobra.Command {
	var (
		dateStr  string
		startStr string
		endStr   string
		team     string
	)

	cmd := &cobra.Command{
		Use:   "check [attendee emails...]",
		Short: "Check attendee availability for a time window",
		Long: `Check every attendee's free/busy status for the given window.

All attendees are checked in parallel. An attendee whose calendar cannot
be read is reported separately and never hides the others' results.

  conflictfewer check --date 30-09-2026 --start 14:00 --end 1h alice@example.com bob@example.com
  conflictfewer check --date 2026-09-30 --start 09:00 --end 10:30 --team platform`,
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
			attendees, err := app.expandAttendees(args, team)
			if err != nil {
				return err
			}

			client, err := app.calendarClient(ctx)
			if err != nil {
				return err
			}

			ctx, span := instrumentation.StartCommandSpan(ctx, "check",
				instrumentation.NewSpanAttributeBuilder().
					WithCommand("check").
					WithAccount(app.account()).
					WithAttendees(len(attendees)).
					Build()...)
			defer span.End()

			invocation := instrumentation.NewCommandInvocation("check").
				WithAccount(app.account()).
				WithAttendees(len(attendees)).
				WithSpanContext(ctx)

			app.thoughts.Thinkf(reasoning.TypeAnalysis, "checking %d attendees over %s", len(attendees), window)

			agg := app.coordinator(client).CheckAll(ctx, attendees, window)

			if m := app.provider.Metrics(); m != nil {
				m.RecordAvailabilityCheck(ctx, agg.Total(), len(agg.Busy), len(agg.Errors), agg.ParallelizationFactor, agg.Elapsed)
			}
			app.audit.LogCommandInvocation(invocation.CompleteSuccess())
			instrumentation.SetSpanSuccess(span)

			printAggregate(agg)
			return nil
		},
	}

	cmd.Flags().StringVar(&dateStr, "date", "", "Meeting date (DD-MM-YYYY or YYYY-MM-DD)")
	cmd.Flags().StringVar(&startStr, "start", "", "Start time (HH:MM)")
	cmd.Flags().StringVar(&endStr, "end", "", "End time (HH:MM) or duration (e.g. 1h, 90m)")
	cmd.Flags().StringVar(&team, "team", "", "Add every member of this roster team as an attendee")
	_ = cmd.MarkFlagRequired("date")
	_ = cmd.MarkFlagRequired("start")
	_ = cmd.MarkFlagRequired("end")

	return cmd
}

// printAggregate renders one availability result in check's output format.
func printAggregate(agg *availability.Aggregate) {
	fmt.Printf("Window: %s\n", agg.Window)

	if agg.AllAvailable() {
		fmt.Printf("All %d attendees are available.\n", agg.Total())
	} else {
		available := append([]string(nil), agg.Available...)
		sort.Strings(available)
		for _, attendee := range available {
			fmt.Printf("  free    %s\n", attendee)
		}
		for _, attendee := range agg.BusyIdentities() {
			fmt.Printf("  busy    %s\n", attendee)
			for _, r := range agg.Busy[attendee] {
				if r.Detail != "" {
					fmt.Printf("          %s\n", r.Detail)
				} else {
					fmt.Printf("          %s - %s UTC\n", r.Start.Format("15:04"), r.End.Format("15:04"))
				}
			}
		}
		for _, attendee := range agg.ErroredIdentities() {
			fmt.Printf("  error   %s: %s\n", attendee, agg.Errors[attendee])
		}
	}

	fmt.Printf("Checked %d attendees in %s (%.1fx parallel speedup)\n",
		agg.Total(), agg.Elapsed.Round(time.Millisecond), agg.ParallelizationFactor)
}
