package cmd

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/teemow/conflictfewer/internal/instrumentation"
	"github.com/teemow/conflictfewer/internal/reasoning"
	"github.com/teemow/conflictfewer/internal/timeutil"
)

func newSlotsCmd() *cobra.Command {
	var (
		dateStr     string
		fromStr     string
		toStr       string
		durationStr string
		team        string
	)

	cmd := &cobra.Command{
		Use:   "slots [attendee emails...]",
		Short: "Find open slots where every attendee is free",
		Long: `Scan a search window for gaps long enough to hold the meeting,
merging every attendee's busy time.

  conflictfewer slots --date 30-09-2026 --from 09:00 --to 17:00 --duration 1h alice@example.com`,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := context.Background()
			app, err := newApp(ctx)
			if err != nil {
				return err
			}
			defer app.Close(ctx)

			_, _, _, window, err := app.resolveWindow(dateStr, fromStr, toStr)
			if err != nil {
				return err
			}

			tok, err := timeutil.ParseTimeOrDuration(durationStr)
			if err != nil {
				return err
			}
			if !tok.IsDuration {
				return fmt.Errorf("--duration expects a length like 1h or 30m, got %q", durationStr)
			}
			if tok.Duration > window.Duration() {
				return fmt.Errorf("duration %s does not fit the %s search window", tok.Duration, window.Duration())
			}

			attendees, err := app.expandAttendees(args, team)
			if err != nil {
				return err
			}

			client, err := app.calendarClient(ctx)
			if err != nil {
				return err
			}

			ctx, span := instrumentation.StartCommandSpan(ctx, "slots",
				instrumentation.NewSpanAttributeBuilder().
					WithCommand("slots").
					WithAccount(app.account()).
					WithAttendees(len(attendees)).
					Build()...)
			defer span.End()

			app.thoughts.Thinkf(reasoning.TypeAnalysis, "searching %s for %s gaps", window, tok.Duration)

			slots, err := client.FindAvailableSlots(ctx, attendees, tok.Duration, window)
			if err != nil {
				instrumentation.SetSpanError(span, err)
				return err
			}
			instrumentation.SetSpanSuccess(span)

			if len(slots) == 0 {
				fmt.Println("No open slots found.")
				return nil
			}

			fmt.Printf("Open slots of at least %s:\n", tok.Duration)
			for _, slot := range slots {
				fmt.Printf("  %s - %s (%s)\n",
					slot.Start.In(app.loc).Format("15:04"),
					slot.End.In(app.loc).Format("15:04"),
					slot.Duration.Round(time.Minute))
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&dateStr, "date", "", "Search date (DD-MM-YYYY or YYYY-MM-DD)")
	cmd.Flags().StringVar(&fromStr, "from", "09:00", "Search window start (HH:MM)")
	cmd.Flags().StringVar(&toStr, "to", "17:00", "Search window end (HH:MM)")
	cmd.Flags().StringVar(&durationStr, "duration", "1h", "Required meeting length (e.g. 1h, 30m)")
	cmd.Flags().StringVar(&team, "team", "", "Add every member of this roster team as an attendee")
	_ = cmd.MarkFlagRequired("date")

	return cmd
}
