package cmd

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/teemow/conflictfewer/internal/session"
)

func newHistoryCmd() *cobra.Command {
	var (
		sessionID string
		clear     bool
	)

	cmd := &cobra.Command{
		Use:   "history",
		Short: "Show scheduling history from the session store",
		Long: `Show the messages and events recorded in the session store.

Without --session the account's most recent session is shown. --clear
deletes the shown session together with its history.

  conflictfewer history
  conflictfewer history --session 4f1c0c8e-... --clear`,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := context.Background()
			app, err := newApp(ctx)
			if err != nil {
				return err
			}
			defer app.Close(ctx)

			if app.cfg.SessionDB == "" {
				return fmt.Errorf("no session_db configured; nothing to show")
			}

			store, err := session.Open(app.cfg.SessionDB)
			if err != nil {
				return err
			}
			defer store.Close()

			sess, err := resolveSession(ctx, store, app.account(), sessionID)
			if errors.Is(err, session.ErrNotFound) {
				fmt.Println("No sessions recorded yet.")
				return nil
			}
			if err != nil {
				return err
			}

			if clear {
				if err := store.DeleteSession(ctx, sess.ID); err != nil {
					return err
				}
				fmt.Printf("Deleted session %s.\n", sess.ID)
				return nil
			}

			messages, err := store.Messages(ctx, sess.ID)
			if err != nil {
				return err
			}
			events, err := store.Events(ctx, sess.ID)
			if err != nil {
				return err
			}

			printHistory(sess, messages, events)
			return nil
		},
	}

	cmd.Flags().StringVar(&sessionID, "session", "", "Session ID (default: the account's most recent session)")
	cmd.Flags().BoolVar(&clear, "clear", false, "Delete the session and its history")

	return cmd
}

// resolveSession picks the session to operate on: an explicit ID when
// given, otherwise the account's most recent one.
func resolveSession(ctx context.Context, store *session.Store, account, id string) (session.Session, error) {
	if id != "" {
		return store.GetSession(ctx, id)
	}
	return store.LatestSession(ctx, account)
}

func printHistory(sess session.Session, messages []session.Message, events []session.ScheduledEvent) {
	fmt.Printf("Session %s (account %s, updated %s)\n",
		sess.ID, sess.Account, sess.UpdatedAt.Format(time.RFC3339))

	for _, m := range messages {
		fmt.Printf("  %s  %-9s %s\n", m.CreatedAt.Format("2006-01-02 15:04"), m.Role, m.Content)
	}

	if len(events) == 0 {
		return
	}
	fmt.Println("Scheduled events:")
	for _, ev := range events {
		fmt.Printf("  %s  %q  %s - %s UTC\n",
			ev.Start.Format("2006-01-02"), ev.Title,
			ev.Start.Format("15:04"), ev.End.Format("15:04"))
		if ev.HTMLLink != "" {
			fmt.Printf("    %s\n", ev.HTMLLink)
		}
	}
}
