package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/teemow/conflictfewer/internal/google"
)

func newAuthCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "auth [authorization-code]",
		Short: "Authorize access to a Google Calendar account",
		Long: `Authorize conflictfewer to read and write a Google Calendar.

Without arguments, prints the authorization URL to visit. Visit it,
grant access, then run the command again with the code Google returns:

  conflictfewer auth
  conflictfewer auth 4/0Afx...

Tokens are stored per account; use --account to keep several.
GOOGLE_OAUTH_CLIENT_ID and GOOGLE_OAUTH_CLIENT_SECRET must be set.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			account := accountFlag
			if account == "" {
				account = "default"
			}

			if len(args) == 0 {
				fmt.Println("Visit the following URL to authorize access:")
				fmt.Println()
				fmt.Println("  " + google.GetAuthURLForAccount(account))
				fmt.Println()
				fmt.Println("Then run: conflictfewer auth <code>")
				return nil
			}

			if err := google.SaveTokenForAccount(context.Background(), account, args[0]); err != nil {
				return fmt.Errorf("failed to save token for account %s: %w", account, err)
			}
			fmt.Printf("Token saved for account %q.\n", account)
			return nil
		},
	}
	return cmd
}
