package cmd

import (
	"os"

	"github.com/spf13/cobra"
)

var (
	cfgFile     string
	accountFlag string
	metricsAddr string
	verbose     bool
)

// rootCmd represents the base command for the conflictfewer application
var rootCmd = &cobra.Command{
	Use:   "conflictfewer",
	Short: "Schedules Google Calendar meetings without conflicts",
	Long: `conflictfewer resolves a meeting request into a validated,
conflict-free Google Calendar event.

It checks every attendee's availability in parallel, validates the
request against calendar conflicts, room needs, timezone sanity and
scheduling policies, and only creates the event when nothing blocks it.`,
	SilenceUsage: true,
}

// version will be set by main
var version = "dev"

// SetVersion sets the version for the root command
func SetVersion(v string) {
	version = v
	rootCmd.Version = v
}

// Execute is the main entry point for the CLI application
func Execute() {
	rootCmd.SetVersionTemplate(`{{printf "conflictfewer version %s\n" .Version}}`)

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "Config file (default: ./conflictfewer.yaml, then ~/.config/conflictfewer/)")
	rootCmd.PersistentFlags().StringVar(&accountFlag, "account", "", "Google account name to use (default: 'default')")
	rootCmd.PersistentFlags().StringVar(&metricsAddr, "metrics-addr", "", "Expose Prometheus metrics on this address (e.g. :9090)")
	rootCmd.PersistentFlags().BoolVar(&verbose, "verbose", false, "Log the scheduling reasoning while commands run")

	rootCmd.AddCommand(newAuthCmd())
	rootCmd.AddCommand(newCheckCmd())
	rootCmd.AddCommand(newConflictsCmd())
	rootCmd.AddCommand(newValidateCmd())
	rootCmd.AddCommand(newScheduleCmd())
	rootCmd.AddCommand(newHistoryCmd())
	rootCmd.AddCommand(newSlotsCmd())
	rootCmd.AddCommand(newVersionCmd())
}
