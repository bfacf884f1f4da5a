package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

// Version info set via ldflags at build time.
var (
	Version = "dev"
	Commit  = "unknown"
	Date    = "unknown"
)

var rootCmd = &cobra.Command{
	Use:   "hostprep",
	Short: "Provision a Linux host for the Golem provider and Idle Finance desktop app",
	Long: `Hostprep brings a Linux host to a known-good state for running the Golem
provider agent and the Idle Finance desktop application: required packages,
KVM kernel support, the agent itself, and the desktop app.

Every step checks the host state first and only applies what is missing, so
re-running after a failure is always safe. A matching teardown command
reverses the setup.`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("hostprep %s (commit: %s, built: %s)\n", Version, Commit, Date)
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}
