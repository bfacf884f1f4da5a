package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/idle-finance/hostprep/internal/core"
	"github.com/idle-finance/hostprep/internal/ui"
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show the current provisioning state of this host",
	Long: `Probe every provisioning state item (virtualization support, required
packages, KVM kernel setup, the provider agent, and the desktop app) and
print a status table. Read-only: status never changes anything.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		d, err := newDeps()
		if err != nil {
			return err
		}

		report := core.NewReporter(d.cfg, d.prof, d.probes).Build(cmd.Context(), true)
		fmt.Fprint(os.Stdout, ui.RenderReport("Host status", report))
		return nil
	},
}

func init() {
	rootCmd.AddCommand(statusCmd)
}
