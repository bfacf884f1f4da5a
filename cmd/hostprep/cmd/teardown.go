package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/idle-finance/hostprep/internal/core"
	"github.com/idle-finance/hostprep/internal/ui"
)

var teardownCmd = &cobra.Command{
	Use:   "teardown",
	Short: "Reverse the provisioning steps on this host",
	Long: `Stop the provider agent, remove its files, strip the boot and PATH
configuration lines, drop the kvm group membership, remove the udev rule, and
uninstall the desktop app. Every removal is guarded by an existence check, so
re-running after a partial teardown is safe.

System packages installed by provisioning are shared host tools and are kept
unless --purge-packages is given.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		d, err := newDeps()
		if err != nil {
			return err
		}

		if yes, _ := cmd.Flags().GetBool("yes"); yes {
			d.cfg.AutoConfirm = true
		}

		dec := core.NewDecommissioner(d.cfg, d.prof, d.probes, d.runner,
			d.confirmer(), os.Stdout, os.Stderr)
		dec.PurgePackages, _ = cmd.Flags().GetBool("purge-packages")

		report, err := dec.Run(cmd.Context())
		if err != nil {
			return err
		}

		fmt.Fprint(os.Stdout, ui.RenderReport("Teardown report", report))
		return nil
	},
}

func init() {
	teardownCmd.Flags().BoolP("yes", "y", false, "Assume yes for all confirmations")
	teardownCmd.Flags().Bool("purge-packages", false, "Also remove the required system packages")
	rootCmd.AddCommand(teardownCmd)
}
