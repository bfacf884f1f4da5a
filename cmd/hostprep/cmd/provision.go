package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/idle-finance/hostprep/internal/core"
	"github.com/idle-finance/hostprep/internal/ui"
)

var provisionCmd = &cobra.Command{
	Use:   "provision",
	Short: "Bring this host to the desired provider state",
	Long: `Run the full provisioning sequence: preflight checks, required packages,
KVM kernel support, the Golem provider agent, and the Idle Finance desktop
app. Steps whose target state already holds are skipped; the run always ends
with a read-only verification report.

Configuration comes from HOSTPREP_* environment variables (see the README);
flags override the environment for this run.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		d, err := newDeps()
		if err != nil {
			return err
		}

		if yes, _ := cmd.Flags().GetBool("yes"); yes {
			d.cfg.AutoConfirm = true
		}
		if skip, _ := cmd.Flags().GetBool("skip-desktop"); skip {
			d.cfg.InstallDesktop = false
		}
		if format, _ := cmd.Flags().GetString("desktop-format"); format != "" {
			parsed := core.DesktopFormat(format)
			if parsed != core.FormatDeb && parsed != core.FormatAppImage {
				return fmt.Errorf("invalid --desktop-format %q (want deb or appimage)", format)
			}
			d.cfg.DesktopFormat = parsed
		}
		if strict, _ := cmd.Flags().GetBool("strict-kvm-mode"); strict {
			// Group-only device access instead of the permissive default.
			d.cfg.KVMMode = 0o660
		}

		p := core.NewProvisioner(d.cfg, d.prof, d.probes, d.runner,
			d.confirmer(), d.chooser(), os.Stdout, os.Stderr)

		report, err := p.Run(cmd.Context())
		if err != nil {
			return err
		}

		fmt.Fprint(os.Stdout, ui.RenderReport("Provisioning report", report))
		return nil
	},
}

func init() {
	provisionCmd.Flags().BoolP("yes", "y", false, "Assume yes for all confirmations")
	provisionCmd.Flags().Bool("skip-desktop", false, "Skip the desktop app installation")
	provisionCmd.Flags().String("desktop-format", "", "Desktop app format: deb or appimage")
	provisionCmd.Flags().Bool("strict-kvm-mode", false, "Restrict /dev/kvm to the kvm group (mode 0660)")
	rootCmd.AddCommand(provisionCmd)
}
