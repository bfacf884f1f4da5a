package core

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
)

// Decommissioner reverses the provisioning steps. Every removal is guarded
// by an existence check, so re-running after partial completion is safe.
type Decommissioner struct {
	cfg           *RunConfig
	prof          *Profile
	probes        *Probes
	runner        Runner
	confirm       Confirmer
	out           io.Writer
	errW          io.Writer
	PurgePackages bool
}

// NewDecommissioner creates a Decommissioner.
func NewDecommissioner(cfg *RunConfig, prof *Profile, probes *Probes, runner Runner, confirm Confirmer, out, errW io.Writer) *Decommissioner {
	return &Decommissioner{
		cfg: cfg, prof: prof, probes: probes, runner: runner,
		confirm: confirm, out: out, errW: errW,
	}
}

// Run executes the teardown sequence and returns the absence report.
func (d *Decommissioner) Run(ctx context.Context) (*Report, error) {
	ok, err := d.confirm.Confirm("Remove the provider agent, desktop app, and KVM configuration from this host?")
	if err != nil {
		return nil, fmt.Errorf("reading confirmation: %w", err)
	}
	if !ok {
		return nil, fmt.Errorf("teardown: %w", ErrDeclined)
	}

	d.stopAgent(ctx)
	d.removeAgentFiles()
	d.stripConfigLines()
	d.removeUdevRule()
	d.revertGroupMembership(ctx)

	if err := d.removeDesktop(ctx); err != nil {
		return nil, fmt.Errorf("desktop: %w", err)
	}

	if d.PurgePackages {
		pkgs := NewPackageReconciler(d.prof, d.probes, d.runner, d.confirm, d.out)
		if err := pkgs.RemoveAll(ctx); err != nil {
			return nil, fmt.Errorf("packages: %w", err)
		}
	}

	return NewReporter(d.cfg, d.prof, d.probes).Build(ctx, false), nil
}

// stopAgent stops the provider if it is running. Best-effort: the agent or
// its daemon may not be installed or running at all.
func (d *Decommissioner) stopAgent(ctx context.Context) {
	if !d.probes.AgentInstalled() {
		return
	}
	bin, err := d.runner.LookPath(d.prof.AgentBinary)
	if err != nil {
		// Installed but not on PATH means the user-local bin dir.
		bin = filepath.Join(d.probes.LocalBinDir(), d.prof.AgentBinary)
	}
	fmt.Fprintln(d.out, "Stopping provider agent...")
	if err := d.runner.Run(ctx, bin, "stop"); err != nil {
		fmt.Fprintf(d.errW, "Warning: stopping agent: %v\n", err)
	}
	_ = d.runner.Run(ctx, "pkill", "-f", "yagna")
}

// removeAgentFiles deletes the agent binary and its data directories.
func (d *Decommissioner) removeAgentFiles() {
	targets := []string{
		filepath.Join(d.probes.LocalBinDir(), d.prof.AgentBinary),
		filepath.Join(d.probes.home, ".local/share/yagna"),
		filepath.Join(d.probes.home, ".local/share/ya-provider"),
	}
	for _, t := range targets {
		if _, err := os.Stat(t); err != nil {
			continue
		}
		if err := os.RemoveAll(t); err != nil {
			fmt.Fprintf(d.errW, "Warning: removing %s: %v\n", t, err)
			continue
		}
		fmt.Fprintf(d.out, "Removed %s\n", t)
	}
}

// stripConfigLines removes the PATH line and the boot-module lines that
// provisioning appended. Both KVM vendor modules are stripped regardless of
// the current CPU, in case the disk moved between machines.
func (d *Decommissioner) stripConfigLines() {
	if removed, err := RemoveLine(d.probes.ShellRCPath(), pathLine); err != nil {
		fmt.Fprintf(d.errW, "Warning: %v\n", err)
	} else if removed {
		fmt.Fprintf(d.out, "Removed PATH line from %s\n", d.probes.ShellRCPath())
	}

	bootPath := d.probes.BootModulesPath()
	for _, line := range []string{"kvm", "kvm_intel", "kvm_amd"} {
		if removed, err := RemoveLine(bootPath, line); err != nil {
			fmt.Fprintf(d.errW, "Warning: %v\n", err)
		} else if removed {
			fmt.Fprintf(d.out, "Removed %q from %s\n", line, bootPath)
		}
	}
}

func (d *Decommissioner) removeUdevRule() {
	path := d.probes.UdevRulePath()
	if _, err := os.Stat(path); err != nil {
		return
	}
	if err := os.Remove(path); err != nil {
		fmt.Fprintf(d.errW, "Warning: removing udev rule: %v\n", err)
		return
	}
	fmt.Fprintf(d.out, "Removed %s\n", path)
}

func (d *Decommissioner) revertGroupMembership(ctx context.Context) {
	group := d.prof.KVMGroup
	if !d.probes.UserInGroup(ctx, group) {
		return
	}
	if err := d.runner.Run(ctx, "gpasswd", "-d", d.probes.User(), group); err != nil {
		fmt.Fprintf(d.errW, "Warning: removing %s from group %s: %v\n", d.probes.User(), group, err)
		return
	}
	fmt.Fprintf(d.out, "Removed %s from group %s\n", d.probes.User(), group)
}

// removeDesktop uninstalls the desktop app in whichever form it is present.
func (d *Decommissioner) removeDesktop(ctx context.Context) error {
	switch d.probes.DesktopInstalled(ctx) {
	case DesktopViaPackage:
		if err := d.runner.Run(ctx, "apt-get", "remove", "-y", d.prof.DesktopPackage); err != nil {
			return fmt.Errorf("removing package %s: %w", d.prof.DesktopPackage, err)
		}
		fmt.Fprintf(d.out, "Removed package %s\n", d.prof.DesktopPackage)
	case DesktopViaImage:
		for _, t := range []string{d.probes.AppImagePath(), d.probes.DesktopEntryPath()} {
			if _, err := os.Stat(t); err != nil {
				continue
			}
			if err := os.Remove(t); err != nil {
				fmt.Fprintf(d.errW, "Warning: removing %s: %v\n", t, err)
				continue
			}
			fmt.Fprintf(d.out, "Removed %s\n", t)
		}
	case DesktopMissing:
		fmt.Fprintln(d.out, "Desktop app: not installed")
	}
	return nil
}
