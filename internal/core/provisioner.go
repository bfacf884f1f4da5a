package core

import (
	"context"
	"fmt"
	"io"
)

// Provisioner runs the ordered provisioning steps. Strictly sequential: a
// step starts only after the previous one finished, and a fatal step error
// aborts the whole run. Already-completed idempotent steps stay in place;
// re-running the provisioner is the recovery path.
type Provisioner struct {
	cfg     *RunConfig
	prof    *Profile
	probes  *Probes
	runner  Runner
	confirm Confirmer
	chooser FormatChooser
	out     io.Writer
	errW    io.Writer
}

// NewProvisioner creates a Provisioner.
func NewProvisioner(cfg *RunConfig, prof *Profile, probes *Probes, runner Runner, confirm Confirmer, chooser FormatChooser, out, errW io.Writer) *Provisioner {
	return &Provisioner{
		cfg: cfg, prof: prof, probes: probes, runner: runner,
		confirm: confirm, chooser: chooser, out: out, errW: errW,
	}
}

// Run executes the provisioning sequence and returns the final verification
// report. The report is built even when every step was a no-op because the
// host was already converged.
func (p *Provisioner) Run(ctx context.Context) (*Report, error) {
	pre := NewPreflightChecker(p.probes, p.runner, p.confirm, p.out, p.errW)
	if err := pre.Check(); err != nil {
		return nil, fmt.Errorf("preflight: %w", err)
	}

	pkgs := NewPackageReconciler(p.prof, p.probes, p.runner, p.confirm, p.out)
	if err := pkgs.Reconcile(ctx); err != nil {
		return nil, fmt.Errorf("packages: %w", err)
	}

	kernel := NewKernelReconciler(p.cfg, p.prof, p.probes, p.runner, p.confirm, p.out)
	if err := kernel.Reconcile(ctx); err != nil {
		return nil, fmt.Errorf("kernel: %w", err)
	}

	agent := NewAgentInstaller(p.cfg, p.prof, p.probes, p.runner, p.confirm, p.out)
	if err := agent.Reconcile(ctx); err != nil {
		return nil, fmt.Errorf("agent: %w", err)
	}

	desktop := NewDesktopInstaller(p.cfg, p.prof, p.probes, p.runner, p.chooser, p.out, p.errW)
	if err := desktop.Reconcile(ctx); err != nil {
		return nil, fmt.Errorf("desktop: %w", err)
	}

	return NewReporter(p.cfg, p.prof, p.probes).Build(ctx, true), nil
}
