package core

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"
)

// PackageReconciler converges the set of required system packages.
type PackageReconciler struct {
	prof    *Profile
	probes  *Probes
	runner  Runner
	confirm Confirmer
	out     io.Writer
}

// NewPackageReconciler creates a PackageReconciler.
func NewPackageReconciler(prof *Profile, probes *Probes, runner Runner, confirm Confirmer, out io.Writer) *PackageReconciler {
	return &PackageReconciler{prof: prof, probes: probes, runner: runner, confirm: confirm, out: out}
}

// Missing returns the required packages not currently installed, in the
// profile's order.
func (r *PackageReconciler) Missing(ctx context.Context) []string {
	var missing []string
	for _, pkg := range r.prof.RequiredPackages {
		if !r.probes.PackageInstalled(ctx, pkg) {
			missing = append(missing, pkg)
		}
	}
	return missing
}

// Reconcile installs whatever is missing from the required package set.
// When nothing is missing it issues no package-manager commands at all, not
// even an index refresh.
func (r *PackageReconciler) Reconcile(ctx context.Context) error {
	missing := r.Missing(ctx)
	if len(missing) == 0 {
		fmt.Fprintln(r.out, "Required packages: already installed")
		return nil
	}

	fmt.Fprintf(r.out, "Missing packages: %s\n", strings.Join(missing, ", "))
	ok, err := r.confirm.Confirm(fmt.Sprintf("Install %d missing package(s)?", len(missing)))
	if err != nil {
		return fmt.Errorf("reading confirmation: %w", err)
	}
	if !ok {
		return fmt.Errorf("package installation: %w", ErrDeclined)
	}

	// Best-effort: a stale third-party source list makes the index refresh
	// fail outright on some hosts. It usually does not exist.
	_ = os.Remove(r.probes.StaleSourcePath())

	// One batched refresh and one batched install, never per-package calls.
	if err := r.runner.Run(ctx, "apt-get", "update"); err != nil {
		return fmt.Errorf("refreshing package index: %w", err)
	}
	args := append([]string{"install", "-y"}, missing...)
	if err := r.runner.Run(ctx, "apt-get", args...); err != nil {
		return fmt.Errorf("installing packages: %w", err)
	}

	fmt.Fprintf(r.out, "Installed: %s\n", strings.Join(missing, ", "))
	return nil
}

// RemoveAll uninstalls the required package set. Used by the decommissioner
// behind an explicit flag, since these are shared host tools.
func (r *PackageReconciler) RemoveAll(ctx context.Context) error {
	var installed []string
	for _, pkg := range r.prof.RequiredPackages {
		if r.probes.PackageInstalled(ctx, pkg) {
			installed = append(installed, pkg)
		}
	}
	if len(installed) == 0 {
		fmt.Fprintln(r.out, "Required packages: none installed")
		return nil
	}
	args := append([]string{"remove", "-y"}, installed...)
	if err := r.runner.Run(ctx, "apt-get", args...); err != nil {
		return fmt.Errorf("removing packages: %w", err)
	}
	fmt.Fprintf(r.out, "Removed: %s\n", strings.Join(installed, ", "))
	return nil
}
