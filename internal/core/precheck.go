package core

import (
	"fmt"
	"io"
)

// PreflightChecker validates host capabilities before anything mutates.
type PreflightChecker struct {
	probes  *Probes
	runner  Runner
	confirm Confirmer
	out     io.Writer
	errW    io.Writer
}

// NewPreflightChecker creates a PreflightChecker.
func NewPreflightChecker(probes *Probes, runner Runner, confirm Confirmer, out, errW io.Writer) *PreflightChecker {
	return &PreflightChecker{probes: probes, runner: runner, confirm: confirm, out: out, errW: errW}
}

// Check runs the preflight validations. Package-manager absence is fatal;
// missing virtualization support requires an explicit decision to continue,
// since the KVM setup that follows will not function without it.
func (c *PreflightChecker) Check() error {
	// Exactly one package manager family is supported. Guessing at another
	// manager's flags would do more damage than failing fast.
	if _, err := c.runner.LookPath("apt-get"); err != nil {
		return fmt.Errorf("no supported package manager found (apt-get is required): %w", err)
	}

	supported, err := c.probes.VirtualizationSupported()
	if err != nil {
		return fmt.Errorf("checking virtualization support: %w", err)
	}
	if supported {
		fmt.Fprintln(c.out, "CPU virtualization support: present")
		return nil
	}

	fmt.Fprintln(c.errW, "Warning: CPU virtualization flags (vmx/svm) not found; KVM acceleration will not work.")
	ok, err := c.confirm.Confirm("Continue without virtualization support?")
	if err != nil {
		return fmt.Errorf("reading confirmation: %w", err)
	}
	if !ok {
		return fmt.Errorf("virtualization support missing: %w", ErrDeclined)
	}
	fmt.Fprintln(c.out, "Continuing without virtualization support.")
	return nil
}
