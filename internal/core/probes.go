package core

import (
	"context"
	"fmt"
	"os"
	"os/user"
	"path/filepath"
	"strings"
)

// Probes reads host system state. Every state item is read fresh at its
// check site and never cached across steps; the verification report re-reads
// everything. All filesystem locations hang off a configurable root so tests
// can stage a fake host layout.
type Probes struct {
	runner Runner
	prof   *Profile

	proc    string
	etc     string
	dev     string
	binDir  string // system binary dir for the AppImage
	appsDir string // desktop-menu entries
	optDir  string

	home string
	user string
}

// NewProbes creates Probes rooted at the real filesystem, or under
// HOSTPREP_ROOT when set.
func NewProbes(r Runner, prof *Profile) (*Probes, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return nil, fmt.Errorf("resolving home directory: %w", err)
	}
	return NewProbesAt(r, prof, os.Getenv(EnvSysRoot), home), nil
}

// NewProbesAt creates Probes with an explicit system root and home directory.
func NewProbesAt(r Runner, prof *Profile, root, home string) *Probes {
	return &Probes{
		runner:  r,
		prof:    prof,
		proc:    filepath.Join(root, "/proc"),
		etc:     filepath.Join(root, "/etc"),
		dev:     filepath.Join(root, "/dev"),
		binDir:  filepath.Join(root, "/usr/local/bin"),
		appsDir: filepath.Join(root, "/usr/share/applications"),
		optDir:  filepath.Join(root, "/opt"),
		home:    home,
		user:    invokingUser(),
	}
}

// invokingUser resolves the user whose group membership is reconciled.
// Under sudo that is the original user, not root.
func invokingUser() string {
	if su := os.Getenv("SUDO_USER"); su != "" {
		return su
	}
	if u, err := user.Current(); err == nil {
		return u.Username
	}
	return os.Getenv("USER")
}

// User returns the user whose group membership is managed.
func (p *Probes) User() string { return p.user }

// Paths derived from the probe roots. Reconcilers mutate through these same
// accessors so checks and writes can never disagree about locations.

func (p *Probes) BootModulesPath() string { return filepath.Join(p.etc, "modules") }
func (p *Probes) UdevRulePath() string {
	return filepath.Join(p.etc, "udev/rules.d", p.prof.UdevRuleName)
}
func (p *Probes) DeviceNodePath() string { return filepath.Join(p.dev, "kvm") }
func (p *Probes) StaleSourcePath() string {
	return filepath.Join(p.etc, "apt/sources.list.d", p.prof.StaleSourceList)
}
func (p *Probes) ShellRCPath() string  { return filepath.Join(p.home, ".bashrc") }
func (p *Probes) LocalBinDir() string  { return filepath.Join(p.home, ".local/bin") }
func (p *Probes) SystemBinDir() string { return p.binDir }
func (p *Probes) AppImagePath() string {
	return filepath.Join(p.binDir, p.prof.DesktopBinary+".AppImage")
}
func (p *Probes) DesktopEntryPath() string {
	return filepath.Join(p.appsDir, p.prof.DesktopBinary+".desktop")
}

// VirtualizationSupported reports whether the CPU advertises hardware
// virtualization (vmx on Intel, svm on AMD).
func (p *Probes) VirtualizationSupported() (bool, error) {
	data, err := os.ReadFile(filepath.Join(p.proc, "cpuinfo"))
	if err != nil {
		return false, fmt.Errorf("reading cpuinfo: %w", err)
	}
	for _, line := range strings.Split(string(data), "\n") {
		if !strings.HasPrefix(line, "flags") {
			continue
		}
		for _, flag := range strings.Fields(line) {
			if flag == "vmx" || flag == "svm" {
				return true, nil
			}
		}
	}
	return false, nil
}

// VendorModule selects the KVM module matching the CPU vendor.
func (p *Probes) VendorModule() (string, error) {
	data, err := os.ReadFile(filepath.Join(p.proc, "cpuinfo"))
	if err != nil {
		return "", fmt.Errorf("reading cpuinfo: %w", err)
	}
	for _, line := range strings.Split(string(data), "\n") {
		if !strings.HasPrefix(line, "vendor_id") {
			continue
		}
		switch {
		case strings.Contains(line, "GenuineIntel"):
			return "kvm_intel", nil
		case strings.Contains(line, "AuthenticAMD"):
			return "kvm_amd", nil
		}
	}
	return "", fmt.Errorf("unrecognized CPU vendor in %s", filepath.Join(p.proc, "cpuinfo"))
}

// ModuleLoaded reports whether the named kernel module is currently loaded.
func (p *Probes) ModuleLoaded(name string) (bool, error) {
	data, err := os.ReadFile(filepath.Join(p.proc, "modules"))
	if err != nil {
		if os.IsNotExist(err) {
			return false, nil
		}
		return false, fmt.Errorf("reading modules: %w", err)
	}
	for _, line := range strings.Split(string(data), "\n") {
		fields := strings.Fields(line)
		if len(fields) > 0 && fields[0] == name {
			return true, nil
		}
	}
	return false, nil
}

// DeviceNodeExists reports whether the KVM device node is present.
func (p *Probes) DeviceNodeExists() bool {
	_, err := os.Stat(p.DeviceNodePath())
	return err == nil
}

// DeviceNodeMode returns the permission bits of the device node.
func (p *Probes) DeviceNodeMode() (os.FileMode, error) {
	fi, err := os.Stat(p.DeviceNodePath())
	if err != nil {
		return 0, err
	}
	return fi.Mode().Perm(), nil
}

// GroupExists reports whether the named group is present on the host.
func (p *Probes) GroupExists(ctx context.Context, group string) bool {
	_, err := p.runner.Output(ctx, "getent", "group", group)
	return err == nil
}

// UserInGroup reports whether the invoking user is a member of the group.
func (p *Probes) UserInGroup(ctx context.Context, group string) bool {
	out, err := p.runner.Output(ctx, "id", "-nG", p.user)
	if err != nil {
		return false
	}
	for _, g := range strings.Fields(out) {
		if g == group {
			return true
		}
	}
	return false
}

// UdevRulePresent reports whether the KVM udev rule file exists.
func (p *Probes) UdevRulePresent() bool {
	_, err := os.Stat(p.UdevRulePath())
	return err == nil
}

// AgentInstalled reports whether the provider agent binary is resolvable,
// either on PATH or in the user-local bin directory the installer targets.
func (p *Probes) AgentInstalled() bool {
	if _, err := p.runner.LookPath(p.prof.AgentBinary); err == nil {
		return true
	}
	_, err := os.Stat(filepath.Join(p.LocalBinDir(), p.prof.AgentBinary))
	return err == nil
}

// PackageInstalled reports whether a package is installed according to dpkg.
func (p *Probes) PackageInstalled(ctx context.Context, pkg string) bool {
	out, err := p.runner.Output(ctx, "dpkg-query", "-W", "-f", "${Status}", pkg)
	if err != nil {
		return false
	}
	return strings.Contains(out, "install ok installed")
}

// DesktopInstalled reports how the desktop app is installed, if at all.
// The package form wins when both are somehow present.
func (p *Probes) DesktopInstalled(ctx context.Context) DesktopState {
	if p.PackageInstalled(ctx, p.prof.DesktopPackage) {
		return DesktopViaPackage
	}
	if _, err := os.Stat(p.AppImagePath()); err == nil {
		return DesktopViaImage
	}
	if _, err := p.runner.LookPath(p.prof.DesktopBinary); err == nil {
		return DesktopViaPackage
	}
	if _, err := os.Stat(filepath.Join(p.optDir, "IdleFinance")); err == nil {
		return DesktopViaPackage
	}
	return DesktopMissing
}
