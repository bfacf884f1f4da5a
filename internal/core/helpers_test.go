package core

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

// writeHostFile writes a file under the fake host root, creating parents.
func writeHostFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("mkdir %s: %v", filepath.Dir(path), err)
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write %s: %v", path, err)
	}
}

const intelCPUInfo = `processor	: 0
vendor_id	: GenuineIntel
model name	: Intel(R) Core(TM) i7
flags		: fpu vme de pse msr pae vmx sse2
`

const amdCPUInfo = `processor	: 0
vendor_id	: AuthenticAMD
model name	: AMD Ryzen 7
flags		: fpu vme de pse msr pae svm sse2
`

const noVirtCPUInfo = `processor	: 0
vendor_id	: GenuineIntel
model name	: Intel(R) Celeron(R)
flags		: fpu vme de pse msr pae sse2
`

// stageHost lays out a fake host root and returns probes over it. The host
// starts as an Intel machine with virtualization support and nothing
// provisioned.
func stageHost(t *testing.T, runner Runner, prof *Profile) (*Probes, string, string) {
	t.Helper()
	root := t.TempDir()
	home := t.TempDir()
	writeHostFile(t, filepath.Join(root, "proc/cpuinfo"), intelCPUInfo)
	return NewProbesAt(runner, prof, root, home), root, home
}

// stageConverged upgrades the fake host to a fully provisioned state for the
// given config: module loaded, boot lines present, device node with the
// target mode, udev rule, agent binary, and an AppImage desktop install.
func stageConverged(t *testing.T, probes *Probes, runner *fakeRunner, cfg *RunConfig, prof *Profile, root string) {
	t.Helper()
	writeHostFile(t, filepath.Join(root, "proc/modules"), "kvm_intel 434176 0 - Live\nkvm 1146880 1 kvm_intel, Live\n")
	writeHostFile(t, probes.BootModulesPath(), "kvm\nkvm_intel\n")

	writeHostFile(t, probes.DeviceNodePath(), "")
	if err := os.Chmod(probes.DeviceNodePath(), os.FileMode(cfg.KVMMode)); err != nil {
		t.Fatalf("chmod device node: %v", err)
	}

	k := NewKernelReconciler(cfg, prof, probes, runner, AutoConfirm(), testWriter(t))
	writeHostFile(t, probes.UdevRulePath(), k.udevRule())

	runner.outputs["getent"] = prof.KVMGroup + ":x:108:"
	runner.outputs["id"] = "users " + prof.KVMGroup

	writeHostFile(t, filepath.Join(probes.LocalBinDir(), prof.AgentBinary), "#!/bin/sh\n")
	writeHostFile(t, probes.AppImagePath(), "image")
	writeHostFile(t, probes.DesktopEntryPath(), "[Desktop Entry]\n")

	for _, pkg := range prof.RequiredPackages {
		runner.outputs["dpkg-query -W -f ${Status} "+pkg] = "install ok installed"
	}
}

// testWriter returns a writer that forwards step output to the test log.
func testWriter(t *testing.T) *logWriter { return &logWriter{t: t} }

type logWriter struct{ t *testing.T }

func (w *logWriter) Write(p []byte) (int, error) {
	w.t.Log(strings.TrimRight(string(p), "\n"))
	return len(p), nil
}

// testConfig returns a RunConfig with defaults suitable for unit tests:
// scripted installs enabled and no settle delay.
func testConfig() *RunConfig {
	return &RunConfig{
		NodeName:       "test-node",
		WalletAddress:  "0xABC",
		NonInteractive: true,
		AutoConfirm:    true,
		InstallDesktop: true,
		DesktopVersion: "1.0.0",
		KVMMode:        0o666,
	}
}
