package core

import (
	"context"
	"fmt"
	"strings"
)

// StateItem is one row of the verification report.
type StateItem struct {
	Name      string
	Value     string
	Satisfied bool
}

// Report is the read-only state dump rendered at the end of every session.
type Report struct {
	Items []StateItem
}

// Reporter re-probes every host state item. It never mutates anything.
type Reporter struct {
	cfg    *RunConfig
	prof   *Profile
	probes *Probes
}

// NewReporter creates a Reporter.
func NewReporter(cfg *RunConfig, prof *Profile, probes *Probes) *Reporter {
	return &Reporter{cfg: cfg, prof: prof, probes: probes}
}

// Build probes every state item fresh and returns them in fixed order.
// wantPresent selects the assertion direction: the provisioner reports
// presence as satisfied, the decommissioner reports absence.
func (r *Reporter) Build(ctx context.Context, wantPresent bool) *Report {
	report := &Report{}
	add := func(name, value string, present bool) {
		report.Items = append(report.Items, StateItem{
			Name:      name,
			Value:     value,
			Satisfied: present == wantPresent,
		})
	}

	virt, err := r.probes.VirtualizationSupported()
	if err != nil {
		report.Items = append(report.Items, StateItem{Name: "virtualization", Value: "unknown"})
	} else {
		// Virtualization is a hardware fact, not something teardown undoes.
		report.Items = append(report.Items, StateItem{
			Name:      "virtualization",
			Value:     presentOrAbsent(virt),
			Satisfied: virt || !wantPresent,
		})
	}

	var missing []string
	for _, pkg := range r.prof.RequiredPackages {
		if !r.probes.PackageInstalled(ctx, pkg) {
			missing = append(missing, pkg)
		}
	}
	if len(missing) == 0 {
		add("packages", "all installed", true)
	} else {
		add("packages", "missing: "+strings.Join(missing, ", "), false)
	}

	if module, err := r.probes.VendorModule(); err == nil {
		loaded, _ := r.probes.ModuleLoaded(module)
		add("kernel module", fmt.Sprintf("%s %s", module, loadedOrNot(loaded)), loaded)

		persisted := true
		for _, line := range []string{"kvm", module} {
			ok, _ := HasLine(r.probes.BootModulesPath(), line)
			persisted = persisted && ok
		}
		add("boot persistence", configuredOrNot(persisted), persisted)
	} else {
		report.Items = append(report.Items, StateItem{Name: "kernel module", Value: "unknown vendor"})
	}

	node := r.probes.DeviceNodeExists()
	nodeValue := presentOrAbsent(node)
	nodeConverged := node
	if node {
		if mode, err := r.probes.DeviceNodeMode(); err == nil {
			nodeValue = fmt.Sprintf("present, mode %04o", mode)
			nodeConverged = uint32(mode) == r.cfg.KVMMode
		}
	}
	if wantPresent {
		// The presence direction also holds the node to the configured mode.
		add("device node", nodeValue, nodeConverged)
	} else {
		add("device node", nodeValue, node)
	}

	member := r.probes.UserInGroup(ctx, r.prof.KVMGroup)
	add("group membership", fmt.Sprintf("%s in %s: %v", r.probes.User(), r.prof.KVMGroup, member), member)

	udev := r.probes.UdevRulePresent()
	add("udev rule", presentOrAbsent(udev), udev)

	agent := r.probes.AgentInstalled()
	add("provider agent", fmt.Sprintf("%s %s", r.prof.AgentBinary, installedOrNot(agent)), agent)

	desktop := r.probes.DesktopInstalled(ctx)
	add("desktop app", string(desktop), desktop != DesktopMissing)

	return report
}

func presentOrAbsent(b bool) string {
	if b {
		return "present"
	}
	return "absent"
}

func loadedOrNot(b bool) string {
	if b {
		return "loaded"
	}
	return "not loaded"
}

func configuredOrNot(b bool) string {
	if b {
		return "configured"
	}
	return "unconfigured"
}

func installedOrNot(b bool) string {
	if b {
		return "installed"
	}
	return "missing"
}
