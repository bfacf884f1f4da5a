package core

import (
	"bytes"
	"context"
	"errors"
	"path/filepath"
	"testing"
)

func TestProvisionerConvergedHostIsNoOp(t *testing.T) {
	runner := newFakeRunner()
	runner.paths["apt-get"] = "/usr/bin/apt-get"
	prof := DefaultProfile()
	probes, root, _ := stageHost(t, runner, prof)
	cfg := testConfig()
	stageConverged(t, probes, runner, cfg, prof, root)

	var out bytes.Buffer
	p := NewProvisioner(cfg, prof, probes, runner, AutoConfirm(), nil, &out, &out)
	report, err := p.Run(context.Background())
	if err != nil {
		t.Fatalf("Run() error: %v", err)
	}

	if len(runner.calls) != 0 {
		t.Errorf("converged host must see zero mutating commands, got %v", runner.calls)
	}
	if report == nil {
		t.Fatal("expected a report even for a no-op run")
	}
	for _, item := range report.Items {
		if !item.Satisfied {
			t.Errorf("item %q unsatisfied: %s", item.Name, item.Value)
		}
	}
}

func TestProvisionerAbortsBeforeMutationOnPreflightDecline(t *testing.T) {
	runner := newFakeRunner()
	runner.paths["apt-get"] = "/usr/bin/apt-get"
	prof := DefaultProfile()
	probes, root, _ := stageHost(t, runner, prof)
	writeHostFile(t, filepath.Join(root, "proc/cpuinfo"), noVirtCPUInfo)

	p := NewProvisioner(testConfig(), prof, probes, runner, declineAll{}, nil, testWriter(t), testWriter(t))
	_, err := p.Run(context.Background())
	if !errors.Is(err, ErrDeclined) {
		t.Fatalf("expected ErrDeclined, got %v", err)
	}
	if len(runner.calls) != 0 {
		t.Errorf("aborted run must not mutate, got %v", runner.calls)
	}
}

func TestProvisionerStepErrorsArePrefixed(t *testing.T) {
	runner := newFakeRunner()
	prof := DefaultProfile()
	probes, _, _ := stageHost(t, runner, prof)

	p := NewProvisioner(testConfig(), prof, probes, runner, AutoConfirm(), nil, testWriter(t), testWriter(t))
	_, err := p.Run(context.Background())
	if err == nil {
		t.Fatal("expected preflight failure without apt-get")
	}
	if got := err.Error(); len(got) < len("preflight: ") || got[:len("preflight: ")] != "preflight: " {
		t.Errorf("error not prefixed with its step: %v", err)
	}
}
