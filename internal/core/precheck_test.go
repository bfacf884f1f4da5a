package core

import (
	"bytes"
	"errors"
	"path/filepath"
	"strings"
	"testing"
)

func TestPreflight_MissingPackageManagerIsFatal(t *testing.T) {
	runner := newFakeRunner()
	prof := DefaultProfile()
	probes, _, _ := stageHost(t, runner, prof)

	c := NewPreflightChecker(probes, runner, AutoConfirm(), testWriter(t), testWriter(t))
	err := c.Check()
	if err == nil {
		t.Fatal("expected an error without apt-get on PATH")
	}
	if !strings.Contains(err.Error(), "apt-get") {
		t.Errorf("error should name the missing manager: %v", err)
	}
}

func TestPreflight_VirtualizationPresent(t *testing.T) {
	runner := newFakeRunner()
	runner.paths["apt-get"] = "/usr/bin/apt-get"
	prof := DefaultProfile()
	probes, _, _ := stageHost(t, runner, prof)

	c := NewPreflightChecker(probes, runner, declineAll{}, testWriter(t), testWriter(t))
	if err := c.Check(); err != nil {
		t.Fatalf("Check() error: %v", err)
	}
}

func TestPreflight_NoVirtualizationDeclined(t *testing.T) {
	runner := newFakeRunner()
	runner.paths["apt-get"] = "/usr/bin/apt-get"
	prof := DefaultProfile()
	probes, root, _ := stageHost(t, runner, prof)
	writeHostFile(t, filepath.Join(root, "proc/cpuinfo"), noVirtCPUInfo)

	var errW bytes.Buffer
	c := NewPreflightChecker(probes, runner, declineAll{}, testWriter(t), &errW)
	err := c.Check()
	if !errors.Is(err, ErrDeclined) {
		t.Fatalf("expected ErrDeclined, got %v", err)
	}
	if !strings.Contains(errW.String(), "vmx/svm") {
		t.Errorf("stderr should warn about missing flags:\n%s", errW.String())
	}
}

func TestPreflight_NoVirtualizationConfirmed(t *testing.T) {
	runner := newFakeRunner()
	runner.paths["apt-get"] = "/usr/bin/apt-get"
	prof := DefaultProfile()
	probes, root, _ := stageHost(t, runner, prof)
	writeHostFile(t, filepath.Join(root, "proc/cpuinfo"), noVirtCPUInfo)

	c := NewPreflightChecker(probes, runner, AutoConfirm(), testWriter(t), testWriter(t))
	if err := c.Check(); err != nil {
		t.Fatalf("Check() error after explicit confirmation: %v", err)
	}
}
