package core

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"
)

func stubInstalled(runner *fakeRunner, pkgs ...string) {
	for _, pkg := range pkgs {
		runner.outputs["dpkg-query -W -f ${Status} "+pkg] = "install ok installed"
	}
}

func TestPackageReconcile_AllInstalled(t *testing.T) {
	runner := newFakeRunner()
	prof := DefaultProfile()
	stubInstalled(runner, prof.RequiredPackages...)
	probes, _, _ := stageHost(t, runner, prof)

	var out bytes.Buffer
	r := NewPackageReconciler(prof, probes, runner, AutoConfirm(), &out)
	if err := r.Reconcile(context.Background()); err != nil {
		t.Fatalf("Reconcile() error: %v", err)
	}

	// No index refresh, no install, nothing at all.
	if len(runner.calls) != 0 {
		t.Errorf("expected zero package-manager commands, got %v", runner.calls)
	}
	if !strings.Contains(out.String(), "already installed") {
		t.Errorf("output missing satisfied report:\n%s", out.String())
	}
}

func TestPackageReconcile_InstallsMissingBatched(t *testing.T) {
	runner := newFakeRunner()
	prof := DefaultProfile()
	stubInstalled(runner, "curl", "wget", "desktop-file-utils")
	probes, _, _ := stageHost(t, runner, prof)

	var out bytes.Buffer
	r := NewPackageReconciler(prof, probes, runner, AutoConfirm(), &out)
	if err := r.Reconcile(context.Background()); err != nil {
		t.Fatalf("Reconcile() error: %v", err)
	}

	want := []string{
		"apt-get update",
		"apt-get install -y jq libfuse2",
	}
	if len(runner.calls) != len(want) {
		t.Fatalf("calls = %v, want %v", runner.calls, want)
	}
	for i := range want {
		if runner.calls[i] != want[i] {
			t.Errorf("call[%d] = %q, want %q", i, runner.calls[i], want[i])
		}
	}
}

func TestPackageReconcile_Declined(t *testing.T) {
	runner := newFakeRunner()
	prof := DefaultProfile()
	probes, _, _ := stageHost(t, runner, prof)

	r := NewPackageReconciler(prof, probes, runner, declineAll{}, testWriter(t))
	err := r.Reconcile(context.Background())
	if !errors.Is(err, ErrDeclined) {
		t.Fatalf("expected ErrDeclined, got %v", err)
	}
	if len(runner.calls) != 0 {
		t.Errorf("declined install must not run commands, got %v", runner.calls)
	}
}

func TestPackageReconcile_IndexRefreshFailureIsFatal(t *testing.T) {
	runner := newFakeRunner()
	runner.errs["apt-get update"] = errors.New("mirror unreachable")
	prof := DefaultProfile()
	probes, _, _ := stageHost(t, runner, prof)

	r := NewPackageReconciler(prof, probes, runner, AutoConfirm(), testWriter(t))
	err := r.Reconcile(context.Background())
	if err == nil || !strings.Contains(err.Error(), "refreshing package index") {
		t.Fatalf("expected index refresh failure, got %v", err)
	}

	// The install must not be attempted after a failed refresh.
	if got := runner.callsWithPrefix("apt-get install"); len(got) != 0 {
		t.Errorf("unexpected install attempts: %v", got)
	}
}

func TestPackageRemoveAll(t *testing.T) {
	runner := newFakeRunner()
	prof := DefaultProfile()
	stubInstalled(runner, "curl", "jq")
	probes, _, _ := stageHost(t, runner, prof)

	r := NewPackageReconciler(prof, probes, runner, AutoConfirm(), testWriter(t))
	if err := r.RemoveAll(context.Background()); err != nil {
		t.Fatalf("RemoveAll() error: %v", err)
	}

	if len(runner.calls) != 1 || runner.calls[0] != "apt-get remove -y curl jq" {
		t.Errorf("calls = %v", runner.calls)
	}
}
