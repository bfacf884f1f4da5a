package core

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"
)

// pathLine is the shell-startup line ensuring the installer's target
// directory is on PATH in future sessions.
const pathLine = `export PATH="$HOME/.local/bin:$PATH"`

// AgentInstaller installs the Golem provider agent via its remote installer
// script.
type AgentInstaller struct {
	cfg     *RunConfig
	prof    *Profile
	probes  *Probes
	runner  Runner
	confirm Confirmer
	out     io.Writer

	// install runs the downloaded installer script. Overridable in tests.
	install func(ctx context.Context, script string) error
}

// NewAgentInstaller creates an AgentInstaller.
func NewAgentInstaller(cfg *RunConfig, prof *Profile, probes *Probes, runner Runner, confirm Confirmer, out io.Writer) *AgentInstaller {
	a := &AgentInstaller{cfg: cfg, prof: prof, probes: probes, runner: runner, confirm: confirm, out: out}
	a.install = a.runInstaller
	return a
}

// Reconcile installs the agent unless its binary is already resolvable.
func (a *AgentInstaller) Reconcile(ctx context.Context) error {
	if a.probes.AgentInstalled() {
		fmt.Fprintf(a.out, "Provider agent (%s): already installed\n", a.prof.AgentBinary)
		return nil
	}

	ok, err := a.confirm.Confirm("Install the Golem provider agent?")
	if err != nil {
		return fmt.Errorf("reading confirmation: %w", err)
	}
	if !ok {
		return fmt.Errorf("agent installation: %w", ErrDeclined)
	}

	if err := a.downloadAndRun(ctx); err != nil {
		return err
	}

	// PATH persistence for future shells; exact-line check keeps reruns
	// from stacking duplicates.
	if _, err := EnsureLine(a.probes.ShellRCPath(), pathLine); err != nil {
		return fmt.Errorf("updating shell startup file: %w", err)
	}

	// Give the installer's background pieces a moment before re-probing.
	time.Sleep(a.cfg.SettleDelay)

	if !a.probes.AgentInstalled() {
		return fmt.Errorf("agent binary %q still missing after install; run manually: curl -sSf %s | bash",
			a.prof.AgentBinary, a.cfg.AgentInstallerURL)
	}
	fmt.Fprintf(a.out, "Provider agent (%s): installed\n", a.prof.AgentBinary)
	return nil
}

// downloadAndRun fetches the installer into a scratch directory and executes
// it. The scratch directory is removed on every exit path.
func (a *AgentInstaller) downloadAndRun(ctx context.Context) error {
	scratch, err := os.MkdirTemp("", "hostprep-agent-")
	if err != nil {
		return fmt.Errorf("creating scratch dir: %w", err)
	}
	defer func() { _ = os.RemoveAll(scratch) }()

	script := filepath.Join(scratch, "install-provider.sh")
	if err := fetchFile(ctx, a.cfg.AgentInstallerURL, script); err != nil {
		return fmt.Errorf("fetching agent installer: %w", err)
	}
	if err := os.Chmod(script, 0o755); err != nil {
		return fmt.Errorf("marking installer executable: %w", err)
	}

	return a.install(ctx, script)
}

// runInstaller executes the installer either fully interactively or through
// the scripted prompt sequence, depending on the run configuration.
func (a *AgentInstaller) runInstaller(ctx context.Context, script string) error {
	cmd := exec.CommandContext(ctx, "bash", script)

	if !a.cfg.ScriptedInstall() {
		// Interactive: hand the terminal to the installer.
		cmd.Stdin = os.Stdin
		cmd.Stdout = os.Stdout
		cmd.Stderr = os.Stderr
		if err := cmd.Run(); err != nil {
			return fmt.Errorf("running agent installer: %w", err)
		}
		return nil
	}

	fmt.Fprintln(a.out, "Running agent installer with scripted answers...")
	if err := RunScripted(cmd, a.PromptScript(), a.out); err != nil {
		return fmt.Errorf("scripted agent install: %w", err)
	}
	return nil
}

// PromptScript resolves the profile's prompt/response pairs against the run
// configuration.
func (a *AgentInstaller) PromptScript() []ExpectStep {
	replacer := strings.NewReplacer(
		"{node_name}", a.cfg.NodeName,
		"{wallet}", a.cfg.WalletAddress,
	)
	steps := make([]ExpectStep, len(a.prof.AgentPrompts))
	for i, p := range a.prof.AgentPrompts {
		steps[i] = ExpectStep{
			Pattern:  p.Pattern,
			Response: replacer.Replace(p.Response),
		}
	}
	return steps
}
