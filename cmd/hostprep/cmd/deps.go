package cmd

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/mattn/go-isatty"

	"github.com/idle-finance/hostprep/internal/core"
	"github.com/idle-finance/hostprep/internal/ui"
)

// deps holds shared dependencies for CLI commands.
type deps struct {
	cfg    *core.RunConfig
	prof   *core.Profile
	runner core.Runner
	probes *core.Probes
}

// newDeps creates shared dependencies. Called lazily by commands that need them.
func newDeps() (*deps, error) {
	prof, err := loadProfile()
	if err != nil {
		return nil, err
	}

	cfg := core.FromEnv(prof)
	runner := core.NewExecRunner()

	probes, err := core.NewProbes(runner, prof)
	if err != nil {
		return nil, fmt.Errorf("initializing host probes: %w", err)
	}

	return &deps{cfg: cfg, prof: prof, runner: runner, probes: probes}, nil
}

// loadProfile loads the optional profile override from ~/.hostprep/profile.yaml.
func loadProfile() (*core.Profile, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return nil, fmt.Errorf("resolving home directory: %w", err)
	}
	prof, err := core.LoadProfile(filepath.Join(home, ".hostprep", "profile.yaml"))
	if err != nil {
		return nil, fmt.Errorf("loading profile: %w", err)
	}
	return prof, nil
}

// confirmer picks the confirmation mechanism for this run: auto-approve,
// the interactive prompt on a terminal, or piped y/n answers otherwise.
func (d *deps) confirmer() core.Confirmer {
	if d.cfg.AutoConfirm {
		return core.AutoConfirm()
	}
	if !d.cfg.NonInteractive && isatty.IsTerminal(os.Stdin.Fd()) {
		return ui.TerminalConfirmer{}
	}
	return core.NewReaderConfirmer(os.Stdin, os.Stdout)
}

// chooser returns the format picker for interactive runs, nil otherwise.
func (d *deps) chooser() core.FormatChooser {
	if !d.cfg.NonInteractive && isatty.IsTerminal(os.Stdin.Fd()) {
		return ui.TerminalChooser{}
	}
	return nil
}
