package core

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
)

// FormatChooser asks the user which packaging format to install when no
// preference is configured.
type FormatChooser interface {
	ChooseFormat() (DesktopFormat, error)
}

// DesktopInstaller installs the Idle Finance desktop application, preferring
// the distribution package and falling back to the portable AppImage.
type DesktopInstaller struct {
	cfg     *RunConfig
	prof    *Profile
	probes  *Probes
	runner  Runner
	chooser FormatChooser
	out     io.Writer
	errW    io.Writer
}

// NewDesktopInstaller creates a DesktopInstaller. chooser may be nil when the
// run is non-interactive.
func NewDesktopInstaller(cfg *RunConfig, prof *Profile, probes *Probes, runner Runner, chooser FormatChooser, out, errW io.Writer) *DesktopInstaller {
	return &DesktopInstaller{cfg: cfg, prof: prof, probes: probes, runner: runner, chooser: chooser, out: out, errW: errW}
}

// Reconcile installs the desktop app unless it is already present in either
// form. No confirmation gate: the step as a whole is toggled by
// configuration instead.
func (d *DesktopInstaller) Reconcile(ctx context.Context) error {
	if !d.cfg.InstallDesktop {
		fmt.Fprintln(d.out, "Desktop app: install disabled, skipping")
		return nil
	}

	if state := d.probes.DesktopInstalled(ctx); state != DesktopMissing {
		fmt.Fprintf(d.out, "Desktop app: already installed (%s)\n", state)
		return nil
	}

	format, err := d.resolveFormat()
	if err != nil {
		return err
	}

	if format == FormatAppImage {
		// Explicit portable preference: never attempt the package format.
		if err := d.installAppImage(ctx); err != nil {
			return fmt.Errorf("installing AppImage (re-run to retry the download): %w", err)
		}
		return nil
	}

	// Package-first policy. Any failure on the package path, the download
	// included, falls back exactly once to the portable image.
	if err := d.installDeb(ctx); err != nil {
		fmt.Fprintf(d.errW, "Warning: package install failed (%v), falling back to AppImage\n", err)
		if err := d.installAppImage(ctx); err != nil {
			return fmt.Errorf("installing AppImage fallback (re-run to retry the download): %w", err)
		}
	}
	return nil
}

// resolveFormat picks the packaging format: configured preference, else ask
// when interactive, else the default package-first policy.
func (d *DesktopInstaller) resolveFormat() (DesktopFormat, error) {
	if d.cfg.DesktopFormat != FormatUnset {
		return d.cfg.DesktopFormat, nil
	}
	if !d.cfg.NonInteractive && d.chooser != nil {
		format, err := d.chooser.ChooseFormat()
		if err != nil {
			return FormatUnset, fmt.Errorf("choosing package format: %w", err)
		}
		return format, nil
	}
	return FormatDeb, nil
}

func (d *DesktopInstaller) installDeb(ctx context.Context) error {
	scratch, err := os.MkdirTemp("", "hostprep-desktop-")
	if err != nil {
		return fmt.Errorf("creating scratch dir: %w", err)
	}
	defer func() { _ = os.RemoveAll(scratch) }()

	deb := filepath.Join(scratch, d.prof.DesktopPackage+".deb")
	if err := fetchFile(ctx, d.cfg.DesktopDebURL, deb); err != nil {
		return err
	}
	if err := d.runner.Run(ctx, "apt-get", "install", "-y", deb); err != nil {
		return err
	}
	fmt.Fprintf(d.out, "Desktop app: installed %s (package)\n", d.prof.DesktopPackage)
	return nil
}

func (d *DesktopInstaller) installAppImage(ctx context.Context) error {
	scratch, err := os.MkdirTemp("", "hostprep-desktop-")
	if err != nil {
		return fmt.Errorf("creating scratch dir: %w", err)
	}
	defer func() { _ = os.RemoveAll(scratch) }()

	image := filepath.Join(scratch, d.prof.DesktopBinary+".AppImage")
	if err := fetchFile(ctx, d.cfg.DesktopAppImageURL, image); err != nil {
		return err
	}
	if err := os.Chmod(image, 0o755); err != nil {
		return fmt.Errorf("marking AppImage executable: %w", err)
	}

	target := d.probes.AppImagePath()
	if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
		return fmt.Errorf("creating %s: %w", filepath.Dir(target), err)
	}
	// The scratch dir may be on another filesystem, so copy instead of rename.
	if err := copyFile(image, target, 0o755); err != nil {
		return fmt.Errorf("installing AppImage to %s: %w", target, err)
	}

	if err := d.writeDesktopEntry(); err != nil {
		return err
	}
	fmt.Fprintf(d.out, "Desktop app: installed %s (AppImage)\n", target)
	return nil
}

// writeDesktopEntry registers the AppImage in the desktop menu.
func (d *DesktopInstaller) writeDesktopEntry() error {
	entry := fmt.Sprintf(`[Desktop Entry]
Name=Idle Finance
Comment=Idle Finance desktop application
Exec=%s
Type=Application
Categories=Finance;Network;
Terminal=false
`, d.probes.AppImagePath())

	path := d.probes.DesktopEntryPath()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("creating %s: %w", filepath.Dir(path), err)
	}
	if err := os.WriteFile(path, []byte(entry), 0o644); err != nil {
		return fmt.Errorf("writing desktop entry: %w", err)
	}
	return nil
}

func copyFile(src, dst string, mode os.FileMode) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer func() { _ = in.Close() }()

	out, err := os.OpenFile(dst, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, mode)
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, in); err != nil {
		_ = out.Close()
		return err
	}
	return out.Close()
}
