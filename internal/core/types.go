// Package core provides the host provisioning logic for hostprep.
// It has zero UI dependencies and is independently testable.
package core

import (
	"context"
	"time"
)

// DesktopFormat selects the packaging format for the desktop application.
type DesktopFormat string

const (
	FormatUnset    DesktopFormat = ""
	FormatDeb      DesktopFormat = "deb"
	FormatAppImage DesktopFormat = "appimage"
)

// DesktopState describes how (or whether) the desktop app is installed.
type DesktopState string

const (
	DesktopMissing    DesktopState = "missing"
	DesktopViaPackage DesktopState = "package"
	DesktopViaImage   DesktopState = "appimage"
)

// RunConfig is the materialized run configuration. It is built once from the
// environment and passed explicitly to every step; steps never read ambient
// state on their own.
type RunConfig struct {
	NodeName       string
	WalletAddress  string
	NonInteractive bool
	AutoConfirm    bool
	InstallDesktop bool
	DesktopVersion string
	DesktopFormat  DesktopFormat

	// KVMMode is the mode enforced on the device node. 0666 by default;
	// 0660 restricts access to the kvm group.
	KVMMode uint32

	// Download sources. Overridable so tests can point them at file:// URLs.
	AgentInstallerURL  string
	DesktopDebURL      string
	DesktopAppImageURL string

	// SettleDelay is the pause between running the agent installer and
	// re-probing for the binary.
	SettleDelay time.Duration
}

// ScriptedInstall reports whether the agent installer should run through the
// scripted prompt sequence. Auto-answering the wallet prompt with an empty
// value would register the node against the wrong account, so the scripted
// path requires both conditions.
func (c *RunConfig) ScriptedInstall() bool {
	return c.NonInteractive && c.WalletAddress != ""
}

// Action is a named pending mutation produced by a reconciler plan. The plan
// is the single source of truth: the action log and the skip decision both
// derive from it.
type Action struct {
	Name   string
	Detail string
	Apply  func(ctx context.Context) error
}

// Confirmer gates mutating steps behind a user decision.
type Confirmer interface {
	Confirm(prompt string) (bool, error)
}

// autoConfirmer approves everything without asking.
type autoConfirmer struct{}

func (autoConfirmer) Confirm(string) (bool, error) { return true, nil }

// AutoConfirm returns a Confirmer that approves every prompt.
func AutoConfirm() Confirmer { return autoConfirmer{} }

// ErrDeclined is returned when the user declines a required confirmation.
// It aborts the run with a non-zero exit.
var ErrDeclined = errDeclined{}

type errDeclined struct{}

func (errDeclined) Error() string { return "declined by user" }
