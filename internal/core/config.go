package core

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Environment variables understood by hostprep.
const (
	EnvNodeName        = "HOSTPREP_NODE_NAME"
	EnvWalletAddress   = "HOSTPREP_WALLET_ADDRESS"
	EnvNonInteractive  = "HOSTPREP_NONINTERACTIVE"
	EnvAutoConfirm     = "HOSTPREP_AUTO_CONFIRM"
	EnvInstallDesktop  = "HOSTPREP_INSTALL_DESKTOP"
	EnvDesktopVersion  = "HOSTPREP_DESKTOP_VERSION"
	EnvDesktopFormat   = "HOSTPREP_DESKTOP_FORMAT"
	EnvKVMMode         = "HOSTPREP_KVM_MODE"
	EnvAgentInstaller  = "HOSTPREP_AGENT_INSTALLER_URL"
	EnvDesktopDebURL   = "HOSTPREP_DESKTOP_DEB_URL"
	EnvDesktopImageURL = "HOSTPREP_DESKTOP_APPIMAGE_URL"
	EnvSettleSeconds   = "HOSTPREP_SETTLE_SECONDS"
	EnvSysRoot         = "HOSTPREP_ROOT"
)

const (
	defaultNodeName       = "idle-finance-node"
	defaultDesktopVersion = "1.4.2"
	defaultSettleSeconds  = 3
)

// FromEnv builds the run configuration from the process environment. An
// optional .env file in the working directory is loaded first; real
// environment variables take precedence over it.
func FromEnv(prof *Profile) *RunConfig {
	// Best-effort: a missing .env file is the normal case.
	_ = godotenv.Load()

	cfg := &RunConfig{
		NodeName:       envString(EnvNodeName, defaultNodeName),
		WalletAddress:  envString(EnvWalletAddress, ""),
		NonInteractive: envBool(EnvNonInteractive, true),
		AutoConfirm:    envBool(EnvAutoConfirm, false),
		InstallDesktop: envBool(EnvInstallDesktop, true),
		DesktopVersion: envString(EnvDesktopVersion, defaultDesktopVersion),
		DesktopFormat:  parseFormat(os.Getenv(EnvDesktopFormat)),
		KVMMode:        parseKVMMode(os.Getenv(EnvKVMMode)),
		SettleDelay:    time.Duration(envInt(EnvSettleSeconds, defaultSettleSeconds)) * time.Second,
	}

	cfg.AgentInstallerURL = envString(EnvAgentInstaller, prof.AgentInstallerURL)
	cfg.DesktopDebURL = envString(EnvDesktopDebURL, expandVersion(prof.DesktopDebURL, cfg.DesktopVersion))
	cfg.DesktopAppImageURL = envString(EnvDesktopImageURL, expandVersion(prof.DesktopAppImageURL, cfg.DesktopVersion))

	return cfg
}

func parseFormat(s string) DesktopFormat {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "deb", "package":
		return FormatDeb
	case "appimage", "image":
		return FormatAppImage
	default:
		return FormatUnset
	}
}

// parseKVMMode accepts an octal mode string. Anything unparseable falls back
// to the permissive default; 0660 is the stricter group-only policy.
func parseKVMMode(s string) uint32 {
	if s == "" {
		return 0o666
	}
	mode, err := strconv.ParseUint(strings.TrimPrefix(s, "0o"), 8, 32)
	if err != nil || mode == 0 {
		return 0o666
	}
	return uint32(mode)
}

func expandVersion(url, version string) string {
	return strings.ReplaceAll(url, "{version}", version)
}

func envString(key, fallback string) string {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		return v
	}
	return fallback
}

func envBool(key string, fallback bool) bool {
	v, ok := os.LookupEnv(key)
	if !ok || v == "" {
		return fallback
	}
	switch strings.ToLower(v) {
	case "1", "true", "yes", "on", "y":
		return true
	case "0", "false", "no", "off", "n":
		return false
	}
	return fallback
}

func envInt(key string, fallback int) int {
	v, ok := os.LookupEnv(key)
	if !ok || v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil || n < 0 {
		return fallback
	}
	return n
}
