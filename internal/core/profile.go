package core

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Profile holds the desired-state data the reconcilers converge on: package
// names, kernel module selection, file locations, download sources, and the
// agent installer prompt script. The built-in default matches the Golem
// provider plus the Idle Finance desktop app; a YAML file can override it.
type Profile struct {
	RequiredPackages []string `yaml:"requiredPackages"`

	// StaleSourceList is a known-broken apt source list whose presence makes
	// `apt-get update` fail outright on some hosts. Removed best-effort
	// before refreshing indexes.
	StaleSourceList string `yaml:"staleSourceList"`

	KVMGroup     string `yaml:"kvmGroup"`
	UdevRuleName string `yaml:"udevRuleName"`

	AgentBinary       string `yaml:"agentBinary"`
	AgentInstallerURL string `yaml:"agentInstallerURL"`

	DesktopBinary      string `yaml:"desktopBinary"`
	DesktopPackage     string `yaml:"desktopPackage"`
	DesktopDebURL      string `yaml:"desktopDebURL"`
	DesktopAppImageURL string `yaml:"desktopAppImageURL"`

	// AgentPrompts is the ordered prompt/response script for the scripted
	// (non-interactive) agent install. Patterns are case-insensitive
	// substrings matched in order against installer output; responses may
	// reference {node_name} and {wallet}.
	AgentPrompts []PromptAnswer `yaml:"agentPrompts"`
}

// PromptAnswer is one step of the scripted installer interaction.
type PromptAnswer struct {
	Pattern  string `yaml:"pattern"`
	Response string `yaml:"response"`
}

// DefaultProfile returns the built-in provisioning profile.
func DefaultProfile() *Profile {
	return &Profile{
		RequiredPackages: []string{
			"curl",
			"wget",
			"jq",
			"libfuse2",
			"desktop-file-utils",
		},
		StaleSourceList: "golem-legacy.list",
		KVMGroup:        "kvm",
		UdevRuleName:    "99-kvm.rules",

		AgentBinary:       "golemsp",
		AgentInstallerURL: "https://join.golem.network/as-provider",

		DesktopBinary:      "idle-finance",
		DesktopPackage:     "idle-finance",
		DesktopDebURL:      "https://downloads.idlefinance.io/desktop/idle-finance_{version}_amd64.deb",
		DesktopAppImageURL: "https://downloads.idlefinance.io/desktop/IdleFinance-{version}.AppImage",

		AgentPrompts: []PromptAnswer{
			{Pattern: "accept the terms", Response: "yes"},
			{Pattern: "anonymous usage statistics", Response: "yes"},
			{Pattern: "node name", Response: "{node_name}"},
			{Pattern: "ethereum wallet address", Response: "{wallet}"},
			{Pattern: "glm per hour", Response: ""},
		},
	}
}

// LoadProfile reads a profile override from a YAML file. Fields left empty in
// the file keep their built-in defaults.
func LoadProfile(path string) (*Profile, error) {
	prof := DefaultProfile()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return prof, nil
		}
		return nil, fmt.Errorf("reading profile: %w", err)
	}

	if err := yaml.Unmarshal(data, prof); err != nil {
		return nil, fmt.Errorf("parsing profile %s: %w", path, err)
	}
	return prof, nil
}
