package core

import (
	"fmt"
	"os"
	"strings"
)

// EnsureLine appends line to the file at path unless an identical line is
// already present. Returns true if the file was modified. The exact-line
// check is what keeps repeated runs from stacking duplicates in /etc/modules
// or the shell startup file.
func EnsureLine(path, line string) (bool, error) {
	data, err := os.ReadFile(path)
	if err != nil && !os.IsNotExist(err) {
		return false, fmt.Errorf("reading %s: %w", path, err)
	}

	for _, existing := range strings.Split(string(data), "\n") {
		if strings.TrimSpace(existing) == line {
			return false, nil
		}
	}

	content := string(data)
	if content != "" && !strings.HasSuffix(content, "\n") {
		content += "\n"
	}
	content += line + "\n"

	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		return false, fmt.Errorf("writing %s: %w", path, err)
	}
	return true, nil
}

// HasLine reports whether the file at path contains line exactly (modulo
// surrounding whitespace). A missing file has no lines.
func HasLine(path, line string) (bool, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return false, nil
		}
		return false, fmt.Errorf("reading %s: %w", path, err)
	}
	for _, existing := range strings.Split(string(data), "\n") {
		if strings.TrimSpace(existing) == line {
			return true, nil
		}
	}
	return false, nil
}

// RemoveLine strips every exact occurrence of line from the file at path.
// Returns true if the file was modified. A missing file is a no-op, so the
// decommissioner can re-run safely after partial completion.
func RemoveLine(path, line string) (bool, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return false, nil
		}
		return false, fmt.Errorf("reading %s: %w", path, err)
	}

	lines := strings.Split(string(data), "\n")
	kept := lines[:0]
	removed := false
	for _, existing := range lines {
		if strings.TrimSpace(existing) == line {
			removed = true
			continue
		}
		kept = append(kept, existing)
	}
	if !removed {
		return false, nil
	}

	if err := os.WriteFile(path, []byte(strings.Join(kept, "\n")), 0o644); err != nil {
		return false, fmt.Errorf("writing %s: %w", path, err)
	}
	return true, nil
}
