package ui

import (
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/idle-finance/hostprep/internal/core"
)

func updatePicker(t *testing.T, m pickerModel, msg tea.Msg) pickerModel {
	t.Helper()
	next, _ := m.Update(msg)
	pm, ok := next.(pickerModel)
	if !ok {
		t.Fatalf("Update returned %T, want pickerModel", next)
	}
	return pm
}

func TestPickerDefaultSelectsDeb(t *testing.T) {
	m := updatePicker(t, pickerModel{}, tea.KeyMsg{Type: tea.KeyEnter})
	if !m.answered {
		t.Fatal("enter should answer the picker")
	}
	if got := formatOptions[m.cursor].format; got != core.FormatDeb {
		t.Errorf("default selection = %v, want deb", got)
	}
}

func TestPickerNavigation(t *testing.T) {
	m := pickerModel{}

	m = updatePicker(t, m, tea.KeyMsg{Type: tea.KeyDown})
	if m.cursor != 1 {
		t.Fatalf("cursor = %d after down, want 1", m.cursor)
	}
	// The cursor stays on the last option.
	m = updatePicker(t, m, tea.KeyMsg{Type: tea.KeyDown})
	if m.cursor != 1 {
		t.Fatalf("cursor = %d after down at bottom, want 1", m.cursor)
	}

	m = updatePicker(t, m, tea.KeyMsg{Type: tea.KeyEnter})
	if got := formatOptions[m.cursor].format; got != core.FormatAppImage {
		t.Errorf("selection = %v, want appimage", got)
	}

	up := updatePicker(t, pickerModel{cursor: 1}, tea.KeyMsg{Type: tea.KeyUp})
	if up.cursor != 0 {
		t.Errorf("cursor = %d after up, want 0", up.cursor)
	}
}

func TestPickerVimKeys(t *testing.T) {
	m := updatePicker(t, pickerModel{}, keyRune('j'))
	if m.cursor != 1 {
		t.Errorf("cursor = %d after j, want 1", m.cursor)
	}
	m = updatePicker(t, m, keyRune('k'))
	if m.cursor != 0 {
		t.Errorf("cursor = %d after k, want 0", m.cursor)
	}
}

func TestPickerEscAborts(t *testing.T) {
	m := updatePicker(t, pickerModel{}, tea.KeyMsg{Type: tea.KeyEscape})
	if !m.aborted {
		t.Error("esc should abort the picker")
	}
	if m.answered {
		t.Error("aborting must not count as an answer")
	}
}

func TestPickerView(t *testing.T) {
	v := pickerModel{}.View()
	for _, want := range []string{"Choose a desktop app format", "Debian package", "Portable AppImage"} {
		if !strings.Contains(v, want) {
			t.Errorf("View() = %q, should contain %q", v, want)
		}
	}
}
