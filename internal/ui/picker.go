package ui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/idle-finance/hostprep/internal/core"
)

// formatOption pairs a packaging format with its display label.
type formatOption struct {
	format core.DesktopFormat
	label  string
}

var formatOptions = []formatOption{
	{core.FormatDeb, "Debian package (recommended)"},
	{core.FormatAppImage, "Portable AppImage"},
}

// pickerModel is an inline two-option chooser for the desktop packaging
// format.
type pickerModel struct {
	cursor   int
	answered bool
	aborted  bool
}

func (m pickerModel) Init() tea.Cmd { return nil }

func (m pickerModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	keyMsg, ok := msg.(tea.KeyMsg)
	if !ok {
		return m, nil
	}

	switch {
	case key.Matches(keyMsg, upKey):
		if m.cursor > 0 {
			m.cursor--
		}
	case key.Matches(keyMsg, downKey):
		if m.cursor < len(formatOptions)-1 {
			m.cursor++
		}
	case key.Matches(keyMsg, enterKey):
		m.answered = true
		return m, tea.Quit
	case key.Matches(keyMsg, escKey), key.Matches(keyMsg, quitKey):
		m.aborted = true
		return m, tea.Quit
	}
	return m, nil
}

func (m pickerModel) View() string {
	if m.answered {
		return fmt.Sprintf("%s %s\n",
			promptStyle.Render("Desktop app format:"),
			mutedStyle.Render(formatOptions[m.cursor].label))
	}

	var b strings.Builder
	b.WriteString(promptStyle.Render("Choose a desktop app format:"))
	b.WriteString("\n")
	for i, opt := range formatOptions {
		cursor := "  "
		label := mutedStyle.Render(opt.label)
		if i == m.cursor {
			cursor = itemNameStyle.Render("> ")
			label = itemNameStyle.Render(opt.label)
		}
		b.WriteString(cursor + label + "\n")
	}
	return b.String()
}

// TerminalChooser picks the desktop packaging format interactively.
type TerminalChooser struct{}

// ChooseFormat shows the picker and returns the selected format.
func (TerminalChooser) ChooseFormat() (core.DesktopFormat, error) {
	final, err := tea.NewProgram(pickerModel{}).Run()
	if err != nil {
		return core.FormatUnset, fmt.Errorf("running format picker: %w", err)
	}
	m, ok := final.(pickerModel)
	if !ok || m.aborted || !m.answered {
		return core.FormatUnset, fmt.Errorf("no format selected")
	}
	return formatOptions[m.cursor].format, nil
}

var (
	upKey = key.NewBinding(
		key.WithKeys("up", "k"),
	)
	downKey = key.NewBinding(
		key.WithKeys("down", "j"),
	)
)
