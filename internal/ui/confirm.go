package ui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

// confirmModel is an inline yes/no prompt. Left/right/tab move focus between
// the buttons, enter activates the focused one, and y/n/esc are shortcut
// accelerators. Focus defaults to No, the safe choice for mutations.
type confirmModel struct {
	message  string
	focusYes bool
	answered bool
	result   bool
}

func (m confirmModel) Init() tea.Cmd { return nil }

func (m confirmModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	keyMsg, ok := msg.(tea.KeyMsg)
	if !ok {
		return m, nil
	}

	switch {
	case key.Matches(keyMsg, yesKey):
		m.answered, m.result = true, true
		return m, tea.Quit

	case key.Matches(keyMsg, noKey), key.Matches(keyMsg, escKey), key.Matches(keyMsg, quitKey):
		m.answered, m.result = true, false
		return m, tea.Quit

	case key.Matches(keyMsg, enterKey):
		m.answered, m.result = true, m.focusYes
		return m, tea.Quit

	case key.Matches(keyMsg, moveKey):
		m.focusYes = !m.focusYes
		return m, nil
	}

	return m, nil
}

func (m confirmModel) View() string {
	if m.answered {
		answer := "no"
		if m.result {
			answer = "yes"
		}
		return fmt.Sprintf("%s %s\n", promptStyle.Render(m.message), mutedStyle.Render(answer))
	}

	var yesBtn, noBtn string
	if m.focusYes {
		yesBtn = activeButtonStyle.Render("Yes")
		noBtn = buttonStyle.Render("No")
	} else {
		yesBtn = buttonStyle.Render("Yes")
		noBtn = activeButtonStyle.Render("No")
	}

	buttons := lipgloss.JoinHorizontal(lipgloss.Top, yesBtn, " ", noBtn)
	return strings.Join([]string{promptStyle.Render(m.message), buttons, ""}, "\n")
}

// TerminalConfirmer asks yes/no questions through an inline prompt.
type TerminalConfirmer struct{}

// Confirm shows the prompt and waits for a decision.
func (TerminalConfirmer) Confirm(prompt string) (bool, error) {
	final, err := tea.NewProgram(confirmModel{message: prompt}).Run()
	if err != nil {
		return false, fmt.Errorf("running confirm prompt: %w", err)
	}
	m, ok := final.(confirmModel)
	if !ok || !m.answered {
		return false, nil
	}
	return m.result, nil
}

// Key bindings shared by the prompt models.
var (
	yesKey = key.NewBinding(
		key.WithKeys("y", "Y"),
		key.WithHelp("y", "confirm"),
	)
	noKey = key.NewBinding(
		key.WithKeys("n", "N"),
		key.WithHelp("n", "cancel"),
	)
	escKey = key.NewBinding(
		key.WithKeys("esc"),
	)
	quitKey = key.NewBinding(
		key.WithKeys("ctrl+c"),
	)
	enterKey = key.NewBinding(
		key.WithKeys("enter"),
	)
	moveKey = key.NewBinding(
		key.WithKeys("left", "right", "tab", "shift+tab", "h", "l"),
	)
)
