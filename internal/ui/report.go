package ui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/idle-finance/hostprep/internal/core"
)

// RenderReport renders the verification report as a fixed-order status
// table. Pure formatting: the report itself was already probed.
func RenderReport(title string, r *core.Report) string {
	var b strings.Builder
	b.WriteString(titleStyle.Render(title))
	b.WriteString("\n")

	nameWidth := 0
	for _, item := range r.Items {
		if len(item.Name) > nameWidth {
			nameWidth = len(item.Name)
		}
	}

	var rows []string
	for _, item := range r.Items {
		mark := okStyle.Render("✓")
		if !item.Satisfied {
			mark = badStyle.Render("✗")
		}
		name := itemNameStyle.Render(fmt.Sprintf("%-*s", nameWidth, item.Name))
		rows = append(rows, fmt.Sprintf("%s %s  %s", mark, name, mutedStyle.Render(item.Value)))
	}

	b.WriteString(boxStyle.Render(lipgloss.JoinVertical(lipgloss.Left, rows...)))
	b.WriteString("\n")
	return b.String()
}
