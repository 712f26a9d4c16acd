package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// renderDetail renders the selected build below the list.
func (m Model) renderDetail(width int) string {
	item, ok := m.listView.GetSelectedItem()
	if !ok {
		return ""
	}
	b := item.Build

	label := lipgloss.NewStyle().Foreground(m.styles.TextSecondary)
	value := lipgloss.NewStyle().Foreground(m.styles.TextPrimary)
	status := lipgloss.NewStyle().Foreground(m.styles.StatusColor(b.Status)).Bold(true)

	row := func(name, v string) string {
		return label.Render(fmt.Sprintf("%-9s", name)) + " " + value.Render(Truncate(v, width-14, true))
	}

	lines := []string{
		status.Render(fmt.Sprintf("%s %s", StatusGlyph(b.Status), b.Status)) + "  " + value.Render(b.Summary()),
		row("Commit", string(b.CommitID)),
		row("Project", b.Project),
		row("Branch", item.Branch()),
		row("Build", b.URL),
	}
	if b.IsPullRequest() {
		lines = append(lines, row("PR", strings.TrimSpace(b.PullRequestLabel+" "+item.PullRequestTitle())))
		if b.PullRequestURL != "" {
			lines = append(lines, row("", b.PullRequestURL))
		}
	}

	return m.styles.PanelStyle().
		Width(width - 2).
		Padding(0, 1).
		Render(strings.Join(lines, "\n"))
}
