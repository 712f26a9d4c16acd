package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"buildwatch-agent/src/provider"
)

// Header represents the top status bar component.
type Header struct {
	title  string
	counts map[provider.Status]int
	styles *StyleConfig
}

// NewHeader creates a new header with custom styles
func NewHeader(title string, styles *StyleConfig) Header {
	return Header{
		title:  title,
		counts: make(map[provider.Status]int),
		styles: styles,
	}
}

// SetCounts records how many commits are in each status.
func (h *Header) SetCounts(items []Item) {
	h.counts = make(map[provider.Status]int)
	for _, item := range items {
		h.counts[item.Build.Status]++
	}
}

// Render renders the header
func (h Header) Render(width int) string {
	title := h.styles.TitleStyle().Render(h.title)

	var parts []string
	for _, status := range []provider.Status{
		provider.StatusInProgress,
		provider.StatusSuccess,
		provider.StatusFailure,
		provider.StatusStopped,
		provider.StatusUnknown,
	} {
		if n := h.counts[status]; n > 0 {
			style := lipgloss.NewStyle().Foreground(h.styles.StatusColor(status))
			parts = append(parts, style.Render(fmt.Sprintf("%s %d %s", StatusGlyph(status), n, status)))
		}
	}
	counts := lipgloss.NewStyle().Padding(0, 2).Render(strings.Join(parts, "  "))

	headerStyle := lipgloss.NewStyle().
		BorderStyle(lipgloss.NormalBorder()).
		BorderBottom(true).
		BorderForeground(h.styles.BorderColor).
		Width(width)

	return headerStyle.Render(lipgloss.JoinHorizontal(lipgloss.Left, title, counts))
}
