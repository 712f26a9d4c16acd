package tui

import (
	"fmt"
	"io"

	"github.com/charmbracelet/bubbles/list"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

const (
	// listRenderingOverhead accounts for the panel border and list padding.
	listRenderingOverhead = 4

	commitWidth   = 8
	versionWidth  = 12
	branchWidth   = 18
	prWidth       = 8
	durationWidth = 8
)

// Delegate renders build items as table rows.
type Delegate struct {
	styles *StyleConfig
}

// NewDelegate creates a new build table delegate with default styles
func NewDelegate() Delegate {
	return Delegate{styles: DefaultStyles()}
}

// NewDelegateWithStyles creates a new delegate with custom styles
func NewDelegateWithStyles(styles *StyleConfig) Delegate {
	return Delegate{styles: styles}
}

// Height returns the height of a list item
func (d Delegate) Height() int {
	return 1
}

// Spacing returns spacing between items
func (d Delegate) Spacing() int {
	return 0
}

// Update handles item updates
func (d Delegate) Update(msg tea.Msg, m *list.Model) tea.Cmd {
	return nil
}

// HeaderRow returns the column titles aligned with rendered rows.
func HeaderRow(width int) string {
	return renderColumns(width, " ", "Commit", "Version", "Branch", "PR", "Duration", "Tests")
}

func renderColumns(width int, glyph, commit, version, branch, pr, duration, tests string) string {
	// glyph + 5 separators of 3 cells + 1 space
	fixedWidth := 1 + commitWidth + versionWidth + branchWidth + prWidth + durationWidth + 16
	testsWidth := width - fixedWidth - listRenderingOverhead

	line := fmt.Sprintf("%s %s │ %s │ %s │ %s │ %s",
		glyph,
		TruncateAndPad(commit, commitWidth, false),
		TruncateAndPad(version, versionWidth, true),
		TruncateAndPad(branch, branchWidth, true),
		TruncateAndPad(pr, prWidth, false),
		TruncateAndPad(duration, durationWidth, false),
	)
	if testsWidth > 0 {
		line += " │ " + Truncate(tests, testsWidth, true)
	}
	return line
}

// Render renders a list item
func (d Delegate) Render(w io.Writer, m list.Model, index int, item list.Item) {
	entry, ok := item.(Item)
	if !ok {
		return
	}

	b := entry.Build
	glyph := lipgloss.NewStyle().
		Foreground(d.styles.StatusColor(b.Status)).
		Render(StatusGlyph(b.Status))

	line := renderColumns(m.Width(), "",
		b.CommitID.Short(),
		b.Version,
		entry.Branch(),
		b.PullRequestLabel,
		entry.DurationText(),
		b.TestsResultText,
	)

	style := lipgloss.NewStyle().Foreground(d.styles.TextSecondary)
	if index == m.Index() {
		style = style.Bold(true).Foreground(d.styles.PrimaryBlue).Background(d.styles.SelectedColor)
	}

	fmt.Fprint(w, glyph+style.Render(line))
}
