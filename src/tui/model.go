// Package tui provides the live terminal view of a build watcher stream.
// Each commit gets one row that is updated in place as snapshots arrive.
package tui

import (
	"context"
	"fmt"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"buildwatch-agent/src/provider"
)

// detailHeight is the rendered height of the detail panel including borders.
const detailHeight = 9

// buildMsg carries one snapshot from the stream.
type buildMsg struct {
	build provider.BuildRecord
}

// streamDoneMsg reports stream completion and its terminal error.
type streamDoneMsg struct {
	err error
}

// waitForBuild reads the next snapshot, or the completion once the stream
// is drained.
func waitForBuild(stream *provider.Stream) tea.Cmd {
	return func() tea.Msg {
		b, ok := <-stream.Updates()
		if !ok {
			return streamDoneMsg{err: stream.Wait()}
		}
		return buildMsg{build: b}
	}
}

// Model is the Bubble Tea model for the live build view.
type Model struct {
	stream *provider.Stream
	cancel context.CancelFunc

	items []Item
	index map[provider.CommitID]int

	listView View
	header   Header
	progress ProgressModel
	styles   *StyleConfig

	err   error
	done  bool
	ready bool

	width  int
	height int
}

// NewModel creates a model consuming stream. cancel, when set, is called on
// quit so the watcher stops polling.
func NewModel(title string, stream *provider.Stream, cancel context.CancelFunc) Model {
	styles := DefaultStyles()
	return Model{
		stream:   stream,
		cancel:   cancel,
		index:    make(map[provider.CommitID]int),
		listView: NewView(styles),
		header:   NewHeader(title, styles),
		progress: NewProgressModel(),
		styles:   styles,
	}
}

// Init starts reading the stream. Required by tea.Model interface.
func (m Model) Init() tea.Cmd {
	return tea.Batch(waitForBuild(m.stream), SpinnerTick())
}

// Update handles messages and updates the model state.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmds []tea.Cmd

	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.ready = true
		m.resizeComponents()
		return m, nil

	case buildMsg:
		m.upsert(msg.build)
		m.progress, _ = m.progress.Update(msg)
		cmds = append(cmds, m.listView.SetItems(m.items), waitForBuild(m.stream))
		return m, tea.Batch(cmds...)

	case streamDoneMsg:
		m.done = true
		m.err = msg.err
		m.progress, _ = m.progress.Update(msg)
		return m, nil

	case SpinnerTickMsg:
		var cmd tea.Cmd
		m.progress, cmd = m.progress.Update(msg)
		return m, cmd

	case tea.KeyMsg:
		if !m.listView.Filtering() {
			switch msg.String() {
			case "q", "ctrl+c":
				if m.cancel != nil {
					m.cancel()
				}
				return m, tea.Quit
			}
		}
	}

	var cmd tea.Cmd
	m.listView, cmd = m.listView.Update(msg)
	return m, cmd
}

// upsert replaces the row of the snapshot's commit or appends a new one.
func (m *Model) upsert(b provider.BuildRecord) {
	if i, ok := m.index[b.CommitID]; ok {
		m.items[i] = Item{Build: b}
	} else {
		m.index[b.CommitID] = len(m.items)
		m.items = append(m.items, Item{Build: b})
	}
	m.header.SetCounts(m.items)
}

// Items returns the current rows in display order.
func (m Model) Items() []Item {
	return m.items
}

// Err returns the terminal stream error, if the stream failed.
func (m Model) Err() error {
	return m.err
}

// Done reports whether the stream has completed.
func (m Model) Done() bool {
	return m.done
}

func (m Model) listHeight() int {
	headerHeight := lipgloss.Height(m.header.Render(m.width))
	// progress (1) + column header (1) + panel borders (2) + help (1) + error (1)
	h := m.height - headerHeight - detailHeight - 6
	if h < 3 {
		h = 3
	}
	return h
}

// resizeComponents handles window resize events
func (m *Model) resizeComponents() {
	m.listView.SetSize(m.width-2, m.listHeight())
}

// View renders the complete TUI layout
func (m Model) View() string {
	if !m.ready {
		return "\n  Initializing..."
	}

	sections := []string{
		m.header.Render(m.width),
		m.styles.HelpStyle().Render(m.progress.View()),
	}

	if len(m.items) == 0 {
		sections = append(sections, m.styles.HelpStyle().Render("No builds found yet."))
	} else {
		headerRow := lipgloss.NewStyle().
			Foreground(m.styles.PrimaryBlue).
			Bold(true).
			Padding(0, 1).
			Render(HeaderRow(m.width))
		listPanel := m.styles.PanelStyle().
			Width(m.width - 2).
			Render(m.listView.Render())
		sections = append(sections, headerRow, listPanel, m.renderDetail(m.width))
	}

	if m.err != nil {
		msg := provider.WrapError(m.err).Error()
		sections = append(sections, m.styles.ErrorStyle().Render(fmt.Sprintf("Watch failed: %s", msg)))
	}

	sections = append(sections, m.renderHelpText())
	return lipgloss.JoinVertical(lipgloss.Left, sections...)
}

// renderHelpText renders context-aware help text at the bottom
func (m Model) renderHelpText() string {
	keyStyle := lipgloss.NewStyle().Foreground(m.styles.PrimaryBlue).Bold(true)
	sepStyle := lipgloss.NewStyle().Foreground(m.styles.TextSecondary)

	helpText := fmt.Sprintf("%s: Nav %s %s: Filter %s %s: Quit",
		keyStyle.Render("j/k"), sepStyle.Render("•"),
		keyStyle.Render("/"), sepStyle.Render("•"),
		keyStyle.Render("q"))

	return m.styles.HelpStyle().Render(helpText)
}
