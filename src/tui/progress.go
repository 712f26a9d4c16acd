package tui

import (
	"fmt"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

// Spinner frames for the watching indicator
var spinnerFrames = []string{"⠋", "⠙", "⠹", "⠸", "⠼", "⠴", "⠦", "⠧", "⠇", "⠏"}

// SpinnerTickMsg triggers spinner animation frame advance
type SpinnerTickMsg time.Time

// ProgressModel shows whether the watcher is still running.
type ProgressModel struct {
	updates      int
	done         bool
	spinnerFrame int
}

func NewProgressModel() ProgressModel {
	return ProgressModel{}
}

// SpinnerTick returns a command that sends SpinnerTickMsg after a delay
func SpinnerTick() tea.Cmd {
	return tea.Tick(80*time.Millisecond, func(t time.Time) tea.Msg {
		return SpinnerTickMsg(t)
	})
}

func (m ProgressModel) Update(msg tea.Msg) (ProgressModel, tea.Cmd) {
	switch msg.(type) {
	case buildMsg:
		m.updates++
	case streamDoneMsg:
		m.done = true
	case SpinnerTickMsg:
		m.spinnerFrame = (m.spinnerFrame + 1) % len(spinnerFrames)
		if !m.done {
			return m, SpinnerTick()
		}
	}
	return m, nil
}

func (m ProgressModel) View() string {
	if m.done {
		completeStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("2"))
		return completeStyle.Render(fmt.Sprintf("✓ Watch complete, %d updates", m.updates))
	}

	spinner := spinnerFrames[m.spinnerFrame]
	spinnerStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("#FFD700")) // Gold
	if m.updates == 0 {
		return fmt.Sprintf("%s Discovering builds...", spinnerStyle.Render(spinner))
	}
	return fmt.Sprintf("%s Watching, %d updates", spinnerStyle.Render(spinner), m.updates)
}
