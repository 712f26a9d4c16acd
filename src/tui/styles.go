package tui

import (
	"github.com/charmbracelet/lipgloss"

	"buildwatch-agent/src/provider"
)

// StyleConfig holds all customizable style colors for the build view.
type StyleConfig struct {
	// Primary colors
	PrimaryBlue    lipgloss.Color
	DarkBackground lipgloss.Color
	TextPrimary    lipgloss.Color
	TextSecondary  lipgloss.Color
	BorderColor    lipgloss.Color
	SelectedColor  lipgloss.Color

	// Status colors
	SuccessColor    lipgloss.Color
	FailureColor    lipgloss.Color
	StoppedColor    lipgloss.Color
	InProgressColor lipgloss.Color
}

// DefaultStyles returns the default color palette
func DefaultStyles() *StyleConfig {
	return &StyleConfig{
		PrimaryBlue:     lipgloss.Color("#8AB4F8"),
		DarkBackground:  lipgloss.Color("#1E1E1E"),
		TextPrimary:     lipgloss.Color("#E8EAED"),
		TextSecondary:   lipgloss.Color("#9AA0A6"),
		BorderColor:     lipgloss.Color("#5F6368"),
		SelectedColor:   lipgloss.Color("#303134"),
		SuccessColor:    lipgloss.Color("#34A853"),
		FailureColor:    lipgloss.Color("#EA4335"),
		StoppedColor:    lipgloss.Color("#A142F4"),
		InProgressColor: lipgloss.Color("#FBBC04"),
	}
}

// StatusColor returns the accent color for a build status.
func (s *StyleConfig) StatusColor(status provider.Status) lipgloss.Color {
	switch status {
	case provider.StatusSuccess:
		return s.SuccessColor
	case provider.StatusFailure:
		return s.FailureColor
	case provider.StatusStopped:
		return s.StoppedColor
	case provider.StatusInProgress:
		return s.InProgressColor
	default:
		return s.TextSecondary
	}
}

// StatusGlyph returns the one-cell marker shown for a status.
func StatusGlyph(status provider.Status) string {
	switch status {
	case provider.StatusSuccess:
		return "✓"
	case provider.StatusFailure:
		return "✗"
	case provider.StatusStopped:
		return "■"
	case provider.StatusInProgress:
		return "●"
	default:
		return "?"
	}
}

// TitleStyle returns a title lipgloss style using this config
func (s *StyleConfig) TitleStyle() lipgloss.Style {
	return lipgloss.NewStyle().
		Foreground(s.PrimaryBlue).
		Bold(true).
		Padding(0, 1)
}

// HelpStyle returns a help text lipgloss style using this config
func (s *StyleConfig) HelpStyle() lipgloss.Style {
	return lipgloss.NewStyle().
		Foreground(s.TextSecondary).
		Padding(0, 2)
}

// ErrorStyle renders the terminal stream error.
func (s *StyleConfig) ErrorStyle() lipgloss.Style {
	return lipgloss.NewStyle().
		Foreground(s.FailureColor).
		Bold(true).
		Padding(0, 2)
}

// PanelStyle returns a bordered container style using this config
func (s *StyleConfig) PanelStyle() lipgloss.Style {
	return lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(s.BorderColor)
}
