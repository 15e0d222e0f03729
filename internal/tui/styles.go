// Package tui provides the interactive operation monitor for birdnest.
package tui

import (
	"birdnest/pkg/operation"

	"github.com/charmbracelet/lipgloss"
)

var (
	accent  = lipgloss.Color("#5B8DEF")
	good    = lipgloss.Color("#3FB950")
	caution = lipgloss.Color("#D29922")
	bad     = lipgloss.Color("#F85149")
	dim     = lipgloss.Color("#8B949E")
	fg      = lipgloss.Color("#E6EDF3")
	panel   = lipgloss.Color("#30363D")
)

// backendColors colors the backend badge in the header.
var backendColors = map[string]lipgloss.Color{
	"apt":     lipgloss.Color("#A80030"),
	"flatpak": lipgloss.Color("#4A90D9"),
	"pikman":  lipgloss.Color("#2E9F6B"),
}

// Styles holds the styles for each region of the monitor.
type Styles struct {
	Header lipgloss.Style
	Footer lipgloss.Style
	Muted  lipgloss.Style

	// package table
	Heading lipgloss.Style
	Name    lipgloss.Style
	Version lipgloss.Style
	Size    lipgloss.Style

	// status line
	Running lipgloss.Style
	Done    lipgloss.Style
	Blocked lipgloss.Style
	Broken  lipgloss.Style
	Spinner lipgloss.Style

	OutputBox     lipgloss.Style
	ConflictBox   lipgloss.Style
	ConflictTitle lipgloss.Style
	Label         lipgloss.Style
	Key           lipgloss.Style
}

func fgStyle(c lipgloss.Color) lipgloss.Style {
	return lipgloss.NewStyle().Foreground(c)
}

// DefaultStyles returns the monitor's dark theme.
func DefaultStyles() *Styles {
	box := lipgloss.NewStyle().Border(lipgloss.RoundedBorder())

	return &Styles{
		Header: lipgloss.NewStyle().Foreground(fg).Background(panel).Bold(true).Padding(0, 1),
		Footer: fgStyle(dim).Padding(0, 1),
		Muted:  fgStyle(dim),

		Heading: fgStyle(fg).Bold(true).MarginBottom(1),
		Name:    fgStyle(fg).Bold(true),
		Version: fgStyle(good),
		Size:    fgStyle(accent),

		Running: fgStyle(accent),
		Done:    fgStyle(good).Bold(true),
		Blocked: fgStyle(caution).Bold(true),
		Broken:  fgStyle(bad).Bold(true),
		Spinner: fgStyle(accent),

		OutputBox:     box.BorderForeground(dim),
		ConflictBox:   box.BorderForeground(caution).Padding(0, 1),
		ConflictTitle: fgStyle(caution).Bold(true),
		Label:         fgStyle(accent),
		Key:           fgStyle(fg).Background(accent).Padding(0, 1).MarginRight(1),
	}
}

// PhaseStyle colors the status line by phase.
func (s *Styles) PhaseStyle(p operation.Phase) lipgloss.Style {
	switch p {
	case operation.Complete:
		return s.Done
	case operation.ConflictDetected:
		return s.Blocked
	case operation.Failed:
		return s.Broken
	}
	return s.Running
}

// Badge renders text as a colored label.
func Badge(text string, c lipgloss.Color) string {
	return lipgloss.NewStyle().Foreground(lipgloss.Color("#FFFFFF")).Background(c).Padding(0, 1).Render(text)
}

// BackendBadge renders a badge for a backend name.
func BackendBadge(name string) string {
	c, ok := backendColors[name]
	if !ok {
		c = dim
	}
	return Badge(name, c)
}
