package tui

import "github.com/charmbracelet/lipgloss"

var (
	panel = lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(lipgloss.Color("#444466")).
		Padding(0, 1)

	title = lipgloss.NewStyle().
		Bold(true).
		Foreground(lipgloss.Color("#00ffff"))

	label = lipgloss.NewStyle().Foreground(lipgloss.Color("#888899"))
	value = lipgloss.NewStyle().Foreground(lipgloss.Color("#00ccff")).Bold(true)
	hint  = lipgloss.NewStyle().Foreground(lipgloss.Color("#666688")).Italic(true)

	running = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#00ff88"))
	paused  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#ffaa00"))
	stopped = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#ff4444"))

	dark  = lipgloss.NewStyle().Foreground(lipgloss.Color("#00ff88"))
	light = lipgloss.NewStyle().Foreground(lipgloss.Color("#444466"))
)
