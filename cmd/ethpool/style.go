package main

import "github.com/charmbracelet/lipgloss"

var (
	colorError = lipgloss.AdaptiveColor{Light: "#c62828", Dark: "#ef5350"}
	colorInfo  = lipgloss.AdaptiveColor{Light: "#0277bd", Dark: "#4fc3f7"}
	colorMuted = lipgloss.AdaptiveColor{Light: "#757575", Dark: "#9e9e9e"}

	headingStyle = lipgloss.NewStyle().Foreground(colorInfo).Bold(true)
	labelStyle   = lipgloss.NewStyle().Foreground(colorMuted)
	errorStyle   = lipgloss.NewStyle().Foreground(colorError).Bold(true)
)
