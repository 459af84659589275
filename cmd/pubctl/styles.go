// SPDX-License-Identifier: MPL-2.0

package cmd

import "github.com/charmbracelet/lipgloss"

// Palette for dark terminal backgrounds. lipgloss drops the colors when
// NO_COLOR is set or stdout is not a terminal.
var (
	purple = lipgloss.Color("#7C3AED")
	gray   = lipgloss.Color("#6B7280")
	silver = lipgloss.Color("#9CA3AF")
	green  = lipgloss.Color("#10B981")
	red    = lipgloss.Color("#EF4444")
	amber  = lipgloss.Color("#F59E0B")
	blue   = lipgloss.Color("#3B82F6")
)

var (
	titleStyle   = lipgloss.NewStyle().Bold(true).Foreground(purple)
	sectionStyle = titleStyle.MarginTop(1)
	mutedStyle   = lipgloss.NewStyle().Foreground(gray)
	okStyle      = lipgloss.NewStyle().Foreground(green)
	failStyle    = lipgloss.NewStyle().Bold(true).Foreground(red)
	warnStyle    = lipgloss.NewStyle().Foreground(amber)
	// keyStyle marks operation names, document keys and labels.
	keyStyle = lipgloss.NewStyle().Foreground(blue)
	// valueStyle marks configuration values.
	valueStyle = okStyle
	// detailStyle is for the secondary column of listings.
	detailStyle = lipgloss.NewStyle().Foreground(silver)
)
