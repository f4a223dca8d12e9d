package tui

import (
	"image/color"

	"github.com/charmbracelet/lipgloss"
	"github.com/san-kum/mlviz/internal/anim"
	"github.com/san-kum/mlviz/internal/render"
)

var (
	canvasStyle      = lipgloss.NewStyle().Padding(1, 2)
	statsStyle       = lipgloss.NewStyle().Border(lipgloss.NormalBorder(), false, false, false, true).BorderForeground(lipgloss.Color("240")).Padding(1, 2).Width(statsWidth)
	headerStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("86")).Bold(true).MarginBottom(1)
	labelStyle       = lipgloss.NewStyle().Foreground(lipgloss.Color("245")).Width(12)
	valueStyle       = lipgloss.NewStyle().Foreground(lipgloss.Color("252"))
	activeParamStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("205")).Bold(true)
	lockedStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("238"))
	graphStyle       = lipgloss.NewStyle().Foreground(lipgloss.Color("49")).Padding(1, 0)
	helpStyle        = lipgloss.NewStyle().Foreground(lipgloss.Color("240")).MarginTop(1)
	errorStyle       = lipgloss.NewStyle().Foreground(lipgloss.Color("#ff4444")).Bold(true).Width(statsWidth - 4)

	menuTitle   = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#00ffff"))
	menuCursor  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#ff00ff"))
	menuItem    = lipgloss.NewStyle().Foreground(lipgloss.Color("255"))
	menuSummary = lipgloss.NewStyle().Foreground(lipgloss.Color("#666688")).Italic(true)
	menuPanel   = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).BorderForeground(lipgloss.Color("#444466")).Padding(1, 2)

	statusPlaying   = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#00ff88"))
	statusPaused    = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#ffaa00"))
	statusFinished  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#00ccff"))
	statusRecording = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#ff4444")).Blink(true)
)

const statsWidth = 46

func statusStyle(s anim.State) lipgloss.Style {
	switch s {
	case anim.Playing:
		return statusPlaying
	case anim.Terminal:
		return statusFinished
	}
	return statusPaused
}

// paint colors one run of braille cells. Cells that were never drawn keep
// the terminal's own foreground.
func paint(c color.RGBA, s string) string {
	if c.A == 0 {
		return s
	}
	return lipgloss.NewStyle().Foreground(lipgloss.Color(render.ToHex(c))).Render(s)
}

func nextTheme(cur string) render.Theme {
	names := render.ThemeNames()
	for i, name := range names {
		if name == cur {
			return render.GetTheme(names[(i+1)%len(names)])
		}
	}
	return render.DefaultTheme
}
