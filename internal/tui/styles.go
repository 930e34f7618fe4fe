package tui

import (
	"github.com/charmbracelet/lipgloss"

	"github.com/sadopc/tally/internal/windows"
)

// Color palette
var (
	colorPrimary   = lipgloss.Color("#6C63FF")
	colorSecondary = lipgloss.Color("#2EC4B6")
	colorMuted     = lipgloss.Color("#666666")
	colorSuccess   = lipgloss.Color("#2ECC71")
	colorWarning   = lipgloss.Color("#F39C12")
	colorError     = lipgloss.Color("#E74C3C")
	colorFg        = lipgloss.Color("#C0CAF5")
	colorSubtle    = lipgloss.Color("#414868")
	colorHighlight = lipgloss.Color("#7AA2F7")
)

// Styles
var (
	// Tabs
	activeTabStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(colorPrimary).
			Border(lipgloss.NormalBorder(), false, false, true, false).
			BorderForeground(colorPrimary).
			Padding(0, 2)

	inactiveTabStyle = lipgloss.NewStyle().
				Foreground(colorMuted).
				Padding(0, 2)

	// Panels
	panelStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(colorSubtle).
			Padding(1, 2)

	activePanelStyle = lipgloss.NewStyle().
				Border(lipgloss.RoundedBorder()).
				BorderForeground(colorPrimary).
				Padding(1, 2)

	// Counter
	amountStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(colorPrimary).
			Align(lipgloss.Center)

	amountNegativeStyle = lipgloss.NewStyle().
				Bold(true).
				Foreground(colorError).
				Align(lipgloss.Center)

	modeLabelStyle = lipgloss.NewStyle().
			Foreground(colorSecondary).
			Align(lipgloss.Center)

	// Text
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(colorFg)

	successStyle = lipgloss.NewStyle().
			Foreground(colorSuccess)

	warningStyle = lipgloss.NewStyle().
			Foreground(colorWarning)

	errorStyle = lipgloss.NewStyle().
			Foreground(colorError)

	mutedStyle = lipgloss.NewStyle().
			Foreground(colorMuted)

	highlightStyle = lipgloss.NewStyle().
			Foreground(colorHighlight)

	// Header/footer
	headerStyle = lipgloss.NewStyle().
			Padding(0, 1)

	footerStyle = lipgloss.NewStyle().
			Foreground(colorMuted).
			Padding(0, 1)

	// List items
	selectedItemStyle = lipgloss.NewStyle().
				Foreground(colorPrimary).
				Bold(true)

	normalItemStyle = lipgloss.NewStyle().
			Foreground(colorFg)

	// Overlay canvas
	canvasStyle = lipgloss.NewStyle().
			Foreground(colorSubtle)
)

// deltaStyle colors a signed amount.
func deltaStyle(d int64) lipgloss.Style {
	switch {
	case d > 0:
		return successStyle
	case d < 0:
		return errorStyle
	default:
		return mutedStyle
	}
}

// triggerStyle renders one cell of a trigger handle. The fill rune and
// colors depend on the window's trigger style; a pressed handle is drawn
// lighter.
func triggerStyle(c *windows.Config, pressed bool) (lipgloss.Style, string) {
	color := lipgloss.Color(windows.RGB(c.TriggerColor))
	base := lipgloss.NewStyle()
	fill := " "
	switch c.TriggerStyle {
	case windows.Solid:
		base = base.Background(color).Foreground(colorFg)
	case windows.Outline:
		base = base.Foreground(color)
		fill = "·"
	case windows.Glass:
		base = base.Foreground(color)
		fill = glassFill(windows.Alpha(c.TriggerColor))
	case windows.Inverted:
		base = base.Background(colorFg).Foreground(color)
	}
	if pressed {
		base = base.Faint(true)
		if fill == " " {
			fill = "▒"
		}
	}
	return base, fill
}

// glassFill shades a glass trigger by the opacity of its color.
func glassFill(alpha uint8) string {
	switch {
	case alpha >= 0xC0:
		return "▓"
	case alpha >= 0x80:
		return "▒"
	case alpha >= 0x40:
		return "░"
	default:
		return "·"
	}
}

// blockStyle is the background for Block-mode items; bad colors fall back
// to the subtle palette color.
func blockStyle(hex string) lipgloss.Style {
	argb, err := windows.ParseColor(hex)
	if err != nil {
		return lipgloss.NewStyle().Background(colorSubtle).Foreground(colorFg)
	}
	return lipgloss.NewStyle().Background(lipgloss.Color(windows.RGB(argb))).Foreground(colorFg)
}
