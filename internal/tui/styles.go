package tui

import (
	"github.com/charmbracelet/lipgloss"

	"github.com/papapumpkin/flowlane/internal/workflow"
)

// Semantic color palette.
var (
	colorPrimary     = lipgloss.Color("#00BFFF") // Cyan, primary accent
	colorAccent      = lipgloss.Color("#FFD700") // Gold, stale data
	colorSuccess     = lipgloss.Color("#00E676") // Green, completed
	colorDanger      = lipgloss.Color("#FF5252") // Red, failures
	colorMuted       = lipgloss.Color("#636363") // Gray, de-emphasized
	colorMutedLight  = lipgloss.Color("#8C8C8C") // Lighter gray, normal text
	colorWhite       = lipgloss.Color("#EEEEEE")
	colorBrightWhite = lipgloss.Color("#FFFFFF")
	colorSurface     = lipgloss.Color("#1E1E2E") // Status bar background
	colorSurfaceDim  = lipgloss.Color("#181825") // Footer background
	colorBlue        = lipgloss.Color("#5B8DEF") // Running
	colorMagenta     = lipgloss.Color("#C678DD") // Failed upstream
)

// Selection indicator prepended to the active row.
const selectionIndicator = "▎"

// Status icons.
const (
	iconDone    = "✓"
	iconFailed  = "✗"
	iconRunning = "◎"
	iconWaiting = "·"
	iconStale   = "◆"
)

// Status bar styles.
var (
	styleStatusBar = lipgloss.NewStyle().
			Background(colorSurface).
			Foreground(colorWhite).
			Bold(true).
			Padding(0, 1)

	styleStatusLabel = lipgloss.NewStyle().
				Foreground(colorPrimary).
				Bold(true)

	styleStatusValue = lipgloss.NewStyle().
				Foreground(colorWhite)

	styleStatusStale = lipgloss.NewStyle().
				Foreground(colorAccent).
				Bold(true)

	styleStatusError = lipgloss.NewStyle().
				Foreground(colorDanger)
)

// Row styles for group and task lists.
var (
	styleRowSelected = lipgloss.NewStyle().
				Foreground(colorBrightWhite).
				Bold(true)

	styleRowNormal = lipgloss.NewStyle().
			Foreground(colorMutedLight)

	styleSelectionIndicator = lipgloss.NewStyle().
				Foreground(colorPrimary)
)

// Detail panel styles.
var (
	styleDetailBorder = lipgloss.NewStyle().
				Border(lipgloss.RoundedBorder()).
				BorderForeground(colorMuted).
				Padding(0, 1)

	styleDetailTitle = lipgloss.NewStyle().
				Foreground(colorPrimary).
				Bold(true)

	styleDetailDim = lipgloss.NewStyle().
			Foreground(colorMuted)

	styleDetailSep = lipgloss.NewStyle().
			Foreground(colorMuted)

	styleDetailHeaderLabel = lipgloss.NewStyle().
				Foreground(colorMuted)

	styleDetailHeaderValue = lipgloss.NewStyle().
				Foreground(colorWhite)

	styleScrollIndicator = lipgloss.NewStyle().
				Foreground(colorMuted).
				Italic(true)
)

// Footer styles.
var (
	styleFooter = lipgloss.NewStyle().
			Background(colorSurfaceDim).
			Foreground(colorMuted).
			Padding(0, 1)

	styleFooterKey = lipgloss.NewStyle().
			Foreground(colorPrimary).
			Bold(true)

	styleFooterDesc = lipgloss.NewStyle().
			Foreground(colorMutedLight)

	styleFooterSep = lipgloss.NewStyle().
			Foreground(colorMuted)
)

// CompactWidth is the terminal width below which the footer drops key
// descriptions.
const CompactWidth = 70

// statusIcon returns the icon and style for a workflow status.
func statusIcon(s workflow.Status) (string, lipgloss.Style) {
	switch {
	case s == workflow.StatusCompleted:
		return iconDone, lipgloss.NewStyle().Foreground(colorSuccess)
	case s == workflow.StatusFailedUpstream:
		return iconFailed, lipgloss.NewStyle().Foreground(colorMagenta)
	case s.Failed():
		return iconFailed, lipgloss.NewStyle().Foreground(colorDanger).Bold(true)
	case s == workflow.StatusRunning || s == workflow.StatusInitializing:
		return iconRunning, lipgloss.NewStyle().Foreground(colorBlue)
	default:
		return iconWaiting, lipgloss.NewStyle().Foreground(colorMutedLight)
	}
}
