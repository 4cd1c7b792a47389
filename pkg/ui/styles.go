package ui

import (
	"github.com/charmbracelet/lipgloss"
)

// Palette. Status roles map onto the base colors: verified and processed use
// ColorSuccess, mining and expiring use ColorWarning, failed and expired use ColorError.
var (
	ColorPrimary = lipgloss.AdaptiveColor{Light: "#5B3FD9", Dark: "#A594FF"}
	ColorAccent  = lipgloss.AdaptiveColor{Light: "#1F6FEB", Dark: "#58A6FF"}
	ColorSuccess = lipgloss.AdaptiveColor{Light: "#1A7F37", Dark: "#3FB950"}
	ColorWarning = lipgloss.AdaptiveColor{Light: "#9A6700", Dark: "#D29922"}
	ColorError   = lipgloss.AdaptiveColor{Light: "#CF222E", Dark: "#F85149"}
	ColorInfo    = lipgloss.AdaptiveColor{Light: "#0969DA", Dark: "#79C0FF"}
	ColorMuted   = lipgloss.AdaptiveColor{Light: "#6E7781", Dark: "#8B949E"}
	ColorDefault = lipgloss.AdaptiveColor{Light: "#1F2328", Dark: "#E6EDF3"}
)

var (
	StyleSuccess lipgloss.Style
	StyleError   lipgloss.Style
	StylePrimary lipgloss.Style
	StyleInfo    lipgloss.Style
	StyleMuted   lipgloss.Style
	StyleWarning lipgloss.Style
	StyleAccent  lipgloss.Style

	StyleTitle  lipgloss.Style
	StyleHeader lipgloss.Style
	StyleSubtle lipgloss.Style
	StyleBold   lipgloss.Style

	// Tables
	StyleTableHeader lipgloss.Style
	StyleTableRow    lipgloss.Style
	StyleTableRowAlt lipgloss.Style
	StyleTableDim    lipgloss.Style
	StyleTableBorder lipgloss.Style

	// Status badges (no bold, they sit inside table rows)
	StyleBadgeSuccess lipgloss.Style
	StyleBadgeWarning lipgloss.Style
	StyleBadgeError   lipgloss.Style
	StyleBadgeInfo    lipgloss.Style
)

const (
	IconSuccess  = "✔"
	IconError    = "✘"
	IconInfo     = "ℹ"
	IconWarning  = "⚠"
	IconRocket   = "🚀"
	IconDocument = "📄"
	IconUpload   = "⬆"
	IconChain    = "⛓"
	IconSparkle  = "✨"
	IconClock    = "⏳"
	IconLocal    = "◌"
)

func init() {
	SetTheme("auto")
}

// SetTheme switches between "dark", "light" and "auto" (terminal detection)
// and rebuilds every style from the palette.
func SetTheme(theme string) {
	switch theme {
	case "light":
		lipgloss.SetHasDarkBackground(false)
	case "dark":
		lipgloss.SetHasDarkBackground(true)
	}
	buildStyles()
}

func fg(c lipgloss.TerminalColor) lipgloss.Style {
	return lipgloss.NewStyle().Foreground(c)
}

func buildStyles() {
	StyleSuccess = fg(ColorSuccess).Bold(true)
	StyleError = fg(ColorError).Bold(true)
	StylePrimary = fg(ColorPrimary).Bold(true)
	StyleInfo = fg(ColorInfo)
	StyleMuted = fg(ColorMuted)
	StyleWarning = fg(ColorWarning).Bold(true)
	StyleAccent = fg(ColorAccent)

	StyleTitle = StylePrimary.Underline(true)
	StyleHeader = StylePrimary
	StyleSubtle = StyleMuted.Italic(true)
	StyleBold = lipgloss.NewStyle().Bold(true)

	StyleTableHeader = StylePrimary
	StyleTableRow = fg(ColorDefault)
	StyleTableRowAlt = fg(ColorDefault).Faint(true)
	StyleTableDim = StyleMuted.Italic(true)
	StyleTableBorder = StyleMuted

	StyleBadgeSuccess = fg(ColorSuccess)
	StyleBadgeWarning = fg(ColorWarning)
	StyleBadgeError = fg(ColorError)
	StyleBadgeInfo = fg(ColorInfo)
}

func withIcon(style lipgloss.Style, icon, msg string) string {
	return style.Render(icon + " " + msg)
}

// FormatSuccess returns a success message with icon
func FormatSuccess(msg string) string { return withIcon(StyleSuccess, IconSuccess, msg) }

// FormatError returns an error message with icon
func FormatError(msg string) string { return withIcon(StyleError, IconError, msg) }

// FormatInfo returns an info message with icon
func FormatInfo(msg string) string { return withIcon(StyleInfo, IconInfo, msg) }

// FormatWarning returns a warning message with icon
func FormatWarning(msg string) string { return withIcon(StyleWarning, IconWarning, msg) }

// FormatRocket announces long-running actions such as watch mode
func FormatRocket(msg string) string { return withIcon(StylePrimary, IconRocket, msg) }

// FormatUpload returns an upload progress message
func FormatUpload(msg string) string { return withIcon(StyleAccent, IconUpload, msg) }

func FormatTitle(title string) string { return StyleTitle.Render(title) }

func FormatMuted(text string) string { return StyleMuted.Render(text) }
