package ui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// Palette is one color scheme
type Palette struct {
	Accent     lipgloss.Color
	AccentDeep lipgloss.Color
	Background lipgloss.Color
	Foreground lipgloss.Color
	Muted      lipgloss.Color
	Success    lipgloss.Color
	Warning    lipgloss.Color
	Error      lipgloss.Color
	Info       lipgloss.Color
}

var (
	DarkPalette = Palette{
		Accent:     lipgloss.Color("#ef233c"),
		AccentDeep: lipgloss.Color("#d90429"),
		Background: lipgloss.Color("#2b2d42"),
		Foreground: lipgloss.Color("#edf2f4"),
		Muted:      lipgloss.Color("#8d99ae"),
		Success:    lipgloss.Color("#2ecc71"),
		Warning:    lipgloss.Color("#f39c12"),
		Error:      lipgloss.Color("#ef233c"),
		Info:       lipgloss.Color("#3498db"),
	}

	LightPalette = Palette{
		Accent:     lipgloss.Color("#c1121f"),
		AccentDeep: lipgloss.Color("#780000"),
		Background: lipgloss.Color("#fdf0d5"),
		Foreground: lipgloss.Color("#1d3557"),
		Muted:      lipgloss.Color("#6c757d"),
		Success:    lipgloss.Color("#2b9348"),
		Warning:    lipgloss.Color("#b5651d"),
		Error:      lipgloss.Color("#c1121f"),
		Info:       lipgloss.Color("#1d4ed8"),
	}
)

// Current palette and the styles derived from it. ApplyTheme swaps both.
var (
	Colors = DarkPalette

	HeaderStyle    lipgloss.Style
	FooterStyle    lipgloss.Style
	TitleStyle     lipgloss.Style
	ContentStyle   lipgloss.Style
	MutedStyle     lipgloss.Style
	HighlightStyle lipgloss.Style
	SuccessStyle   lipgloss.Style
	ErrorStyle     lipgloss.Style
	WarningStyle   lipgloss.Style
	InfoStyle      lipgloss.Style
	StatStyle      lipgloss.Style

	OKMarker   lipgloss.Style
	InfoMarker lipgloss.Style
	WarnMarker lipgloss.Style
	FailMarker lipgloss.Style
)

func init() {
	buildStyles(DarkPalette)
}

// ApplyTheme switches the package styles to "dark" or "light"
func ApplyTheme(name string) error {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", "dark":
		buildStyles(DarkPalette)
	case "light":
		buildStyles(LightPalette)
	default:
		return fmt.Errorf("unknown theme: %s", name)
	}
	return nil
}

func buildStyles(p Palette) {
	Colors = p

	HeaderStyle = lipgloss.NewStyle().
		Bold(true).
		Foreground(p.Foreground).
		Background(p.Accent).
		Padding(0, 1)

	FooterStyle = lipgloss.NewStyle().
		Foreground(p.Muted).
		Padding(0, 1)

	TitleStyle = lipgloss.NewStyle().
		Bold(true).
		Foreground(p.Accent).
		MarginTop(1).
		MarginBottom(1)

	ContentStyle = lipgloss.NewStyle().Foreground(p.Foreground)
	MutedStyle = lipgloss.NewStyle().Foreground(p.Muted)

	HighlightStyle = lipgloss.NewStyle().
		Foreground(p.Background).
		Background(p.Accent).
		Bold(true)

	SuccessStyle = lipgloss.NewStyle().Foreground(p.Success).Bold(true)
	ErrorStyle = lipgloss.NewStyle().Foreground(p.Error).Bold(true)
	WarningStyle = lipgloss.NewStyle().Foreground(p.Warning).Bold(true)
	InfoStyle = lipgloss.NewStyle().Foreground(p.Info)
	StatStyle = lipgloss.NewStyle().Foreground(p.Accent).Bold(true)

	OKMarker = lipgloss.NewStyle().Foreground(p.Success).SetString("[OK]")
	InfoMarker = lipgloss.NewStyle().Foreground(p.Info).SetString("[INFO]")
	WarnMarker = lipgloss.NewStyle().Foreground(p.Warning).SetString("[WARN]")
	FailMarker = lipgloss.NewStyle().Foreground(p.Error).SetString("[FAIL]")
}

// FormatKeybinding formats a keybinding for display in footer
func FormatKeybinding(key, description string) string {
	keyStyle := lipgloss.NewStyle().
		Foreground(Colors.Accent).
		Bold(true)

	return keyStyle.Render(key) + " " + MutedStyle.Render(description)
}

// FormatHeader formats a header with consistent styling
func FormatHeader(title string) string {
	return HeaderStyle.Render(title)
}

// FormatFooter formats footer with keybindings
func FormatFooter(keybindings ...string) string {
	return FooterStyle.Render(strings.Join(keybindings, "  "))
}

// FormatStatusOK returns an [OK] marker with message
func FormatStatusOK(message string) string {
	return OKMarker.String() + " " + message
}

// FormatStatusInfo returns an [INFO] marker with message
func FormatStatusInfo(message string) string {
	return InfoMarker.String() + " " + message
}

// FormatStatusWarn returns a [WARN] marker with message
func FormatStatusWarn(message string) string {
	return WarnMarker.String() + " " + message
}

// FormatStatusFail returns a [FAIL] marker with message
func FormatStatusFail(message string) string {
	return FailMarker.String() + " " + message
}
