package ui

import "github.com/charmbracelet/lipgloss"

// ezrename header as a single string to preserve exact spacing
const ezrenameASCII = `
  ██████  ████████  ████    ██████  ██████    ██████  ██████████  ██████
  ██  ██      ██    ██  ██  ██  ██  ██  ██        ██  ██  ██  ██  ██  ██
  ██████    ██      ████    ██████  ██  ██    ██████  ██  ██  ██  ██████
  ██      ██        ██  ██  ██      ██  ██  ██    ██  ██  ██  ██  ██
  ██████  ████████  ██  ██  ██████  ██  ██    ██████  ██  ██  ██  ██████`

// FormatASCIIHeader renders the header in the accent color
func FormatASCIIHeader() string {
	headerStyle := lipgloss.NewStyle().
		Foreground(Colors.Accent).
		Bold(true)

	return headerStyle.Render(ezrenameASCII)
}

// FormatASCIIHeaderWithSubtext renders header with subtitle
func FormatASCIIHeaderWithSubtext(subtext string) string {
	return FormatASCIIHeader() + "\n\n" + MutedStyle.Render(subtext)
}
