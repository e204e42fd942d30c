// Package ui holds the terminal presentation helpers shared by the CLI
// commands: color styles, TTY detection, and small report renderers.
//
// Styling degrades automatically. When stdout is not a terminal, or the
// terminal reports no color support, every renderer returns its input
// unstyled, so command output stays pipe- and script-safe.
package ui

import (
	"fmt"
	"os"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"
	"golang.org/x/term"
)

// Styles
var (
	passStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#00FA9A")).
			Bold(true)

	warnStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FFB454"))

	failStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FF4C4C")).
			Bold(true)

	accentStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#7D56F4")).
			Bold(true)

	dimStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#AAAAAA"))

	headerStyle = lipgloss.NewStyle().
			Bold(true).
			Underline(true)
)

// IsInteractive reports whether stdout is attached to a terminal.
// Non-interactive runs skip confirmations and color.
func IsInteractive() bool {
	return term.IsTerminal(int(os.Stdout.Fd()))
}

// colorEnabled is computed once; NO_COLOR and dumb terminals both
// disable styling through termenv's profile detection.
var colorEnabled = func() bool {
	if !term.IsTerminal(int(os.Stdout.Fd())) {
		return false
	}
	return termenv.EnvColorProfile() != termenv.Ascii
}()

func render(style lipgloss.Style, s string) string {
	if !colorEnabled {
		return s
	}
	return style.Render(s)
}

// RenderPass renders a healthy status marker.
func RenderPass(s string) string { return render(passStyle, s) }

// RenderWarn renders a degraded-but-working status marker.
func RenderWarn(s string) string { return render(warnStyle, s) }

// RenderFail renders a failure marker.
func RenderFail(s string) string { return render(failStyle, s) }

// RenderAccent renders an emphasized identifier, like a subtree path.
func RenderAccent(s string) string { return render(accentStyle, s) }

// RenderDim renders secondary detail text.
func RenderDim(s string) string { return render(dimStyle, s) }

// RenderHeader renders a section heading.
func RenderHeader(s string) string { return render(headerStyle, s) }

// Width returns the terminal width, or the fallback when stdout is not
// a terminal or the size cannot be determined.
func Width(fallback int) int {
	if w, _, err := term.GetSize(int(os.Stdout.Fd())); err == nil && w > 0 {
		return w
	}
	return fallback
}

// StatusLine formats a doctor-style report line: a marker, the subject,
// and optional detail.
//
// Example:
//
//	ui.StatusLine(true, "git", "2.39.0")   // "  ✓ git (2.39.0)"
//	ui.StatusLine(false, "fossil", "not installed")
func StatusLine(ok bool, subject, detail string) string {
	marker := RenderPass("✓")
	if !ok {
		marker = RenderFail("✗")
	}
	line := fmt.Sprintf("  %s %s", marker, subject)
	if detail != "" {
		line += " " + RenderDim("("+detail+")")
	}
	return line
}

// Table renders rows as aligned columns with a styled header row. Meant
// for small listings; column widths are computed from the content.
func Table(headers []string, rows [][]string) string {
	widths := make([]int, len(headers))
	for i, h := range headers {
		widths[i] = len(h)
	}
	for _, row := range rows {
		for i, cell := range row {
			if i < len(widths) && len(cell) > widths[i] {
				widths[i] = len(cell)
			}
		}
	}

	var b strings.Builder
	var head strings.Builder
	for i, h := range headers {
		head.WriteString(pad(h, widths[i]))
		if i < len(headers)-1 {
			head.WriteString("  ")
		}
	}
	b.WriteString(RenderHeader(strings.TrimRight(head.String(), " ")))
	b.WriteByte('\n')

	for _, row := range rows {
		for i, cell := range row {
			if i < len(widths) {
				b.WriteString(pad(cell, widths[i]))
				if i < len(row)-1 {
					b.WriteString("  ")
				}
			}
		}
		b.WriteByte('\n')
	}
	return strings.TrimRight(b.String(), "\n")
}

func pad(s string, width int) string {
	if len(s) >= width {
		return s
	}
	return s + strings.Repeat(" ", width-len(s))
}
