package util

import (
	"fmt"
	"os"
	"strings"

	"github.com/mattn/go-runewidth"
	"golang.org/x/term"
)

// Terminal colors
const (
	ColorReset   = "\033[0m"
	ColorCyan    = "\033[36m"
	ColorGreen   = "\033[32m"
	ColorYellow  = "\033[33m"
	ColorRed     = "\033[31m"
	ColorMagenta = "\033[35m"
	ColorBold    = "\033[1m"
)

// DefaultTerminalWidth is used when stdout is not a terminal.
const DefaultTerminalWidth = 120

// GetDisplayWidth calculates the display width of a string, accounting for
// wide runes
func GetDisplayWidth(text string) int {
	return runewidth.StringWidth(text)
}

// PadRight pads text with spaces to the given display width.
func PadRight(text string, width int) string {
	return runewidth.FillRight(text, width)
}

// PadLeft pads text on the left to the given display width.
func PadLeft(text string, width int) string {
	return runewidth.FillLeft(text, width)
}

// Truncate shortens text to width display cells, ending with "…".
func Truncate(text string, width int) string {
	return runewidth.Truncate(text, width, "…")
}

// IsTerminal reports whether f is attached to a terminal.
func IsTerminal(f *os.File) bool {
	return term.IsTerminal(int(f.Fd()))
}

// TerminalWidth returns the width of stdout, DefaultTerminalWidth when it is
// not a terminal.
func TerminalWidth() int {
	width, _, err := term.GetSize(int(os.Stdout.Fd()))
	if err != nil || width <= 0 {
		return DefaultTerminalWidth
	}
	return width
}

// Colorize wraps text in color when stdout is a terminal.
func Colorize(color, text string) string {
	if !IsTerminal(os.Stdout) {
		return text
	}
	return color + text + ColorReset
}

// FormatHeaderTitle formats main header titles (Magenta + Bold)
func FormatHeaderTitle(title string) string {
	return Colorize(ColorBold+ColorMagenta, title)
}

// FormatDiagnosticTitle formats warnings and validation titles (Yellow + Bold)
func FormatDiagnosticTitle(title string) string {
	return Colorize(ColorBold+ColorYellow, title)
}

// FormatOverviewTitle formats overview/summary titles (Cyan + Bold)
func FormatOverviewTitle(title string) string {
	return Colorize(ColorBold+ColorCyan, title)
}

// FormatDataTitle formats data section titles (Green + Bold)
func FormatDataTitle(title string) string {
	return Colorize(ColorBold+ColorGreen, title)
}

// FormatErrorText formats failures (Red)
func FormatErrorText(text string) string {
	return Colorize(ColorRed, text)
}

// FormatSectionSeparator creates a separator line of the given width
func FormatSectionSeparator(width int) string {
	if width <= 0 {
		width = 80
	}
	return Colorize(ColorBold+ColorCyan, strings.Repeat("─", width))
}

// CenterText centers text within the given display width
func CenterText(text string, width int) string {
	w := GetDisplayWidth(text)
	if w >= width {
		return Truncate(text, width)
	}
	padding := (width - w) / 2
	return fmt.Sprintf("%s%s%s", strings.Repeat(" ", padding), text, strings.Repeat(" ", width-padding-w))
}
