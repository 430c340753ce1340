// Package term holds the process-wide color state for console output.
//
// Several packages write colored lines (the leveled logger, the banner), so
// the active palette lives here rather than on any one of them. Configure
// decides once at startup whether escape sequences are emitted; afterwards a
// Color either paints text or passes it through untouched.
package term

import (
	"os"
	"strings"

	"partcut/internal/config"
)

// Color is an ANSI escape prefix. It is the empty string while colors are
// off, which turns Paint into a passthrough.
type Color string

// Palette. All empty until Configure enables colors.
var (
	Red     Color
	Green   Color
	Yellow  Color
	Blue    Color
	Cyan    Color
	Magenta Color
)

// NC resets the terminal after a painted span.
var NC = ""

// Paint wraps text in the color followed by the reset sequence.
func (c Color) Paint(text string) string {
	if c == "" {
		return text
	}
	return string(c) + text + NC
}

// Configure resolves mode against the environment and swaps the palette in
// or out. Call once during startup, before anything paints.
func Configure(mode config.ColorMode) {
	if !colorsWanted(mode) {
		Red, Green, Yellow, Blue, Cyan, Magenta = "", "", "", "", "", ""
		NC = ""
		return
	}
	Red = "\033[1;91m"
	Green = "\033[1;92m"
	Yellow = "\033[1;93m"
	Blue = "\033[1;94m"
	Cyan = "\033[1;96m"
	Magenta = "\033[1;95m"
	NC = "\033[0m"
}

// colorsWanted maps the three-valued mode onto a yes/no answer. Auto means
// stdout is a TTY, NO_COLOR is unset (https://no-color.org), and TERM is not
// "dumb".
func colorsWanted(mode config.ColorMode) bool {
	switch mode {
	case config.ColorAlways:
		return true
	case config.ColorNever:
		return false
	}
	return IsTerminal(os.Stdout) &&
		os.Getenv("NO_COLOR") == "" &&
		strings.ToLower(os.Getenv("TERM")) != "dumb"
}

// IsTerminal reports whether f is attached to a character device.
func IsTerminal(f *os.File) bool {
	if f == nil {
		return false
	}
	fi, err := f.Stat()
	if err != nil {
		return false
	}
	return fi.Mode()&os.ModeCharDevice != 0
}
