// Copyright © 2024 The vbalint authors

package diagnostic

import (
	"os"

	"github.com/fatih/color"
	"github.com/mattn/go-isatty"
)

// ColorMode controls when ANSI color codes are used.
type ColorMode int

const (
	ColorAuto   ColorMode = iota // detect based on terminal and NO_COLOR
	ColorAlways                  // always use colors
	ColorNever                   // never use colors
)

// ParseColorMode maps "auto", "always" and "never" to a ColorMode.
func ParseColorMode(s string) (ColorMode, bool) {
	switch s {
	case "", "auto":
		return ColorAuto, true
	case "always":
		return ColorAlways, true
	case "never":
		return ColorNever, true
	}
	return ColorAuto, false
}

// palette holds the styles of diagnostic output.
type palette struct {
	bold     *color.Color
	severity map[Severity]*color.Color
	gutter   *color.Color
	note     *color.Color
	marker   *color.Color
}

func newPalette(enabled bool) palette {
	mk := func(attrs ...color.Attribute) *color.Color {
		c := color.New(attrs...)
		if enabled {
			c.EnableColor()
		} else {
			c.DisableColor()
		}
		return c
	}
	return palette{
		bold: mk(color.Bold),
		severity: map[Severity]*color.Color{
			SeverityError:      mk(color.Bold, color.FgRed),
			SeverityWarning:    mk(color.Bold, color.FgYellow),
			SeveritySuggestion: mk(color.Bold, color.FgCyan),
			SeverityHint:       mk(color.Bold, color.FgGreen),
			SeverityNote:       mk(color.Bold, color.FgCyan),
		},
		gutter: mk(color.Bold, color.FgBlue),
		note:   mk(color.Bold, color.FgCyan),
		marker: mk(color.Bold, color.FgRed),
	}
}

// choosePalette selects the palette for mode and the output file.
func choosePalette(mode ColorMode, w *os.File) palette {
	switch mode {
	case ColorAlways:
		return newPalette(true)
	case ColorNever:
		return newPalette(false)
	default:
		if os.Getenv("NO_COLOR") != "" || !isTerminal(w) {
			return newPalette(false)
		}
		return newPalette(true)
	}
}

// isTerminal reports whether f is connected to a terminal.
func isTerminal(f *os.File) bool {
	if f == nil {
		return false
	}
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}
