package diagfmt

import (
	"fmt"
	"os"

	"golang.org/x/term"
)

// ColorMode is the setting of the --color flag.
type ColorMode string

const (
	ColorAuto ColorMode = "auto"
	ColorOn   ColorMode = "on"
	ColorOff  ColorMode = "off"
)

// ParseColorMode parses a color setting. "always" and "never" are accepted
// as synonyms for "on" and "off".
func ParseColorMode(s string) (ColorMode, error) {
	switch s {
	case "", "auto":
		return ColorAuto, nil
	case "on", "always", "true":
		return ColorOn, nil
	case "off", "never", "false":
		return ColorOff, nil
	}
	return "", fmt.Errorf("invalid color mode %q: must be auto, on or off", s)
}

// Enabled reports whether output to the given file should be colorized. In
// auto mode, color is used only for terminals and only if the NO_COLOR
// environment variable is not set.
func (m ColorMode) Enabled(f *os.File) bool {
	switch m {
	case ColorOn:
		return true
	case ColorOff:
		return false
	}
	if _, ok := os.LookupEnv("NO_COLOR"); ok {
		return false
	}
	return f != nil && isTerminal(f)
}

func isTerminal(f *os.File) bool {
	return term.IsTerminal(int(f.Fd()))
}
