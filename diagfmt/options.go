package diagfmt

import "fmt"

// PathMode specifies how file paths are displayed.
type PathMode uint8

const (
	// PathModeAuto shows paths relative to the base directory when they are
	// inside it and absolute otherwise.
	PathModeAuto PathMode = iota
	// PathModeAbsolute always uses absolute paths.
	PathModeAbsolute
	PathModeRelative
	PathModeBasename
)

// PrettyOpts configures pretty-printing of diagnostics.
type PrettyOpts struct {
	Color    bool
	PathMode PathMode
	// BaseDir is used for relative paths. Defaults to the current directory.
	BaseDir string
	// ShowSource prints the offending source line under each diagnostic.
	ShowSource bool
	ShowFixes  bool
	// ReadFile defaults to os.ReadFile. It is used to show source lines.
	ReadFile func(path string) ([]byte, error)
}

// JSONOpts configures JSON output of diagnostics.
type JSONOpts struct {
	PathMode PathMode
	BaseDir  string
	// Max limits the number of diagnostics written. Zero means no limit.
	Max          int
	IncludeFixes bool
	Indent       bool
}

// Format selects one of the output formats.
type Format string

const (
	FormatPretty Format = "pretty"
	FormatShort  Format = "short"
	FormatJSON   Format = "json"
)

// ParseFormat parses the name of an output format.
func ParseFormat(s string) (Format, error) {
	switch Format(s) {
	case "", FormatPretty:
		return FormatPretty, nil
	case FormatShort, FormatJSON:
		return Format(s), nil
	}
	return "", fmt.Errorf("invalid diagnostics format %q: must be pretty, short or json", s)
}
