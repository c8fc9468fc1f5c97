package diagfmt

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/fatih/color"

	"github.com/jhump/equatable/diag"
)

type palette struct {
	info, warning, err, fatal *color.Color
	code, location, gutter    *color.Color
	caret, fix, insert        *color.Color
}

func newPalette(enabled bool) *palette {
	p := &palette{
		info:     color.New(color.FgCyan, color.Bold),
		warning:  color.New(color.FgYellow, color.Bold),
		err:      color.New(color.FgRed, color.Bold),
		fatal:    color.New(color.FgMagenta, color.Bold),
		code:     color.New(color.Faint),
		location: color.New(color.Bold),
		gutter:   color.New(color.FgBlue),
		caret:    color.New(color.FgRed, color.Bold),
		fix:      color.New(color.FgGreen),
		insert:   color.New(color.FgGreen, color.Bold),
	}
	for _, c := range []*color.Color{p.info, p.warning, p.err, p.fatal, p.code, p.location, p.gutter, p.caret, p.fix, p.insert} {
		if enabled {
			c.EnableColor()
		} else {
			c.DisableColor()
		}
	}
	return p
}

func (p *palette) severity(s diag.Severity) *color.Color {
	switch s {
	case diag.SevInfo:
		return p.info
	case diag.SevWarning:
		return p.warning
	case diag.SevFatal:
		return p.fatal
	default:
		return p.err
	}
}

// Pretty formats diagnostics for humans. For each diagnostic it prints:
//
//	<path>:<line>:<col>: <SEV> <CODE>: <Message>
//
// followed, depending on opts, by the source line with a caret under the
// reported column and by the diagnostic's fixes, with inserted text prefixed
// with '+'.
func Pretty(w io.Writer, diagnostics []diag.Diagnostic, opts PrettyOpts) error {
	p := newPalette(opts.Color)
	readFile := opts.ReadFile
	if readFile == nil {
		readFile = os.ReadFile
	}
	sources := map[string][]byte{}

	var buf bytes.Buffer
	for _, d := range diagnostics {
		fmt.Fprintf(&buf, "%s: %s %s: %s\n",
			p.location.Sprint(location(d, opts.PathMode, opts.BaseDir)),
			p.severity(d.Severity).Sprint(d.Severity),
			p.code.Sprint(d.Code.ID()),
			d.Message)

		if opts.ShowSource && d.Pos.Filename != "" && d.Pos.Line > 0 {
			src, ok := sources[d.Pos.Filename]
			if !ok {
				src, _ = readFile(d.Pos.Filename)
				sources[d.Pos.Filename] = src
			}
			if line, ok := sourceLine(src, d.Pos.Line); ok {
				gutter := fmt.Sprintf("%5d | ", d.Pos.Line)
				blank := strings.Repeat(" ", len(gutter)-2) + "| "
				fmt.Fprintf(&buf, "%s%s\n", p.gutter.Sprint(gutter), line)
				fmt.Fprintf(&buf, "%s%s%s\n", p.gutter.Sprint(blank), caretPadding(line, d.Pos.Column), p.caret.Sprint("^"))
			}
		}

		if opts.ShowFixes {
			for _, f := range d.Fixes {
				fmt.Fprintf(&buf, "  %s %s\n", p.fix.Sprint("fix:"), f.Title)
				for _, e := range f.Edits {
					for _, l := range strings.Split(strings.TrimRight(e.Text, " \t\n"), "\n") {
						fmt.Fprintf(&buf, "      %s\n", p.insert.Sprint("+ "+strings.TrimSpace(l)))
					}
				}
			}
		}
	}
	_, err := w.Write(buf.Bytes())
	return err
}

func sourceLine(src []byte, line int) (string, bool) {
	if src == nil {
		return "", false
	}
	lines := strings.Split(string(src), "\n")
	if line > len(lines) {
		return "", false
	}
	return strings.TrimRight(lines[line-1], "\r"), true
}

// caretPadding returns the whitespace that puts a caret under the given
// column of the line. Tabs are kept so the caret lines up however the
// terminal renders them.
func caretPadding(line string, column int) string {
	if column <= 1 {
		return ""
	}
	var sb strings.Builder
	for i := 0; i < column-1 && i < len(line); i++ {
		if line[i] == '\t' {
			sb.WriteByte('\t')
		} else {
			sb.WriteByte(' ')
		}
	}
	return sb.String()
}
