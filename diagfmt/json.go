package diagfmt

import (
	"io"

	"github.com/goccy/go-json"

	"github.com/jhump/equatable/diag"
)

// LocationJSON is a position in a source file.
type LocationJSON struct {
	File   string `json:"file"`
	Line   int    `json:"line,omitempty"`
	Column int    `json:"column,omitempty"`
	Offset int    `json:"offset"`
}

// FixEditJSON is one insertion of a fix.
type FixEditJSON struct {
	Location LocationJSON `json:"location"`
	NewText  string       `json:"new_text"`
}

// FixJSON is a suggested fix.
type FixJSON struct {
	Title string        `json:"title"`
	Edits []FixEditJSON `json:"edits,omitempty"`
}

// DiagnosticJSON is a diagnostic in JSON output.
type DiagnosticJSON struct {
	Severity string       `json:"severity"`
	Code     string       `json:"code"`
	Message  string       `json:"message"`
	Location LocationJSON `json:"location"`
	Fixes    []FixJSON    `json:"fixes,omitempty"`
}

// DiagnosticsOutput is the root of JSON output.
type DiagnosticsOutput struct {
	Diagnostics []DiagnosticJSON `json:"diagnostics"`
	Count       int              `json:"count"`
	// Truncated is the number of diagnostics left out because of JSONOpts.Max.
	Truncated int `json:"truncated,omitempty"`
}

// BuildJSON converts diagnostics to their JSON representation.
func BuildJSON(diagnostics []diag.Diagnostic, opts JSONOpts) DiagnosticsOutput {
	out := DiagnosticsOutput{Diagnostics: make([]DiagnosticJSON, 0, len(diagnostics))}
	for i, d := range diagnostics {
		if opts.Max > 0 && i >= opts.Max {
			out.Truncated = len(diagnostics) - opts.Max
			break
		}
		dj := DiagnosticJSON{
			Severity: d.Severity.String(),
			Code:     d.Code.ID(),
			Message:  d.Message,
			Location: makeLocation(d.Pos.Filename, d.Pos.Line, d.Pos.Column, d.Pos.Offset, opts),
		}
		if opts.IncludeFixes {
			for _, f := range d.Fixes {
				fj := FixJSON{Title: f.Title}
				for _, e := range f.Edits {
					fj.Edits = append(fj.Edits, FixEditJSON{
						Location: makeLocation(e.Pos.Filename, e.Pos.Line, e.Pos.Column, e.Pos.Offset, opts),
						NewText:  e.Text,
					})
				}
				dj.Fixes = append(dj.Fixes, fj)
			}
		}
		out.Diagnostics = append(out.Diagnostics, dj)
	}
	out.Count = len(out.Diagnostics)
	return out
}

// JSON writes diagnostics as a single JSON document.
func JSON(w io.Writer, diagnostics []diag.Diagnostic, opts JSONOpts) error {
	enc := json.NewEncoder(w)
	if opts.Indent {
		enc.SetIndent("", "  ")
	}
	return enc.Encode(BuildJSON(diagnostics, opts))
}

func makeLocation(file string, line, col, offset int, opts JSONOpts) LocationJSON {
	return LocationJSON{
		File:   formatPath(file, opts.PathMode, opts.BaseDir),
		Line:   line,
		Column: col,
		Offset: offset,
	}
}
