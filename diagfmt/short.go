package diagfmt

import (
	"fmt"
	"io"

	"github.com/jhump/equatable/diag"
)

// Short writes one line per diagnostic:
//
//	<path>:<line>:<col>: <SEV> <CODE>: <Message>
func Short(w io.Writer, diagnostics []diag.Diagnostic, mode PathMode, baseDir string) error {
	for _, d := range diagnostics {
		if _, err := fmt.Fprintf(w, "%s: %s %s: %s\n", location(d, mode, baseDir), d.Severity, d.Code.ID(), d.Message); err != nil {
			return err
		}
	}
	return nil
}

func location(d diag.Diagnostic, mode PathMode, baseDir string) string {
	path := formatPath(d.Pos.Filename, mode, baseDir)
	if d.Pos.Line <= 0 {
		return path
	}
	return fmt.Sprintf("%s:%d:%d", path, d.Pos.Line, d.Pos.Column)
}
