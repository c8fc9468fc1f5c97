package diag

import (
	"fmt"
	"go/token"
)

// Edit inserts Text at Pos. Fixes produced by the analysis only ever insert,
// so an edit has no extent.
type Edit struct {
	Pos  token.Position
	Text string
}

// Fix is a suggested correction for a diagnostic.
type Fix struct {
	Title string
	Edits []Edit
}

// Diagnostic is a problem found while analyzing a declaration.
type Diagnostic struct {
	Severity Severity
	Code     Code
	Message  string
	Pos      token.Position
	Fixes    []Fix
}

func New(sev Severity, code Code, pos token.Position, msg string) Diagnostic {
	return Diagnostic{
		Severity: sev,
		Code:     code,
		Pos:      pos,
		Message:  msg,
	}
}

func NewError(code Code, pos token.Position, msg string) Diagnostic {
	return New(SevError, code, pos, msg)
}

func NewFatal(code Code, pos token.Position, msg string) Diagnostic {
	return New(SevFatal, code, pos, msg)
}

func (d Diagnostic) WithFix(title string, edits ...Edit) Diagnostic {
	d.Fixes = append(d.Fixes, Fix{Title: title, Edits: edits})
	return d
}

func (d Diagnostic) Error() string {
	if d.Pos.IsValid() {
		return fmt.Sprintf("%v: %s", d.Pos, d.Message)
	}
	return d.Message
}
