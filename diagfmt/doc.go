// Package diagfmt renders diagnostics: as colorized text with source context
// for terminals, as one line per diagnostic for editors and scripts, and as
// JSON for tools.
package diagfmt
