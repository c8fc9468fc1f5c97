// Package diag defines the diagnostics reported when synthesizing equality
// for a declaration. Diagnostics are values: they carry a severity, a stable
// code, a message, a source position and optional fixes made of text
// insertions.
package diag
