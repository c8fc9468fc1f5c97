package diagfmt

import (
	"bytes"
	"go/token"
	"path/filepath"
	"strings"
	"testing"

	"github.com/goccy/go-json"

	"github.com/jhump/equatable/diag"
)

var (
	shapePath = filepath.FromSlash("/src/shapes/shape.go")
	shapeSrc  = "package shapes\n\ntype Shape struct {\n\tid      string\n\tonErase func()\n}\n"
)

func testDiagnostics() []diag.Diagnostic {
	pos := token.Position{Filename: shapePath, Line: 5, Column: 2, Offset: 50}
	return []diag.Diagnostic{
		diag.NewError(diag.ClosureNotSupported, pos, "Arbitrary closures are not supported in @Equatable").
			WithFix("mark the closure", diag.Edit{Pos: pos, Text: "// @EquatableIgnoredUnsafeClosure\n\t"}),
		diag.NewFatal(diag.TypeNotStruct, token.Position{Filename: shapePath, Line: 3, Column: 4}, "@Equatable can only be applied to structs"),
	}
}

func readShape(path string) ([]byte, error) {
	return []byte(shapeSrc), nil
}

func TestShort(t *testing.T) {
	var buf bytes.Buffer
	if err := Short(&buf, testDiagnostics(), PathModeRelative, filepath.FromSlash("/src")); err != nil {
		t.Fatalf("short: %v", err)
	}
	want := filepath.FromSlash("shapes/shape.go") + ":5:2: ERROR EQ2004: Arbitrary closures are not supported in @Equatable\n" +
		filepath.FromSlash("shapes/shape.go") + ":3:4: FATAL EQ1001: @Equatable can only be applied to structs\n"
	if buf.String() != want {
		t.Fatalf("unexpected output:\n%s", buf.String())
	}
}

func TestPretty(t *testing.T) {
	var buf bytes.Buffer
	err := Pretty(&buf, testDiagnostics()[:1], PrettyOpts{
		PathMode:   PathModeBasename,
		ShowSource: true,
		ShowFixes:  true,
		ReadFile:   readShape,
	})
	if err != nil {
		t.Fatalf("pretty: %v", err)
	}
	want := "shape.go:5:2: ERROR EQ2004: Arbitrary closures are not supported in @Equatable\n" +
		"    5 | \tonErase func()\n" +
		"      | \t^\n" +
		"  fix: mark the closure\n" +
		"      + // @EquatableIgnoredUnsafeClosure\n"
	if buf.String() != want {
		t.Fatalf("unexpected output:\n%q\nwant:\n%q", buf.String(), want)
	}
}

func TestPrettyColor(t *testing.T) {
	var buf bytes.Buffer
	if err := Pretty(&buf, testDiagnostics(), PrettyOpts{Color: true, PathMode: PathModeBasename}); err != nil {
		t.Fatalf("pretty: %v", err)
	}
	if !strings.Contains(buf.String(), "\x1b[") {
		t.Fatalf("expected escape sequences in colored output: %q", buf.String())
	}
	if strings.Contains(buf.String(), "fix:") {
		t.Fatalf("fixes should not be shown unless requested")
	}
}

func TestJSON(t *testing.T) {
	var buf bytes.Buffer
	err := JSON(&buf, testDiagnostics(), JSONOpts{PathMode: PathModeBasename, Max: 1, IncludeFixes: true})
	if err != nil {
		t.Fatalf("json: %v", err)
	}
	var out DiagnosticsOutput
	if err := json.Unmarshal(buf.Bytes(), &out); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if out.Count != 1 || out.Truncated != 1 {
		t.Fatalf("unexpected counts: %+v", out)
	}
	d := out.Diagnostics[0]
	if d.Code != "EQ2004" || d.Severity != "ERROR" || d.Location.File != "shape.go" || d.Location.Line != 5 {
		t.Fatalf("unexpected diagnostic: %+v", d)
	}
	if len(d.Fixes) != 1 || d.Fixes[0].Edits[0].NewText != "// @EquatableIgnoredUnsafeClosure\n\t" {
		t.Fatalf("unexpected fixes: %+v", d.Fixes)
	}
}

func TestColorMode(t *testing.T) {
	testCases := map[string]ColorMode{
		"":       ColorAuto,
		"auto":   ColorAuto,
		"always": ColorOn,
		"on":     ColorOn,
		"never":  ColorOff,
		"off":    ColorOff,
	}
	for in, want := range testCases {
		got, err := ParseColorMode(in)
		if err != nil || got != want {
			t.Fatalf("ParseColorMode(%q) = %q, %v; want %q", in, got, err, want)
		}
	}
	if _, err := ParseColorMode("sometimes"); err == nil {
		t.Fatalf("expected error for invalid mode")
	}
	if !ColorOn.Enabled(nil) || ColorOff.Enabled(nil) || ColorAuto.Enabled(nil) {
		t.Fatalf("unexpected color decisions")
	}
}

func TestParseFormat(t *testing.T) {
	if f, err := ParseFormat(""); err != nil || f != FormatPretty {
		t.Fatalf("unexpected default format: %q, %v", f, err)
	}
	if f, err := ParseFormat("json"); err != nil || f != FormatJSON {
		t.Fatalf("unexpected format: %q, %v", f, err)
	}
	if _, err := ParseFormat("sarif"); err == nil {
		t.Fatalf("expected error for unsupported format")
	}
}

func TestFormatPath(t *testing.T) {
	base := filepath.FromSlash("/src/shapes")
	if got := formatPath(shapePath, PathModeAuto, base); got != "shape.go" {
		t.Fatalf("unexpected auto path: %s", got)
	}
	other := filepath.FromSlash("/elsewhere/x.go")
	if got := formatPath(other, PathModeAuto, base); got != other {
		t.Fatalf("paths outside the base should be absolute: %s", got)
	}
	if got := formatPath(other, PathModeRelative, base); !strings.HasPrefix(got, "..") {
		t.Fatalf("unexpected relative path: %s", got)
	}
	if got := formatPath("", PathModeAuto, base); got != "<unknown>" {
		t.Fatalf("unexpected path for missing file: %s", got)
	}
}
