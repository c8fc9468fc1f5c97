package analysis

import (
	"context"
	"errors"
	"go/token"
	"reflect"
	"strings"
	"testing"

	"github.com/jhump/equatable/diag"
	"github.com/jhump/equatable/model"
)

func member(name, typ string, annos ...string) model.Member {
	m := model.Member{
		Name:    name,
		Type:    model.TypeSignature{Name: typ},
		Storage: model.Stored,
		Scope:   model.Instance,
	}
	for _, a := range annos {
		m.Annotations = append(m.Annotations, model.AnnotationRef{Name: a})
	}
	return m
}

func closure(name string, annos ...string) model.Member {
	m := member(name, "(() -> Void)?", annos...)
	m.Closure = true
	return m
}

func at(m model.Member, line, col int) model.Member {
	m.Pos = token.Position{Filename: "view.swift", Line: line, Column: col}
	return m
}

func structDecl(members ...model.Member) *model.Declaration {
	return &model.Declaration{
		Name:    "CustomView",
		Kind:    model.KindStruct,
		Pos:     token.Position{Filename: "view.swift", Line: 1, Column: 1},
		Members: members,
	}
}

func names(es []Eligible) []string {
	var n []string
	for _, e := range es {
		n = append(n, e.Member.Name)
	}
	return n
}

func checkNames(t *testing.T, es []Eligible, want ...string) {
	t.Helper()
	if got := names(es); !reflect.DeepEqual(got, want) {
		t.Fatalf("wrong members: expecting %v; got %v", want, got)
	}
}

func TestIdentityFirstThenAlphabetical(t *testing.T) {
	res := Analyze(structDecl(
		member("name", "String"),
		member("lastName", "String"),
		member("random", "String"),
		member("id", "UUID"),
	), Options{})

	if len(res.Diagnostics) != 0 {
		t.Fatalf("expecting no diagnostics; got %v", res.Diagnostics)
	}
	checkNames(t, res.Fragment.Members(), "id", "lastName", "name", "random")
	want := "lhs.id == rhs.id && lhs.lastName == rhs.lastName && lhs.name == rhs.name && lhs.random == rhs.random"
	if s := res.Fragment.String(); s != want {
		t.Fatalf("wrong fragment:\n%s", s)
	}
	if res.Fragment.HashRequested || len(res.Fragment.Hash) != 0 {
		t.Fatalf("hash should not be synthesized unless requested")
	}
}

func TestTierOrdering(t *testing.T) {
	nested := member("nestedType", "EquatableStruct")
	nested.Type.Equatable = true
	res := Analyze(structDecl(
		nested,
		member("array", "[Int]"),
		member("basicInt", "Int"),
		member("basicString", "String"),
	), Options{})

	es := res.Fragment.Members()
	checkNames(t, es, "basicInt", "basicString", "array", "nestedType")
	tiers := []Tier{Scalar, Scalar, Collection, Composite}
	for i, e := range es {
		if e.Tier != tiers[i] {
			t.Fatalf("member %s: expecting tier %v; got %v", e.Member.Name, tiers[i], e.Tier)
		}
	}
}

func TestUnmarkedClosure(t *testing.T) {
	c := at(closure("closure"), 4, 5)
	c.Indent = "    "
	res := Analyze(structDecl(at(member("name", "String"), 3, 5), c), Options{})

	if len(res.Diagnostics) != 1 {
		t.Fatalf("expecting 1 diagnostic; got %v", res.Diagnostics)
	}
	d := res.Diagnostics[0]
	if d.Severity != diag.SevError || d.Code != diag.ClosureNotSupported {
		t.Fatalf("wrong severity or code: %v %v", d.Severity, d.Code)
	}
	if d.Message != "Arbitrary closures are not supported in @Equatable" {
		t.Fatalf("wrong message: %s", d.Message)
	}
	if d.Pos.Line != 4 || d.Pos.Column != 5 {
		t.Fatalf("wrong position: %v", d.Pos)
	}
	if len(d.Fixes) != 1 || len(d.Fixes[0].Edits) != 1 {
		t.Fatalf("expecting a single fix with a single edit; got %+v", d.Fixes)
	}
	if !strings.Contains(d.Fixes[0].Title, "@EquatableIgnoredUnsafeClosure") {
		t.Fatalf("fix title should name the marker: %s", d.Fixes[0].Title)
	}
	e := d.Fixes[0].Edits[0]
	if e.Text != "@EquatableIgnoredUnsafeClosure\n    " {
		t.Fatalf("wrong fix text: %q", e.Text)
	}
	if e.Pos != c.Pos {
		t.Fatalf("wrong fix position: %v", e.Pos)
	}

	if res.Aborted() {
		t.Fatalf("member diagnostics should not abort synthesis")
	}
	if s := res.Fragment.String(); s != "lhs.name == rhs.name" {
		t.Fatalf("wrong fragment: %s", s)
	}
}

func TestClosureFixAfterExistingAnnotations(t *testing.T) {
	c := closure("onTap", "MainActor")
	c.Pos = token.Position{Filename: "view.go", Line: 7, Column: 2}
	c.DeclPos = token.Position{Filename: "view.go", Line: 8, Column: 2}
	c.Indent = "\t"
	res := Analyze(structDecl(c), Options{MarkerPrefix: "// "})

	if len(res.Diagnostics) != 1 {
		t.Fatalf("expecting 1 diagnostic; got %v", res.Diagnostics)
	}
	e := res.Diagnostics[0].Fixes[0].Edits[0]
	if e.Pos != c.DeclPos {
		t.Fatalf("fix should be anchored at the declaration: %v", e.Pos)
	}
	if e.Text != "// @EquatableIgnoredUnsafeClosure\n\t" {
		t.Fatalf("wrong fix text: %q", e.Text)
	}
}

func TestNoEligibleMembers(t *testing.T) {
	static := member("shared", "Int")
	static.Scope = model.Static
	computed := member("body", "some View")
	computed.Storage = model.Computed
	decl := structDecl(static, computed, member("state", "Int", "State"), member("ignored", "Int", "EquatableIgnored"))
	decl.Hashable = true
	res := Analyze(decl, Options{})

	if len(res.Diagnostics) != 0 {
		t.Fatalf("expecting no diagnostics; got %v", res.Diagnostics)
	}
	f := res.Fragment
	if !f.Equality.AlwaysEqual() || f.Equality.String() != "true" {
		t.Fatalf("expecting always-equal fragment; got %s", f.Equality)
	}
	if !f.HashRequested || f.Hash == nil || len(f.Hash) != 0 {
		t.Fatalf("expecting an empty, non-nil hash body; got %#v", f.Hash)
	}
	if s := f.String(); s != "true" {
		t.Fatalf("wrong fragment: %s", s)
	}
}

func TestNotAStruct(t *testing.T) {
	for _, k := range []model.Kind{model.KindClass, model.KindEnum, model.KindActor, model.KindInterface, model.KindNamed} {
		decl := structDecl(member("name", "String"), closure("closure"))
		decl.Kind = k
		res := Analyze(decl, Options{})
		if res.Fragment != nil {
			t.Fatalf("%s: expecting no fragment", k)
		}
		if !res.Aborted() {
			t.Fatalf("%s: expecting aborted result", k)
		}
		if len(res.Diagnostics) != 1 {
			t.Fatalf("%s: expecting a single diagnostic; got %v", k, res.Diagnostics)
		}
		d := res.Diagnostics[0]
		if d.Message != "@Equatable can only be applied to structs" || d.Severity != diag.SevFatal {
			t.Fatalf("%s: wrong diagnostic: %+v", k, d)
		}
		if d.Pos.Line != 1 || d.Pos.Column != 1 {
			t.Fatalf("%s: wrong position: %v", k, d.Pos)
		}
	}
}

func TestMisusedMarkers(t *testing.T) {
	testCases := []struct {
		name   string
		member model.Member
		msg    string
		code   diag.Code
	}{
		{
			name:   "ignored closure",
			member: closure("closure", "EquatableIgnored"),
			msg:    "@EquatableIgnored cannot be applied to closures",
			code:   diag.IgnoredOnClosure,
		},
		{
			name:   "ignored binding",
			member: member("name", "String", "EquatableIgnored", "Binding"),
			msg:    "@EquatableIgnored cannot be applied to @Binding properties",
			code:   diag.IgnoredOnBinding,
		},
		{
			name:   "ignored focused binding",
			member: member("focusedBinding", "", "EquatableIgnored", "FocusedBinding"),
			msg:    "@EquatableIgnored cannot be applied to @FocusedBinding properties",
			code:   diag.IgnoredOnBinding,
		},
		{
			name:   "ignored qualified binding",
			member: member("name", "String", "SwiftUI.Binding", "EquatableIgnored"),
			msg:    "@EquatableIgnored cannot be applied to @Binding properties",
			code:   diag.IgnoredOnBinding,
		},
		{
			name:   "unsafe closure on non-closure",
			member: member("name", "String", "EquatableIgnoredUnsafeClosure"),
			msg:    "@EquatableIgnoredUnsafeClosure can only be applied to closures",
			code:   diag.UnsafeClosureNotClosure,
		},
		{
			name:   "first misuse wins",
			member: closure("closure", "EquatableIgnoredUnsafeClosure", "EquatableIgnored"),
			msg:    "@EquatableIgnored cannot be applied to closures",
			code:   diag.IgnoredOnClosure,
		},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			m := at(tc.member, 3, 5)
			decl := structDecl(m)
			decl.Hashable = true
			res := Analyze(decl, Options{})
			if len(res.Diagnostics) != 1 {
				t.Fatalf("expecting 1 diagnostic; got %v", res.Diagnostics)
			}
			d := res.Diagnostics[0]
			if d.Message != tc.msg {
				t.Fatalf("wrong message: %s", d.Message)
			}
			if d.Code != tc.code || d.Severity != diag.SevError {
				t.Fatalf("wrong code or severity: %v %v", d.Code, d.Severity)
			}
			if d.Pos != m.Pos {
				t.Fatalf("wrong position: %v", d.Pos)
			}
			if len(d.Fixes) != 0 {
				t.Fatalf("misuse diagnostics have no fixes")
			}
			if !res.Fragment.Equality.AlwaysEqual() || len(res.Fragment.Hash) != 0 {
				t.Fatalf("misused member should be excluded: %s", res.Fragment)
			}
		})
	}
}

func TestFrameworkAnnotationsExcludeSilently(t *testing.T) {
	for _, name := range []string{"State", "SwiftUI.State", "Environment", "SwiftUI.EnvironmentObject", "WKExtensionDelegateAdaptor"} {
		// the framework annotation wins over a misused marker
		res := Analyze(structDecl(
			member("a", "Int", name),
			closure("b", "EquatableIgnored", name),
			member("c", "Int", "EquatableIgnoredUnsafeClosure", name),
			closure("d", name),
			member("e", "Int"),
		), Options{})
		if len(res.Diagnostics) != 0 {
			t.Fatalf("%s: expecting no diagnostics; got %v", name, res.Diagnostics)
		}
		checkNames(t, res.Fragment.Members(), "e")
	}
}

func TestBindingsAreRetained(t *testing.T) {
	res := Analyze(structDecl(
		member("value", "String", "Binding"),
		member("focus", "Bool", "SwiftUI.FocusedBinding"),
	), Options{})
	if len(res.Diagnostics) != 0 {
		t.Fatalf("expecting no diagnostics; got %v", res.Diagnostics)
	}
	checkNames(t, res.Fragment.Members(), "focus", "value")
}

func TestMarkedMembersExcludedSilently(t *testing.T) {
	res := Analyze(structDecl(
		member("cache", "[String: Int]", "EquatableIgnored"),
		closure("onTap", "EquatableIgnoredUnsafeClosure"),
		closure("onBound", "EquatableIgnoredUnsafeClosure", "Binding"),
		member("name", "String", "SomeOtherAnnotation"),
	), Options{})
	if len(res.Diagnostics) != 0 {
		t.Fatalf("expecting no diagnostics; got %v", res.Diagnostics)
	}
	checkNames(t, res.Fragment.Members(), "name")
}

func TestClassify(t *testing.T) {
	testCases := []struct {
		name string
		typ  string
		kind model.TypeKind
		eq   bool
		tier Tier
	}{
		{name: "id", typ: "UUID", tier: Identity},
		{name: "id", typ: "[Int]", tier: Identity},
		{name: "ID", typ: "UUID", tier: Opaque},
		{name: "x", typ: "Int", tier: Scalar},
		{name: "x", typ: "Int?", tier: Scalar},
		{name: "x", typ: "Optional<Double>", tier: Scalar},
		{name: "x", typ: "Swift.String", tier: Scalar},
		{name: "x", typ: "Character", tier: Scalar},
		{name: "x", typ: "Bool", tier: Scalar},
		{name: "x", typ: "float64", tier: Scalar},
		{name: "x", typ: "rune", tier: Scalar},
		{name: "x", typ: "Color", tier: Opaque},
		{name: "x", typ: "", tier: Opaque},
		{name: "x", typ: "time.Time", tier: Opaque},
		{name: "x", typ: "[Int]", tier: Collection},
		{name: "x", typ: "[Int]?", tier: Collection},
		{name: "x", typ: "Array<Int>", tier: Collection},
		{name: "x", typ: "Swift.Array<Int>", tier: Collection},
		{name: "x", typ: "[Int:Int]", tier: Collection},
		{name: "x", typ: "Dictionary<Int, Int>", tier: Collection},
		{name: "x", typ: "Set<String>", tier: Collection},
		{name: "x", typ: "[]byte", tier: Collection},
		{name: "x", typ: "map[string]int", tier: Collection},
		{name: "x", typ: "Matrix<Int>", tier: Opaque},
		{name: "x", typ: "Person", eq: true, tier: Composite},
		{name: "x", typ: "Person?", eq: true, tier: Composite},
		{name: "x", typ: "Celsius", kind: model.TypeScalar, tier: Scalar},
		{name: "x", typ: "Tags", kind: model.TypeCollection, tier: Collection},
	}
	for _, tc := range testCases {
		m := member(tc.name, tc.typ)
		m.Type.Kind = tc.kind
		m.Type.Equatable = tc.eq
		if tier := Classify(&m); tier != tc.tier {
			t.Errorf("%s %s: expecting %v; got %v", tc.name, tc.typ, tc.tier, tier)
		}
	}
}

func TestDeterministicOrder(t *testing.T) {
	members := []model.Member{
		member("zeta", "Int"),
		member("alpha", "[Int]"),
		member("id", "String"),
		member("beta", "Int"),
		member("gamma", "Color"),
		member("delta", "Color"),
	}
	want := Analyze(structDecl(members...), Options{}).Fragment.String()

	// every rotation of the members produces the same fragment
	for i := range members {
		rotated := append(append([]model.Member(nil), members[i:]...), members[:i]...)
		if got := Analyze(structDecl(rotated...), Options{}).Fragment.String(); got != want {
			t.Fatalf("rotation %d: expecting %q; got %q", i, want, got)
		}
	}
	if want != "lhs.id == rhs.id && lhs.beta == rhs.beta && lhs.zeta == rhs.zeta && lhs.delta == rhs.delta && lhs.gamma == rhs.gamma && lhs.alpha == rhs.alpha" {
		t.Fatalf("wrong fragment: %s", want)
	}

	first := Analyze(structDecl(members...), Options{})
	second := Analyze(structDecl(members...), Options{})
	if !reflect.DeepEqual(first, second) {
		t.Fatalf("repeated analysis produced different results")
	}
}

func TestHashMatchesEquality(t *testing.T) {
	decl := structDecl(
		member("name", "String"),
		member("tags", "Set<String>"),
		closure("onTap"),
		closure("onClose", "EquatableIgnoredUnsafeClosure"),
		member("id", "Int"),
	)
	decl.Hashable = true
	f := Analyze(decl, Options{}).Fragment
	if len(f.Hash) != len(f.Equality) {
		t.Fatalf("hash has %d steps but equality has %d comparisons", len(f.Hash), len(f.Equality))
	}
	for i := range f.Hash {
		if f.Hash[i].Member.Name != f.Equality[i].Member.Name {
			t.Fatalf("step %d: hash combines %s but equality compares %s", i, f.Hash[i].Member.Name, f.Equality[i].Member.Name)
		}
		if f.Hash[i].Member.Closure {
			t.Fatalf("closure %s should never be hashed", f.Hash[i].Member.Name)
		}
	}
	want := "lhs.id == rhs.id && lhs.name == rhs.name && lhs.tags == rhs.tags\nhasher.combine(id)\nhasher.combine(name)\nhasher.combine(tags)"
	if s := f.String(); s != want {
		t.Fatalf("wrong fragment:\n%s", s)
	}
}

func TestFilterDoesNotModifyInput(t *testing.T) {
	members := []model.Member{member("b", "Int"), closure("a"), member("c", "Int", "State")}
	orig := append([]model.Member(nil), members...)
	eligible, diags := Filter(members, Options{})
	if !reflect.DeepEqual(members, orig) {
		t.Fatalf("input was modified")
	}
	if len(eligible) != 1 || eligible[0].Name != "b" || len(diags) != 1 {
		t.Fatalf("unexpected result: %v %v", eligible, diags)
	}
}

func TestCheckOnly(t *testing.T) {
	decl := structDecl(member("name", "String"), closure("onTap", "EquatableIgnored"))
	decl.Kind = model.KindNamed
	decl.CheckOnly = true
	res := Analyze(decl, Options{})
	if res.Fragment != nil {
		t.Fatalf("check-only declarations should not get a fragment")
	}
	if res.Aborted() {
		t.Fatalf("check-only declarations are not subject to the struct check")
	}
	if len(res.Diagnostics) != 1 || res.Diagnostics[0].Code != diag.IgnoredOnClosure {
		t.Fatalf("unexpected diagnostics: %v", res.Diagnostics)
	}
}

func TestAnalyzeAll(t *testing.T) {
	decls := make([]model.Declaration, 50)
	for i := range decls {
		decls[i] = *structDecl(member("id", "Int"), closure("onTap"))
		decls[i].Name = strings.Repeat("x", i+1)
		if i%7 == 0 {
			decls[i].Kind = model.KindClass
		}
	}
	results, err := AnalyzeAll(context.Background(), decls, Options{}, 4)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(results) != len(decls) {
		t.Fatalf("expecting %d results; got %d", len(decls), len(results))
	}
	for i, res := range results {
		if res.Declaration.Name != decls[i].Name {
			t.Fatalf("result %d is for %s", i, res.Declaration.Name)
		}
		if (i%7 == 0) != res.Aborted() {
			t.Fatalf("result %d: wrong abort status", i)
		}
		if !res.HasErrors() {
			t.Fatalf("result %d: expecting errors", i)
		}
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = AnalyzeAll(ctx, decls, Options{}, 0)
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expecting context.Canceled; got %v", err)
	}
}

func TestUnmarkedClosureSharingLine(t *testing.T) {
	c := at(closure("onTap"), 3, 22)
	c.SharesLine = true
	res := Analyze(structDecl(c), Options{MarkerPrefix: "// "})

	if len(res.Diagnostics) != 1 {
		t.Fatalf("expecting 1 diagnostic; got %v", res.Diagnostics)
	}
	d := res.Diagnostics[0]
	if d.Code != diag.ClosureNotSupported {
		t.Fatalf("wrong code: %v", d.Code)
	}
	if len(d.Fixes) != 0 {
		t.Fatalf("no line can be inserted before a member that shares its line; got %+v", d.Fixes)
	}
}
