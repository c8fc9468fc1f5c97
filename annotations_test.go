package equatable

import "testing"

func TestLookupRule(t *testing.T) {
	testCases := []struct {
		name    string
		found   bool
		effect  Effect
		subject Subject
	}{
		{"State", true, ExcludeSilently, AnyMember},
		{"SwiftUI.State", true, ExcludeSilently, AnyMember},
		{"SwiftUI.WKExtensionDelegateAdaptor", true, ExcludeSilently, AnyMember},
		{"Binding", true, Retain, AnyMember},
		{"SwiftUI.FocusedBinding", true, Retain, AnyMember},
		{"EquatableIgnored", true, ExcludeWithDiagnosticIfMisused, NonClosureMemberOnly},
		{"EquatableIgnoredUnsafeClosure", true, ExcludeWithDiagnosticIfMisused, ClosureMemberOnly},
		{"Equatable", false, 0, 0},
		{"state", false, 0, 0},
		{"Published", false, 0, 0},
	}
	for _, tc := range testCases {
		r, ok := LookupRule(tc.name)
		if ok != tc.found {
			t.Errorf("%s: expecting found=%v, got %v", tc.name, tc.found, ok)
			continue
		}
		if !ok {
			continue
		}
		if r.Effect != tc.effect || r.Subject != tc.subject {
			t.Errorf("%s: expecting %v/%v, got %v/%v", tc.name, tc.effect, tc.subject, r.Effect, r.Subject)
		}
		if r.Name != BareName(tc.name) {
			t.Errorf("%s: rule has wrong name %q", tc.name, r.Name)
		}
	}
}

func TestFrameworkRegistry(t *testing.T) {
	if len(frameworkNames) < 20 {
		t.Fatalf("expecting at least 20 framework annotations, got %d", len(frameworkNames))
	}
	for _, n := range frameworkNames {
		if !IsFrameworkBinding(n) {
			t.Errorf("%s should be a framework binding", n)
		}
		if !IsFrameworkBinding("SwiftUI." + n) {
			t.Errorf("SwiftUI.%s should be a framework binding", n)
		}
	}
	if IsFrameworkBinding("Binding") {
		t.Error("Binding is retained, not excluded")
	}
}

func TestRuleAllows(t *testing.T) {
	ignored, _ := LookupRule(Ignored)
	unsafe, _ := LookupRule(IgnoredUnsafeClosure)
	state, _ := LookupRule("State")
	if ignored.Allows(true) || !ignored.Allows(false) {
		t.Error("EquatableIgnored must only allow non-closures")
	}
	if !unsafe.Allows(true) || unsafe.Allows(false) {
		t.Error("EquatableIgnoredUnsafeClosure must only allow closures")
	}
	if !state.Allows(true) || !state.Allows(false) {
		t.Error("State must allow any member")
	}
}

func TestRulesSorted(t *testing.T) {
	rules := Rules()
	if len(rules) != len(frameworkNames)+len(bindingNames)+2 {
		t.Fatalf("unexpected number of rules: %d", len(rules))
	}
	for i := 1; i < len(rules); i++ {
		if rules[i-1].Name >= rules[i].Name {
			t.Fatalf("rules not sorted: %q before %q", rules[i-1].Name, rules[i].Name)
		}
	}
}

func TestRuleEqualAndHash(t *testing.T) {
	a, _ := LookupRule("State")
	b, _ := LookupRule("SwiftUI.State")
	c, _ := LookupRule("Namespace")
	if !a.Equal(b) {
		t.Error("rules for the same bare name should be equal")
	}
	if HashOf(a) != HashOf(b) {
		t.Error("equal rules should hash the same")
	}
	if a.Equal(c) {
		t.Error("rules for different names should not be equal")
	}
}

func TestHashableAnnotation(t *testing.T) {
	if HashableAnnotation != "Hashable" {
		t.Fatalf("unexpected annotation name %q", HashableAnnotation)
	}
	if _, ok := LookupRule(HashableAnnotation); ok {
		t.Fatal("Hashable applies to types, not members")
	}
	var h Hashable = Rule{Name: "State"}
	if HashOf(h) != HashOf(Rule{Name: "State"}) {
		t.Fatal("rules should hash through the Hashable interface")
	}
}
