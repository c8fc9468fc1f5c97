// Package equatable defines the annotation vocabulary understood by the
// equality generator along with the small runtime library that generated code
// calls into.
//
// A struct opts into generated equality by carrying the Equatable annotation
// in its doc comment:
//
//	// Person is a person.
//	//
//	// @Equatable
//	// @Hashable
//	type Person struct {
//	    id   uuid.UUID
//	    name string
//
//	    // @EquatableIgnoredUnsafeClosure
//	    onTap func()
//	}
//
// Running the processor (see the processor sub-package and the cmd/equatable
// tool) on the package containing this type generates an Equal method and,
// because of the Hashable annotation, a Hash method. Members are compared in
// order of increasing cost so that cheap comparisons can short-circuit the
// expensive ones.
package equatable

import (
	"fmt"
	"sort"
	"strings"
)

//go:generate equatable generate github.com/jhump/equatable

// Names of the annotations that carry meaning on their own. These are matched
// by bare name, so a namespace-qualified spelling of the same annotation
// refers to the same rule.
const (
	// Equatable marks a struct type for which an Equal method is generated.
	Equatable = "Equatable"
	// HashableAnnotation marks an Equatable struct that also gets a Hash
	// method. Its name differs from the Hashable interface implemented by
	// such structs.
	HashableAnnotation = "Hashable"
	// Ignored excludes a non-closure member from equality and hashing.
	Ignored = "EquatableIgnored"
	// IgnoredUnsafeClosure excludes a closure member. It is the only way to
	// silence the diagnostic about closures not being comparable.
	IgnoredUnsafeClosure = "EquatableIgnoredUnsafeClosure"

	// IdentityMember is the member name that is always compared first.
	IdentityMember = "id"
)

// Effect describes what a recognized member annotation does to the member
// that carries it.
type Effect int

const (
	// ExcludeSilently drops the member without reporting anything. The
	// reactive and framework-binding annotations have this effect: their
	// values are owned by something other than the value itself.
	ExcludeSilently Effect = iota

	// ExcludeWithDiagnosticIfMisused drops the member. If the annotation is
	// applied to a member it does not support, a diagnostic is reported but
	// the member is still dropped.
	ExcludeWithDiagnosticIfMisused

	// Retain keeps the member in the comparison. Annotations with this effect
	// are recognized only so that the plain ignore marker can be rejected on
	// the members that carry them.
	Retain
)

func (e Effect) String() string {
	switch e {
	case ExcludeSilently:
		return "exclude silently"
	case ExcludeWithDiagnosticIfMisused:
		return "exclude, diagnose misuse"
	case Retain:
		return "retain"
	default:
		return fmt.Sprintf("?%d?", int(e))
	}
}

// Subject is the class of member an annotation may be applied to.
type Subject int

const (
	// AnyMember annotations may be applied to any member.
	AnyMember Subject = iota
	// ClosureMemberOnly annotations may only be applied to members whose type
	// is a function.
	ClosureMemberOnly
	// NonClosureMemberOnly annotations may only be applied to members whose
	// type is not a function.
	NonClosureMemberOnly
)

func (s Subject) String() string {
	switch s {
	case AnyMember:
		return "any member"
	case ClosureMemberOnly:
		return "closure members"
	case NonClosureMemberOnly:
		return "non-closure members"
	default:
		return fmt.Sprintf("?%d?", int(s))
	}
}

// Rule is the registry entry for a recognized member annotation.
//
// @Equatable
// @Hashable
type Rule struct {
	Name    string
	Effect  Effect
	Subject Subject
}

// Allows reports whether the rule permits being applied to a member that is
// (or is not) a closure.
func (r Rule) Allows(closure bool) bool {
	switch r.Subject {
	case ClosureMemberOnly:
		return closure
	case NonClosureMemberOnly:
		return !closure
	default:
		return true
	}
}

// IsBinding reports whether the rule describes a binding wrapper: a member
// annotation that is kept in comparisons and on which the Ignored marker is
// not allowed.
func (r Rule) IsBinding() bool {
	return r.Effect == Retain
}

// frameworkNames are the property-wrapper style annotations whose values are
// owned by a reactive UI framework. Members carrying them are never compared.
var frameworkNames = []string{
	"AccessibilityFocusState",
	"AppStorage",
	"Bindable",
	"Environment",
	"EnvironmentObject",
	"FetchRequest",
	"FocusState",
	"FocusedObject",
	"FocusedValue",
	"GestureState",
	"NSApplicationDelegateAdaptor",
	"Namespace",
	"ObservedObject",
	"PhysicalMetric",
	"ScaledMetric",
	"SceneStorage",
	"SectionedFetchRequest",
	"State",
	"StateObject",
	"UIApplicationDelegateAdaptor",
	"WKApplicationDelegateAdaptor",
	"WKExtensionDelegateAdaptor",
}

var bindingNames = []string{
	"Binding",
	"FocusedBinding",
}

// registry is built once and only read afterwards, so it is safe to share
// between concurrent analyses.
var registry = func() map[string]Rule {
	m := make(map[string]Rule, len(frameworkNames)+len(bindingNames)+2)
	for _, n := range frameworkNames {
		m[n] = Rule{Name: n, Effect: ExcludeSilently, Subject: AnyMember}
	}
	for _, n := range bindingNames {
		m[n] = Rule{Name: n, Effect: Retain, Subject: AnyMember}
	}
	m[Ignored] = Rule{Name: Ignored, Effect: ExcludeWithDiagnosticIfMisused, Subject: NonClosureMemberOnly}
	m[IgnoredUnsafeClosure] = Rule{Name: IgnoredUnsafeClosure, Effect: ExcludeWithDiagnosticIfMisused, Subject: ClosureMemberOnly}
	return m
}()

// BareName strips any namespace qualification from an annotation name, so
// "SwiftUI.State" becomes "State". The qualifier is never interpreted.
func BareName(name string) string {
	if i := strings.LastIndexByte(name, '.'); i >= 0 {
		return name[i+1:]
	}
	return name
}

// LookupRule returns the rule registered for the given annotation name, which
// may be namespace-qualified.
func LookupRule(name string) (Rule, bool) {
	r, ok := registry[BareName(name)]
	return r, ok
}

// IsFrameworkBinding reports whether the given annotation name is one of the
// reactive framework annotations whose members are always excluded.
func IsFrameworkBinding(name string) bool {
	r, ok := LookupRule(name)
	return ok && r.Effect == ExcludeSilently
}

// Rules returns all registered rules, sorted by name.
func Rules() []Rule {
	rules := make([]Rule, 0, len(registry))
	for _, r := range registry {
		rules = append(rules, r)
	}
	sort.Slice(rules, func(i, j int) bool {
		return rules[i].Name < rules[j].Name
	})
	return rules
}
