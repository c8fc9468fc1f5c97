package analysis

import (
	"fmt"
	"strings"
)

// Comparison compares one member of the two values.
type Comparison struct {
	Eligible
}

func (c Comparison) String() string {
	return fmt.Sprintf("lhs.%s == rhs.%s", c.Member.Name, c.Member.Name)
}

// Expr is a conjunction of comparisons, evaluated left to right. An empty
// conjunction is always true.
type Expr []Comparison

// AlwaysEqual reports whether the expression is the literal "true".
func (e Expr) AlwaysEqual() bool {
	return len(e) == 0
}

func (e Expr) String() string {
	if e.AlwaysEqual() {
		return "true"
	}
	parts := make([]string, len(e))
	for i, c := range e {
		parts[i] = c.String()
	}
	return strings.Join(parts, " && ")
}

// HashStep feeds one member into a hash accumulator.
type HashStep struct {
	Eligible
}

func (s HashStep) String() string {
	return fmt.Sprintf("hasher.combine(%s)", s.Member.Name)
}

// Fragment is the synthesized equality (and optionally hash) logic for one
// declaration.
type Fragment struct {
	Equality Expr
	// HashRequested is true when the declaration asked for a hash operation.
	// Hash may still be empty, which is a valid hash body that combines
	// nothing.
	HashRequested bool
	Hash          []HashStep
}

// Members returns the members that take part in the fragment, in comparison
// order.
func (f *Fragment) Members() []Eligible {
	members := make([]Eligible, len(f.Equality))
	for i, c := range f.Equality {
		members[i] = c.Eligible
	}
	return members
}

// String renders the fragment in a neutral, language-independent form: the
// equality expression on the first line followed by one line per hash step.
func (f *Fragment) String() string {
	var sb strings.Builder
	sb.WriteString(f.Equality.String())
	for _, s := range f.Hash {
		sb.WriteByte('\n')
		sb.WriteString(s.String())
	}
	return sb.String()
}

// Synthesize builds the equality fragment for the given members, which must
// already be in comparison order (see Sort). If hash is true, the fragment
// also has one hash step per member, in the same order.
func Synthesize(sorted []Eligible, hash bool) *Fragment {
	f := &Fragment{HashRequested: hash}
	if len(sorted) > 0 {
		f.Equality = make(Expr, len(sorted))
	}
	for i, e := range sorted {
		f.Equality[i] = Comparison{Eligible: e}
	}
	if hash {
		f.Hash = make([]HashStep, len(sorted))
		for i, e := range sorted {
			f.Hash[i] = HashStep{Eligible: e}
		}
	}
	return f
}
