// Package model contains the normalized declaration model that is analyzed to
// synthesize equality. A front-end (such as the Go source processor) walks its
// syntax trees and produces these flat, serializable records; the analysis
// package never sees a syntax tree.
package model

import (
	"fmt"
	"go/token"
	"strings"
)

// Kind is the kind of a declaration.
type Kind string

const (
	// KindStruct is a value aggregate: the only kind for which equality can be
	// synthesized.
	KindStruct    Kind = "struct"
	KindClass     Kind = "class"
	KindEnum      Kind = "enum"
	KindActor     Kind = "actor"
	KindInterface Kind = "interface"
	// KindNamed is any other named type, like a Go type whose underlying type
	// is not a struct.
	KindNamed Kind = "named"
)

// IsValueAggregate reports whether declarations of this kind are compared by
// structural content.
func (k Kind) IsValueAggregate() bool {
	return k == KindStruct
}

// Storage indicates whether a member holds a value or computes it.
type Storage string

const (
	Stored   Storage = "stored"
	Computed Storage = "computed"
)

// Scope indicates whether a member belongs to instances or to the type.
type Scope string

const (
	Instance Scope = "instance"
	Static   Scope = "static"
)

// Mutability indicates whether a member can be reassigned. It plays no part
// in eligibility but is kept so that models round-trip faithfully.
type Mutability string

const (
	Constant Mutability = "constant"
	Variable Mutability = "variable"
)

// TypeKind is the coarse structure of a member's declared type.
type TypeKind string

const (
	// TypeUnknown is used when the type was not written down and could not be
	// resolved.
	TypeUnknown    TypeKind = ""
	TypeScalar     TypeKind = "scalar"
	TypeCollection TypeKind = "collection"
	TypeNamed      TypeKind = "named"
)

// TypeSignature describes the declared type of a member. It is only used to
// pick a comparison tier, never for type checking.
type TypeSignature struct {
	Kind TypeKind `json:"kind,omitempty" yaml:"kind,omitempty" msgpack:"kind,omitempty"`
	// Name is the type as spelled in source, like "Int", "[String: Int]",
	// "Swift.Array<Int>" or "map[string]int".
	Name string `json:"name,omitempty" yaml:"name,omitempty" msgpack:"name,omitempty"`
	// Elem is the element type of a collection, if known.
	Elem *TypeSignature `json:"elem,omitempty" yaml:"elem,omitempty" msgpack:"elem,omitempty"`
	// Key is the key type of a mapping, if known.
	Key *TypeSignature `json:"key,omitempty" yaml:"key,omitempty" msgpack:"key,omitempty"`
	// Equatable is set by the front-end when the named type is declared, in
	// the same compilation unit, to have value equality of its own.
	Equatable bool `json:"equatable,omitempty" yaml:"equatable,omitempty" msgpack:"equatable,omitempty"`
}

func (t TypeSignature) String() string {
	if t.Name != "" {
		return t.Name
	}
	switch t.Kind {
	case TypeCollection:
		if t.Key != nil && t.Elem != nil {
			return fmt.Sprintf("[%s: %s]", t.Key, t.Elem)
		}
		if t.Elem != nil {
			return fmt.Sprintf("[%s]", t.Elem)
		}
		return "[?]"
	case TypeUnknown:
		return "<inferred>"
	default:
		return fmt.Sprintf("<%s>", t.Kind)
	}
}

// AnnotationRef is one annotation as written on a member.
type AnnotationRef struct {
	// Name may be namespace-qualified, like "SwiftUI.State".
	Name string `json:"name" yaml:"name" msgpack:"name"`
	// HasArgs is true if the annotation was written with arguments.
	HasArgs bool           `json:"hasArgs,omitempty" yaml:"hasArgs,omitempty" msgpack:"hasArgs,omitempty"`
	Pos     token.Position `json:"pos" yaml:"pos" msgpack:"pos"`
}

func (a AnnotationRef) String() string {
	if a.HasArgs {
		return "@" + a.Name + "(...)"
	}
	return "@" + a.Name
}

// Member is one declared member of the target type.
type Member struct {
	Name        string          `json:"name" yaml:"name" msgpack:"name"`
	Type        TypeSignature   `json:"type" yaml:"type" msgpack:"type"`
	Storage     Storage         `json:"storage,omitempty" yaml:"storage,omitempty" msgpack:"storage,omitempty"`
	Scope       Scope           `json:"scope,omitempty" yaml:"scope,omitempty" msgpack:"scope,omitempty"`
	Mutability  Mutability      `json:"mutability,omitempty" yaml:"mutability,omitempty" msgpack:"mutability,omitempty"`
	Annotations []AnnotationRef `json:"annotations,omitempty" yaml:"annotations,omitempty" msgpack:"annotations,omitempty"`
	// Closure is true when the member's type is a function. Functions are not
	// comparable.
	Closure bool `json:"closure,omitempty" yaml:"closure,omitempty" msgpack:"closure,omitempty"`

	// Pos is where the member starts, including any annotations before it.
	Pos token.Position `json:"pos" yaml:"pos" msgpack:"pos"`
	// DeclPos is where the member's declaration proper starts, after its
	// annotations. Inserted annotations go here. If unset, Pos is used.
	DeclPos token.Position `json:"declPos" yaml:"declPos" msgpack:"declPos"`
	// Indent is the whitespace that precedes the declaration on its line.
	Indent string `json:"indent,omitempty" yaml:"indent,omitempty" msgpack:"indent,omitempty"`
	// SharesLine is true when other code precedes the declaration on its
	// line, as in a struct written on a single line. No annotation line can be
	// inserted before such a member.
	SharesLine bool `json:"sharesLine,omitempty" yaml:"sharesLine,omitempty" msgpack:"sharesLine,omitempty"`
}

// IsStatic reports whether the member belongs to the type instead of its
// instances.
func (m *Member) IsStatic() bool {
	return m.Scope == Static
}

// IsComputed reports whether the member has no storage of its own.
func (m *Member) IsComputed() bool {
	return m.Storage == Computed
}

// Anchor returns the position before which new annotations for this member
// are inserted.
func (m *Member) Anchor() token.Position {
	if m.DeclPos.IsValid() {
		return m.DeclPos
	}
	return m.Pos
}

// AnchorIndent returns the indentation to use for a line inserted at Anchor.
// When the front-end did not record it, spaces are used up to the anchor's
// column.
func (m *Member) AnchorIndent() string {
	if m.Indent != "" {
		return m.Indent
	}
	if col := m.Anchor().Column; col > 1 {
		return strings.Repeat(" ", col-1)
	}
	return ""
}

// Declaration is the annotated type whose equality is synthesized.
type Declaration struct {
	Name string `json:"name" yaml:"name" msgpack:"name"`
	Kind Kind   `json:"kind" yaml:"kind" msgpack:"kind"`
	// Pos is the location of the type-level annotation (or of the declaration
	// when there is none). Type-level diagnostics are reported here.
	Pos token.Position `json:"pos" yaml:"pos" msgpack:"pos"`
	// Hashable is true when a hash operation is also requested.
	Hashable bool `json:"hashable,omitempty" yaml:"hashable,omitempty" msgpack:"hashable,omitempty"`
	// CheckOnly is set for declarations that carry member annotations but did
	// not ask for equality. Their members are validated but nothing is
	// synthesized for them.
	CheckOnly bool     `json:"checkOnly,omitempty" yaml:"checkOnly,omitempty" msgpack:"checkOnly,omitempty"`
	Members   []Member `json:"members,omitempty" yaml:"members,omitempty" msgpack:"members,omitempty"`
}

// Member returns the member with the given name.
func (d *Declaration) Member(name string) (*Member, bool) {
	for i := range d.Members {
		if d.Members[i].Name == name {
			return &d.Members[i], true
		}
	}
	return nil, false
}

// Unit is a set of declarations that were extracted together, like all the
// annotated types of one Go package. It is what model files contain.
type Unit struct {
	// Path identifies where the declarations came from, like a Go import path.
	Path         string        `json:"path,omitempty" yaml:"path,omitempty" msgpack:"path,omitempty"`
	Declarations []Declaration `json:"declarations" yaml:"declarations" msgpack:"declarations"`
}
