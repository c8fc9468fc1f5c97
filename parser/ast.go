package parser

import (
	"fmt"
	"text/scanner"
)

// Identifier is the name of an annotation, possibly qualified with a package
// or module name.
type Identifier struct {
	PackageAlias string
	Name         string
	Pos          scanner.Position
}

func (id Identifier) String() string {
	if id.PackageAlias == "" {
		return id.Name
	} else {
		return fmt.Sprintf("%s.%s", id.PackageAlias, id.Name)
	}
}

// Annotation is a single annotation, like "@EquatableIgnored" or
// "@SwiftUI.FocusedBinding(\.focused)". Arguments are not interpreted: their
// text is recorded as written, without the enclosing brackets.
type Annotation struct {
	Type    Identifier
	HasArgs bool
	Args    string
	Pos     scanner.Position
}

func (a Annotation) String() string {
	if !a.HasArgs {
		return "@" + a.Type.String()
	}
	return fmt.Sprintf("@%s(%s)", a.Type, a.Args)
}
