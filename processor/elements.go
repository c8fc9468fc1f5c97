package processor

import (
	"go/ast"
	"go/token"
	"go/types"

	"github.com/jhump/equatable"
	"github.com/jhump/equatable/model"
)

// AnnotationMirror is an annotation found in a doc comment. Arguments are not
// interpreted, so the mirror only records whether there were any and their
// text.
type AnnotationMirror struct {
	// Name is the annotation name as written, possibly qualified.
	Name    string
	HasArgs bool
	Args    string
	// Pos is the location of the '@' that starts the annotation.
	Pos token.Position
}

// Ref converts the mirror to its representation in the declaration model.
func (m AnnotationMirror) Ref() model.AnnotationRef {
	return model.AnnotationRef{Name: m.Name, HasArgs: m.HasArgs, Pos: m.Pos}
}

// AnnotatedElement is a view of an element in source that has annotations. It
// is either a top-level type or a field of a top-level struct.
type AnnotatedElement struct {
	// The actual source element, as a types.Object: a *types.TypeName for types
	// and a *types.Var for fields.
	Obj types.Object
	// The element's name/identifier in the source AST.
	Ident *ast.Ident
	// The AST for the file in which this element is defined.
	File *ast.File

	// Child elements. The children of structs are fields.
	Children []*AnnotatedElement
	// The element's parent. The parent of a field will be the enclosing struct.
	Parent *AnnotatedElement

	// The processor context for the package in which this element is defined.
	Context *Context

	// The annotations defined on this element, in the order written.
	Annotations []AnnotationMirror
	// Start is the position of the comment line where the annotations start.
	// It is invalid if the element has no annotations.
	Start token.Position
}

// GetDeclaringFilename gets the name of the file that declared this element.
func (e *AnnotatedElement) GetDeclaringFilename() string {
	p := e.Context.Package.Fset.Position(e.File.Package)
	return p.Filename
}

// FindAnnotations returns the annotations with the given bare name. Qualified
// spellings of the name match too.
func (e *AnnotatedElement) FindAnnotations(name string) []AnnotationMirror {
	var matches []AnnotationMirror
	for _, a := range e.Annotations {
		if equatable.BareName(a.Name) == name {
			matches = append(matches, a)
		}
	}
	return matches
}

// IsField returns true if this element is a struct field.
func (e *AnnotatedElement) IsField() bool {
	v, ok := e.Obj.(*types.Var)
	return ok && v.IsField()
}
