package processor

import (
	"bytes"
	"fmt"
	"go/ast"
	"go/token"
	"go/types"
	"os"
	"strings"
	"text/scanner"

	"github.com/jhump/equatable"
	"github.com/jhump/equatable/diag"
	"github.com/jhump/equatable/model"
	"github.com/jhump/equatable/parser"
)

func (c *Context) computeAllAnnotations() error {
	fields := map[*types.Var]*ast.Field{}
	for _, file := range c.Package.Syntax {
		if err := c.computeAnnotationsFromFile(file, fields); err != nil {
			return err
		}
	}

	equatables := map[*types.TypeName]bool{}
	for _, el := range c.ElementsAnnotatedWith(equatable.Equatable) {
		if tn, ok := el.Obj.(*types.TypeName); ok {
			equatables[tn] = true
		}
	}

	for _, el := range c.allElements {
		tn, ok := el.Obj.(*types.TypeName)
		if !ok {
			continue
		}
		decl, ok := c.buildDeclaration(el, tn, fields, equatables)
		if !ok {
			continue
		}
		c.Unit.Declarations = append(c.Unit.Declarations, decl)
		c.declObjects = append(c.declObjects, tn)
	}
	c.promoteHashable()
	c.Logger.Debugf("found %d annotated element(s), %d declaration(s)", len(c.allElements), len(c.Unit.Declarations))
	return nil
}

func (c *Context) computeAnnotationsFromFile(file *ast.File, fields map[*types.Var]*ast.Field) error {
	for _, decl := range file.Decls {
		gen, ok := decl.(*ast.GenDecl)
		if !ok || gen.Tok != token.TYPE {
			continue
		}
		for _, s := range gen.Specs {
			spec := s.(*ast.TypeSpec)
			doc := spec.Doc
			if (doc == nil || len(doc.List) == 0) && !gen.Lparen.IsValid() {
				doc = gen.Doc
			}
			if err := c.computeAnnotationsFromType(file, spec, doc, fields); err != nil {
				return err
			}
		}
	}
	return nil
}

func (c *Context) computeAnnotationsFromType(file *ast.File, spec *ast.TypeSpec, doc *ast.CommentGroup, fields map[*types.Var]*ast.Field) error {
	obj, ok := c.Package.TypesInfo.Defs[spec.Name].(*types.TypeName)
	if !ok {
		return NewErrorWithPosition(c.Package.Fset.Position(spec.Pos()), fmt.Errorf("no type information for %s", spec.Name.Name))
	}
	if _, ok := c.AllElementsByObject[obj]; ok {
		// already processed this one
		return nil
	}
	annos, start := c.parseAnnotations(doc)

	var children []*AnnotatedElement
	if st, ok := spec.Type.(*ast.StructType); ok && st.Fields != nil {
		for _, field := range st.Fields.List {
			ids := field.Names
			if len(ids) == 0 {
				if id := embeddedIdent(field.Type); id != nil {
					ids = []*ast.Ident{id}
				}
			}
			for _, id := range ids {
				if v, ok := c.Package.TypesInfo.Defs[id].(*types.Var); ok {
					fields[v] = field
				}
			}
			fieldAnnos, fieldStart := c.parseAnnotations(field.Doc)
			if len(fieldAnnos) == 0 {
				continue
			}
			for _, id := range ids {
				v, ok := c.Package.TypesInfo.Defs[id].(*types.Var)
				if !ok {
					continue
				}
				children = append(children, &AnnotatedElement{
					Obj:         v,
					Ident:       id,
					File:        file,
					Context:     c,
					Annotations: fieldAnnos,
					Start:       fieldStart,
				})
			}
		}
	}
	if len(annos) == 0 && len(children) == 0 {
		return nil
	}

	el := &AnnotatedElement{
		Obj:         obj,
		Ident:       spec.Name,
		File:        file,
		Children:    children,
		Context:     c,
		Annotations: annos,
		Start:       start,
	}
	c.addElement(el)
	for _, ch := range children {
		ch.Parent = el
		c.addElement(ch)
	}
	return nil
}

func (c *Context) addElement(el *AnnotatedElement) {
	c.allElements = append(c.allElements, el)
	c.AllElementsByObject[el.Obj] = el
}

func embeddedIdent(expr ast.Expr) *ast.Ident {
	for {
		switch e := expr.(type) {
		case *ast.Ident:
			return e
		case *ast.StarExpr:
			expr = e.X
		case *ast.SelectorExpr:
			return e.Sel
		case *ast.IndexExpr:
			expr = e.X
		case *ast.IndexListExpr:
			expr = e.X
		default:
			return nil
		}
	}
}

func (c *Context) buildDeclaration(el *AnnotatedElement, tn *types.TypeName, fields map[*types.Var]*ast.Field, equatables map[*types.TypeName]bool) (model.Declaration, bool) {
	decl := model.Declaration{
		Name: tn.Name(),
		Kind: kindOf(tn),
		Pos:  c.Package.Fset.Position(tn.Pos()),
	}
	if requests := el.FindAnnotations(equatable.Equatable); len(requests) > 0 {
		decl.Pos = requests[0].Pos
		decl.Hashable = len(el.FindAnnotations(equatable.HashableAnnotation)) > 0
		if named, ok := tn.Type().(*types.Named); ok && named.TypeParams().Len() > 0 {
			c.Diagnostics = append(c.Diagnostics, diag.NewFatal(diag.TypeIsGeneric, decl.Pos,
				fmt.Sprintf("@%s cannot be applied to generic types", equatable.Equatable)))
			return decl, false
		}
	} else if hasMarkers(el) {
		decl.CheckOnly = true
	} else {
		return decl, false
	}

	st, ok := tn.Type().Underlying().(*types.Struct)
	if !ok || !decl.Kind.IsValueAggregate() {
		return decl, true
	}
	for i := 0; i < st.NumFields(); i++ {
		v := st.Field(i)
		if v.Name() == "_" {
			continue
		}
		if v.Pkg() != c.Package.Types && !v.Exported() {
			c.Logger.Warnf("%s: field %s of %s is not accessible from this package and is not compared", decl.Pos, v.Name(), decl.Name)
			continue
		}
		var child *AnnotatedElement
		for _, ch := range el.Children {
			if ch.Obj == v {
				child = ch
				break
			}
		}
		decl.Members = append(decl.Members, c.buildMember(v, fields[v], child, equatables))
	}
	return decl, true
}

// promoteHashable requests a Hash method for every annotated struct that a
// hashable declaration compares with Equal, so that the outer Hash method can
// delegate to it.
func (c *Context) promoteHashable() {
	index := make(map[*types.TypeName]int, len(c.declObjects))
	for i, tn := range c.declObjects {
		index[tn] = i
	}
	decls := c.Unit.Declarations
	var queue []int
	for i := range decls {
		if decls[i].Hashable {
			queue = append(queue, i)
		}
	}
	for len(queue) > 0 {
		i := queue[0]
		queue = queue[1:]
		st, _ := c.declObjects[i].Type().Underlying().(*types.Struct)
		for _, m := range decls[i].Members {
			if !m.Type.Equatable {
				continue
			}
			named, ok := fieldType(st, m.Name).(*types.Named)
			if !ok {
				continue
			}
			j, ok := index[named.Obj()]
			if !ok || decls[j].Hashable || decls[j].CheckOnly {
				continue
			}
			decls[j].Hashable = true
			c.Logger.Debugf("%s: %s also gets a Hash method, for %s", decls[j].Pos, decls[j].Name, decls[i].Name)
			queue = append(queue, j)
		}
	}
}

// hasMarkers returns true if any field of the given struct element carries an
// annotation that must be validated even when equality was not requested.
func hasMarkers(el *AnnotatedElement) bool {
	for _, ch := range el.Children {
		for _, a := range ch.Annotations {
			if r, ok := equatable.LookupRule(a.Name); ok && r.Effect == equatable.ExcludeWithDiagnosticIfMisused {
				return true
			}
		}
	}
	return false
}

func kindOf(tn *types.TypeName) model.Kind {
	if tn.IsAlias() {
		return model.KindNamed
	}
	switch tn.Type().Underlying().(type) {
	case *types.Struct:
		return model.KindStruct
	case *types.Interface:
		return model.KindInterface
	default:
		return model.KindNamed
	}
}

func (c *Context) buildMember(v *types.Var, field *ast.Field, child *AnnotatedElement, equatables map[*types.TypeName]bool) model.Member {
	m := model.Member{
		Name:       v.Name(),
		Type:       c.typeSignature(v.Type(), equatables),
		Storage:    model.Stored,
		Scope:      model.Instance,
		Mutability: model.Variable,
		Closure:    isClosure(v.Type()),
	}
	declPos := c.Package.Fset.Position(v.Pos())
	if field != nil {
		declPos = c.Package.Fset.Position(field.Pos())
	}
	m.Pos = declPos
	m.DeclPos = declPos
	m.Indent, m.SharesLine = c.indentAt(declPos)
	if child != nil {
		for _, a := range child.Annotations {
			m.Annotations = append(m.Annotations, a.Ref())
		}
		if child.Start.IsValid() {
			m.Pos = child.Start
		}
	}
	return m
}

func isClosure(t types.Type) bool {
	_, ok := t.Underlying().(*types.Signature)
	return ok
}

func (c *Context) typeSignature(t types.Type, equatables map[*types.TypeName]bool) model.TypeSignature {
	sig := model.TypeSignature{Name: types.TypeString(t, types.RelativeTo(c.Package.Types))}
	if c.isEquatable(t, equatables) {
		sig.Kind = model.TypeNamed
		sig.Equatable = true
		return sig
	}
	switch u := t.Underlying().(type) {
	case *types.Basic:
		if u.Kind() == types.UnsafePointer || u.Kind() == types.Invalid {
			sig.Kind = model.TypeNamed
		} else {
			sig.Kind = model.TypeScalar
		}
	case *types.Slice:
		sig.Kind = model.TypeCollection
		elem := c.typeSignature(u.Elem(), equatables)
		sig.Elem = &elem
	case *types.Array:
		sig.Kind = model.TypeCollection
		elem := c.typeSignature(u.Elem(), equatables)
		sig.Elem = &elem
	case *types.Map:
		sig.Kind = model.TypeCollection
		key := c.typeSignature(u.Key(), equatables)
		elem := c.typeSignature(u.Elem(), equatables)
		sig.Key, sig.Elem = &key, &elem
	default:
		sig.Kind = model.TypeNamed
	}
	return sig
}

// isEquatable returns true if values of the given type are compared with an
// Equal method: either one that will be generated, because the type is
// annotated in this package, or one that already exists.
func (c *Context) isEquatable(t types.Type, equatables map[*types.TypeName]bool) bool {
	if named, ok := t.(*types.Named); ok && equatables[named.Obj()] {
		_, isStruct := named.Underlying().(*types.Struct)
		return isStruct && named.TypeParams().Len() == 0
	}
	return hasEqualMethod(t, c.Package.Types)
}

func hasEqualMethod(t types.Type, pkg *types.Package) bool {
	if _, ok := t.(*types.Pointer); ok || types.IsInterface(t) {
		return false
	}
	obj, _, _ := types.LookupFieldOrMethod(t, true, pkg, "Equal")
	fn, ok := obj.(*types.Func)
	if !ok {
		return false
	}
	sig := fn.Type().(*types.Signature)
	if sig.Params().Len() != 1 || sig.Results().Len() != 1 || sig.Variadic() {
		return false
	}
	if !types.Identical(sig.Params().At(0).Type(), t) {
		return false
	}
	res, ok := sig.Results().At(0).Type().Underlying().(*types.Basic)
	return ok && res.Kind() == types.Bool
}

// hasHash reports whether values of the given type have a Hash method that
// accepts an *equatable.Hasher, or will get one generated in this package.
func (c *Context) hasHash(t types.Type) bool {
	if t == nil {
		return false
	}
	if named, ok := t.(*types.Named); ok {
		for i, tn := range c.declObjects {
			if tn != named.Obj() {
				continue
			}
			if c.Results[i].Fragment != nil && c.Results[i].Fragment.HashRequested &&
				c.declaredElsewhere(tn, "Equal", c.outputFileFor(i)) == "" {
				return true
			}
			break
		}
	}
	return hasHashMethod(t, c.Package.Types)
}

func hasHashMethod(t types.Type, pkg *types.Package) bool {
	obj, _, _ := types.LookupFieldOrMethod(t, true, pkg, "Hash")
	fn, ok := obj.(*types.Func)
	if !ok {
		return false
	}
	sig := fn.Type().(*types.Signature)
	if sig.Params().Len() != 1 || sig.Results().Len() != 0 || sig.Variadic() {
		return false
	}
	ptr, ok := sig.Params().At(0).Type().(*types.Pointer)
	if !ok {
		return false
	}
	named, ok := ptr.Elem().(*types.Named)
	if !ok || named.Obj().Pkg() == nil {
		return false
	}
	return named.Obj().Name() == "Hasher" && named.Obj().Pkg().Path() == equatablePath
}

// indentAt returns the whitespace at the start of the line that contains the
// given position. It also reports whether anything other than whitespace
// precedes the position on that line.
func (c *Context) indentAt(pos token.Position) (string, bool) {
	src := c.source(pos.Filename)
	if src == nil || pos.Offset > len(src) {
		return "", false
	}
	start := bytes.LastIndexByte(src[:pos.Offset], '\n') + 1
	line := src[start:pos.Offset]
	trimmed := bytes.TrimLeft(line, " \t")
	return string(line[:len(line)-len(trimmed)]), len(trimmed) > 0
}

func (c *Context) source(filename string) []byte {
	if src, ok := c.sources[filename]; ok {
		return src
	}
	src, err := os.ReadFile(filename)
	if err != nil {
		c.Logger.Debugf("could not read %s: %v", filename, err)
		src = nil
	}
	c.sources[filename] = src
	return src
}

// parseAnnotations parses the annotations in the given doc comment. It also
// returns the position of the comment where the annotations start. Syntax
// errors are reported as diagnostics and the comment is treated as if it had
// no annotations.
func (c *Context) parseAnnotations(doc *ast.CommentGroup) ([]AnnotationMirror, token.Position) {
	buf, adjuster, start := c.extractAnnotations(doc)
	if buf == nil {
		return nil, token.Position{}
	}
	annos, err := parser.ParseAnnotations(start.Filename, buf)
	if err != nil {
		c.Diagnostics = append(c.Diagnostics, diag.NewError(diag.MalformedAnnotation,
			adjuster.adjustPosition(err.Pos()), err.Underlying().Error()))
		return nil, token.Position{}
	}
	mirrors := make([]AnnotationMirror, len(annos))
	for i, a := range annos {
		mirrors[i] = AnnotationMirror{
			Name:    a.Type.String(),
			HasArgs: a.HasArgs,
			Args:    a.Args,
			Pos:     adjuster.adjustPosition(a.Pos),
		}
	}
	return mirrors, start
}

// extractAnnotations returns the portion of the given doc comment that holds
// annotations: everything from the first line that starts with '@' to the end
// of the comment. The returned adjuster maps positions in the returned text to
// positions in the source file. The returned position is the start of the
// comment that holds the first annotation.
func (c *Context) extractAnnotations(doc *ast.CommentGroup) (*bytes.Buffer, posAdjuster, token.Position) {
	if doc == nil {
		return nil, nil, token.Position{}
	}
	var buf bytes.Buffer
	var adjuster posAdjuster
	var start token.Position
	found := false
	prevSingleLine := false
	var pos token.Position
	for _, l := range doc.List {
		txt := l.Text
		singleLine := false
		if strings.HasPrefix(txt, "/*") {
			txt = txt[2:]
			txt = strings.TrimSuffix(txt, "*/")
		} else if strings.HasPrefix(txt, "//") {
			singleLine = true
			txt = txt[2:]
		}

		if singleLine != prevSingleLine {
			found = false
			buf.Reset()
			prevSingleLine = singleLine
			adjuster = nil
		}

		pos = c.Package.Fset.Position(l.Slash)
		// skip past opening "//" or "/*"
		pos.Offset += 2
		pos.Column += 2

		for _, line := range strings.Split(txt, "\n") {
			trimmed := strings.TrimSpace(line)
			if !found && trimmed != "" && trimmed[0] == '@' {
				found = true
				start = c.Package.Fset.Position(l.Slash)
			}
			if found {
				adjuster = append(adjuster, posAdj{outOffset: buf.Len(), inPos: pos})
				buf.WriteString(line)
				buf.WriteByte('\n')
			}
			pos.Offset += len(line) + 1
			pos.Line++
			pos.Column = 1
		}

		// set this so we can record end of input as the last entry in adjuster
		pos = c.Package.Fset.Position(l.End())
	}
	if !found {
		return nil, nil, token.Position{}
	}
	adjuster = append(adjuster, posAdj{outOffset: buf.Len(), inPos: pos})
	return &buf, adjuster, start
}

type posAdj struct {
	outOffset int
	inPos     token.Position
}

type posAdjuster []posAdj

func (a posAdjuster) adjustPosition(pos scanner.Position) token.Position {
	if pos.Line < 1 || pos.Line > len(a) {
		return a[len(a)-1].inPos
	}
	el := a[pos.Line-1]
	return token.Position{
		Filename: el.inPos.Filename,
		Line:     el.inPos.Line,
		Column:   el.inPos.Column + pos.Column - 1,
		Offset:   el.inPos.Offset + (pos.Offset - el.outOffset),
	}
}
