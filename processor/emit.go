package processor

import (
	"fmt"
	"go/types"
	"path/filepath"
	"strings"

	"github.com/jhump/gopoet"

	"github.com/jhump/equatable/analysis"
)

const equatablePath = "github.com/jhump/equatable"

var (
	equatablePkg     = gopoet.NewPackage(equatablePath)
	slicesEqual      = gopoet.NewPackage("slices").Symbol("Equal")
	mapsEqual        = gopoet.NewPackage("maps").Symbol("Equal")
	reflectDeepEqual = gopoet.NewPackage("reflect").Symbol("DeepEqual")
)

// GenerateEquality is a Processor that writes an Equal method, and a Hash
// method when requested, for every declaration in the package that was
// analyzed without type-level problems. Methods for types declared in test
// files are written to a separate test file.
func GenerateEquality(ctx *Context, output OutputFactory) error {
	pkg := ctx.Package.Types
	var files [2]*gopoet.GoFile
	for i, res := range ctx.Results {
		if res.Fragment == nil {
			continue
		}
		tn := ctx.declObjects[i]
		test := 0
		if isTestFile(res.Declaration.Pos.Filename) {
			test = 1
		}
		name := ctx.outputFileFor(i)
		if existing := ctx.declaredElsewhere(tn, "Equal", name); existing != "" {
			ctx.Logger.Warnf("%s already has an Equal method, declared in %s; skipping", tn.Name(), existing)
			continue
		}
		if files[test] == nil {
			files[test] = gopoet.NewGoFile(name, pkg.Path(), pkg.Name())
		}
		file := files[test]
		emitEqual(file, tn, res)
		if res.Fragment.HashRequested {
			if existing := ctx.declaredElsewhere(tn, "Hash", file.Name); existing != "" {
				ctx.Logger.Warnf("%s already has a Hash method, declared in %s; skipping", tn.Name(), existing)
				continue
			}
			emitHash(file, tn, res)
		}
	}

	for _, file := range files {
		if file == nil {
			continue
		}
		path := ctx.OutputPath(file.Name)
		if err := writeFile(output, path, file); err != nil {
			return err
		}
		ctx.Logger.Infof("wrote %s", path)
	}
	return nil
}

func writeFile(output OutputFactory, path string, file *gopoet.GoFile) (err error) {
	out, err := output(path)
	if err != nil {
		return fmt.Errorf("could not create %s: %w", path, err)
	}
	defer func() {
		if closeErr := out.Close(); err == nil {
			err = closeErr
		}
	}()
	if err := gopoet.WriteGoFile(out, file); err != nil {
		return fmt.Errorf("could not write %s: %w", path, err)
	}
	return nil
}

// outputFileFor returns the name of the generated file that holds the methods
// of the i-th declaration.
func (c *Context) outputFileFor(i int) string {
	return c.generatedFileName(isTestFile(c.Unit.Declarations[i].Pos.Filename))
}

func isTestFile(filename string) bool {
	return strings.HasSuffix(filename, "_test.go")
}

func (c *Context) generatedFileName(test bool) string {
	suffix := c.cfg.fileSuffix()
	if test {
		suffix = strings.TrimSuffix(suffix, ".go") + "_test.go"
	}
	return c.Package.Types.Name() + suffix
}

// declaredElsewhere returns the file that declares the named method of the
// given type, unless it is the file with the given name (which is about to be
// rewritten) or the method does not exist.
func (c *Context) declaredElsewhere(tn *types.TypeName, method, generatedFile string) string {
	named, ok := tn.Type().(*types.Named)
	if !ok {
		return ""
	}
	for i := 0; i < named.NumMethods(); i++ {
		m := named.Method(i)
		if m.Name() != method {
			continue
		}
		filename := c.Package.Fset.Position(m.Pos()).Filename
		if filepath.Base(filename) == generatedFile {
			return ""
		}
		return filename
	}
	return ""
}

func emitEqual(file *gopoet.GoFile, tn *types.TypeName, res *analysis.Result) {
	typeName := gopoet.TypeNameForGoType(tn.Type())
	m := gopoet.NewMethod(gopoet.NewReceiverForType("v", typeName), "Equal")
	m.AddArg("o", typeName)
	m.AddResult("", gopoet.BoolType)

	eq := res.Fragment.Equality
	if eq.AlwaysEqual() {
		m.Println("return true")
		file.AddElement(m)
		return
	}
	st, _ := tn.Type().Underlying().(*types.Struct)
	m.Print("return ")
	for i, c := range eq {
		if i > 0 {
			m.Println(" &&")
		}
		format, args := comparison(fieldType(st, c.Member.Name), c.Member.Name, c.Member.Type.Equatable)
		m.Printf(format, args...)
	}
	m.Println("")
	file.AddElement(m)
}

func emitHash(file *gopoet.GoFile, tn *types.TypeName, res *analysis.Result) {
	typeName := gopoet.TypeNameForGoType(tn.Type())
	m := gopoet.NewMethod(gopoet.NewReceiverForType("v", typeName), "Hash")
	m.AddArg("h", gopoet.PointerType(gopoet.NamedType(equatablePkg.Symbol("Hasher"))))
	for _, s := range res.Fragment.Hash {
		if s.Member.Type.Equatable {
			m.Printlnf("v.%s.Hash(h)", s.Member.Name)
		} else {
			m.Printlnf("h.Combine(v.%s)", s.Member.Name)
		}
	}
	file.AddElement(m)
}

// comparison returns the code that compares the named field of two values.
func comparison(t types.Type, name string, equatable bool) (string, []interface{}) {
	lhs, rhs := "v."+name, "o."+name
	switch {
	case equatable:
		return "%s.Equal(%s)", []interface{}{lhs, rhs}
	case t == nil:
		return "%s(%s, %s)", []interface{}{reflectDeepEqual, lhs, rhs}
	case types.Comparable(t):
		return "%s == %s", []interface{}{lhs, rhs}
	}
	switch u := t.Underlying().(type) {
	case *types.Slice:
		if types.Comparable(u.Elem()) {
			return "%s(%s, %s)", []interface{}{slicesEqual, lhs, rhs}
		}
	case *types.Map:
		if types.Comparable(u.Elem()) {
			return "%s(%s, %s)", []interface{}{mapsEqual, lhs, rhs}
		}
	}
	return "%s(%s, %s)", []interface{}{reflectDeepEqual, lhs, rhs}
}

func fieldType(st *types.Struct, name string) types.Type {
	if st == nil {
		return nil
	}
	for i := 0; i < st.NumFields(); i++ {
		if f := st.Field(i); f.Name() == name {
			return f.Type()
		}
	}
	return nil
}
