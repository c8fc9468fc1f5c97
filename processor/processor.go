package processor

import (
	"context"
	"fmt"
	"go/token"
	"go/types"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	"golang.org/x/tools/go/packages"

	"github.com/jhump/equatable"
	"github.com/jhump/equatable/analysis"
	"github.com/jhump/equatable/diag"
	"github.com/jhump/equatable/model"
)

// DefaultFileSuffix is the suffix of generated files. The file name is the
// package name followed by this suffix.
const DefaultFileSuffix = ".eq.go"

// ErrorWithPosition is an error that has source position information associated
// with it. The position indicates the location in a source file where the error
// was encountered.
type ErrorWithPosition struct {
	err error
	pos token.Position
}

// Error implements the error interface. It includes position information in the
// returned message.
func (e *ErrorWithPosition) Error() string {
	return fmt.Sprintf("%s:%d:%d: %s", e.pos.Filename, e.pos.Line, e.pos.Column, e.err.Error())
}

// Underlying returns the underlying error.
func (e *ErrorWithPosition) Underlying() error {
	return e.err
}

// Unwrap returns the underlying error, so that errors.Is and errors.As can see
// through the position information.
func (e *ErrorWithPosition) Unwrap() error {
	return e.err
}

// Pos returns the location in source where the underlying error was
// encountered.
func (e *ErrorWithPosition) Pos() token.Position {
	return e.pos
}

// NewErrorWithPosition returns the given error, but associates it with the
// given source code location.
func NewErrorWithPosition(pos token.Position, err error) *ErrorWithPosition {
	return &ErrorWithPosition{err: err, pos: pos}
}

// OutputFactory is a function that creates a writer to an output for the
// given location. Output factories typically use os.OpenFile to create files
// but this function allows the behavior to be customized.
type OutputFactory func(path string) (io.WriteCloser, error)

// Processor is a function that acts on the analyzed declarations of one
// package. Typical processor implementations generate code for them.
type Processor func(ctx *Context, output OutputFactory) error

// ProcessAll invokes all registered Processor instances to process the given
// packages. If the given outputDir is blank, generated files are written next
// to the sources of each package.
func ProcessAll(ctx context.Context, patterns []string, includeTest bool, outputDir string) ([]diag.Diagnostic, error) {
	return Process(ctx, patterns, includeTest, outputDir, AllRegisteredProcessors()...)
}

// Process invokes the given processors to process the given packages.
func Process(ctx context.Context, patterns []string, includeTest bool, outputDir string, procs ...Processor) ([]diag.Diagnostic, error) {
	cfg := Config{
		Patterns:      patterns,
		IncludeTests:  includeTest,
		OutputDir:     outputDir,
		Processors:    procs,
		OutputFactory: DefaultOutputFactory(),
	}
	return cfg.Execute(ctx)
}

// DefaultOutputFactory returns the default OutputFactory used by Process and
// ProcessAll. It creates the parent directory of the given path if necessary
// and then uses os.OpenFile to open the file for writing (creating the file if
// necessary, truncating it if it already exists).
func DefaultOutputFactory() OutputFactory {
	return func(path string) (io.WriteCloser, error) {
		if err := os.MkdirAll(filepath.Dir(path), os.ModePerm); err != nil {
			return nil, fmt.Errorf("could not create output directory %s: %w", filepath.Dir(path), err)
		}
		return os.OpenFile(path, os.O_WRONLY|os.O_TRUNC|os.O_CREATE, 0666)
	}
}

// Config represents the configuration for running one or more Processors.
// Callers should configure the exported fields and then call the Execute
// method to actually invoke the processors.
type Config struct {
	// Patterns are the package patterns to load, as accepted by "go list".
	Patterns []string
	// Dir is the directory in which patterns are resolved. If empty, the
	// current directory is used.
	Dir string
	// IncludeTests indicates whether types declared in test files are
	// processed too.
	IncludeTests bool
	// OutputDir, if not empty, is a root directory under which generated files
	// are written, organized by package path. If empty, generated files are
	// written next to the package's sources.
	OutputDir string
	// FileSuffix is the suffix of generated file names. Defaults to
	// DefaultFileSuffix.
	FileSuffix    string
	Processors    []Processor
	OutputFactory OutputFactory
	// Jobs limits how many packages (and declarations within a package) are
	// analyzed concurrently. Zero or less means no limit.
	Jobs int
	// Logger defaults to a no-op logger.
	Logger *zap.SugaredLogger
}

// Execute loads the configured packages, analyzes their annotated types and
// invokes the configured processors for each package. It returns the
// diagnostics for all packages, in a stable order. Diagnostics do not cause
// an error to be returned: callers decide what to do about them. An error is
// returned if packages cannot be loaded or a processor fails.
func (cfg *Config) Execute(ctx context.Context) ([]diag.Diagnostic, error) {
	logger := cfg.logger()
	pkgConf := &packages.Config{
		Context: ctx,
		Mode: packages.NeedName | packages.NeedFiles | packages.NeedCompiledGoFiles |
			packages.NeedSyntax | packages.NeedTypes | packages.NeedTypesInfo,
		Dir:   cfg.Dir,
		Tests: cfg.IncludeTests,
		Fset:  token.NewFileSet(),
	}
	pkgs, err := packages.Load(pkgConf, cfg.Patterns...)
	if err != nil {
		return nil, fmt.Errorf("could not load packages: %w", err)
	}
	pkgs = selectPackages(pkgs, cfg.IncludeTests)
	for _, pkg := range pkgs {
		if len(pkg.Errors) > 0 {
			e := pkg.Errors[0]
			return nil, fmt.Errorf("could not load package %s: %s", pkg.PkgPath, e)
		}
	}
	logger.Debugf("loaded %d package(s) for %v", len(pkgs), cfg.Patterns)
	return cfg.process(ctx, pkgs)
}

func (cfg *Config) process(ctx context.Context, pkgs []*packages.Package) ([]diag.Diagnostic, error) {
	contexts := make([]*Context, len(pkgs))
	g, gctx := errgroup.WithContext(ctx)
	if cfg.Jobs > 0 {
		g.SetLimit(cfg.Jobs)
	}
	for i, pkg := range pkgs {
		i, pkg := i, pkg
		g.Go(func() error {
			c := newContext(pkg, cfg)
			if err := c.computeAllAnnotations(); err != nil {
				return err
			}
			if err := c.analyze(gctx); err != nil {
				return err
			}
			for _, proc := range cfg.Processors {
				if err := proc(c, cfg.outputFactory()); err != nil {
					return err
				}
			}
			contexts[i] = c
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	bag := diag.NewBag(0)
	for _, c := range contexts {
		bag.AddAll(c.Diagnostics)
	}
	bag.Dedup()
	bag.Sort()
	return bag.Items(), nil
}

// selectPackages drops the synthesized test binaries that go/packages reports
// when tests are requested. When a package has a test variant, only the test
// variant is kept since it includes all of the package's files.
func selectPackages(pkgs []*packages.Package, includeTests bool) []*packages.Package {
	if !includeTests {
		return pkgs
	}
	hasTestVariant := map[string]bool{}
	for _, pkg := range pkgs {
		if pkg.ID != pkg.PkgPath && strings.HasPrefix(pkg.ID, pkg.PkgPath+" [") {
			hasTestVariant[pkg.PkgPath] = true
		}
	}
	var selected []*packages.Package
	for _, pkg := range pkgs {
		if strings.HasSuffix(pkg.ID, ".test") {
			continue
		}
		if pkg.ID == pkg.PkgPath && hasTestVariant[pkg.PkgPath] {
			continue
		}
		selected = append(selected, pkg)
	}
	return selected
}

func (cfg *Config) logger() *zap.SugaredLogger {
	if cfg.Logger == nil {
		return zap.NewNop().Sugar()
	}
	return cfg.Logger
}

func (cfg *Config) outputFactory() OutputFactory {
	if cfg.OutputFactory == nil {
		return DefaultOutputFactory()
	}
	return cfg.OutputFactory
}

func (cfg *Config) fileSuffix() string {
	if cfg.FileSuffix == "" {
		return DefaultFileSuffix
	}
	return cfg.FileSuffix
}

// Context represents the environment for a processor. It represents a single
// package (for which the processors were invoked). It provides access to the
// annotated elements of the package, the declarations extracted from them and
// the results of analyzing those declarations.
type Context struct {
	// Package holds all information about the package being processed. It
	// provides access to the ASTs of files in the package as well as the
	// results of type analysis, to allow for introspection of package elements.
	Package *packages.Package

	// Logger is never nil.
	Logger *zap.SugaredLogger

	// Unit holds the declarations extracted from the package: one for every
	// type annotated with @Equatable and one for every struct whose fields
	// carry exclusion markers.
	Unit *model.Unit
	// Results holds the analysis results, one per declaration in Unit, in the
	// same order.
	Results []*analysis.Result
	// Diagnostics holds everything reported for the package: problems with
	// annotation syntax followed by the diagnostics of each result.
	Diagnostics []diag.Diagnostic

	// AllElementsByObject is map of all elements in the package (represented by
	// types.Object instances) that have annotations to a corresponding
	// AnnotatedElement structure.
	AllElementsByObject map[types.Object]*AnnotatedElement

	allElements []*AnnotatedElement
	declObjects []*types.TypeName
	cfg         *Config
	sources     map[string][]byte
}

func newContext(pkg *packages.Package, cfg *Config) *Context {
	return &Context{
		Package:             pkg,
		Logger:              cfg.logger().With("package", pkg.ID),
		Unit:                &model.Unit{Path: pkg.PkgPath},
		AllElementsByObject: map[types.Object]*AnnotatedElement{},
		cfg:                 cfg,
		sources:             map[string][]byte{},
	}
}

// NumElements returns the number of annotated elements in the package.
func (c *Context) NumElements() int {
	return len(c.allElements)
}

// GetElement returns the annotated element at the given index. Elements are
// ordered by their position in source.
func (c *Context) GetElement(index int) *AnnotatedElement {
	return c.allElements[index]
}

// ElementsAnnotatedWith returns the elements that carry an annotation with the
// given bare name.
func (c *Context) ElementsAnnotatedWith(name string) []*AnnotatedElement {
	var els []*AnnotatedElement
	for _, el := range c.allElements {
		if len(el.FindAnnotations(name)) > 0 {
			els = append(els, el)
		}
	}
	return els
}

// TypeOf returns the type object for the given declaration, which must be one
// of the declarations in c.Unit.
func (c *Context) TypeOf(decl *model.Declaration) *types.TypeName {
	for i := range c.Unit.Declarations {
		if &c.Unit.Declarations[i] == decl {
			return c.declObjects[i]
		}
	}
	return nil
}

// OutputPath returns the path of the output file with the given name for this
// package.
func (c *Context) OutputPath(fileName string) string {
	if c.cfg.OutputDir != "" {
		return filepath.Join(c.cfg.OutputDir, filepath.FromSlash(c.Package.PkgPath), fileName)
	}
	return filepath.Join(c.packageDir(), fileName)
}

func (c *Context) packageDir() string {
	files := c.Package.GoFiles
	if len(files) == 0 {
		files = c.Package.CompiledGoFiles
	}
	if len(files) == 0 {
		return "."
	}
	dirs := make([]string, len(files))
	for i, f := range files {
		dirs[i] = filepath.Dir(f)
	}
	sort.Strings(dirs)
	return dirs[0]
}

func (c *Context) analyze(ctx context.Context) error {
	results, err := analysis.AnalyzeAll(ctx, c.Unit.Declarations, analysis.Options{MarkerPrefix: "// "}, c.cfg.Jobs)
	if err != nil {
		return err
	}
	c.Results = results
	c.checkHashes()
	for _, res := range results {
		c.Diagnostics = append(c.Diagnostics, res.Diagnostics...)
		if res.Aborted() {
			c.Logger.Debugf("synthesis aborted for %s", res.Declaration.Name)
		}
	}
	return nil
}

// checkHashes reports, and drops from both methods, every member that a Hash
// method would have to combine but whose type has an Equal method and no Hash
// method. Combining its fields could give equal values different hashes.
func (c *Context) checkHashes() {
	for i, res := range c.Results {
		if res.Fragment == nil || !res.Fragment.HashRequested {
			continue
		}
		st, _ := c.declObjects[i].Type().Underlying().(*types.Struct)
		members := res.Fragment.Members()
		var kept []analysis.Eligible
		for _, e := range members {
			if !e.Member.Type.Equatable || c.hasHash(fieldType(st, e.Member.Name)) {
				kept = append(kept, e)
				continue
			}
			res.Diagnostics = append(res.Diagnostics, diag.NewError(diag.HashNotAvailable, e.Member.Pos,
				fmt.Sprintf("%s has an Equal method but no Hash method, so %s cannot be hashed by @%s type %s",
					e.Member.Type.Name, e.Member.Name, equatable.HashableAnnotation, res.Declaration.Name)))
		}
		if len(kept) < len(members) {
			res.Fragment = analysis.Synthesize(kept, true)
		}
	}
}
