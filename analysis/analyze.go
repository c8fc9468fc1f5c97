package analysis

import (
	"context"
	"fmt"

	"golang.org/x/sync/errgroup"

	"github.com/jhump/equatable"
	"github.com/jhump/equatable/diag"
	"github.com/jhump/equatable/model"
)

// Result is the outcome of analyzing one declaration.
type Result struct {
	Declaration *model.Declaration
	// Fragment is nil if synthesis was aborted or if the declaration was only
	// checked.
	Fragment    *Fragment
	Diagnostics []diag.Diagnostic
}

// Aborted reports whether a type-level problem prevented synthesis.
func (r *Result) Aborted() bool {
	for _, d := range r.Diagnostics {
		if d.Severity == diag.SevFatal {
			return true
		}
	}
	return false
}

// HasErrors reports whether any diagnostic is an error or worse.
func (r *Result) HasErrors() bool {
	for _, d := range r.Diagnostics {
		if d.Severity >= diag.SevError {
			return true
		}
	}
	return false
}

// Analyze decides which members of the given declaration take part in
// equality, orders them and synthesizes the equality fragment. It never
// fails: problems are reported as diagnostics in the result. A declaration
// that is not a struct gets a single fatal diagnostic and no fragment.
//
// Declarations marked CheckOnly have their members validated, but no fragment
// is synthesized for them.
func Analyze(decl *model.Declaration, opts Options) *Result {
	res := &Result{Declaration: decl}
	if decl.CheckOnly {
		_, res.Diagnostics = Filter(decl.Members, opts)
		return res
	}
	if !decl.Kind.IsValueAggregate() {
		res.Diagnostics = []diag.Diagnostic{
			diag.NewFatal(diag.TypeNotStruct, decl.Pos,
				fmt.Sprintf("@%s can only be applied to structs", equatable.Equatable)),
		}
		return res
	}
	eligible, diags := Filter(decl.Members, opts)
	res.Diagnostics = diags
	res.Fragment = Synthesize(Sort(eligible), decl.Hashable)
	return res
}

// AnalyzeAll analyzes the given declarations, using up to jobs goroutines. A
// value of jobs that is zero or less means no limit. Results are in the same
// order as the declarations. The context is checked between declarations; if
// it is cancelled, its error is returned.
func AnalyzeAll(ctx context.Context, decls []model.Declaration, opts Options, jobs int) ([]*Result, error) {
	results := make([]*Result, len(decls))
	g, ctx := errgroup.WithContext(ctx)
	if jobs > 0 {
		g.SetLimit(jobs)
	}
	for i := range decls {
		i := i
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			results[i] = Analyze(&decls[i], opts)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}
