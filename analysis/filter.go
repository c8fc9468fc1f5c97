package analysis

import (
	"fmt"

	"github.com/jhump/equatable"
	"github.com/jhump/equatable/diag"
	"github.com/jhump/equatable/model"
)

// Options customize how fixes are rendered for a particular source language.
type Options struct {
	// MarkerPrefix is written before an inserted annotation. Go sources carry
	// annotations in comments, so the Go front-end uses "// ".
	MarkerPrefix string
}

// Filter returns the members of a declaration that participate in equality,
// in declaration order, along with diagnostics for misused annotations.
// Members that are reported are always dropped. The given slice is not
// modified.
func Filter(members []model.Member, opts Options) ([]model.Member, []diag.Diagnostic) {
	var eligible []model.Member
	var diags []diag.Diagnostic
	for i := range members {
		m := &members[i]
		include, d := filterMember(m, opts)
		if d != nil {
			diags = append(diags, *d)
		}
		if include {
			eligible = append(eligible, *m)
		}
	}
	return eligible, diags
}

func filterMember(m *model.Member, opts Options) (bool, *diag.Diagnostic) {
	if m.IsStatic() || m.IsComputed() {
		return false, nil
	}

	var markers []equatable.Rule
	var binding string
	for _, a := range m.Annotations {
		r, ok := equatable.LookupRule(a.Name)
		if !ok {
			continue
		}
		switch r.Effect {
		case equatable.ExcludeSilently:
			// framework-owned state wins over everything else
			return false, nil
		case equatable.Retain:
			if binding == "" {
				binding = r.Name
			}
		case equatable.ExcludeWithDiagnosticIfMisused:
			markers = append(markers, r)
		}
	}

	for _, r := range markers {
		if msg := misuse(r, m.Closure, binding); msg != "" {
			d := diag.NewError(codeForMisuse(r, m.Closure), m.Pos, msg)
			return false, &d
		}
	}
	if len(markers) > 0 {
		return false, nil
	}

	if m.Closure {
		d := diag.NewError(diag.ClosureNotSupported, m.Pos,
			fmt.Sprintf("Arbitrary closures are not supported in @%s", equatable.Equatable))
		if !m.SharesLine {
			d = d.WithFix(
				fmt.Sprintf("Consider marking the closure with @%s if it doesn't affect the value's observable state", equatable.IgnoredUnsafeClosure),
				diag.Edit{
					Pos:  m.Anchor(),
					Text: opts.MarkerPrefix + "@" + equatable.IgnoredUnsafeClosure + "\n" + m.AnchorIndent(),
				})
		}
		return false, &d
	}
	return true, nil
}

// misuse returns the message describing why the given marker cannot be
// applied to the member, or the empty string if it can.
func misuse(r equatable.Rule, closure bool, binding string) string {
	if !r.Allows(closure) {
		if r.Subject == equatable.ClosureMemberOnly {
			return fmt.Sprintf("@%s can only be applied to closures", r.Name)
		}
		return fmt.Sprintf("@%s cannot be applied to closures", r.Name)
	}
	if binding != "" && r.Subject == equatable.NonClosureMemberOnly {
		return fmt.Sprintf("@%s cannot be applied to @%s properties", r.Name, binding)
	}
	return ""
}

func codeForMisuse(r equatable.Rule, closure bool) diag.Code {
	switch {
	case r.Subject == equatable.ClosureMemberOnly:
		return diag.UnsafeClosureNotClosure
	case closure:
		return diag.IgnoredOnClosure
	default:
		return diag.IgnoredOnBinding
	}
}
