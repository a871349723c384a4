package defs

import (
	"github.com/tungsten-lang/tungsten/internal/expr"
	"github.com/tungsten-lang/tungsten/internal/pattern"
)

// Rule rewrites a candidate expression. Implementations are opaque to the
// engine: it only asks whether the rule fired and, for store ordering, what
// the rule's pattern looks like.
type Rule interface {
	// Pattern returns the left-hand side, used to keep rule lists in
	// specificity order and to detect redefinition of the same pattern.
	Pattern() expr.Element

	// Apply attempts the rewrite. matched=false means the rule does not
	// apply to this candidate; a non-nil error aborts the attempt (numeric
	// overflow is recovered by the evaluator, anything else propagates).
	// The result is returned unevaluated; the driver iterates over it.
	Apply(candidate expr.Element) (result expr.Element, matched bool, err error)
}

// ReplaceRule is the stock rule: a structural pattern on the left, a
// template on the right. The right-hand side is substituted, not evaluated.
type ReplaceRule struct {
	m        *pattern.Matcher
	lhs, rhs expr.Element
}

// NewReplaceRule builds a pattern rule over the given arena.
func NewReplaceRule(in *expr.Interner, lhs, rhs expr.Element) *ReplaceRule {
	return &ReplaceRule{m: pattern.New(in), lhs: lhs, rhs: rhs}
}

func (r *ReplaceRule) Pattern() expr.Element { return r.lhs }

func (r *ReplaceRule) Apply(candidate expr.Element) (expr.Element, bool, error) {
	b, ok := r.m.Match(r.lhs, candidate)
	if !ok {
		return nil, false, nil
	}
	return r.m.Substitute(r.rhs, b), true, nil
}

// FuncRule wraps a native function as a rule. Used for builtin-style
// definitions and tests.
type FuncRule struct {
	// Patt is the advertised pattern, used only for list ordering.
	Patt expr.Element

	// Fn performs the rewrite. Returning matched=false passes the
	// candidate to the next rule.
	Fn func(candidate expr.Element) (expr.Element, bool, error)
}

func (r *FuncRule) Pattern() expr.Element { return r.Patt }

func (r *FuncRule) Apply(candidate expr.Element) (expr.Element, bool, error) {
	return r.Fn(candidate)
}
