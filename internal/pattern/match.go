// Package pattern implements a minimal structural matcher over expression
// trees: Blank, BlankSequence, BlankNullSequence with optional head
// restriction, and named Pattern wrappers. It is deliberately small; rule
// authors with richer needs plug their own Rule implementations into the
// definitions store. Orderless and Flat aware matching is out of scope.
package pattern

import (
	"github.com/tungsten-lang/tungsten/internal/expr"
)

// Bindings maps pattern names to the matched elements. A sequence pattern
// binds a Sequence[...] expression holding the matched run.
type Bindings map[string]expr.Element

// Matcher matches patterns and substitutes bindings. It carries the interner
// so sequence bindings can be wrapped in the engine's Sequence head.
type Matcher struct {
	in *expr.Interner
}

// New creates a matcher over the given arena.
func New(in *expr.Interner) *Matcher {
	return &Matcher{in: in}
}

// Match reports whether pat matches e, returning the bindings on success.
func (m *Matcher) Match(pat, e expr.Element) (Bindings, bool) {
	b := make(Bindings)
	if m.matchOne(pat, e, b) {
		return b, true
	}
	return nil, false
}

func (m *Matcher) matchOne(pat, e expr.Element, b Bindings) bool {
	p, ok := pat.(*expr.Expression)
	if !ok {
		return pat.Same(e)
	}
	switch expr.HeadName(p) {
	case "Blank", "BlankSequence", "BlankNullSequence":
		// At top level every blank consumes exactly one element.
		return m.headAllows(p, e)
	case "Pattern":
		if p.Len() == 2 {
			name, ok := p.Element(0).(*expr.Symbol)
			if !ok {
				return false
			}
			return m.matchOne(p.Element(1), e, b) && m.bind(b, name.Name(), e)
		}
	}
	sub, ok := e.(*expr.Expression)
	if !ok {
		return false
	}
	if !m.matchOne(p.Head(), sub.Head(), b) {
		return false
	}
	return m.matchRow(p.Elements(), sub.Elements(), b)
}

// matchRow matches a pattern row against an element row, backtracking over
// the lengths consumed by sequence blanks. Shorter runs are tried first.
func (m *Matcher) matchRow(pats, elems []expr.Element, b Bindings) bool {
	if len(pats) == 0 {
		return len(elems) == 0
	}
	p := pats[0]
	core, name := unwrapName(p)
	if min, isSeq := sequenceMin(core); isSeq {
		blank := core.(*expr.Expression)
		for k := min; k <= len(elems); k++ {
			run := elems[:k]
			if !m.runAllowed(blank, run) {
				continue
			}
			undo := b.snapshotAll()
			if name != "" && !m.bind(b, name, expr.NewExpression(m.in.Sequence, run...)) {
				undo(b)
				continue
			}
			if m.matchRow(pats[1:], elems[k:], b) {
				return true
			}
			undo(b)
		}
		return false
	}
	if len(elems) == 0 {
		return false
	}
	undo := b.snapshotAll()
	if m.matchOne(p, elems[0], b) && m.matchRow(pats[1:], elems[1:], b) {
		return true
	}
	undo(b)
	return false
}

// bind records a name binding, requiring consistency with any earlier one.
func (m *Matcher) bind(b Bindings, name string, value expr.Element) bool {
	if prev, ok := b[name]; ok {
		return prev.Same(value)
	}
	b[name] = value
	return true
}

// unwrapName strips one Pattern wrapper, returning the inner pattern and the
// bound name ("" when anonymous).
func unwrapName(p expr.Element) (expr.Element, string) {
	v, ok := p.(*expr.Expression)
	if !ok || expr.HeadName(v) != "Pattern" || v.Len() != 2 {
		return p, ""
	}
	if name, ok := v.Element(0).(*expr.Symbol); ok {
		return v.Element(1), name.Name()
	}
	return p, ""
}

// sequenceMin returns the minimum run length of a sequence blank, or
// isSeq=false for non-sequence patterns.
func sequenceMin(p expr.Element) (int, bool) {
	v, ok := p.(*expr.Expression)
	if !ok {
		return 0, false
	}
	switch expr.HeadName(v) {
	case "BlankSequence":
		return 1, true
	case "BlankNullSequence":
		return 0, true
	}
	return 0, false
}

// headAllows checks a blank's optional head restriction against one element.
func (m *Matcher) headAllows(blank *expr.Expression, e expr.Element) bool {
	if blank.Len() == 0 {
		return true
	}
	want, ok := blank.Element(0).(*expr.Symbol)
	if !ok {
		return false
	}
	return expr.HeadName(e) == want.Name()
}

func (m *Matcher) runAllowed(blank *expr.Expression, run []expr.Element) bool {
	for _, e := range run {
		if !m.headAllows(blank, e) {
			return false
		}
	}
	return true
}

// Substitute replaces bound pattern names in a right-hand side. A symbol
// bound to a Sequence splices into its parent's element row; the engine's
// own Sequence handling flattens anything that survives to evaluation.
func (m *Matcher) Substitute(e expr.Element, b Bindings) expr.Element {
	if s, ok := e.(*expr.Symbol); ok {
		if v, ok := b[s.Name()]; ok {
			return v
		}
		return e
	}
	v, ok := e.(*expr.Expression)
	if !ok {
		return e
	}
	head := m.Substitute(v.Head(), b)
	elems := make([]expr.Element, 0, v.Len())
	for _, el := range v.Elements() {
		sub := m.Substitute(el, b)
		if seq, ok := sub.(*expr.Expression); ok && isBoundSequence(el, seq, b, m.in) {
			elems = append(elems, seq.Elements()...)
			continue
		}
		elems = append(elems, sub)
	}
	return expr.NewExpression(head, elems...)
}

// isBoundSequence reports whether sub came from a sequence binding (a bound
// symbol whose value is a Sequence), as opposed to a literal Sequence the
// rule author wrote.
func isBoundSequence(original expr.Element, sub *expr.Expression, b Bindings, in *expr.Interner) bool {
	s, ok := original.(*expr.Symbol)
	if !ok {
		return false
	}
	if _, bound := b[s.Name()]; !bound {
		return false
	}
	return sub.Head() == in.Sequence
}

// snapshotAll copies the whole binding set; match failures may have bound
// arbitrarily many names before failing.
func (b Bindings) snapshotAll() func(Bindings) {
	saved := make(Bindings, len(b))
	for k, v := range b {
		saved[k] = v
	}
	return func(b Bindings) {
		for k := range b {
			if _, ok := saved[k]; !ok {
				delete(b, k)
			}
		}
		for k, v := range saved {
			b[k] = v
		}
	}
}
