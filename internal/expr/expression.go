package expr

import "strings"

// Properties is what the last rewrite pass learned about an expression's
// element row. It only ever enables shortcuts: Known=false forces the slow
// path and is always safe.
type Properties struct {
	// Known reports whether the remaining fields carry information.
	Known bool

	// FullyEvaluated: every element is known to be at its fixpoint.
	FullyEvaluated bool

	// Flat: no element shares the expression's head, so a Flat attribute
	// has nothing to merge.
	Flat bool

	// Ordered: the elements are known canonically sorted, so an Orderless
	// attribute has nothing to do.
	Ordered bool
}

// DependencyCache records when an expression was last brought to fixpoint
// and which symbol definitions that result depended on. The evaluation
// driver skips re-evaluation when none of those definitions changed since.
type DependencyCache struct {
	// Time is the definitions-clock reading at the end of the pass.
	Time int64

	// Symbols holds the names of every symbol the result depends on.
	Symbols map[string]struct{}
}

// Copy returns an independent cache with the same content.
func (c *DependencyCache) Copy() *DependencyCache {
	if c == nil {
		return nil
	}
	syms := make(map[string]struct{}, len(c.Symbols))
	for name := range c.Symbols {
		syms[name] = struct{}{}
	}
	return &DependencyCache{Time: c.Time, Symbols: syms}
}

// Expression is a composite node: a head applied to zero or more elements.
// Head and elements are immutable after construction; the properties and
// dependency cache are evaluation bookkeeping and do not take part in Same,
// ordering, or serialization.
type Expression struct {
	head     Element
	elements []Element
	props    Properties
	cache    *DependencyCache
}

// NewExpression builds an expression. The element slice is copied.
func NewExpression(head Element, elements ...Element) *Expression {
	elems := make([]Element, len(elements))
	copy(elems, elements)
	return &Expression{head: head, elements: elems}
}

// NewList builds List[elements...].
func (in *Interner) NewList(elements ...Element) *Expression {
	return NewExpression(in.List, elements...)
}

// Head returns the head element.
func (e *Expression) Head() Element { return e.head }

// Len returns the number of elements.
func (e *Expression) Len() int { return len(e.elements) }

// Element returns the i-th element.
func (e *Expression) Element(i int) Element { return e.elements[i] }

// Elements returns the element row. Callers must not mutate it.
func (e *Expression) Elements() []Element { return e.elements }

// Properties returns the known element-row properties.
func (e *Expression) Properties() Properties { return e.props }

// SetProperties records element-row properties learned by a rewrite pass.
func (e *Expression) SetProperties(p Properties) { e.props = p }

// Cache returns the dependency cache, or nil if never evaluated.
func (e *Expression) Cache() *DependencyCache { return e.cache }

// SetCache installs a dependency cache.
func (e *Expression) SetCache(c *DependencyCache) { e.cache = c }

func (e *Expression) Same(other Element) bool {
	o, ok := other.(*Expression)
	if !ok || e == o {
		return ok
	}
	if len(e.elements) != len(o.elements) || !e.head.Same(o.head) {
		return false
	}
	for i, el := range e.elements {
		if !el.Same(o.elements[i]) {
			return false
		}
	}
	return true
}

func (e *Expression) String() string {
	var b strings.Builder
	b.WriteString(e.head.String())
	b.WriteByte('[')
	for i, el := range e.elements {
		if i > 0 {
			b.WriteString(", ")
		}
		b.WriteString(el.String())
	}
	b.WriteByte(']')
	return b.String()
}

func (e *Expression) isElement() {}

// HasSymbolHead reports whether the expression's head is the named symbol.
func (e *Expression) HasSymbolHead(name string) bool {
	s, ok := e.head.(*Symbol)
	return ok && s.name == name
}

// ScanProperties derives element-row properties from scratch by inspecting
// head and elements. Used when an expression is rebuilt and the incremental
// knowledge of the pass that built it does not apply.
func ScanProperties(head Element, elements []Element) Properties {
	p := Properties{Known: true, FullyEvaluated: true, Flat: true, Ordered: true}
	for i, el := range elements {
		if !IsLiteral(el) {
			p.FullyEvaluated = false
		}
		if sub, ok := el.(*Expression); ok && sub.head.Same(head) {
			p.Flat = false
		}
		if i > 0 && Compare(elements[i-1], el) > 0 {
			p.Ordered = false
		}
	}
	return p
}

// CollectSymbolNames gathers the names of every symbol occurring anywhere in
// an element, heads included. This is the dependency set cached after a
// rewrite pass: the result can only go stale if one of these definitions
// changes.
func CollectSymbolNames(e Element) map[string]struct{} {
	names := make(map[string]struct{})
	collectSymbolNames(e, names)
	return names
}

func collectSymbolNames(e Element, names map[string]struct{}) {
	switch v := e.(type) {
	case *Symbol:
		names[v.name] = struct{}{}
	case *Expression:
		collectSymbolNames(v.head, names)
		for _, el := range v.elements {
			collectSymbolNames(el, names)
		}
	}
}

// IsLiteral reports whether an atom is self-evaluating: a number, string,
// or byte array. Symbols are not literal (they may have ownvalues) and
// expressions never are (their heads may have rules regardless of content).
func IsLiteral(e Element) bool {
	switch e.(type) {
	case *Integer, *Rational, *MachineReal, *PrecisionReal, *Complex, *String, *ByteArray:
		return true
	}
	return false
}

// isLiteralRow reports whether an expression is built purely from literal
// atoms under symbol heads. Used only by the canonical ordering, which ranks
// such rows ahead of general expressions.
func isLiteralRow(e *Expression) bool {
	if _, ok := e.head.(*Symbol); !ok {
		return false
	}
	for _, el := range e.elements {
		if IsLiteral(el) {
			continue
		}
		sub, ok := el.(*Expression)
		if !ok || !isLiteralRow(sub) {
			return false
		}
	}
	return true
}
