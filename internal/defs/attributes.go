// Package defs is the definitions store: per-symbol attribute bitsets, the
// four rule categories (ownvalues, downvalues, subvalues, upvalues) kept in
// pattern-specificity order, a logical change clock backing the evaluator's
// fixpoint-skip test, and the engine limit settings.
package defs

import (
	"fmt"
	"sort"
	"strings"
)

// Attributes is the bitset of evaluation-controlling attributes of a symbol.
//
// The hold family is layered bitwise: HoldAll is HoldFirst|HoldRest, and
// HoldAllComplete includes HoldAll plus a bit that additionally disables
// Evaluate forcing, Sequence splicing, and upvalue search. Testing
// a.Has(HoldAll) therefore answers "are all elements held" regardless of
// which stronger form granted it.
type Attributes uint32

const (
	Flat Attributes = 1 << iota
	Listable
	Orderless
	OneIdentity
	SequenceHold
	Constant
	NumericFunction
	Protected
	HoldFirst
	HoldRest
	holdCompleteBit
)

const (
	HoldAll         = HoldFirst | HoldRest
	HoldAllComplete = HoldAll | holdCompleteBit
)

// Nothing is the empty attribute set.
const Nothing Attributes = 0

var attributeNames = []struct {
	name string
	bits Attributes
}{
	// Compound bits first so formatting prefers the stronger name.
	{"HoldAllComplete", HoldAllComplete},
	{"HoldAll", HoldAll},
	{"Flat", Flat},
	{"Listable", Listable},
	{"Orderless", Orderless},
	{"OneIdentity", OneIdentity},
	{"SequenceHold", SequenceHold},
	{"Constant", Constant},
	{"NumericFunction", NumericFunction},
	{"Protected", Protected},
	{"HoldFirst", HoldFirst},
	{"HoldRest", HoldRest},
}

// Has reports whether every bit of want is set.
func (a Attributes) Has(want Attributes) bool { return a&want == want }

// With returns the set with extra bits added.
func (a Attributes) With(extra Attributes) Attributes { return a | extra }

// Without returns the set with bits cleared. Clearing HoldAll also clears
// HoldAllComplete's extra bit, since the stronger form cannot survive alone.
func (a Attributes) Without(drop Attributes) Attributes {
	if drop&HoldAll != 0 {
		drop |= holdCompleteBit
	}
	return a &^ drop
}

// ParseAttribute resolves an attribute name.
func ParseAttribute(name string) (Attributes, error) {
	for _, entry := range attributeNames {
		if entry.name == name {
			return entry.bits, nil
		}
	}
	return 0, fmt.Errorf("defs: unknown attribute %q", name)
}

// Names lists the attribute names in the set, compound names first, the rest
// alphabetical.
func (a Attributes) Names() []string {
	var names []string
	rest := a
	for _, entry := range attributeNames {
		if rest.Has(entry.bits) {
			names = append(names, entry.name)
			rest = rest &^ entry.bits
		}
	}
	sort.Strings(names)
	return names
}

func (a Attributes) String() string {
	if a == 0 {
		return "{}"
	}
	return "{" + strings.Join(a.Names(), ", ") + "}"
}
