package defs

import (
	"github.com/tungsten-lang/tungsten/internal/expr"
)

// Default engine limits. Both are clamped below by minLimit on assignment,
// so a runaway definition cannot lock the evaluator into a zero budget.
const (
	DefaultIterationLimit = 4096
	DefaultRecursionLimit = 1024
	minLimit              = 20
)

// Unlimited disables a limit.
const Unlimited = -1

// RuleKind selects one of the four value categories of a definition.
type RuleKind int

const (
	OwnValues RuleKind = iota
	DownValues
	SubValues
	UpValues
)

func (k RuleKind) String() string {
	switch k {
	case OwnValues:
		return "ownvalues"
	case DownValues:
		return "downvalues"
	case SubValues:
		return "subvalues"
	case UpValues:
		return "upvalues"
	}
	return "unknown"
}

// Definition is everything the store knows about one symbol.
type Definition struct {
	name       string
	attributes Attributes
	values     [4][]Rule
	changed    int64
	builtin    bool
}

// Name returns the symbol name the definition belongs to.
func (d *Definition) Name() string { return d.name }

// Attributes returns the attribute bitset.
func (d *Definition) Attributes() Attributes { return d.attributes }

// Rules returns one value category in pattern-specificity order. Callers
// must not mutate the slice.
func (d *Definition) Rules(kind RuleKind) []Rule { return d.values[kind] }

// Changed returns the clock tick of the last mutation.
func (d *Definition) Changed() int64 { return d.changed }

// Builtin reports whether the definition was installed as a builtin rather
// than by user code. Return unwinding stops only at user-defined frames.
func (d *Definition) Builtin() bool { return d.builtin }

// Definitions is the rule store consulted by the evaluator.
//
// Thread-safety: none. The engine runs one evaluator per store; the change
// clock alone is atomic so trace consumers may read it concurrently.
type Definitions struct {
	clock *Clock
	defs  map[string]*Definition

	iterationLimit int
	recursionLimit int
}

// NewDefinitions creates a store with default limits and the engine prelude
// installed: the wrapper symbols the rewrite step gives meaning to carry
// their hold attributes as builtin definitions.
func NewDefinitions() *Definitions {
	ds := &Definitions{
		clock:          NewClock(),
		defs:           make(map[string]*Definition),
		iterationLimit: DefaultIterationLimit,
		recursionLimit: DefaultRecursionLimit,
	}
	for name, attrs := range map[string]Attributes{
		"Unevaluated":  HoldAllComplete,
		"Hold":         HoldAll,
		"HoldComplete": HoldAllComplete,
		"HoldForm":     HoldAll,
	} {
		ds.SetAttributes(name, attrs)
		ds.MarkBuiltin(name)
	}
	return ds
}

// Now returns the current change-clock reading.
func (ds *Definitions) Now() int64 { return ds.clock.Current() }

// Lookup returns the definition for a symbol name, or nil.
func (ds *Definitions) Lookup(name string) *Definition {
	return ds.defs[name]
}

// Attributes returns a symbol's attribute set; undefined symbols have none.
func (ds *Definitions) Attributes(name string) Attributes {
	if d := ds.defs[name]; d != nil {
		return d.attributes
	}
	return Nothing
}

// SetAttributes adds attribute bits to a symbol, creating the definition on
// first touch.
func (ds *Definitions) SetAttributes(name string, attrs Attributes) {
	d := ds.ensure(name)
	d.attributes = d.attributes.With(attrs)
	ds.markChanged(d)
}

// ClearAttributes removes attribute bits from a symbol.
func (ds *Definitions) ClearAttributes(name string, attrs Attributes) {
	d := ds.defs[name]
	if d == nil {
		return
	}
	d.attributes = d.attributes.Without(attrs)
	ds.markChanged(d)
}

// AddRule inserts a rule into one value category, keeping the category in
// pattern-specificity order. A rule whose pattern is Same as an existing
// rule's pattern replaces it in place.
func (ds *Definitions) AddRule(name string, kind RuleKind, r Rule) {
	d := ds.ensure(name)
	list := d.values[kind]
	at := len(list)
	for i, existing := range list {
		if existing.Pattern().Same(r.Pattern()) {
			list[i] = r
			ds.markChanged(d)
			return
		}
		if expr.PatternCompare(r.Pattern(), existing.Pattern()) < 0 {
			at = i
			break
		}
	}
	list = append(list, nil)
	copy(list[at+1:], list[at:])
	list[at] = r
	d.values[kind] = list
	ds.markChanged(d)
}

// ClearRules drops one value category of a symbol.
func (ds *Definitions) ClearRules(name string, kind RuleKind) {
	d := ds.defs[name]
	if d == nil {
		return
	}
	d.values[kind] = nil
	ds.markChanged(d)
}

// MarkBuiltin flags a symbol's definition as builtin.
func (ds *Definitions) MarkBuiltin(name string) {
	d := ds.ensure(name)
	d.builtin = true
	ds.markChanged(d)
}

// IsUserDefined reports whether a symbol has a definition installed by user
// code (any non-builtin definition).
func (ds *Definitions) IsUserDefined(name string) bool {
	d := ds.defs[name]
	return d != nil && !d.builtin
}

// HasChangedSince reports whether any of the named symbols was mutated after
// the given clock tick. Names without a definition count as unchanged.
func (ds *Definitions) HasChangedSince(tick int64, names map[string]struct{}) bool {
	for name := range names {
		if d := ds.defs[name]; d != nil && d.changed > tick {
			return true
		}
	}
	return false
}

// IterationLimit returns the pass budget of one evaluation, or Unlimited.
func (ds *Definitions) IterationLimit() int { return ds.iterationLimit }

// SetIterationLimit sets the pass budget. Values below the floor are
// clamped; Unlimited disables the check.
func (ds *Definitions) SetIterationLimit(n int) {
	ds.iterationLimit = clampLimit(n)
}

// RecursionLimit returns the evaluation depth budget, or Unlimited.
func (ds *Definitions) RecursionLimit() int { return ds.recursionLimit }

// SetRecursionLimit sets the depth budget with the same clamping rules.
func (ds *Definitions) SetRecursionLimit(n int) {
	ds.recursionLimit = clampLimit(n)
}

func clampLimit(n int) int {
	if n < 0 {
		return Unlimited
	}
	if n < minLimit {
		return minLimit
	}
	return n
}

func (ds *Definitions) ensure(name string) *Definition {
	if d := ds.defs[name]; d != nil {
		return d
	}
	d := &Definition{name: name}
	ds.defs[name] = d
	return d
}

func (ds *Definitions) markChanged(d *Definition) {
	d.changed = ds.clock.Next()
}
