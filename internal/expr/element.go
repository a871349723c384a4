// Package expr defines the symbolic expression tree: atoms (symbols, strings,
// byte arrays, the numeric tower), composite expressions, the interning
// service that guarantees pointer identity for equal atoms, the canonical
// total ordering used for Orderless sorting and rule ranking, and the
// canonical serialization used for content hashing.
//
// INVARIANTS:
//   - Elements are immutable after construction. The only mutable state on an
//     Expression is its evaluation bookkeeping (dependency cache, element
//     properties), which never affects Same, ordering, or serialization.
//   - Atoms of equal value constructed through the same Interner are
//     reference-identical, so pointer comparison is a sound fast path.
//   - Rational values are always fully reduced with a positive denominator,
//     and a denominator of 1 never occurs (collapsed to Integer).
package expr

// Element is the interface implemented by every node of an expression tree.
//
// The implementation set is sealed: Symbol, String, ByteArray, Integer,
// Rational, MachineReal, PrecisionReal, Complex, and Expression. Consumers
// dispatch with type switches; the marker method prevents foreign
// implementations from slipping into a tree.
type Element interface {
	// Same reports structural sameness (the SameQ relation): same kind and
	// identical content. For mixed machine/arbitrary-precision reals the
	// values must agree to the lower of the two precisions.
	Same(other Element) bool

	// String renders the element in full form, e.g. "Plus[1, x]". Used for
	// diagnostics, traces, and goldens only.
	String() string

	isElement()
}

// Number is implemented by the numeric atoms: Integer, Rational, MachineReal,
// PrecisionReal, and Complex.
type Number interface {
	Element

	// IsExact reports whether the value carries no precision (Integer,
	// Rational, or Complex with exact components).
	IsExact() bool

	// PrecisionBits returns the binary working precision. Exact numbers
	// report ok=false.
	PrecisionBits() (bits uint, ok bool)

	// Hash is a stable value hash compatible with Same within a kind:
	// inexact values hash their decimal rendering truncated to their own
	// declared precision.
	Hash() uint64

	isNumber()
}

// HeadName returns the name of the element's head: the kind name for atoms,
// and the head symbol's name for an expression. An expression whose head is
// itself composite (a curried form such as D[1][f]) has no head name and
// yields "". Dispatch between downvalues and subvalues compares this against
// LookupName.
func HeadName(e Element) string {
	switch v := e.(type) {
	case *Symbol:
		return "Symbol"
	case *String:
		return "String"
	case *ByteArray:
		return "ByteArray"
	case *Integer:
		return "Integer"
	case *Rational:
		return "Rational"
	case *MachineReal, *PrecisionReal:
		return "Real"
	case *Complex:
		return "Complex"
	case *Expression:
		if s, ok := v.head.(*Symbol); ok {
			return s.name
		}
		return ""
	}
	return ""
}

// LookupName returns the name used for definition lookup: the leftmost symbol
// in head position. For a curried expression such as D[1][f][x] the lookup
// name is "D", so rules attached to D as subvalues can fire.
func LookupName(e Element) string {
	switch v := e.(type) {
	case *Symbol:
		return v.name
	case *Expression:
		return LookupName(v.head)
	default:
		return HeadName(e)
	}
}
