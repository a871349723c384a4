package expr

import (
	"bytes"
	"sort"
	"strings"
)

// Compare is the canonical value ordering over elements, returning -1, 0, or
// +1. It ranks numbers before strings and byte arrays, those before symbols
// and general expressions, with literal expression rows ahead of general
// ones. Numbers compare by value across kinds, so an Integer 1 and a machine
// real 1.0 compare equal here; Orderless sorting is stable, which keeps such
// ties deterministic.
func Compare(a, b Element) int {
	ra1, ra2 := valueRank(a)
	rb1, rb2 := valueRank(b)
	if ra1 != rb1 {
		return sign(ra1 - rb1)
	}
	if ra2 != rb2 {
		return sign(ra2 - rb2)
	}
	switch ra2 {
	case 0: // numbers
		return compareNumbers(a.(Number), b.(Number))
	case 1: // strings and byte arrays
		return compareStringlike(a, b)
	case 2: // symbols
		return strings.Compare(a.(*Symbol).name, b.(*Symbol).name)
	default: // expressions
		return compareExpressions(a.(*Expression), b.(*Expression))
	}
}

// valueRank returns the two-level class of an element in value ordering.
func valueRank(e Element) (int, int) {
	switch v := e.(type) {
	case *Integer, *Rational, *MachineReal, *PrecisionReal, *Complex:
		return 0, 0
	case *String, *ByteArray:
		return 0, 1
	case *Symbol:
		return 2, 2
	case *Expression:
		if isLiteralRow(v) {
			return 1, 3
		}
		return 2, 3
	}
	panic("expr: unknown element kind")
}

func compareNumbers(a, b Number) int {
	if c := NumericCompare(a, b); c != 0 {
		return c
	}
	// Equal real parts: order by imaginary part, absent parts counting as
	// exact zero.
	return ratValue(imagPart(a)).Cmp(ratValue(imagPart(b)))
}

func imagPart(n Number) Number {
	if c, ok := n.(*Complex); ok {
		return c.im
	}
	return exactZero()
}

func compareStringlike(a, b Element) int {
	ab, aIsBytes := stringBytes(a)
	bb, bIsBytes := stringBytes(b)
	if c := bytes.Compare(ab, bb); c != 0 {
		return c
	}
	// Equal contents: the plain string sorts before the byte array.
	return sign(boolInt(aIsBytes) - boolInt(bIsBytes))
}

func stringBytes(e Element) ([]byte, bool) {
	switch v := e.(type) {
	case *String:
		return []byte(v.value), false
	case *ByteArray:
		return v.data, true
	}
	panic("expr: not a string-like element")
}

func compareExpressions(a, b *Expression) int {
	if c := Compare(a.head, b.head); c != 0 {
		return c
	}
	if c := sign(len(a.elements) - len(b.elements)); c != 0 {
		return c
	}
	for i := range a.elements {
		if c := Compare(a.elements[i], b.elements[i]); c != 0 {
			return c
		}
	}
	return 0
}

// Sort orders elements in place by the canonical value ordering. Stable, so
// numerically equal atoms of different kinds keep their relative order.
func Sort(elements []Element) {
	sort.SliceStable(elements, func(i, j int) bool {
		return Compare(elements[i], elements[j]) < 0
	})
}

// IsSorted reports whether elements are already in canonical order.
func IsSorted(elements []Element) bool {
	for i := 1; i < len(elements); i++ {
		if Compare(elements[i-1], elements[i]) > 0 {
			return false
		}
	}
	return true
}

// PatternCompare orders elements by pattern specificity: more specific
// patterns sort first, so a rule list kept in this order is searched most
// specific first. Concrete atoms precede concrete expressions, which precede
// the blank family; blanks rank Blank before BlankSequence before
// BlankNullSequence, head-restricted forms before fully generic ones; a
// longer element row precedes any strict prefix of itself. Ties between
// concrete atoms fall back to the value ordering plus a kind rank, making
// the relation a strict total order.
func PatternCompare(a, b Element) int {
	return comparePatternKeys(patternKeyOf(a), patternKeyOf(b))
}

// SortPatterns orders elements in place by pattern specificity.
func SortPatterns(elements []Element) {
	sort.SliceStable(elements, func(i, j int) bool {
		return PatternCompare(elements[i], elements[j]) < 0
	})
}

// patternKey mirrors the slot layout of the specificity ordering: class,
// blank rank, then demotion flags set by PatternTest / Pattern / Optional /
// Condition wrappers, then the structural tail.
type patternKey struct {
	class    int // 0 concrete atom, 2 expression or blank
	blank    int // 0 concrete, else 11..13 head-restricted, 21..23 generic
	test     int // 0 when wrapped in PatternTest
	pattern  int // 0 when wrapped in Pattern
	optional int // 1 when wrapped in Optional
	cond     int // 0 when wrapped in Condition

	atom Element // set for concrete atoms

	head       *patternKey
	elems      []*patternKey
	terminated bool // general expressions append a terminator sentinel
}

func patternKeyOf(e Element) *patternKey {
	v, ok := e.(*Expression)
	if !ok {
		return &patternKey{class: 0, blank: 0, test: 1, pattern: 1, cond: 1, atom: e}
	}
	if name := HeadName(v); name != "" {
		switch name {
		case "Blank", "BlankSequence", "BlankNullSequence":
			return blankKey(v, name)
		case "PatternTest":
			if v.Len() == 2 {
				k := patternKeyOf(v.Element(0))
				k.test = 0
				return k
			}
		case "Pattern":
			if v.Len() == 2 {
				k := patternKeyOf(v.Element(1))
				k.pattern = 0
				return k
			}
		case "Condition":
			if v.Len() == 2 {
				k := patternKeyOf(v.Element(0))
				k.cond = 0
				return k
			}
		case "Optional":
			if v.Len() == 1 || v.Len() == 2 {
				k := patternKeyOf(v.Element(0))
				k.optional = 1
				return k
			}
		}
	}
	k := &patternKey{class: 2, test: 1, pattern: 1, cond: 1, head: patternKeyOf(v.head), terminated: true}
	k.elems = make([]*patternKey, v.Len())
	for i, el := range v.elements {
		k.elems[i] = patternKeyOf(el)
	}
	return k
}

func blankKey(v *Expression, name string) *patternKey {
	rank := 1
	switch name {
	case "BlankSequence":
		rank = 2
	case "BlankNullSequence":
		rank = 3
	}
	if v.Len() > 0 {
		rank += 10
	} else {
		rank += 20
	}
	k := &patternKey{class: 2, blank: rank, test: 1, pattern: 1, cond: 1, head: patternKeyOf(v.head)}
	k.elems = make([]*patternKey, v.Len())
	for i, el := range v.elements {
		k.elems[i] = patternKeyOf(el)
	}
	return k
}

func comparePatternKeys(a, b *patternKey) int {
	if c := sign(a.class - b.class); c != 0 {
		return c
	}
	if c := sign(a.blank - b.blank); c != 0 {
		return c
	}
	if c := sign(a.test - b.test); c != 0 {
		return c
	}
	if c := sign(a.pattern - b.pattern); c != 0 {
		return c
	}
	if c := sign(a.optional - b.optional); c != 0 {
		return c
	}
	if a.atom != nil || b.atom != nil {
		if a.atom == nil {
			return 1
		}
		if b.atom == nil {
			return -1
		}
		if c := Compare(a.atom, b.atom); c != 0 {
			return c
		}
		if c := sign(kindRank(a.atom) - kindRank(b.atom)); c != 0 {
			return c
		}
		return sign(a.cond - b.cond)
	}
	if c := comparePatternKeys(a.head, b.head); c != 0 {
		return c
	}
	if c := comparePatternElems(a, b); c != 0 {
		return c
	}
	return sign(a.cond - b.cond)
}

// comparePatternElems compares element rows. Rows from general expressions
// carry a high terminator sentinel, so a row strictly extending another
// sorts first (more specific); blank rows compare as plain prefixes.
func comparePatternElems(a, b *patternKey) int {
	n := len(a.elems)
	if len(b.elems) < n {
		n = len(b.elems)
	}
	for i := 0; i < n; i++ {
		if c := comparePatternKeys(a.elems[i], b.elems[i]); c != 0 {
			return c
		}
	}
	if len(a.elems) == len(b.elems) {
		return 0
	}
	if a.terminated || b.terminated {
		// Exhausted row hits the sentinel, which outranks any real key.
		return sign(len(b.elems) - len(a.elems))
	}
	return sign(len(a.elems) - len(b.elems))
}

// kindRank breaks value-equal atom ties across kinds.
func kindRank(e Element) int {
	switch e.(type) {
	case *Integer:
		return 0
	case *Rational:
		return 1
	case *MachineReal:
		return 2
	case *PrecisionReal:
		return 3
	case *Complex:
		return 4
	case *String:
		return 5
	case *ByteArray:
		return 6
	case *Symbol:
		return 7
	}
	return 8
}

func sign(n int) int {
	switch {
	case n < 0:
		return -1
	case n > 0:
		return 1
	}
	return 0
}

func boolInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
