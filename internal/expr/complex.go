package expr

import "math/big"

// Complex is a complex number atom built from two real-kind components
// (Integer, Rational, MachineReal, or PrecisionReal). Construction goes
// through Interner.NewComplex, which enforces the component kinds, collapses
// an exact-zero imaginary part, and lets machine precision dominate mixed
// pairs. Interned by component identity.
type Complex struct {
	re, im Number
}

// Re returns the real component.
func (n *Complex) Re() Number { return n.re }

// Im returns the imaginary component. Never an exact zero.
func (n *Complex) Im() Number { return n.im }

func (n *Complex) Same(other Element) bool {
	o, ok := other.(*Complex)
	if !ok {
		return false
	}
	return n == o || (sameNumberPart(n.re, o.re) && sameNumberPart(n.im, o.im))
}

// sameNumberPart compares components: exact kinds by value, real kinds by
// the Same relation of reals.
func sameNumberPart(a, b Number) bool {
	aExact, bExact := a.IsExact(), b.IsExact()
	if aExact != bExact {
		return false
	}
	if aExact {
		return a.Same(b)
	}
	return sameReal(a, b)
}

func (n *Complex) String() string {
	return "Complex[" + n.re.String() + ", " + n.im.String() + "]"
}

func (n *Complex) Hash() uint64 {
	return hashString("Complex", hashPartText(n.re)+"|"+hashPartText(n.im))
}

func hashPartText(n Number) string {
	// Reuse the component's own hash so truncation-to-precision carries over.
	const hexdigits = "0123456789abcdef"
	h := n.Hash()
	buf := make([]byte, 16)
	for i := 15; i >= 0; i-- {
		buf[i] = hexdigits[h&0xf]
		h >>= 4
	}
	return string(buf)
}

// Complex128 returns the nearest machine pair. May lose precision.
func (n *Complex) Complex128() complex128 {
	re, _ := new(big.Float).SetRat(ratValue(n.re)).Float64()
	im, _ := new(big.Float).SetRat(ratValue(n.im)).Float64()
	return complex(re, im)
}

func (n *Complex) IsExact() bool { return n.re.IsExact() && n.im.IsExact() }

// PrecisionBits reports the pair's working precision: the lower precision of
// its inexact components, or ok=false when both are exact.
func (n *Complex) PrecisionBits() (uint, bool) {
	return jointPrecision(n.re, n.im)
}

func (n *Complex) isElement() {}
func (n *Complex) isNumber()  {}
