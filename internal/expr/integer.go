package expr

import "math/big"

// Integer is an arbitrary-precision integer atom. Interned by value.
type Integer struct {
	value *big.Int
}

// BigInt returns a copy of the value.
func (n *Integer) BigInt() *big.Int { return new(big.Int).Set(n.value) }

// Int64 returns the value and whether it fits in an int64.
func (n *Integer) Int64() (int64, bool) {
	if n.value.IsInt64() {
		return n.value.Int64(), true
	}
	return 0, false
}

// Sign returns -1, 0, or +1.
func (n *Integer) Sign() int { return n.value.Sign() }

func (n *Integer) Same(other Element) bool {
	o, ok := other.(*Integer)
	return ok && (n == o || n.value.Cmp(o.value) == 0)
}

func (n *Integer) String() string { return n.value.String() }

// Hash is stable across processes and agrees with Same.
func (n *Integer) Hash() uint64 { return hashString("Integer", n.value.String()) }

func (n *Integer) IsExact() bool { return true }

func (n *Integer) PrecisionBits() (uint, bool) { return 0, false }

func (n *Integer) isElement() {}
func (n *Integer) isNumber()  {}

// Rational is an exact fraction atom. Always fully reduced with a positive
// denominator; a value with denominator 1 is never constructed (the Interner
// collapses it to Integer). Interned by value.
type Rational struct {
	value *big.Rat
}

// BigRat returns a copy of the value.
func (n *Rational) BigRat() *big.Rat { return new(big.Rat).Set(n.value) }

// Num returns a copy of the reduced numerator.
func (n *Rational) Num() *big.Int { return new(big.Int).Set(n.value.Num()) }

// Den returns a copy of the reduced denominator. Always > 1.
func (n *Rational) Den() *big.Int { return new(big.Int).Set(n.value.Denom()) }

func (n *Rational) Same(other Element) bool {
	o, ok := other.(*Rational)
	return ok && (n == o || n.value.Cmp(o.value) == 0)
}

func (n *Rational) String() string {
	return "Rational[" + n.value.Num().String() + ", " + n.value.Denom().String() + "]"
}

func (n *Rational) Hash() uint64 { return hashString("Rational", n.value.RatString()) }

func (n *Rational) IsExact() bool { return true }

func (n *Rational) PrecisionBits() (uint, bool) { return 0, false }

func (n *Rational) isElement() {}
func (n *Rational) isNumber()  {}
