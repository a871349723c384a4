package expr

import (
	"hash/fnv"
	"math/big"
)

// MachinePrecisionBits is the mantissa width of a machine real. A requested
// precision of exactly this many bits (or zero) selects the MachineReal
// representation instead of PrecisionReal.
const MachinePrecisionBits = 53

// DefaultToleranceBits is the number of low-order bits ignored by Equal when
// comparing inexact numbers at their joint precision.
const DefaultToleranceBits = 7

// log2of10 converts between decimal digits and binary precision.
const log2of10 = 3.3219280948873626

// BitsForDigits returns the binary working precision for a count of decimal
// digits, never below one bit.
func BitsForDigits(digits int) uint {
	b := int(float64(digits+1)*log2of10 + 0.5)
	if b < 1 {
		b = 1
	}
	return uint(b)
}

// DigitsForBits returns the decimal digit count carried by a binary
// precision, never below one digit.
func DigitsForBits(bits uint) int {
	d := int(float64(bits)/log2of10 - 1 + 0.5)
	if d < 1 {
		d = 1
	}
	return d
}

// jointPrecision returns the lower working precision of two numbers, or
// ok=false when both are exact.
func jointPrecision(a, b Number) (uint, bool) {
	pa, oka := a.PrecisionBits()
	pb, okb := b.PrecisionBits()
	switch {
	case oka && okb:
		if pb < pa {
			return pb, true
		}
		return pa, true
	case oka:
		return pa, true
	case okb:
		return pb, true
	}
	return 0, false
}

// ratValue returns the exact rational value of the real part of a number.
// Every non-complex numeric atom is exactly representable as a rational:
// machine and arbitrary-precision reals are finite binary floats.
func ratValue(n Number) *big.Rat {
	switch v := n.(type) {
	case *Integer:
		return new(big.Rat).SetInt(v.value)
	case *Rational:
		return new(big.Rat).Set(v.value)
	case *MachineReal:
		r := new(big.Rat).SetFloat64(v.value)
		if r == nil {
			panic("expr: non-finite machine real")
		}
		return r
	case *PrecisionReal:
		r, _ := v.value.Rat(nil)
		return r
	case *Complex:
		return ratValue(v.re)
	}
	panic("expr: unknown number kind")
}

// NumericCompare orders two numbers by the value of their real parts,
// returning -1, 0, or +1. Complex imaginary parts are ignored here; the
// canonical ordering layers them on top.
func NumericCompare(a, b Number) int {
	return ratValue(a).Cmp(ratValue(b))
}

// Equal reports numeric equality at joint precision with the default
// tolerance. Two exact numbers are Equal only when their values coincide;
// when either side is inexact the comparison ignores DefaultToleranceBits
// low-order bits of the lower precision.
func Equal(a, b Number) bool {
	return EqualTol(a, b, DefaultToleranceBits)
}

// EqualTol is Equal with an explicit tolerance in bits.
func EqualTol(a, b Number, tolBits uint) bool {
	ca, aIsComplex := a.(*Complex)
	cb, bIsComplex := b.(*Complex)
	switch {
	case aIsComplex && bIsComplex:
		return realEqualTol(ca.re, cb.re, tolBits) && realEqualTol(ca.im, cb.im, tolBits)
	case aIsComplex:
		return realEqualTol(ca.im, exactZero(), tolBits) && realEqualTol(ca.re, b, tolBits)
	case bIsComplex:
		return realEqualTol(cb.im, exactZero(), tolBits) && realEqualTol(cb.re, a, tolBits)
	}
	return realEqualTol(a, b, tolBits)
}

// exactZero is an uninterned zero used only as a comparison operand.
func exactZero() Number { return &Integer{value: big.NewInt(0)} }

func realEqualTol(a, b Number, tolBits uint) bool {
	ra, rb := ratValue(a), ratValue(b)
	prec, inexact := jointPrecision(a, b)
	if !inexact {
		return ra.Cmp(rb) == 0
	}
	if prec <= tolBits {
		prec = tolBits + 1
	}
	// eps = 2^-(prec - tolBits); equal when the absolute or relative
	// difference stays below it.
	eps := new(big.Rat).SetFrac(big.NewInt(1), new(big.Int).Lsh(big.NewInt(1), prec-tolBits))
	diff := new(big.Rat).Sub(ra, rb)
	diff.Abs(diff)
	if diff.Cmp(eps) <= 0 {
		return true
	}
	absA := new(big.Rat).Abs(ra)
	absB := new(big.Rat).Abs(rb)
	if absB.Cmp(absA) > 0 {
		absA = absB
	}
	return diff.Cmp(new(big.Rat).Mul(eps, absA)) <= 0
}

// sameReal implements Same for mixed machine/arbitrary-precision reals: the
// values must agree to within one unit of the lower precision.
func sameReal(a, b Number) bool {
	prec, inexact := jointPrecision(a, b)
	if !inexact {
		return ratValue(a).Cmp(ratValue(b)) == 0
	}
	eps := new(big.Rat).SetFrac(big.NewInt(1), new(big.Int).Lsh(big.NewInt(1), prec))
	diff := new(big.Rat).Sub(ratValue(a), ratValue(b))
	diff.Abs(diff)
	return diff.Cmp(eps) < 0
}

func hashString(tag, s string) uint64 {
	h := fnv.New64a()
	h.Write([]byte(tag))
	h.Write([]byte{0})
	h.Write([]byte(s))
	return h.Sum64()
}
