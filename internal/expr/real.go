package expr

import (
	"math"
	"math/big"
	"strconv"
)

// MachineReal is a double-precision floating point atom. Always finite: the
// Interner refuses to construct NaN or infinities (OverflowError). Interned
// by bit pattern.
type MachineReal struct {
	value float64
}

// Float64 returns the value.
func (n *MachineReal) Float64() float64 { return n.value }

func (n *MachineReal) Same(other Element) bool {
	switch other.(type) {
	case *MachineReal, *PrecisionReal:
		return sameReal(n, other.(Number))
	}
	return false
}

func (n *MachineReal) String() string {
	s := strconv.FormatFloat(n.value, 'g', -1, 64)
	if !hasDecimalPoint(s) {
		s += "."
	}
	return s
}

func (n *MachineReal) Hash() uint64 {
	return hashString("Real", strconv.FormatFloat(n.value, 'e', DigitsForBits(MachinePrecisionBits), 64))
}

func (n *MachineReal) IsExact() bool { return false }

func (n *MachineReal) PrecisionBits() (uint, bool) { return MachinePrecisionBits, true }

func (n *MachineReal) isElement() {}
func (n *MachineReal) isNumber()  {}

func hasDecimalPoint(s string) bool {
	for i := 0; i < len(s); i++ {
		if s[i] == '.' || s[i] == 'e' {
			return true
		}
	}
	return false
}

// PrecisionReal is an arbitrary-precision floating point atom carrying an
// explicit binary precision. The precision is part of the atom's identity:
// the same value at two precisions interns to two distinct atoms. Never
// constructed at machine precision (the Interner selects MachineReal there).
type PrecisionReal struct {
	value *big.Float
	prec  uint
}

// BigFloat returns a copy of the value at its declared precision.
func (n *PrecisionReal) BigFloat() *big.Float { return new(big.Float).SetPrec(n.prec).Set(n.value) }

// Float64 returns the nearest double. May lose precision; never panics.
func (n *PrecisionReal) Float64() float64 {
	f, _ := n.value.Float64()
	return f
}

// Precision returns the declared binary precision.
func (n *PrecisionReal) Precision() uint { return n.prec }

func (n *PrecisionReal) Same(other Element) bool {
	switch other.(type) {
	case *MachineReal, *PrecisionReal:
		return sameReal(n, other.(Number))
	}
	return false
}

func (n *PrecisionReal) String() string {
	return n.value.Text('g', DigitsForBits(n.prec)) + "`" + strconv.Itoa(DigitsForBits(n.prec))
}

func (n *PrecisionReal) Hash() uint64 {
	return hashString("Real", n.value.Text('e', DigitsForBits(n.prec)))
}

func (n *PrecisionReal) IsExact() bool { return false }

func (n *PrecisionReal) PrecisionBits() (uint, bool) { return n.prec, true }

func (n *PrecisionReal) isElement() {}
func (n *PrecisionReal) isNumber()  {}

// Round converts a number to an inexact representation. digits <= 0 requests
// the default: machine precision where the value fits the 53-bit mantissa,
// otherwise an arbitrary-precision real wide enough to hold it exactly.
// A positive digits selects that decimal precision, clamped for reals to the
// precision the value already carries.
func (in *Interner) Round(n Number, digits int) (Number, error) {
	switch v := n.(type) {
	case *Integer:
		if digits > 0 {
			return in.newPrecisionRealFromRat(ratValue(v), BitsForDigits(digits)), nil
		}
		bits := uint(v.value.BitLen())
		if bits <= MachinePrecisionBits {
			f, _ := new(big.Float).SetInt(v.value).Float64()
			return in.NewMachineReal(f)
		}
		return in.newPrecisionRealFromRat(ratValue(v), bits), nil
	case *Rational:
		if digits > 0 {
			return in.newPrecisionRealFromRat(v.value, BitsForDigits(digits)), nil
		}
		f, _ := new(big.Float).SetRat(v.value).Float64()
		return in.NewMachineReal(f)
	case *MachineReal:
		return v, nil
	case *PrecisionReal:
		if digits > 0 {
			if own := DigitsForBits(v.prec); digits > own {
				digits = own
			}
			return in.newPrecisionRealFromRat(ratValue(v), BitsForDigits(digits)), nil
		}
		f, acc := v.value.Float64()
		if math.IsInf(f, 0) && acc != big.Exact {
			return nil, &OverflowError{Op: "Round"}
		}
		return in.NewMachineReal(f)
	case *Complex:
		re, err := in.Round(v.re, digits)
		if err != nil {
			return nil, err
		}
		im, err := in.Round(v.im, digits)
		if err != nil {
			return nil, err
		}
		return in.NewComplex(re, im)
	}
	panic("expr: unknown number kind")
}
