package expr

import (
	"math"
	"math/big"
	"strconv"
	"sync"

	"golang.org/x/text/unicode/norm"
)

// Interner owns the atom tables. All atom construction goes through it, so
// atoms of equal value and kind come back as the identical pointer and
// pointer comparison is a sound Same fast path.
//
// The tables only ever grow: a long-running evaluation that manufactures
// unboundedly many distinct atoms holds them all live. Callers that need a
// fresh arena start a new Interner.
//
// Thread-safety: the tables are mutex-guarded so independent evaluators may
// share one Interner. The predeclared symbol fields are set at construction
// and read-only afterwards.
type Interner struct {
	mu        sync.Mutex
	symbols   map[string]*Symbol
	strings   map[string]*String
	ints      map[string]*Integer
	rats      map[string]*Rational
	machine   map[uint64]*MachineReal
	precise   map[string]*PrecisionReal
	complexes map[[2]Number]*Complex

	// Predeclared symbols with engine-level meaning.
	List, Sequence, Unevaluated, Evaluate *Symbol
	Overflow, Aborted, Null, True, False  *Symbol
	Blank, BlankSeq, BlankNullSeq, Patt   *Symbol
}

// NewInterner creates an empty arena with the predeclared symbols installed.
func NewInterner() *Interner {
	in := &Interner{
		symbols:   make(map[string]*Symbol),
		strings:   make(map[string]*String),
		ints:      make(map[string]*Integer),
		rats:      make(map[string]*Rational),
		machine:   make(map[uint64]*MachineReal),
		precise:   make(map[string]*PrecisionReal),
		complexes: make(map[[2]Number]*Complex),
	}
	in.List = in.Symbol("List")
	in.Sequence = in.Symbol("Sequence")
	in.Unevaluated = in.Symbol("Unevaluated")
	in.Evaluate = in.Symbol("Evaluate")
	in.Overflow = in.Symbol("Overflow")
	in.Aborted = in.Symbol("$Aborted")
	in.Null = in.Symbol("Null")
	in.True = in.Symbol("True")
	in.False = in.Symbol("False")
	in.Blank = in.Symbol("Blank")
	in.BlankSeq = in.Symbol("BlankSequence")
	in.BlankNullSeq = in.Symbol("BlankNullSequence")
	in.Patt = in.Symbol("Pattern")
	return in
}

// Symbol interns a symbol by NFC-normalized name.
func (in *Interner) Symbol(name string) *Symbol {
	name = norm.NFC.String(name)
	in.mu.Lock()
	defer in.mu.Unlock()
	if s, ok := in.symbols[name]; ok {
		return s
	}
	s := &Symbol{name: name}
	in.symbols[name] = s
	return s
}

// NewString interns a string atom by value.
func (in *Interner) NewString(value string) *String {
	in.mu.Lock()
	defer in.mu.Unlock()
	if s, ok := in.strings[value]; ok {
		return s
	}
	s := &String{value: value}
	in.strings[value] = s
	return s
}

// NewInteger interns an integer atom.
func (in *Interner) NewInteger(value int64) *Integer {
	return in.NewIntegerBig(big.NewInt(value))
}

// NewIntegerBig interns an integer atom from a big value. The argument is
// copied; the caller keeps ownership.
func (in *Interner) NewIntegerBig(value *big.Int) *Integer {
	key := value.String()
	in.mu.Lock()
	defer in.mu.Unlock()
	if n, ok := in.ints[key]; ok {
		return n
	}
	n := &Integer{value: new(big.Int).Set(value)}
	in.ints[key] = n
	return n
}

// NewRational interns the exact fraction num/den. The value is reduced; a
// denominator that reduces to 1 collapses to Integer. A zero denominator is
// a programmer error.
func (in *Interner) NewRational(num, den int64) Number {
	if den == 0 {
		panic("expr: rational with zero denominator")
	}
	return in.NewRationalBig(new(big.Rat).SetFrac(big.NewInt(num), big.NewInt(den)))
}

// NewRationalBig interns a rational from a reduced big.Rat, collapsing
// integral values. The argument is copied.
func (in *Interner) NewRationalBig(value *big.Rat) Number {
	if value.IsInt() {
		return in.NewIntegerBig(value.Num())
	}
	key := value.RatString()
	in.mu.Lock()
	defer in.mu.Unlock()
	if n, ok := in.rats[key]; ok {
		return n
	}
	n := &Rational{value: new(big.Rat).Set(value)}
	in.rats[key] = n
	return n
}

// NewMachineReal interns a machine real. Non-finite values are refused with
// an OverflowError rather than constructing a poisoned atom.
func (in *Interner) NewMachineReal(value float64) (Number, error) {
	if math.IsInf(value, 0) || math.IsNaN(value) {
		return nil, &OverflowError{Op: "MachineReal"}
	}
	key := math.Float64bits(value)
	in.mu.Lock()
	defer in.mu.Unlock()
	if n, ok := in.machine[key]; ok {
		return n, nil
	}
	n := &MachineReal{value: value}
	in.machine[key] = n
	return n, nil
}

// NewReal interns a real at the requested binary precision. A precision of 0
// or MachinePrecisionBits selects the machine representation; anything else
// an arbitrary-precision real. The value is copied.
func (in *Interner) NewReal(value *big.Float, precBits uint) (Number, error) {
	if precBits == 0 || precBits == MachinePrecisionBits {
		f, _ := value.Float64()
		return in.NewMachineReal(f)
	}
	return in.newPrecisionReal(value, precBits), nil
}

func (in *Interner) newPrecisionReal(value *big.Float, precBits uint) *PrecisionReal {
	v := new(big.Float).SetPrec(precBits).Set(value)
	key := strconv.FormatUint(uint64(precBits), 10) + ":" + v.Text('p', 0)
	in.mu.Lock()
	defer in.mu.Unlock()
	if n, ok := in.precise[key]; ok {
		return n
	}
	n := &PrecisionReal{value: v, prec: precBits}
	in.precise[key] = n
	return n
}

func (in *Interner) newPrecisionRealFromRat(value *big.Rat, precBits uint) *PrecisionReal {
	return in.newPrecisionReal(new(big.Float).SetPrec(precBits).SetRat(value), precBits)
}

// NewComplex builds a complex atom from two real-kind components. Passing a
// Complex or a non-numeric element is a programmer error and panics.
//
// Collapse and precision rules:
//   - an exact-zero imaginary part collapses the pair to its real component
//     (an approximate zero such as 0.0 is kept);
//   - machine precision dominates: when one component is a machine real the
//     other is rounded to machine precision too.
func (in *Interner) NewComplex(re, im Number) (Number, error) {
	validateComplexPart(re)
	validateComplexPart(im)
	if ii, ok := im.(*Integer); ok && ii.Sign() == 0 {
		return re, nil
	}
	if _, ok := re.(*MachineReal); ok {
		if _, alreadyMachine := im.(*MachineReal); !alreadyMachine {
			rounded, err := in.Round(im, 0)
			if err != nil {
				return nil, err
			}
			im = rounded
		}
	}
	if _, ok := im.(*MachineReal); ok {
		if _, alreadyMachine := re.(*MachineReal); !alreadyMachine {
			rounded, err := in.Round(re, 0)
			if err != nil {
				return nil, err
			}
			re = rounded
		}
	}
	key := [2]Number{re, im}
	in.mu.Lock()
	defer in.mu.Unlock()
	if n, ok := in.complexes[key]; ok {
		return n, nil
	}
	n := &Complex{re: re, im: im}
	in.complexes[key] = n
	return n, nil
}

func validateComplexPart(n Number) {
	switch n.(type) {
	case *Integer, *Rational, *MachineReal, *PrecisionReal:
	default:
		panic("expr: complex component must be an integer, rational, or real")
	}
}
