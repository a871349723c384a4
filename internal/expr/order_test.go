package expr

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCompareRanksKinds(t *testing.T) {
	in := NewInterner()
	x := in.Symbol("x")
	fx := NewExpression(in.Symbol("f"), x)
	literalRow := in.NewList(in.NewInteger(1), in.NewInteger(2))

	tests := []struct {
		name string
		a, b Element
	}{
		{name: "number before string", a: in.NewInteger(5), b: in.NewString("a")},
		{name: "string before literal row", a: in.NewString("z"), b: literalRow},
		{name: "literal row before symbol", a: literalRow, b: x},
		{name: "symbol before general expression", a: x, b: fx},
		{name: "numbers by value across kinds", a: in.NewInteger(1), b: mustMachine(t, in, 2.0)},
		{name: "rational between integers", a: in.NewRational(1, 2), b: in.NewInteger(1)},
		{name: "symbols by name", a: in.Symbol("a"), b: in.Symbol("b")},
		{name: "heads before lengths", a: NewExpression(in.Symbol("f"), x, x), b: NewExpression(in.Symbol("g"), x)},
		{name: "shorter row first under one head", a: fx, b: NewExpression(in.Symbol("f"), x, x)},
		{name: "string before byte array on equal bytes", a: in.NewString("ab"), b: NewByteArray([]byte("ab"))},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, -1, Compare(tt.a, tt.b))
			assert.Equal(t, 1, Compare(tt.b, tt.a))
		})
	}
}

func TestCompareEqualValueAcrossKinds(t *testing.T) {
	in := NewInterner()
	assert.Equal(t, 0, Compare(in.NewInteger(1), mustMachine(t, in, 1.0)))
	assert.Equal(t, 0, Compare(in.NewRational(1, 2), mustMachine(t, in, 0.5)))
}

func TestCompareComplexByImaginaryPart(t *testing.T) {
	in := NewInterner()
	c1, err := in.NewComplex(in.NewInteger(1), in.NewInteger(1))
	require.NoError(t, err)
	c2, err := in.NewComplex(in.NewInteger(1), in.NewInteger(2))
	require.NoError(t, err)

	assert.Equal(t, -1, Compare(c1, c2))
	// A real number is a zero imaginary part: it sorts before 1+1I.
	assert.Equal(t, -1, Compare(in.NewInteger(1), c1))
}

func TestSortIsStableAndIdempotent(t *testing.T) {
	in := NewInterner()
	f := in.Symbol("f")
	row := []Element{
		NewExpression(f, in.Symbol("b")),
		in.Symbol("z"),
		in.NewString("s"),
		in.NewInteger(3),
		in.NewRational(1, 2),
		NewExpression(f, in.Symbol("a")),
	}
	Sort(row)
	require.True(t, IsSorted(row))

	want := make([]Element, len(row))
	copy(want, row)
	Sort(row)
	assert.Equal(t, want, row)
}

func TestCompareTotalOrderOnRandomSamples(t *testing.T) {
	in := NewInterner()
	rng := rand.New(rand.NewSource(7))

	var pool []Element
	for i := 0; i < 40; i++ {
		pool = append(pool, in.NewInteger(int64(rng.Intn(20)-10)))
		pool = append(pool, in.Symbol(string(rune('a'+rng.Intn(26)))))
		pool = append(pool, in.NewString(string(rune('a'+rng.Intn(26)))))
	}
	for i := 0; i < 30; i++ {
		head := pool[rng.Intn(len(pool))]
		n := rng.Intn(3)
		elems := make([]Element, n)
		for j := range elems {
			elems[j] = pool[rng.Intn(len(pool))]
		}
		pool = append(pool, NewExpression(head, elems...))
	}

	// Antisymmetry on every pair.
	for _, a := range pool {
		for _, b := range pool {
			assert.Equal(t, -Compare(b, a), Compare(a, b))
		}
	}
	// Transitivity on random triples.
	for i := 0; i < 2000; i++ {
		a := pool[rng.Intn(len(pool))]
		b := pool[rng.Intn(len(pool))]
		c := pool[rng.Intn(len(pool))]
		if Compare(a, b) <= 0 && Compare(b, c) <= 0 {
			assert.LessOrEqual(t, Compare(a, c), 0)
		}
	}
}

func TestPatternCompareSpecificity(t *testing.T) {
	in := NewInterner()
	x := in.Symbol("x")
	f := in.Symbol("f")
	intSym := in.Symbol("Integer")

	blank := func(heads ...Element) *Expression { return NewExpression(in.Blank, heads...) }
	blankSeq := func(heads ...Element) *Expression { return NewExpression(in.BlankSeq, heads...) }
	blankNull := func(heads ...Element) *Expression { return NewExpression(in.BlankNullSeq, heads...) }

	tests := []struct {
		name string
		a, b Element
	}{
		{name: "concrete atom before concrete expression", a: x, b: NewExpression(f, x)},
		{name: "concrete expression before blank", a: NewExpression(f, x), b: blank()},
		{name: "restricted blank before generic blank", a: blank(intSym), b: blank()},
		{name: "blank before blank sequence", a: blank(), b: blankSeq()},
		{name: "blank sequence before null sequence", a: blankSeq(), b: blankNull()},
		{name: "any restricted before any generic", a: blankNull(intSym), b: blank()},
		{
			name: "longer row before its prefix",
			a:    NewExpression(f, x, blank()),
			b:    NewExpression(f, x),
		},
		{
			name: "named pattern before bare body",
			a:    NewExpression(in.Patt, x, blank()),
			b:    blank(),
		},
		{
			name: "concrete element beats blank element",
			a:    NewExpression(f, in.NewInteger(1)),
			b:    NewExpression(f, blank()),
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, -1, PatternCompare(tt.a, tt.b))
			assert.Equal(t, 1, PatternCompare(tt.b, tt.a))
		})
	}
}

func TestSortPatternsMostSpecificFirst(t *testing.T) {
	in := NewInterner()
	f := in.Symbol("f")
	generic := NewExpression(f, NewExpression(in.Blank))
	restricted := NewExpression(f, NewExpression(in.Blank, in.Symbol("Integer")))
	concrete := NewExpression(f, in.NewInteger(1))

	row := []Element{generic, restricted, concrete}
	SortPatterns(row)
	assert.Equal(t, []Element{concrete, restricted, generic}, row)
}

func mustMachine(t *testing.T, in *Interner, v float64) Number {
	t.Helper()
	n, err := in.NewMachineReal(v)
	require.NoError(t, err)
	return n
}
