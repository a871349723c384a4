package defs

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tungsten-lang/tungsten/internal/expr"
)

func TestAddRuleKeepsSpecificityOrder(t *testing.T) {
	in := expr.NewInterner()
	ds := NewDefinitions()
	f := in.Symbol("f")

	generic := NewReplaceRule(in,
		expr.NewExpression(f, expr.NewExpression(in.Blank)),
		in.Symbol("generic"))
	restricted := NewReplaceRule(in,
		expr.NewExpression(f, expr.NewExpression(in.Blank, in.Symbol("Integer"))),
		in.Symbol("restricted"))
	concrete := NewReplaceRule(in,
		expr.NewExpression(f, in.NewInteger(1)),
		in.Symbol("concrete"))

	// Insertion order is least specific first; the store reorders.
	ds.AddRule("f", DownValues, generic)
	ds.AddRule("f", DownValues, restricted)
	ds.AddRule("f", DownValues, concrete)

	rules := ds.Lookup("f").Rules(DownValues)
	require.Len(t, rules, 3)
	assert.Same(t, concrete, rules[0])
	assert.Same(t, restricted, rules[1])
	assert.Same(t, generic, rules[2])
}

func TestAddRuleReplacesSamePattern(t *testing.T) {
	in := expr.NewInterner()
	ds := NewDefinitions()
	f := in.Symbol("f")
	lhs := expr.NewExpression(f, in.NewInteger(1))

	first := NewReplaceRule(in, lhs, in.Symbol("old"))
	second := NewReplaceRule(in, expr.NewExpression(f, in.NewInteger(1)), in.Symbol("new"))
	ds.AddRule("f", DownValues, first)
	ds.AddRule("f", DownValues, second)

	rules := ds.Lookup("f").Rules(DownValues)
	require.Len(t, rules, 1)
	assert.Same(t, second, rules[0])
}

func TestHasChangedSince(t *testing.T) {
	in := expr.NewInterner()
	ds := NewDefinitions()

	before := ds.Now()
	ds.SetAttributes("f", Orderless)
	after := ds.Now()

	names := map[string]struct{}{"f": {}}
	assert.True(t, ds.HasChangedSince(before, names))
	assert.False(t, ds.HasChangedSince(after, names))

	// Unknown symbols never count as changed.
	assert.False(t, ds.HasChangedSince(before, map[string]struct{}{"zzz": {}}))

	// A later rule bumps the symbol again.
	ds.AddRule("f", OwnValues, NewReplaceRule(in, in.Symbol("f"), in.NewInteger(1)))
	assert.True(t, ds.HasChangedSince(after, names))
}

func TestLimitsClamp(t *testing.T) {
	ds := NewDefinitions()
	assert.Equal(t, DefaultIterationLimit, ds.IterationLimit())
	assert.Equal(t, DefaultRecursionLimit, ds.RecursionLimit())

	ds.SetIterationLimit(3)
	assert.Equal(t, 20, ds.IterationLimit())
	ds.SetIterationLimit(100)
	assert.Equal(t, 100, ds.IterationLimit())
	ds.SetIterationLimit(Unlimited)
	assert.Equal(t, Unlimited, ds.IterationLimit())

	ds.SetRecursionLimit(0)
	assert.Equal(t, 20, ds.RecursionLimit())
}

func TestUserDefinedVsBuiltin(t *testing.T) {
	in := expr.NewInterner()
	ds := NewDefinitions()

	assert.False(t, ds.IsUserDefined("f"))
	ds.AddRule("f", DownValues, NewReplaceRule(in, in.Symbol("f"), in.NewInteger(1)))
	assert.True(t, ds.IsUserDefined("f"))

	ds.MarkBuiltin("f")
	assert.False(t, ds.IsUserDefined("f"))
}

func TestAttributesLifecycle(t *testing.T) {
	ds := NewDefinitions()
	assert.Equal(t, Nothing, ds.Attributes("g"))

	ds.SetAttributes("g", Orderless|Flat)
	assert.True(t, ds.Attributes("g").Has(Orderless))
	ds.ClearAttributes("g", Orderless)
	assert.False(t, ds.Attributes("g").Has(Orderless))
	assert.True(t, ds.Attributes("g").Has(Flat))
}
