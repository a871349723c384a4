package eval

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tungsten-lang/tungsten/internal/defs"
	"github.com/tungsten-lang/tungsten/internal/expr"
	"github.com/tungsten-lang/tungsten/internal/trace"
)

func TestOwnValueChainsResolve(t *testing.T) {
	in, ds, ev := newTestEvaluator()
	ds.AddRule("a", defs.OwnValues, defs.NewReplaceRule(in, in.Symbol("a"), in.Symbol("b")))
	ds.AddRule("b", defs.OwnValues, defs.NewReplaceRule(in, in.Symbol("b"), in.NewInteger(9)))

	assert.Equal(t, "9", evalString(t, ev, in.Symbol("a")))
	assert.Equal(t, "9", evalString(t, ev, in.Symbol("b")))
}

func TestDownValueRewrites(t *testing.T) {
	in, ds, ev := newTestEvaluator()
	f := in.Symbol("f")
	ds.AddRule("f", defs.DownValues,
		defs.NewReplaceRule(in, expr.NewExpression(f, blankOf(in, "n")), in.Symbol("n")))

	assert.Equal(t, "3", evalString(t, ev, expr.NewExpression(f, in.NewInteger(3))))
}

func TestDownValueSpecificityWins(t *testing.T) {
	in, ds, ev := newTestEvaluator()
	f := in.Symbol("f")

	// Added least specific first; dispatch must still prefer the concrete
	// and head-restricted patterns.
	ds.AddRule("f", defs.DownValues,
		defs.NewReplaceRule(in, expr.NewExpression(f, blankOf(in, "")), in.Symbol("generic")))
	ds.AddRule("f", defs.DownValues,
		defs.NewReplaceRule(in, expr.NewExpression(f, blankOf(in, "", in.Symbol("Integer"))), in.Symbol("int")))
	ds.AddRule("f", defs.DownValues,
		defs.NewReplaceRule(in, expr.NewExpression(f, in.NewInteger(1)), in.Symbol("one")))

	assert.Equal(t, "one", evalString(t, ev, expr.NewExpression(f, in.NewInteger(1))))
	assert.Equal(t, "int", evalString(t, ev, expr.NewExpression(f, in.NewInteger(2))))
	assert.Equal(t, "generic", evalString(t, ev, expr.NewExpression(f, in.Symbol("y"))))
}

func TestUpValueFiresWithoutDownValues(t *testing.T) {
	in, ds, ev := newTestEvaluator()
	f := in.Symbol("f")
	u := in.Symbol("u")
	ds.AddRule("u", defs.UpValues,
		defs.NewReplaceRule(in, expr.NewExpression(f, blankOf(in, ""), u), in.NewInteger(42)))

	assert.Equal(t, "42", evalString(t, ev, expr.NewExpression(f, in.NewInteger(7), u)))
	// Other arguments do not trigger it.
	assert.Equal(t, "f[7, v]", evalString(t, ev, expr.NewExpression(f, in.NewInteger(7), in.Symbol("v"))))
}

func TestSubValuesDispatchOnCurriedHeads(t *testing.T) {
	in, ds, ev := newTestEvaluator()
	d := in.Symbol("d")
	lhs := expr.NewExpression(expr.NewExpression(d, in.NewInteger(1)), blankOf(in, "y"))
	ds.AddRule("d", defs.SubValues, defs.NewReplaceRule(in, lhs, in.Symbol("y")))

	e := expr.NewExpression(expr.NewExpression(d, in.NewInteger(1)), in.NewInteger(9))
	assert.Equal(t, "9", evalString(t, ev, e))

	// A downvalue of different arity leaves the curried form alone.
	ds.AddRule("d", defs.DownValues,
		defs.NewReplaceRule(in, expr.NewExpression(d, blankOf(in, ""), blankOf(in, "")), in.Symbol("wrong")))
	assert.Equal(t, "9", evalString(t, ev, e))
}

func TestEvaluationIsIdempotent(t *testing.T) {
	in, ds, ev := newTestEvaluator()
	ds.SetAttributes("g", defs.Orderless|defs.Flat)
	g := in.Symbol("g")

	e := expr.NewExpression(g, in.NewInteger(2), expr.NewExpression(g, in.NewInteger(1)), in.Symbol("x"))
	once, err := ev.Evaluate(context.Background(), e)
	require.NoError(t, err)
	twice, err := ev.Evaluate(context.Background(), once)
	require.NoError(t, err)
	assert.True(t, once.Same(twice))
}

func TestFixpointSkipUsesChangeClock(t *testing.T) {
	in, ds, ev := newTestEvaluator()
	f := in.Symbol("f")
	e := expr.NewExpression(f, in.Symbol("x"))

	first, err := ev.Evaluate(context.Background(), e)
	require.NoError(t, err)
	assert.Same(t, expr.Element(e), first)

	// Unchanged definitions: the cached timestamp short-circuits the loop
	// and the identical pointer comes back.
	second, err := ev.Evaluate(context.Background(), first)
	require.NoError(t, err)
	assert.Same(t, first, second)

	// Defining f invalidates the cache and the rule now fires.
	ds.AddRule("f", defs.DownValues,
		defs.NewReplaceRule(in, expr.NewExpression(f, blankOf(in, "")), in.NewInteger(1)))
	third, err := ev.Evaluate(context.Background(), first)
	require.NoError(t, err)
	assert.Equal(t, "1", third.String())
}

func TestAttributeStepsRerunAfterElementRewrite(t *testing.T) {
	t.Run("orderless re-sorts after a new ownvalue", func(t *testing.T) {
		in, ds, ev := newTestEvaluator()
		ds.SetAttributes("g", defs.Orderless)
		g := in.Symbol("g")

		// The first evaluation records the row as sorted.
		e := expr.NewExpression(g, in.NewInteger(1), in.Symbol("x"))
		assert.Equal(t, "g[1, x]", evalString(t, ev, e))

		// Once x rewrites, that knowledge no longer holds and the row must
		// be sorted again.
		ds.AddRule("x", defs.OwnValues, defs.NewReplaceRule(in, in.Symbol("x"), in.NewInteger(0)))
		assert.Equal(t, "g[0, 1]", evalString(t, ev, e))
	})

	t.Run("flat re-merges after a new ownvalue", func(t *testing.T) {
		in, ds, ev := newTestEvaluator()
		ds.SetAttributes("g", defs.Flat)
		g := in.Symbol("g")

		e := expr.NewExpression(g, in.Symbol("x"), in.NewInteger(2))
		assert.Equal(t, "g[x, 2]", evalString(t, ev, e))

		ds.AddRule("x", defs.OwnValues,
			defs.NewReplaceRule(in, in.Symbol("x"), expr.NewExpression(g, in.NewInteger(1))))
		assert.Equal(t, "g[1, 2]", evalString(t, ev, e))
	})
}

func TestReturnSignalLeavesNoFixpointClaim(t *testing.T) {
	in, ds, ev := newTestEvaluator()
	doReturn := in.Symbol("doReturn")
	ds.AddRule("doReturn", defs.DownValues, &defs.FuncRule{
		Patt: expr.NewExpression(doReturn),
		Fn: func(expr.Element) (expr.Element, bool, error) {
			return nil, false, &ReturnSignal{Value: in.NewInteger(99)}
		},
	})
	ds.MarkBuiltin("doReturn")

	// The signal aborts the pass before its result exists, so the input must
	// not come back marked evaluated: re-running the same object fires the
	// rule again.
	e := expr.NewExpression(doReturn)
	assert.Equal(t, "99", evalString(t, ev, e))
	assert.Equal(t, "99", evalString(t, ev, e))
	assert.Nil(t, e.Cache())
}

func TestIterationLimitHaltsAfterConfiguredPasses(t *testing.T) {
	in, ds, ev := newTestEvaluator()
	f := in.Symbol("f")
	calls := 0
	ds.AddRule("f", defs.DownValues, &defs.FuncRule{
		Patt: expr.NewExpression(f, blankOf(in, "")),
		Fn: func(c expr.Element) (expr.Element, bool, error) {
			calls++
			n, _ := c.(*expr.Expression).Element(0).(*expr.Integer).Int64()
			return expr.NewExpression(f, in.NewInteger(n+1)), true, nil
		},
	})
	ds.SetIterationLimit(20)

	out, err := ev.Evaluate(context.Background(), expr.NewExpression(f, in.NewInteger(0)))
	require.NoError(t, err)
	assert.Same(t, in.Aborted, out)
	assert.Equal(t, 20, calls)

	msgs := ev.Messages()
	require.Len(t, msgs, 1)
	assert.Equal(t, "$IterationLimit", msgs[0].Symbol)
	assert.Equal(t, "itlim", msgs[0].Tag)
}

func TestRecursionLimitAbortsAndRebalances(t *testing.T) {
	in, ds, ev := newTestEvaluator()
	f := in.Symbol("f")
	g := in.Symbol("g")
	ds.AddRule("f", defs.DownValues, defs.NewReplaceRule(in,
		expr.NewExpression(f, blankOf(in, "n")),
		expr.NewExpression(g, expr.NewExpression(f, in.Symbol("n")))))
	ds.SetRecursionLimit(20)

	out, err := ev.Evaluate(context.Background(), expr.NewExpression(f, in.NewInteger(0)))
	require.NoError(t, err)
	assert.Same(t, in.Aborted, out)
	require.NotEmpty(t, ev.Messages())
	assert.Equal(t, "$RecursionLimit", ev.Messages()[0].Symbol)

	// The depth counter is back to zero: ordinary evaluation still works.
	assert.Equal(t, "7", evalString(t, ev, in.NewInteger(7)))
	assert.Equal(t, 0, ev.depth)
}

func TestReturnSignalStopsAtUserDefinedFrame(t *testing.T) {
	in, ds, ev := newTestEvaluator()
	f := in.Symbol("f")
	g := in.Symbol("g")
	doReturn := in.Symbol("doReturn")

	ds.AddRule("doReturn", defs.DownValues, &defs.FuncRule{
		Patt: expr.NewExpression(doReturn),
		Fn: func(expr.Element) (expr.Element, bool, error) {
			return nil, false, &ReturnSignal{Value: in.NewInteger(99)}
		},
	})
	ds.MarkBuiltin("doReturn")

	input := expr.NewExpression(g, expr.NewExpression(f, expr.NewExpression(doReturn)))

	t.Run("undefined frames pass it through", func(t *testing.T) {
		// Nothing user-defined anywhere: the signal escapes every frame and
		// the top level consumes it.
		assert.Equal(t, "99", evalString(t, ev, input))
	})

	t.Run("user-defined frame swallows it", func(t *testing.T) {
		ds.AddRule("f", defs.DownValues,
			defs.NewReplaceRule(in, expr.NewExpression(f, blankOf(in, "a")), in.Symbol("a")))
		// f's frame consumes the signal, so g still wraps the value.
		assert.Equal(t, "g[99]", evalString(t, ev, input))
	})
}

func TestCancelledContextReturnsBestSoFar(t *testing.T) {
	in, _, ev := newTestEvaluator()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	e := expr.NewExpression(in.Symbol("f"), in.Symbol("x"))
	out, err := ev.Evaluate(ctx, e)
	require.NoError(t, err)
	assert.Same(t, expr.Element(e), out)
}

func TestOverflowBecomesSymbolic(t *testing.T) {
	in, ds, ev := newTestEvaluator()
	f := in.Symbol("f")
	ds.AddRule("f", defs.DownValues, &defs.FuncRule{
		Patt: expr.NewExpression(f, blankOf(in, "")),
		Fn: func(expr.Element) (expr.Element, bool, error) {
			return nil, false, &expr.OverflowError{Op: "Times"}
		},
	})

	out, err := ev.Evaluate(context.Background(), expr.NewExpression(f, in.NewInteger(2)))
	require.NoError(t, err)
	assert.Equal(t, "Overflow[]", out.String())
}

func TestTraceRecordsPassesAndResult(t *testing.T) {
	rec := trace.NewMemoryRecorder()
	in, ds, ev := newTestEvaluator(
		WithRecorder(rec),
		WithRunIDGenerator(trace.NewFixedGenerator("run-1", "run-2")),
	)
	ds.SetAttributes("g", defs.Orderless)
	g := in.Symbol("g")

	_, err := ev.Evaluate(context.Background(), expr.NewExpression(g, in.NewInteger(2), in.NewInteger(1)))
	require.NoError(t, err)
	assert.Equal(t, "run-1", ev.LastRunID())

	events := rec.Run("run-1")
	require.Len(t, events, 2)
	assert.Equal(t, trace.KindPass, events[0].Kind)
	assert.Equal(t, "g[2, 1]", events[0].Before)
	assert.Equal(t, "g[1, 2]", events[0].After)
	assert.Equal(t, "g", events[0].Lookup)
	assert.Equal(t, trace.KindResult, events[1].Kind)
	assert.Equal(t, "g[1, 2]", events[1].After)
	assert.NotEmpty(t, events[1].AfterHash)
}
