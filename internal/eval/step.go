package eval

import (
	"context"
	"sort"

	"github.com/tungsten-lang/tungsten/internal/defs"
	"github.com/tungsten-lang/tungsten/internal/expr"
)

// row is the mutable element row a rewrite pass works on. The unevaluated
// flags travel with their elements through splicing, merging, and sorting,
// so Unevaluated wrappers can be restored at the exact positions they were
// stripped from.
type row struct {
	elems  []expr.Element
	uneval []bool
}

// rewriteStep performs one pass of the rewrite pipeline in its fixed order:
// evaluate the head, resolve attributes, evaluate non-held elements, force
// Evaluate wrappers, splice Sequence, strip Unevaluated, merge Flat, sort
// Orderless, rescan the row properties, thread Listable, and finally search
// upvalues then down- or subvalues. When no rule matches, the dependency
// cache is refreshed on the returned expression.
//
// Returns the rewritten element, iterate (a rule moved the expression and
// the driver must run another pass), and modified (the pass changed
// structure even if no rule fired, e.g. by sorting). A fixpoint pass
// returns the input pointer itself with a refreshed cache.
func (ev *Evaluator) rewriteStep(ctx context.Context, e *expr.Expression) (expr.Element, bool, bool, error) {
	modified := false

	head, headChanged, err := ev.evaluate(ctx, e.Head())
	if err != nil {
		return nil, false, false, err
	}
	if headChanged {
		modified = true
	}

	headName := ""
	if s, ok := head.(*expr.Symbol); ok {
		headName = s.Name()
	}
	attrs := defs.Nothing
	if headName != "" {
		attrs = ev.defs.Attributes(headName)
	}
	holdComplete := attrs.Has(defs.HoldAllComplete)
	props := e.Properties()

	r := &row{elems: append([]expr.Element(nil), e.Elements()...)}

	changed, err := ev.evaluateElements(ctx, r, attrs, props)
	if err != nil {
		return nil, false, false, err
	}
	modified = modified || changed

	if !holdComplete && !attrs.Has(defs.SequenceHold) {
		modified = spliceSequences(r) || modified
	}

	r.uneval = make([]bool, len(r.elems))
	unwrapped := false
	if !holdComplete {
		unwrapped = stripUnevaluated(r)
	}

	// The recorded properties describe the row as the previous pass left it.
	// Once this pass moved anything they no longer apply.
	if modified || unwrapped {
		props = expr.Properties{}
	}

	if attrs.Has(defs.Flat) && !(props.Known && props.Flat) {
		modified = mergeFlat(r, head) || modified
	}

	if attrs.Has(defs.Orderless) && !(props.Known && props.Ordered) {
		modified = sortRow(r) || modified
	}

	// Reuse the input when the pass left it untouched; rule search still
	// runs, but a no-match then only refreshes the cache on the original.
	working := e
	if modified || unwrapped {
		working = expr.NewExpression(head, r.elems...)
	}
	working.SetProperties(expr.ScanProperties(head, r.elems))

	if attrs.Has(defs.Listable) {
		if threaded, ok := ev.threadListable(ctx, working); ok {
			return threaded, true, true, nil
		}
	}

	result, iterate, matched, err := ev.applyRules(working, headName, holdComplete)
	if err != nil {
		return nil, false, false, err
	}
	if matched {
		return result, iterate, true, nil
	}

	// The dependency cache is stamped only on the no-match exits. A rule
	// error or control signal must not leave a fixpoint claim on the
	// caller's shared input.
	if unwrapped {
		restored := append([]expr.Element(nil), r.elems...)
		for i, flag := range r.uneval {
			if flag {
				restored[i] = expr.NewExpression(ev.in.Unevaluated, restored[i])
			}
		}
		out := expr.NewExpression(head, restored...)
		out.SetProperties(expr.ScanProperties(head, restored))
		out.SetCache(&expr.DependencyCache{
			Time:    ev.defs.Now(),
			Symbols: expr.CollectSymbolNames(out),
		})
		return out, false, modified, nil
	}
	working.SetCache(&expr.DependencyCache{
		Time:    ev.defs.Now(),
		Symbols: expr.CollectSymbolNames(working),
	})
	return working, false, modified, nil
}

// evaluateElements evaluates the non-held elements once and forces Evaluate
// wrappers everywhere (held positions included) unless HoldAllComplete is
// in effect.
func (ev *Evaluator) evaluateElements(ctx context.Context, r *row, attrs defs.Attributes, props expr.Properties) (bool, error) {
	holdComplete := attrs.Has(defs.HoldAllComplete)
	held := func(i int) bool {
		switch {
		case attrs.Has(defs.HoldAll):
			return true
		case attrs.Has(defs.HoldFirst):
			return i == 0
		case attrs.Has(defs.HoldRest):
			return i >= 1
		}
		return false
	}
	allDone := props.Known && props.FullyEvaluated

	changed := false
	for i := range r.elems {
		if !holdComplete {
			if forced, ok, err := ev.forceEvaluate(ctx, r.elems[i]); err != nil {
				return false, err
			} else if ok {
				r.elems[i] = forced
				changed = true
				continue
			}
		}
		if held(i) || allDone || expr.IsLiteral(r.elems[i]) {
			continue
		}
		out, ch, err := ev.evaluate(ctx, r.elems[i])
		if err != nil {
			return false, err
		}
		if ch {
			r.elems[i] = out
			changed = true
		}
	}
	return changed, nil
}

// forceEvaluate handles an explicit Evaluate wrapper: Evaluate[x] evaluates
// to x's value even in held positions, Evaluate[a, b, ...] to a Sequence of
// the values.
func (ev *Evaluator) forceEvaluate(ctx context.Context, el expr.Element) (expr.Element, bool, error) {
	v, ok := el.(*expr.Expression)
	if !ok || expr.HeadName(v) != "Evaluate" {
		return nil, false, nil
	}
	if v.Len() == 1 {
		out, _, err := ev.evaluate(ctx, v.Element(0))
		return out, true, err
	}
	values := make([]expr.Element, v.Len())
	for i, inner := range v.Elements() {
		out, _, err := ev.evaluate(ctx, inner)
		if err != nil {
			return nil, false, err
		}
		values[i] = out
	}
	return expr.NewExpression(ev.in.Sequence, values...), true, nil
}

// spliceSequences splices direct Sequence children into the row.
func spliceSequences(r *row) bool {
	spliced := false
	out := make([]expr.Element, 0, len(r.elems))
	for _, el := range r.elems {
		if v, ok := el.(*expr.Expression); ok && expr.HeadName(v) == "Sequence" {
			out = append(out, v.Elements()...)
			spliced = true
			continue
		}
		out = append(out, el)
	}
	if spliced {
		r.elems = out
	}
	return spliced
}

// stripUnevaluated removes Unevaluated wrappers, flagging the positions for
// later restoration.
func stripUnevaluated(r *row) bool {
	stripped := false
	for i, el := range r.elems {
		if v, ok := el.(*expr.Expression); ok && expr.HeadName(v) == "Unevaluated" && v.Len() == 1 {
			r.elems[i] = v.Element(0)
			r.uneval[i] = true
			stripped = true
		}
	}
	return stripped
}

// mergeFlat splices children sharing the expression's head. Spliced
// grandchildren inherit the unevaluated flag of the child they came from.
func mergeFlat(r *row, head expr.Element) bool {
	merged := false
	elems := make([]expr.Element, 0, len(r.elems))
	uneval := make([]bool, 0, len(r.uneval))
	for i, el := range r.elems {
		if v, ok := el.(*expr.Expression); ok && v.Head().Same(head) {
			for _, sub := range v.Elements() {
				elems = append(elems, sub)
				uneval = append(uneval, r.uneval[i])
			}
			merged = true
			continue
		}
		elems = append(elems, el)
		uneval = append(uneval, r.uneval[i])
	}
	if merged {
		r.elems, r.uneval = elems, uneval
	}
	return merged
}

// sortRow sorts the row canonically, keeping flags attached. Stable, so
// value-equal atoms keep their relative order.
func sortRow(r *row) bool {
	if expr.IsSorted(r.elems) {
		return false
	}
	type pair struct {
		el   expr.Element
		flag bool
	}
	pairs := make([]pair, len(r.elems))
	for i := range r.elems {
		pairs[i] = pair{r.elems[i], r.uneval[i]}
	}
	sort.SliceStable(pairs, func(i, j int) bool {
		return expr.Compare(pairs[i].el, pairs[j].el) < 0
	})
	for i := range pairs {
		r.elems[i], r.uneval[i] = pairs[i].el, pairs[i].flag
	}
	return true
}

// applyRules searches upvalues of the distinct element lookup names left to
// right (skipped entirely under HoldAllComplete), then the head's downvalues
// when the lookup name is the head name, otherwise its subvalues. The first
// firing rule wins; a result Same as the candidate ends iteration.
func (ev *Evaluator) applyRules(working *expr.Expression, headName string, holdComplete bool) (expr.Element, bool, bool, error) {
	if !holdComplete {
		seen := make(map[string]struct{})
		for _, el := range working.Elements() {
			name := expr.LookupName(el)
			if name == "" {
				continue
			}
			if _, dup := seen[name]; dup {
				continue
			}
			seen[name] = struct{}{}
			if res, iterate, matched, err := ev.tryRules(working, name, defs.UpValues); matched || err != nil {
				return res, iterate, matched, err
			}
		}
	}
	lookup := expr.LookupName(working)
	if lookup == "" {
		return nil, false, false, nil
	}
	kind := defs.SubValues
	if lookup == headName {
		kind = defs.DownValues
	}
	return ev.tryRules(working, lookup, kind)
}

func (ev *Evaluator) tryRules(working *expr.Expression, name string, kind defs.RuleKind) (expr.Element, bool, bool, error) {
	d := ev.defs.Lookup(name)
	if d == nil {
		return nil, false, false, nil
	}
	for _, rule := range d.Rules(kind) {
		result, matched, err := rule.Apply(working)
		if err != nil {
			if expr.IsOverflowError(err) {
				// Overflow during a rewrite becomes the symbolic form and
				// ends iteration.
				return expr.NewExpression(ev.in.Overflow), false, true, nil
			}
			return nil, false, false, err
		}
		if !matched {
			continue
		}
		if result.Same(working) {
			return working, false, true, nil
		}
		return result, true, true, nil
	}
	return nil, false, false, nil
}
