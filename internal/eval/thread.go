package eval

import (
	"context"

	"github.com/tungsten-lang/tungsten/internal/expr"
)

// threadListable distributes a Listable head over its List elements:
// f[{a, b}, c] becomes {f[a, c], f[b, c]}. All list elements must share one
// length; a mismatch emits Thread::tdlen and leaves the expression alone.
// The threaded result is returned unevaluated; the driver iterates into it.
func (ev *Evaluator) threadListable(ctx context.Context, e *expr.Expression) (expr.Element, bool) {
	dim := -1
	for _, el := range e.Elements() {
		v, ok := el.(*expr.Expression)
		if !ok || expr.HeadName(v) != "List" {
			continue
		}
		if dim == -1 {
			dim = v.Len()
			continue
		}
		if v.Len() != dim {
			ev.message(ctx, "Thread", "tdlen", "objects of unequal length cannot be combined")
			return nil, false
		}
	}
	if dim == -1 {
		return nil, false
	}

	rows := make([]expr.Element, dim)
	for i := 0; i < dim; i++ {
		parts := make([]expr.Element, e.Len())
		for j, el := range e.Elements() {
			if v, ok := el.(*expr.Expression); ok && expr.HeadName(v) == "List" {
				parts[j] = v.Element(i)
			} else {
				parts[j] = el
			}
		}
		rows[i] = expr.NewExpression(e.Head(), parts...)
	}
	return ev.in.NewList(rows...), true
}
