package eval

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/tungsten-lang/tungsten/internal/defs"
	"github.com/tungsten-lang/tungsten/internal/expr"
	"github.com/tungsten-lang/tungsten/internal/trace"
)

// Evaluator drives expressions to their rewrite fixpoint against one
// definitions store.
//
// INVARIANTS:
//   - Single-threaded: one evaluation at a time per Evaluator. Cancel the
//     context from another goroutine to stop a run early; the evaluator
//     checks it between passes and returns the best value so far.
//   - The recursion depth counter is balanced on every exit path, including
//     errors and control signals.
type Evaluator struct {
	in   *expr.Interner
	defs *defs.Definitions
	log  *slog.Logger
	rec  trace.Recorder
	gen  trace.Generator

	depth    int
	messages []Message

	runID string
	seq   int64
}

// Option configures an Evaluator.
type Option func(*Evaluator)

// WithLogger sets the structured logger. Defaults to slog.Default.
func WithLogger(l *slog.Logger) Option {
	return func(ev *Evaluator) { ev.log = l }
}

// WithRecorder attaches a trace recorder. Every top-level Evaluate then
// gets a run id and one event per rewrite pass.
func WithRecorder(r trace.Recorder) Option {
	return func(ev *Evaluator) { ev.rec = r }
}

// WithRunIDGenerator overrides the run id source. Tests pair this with
// trace.NewFixedGenerator for stable goldens.
func WithRunIDGenerator(g trace.Generator) Option {
	return func(ev *Evaluator) { ev.gen = g }
}

// New creates an evaluator over an arena and a definitions store.
func New(in *expr.Interner, ds *defs.Definitions, opts ...Option) *Evaluator {
	ev := &Evaluator{
		in:   in,
		defs: ds,
		log:  slog.Default(),
		gen:  trace.UUIDGenerator{},
	}
	for _, opt := range opts {
		opt(ev)
	}
	return ev
}

// Interner returns the arena the evaluator builds results in.
func (ev *Evaluator) Interner() *expr.Interner { return ev.in }

// Definitions returns the store the evaluator consults.
func (ev *Evaluator) Definitions() *defs.Definitions { return ev.defs }

// Messages returns the diagnostics of the last top-level Evaluate.
func (ev *Evaluator) Messages() []Message {
	out := make([]Message, len(ev.messages))
	copy(out, ev.messages)
	return out
}

// LastRunID returns the trace run id of the last top-level Evaluate, or ""
// when no recorder is attached.
func (ev *Evaluator) LastRunID() string { return ev.runID }

// Evaluate drives e to its fixpoint.
//
// Exceeding $IterationLimit or $RecursionLimit yields the $Aborted sentinel
// plus a diagnostic, not an error; a cancelled context yields the best value
// reached so far. A return signal that escapes every frame is consumed here
// and its carried value becomes the result. Errors other than these
// propagate.
func (ev *Evaluator) Evaluate(ctx context.Context, e expr.Element) (expr.Element, error) {
	ev.messages = ev.messages[:0]
	ev.seq = 0
	ev.runID = ""
	if ev.rec != nil {
		ev.runID = ev.gen.NewRunID()
	}
	ev.log.Debug("evaluation started", "expr", e.String(), "run", ev.runID)

	result, _, err := ev.evaluate(ctx, e)
	if err != nil {
		if rs, ok := AsReturnSignal(err); ok {
			result, err = rs.Value, nil
		} else if IsRecursionError(err) {
			ev.message(ctx, "$RecursionLimit", "reclim",
				fmt.Sprintf("recursion depth of %d exceeded", ev.defs.RecursionLimit()))
			result, err = ev.in.Aborted, nil
		}
	}
	if err != nil {
		return nil, err
	}
	ev.record(ctx, trace.Event{
		Kind:      trace.KindResult,
		After:     result.String(),
		AfterHash: expr.ContentHash(result),
	})
	ev.log.Debug("evaluation finished", "result", result.String())
	return result, nil
}

// evaluate dispatches on the element kind, reporting whether anything
// changed. Literal atoms are their own fixpoint.
func (ev *Evaluator) evaluate(ctx context.Context, e expr.Element) (expr.Element, bool, error) {
	switch v := e.(type) {
	case *expr.Symbol:
		return ev.evaluateSymbol(ctx, v)
	case *expr.Expression:
		return ev.evaluateExpression(ctx, v)
	default:
		return e, false, nil
	}
}

// evaluateSymbol resolves ownvalues. A firing rule whose result moved the
// symbol recurses into full evaluation of the replacement.
func (ev *Evaluator) evaluateSymbol(ctx context.Context, s *expr.Symbol) (expr.Element, bool, error) {
	d := ev.defs.Lookup(s.Name())
	if d == nil {
		return s, false, nil
	}
	for _, rule := range d.Rules(defs.OwnValues) {
		result, matched, err := rule.Apply(s)
		if err != nil {
			if expr.IsOverflowError(err) {
				return expr.NewExpression(ev.in.Overflow), true, nil
			}
			return nil, false, err
		}
		if !matched {
			continue
		}
		if result.Same(s) {
			return s, false, nil
		}
		out, _, err := ev.evaluate(ctx, result)
		return out, true, err
	}
	return s, false, nil
}

// evaluateExpression is the fixpoint driver: it repeats the rewrite step
// until the step reports nothing left to do, a guard trips, or the context
// is cancelled.
func (ev *Evaluator) evaluateExpression(ctx context.Context, e *expr.Expression) (expr.Element, bool, error) {
	if err := ev.incDepth(); err != nil {
		ev.decDepth()
		return nil, false, err
	}
	defer ev.decDepth()

	names := make(map[string]struct{})
	var result expr.Element = e
	changedAny := false
	limit := ev.defs.IterationLimit()
	iteration := 1

	for {
		if ctx.Err() != nil {
			ev.log.Debug("evaluation stopped by context", "expr", result.String())
			return result, changedAny, nil
		}
		cur, ok := result.(*expr.Expression)
		if !ok {
			// Rewrote to an atom; a symbol still resolves its ownvalues.
			if s, isSym := result.(*expr.Symbol); isSym {
				out, changed, err := ev.evaluateSymbol(ctx, s)
				return out, changedAny || changed, err
			}
			return result, changedAny, nil
		}
		if cache := cur.Cache(); cache != nil && !ev.defs.HasChangedSince(cache.Time, cache.Symbols) {
			return result, changedAny, nil
		}
		if limit != defs.Unlimited && iteration > limit {
			ev.message(ctx, "$IterationLimit", "itlim",
				fmt.Sprintf("iteration limit of %d exceeded", limit))
			return ev.in.Aborted, true, nil
		}
		names[expr.LookupName(cur)] = struct{}{}

		next, iterate, modified, err := ev.rewriteStep(ctx, cur)
		if err != nil {
			if rs, ok := AsReturnSignal(err); ok && ev.anyUserDefined(names) {
				return rs.Value, true, nil
			}
			return nil, false, err
		}
		if modified || iterate {
			changedAny = true
			ev.record(ctx, trace.Event{
				Kind:       trace.KindPass,
				Lookup:     expr.LookupName(cur),
				Before:     cur.String(),
				After:      next.String(),
				BeforeHash: expr.ContentHash(cur),
				AfterHash:  expr.ContentHash(next),
			})
		}
		if !iterate {
			return next, changedAny, nil
		}
		result = next
		iteration++
	}
}

// anyUserDefined reports whether any lookup name visited by this frame has a
// user-installed definition. Return signals stop unwinding at such frames.
func (ev *Evaluator) anyUserDefined(names map[string]struct{}) bool {
	for name := range names {
		if ev.defs.IsUserDefined(name) {
			return true
		}
	}
	return false
}

func (ev *Evaluator) incDepth() error {
	ev.depth++
	limit := ev.defs.RecursionLimit()
	if limit != defs.Unlimited && ev.depth > limit {
		return newRecursionError(ev.depth, limit)
	}
	return nil
}

func (ev *Evaluator) decDepth() {
	ev.depth--
}

func (ev *Evaluator) message(ctx context.Context, symbol, tag, text string) {
	m := Message{Symbol: symbol, Tag: tag, Text: text}
	ev.messages = append(ev.messages, m)
	ev.log.Warn("evaluation message", "symbol", symbol, "tag", tag, "text", text)
	ev.record(ctx, trace.Event{Kind: trace.KindMessage, Lookup: symbol, After: m.String()})
}

func (ev *Evaluator) record(ctx context.Context, event trace.Event) {
	if ev.rec == nil {
		return
	}
	ev.seq++
	event.RunID, event.Seq = ev.runID, ev.seq
	if err := ev.rec.Record(ctx, event); err != nil {
		ev.log.Error("trace record failed", "run", ev.runID, "error", err)
	}
}
