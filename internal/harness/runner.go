package harness

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"testing"

	"github.com/sebdah/goldie/v2"

	"github.com/tungsten-lang/tungsten/internal/defs"
	"github.com/tungsten-lang/tungsten/internal/eval"
	"github.com/tungsten-lang/tungsten/internal/expr"
	"github.com/tungsten-lang/tungsten/internal/trace"
)

// Result is what one scenario run produced.
type Result struct {
	// Scenario is the scenario name.
	Scenario string

	// Input and Value are the evaluated term and its fixpoint.
	Input expr.Element
	Value expr.Element

	// Messages are the diagnostics of the run.
	Messages []eval.Message

	// Events is the recorded trace in sequence order.
	Events []trace.Event
}

// Run executes a scenario in a fresh arena and definitions store.
//
// A fresh engine per run keeps scenarios isolated; the fixed run id keeps the
// trace deterministic for golden comparison. An expect clause that does not
// match the result is an error.
func Run(scenario *Scenario) (*Result, error) {
	in := expr.NewInterner()
	ds := defs.NewDefinitions()

	for sym, names := range scenario.Attributes {
		for _, name := range names {
			attr, err := defs.ParseAttribute(name)
			if err != nil {
				return nil, fmt.Errorf("attributes[%s]: %w", sym, err)
			}
			ds.SetAttributes(sym, attr)
		}
	}
	if scenario.Limits != nil {
		if scenario.Limits.Iteration != 0 {
			ds.SetIterationLimit(scenario.Limits.Iteration)
		}
		if scenario.Limits.Recursion != 0 {
			ds.SetRecursionLimit(scenario.Limits.Recursion)
		}
	}
	if err := installRules(in, ds, scenario.Rules); err != nil {
		return nil, err
	}

	input, err := buildTerm(in, scenario.Input)
	if err != nil {
		return nil, fmt.Errorf("input: %w", err)
	}

	runID := scenario.RunID
	if runID == "" {
		runID = scenario.Name
	}
	rec := trace.NewMemoryRecorder()
	ev := eval.New(in, ds,
		eval.WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))),
		eval.WithRecorder(rec),
		eval.WithRunIDGenerator(trace.NewFixedGenerator(runID)),
	)

	value, err := ev.Evaluate(context.Background(), input)
	if err != nil {
		return nil, fmt.Errorf("evaluating %s: %w", input, err)
	}

	if scenario.Expect != nil {
		want, err := buildTerm(in, scenario.Expect)
		if err != nil {
			return nil, fmt.Errorf("expect: %w", err)
		}
		if !value.Same(want) {
			return nil, fmt.Errorf("scenario %s: got %s, expected %s", scenario.Name, value, want)
		}
	}

	return &Result{
		Scenario: scenario.Name,
		Input:    input,
		Value:    value,
		Messages: ev.Messages(),
		Events:   rec.Run(runID),
	}, nil
}

func installRules(in *expr.Interner, ds *defs.Definitions, specs []RuleSpec) error {
	for i, spec := range specs {
		kind, err := parseRuleKind(spec.Kind)
		if err != nil {
			return fmt.Errorf("rules[%d]: %w", i, err)
		}
		lhs, err := buildTerm(in, spec.LHS)
		if err != nil {
			return fmt.Errorf("rules[%d].lhs: %w", i, err)
		}
		rhs, err := buildTerm(in, spec.RHS)
		if err != nil {
			return fmt.Errorf("rules[%d].rhs: %w", i, err)
		}
		sym := spec.Symbol
		if sym == "" {
			sym = expr.LookupName(lhs)
		}
		if sym == "" {
			return fmt.Errorf("rules[%d]: cannot derive a symbol from %s", i, lhs)
		}
		ds.AddRule(sym, kind, defs.NewReplaceRule(in, lhs, rhs))
	}
	return nil
}

// Snapshot renders a result as the stable text pinned by golden files: the
// input, the value, the diagnostics, and one line per trace event.
func (r *Result) Snapshot() []byte {
	var b strings.Builder
	fmt.Fprintf(&b, "scenario: %s\n", r.Scenario)
	fmt.Fprintf(&b, "input: %s\n", r.Input)
	fmt.Fprintf(&b, "result: %s\n", r.Value)
	b.WriteString("messages:\n")
	if len(r.Messages) == 0 {
		b.WriteString("  (none)\n")
	}
	for _, m := range r.Messages {
		fmt.Fprintf(&b, "  %s\n", m)
	}
	b.WriteString("trace:\n")
	for _, ev := range r.Events {
		fmt.Fprintf(&b, "  %s\n", formatEvent(ev))
	}
	return []byte(b.String())
}

func formatEvent(ev trace.Event) string {
	switch ev.Kind {
	case trace.KindPass:
		return fmt.Sprintf("%d pass %s: %s => %s", ev.Seq, ev.Lookup, ev.Before, ev.After)
	case trace.KindMessage:
		return fmt.Sprintf("%d message %s", ev.Seq, ev.After)
	case trace.KindResult:
		return fmt.Sprintf("%d result %s", ev.Seq, ev.After)
	}
	return fmt.Sprintf("%d %s", ev.Seq, ev.Kind)
}

// RunWithGolden executes a scenario and compares its snapshot against
// testdata/golden/{name}.golden.
//
// To regenerate golden files, run:
//
//	go test ./internal/harness -update
func RunWithGolden(t *testing.T, scenario *Scenario) *Result {
	t.Helper()

	result, err := Run(scenario)
	if err != nil {
		t.Fatalf("scenario %s failed: %v", scenario.Name, err)
	}

	g := goldie.New(t,
		goldie.WithFixtureDir("testdata/golden"),
		goldie.WithNameSuffix(".golden"),
	)
	g.Assert(t, scenario.Name, result.Snapshot())
	return result
}
