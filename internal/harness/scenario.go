// Package harness runs declarative evaluation scenarios: YAML files that
// install attributes and rules into a fresh engine, evaluate one input
// expression, and check the result and the recorded trace. Golden files under
// testdata/golden pin the full trace of each scenario.
package harness

import (
	"bytes"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/tungsten-lang/tungsten/internal/defs"
	"github.com/tungsten-lang/tungsten/internal/expr"
)

// Scenario defines one evaluation scenario.
//
// Terms use a compact YAML encoding:
//   - a string is a symbol ("x", "Pattern", "Blank")
//   - an integer or float is the corresponding numeric atom
//   - a sequence is an expression: first item the head, rest the elements,
//     so [f, x, 1] means f[x, 1] and [[d, 1], x] means d[1][x]
//   - a map {str: hello} is the string atom "hello"
//   - a map {rat: [n, d]} is the exact fraction n/d
type Scenario struct {
	// Name uniquely identifies this scenario and names its golden file.
	Name string `yaml:"name"`

	// Description explains what this scenario validates.
	Description string `yaml:"description"`

	// Attributes grants attributes to symbols before evaluation, by name
	// (e.g. plus: [Orderless, Flat]).
	Attributes map[string][]string `yaml:"attributes,omitempty"`

	// Rules installs rewrite rules in order.
	Rules []RuleSpec `yaml:"rules,omitempty"`

	// Limits overrides the engine limits for this scenario.
	Limits *Limits `yaml:"limits,omitempty"`

	// Input is the term to evaluate.
	Input any `yaml:"input"`

	// Expect is the term the evaluation must produce. Optional; when absent
	// only the golden trace pins the behavior.
	Expect any `yaml:"expect,omitempty"`

	// RunID is an optional fixed trace run id. Defaults to the scenario name.
	RunID string `yaml:"run_id,omitempty"`
}

// RuleSpec is one rewrite rule in a scenario.
type RuleSpec struct {
	// Kind selects the value category: ownvalues, downvalues, subvalues, or
	// upvalues.
	Kind string `yaml:"kind"`

	// Symbol is the definition the rule attaches to. Optional for all kinds
	// except upvalues: when empty it is derived from the left-hand side's
	// lookup name.
	Symbol string `yaml:"symbol,omitempty"`

	// LHS and RHS are the rule's pattern and template terms.
	LHS any `yaml:"lhs"`
	RHS any `yaml:"rhs"`
}

// Limits overrides engine limits. Zero fields keep the defaults.
type Limits struct {
	Iteration int `yaml:"iteration,omitempty"`
	Recursion int `yaml:"recursion,omitempty"`
}

// LoadScenario reads and parses a scenario YAML file. Unknown fields are
// rejected, which catches typos like "rule:" for "rules:".
func LoadScenario(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read scenario file: %w", err)
	}

	var scenario Scenario
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&scenario); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	if err := validateScenario(&scenario); err != nil {
		return nil, fmt.Errorf("invalid scenario: %w", err)
	}
	return &scenario, nil
}

func validateScenario(s *Scenario) error {
	if s.Name == "" {
		return fmt.Errorf("name is required")
	}
	if s.Description == "" {
		return fmt.Errorf("description is required")
	}
	if s.Input == nil {
		return fmt.Errorf("input is required")
	}
	for sym, names := range s.Attributes {
		for _, name := range names {
			if _, err := defs.ParseAttribute(name); err != nil {
				return fmt.Errorf("attributes[%s]: %w", sym, err)
			}
		}
	}
	for i, r := range s.Rules {
		if _, err := parseRuleKind(r.Kind); err != nil {
			return fmt.Errorf("rules[%d]: %w", i, err)
		}
		if r.LHS == nil || r.RHS == nil {
			return fmt.Errorf("rules[%d]: lhs and rhs are required", i)
		}
		if r.Kind == "upvalues" && r.Symbol == "" {
			return fmt.Errorf("rules[%d]: upvalues require an explicit symbol", i)
		}
	}
	return nil
}

func parseRuleKind(s string) (defs.RuleKind, error) {
	switch s {
	case "ownvalues":
		return defs.OwnValues, nil
	case "downvalues":
		return defs.DownValues, nil
	case "subvalues":
		return defs.SubValues, nil
	case "upvalues":
		return defs.UpValues, nil
	}
	return 0, fmt.Errorf("unknown rule kind %q", s)
}

// buildTerm converts a decoded YAML term into an element in the given arena.
func buildTerm(in *expr.Interner, v any) (expr.Element, error) {
	switch t := v.(type) {
	case string:
		return in.Symbol(t), nil
	case int:
		return in.NewInteger(int64(t)), nil
	case int64:
		return in.NewInteger(t), nil
	case float64:
		return in.NewMachineReal(t)
	case []any:
		if len(t) == 0 {
			return nil, fmt.Errorf("empty term sequence")
		}
		head, err := buildTerm(in, t[0])
		if err != nil {
			return nil, err
		}
		elems := make([]expr.Element, len(t)-1)
		for i, sub := range t[1:] {
			if elems[i], err = buildTerm(in, sub); err != nil {
				return nil, err
			}
		}
		return expr.NewExpression(head, elems...), nil
	case map[string]any:
		return buildTaggedTerm(in, t)
	}
	return nil, fmt.Errorf("unsupported term %v (%T)", v, v)
}

func buildTaggedTerm(in *expr.Interner, m map[string]any) (expr.Element, error) {
	if len(m) != 1 {
		return nil, fmt.Errorf("tagged term must have exactly one key, got %d", len(m))
	}
	if s, ok := m["str"]; ok {
		text, ok := s.(string)
		if !ok {
			return nil, fmt.Errorf("str term must carry a string, got %T", s)
		}
		return in.NewString(text), nil
	}
	if r, ok := m["rat"]; ok {
		parts, ok := r.([]any)
		if !ok || len(parts) != 2 {
			return nil, fmt.Errorf("rat term must carry [numerator, denominator]")
		}
		num, okN := asInt64(parts[0])
		den, okD := asInt64(parts[1])
		if !okN || !okD || den == 0 {
			return nil, fmt.Errorf("rat term must carry two integers with a nonzero denominator")
		}
		return in.NewRational(num, den), nil
	}
	for key := range m {
		return nil, fmt.Errorf("unknown term tag %q", key)
	}
	return nil, fmt.Errorf("empty tagged term")
}

func asInt64(v any) (int64, bool) {
	switch t := v.(type) {
	case int:
		return int64(t), true
	case int64:
		return t, true
	}
	return 0, false
}
