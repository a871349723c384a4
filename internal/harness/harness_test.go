package harness

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tungsten-lang/tungsten/internal/trace"
)

// TestScenarios runs every scenario under testdata/scenarios against its
// golden trace.
func TestScenarios(t *testing.T) {
	paths, err := filepath.Glob(filepath.Join("testdata", "scenarios", "*.yaml"))
	require.NoError(t, err)
	require.NotEmpty(t, paths)

	for _, path := range paths {
		scenario, err := LoadScenario(path)
		require.NoError(t, err, path)
		t.Run(scenario.Name, func(t *testing.T) {
			RunWithGolden(t, scenario)
		})
	}
}

func TestRun_ExpectMismatch(t *testing.T) {
	scenario := &Scenario{
		Name:        "mismatch",
		Description: "no rules, so the input cannot reach the expected value",
		Input:       []any{"f", 1},
		Expect:      []any{"g", 1},
	}
	_, err := Run(scenario)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "expected g[1]")
}

func TestRun_IterationLimitScenario(t *testing.T) {
	scenario := &Scenario{
		Name:        "runaway",
		Description: "a self-feeding rule trips the iteration limit",
		Rules: []RuleSpec{{
			Kind: "downvalues",
			LHS:  []any{"loop", []any{"Pattern", "n", []any{"Blank"}}},
			RHS:  []any{"loop", []any{"again", "n"}},
		}},
		Limits: &Limits{Iteration: 25},
		Input:  []any{"loop", 0},
	}
	result, err := Run(scenario)
	require.NoError(t, err)

	assert.Equal(t, "$Aborted", result.Value.String())
	require.NotEmpty(t, result.Messages)
	assert.Equal(t, "$IterationLimit", result.Messages[0].Symbol)
}

func TestRun_FreshEnginePerRun(t *testing.T) {
	scenario := &Scenario{
		Name:        "isolated",
		Description: "attributes granted by one run do not leak into the next",
		Attributes:  map[string][]string{"g": {"Orderless"}},
		Input:       []any{"g", 2, 1},
		Expect:      []any{"g", 1, 2},
	}
	first, err := Run(scenario)
	require.NoError(t, err)

	plain := &Scenario{
		Name:        "isolated_plain",
		Description: "same head without the attribute stays put",
		Input:       []any{"g", 2, 1},
		Expect:      []any{"g", 2, 1},
	}
	second, err := Run(plain)
	require.NoError(t, err)

	assert.Equal(t, "g[1, 2]", first.Value.String())
	assert.Equal(t, "g[2, 1]", second.Value.String())
}

func TestRun_TraceRunIDDefaultsToName(t *testing.T) {
	scenario := &Scenario{
		Name:        "named_run",
		Description: "the trace groups under the scenario name",
		Attributes:  map[string][]string{"g": {"Orderless"}},
		Input:       []any{"g", 2, 1},
	}
	result, err := Run(scenario)
	require.NoError(t, err)

	require.NotEmpty(t, result.Events)
	for _, ev := range result.Events {
		assert.Equal(t, "named_run", ev.RunID)
	}
	assert.Equal(t, trace.KindResult, result.Events[len(result.Events)-1].Kind)
}
