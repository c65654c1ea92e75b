package impact

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/viant/changeimpact/graph"
	"github.com/viant/changeimpact/lang"
	"github.com/viant/changeimpact/symbol"
)

func sym(name string, line int) symbol.Symbol {
	return symbol.Symbol{
		ID:        symbol.ID{Language: symbol.Rust, Path: "src/a.rs", Kind: symbol.KindFunc, Name: name, Line: line},
		Language:  symbol.Rust,
		Path:      "src/a.rs",
		Kind:      symbol.KindFunc,
		Name:      name,
		LineStart: line,
		LineEnd:   line + 1,
	}
}

// chain: a -> b -> c -> d (a calls b calls c calls d)
func chainGraph() (*graph.Graph, symbol.ID, symbol.ID, symbol.ID, symbol.ID) {
	a, b, c, d := sym("a", 1), sym("b", 10), sym("c", 20), sym("d", 30)
	table := graph.NewTable([]symbol.Symbol{a, b, c, d})
	g := graph.Build(table, []lang.RawReference{
		{From: a.ID, TargetName: "b", Kind: symbol.Call, Line: 2},
		{From: b.ID, TargetName: "c", Kind: symbol.Call, Line: 11},
		{From: c.ID, TargetName: "d", Kind: symbol.Call, Line: 21},
	})
	return g, a.ID, b.ID, c.ID, d.ID
}

func TestRun_CalleesBounded(t *testing.T) {
	g, a, b, c, _ := chainGraph()

	out, err := Run(context.Background(), g, []symbol.ID{a}, Callees, 1, false)
	require.NoError(t, err)
	names := symbolNames(out.Impacted)
	assert.ElementsMatch(t, []string{"b"}, names)

	out2, err := Run(context.Background(), g, []symbol.ID{a}, Callees, 2, false)
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"b", "c"}, symbolNames(out2.Impacted))

	_ = b
	_ = c
}

func TestRun_Monotonicity(t *testing.T) {
	g, a, _, _, _ := chainGraph()

	prevSet := map[string]bool{}
	for depth := 0; depth <= 3; depth++ {
		out, err := Run(context.Background(), g, []symbol.ID{a}, Callees, depth, false)
		require.NoError(t, err)
		cur := map[string]bool{}
		for _, s := range out.Impacted {
			cur[s.Name] = true
		}
		for name := range prevSet {
			assert.True(t, cur[name], "impacted(%d) must be superset of impacted(%d), missing %s", depth, depth-1, name)
		}
		prevSet = cur
	}
}

func TestRun_SelfExclusion(t *testing.T) {
	g, a, _, _, _ := chainGraph()
	out, err := Run(context.Background(), g, []symbol.ID{a}, Callees, -1, false)
	require.NoError(t, err)
	for _, s := range out.Impacted {
		assert.NotEqual(t, a, s.ID)
	}
}

func TestRun_CallersDirection(t *testing.T) {
	g, a, b, _, d := chainGraph()
	out, err := Run(context.Background(), g, []symbol.ID{d}, Callers, -1, false)
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"a", "b", "c"}, symbolNames(out.Impacted))
	_ = a
	_ = b
}

func TestRun_BothDirections(t *testing.T) {
	g, _, b, _, _ := chainGraph()
	out, err := Run(context.Background(), g, []symbol.ID{b}, Both, -1, false)
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"a", "c", "d"}, symbolNames(out.Impacted))
}

func TestRun_WithEdgesRestrictedToReachSet(t *testing.T) {
	g, a, b, c, _ := chainGraph()
	out, err := Run(context.Background(), g, []symbol.ID{a}, Callees, 1, true)
	require.NoError(t, err)
	require.Len(t, out.Edges, 1)
	assert.Equal(t, a, out.Edges[0].From)
	assert.Equal(t, b, out.Edges[0].To)
	_ = c
}

func TestRun_DeterministicOrdering(t *testing.T) {
	g, a, _, _, _ := chainGraph()
	out1, err := Run(context.Background(), g, []symbol.ID{a}, Callees, -1, false)
	require.NoError(t, err)
	out2, err := Run(context.Background(), g, []symbol.ID{a}, Callees, -1, false)
	require.NoError(t, err)
	assert.Equal(t, out1.Impacted, out2.Impacted)
	for i := 1; i < len(out1.Impacted); i++ {
		assert.True(t, out1.Impacted[i-1].ID.String() <= out1.Impacted[i].ID.String())
	}
}

func TestRunPerSeed_PartitionsIndependently(t *testing.T) {
	g, a, b, _, d := chainGraph()
	results, err := RunPerSeed(context.Background(), g, []symbol.ID{a, d}, Both, -1)
	require.NoError(t, err)
	require.Len(t, results, 2)

	var forA, forD *PerSeed
	for i := range results {
		switch results[i].Seed.ID {
		case a:
			forA = &results[i]
		case d:
			forD = &results[i]
		}
	}
	require.NotNil(t, forA)
	require.NotNil(t, forD)
	assert.Empty(t, forA.Callers)
	assert.ElementsMatch(t, []string{"b", "c", "d"}, symbolNames(forA.Callees))
	assert.ElementsMatch(t, []string{"a", "b", "c"}, symbolNames(forD.Callers))
	assert.Empty(t, forD.Callees)
	_ = b
}

func symbolNames(syms []symbol.Symbol) []string {
	out := make([]string, len(syms))
	for i, s := range syms {
		out[i] = s.Name
	}
	return out
}
