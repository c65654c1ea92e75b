package mapping

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/viant/changeimpact/diffparser"
	"github.com/viant/changeimpact/symbol"
)

func sym(path string, start, end int, name string) symbol.Symbol {
	return symbol.Symbol{
		ID:        symbol.ID{Language: symbol.Rust, Path: path, Kind: symbol.KindFunc, Name: name, Line: start},
		Path:      path,
		Kind:      symbol.KindFunc,
		Name:      name,
		LineStart: start,
		LineEnd:   end,
	}
}

func TestComputeChangedSet_Basic(t *testing.T) {
	foo := sym("src/a.rs", 10, 15, "foo")
	bar := sym("src/a.rs", 20, 25, "bar")
	byPath := map[string][]symbol.Symbol{"src/a.rs": {foo, bar}}

	ranges := []ChangedRange{{Path: "src/a.rs", Added: map[int]struct{}{11: {}}}}
	changed := ComputeChangedSet(ranges, byPath)

	require.Len(t, changed, 1)
	assert.Equal(t, "foo", changed[0].Name)
}

func TestComputeChangedSet_NoDeclarations(t *testing.T) {
	ranges := []ChangedRange{{Path: "README.md", Added: map[int]struct{}{1: {}}}}
	changed := ComputeChangedSet(ranges, map[string][]symbol.Symbol{})
	assert.Empty(t, changed)
}

func TestComputeChangedSet_Deduplicates(t *testing.T) {
	foo := sym("src/a.rs", 10, 20, "foo")
	byPath := map[string][]symbol.Symbol{"src/a.rs": {foo}}
	ranges := []ChangedRange{{Path: "src/a.rs", Added: map[int]struct{}{11: {}, 12: {}}}}
	changed := ComputeChangedSet(ranges, byPath)
	require.Len(t, changed, 1)
}

func TestFromDiff_RenameUsesNewPath(t *testing.T) {
	changes := []diffparser.FileChanges{
		{
			OldPath: "src/a.rs",
			NewPath: "src/b.rs",
			Hunks: []diffparser.Hunk{
				{OldStart: 1, NewStart: 1, Lines: []diffparser.LineOp{diffparser.Context, diffparser.Added}},
			},
		},
	}
	ranges := FromDiff(changes)
	require.Len(t, ranges, 1)
	assert.Equal(t, "src/b.rs", ranges[0].Path)
	_, ok := ranges[0].Added[2]
	assert.True(t, ok)
}
