package graph

import (
	"sort"

	"github.com/viant/changeimpact/lang"
	"github.com/viant/changeimpact/symbol"
)

// Graph is the directed multigraph over SymbolIDs, deduplicated on
// insertion. Callees models forward (caller -> callee) adjacency; Callers
// is the reverse.
type Graph struct {
	Callees map[symbol.ID]map[symbol.ID]struct{}
	Callers map[symbol.ID]map[symbol.ID]struct{}
	Edges   []symbol.Reference
	Table   *Table
}

type edgeKey struct {
	from, to symbol.ID
	kind     symbol.RefKind
}

// Build resolves raws against table and assembles the Graph. The build is
// idempotent and deterministic given identical symbols and raw references:
// Edges is always returned sorted by (from, to, kind) string form.
func Build(table *Table, raws []lang.RawReference) *Graph {
	g := &Graph{
		Callees: map[symbol.ID]map[symbol.ID]struct{}{},
		Callers: map[symbol.ID]map[symbol.ID]struct{}{},
		Table:   table,
	}

	seen := map[edgeKey]bool{}
	for _, r := range raws {
		fromSym, ok := table.Get(r.From)
		if !ok {
			continue // dangling: enclosing symbol not in this snapshot
		}
		for _, to := range Resolve(table, fromSym, r) {
			if _, ok := table.Get(to); !ok {
				continue // dangling reference (§4.5 point 4)
			}
			key := edgeKey{from: r.From, to: to, kind: r.Kind}
			if seen[key] {
				continue
			}
			seen[key] = true
			g.addEdge(symbol.Reference{From: r.From, To: to, Kind: r.Kind})
		}
	}

	sort.Slice(g.Edges, func(i, j int) bool {
		return edgeLess(g.Edges[i], g.Edges[j])
	})
	return g
}

// FromEdges assembles a Graph directly from already-resolved edges (e.g.
// loaded back from the cache), skipping resolution entirely.
func FromEdges(table *Table, edges []symbol.Reference) *Graph {
	g := &Graph{
		Callees: map[symbol.ID]map[symbol.ID]struct{}{},
		Callers: map[symbol.ID]map[symbol.ID]struct{}{},
		Table:   table,
	}
	seen := map[edgeKey]bool{}
	for _, e := range edges {
		key := edgeKey{from: e.From, to: e.To, kind: e.Kind}
		if seen[key] {
			continue
		}
		seen[key] = true
		g.addEdge(e)
	}
	sort.Slice(g.Edges, func(i, j int) bool { return edgeLess(g.Edges[i], g.Edges[j]) })
	return g
}

func (g *Graph) addEdge(ref symbol.Reference) {
	g.Edges = append(g.Edges, ref)
	if g.Callees[ref.From] == nil {
		g.Callees[ref.From] = map[symbol.ID]struct{}{}
	}
	g.Callees[ref.From][ref.To] = struct{}{}
	if g.Callers[ref.To] == nil {
		g.Callers[ref.To] = map[symbol.ID]struct{}{}
	}
	g.Callers[ref.To][ref.From] = struct{}{}
}

func edgeLess(a, b symbol.Reference) bool {
	as, bs := a.From.String(), b.From.String()
	if as != bs {
		return as < bs
	}
	as, bs = a.To.String(), b.To.String()
	if as != bs {
		return as < bs
	}
	return a.Kind < b.Kind
}
