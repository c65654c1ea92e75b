// Package impact implements bounded breadth-first impact propagation over
// the workspace reference graph (§4.6): starting from a changed or seed
// symbol set, walk callers, callees, or both, up to a maximum depth.
package impact

import (
	"context"
	"sort"

	"github.com/viant/changeimpact/errkind"
	"github.com/viant/changeimpact/graph"
	"github.com/viant/changeimpact/symbol"
)

// Direction selects which adjacency the BFS follows.
type Direction string

const (
	Callers Direction = "callers"
	Callees Direction = "callees"
	Both    Direction = "both"
)

// Output is the result of one impact run: the seeds echoed back, the
// transitively impacted symbols, and optionally the edges connecting them.
type Output struct {
	Seeds    []symbol.Symbol
	Impacted []symbol.Symbol
	Edges    []symbol.Reference
}

// PerSeed partitions impact results by originating seed. With
// direction=Both, caller and callee reach sets are reported separately.
type PerSeed struct {
	Seed     symbol.Symbol
	Callers  []symbol.Symbol
	Callees  []symbol.Symbol
	Impacted []symbol.Symbol
}

// Run walks g from seeds in direction, up to maxDepth hops (maxDepth < 0
// means unbounded), and returns the combined Output. withEdges controls
// whether the edges whose endpoints both lie in seeds ∪ impacted are
// included.
func Run(ctx context.Context, g *graph.Graph, seeds []symbol.ID, direction Direction, maxDepth int, withEdges bool) (*Output, error) {
	seedSet := make(map[symbol.ID]struct{}, len(seeds))
	for _, s := range seeds {
		seedSet[s] = struct{}{}
	}

	reached, err := bfsUnion(ctx, g, seeds, direction, maxDepth)
	if err != nil {
		return nil, err
	}

	out := &Output{}
	for _, id := range seeds {
		if sym, ok := g.Table.Get(id); ok {
			out.Seeds = append(out.Seeds, sym)
		}
	}
	for id := range reached {
		if _, isSeed := seedSet[id]; isSeed {
			continue // self-exclusion
		}
		if sym, ok := g.Table.Get(id); ok {
			out.Impacted = append(out.Impacted, sym)
		}
	}
	sortSymbols(out.Seeds)
	sortSymbols(out.Impacted)

	if withEdges {
		all := make(map[symbol.ID]struct{}, len(seedSet)+len(reached))
		for id := range seedSet {
			all[id] = struct{}{}
		}
		for id := range reached {
			all[id] = struct{}{}
		}
		out.Edges = edgesWithin(g, all)
	}
	return out, nil
}

// RunPerSeed computes an independent reach set for each seed (§4.6 per-seed
// mode). With direction=Both, the caller and callee partitions are reported
// separately on each PerSeed entry.
func RunPerSeed(ctx context.Context, g *graph.Graph, seeds []symbol.ID, direction Direction, maxDepth int) ([]PerSeed, error) {
	results := make([]PerSeed, 0, len(seeds))
	for _, id := range seeds {
		sym, ok := g.Table.Get(id)
		if !ok {
			continue
		}
		ps := PerSeed{Seed: sym}

		if direction == Callers || direction == Both {
			reached, err := bfsOne(ctx, g, id, Callers, maxDepth)
			if err != nil {
				return nil, err
			}
			delete(reached, id)
			ps.Callers = symbolsOf(g, reached)
			sortSymbols(ps.Callers)
		}
		if direction == Callees || direction == Both {
			reached, err := bfsOne(ctx, g, id, Callees, maxDepth)
			if err != nil {
				return nil, err
			}
			delete(reached, id)
			ps.Callees = symbolsOf(g, reached)
			sortSymbols(ps.Callees)
		}

		union := map[symbol.ID]struct{}{}
		for _, s := range ps.Callers {
			union[s.ID] = struct{}{}
		}
		for _, s := range ps.Callees {
			union[s.ID] = struct{}{}
		}
		ps.Impacted = symbolsOf(g, union)
		sortSymbols(ps.Impacted)

		results = append(results, ps)
	}
	return results, nil
}

// bfsUnion runs the BFS(es) implied by direction from every seed at once and
// returns the set of node IDs reached (seeds included), satisfying
// monotonicity: impacted(d1) subset-of impacted(d2) for d1 <= d2.
func bfsUnion(ctx context.Context, g *graph.Graph, seeds []symbol.ID, direction Direction, maxDepth int) (map[symbol.ID]struct{}, error) {
	reached := map[symbol.ID]struct{}{}
	if direction == Callers || direction == Both {
		r, err := bfsMulti(ctx, g, seeds, Callers, maxDepth)
		if err != nil {
			return nil, err
		}
		mergeInto(reached, r)
	}
	if direction == Callees || direction == Both {
		r, err := bfsMulti(ctx, g, seeds, Callees, maxDepth)
		if err != nil {
			return nil, err
		}
		mergeInto(reached, r)
	}
	return reached, nil
}

func bfsOne(ctx context.Context, g *graph.Graph, seed symbol.ID, dir Direction, maxDepth int) (map[symbol.ID]struct{}, error) {
	return bfsMulti(ctx, g, []symbol.ID{seed}, dir, maxDepth)
}

// bfsMulti runs one BFS seeded by all of seeds simultaneously over the
// adjacency selected by dir (Callers or Callees only — Both is handled by
// the caller as the union of two independent BFSs per spec).
func bfsMulti(ctx context.Context, g *graph.Graph, seeds []symbol.ID, dir Direction, maxDepth int) (map[symbol.ID]struct{}, error) {
	adj := g.Callees
	if dir == Callers {
		adj = g.Callers
	}

	visited := map[symbol.ID]struct{}{}
	type item struct {
		id    symbol.ID
		depth int
	}
	queue := make([]item, 0, len(seeds))
	for _, s := range seeds {
		if _, ok := visited[s]; ok {
			continue
		}
		visited[s] = struct{}{}
		queue = append(queue, item{id: s, depth: 0})
	}

	for len(queue) > 0 {
		select {
		case <-ctx.Done():
			return nil, errkind.New(errkind.Io, "impact BFS cancelled", ctx.Err())
		default:
		}

		cur := queue[0]
		queue = queue[1:]
		if maxDepth >= 0 && cur.depth >= maxDepth {
			continue
		}
		for next := range adj[cur.id] {
			if _, ok := visited[next]; ok {
				continue
			}
			visited[next] = struct{}{}
			queue = append(queue, item{id: next, depth: cur.depth + 1})
		}
	}
	return visited, nil
}

func mergeInto(dst, src map[symbol.ID]struct{}) {
	for id := range src {
		dst[id] = struct{}{}
	}
}

func symbolsOf(g *graph.Graph, ids map[symbol.ID]struct{}) []symbol.Symbol {
	out := make([]symbol.Symbol, 0, len(ids))
	for id := range ids {
		if sym, ok := g.Table.Get(id); ok {
			out = append(out, sym)
		}
	}
	return out
}

func edgesWithin(g *graph.Graph, within map[symbol.ID]struct{}) []symbol.Reference {
	var out []symbol.Reference
	for _, e := range g.Edges {
		_, fromOK := within[e.From]
		_, toOK := within[e.To]
		if fromOK && toOK {
			out = append(out, e)
		}
	}
	return out
}

// sortSymbols orders by canonical SymbolId string, matching §4.6's mandated
// ordering and the edge list's own edgeLess ordering (graph/graph.go).
func sortSymbols(syms []symbol.Symbol) {
	sort.Slice(syms, func(i, j int) bool { return syms[i].ID.String() < syms[j].ID.String() })
}
