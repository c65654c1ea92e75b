// Package mapping intersects changed line ranges from a diff with
// declaration ranges recovered by the language analyzers to produce the
// changed set.
package mapping

import (
	"path"
	"sort"

	"github.com/viant/changeimpact/diffparser"
	"github.com/viant/changeimpact/symbol"
)

// ChangedRange is the line-level diff projected onto one file. Added is in
// new-tree coordinates (the file as it exists after the diff); Removed is
// in old-tree coordinates. Only Added participates in changed-set
// computation — Removed is retained for callers that need it (e.g. to
// confirm a declaration was deleted, not merely touched).
type ChangedRange struct {
	Path    string
	Added   map[int]struct{}
	Removed map[int]struct{}
}

// FromDiff projects decoded file diffs into ChangedRanges. A renamed file's
// ChangedRange is keyed by its NewPath, per the "rename is rename-plus-edit"
// rule in the diff parser design.
func FromDiff(changes []diffparser.FileChanges) []ChangedRange {
	var ranges []ChangedRange
	for _, fc := range changes {
		if fc.Binary || fc.NewPath == "" {
			continue
		}
		cr := ChangedRange{
			Path:    fc.NewPath,
			Added:   map[int]struct{}{},
			Removed: map[int]struct{}{},
		}
		for _, h := range fc.Hunks {
			for _, l := range h.AddedLines() {
				cr.Added[l] = struct{}{}
			}
			for _, l := range h.RemovedLines() {
				cr.Removed[l] = struct{}{}
			}
		}
		ranges = append(ranges, cr)
	}
	return ranges
}

// ComputeChangedSet intersects each ChangedRange's Added lines against the
// Symbols declared in the same path (the range's path is cleaned with
// path.Clean before lookup; backslashes are not converted),
// returning the deduplicated, deterministically ordered changed set. A
// changed file with no recognized declarations contributes nothing and is
// not an error.
func ComputeChangedSet(ranges []ChangedRange, symbolsByPath map[string][]symbol.Symbol) []symbol.Symbol {
	seen := map[symbol.ID]bool{}
	var out []symbol.Symbol

	for _, cr := range ranges {
		p := path.Clean(cr.Path)
		for _, sym := range symbolsByPath[p] {
			if intersects(sym, cr.Added) && !seen[sym.ID] {
				seen[sym.ID] = true
				out = append(out, sym)
			}
		}
	}

	sort.Slice(out, func(i, j int) bool { return symbol.Less(out[i], out[j]) })
	return out
}

func intersects(sym symbol.Symbol, added map[int]struct{}) bool {
	for line := range added {
		if sym.Contains(line) {
			return true
		}
	}
	return false
}
