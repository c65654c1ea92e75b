package graph

import (
	"strings"

	"github.com/viant/changeimpact/lang"
	"github.com/viant/changeimpact/symbol"
)

// Resolve applies the §4.3 tie-break policy to one raw reference site,
// returning zero or more target IDs. Multiple targets mean the reference
// was ambiguous and fans out into one edge per surviving candidate — a
// deliberate, over-approximating bias toward completeness over precision.
func Resolve(table *Table, from symbol.Symbol, raw lang.RawReference) []symbol.ID {
	candidates := table.ByName(raw.TargetName)
	if len(candidates) == 0 {
		return nil
	}

	// Non-goal: cross-language edges. A reference can only ever target a
	// declaration in the same language as its site.
	candidates = filter(candidates, func(s symbol.Symbol) bool { return s.Language == from.Language })
	if len(candidates) == 0 {
		return nil
	}

	// Step 1: a statically inferable receiver type restricts to that
	// type's methods, when any exist.
	if raw.ReceiverHint != "" {
		byReceiver := filter(candidates, func(s symbol.Symbol) bool {
			return s.Kind == symbol.KindMethod && s.Container == raw.ReceiverHint
		})
		if len(byReceiver) > 0 {
			candidates = byReceiver
		}
	}

	// Step 2: prefer symbols in the same file as the reference site.
	candidates = narrow(candidates, func(s symbol.Symbol) bool { return s.Path == from.Path })

	// Step 3: prefer symbols in files sharing the longest directory
	// prefix with the reference site's path.
	candidates = narrowLongestPrefix(candidates, from.Path)

	// Step 4: for an unqualified name, prefer plain functions over methods.
	if raw.ReceiverHint == "" {
		candidates = narrow(candidates, func(s symbol.Symbol) bool { return s.Kind == symbol.KindFunc })
	}

	ids := make([]symbol.ID, len(candidates))
	for i, c := range candidates {
		ids[i] = c.ID
	}
	return ids
}

// narrow restricts candidates to those matching pred, unless none match —
// in which case the tie-break doesn't apply and the full set is kept.
func narrow(candidates []symbol.Symbol, pred func(symbol.Symbol) bool) []symbol.Symbol {
	filtered := filter(candidates, pred)
	if len(filtered) == 0 {
		return candidates
	}
	return filtered
}

func filter(candidates []symbol.Symbol, pred func(symbol.Symbol) bool) []symbol.Symbol {
	var out []symbol.Symbol
	for _, c := range candidates {
		if pred(c) {
			out = append(out, c)
		}
	}
	return out
}

func narrowLongestPrefix(candidates []symbol.Symbol, fromPath string) []symbol.Symbol {
	if len(candidates) <= 1 {
		return candidates
	}
	fromDirs := strings.Split(dirOf(fromPath), "/")

	best := -1
	for _, c := range candidates {
		n := sharedPrefixLen(fromDirs, strings.Split(dirOf(c.Path), "/"))
		if n > best {
			best = n
		}
	}
	return filter(candidates, func(s symbol.Symbol) bool {
		return sharedPrefixLen(fromDirs, strings.Split(dirOf(s.Path), "/")) == best
	})
}

func dirOf(path string) string {
	if i := strings.LastIndex(path, "/"); i >= 0 {
		return path[:i]
	}
	return ""
}

func sharedPrefixLen(a, b []string) int {
	n := 0
	for n < len(a) && n < len(b) && a[n] == b[n] {
		n++
	}
	return n
}
