// Package graph resolves syntactic reference sites into reference edges
// between Symbols (§4.3) and assembles the resulting directed multigraph
// with forward (callee) and reverse (caller) adjacency (§4.5).
package graph

import (
	"github.com/viant/changeimpact/symbol"
)

// Table indexes the full workspace symbol set for resolution: by exact ID
// and by bare (unqualified) name, the two lookups the §4.3 policy needs.
type Table struct {
	byID   map[symbol.ID]symbol.Symbol
	byName map[string][]symbol.ID
}

// NewTable indexes syms for resolution.
func NewTable(syms []symbol.Symbol) *Table {
	t := &Table{
		byID:   make(map[symbol.ID]symbol.Symbol, len(syms)),
		byName: make(map[string][]symbol.ID),
	}
	for _, s := range syms {
		t.byID[s.ID] = s
		t.byName[s.Name] = append(t.byName[s.Name], s.ID)
	}
	return t
}

// Get returns the Symbol for id.
func (t *Table) Get(id symbol.ID) (symbol.Symbol, bool) {
	s, ok := t.byID[id]
	return s, ok
}

// ByName returns every Symbol whose bare Name equals name.
func (t *Table) ByName(name string) []symbol.Symbol {
	ids := t.byName[name]
	out := make([]symbol.Symbol, 0, len(ids))
	for _, id := range ids {
		out = append(out, t.byID[id])
	}
	return out
}

// Len returns the number of indexed symbols.
func (t *Table) Len() int { return len(t.byID) }

// All returns every indexed Symbol, unordered.
func (t *Table) All() []symbol.Symbol {
	out := make([]symbol.Symbol, 0, len(t.byID))
	for _, s := range t.byID {
		out = append(out, s)
	}
	return out
}
