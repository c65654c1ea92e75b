package symbol

// Symbol is a declaration recovered from source text.
//
// Invariants: LineStart <= LineEnd; Path is repository-relative and
// forward-slash; (Path, LineStart, Name, Kind) uniquely identifies a Symbol
// within one workspace snapshot.
type Symbol struct {
	ID        ID
	Language  Language
	Path      string
	Kind      Kind
	Name      string
	LineStart int
	LineEnd   int
	Container string
}

// RefKind distinguishes a call-expression reference from a plain name
// reference (type mention, field access that is not a call, and so on).
type RefKind string

const (
	Call RefKind = "call"
	Ref  RefKind = "ref"
)

// Reference is a directed edge from the declaration enclosing a reference
// site to the declaration it names. It is only ever materialized once `To`
// has been resolved to a Symbol present in the workspace.
type Reference struct {
	From ID
	To   ID
	Kind RefKind
}

// Less orders Symbols by (Path, LineStart, Name, Kind), the deterministic
// ordering of the changed set. The impacted set is ordered by canonical ID
// string instead (see impact.sortSymbols).
func Less(a, b Symbol) bool {
	if a.Path != b.Path {
		return a.Path < b.Path
	}
	if a.LineStart != b.LineStart {
		return a.LineStart < b.LineStart
	}
	if a.Name != b.Name {
		return a.Name < b.Name
	}
	return a.Kind < b.Kind
}

// Contains reports whether the 1-based line L falls within the Symbol's range.
func (s Symbol) Contains(line int) bool {
	return s.LineStart <= line && line <= s.LineEnd
}

// Span is the number of lines covered by the Symbol; used to break ties
// toward the smallest (most deeply nested) enclosing declaration.
func (s Symbol) Span() int {
	return s.LineEnd - s.LineStart
}
