// Package lang defines the per-language analyzer capability set and
// dispatches to a concrete implementation by file extension, the way
// inspector.Factory does in the teacher's codebase: one small interface,
// implemented per language, selected at the workspace-walk boundary rather
// than through a deep type hierarchy.
package lang

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/viant/changeimpact/symbol"
)

// RawReference is a syntactic reference site recovered from one file,
// before workspace-wide resolution. TargetName is always the bare
// identifier; for a qualified or receiver call (`C::name()`, `x.name()`) the
// qualifier is carried in ReceiverHint instead. Analyzers
// never resolve RawReferences to a target Symbol themselves — that
// cross-file policy decision belongs to the graph builder (§4.3).
type RawReference struct {
	From         symbol.ID
	TargetName   string
	ReceiverHint string // statically inferable receiver type, if any (§4.3 step 1)
	Kind         symbol.RefKind
	Line         int
}

// Stats counts recoverable failures for one file's analysis, returned by
// Analyzer.Symbols in place of an error (§4.2 Failure). The workspace driver
// does not aggregate or return these counts.
type Stats struct {
	ParseErrors int
}

// Analyzer extracts declarations and syntactic reference sites from one
// language's source text.
type Analyzer interface {
	Language() symbol.Language

	// Symbols returns the top-level declarations in src and those nested in
	// classes, modules, and impl blocks. Declarations inside a function or
	// method body (and, for JavaScript/TypeScript, inside a variable's
	// initializer) are not returned. Parse errors never fail the call: whatever could be recovered from
	// the partial tree is returned, with the miss recorded in Stats.
	Symbols(path string, src []byte) ([]symbol.Symbol, Stats, error)

	// References returns every syntactic reference site in src, paired
	// with its enclosing declaration from fileSymbols.
	References(path string, src []byte, fileSymbols []symbol.Symbol) ([]RawReference, error)
}

// Factory selects an Analyzer by file extension.
type Factory struct {
	byExt map[string]Analyzer
}

// NewFactory returns an empty Factory; analyzers are added with Register.
func NewFactory() *Factory {
	return &Factory{byExt: map[string]Analyzer{}}
}

// Register associates an Analyzer with the given extensions (including the
// leading dot, e.g. ".rs").
func (f *Factory) Register(a Analyzer, exts ...string) {
	for _, ext := range exts {
		f.byExt[ext] = a
	}
}

// For returns the Analyzer registered for path's extension.
func (f *Factory) For(path string) (Analyzer, bool) {
	ext := strings.ToLower(filepath.Ext(path))
	a, ok := f.byExt[ext]
	return a, ok
}

// LanguageFor maps path's extension to the Language of the Analyzer
// registered for it, or returns an error when none is registered.
func (f *Factory) LanguageFor(path string) (symbol.Language, error) {
	a, ok := f.For(path)
	if !ok {
		return "", fmt.Errorf("no analyzer registered for %s", path)
	}
	return a.Language(), nil
}

// Enclosing returns the smallest-range Symbol in fileSymbols containing
// line (§4.2: "the declaration whose range is smallest; ties break toward
// deeper nesting"), or nil if line falls inside no declaration. Analyzers
// list an enclosing declaration before the ones nested in it, so on equal
// spans the later entry, the deeper one, wins.
func Enclosing(fileSymbols []symbol.Symbol, line int) *symbol.Symbol {
	var best *symbol.Symbol
	for i := range fileSymbols {
		s := &fileSymbols[i]
		if !s.Contains(line) {
			continue
		}
		if best == nil || s.Span() <= best.Span() {
			best = s
		}
	}
	return best
}
