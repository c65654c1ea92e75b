// Package ruby analyzes Ruby source with tree-sitter, recovering def,
// class, and module declarations plus call/identifier reference sites.
// Field lookups fall back to scanning named children by node type when a
// field isn't present, the same defensive pattern the teacher uses in
// golang.handleTypeSpec for grammar-version drift.
package ruby

import (
	"context"
	"fmt"

	sitter "github.com/smacker/go-tree-sitter"
	tsruby "github.com/smacker/go-tree-sitter/ruby"

	"github.com/viant/changeimpact/lang"
	"github.com/viant/changeimpact/symbol"
)

type Analyzer struct{}

func New() *Analyzer { return &Analyzer{} }

func (*Analyzer) Language() symbol.Language { return symbol.Ruby }

func parse(src []byte) (*sitter.Tree, error) {
	parser := sitter.NewParser()
	parser.SetLanguage(tsruby.GetLanguage())
	return parser.ParseCtx(context.Background(), nil, src)
}

func (a *Analyzer) Symbols(path string, src []byte) ([]symbol.Symbol, lang.Stats, error) {
	tree, err := parse(src)
	if err != nil {
		return nil, lang.Stats{ParseErrors: 1}, nil
	}
	root := tree.RootNode()
	var stats lang.Stats
	if root.HasError() {
		stats.ParseErrors = 1
	}

	var syms []symbol.Symbol
	walkDecls(root, src, path, "", &syms)
	return syms, stats, nil
}

func walkDecls(n *sitter.Node, src []byte, path, container string, out *[]symbol.Symbol) {
	if n == nil {
		return
	}
	switch n.Type() {
	case "class", "module":
		name := declName(n, src)
		if name == "" {
			break
		}
		kind := symbol.KindClass
		if n.Type() == "module" {
			kind = symbol.KindMod
		}
		*out = append(*out, makeSymbol(path, n, src, name, kind, ""))
		if body := findBody(n); body != nil {
			for i := 0; i < int(body.NamedChildCount()); i++ {
				walkDecls(body.NamedChild(i), src, path, name, out)
			}
		}
		return
	case "method", "singleton_method":
		name := declName(n, src)
		if name == "" {
			break
		}
		kind := symbol.KindFunc
		if container != "" {
			kind = symbol.KindMethod
		}
		*out = append(*out, makeSymbol(path, n, src, name, kind, container))
		return
	}

	for i := 0; i < int(n.NamedChildCount()); i++ {
		walkDecls(n.NamedChild(i), src, path, container, out)
	}
}

// declName reads the "name" field; class/module names may be a constant
// or a scope_resolution (Foo::Bar), in which case the last segment is used.
func declName(n *sitter.Node, src []byte) string {
	nameNode := n.ChildByFieldName("name")
	if nameNode == nil {
		for i := 0; i < int(n.NamedChildCount()); i++ {
			ch := n.NamedChild(i)
			if ch.Type() == "constant" || ch.Type() == "identifier" {
				nameNode = ch
				break
			}
		}
	}
	if nameNode == nil {
		return ""
	}
	if nameNode.Type() == "scope_resolution" {
		if last := nameNode.ChildByFieldName("name"); last != nil {
			return string(src[last.StartByte():last.EndByte()])
		}
	}
	return string(src[nameNode.StartByte():nameNode.EndByte()])
}

func findBody(n *sitter.Node) *sitter.Node {
	if body := n.ChildByFieldName("body"); body != nil {
		return body
	}
	for i := 0; i < int(n.NamedChildCount()); i++ {
		if n.NamedChild(i).Type() == "body_statement" {
			return n.NamedChild(i)
		}
	}
	return n
}

func makeSymbol(path string, n *sitter.Node, src []byte, name string, kind symbol.Kind, container string) symbol.Symbol {
	lineStart := int(n.StartPoint().Row) + 1
	lineEnd := int(n.EndPoint().Row) + 1
	return symbol.Symbol{
		ID: symbol.ID{
			Language:  symbol.Ruby,
			Path:      path,
			Kind:      kind,
			Name:      name,
			Line:      lineStart,
			Container: container,
		},
		Language:  symbol.Ruby,
		Path:      path,
		Kind:      kind,
		Name:      name,
		LineStart: lineStart,
		LineEnd:   lineEnd,
		Container: container,
	}
}

func (a *Analyzer) References(path string, src []byte, fileSymbols []symbol.Symbol) ([]lang.RawReference, error) {
	tree, err := parse(src)
	if err != nil {
		return nil, fmt.Errorf("parsing ruby source %s: %w", path, err)
	}
	var refs []lang.RawReference
	walkRefs(tree.RootNode(), src, fileSymbols, &refs)
	return refs, nil
}

func walkRefs(n *sitter.Node, src []byte, fileSymbols []symbol.Symbol, out *[]lang.RawReference) {
	if n == nil {
		return
	}
	line := int(n.StartPoint().Row) + 1

	switch n.Type() {
	case "call":
		methodNode := n.ChildByFieldName("method")
		if methodNode != nil {
			name := string(src[methodNode.StartByte():methodNode.EndByte()])
			hint := ""
			if recv := n.ChildByFieldName("receiver"); recv != nil && recv.Type() == "constant" {
				hint = string(src[recv.StartByte():recv.EndByte()])
			}
			emit(out, fileSymbols, line, name, hint, symbol.Call)
		}
	case "identifier":
		name := string(src[n.StartByte():n.EndByte()])
		emit(out, fileSymbols, line, name, "", symbol.Call)
	case "constant":
		name := string(src[n.StartByte():n.EndByte()])
		emit(out, fileSymbols, line, name, "", symbol.Ref)
	}

	for i := 0; i < int(n.NamedChildCount()); i++ {
		walkRefs(n.NamedChild(i), src, fileSymbols, out)
	}
}

func emit(out *[]lang.RawReference, fileSymbols []symbol.Symbol, line int, name, hint string, kind symbol.RefKind) {
	enc := lang.Enclosing(fileSymbols, line)
	if enc == nil {
		return
	}
	*out = append(*out, lang.RawReference{
		From:         enc.ID,
		TargetName:   name,
		ReceiverHint: hint,
		Kind:         kind,
		Line:         line,
	})
}
