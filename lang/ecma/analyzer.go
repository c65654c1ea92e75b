// Package ecma analyzes JavaScript, TypeScript, and TSX with tree-sitter.
// The three languages share one grammar family close enough that a single
// walker handles all of them, selecting the tree-sitter grammar and
// language tag per variant — the same shape the teacher uses for JSX
// (jsx.Inspector wraps the javascript grammar; TypeScript/TSX add a
// handful of extra declaration node types the walker simply never matches
// when parsing plain JavaScript).
package ecma

import (
	"context"
	"fmt"

	sitter "github.com/smacker/go-tree-sitter"
	"github.com/smacker/go-tree-sitter/javascript"
	"github.com/smacker/go-tree-sitter/typescript/typescript"
	"github.com/smacker/go-tree-sitter/typescript/tsx"

	"github.com/viant/changeimpact/lang"
	"github.com/viant/changeimpact/symbol"
)

// Analyzer implements lang.Analyzer for one of JavaScript, TypeScript, or
// TSX, selected at construction time via the language tag.
type Analyzer struct {
	tag  symbol.Language
	gram *sitter.Language
}

func NewJavaScript() *Analyzer { return &Analyzer{tag: symbol.JavaScript, gram: javascript.GetLanguage()} }
func NewTypeScript() *Analyzer { return &Analyzer{tag: symbol.TypeScript, gram: typescript.GetLanguage()} }
func NewTSX() *Analyzer        { return &Analyzer{tag: symbol.TSX, gram: tsx.GetLanguage()} }

func (a *Analyzer) Language() symbol.Language { return a.tag }

func (a *Analyzer) parse(src []byte) (*sitter.Tree, error) {
	parser := sitter.NewParser()
	parser.SetLanguage(a.gram)
	return parser.ParseCtx(context.Background(), nil, src)
}

func (a *Analyzer) Symbols(path string, src []byte) ([]symbol.Symbol, lang.Stats, error) {
	tree, err := a.parse(src)
	if err != nil {
		return nil, lang.Stats{ParseErrors: 1}, nil
	}
	root := tree.RootNode()
	var stats lang.Stats
	if root.HasError() {
		stats.ParseErrors = 1
	}

	var syms []symbol.Symbol
	a.walkDecls(root, src, path, "", &syms)
	return syms, stats, nil
}

func (a *Analyzer) walkDecls(n *sitter.Node, src []byte, path, container string, out *[]symbol.Symbol) {
	if n == nil {
		return
	}
	switch n.Type() {
	case "function_declaration", "generator_function_declaration":
		if name := fieldText(n, "name", src); name != "" {
			*out = append(*out, makeSymbol(a.tag, path, n, src, name, symbol.KindFunc, ""))
		}
		return
	case "class_declaration", "class":
		name := fieldText(n, "name", src)
		if name == "" {
			break
		}
		*out = append(*out, makeSymbol(a.tag, path, n, src, name, symbol.KindClass, ""))
		if body := n.ChildByFieldName("body"); body != nil {
			for i := 0; i < int(body.NamedChildCount()); i++ {
				a.walkDecls(body.NamedChild(i), src, path, name, out)
			}
		}
		return
	case "method_definition":
		name := fieldText(n, "name", src)
		if name == "" || container == "" {
			break
		}
		*out = append(*out, makeSymbol(a.tag, path, n, src, name, symbol.KindMethod, container))
		return
	case "interface_declaration":
		if name := fieldText(n, "name", src); name != "" {
			*out = append(*out, makeSymbol(a.tag, path, n, src, name, symbol.KindInterface, ""))
		}
		return
	case "type_alias_declaration":
		if name := fieldText(n, "name", src); name != "" {
			*out = append(*out, makeSymbol(a.tag, path, n, src, name, symbol.KindType, ""))
		}
		return
	case "enum_declaration":
		if name := fieldText(n, "name", src); name != "" {
			*out = append(*out, makeSymbol(a.tag, path, n, src, name, symbol.KindEnum, ""))
		}
		return
	case "lexical_declaration", "variable_declaration":
		for i := 0; i < int(n.NamedChildCount()); i++ {
			decl := n.NamedChild(i)
			if decl.Type() != "variable_declarator" {
				continue
			}
			nameNode := decl.ChildByFieldName("name")
			valueNode := decl.ChildByFieldName("value")
			if nameNode == nil || valueNode == nil {
				continue
			}
			if valueNode.Type() == "arrow_function" || valueNode.Type() == "function" {
				name := string(src[nameNode.StartByte():nameNode.EndByte()])
				*out = append(*out, makeSymbol(a.tag, path, decl, src, name, symbol.KindFunc, ""))
			}
		}
		return
	}

	for i := 0; i < int(n.NamedChildCount()); i++ {
		a.walkDecls(n.NamedChild(i), src, path, container, out)
	}
}

func fieldText(n *sitter.Node, field string, src []byte) string {
	f := n.ChildByFieldName(field)
	if f == nil {
		return ""
	}
	return string(src[f.StartByte():f.EndByte()])
}

func makeSymbol(language symbol.Language, path string, n *sitter.Node, src []byte, name string, kind symbol.Kind, container string) symbol.Symbol {
	lineStart := int(n.StartPoint().Row) + 1
	lineEnd := int(n.EndPoint().Row) + 1
	return symbol.Symbol{
		ID: symbol.ID{
			Language:  language,
			Path:      path,
			Kind:      kind,
			Name:      name,
			Line:      lineStart,
			Container: container,
		},
		Language:  language,
		Path:      path,
		Kind:      kind,
		Name:      name,
		LineStart: lineStart,
		LineEnd:   lineEnd,
		Container: container,
	}
}

func (a *Analyzer) References(path string, src []byte, fileSymbols []symbol.Symbol) ([]lang.RawReference, error) {
	tree, err := a.parse(src)
	if err != nil {
		return nil, fmt.Errorf("parsing %s source %s: %w", a.tag, path, err)
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

	if n.Type() == "call_expression" || n.Type() == "new_expression" {
		if fn := n.ChildByFieldName("function"); fn != nil {
			if name, hint := calleeName(fn, src); name != "" {
				emit(out, fileSymbols, line, name, hint, symbol.Call)
			}
		} else if ctor := n.ChildByFieldName("constructor"); ctor != nil {
			if name, hint := calleeName(ctor, src); name != "" {
				emit(out, fileSymbols, line, name, hint, symbol.Call)
			}
		}
	}
	if n.Type() == "identifier" {
		name := string(src[n.StartByte():n.EndByte()])
		emit(out, fileSymbols, line, name, "", symbol.Ref)
	}

	for i := 0; i < int(n.NamedChildCount()); i++ {
		walkRefs(n.NamedChild(i), src, fileSymbols, out)
	}
}

// calleeName extracts the callee's identifier and, for `obj.method()`, a
// receiver-type hint when the object expression is itself a bare name
// that could plausibly be a type/constructor reference.
func calleeName(fn *sitter.Node, src []byte) (name, hint string) {
	switch fn.Type() {
	case "identifier":
		return string(src[fn.StartByte():fn.EndByte()]), ""
	case "member_expression":
		prop := fn.ChildByFieldName("property")
		obj := fn.ChildByFieldName("object")
		if prop == nil {
			return "", ""
		}
		name = string(src[prop.StartByte():prop.EndByte()])
		if obj != nil && obj.Type() == "identifier" {
			hint = string(src[obj.StartByte():obj.EndByte()])
		}
		return name, hint
	}
	return "", ""
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
