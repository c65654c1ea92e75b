// Package rust analyzes Rust source with tree-sitter, recovering fn,
// struct, enum, trait, impl-method, and mod declarations, plus call and
// type-reference sites. Modeled on the teacher's tree-sitter-driven
// declaration walk (golang_analyzer.go / jsx_analyzer.go), generalized to
// the Rust grammar.
package rust

import (
	"context"
	"fmt"
	"strings"

	sitter "github.com/smacker/go-tree-sitter"
	tsrust "github.com/smacker/go-tree-sitter/rust"

	"github.com/viant/changeimpact/lang"
	"github.com/viant/changeimpact/symbol"
)

// Analyzer implements lang.Analyzer for Rust.
type Analyzer struct{}

func New() *Analyzer { return &Analyzer{} }

func (*Analyzer) Language() symbol.Language { return symbol.Rust }

func parse(src []byte) (*sitter.Tree, error) {
	parser := sitter.NewParser()
	parser.SetLanguage(tsrust.GetLanguage())
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

// walkDecls recursively collects declarations. container is the enclosing
// type name for impl-block methods.
func walkDecls(n *sitter.Node, src []byte, path, container string, out *[]symbol.Symbol) {
	if n == nil {
		return
	}
	switch n.Type() {
	case "function_item":
		if name := fieldText(n, "name", src); name != "" {
			*out = append(*out, makeSymbol(path, n, src, name, containerKind(container), container))
		}
		return
	case "struct_item":
		if name := fieldText(n, "name", src); name != "" {
			*out = append(*out, makeSymbol(path, n, src, name, symbol.KindStruct, ""))
		}
	case "enum_item":
		if name := fieldText(n, "name", src); name != "" {
			*out = append(*out, makeSymbol(path, n, src, name, symbol.KindEnum, ""))
		}
	case "trait_item":
		if name := fieldText(n, "name", src); name != "" {
			*out = append(*out, makeSymbol(path, n, src, name, symbol.KindTrait, ""))
		}
	case "mod_item":
		if name := fieldText(n, "name", src); name != "" {
			*out = append(*out, makeSymbol(path, n, src, name, symbol.KindMod, ""))
		}
	case "impl_item":
		target := implTarget(n, src)
		if body := n.ChildByFieldName("body"); body != nil {
			for i := 0; i < int(body.NamedChildCount()); i++ {
				walkDecls(body.NamedChild(i), src, path, target, out)
			}
		}
		return
	}

	for i := 0; i < int(n.NamedChildCount()); i++ {
		walkDecls(n.NamedChild(i), src, path, container, out)
	}
}

func containerKind(container string) symbol.Kind {
	if container == "" {
		return symbol.KindFunc
	}
	return symbol.KindMethod
}

// implTarget returns the name of the type an `impl` block targets, i.e.
// the `Type` in `impl Type` or `impl Trait for Type`.
func implTarget(n *sitter.Node, src []byte) string {
	typeNode := n.ChildByFieldName("type")
	if typeNode == nil {
		return ""
	}
	return baseTypeName(typeNode, src)
}

// baseTypeName strips generic arguments and reference/pointer sigils to
// recover the bare type name used as a method container.
func baseTypeName(n *sitter.Node, src []byte) string {
	switch n.Type() {
	case "generic_type":
		if t := n.ChildByFieldName("type"); t != nil {
			return baseTypeName(t, src)
		}
	case "reference_type":
		if t := n.ChildByFieldName("type"); t != nil {
			return baseTypeName(t, src)
		}
	}
	return strings.TrimSpace(string(src[n.StartByte():n.EndByte()]))
}

func fieldText(n *sitter.Node, field string, src []byte) string {
	f := n.ChildByFieldName(field)
	if f == nil {
		return ""
	}
	return string(src[f.StartByte():f.EndByte()])
}

func makeSymbol(path string, n *sitter.Node, src []byte, name string, kind symbol.Kind, container string) symbol.Symbol {
	lineStart := int(n.StartPoint().Row) + 1
	lineEnd := int(n.EndPoint().Row) + 1
	return symbol.Symbol{
		ID: symbol.ID{
			Language:  symbol.Rust,
			Path:      path,
			Kind:      kind,
			Name:      name,
			Line:      lineStart,
			Container: container,
		},
		Language:  symbol.Rust,
		Path:      path,
		Kind:      kind,
		Name:      name,
		LineStart: lineStart,
		LineEnd:   lineEnd,
		Container: container,
	}
}

// References walks the tree again collecting call and type-reference
// sites, attributing each to the smallest fileSymbols range containing it.
func (a *Analyzer) References(path string, src []byte, fileSymbols []symbol.Symbol) ([]lang.RawReference, error) {
	tree, err := parse(src)
	if err != nil {
		return nil, fmt.Errorf("parsing rust source %s: %w", path, err)
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
	case "call_expression":
		if fn := n.ChildByFieldName("function"); fn != nil {
			if name, hint := calleeName(fn, src); name != "" {
				emit(out, fileSymbols, line, name, hint, symbol.Call)
			}
		}
	case "type_identifier":
		name := string(src[n.StartByte():n.EndByte()])
		emit(out, fileSymbols, line, name, "", symbol.Ref)
	}

	for i := 0; i < int(n.NamedChildCount()); i++ {
		walkRefs(n.NamedChild(i), src, fileSymbols, out)
	}
}

// calleeName extracts the target name and, for a qualified call such as
// `C::new()`, the receiver-type hint C.
func calleeName(fn *sitter.Node, src []byte) (name, hint string) {
	switch fn.Type() {
	case "identifier":
		return string(src[fn.StartByte():fn.EndByte()]), ""
	case "scoped_identifier":
		path := fn.ChildByFieldName("path")
		nameNode := fn.ChildByFieldName("name")
		if nameNode == nil {
			return "", ""
		}
		name = string(src[nameNode.StartByte():nameNode.EndByte()])
		if path != nil {
			hint = baseTypeName(path, src)
		}
		return name, hint
	case "field_expression":
		field := fn.ChildByFieldName("field")
		if field == nil {
			return "", ""
		}
		name = string(src[field.StartByte():field.EndByte()])
		if value := fn.ChildByFieldName("value"); value != nil && value.Type() == "identifier" {
			// The receiver is usually a variable, not a type name, so this
			// rarely matches anything in the symbol table; Resolve's step 1
			// then keeps every candidate, though any non-empty hint still
			// turns off step 4's fn-over-method preference (§4.3).
			hint = string(src[value.StartByte():value.EndByte()])
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
