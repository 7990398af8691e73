// Package java extracts constructs from Java source using the tree-sitter
// Java grammar. Method qualnames append a parenthesized parameter-type list
// so overloads stay distinguishable. All Java node-type knowledge is
// confined to this package.
package java

import (
	"context"
	"strings"

	sitter "github.com/smacker/go-tree-sitter"
	tsjava "github.com/smacker/go-tree-sitter/java"

	"codepin/internal/construct"
	"codepin/internal/errors"
	"codepin/internal/fingerprint"
)

// Indexer is the Java construct indexer
type Indexer struct{}

// New creates a Java indexer
func New() *Indexer {
	return &Indexer{}
}

// Language returns the language tag
func (ix *Indexer) Language() string { return "java" }

// Extensions returns the handled file extensions
func (ix *Indexer) Extensions() []string { return []string{".java"} }

// ContainerKinds returns the kinds that may carry members in Java
func (ix *Indexer) ContainerKinds() []construct.Kind {
	return []construct.Kind{construct.KindClass, construct.KindInterface, construct.KindEnum}
}

// IndexFile extracts every construct in order of appearance
func (ix *Indexer) IndexFile(ctx context.Context, source []byte, path string) ([]construct.Construct, error) {
	parser := sitter.NewParser()
	parser.SetLanguage(tsjava.GetLanguage())

	tree, err := parser.ParseCtx(ctx, nil, source)
	if err != nil {
		return nil, errors.New(errors.ParseError, "java parse failed for "+path, err)
	}
	defer tree.Close()

	root := tree.RootNode()

	w := &walker{source: source, path: path}
	w.walkTypeList(root, "")

	if root.HasError() {
		for i := range w.out {
			w.out[i].HasParseError = true
		}
	}

	return w.out, nil
}

type walker struct {
	source []byte
	path   string
	out    []construct.Construct
}

// walkTypeList visits type declarations at the top level or inside a body
func (w *walker) walkTypeList(node *sitter.Node, prefix string) {
	for i := 0; i < int(node.NamedChildCount()); i++ {
		child := node.NamedChild(i)
		if child == nil {
			continue
		}
		switch child.Type() {
		case "class_declaration":
			w.addType(child, prefix, construct.KindClass)
		case "interface_declaration":
			w.addType(child, prefix, construct.KindInterface)
		case "enum_declaration":
			w.addType(child, prefix, construct.KindEnum)
		}
	}
}

// addType extracts a class/interface/enum and recurses into its body
func (w *walker) addType(node *sitter.Node, prefix string, kind construct.Kind) {
	nameNode := node.ChildByFieldName("name")
	if nameNode == nil {
		return
	}
	name := nameNode.Content(w.source)
	qualname := join(prefix, name)

	mods := modifiersOf(node)
	annotations := annotationTexts(mods, w.source)
	bases, basesText := inheritance(node, w.source)

	body := ""
	var bodyNode *sitter.Node
	if b := node.ChildByFieldName("body"); b != nil {
		bodyNode = b
		body = b.Content(w.source)
	}

	w.out = append(w.out, construct.Construct{
		Path:           w.path,
		Kind:           kind,
		Qualname:       qualname,
		StartLine:      int(node.StartPoint().Row) + 1,
		EndLine:        int(node.EndPoint().Row) + 1,
		DefinitionLine: int(nameNode.StartPoint().Row) + 1,
		InterfaceHash:  fingerprint.InterfaceHash(kind, basesText),
		BodyHash:       fingerprint.BodyHash(body),
		Private:        hasModifier(mods, w.source, "private"),
		Bases:          bases,
		Decorators:     annotations,
	})

	if bodyNode == nil {
		return
	}
	if kind == construct.KindEnum {
		w.walkEnumBody(bodyNode, qualname)
	} else {
		w.walkMembers(bodyNode, qualname)
	}
}

// walkMembers visits a class_body or interface_body
func (w *walker) walkMembers(body *sitter.Node, prefix string) {
	for i := 0; i < int(body.NamedChildCount()); i++ {
		node := body.NamedChild(i)
		if node == nil {
			continue
		}
		switch node.Type() {
		case "field_declaration", "constant_declaration":
			w.addFields(node, prefix)
		case "method_declaration":
			w.addMethod(node, prefix, false)
		case "constructor_declaration":
			w.addMethod(node, prefix, true)
		case "class_declaration":
			w.addType(node, prefix, construct.KindClass)
		case "interface_declaration":
			w.addType(node, prefix, construct.KindInterface)
		case "enum_declaration":
			w.addType(node, prefix, construct.KindEnum)
		}
	}
}

// walkEnumBody visits enum constants, then any trailing member declarations
func (w *walker) walkEnumBody(body *sitter.Node, prefix string) {
	for i := 0; i < int(body.NamedChildCount()); i++ {
		node := body.NamedChild(i)
		if node == nil {
			continue
		}
		switch node.Type() {
		case "enum_constant":
			w.addEnumConstant(node, prefix)
		case "enum_body_declarations":
			w.walkMembers(node, prefix)
		}
	}
}

// addFields extracts one construct per declarator in a field declaration,
// so `int a = 1, b = 2;` yields two fields sharing a type
func (w *walker) addFields(node *sitter.Node, prefix string) {
	typeNode := node.ChildByFieldName("type")
	typeText := ""
	if typeNode != nil {
		typeText = typeNode.Content(w.source)
	}

	mods := modifiersOf(node)
	annotations := annotationTexts(mods, w.source)
	private := hasModifier(mods, w.source, "private")

	for i := 0; i < int(node.NamedChildCount()); i++ {
		decl := node.NamedChild(i)
		if decl == nil || decl.Type() != "variable_declarator" {
			continue
		}
		nameNode := decl.ChildByFieldName("name")
		if nameNode == nil {
			continue
		}

		value := ""
		if v := decl.ChildByFieldName("value"); v != nil {
			value = v.Content(w.source)
		}

		w.out = append(w.out, construct.Construct{
			Path:           w.path,
			Kind:           construct.KindField,
			Qualname:       join(prefix, nameNode.Content(w.source)),
			StartLine:      int(node.StartPoint().Row) + 1,
			EndLine:        int(node.EndPoint().Row) + 1,
			DefinitionLine: int(nameNode.StartPoint().Row) + 1,
			InterfaceHash:  fingerprint.InterfaceHash(construct.KindField, typeText),
			BodyHash:       fingerprint.BodyHash(value),
			Private:        private,
			Decorators:     annotations,
		})
	}
}

// addMethod extracts a method or constructor. The qualname carries the
// parameter-type list: Order.total(int,String).
func (w *walker) addMethod(node *sitter.Node, prefix string, isConstructor bool) {
	nameNode := node.ChildByFieldName("name")
	if nameNode == nil {
		return
	}
	name := nameNode.Content(w.source)

	paramsNode := node.ChildByFieldName("parameters")
	paramsText := ""
	if paramsNode != nil {
		paramsText = paramsNode.Content(w.source)
	}
	paramTypes := parameterTypes(paramsNode, w.source)
	qualname := join(prefix, name) + "(" + strings.Join(paramTypes, ",") + ")"

	returnType := ""
	if !isConstructor {
		if rt := node.ChildByFieldName("type"); rt != nil {
			returnType = rt.Content(w.source)
		}
	}

	sig := paramsText
	if returnType != "" {
		sig += " : " + returnType
	}

	mods := modifiersOf(node)
	annotations := annotationTexts(mods, w.source)

	body := ""
	if b := node.ChildByFieldName("body"); b != nil {
		body = b.Content(w.source)
	}

	w.out = append(w.out, construct.Construct{
		Path:           w.path,
		Kind:           construct.KindMethod,
		Qualname:       qualname,
		StartLine:      int(node.StartPoint().Row) + 1,
		EndLine:        int(node.EndPoint().Row) + 1,
		DefinitionLine: int(nameNode.StartPoint().Row) + 1,
		InterfaceHash:  fingerprint.InterfaceHash(construct.KindMethod, sig),
		BodyHash:       fingerprint.BodyHash(body),
		Private:        hasModifier(mods, w.source, "private"),
		Decorators:     annotations,
	})
}

// addEnumConstant extracts one enum constant as a field member
func (w *walker) addEnumConstant(node *sitter.Node, prefix string) {
	nameNode := node.ChildByFieldName("name")
	if nameNode == nil {
		return
	}

	args := ""
	if a := node.ChildByFieldName("arguments"); a != nil {
		args = a.Content(w.source)
	}

	w.out = append(w.out, construct.Construct{
		Path:           w.path,
		Kind:           construct.KindField,
		Qualname:       join(prefix, nameNode.Content(w.source)),
		StartLine:      int(node.StartPoint().Row) + 1,
		EndLine:        int(node.EndPoint().Row) + 1,
		DefinitionLine: int(nameNode.StartPoint().Row) + 1,
		InterfaceHash:  fingerprint.InterfaceHash(construct.KindField, ""),
		BodyHash:       fingerprint.BodyHash(args),
	})
}

// parameterTypes returns the declared type of each formal parameter
func parameterTypes(params *sitter.Node, source []byte) []string {
	if params == nil {
		return nil
	}
	var types []string
	for i := 0; i < int(params.NamedChildCount()); i++ {
		p := params.NamedChild(i)
		if p == nil {
			continue
		}
		switch p.Type() {
		case "formal_parameter":
			if t := p.ChildByFieldName("type"); t != nil {
				types = append(types, collapse(t.Content(source)))
			}
		case "spread_parameter":
			// spread_parameter has no type field; its first named child is
			// the element type
			if t := p.NamedChild(0); t != nil {
				types = append(types, collapse(t.Content(source))+"...")
			}
		}
	}
	return types
}

// inheritance collects superclass/interface names and the raw clause text
func inheritance(node *sitter.Node, source []byte) ([]string, string) {
	var bases []string
	var clauses []string

	if sc := node.ChildByFieldName("superclass"); sc != nil {
		clauses = append(clauses, sc.Content(source))
		bases = append(bases, typeNames(sc, source)...)
	}
	if ifs := node.ChildByFieldName("interfaces"); ifs != nil {
		clauses = append(clauses, ifs.Content(source))
		bases = append(bases, typeNames(ifs, source)...)
	}
	// Interface extends-list is an unnamed-field child
	for i := 0; i < int(node.NamedChildCount()); i++ {
		child := node.NamedChild(i)
		if child != nil && child.Type() == "extends_interfaces" {
			clauses = append(clauses, child.Content(source))
			bases = append(bases, typeNames(child, source)...)
		}
	}

	return bases, strings.Join(clauses, " ")
}

// typeNames pulls type identifiers out of an extends/implements clause
func typeNames(node *sitter.Node, source []byte) []string {
	var names []string
	var walk func(*sitter.Node)
	walk = func(n *sitter.Node) {
		if n == nil {
			return
		}
		switch n.Type() {
		case "type_identifier", "scoped_type_identifier":
			names = append(names, n.Content(source))
			return
		case "generic_type":
			// Name only; type arguments belong to the signature text
			if base := n.NamedChild(0); base != nil {
				walk(base)
			}
			return
		}
		for i := 0; i < int(n.NamedChildCount()); i++ {
			walk(n.NamedChild(i))
		}
	}
	walk(node)
	return names
}

// modifiersOf finds the modifiers child of a declaration, if any
func modifiersOf(node *sitter.Node) *sitter.Node {
	for i := 0; i < int(node.NamedChildCount()); i++ {
		child := node.NamedChild(i)
		if child != nil && child.Type() == "modifiers" {
			return child
		}
	}
	return nil
}

// annotationTexts returns the verbatim annotations from a modifiers node
func annotationTexts(mods *sitter.Node, source []byte) []string {
	if mods == nil {
		return nil
	}
	var out []string
	for i := 0; i < int(mods.NamedChildCount()); i++ {
		child := mods.NamedChild(i)
		if child == nil {
			continue
		}
		switch child.Type() {
		case "marker_annotation", "annotation":
			out = append(out, child.Content(source))
		}
	}
	return out
}

// hasModifier reports whether the modifiers node carries the given keyword
func hasModifier(mods *sitter.Node, source []byte, keyword string) bool {
	if mods == nil {
		return false
	}
	for i := 0; i < int(mods.ChildCount()); i++ {
		child := mods.Child(i)
		if child != nil && child.Content(source) == keyword {
			return true
		}
	}
	return false
}

func join(prefix, name string) string {
	if prefix == "" {
		return name
	}
	return prefix + "." + name
}

// collapse removes all whitespace from a type expression so overload
// qualnames stay stable however the parameter list is formatted,
// e.g. "Map< String , int >" and "Map<String,int>" both yield the same id
func collapse(s string) string {
	return strings.Join(strings.Fields(s), "")
}
