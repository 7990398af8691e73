// Package python extracts constructs from Python source using the
// tree-sitter Python grammar. All Python node-type knowledge is confined to
// this package; callers only ever see the normalized construct schema.
package python

import (
	"context"
	"strings"

	sitter "github.com/smacker/go-tree-sitter"
	tspython "github.com/smacker/go-tree-sitter/python"

	"codepin/internal/construct"
	"codepin/internal/errors"
	"codepin/internal/fingerprint"
)

// enumBases are the enum.Enum family superclasses that flip a class to the
// enum kind. Matched on the last attribute segment so both "Enum" and
// "enum.Enum" qualify.
var enumBases = map[string]bool{
	"Enum":    true,
	"IntEnum": true,
	"StrEnum": true,
	"Flag":    true,
	"IntFlag": true,
}

// Indexer is the Python construct indexer
type Indexer struct{}

// New creates a Python indexer
func New() *Indexer {
	return &Indexer{}
}

// Language returns the language tag
func (ix *Indexer) Language() string { return "python" }

// Extensions returns the handled file extensions
func (ix *Indexer) Extensions() []string { return []string{".py"} }

// ContainerKinds returns the kinds that may carry members in Python
func (ix *Indexer) ContainerKinds() []construct.Kind {
	return []construct.Kind{construct.KindClass, construct.KindEnum}
}

// IndexFile extracts every construct in order of appearance. Recoverable
// syntax damage marks the extracted constructs with HasParseError instead
// of failing the file.
func (ix *Indexer) IndexFile(ctx context.Context, source []byte, path string) ([]construct.Construct, error) {
	parser := sitter.NewParser()
	parser.SetLanguage(tspython.GetLanguage())

	tree, err := parser.ParseCtx(ctx, nil, source)
	if err != nil {
		return nil, errors.New(errors.ParseError, "python parse failed for "+path, err)
	}
	defer tree.Close()

	root := tree.RootNode()

	w := &walker{source: source, path: path, seen: make(map[string]bool)}
	w.walkBody(root, "", "")

	if root.HasError() {
		for i := range w.out {
			w.out[i].HasParseError = true
		}
	}

	return w.out, nil
}

// walker accumulates constructs during a scope walk
type walker struct {
	source []byte
	path   string
	out    []construct.Construct
	seen   map[string]bool // (kind|qualname) pairs, first occurrence wins
}

// walkBody visits the statements of a module or class body. prefix is the
// qualname of the enclosing container ("" at module level); containerKind
// distinguishes module-level from class-level extraction.
func (w *walker) walkBody(body *sitter.Node, prefix string, containerKind string) {
	for i := 0; i < int(body.NamedChildCount()); i++ {
		node := body.NamedChild(i)
		if node == nil {
			continue
		}

		switch node.Type() {
		case "function_definition":
			w.addFunction(node, nil, prefix, containerKind)
		case "class_definition":
			w.addClass(node, nil, prefix)
		case "decorated_definition":
			decorators, def := splitDecorated(node)
			if def == nil {
				continue
			}
			switch def.Type() {
			case "function_definition":
				w.addFunction(def, decorators, prefix, containerKind)
			case "class_definition":
				w.addClass(def, decorators, prefix)
			}
		case "expression_statement":
			if assign := namedChildOfType(node, "assignment"); assign != nil {
				w.addAssignment(assign, prefix, containerKind)
			}
		}
	}
}

func (w *walker) addFunction(node *sitter.Node, decorators []*sitter.Node, prefix, containerKind string) {
	nameNode := node.ChildByFieldName("name")
	if nameNode == nil {
		return
	}
	name := nameNode.Content(w.source)
	qualname := join(prefix, name)

	kind := construct.KindFunction
	if containerKind != "" {
		kind = construct.KindMethod
	}

	params := ""
	if p := node.ChildByFieldName("parameters"); p != nil {
		params = p.Content(w.source)
	}
	sig := params
	if rt := node.ChildByFieldName("return_type"); rt != nil {
		sig += " -> " + rt.Content(w.source)
	}

	body := ""
	if b := node.ChildByFieldName("body"); b != nil {
		body = b.Content(w.source)
	}

	w.add(construct.Construct{
		Path:           w.path,
		Kind:           kind,
		Qualname:       qualname,
		StartLine:      startLine(node, decorators),
		EndLine:        int(node.EndPoint().Row) + 1,
		DefinitionLine: int(node.StartPoint().Row) + 1,
		InterfaceHash:  fingerprint.InterfaceHash(kind, sig),
		BodyHash:       fingerprint.BodyHash(body),
		Private:        isPrivateName(name),
		Decorators:     decoratorTexts(decorators, w.source),
	})
}

func (w *walker) addClass(node *sitter.Node, decorators []*sitter.Node, prefix string) {
	nameNode := node.ChildByFieldName("name")
	if nameNode == nil {
		return
	}
	name := nameNode.Content(w.source)
	qualname := join(prefix, name)

	bases, basesText := superclasses(node, w.source)
	kind := construct.KindClass
	if isEnumClass(bases) {
		kind = construct.KindEnum
	}

	body := ""
	var bodyNode *sitter.Node
	if b := node.ChildByFieldName("body"); b != nil {
		bodyNode = b
		body = b.Content(w.source)
	}

	w.add(construct.Construct{
		Path:           w.path,
		Kind:           kind,
		Qualname:       qualname,
		StartLine:      startLine(node, decorators),
		EndLine:        int(node.EndPoint().Row) + 1,
		DefinitionLine: int(node.StartPoint().Row) + 1,
		InterfaceHash:  fingerprint.InterfaceHash(kind, basesText),
		BodyHash:       fingerprint.BodyHash(body),
		Private:        isPrivateName(name),
		Bases:          bases,
		Decorators:     decoratorTexts(decorators, w.source),
	})

	if bodyNode != nil {
		w.walkBody(bodyNode, qualname, string(kind))
	}
}

func (w *walker) addAssignment(node *sitter.Node, prefix, containerKind string) {
	left := node.ChildByFieldName("left")
	if left == nil || left.Type() != "identifier" {
		// Tuple targets, attribute targets and subscripts are not
		// subscribable constructs
		return
	}
	name := left.Content(w.source)
	qualname := join(prefix, name)

	kind := construct.KindVariable
	if containerKind != "" {
		kind = construct.KindField
	}

	sig := ""
	if tn := node.ChildByFieldName("type"); tn != nil {
		sig = tn.Content(w.source)
	}

	value := ""
	if rn := node.ChildByFieldName("right"); rn != nil {
		value = rn.Content(w.source)
	}

	w.add(construct.Construct{
		Path:           w.path,
		Kind:           kind,
		Qualname:       qualname,
		StartLine:      int(node.StartPoint().Row) + 1,
		EndLine:        int(node.EndPoint().Row) + 1,
		DefinitionLine: int(node.StartPoint().Row) + 1,
		InterfaceHash:  fingerprint.InterfaceHash(kind, sig),
		BodyHash:       fingerprint.BodyHash(value),
		Private:        isPrivateName(name),
	})
}

// add appends a construct unless the same (kind, qualname) was already
// extracted in this parse; reassignments keep the first occurrence so one
// parse resolves a qualname to at most one construct per kind.
func (w *walker) add(c construct.Construct) {
	key := string(c.Kind) + "|" + c.Qualname
	if w.seen[key] {
		return
	}
	w.seen[key] = true
	w.out = append(w.out, c)
}

// splitDecorated separates a decorated_definition into its decorator nodes
// and the wrapped definition
func splitDecorated(node *sitter.Node) ([]*sitter.Node, *sitter.Node) {
	var decorators []*sitter.Node
	for i := 0; i < int(node.NamedChildCount()); i++ {
		child := node.NamedChild(i)
		if child != nil && child.Type() == "decorator" {
			decorators = append(decorators, child)
		}
	}
	return decorators, node.ChildByFieldName("definition")
}

// superclasses returns the base names and the raw superclass list text
func superclasses(classNode *sitter.Node, source []byte) ([]string, string) {
	sup := classNode.ChildByFieldName("superclasses")
	if sup == nil {
		return nil, ""
	}

	var bases []string
	for i := 0; i < int(sup.NamedChildCount()); i++ {
		arg := sup.NamedChild(i)
		if arg == nil {
			continue
		}
		switch arg.Type() {
		case "identifier", "attribute":
			bases = append(bases, arg.Content(source))
		}
	}
	return bases, sup.Content(source)
}

// isEnumClass reports whether any base resolves to the enum.Enum family
func isEnumClass(bases []string) bool {
	for _, b := range bases {
		last := b
		if i := strings.LastIndexByte(b, '.'); i >= 0 {
			last = b[i+1:]
		}
		if enumBases[last] {
			return true
		}
	}
	return false
}

func decoratorTexts(decorators []*sitter.Node, source []byte) []string {
	if len(decorators) == 0 {
		return nil
	}
	out := make([]string, 0, len(decorators))
	for _, d := range decorators {
		out = append(out, d.Content(source))
	}
	return out
}

// startLine is the first decorator line when decorators exist, else the
// definition line
func startLine(node *sitter.Node, decorators []*sitter.Node) int {
	if len(decorators) > 0 {
		return int(decorators[0].StartPoint().Row) + 1
	}
	return int(node.StartPoint().Row) + 1
}

func namedChildOfType(node *sitter.Node, nodeType string) *sitter.Node {
	for i := 0; i < int(node.NamedChildCount()); i++ {
		child := node.NamedChild(i)
		if child != nil && child.Type() == nodeType {
			return child
		}
	}
	return nil
}

// isPrivateName follows the Python convention: a leading underscore marks a
// conventionally-private name
func isPrivateName(name string) bool {
	return strings.HasPrefix(name, "_")
}

func join(prefix, name string) string {
	if prefix == "" {
		return name
	}
	return prefix + "." + name
}
