package scope

import (
	sitter "github.com/tree-sitter/go-tree-sitter"
)

// handler processes one node kind. fn is the nearest function scope, block
// the nearest block scope.
type handler func(w *walker, n *sitter.Node, fn, block *Scope, target Target)

// handlers is keyed by tree-sitter node kind. Kinds without an entry are
// walked structurally.
var handlers map[string]handler

func init() {
	handlers = map[string]handler{
		"identifier":                            (*walker).identifier,
		"shorthand_property_identifier_pattern": (*walker).identifier,
		"shorthand_property_identifier":         (*walker).shorthandProperty,

		// Never references.
		"property_identifier":         skip,
		"private_property_identifier": skip,
		"statement_identifier":        skip,
		"comment":                     skip,
		"hash_bang_line":              skip,

		"variable_declaration": declaration(FunctionScope),
		"lexical_declaration":  declaration(BlockScope),
		"variable_declarator":  (*walker).declarator,

		"pair_pattern":              (*walker).pairPattern,
		"object_assignment_pattern": (*walker).leftTargetRightUsage,
		"assignment_pattern":        (*walker).leftTargetRightUsage,
		"computed_property_name":    (*walker).usageChildren,

		"assignment_expression":           (*walker).leftTargetRightUsage,
		"augmented_assignment_expression": (*walker).leftTargetRightUsage,
		"binary_expression":               (*walker).leftTargetRightUsage,

		"member_expression":    (*walker).memberExpression,
		"subscript_expression": (*walker).usageChildren,

		"function_declaration":           (*walker).functionDeclaration,
		"generator_function_declaration": (*walker).functionDeclaration,
		"function_expression":            (*walker).functionExpression,
		"function":                       (*walker).functionExpression,
		"generator_function":             (*walker).functionExpression,
		"arrow_function":                 (*walker).arrowFunction,
		"method_definition":              (*walker).methodDefinition,

		"class_declaration": (*walker).classDeclaration,
		"class":             (*walker).classExpression,

		"statement_block":  (*walker).blockStatement,
		"for_statement":    (*walker).blockStatement,
		"for_in_statement": (*walker).forInStatement,
		"switch_statement": (*walker).switchStatement,
		"catch_clause":     (*walker).catchClause,

		"import_statement": (*walker).importStatement,
		"export_statement": (*walker).exportStatement,
	}
}

type walker struct {
	source []byte
	// top is the program scope; imports bind there.
	top *Scope
}

// Resolve walks root once and returns its free variables. Every reference
// list is ordered by source position. Unknown node kinds never fail the walk.
func Resolve(root *sitter.Node, source []byte) FreeVariables {
	top := NewScope()
	if root == nil {
		return top.Negate()
	}
	w := &walker{source: source, top: top}
	if root.Kind() == "program" {
		w.children(root, top, top, None)
	} else {
		w.walk(root, top, top, None)
	}
	free := top.Negate()
	free.sortByPosition()
	return free
}

func (w *walker) walk(n *sitter.Node, fn, block *Scope, target Target) {
	if n == nil {
		return
	}
	if h, ok := handlers[n.Kind()]; ok {
		h(w, n, fn, block, target)
		return
	}
	w.children(n, fn, block, target)
}

func (w *walker) children(n *sitter.Node, fn, block *Scope, target Target) {
	if n == nil {
		return
	}
	for i := uint(0); i < n.NamedChildCount(); i++ {
		w.walk(n.NamedChild(i), fn, block, target)
	}
}

func (w *walker) field(n *sitter.Node, name string, fn, block *Scope, target Target) {
	w.walk(n.ChildByFieldName(name), fn, block, target)
}

func (w *walker) text(n *sitter.Node) string {
	return n.Utf8Text(w.source)
}

func (w *walker) reference(n *sitter.Node, name string) Reference {
	pos := n.StartPosition()
	return Reference{
		Name:      name,
		StartByte: int(n.StartByte()),
		EndByte:   int(n.EndByte()),
		Line:      int(pos.Row) + 1,
		Column:    int(pos.Column),
	}
}

func skip(*walker, *sitter.Node, *Scope, *Scope, Target) {}

func (w *walker) identifier(n *sitter.Node, fn, block *Scope, target Target) {
	name := w.text(n)
	switch target {
	case FunctionScope:
		fn.Declare(name)
	case BlockScope:
		block.Declare(name)
	default:
		block.Use(w.reference(n, name))
	}
}

// shorthandProperty is `{a}` in an object literal, always a read of a.
func (w *walker) shorthandProperty(n *sitter.Node, fn, block *Scope, _ Target) {
	block.Use(w.reference(n, w.text(n)))
}

func (w *walker) usageChildren(n *sitter.Node, fn, block *Scope, _ Target) {
	w.children(n, fn, block, None)
}

func declaration(target Target) handler {
	return func(w *walker, n *sitter.Node, fn, block *Scope, _ Target) {
		for i := uint(0); i < n.NamedChildCount(); i++ {
			child := n.NamedChild(i)
			if child.Kind() == "variable_declarator" {
				w.declarator(child, fn, block, target)
				continue
			}
			w.walk(child, fn, block, None)
		}
	}
}

func (w *walker) declarator(n *sitter.Node, fn, block *Scope, target Target) {
	w.field(n, "name", fn, block, target)
	w.field(n, "value", fn, block, None)
}

// pairPattern is `key: pattern` inside an object pattern. Only a computed
// key is read.
func (w *walker) pairPattern(n *sitter.Node, fn, block *Scope, target Target) {
	if key := n.ChildByFieldName("key"); key != nil && key.Kind() == "computed_property_name" {
		w.walk(key, fn, block, None)
	}
	w.field(n, "value", fn, block, target)
}

func (w *walker) leftTargetRightUsage(n *sitter.Node, fn, block *Scope, target Target) {
	w.field(n, "left", fn, block, target)
	w.field(n, "right", fn, block, None)
}

func (w *walker) memberExpression(n *sitter.Node, fn, block *Scope, _ Target) {
	w.field(n, "object", fn, block, None)
}

func (w *walker) functionDeclaration(n *sitter.Node, fn, block *Scope, _ Target) {
	if name := n.ChildByFieldName("name"); name != nil {
		block.Declare(w.text(name))
	}
	w.function(n, block, "", true)
}

func (w *walker) functionExpression(n *sitter.Node, fn, block *Scope, _ Target) {
	self := ""
	if name := n.ChildByFieldName("name"); name != nil {
		self = w.text(name)
	}
	w.function(n, block, self, true)
}

func (w *walker) arrowFunction(n *sitter.Node, fn, block *Scope, _ Target) {
	w.function(n, block, "", false)
}

func (w *walker) methodDefinition(n *sitter.Node, fn, block *Scope, _ Target) {
	if name := n.ChildByFieldName("name"); name != nil && name.Kind() == "computed_property_name" {
		w.walk(name, fn, block, None)
	}
	for i := uint(0); i < n.NamedChildCount(); i++ {
		if child := n.NamedChild(i); child.Kind() == "decorator" {
			w.walk(child, fn, block, None)
		}
	}
	w.function(n, block, "", true)
}

// function opens a scope holding the parameters, the optional self name and
// arguments, walks the body inside it and merges what stays free into parent.
func (w *walker) function(n *sitter.Node, parent *Scope, self string, arguments bool) {
	inner := NewScope()
	if self != "" {
		inner.Declare(self)
	}
	if arguments {
		inner.Declare("arguments")
	}
	w.children(n.ChildByFieldName("parameters"), inner, inner, BlockScope)
	w.field(n, "parameter", inner, inner, BlockScope)

	if body := n.ChildByFieldName("body"); body != nil {
		if body.Kind() == "statement_block" {
			w.children(body, inner, inner, None)
		} else {
			w.walk(body, inner, inner, None)
		}
	}
	parent.Merge(inner.Negate())
}

func (w *walker) classDeclaration(n *sitter.Node, fn, block *Scope, _ Target) {
	if name := n.ChildByFieldName("name"); name != nil {
		block.Declare(w.text(name))
	}
	w.class(n, fn, block, "")
}

func (w *walker) classExpression(n *sitter.Node, fn, block *Scope, _ Target) {
	self := ""
	if name := n.ChildByFieldName("name"); name != nil {
		self = w.text(name)
	}
	w.class(n, fn, block, self)
}

// class resolves the heritage in the enclosing scope and the body in its own
// scope, which is also the function scope of static blocks.
func (w *walker) class(n *sitter.Node, fn, block *Scope, self string) {
	inner := NewScope()
	if self != "" {
		inner.Declare(self)
	}
	for i := uint(0); i < n.NamedChildCount(); i++ {
		child := n.NamedChild(i)
		switch child.Kind() {
		case "class_heritage", "decorator":
			w.children(child, fn, block, None)
		case "class_body":
			w.children(child, inner, inner, None)
		}
	}
	block.Merge(inner.Negate())
}

func (w *walker) blockStatement(n *sitter.Node, fn, block *Scope, _ Target) {
	inner := NewScope()
	w.children(n, fn, inner, None)
	block.Merge(inner.Negate())
}

// forInStatement covers for-in and for-of. A var head hoists to the function,
// let/const stay in the loop, and a bare target keeps the current target.
func (w *walker) forInStatement(n *sitter.Node, fn, block *Scope, target Target) {
	inner := NewScope()
	leftTarget := target
	if kind := n.ChildByFieldName("kind"); kind != nil {
		if w.text(kind) == "var" {
			leftTarget = FunctionScope
		} else {
			leftTarget = BlockScope
		}
	}
	w.field(n, "left", fn, inner, leftTarget)
	w.field(n, "value", fn, inner, None)
	w.field(n, "right", fn, inner, None)
	w.field(n, "body", fn, inner, None)
	block.Merge(inner.Negate())
}

func (w *walker) switchStatement(n *sitter.Node, fn, block *Scope, _ Target) {
	w.field(n, "value", fn, block, None)
	inner := NewScope()
	w.children(n.ChildByFieldName("body"), fn, inner, None)
	block.Merge(inner.Negate())
}

func (w *walker) catchClause(n *sitter.Node, fn, block *Scope, _ Target) {
	inner := NewScope()
	w.field(n, "parameter", fn, inner, BlockScope)
	w.children(n.ChildByFieldName("body"), fn, inner, None)
	block.Merge(inner.Negate())
}

// importStatement binds local names in the program scope. Imported external
// names and the module source are not references.
func (w *walker) importStatement(n *sitter.Node, _, _ *Scope, _ Target) {
	for i := uint(0); i < n.NamedChildCount(); i++ {
		clause := n.NamedChild(i)
		if clause.Kind() != "import_clause" {
			continue
		}
		for j := uint(0); j < clause.NamedChildCount(); j++ {
			part := clause.NamedChild(j)
			switch part.Kind() {
			case "identifier":
				w.top.Declare(w.text(part))
			case "namespace_import":
				for k := uint(0); k < part.NamedChildCount(); k++ {
					if id := part.NamedChild(k); id.Kind() == "identifier" {
						w.top.Declare(w.text(id))
					}
				}
			case "named_imports":
				for k := uint(0); k < part.NamedChildCount(); k++ {
					spec := part.NamedChild(k)
					if spec.Kind() != "import_specifier" {
						continue
					}
					local := spec.ChildByFieldName("alias")
					if local == nil {
						local = spec.ChildByFieldName("name")
					}
					if local != nil && local.Kind() == "identifier" {
						w.top.Declare(w.text(local))
					}
				}
			}
		}
	}
}

// exportStatement reads the local names of an export clause. Re-exports with
// a source module reference nothing local.
func (w *walker) exportStatement(n *sitter.Node, fn, block *Scope, _ Target) {
	if n.ChildByFieldName("source") != nil {
		return
	}
	for i := uint(0); i < n.NamedChildCount(); i++ {
		child := n.NamedChild(i)
		if child.Kind() != "export_clause" {
			w.walk(child, fn, block, None)
			continue
		}
		for j := uint(0); j < child.NamedChildCount(); j++ {
			spec := child.NamedChild(j)
			if spec.Kind() != "export_specifier" {
				continue
			}
			if name := spec.ChildByFieldName("name"); name != nil && name.Kind() == "identifier" {
				block.Use(w.reference(name, w.text(name)))
			}
		}
	}
}
