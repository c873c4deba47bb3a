package source

import (
	"html"
	"strings"

	sitter "github.com/smacker/go-tree-sitter"
)

// extractor converts a tree-sitter tree into a SourceUnit.
type extractor struct {
	src  []byte
	unit *SourceUnit
}

// declNode is a declaration found while scanning a top-level statement.
type declNode struct {
	name string
	node *sitter.Node
	// value is the initializer of a variable declarator, if any.
	value *sitter.Node
}

func extractUnit(path, hash string, src []byte, root *sitter.Node) *SourceUnit {
	x := &extractor{
		src: src,
		unit: &SourceUnit{
			Path:    path,
			Hash:    hash,
			Decls:   make(map[string]*Declaration),
			Exports: make(map[string]string),
		},
	}

	for i := range int(root.NamedChildCount()) {
		x.statement(root.NamedChild(i))
	}

	return x.unit
}

// statement processes one top-level statement of the program.
func (x *extractor) statement(n *sitter.Node) {
	switch n.Type() {
	case "import_statement":
		x.importStatement(n)
	case "export_statement":
		x.exportStatement(n)
	case "ambient_declaration", "comment":
		// declare const Field: FC<...> renders nothing we can see.
	default:
		decls := x.declarations(n)
		if len(decls) == 0 {
			x.moduleRoots(n)
			return
		}

		for _, d := range decls {
			x.register(d)
		}
	}
}

// declarations lists the component-capable bindings introduced by n.
func (x *extractor) declarations(n *sitter.Node) []declNode {
	switch n.Type() {
	case "function_declaration", "generator_function_declaration",
		"class_declaration", "abstract_class_declaration":
		name := n.ChildByFieldName("name")
		if name == nil {
			return nil
		}

		return []declNode{{name: x.text(name), node: n}}

	case "lexical_declaration", "variable_declaration":
		var out []declNode

		for i := range int(n.NamedChildCount()) {
			d := n.NamedChild(i)
			if d.Type() != "variable_declarator" {
				continue
			}

			name := d.ChildByFieldName("name")
			if name == nil || name.Type() != "identifier" {
				continue
			}

			out = append(out, declNode{
				name:  x.text(name),
				node:  d,
				value: d.ChildByFieldName("value"),
			})
		}

		return out
	}

	return nil
}

// register builds a Declaration, indexes it and records its markup roots.
func (x *extractor) register(d declNode) *Declaration {
	decl := x.declaration(d.name, d.node, d.value)
	x.unit.Decls[d.name] = decl

	for _, r := range decl.Roots {
		x.unit.Roots = append(x.unit.Roots, Root{Node: r, Origin: decl.ID})
	}

	return decl
}

func (x *extractor) declaration(name string, n, value *sitter.Node) *Declaration {
	decl := &Declaration{
		Name: name,
		ID:   x.id(n),
		Unit: x.unit,
		Loc:  x.loc(n),
	}
	decl.Roots = x.collect(n, nil)

	if value != nil {
		if len(decl.Roots) == 0 {
			decl.AliasOf = x.aliasTarget(value)
		}

		if value.Type() == "object" {
			decl.Members = x.members(value)
		}
	}

	return decl
}

// members extracts component-valued properties of an object literal.
func (x *extractor) members(obj *sitter.Node) map[string]*Declaration {
	members := make(map[string]*Declaration)

	for i := range int(obj.NamedChildCount()) {
		pair := obj.NamedChild(i)
		if pair.Type() != "pair" {
			continue
		}

		key := pair.ChildByFieldName("key")
		value := pair.ChildByFieldName("value")
		if key == nil || value == nil {
			continue
		}

		name := x.text(key)
		if key.Type() == "string" {
			name = x.stringValue(key)
		}

		members[name] = x.declaration(name, pair, value)
	}

	return members
}

// aliasTarget returns the binding a non-rendering initializer wraps:
// Foo, memo(Foo), forwardRef(memo(Foo)), (Foo as FC).
func (x *extractor) aliasTarget(v *sitter.Node) string {
	switch v.Type() {
	case "identifier":
		return x.text(v)
	case "call_expression":
		args := v.ChildByFieldName("arguments")
		if args == nil {
			return ""
		}

		for i := range int(args.NamedChildCount()) {
			if target := x.aliasTarget(args.NamedChild(i)); target != "" {
				return target
			}
		}
	case "parenthesized_expression", "as_expression", "satisfies_expression", "non_null_expression":
		if v.NamedChildCount() > 0 {
			return x.aliasTarget(v.NamedChild(0))
		}
	}

	return ""
}

// moduleRoots records markup that is not inside any declaration.
func (x *extractor) moduleRoots(n *sitter.Node) {
	for _, r := range x.collect(n, nil) {
		x.unit.Roots = append(x.unit.Roots, Root{Node: r})
	}
}

func (x *extractor) importStatement(n *sitter.Node) {
	spec := x.stringValue(n.ChildByFieldName("source"))
	if spec == "" {
		return
	}

	clause := childOfType(n, "import_clause")
	if clause == nil {
		return
	}

	for i := range int(clause.NamedChildCount()) {
		c := clause.NamedChild(i)

		switch c.Type() {
		case "identifier":
			x.unit.Imports = append(x.unit.Imports, Import{
				Local:     x.text(c),
				Imported:  "default",
				Specifier: spec,
			})

		case "namespace_import":
			if id := childOfType(c, "identifier"); id != nil {
				x.unit.Imports = append(x.unit.Imports, Import{
					Local:     x.text(id),
					Specifier: spec,
					Namespace: true,
				})
			}

		case "named_imports":
			for j := range int(c.NamedChildCount()) {
				s := c.NamedChild(j)
				if s.Type() != "import_specifier" {
					continue
				}

				name, alias := x.specifierNames(s)
				if name == "" {
					continue
				}

				x.unit.Imports = append(x.unit.Imports, Import{
					Local:     firstNonEmpty(alias, name),
					Imported:  name,
					Specifier: spec,
				})
			}
		}
	}
}

func (x *extractor) exportStatement(n *sitter.Node) {
	if source := n.ChildByFieldName("source"); source != nil {
		x.reExport(n, x.stringValue(source))
		return
	}

	isDefault := childOfType(n, "default") != nil

	if decl := n.ChildByFieldName("declaration"); decl != nil {
		decls := x.declarations(decl)
		for _, d := range decls {
			x.register(d)

			if isDefault {
				x.unit.Exports["default"] = d.name
			} else {
				x.unit.Exports[d.name] = d.name
			}
		}

		if len(decls) == 0 {
			if isDefault {
				x.defaultValue(decl)
			} else {
				x.moduleRoots(decl)
			}
		}

		return
	}

	if clause := childOfType(n, "export_clause"); clause != nil {
		for i := range int(clause.NamedChildCount()) {
			s := clause.NamedChild(i)
			if s.Type() != "export_specifier" {
				continue
			}

			name, alias := x.specifierNames(s)
			if name != "" {
				x.unit.Exports[firstNonEmpty(alias, name)] = name
			}
		}

		return
	}

	if isDefault {
		value := n.ChildByFieldName("value")
		if value == nil {
			value = lastNamedChild(n)
		}

		if value != nil {
			x.defaultValue(value)
		}
	}
}

// defaultValue handles export default <expression>.
func (x *extractor) defaultValue(value *sitter.Node) {
	decl := x.declaration("default", value, value)
	if len(decl.Roots) == 0 && decl.AliasOf != "" {
		x.unit.Exports["default"] = decl.AliasOf
		return
	}

	x.unit.DefaultDecl = decl
	for _, r := range decl.Roots {
		x.unit.Roots = append(x.unit.Roots, Root{Node: r, Origin: decl.ID})
	}
}

func (x *extractor) reExport(n *sitter.Node, spec string) {
	if spec == "" {
		return
	}

	clause := childOfType(n, "export_clause")
	if clause == nil {
		// export * as ns from "..." binds a namespace, not a component.
		if childOfType(n, "namespace_export") == nil {
			x.unit.ReExports = append(x.unit.ReExports, ReExport{Specifier: spec, All: true})
		}

		return
	}

	for i := range int(clause.NamedChildCount()) {
		s := clause.NamedChild(i)
		if s.Type() != "export_specifier" {
			continue
		}

		name, alias := x.specifierNames(s)
		if name == "" {
			continue
		}

		x.unit.ReExports = append(x.unit.ReExports, ReExport{
			Exported:  firstNonEmpty(alias, name),
			Imported:  name,
			Specifier: spec,
		})
	}
}

// specifierNames reads the name and optional alias of an import/export specifier.
func (x *extractor) specifierNames(s *sitter.Node) (string, string) {
	var name, alias string

	if n := s.ChildByFieldName("name"); n != nil {
		name = x.text(n)
	}

	if a := s.ChildByFieldName("alias"); a != nil {
		alias = x.text(a)
	}

	if name == "" && s.NamedChildCount() > 0 {
		name = x.text(s.NamedChild(0))
		if s.NamedChildCount() > 1 {
			alias = x.text(s.NamedChild(1))
		}
	}

	return name, alias
}

// collect appends the outermost markup elements under n in source order.
func (x *extractor) collect(n *sitter.Node, out []*MarkupNode) []*MarkupNode {
	if isElement(n) {
		return append(out, x.element(n))
	}

	for i := range int(n.NamedChildCount()) {
		out = x.collect(n.NamedChild(i), out)
	}

	return out
}

func (x *extractor) element(n *sitter.Node) *MarkupNode {
	node := &MarkupNode{
		ID:  x.id(n),
		Loc: x.loc(n),
	}

	switch n.Type() {
	case "jsx_self_closing_element":
		x.tagAndAttrs(n, node)

	default:
		for i := range int(n.NamedChildCount()) {
			c := n.NamedChild(i)

			switch c.Type() {
			case "jsx_opening_element":
				x.tagAndAttrs(c, node)
			case "jsx_closing_element", "jsx_text", "comment", "html_character_reference":
			default:
				node.Children = x.collect(c, node.Children)
			}
		}
	}

	return node
}

func (x *extractor) tagAndAttrs(n *sitter.Node, node *MarkupNode) {
	name := n.ChildByFieldName("name")
	if name == nil {
		name = firstOfTypes(n, "identifier", "member_expression", "nested_identifier", "jsx_namespace_name")
	}

	if name != nil {
		node.Tag = strings.Join(strings.Fields(x.text(name)), "")
	}

	for i := range int(n.NamedChildCount()) {
		if a := n.NamedChild(i); a.Type() == "jsx_attribute" {
			node.Attrs = append(node.Attrs, x.attribute(a))
		}
	}
}

func (x *extractor) attribute(a *sitter.Node) Attribute {
	attr := Attribute{Value: AttrValue{Kind: AttrBool}}
	if a.NamedChildCount() == 0 {
		return attr
	}

	attr.Name = x.text(a.NamedChild(0))
	if a.NamedChildCount() < 2 {
		return attr
	}

	v := a.NamedChild(1)

	switch v.Type() {
	case "string":
		// JSX attribute strings take HTML entities, not backslash escapes.
		attr.Value = AttrValue{Kind: AttrLiteral, Text: html.UnescapeString(x.stringBody(v))}

	case "jsx_expression":
		inner := firstNonComment(v)

		switch {
		case inner == nil:
			attr.Value = AttrValue{Kind: AttrExpression}
		case inner.Type() == "string":
			attr.Value = AttrValue{Kind: AttrLiteral, Text: x.stringValue(inner)}
		case inner.Type() == "template_string" && childOfType(inner, "template_substitution") == nil:
			attr.Value = AttrValue{Kind: AttrLiteral, Text: unescapeString(strings.Trim(x.text(inner), "`"))}
		default:
			attr.Value = AttrValue{Kind: AttrExpression, Text: x.text(inner)}
		}

	default:
		attr.Value = AttrValue{Kind: AttrExpression, Text: x.text(v)}
	}

	return attr
}

// stringValue returns the decoded value of a JavaScript string literal.
func (x *extractor) stringValue(n *sitter.Node) string {
	if n == nil {
		return ""
	}

	return unescapeString(x.stringBody(n))
}

// stringBody returns the source text of a string node without its quotes.
func (x *extractor) stringBody(n *sitter.Node) string {
	raw := x.text(n)
	if len(raw) >= 2 && (raw[0] == '"' || raw[0] == '\'') && raw[len(raw)-1] == raw[0] {
		return raw[1 : len(raw)-1]
	}

	return strings.Trim(raw, `"'`)
}

func (x *extractor) text(n *sitter.Node) string {
	return n.Content(x.src)
}

func (x *extractor) id(n *sitter.Node) NodeID {
	return NodeID{File: x.unit.Path, Start: n.StartByte(), End: n.EndByte()}
}

func (x *extractor) loc(n *sitter.Node) Location {
	start, end := n.StartPoint(), n.EndPoint()

	return Location{
		File:      x.unit.Path,
		StartLine: int(start.Row) + 1,
		StartCol:  int(start.Column) + 1,
		EndLine:   int(end.Row) + 1,
		EndCol:    int(end.Column) + 1,
	}
}

func isElement(n *sitter.Node) bool {
	switch n.Type() {
	case "jsx_element", "jsx_self_closing_element", "jsx_fragment":
		return true
	}

	return false
}

func childOfType(n *sitter.Node, typ string) *sitter.Node {
	for i := range int(n.ChildCount()) {
		if c := n.Child(i); c != nil && c.Type() == typ {
			return c
		}
	}

	return nil
}

func firstOfTypes(n *sitter.Node, types ...string) *sitter.Node {
	for i := range int(n.NamedChildCount()) {
		c := n.NamedChild(i)
		for _, t := range types {
			if c.Type() == t {
				return c
			}
		}
	}

	return nil
}

func firstNonComment(n *sitter.Node) *sitter.Node {
	for i := range int(n.NamedChildCount()) {
		if c := n.NamedChild(i); c.Type() != "comment" {
			return c
		}
	}

	return nil
}

func lastNamedChild(n *sitter.Node) *sitter.Node {
	for i := int(n.NamedChildCount()) - 1; i >= 0; i-- {
		if c := n.NamedChild(i); c.Type() != "comment" && c.Type() != "decorator" {
			return c
		}
	}

	return nil
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}

	return ""
}
