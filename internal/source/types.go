package source

import (
	"fmt"
	"strings"
)

// NodeID identifies a syntax node by file and byte range.
// It is stable across runs as long as the file content does not change.
type NodeID struct {
	File  string
	Start uint32
	End   uint32
}

// String returns the "file#start-end" form of the ID.
func (id NodeID) String() string {
	return fmt.Sprintf("%s#%d-%d", id.File, id.Start, id.End)
}

// IsZero returns true if the ID does not point at any node.
func (id NodeID) IsZero() bool {
	return id.File == "" && id.Start == 0 && id.End == 0
}

// Location is a 1-based source position range.
type Location struct {
	File      string
	StartLine int
	StartCol  int
	EndLine   int
	EndCol    int
}

// String returns "file:line:col".
func (l Location) String() string {
	return fmt.Sprintf("%s:%d:%d", l.File, l.StartLine, l.StartCol)
}

// AttrKind describes how an attribute value was written.
type AttrKind int

const (
	AttrBool       AttrKind = iota // <Field optional />
	AttrLiteral                    // name="email" or name={"email"}
	AttrExpression                 // context={formName}
)

// String returns a human-readable representation of the AttrKind.
func (k AttrKind) String() string {
	switch k {
	case AttrBool:
		return "bool"
	case AttrLiteral:
		return "literal"
	case AttrExpression:
		return "expression"
	default:
		return "unknown"
	}
}

// AttrValue is the value of a JSX attribute. For literals Text is the unquoted
// string; for expressions it is the expression source text; for valueless
// attributes it is empty.
type AttrValue struct {
	Kind AttrKind
	Text string
}

// Attribute is a single name/value pair on a JSX element.
type Attribute struct {
	Name  string
	Value AttrValue
}

// MarkupNode is a read-only view of one JSX element.
// Fragments (<>...</>) have an empty Tag.
type MarkupNode struct {
	ID       NodeID
	Tag      string
	Attrs    []Attribute
	Children []*MarkupNode
	Loc      Location
}

// Attr returns the value of the named attribute, if present.
// When an attribute is repeated the last occurrence wins, as in JSX.
func (n *MarkupNode) Attr(name string) (AttrValue, bool) {
	for i := len(n.Attrs) - 1; i >= 0; i-- {
		if n.Attrs[i].Name == name {
			return n.Attrs[i].Value, true
		}
	}

	return AttrValue{}, false
}

// IsFragment returns true for <>...</> nodes.
func (n *MarkupNode) IsFragment() bool {
	return n.Tag == ""
}

// Walk visits n and all its descendants depth-first in source order.
// Returning false from fn skips the children of that node.
func (n *MarkupNode) Walk(fn func(*MarkupNode) bool) {
	if !fn(n) {
		return
	}

	for _, c := range n.Children {
		c.Walk(fn)
	}
}

// Root is an outermost markup element of a file together with the top-level
// declaration that encloses it. Origin is zero for module-level markup.
type Root struct {
	Node   *MarkupNode
	Origin NodeID
}

// Declaration is a top-level binding that may render markup.
type Declaration struct {
	// Name is the local binding name ("default" for anonymous default exports).
	Name string
	// ID identifies the declaring node (function, class, variable declarator,
	// or object property for namespaced components).
	ID NodeID
	// Unit is the file that declares it.
	Unit *SourceUnit
	// Roots are the outermost markup elements inside the declaration, in source order.
	Roots []*MarkupNode
	// AliasOf names a local binding this declaration wraps without rendering
	// markup of its own, e.g. const Fields = memo(UserFields).
	AliasOf string
	// Members holds object-literal properties, e.g. const Forms = { Group: () => ... }.
	Members map[string]*Declaration
	Loc     Location
}

// Import is one imported binding.
type Import struct {
	// Local is the name bound in the importing file.
	Local string
	// Imported is the exported name in the target module ("default" for default imports).
	Imported string
	// Specifier is the module specifier as written, e.g. "./UserFields".
	Specifier string
	// Namespace is true for import * as Local from "...".
	Namespace bool
}

// ReExport is an "export ... from" clause.
type ReExport struct {
	// Exported is the name exposed by this module (empty when All is set).
	Exported string
	// Imported is the name looked up in the target module.
	Imported  string
	Specifier string
	// All is true for export * from "...".
	All bool
}

// SourceUnit is one parsed file. It is immutable after load.
type SourceUnit struct {
	Path string
	Hash string
	// Roots are all outermost markup elements in document order.
	Roots []Root
	// Decls maps local top-level names to declarations.
	Decls map[string]*Declaration
	// Exports maps exported names to local names ("default" included).
	Exports map[string]string
	// DefaultDecl is set for anonymous default exports.
	DefaultDecl *Declaration
	Imports     []Import
	ReExports   []ReExport
}

// ImportFor returns the import that binds local, if any.
func (u *SourceUnit) ImportFor(local string) (Import, bool) {
	for _, imp := range u.Imports {
		if imp.Local == local {
			return imp, true
		}
	}

	return Import{}, false
}

// MarkupCount returns the number of markup nodes in the unit.
func (u *SourceUnit) MarkupCount() int {
	count := 0
	for _, r := range u.Roots {
		r.Node.Walk(func(*MarkupNode) bool {
			count++
			return true
		})
	}

	return count
}

// splitTag splits "Ns.Name" into its head and the remaining path.
func splitTag(tag string) (string, string) {
	head, rest, _ := strings.Cut(tag, ".")
	return head, rest
}
