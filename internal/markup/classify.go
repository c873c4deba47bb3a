package markup

import (
	"slices"
	"strings"
	"unicode"
	"unicode/utf8"

	"hiveform-gen/internal/source"
)

// Attribute names recognized on containers and fields.
const (
	AttrContext  = "context"
	AttrName     = "name"
	AttrOptional = "optional"
)

// Default reserved tags.
const (
	DefaultContainerTag = "HiveForm"
	DefaultFieldTag     = "Field"
)

// Kind is the role a markup node plays during resolution.
type Kind int

const (
	KindIrrelevant Kind = iota
	KindContainer
	KindField
	KindReference
)

// String returns a human-readable representation of the Kind.
func (k Kind) String() string {
	switch k {
	case KindIrrelevant:
		return "irrelevant"
	case KindContainer:
		return "container"
	case KindField:
		return "field"
	case KindReference:
		return "reference"
	default:
		return "unknown"
	}
}

// Classifier decides the Kind of markup nodes.
type Classifier struct {
	// ContainerTag is the form boundary tag.
	ContainerTag string
	// FieldTag is the field declaration tag.
	FieldTag string
	// ContainerAliases are extra tags treated as containers, e.g. "Forms.HiveForm".
	ContainerAliases []string
}

// DefaultClassifier returns a Classifier for <HiveForm> and <Field>.
func DefaultClassifier() Classifier {
	return Classifier{
		ContainerTag: DefaultContainerTag,
		FieldTag:     DefaultFieldTag,
	}
}

// Classify returns the Kind of n.
func (c Classifier) Classify(n *source.MarkupNode) Kind {
	if n == nil || n.IsFragment() {
		return KindIrrelevant
	}

	switch {
	case c.IsContainerTag(n.Tag):
		return KindContainer
	case n.Tag == c.FieldTag:
		if _, ok := FieldName(n); ok {
			return KindField
		}

		return KindIrrelevant
	case isComponentTag(n.Tag):
		return KindReference
	default:
		return KindIrrelevant
	}
}

// IsContainerTag reports whether tag marks a form boundary.
func (c Classifier) IsContainerTag(tag string) bool {
	return tag == c.ContainerTag || slices.Contains(c.ContainerAliases, tag)
}

// isComponentTag reports whether tag names a user component: the first
// segment of a member expression starts with an uppercase letter.
func isComponentTag(tag string) bool {
	head, _, _ := strings.Cut(tag, ".")

	r, _ := utf8.DecodeRuneInString(head)
	return r != utf8.RuneError && unicode.IsUpper(r)
}

// ContextOf returns the explicit context written on n. Literal values are
// returned as-is and expressions as their source text. A valueless, empty or
// blank attribute counts as absent.
func ContextOf(n *source.MarkupNode) (string, bool) {
	v, ok := n.Attr(AttrContext)
	if !ok || v.Kind == source.AttrBool {
		return "", false
	}

	if strings.TrimSpace(v.Text) == "" {
		return "", false
	}

	return v.Text, true
}

// FieldName returns the literal name of a field node.
func FieldName(n *source.MarkupNode) (string, bool) {
	v, ok := n.Attr(AttrName)
	if !ok || v.Kind != source.AttrLiteral || v.Text == "" {
		return "", false
	}

	return v.Text, true
}

// IsOptional reports whether a field is marked optional.
func IsOptional(n *source.MarkupNode) bool {
	v, ok := n.Attr(AttrOptional)
	if !ok {
		return false
	}

	switch v.Kind {
	case source.AttrBool:
		return true
	case source.AttrLiteral, source.AttrExpression:
		text := strings.TrimSpace(v.Text)
		return text == "true" || text == "{true}"
	default:
		return false
	}
}
