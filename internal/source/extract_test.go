package source

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func mustParse(t *testing.T, path, src string) *SourceUnit {
	t.Helper()

	unit, err := Parse(context.Background(), path, []byte(src))
	require.NoError(t, err)
	require.NotNil(t, unit)

	return unit
}

func TestParse_MarkupTree(t *testing.T) {
	unit := mustParse(t, "src/Profile.tsx", `
import { HiveForm } from './components/HiveForm';

export function Profile() {
  return (
    <div>
      <HiveForm context="user-profile">
        <Field name="username" />
        <Field name="email" optional />
        <div>
          <Field name="nested.field" optional={true} />
        </div>
      </HiveForm>
    </div>
  );
}
`)

	require.Len(t, unit.Roots, 1)
	root := unit.Roots[0]
	assert.Equal(t, "div", root.Node.Tag)
	assert.Equal(t, unit.Decls["Profile"].ID, root.Origin)

	require.Len(t, root.Node.Children, 1)
	form := root.Node.Children[0]
	assert.Equal(t, "HiveForm", form.Tag)

	ctx, ok := form.Attr("context")
	require.True(t, ok)
	assert.Equal(t, AttrValue{Kind: AttrLiteral, Text: "user-profile"}, ctx)

	require.Len(t, form.Children, 3)
	assert.Equal(t, "Field", form.Children[0].Tag)

	name, ok := form.Children[0].Attr("name")
	require.True(t, ok)
	assert.Equal(t, "username", name.Text)

	opt, ok := form.Children[1].Attr("optional")
	require.True(t, ok)
	assert.Equal(t, AttrBool, opt.Kind)

	nested := form.Children[2].Children[0]
	opt, ok = nested.Attr("optional")
	require.True(t, ok)
	assert.Equal(t, AttrValue{Kind: AttrExpression, Text: "true"}, opt)
}

func TestParse_AttributeForms(t *testing.T) {
	unit := mustParse(t, "a.tsx", `
const A = () => (
  <HiveForm context={formName}>
    <Field name={"braced"} context={'quoted'} />
    <Field name={`+"`tmpl`"+`} />
  </HiveForm>
);
`)

	form := unit.Roots[0].Node

	ctx, _ := form.Attr("context")
	assert.Equal(t, AttrValue{Kind: AttrExpression, Text: "formName"}, ctx)

	braced := form.Children[0]
	name, _ := braced.Attr("name")
	assert.Equal(t, AttrValue{Kind: AttrLiteral, Text: "braced"}, name)

	fieldCtx, _ := braced.Attr("context")
	assert.Equal(t, AttrValue{Kind: AttrLiteral, Text: "quoted"}, fieldCtx)

	tmpl, _ := form.Children[1].Attr("name")
	assert.Equal(t, AttrValue{Kind: AttrLiteral, Text: "tmpl"}, tmpl)
}

func TestParse_ChildrenInsideExpressions(t *testing.T) {
	unit := mustParse(t, "list.tsx", `
export const List = ({ items, show }) => (
  <HiveForm>
    {show && <Field name="conditional" />}
    {items.map((i) => <Field key={i} name="mapped" />)}
    <>
      <Field name="inFragment" />
    </>
  </HiveForm>
);
`)

	form := unit.Roots[0].Node
	require.Len(t, form.Children, 3)
	assert.Equal(t, "Field", form.Children[0].Tag)
	assert.Equal(t, "Field", form.Children[1].Tag)
	assert.True(t, form.Children[2].IsFragment())
	assert.Equal(t, "Field", form.Children[2].Children[0].Tag)
	assert.Equal(t, "List", firstKey(unit.Exports))
}

func TestParse_LocationsAreOneBased(t *testing.T) {
	unit := mustParse(t, "loc.tsx", "const X = () => <Field name=\"a\" />;\n")

	loc := unit.Roots[0].Node.Loc
	assert.Equal(t, "loc.tsx", loc.File)
	assert.Equal(t, 1, loc.StartLine)
	assert.Equal(t, 17, loc.StartCol)
	assert.Equal(t, "loc.tsx:1:17", loc.String())
}

func TestParse_ImportsAndExports(t *testing.T) {
	unit := mustParse(t, "src/index.tsx", `
import Default, { Named, Other as Renamed } from './a';
import * as Parts from './parts';
import './side-effect.css';

export { Local, Local as Public };
export { Fwd } from './fwd';
export * from './all';

const Local = () => <div />;
export default Local;
`)

	assert.Equal(t, []Import{
		{Local: "Default", Imported: "default", Specifier: "./a"},
		{Local: "Named", Imported: "Named", Specifier: "./a"},
		{Local: "Renamed", Imported: "Other", Specifier: "./a"},
		{Local: "Parts", Specifier: "./parts", Namespace: true},
	}, unit.Imports)

	assert.Equal(t, "Local", unit.Exports["Local"])
	assert.Equal(t, "Local", unit.Exports["Public"])
	assert.Equal(t, "Local", unit.Exports["default"])

	assert.Equal(t, []ReExport{
		{Exported: "Fwd", Imported: "Fwd", Specifier: "./fwd"},
		{Specifier: "./all", All: true},
	}, unit.ReExports)
}

func TestParse_DeclarationKinds(t *testing.T) {
	unit := mustParse(t, "decls.tsx", `
function Fn() { return <a />; }
class Cls extends React.Component { render() { return <b />; } }
const Arrow = () => <c />;
const Wrapped = memo(Arrow);
const Forms = {
  Group: () => <d />,
};
declare const Field: FC<{ name: string }>;
`)

	require.Contains(t, unit.Decls, "Fn")
	require.Contains(t, unit.Decls, "Cls")
	require.Contains(t, unit.Decls, "Arrow")
	require.Contains(t, unit.Decls, "Wrapped")
	require.Contains(t, unit.Decls, "Forms")
	assert.NotContains(t, unit.Decls, "Field")

	assert.Equal(t, "b", unit.Decls["Cls"].Roots[0].Tag)
	assert.Empty(t, unit.Decls["Wrapped"].Roots)
	assert.Equal(t, "Arrow", unit.Decls["Wrapped"].AliasOf)

	group := unit.Decls["Forms"].Members["Group"]
	require.NotNil(t, group)
	assert.Equal(t, "d", group.Roots[0].Tag)

	tags := make([]string, 0, len(unit.Roots))
	for _, r := range unit.Roots {
		tags = append(tags, r.Node.Tag)
	}
	assert.Equal(t, []string{"a", "b", "c", "d"}, tags)
}

func TestParse_AnonymousDefaultExport(t *testing.T) {
	unit := mustParse(t, "anon.tsx", `
export default function () {
  return <Field name="x" />;
}
`)

	require.NotNil(t, unit.DefaultDecl)
	assert.Equal(t, "default", unit.DefaultDecl.Name)
	require.Len(t, unit.Roots, 1)
	assert.Equal(t, unit.DefaultDecl.ID, unit.Roots[0].Origin)
}

func TestParse_SyntaxError(t *testing.T) {
	_, err := Parse(context.Background(), "broken.tsx", []byte("const X = () => <div><span></div>;\nfunction {"))
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrSyntax)
}

func TestParse_InvalidUTF8(t *testing.T) {
	_, err := Parse(context.Background(), "bin.tsx", []byte{0xff, 0xfe, 0xfd})
	require.ErrorIs(t, err, ErrInvalidContent)
}

func TestNodeID_String(t *testing.T) {
	id := NodeID{File: "a.tsx", Start: 3, End: 10}
	assert.Equal(t, "a.tsx#3-10", id.String())
	assert.False(t, id.IsZero())
	assert.True(t, NodeID{}.IsZero())
}

func firstKey(m map[string]string) string {
	for k := range m {
		return k
	}

	return ""
}

func TestParse_StringEscapes(t *testing.T) {
	unit := mustParse(t, "a.tsx", `
const A = () => (
  <HiveForm context="a&amp;b">
    <Field name={"a\u002eb"} />
    <Field name={'it\'s'} />
    <Field name="raw\n" />
  </HiveForm>
);
`)

	form := unit.Roots[0].Node

	ctx, _ := form.Attr("context")
	assert.Equal(t, "a&b", ctx.Text)

	escaped, _ := form.Children[0].Attr("name")
	assert.Equal(t, AttrValue{Kind: AttrLiteral, Text: "a.b"}, escaped)

	quoted, _ := form.Children[1].Attr("name")
	assert.Equal(t, "it's", quoted.Text)

	raw, _ := form.Children[2].Attr("name")
	assert.Equal(t, `raw\n`, raw.Text)
}
