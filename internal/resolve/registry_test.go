package resolve

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"hiveform-gen/internal/diagnostic"
	"hiveform-gen/internal/source"
)

func TestFormRegistry_AddMergesOptional(t *testing.T) {
	tests := []struct {
		name  string
		input []FieldDescriptor
		want  []FieldDescriptor
	}{
		{
			name:  "distinct names keep order",
			input: []FieldDescriptor{field("b", false), field("a", true)},
			want:  []FieldDescriptor{field("b", false), field("a", true)},
		},
		{
			name:  "later optional wins",
			input: []FieldDescriptor{field("a", false), field("a", true)},
			want:  []FieldDescriptor{field("a", true)},
		},
		{
			name:  "later required does not demote",
			input: []FieldDescriptor{field("a", true), field("a", false)},
			want:  []FieldDescriptor{field("a", true)},
		},
		{
			name:  "all required stays required",
			input: []FieldDescriptor{field("a", false), field("b", false), field("a", false)},
			want:  []FieldDescriptor{field("a", false), field("b", false)},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			reg := NewFormRegistry()
			reg.Add(Context{ID: "f"}, tt.input...)

			assert.Equal(t, tt.want, reg.Fields("f"))
		})
	}
}

func TestFinalize_DropsFallbackOfExpandedOrigins(t *testing.T) {
	expandedDecl := source.NodeID{File: "frag.tsx", Start: 0, End: 10}
	otherDecl := source.NodeID{File: "page.tsx", Start: 0, End: 10}

	var diags diagnostic.Diagnostics

	raw := NewRawRegistry()
	fallback := Context{ID: DefaultFallbackContext, Kind: ContextFallback}
	raw.register(fallback, rawEntry{field: field("frag", false), origin: expandedDecl, fallback: true}, &diags)
	raw.register(fallback, rawEntry{field: field("loose", false), origin: otherDecl, fallback: true}, &diags)
	raw.register(Context{ID: "form"}, rawEntry{field: field("frag", false), origin: otherDecl}, &diags)
	raw.register(Context{ID: "empty-after-filter", Kind: ContextFallback},
		rawEntry{field: field("gone", false), origin: expandedDecl, fallback: true}, &diags)

	reg := Finalize(raw, map[source.NodeID]bool{expandedDecl: true})

	assert.Equal(t, []string{DefaultFallbackContext, "form"}, reg.Contexts())
	assert.Equal(t, []FieldDescriptor{field("loose", false)}, reg.Fields(DefaultFallbackContext))
	assert.Equal(t, 4, raw.Len())
	assert.Empty(t, diags.Warnings)
}

func TestFormRegistry_FormsJSON(t *testing.T) {
	reg := NewFormRegistry()
	reg.Add(Context{ID: "user", Kind: ContextExplicit}, field("name", false), field("nick", true))

	data, err := json.Marshal(reg.Forms())
	require.NoError(t, err)
	assert.JSONEq(t,
		`[{"context":{"id":"user","kind":"explicit"},"fields":[{"name":"name","optional":false},{"name":"nick","optional":true}]}]`,
		string(data))
}

func TestContextKind_String(t *testing.T) {
	assert.Equal(t, "explicit", ContextExplicit.String())
	assert.Equal(t, "expression", ContextExpression.String())
	assert.Equal(t, "synthesized", ContextSynthesized.String())
	assert.Equal(t, "fallback", ContextFallback.String())
	assert.Equal(t, "unknown", ContextKind(7).String())
}
