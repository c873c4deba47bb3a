package naming

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTokenize(t *testing.T) {
	tests := []struct {
		input string
		want  []string
	}{
		{input: "", want: nil},
		{input: "login", want: []string{"login"}},
		{input: "userProfile", want: []string{"user", "Profile"}},
		{input: "UserRegistration", want: []string{"User", "Registration"}},
		{input: "user-profile", want: []string{"user", "profile"}},
		{input: "user_profile form", want: []string{"user", "profile", "form"}},
		{input: "XMLParser", want: []string{"XML", "Parser"}},
		{input: "HiveForm12", want: []string{"Hive", "Form", "12"}},
		{input: "props.formName", want: []string{"props", "form", "Name"}},
		{input: "--", want: nil},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			assert.Equal(t, tt.want, Tokenize(tt.input))
		})
	}
}

func TestPascalAndCamelCase(t *testing.T) {
	tests := []struct {
		input  string
		pascal string
		camel  string
	}{
		{input: "userProfile", pascal: "UserProfile", camel: "userProfile"},
		{input: "login", pascal: "Login", camel: "login"},
		{input: "HiveForm1", pascal: "HiveForm1", camel: "hiveForm1"},
		{input: "OrphanFields", pascal: "OrphanFields", camel: "orphanFields"},
		{input: "user-registration", pascal: "UserRegistration", camel: "userRegistration"},
		{input: "XMLParser", pascal: "XmlParser", camel: "xmlParser"},
		{input: "2fa", pascal: "_2Fa", camel: "_2Fa"},
		{input: "???", pascal: "", camel: ""},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			assert.Equal(t, tt.pascal, PascalCase(tt.input))
			assert.Equal(t, tt.camel, CamelCase(tt.input))
		})
	}
}

func TestQuoteKey(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{input: "email", want: "email"},
		{input: "field_with_underscore", want: "field_with_underscore"},
		{input: "$meta", want: "$meta"},
		{input: "nested.field", want: "'nested.field'"},
		{input: "field-with-dash", want: "'field-with-dash'"},
		{input: "1st", want: "'1st'"},
		{input: "it's", want: `'it\'s'`},
		{input: "", want: "''"},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			assert.Equal(t, tt.want, QuoteKey(tt.input))
		})
	}
}
