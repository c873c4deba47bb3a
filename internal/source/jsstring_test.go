package source

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestUnescapeString(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{name: "plain", in: "email", want: "email"},
		{name: "simple escapes", in: `a\tb\nc\\d`, want: "a\tb\nc\\d"},
		{name: "quotes", in: `it\'s \"x\"`, want: `it's "x"`},
		{name: "hex", in: `a\x2eb`, want: "a.b"},
		{name: "unicode", in: `a\u002eb`, want: "a.b"},
		{name: "code point", in: `\u{1F600}`, want: "\U0001F600"},
		{name: "surrogate pair", in: `\uD83D\uDE00`, want: "\U0001F600"},
		{name: "null", in: `a\0b`, want: "a\x00b"},
		{name: "line continuation", in: "a\\\nb", want: "ab"},
		{name: "crlf continuation", in: "a\\\r\nb", want: "ab"},
		{name: "identity escape", in: `\q`, want: "q"},
		{name: "malformed hex kept", in: `\xZ1`, want: `\xZ1`},
		{name: "malformed unicode kept", in: `\u12`, want: `\u12`},
		{name: "trailing backslash kept", in: `a\`, want: `a\`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, unescapeString(tt.in))
		})
	}
}
