package source

import (
	"strconv"
	"strings"
	"unicode/utf16"
	"unicode/utf8"
)

// unescapeString decodes the escape sequences of a JavaScript string literal
// body. Malformed escapes are kept as written.
func unescapeString(s string) string {
	if !strings.Contains(s, `\`) {
		return s
	}

	var b strings.Builder
	b.Grow(len(s))

	for i := 0; i < len(s); {
		if s[i] != '\\' || i+1 == len(s) {
			b.WriteByte(s[i])
			i++

			continue
		}

		r, n, ok := decodeEscape(s[i+1:])
		switch {
		case !ok:
			b.WriteByte('\\')
			i++
		case r < 0:
			// line continuation
			i += 1 + n
		default:
			b.WriteRune(r)
			i += 1 + n
		}
	}

	return b.String()
}

// decodeEscape decodes the escape starting right after a backslash. It
// returns the rune (negative for a line continuation) and the bytes consumed.
func decodeEscape(s string) (rune, int, bool) {
	switch s[0] {
	case 'n':
		return '\n', 1, true
	case 't':
		return '\t', 1, true
	case 'r':
		return '\r', 1, true
	case 'b':
		return '\b', 1, true
	case 'f':
		return '\f', 1, true
	case 'v':
		return '\v', 1, true
	case '0':
		if len(s) == 1 || s[1] < '0' || s[1] > '9' {
			return 0, 1, true
		}

		return 0, 0, false
	case '\n':
		return -1, 1, true
	case '\r':
		if len(s) > 1 && s[1] == '\n' {
			return -1, 2, true
		}

		return -1, 1, true
	case 'x':
		if len(s) < 3 {
			return 0, 0, false
		}

		v, err := strconv.ParseUint(s[1:3], 16, 8)
		if err != nil {
			return 0, 0, false
		}

		return rune(v), 3, true
	case 'u':
		return decodeUnicodeEscape(s)
	}

	r, size := utf8.DecodeRuneInString(s)
	if r == '\u2028' || r == '\u2029' {
		return -1, size, true
	}

	return r, size, true
}

// decodeUnicodeEscape handles u{X...} and uXXXX, joining surrogate pairs.
func decodeUnicodeEscape(s string) (rune, int, bool) {
	if len(s) > 1 && s[1] == '{' {
		end := strings.IndexByte(s, '}')
		if end < 3 {
			return 0, 0, false
		}

		v, err := strconv.ParseUint(s[2:end], 16, 32)
		if err != nil || v > utf8.MaxRune {
			return 0, 0, false
		}

		return rune(v), end + 1, true
	}

	r, ok := hex4(s[1:])
	if !ok {
		return 0, 0, false
	}

	if utf16.IsSurrogate(r) && len(s) >= 11 && s[5] == '\\' && s[6] == 'u' {
		if low, ok := hex4(s[7:]); ok {
			if pair := utf16.DecodeRune(r, low); pair != utf8.RuneError {
				return pair, 11, true
			}
		}
	}

	return r, 5, true
}

func hex4(s string) (rune, bool) {
	if len(s) < 4 {
		return 0, false
	}

	v, err := strconv.ParseUint(s[:4], 16, 16)
	if err != nil {
		return 0, false
	}

	return rune(v), true
}
