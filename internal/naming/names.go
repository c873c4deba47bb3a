package naming

import (
	"strings"
	"unicode"
)

// Tokenize splits s into words.
// Examples:
//   - "userProfile" -> ["user", "Profile"]
//   - "user-profile" -> ["user", "profile"]
//   - "XMLParser" -> ["XML", "Parser"]
//   - "HiveForm12" -> ["Hive", "Form", "12"]
func Tokenize(s string) []string {
	if s == "" {
		return nil
	}

	var tokens []string

	var current strings.Builder

	runes := []rune(s)
	for i, r := range runes {
		if isSeparator(r) {
			if current.Len() > 0 {
				tokens = append(tokens, current.String())
				current.Reset()
			}

			continue
		}

		if current.Len() > 0 && shouldStartNewToken(runes, i) {
			tokens = append(tokens, current.String())
			current.Reset()
		}

		current.WriteRune(r)
	}

	if current.Len() > 0 {
		tokens = append(tokens, current.String())
	}

	return tokens
}

// isSeparator returns true for anything that cannot be part of a word.
func isSeparator(r rune) bool {
	return !unicode.IsLetter(r) && !unicode.IsDigit(r)
}

// shouldStartNewToken determines if a new token should start at position i.
func shouldStartNewToken(runes []rune, i int) bool {
	r := runes[i]
	prev := runes[i-1]

	if isSeparator(prev) {
		return false
	}

	// Letter/digit boundaries: "Form12" -> "Form" + "12".
	if unicode.IsDigit(r) != unicode.IsDigit(prev) {
		return true
	}

	// "userProfile" -> split before 'P'.
	if unicode.IsUpper(r) && !unicode.IsUpper(prev) {
		return true
	}

	// End of acronym: "XMLParser" -> split before 'P'.
	hasNextLower := i+1 < len(runes) && unicode.IsLower(runes[i+1])

	return unicode.IsUpper(r) && unicode.IsUpper(prev) && hasNextLower
}

// PascalCase joins the words of s with each word capitalized.
func PascalCase(s string) string {
	var b strings.Builder

	for _, t := range Tokenize(s) {
		b.WriteString(capitalize(t))
	}

	return leadingDigitSafe(b.String())
}

// CamelCase is PascalCase with the first word lowercased.
func CamelCase(s string) string {
	var b strings.Builder

	for i, t := range Tokenize(s) {
		if i == 0 {
			b.WriteString(strings.ToLower(t))
			continue
		}

		b.WriteString(capitalize(t))
	}

	return leadingDigitSafe(b.String())
}

func capitalize(word string) string {
	runes := []rune(strings.ToLower(word))
	runes[0] = unicode.ToUpper(runes[0])

	return string(runes)
}

// leadingDigitSafe prefixes an underscore when s would start with a digit.
func leadingDigitSafe(s string) string {
	if s != "" && unicode.IsDigit([]rune(s)[0]) {
		return "_" + s
	}

	return s
}

// IsIdentifier reports whether s can be used unquoted as an object key.
func IsIdentifier(s string) bool {
	if s == "" {
		return false
	}

	for i, r := range s {
		switch {
		case r == '_' || r == '$' || unicode.IsLetter(r):
		case i > 0 && unicode.IsDigit(r):
		default:
			return false
		}
	}

	return true
}

// QuoteKey returns s as an object key, single-quoted when it is not an identifier.
func QuoteKey(s string) string {
	if IsIdentifier(s) {
		return s
	}

	r := strings.NewReplacer(`\`, `\\`, `'`, `\'`, "\n", `\n`, "\r", `\r`)

	return "'" + r.Replace(s) + "'"
}
