package naming

import (
	"strings"
	"unicode"

	"github.com/jinzhu/inflection"
)

// CamelToSnake converts a CamelCase string to snake_case.
// Consecutive uppercase letters (acronyms) are kept together:
// "ID" → "id", "UserID" → "user_id", "CreatedAt" → "created_at".
func CamelToSnake(s string) string {
	runes := []rune(s)
	var b strings.Builder
	for i, r := range runes {
		if unicode.IsUpper(r) {
			if i > 0 {
				prev := runes[i-1]
				next := rune(0)
				if i+1 < len(runes) {
					next = runes[i+1]
				}
				if unicode.IsLower(prev) || unicode.IsDigit(prev) || (unicode.IsUpper(prev) && unicode.IsLower(next)) {
					b.WriteByte('_')
				}
			}
			b.WriteRune(unicode.ToLower(r))
		} else {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// SnakeToCamel converts a snake_case string to CamelCase.
// Common initialisms are upper-cased as a whole: "user_id" → "UserID".
func SnakeToCamel(s string) string {
	parts := strings.Split(s, "_")
	var b strings.Builder
	for _, p := range parts {
		if p == "" {
			continue
		}
		if up := strings.ToUpper(p); initialisms[up] {
			b.WriteString(up)
			continue
		}
		runes := []rune(p)
		runes[0] = unicode.ToUpper(runes[0])
		b.WriteString(string(runes))
	}
	return b.String()
}

var initialisms = map[string]bool{
	"ID":   true,
	"URL":  true,
	"UUID": true,
	"API":  true,
	"HTTP": true,
	"IP":   true,
	"SQL":  true,
}

// Plural appends "s". It never consults a dictionary, so "category"
// becomes "categorys".
func Plural(s string) string {
	if s == "" {
		return s
	}
	return s + "s"
}

// InflectPlural pluralises the last word of a snake_case name using English
// inflection rules: "blog_category" → "blog_categories".
func InflectPlural(s string) string {
	if s == "" {
		return s
	}
	i := strings.LastIndexByte(s, '_')
	return s[:i+1] + inflection.Plural(s[i+1:])
}
