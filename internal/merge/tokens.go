package merge

import (
	"strings"
	"unicode"
)

// QueryTokens turns a flavor name into search tokens: lowercased,
// parentheses removed, split on whitespace. Tokens without a letter or digit
// (a lone "&", "-", "!") are dropped.
func QueryTokens(name string) []string {
	cleaned := strings.NewReplacer("(", " ", ")", " ").Replace(strings.ToLower(name))
	fields := strings.Fields(cleaned)
	tokens := make([]string, 0, len(fields))
	for _, f := range fields {
		if strings.IndexFunc(f, func(r rune) bool { return unicode.IsLetter(r) || unicode.IsDigit(r) }) < 0 {
			continue
		}
		tokens = append(tokens, f)
	}
	return tokens
}
