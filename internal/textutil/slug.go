package textutil

import (
	"regexp"
	"strings"
)

var (
	nonWordPattern    = regexp.MustCompile(`[^\w\s-]`)
	whitespacePattern = regexp.MustCompile(`\s+`)
)

// Slugify converts a flavor name into a staging file stem: characters other
// than letters, digits, underscores, whitespace and hyphens are dropped,
// whitespace runs become single hyphens, and the result is lowercased.
// Returns "unknown" when nothing usable remains.
func Slugify(name string) string {
	cleaned := nonWordPattern.ReplaceAllString(strings.TrimSpace(name), "")
	cleaned = whitespacePattern.ReplaceAllString(strings.TrimSpace(cleaned), "-")
	cleaned = strings.ToLower(strings.Trim(cleaned, "-"))
	if cleaned == "" {
		return "unknown"
	}
	return cleaned
}
