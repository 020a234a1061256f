// Package scan finds ingredient identifiers in document text.
package scan

import (
	"strings"

	"sdsscan/internal/store"
)

// Match is one signature found in a document.
type Match struct {
	Category   string
	Identifier string
	Name       string
}

// Finding is a match attributed to a vendor and an extracted flavor name,
// waiting to be merged into the store.
type Finding struct {
	Category   string
	Vendor     string
	Flavor     string
	Ingredient string
}

// Label is the composite "<vendor> <flavor>" label used for disambiguation.
func (f Finding) Label() string {
	return f.Vendor + " " + f.Flavor
}

// Normalize prepares text for matching: the first line break character is
// removed (only the first) and the text is lowercased.
func Normalize(text string) string {
	if i := strings.IndexAny(text, "\r\n"); i >= 0 {
		text = text[:i] + text[i+1:]
	}
	return strings.ToLower(text)
}

// Scan reports every signature whose identifier occurs in text, in signature
// order. Empty text yields no matches.
func Scan(text string, signatures []store.IngredientSignature) []Match {
	if text == "" || len(signatures) == 0 {
		return nil
	}
	normalized := Normalize(text)
	var matches []Match
	for _, sig := range signatures {
		id := strings.ToLower(sig.Identifier)
		if id == "" || !strings.Contains(normalized, id) {
			continue
		}
		matches = append(matches, Match{
			Category:   sig.Category,
			Identifier: sig.Identifier,
			Name:       sig.Name,
		})
	}
	return matches
}

// Findings attributes matches to a vendor and flavor.
func Findings(vendor, flavor string, matches []Match) []Finding {
	if len(matches) == 0 {
		return nil
	}
	out := make([]Finding, 0, len(matches))
	for _, m := range matches {
		out = append(out, Finding{
			Category:   m.Category,
			Vendor:     vendor,
			Flavor:     flavor,
			Ingredient: m.Identifier,
		})
	}
	return out
}
