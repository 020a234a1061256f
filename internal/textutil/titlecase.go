package textutil

import (
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// smallWords stay lowercase unless they open or close the title.
var smallWords = map[string]struct{}{
	"a": {}, "an": {}, "and": {}, "as": {}, "at": {}, "but": {}, "by": {},
	"en": {}, "for": {}, "if": {}, "in": {}, "nor": {}, "of": {}, "on": {},
	"or": {}, "per": {}, "the": {}, "to": {}, "v": {}, "vs": {}, "via": {},
}

// TitleCase capitalizes each whitespace-separated word of s. Hyphenated words
// are capitalized part by part. Small words (and, of, the, ...) remain
// lowercase except at the first and last position. Interior whitespace is
// preserved; callers collapse it beforehand when needed.
func TitleCase(s string) string {
	if strings.TrimSpace(s) == "" {
		return s
	}
	// cases.Caser keeps state and is not safe for concurrent use.
	caser := cases.Title(language.Und, cases.NoLower)

	words := strings.Fields(s)
	first, last := 0, len(words)-1
	var b strings.Builder
	b.Grow(len(s))
	idx := 0
	rest := s
	for len(rest) > 0 {
		start := strings.IndexFunc(rest, func(r rune) bool { return !isSpace(r) })
		if start < 0 {
			b.WriteString(rest)
			break
		}
		b.WriteString(rest[:start])
		rest = rest[start:]
		end := strings.IndexFunc(rest, isSpace)
		if end < 0 {
			end = len(rest)
		}
		word := rest[:end]
		rest = rest[end:]

		if _, small := smallWords[strings.ToLower(word)]; small && idx != first && idx != last {
			b.WriteString(word)
		} else {
			b.WriteString(titleWord(caser, word))
		}
		idx++
	}
	return b.String()
}

func titleWord(caser cases.Caser, word string) string {
	parts := strings.Split(word, "-")
	for i, part := range parts {
		if part == "" {
			continue
		}
		parts[i] = caser.String(part)
		caser.Reset()
	}
	return strings.Join(parts, "-")
}

func isSpace(r rune) bool {
	switch r {
	case ' ', '\t', '\n', '\r', '\v', '\f':
		return true
	}
	return false
}
