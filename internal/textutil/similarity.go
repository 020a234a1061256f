package textutil

import "strings"

// DiceSimilarity returns the Sørensen–Dice coefficient of the character
// bigrams of a and b, ignoring whitespace. Identical strings score 1; strings
// shorter than two characters score 0 unless identical.
func DiceSimilarity(a, b string) float64 {
	a = stripSpace(a)
	b = stripSpace(b)
	if a == b {
		return 1
	}
	ra, rb := []rune(a), []rune(b)
	if len(ra) < 2 || len(rb) < 2 {
		return 0
	}

	counts := make(map[[2]rune]int, len(ra)-1)
	for i := 0; i < len(ra)-1; i++ {
		counts[[2]rune{ra[i], ra[i+1]}]++
	}
	overlap := 0
	for i := 0; i < len(rb)-1; i++ {
		key := [2]rune{rb[i], rb[i+1]}
		if counts[key] > 0 {
			counts[key]--
			overlap++
		}
	}
	return 2 * float64(overlap) / float64(len(ra)+len(rb)-2)
}

func stripSpace(s string) string {
	return strings.Map(func(r rune) rune {
		if isSpace(r) {
			return -1
		}
		return r
	}, s)
}
