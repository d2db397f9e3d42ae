package matcher

import (
	"strings"
	"unicode"
)

// Similarity returns the Dice coefficient of the character bigrams of a and b,
// ignoring whitespace. Identical strings score 1; strings shorter than two
// characters score 0 unless identical.
func Similarity(a, b string) float64 {
	a = stripSpace(a)
	b = stripSpace(b)
	if a == b {
		return 1
	}
	ra, rb := []rune(a), []rune(b)
	if len(ra) < 2 || len(rb) < 2 {
		return 0
	}

	first := make(map[string]int, len(ra)-1)
	for i := 0; i < len(ra)-1; i++ {
		first[string(ra[i:i+2])]++
	}
	var intersection int
	for i := 0; i < len(rb)-1; i++ {
		bigram := string(rb[i : i+2])
		if n := first[bigram]; n > 0 {
			first[bigram] = n - 1
			intersection++
		}
	}
	return 2 * float64(intersection) / float64(len(ra)+len(rb)-2)
}

func stripSpace(s string) string {
	return strings.Map(func(r rune) rune {
		if unicode.IsSpace(r) {
			return -1
		}
		return r
	}, s)
}
