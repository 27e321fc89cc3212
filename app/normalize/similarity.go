package normalize

import (
	"strings"
	"unicode"
)

// TitleSimilarity computes Jaccard similarity over character trigram
// sets of the normalized titles. It is a shape heuristic, not semantic
// matching: cheap, symmetric, and tolerant of the punctuation and
// whitespace drift between sites listing the same event.
func TitleSimilarity(a, b string) float64 {
	na := normalizeTitle(a)
	nb := normalizeTitle(b)

	if na == "" || nb == "" {
		return 0.0
	}
	if na == nb {
		return 1.0
	}

	ta := trigrams(na)
	tb := trigrams(nb)
	if len(ta) == 0 || len(tb) == 0 {
		return 0.0
	}

	intersection := 0
	for g := range ta {
		if tb[g] {
			intersection++
		}
	}
	union := len(ta) + len(tb) - intersection

	return float64(intersection) / float64(union)
}

// Connective spellings that drift between sites listing the same event.
var connectiveReplacer = strings.NewReplacer(
	"&", " and ",
	"+", " and ",
)

// normalizeTitle lowercases, folds connective symbols to their spelled
// form, and strips everything that is not a letter or digit. Letters
// and digits in any script count; "Blankets & Wine" and "Blankets and
// Wine" normalize identically.
func normalizeTitle(s string) string {
	s = connectiveReplacer.Replace(strings.ToLower(s))

	var b strings.Builder
	for _, r := range s {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			b.WriteRune(r)
		}
	}
	return b.String()
}

func trigrams(s string) map[string]bool {
	runes := []rune(s)
	grams := make(map[string]bool)
	if len(runes) < 3 {
		grams[s] = true
		return grams
	}
	for i := 0; i+3 <= len(runes); i++ {
		grams[string(runes[i:i+3])] = true
	}
	return grams
}
