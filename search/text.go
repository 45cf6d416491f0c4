package search

import (
	"strings"
	"unicode"
)

const (
	rawMatchBoost    = 10
	tokenMatchWeight = 2
	prefixMatchScore = 1
)

func tokenize(s string) []string {
	return strings.FieldsFunc(strings.ToLower(s), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
}

// fieldScore scores one text field against the query tokens. A whole-field
// match of the raw query gets the exact match boost.
func fieldScore(field, raw string, query []string, weight int) int {
	if field == "" {
		return 0
	}

	score := 0
	if strings.EqualFold(strings.TrimSpace(field), strings.TrimSpace(raw)) {
		score += rawMatchBoost * weight
	}

	tokens := tokenize(field)
	for _, q := range query {
		for _, tok := range tokens {
			if tok == q {
				score += tokenMatchWeight * weight
				break
			}
			if strings.HasPrefix(tok, q) {
				score += prefixMatchScore * weight
				break
			}
		}
	}
	return score
}

// suggestScore matches the raw query and its tokens as prefixes of a
// formatted value, the way amounts and dates are matched while typing.
func suggestScore(value, raw string, query []string) int {
	score := 0
	if raw = strings.TrimSpace(raw); raw != "" && strings.HasPrefix(value, raw) {
		score += rawMatchBoost
	}
	for _, q := range query {
		if strings.HasPrefix(value, q) {
			score += prefixMatchScore
		}
	}
	return score
}
