package cache

import (
	"strings"
	"unicode"
)

// toSnake turns a Go type name into a snake_case resource name, e.g.
// "LedgerEntry" to "ledger_entry" and "HTTPRequest" to "http_request".
// Anything that is not a letter or digit separates words.
func toSnake(name string) string {
	var words []string
	var word []rune

	flush := func() {
		if len(word) > 0 {
			words = append(words, strings.ToLower(string(word)))
			word = word[:0]
		}
	}

	runes := []rune(name)
	for i, r := range runes {
		if !unicode.IsLetter(r) && !unicode.IsDigit(r) {
			flush()
			continue
		}
		if i > 0 && len(word) > 0 && startsWord(runes, i) {
			flush()
		}
		word = append(word, r)
	}
	flush()

	return strings.Join(words, "_")
}

// startsWord reports whether runes[i] opens a new word: an upper case letter
// after a lower case letter or digit, the last capital of an acronym that is
// followed by lower case, or a digit run after letters.
func startsWord(runes []rune, i int) bool {
	r, prev := runes[i], runes[i-1]
	switch {
	case unicode.IsUpper(r):
		if unicode.IsLower(prev) || unicode.IsDigit(prev) {
			return true
		}
		return unicode.IsUpper(prev) && i+1 < len(runes) && unicode.IsLower(runes[i+1])
	case unicode.IsDigit(r):
		return !unicode.IsDigit(prev)
	}
	return false
}
