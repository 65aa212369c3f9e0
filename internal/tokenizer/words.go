package tokenizer

import (
	"regexp"
	"strings"
	"unicode"
)

var entityEscape = regexp.MustCompile(`&#?[A-Za-z0-9]+?;`)

// nonbreaking characters join word parts instead of splitting them, so
// contractions like "don't" survive as one word.
func nonbreaking(r rune) bool {
	return r == '\'' || r == '’'
}

// ExtractWords normalizes a string into a sequence of lowercase words. It
// works on any text, HTML or not: entity escapes are removed, alphanumerics
// are lowercased, nonbreaking characters pass through, everything else
// becomes a word boundary, and pure-digit tokens are dropped.
func ExtractWords(s string) []string {
	s = entityEscape.ReplaceAllString(s, "")
	s = strings.Map(func(r rune) rune {
		switch {
		case unicode.IsLetter(r) || unicode.IsNumber(r):
			return unicode.ToLower(r)
		case nonbreaking(r):
			return r
		default:
			return ' '
		}
	}, s)

	var words []string
	for _, word := range strings.Fields(s) {
		if digitsOnly(word) || !hasAlnum(word) {
			continue
		}
		words = append(words, word)
	}
	return words
}

func digitsOnly(s string) bool {
	for _, r := range s {
		if !unicode.IsNumber(r) {
			return false
		}
	}
	return true
}

func hasAlnum(s string) bool {
	for _, r := range s {
		if unicode.IsLetter(r) || unicode.IsNumber(r) {
			return true
		}
	}
	return false
}
