package repository

import (
	"strings"
	"unicode"
)

// SearchTerms splits a title search into lower-cased word terms, dropping
// punctuation so the terms are safe to embed in a text-search query.
func SearchTerms(title string) []string {
	return strings.FieldsFunc(strings.ToLower(title), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
}

// MatchesTitle reports whether every term prefixes some word of title.
func MatchesTitle(title string, terms []string) bool {
	words := SearchTerms(title)
	for _, term := range terms {
		found := false
		for _, w := range words {
			if strings.HasPrefix(w, term) {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	return true
}
