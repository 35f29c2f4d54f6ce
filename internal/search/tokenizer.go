package search

import (
	"regexp"
	"strings"
)

// stopWords are dropped at both index and query time
var stopWords = map[string]struct{}{
	"the": {}, "and": {}, "for": {}, "are": {}, "but": {}, "not": {},
	"you": {}, "all": {}, "any": {}, "can": {}, "had": {}, "her": {},
	"was": {}, "one": {}, "our": {}, "out": {}, "has": {}, "have": {},
	"him": {}, "his": {}, "how": {}, "its": {}, "may": {}, "new": {},
	"now": {}, "old": {}, "see": {}, "two": {}, "way": {}, "who": {},
	"did": {}, "get": {}, "com": {}, "this": {}, "that": {}, "with": {},
	"from": {}, "they": {}, "been": {}, "were": {}, "said": {}, "each": {},
	"which": {}, "their": {}, "will": {}, "other": {}, "about": {},
	"there": {}, "when": {}, "your": {}, "them": {}, "these": {}, "than": {},
	"then": {}, "into": {}, "only": {}, "over": {}, "also": {}, "under": {},
	"more": {}, "some": {}, "such": {}, "here": {}, "where": {}, "after": {},
	"before": {}, "between": {}, "both": {}, "during": {}, "does": {},
}

var nonWordChars = regexp.MustCompile(`[^a-z0-9\s-]+`)

// Tokenize lower-cases the input, strips non-word characters (hyphens are
// kept), splits on whitespace, and drops short tokens and stop words. The
// same tokenizer is used at index and query time.
func Tokenize(s string) []string {
	s = nonWordChars.ReplaceAllString(strings.ToLower(s), " ")

	words := strings.Fields(s)
	tokens := make([]string, 0, len(words))
	for _, word := range words {
		word = strings.Trim(word, "-")
		if len(word) <= 2 {
			continue
		}
		if _, stop := stopWords[word]; stop {
			continue
		}
		tokens = append(tokens, word)
	}
	return tokens
}
