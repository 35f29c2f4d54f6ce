package search

import (
	"sort"
	"strings"
)

// Suggestion is one completion for a query prefix
type Suggestion struct {
	Term     string `json:"term"`
	DocCount int    `json:"doc_count"`
}

// Suggest lists index terms starting with the last token of partial, with the
// number of distinct documents containing each. Inputs shorter than two
// characters yield nothing. Terms are returned in lexical order, not ranked
// by frequency.
func (e *Engine) Suggest(partial string, limit int) []Suggestion {
	if len(strings.TrimSpace(partial)) < 2 {
		return []Suggestion{}
	}
	if limit <= 0 {
		limit = defaultLimit
	}

	tokens := Tokenize(partial)
	if len(tokens) == 0 {
		return []Suggestion{}
	}
	prefix := tokens[len(tokens)-1]

	idx := e.current()

	terms := make([]string, 0, 16)
	for term := range idx.Postings {
		if strings.HasPrefix(term, prefix) {
			terms = append(terms, term)
		}
	}
	sort.Strings(terms)

	if len(terms) > limit {
		terms = terms[:limit]
	}

	suggestions := make([]Suggestion, 0, len(terms))
	for _, term := range terms {
		suggestions = append(suggestions, Suggestion{
			Term:     term,
			DocCount: len(idx.Postings[term]),
		})
	}
	return suggestions
}
