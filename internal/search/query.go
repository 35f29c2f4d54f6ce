package search

import (
	"regexp"
	"sort"
	"strings"
	"time"

	"github.com/civisearch/govseek/internal/cache"
)

const (
	defaultLimit   = 10
	maxLimit       = 100
	snippetWindow  = 200
	snippetLeadIn  = 50
)

// Sort orders for search results
const (
	SortByRelevance = "relevance"
	SortByDate      = "date"
)

// Options adjusts a single search call
type Options struct {
	Limit           int
	Offset          int
	Category        cache.Category // empty matches all categories
	SortBy          string         // relevance (default) or date
	IncludeSnippets bool
}

// Highlight reports how often a query token occurs in a result's payload
type Highlight struct {
	Term  string `json:"term"`
	Count int    `json:"count"`
}

// Result is one ranked document. Payload is nil when the cache entry was
// evicted after the last rebuild; the orphaned posting is still reported.
type Result struct {
	ID         string         `json:"id"`
	Category   cache.Category `json:"category"`
	Score      int            `json:"score"`
	Payload    any            `json:"payload"`
	Snippet    string         `json:"snippet,omitempty"`
	Highlights []Highlight    `json:"highlights,omitempty"`
}

// Response is a full search answer. Scores are raw accumulated weights, not
// normalized to a fixed range.
type Response struct {
	Results   []Result `json:"results"`
	Total     int      `json:"total"`
	Tokens    []string `json:"tokens"`
	ElapsedMs int64    `json:"elapsed_ms"`
}

// Search tokenizes the query, scores candidate documents against the index,
// ranks, paginates, and re-joins payloads from the cache store. A query that
// tokenizes to nothing yields an empty result, not an error.
func (e *Engine) Search(query string, opts Options) Response {
	start := time.Now()

	if opts.Limit <= 0 {
		opts.Limit = defaultLimit
	}
	if opts.Limit > maxLimit {
		opts.Limit = maxLimit
	}
	if opts.Offset < 0 {
		opts.Offset = 0
	}

	tokens := Tokenize(query)
	resp := Response{
		Results: []Result{},
		Tokens:  tokens,
	}
	if len(tokens) == 0 {
		resp.ElapsedMs = time.Since(start).Milliseconds()
		return resp
	}

	idx := e.current()

	// Accumulate per-document scores in discovery order so ties rank stably
	type candidate struct {
		key      string
		category cache.Category
		score    int
	}
	scores := make(map[string]*candidate)
	var order []*candidate

	for _, token := range tokens {
		for _, posting := range idx.Postings[token] {
			if opts.Category != "" && posting.Category != opts.Category {
				continue
			}
			cand, exists := scores[posting.DocumentKey]
			if !exists {
				cand = &candidate{key: posting.DocumentKey, category: posting.Category}
				scores[posting.DocumentKey] = cand
				order = append(order, cand)
			}
			cand.score += posting.TermCount * posting.Weight
		}
	}

	if opts.SortBy == SortByDate {
		// Newest documents first; evicted documents sink to the end
		sort.SliceStable(order, func(i, j int) bool {
			ci, _ := e.store.CreatedAt(order[i].key)
			cj, _ := e.store.CreatedAt(order[j].key)
			return ci.After(cj)
		})
	} else {
		sort.SliceStable(order, func(i, j int) bool {
			return order[i].score > order[j].score
		})
	}

	resp.Total = len(order)

	// Paginate after full ranking
	if opts.Offset >= len(order) {
		resp.ElapsedMs = time.Since(start).Milliseconds()
		return resp
	}
	page := order[opts.Offset:]
	if len(page) > opts.Limit {
		page = page[:opts.Limit]
	}

	for _, cand := range page {
		result := Result{
			ID:       cand.key,
			Category: cand.category,
			Score:    cand.score,
		}

		if payload, ok := e.store.PeekLive(cand.key); ok {
			result.Payload = payload
			text := flattenText(payload)
			result.Highlights = highlightCounts(text, tokens)
			if opts.IncludeSnippets {
				result.Snippet = makeSnippet(text, tokens)
			}
		}

		resp.Results = append(resp.Results, result)
	}

	resp.ElapsedMs = time.Since(start).Milliseconds()
	return resp
}

// flattenText serializes a payload to a flat text form for snippet and
// highlight generation.
func flattenText(payload any) string {
	var parts []string
	collectStrings(payload, &parts)
	return strings.Join(parts, " ")
}

// makeSnippet returns a window of up to snippetWindow characters around the
// first occurrence of any matched token, with an ellipsis when truncated.
func makeSnippet(text string, tokens []string) string {
	if text == "" {
		return ""
	}

	lower := strings.ToLower(text)
	first := -1
	for _, token := range tokens {
		if idx := strings.Index(lower, token); idx >= 0 && (first < 0 || idx < first) {
			first = idx
		}
	}
	if first < 0 {
		first = 0
	}

	start := first - snippetLeadIn
	if start < 0 {
		start = 0
	}
	end := start + snippetWindow
	if end >= len(text) {
		return text[start:]
	}
	return text[start:end] + "..."
}

// highlightCounts reports whole-word, case-insensitive occurrence counts for
// each query token. Tokens with zero occurrences are omitted.
func highlightCounts(text string, tokens []string) []Highlight {
	if text == "" {
		return nil
	}

	var highlights []Highlight
	for _, token := range tokens {
		re, err := regexp.Compile(`(?i)\b` + regexp.QuoteMeta(token) + `\b`)
		if err != nil {
			continue
		}
		if count := len(re.FindAllStringIndex(text, -1)); count > 0 {
			highlights = append(highlights, Highlight{Term: token, Count: count})
		}
	}
	return highlights
}
