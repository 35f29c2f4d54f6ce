package search

import (
	"strings"
	"testing"
	"time"

	"github.com/civisearch/govseek/internal/cache"
)

func TestSearch_FindsIndexedDocument(t *testing.T) {
	engine, _ := newPopulatedEngine(t)

	resp := engine.Search("burglary", Options{})
	if resp.Total != 1 {
		t.Fatalf("expected 1 hit, got %d", resp.Total)
	}

	result := resp.Results[0]
	if result.ID != "crimes?lat=51.5" {
		t.Errorf("expected id crimes?lat=51.5, got %s", result.ID)
	}
	if result.Score <= 0 {
		t.Errorf("expected positive score, got %d", result.Score)
	}
	if result.Category != cache.CategoryCrime {
		t.Errorf("expected crime category, got %s", result.Category)
	}
	if result.Payload == nil {
		t.Error("live document should carry its payload")
	}
}

func TestSearch_EmptyAndStopWordQueries(t *testing.T) {
	engine, _ := newPopulatedEngine(t)

	for _, query := range []string{"", "   ", "the and with", "?!"} {
		resp := engine.Search(query, Options{})
		if resp.Total != 0 {
			t.Errorf("query %q should yield total 0, got %d", query, resp.Total)
		}
		if len(resp.Results) != 0 {
			t.Errorf("query %q should yield no results", query)
		}
	}
}

func TestSearch_CategoryFilter(t *testing.T) {
	store := cache.NewStore(100, time.Hour, nil)
	store.Set("crime-doc", map[string]any{
		"category": "vehicle crime",
		"location": map[string]any{"street": map[string]any{"name": "Station Road"}},
	}, cache.CategoryCrime, time.Hour)
	store.Set("planning-doc", map[string]any{
		"name": "Station Road crossing improvements",
	}, cache.CategoryPlanning, time.Hour)

	engine := NewEngine(store, nil)
	engine.Rebuild()

	all := engine.Search("station", Options{})
	if all.Total != 2 {
		t.Fatalf("expected 2 hits across categories, got %d", all.Total)
	}

	crimeOnly := engine.Search("station", Options{Category: cache.CategoryCrime})
	if crimeOnly.Total != 1 {
		t.Fatalf("expected 1 crime hit, got %d", crimeOnly.Total)
	}
	if crimeOnly.Results[0].ID != "crime-doc" {
		t.Errorf("filtered result has wrong id: %s", crimeOnly.Results[0].ID)
	}
}

func TestSearch_TitleBoostOrdersResults(t *testing.T) {
	store := cache.NewStore(100, time.Hour, nil)
	store.Set("title-hit", map[string]any{
		"name": "library refurbishment",
	}, cache.CategoryPlanning, time.Hour)
	store.Set("body-hit", map[string]any{
		"name":        "unrelated works",
		"description": "next to the library",
	}, cache.CategoryPlanning, time.Hour)

	engine := NewEngine(store, nil)
	engine.Rebuild()

	resp := engine.Search("library", Options{})
	if resp.Total != 2 {
		t.Fatalf("expected 2 hits, got %d", resp.Total)
	}
	if resp.Results[0].ID != "title-hit" {
		t.Errorf("title match should outrank body match, got %s first", resp.Results[0].ID)
	}
	if resp.Results[0].Score <= resp.Results[1].Score {
		t.Errorf("expected strictly higher score for title match: %d vs %d",
			resp.Results[0].Score, resp.Results[1].Score)
	}
}

func TestSearch_Pagination(t *testing.T) {
	store := cache.NewStore(100, time.Hour, nil)
	for _, key := range []string{"d1", "d2", "d3", "d4", "d5"} {
		store.Set(key, map[string]any{"description": "recycling centre"}, cache.CategoryPlanning, time.Hour)
	}

	engine := NewEngine(store, nil)
	engine.Rebuild()

	first := engine.Search("recycling", Options{Limit: 2})
	if first.Total != 5 || len(first.Results) != 2 {
		t.Fatalf("expected total 5 with 2 results, got %d/%d", first.Total, len(first.Results))
	}

	rest := engine.Search("recycling", Options{Limit: 10, Offset: 2})
	if len(rest.Results) != 3 {
		t.Errorf("expected 3 remaining results, got %d", len(rest.Results))
	}

	beyond := engine.Search("recycling", Options{Offset: 50})
	if len(beyond.Results) != 0 || beyond.Total != 5 {
		t.Errorf("offset past the end keeps total but returns nothing")
	}
}

func TestSearch_EvictedDocumentHasNilPayload(t *testing.T) {
	engine, store := newPopulatedEngine(t)

	store.Delete("crimes?lat=51.5")

	resp := engine.Search("burglary", Options{})
	if resp.Total != 1 {
		t.Fatalf("orphaned posting should still be reported, got %d hits", resp.Total)
	}
	if resp.Results[0].Payload != nil {
		t.Error("evicted document should have nil payload")
	}
	if resp.Results[0].Snippet != "" || len(resp.Results[0].Highlights) != 0 {
		t.Error("no snippet or highlights without a payload")
	}
}

func TestSearch_Snippets(t *testing.T) {
	long := strings.Repeat("lorem ipsum ", 40) + "allotment" + strings.Repeat(" dolor sit", 40)
	store := cache.NewStore(100, time.Hour, nil)
	store.Set("doc", map[string]any{"description": long}, cache.CategoryPlanning, time.Hour)

	engine := NewEngine(store, nil)
	engine.Rebuild()

	resp := engine.Search("allotment", Options{IncludeSnippets: true})
	if resp.Total != 1 {
		t.Fatal("expected a hit")
	}

	snippet := resp.Results[0].Snippet
	if snippet == "" {
		t.Fatal("expected a snippet")
	}
	if !strings.Contains(snippet, "allotment") {
		t.Errorf("snippet should contain the matched term: %q", snippet)
	}
	if !strings.HasSuffix(snippet, "...") {
		t.Errorf("truncated snippet should end with ellipsis: %q", snippet)
	}
	if len(snippet) > snippetWindow+3 {
		t.Errorf("snippet too long: %d chars", len(snippet))
	}
}

func TestSearch_SnippetShortTextNotTruncated(t *testing.T) {
	store := cache.NewStore(100, time.Hour, nil)
	store.Set("doc", map[string]any{"description": "small allotment plot"}, cache.CategoryPlanning, time.Hour)

	engine := NewEngine(store, nil)
	engine.Rebuild()

	resp := engine.Search("allotment", Options{IncludeSnippets: true})
	if snippet := resp.Results[0].Snippet; strings.HasSuffix(snippet, "...") {
		t.Errorf("short text should not be truncated: %q", snippet)
	}
}

func TestSearch_Highlights(t *testing.T) {
	store := cache.NewStore(100, time.Hour, nil)
	store.Set("doc", map[string]any{
		"name":        "Cycle lane extension",
		"description": "New cycle lane and cycle parking along the route",
	}, cache.CategoryPlanning, time.Hour)

	engine := NewEngine(store, nil)
	engine.Rebuild()

	resp := engine.Search("cycle missingword", Options{})
	if resp.Total != 1 {
		t.Fatal("expected a hit")
	}

	highlights := resp.Results[0].Highlights
	if len(highlights) != 1 {
		t.Fatalf("zero-count tokens must be omitted, got %v", highlights)
	}
	if highlights[0].Term != "cycle" || highlights[0].Count != 3 {
		t.Errorf("expected cycle x3, got %+v", highlights[0])
	}
}

func TestSearch_SortByDate(t *testing.T) {
	store := cache.NewStore(100, time.Hour, nil)
	current := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	store.SetClock(func() time.Time { return current })

	store.Set("older", map[string]any{"name": "allotment plots"}, cache.CategoryPlanning, time.Hour)
	current = current.Add(time.Minute)
	store.Set("newer", map[string]any{"description": "allotment allotment allotment allotment"}, cache.CategoryPlanning, time.Hour)

	engine := NewEngine(store, nil)
	engine.Rebuild()

	byRelevance := engine.Search("allotment", Options{})
	if byRelevance.Results[0].ID != "newer" {
		t.Errorf("four body hits outscore one title hit, got %s first", byRelevance.Results[0].ID)
	}

	byDate := engine.Search("allotment", Options{SortBy: SortByDate})
	if byDate.Results[0].ID != "newer" || byDate.Results[1].ID != "older" {
		t.Errorf("date sort should order newest first: %s, %s",
			byDate.Results[0].ID, byDate.Results[1].ID)
	}
}

func TestSearch_MultiTokenAccumulatesScore(t *testing.T) {
	engine, _ := newPopulatedEngine(t)

	single := engine.Search("burglary", Options{})
	double := engine.Search("burglary high", Options{})

	if double.Results[0].Score <= single.Results[0].Score {
		t.Errorf("matching more tokens should raise the score: %d vs %d",
			double.Results[0].Score, single.Results[0].Score)
	}
}
