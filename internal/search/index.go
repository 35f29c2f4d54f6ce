package search

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/bytedance/sonic"
	"github.com/phuslu/log"

	"github.com/civisearch/govseek/internal/cache"
	"github.com/civisearch/govseek/internal/storage"
)

// SnapshotName is the document name the index persists itself under.
const SnapshotName = "index.json"

// Posting records one document's occurrence data for a term. Weight is the
// highest field weight the term was seen in for that document.
type Posting struct {
	DocumentKey string         `json:"document_key"`
	TermCount   int            `json:"term_count"`
	Weight      int            `json:"weight"`
	Category    cache.Category `json:"category"`
}

// Index is a derived, rebuildable view over the cache store's live entries.
// It holds only document keys, never payload copies, so cache eviction
// silently orphans postings until the next rebuild.
type Index struct {
	Postings map[string][]Posting `json:"postings"`
	BuiltAt  *time.Time           `json:"built_at"`
	DocCount int                  `json:"doc_count"`
}

// BuildStats summarizes one index build
type BuildStats struct {
	Documents int   `json:"documents"`
	Skipped   int   `json:"skipped"`
	Terms     int   `json:"terms"`
	ElapsedMs int64 `json:"elapsed_ms"`
}

// Stats describes the current index
type Stats struct {
	Terms     int        `json:"terms"`
	Documents int        `json:"documents"`
	BuiltAt   *time.Time `json:"built_at,omitempty"`
}

// Engine owns the inverted index and answers search and suggest queries
// against it. The index is replaced atomically on rebuild; queries running
// against the previous index are unaffected.
type Engine struct {
	store *cache.Store
	snap  storage.Snapshotter

	mu    sync.RWMutex
	index *Index
}

// NewEngine creates a search engine over the given cache store. A previously
// persisted index is loaded if present; load failures degrade to an empty
// index awaiting the first rebuild.
func NewEngine(store *cache.Store, snap storage.Snapshotter) *Engine {
	e := &Engine{
		store: store,
		snap:  snap,
		index: &Index{Postings: make(map[string][]Posting)},
	}
	e.load()
	return e
}

func (e *Engine) load() {
	if e.snap == nil {
		return
	}

	data, err := e.snap.Load(context.Background(), SnapshotName)
	if err != nil {
		if !errors.Is(err, storage.ErrSnapshotNotFound) {
			log.Warn().Err(err).Msg("Failed to load index snapshot, starting empty")
		}
		return
	}

	var idx Index
	if err := sonic.ConfigFastest.Unmarshal(data, &idx); err != nil {
		log.Warn().Err(err).Msg("Corrupt index snapshot, starting empty")
		return
	}
	if idx.Postings == nil {
		idx.Postings = make(map[string][]Posting)
	}

	e.index = &idx
	log.Info().Int("terms", len(idx.Postings)).Msg("Index snapshot loaded")
}

// Rebuild discards the current index and builds a fresh one from all live
// cache entries. A per-document extraction failure skips that document and
// never aborts the build. The new index replaces the old atomically.
func (e *Engine) Rebuild() BuildStats {
	start := time.Now()
	entries := e.store.GetAllLive()

	postings := make(map[string][]Posting)
	stats := BuildStats{}

	for _, entry := range entries {
		if e.indexDocument(postings, entry) {
			stats.Documents++
		} else {
			stats.Skipped++
		}
	}

	builtAt := time.Now()
	idx := &Index{
		Postings: postings,
		BuiltAt:  &builtAt,
		DocCount: stats.Documents,
	}

	e.mu.Lock()
	e.index = idx
	e.mu.Unlock()

	stats.Terms = len(postings)
	stats.ElapsedMs = time.Since(start).Milliseconds()

	log.Info().
		Int("documents", stats.Documents).
		Int("skipped", stats.Skipped).
		Int("terms", stats.Terms).
		Int64("elapsed_ms", stats.ElapsedMs).
		Msg("Index rebuilt")

	e.persist(idx)
	return stats
}

// indexDocument tokenizes one cache entry into postings. Returns false if
// extraction panicked; the document is skipped.
func (e *Engine) indexDocument(postings map[string][]Posting, entry cache.LiveEntry) (ok bool) {
	defer func() {
		if r := recover(); r != nil {
			log.Error().
				Str("key", entry.Key).
				Interface("panic", r).
				Msg("Failed to index document, skipping")
			ok = false
		}
	}()

	type termStat struct {
		count  int
		weight int
	}
	terms := make(map[string]*termStat)

	for _, field := range extractFields(entry.Category, entry.Payload) {
		for _, token := range Tokenize(field.text) {
			stat, exists := terms[token]
			if !exists {
				stat = &termStat{weight: field.weight}
				terms[token] = stat
			}
			stat.count++
			if field.weight > stat.weight {
				stat.weight = field.weight
			}
		}
	}

	for term, stat := range terms {
		postings[term] = append(postings[term], Posting{
			DocumentKey: entry.Key,
			TermCount:   stat.count,
			Weight:      stat.weight,
			Category:    entry.Category,
		})
	}

	return true
}

func (e *Engine) persist(idx *Index) {
	if e.snap == nil {
		return
	}

	data, err := sonic.ConfigFastest.Marshal(idx)
	if err != nil {
		log.Error().Err(err).Msg("Failed to marshal index snapshot")
		return
	}

	if err := e.snap.Save(context.Background(), SnapshotName, data); err != nil {
		log.Error().Err(err).Msg("Failed to save index snapshot")
	}
}

// current returns the live index for reads
func (e *Engine) current() *Index {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.index
}

// Stats returns index-level statistics
func (e *Engine) Stats() Stats {
	idx := e.current()
	return Stats{
		Terms:     len(idx.Postings),
		Documents: idx.DocCount,
		BuiltAt:   idx.BuiltAt,
	}
}
