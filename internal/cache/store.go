package cache

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"

	"github.com/bytedance/sonic"
	"github.com/phuslu/log"

	"github.com/civisearch/govseek/internal/storage"
)

// SnapshotName is the document name the store persists itself under.
const SnapshotName = "cache.json"

// Category tags a cache entry with the data source it came from. It is set
// explicitly at write time, never re-derived from the key.
type Category string

const (
	CategoryCrime    Category = "crime"
	CategoryPlanning Category = "planning"
	CategorySpending Category = "spending"
	CategoryGeneric  Category = "generic"
)

// Entry is a single cached upstream response
type Entry struct {
	Key            string    `json:"key"`
	Payload        any       `json:"payload"`
	Category       Category  `json:"category"`
	CreatedAt      time.Time `json:"created_at"`
	LastAccessedAt time.Time `json:"last_accessed_at"`
	TTLSeconds     int64     `json:"ttl_seconds"`
}

// expiredAt reports whether the entry's TTL has elapsed at time now
func (e *Entry) expiredAt(now time.Time) bool {
	return now.Sub(e.CreatedAt) > time.Duration(e.TTLSeconds)*time.Second
}

// LiveEntry is the indexer-facing view of a non-expired entry
type LiveEntry struct {
	Key       string
	Payload   any
	Category  Category
	CreatedAt time.Time
}

// Stats describes the store's current contents
type Stats struct {
	Count             int        `json:"count"`
	ExpiredCount      int        `json:"expired_count"`
	Oldest            *time.Time `json:"oldest,omitempty"`
	Newest            *time.Time `json:"newest,omitempty"`
	ByteSize          int64      `json:"byte_size"`
	MaxEntries        int        `json:"max_entries"`
	DefaultTTLSeconds int64      `json:"default_ttl_seconds"`
}

// Store is a TTL-expiring, size-bounded cache of upstream JSON payloads with
// least-recently-accessed eviction. Every mutation persists a full snapshot;
// persistence failures are logged and swallowed, the in-memory state stays
// authoritative.
type Store struct {
	mu         sync.RWMutex
	entries    map[string]*Entry
	maxEntries int
	defaultTTL time.Duration
	snap       storage.Snapshotter
	now        func() time.Time
}

// NewStore creates a cache store backed by the given snapshotter. A nil
// snapshotter disables persistence. A previous snapshot is loaded if present;
// load failures degrade to an empty store.
func NewStore(maxEntries int, defaultTTL time.Duration, snap storage.Snapshotter) *Store {
	s := &Store{
		entries:    make(map[string]*Entry),
		maxEntries: maxEntries,
		defaultTTL: defaultTTL,
		snap:       snap,
		now:        time.Now,
	}
	s.load()
	return s
}

func (s *Store) load() {
	if s.snap == nil {
		return
	}

	data, err := s.snap.Load(context.Background(), SnapshotName)
	if err != nil {
		if !errors.Is(err, storage.ErrSnapshotNotFound) {
			log.Warn().Err(err).Msg("Failed to load cache snapshot, starting empty")
		}
		return
	}

	var entries map[string]*Entry
	if err := sonic.ConfigFastest.Unmarshal(data, &entries); err != nil {
		log.Warn().Err(err).Msg("Corrupt cache snapshot, starting empty")
		return
	}

	s.entries = entries
	log.Info().Int("entries", len(entries)).Msg("Cache snapshot loaded")
}

// persistLocked writes the full snapshot. Callers must hold the write lock.
func (s *Store) persistLocked() {
	if s.snap == nil {
		return
	}

	data, err := sonic.ConfigFastest.Marshal(s.entries)
	if err != nil {
		log.Error().Err(err).Msg("Failed to marshal cache snapshot")
		return
	}

	if err := s.snap.Save(context.Background(), SnapshotName, data); err != nil {
		log.Error().Err(err).Msg("Failed to save cache snapshot")
	}
}

// Get returns the payload at key if the entry exists and is not expired.
// Expired entries are deleted on this check and treated as absent. A hit
// updates the entry's last-accessed time and persists the store.
func (s *Store) Get(key string) (any, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	entry, exists := s.entries[key]
	if !exists {
		return nil, false
	}

	now := s.now()
	if entry.expiredAt(now) {
		delete(s.entries, key)
		s.persistLocked()
		return nil, false
	}

	entry.LastAccessedAt = now
	s.persistLocked()
	return entry.Payload, true
}

// PeekLive returns the payload at key if the entry is live, without touching
// the entry or persisting. Used when re-joining search results to payloads.
func (s *Store) PeekLive(key string) (any, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	entry, exists := s.entries[key]
	if !exists || entry.expiredAt(s.now()) {
		return nil, false
	}
	return entry.Payload, true
}

// CreatedAt returns the creation time of the live entry at key
func (s *Store) CreatedAt(key string) (time.Time, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	entry, exists := s.entries[key]
	if !exists || entry.expiredAt(s.now()) {
		return time.Time{}, false
	}
	return entry.CreatedAt, true
}

// GetStale returns the payload at key regardless of expiry, without touching
// the entry. Used as the stale-on-error fallback after a failed refresh.
func (s *Store) GetStale(key string) (any, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	entry, exists := s.entries[key]
	if !exists {
		return nil, false
	}
	return entry.Payload, true
}

// Set stores payload at key with the given category and TTL, overwriting any
// prior entry. A non-positive ttl selects the store default. Cleanup runs
// before the insert.
func (s *Store) Set(key string, payload any, category Category, ttl time.Duration) {
	if ttl <= 0 {
		ttl = s.defaultTTL
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.cleanupLocked()

	now := s.now()
	s.entries[key] = &Entry{
		Key:            key,
		Payload:        payload,
		Category:       category,
		CreatedAt:      now,
		LastAccessedAt: now,
		TTLSeconds:     int64(ttl / time.Second),
	}
	s.persistLocked()
}

// Delete removes the entry at key unconditionally
func (s *Store) Delete(key string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.entries[key]; !exists {
		return
	}
	delete(s.entries, key)
	s.persistLocked()
}

// Clear removes all entries
func (s *Store) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.entries = make(map[string]*Entry)
	s.persistLocked()
}

// Cleanup removes expired entries, then evicts least-recently-accessed
// entries until the store is at or under its size limit.
func (s *Store) Cleanup() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.cleanupLocked()
	s.persistLocked()
}

func (s *Store) cleanupLocked() {
	now := s.now()

	for key, entry := range s.entries {
		if entry.expiredAt(now) {
			delete(s.entries, key)
		}
	}

	if s.maxEntries <= 0 || len(s.entries) <= s.maxEntries {
		return
	}

	// Evict from the least recently accessed end until under the limit
	survivors := make([]*Entry, 0, len(s.entries))
	for _, entry := range s.entries {
		survivors = append(survivors, entry)
	}
	sort.SliceStable(survivors, func(i, j int) bool {
		return survivors[i].LastAccessedAt.Before(survivors[j].LastAccessedAt)
	})

	evictCount := len(survivors) - s.maxEntries
	for _, entry := range survivors[:evictCount] {
		delete(s.entries, entry.Key)
		log.Debug().Str("key", entry.Key).Msg("Evicted least recently accessed entry")
	}
}

// GetAllLive returns a snapshot of all non-expired entries, applying the same
// expiry rule as Get. Used by the indexer.
func (s *Store) GetAllLive() []LiveEntry {
	s.mu.RLock()
	defer s.mu.RUnlock()

	now := s.now()
	live := make([]LiveEntry, 0, len(s.entries))
	for _, entry := range s.entries {
		if entry.expiredAt(now) {
			continue
		}
		live = append(live, LiveEntry{
			Key:       entry.Key,
			Payload:   entry.Payload,
			Category:  entry.Category,
			CreatedAt: entry.CreatedAt,
		})
	}
	return live
}

// Stats returns current store statistics
func (s *Store) Stats() Stats {
	s.mu.RLock()
	defer s.mu.RUnlock()

	now := s.now()
	stats := Stats{
		MaxEntries:        s.maxEntries,
		DefaultTTLSeconds: int64(s.defaultTTL / time.Second),
	}

	var byteSize int64
	for _, entry := range s.entries {
		if entry.expiredAt(now) {
			stats.ExpiredCount++
			continue
		}
		stats.Count++

		if data, err := sonic.ConfigFastest.Marshal(entry.Payload); err == nil {
			byteSize += int64(len(data))
		}

		created := entry.CreatedAt
		if stats.Oldest == nil || created.Before(*stats.Oldest) {
			t := created
			stats.Oldest = &t
		}
		if stats.Newest == nil || created.After(*stats.Newest) {
			t := created
			stats.Newest = &t
		}
	}
	stats.ByteSize = byteSize

	return stats
}

// SetClock overrides the store's time source. Tests only.
func (s *Store) SetClock(now func() time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.now = now
}
