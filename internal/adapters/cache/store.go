// Package cache implements the content-addressed module cache: a disk
// index plus one artifact file per entry, bounded by an in-memory LRU for
// fast restores and evicted by the configured entry/size/age limits.
package cache

import (
	"encoding/json"
	"os"
	"sort"
	"sync"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"
	"go.trai.ch/synthcache/internal/core/domain"
	"go.trai.ch/synthcache/internal/core/ports"
	"go.trai.ch/zerr"
)

var _ ports.ModuleCache = (*Store)(nil)

// indexDocument is the on-disk schema for the cache index.
type indexDocument struct {
	Version int                  `json:"version"`
	Entries []indexEntryDocument `json:"entries"`
}

type indexEntryDocument struct {
	Key          string `json:"key"`
	ModuleName   string `json:"module_name"`
	Fingerprint  uint64 `json:"fingerprint"`
	PassSequence string `json:"pass_sequence"`
	Timestamp    int64  `json:"timestamp"`
	Hits         uint64 `json:"hits"`
	Size         int64  `json:"size"`
}

// Store is a ports.ModuleCache backed by a directory of JSON artifact
// files plus a JSON index document, following the same file-per-key
// persistence strategy as a sha256-keyed build info store, generalized
// to this cache's module|fingerprint|pass_seq key and eviction policy.
type Store struct {
	mu sync.Mutex

	cacheDir   string
	serializer ports.ModuleSerializer
	loader     ports.ModuleLoader
	logger     ports.Logger

	entries map[string]domain.CacheEntry // key string -> entry
	memory  *lru.Cache[string, *domain.Module]
	limits  domain.Limits

	initialized bool
	dirty       bool

	totalHits   uint64
	totalMisses uint64
}

// SetLimits changes the limits enforced by Put's end-of-put eviction.
// Unset (zero-value) fields disable that dimension of the bound.
func (s *Store) SetLimits(limits domain.Limits) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.limits = limits
}

// NewStore creates a Store rooted at cacheDir. memoryCap bounds the
// number of deserialized modules held in memory for fast restores; it
// does not bound the number of entries persisted to disk.
func NewStore(cacheDir string, serializer ports.ModuleSerializer, loader ports.ModuleLoader, logger ports.Logger, memoryCap int) (*Store, error) {
	memCache, err := lru.New[string, *domain.Module](memoryCap)
	if err != nil {
		return nil, zerr.Wrap(err, "failed to create in-memory module cache")
	}
	return &Store{
		cacheDir:   cacheDir,
		serializer: serializer,
		loader:     loader,
		logger:     logger,
		entries:    make(map[string]domain.CacheEntry),
		memory:     memCache,
		limits:     domain.DefaultLimits(),
	}, nil
}

// Init creates the cache directory structure and loads any existing index.
func (s *Store) Init() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := os.MkdirAll(domain.ModulesDir(s.cacheDir), domain.DirPerm); err != nil {
		return zerr.Wrap(err, domain.ErrCacheDirCreateFailed.Error())
	}
	s.loadIndexLocked()
	s.initialized = true
	return nil
}

func (s *Store) loadIndexLocked() {
	data, err := os.ReadFile(domain.IndexPath(s.cacheDir)) //nolint:gosec // path constructed from trusted cache dir
	if err != nil {
		return // missing index is not an error: a fresh cache starts empty
	}

	var doc indexDocument
	if err := json.Unmarshal(data, &doc); err != nil {
		if s.logger != nil {
			s.logger.Warn("ignoring unreadable cache index: " + err.Error())
		}
		return
	}
	if doc.Version != domain.CurrentIndexVersion {
		return
	}

	for _, e := range doc.Entries {
		s.entries[e.Key] = domain.CacheEntry{
			Key: domain.CacheKey{
				ModuleName:   e.ModuleName,
				Fingerprint:  domain.Fingerprint(e.Fingerprint),
				PassSequence: e.PassSequence,
			},
			Timestamp:    time.Unix(e.Timestamp, 0),
			HitCount:     e.Hits,
			ArtifactSize: e.Size,
		}
	}
}

// Has reports whether key is present. A miss also increments the
// aggregate miss counter: it is the only place a lookup that never
// reaches Get (the driver skips straight to synthesis) gets counted. A
// hit is not counted here; Get counts it.
func (s *Store) Has(key domain.CacheKey) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.entries[key.String()]
	if !ok {
		s.totalMisses++
	}
	return ok
}

// Get retrieves the module for key, checking the in-memory LRU first,
// then falling back to the artifact file on disk, recording a hit or
// miss either way.
func (s *Store) Get(key domain.CacheKey) (*domain.Module, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	k := key.String()
	entry, ok := s.entries[k]
	if !ok {
		s.totalMisses++
		return nil, domain.ErrCacheMiss
	}

	if m, ok := s.memory.Get(k); ok {
		s.recordHitLocked(k, entry)
		return m, nil
	}

	data, err := os.ReadFile(domain.ModulePath(s.cacheDir, k)) //nolint:gosec // path constructed from trusted cache dir
	if err != nil {
		s.totalMisses++
		if s.logger != nil {
			s.logger.Warn("cache entry " + k + " has no artifact on disk; treating as a miss")
		}
		return nil, domain.ErrCacheMiss
	}

	m, err := s.loader.Deserialize(data)
	if err != nil {
		s.totalMisses++
		return nil, zerr.Wrap(err, domain.ErrDeserializationFailed.Error())
	}

	s.memory.Add(k, m)
	s.recordHitLocked(k, entry)
	return m, nil
}

func (s *Store) recordHitLocked(k string, entry domain.CacheEntry) {
	entry.HitCount++
	s.entries[k] = entry
	s.totalHits++
	s.dirty = true
}

// Put stores module under key, writing its artifact to disk and
// refreshing the entry's timestamp and hit count. An empty serialized
// artifact is treated as a serializer failure: it is logged and
// rejected before any state changes. Eviction runs against the
// configured limits (see SetLimits) once the new entry has landed, so
// the cache never grows past its bound between puts.
func (s *Store) Put(key domain.CacheKey, module *domain.Module) error {
	data, err := s.serializer.Serialize(module)
	if err != nil {
		return zerr.Wrap(err, domain.ErrSerializationFailed.Error())
	}
	if len(data) == 0 {
		if s.logger != nil {
			s.logger.Warn("serializer produced an empty artifact for " + key.String() + "; discarding")
		}
		return domain.ErrEmptyArtifact
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	k := key.String()
	if err := os.WriteFile(domain.ModulePath(s.cacheDir, k), data, domain.FilePerm); err != nil { //nolint:gosec // path constructed from trusted cache dir
		return zerr.Wrap(err, domain.ErrArtifactWriteFailed.Error())
	}

	s.entries[k] = domain.CacheEntry{
		Key:          key,
		Timestamp:    time.Now(),
		HitCount:     0,
		ArtifactSize: int64(len(data)),
	}
	s.memory.Add(k, module)
	s.dirty = true
	s.evictLocked(s.limits)
	return nil
}

// Invalidate removes every entry for moduleName regardless of fingerprint
// or pass sequence.
func (s *Store) Invalidate(moduleName string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.invalidateLocked(moduleName)
}

func (s *Store) invalidateLocked(moduleName string) {
	removed := false
	for k, e := range s.entries {
		if e.Key.ModuleName != moduleName {
			continue
		}
		delete(s.entries, k)
		s.memory.Remove(k)
		_ = os.Remove(domain.ModulePath(s.cacheDir, k)) // teardown: best-effort
		removed = true
	}
	if removed {
		s.dirty = true
	}
}

// InvalidateAffected invalidates every changed module and, transitively,
// every module that depends on one of them.
func (s *Store) InvalidateAffected(changed []string, graph *domain.DependencyGraph) {
	affected := changed
	if graph != nil {
		affected = graph.AffectedModules(changed)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, mod := range affected {
		s.invalidateLocked(mod)
	}
}

// Clear removes every entry and resets statistics.
func (s *Store) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()

	for k := range s.entries {
		_ = os.Remove(domain.ModulePath(s.cacheDir, k))
	}
	s.entries = make(map[string]domain.CacheEntry)
	s.memory.Purge()
	s.totalHits = 0
	s.totalMisses = 0
	s.dirty = true
}

// Evict removes entries until the cache satisfies limits, removing the
// least-hit, then oldest, entries first.
func (s *Store) Evict(limits domain.Limits) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.evictLocked(limits)
}

func (s *Store) evictLocked(limits domain.Limits) int {
	now := time.Now()
	var candidates []domain.CacheEntry
	for _, e := range s.entries {
		candidates = append(candidates, e)
	}
	sort.Slice(candidates, func(i, j int) bool {
		if candidates[i].HitCount != candidates[j].HitCount {
			return candidates[i].HitCount < candidates[j].HitCount
		}
		return candidates[i].Timestamp.Before(candidates[j].Timestamp)
	})

	evicted := 0
	var totalSize int64
	for _, e := range candidates {
		totalSize += e.ArtifactSize
	}

	i := 0
	for i < len(candidates) {
		e := candidates[i]
		expired := limits.MaxAge > 0 && now.Sub(e.Timestamp) > limits.MaxAge
		overEntries := limits.MaxEntries > 0 && len(s.entries)-evicted > limits.MaxEntries
		overSize := limits.MaxSizeByte > 0 && totalSize > limits.MaxSizeByte
		if !expired && !overEntries && !overSize {
			i++
			continue
		}
		k := e.Key.String()
		delete(s.entries, k)
		s.memory.Remove(k)
		_ = os.Remove(domain.ModulePath(s.cacheDir, k))
		totalSize -= e.ArtifactSize
		evicted++
		i++
	}

	if evicted > 0 {
		s.dirty = true
	}
	return evicted
}

// Save persists the index document to disk when dirty.
func (s *Store) Save() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.saveLocked()
}

func (s *Store) saveLocked() error {
	if !s.initialized {
		return domain.ErrCacheNotInitialized
	}
	if !s.dirty {
		return nil
	}

	doc := indexDocument{Version: domain.CurrentIndexVersion}
	for k, e := range s.entries {
		doc.Entries = append(doc.Entries, indexEntryDocument{
			Key:          k,
			ModuleName:   e.Key.ModuleName,
			Fingerprint:  uint64(e.Key.Fingerprint),
			PassSequence: e.Key.PassSequence,
			Timestamp:    e.Timestamp.Unix(),
			Hits:         e.HitCount,
			Size:         e.ArtifactSize,
		})
	}
	sort.Slice(doc.Entries, func(i, j int) bool { return doc.Entries[i].Key < doc.Entries[j].Key })

	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return zerr.Wrap(err, domain.ErrIndexWriteFailed.Error())
	}

	if err := os.WriteFile(domain.IndexPath(s.cacheDir), data, domain.FilePerm); err != nil {
		return zerr.Wrap(err, domain.ErrIndexWriteFailed.Error())
	}

	s.dirty = false
	if s.logger != nil {
		s.logger.Info("saved cache index")
	}
	return nil
}

// EntryCount returns the number of entries currently indexed.
func (s *Store) EntryCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.entries)
}

// HitCount returns the cumulative number of cache hits since Init.
func (s *Store) HitCount() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.totalHits
}

// MissCount returns the cumulative number of cache misses since Init.
func (s *Store) MissCount() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.totalMisses
}

// CacheDir returns the resolved cache directory.
func (s *Store) CacheDir() string {
	return s.cacheDir
}

// Entries returns a snapshot of the current index, sorted by key for
// deterministic display.
func (s *Store) Entries() []domain.CacheEntry {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]domain.CacheEntry, 0, len(s.entries))
	for _, e := range s.entries {
		out = append(out, e)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Key.String() < out[j].Key.String() })
	return out
}

// HitRate returns the fraction of lookups that were hits, in [0, 1]. It
// returns 0 when there have been no lookups yet.
func (s *Store) HitRate() float64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	total := s.totalHits + s.totalMisses
	if total == 0 {
		return 0
	}
	return float64(s.totalHits) / float64(total)
}
