package ports

import "go.trai.ch/synthcache/internal/core/domain"

// ModuleCache is the content-addressed store the driver consults before
// re-synthesizing a module and updates after synthesizing one.
// Implementations must be safe for concurrent use.
type ModuleCache interface {
	// Init prepares the cache directory, loading any existing index.
	Init() error

	// Has reports whether an entry exists for key. A miss is added to the
	// miss count; a hit is not counted here, since Get counts it.
	Has(key domain.CacheKey) bool

	// Get retrieves the cached module for key, recording a hit or miss.
	// It returns domain.ErrCacheMiss when absent.
	Get(key domain.CacheKey) (*domain.Module, error)

	// Put stores module under key, resetting its hit count and refreshing
	// its timestamp. It may trigger eviction if doing so exceeds the
	// configured limits.
	Put(key domain.CacheKey, module *domain.Module) error

	// Invalidate removes every entry for the named module, regardless of
	// fingerprint or pass sequence.
	Invalidate(moduleName string)

	// InvalidateAffected removes every entry for the changed modules and,
	// transitively, every module that depends on one of them per graph.
	InvalidateAffected(changed []string, graph *domain.DependencyGraph)

	// Clear removes every entry from the cache.
	Clear()

	// Evict removes entries until the cache satisfies limits, in order of
	// fewest hits then oldest timestamp.
	Evict(limits domain.Limits) int

	// Save persists the index (and any pending artifacts) to disk.
	Save() error

	// EntryCount returns the number of entries currently in the cache.
	EntryCount() int

	// HitCount and MissCount return cumulative lookup statistics since Init.
	HitCount() uint64
	MissCount() uint64

	// CacheDir returns the resolved cache directory path.
	CacheDir() string

	// Entries returns a snapshot of every entry currently in the index.
	Entries() []domain.CacheEntry
}
