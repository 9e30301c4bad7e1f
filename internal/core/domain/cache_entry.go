package domain

import "time"

// CacheKey identifies one cached synthesis result: a module, the content
// fingerprint of its elaborated input, and the sequence of transform
// passes applied to reach it (e.g. "synth;opt;techmap"). Two entries for
// the same module with different pass sequences are independent.
type CacheKey struct {
	ModuleName   string
	Fingerprint  Fingerprint
	PassSequence string
}

// String renders the key in the on-disk/index form "module|hash|pass_seq".
func (k CacheKey) String() string {
	return k.ModuleName + "|" + fingerprintHex(k.Fingerprint) + "|" + k.PassSequence
}

func fingerprintHex(fp Fingerprint) string {
	const hexDigits = "0123456789abcdef"
	buf := make([]byte, 16)
	v := uint64(fp)
	for i := 15; i >= 0; i-- {
		buf[i] = hexDigits[v&0xf]
		v >>= 4
	}
	return string(buf)
}

// CacheEntry is one persisted cache record: the key, bookkeeping fields
// used by the eviction policy, and the serialized module artifact kept
// alongside it on disk (see ModulesDir).
type CacheEntry struct {
	Key          CacheKey
	Timestamp    time.Time
	HitCount     uint64
	ArtifactSize int64
}

// CacheIndex is the persisted document describing every entry in a cache
// directory. Version allows the on-disk schema to evolve without breaking
// older caches (an unrecognized version is treated as empty rather than
// misread).
type CacheIndex struct {
	Version int          `yaml:"-"`
	Entries []CacheEntry `yaml:"-"`
}

// CurrentIndexVersion is the schema version this build writes and expects.
const CurrentIndexVersion = 1

// Limits bounds a cache's retained entries. A zero field means unbounded
// for that dimension.
type Limits struct {
	MaxEntries  int
	MaxSizeByte int64
	MaxAge      time.Duration
}

// DefaultLimits returns the built-in cache limits used when no
// environment variable, flag or persisted settings file overrides them.
func DefaultLimits() Limits {
	return Limits{
		MaxEntries:  1000,
		MaxSizeByte: 500 * 1 << 20, // 500 MiB
		MaxAge:      30 * 24 * time.Hour,
	}
}
