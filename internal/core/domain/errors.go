package domain

import "go.trai.ch/zerr"

var (
	// ErrModuleAlreadyExists is returned when adding a module that already exists in the graph.
	ErrModuleAlreadyExists = zerr.New("module already exists")

	// ErrModuleNotFound is returned when a requested module is not present in the graph.
	ErrModuleNotFound = zerr.New("module not found")

	// ErrCycleDetected is returned when a cycle is detected during topological ordering.
	ErrCycleDetected = zerr.New("cycle detected")

	// ErrCacheMiss is returned when a requested entry is not present in the cache.
	ErrCacheMiss = zerr.New("cache miss")

	// ErrCacheNotInitialized is returned when a cache operation is attempted before init.
	ErrCacheNotInitialized = zerr.New("cache not initialized")

	// ErrCacheDirCreateFailed is returned when the cache directory cannot be created.
	ErrCacheDirCreateFailed = zerr.New("failed to create cache directory")

	// ErrIndexReadFailed is returned when the cache index cannot be read.
	ErrIndexReadFailed = zerr.New("failed to read cache index")

	// ErrIndexParseFailed is returned when the cache index cannot be parsed.
	ErrIndexParseFailed = zerr.New("failed to parse cache index")

	// ErrIndexWriteFailed is returned when the cache index cannot be written.
	ErrIndexWriteFailed = zerr.New("failed to write cache index")

	// ErrArtifactReadFailed is returned when a cached module artifact cannot be read.
	ErrArtifactReadFailed = zerr.New("failed to read cached module artifact")

	// ErrArtifactWriteFailed is returned when a cached module artifact cannot be written.
	ErrArtifactWriteFailed = zerr.New("failed to write cached module artifact")

	// ErrSerializationFailed is returned when a module cannot be serialized for caching.
	ErrSerializationFailed = zerr.New("failed to serialize module")

	// ErrDeserializationFailed is returned when a cached artifact cannot be deserialized.
	ErrDeserializationFailed = zerr.New("failed to deserialize module")

	// ErrElaborationFailed is returned when the synthesis engine fails to elaborate a design.
	ErrElaborationFailed = zerr.New("elaboration failed")

	// ErrSynthesisFailed is returned when the synthesis engine fails to synthesize a module.
	ErrSynthesisFailed = zerr.New("synthesis failed")

	// ErrSourceReadFailed is returned when a watched source file cannot be read or stat'd.
	ErrSourceReadFailed = zerr.New("failed to read source file")

	// ErrSettingsReadFailed is returned when persisted cache settings cannot be read.
	ErrSettingsReadFailed = zerr.New("failed to read cache settings")

	// ErrSettingsWriteFailed is returned when persisted cache settings cannot be written.
	ErrSettingsWriteFailed = zerr.New("failed to write cache settings")

	// ErrSettingsParseFailed is returned when persisted cache settings cannot be parsed.
	ErrSettingsParseFailed = zerr.New("failed to parse cache settings")

	// ErrInvalidLimit is returned when a configured cache limit is invalid.
	ErrInvalidLimit = zerr.New("invalid cache limit")

	// ErrNoTopSpecified is returned when a run or watch command cannot determine a top module.
	ErrNoTopSpecified = zerr.New("no top module specified")

	// ErrWatchTargetMissing is returned when a watch target file does not exist.
	ErrWatchTargetMissing = zerr.New("watch target does not exist")

	// ErrEmptyArtifact is returned when a serializer produces zero-length
	// output for a module being put into the cache.
	ErrEmptyArtifact = zerr.New("serializer produced empty artifact")

	// ErrGraphNotPersisted is returned when a command that inspects the
	// dependency graph is run against a cache directory with no
	// persisted graph (no prior `run`/`graph build` in this cache).
	ErrGraphNotPersisted = zerr.New("no dependency graph persisted for this cache")
)
