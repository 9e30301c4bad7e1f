package ports

import "go.trai.ch/synthcache/internal/core/domain"

// ModuleSerializer turns a synthesized module into the byte form persisted
// alongside a cache entry. The encoding is opaque to the cache: it only
// ever round-trips bytes through ModuleLoader.
type ModuleSerializer interface {
	Serialize(module *domain.Module) ([]byte, error)
}

// ModuleLoader reconstructs a module from bytes previously produced by a
// ModuleSerializer.
type ModuleLoader interface {
	Deserialize(data []byte) (*domain.Module, error)
}
