package ports

import "go.trai.ch/synthcache/internal/core/domain"

// Engine is the opaque synthesis/elaboration backend the driver drives.
// A production build links this against a real RTL front-end and
// synthesis passes; this module only depends on the shape below.
type Engine interface {
	// Elaborate parses and elaborates sources into a flat set of modules,
	// one per design unit, with no cross-module optimization applied yet.
	Elaborate(sources []string, top string) ([]*domain.Module, error)

	// Synthesize runs the named transform-pass sequence (e.g.
	// "synth;opt;techmap") against module, returning the transformed
	// result. It must not mutate module in place.
	Synthesize(module *domain.Module, passSequence string) (*domain.Module, error)
}
