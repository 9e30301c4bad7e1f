package ports

import "time"

// Renderer presents the progress of one driver run. It decouples the
// driver from presentation so the same event stream can drive a plain
// terminal renderer or a JSON event stream for non-interactive/CI use.
//
//go:generate mockgen -source=renderer.go -destination=mocks/mock_renderer.go -package=mocks
type Renderer interface {
	Start() error
	Stop() error

	// OnModuleStart is called when the driver begins processing a module.
	OnModuleStart(module string, startTime time.Time)

	// OnModuleResult is called when the driver finishes processing a
	// module, reporting whether it was served from cache.
	OnModuleResult(module string, cached bool, endTime time.Time, err error)

	// OnRunComplete is called once, after every module has been processed.
	OnRunComplete(stats RunStats)
}

// RunStats summarizes one driver run for end-of-run reporting.
type RunStats struct {
	ModulesTotal    int
	ModulesCached   int
	ModulesBuilt    int
	CacheHits       uint64
	CacheMisses     uint64
	Elapsed         time.Duration
	ModulesAffected []string
}
