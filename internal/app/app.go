// Package app implements the application layer: it wires the driver's
// elaborate/fingerprint/restore/synthesize/store algorithm to a renderer,
// a tracer and the CLI-facing cache/graph/monitor inspection commands.
package app

import (
	"context"
	"fmt"
	"os"
	"sort"

	"go.opentelemetry.io/otel"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.trai.ch/synthcache/internal/adapters/telemetry"
	"go.trai.ch/synthcache/internal/core/domain"
	"go.trai.ch/synthcache/internal/core/ports"
	"go.trai.ch/synthcache/internal/engine/driver"
	"go.trai.ch/zerr"
)

// App wires the driver to its adapters and exposes one method per CLI
// verb group (run/watch, cache, graph, monitor).
type App struct {
	engine   ports.Engine
	cache    ports.ModuleCache
	watcher  ports.Watcher
	settings ports.SettingsStore
	tracer   ports.Tracer
	logger   ports.Logger
	renderer ports.Renderer

	drv *driver.Driver
}

// New creates an App. renderer defaults to a linear renderer constructed
// by the caller; the App never selects its own output mode, leaving that
// to the CLI layer (see internal/adapters/detector).
func New(
	engine ports.Engine,
	cache ports.ModuleCache,
	watcher ports.Watcher,
	settings ports.SettingsStore,
	tracer ports.Tracer,
	logger ports.Logger,
	renderer ports.Renderer,
) *App {
	return &App{
		engine:   engine,
		cache:    cache,
		watcher:  watcher,
		settings: settings,
		tracer:   tracer,
		logger:   logger,
		renderer: renderer,
		drv:      driver.New(engine, cache, tracer, renderer, logger),
	}
}

// Driver exposes the underlying driver for commands (graph inspection)
// that need direct access to its retained design/graph state.
func (a *App) Driver() *driver.Driver {
	return a.drv
}

// setupOTel configures the global OpenTelemetry SDK to route spans through
// bridge, so a.tracer's spans are observed by the renderer without the
// driver needing to know anything about OpenTelemetry.
func setupOTel(bridge *telemetry.Bridge) *sdktrace.TracerProvider {
	tp := sdktrace.NewTracerProvider(
		sdktrace.WithSpanProcessor(bridge),
	)
	otel.SetTracerProvider(tp)
	return tp
}

// Run executes one driver pass: elaborate sources, fingerprint, restore
// from cache or synthesize, and persist results, then reports statistics
// through the renderer and (if stats is set) a stdout summary line.
func (a *App) Run(ctx context.Context, opts driver.RunOptions, stats bool) (ports.RunStats, error) {
	bridge := telemetry.NewBridge(a.renderer)
	tp := setupOTel(bridge)
	defer func() { _ = tp.Shutdown(ctx) }()

	if err := a.renderer.Start(); err != nil {
		return ports.RunStats{}, zerr.Wrap(err, "failed to start renderer")
	}
	defer func() { _ = a.renderer.Stop() }()

	result, err := a.drv.Run(ctx, opts)
	if err != nil {
		return result, err
	}

	if stats {
		fmt.Fprintf(os.Stdout, "modules_total=%d modules_cached=%d modules_built=%d cache_hits=%d cache_misses=%d elapsed=%s\n",
			result.ModulesTotal, result.ModulesCached, result.ModulesBuilt,
			result.CacheHits, result.CacheMisses, result.Elapsed)
	}
	return result, nil
}

// Watch runs the driver once, then keeps reloading on every watched-file
// change until ctx is canceled (see driver.Driver.Watch).
func (a *App) Watch(ctx context.Context, opts driver.WatchOptions) error {
	bridge := telemetry.NewBridge(a.renderer)
	tp := setupOTel(bridge)
	defer func() { _ = tp.Shutdown(ctx) }()

	if err := a.renderer.Start(); err != nil {
		return zerr.Wrap(err, "failed to start renderer")
	}
	defer func() { _ = a.renderer.Stop() }()

	return a.drv.Watch(ctx, a.watcher, opts)
}

// CacheInit prepares the cache directory.
func (a *App) CacheInit() error {
	return a.cache.Init()
}

// CacheStatus reports a human-readable summary of the cache's current
// state: entry count, hit/miss counters and hit rate.
func (a *App) CacheStatus() string {
	hits := a.cache.HitCount()
	misses := a.cache.MissCount()
	total := hits + misses
	var rate float64
	if total > 0 {
		rate = float64(hits) / float64(total)
	}
	return fmt.Sprintf("cache_dir=%s entries=%d hits=%d misses=%d hit_rate=%.2f",
		a.cache.CacheDir(), a.cache.EntryCount(), hits, misses, rate)
}

// CacheList returns every cache entry, sorted by key for stable output.
func (a *App) CacheList() []domain.CacheEntry {
	entries := a.cache.Entries()
	sort.Slice(entries, func(i, j int) bool {
		return entries[i].Key.String() < entries[j].Key.String()
	})
	return entries
}

// CacheClear removes every entry from the cache.
func (a *App) CacheClear() {
	a.cache.Clear()
}

// CacheSave persists the cache index to disk.
func (a *App) CacheSave() error {
	return a.cache.Save()
}

// CacheInvalidate removes every entry for the named module.
func (a *App) CacheInvalidate(module string) {
	a.cache.Invalidate(module)
}

// CacheConfigure persists new cache limits. When every field is zero it
// writes the built-in defaults; otherwise it writes limits as given, and
// each zero field is resolved to its default when the settings are
// loaded back.
func (a *App) CacheConfigure(limits domain.Limits) error {
	if limits.MaxEntries == 0 && limits.MaxSizeByte == 0 && limits.MaxAge == 0 {
		limits = domain.DefaultLimits()
	}
	return a.settings.Save(a.cache.CacheDir(), limits)
}

// CacheEvict applies the persisted (or default) cache limits and saves
// the index, returning the number of entries removed.
func (a *App) CacheEvict() (int, error) {
	limits, err := a.settings.Load(a.cache.CacheDir())
	if err != nil {
		return 0, err
	}
	evicted := a.cache.Evict(limits)
	if err := a.cache.Save(); err != nil {
		return evicted, err
	}
	return evicted, nil
}

// GraphBuild elaborates sources and (re)builds the dependency graph,
// leaving it and the elaborated design available on the driver for a
// subsequent show/query call.
func (a *App) GraphBuild(ctx context.Context, sources []string, top string) error {
	_, err := a.drv.Run(ctx, driver.RunOptions{Sources: sources, Top: top, NoCache: true, ForceFull: true})
	return err
}

// GraphShow renders the dependency graph's modules in topological order.
// It returns the unordered module list alongside a cycle error, rather
// than failing outright, since a cyclic design is still inspectable.
// When this process has not itself run a build, the graph is restored
// from the cache directory's persisted scratchpad first.
func (a *App) GraphShow() ([]string, error) {
	if !a.drv.HasDesign() {
		if err := a.drv.LoadPersistedGraph(); err != nil {
			return nil, err
		}
	}
	order, err := a.drv.Graph().TopologicalOrder()
	if err != nil {
		return a.drv.Graph().Modules(), err
	}
	return order, nil
}

// GraphQueryResult reports one module's position in the dependency graph.
type GraphQueryResult struct {
	Module                 string
	DirectDependencies     []string
	DirectDependents       []string
	TransitiveDependencies []string
	TransitiveDependents   []string
}

// GraphQuery looks up one module's direct and transitive relationships.
// Like GraphShow, it restores the graph from the cache directory's
// scratchpad when this process holds no design of its own.
func (a *App) GraphQuery(module string) (GraphQueryResult, error) {
	if !a.drv.HasDesign() {
		if err := a.drv.LoadPersistedGraph(); err != nil {
			return GraphQueryResult{}, err
		}
	}
	g := a.drv.Graph()
	return GraphQueryResult{
		Module:                 module,
		DirectDependencies:     g.DirectDependencies(module),
		DirectDependents:       g.DirectDependents(module),
		TransitiveDependencies: g.AllDependencies(module),
		TransitiveDependents:   g.AllDependents(module),
	}, nil
}

// MonitorAttach captures the current design as the change monitor's
// baseline, restoring the design and dependency graph from the cache
// directory's persisted scratchpad first if this process hasn't run a
// build of its own.
func (a *App) MonitorAttach() error {
	if !a.drv.HasDesign() {
		if err := a.drv.LoadPersistedGraph(); err != nil {
			return err
		}
	}
	return a.drv.AttachMonitor()
}

// MonitorDetach discards the change monitor's baseline.
func (a *App) MonitorDetach() {
	a.drv.DetachMonitor()
}

// MonitorReset re-attaches the baseline to the current design.
func (a *App) MonitorReset() error {
	return a.drv.ResetMonitor()
}
