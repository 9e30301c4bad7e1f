// Package driver implements the incremental synthesis driver: the
// elaborate/fingerprint/lookup/restore/synthesize/store sequence that
// turns a set of RTL sources into a design, reusing cached synthesis
// results for every module whose content has not changed.
package driver

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"sort"
	"time"

	"go.trai.ch/synthcache/internal/core/domain"
	"go.trai.ch/synthcache/internal/core/ports"
	"go.trai.ch/zerr"
)

// RestoreTag is the pass-sequence tag a cache entry is looked up and
// stored under: the post-elaboration, pre-synthesis state a restored
// module is assumed to represent.
const RestoreTag = "post_hierarchy"

// SynthesisPasses is the fixed transform pipeline applied to every
// module selected for synthesis.
const SynthesisPasses = "proc;opt -full;techmap;opt -full"

// RunOptions configures one driver run.
type RunOptions struct {
	// Sources are the RTL source files to elaborate. Ignored when
	// SkipElaboration is set.
	Sources []string

	// Top names the design's top module, passed through to the engine's
	// elaboration pass as a hint. May be empty.
	Top string

	// ForceFull bypasses the cache lookup entirely: every module is
	// selected for synthesis regardless of whether a matching entry
	// exists.
	ForceFull bool

	// NoCache skips the store phase: synthesized modules are not written
	// back to the cache at the end of the run.
	NoCache bool

	// SkipElaboration reuses the design from the driver's previous run
	// instead of invoking the engine's elaboration pass again. The
	// driver must have a previous design to reuse.
	SkipElaboration bool

	// Conservative widens the synthesis set to every cached dependent of
	// a module being re-synthesized, rather than trusting a dependent's
	// cache entry to still be valid against its (unchanged) fingerprint.
	Conservative bool
}

// Driver runs the incremental synthesis algorithm against one design,
// retaining that design across calls so a later run can skip
// elaboration (RunOptions.SkipElaboration) or report on the
// dependency graph without re-reading sources.
type Driver struct {
	engine   ports.Engine
	cache    ports.ModuleCache
	fp       *domain.Fingerprinter
	tracer   ports.Tracer
	renderer ports.Renderer
	logger   ports.Logger

	cacheInitialized bool
	cachingDisabled  bool

	design  map[string]*domain.Module
	graph   *domain.DependencyGraph
	monitor *domain.ChangeMonitor

	// persistedFingerprints holds the baseline loaded by
	// LoadPersistedGraph, for AttachMonitor to use when this process
	// never ran elaborate/fingerprint itself.
	persistedFingerprints map[string]domain.Fingerprint
}

// scratchpadDocument is the keyed blob persisted to the cache
// directory between process invocations: the dependency graph plus the
// fingerprint every module had as of the run that produced it, enough
// to restore both graph-inspection commands and the change monitor's
// baseline without re-elaborating a design.
type scratchpadDocument struct {
	Graph        *domain.DependencyGraph     `json:"graph"`
	Fingerprints map[string]domain.Fingerprint `json:"fingerprints"`
}

// New creates a Driver. renderer may be nil, in which case run
// completion is not reported anywhere but the returned ports.RunStats.
func New(engine ports.Engine, cache ports.ModuleCache, tracer ports.Tracer, renderer ports.Renderer, logger ports.Logger) *Driver {
	fp := domain.NewFingerprinter()
	return &Driver{
		engine:   engine,
		cache:    cache,
		fp:       fp,
		tracer:   tracer,
		renderer: renderer,
		logger:   logger,
		graph:    domain.NewDependencyGraph(),
		monitor:  domain.NewChangeMonitor(fp),
	}
}

// Graph returns the dependency graph built by the most recent run. It
// is empty until the first run completes.
func (d *Driver) Graph() *domain.DependencyGraph {
	return d.graph
}

// Design returns the module set produced by the most recent run, keyed
// by module name.
func (d *Driver) Design() map[string]*domain.Module {
	return d.design
}

// LoadPersistedGraph restores the dependency graph from the cache
// directory's scratchpad document into the driver. It is for a process
// that never ran elaborate/buildGraph itself in this invocation, such
// as a graph-inspection or monitor-attach command run against a cache
// a previous `run` already populated. Returns domain.ErrGraphNotPersisted
// if no graph has ever been persisted to this cache directory.
func (d *Driver) LoadPersistedGraph() error {
	data, err := os.ReadFile(domain.GraphPath(d.cache.CacheDir())) //nolint:gosec // path constructed from trusted cache dir
	if err != nil {
		if os.IsNotExist(err) {
			return domain.ErrGraphNotPersisted
		}
		return zerr.Wrap(err, "failed to read persisted dependency graph")
	}

	doc := scratchpadDocument{Graph: domain.NewDependencyGraph()}
	if err := json.Unmarshal(data, &doc); err != nil {
		return zerr.Wrap(err, "failed to parse persisted dependency graph")
	}
	d.graph = doc.Graph
	d.persistedFingerprints = doc.Fingerprints
	return nil
}

// HasDesign reports whether the driver holds an in-memory design from a
// run earlier in this process, as opposed to only a persisted graph.
func (d *Driver) HasDesign() bool {
	return d.design != nil
}

// persistGraph writes the driver's current dependency graph to the
// cache directory's scratchpad, so a later process invoking a
// graph-inspection or monitor command can restore it without
// re-elaborating a design. A failure here degrades gracefully: it is
// logged and does not fail the run, since the graph remains usable
// in-process for the rest of this invocation.
func (run *driverRunState) persistGraph() {
	doc := scratchpadDocument{Graph: run.d.graph, Fingerprints: run.fingerprints}
	data, err := json.Marshal(doc)
	if err != nil {
		if run.d.logger != nil {
			run.d.logger.Warn("failed to serialize dependency graph for persistence: " + err.Error())
		}
		return
	}
	if err := os.WriteFile(domain.GraphPath(run.d.cache.CacheDir()), data, domain.FilePerm); err != nil {
		if run.d.logger != nil {
			run.d.logger.Warn("failed to persist dependency graph: " + err.Error())
		}
	}
}

// Run executes one pass of the incremental synthesis algorithm:
// elaborate (or reuse) the design, fingerprint every module, split it
// into modules restored from cache and modules selected for synthesis,
// widen that split conservatively if asked, run the selected modules
// through the engine's transform pipeline, and persist the result.
//
// Run never spawns a goroutine: every step runs on the calling
// goroutine, in the strict order the algorithm requires.
func (d *Driver) Run(ctx context.Context, opts RunOptions) (ports.RunStats, error) {
	run := &driverRunState{d: d, ctx: ctx, opts: opts, start: time.Now()}

	run.initCache()

	if err := run.elaborate(); err != nil {
		return ports.RunStats{}, err
	}

	run.buildGraph()
	run.fingerprint()
	run.lookup()
	run.widenConservative()
	run.restore()

	synthErr := run.synthesize()
	storeErr := run.store()

	stats := run.finish()

	return stats, errors.Join(synthErr, storeErr)
}

// driverRunState holds the mutable, run-scoped data the algorithm's
// steps thread through one another. It exists so Driver itself stays a
// plain set of dependencies, reusable across runs.
type driverRunState struct {
	d     *Driver
	ctx   context.Context
	opts  RunOptions
	start time.Time

	design       map[string]*domain.Module
	fingerprints map[string]domain.Fingerprint
	toSynthesize map[string]struct{}
	fromCache    map[string]struct{}
}

// initCache lazily initializes the driver's cache the first time it is
// needed. A failure degrades the run rather than aborting it: every
// module is treated as a miss and the store phase is skipped.
func (run *driverRunState) initCache() {
	if run.d.cacheInitialized || run.d.cachingDisabled {
		return
	}
	if err := run.d.cache.Init(); err != nil {
		if run.d.logger != nil {
			run.d.logger.Warn("cache init failed, continuing with caching disabled: " + err.Error())
		}
		run.d.cachingDisabled = true
		return
	}
	run.d.cacheInitialized = true
}

// elaborate invokes the engine's hierarchy pass, or reuses the driver's
// previous design when SkipElaboration is set. Elaboration failure is
// fatal: the run cannot proceed without a design.
func (run *driverRunState) elaborate() error {
	if run.opts.SkipElaboration {
		if run.d.design == nil {
			return zerr.New("skip_elaboration requested with no prior design loaded")
		}
		run.design = run.d.design
		return nil
	}

	modules, err := run.d.engine.Elaborate(run.opts.Sources, run.opts.Top)
	if err != nil {
		return zerr.Wrap(err, domain.ErrElaborationFailed.Error())
	}

	run.design = make(map[string]*domain.Module, len(modules))
	for _, m := range modules {
		run.design[m.Name.String()] = m
	}
	return nil
}

// buildGraph rebuilds the dependency graph from the elaborated design.
// This, and fingerprinting below, must happen before the
// restore/synthesize split so that both operate on the same snapshot of
// the design the spec's two ordering guarantees require.
func (run *driverRunState) buildGraph() {
	modules := make([]*domain.Module, 0, len(run.design))
	for _, m := range run.design {
		modules = append(modules, m)
	}
	run.d.graph.BuildFromModules(modules)
}

// fingerprint computes every module's content fingerprint up front, so
// the lookup, restore and store phases all key off the same
// pre-synthesis value.
func (run *driverRunState) fingerprint() {
	run.fingerprints = make(map[string]domain.Fingerprint, len(run.design))
	for name, m := range run.design {
		run.fingerprints[name] = run.d.fp.Fingerprint(m)
	}
}

func (run *driverRunState) cacheKey(module string) domain.CacheKey {
	return domain.CacheKey{
		ModuleName:   module,
		Fingerprint:  run.fingerprints[module],
		PassSequence: RestoreTag,
	}
}

// lookup splits the design into modules that can be restored from
// cache and modules that must be (re-)synthesized.
func (run *driverRunState) lookup() {
	run.toSynthesize = make(map[string]struct{})
	run.fromCache = make(map[string]struct{})

	for name := range run.design {
		if run.opts.ForceFull || run.d.cachingDisabled || !run.d.cache.Has(run.cacheKey(name)) {
			run.toSynthesize[name] = struct{}{}
			continue
		}
		run.fromCache[name] = struct{}{}
	}
}

// widenConservative moves every cached dependent of a module selected
// for synthesis into the synthesis set too, and invalidates its stale
// cache entry. It repeats until no more modules move, since widening
// one module's dependents can bring in dependents of dependents.
func (run *driverRunState) widenConservative() {
	if !run.opts.Conservative || len(run.toSynthesize) == 0 || len(run.fromCache) == 0 {
		return
	}

	for {
		frontier := sortedKeys(run.toSynthesize)
		moved := false
		for _, m := range frontier {
			for _, dep := range run.d.graph.AllDependents(m) {
				if _, ok := run.fromCache[dep]; !ok {
					continue
				}
				delete(run.fromCache, dep)
				run.toSynthesize[dep] = struct{}{}
				run.d.cache.Invalidate(dep)
				moved = true
			}
		}
		if !moved {
			return
		}
	}
}

// restore replaces each from-cache module's design entry with the
// cached artifact. A module whose restore fails (a missing or corrupt
// entry) falls back to synthesis rather than aborting the run.
func (run *driverRunState) restore() {
	for _, name := range sortedKeys(run.fromCache) {
		_, span := run.d.tracer.Start(run.ctx, name)

		module, err := run.d.cache.Get(run.cacheKey(name))
		if err != nil {
			span.RecordError(err)
			span.End()
			if run.d.logger != nil {
				run.d.logger.Warn(fmt.Sprintf("cache restore failed for module %q, falling back to synthesis", name))
			}
			delete(run.fromCache, name)
			run.toSynthesize[name] = struct{}{}
			continue
		}

		run.design[name] = module
		span.SetAttribute(ports.CacheHitAttributeKey, true)
		span.End()
	}
}

// synthesize runs every module selected for synthesis through the
// engine's transform pipeline. A module's synthesis failure does not
// abort the run: it is recorded and the remaining modules still run,
// matching the spec's per-entry degradation rather than a fatal abort.
func (run *driverRunState) synthesize() error {
	if len(run.toSynthesize) == 0 {
		return nil
	}

	var errs error
	for _, name := range sortedKeys(run.toSynthesize) {
		module, ok := run.design[name]
		if !ok {
			continue
		}

		_, span := run.d.tracer.Start(run.ctx, name)

		result, err := run.d.engine.Synthesize(module, SynthesisPasses)
		if err != nil {
			wrapped := zerr.With(zerr.Wrap(err, domain.ErrSynthesisFailed.Error()), "module", name)
			span.RecordError(wrapped)
			span.End()
			errs = errors.Join(errs, wrapped)
			continue
		}

		run.design[name] = result
		span.End()
	}
	return errs
}

// store persists every synthesized module under its pre-synthesis
// fingerprint, one Put at a time on the calling goroutine, then saves
// the index once. Unless NoCache is set.
func (run *driverRunState) store() error {
	if run.opts.NoCache || run.d.cachingDisabled {
		return nil
	}

	var errs error
	for _, name := range sortedKeys(run.toSynthesize) {
		module, ok := run.design[name]
		if !ok {
			continue
		}
		if err := run.d.cache.Put(run.cacheKey(name), module); err != nil {
			errs = errors.Join(errs, zerr.With(zerr.Wrap(err, "failed to store module in cache"), "module", name))
		}
	}

	if err := run.d.cache.Save(); err != nil {
		errs = errors.Join(errs, zerr.Wrap(err, "failed to persist cache index"))
	}
	return errs
}

// finish retains the run's design and graph on the driver for a future
// SkipElaboration run or a graph-inspection command, and reports
// run-level statistics.
func (run *driverRunState) finish() ports.RunStats {
	run.d.design = run.design

	if !run.d.cachingDisabled {
		run.persistGraph()
	}

	stats := ports.RunStats{
		ModulesTotal:    len(run.design),
		ModulesCached:   len(run.fromCache),
		ModulesBuilt:    len(run.toSynthesize),
		CacheHits:       run.d.cache.HitCount(),
		CacheMisses:     run.d.cache.MissCount(),
		Elapsed:         time.Since(run.start),
		ModulesAffected: sortedKeys(run.toSynthesize),
	}

	if run.d.renderer != nil {
		run.d.renderer.OnRunComplete(stats)
	}

	return stats
}

func sortedKeys(m map[string]struct{}) []string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}
