package domain

import (
	"encoding/json"
	"sort"

	"go.trai.ch/zerr"
)

// DependencyGraph models the module-instantiation relationships of a
// design: module A depends on module B when A instantiates a cell of
// type B. It is built fresh from a set of modules with BuildFromModules
// and is otherwise read-only.
type DependencyGraph struct {
	allModules   map[string]struct{}
	dependencies map[string]map[string]struct{} // module -> modules it instantiates
	dependents   map[string]map[string]struct{} // module -> modules that instantiate it
}

// NewDependencyGraph creates an empty DependencyGraph.
func NewDependencyGraph() *DependencyGraph {
	return &DependencyGraph{
		allModules:   make(map[string]struct{}),
		dependencies: make(map[string]map[string]struct{}),
		dependents:   make(map[string]map[string]struct{}),
	}
}

// BuildFromModules rebuilds the graph from scratch for the given modules.
// It runs in two passes: first it registers every module name so that
// dependency edges can be recognized regardless of iteration order, then
// it walks each module's cells, adding an edge whenever a cell's type
// names another module in the set (primitive cell types are ignored).
func (g *DependencyGraph) BuildFromModules(modules []*Module) {
	g.allModules = make(map[string]struct{}, len(modules))
	g.dependencies = make(map[string]map[string]struct{}, len(modules))
	g.dependents = make(map[string]map[string]struct{}, len(modules))

	for _, m := range modules {
		name := m.Name.String()
		g.allModules[name] = struct{}{}
		g.dependencies[name] = make(map[string]struct{})
		g.dependents[name] = make(map[string]struct{})
	}

	for _, m := range modules {
		name := m.Name.String()
		for _, t := range m.SubmoduleTypes() {
			if _, ok := g.allModules[t]; !ok {
				continue
			}
			g.dependencies[name][t] = struct{}{}
			g.dependents[t][name] = struct{}{}
		}
	}
}

// DirectDependents returns the modules that directly instantiate module.
func (g *DependencyGraph) DirectDependents(module string) []string {
	return sortedKeys(g.dependents[module])
}

// DirectDependencies returns the modules that module directly instantiates.
func (g *DependencyGraph) DirectDependencies(module string) []string {
	return sortedKeys(g.dependencies[module])
}

// AllDependents returns the transitive closure of modules that depend on
// module (directly or indirectly), via breadth-first traversal of the
// dependents edges. A cycle terminates naturally because each module is
// enqueued at most once.
func (g *DependencyGraph) AllDependents(module string) []string {
	return g.transitiveClosure(g.dependents, module)
}

// AllDependencies returns the transitive closure of modules that module
// depends on (directly or indirectly).
func (g *DependencyGraph) AllDependencies(module string) []string {
	return g.transitiveClosure(g.dependencies, module)
}

func (g *DependencyGraph) transitiveClosure(edges map[string]map[string]struct{}, start string) []string {
	result := make(map[string]struct{})
	worklist := []string{}

	for next := range edges[start] {
		if _, seen := result[next]; !seen {
			result[next] = struct{}{}
			worklist = append(worklist, next)
		}
	}

	for len(worklist) > 0 {
		current := worklist[0]
		worklist = worklist[1:]
		for next := range edges[current] {
			if _, seen := result[next]; !seen {
				result[next] = struct{}{}
				worklist = append(worklist, next)
			}
		}
	}

	return sortedKeys(result)
}

// AffectedModules returns the union of changed and every module that
// transitively depends on one of them: the conservative invalidation set
// for a given set of directly-changed modules.
func (g *DependencyGraph) AffectedModules(changed []string) []string {
	affected := make(map[string]struct{}, len(changed))
	for _, mod := range changed {
		affected[mod] = struct{}{}
		for _, dep := range g.AllDependents(mod) {
			affected[dep] = struct{}{}
		}
	}
	return sortedKeys(affected)
}

// TopologicalOrder returns modules ordered so that every module appears
// before any module that depends on it (dependency-first order), using a
// depth-first search. A cycle does not abort the traversal: the cycling
// module is returned in whatever order the search already committed to,
// and the cycle is reported via the returned error so the caller can log
// or reject it as appropriate; the order itself is still usable
// best-effort, matching the source tool's behavior of warning rather than
// failing on a circular dependency.
func (g *DependencyGraph) TopologicalOrder() ([]string, error) {
	result := make([]string, 0, len(g.allModules))
	visited := make(map[string]struct{})
	inStack := make(map[string]struct{})
	var cycleErr error

	var visit func(mod string)
	visit = func(mod string) {
		if _, ok := visited[mod]; ok {
			return
		}
		if _, ok := inStack[mod]; ok {
			if cycleErr == nil {
				cycleErr = zerr.Wrap(ErrCycleDetected, "dependency cycle through module "+mod)
			}
			return
		}
		inStack[mod] = struct{}{}
		for _, dep := range sortedKeys(g.dependencies[mod]) {
			visit(dep)
		}
		delete(inStack, mod)
		visited[mod] = struct{}{}
		result = append(result, mod)
	}

	for _, mod := range sortedKeys(g.allModules) {
		visit(mod)
	}

	return result, cycleErr
}

// Modules returns every module name registered in the graph, sorted.
func (g *DependencyGraph) Modules() []string {
	return sortedKeys(g.allModules)
}

// graphDocument is the persisted form of a DependencyGraph: the module
// set plus direct-dependency edges. Dependent edges and transitive
// closures are cheap to recompute from these on load, so they are not
// stored.
type graphDocument struct {
	Modules      []string            `json:"modules"`
	Dependencies map[string][]string `json:"dependencies"`
}

// MarshalJSON serializes the graph to the keyed-blob form persisted
// alongside the cache index, so a later process can restore it without
// rebuilding a design from scratch.
func (g *DependencyGraph) MarshalJSON() ([]byte, error) {
	doc := graphDocument{
		Modules:      sortedKeys(g.allModules),
		Dependencies: make(map[string][]string, len(g.dependencies)),
	}
	for mod, deps := range g.dependencies {
		doc.Dependencies[mod] = sortedKeys(deps)
	}
	return json.Marshal(doc)
}

// UnmarshalJSON restores a graph previously serialized by MarshalJSON,
// rebuilding the dependent edges from the stored dependency edges.
func (g *DependencyGraph) UnmarshalJSON(data []byte) error {
	var doc graphDocument
	if err := json.Unmarshal(data, &doc); err != nil {
		return err
	}

	g.allModules = make(map[string]struct{}, len(doc.Modules))
	g.dependencies = make(map[string]map[string]struct{}, len(doc.Modules))
	g.dependents = make(map[string]map[string]struct{}, len(doc.Modules))

	for _, mod := range doc.Modules {
		g.allModules[mod] = struct{}{}
		g.dependencies[mod] = make(map[string]struct{})
		g.dependents[mod] = make(map[string]struct{})
	}
	for mod, deps := range doc.Dependencies {
		for _, dep := range deps {
			g.dependencies[mod][dep] = struct{}{}
			g.dependents[dep][mod] = struct{}{}
		}
	}
	return nil
}

func sortedKeys(m map[string]struct{}) []string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}
