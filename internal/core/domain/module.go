package domain

import "sort"

// Port describes one named, directioned port on a module.
type Port struct {
	Name      InternedString
	Direction string // "input", "output", "inout"
	Width     int
}

// Wire describes one internal signal of a module.
type Wire struct {
	Name       InternedString
	Width      int
	Attributes map[string]string
}

// Connection describes one cell-to-net binding within a module.
type Connection struct {
	PortName InternedString
	NetName  InternedString
}

// Cell describes one instantiated cell (primitive or submodule instance)
// within a module. CellType names the instantiated module or primitive;
// it is what the DependencyGraph follows to build edges.
type Cell struct {
	Name        InternedString
	CellType    InternedString
	Params      map[string]string
	Connections []Connection
}

// Module is the structural content unit the cache and dependency graph
// operate on: the post-elaboration content of one hardware module,
// independent of the module's name or its position in a design.
type Module struct {
	Name       InternedString
	Ports      []Port
	Wires      []Wire
	Cells      []Cell
	Attributes map[string]string

	fingerprint      Fingerprint
	fingerprintValid bool
}

// NewModule creates an empty module with the given name.
func NewModule(name string) *Module {
	return &Module{Name: NewInternedString(name)}
}

// Touch invalidates any memoized fingerprint, forcing a recompute on the
// next call to Fingerprint. Call this after mutating Ports, Wires, Cells
// or any Cell's Params/Connections.
func (m *Module) Touch() {
	m.fingerprintValid = false
}

// SubmoduleTypes returns the distinct, non-primitive cell types
// instantiated by this module, sorted for determinism. A cell type is
// considered primitive (and excluded) when it begins with '$', matching
// the synthesis engine's convention for built-in cells.
func (m *Module) SubmoduleTypes() []string {
	seen := make(map[string]struct{})
	for _, c := range m.Cells {
		t := c.CellType.String()
		if len(t) == 0 || t[0] == '$' {
			continue
		}
		seen[t] = struct{}{}
	}
	out := make([]string, 0, len(seen))
	for t := range seen {
		out = append(out, t)
	}
	sort.Strings(out)
	return out
}
