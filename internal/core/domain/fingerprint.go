package domain

import (
	"sort"

	"github.com/cespare/xxhash/v2"
)

// Fingerprint is a 64-bit stable content hash of a Module's structure.
// It is independent of the order in which semantically unordered
// collections (wires, cells, a cell's params) happen to be stored, but
// sensitive to the declared order of a module's ports and a cell's
// connections, since both carry meaning beyond membership.
type Fingerprint uint64

// Fingerprinter computes stable content fingerprints for modules (see
// Fingerprint for which orderings affect the value). It holds no state: any two Fingerprinters compute the same
// value for the same module content.
type Fingerprinter struct{}

// NewFingerprinter creates a Fingerprinter.
func NewFingerprinter() *Fingerprinter {
	return &Fingerprinter{}
}

// Fingerprint returns m's memoized fingerprint, computing and caching it
// first if Touch has invalidated the cache (or it was never computed).
func (fp *Fingerprinter) Fingerprint(m *Module) Fingerprint {
	if m.fingerprintValid {
		return m.fingerprint
	}
	m.fingerprint = fp.compute(m)
	m.fingerprintValid = true
	return m.fingerprint
}

// compute folds m's structure into a single xxhash digest. Ports and a
// cell's connections are declaration-order content: they are folded in
// as given, so reordering either changes the fingerprint. Wires and
// cells are semantically unordered collections and are sorted by name
// before being folded in, and a cell's params (and any attribute map)
// are sorted by key, so that two structurally identical modules whose
// internal slices/maps happen to be ordered differently still produce
// the same fingerprint.
func (fp *Fingerprinter) compute(m *Module) Fingerprint {
	h := xxhash.New()
	sep := []byte{0}

	for _, p := range m.Ports {
		_, _ = h.WriteString(p.Name.String())
		h.Write(sep)
		_, _ = h.WriteString(p.Direction)
		h.Write(sep)
		writeInt(h, p.Width)
		h.Write(sep)
	}
	h.Write(sep)

	wires := make([]Wire, len(m.Wires))
	copy(wires, m.Wires)
	sort.Slice(wires, func(i, j int) bool { return wires[i].Name.String() < wires[j].Name.String() })
	for _, w := range wires {
		_, _ = h.WriteString(w.Name.String())
		h.Write(sep)
		writeInt(h, w.Width)
		h.Write(sep)
		writeAttributes(h, w.Attributes)
		h.Write(sep)
	}
	h.Write(sep)

	cells := make([]Cell, len(m.Cells))
	copy(cells, m.Cells)
	sort.Slice(cells, func(i, j int) bool { return cells[i].Name.String() < cells[j].Name.String() })
	for _, c := range cells {
		_, _ = h.WriteString(c.Name.String())
		h.Write(sep)
		_, _ = h.WriteString(c.CellType.String())
		h.Write(sep)
		writeAttributes(h, c.Params)
		h.Write(sep)

		for _, conn := range c.Connections {
			_, _ = h.WriteString(conn.PortName.String())
			h.Write([]byte{'='})
			_, _ = h.WriteString(conn.NetName.String())
			h.Write(sep)
		}
		h.Write(sep)
	}
	h.Write(sep)

	writeAttributes(h, m.Attributes)

	return Fingerprint(h.Sum64())
}

// writeAttributes folds a string-keyed map into h, sorted by key for
// determinism. Used for cell params, wire attributes and module
// attributes alike.
func writeAttributes(h *xxhash.Digest, attrs map[string]string) {
	keys := make([]string, 0, len(attrs))
	for k := range attrs {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		_, _ = h.WriteString(k)
		h.Write([]byte{'='})
		_, _ = h.WriteString(attrs[k])
		h.Write([]byte{0})
	}
}

func writeInt(h *xxhash.Digest, v int) {
	var buf [8]byte
	u := uint64(v)
	for i := range buf {
		buf[i] = byte(u >> (8 * i))
	}
	_, _ = h.Write(buf[:])
}
