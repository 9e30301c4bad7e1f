package synthstub

import (
	"encoding/json"
	"sort"

	"go.trai.ch/synthcache/internal/core/domain"
	"go.trai.ch/synthcache/internal/core/ports"
	"go.trai.ch/zerr"
)

var (
	_ ports.ModuleSerializer = (*JSONCodec)(nil)
	_ ports.ModuleLoader     = (*JSONCodec)(nil)
)

// artifactDocument is the structured JSON document a module round-trips
// through on disk, replacing the ad-hoc JSON text a real synthesis
// engine's module serializer would otherwise hand the cache opaquely.
type artifactDocument struct {
	Name       string              `json:"name"`
	Ports      []artifactPortEntry `json:"ports"`
	Wires      []artifactWireEntry `json:"wires"`
	Cells      []artifactCellEntry `json:"cells"`
	Attributes map[string]string  `json:"attributes,omitempty"`
}

type artifactPortEntry struct {
	Name      string `json:"name"`
	Direction string `json:"direction"`
	Width     int    `json:"width"`
}

type artifactWireEntry struct {
	Name       string            `json:"name"`
	Width      int               `json:"width"`
	Attributes map[string]string `json:"attributes,omitempty"`
}

type artifactCellEntry struct {
	Name        string            `json:"name"`
	Type        string            `json:"type"`
	Params      map[string]string `json:"params,omitempty"`
	Connections map[string]string `json:"connections,omitempty"`
}

// JSONCodec serializes and deserializes domain.Module values as JSON.
type JSONCodec struct{}

// NewJSONCodec creates a JSONCodec.
func NewJSONCodec() *JSONCodec {
	return &JSONCodec{}
}

// Serialize renders module as an artifactDocument.
func (c *JSONCodec) Serialize(module *domain.Module) ([]byte, error) {
	doc := artifactDocument{Name: module.Name.String(), Attributes: module.Attributes}
	for _, p := range module.Ports {
		doc.Ports = append(doc.Ports, artifactPortEntry{
			Name: p.Name.String(), Direction: p.Direction, Width: p.Width,
		})
	}
	for _, w := range module.Wires {
		doc.Wires = append(doc.Wires, artifactWireEntry{
			Name: w.Name.String(), Width: w.Width, Attributes: w.Attributes,
		})
	}
	for _, cell := range module.Cells {
		entry := artifactCellEntry{
			Name:   cell.Name.String(),
			Type:   cell.CellType.String(),
			Params: cell.Params,
		}
		if len(cell.Connections) > 0 {
			entry.Connections = make(map[string]string, len(cell.Connections))
			for _, conn := range cell.Connections {
				entry.Connections[conn.PortName.String()] = conn.NetName.String()
			}
		}
		doc.Cells = append(doc.Cells, entry)
	}

	data, err := json.Marshal(doc)
	if err != nil {
		return nil, zerr.Wrap(err, domain.ErrSerializationFailed.Error())
	}
	return data, nil
}

// Deserialize reconstructs a module from bytes produced by Serialize.
func (c *JSONCodec) Deserialize(data []byte) (*domain.Module, error) {
	var doc artifactDocument
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, zerr.Wrap(err, domain.ErrDeserializationFailed.Error())
	}

	m := domain.NewModule(doc.Name)
	m.Attributes = doc.Attributes
	for _, p := range doc.Ports {
		m.Ports = append(m.Ports, domain.Port{
			Name: domain.NewInternedString(p.Name), Direction: p.Direction, Width: p.Width,
		})
	}
	for _, w := range doc.Wires {
		m.Wires = append(m.Wires, domain.Wire{
			Name: domain.NewInternedString(w.Name), Width: w.Width, Attributes: w.Attributes,
		})
	}
	for _, c := range doc.Cells {
		cell := domain.Cell{
			Name:     domain.NewInternedString(c.Name),
			CellType: domain.NewInternedString(c.Type),
			Params:   c.Params,
		}
		// The artifact's connections map has no order of its own; sort by
		// port name so a restored module's connection order matches what
		// the elaboration front-end would have produced for the same
		// content, keeping a restore idempotent with a fresh synthesize.
		ports := make([]string, 0, len(c.Connections))
		for port := range c.Connections {
			ports = append(ports, port)
		}
		sort.Strings(ports)
		for _, port := range ports {
			cell.Connections = append(cell.Connections, domain.Connection{
				PortName: domain.NewInternedString(port),
				NetName:  domain.NewInternedString(c.Connections[port]),
			})
		}
		m.Cells = append(m.Cells, cell)
	}
	return m, nil
}
