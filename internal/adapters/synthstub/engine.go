// Package synthstub provides a reference in-memory implementation of the
// ports.Engine, ports.ModuleSerializer and ports.ModuleLoader interfaces
// that a production build links against a real RTL synthesis engine
// for. It lets the cache, dependency graph and driver be wired, run and
// tested without that engine.
package synthstub

import (
	"os"
	"path/filepath"
	"sort"
	"strings"

	"go.trai.ch/synthcache/internal/core/domain"
	"go.trai.ch/synthcache/internal/core/ports"
	"go.trai.ch/zerr"
	"gopkg.in/yaml.v3"
)

var _ ports.Engine = (*Engine)(nil)

// sourceDocument is the YAML shape a synthstub source file is parsed as:
// a top-level modules list, one item per module, with its ports, wires
// and cells inline.
// This stands in for whatever format a real RTL front-end reads.
type sourceDocument struct {
	Modules []moduleDocument `yaml:"modules"`
}

type moduleDocument struct {
	Name       string            `yaml:"name"`
	Ports      []portDocument    `yaml:"ports"`
	Wires      []wireDocument    `yaml:"wires"`
	Cells      []cellDocument    `yaml:"cells"`
	Attributes map[string]string `yaml:"attributes"`
}

type portDocument struct {
	Name      string `yaml:"name"`
	Direction string `yaml:"direction"`
	Width     int    `yaml:"width"`
}

type wireDocument struct {
	Name       string            `yaml:"name"`
	Width      int               `yaml:"width"`
	Attributes map[string]string `yaml:"attributes"`
}

type cellDocument struct {
	Name        string            `yaml:"name"`
	Type        string            `yaml:"type"`
	Params      map[string]string `yaml:"params"`
	Connections map[string]string `yaml:"connections"`
}

// Engine is a reference synthesis backend that reads modules from YAML
// source files and applies named transform passes as deterministic,
// reversible structural rewrites recorded in the module's cells.
type Engine struct{}

// NewEngine creates an Engine.
func NewEngine() *Engine {
	return &Engine{}
}

// Elaborate reads every source file (each a sourceDocument) and returns
// the union of their modules. top is currently unused by this reference
// engine: every module declared in the sources is elaborated, mirroring
// a front-end that flattens an entire design before the driver narrows
// its attention to one top module's dependency closure.
func (e *Engine) Elaborate(sources []string, _ string) ([]*domain.Module, error) {
	var modules []*domain.Module
	for _, src := range sources {
		data, err := os.ReadFile(filepath.Clean(src))
		if err != nil {
			return nil, zerr.With(zerr.Wrap(err, domain.ErrElaborationFailed.Error()), "source", src)
		}
		var doc sourceDocument
		if err := yaml.Unmarshal(data, &doc); err != nil {
			return nil, zerr.With(zerr.Wrap(err, domain.ErrElaborationFailed.Error()), "source", src)
		}
		for _, md := range doc.Modules {
			modules = append(modules, moduleFromDocument(md))
		}
	}
	return modules, nil
}

func moduleFromDocument(md moduleDocument) *domain.Module {
	m := domain.NewModule(md.Name)
	m.Attributes = md.Attributes
	for _, p := range md.Ports {
		m.Ports = append(m.Ports, domain.Port{
			Name:      domain.NewInternedString(p.Name),
			Direction: p.Direction,
			Width:     p.Width,
		})
	}
	for _, w := range md.Wires {
		m.Wires = append(m.Wires, domain.Wire{
			Name:       domain.NewInternedString(w.Name),
			Width:      w.Width,
			Attributes: w.Attributes,
		})
	}
	for _, c := range md.Cells {
		cell := domain.Cell{
			Name:     domain.NewInternedString(c.Name),
			CellType: domain.NewInternedString(c.Type),
			Params:   c.Params,
		}
		// YAML's connections map has no order of its own; sort by port
		// name so the cell's declaration-order connections are at least
		// stable across parses of the same source.
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
	return m
}

// Synthesize applies passSequence's passes, one at a time, to a copy of
// module. Each pass appends a marker cell ("$pass_<pass>") so
// tests can observe which passes ran without needing a real synthesis
// pipeline; "opt" additionally drops wires with no driving or driven
// connection, the one structural effect this reference engine performs.
func (e *Engine) Synthesize(module *domain.Module, passSequence string) (*domain.Module, error) {
	out := cloneModule(module)
	for _, pass := range strings.Split(passSequence, ";") {
		pass = strings.TrimSpace(pass)
		if pass == "" {
			continue
		}
		if pass == "opt" {
			out.Wires = pruneUnusedWires(out)
		}
		out.Cells = append(out.Cells, domain.Cell{
			Name:     domain.NewInternedString("$pass_" + pass),
			CellType: domain.NewInternedString("$" + pass),
		})
	}
	out.Touch()
	return out, nil
}

func cloneModule(m *domain.Module) *domain.Module {
	out := domain.NewModule(m.Name.String())
	out.Ports = append(out.Ports, m.Ports...)
	out.Wires = append(out.Wires, m.Wires...)
	out.Cells = make([]domain.Cell, len(m.Cells))
	copy(out.Cells, m.Cells)
	out.Attributes = m.Attributes
	return out
}

func pruneUnusedWires(m *domain.Module) []domain.Wire {
	used := make(map[string]struct{})
	for _, c := range m.Cells {
		for _, conn := range c.Connections {
			used[conn.NetName.String()] = struct{}{}
		}
	}
	kept := make([]domain.Wire, 0, len(m.Wires))
	for _, w := range m.Wires {
		if _, ok := used[w.Name.String()]; ok {
			kept = append(kept, w)
		}
	}
	return kept
}
