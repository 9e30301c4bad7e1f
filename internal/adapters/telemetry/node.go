package telemetry

import (
	"context"

	"github.com/grindlemire/graft"
	"go.trai.ch/synthcache/internal/core/ports"
)

// NodeID is the unique identifier for the tracer Graft node.
const NodeID graft.ID = "adapter.tracer"

// InstrumentationName is the tracer name registered with OpenTelemetry.
const InstrumentationName = "go.trai.ch/synthcache"

func init() {
	graft.Register(graft.Node[ports.Tracer]{
		ID:        NodeID,
		Cacheable: true,
		Run: func(_ context.Context) (ports.Tracer, error) {
			return NewOTelTracer(InstrumentationName), nil
		},
	})
}
