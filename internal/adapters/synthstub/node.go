package synthstub

import (
	"context"

	"github.com/grindlemire/graft"
	"go.trai.ch/synthcache/internal/core/ports"
)

const (
	// EngineNodeID is the unique identifier for the synthesis engine Graft node.
	EngineNodeID graft.ID = "adapter.engine"
	// CodecNodeID is the unique identifier for the module serializer/loader Graft node.
	CodecNodeID graft.ID = "adapter.module_codec"
)

func init() {
	graft.Register(graft.Node[ports.Engine]{
		ID:        EngineNodeID,
		Cacheable: true,
		Run: func(_ context.Context) (ports.Engine, error) {
			return NewEngine(), nil
		},
	})

	graft.Register(graft.Node[*JSONCodec]{
		ID:        CodecNodeID,
		Cacheable: true,
		Run: func(_ context.Context) (*JSONCodec, error) {
			return NewJSONCodec(), nil
		},
	})
}
