package cache

import (
	"context"

	"github.com/grindlemire/graft"
	"go.trai.ch/synthcache/internal/adapters/logger"
	"go.trai.ch/synthcache/internal/adapters/settings"
	"go.trai.ch/synthcache/internal/adapters/synthstub"
	"go.trai.ch/synthcache/internal/core/domain"
	"go.trai.ch/synthcache/internal/core/ports"
)

// NodeID is the unique identifier for the module cache Graft node.
const NodeID graft.ID = "adapter.module_cache"

// MemoryCap bounds the number of deserialized modules the cache keeps
// resident for fast restores.
const MemoryCap = 512

func init() {
	graft.Register(graft.Node[ports.ModuleCache]{
		ID:        NodeID,
		Cacheable: true,
		DependsOn: []graft.ID{synthstub.CodecNodeID, logger.NodeID, settings.NodeID},
		Run: func(ctx context.Context) (ports.ModuleCache, error) {
			codec, err := graft.Dep[*synthstub.JSONCodec](ctx)
			if err != nil {
				return nil, err
			}
			log, err := graft.Dep[ports.Logger](ctx)
			if err != nil {
				return nil, err
			}
			settingsStore, err := graft.Dep[ports.SettingsStore](ctx)
			if err != nil {
				return nil, err
			}
			cacheDir := domain.DefaultCacheDir()
			store, err := NewStore(cacheDir, codec, codec, log, MemoryCap)
			if err != nil {
				return nil, err
			}
			if err := store.Init(); err != nil {
				return nil, err
			}
			limits, err := settingsStore.Load(cacheDir)
			if err != nil {
				return nil, err
			}
			store.SetLimits(limits)
			return store, nil
		},
	})
}
