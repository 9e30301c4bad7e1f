package app

import (
	"context"
	"os"

	"github.com/grindlemire/graft"
	"go.trai.ch/synthcache/internal/adapters/cache"
	"go.trai.ch/synthcache/internal/adapters/linear"
	"go.trai.ch/synthcache/internal/adapters/logger"
	"go.trai.ch/synthcache/internal/adapters/settings"
	"go.trai.ch/synthcache/internal/adapters/synthstub"
	"go.trai.ch/synthcache/internal/adapters/telemetry"
	"go.trai.ch/synthcache/internal/adapters/watcher"
	"go.trai.ch/synthcache/internal/core/ports"
)

// NodeID is the unique identifier for the application Graft node.
const NodeID graft.ID = "app.app"

// ComponentsNodeID is the unique identifier for the top-level Components
// Graft node that main depends on.
const ComponentsNodeID graft.ID = "app.components"

// Components is the root of the dependency graph main constructs: the
// wired App plus the logger, which the CLI root needs before the App
// exists (to report a wiring failure).
type Components struct {
	App    *App
	Logger ports.Logger
}

func init() {
	graft.Register(graft.Node[*App]{
		ID:        NodeID,
		Cacheable: true,
		DependsOn: []graft.ID{
			synthstub.EngineNodeID,
			cache.NodeID,
			watcher.NodeID,
			settings.NodeID,
			telemetry.NodeID,
			logger.NodeID,
		},
		Run: func(ctx context.Context) (*App, error) {
			engine, err := graft.Dep[ports.Engine](ctx)
			if err != nil {
				return nil, err
			}
			moduleCache, err := graft.Dep[ports.ModuleCache](ctx)
			if err != nil {
				return nil, err
			}
			fileWatcher, err := graft.Dep[ports.Watcher](ctx)
			if err != nil {
				return nil, err
			}
			settingsStore, err := graft.Dep[ports.SettingsStore](ctx)
			if err != nil {
				return nil, err
			}
			tracer, err := graft.Dep[ports.Tracer](ctx)
			if err != nil {
				return nil, err
			}
			log, err := graft.Dep[ports.Logger](ctx)
			if err != nil {
				return nil, err
			}

			renderer := newRenderer()

			return New(engine, moduleCache, fileWatcher, settingsStore, tracer, log, renderer), nil
		},
	})

	graft.Register(graft.Node[*Components]{
		ID:        ComponentsNodeID,
		Cacheable: true,
		DependsOn: []graft.ID{NodeID, logger.NodeID},
		Run: func(ctx context.Context) (*Components, error) {
			a, err := graft.Dep[*App](ctx)
			if err != nil {
				return nil, err
			}
			log, err := graft.Dep[ports.Logger](ctx)
			if err != nil {
				return nil, err
			}
			return &Components{App: a, Logger: log}, nil
		},
	})
}

// newRenderer builds the linear renderer. The only JSON-shaped output
// this tool produces is the watch notification line
// (driver.WatchOptions.Report), which bypasses the renderer entirely, so
// output-mode detection (see adapters/detector) only governs logging.
func newRenderer() ports.Renderer {
	return linear.NewRenderer(os.Stdout, os.Stderr)
}
