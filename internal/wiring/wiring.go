// Package wiring registers all Graft nodes for the application.
package wiring

import (
	// Register adapter nodes.
	_ "go.trai.ch/synthcache/internal/adapters/cache"
	_ "go.trai.ch/synthcache/internal/adapters/logger"
	_ "go.trai.ch/synthcache/internal/adapters/settings"
	_ "go.trai.ch/synthcache/internal/adapters/synthstub"
	_ "go.trai.ch/synthcache/internal/adapters/telemetry"
	_ "go.trai.ch/synthcache/internal/adapters/watcher"
	// Register app nodes.
	_ "go.trai.ch/synthcache/internal/app"
)
