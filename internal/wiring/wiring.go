// Package wiring registers all Graft nodes for the application.
package wiring

import (
	// Register adapter nodes.
	_ "go.trai.ch/lode/internal/adapters/catalog"
	_ "go.trai.ch/lode/internal/adapters/config"
	_ "go.trai.ch/lode/internal/adapters/lockfile"
	_ "go.trai.ch/lode/internal/adapters/logger"
	_ "go.trai.ch/lode/internal/adapters/store"
	_ "go.trai.ch/lode/internal/adapters/telemetry/progrock"
	// Register app and engine nodes.
	_ "go.trai.ch/lode/internal/app"
	_ "go.trai.ch/lode/internal/engine/buildenv"
	_ "go.trai.ch/lode/internal/engine/resolve"
)
