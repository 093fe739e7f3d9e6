// Package wiring registers all Graft nodes for the application.
package wiring

import (
	// Register adapter nodes.
	_ "go.trai.ch/xbuild/internal/adapters/config"
	_ "go.trai.ch/xbuild/internal/adapters/fetch"
	_ "go.trai.ch/xbuild/internal/adapters/host"
	_ "go.trai.ch/xbuild/internal/adapters/linear"
	_ "go.trai.ch/xbuild/internal/adapters/logger"
	_ "go.trai.ch/xbuild/internal/adapters/shell"
	// Register app nodes.
	_ "go.trai.ch/xbuild/internal/app"
)
