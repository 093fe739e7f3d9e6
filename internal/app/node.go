package app

import (
	"context"

	"github.com/grindlemire/graft"
	"go.trai.ch/xbuild/internal/adapters/config" //nolint:depguard // Wired in app layer
	"go.trai.ch/xbuild/internal/adapters/fetch"  //nolint:depguard // Wired in app layer
	"go.trai.ch/xbuild/internal/adapters/host"   //nolint:depguard // Wired in app layer
	"go.trai.ch/xbuild/internal/adapters/linear" //nolint:depguard // Wired in app layer
	"go.trai.ch/xbuild/internal/adapters/logger" //nolint:depguard // Wired in app layer
	"go.trai.ch/xbuild/internal/adapters/shell"  //nolint:depguard // Wired in app layer
	"go.trai.ch/xbuild/internal/core/ports"
)

const (
	// AppNodeID is the unique identifier for the main App Graft node.
	AppNodeID graft.ID = "app.main"
	// ComponentsNodeID is the unique identifier for the App components Graft node.
	ComponentsNodeID graft.ID = "app.components"
)

// Components contains the initialized application components used by the CLI layer.
type Components struct {
	App    *App
	Logger ports.Logger
}

func init() {
	graft.Register(graft.Node[*App]{
		ID:        AppNodeID,
		Cacheable: true,
		DependsOn: []graft.ID{
			config.NodeID,
			shell.NodeID,
			shell.LocatorNodeID,
			host.NodeID,
			logger.NodeID,
			linear.NodeID,
			fetch.NodeID,
		},
		Run: runAppNode,
	})

	graft.Register(graft.Node[*Components]{
		ID:        ComponentsNodeID,
		Cacheable: true,
		DependsOn: []graft.ID{
			AppNodeID,
			logger.NodeID,
		},
		Run: func(ctx context.Context) (*Components, error) {
			app, err := graft.Dep[*App](ctx)
			if err != nil {
				return nil, err
			}
			log, err := graft.Dep[ports.Logger](ctx)
			if err != nil {
				return nil, err
			}
			return &Components{App: app, Logger: log}, nil
		},
	})
}

func runAppNode(ctx context.Context) (*App, error) {
	loader, err := graft.Dep[ports.ConfigLoader](ctx)
	if err != nil {
		return nil, err
	}

	executor, err := graft.Dep[ports.Executor](ctx)
	if err != nil {
		return nil, err
	}

	locator, err := graft.Dep[ports.ToolLocator](ctx)
	if err != nil {
		return nil, err
	}

	hostInfo, err := graft.Dep[ports.HostInfoProvider](ctx)
	if err != nil {
		return nil, err
	}

	log, err := graft.Dep[ports.Logger](ctx)
	if err != nil {
		return nil, err
	}

	renderers, err := graft.Dep[linear.Factory](ctx)
	if err != nil {
		return nil, err
	}

	downloader, err := graft.Dep[ports.Downloader](ctx)
	if err != nil {
		return nil, err
	}

	return New(loader, executor, locator, hostInfo, log, renderers, downloader), nil
}
