package app

import (
	"context"

	"github.com/grindlemire/graft"
	"go.trai.ch/lode/internal/adapters/config"             //nolint:depguard // Wired in app layer
	"go.trai.ch/lode/internal/adapters/lockfile"           //nolint:depguard // Wired in app layer
	"go.trai.ch/lode/internal/adapters/logger"             //nolint:depguard // Wired in app layer
	"go.trai.ch/lode/internal/adapters/telemetry/progrock" //nolint:depguard // Wired in app layer
	"go.trai.ch/lode/internal/core/ports"
	"go.trai.ch/lode/internal/engine/buildenv"
	"go.trai.ch/lode/internal/engine/resolve"
)

const (
	// AppNodeID is the unique identifier for the main App Graft node.
	AppNodeID graft.ID = "app.main"
	// ComponentsNodeID is the unique identifier for the App components Graft node.
	ComponentsNodeID graft.ID = "app.components"
)

func init() {
	// App Node
	graft.Register(graft.Node[*App]{
		ID:        AppNodeID,
		Cacheable: true,
		DependsOn: []graft.ID{
			config.NodeID,
			lockfile.NodeID,
			logger.NodeID,
			progrock.NodeID,
			resolve.NodeID,
			buildenv.NodeID,
		},
		Run: runAppNode,
	})

	// Components Node
	graft.Register(graft.Node[*Components]{
		ID:        ComponentsNodeID,
		Cacheable: true,
		DependsOn: []graft.ID{
			AppNodeID,
			logger.NodeID,
			progrock.NodeID,
		},
		Run: runComponentsNode,
	})
}

func runAppNode(ctx context.Context) (*App, error) {
	manifests, err := graft.Dep[ports.ManifestLoader](ctx)
	if err != nil {
		return nil, err
	}

	lockfiles, err := graft.Dep[ports.LockfileStore](ctx)
	if err != nil {
		return nil, err
	}

	builder, err := graft.Dep[*resolve.Builder](ctx)
	if err != nil {
		return nil, err
	}

	merger, err := graft.Dep[*buildenv.Merger](ctx)
	if err != nil {
		return nil, err
	}

	log, err := graft.Dep[ports.Logger](ctx)
	if err != nil {
		return nil, err
	}

	telemetry, err := graft.Dep[ports.Telemetry](ctx)
	if err != nil {
		return nil, err
	}

	return New(manifests, lockfiles, builder, merger, log, telemetry), nil
}

func runComponentsNode(ctx context.Context) (*Components, error) {
	application, err := graft.Dep[*App](ctx)
	if err != nil {
		return nil, err
	}

	log, err := graft.Dep[ports.Logger](ctx)
	if err != nil {
		return nil, err
	}

	telemetry, err := graft.Dep[ports.Telemetry](ctx)
	if err != nil {
		return nil, err
	}

	return &Components{
		App:       application,
		Logger:    log,
		Telemetry: telemetry,
	}, nil
}
