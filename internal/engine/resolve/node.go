package resolve

import (
	"context"

	"github.com/grindlemire/graft"
	"go.trai.ch/lode/internal/adapters/catalog" //nolint:depguard // Wired in engine wiring
	"go.trai.ch/lode/internal/adapters/logger"  //nolint:depguard // Wired in engine wiring
	"go.trai.ch/lode/internal/core/ports"
)

// NodeID is the unique identifier for the lockfile builder Graft node.
const NodeID graft.ID = "engine.resolve"

func init() {
	graft.Register(graft.Node[*Builder]{
		ID:        NodeID,
		Cacheable: true,
		DependsOn: []graft.ID{
			catalog.NodeID,
			logger.NodeID,
		},
		Run: func(ctx context.Context) (*Builder, error) {
			resolver, err := graft.Dep[ports.CandidateResolver](ctx)
			if err != nil {
				return nil, err
			}

			log, err := graft.Dep[ports.Logger](ctx)
			if err != nil {
				return nil, err
			}

			return NewBuilder(resolver, log), nil
		},
	})
}
