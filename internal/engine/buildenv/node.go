package buildenv

import (
	"context"

	"github.com/grindlemire/graft"
	"go.trai.ch/lode/internal/adapters/logger" //nolint:depguard // Wired in engine wiring
	"go.trai.ch/lode/internal/adapters/store"  //nolint:depguard // Wired in engine wiring
	"go.trai.ch/lode/internal/core/ports"
)

// NodeID is the unique identifier for the environment merger Graft node.
const NodeID graft.ID = "engine.buildenv"

func init() {
	graft.Register(graft.Node[*Merger]{
		ID:        NodeID,
		Cacheable: true,
		DependsOn: []graft.ID{
			store.NodeID,
			logger.NodeID,
		},
		Run: func(ctx context.Context) (*Merger, error) {
			st, err := graft.Dep[ports.Store](ctx)
			if err != nil {
				return nil, err
			}

			log, err := graft.Dep[ports.Logger](ctx)
			if err != nil {
				return nil, err
			}

			return NewMerger(st, log), nil
		},
	})
}
