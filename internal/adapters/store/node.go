package store

import (
	"context"

	"github.com/grindlemire/graft"
	"go.trai.ch/lode/internal/core/domain"
	"go.trai.ch/lode/internal/core/ports"
)

const NodeID graft.ID = "adapter.store"

func init() {
	graft.Register(graft.Node[ports.Store]{
		ID:        NodeID,
		Cacheable: true,
		Run: func(_ context.Context) (ports.Store, error) {
			return NewStore(domain.DefaultStorePath()), nil
		},
	})
}
