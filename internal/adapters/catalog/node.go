package catalog

import (
	"context"

	"github.com/grindlemire/graft"
	"go.trai.ch/lode/internal/core/domain"
	"go.trai.ch/lode/internal/core/ports"
)

const NodeID graft.ID = "adapter.candidate_resolver"

func init() {
	graft.Register(graft.Node[ports.CandidateResolver]{
		ID:        NodeID,
		Cacheable: true,
		Run: func(_ context.Context) (ports.CandidateResolver, error) {
			resolver, err := NewResolver(domain.DefaultCatalogPath())
			if err != nil {
				return nil, err
			}
			return resolver, nil
		},
	})
}
