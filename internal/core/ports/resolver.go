package ports

import (
	"context"

	"go.trai.ch/lode/internal/core/domain"
)

// CandidateResolver resolves package descriptors against the ordered input
// registry.
//
//go:generate go run go.uber.org/mock/mockgen -source=resolver.go -destination=mocks/mock_resolver.go -package=mocks
type CandidateResolver interface {
	// Inputs returns the registry's inputs in priority order.
	Inputs() []domain.InputSource

	// Resolve looks up every descriptor in a single input for one system.
	// The result maps install IDs to their resolved package; an install ID
	// absent from the result found no candidate in this input. Errors are
	// reserved for the input itself being unreadable.
	Resolve(ctx context.Context, input domain.InputSource, system string, descriptors map[string]domain.Descriptor) (map[string]*domain.LockedPackage, error)
}
