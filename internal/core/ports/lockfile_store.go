package ports

import "go.trai.ch/lode/internal/core/domain"

// LockfileStore defines the interface for reading and writing lockfiles.
//
//go:generate go run go.uber.org/mock/mockgen -source=lockfile_store.go -destination=mocks/mock_lockfile_store.go -package=mocks
type LockfileStore interface {
	// Read returns the lockfile at the given path.
	// Returns nil, nil if no lockfile exists yet.
	Read(path string) (*domain.Lockfile, error)

	// Write persists the lockfile to the given path.
	Write(path string, lockfile *domain.Lockfile) error
}
