package ports

import "go.trai.ch/lode/internal/core/domain"

// ManifestLoader defines the interface for loading and validating manifests.
//
//go:generate go run go.uber.org/mock/mockgen -source=manifest_loader.go -destination=mocks/mock_manifest_loader.go -package=mocks
type ManifestLoader interface {
	// Load reads the manifest at the given path and returns it validated.
	Load(path string) (*domain.Manifest, error)
}
