package domain

import "os"

const (
	// DirPerm is the permission mode for directories created by lode.
	DirPerm = 0o750

	// FilePerm is the permission mode for files written by lode.
	FilePerm = 0o644
)

const (
	// DefaultManifestFilename is the manifest file looked up in the working directory.
	DefaultManifestFilename = "lode.yaml"

	// DefaultLockfileFilename is the lockfile written next to the manifest.
	DefaultLockfileFilename = "lode.lock"
)

// DefaultCatalogPath returns the directory holding the input registry and
// per-input package indexes. Overridable via LODE_CATALOG.
func DefaultCatalogPath() string {
	if path := os.Getenv("LODE_CATALOG"); path != "" {
		return path
	}
	return ".lode/catalog"
}

// DefaultStorePath returns the root of the content-addressed store packages
// are materialized from. Overridable via LODE_STORE.
func DefaultStorePath() string {
	if path := os.Getenv("LODE_STORE"); path != "" {
		return path
	}
	return "/nix/store"
}
