package domain

import "go.trai.ch/zerr"

var (
	// ErrInvalidManifest is returned when the manifest fails structural validation.
	ErrInvalidManifest = zerr.New("invalid manifest")

	// ErrVersionConflict is returned when a descriptor declares both an exact
	// version and a semver range.
	ErrVersionConflict = zerr.New("descriptor declares both exact version and range")

	// ErrInvalidRange is returned when a semver range expression cannot be parsed.
	ErrInvalidRange = zerr.New("invalid semver range")

	// ErrUnknownBuildPackage is returned when a build's runtime-packages entry
	// names an install ID that does not exist or is not in the default group.
	ErrUnknownBuildPackage = zerr.New("unknown runtime package in build")

	// ErrResolutionFailure is returned when a package group cannot be resolved
	// against any configured input.
	ErrResolutionFailure = zerr.New("package group resolution failed")

	// ErrNoInputs is returned when resolution is attempted with an empty input registry.
	ErrNoInputs = zerr.New("no package inputs configured")

	// ErrPackageNotFound is returned when a descriptor matches no candidate in an input.
	ErrPackageNotFound = zerr.New("package not found")

	// ErrUnsupportedSystem is returned when an operation targets a system the
	// lockfile has no entries for.
	ErrUnsupportedSystem = zerr.New("unsupported system")

	// ErrMergeConflict is returned when two packages provide the same file at
	// equal precedence and collisions are not ignored.
	ErrMergeConflict = zerr.New("file conflict between packages")

	// ErrNotDirectory is returned when a merge path expects a directory but
	// finds a regular file or symlink.
	ErrNotDirectory = zerr.New("path is not a directory")

	// ErrStorePathMissing is returned when a referenced store path does not exist.
	ErrStorePathMissing = zerr.New("store path does not exist")

	// ErrManifestRead is returned when the manifest file cannot be read.
	ErrManifestRead = zerr.New("failed to read manifest")

	// ErrManifestParse is returned when the manifest file cannot be parsed.
	ErrManifestParse = zerr.New("failed to parse manifest")

	// ErrLockfileRead is returned when the lockfile cannot be read.
	ErrLockfileRead = zerr.New("failed to read lockfile")

	// ErrLockfileParse is returned when the lockfile cannot be parsed.
	ErrLockfileParse = zerr.New("failed to parse lockfile")

	// ErrLockfileWrite is returned when the lockfile cannot be written.
	ErrLockfileWrite = zerr.New("failed to write lockfile")

	// ErrCatalogRead is returned when a catalog index file cannot be read.
	ErrCatalogRead = zerr.New("failed to read catalog index")

	// ErrCatalogParse is returned when a catalog index file cannot be parsed.
	ErrCatalogParse = zerr.New("failed to parse catalog index")
)
