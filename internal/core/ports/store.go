package ports

// StoreEntry is one directory entry of a store path.
type StoreEntry struct {
	Name      string
	IsDir     bool
	IsSymlink bool
}

// FileStat is the subset of file metadata the merge engine compares.
type FileStat struct {
	IsDir      bool
	Executable bool
	Size       int64
}

// Store provides read access to the content-addressed store packages live in.
//
//go:generate go run go.uber.org/mock/mockgen -source=store.go -destination=mocks/mock_store.go -package=mocks
type Store interface {
	// PathExists reports whether the store path exists.
	PathExists(path string) bool

	// ReadDir lists the entries of a store directory.
	ReadDir(path string) ([]StoreEntry, error)

	// RealPath resolves all symlinks in path and returns the canonical path.
	RealPath(path string) (string, error)

	// Stat returns metadata for the file at path, following symlinks.
	Stat(path string) (FileStat, error)

	// ReadFile returns the contents of the file at path.
	ReadFile(path string) ([]byte, error)

	// ClosureOf returns every store path reachable from the given path
	// through the store's reference graph, including the path itself.
	ClosureOf(path string) ([]string, error)
}
