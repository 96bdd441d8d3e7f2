// Package store implements read access to a filesystem content-addressed store.
package store

import (
	"encoding/json"
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"go.trai.ch/lode/internal/core/domain"
	"go.trai.ch/lode/internal/core/ports"
	"go.trai.ch/zerr"
)

// referencesFilename is the sidecar file at the store root mapping each store
// path basename to the basenames it references.
const referencesFilename = ".references.json"

// Store implements ports.Store over a directory of store paths plus a
// reference-graph sidecar.
type Store struct {
	root string

	mu   sync.RWMutex
	refs map[string][]string
}

// NewStore creates a Store rooted at the given directory.
func NewStore(root string) *Store {
	return &Store{root: filepath.Clean(root)}
}

// Root returns the store's root directory.
func (s *Store) Root() string {
	return s.root
}

// PathExists reports whether the store path exists.
func (s *Store) PathExists(path string) bool {
	_, err := os.Lstat(path)
	return err == nil
}

// ReadDir lists the entries of a store directory.
func (s *Store) ReadDir(path string) ([]ports.StoreEntry, error) {
	entries, err := os.ReadDir(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, zerr.With(ErrNotExist(err), "path", path)
		}
		return nil, zerr.With(zerr.Wrap(err, "failed to read store directory"), "path", path)
	}

	result := make([]ports.StoreEntry, 0, len(entries))
	for _, entry := range entries {
		result = append(result, ports.StoreEntry{
			Name:      entry.Name(),
			IsDir:     entry.IsDir(),
			IsSymlink: entry.Type()&fs.ModeSymlink != 0,
		})
	}
	return result, nil
}

// ErrNotExist wraps a not-found error with the domain sentinel.
func ErrNotExist(err error) error {
	return zerr.Wrap(err, domain.ErrStorePathMissing.Error())
}

// RealPath resolves all symlinks in path and returns the canonical path.
func (s *Store) RealPath(path string) (string, error) {
	resolved, err := filepath.EvalSymlinks(path)
	if err != nil {
		return "", zerr.With(zerr.Wrap(err, "failed to resolve path"), "path", path)
	}
	return resolved, nil
}

// Stat returns metadata for the file at path, following symlinks.
func (s *Store) Stat(path string) (ports.FileStat, error) {
	info, err := os.Stat(path)
	if err != nil {
		return ports.FileStat{}, zerr.With(zerr.Wrap(err, "failed to stat path"), "path", path)
	}
	return ports.FileStat{
		IsDir:      info.IsDir(),
		Executable: info.Mode().Perm()&0o111 != 0,
		Size:       info.Size(),
	}, nil
}

// ReadFile returns the contents of the file at path.
func (s *Store) ReadFile(path string) ([]byte, error) {
	//nolint:gosec // Store paths come from the lockfile, not untrusted input
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, zerr.With(zerr.Wrap(err, "failed to read store file"), "path", path)
	}
	return data, nil
}

// ClosureOf returns every store path reachable from the given path through
// the store's reference graph, including the path itself, sorted.
func (s *Store) ClosureOf(path string) ([]string, error) {
	refs, err := s.references()
	if err != nil {
		return nil, err
	}

	if !s.PathExists(path) {
		return nil, zerr.With(domain.ErrStorePathMissing, "path", path)
	}

	seen := map[string]struct{}{path: {}}
	queue := []string{path}
	for len(queue) > 0 {
		current := queue[0]
		queue = queue[1:]

		for _, ref := range refs[filepath.Base(current)] {
			refPath := filepath.Join(s.root, ref)
			if _, ok := seen[refPath]; ok {
				continue
			}
			seen[refPath] = struct{}{}
			queue = append(queue, refPath)
		}
	}

	closure := make([]string, 0, len(seen))
	for p := range seen {
		closure = append(closure, p)
	}
	sort.Strings(closure)
	return closure, nil
}

// references lazily loads the reference-graph sidecar. A missing sidecar
// means an empty graph: closures then contain only the queried paths.
func (s *Store) references() (map[string][]string, error) {
	s.mu.RLock()
	refs := s.refs
	s.mu.RUnlock()
	if refs != nil {
		return refs, nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.refs != nil {
		return s.refs, nil
	}

	//nolint:gosec // Path is derived from the cleaned store root
	data, err := os.ReadFile(filepath.Join(s.root, referencesFilename))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			s.refs = make(map[string][]string)
			return s.refs, nil
		}
		return nil, zerr.Wrap(err, "failed to read store references")
	}

	refs = make(map[string][]string)
	if err := json.Unmarshal(data, &refs); err != nil {
		return nil, zerr.Wrap(err, "failed to parse store references")
	}

	// Normalize: references may be spelled as full store paths.
	for name, targets := range refs {
		for i, target := range targets {
			if strings.Contains(target, string(filepath.Separator)) {
				targets[i] = filepath.Base(target)
			}
		}
		refs[name] = targets
	}

	s.refs = refs
	return s.refs, nil
}
