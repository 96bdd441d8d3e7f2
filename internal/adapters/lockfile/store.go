// Package lockfile implements JSON persistence for lockfiles.
package lockfile

import (
	"encoding/json"
	"errors"
	"io/fs"
	"os"
	"path/filepath"

	"go.trai.ch/lode/internal/core/domain"
	"go.trai.ch/zerr"
)

// Store implements ports.LockfileStore using a flat JSON file per lockfile.
type Store struct{}

// NewStore creates a new lockfile Store.
func NewStore() *Store {
	return &Store{}
}

// lockfileDoc is the serialized form of a lockfile.
type lockfileDoc struct {
	Version  int                                         `json:"lockfile-version"`
	Manifest manifestDoc                                 `json:"manifest"`
	Packages map[string]map[string]*domain.LockedPackage `json:"packages"`
}

type manifestDoc struct {
	Version int                      `json:"version,omitempty"`
	Install map[string]descriptorDoc `json:"install"`
	Build   map[string]buildDoc      `json:"build,omitempty"`
	Systems []string                 `json:"systems,omitempty"`
}

type buildDoc struct {
	RuntimePackages []string `json:"runtime_packages,omitempty"`
}

type descriptorDoc struct {
	Name     string   `json:"name,omitempty"`
	PkgPath  string   `json:"pkg_path,omitempty"`
	Version  string   `json:"version,omitempty"`
	Range    string   `json:"range,omitempty"`
	Group    string   `json:"group,omitempty"`
	Systems  []string `json:"systems,omitempty"`
	Priority int      `json:"priority,omitempty"`
	Optional bool     `json:"optional,omitempty"`
}

// Read returns the lockfile at the given path, or nil, nil if none exists.
func (s *Store) Read(path string) (*domain.Lockfile, error) {
	//nolint:gosec // Path is cleaned and provided by trusted caller
	data, err := os.ReadFile(filepath.Clean(path))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, nil
		}
		return nil, zerr.With(zerr.Wrap(err, domain.ErrLockfileRead.Error()), "path", path)
	}

	var doc lockfileDoc
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, zerr.With(zerr.Wrap(err, domain.ErrLockfileParse.Error()), "path", path)
	}

	return fromDoc(doc), nil
}

// Write persists the lockfile to the given path.
func (s *Store) Write(path string, lockfile *domain.Lockfile) error {
	data, err := json.MarshalIndent(toDoc(lockfile), "", "  ")
	if err != nil {
		return zerr.Wrap(err, domain.ErrLockfileWrite.Error())
	}
	data = append(data, '\n')

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, domain.DirPerm); err != nil {
		return zerr.With(zerr.Wrap(err, domain.ErrLockfileWrite.Error()), "path", path)
	}

	//nolint:gosec // Path is cleaned and provided by trusted caller
	if err := os.WriteFile(filepath.Clean(path), data, domain.FilePerm); err != nil {
		return zerr.With(zerr.Wrap(err, domain.ErrLockfileWrite.Error()), "path", path)
	}

	return nil
}

func toDoc(lockfile *domain.Lockfile) lockfileDoc {
	doc := lockfileDoc{
		Version: lockfile.Version,
		Manifest: manifestDoc{
			Version: lockfile.Manifest.Version,
			Install: make(map[string]descriptorDoc, len(lockfile.Manifest.Install)),
			Systems: lockfile.Manifest.Systems,
		},
		Packages: lockfile.Packages,
	}
	if len(lockfile.Manifest.Builds) > 0 {
		doc.Manifest.Build = make(map[string]buildDoc, len(lockfile.Manifest.Builds))
		for name, build := range lockfile.Manifest.Builds {
			doc.Manifest.Build[name] = buildDoc{RuntimePackages: build.RuntimePackages}
		}
	}
	for id, desc := range lockfile.Manifest.Install {
		doc.Manifest.Install[id] = descriptorDoc{
			Name:     desc.Name,
			PkgPath:  desc.PkgPath,
			Version:  desc.Version,
			Range:    desc.Range,
			Group:    desc.Group,
			Systems:  desc.Systems,
			Priority: desc.Priority,
			Optional: desc.Optional,
		}
	}
	return doc
}

func fromDoc(doc lockfileDoc) *domain.Lockfile {
	lockfile := &domain.Lockfile{
		Version: doc.Version,
		Manifest: domain.Manifest{
			Version: doc.Manifest.Version,
			Install: make(map[string]domain.Descriptor, len(doc.Manifest.Install)),
			Systems: doc.Manifest.Systems,
		},
		Packages: doc.Packages,
	}
	if len(doc.Manifest.Build) > 0 {
		lockfile.Manifest.Builds = make(map[string]domain.BuildSpec, len(doc.Manifest.Build))
		for name, build := range doc.Manifest.Build {
			lockfile.Manifest.Builds[name] = domain.BuildSpec{RuntimePackages: build.RuntimePackages}
		}
	}
	for id, desc := range doc.Manifest.Install {
		lockfile.Manifest.Install[id] = domain.Descriptor{
			Name:     desc.Name,
			PkgPath:  desc.PkgPath,
			Version:  desc.Version,
			Range:    desc.Range,
			Group:    desc.Group,
			Systems:  desc.Systems,
			Priority: desc.Priority,
			Optional: desc.Optional,
		}
	}
	return lockfile
}
