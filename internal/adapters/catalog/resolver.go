// Package catalog implements the CandidateResolver port over file-backed
// package indexes.
package catalog

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"sync"

	"github.com/Masterminds/semver/v3"
	"go.trai.ch/lode/internal/core/domain"
	"go.trai.ch/zerr"
)

// Resolver implements ports.CandidateResolver using a catalog directory
// holding a registry file and one package index per input.
type Resolver struct {
	dir    string
	inputs []domain.InputSource
	index  map[string]string // input name -> index file

	mu    sync.RWMutex
	cache map[string][]indexPackage
}

// NewResolver creates a Resolver for the catalog at the given directory.
// The registry file is read eagerly so input ordering is fixed up front.
func NewResolver(dir string) (*Resolver, error) {
	cleanDir := filepath.Clean(dir)

	//nolint:gosec // Path is cleaned and provided by trusted caller
	data, err := os.ReadFile(filepath.Join(cleanDir, "registry.json"))
	if err != nil {
		return nil, zerr.With(zerr.Wrap(err, domain.ErrCatalogRead.Error()), "dir", cleanDir)
	}

	var registry registryFile
	if err := json.Unmarshal(data, &registry); err != nil {
		return nil, zerr.With(zerr.Wrap(err, domain.ErrCatalogParse.Error()), "dir", cleanDir)
	}

	r := &Resolver{
		dir:   cleanDir,
		index: make(map[string]string, len(registry.Inputs)),
		cache: make(map[string][]indexPackage),
	}
	for _, entry := range registry.Inputs {
		r.inputs = append(r.inputs, domain.InputSource{
			Name:  entry.Name,
			URL:   entry.URL,
			Attrs: entry.Attrs,
		})
		indexName := entry.Index
		if indexName == "" {
			indexName = entry.Name + ".json"
		}
		r.index[entry.Name] = indexName
	}

	return r, nil
}

// Inputs returns the registry's inputs in resolution order.
func (r *Resolver) Inputs() []domain.InputSource {
	return r.inputs
}

// Resolve looks up every descriptor in a single input for one system.
// Install IDs with no matching candidate are absent from the result.
func (r *Resolver) Resolve(ctx context.Context, input domain.InputSource, system string, descriptors map[string]domain.Descriptor) (map[string]*domain.LockedPackage, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	packages, err := r.loadIndex(input.Name)
	if err != nil {
		return nil, err
	}

	locked := input.Locked()
	resolved := make(map[string]*domain.LockedPackage)

	for id, desc := range descriptors {
		candidate, found := bestCandidate(packages, desc, system)
		if !found {
			continue
		}
		entry := candidate.Systems[system]
		resolved[id] = &domain.LockedPackage{
			Input:    locked,
			AttrPath: candidate.AttrPath,
			Priority: desc.Priority,
			Info: domain.PackageInfo{
				Name:             candidate.Name,
				Pname:            candidate.Pname,
				Version:          candidate.Version,
				Description:      candidate.Description,
				License:          candidate.License,
				Broken:           candidate.Broken,
				Unfree:           candidate.Unfree,
				Outputs:          entry.Outputs,
				OutputsToInstall: entry.OutputsToInstall,
			},
		}
	}

	return resolved, nil
}

// loadIndex reads and caches the package index of the named input.
func (r *Resolver) loadIndex(inputName string) ([]indexPackage, error) {
	r.mu.RLock()
	packages, ok := r.cache[inputName]
	r.mu.RUnlock()
	if ok {
		return packages, nil
	}

	indexName, ok := r.index[inputName]
	if !ok {
		return nil, zerr.With(domain.ErrCatalogRead, "input", inputName)
	}

	//nolint:gosec // Path is derived from the cleaned catalog directory
	data, err := os.ReadFile(filepath.Join(r.dir, indexName))
	if err != nil {
		return nil, zerr.With(zerr.Wrap(err, domain.ErrCatalogRead.Error()), "input", inputName)
	}

	var file indexFile
	if err := json.Unmarshal(data, &file); err != nil {
		return nil, zerr.With(zerr.Wrap(err, domain.ErrCatalogParse.Error()), "input", inputName)
	}

	r.mu.Lock()
	r.cache[inputName] = file.Packages
	r.mu.Unlock()

	return file.Packages, nil
}

// bestCandidate selects the highest matching version for a descriptor on a
// system. Candidates whose versions do not parse as semver rank below all
// parseable ones and among themselves by string comparison.
func bestCandidate(packages []indexPackage, desc domain.Descriptor, system string) (indexPackage, bool) {
	var (
		best    indexPackage
		bestVer *semver.Version
		found   bool
	)

	for _, pkg := range packages {
		if !matchesDescriptor(pkg, desc) {
			continue
		}
		if _, ok := pkg.Systems[system]; !ok {
			continue
		}
		if !desc.MatchesVersion(pkg.Version) {
			continue
		}

		version, err := semver.NewVersion(pkg.Version)
		switch {
		case !found:
			best, bestVer, found = pkg, nil, true
			if err == nil {
				bestVer = version
			}
		case err == nil && (bestVer == nil || version.GreaterThan(bestVer)):
			best, bestVer = pkg, version
		case err != nil && bestVer == nil && pkg.Version > best.Version:
			best = pkg
		}
	}

	return best, found
}

func matchesDescriptor(pkg indexPackage, desc domain.Descriptor) bool {
	if desc.PkgPath != "" {
		return pkg.AttrPath == desc.PkgPath
	}
	return pkg.Name == desc.Name || pkg.AttrPath == desc.Name
}
