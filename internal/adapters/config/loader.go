// Package config provides the manifest loader for lode.
package config

import (
	"os"

	"go.trai.ch/lode/internal/core/domain"
	"go.trai.ch/zerr"
	"gopkg.in/yaml.v3"
)

// Loader implements ports.ManifestLoader using a YAML file.
type Loader struct{}

// NewLoader creates a new manifest Loader.
func NewLoader() *Loader {
	return &Loader{}
}

// Load reads the manifest at the given path and returns it validated.
func (l *Loader) Load(path string) (*domain.Manifest, error) {
	data, err := os.ReadFile(path) //nolint:gosec // path is provided by user
	if err != nil {
		return nil, zerr.With(zerr.Wrap(err, domain.ErrManifestRead.Error()), "path", path)
	}

	var file manifestFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, zerr.With(zerr.Wrap(err, domain.ErrManifestParse.Error()), "path", path)
	}

	manifest, err := toManifest(file)
	if err != nil {
		return nil, zerr.With(err, "path", path)
	}

	if err := manifest.Validate(); err != nil {
		return nil, zerr.With(err, "path", path)
	}

	return manifest, nil
}

// toManifest converts the YAML DTO into the domain manifest, parsing version
// specs and applying defaults.
func toManifest(file manifestFile) (*domain.Manifest, error) {
	manifest := &domain.Manifest{
		Version: file.Version,
		Install: make(map[string]domain.Descriptor, len(file.Install)),
		Systems: file.Options.Systems,
	}

	for id, dto := range file.Install {
		desc := domain.Descriptor{
			Name:     dto.Name,
			PkgPath:  dto.PkgPath,
			Group:    dto.Group,
			Systems:  dto.Systems,
			Priority: dto.Priority,
			Optional: dto.Optional,
		}
		if desc.Name == "" {
			desc.Name = id
		}
		if desc.Priority == 0 {
			desc.Priority = domain.DefaultPriority
		}
		if err := desc.SetVersionSpec(dto.Version); err != nil {
			return nil, zerr.With(err, "install_id", id)
		}
		manifest.Install[id] = desc
	}

	if len(file.Build) > 0 {
		manifest.Builds = make(map[string]domain.BuildSpec, len(file.Build))
		for name, dto := range file.Build {
			manifest.Builds[name] = domain.BuildSpec{
				RuntimePackages: dto.RuntimePackages,
			}
		}
	}

	return manifest, nil
}
