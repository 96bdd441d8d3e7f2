package domain

import (
	"slices"

	"go.trai.ch/zerr"
)

// DefaultSystems are the systems a manifest targets when it does not list any.
var DefaultSystems = []string{
	"x86_64-linux",
	"aarch64-linux",
	"x86_64-darwin",
	"aarch64-darwin",
}

// BuildSpec describes a named build environment derived from the manifest.
type BuildSpec struct {
	// RuntimePackages restricts the toplevel-group packages included in the
	// build's environment. Empty means all of them.
	RuntimePackages []string
}

// Manifest is the declarative description of an environment: the packages to
// install, the systems to lock for, and the named builds to compose.
type Manifest struct {
	// Version is the manifest schema version.
	Version int

	// Install maps install IDs to their descriptors.
	Install map[string]Descriptor

	// Builds maps build names to their specs.
	Builds map[string]BuildSpec

	// Systems lists the systems to lock. Empty means DefaultSystems.
	Systems []string
}

// TargetSystems returns the systems this manifest locks for.
func (m *Manifest) TargetSystems() []string {
	if len(m.Systems) == 0 {
		return slices.Clone(DefaultSystems)
	}
	return slices.Clone(m.Systems)
}

// GroupedDescriptors partitions the install table by group name. Descriptors
// without an explicit group land in the toplevel group.
func (m *Manifest) GroupedDescriptors() map[string]map[string]Descriptor {
	groups := make(map[string]map[string]Descriptor)
	for id, desc := range m.Install {
		name := desc.GroupName()
		if groups[name] == nil {
			groups[name] = make(map[string]Descriptor)
		}
		groups[name][id] = desc
	}
	return groups
}

// InstallIDs returns the manifest's install IDs in sorted order.
func (m *Manifest) InstallIDs() []string {
	ids := make([]string, 0, len(m.Install))
	for id := range m.Install {
		ids = append(ids, id)
	}
	slices.Sort(ids)
	return ids
}

// Validate checks every descriptor and build spec. Build runtime-packages
// must name install IDs that exist and belong to the toplevel group.
func (m *Manifest) Validate() error {
	for id, desc := range m.Install {
		if err := desc.Validate(); err != nil {
			return zerr.With(err, "install_id", id)
		}
	}

	for name, build := range m.Builds {
		for _, id := range build.RuntimePackages {
			desc, ok := m.Install[id]
			if !ok || desc.GroupName() != ToplevelGroup {
				err := zerr.With(ErrUnknownBuildPackage, "build", name)
				return zerr.With(err, "install_id", id)
			}
		}
	}

	return nil
}

// Equal reports whether two manifests are semantically identical.
func (m *Manifest) Equal(other *Manifest) bool {
	if other == nil {
		return false
	}
	if m.Version != other.Version || len(m.Install) != len(other.Install) {
		return false
	}
	if !slices.Equal(m.TargetSystems(), other.TargetSystems()) {
		return false
	}
	for id, desc := range m.Install {
		old, ok := other.Install[id]
		if !ok {
			return false
		}
		if !desc.SameRequest(old) || desc.GroupName() != old.GroupName() ||
			desc.Priority != old.Priority || desc.Optional != old.Optional ||
			!slices.Equal(desc.Systems, old.Systems) {
			return false
		}
	}
	if len(m.Builds) != len(other.Builds) {
		return false
	}
	for name, build := range m.Builds {
		old, ok := other.Builds[name]
		if !ok || !slices.Equal(build.RuntimePackages, old.RuntimePackages) {
			return false
		}
	}
	return true
}
