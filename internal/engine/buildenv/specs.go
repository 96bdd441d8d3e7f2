package buildenv

import (
	"slices"

	"go.trai.ch/lode/internal/core/domain"
)

// Variant names of the trees every build produces. Named builds additionally
// produce one tree each, prefixed with BuildVariantPrefix.
const (
	RuntimeVariant     = "runtime"
	DevelopVariant     = "develop"
	BuildVariantPrefix = "build-"
)

// PackageRef is one concrete store path feeding a merge, with the precedence
// its files carry.
type PackageRef struct {
	// Name is the human-readable package name used in conflict messages.
	Name string

	// StorePath is the output path to merge.
	StorePath string

	// Priority is the precedence of the path's files.
	Priority domain.MergePriority
}

// OutputSpec describes one output variant of a lockfile: the store paths to
// merge and whether propagated dependents are pulled in.
type OutputSpec struct {
	Name      string
	Refs      []PackageRef
	Recursive bool
}

// OutputSpecs derives every output variant of a lockfile for one system: the
// runtime tree, the develop tree, and one tree per named build. Packages are
// ordered by install ID so reference lists, and therefore merges, are
// deterministic.
func OutputSpecs(lockfile *domain.Lockfile, system string) ([]OutputSpec, error) {
	packages, err := lockfile.SystemPackages(system)
	if err != nil {
		return nil, err
	}

	ids := make([]string, 0, len(packages))
	for id := range packages {
		ids = append(ids, id)
	}
	slices.Sort(ids)

	var all []PackageRef
	for _, id := range ids {
		all = append(all, packageRefs(packages[id])...)
	}

	specs := []OutputSpec{
		{Name: RuntimeVariant, Refs: all},
		{Name: DevelopVariant, Refs: all, Recursive: true},
	}

	buildNames := make([]string, 0, len(lockfile.Manifest.Builds))
	for name := range lockfile.Manifest.Builds {
		buildNames = append(buildNames, name)
	}
	slices.Sort(buildNames)

	for _, name := range buildNames {
		refs := buildRefs(&lockfile.Manifest, packages, ids, lockfile.Manifest.Builds[name])
		specs = append(specs, OutputSpec{
			Name:      BuildVariantPrefix + name,
			Refs:      refs,
			Recursive: true,
		})
	}

	return specs, nil
}

// packageRefs expands a locked package into one reference per output store
// path. Outputs listed in outputs-to-install come first; the remaining
// outputs follow at subsequent output indexes so no two outputs of one
// package ever tie.
func packageRefs(pkg *domain.LockedPackage) []PackageRef {
	if pkg == nil {
		return nil
	}

	ordered := make([]domain.Output, 0, len(pkg.Info.Outputs))
	for _, name := range pkg.Info.OutputsToInstall {
		if path, ok := pkg.Info.OutputPath(name); ok {
			ordered = append(ordered, domain.Output{Name: name, StorePath: path})
		}
	}
	for _, out := range pkg.Info.Outputs {
		if !slices.Contains(pkg.Info.OutputsToInstall, out.Name) {
			ordered = append(ordered, out)
		}
	}

	refs := make([]PackageRef, 0, len(ordered))
	for i, out := range ordered {
		refs = append(refs, PackageRef{
			Name:      pkg.Info.Name,
			StorePath: out.StorePath,
			Priority:  domain.ExplicitPriority(pkg.Priority, i, out.StorePath),
		})
	}
	return refs
}

// buildRefs selects the toplevel-group packages for a named build, filtered
// by its runtime-packages list when present.
func buildRefs(manifest *domain.Manifest, packages map[string]*domain.LockedPackage, ids []string, build domain.BuildSpec) []PackageRef {
	var refs []PackageRef
	for _, id := range ids {
		desc, ok := manifest.Install[id]
		if !ok || desc.GroupName() != domain.ToplevelGroup {
			continue
		}
		if len(build.RuntimePackages) > 0 && !slices.Contains(build.RuntimePackages, id) {
			continue
		}
		refs = append(refs, packageRefs(packages[id])...)
	}
	return refs
}
