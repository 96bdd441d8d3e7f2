package resolve

import (
	"context"
	"fmt"
	"slices"
	"strings"
	"sync"

	"go.trai.ch/lode/internal/core/domain"
	"go.trai.ch/lode/internal/core/ports"
	"go.trai.ch/zerr"
	"golang.org/x/sync/errgroup"
)

// groupParallelism bounds how many groups resolve concurrently per system.
const groupParallelism = 4

// Builder creates lockfiles from manifests.
type Builder struct {
	resolver ports.CandidateResolver
	logger   ports.Logger
}

// NewBuilder creates a new lockfile Builder.
func NewBuilder(resolver ports.CandidateResolver, logger ports.Logger) *Builder {
	return &Builder{
		resolver: resolver,
		logger:   logger,
	}
}

// CreateLockfile locks the manifest for all its target systems, reusing the
// old lockfile's groups where their descriptors are unchanged and no upgrade
// targets them.
func (b *Builder) CreateLockfile(ctx context.Context, manifest *domain.Manifest, old *domain.Lockfile, upgrades domain.UpgradeSet) (*domain.Lockfile, error) {
	if err := manifest.Validate(); err != nil {
		return nil, err
	}

	lockfile := &domain.Lockfile{
		Version:  domain.LockfileVersion,
		Manifest: *manifest,
		Packages: make(map[string]map[string]*domain.LockedPackage),
	}

	for _, system := range manifest.TargetSystems() {
		packages, err := b.lockSystem(ctx, manifest, old, system, upgrades)
		if err != nil {
			return nil, zerr.With(err, "system", system)
		}
		lockfile.Packages[system] = packages
	}

	return lockfile, nil
}

// lockSystem produces the install-ID -> locked-package map for one system.
// Groups whose previous lock is still valid are copied; the rest resolve
// concurrently against the input registry.
func (b *Builder) lockSystem(ctx context.Context, manifest *domain.Manifest, old *domain.Lockfile, system string, upgrades domain.UpgradeSet) (map[string]*domain.LockedPackage, error) {
	groups := manifest.GroupedDescriptors()

	groupNames := make([]string, 0, len(groups))
	for name := range groups {
		groupNames = append(groupNames, name)
	}
	slices.Sort(groupNames)

	packages := make(map[string]*domain.LockedPackage)
	var unlocked []string

	for _, name := range groupNames {
		group := groups[name]
		if GroupIsLocked(name, group, old, system, upgrades) {
			copyLockedGroup(packages, group, old, system)
			continue
		}
		unlocked = append(unlocked, name)
	}

	var mu sync.Mutex
	eg, egCtx := errgroup.WithContext(ctx)
	eg.SetLimit(groupParallelism)

	for _, name := range unlocked {
		group := members(groups[name], system)
		if len(group) == 0 {
			continue
		}
		pinned := GroupInput(name, groups[name], old, system)

		eg.Go(func() error {
			resolved, err := b.resolveGroup(egCtx, name, group, system, pinned)
			if err != nil {
				return err
			}
			mu.Lock()
			for id, pkg := range resolved {
				packages[id] = pkg
			}
			mu.Unlock()
			return nil
		})
	}

	if err := eg.Wait(); err != nil {
		return nil, err
	}

	return packages, nil
}

// copyLockedGroup carries a still-valid group over from the old lockfile.
// Priorities are refreshed from the current manifest because they do not
// participate in resolution.
func copyLockedGroup(packages map[string]*domain.LockedPackage, group map[string]domain.Descriptor, old *domain.Lockfile, system string) {
	for id, desc := range group {
		if desc.SkipsSystem(system) {
			continue
		}
		locked := old.Packages[system][id]
		if locked == nil {
			packages[id] = nil
			continue
		}
		refreshed := *locked
		refreshed.Priority = desc.Priority
		packages[id] = &refreshed
	}
}

// members filters a group down to the descriptors active on a system.
func members(group map[string]domain.Descriptor, system string) map[string]domain.Descriptor {
	active := make(map[string]domain.Descriptor, len(group))
	for id, desc := range group {
		if !desc.SkipsSystem(system) {
			active[id] = desc
		}
	}
	return active
}

// resolutionFailure records why one input could not serve a group.
type resolutionFailure struct {
	input   string
	missing []string
	err     error
}

func (f resolutionFailure) String() string {
	if f.err != nil {
		return fmt.Sprintf("%s: %v", f.input, f.err)
	}
	return fmt.Sprintf("%s: missing %s", f.input, strings.Join(f.missing, ", "))
}

// resolveGroup finds the first input that satisfies every non-optional
// member of the group. The previously pinned input, when given, is tried
// first; landing on a different input is reported as an implicit upgrade.
func (b *Builder) resolveGroup(ctx context.Context, groupName string, group map[string]domain.Descriptor, system string, pinned *domain.LockedInput) (map[string]*domain.LockedPackage, error) {
	inputs := b.resolver.Inputs()
	if len(inputs) == 0 {
		return nil, domain.ErrNoInputs
	}
	inputs = frontloadPinned(inputs, pinned)

	var failures []resolutionFailure
	for _, input := range inputs {
		resolved, err := b.resolver.Resolve(ctx, input, system, group)
		if err != nil {
			failures = append(failures, resolutionFailure{input: input.Name, err: err})
			continue
		}

		missing := missingRequired(group, resolved)
		if len(missing) > 0 {
			failures = append(failures, resolutionFailure{input: input.Name, missing: missing})
			continue
		}

		if pinned != nil && !input.Locked().Equal(*pinned) {
			b.logger.Warn(fmt.Sprintf(
				"group %q no longer resolves against its locked input; upgrading to %q",
				groupName, input.Name,
			))
		}

		// Every member gets an entry; unresolved optional members get nil.
		packages := make(map[string]*domain.LockedPackage, len(group))
		for id := range group {
			packages[id] = resolved[id]
		}
		return packages, nil
	}

	attempts := make([]string, 0, len(failures))
	for _, failure := range failures {
		attempts = append(attempts, failure.String())
	}
	err := zerr.With(domain.ErrResolutionFailure, "group", groupName)
	return nil, zerr.With(err, "attempts", strings.Join(attempts, "; "))
}

// frontloadPinned moves the input matching the pinned revision to the front
// of the resolution order.
func frontloadPinned(inputs []domain.InputSource, pinned *domain.LockedInput) []domain.InputSource {
	if pinned == nil {
		return inputs
	}
	ordered := make([]domain.InputSource, 0, len(inputs))
	var rest []domain.InputSource
	for _, input := range inputs {
		if input.Locked().Equal(*pinned) {
			ordered = append(ordered, input)
			continue
		}
		rest = append(rest, input)
	}
	return append(ordered, rest...)
}

// missingRequired returns the sorted non-optional install IDs absent from a
// resolution result.
func missingRequired(group map[string]domain.Descriptor, resolved map[string]*domain.LockedPackage) []string {
	var missing []string
	for id, desc := range group {
		if desc.Optional {
			continue
		}
		if pkg, ok := resolved[id]; !ok || pkg == nil {
			missing = append(missing, id)
		}
	}
	slices.Sort(missing)
	return missing
}
