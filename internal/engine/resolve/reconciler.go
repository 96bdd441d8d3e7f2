// Package resolve implements lockfile creation: deciding which package
// groups can keep their previous lock and re-resolving the rest against the
// input registry.
package resolve

import (
	"slices"

	"go.trai.ch/lode/internal/core/domain"
)

// GroupIsLocked reports whether a group's previous lock can be reused as-is
// for the given system. A group stays locked only when every current member
// was locked before with an equivalent descriptor, the group's membership is
// unchanged, and no upgrade targets the group.
func GroupIsLocked(groupName string, group map[string]domain.Descriptor, old *domain.Lockfile, system string, upgrades domain.UpgradeSet) bool {
	if old == nil {
		return false
	}
	if upgrades.Wants(groupName) {
		return false
	}

	oldPackages, ok := old.Packages[system]
	if !ok {
		return false
	}

	for id, desc := range group {
		oldDesc, ok := old.Manifest.Install[id]
		if !ok {
			return false
		}
		if !desc.Unchanged(oldDesc, system) {
			return false
		}
		if desc.SkipsSystem(system) {
			// Not locked on this system before or now; nothing to compare.
			continue
		}

		locked, present := oldPackages[id]
		if !present {
			return false
		}
		// A nil entry is only a valid lock result for optional packages.
		if locked == nil && !desc.Optional {
			return false
		}
	}

	// A member removed from the group changes what the shared revision must
	// satisfy, so shrinkage also unlocks the group.
	if len(old.GroupInstallIDs(groupName)) != len(group) {
		return false
	}

	return true
}

// GroupInput returns the previously locked input a currently unlocked group
// should try first, or nil when no previous lock is reusable.
//
// An incumbent input (one that served a member under the same group name
// before) always wins. Otherwise the first member, in install-ID order,
// whose request is unchanged but whose group assignment moved donates the
// input of its previous lock.
func GroupInput(groupName string, group map[string]domain.Descriptor, old *domain.Lockfile, system string) *domain.LockedInput {
	if old == nil {
		return nil
	}
	oldPackages, ok := old.Packages[system]
	if !ok {
		return nil
	}

	ids := make([]string, 0, len(group))
	for id := range group {
		ids = append(ids, id)
	}
	slices.Sort(ids)

	var movedInput *domain.LockedInput
	for _, id := range ids {
		oldDesc, ok := old.Manifest.Install[id]
		if !ok {
			continue
		}
		locked, ok := oldPackages[id]
		if !ok || locked == nil {
			continue
		}
		desc := group[id]
		if !desc.SameRequest(oldDesc) {
			continue
		}

		if oldDesc.GroupName() == groupName {
			input := locked.Input
			return &input
		}
		if movedInput == nil {
			input := locked.Input
			movedInput = &input
		}
	}

	return movedInput
}
