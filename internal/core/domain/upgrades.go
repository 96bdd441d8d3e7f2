package domain

// UpgradeSet describes which package groups a lock operation is allowed to
// re-resolve even when their previous lock is still valid.
type UpgradeSet struct {
	all    bool
	groups map[string]struct{}
}

// UpgradeAll requests re-resolution of every group.
func UpgradeAll() UpgradeSet {
	return UpgradeSet{all: true}
}

// UpgradeGroups requests re-resolution of the named groups only.
// The toplevel sentinel name targets the default group.
func UpgradeGroups(names ...string) UpgradeSet {
	groups := make(map[string]struct{}, len(names))
	for _, name := range names {
		groups[name] = struct{}{}
	}
	return UpgradeSet{groups: groups}
}

// Wants reports whether the named group should be re-resolved.
func (u UpgradeSet) Wants(group string) bool {
	if u.all {
		return true
	}
	_, ok := u.groups[group]
	return ok
}

// Empty reports whether no upgrades were requested at all.
func (u UpgradeSet) Empty() bool {
	return !u.all && len(u.groups) == 0
}
