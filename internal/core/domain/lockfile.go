package domain

import "go.trai.ch/zerr"

// LockfileVersion is the current lockfile format version.
const LockfileVersion = 1

// Lockfile is the reproducible snapshot of a resolved manifest: the manifest
// itself plus, per system, the locked package for every install ID.
type Lockfile struct {
	// Version is the lockfile format version.
	Version int

	// Manifest is the manifest this lockfile was created from.
	Manifest Manifest

	// Packages maps system -> install ID -> locked package. A nil entry
	// records that the install ID was requested but did not resolve on that
	// system (optional packages only).
	Packages map[string]map[string]*LockedPackage
}

// SystemPackages returns the locked packages for a system, or an error if
// the lockfile has no entries for it.
func (l *Lockfile) SystemPackages(system string) (map[string]*LockedPackage, error) {
	pkgs, ok := l.Packages[system]
	if !ok {
		return nil, zerr.With(ErrUnsupportedSystem, "system", system)
	}
	return pkgs, nil
}

// Package returns the locked package for an install ID on a system.
// The second return is false when no entry exists or the entry is nil.
func (l *Lockfile) Package(system, installID string) (*LockedPackage, bool) {
	pkgs, ok := l.Packages[system]
	if !ok {
		return nil, false
	}
	pkg, ok := pkgs[installID]
	if !ok || pkg == nil {
		return nil, false
	}
	return pkg, true
}

// GroupInstallIDs returns the install IDs of the embedded manifest that
// belong to the named group, unsorted.
func (l *Lockfile) GroupInstallIDs(group string) []string {
	var ids []string
	for id, desc := range l.Manifest.Install {
		if desc.GroupName() == group {
			ids = append(ids, id)
		}
	}
	return ids
}
