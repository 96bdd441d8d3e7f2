// Package buildenv materializes lockfiles into merged symlink-tree
// environments: one tree per output variant, each with its closure manifest.
package buildenv

import (
	"bytes"
	"fmt"
	"path"
	"slices"
	"strings"

	"go.trai.ch/lode/internal/core/domain"
	"go.trai.ch/lode/internal/core/ports"
	"go.trai.ch/zerr"
)

// CollisionMode selects how a merge treats two packages providing different
// files at the same path with equal precedence.
type CollisionMode int

const (
	// CollisionError fails the merge. The default.
	CollisionError CollisionMode = iota

	// CollisionIgnore keeps the first-processed package's file and warns.
	CollisionIgnore

	// CollisionCheckContent keeps either file when both are byte-identical
	// with matching executable bits, and fails otherwise.
	CollisionCheckContent
)

// ParseCollisionMode maps a user-facing mode name to a CollisionMode.
func ParseCollisionMode(name string) (CollisionMode, error) {
	switch name {
	case "error", "":
		return CollisionError, nil
	case "ignore":
		return CollisionIgnore, nil
	case "check-content":
		return CollisionCheckContent, nil
	default:
		return CollisionError, zerr.With(zerr.New("unknown collision mode"), "mode", name)
	}
}

// entry is one claimed path of a merge: the winning source path, or a
// directory marker when target is empty.
type entry struct {
	target   string
	priority domain.MergePriority
	pkg      string
}

// mergeContext accumulates the claims of one output variant's merge run. It
// is created per variant and never shared, so variants can merge in parallel.
type mergeContext struct {
	store  ports.Store
	logger ports.Logger
	mode   CollisionMode

	entries map[string]entry
	done    map[string]struct{}
}

func newMergeContext(store ports.Store, logger ports.Logger, mode CollisionMode) *mergeContext {
	return &mergeContext{
		store:   store,
		logger:  logger,
		mode:    mode,
		entries: map[string]entry{"": {}},
		done:    make(map[string]struct{}),
	}
}

// addPackage walks one package's tree and claims every path in it. Packages
// already merged into this context are skipped, keyed by store path.
func (m *mergeContext) addPackage(ref PackageRef) error {
	if _, ok := m.done[ref.StorePath]; ok {
		return nil
	}
	m.done[ref.StorePath] = struct{}{}

	if !m.store.PathExists(ref.StorePath) {
		return zerr.With(domain.ErrStorePathMissing, "path", ref.StorePath)
	}

	stat, err := m.store.Stat(ref.StorePath)
	if err != nil {
		return err
	}
	if !stat.IsDir {
		return zerr.With(domain.ErrNotDirectory, "path", ref.StorePath)
	}

	return m.mergeDir(ref, ref.StorePath, "")
}

// mergeDir claims the contents of one package directory under the relative
// path rel ("" for the package root).
func (m *mergeContext) mergeDir(ref PackageRef, dir, rel string) error {
	dirEntries, err := m.store.ReadDir(dir)
	if err != nil {
		return err
	}

	for _, dirEntry := range dirEntries {
		src := dir + "/" + dirEntry.Name
		relPath := path.Join(rel, dirEntry.Name)
		if skipPath(relPath) {
			continue
		}

		isDir, dangling := m.classify(dirEntry, src)
		if dangling {
			m.logger.Warn(fmt.Sprintf("dangling symlink %s in %s; linking as-is", relPath, ref.Name))
		}

		if isDir {
			if err := m.claimDir(ref, relPath); err != nil {
				return err
			}
			if err := m.mergeDir(ref, src, relPath); err != nil {
				return err
			}
			continue
		}

		if err := m.claimFile(ref, src, relPath); err != nil {
			return err
		}
	}

	return nil
}

// classify decides whether a directory entry is traversed as a directory.
// Symlinks are followed; a symlink whose target is gone is linked anyway,
// reported via the dangling flag.
func (m *mergeContext) classify(dirEntry ports.StoreEntry, src string) (isDir, dangling bool) {
	if dirEntry.IsDir {
		return true, false
	}
	if !dirEntry.IsSymlink {
		return false, false
	}
	stat, err := m.store.Stat(src)
	if err != nil {
		return false, true
	}
	return stat.IsDir, false
}

// claimDir records a directory marker at rel. A file already claimed there
// cannot be merged with a directory.
func (m *mergeContext) claimDir(ref PackageRef, rel string) error {
	existing, ok := m.entries[rel]
	if !ok {
		m.entries[rel] = entry{priority: ref.Priority, pkg: ref.StorePath}
		return nil
	}
	if existing.target != "" {
		err := zerr.With(domain.ErrNotDirectory, "path", "/"+rel)
		err = zerr.With(err, "file_from", storePathName(existing.pkg))
		return zerr.With(err, "directory_from", storePathName(ref.StorePath))
	}
	return nil
}

// claimFile records a file claim at rel pointing at src, applying override,
// dedupe and collision policy against any existing claim.
func (m *mergeContext) claimFile(ref PackageRef, src, rel string) error {
	existing, ok := m.entries[rel]
	if !ok {
		m.entries[rel] = entry{target: src, priority: ref.Priority, pkg: ref.StorePath}
		return nil
	}

	if existing.target == "" {
		err := zerr.With(domain.ErrNotDirectory, "path", "/"+rel)
		err = zerr.With(err, "file_from", storePathName(ref.StorePath))
		return zerr.With(err, "directory_from", storePathName(existing.pkg))
	}

	// Two claims resolving to the same real file are not a collision; keep
	// whichever side is a plain file rather than a symlink.
	if m.sameRealTarget(existing.target, src) {
		if m.preferTarget(src, existing.target) {
			m.entries[rel] = entry{target: src, priority: winner(ref.Priority, existing.priority), pkg: ref.StorePath}
		}
		return nil
	}

	if ref.Priority.Beats(existing.priority) {
		m.entries[rel] = entry{target: src, priority: ref.Priority, pkg: ref.StorePath}
		return nil
	}
	if existing.priority.Beats(ref.Priority) {
		return nil
	}

	return m.collide(existing, ref, src, rel)
}

// collide applies the collision policy to two equal-precedence claims on rel.
func (m *mergeContext) collide(existing entry, ref PackageRef, src, rel string) error {
	// Propagated packages are best-effort additions; their collisions keep
	// the first-processed file without comment.
	if ref.Priority.Tier > 0 {
		return nil
	}

	switch m.mode {
	case CollisionIgnore:
		m.logger.Warn(conflictMessage(existing, ref, rel) + "; keeping the former")
		return nil
	case CollisionCheckContent:
		identical, err := m.identicalContent(existing.target, src)
		if err != nil {
			return err
		}
		if identical {
			return nil
		}
	case CollisionError:
	}

	err := zerr.Wrap(domain.ErrMergeConflict, conflictMessage(existing, ref, rel))
	return zerr.With(err, "path", "/"+rel)
}

func conflictMessage(existing entry, ref PackageRef, rel string) string {
	msg := fmt.Sprintf("packages %s and %s conflict on /%s",
		storePathName(existing.pkg), storePathName(ref.StorePath), rel)
	if path.Base(existing.target) == path.Base(rel) {
		msg += fmt.Sprintf("; both provide the file %q", path.Base(rel))
	}
	return msg
}

// sameRealTarget reports whether two source paths resolve to one real file.
// Unresolvable paths (dangling symlinks) never dedupe.
func (m *mergeContext) sameRealTarget(a, b string) bool {
	realA, errA := m.store.RealPath(a)
	realB, errB := m.store.RealPath(b)
	return errA == nil && errB == nil && realA == realB
}

// preferTarget reports whether candidate should replace current when both
// resolve to the same real file: the plain file wins over the symlink.
func (m *mergeContext) preferTarget(candidate, current string) bool {
	currentReal, err := m.store.RealPath(current)
	if err != nil || currentReal == current {
		return false
	}
	candidateReal, err := m.store.RealPath(candidate)
	return err == nil && candidateReal == candidate
}

func winner(a, b domain.MergePriority) domain.MergePriority {
	if a.Beats(b) {
		return a
	}
	return b
}

// identicalContent reports whether two files carry the same bytes and the
// same executable bit.
func (m *mergeContext) identicalContent(a, b string) (bool, error) {
	statA, err := m.store.Stat(a)
	if err != nil {
		return false, err
	}
	statB, err := m.store.Stat(b)
	if err != nil {
		return false, err
	}
	if statA.Executable != statB.Executable || statA.Size != statB.Size {
		return false, nil
	}

	contentA, err := m.store.ReadFile(a)
	if err != nil {
		return false, err
	}
	contentB, err := m.store.ReadFile(b)
	if err != nil {
		return false, err
	}
	return bytes.Equal(contentA, contentB), nil
}

// paths returns every claimed path in sorted order.
func (m *mergeContext) paths() []string {
	paths := make([]string, 0, len(m.entries))
	for p := range m.entries {
		paths = append(paths, p)
	}
	slices.Sort(paths)
	return paths
}

// skipPath reports whether a relative path is merge noise: propagation
// metadata, documentation indices, non-package MIME data, and interpreter
// install logs.
func skipPath(rel string) bool {
	switch path.Base(rel) {
	case "propagated-build-inputs", "nix-support", "perllocal.pod", "log":
		return true
	case "dir":
		if path.Base(path.Dir(rel)) == "info" {
			return true
		}
	}

	if strings.HasPrefix(rel, "share/mime/") && rel != "share/mime/packages" &&
		!strings.HasPrefix(rel, "share/mime/packages/") {
		return true
	}

	return false
}
