package buildenv

import (
	"context"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"go.trai.ch/lode/internal/core/domain"
	"go.trai.ch/lode/internal/core/ports"
	"go.trai.ch/zerr"
	"golang.org/x/sync/errgroup"
)

// RequisitesFilename is the closure manifest written into every output root.
const RequisitesFilename = "requisites.txt"

// variantParallelism bounds how many output variants materialize concurrently.
const variantParallelism = 4

// MergeRequest describes one output variant's merge run.
type MergeRequest struct {
	// Spec names the variant and lists the package references to merge.
	Spec OutputSpec

	// Mode is the collision policy for equal-precedence claims.
	Mode CollisionMode

	// Dest is the directory the merged tree is materialized into. It must
	// not exist yet.
	Dest string
}

// MergeResult is the committed outcome of one merge run.
type MergeResult struct {
	// Root is the materialized tree's root directory.
	Root string

	// Closure is the sorted set of store paths the tree depends on,
	// including the root itself.
	Closure []string
}

// Merger composes lockfiles into merged environment trees.
type Merger struct {
	store  ports.Store
	logger ports.Logger
}

// NewMerger creates a new Merger reading from the given store.
func NewMerger(store ports.Store, logger ports.Logger) *Merger {
	return &Merger{
		store:  store,
		logger: logger,
	}
}

// Build materializes every output variant of a lockfile for one system under
// outDir, one subdirectory per variant. Variants share no state and build
// concurrently; the first failure aborts the rest.
func (m *Merger) Build(ctx context.Context, lockfile *domain.Lockfile, system, outDir string, mode CollisionMode) ([]MergeResult, error) {
	specs, err := OutputSpecs(lockfile, system)
	if err != nil {
		return nil, err
	}

	results := make([]MergeResult, len(specs))
	eg, egCtx := errgroup.WithContext(ctx)
	eg.SetLimit(variantParallelism)

	for i, spec := range specs {
		eg.Go(func() error {
			result, err := m.Merge(egCtx, MergeRequest{
				Spec: spec,
				Mode: mode,
				Dest: filepath.Join(outDir, spec.Name),
			})
			if err != nil {
				return zerr.With(err, "variant", spec.Name)
			}
			results[i] = *result
			return nil
		})
	}

	if err := eg.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}

// Merge runs one output variant: claim every package's files in precedence
// order, pull in propagated dependents when the variant is recursive, then
// materialize the tree and its closure manifest.
func (m *Merger) Merge(ctx context.Context, req MergeRequest) (*MergeResult, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	mctx := newMergeContext(m.store, m.logger, req.Mode)

	refs := slices.Clone(req.Spec.Refs)
	slices.SortFunc(refs, func(a, b PackageRef) int {
		if a.Priority.Less(b.Priority) {
			return -1
		}
		if b.Priority.Less(a.Priority) {
			return 1
		}
		return 0
	})

	for _, ref := range refs {
		if err := mctx.addPackage(ref); err != nil {
			return nil, err
		}
	}

	if req.Spec.Recursive {
		if err := m.propagate(mctx, refs); err != nil {
			return nil, err
		}
	}

	if err := m.materialize(mctx, req.Dest); err != nil {
		return nil, err
	}

	closure, err := m.closure(mctx, req.Dest)
	if err != nil {
		return nil, err
	}

	reqPath := filepath.Join(req.Dest, RequisitesFilename)
	content := strings.Join(closure, "\n") + "\n"
	if err := os.WriteFile(reqPath, []byte(content), domain.FilePerm); err != nil {
		return nil, zerr.With(zerr.Wrap(err, "failed to write requisites"), "path", reqPath)
	}

	return &MergeResult{Root: req.Dest, Closure: closure}, nil
}

// propagate merges the transitive propagation lists of every processed
// package, breadth-first. Each wave ranks strictly below all explicit
// packages and all earlier waves, so nothing pulled in transitively can
// displace a requested file.
func (m *Merger) propagate(mctx *mergeContext, refs []PackageRef) error {
	frontier := make([]string, 0, len(refs))
	for _, ref := range refs {
		frontier = append(frontier, ref.StorePath)
	}

	for wave := 1; len(frontier) > 0; wave++ {
		next := make(map[string]struct{})
		for _, pkg := range frontier {
			targets, err := m.propagationTargets(pkg)
			if err != nil {
				return err
			}
			for _, target := range targets {
				if _, ok := mctx.done[target]; ok {
					continue
				}
				if isStubPath(target) {
					continue
				}
				next[target] = struct{}{}
			}
		}

		frontier = frontier[:0]
		for target := range next {
			frontier = append(frontier, target)
		}
		slices.Sort(frontier)

		for rank, target := range frontier {
			ref := PackageRef{
				Name:      storePathName(target),
				StorePath: target,
				Priority:  domain.PropagatedPriority(wave, rank, target),
			}
			if err := mctx.addPackage(ref); err != nil {
				return err
			}
		}
	}

	return nil
}

// propagationTargets reads a package's declared dependents: the run-time
// list, and the build-time list promoted to run-time visibility.
func (m *Merger) propagationTargets(pkg string) ([]string, error) {
	var targets []string
	for _, name := range []string{"propagated-user-env-packages", "propagated-build-inputs"} {
		listPath := pkg + "/nix-support/" + name
		if !m.store.PathExists(listPath) {
			continue
		}
		data, err := m.store.ReadFile(listPath)
		if err != nil {
			return nil, err
		}
		targets = append(targets, strings.Fields(string(data))...)
	}
	return targets, nil
}

// materialize writes the claimed tree into a fresh destination root:
// directories for markers, symlinks for everything else. Sorted traversal
// guarantees parents exist before their children.
func (m *Merger) materialize(mctx *mergeContext, dest string) error {
	if _, err := os.Lstat(dest); err == nil {
		return zerr.With(zerr.New("destination already exists"), "path", dest)
	}

	for _, rel := range mctx.paths() {
		target := filepath.Join(dest, filepath.FromSlash(rel))
		claimed := mctx.entries[rel]

		if claimed.target == "" {
			if err := os.MkdirAll(target, domain.DirPerm); err != nil {
				return zerr.With(zerr.Wrap(err, "failed to create directory"), "path", target)
			}
			continue
		}

		if err := os.Symlink(claimed.target, target); err != nil {
			return zerr.With(zerr.Wrap(err, "failed to create symlink"), "path", target)
		}
	}

	return nil
}

// closure unions the store closure of every merged package with the output
// root itself, deduplicated and sorted.
func (m *Merger) closure(mctx *mergeContext, dest string) ([]string, error) {
	seen := map[string]struct{}{dest: {}}
	pkgs := make([]string, 0, len(mctx.done))
	for pkg := range mctx.done {
		pkgs = append(pkgs, pkg)
	}
	slices.Sort(pkgs)

	for _, pkg := range pkgs {
		paths, err := m.store.ClosureOf(pkg)
		if err != nil {
			return nil, err
		}
		for _, p := range paths {
			seen[p] = struct{}{}
		}
	}

	closure := make([]string, 0, len(seen))
	for p := range seen {
		closure = append(closure, p)
	}
	slices.Sort(closure)
	return closure, nil
}
