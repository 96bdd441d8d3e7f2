// Package app implements the application layer for lode.
package app

import (
	"context"
	"fmt"

	"go.trai.ch/lode/internal/core/domain"
	"go.trai.ch/lode/internal/core/ports"
	"go.trai.ch/lode/internal/engine/buildenv"
	"go.trai.ch/lode/internal/engine/resolve"
	"go.trai.ch/zerr"
)

// App represents the main application logic.
type App struct {
	manifests ports.ManifestLoader
	lockfiles ports.LockfileStore
	builder   *resolve.Builder
	merger    *buildenv.Merger
	logger    ports.Logger
	telemetry ports.Telemetry
}

// New creates a new App instance.
func New(
	manifests ports.ManifestLoader,
	lockfiles ports.LockfileStore,
	builder *resolve.Builder,
	merger *buildenv.Merger,
	logger ports.Logger,
	telemetry ports.Telemetry,
) *App {
	return &App{
		manifests: manifests,
		lockfiles: lockfiles,
		builder:   builder,
		merger:    merger,
		logger:    logger,
		telemetry: telemetry,
	}
}

// LockOptions configures a Lock run.
type LockOptions struct {
	// ManifestPath is the manifest to lock.
	ManifestPath string

	// LockfilePath is where the lockfile is read from and written to.
	LockfilePath string

	// Upgrades selects which groups to re-resolve even when still locked.
	Upgrades domain.UpgradeSet
}

// Lock resolves the manifest into a lockfile, reusing the existing lockfile's
// groups where possible. Relocking an unchanged manifest without an upgrade
// request leaves the lockfile untouched.
func (a *App) Lock(ctx context.Context, opts LockOptions) (*domain.Lockfile, error) {
	ctx, vertex := a.telemetry.Record(ctx, fmt.Sprintf("lock %s", opts.ManifestPath))

	lockfile, err := a.lock(ctx, opts, vertex)
	vertex.Complete(err)
	return lockfile, err
}

func (a *App) lock(ctx context.Context, opts LockOptions, vertex ports.Vertex) (*domain.Lockfile, error) {
	manifest, err := a.manifests.Load(opts.ManifestPath)
	if err != nil {
		return nil, err
	}

	old, err := a.lockfiles.Read(opts.LockfilePath)
	if err != nil {
		return nil, err
	}

	if old != nil && opts.Upgrades.Empty() && old.Manifest.Equal(manifest) {
		vertex.Cached()
		return old, nil
	}

	lockfile, err := a.builder.CreateLockfile(ctx, manifest, old, opts.Upgrades)
	if err != nil {
		return nil, err
	}

	if err := a.lockfiles.Write(opts.LockfilePath, lockfile); err != nil {
		return nil, err
	}

	a.logger.Info(fmt.Sprintf("locked %d packages for %d systems",
		len(manifest.Install), len(manifest.TargetSystems())))
	return lockfile, nil
}

// BuildOptions configures a Build run.
type BuildOptions struct {
	// LockfilePath is the lockfile to materialize.
	LockfilePath string

	// OutDir is the directory the output variants are created under.
	OutDir string

	// System selects the lockfile's per-system package set. Empty means the
	// current system.
	System string

	// Mode is the collision policy applied to every variant.
	Mode buildenv.CollisionMode
}

// Build materializes every output variant of the lockfile under OutDir.
func (a *App) Build(ctx context.Context, opts BuildOptions) ([]buildenv.MergeResult, error) {
	ctx, vertex := a.telemetry.Record(ctx, fmt.Sprintf("build %s", opts.LockfilePath))

	results, err := a.build(ctx, opts)
	vertex.Complete(err)
	return results, err
}

func (a *App) build(ctx context.Context, opts BuildOptions) ([]buildenv.MergeResult, error) {
	lockfile, err := a.lockfiles.Read(opts.LockfilePath)
	if err != nil {
		return nil, err
	}
	if lockfile == nil {
		return nil, zerr.With(domain.ErrLockfileRead, "path", opts.LockfilePath)
	}

	system := opts.System
	if system == "" {
		system = domain.CurrentSystem()
	}

	results, err := a.merger.Build(ctx, lockfile, system, opts.OutDir, opts.Mode)
	if err != nil {
		return nil, err
	}

	a.logger.Info(fmt.Sprintf("built %d output variants under %s", len(results), opts.OutDir))
	return results, nil
}

// Components aggregates the wired application for the CLI entry point.
type Components struct {
	App       *App
	Logger    ports.Logger
	Telemetry ports.Telemetry
}
