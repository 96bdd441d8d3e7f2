package app_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	storeadapter "go.trai.ch/lode/internal/adapters/store"
	"go.trai.ch/lode/internal/app"
	"go.trai.ch/lode/internal/core/domain"
	"go.trai.ch/lode/internal/core/ports"
	"go.trai.ch/lode/internal/core/ports/mocks"
	"go.trai.ch/lode/internal/engine/buildenv"
	"go.trai.ch/lode/internal/engine/resolve"
	"go.uber.org/mock/gomock"
)

type fixture struct {
	manifests *mocks.MockManifestLoader
	lockfiles *mocks.MockLockfileStore
	resolver  *mocks.MockCandidateResolver
	store     *mocks.MockStore
	logger    *mocks.MockLogger
	telemetry *mocks.MockTelemetry
	vertex    *mocks.MockVertex
	app       *app.App
}

func newFixture(ctrl *gomock.Controller) *fixture {
	f := &fixture{
		manifests: mocks.NewMockManifestLoader(ctrl),
		lockfiles: mocks.NewMockLockfileStore(ctrl),
		resolver:  mocks.NewMockCandidateResolver(ctrl),
		store:     mocks.NewMockStore(ctrl),
		logger:    mocks.NewMockLogger(ctrl),
		telemetry: mocks.NewMockTelemetry(ctrl),
		vertex:    mocks.NewMockVertex(ctrl),
	}
	f.app = app.New(
		f.manifests,
		f.lockfiles,
		resolve.NewBuilder(f.resolver, f.logger),
		buildenv.NewMerger(f.store, f.logger),
		f.logger,
		f.telemetry,
	)
	return f
}

func (f *fixture) expectVertex() {
	f.telemetry.EXPECT().
		Record(gomock.Any(), gomock.Any()).
		DoAndReturn(func(ctx context.Context, _ string, _ ...ports.VertexOption) (context.Context, ports.Vertex) {
			return ctx, f.vertex
		})
}

func writeTree(root string, files map[string]string) error {
	for rel, content := range files {
		full := filepath.Join(root, filepath.FromSlash(rel))
		if err := os.MkdirAll(filepath.Dir(full), 0o750); err != nil {
			return err
		}
		if err := os.WriteFile(full, []byte(content), 0o644); err != nil {
			return err
		}
	}
	return nil
}

func testManifest() *domain.Manifest {
	return &domain.Manifest{
		Install: map[string]domain.Descriptor{
			"hello": {Name: "hello", Range: "*", Priority: 5},
		},
		Systems: []string{"x86_64-linux"},
	}
}

func TestApp_Lock_UnchangedManifestIsNoOp(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()
	f := newFixture(ctrl)

	manifest := testManifest()
	existing := &domain.Lockfile{
		Version:  domain.LockfileVersion,
		Manifest: *manifest,
		Packages: map[string]map[string]*domain.LockedPackage{"x86_64-linux": {}},
	}

	f.expectVertex()
	f.manifests.EXPECT().Load("lode.yaml").Return(manifest, nil)
	f.lockfiles.EXPECT().Read("lode.lock").Return(existing, nil)
	f.vertex.EXPECT().Cached()
	f.vertex.EXPECT().Complete(nil)
	// No Write, no resolver traffic.

	lockfile, err := f.app.Lock(context.Background(), app.LockOptions{
		ManifestPath: "lode.yaml",
		LockfilePath: "lode.lock",
	})
	require.NoError(t, err)
	assert.Same(t, existing, lockfile)
}

func TestApp_Lock_WritesNewLockfile(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()
	f := newFixture(ctrl)

	manifest := testManifest()
	input := domain.InputSource{Name: "stable", URL: "github:NixOS/nixpkgs/stable"}

	f.expectVertex()
	f.manifests.EXPECT().Load("lode.yaml").Return(manifest, nil)
	f.lockfiles.EXPECT().Read("lode.lock").Return(nil, nil)
	f.resolver.EXPECT().Inputs().Return([]domain.InputSource{input})
	f.resolver.EXPECT().
		Resolve(gomock.Any(), input, "x86_64-linux", gomock.Any()).
		Return(map[string]*domain.LockedPackage{
			"hello": {
				Input:    input.Locked(),
				AttrPath: "hello",
				Priority: 5,
				Info:     domain.PackageInfo{Name: "hello", Version: "2.12.1"},
			},
		}, nil)
	f.lockfiles.EXPECT().
		Write("lode.lock", gomock.Any()).
		DoAndReturn(func(_ string, lockfile *domain.Lockfile) error {
			_, ok := lockfile.Package("x86_64-linux", "hello")
			assert.True(t, ok)
			return nil
		})
	f.logger.EXPECT().Info(gomock.Any())
	f.vertex.EXPECT().Complete(nil)

	lockfile, err := f.app.Lock(context.Background(), app.LockOptions{
		ManifestPath: "lode.yaml",
		LockfilePath: "lode.lock",
	})
	require.NoError(t, err)
	assert.Equal(t, domain.LockfileVersion, lockfile.Version)
}

func TestApp_Lock_UpgradeBypassesNoOp(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()
	f := newFixture(ctrl)

	manifest := testManifest()
	input := domain.InputSource{Name: "stable", URL: "github:NixOS/nixpkgs/stable"}
	existing := &domain.Lockfile{
		Version:  domain.LockfileVersion,
		Manifest: *manifest,
		Packages: map[string]map[string]*domain.LockedPackage{
			"x86_64-linux": {
				"hello": {Input: input.Locked(), AttrPath: "hello", Priority: 5},
			},
		},
	}

	f.expectVertex()
	f.manifests.EXPECT().Load("lode.yaml").Return(manifest, nil)
	f.lockfiles.EXPECT().Read("lode.lock").Return(existing, nil)
	f.resolver.EXPECT().Inputs().Return([]domain.InputSource{input})
	f.resolver.EXPECT().
		Resolve(gomock.Any(), input, "x86_64-linux", gomock.Any()).
		Return(map[string]*domain.LockedPackage{
			"hello": {Input: input.Locked(), AttrPath: "hello", Priority: 5},
		}, nil)
	f.lockfiles.EXPECT().Write("lode.lock", gomock.Any()).Return(nil)
	f.logger.EXPECT().Info(gomock.Any())
	f.vertex.EXPECT().Complete(nil)

	_, err := f.app.Lock(context.Background(), app.LockOptions{
		ManifestPath: "lode.yaml",
		LockfilePath: "lode.lock",
		Upgrades:     domain.UpgradeAll(),
	})
	require.NoError(t, err)
}

func TestApp_Build_RequiresLockfile(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()
	f := newFixture(ctrl)

	f.expectVertex()
	f.lockfiles.EXPECT().Read("lode.lock").Return(nil, nil)
	f.vertex.EXPECT().Complete(gomock.Any())

	_, err := f.app.Build(context.Background(), app.BuildOptions{
		LockfilePath: "lode.lock",
		OutDir:       t.TempDir(),
	})
	require.ErrorIs(t, err, domain.ErrLockfileRead)
}

func TestApp_Build_MaterializesVariants(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	storeRoot := t.TempDir()
	helloDir := filepath.Join(storeRoot, "hello-2.12.1")
	require.NoError(t, writeTree(helloDir, map[string]string{"bin/hello": "hello"}))

	f := newFixture(ctrl)
	// Swap in a real filesystem store for the merge.
	realStore := storeadapter.NewStore(storeRoot)
	f.app = app.New(
		f.manifests,
		f.lockfiles,
		resolve.NewBuilder(f.resolver, f.logger),
		buildenv.NewMerger(realStore, f.logger),
		f.logger,
		f.telemetry,
	)

	lockfile := &domain.Lockfile{
		Version: domain.LockfileVersion,
		Manifest: domain.Manifest{
			Install: map[string]domain.Descriptor{"hello": {Name: "hello", Priority: 5}},
			Systems: []string{"x86_64-linux"},
		},
		Packages: map[string]map[string]*domain.LockedPackage{
			"x86_64-linux": {
				"hello": {
					Priority: 5,
					Info: domain.PackageInfo{
						Name:    "hello",
						Version: "2.12.1",
						Outputs: []domain.Output{{Name: "out", StorePath: helloDir}},
					},
				},
			},
		},
	}

	f.expectVertex()
	f.lockfiles.EXPECT().Read("lode.lock").Return(lockfile, nil)
	f.logger.EXPECT().Info(gomock.Any())
	f.vertex.EXPECT().Complete(nil)

	outDir := filepath.Join(t.TempDir(), "env")
	results, err := f.app.Build(context.Background(), app.BuildOptions{
		LockfilePath: "lode.lock",
		OutDir:       outDir,
		System:       "x86_64-linux",
	})
	require.NoError(t, err)
	require.Len(t, results, 2, "runtime and develop variants")

	for _, variant := range []string{"runtime", "develop"} {
		assert.FileExists(t, filepath.Join(outDir, variant, "requisites.txt"))
	}
}
