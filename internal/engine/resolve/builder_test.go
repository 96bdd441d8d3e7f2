package resolve_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.trai.ch/lode/internal/core/domain"
	"go.trai.ch/lode/internal/core/ports/mocks"
	"go.trai.ch/lode/internal/engine/resolve"
	"go.uber.org/mock/gomock"
)

var (
	stableInput = domain.InputSource{
		Name:  "stable",
		URL:   "github:NixOS/nixpkgs/stable",
		Attrs: map[string]string{"rev": "aaa"},
	}
	unstableInput = domain.InputSource{
		Name:  "unstable",
		URL:   "github:NixOS/nixpkgs/unstable",
		Attrs: map[string]string{"rev": "bbb"},
	}
)

func singleSystemManifest(install map[string]domain.Descriptor) *domain.Manifest {
	return &domain.Manifest{
		Install: install,
		Systems: []string{testSystem},
	}
}

func TestBuilder_CreateLockfile_FreshResolution(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	manifest := singleSystemManifest(map[string]domain.Descriptor{
		"hello": {Name: "hello", Range: "^2.12", Priority: 5},
		"jq":    {Name: "jq", Range: "*", Priority: 5},
	})

	resolver := mocks.NewMockCandidateResolver(ctrl)
	logger := mocks.NewMockLogger(ctrl)

	resolver.EXPECT().Inputs().Return([]domain.InputSource{stableInput, unstableInput})
	resolver.EXPECT().
		Resolve(gomock.Any(), stableInput, testSystem, gomock.Any()).
		DoAndReturn(func(_ context.Context, input domain.InputSource, _ string, descs map[string]domain.Descriptor) (map[string]*domain.LockedPackage, error) {
			result := make(map[string]*domain.LockedPackage, len(descs))
			for id := range descs {
				result[id] = lockedPkg(input.Locked(), id, "1.0", descs[id].Priority)
			}
			return result, nil
		})

	builder := resolve.NewBuilder(resolver, logger)
	lf, err := builder.CreateLockfile(context.Background(), manifest, nil, domain.UpgradeSet{})
	require.NoError(t, err)

	require.Contains(t, lf.Packages, testSystem)
	hello, ok := lf.Package(testSystem, "hello")
	require.True(t, ok)
	jq, ok := lf.Package(testSystem, "jq")
	require.True(t, ok)

	// Group atomicity: both toplevel members locked to the same revision.
	assert.True(t, hello.Input.Equal(jq.Input))
	assert.Equal(t, domain.LockfileVersion, lf.Version)
	assert.True(t, lf.Manifest.Equal(manifest))
}

func TestBuilder_CreateLockfile_Idempotent(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	install := map[string]domain.Descriptor{
		"hello": {Name: "hello", Range: "^2.12", Priority: 5},
	}
	manifest := singleSystemManifest(install)
	old := oldLockfile(install, map[string]*domain.LockedPackage{
		"hello": lockedPkg(stableInput.Locked(), "hello", "2.12.1", 5),
	})

	resolver := mocks.NewMockCandidateResolver(ctrl)
	logger := mocks.NewMockLogger(ctrl)
	// No Inputs or Resolve expectations: a fully locked manifest must not
	// touch the registry at all.

	builder := resolve.NewBuilder(resolver, logger)
	lf, err := builder.CreateLockfile(context.Background(), manifest, old, domain.UpgradeSet{})
	require.NoError(t, err)

	got, ok := lf.Package(testSystem, "hello")
	require.True(t, ok)
	assert.Equal(t, old.Packages[testSystem]["hello"].Input.Fingerprint, got.Input.Fingerprint)
	assert.Equal(t, "2.12.1", got.Info.Version)
}

func TestBuilder_CreateLockfile_LockedGroupRefreshesPriority(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	oldInstall := map[string]domain.Descriptor{
		"hello": {Name: "hello", Range: "^2.12", Priority: 5},
	}
	old := oldLockfile(oldInstall, map[string]*domain.LockedPackage{
		"hello": lockedPkg(stableInput.Locked(), "hello", "2.12.1", 5),
	})

	manifest := singleSystemManifest(map[string]domain.Descriptor{
		"hello": {Name: "hello", Range: "^2.12", Priority: 1},
	})

	builder := resolve.NewBuilder(mocks.NewMockCandidateResolver(ctrl), mocks.NewMockLogger(ctrl))
	lf, err := builder.CreateLockfile(context.Background(), manifest, old, domain.UpgradeSet{})
	require.NoError(t, err)

	got, ok := lf.Package(testSystem, "hello")
	require.True(t, ok)
	assert.Equal(t, 1, got.Priority, "copied lock carries the current priority")
	assert.Equal(t, "2.12.1", got.Info.Version, "resolution result is untouched")
	assert.Equal(t, 5, old.Packages[testSystem]["hello"].Priority, "old lockfile is not mutated")
}

func TestBuilder_CreateLockfile_UpgradeTargetsOnlyNamedGroup(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	install := map[string]domain.Descriptor{
		"hello": {Name: "hello", Range: "*", Priority: 5},
		"rg":    {Name: "rg", Range: "*", Group: "tools", Priority: 5},
	}
	manifest := singleSystemManifest(install)
	old := oldLockfile(install, map[string]*domain.LockedPackage{
		"hello": lockedPkg(stableInput.Locked(), "hello", "2.12.1", 5),
		"rg":    lockedPkg(stableInput.Locked(), "rg", "13.0.0", 5),
	})

	resolver := mocks.NewMockCandidateResolver(ctrl)
	logger := mocks.NewMockLogger(ctrl)

	// Only the tools group re-resolves, and it lands on a newer revision.
	resolver.EXPECT().Inputs().Return([]domain.InputSource{unstableInput})
	resolver.EXPECT().
		Resolve(gomock.Any(), gomock.Any(), testSystem, gomock.Any()).
		DoAndReturn(func(_ context.Context, input domain.InputSource, _ string, descs map[string]domain.Descriptor) (map[string]*domain.LockedPackage, error) {
			require.Len(t, descs, 1)
			require.Contains(t, descs, "rg")
			return map[string]*domain.LockedPackage{
				"rg": lockedPkg(input.Locked(), "rg", "14.1.0", 5),
			}, nil
		})
	// The pinned input is gone from the registry, so switching warns.
	logger.EXPECT().Warn(gomock.Any())

	builder := resolve.NewBuilder(resolver, logger)
	lf, err := builder.CreateLockfile(context.Background(), manifest, old, domain.UpgradeGroups("tools"))
	require.NoError(t, err)

	hello, ok := lf.Package(testSystem, "hello")
	require.True(t, ok)
	assert.Equal(t, "2.12.1", hello.Info.Version, "untargeted group keeps its lock")

	rg, ok := lf.Package(testSystem, "rg")
	require.True(t, ok)
	assert.Equal(t, "14.1.0", rg.Info.Version)
}

func TestBuilder_CreateLockfile_PinnedInputTriedFirst(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	install := map[string]domain.Descriptor{
		"hello": {Name: "hello", Range: "^2.12", Priority: 5},
	}
	old := oldLockfile(install, map[string]*domain.LockedPackage{
		"hello": lockedPkg(unstableInput.Locked(), "hello", "2.12.1", 5),
	})

	// The range changed, so the group re-resolves, but the previously pinned
	// input (unstable, second in the registry) must be tried first.
	manifest := singleSystemManifest(map[string]domain.Descriptor{
		"hello": {Name: "hello", Range: ">=2.12 <2.14", Priority: 5},
	})

	resolver := mocks.NewMockCandidateResolver(ctrl)
	logger := mocks.NewMockLogger(ctrl)

	resolver.EXPECT().Inputs().Return([]domain.InputSource{stableInput, unstableInput})
	resolver.EXPECT().
		Resolve(gomock.Any(), unstableInput, testSystem, gomock.Any()).
		DoAndReturn(func(_ context.Context, input domain.InputSource, _ string, _ map[string]domain.Descriptor) (map[string]*domain.LockedPackage, error) {
			return map[string]*domain.LockedPackage{
				"hello": lockedPkg(input.Locked(), "hello", "2.13.0", 5),
			}, nil
		})
	// No warning: resolution stayed on the pinned input.

	builder := resolve.NewBuilder(resolver, logger)
	lf, err := builder.CreateLockfile(context.Background(), manifest, old, domain.UpgradeSet{})
	require.NoError(t, err)

	got, ok := lf.Package(testSystem, "hello")
	require.True(t, ok)
	assert.True(t, got.Input.Equal(unstableInput.Locked()))
}

func TestBuilder_CreateLockfile_FallbackWarnsImplicitUpgrade(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	install := map[string]domain.Descriptor{
		"hello": {Name: "hello", Range: "*", Priority: 5},
	}
	old := oldLockfile(install, map[string]*domain.LockedPackage{
		"hello": lockedPkg(stableInput.Locked(), "hello", "2.12.1", 5),
	})
	manifest := singleSystemManifest(map[string]domain.Descriptor{
		"hello": {Name: "hello", Range: "^3.0", Priority: 5},
	})

	resolver := mocks.NewMockCandidateResolver(ctrl)
	logger := mocks.NewMockLogger(ctrl)

	resolver.EXPECT().Inputs().Return([]domain.InputSource{stableInput, unstableInput})
	// Pinned input misses, fallback succeeds.
	resolver.EXPECT().
		Resolve(gomock.Any(), stableInput, testSystem, gomock.Any()).
		Return(map[string]*domain.LockedPackage{}, nil)
	resolver.EXPECT().
		Resolve(gomock.Any(), unstableInput, testSystem, gomock.Any()).
		DoAndReturn(func(_ context.Context, input domain.InputSource, _ string, _ map[string]domain.Descriptor) (map[string]*domain.LockedPackage, error) {
			return map[string]*domain.LockedPackage{
				"hello": lockedPkg(input.Locked(), "hello", "3.1.0", 5),
			}, nil
		})
	logger.EXPECT().Warn(gomock.Any())

	builder := resolve.NewBuilder(resolver, logger)
	lf, err := builder.CreateLockfile(context.Background(), manifest, old, domain.UpgradeSet{})
	require.NoError(t, err)

	got, ok := lf.Package(testSystem, "hello")
	require.True(t, ok)
	assert.True(t, got.Input.Equal(unstableInput.Locked()))
}

func TestBuilder_CreateLockfile_ResolutionFailure(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	manifest := singleSystemManifest(map[string]domain.Descriptor{
		"hello": {Name: "hello", Range: "^9.0", Priority: 5},
	})

	resolver := mocks.NewMockCandidateResolver(ctrl)
	resolver.EXPECT().Inputs().Return([]domain.InputSource{stableInput, unstableInput})
	resolver.EXPECT().
		Resolve(gomock.Any(), gomock.Any(), testSystem, gomock.Any()).
		Return(map[string]*domain.LockedPackage{}, nil).
		Times(2)

	builder := resolve.NewBuilder(resolver, mocks.NewMockLogger(ctrl))
	_, err := builder.CreateLockfile(context.Background(), manifest, nil, domain.UpgradeSet{})
	require.ErrorIs(t, err, domain.ErrResolutionFailure)
}

func TestBuilder_CreateLockfile_OptionalMissRecordsNil(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	manifest := singleSystemManifest(map[string]domain.Descriptor{
		"hello": {Name: "hello", Range: "*", Priority: 5},
		"extra": {Name: "extra", Range: "*", Priority: 5, Optional: true},
	})

	resolver := mocks.NewMockCandidateResolver(ctrl)
	resolver.EXPECT().Inputs().Return([]domain.InputSource{stableInput})
	resolver.EXPECT().
		Resolve(gomock.Any(), stableInput, testSystem, gomock.Any()).
		DoAndReturn(func(_ context.Context, input domain.InputSource, _ string, _ map[string]domain.Descriptor) (map[string]*domain.LockedPackage, error) {
			return map[string]*domain.LockedPackage{
				"hello": lockedPkg(input.Locked(), "hello", "2.12.1", 5),
			}, nil
		})

	builder := resolve.NewBuilder(resolver, mocks.NewMockLogger(ctrl))
	lf, err := builder.CreateLockfile(context.Background(), manifest, nil, domain.UpgradeSet{})
	require.NoError(t, err)

	pkgs, err := lf.SystemPackages(testSystem)
	require.NoError(t, err)
	require.Contains(t, pkgs, "extra")
	assert.Nil(t, pkgs["extra"])

	_, ok := lf.Package(testSystem, "hello")
	assert.True(t, ok)
}

func TestBuilder_CreateLockfile_SystemRestrictedMemberOmitted(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	manifest := &domain.Manifest{
		Install: map[string]domain.Descriptor{
			"hello": {Name: "hello", Range: "*", Priority: 5},
			"mac":   {Name: "mac", Range: "*", Priority: 5, Systems: []string{"aarch64-darwin"}},
		},
		Systems: []string{testSystem},
	}

	resolver := mocks.NewMockCandidateResolver(ctrl)
	resolver.EXPECT().Inputs().Return([]domain.InputSource{stableInput})
	resolver.EXPECT().
		Resolve(gomock.Any(), stableInput, testSystem, gomock.Any()).
		DoAndReturn(func(_ context.Context, input domain.InputSource, _ string, descs map[string]domain.Descriptor) (map[string]*domain.LockedPackage, error) {
			require.NotContains(t, descs, "mac", "system-restricted members never reach the resolver")
			return map[string]*domain.LockedPackage{
				"hello": lockedPkg(input.Locked(), "hello", "2.12.1", 5),
			}, nil
		})

	builder := resolve.NewBuilder(resolver, mocks.NewMockLogger(ctrl))
	lf, err := builder.CreateLockfile(context.Background(), manifest, nil, domain.UpgradeSet{})
	require.NoError(t, err)

	pkgs, err := lf.SystemPackages(testSystem)
	require.NoError(t, err)
	assert.NotContains(t, pkgs, "mac")
}
