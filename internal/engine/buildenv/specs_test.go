package buildenv_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.trai.ch/lode/internal/core/domain"
	"go.trai.ch/lode/internal/engine/buildenv"
)

func specLockfile() *domain.Lockfile {
	return &domain.Lockfile{
		Version: domain.LockfileVersion,
		Manifest: domain.Manifest{
			Install: map[string]domain.Descriptor{
				"curl":  {Name: "curl", Priority: 3},
				"hello": {Name: "hello", Priority: 5},
				"extra": {Name: "extra", Priority: 5, Optional: true},
				"rg":    {Name: "rg", Group: "tools", Priority: 5},
			},
			Builds: map[string]domain.BuildSpec{
				"app": {RuntimePackages: []string{"hello"}},
				"all": {},
			},
			Systems: []string{"x86_64-linux"},
		},
		Packages: map[string]map[string]*domain.LockedPackage{
			"x86_64-linux": {
				"curl": {
					Priority: 3,
					Info: domain.PackageInfo{
						Name: "curl",
						Outputs: []domain.Output{
							{Name: "out", StorePath: "/store/curl-out"},
							{Name: "man", StorePath: "/store/curl-man"},
							{Name: "dev", StorePath: "/store/curl-dev"},
						},
						OutputsToInstall: []string{"out", "man"},
					},
				},
				"hello": {
					Priority: 5,
					Info: domain.PackageInfo{
						Name:    "hello",
						Outputs: []domain.Output{{Name: "out", StorePath: "/store/hello-out"}},
					},
				},
				"extra": nil,
				"rg": {
					Priority: 5,
					Info: domain.PackageInfo{
						Name:    "rg",
						Outputs: []domain.Output{{Name: "out", StorePath: "/store/rg-out"}},
					},
				},
			},
		},
	}
}

func TestOutputSpecs_Variants(t *testing.T) {
	specs, err := buildenv.OutputSpecs(specLockfile(), "x86_64-linux")
	require.NoError(t, err)
	require.Len(t, specs, 4)

	byName := make(map[string]buildenv.OutputSpec, len(specs))
	for _, spec := range specs {
		byName[spec.Name] = spec
	}

	assert.False(t, byName["runtime"].Recursive)
	assert.True(t, byName["develop"].Recursive)
	assert.True(t, byName["build-app"].Recursive)
	assert.True(t, byName["build-all"].Recursive)
}

func TestOutputSpecs_OutputOrderingAndRanks(t *testing.T) {
	specs, err := buildenv.OutputSpecs(specLockfile(), "x86_64-linux")
	require.NoError(t, err)

	runtime := specs[0]
	require.Equal(t, "runtime", runtime.Name)

	// curl sorts first; its outputs appear in outputs-to-install order with
	// the uninstalled dev output trailing.
	require.True(t, len(runtime.Refs) >= 3)
	assert.Equal(t, "/store/curl-out", runtime.Refs[0].StorePath)
	assert.Equal(t, "/store/curl-man", runtime.Refs[1].StorePath)
	assert.Equal(t, "/store/curl-dev", runtime.Refs[2].StorePath)

	assert.Equal(t, domain.ExplicitPriority(3, 0, "/store/curl-out"), runtime.Refs[0].Priority)
	assert.Equal(t, domain.ExplicitPriority(3, 1, "/store/curl-man"), runtime.Refs[1].Priority)
	assert.Equal(t, domain.ExplicitPriority(3, 2, "/store/curl-dev"), runtime.Refs[2].Priority)

	// Outputs of one package never tie with each other or with another
	// priority level.
	assert.True(t, runtime.Refs[0].Priority.Beats(runtime.Refs[1].Priority))
	assert.True(t, runtime.Refs[1].Priority.Beats(runtime.Refs[2].Priority))
}

func TestOutputSpecs_OptionalMissOmitted(t *testing.T) {
	specs, err := buildenv.OutputSpecs(specLockfile(), "x86_64-linux")
	require.NoError(t, err)

	for _, spec := range specs {
		for _, ref := range spec.Refs {
			assert.NotEqual(t, "extra", ref.Name)
		}
	}
}

func TestOutputSpecs_BuildScope(t *testing.T) {
	specs, err := buildenv.OutputSpecs(specLockfile(), "x86_64-linux")
	require.NoError(t, err)

	byName := make(map[string]buildenv.OutputSpec, len(specs))
	for _, spec := range specs {
		byName[spec.Name] = spec
	}

	names := func(spec buildenv.OutputSpec) []string {
		var out []string
		for _, ref := range spec.Refs {
			out = append(out, ref.Name)
		}
		return out
	}

	// build-app keeps only its runtime-packages selection.
	assert.Equal(t, []string{"hello"}, names(byName["build-app"]))

	// build-all keeps the whole toplevel group but never named groups.
	all := names(byName["build-all"])
	assert.Contains(t, all, "curl")
	assert.Contains(t, all, "hello")
	assert.NotContains(t, all, "rg")
}

func TestOutputSpecs_UnsupportedSystem(t *testing.T) {
	_, err := buildenv.OutputSpecs(specLockfile(), "riscv64-linux")
	require.ErrorIs(t, err, domain.ErrUnsupportedSystem)
}
