package domain_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.trai.ch/lode/internal/core/domain"
)

func TestInputSource_Locked_FingerprintStable(t *testing.T) {
	a := domain.InputSource{
		Name: "nixpkgs",
		URL:  "github:NixOS/nixpkgs",
		Attrs: map[string]string{
			"rev":     "abc123",
			"narHash": "sha256-xyz",
		},
	}
	b := domain.InputSource{
		Name: "mirror", // registry name does not pin the revision
		URL:  "github:NixOS/nixpkgs",
		Attrs: map[string]string{
			"narHash": "sha256-xyz",
			"rev":     "abc123",
		},
	}

	la, lb := a.Locked(), b.Locked()
	require.Len(t, la.Fingerprint, 16)
	assert.True(t, la.Equal(lb), "attr order and registry name must not affect the fingerprint")

	c := a
	c.Attrs = map[string]string{"rev": "def456", "narHash": "sha256-xyz"}
	assert.False(t, la.Equal(c.Locked()))
}

func TestPackageInfo_OutputPath(t *testing.T) {
	info := domain.PackageInfo{
		Name:    "hello",
		Version: "2.12.1",
		Outputs: []domain.Output{
			{Name: "out", StorePath: "/store/aaa-hello-2.12.1"},
			{Name: "man", StorePath: "/store/bbb-hello-2.12.1-man"},
		},
	}

	path, ok := info.OutputPath("man")
	require.True(t, ok)
	assert.Equal(t, "/store/bbb-hello-2.12.1-man", path)

	_, ok = info.OutputPath("dev")
	assert.False(t, ok)
}

func TestLockfile_Package(t *testing.T) {
	lf := domain.Lockfile{
		Version: domain.LockfileVersion,
		Packages: map[string]map[string]*domain.LockedPackage{
			"x86_64-linux": {
				"hello":    {AttrPath: "hello"},
				"optional": nil,
			},
		},
	}

	pkg, ok := lf.Package("x86_64-linux", "hello")
	require.True(t, ok)
	assert.Equal(t, "hello", pkg.AttrPath)

	// A nil entry records a requested-but-unresolved optional package.
	_, ok = lf.Package("x86_64-linux", "optional")
	assert.False(t, ok)

	_, ok = lf.Package("aarch64-darwin", "hello")
	assert.False(t, ok)

	_, err := lf.SystemPackages("aarch64-darwin")
	require.ErrorIs(t, err, domain.ErrUnsupportedSystem)
}
