package buildenv

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStorePathName(t *testing.T) {
	tests := []struct {
		name string
		path string
		want string
	}{
		{
			name: "hash prefix stripped",
			path: "/nix/store/0c01bw2y3wfjyk2pm0pmpjlbkcbfs17b-hello-2.12.1",
			want: "hello-2.12.1",
		},
		{
			name: "no hash prefix",
			path: "/store/hello-2.12.1",
			want: "hello-2.12.1",
		},
		{
			name: "bare name",
			path: "/store/hello",
			want: "hello",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, storePathName(tt.path))
		})
	}
}

func TestIsStubPath(t *testing.T) {
	assert.True(t, isStubPath("/store/gcc-stubs"))
	assert.False(t, isStubPath("/store/gcc-13.2.0"))
}

func TestSkipPath(t *testing.T) {
	assert.True(t, skipPath("nix-support"))
	assert.True(t, skipPath("lib/perl5/perllocal.pod"))
	assert.True(t, skipPath("share/info/dir"))
	assert.True(t, skipPath("share/mime/application"))
	assert.False(t, skipPath("share/mime/packages"))
	assert.False(t, skipPath("share/mime/packages/app.xml"))
	assert.False(t, skipPath("bin/tool"))
	assert.False(t, skipPath("share/info/tool.info"))
}

func TestParseCollisionMode(t *testing.T) {
	mode, err := ParseCollisionMode("")
	require.NoError(t, err)
	assert.Equal(t, CollisionError, mode)

	mode, err = ParseCollisionMode("ignore")
	require.NoError(t, err)
	assert.Equal(t, CollisionIgnore, mode)

	mode, err = ParseCollisionMode("check-content")
	require.NoError(t, err)
	assert.Equal(t, CollisionCheckContent, mode)

	_, err = ParseCollisionMode("bogus")
	require.Error(t, err)
}
