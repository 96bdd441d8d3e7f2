package buildenv

import (
	"path/filepath"
	"strings"
)

// storeHashLen is the length of the base32 digest prefixing store path names.
const storeHashLen = 32

// storePathName strips the store directory and hash prefix from a store path,
// leaving the human-readable name-version part for messages.
func storePathName(path string) string {
	base := filepath.Base(path)
	hash, rest, ok := strings.Cut(base, "-")
	if ok && len(hash) == storeHashLen {
		return rest
	}
	return base
}

// isStubPath reports whether a store path names a toolchain stub package,
// which propagation never pulls into an environment.
func isStubPath(path string) bool {
	return strings.HasSuffix(storePathName(path), "-stubs")
}
