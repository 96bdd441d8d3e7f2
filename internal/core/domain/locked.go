package domain

import (
	"fmt"
	"sort"

	"github.com/cespare/xxhash/v2"
)

// InputSource identifies one entry of the input registry: a named, pinned
// package source candidate groups can be resolved against.
type InputSource struct {
	// Name is the registry name of the input (e.g. "nixpkgs").
	Name string `json:"name"`

	// URL locates the input revision.
	URL string `json:"url"`

	// Attrs carries the pinning attributes of the revision (rev, narHash, ...).
	Attrs map[string]string `json:"attrs,omitempty"`
}

// Locked derives the locked form of the input, including its fingerprint.
func (i InputSource) Locked() LockedInput {
	return LockedInput{
		Fingerprint: fingerprintAttrs(i.URL, i.Attrs),
		URL:         i.URL,
		Attrs:       i.Attrs,
	}
}

// LockedInput is a pinned input revision as recorded in the lockfile.
// Two locked inputs are the same revision iff their fingerprints are equal.
type LockedInput struct {
	Fingerprint string            `json:"fingerprint"`
	URL         string            `json:"url"`
	Attrs       map[string]string `json:"attrs,omitempty"`
}

// Equal reports whether both inputs pin the same revision.
func (l LockedInput) Equal(other LockedInput) bool {
	return l.Fingerprint == other.Fingerprint
}

// fingerprintAttrs hashes the URL and the sorted attribute pairs into a
// stable 16-hex-digit fingerprint.
func fingerprintAttrs(url string, attrs map[string]string) string {
	hasher := xxhash.New()
	_, _ = hasher.WriteString(url)
	_, _ = hasher.Write([]byte{0})

	keys := make([]string, 0, len(attrs))
	for k := range attrs {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	for _, k := range keys {
		_, _ = hasher.WriteString(k)
		_, _ = hasher.Write([]byte{'='})
		_, _ = hasher.WriteString(attrs[k])
		_, _ = hasher.Write([]byte{0})
	}

	return fmt.Sprintf("%016x", hasher.Sum64())
}

// Output is one named store path produced by a package.
type Output struct {
	Name      string `json:"name"`
	StorePath string `json:"store_path"`
}

// PackageInfo carries the catalog metadata of a resolved package.
type PackageInfo struct {
	Name             string   `json:"name"`
	Pname            string   `json:"pname,omitempty"`
	Version          string   `json:"version"`
	Description      string   `json:"description,omitempty"`
	License          string   `json:"license,omitempty"`
	Broken           bool     `json:"broken,omitempty"`
	Unfree           bool     `json:"unfree,omitempty"`
	Outputs          []Output `json:"outputs"`
	OutputsToInstall []string `json:"outputs_to_install,omitempty"`
}

// OutputPath returns the store path of the named output, or false if the
// package has no such output.
func (p PackageInfo) OutputPath(name string) (string, bool) {
	for _, out := range p.Outputs {
		if out.Name == name {
			return out.StorePath, true
		}
	}
	return "", false
}

// LockedPackage is one resolved install entry for a single system.
type LockedPackage struct {
	Input    LockedInput `json:"input"`
	AttrPath string      `json:"attr_path"`
	Priority int         `json:"priority"`
	Info     PackageInfo `json:"info"`
}
