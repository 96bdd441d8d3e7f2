package catalog

import "go.trai.ch/lode/internal/core/domain"

// registryFile is the top-level catalog document listing inputs in
// resolution order.
type registryFile struct {
	Inputs []inputEntry `json:"inputs"`
}

// inputEntry is one registry input plus the index file carrying its packages.
type inputEntry struct {
	Name  string            `json:"name"`
	URL   string            `json:"url"`
	Attrs map[string]string `json:"attrs,omitempty"`

	// Index is the per-input package index file, relative to the catalog
	// directory. Defaults to "<name>.json".
	Index string `json:"index,omitempty"`
}

// indexFile is a per-input package index.
type indexFile struct {
	Packages []indexPackage `json:"packages"`
}

// indexPackage is one resolvable package of an input.
type indexPackage struct {
	AttrPath    string                 `json:"attr_path"`
	Name        string                 `json:"name"`
	Pname       string                 `json:"pname,omitempty"`
	Version     string                 `json:"version"`
	Description string                 `json:"description,omitempty"`
	License     string                 `json:"license,omitempty"`
	Broken      bool                   `json:"broken,omitempty"`
	Unfree      bool                   `json:"unfree,omitempty"`
	Systems     map[string]systemEntry `json:"systems"`
}

// systemEntry carries the per-system realisation of a package.
type systemEntry struct {
	Outputs          []domain.Output `json:"outputs"`
	OutputsToInstall []string        `json:"outputs_to_install,omitempty"`
}
