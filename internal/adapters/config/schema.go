package config

// manifestFile mirrors the YAML structure of lode.yaml.
type manifestFile struct {
	Version int                      `yaml:"version"`
	Install map[string]descriptorDTO `yaml:"install"`
	Build   map[string]buildDTO      `yaml:"build"`
	Options optionsDTO               `yaml:"options"`
}

// descriptorDTO represents one install entry in the manifest.
type descriptorDTO struct {
	// Name of the package in the input's index. Defaults to the install ID.
	Name string `yaml:"name"`

	// PkgPath optionally overrides the attribute path within the input.
	PkgPath string `yaml:"pkg-path"`

	// Version covers both exact versions and semver ranges; see
	// domain.Descriptor.SetVersionSpec for the parsing rules.
	Version string `yaml:"version"`

	// Group assigns the package to a named group.
	Group string `yaml:"pkg-group"`

	// Systems restricts the package to the listed systems.
	Systems []string `yaml:"systems"`

	// Priority sets the merge priority (lower wins). Zero means default.
	Priority int `yaml:"priority"`

	// Optional packages may fail to resolve without failing their group.
	Optional bool `yaml:"optional"`
}

// buildDTO represents one named build in the manifest.
type buildDTO struct {
	RuntimePackages []string `yaml:"runtime-packages"`
}

// optionsDTO carries manifest-wide options.
type optionsDTO struct {
	Systems []string `yaml:"systems"`
}
