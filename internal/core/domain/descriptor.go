package domain

import (
	"slices"
	"strings"

	"github.com/Masterminds/semver/v3"
	"go.trai.ch/zerr"
)

// ToplevelGroup is the name of the default package group. Descriptors that do
// not declare a group belong to it, and an explicit `pkg-group: toplevel`
// joins it rather than creating a separate group.
const ToplevelGroup = "toplevel"

// DefaultPriority is the merge priority assigned to descriptors that do not
// declare one. Lower numbers win collisions.
const DefaultPriority = 5

// anyRange matches every version. It is the spelling used for descriptors
// whose version field is empty.
const anyRange = "*"

// Descriptor represents a single requested package from the manifest's
// install table, keyed there by its install ID.
type Descriptor struct {
	// Name is the package name to look up in an input's index.
	Name string

	// PkgPath optionally overrides the attribute path within the input.
	// When empty the resolver derives the path from Name.
	PkgPath string

	// Version is an exact version requirement. Mutually exclusive with Range.
	Version string

	// Range is a semver range requirement. Mutually exclusive with Version.
	Range string

	// Group names the package group this descriptor belongs to.
	// Empty means the toplevel group.
	Group string

	// Systems restricts the descriptor to the listed systems.
	// Empty means all systems requested by the manifest.
	Systems []string

	// Priority is the merge priority of the package's files. Lower wins.
	Priority int

	// Optional marks descriptors whose resolution failure does not fail
	// their group.
	Optional bool
}

// SetVersionSpec parses a raw manifest version field into either an exact
// version or a semver range:
//
//   - a leading "=" pins the exact version that follows,
//   - an expression that parses as a semver range (including "^", "~" and
//     comparison operators) becomes a range requirement,
//   - an empty string matches any version,
//   - anything else is an exact version.
func (d *Descriptor) SetVersionSpec(raw string) error {
	raw = strings.TrimSpace(raw)

	switch {
	case raw == "":
		d.Range = anyRange
	case strings.HasPrefix(raw, "="):
		version := strings.TrimSpace(strings.TrimPrefix(raw, "="))
		if version == "" {
			return zerr.With(ErrInvalidRange, "version", raw)
		}
		d.Version = version
	default:
		if _, err := semver.NewConstraint(raw); err == nil {
			d.Range = raw
		} else if hasRangeOperator(raw) {
			// The user clearly asked for a range but it does not parse.
			return zerr.With(zerr.Wrap(err, ErrInvalidRange.Error()), "version", raw)
		} else {
			d.Version = raw
		}
	}

	return nil
}

func hasRangeOperator(raw string) bool {
	return strings.ContainsAny(raw, "^~<>*,|") || strings.Contains(raw, " - ")
}

// Validate checks the descriptor's internal consistency.
func (d *Descriptor) Validate() error {
	if d.Name == "" && d.PkgPath == "" {
		return ErrInvalidManifest
	}
	if d.Version != "" && d.Range != "" {
		err := zerr.With(ErrVersionConflict, "version", d.Version)
		return zerr.With(err, "range", d.Range)
	}
	if d.Range != "" && d.Range != anyRange {
		if _, err := semver.NewConstraint(d.Range); err != nil {
			return zerr.With(zerr.Wrap(err, ErrInvalidRange.Error()), "range", d.Range)
		}
	}
	return nil
}

// GroupName returns the group this descriptor belongs to, applying the
// toplevel default.
func (d *Descriptor) GroupName() string {
	if d.Group == "" {
		return ToplevelGroup
	}
	return d.Group
}

// AttrPath returns the attribute path to resolve within an input.
func (d *Descriptor) AttrPath() string {
	if d.PkgPath != "" {
		return d.PkgPath
	}
	return d.Name
}

// SkipsSystem reports whether the descriptor excludes the given system.
func (d *Descriptor) SkipsSystem(system string) bool {
	if len(d.Systems) == 0 {
		return false
	}
	return !slices.Contains(d.Systems, system)
}

// MatchesVersion reports whether a candidate version satisfies the
// descriptor's version requirement. An exact requirement compares strings; a
// range requirement needs the candidate to parse as (possibly loose) semver.
func (d *Descriptor) MatchesVersion(candidate string) bool {
	if d.Version != "" {
		return d.Version == candidate
	}
	if d.Range == "" || d.Range == anyRange {
		return true
	}

	constraint, err := semver.NewConstraint(d.Range)
	if err != nil {
		return false
	}
	version, err := semver.NewVersion(candidate)
	if err != nil {
		return false
	}
	return constraint.Check(version)
}

// SameRequest reports whether two descriptors request the same package,
// ignoring attributes that do not change what gets resolved (priority,
// optionality, system restrictions). Used to decide whether a previously
// locked input can serve a descriptor again.
func (d *Descriptor) SameRequest(other Descriptor) bool {
	return d.Name == other.Name &&
		d.PkgPath == other.PkgPath &&
		d.Version == other.Version &&
		d.Range == other.Range
}

// Unchanged reports whether the descriptor is equivalent to a previously
// locked one for the given system. Priority is ignored because it only
// affects merging, not resolution; system restrictions matter only through
// whether they skip this system.
func (d *Descriptor) Unchanged(old Descriptor, system string) bool {
	return d.SameRequest(old) &&
		d.GroupName() == old.GroupName() &&
		d.Optional == old.Optional &&
		d.SkipsSystem(system) == old.SkipsSystem(system)
}
