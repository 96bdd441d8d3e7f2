package domain

// outputStride spaces the ranks of a package's outputs so that every output
// of the same package gets a distinct rank below the next priority level.
const outputStride = 1000

// MergePriority is the precedence of a package's files during environment
// merging. Packages are compared by tier first (explicit packages are tier 0,
// the n-th propagation wave is tier n), then by rank within the tier, then by
// store path purely to make ordering total and deterministic.
//
// Lower values win collisions.
type MergePriority struct {
	Tier int
	Rank int
	Path string
}

// ExplicitPriority builds the tier-0 priority of an explicitly installed
// package output from its descriptor priority and output index.
func ExplicitPriority(base, outputIndex int, path string) MergePriority {
	return MergePriority{
		Tier: 0,
		Rank: base*outputStride + outputIndex,
		Path: path,
	}
}

// PropagatedPriority builds the priority of a package discovered in the
// given propagation wave (1-based). Every wave ranks strictly below all
// explicit packages and all earlier waves.
func PropagatedPriority(wave, rank int, path string) MergePriority {
	return MergePriority{
		Tier: wave,
		Rank: rank,
		Path: path,
	}
}

// Less reports whether p takes precedence over other.
func (p MergePriority) Less(other MergePriority) bool {
	if p.Tier != other.Tier {
		return p.Tier < other.Tier
	}
	if p.Rank != other.Rank {
		return p.Rank < other.Rank
	}
	return p.Path < other.Path
}

// Beats reports whether p strictly outranks other for collision purposes.
// Unlike Less it ignores the path tie-break: two entries at the same tier
// and rank are a genuine tie, which is what collision handling keys on.
func (p MergePriority) Beats(other MergePriority) bool {
	if p.Tier != other.Tier {
		return p.Tier < other.Tier
	}
	return p.Rank < other.Rank
}

// Ties reports whether p and other share tier and rank.
func (p MergePriority) Ties(other MergePriority) bool {
	return p.Tier == other.Tier && p.Rank == other.Rank
}
