package domain_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"go.trai.ch/lode/internal/core/domain"
)

func TestMergePriority_Ordering(t *testing.T) {
	explicit := domain.ExplicitPriority(5, 0, "/store/aaa-hello")
	lower := domain.ExplicitPriority(1, 0, "/store/bbb-coreutils")
	sibling := domain.ExplicitPriority(5, 1, "/store/ccc-hello-man")

	assert.True(t, lower.Beats(explicit), "numerically lower base wins")
	assert.True(t, explicit.Beats(sibling), "earlier output of the same package wins")
	assert.False(t, explicit.Beats(explicit))
	assert.True(t, explicit.Ties(explicit))
}

func TestMergePriority_PropagatedAlwaysLoses(t *testing.T) {
	// A propagation wave must rank below every explicit package regardless of
	// how large the explicit rank gets.
	explicit := domain.ExplicitPriority(1000, 999, "/store/aaa-app")
	wave1 := domain.PropagatedPriority(1, 0, "/store/bbb-lib")
	wave2 := domain.PropagatedPriority(2, 0, "/store/ccc-sublib")

	assert.True(t, explicit.Beats(wave1))
	assert.True(t, wave1.Beats(wave2))
	assert.False(t, wave1.Beats(explicit))
}

func TestMergePriority_Less_Total(t *testing.T) {
	a := domain.ExplicitPriority(5, 0, "/store/aaa")
	b := domain.ExplicitPriority(5, 0, "/store/bbb")

	// Same tier and rank: path breaks the tie for deterministic ordering,
	// but neither beats the other.
	assert.True(t, a.Less(b))
	assert.False(t, b.Less(a))
	assert.False(t, a.Beats(b))
	assert.False(t, b.Beats(a))
}
