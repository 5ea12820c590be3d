package fair

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	testServerSeed = "1f9ad2c47d9e3b1a6c28e0f4b35d7a90e4c6f812a3b5d7c9e1f0a2b4c6d8e0f2"
	testClientSeed = "player-chosen-seed"
)

func TestRollIsDeterministic(t *testing.T) {
	first := Roll(testServerSeed, testClientSeed, 7)

	for i := 0; i < 10; i++ {
		assert.Equal(t, first, Roll(testServerSeed, testClientSeed, 7))
	}

	assert.GreaterOrEqual(t, first, int64(0))
	assert.Less(t, first, int64(TotalWeight))
}

func TestRollChangesWithEveryInput(t *testing.T) {
	distinct := make(map[int64]bool)

	for nonce := int64(0); nonce < 100; nonce++ {
		distinct[Roll(testServerSeed, testClientSeed, nonce)] = true
	}

	// 100 nonces over a 10000-value range must not collapse to a few
	// values; a broken mix would.
	assert.Greater(t, len(distinct), 50)
}

func TestDrawCategoryCoversPartition(t *testing.T) {
	weights := []int64{4660, 4660, 680}

	counts := make([]int, len(weights))

	for nonce := int64(0); nonce < 2000; nonce++ {
		idx := DrawCategory(testServerSeed, testClientSeed, nonce, weights)

		require.GreaterOrEqual(t, idx, 0)
		require.Less(t, idx, len(weights))

		counts[idx]++
	}

	// With 2000 draws every band of this partition should be hit.
	for i, c := range counts {
		assert.Greater(t, c, 0, "band %d never drawn", i)
	}

	// The two heavy bands should each dominate the light one.
	assert.Greater(t, counts[0], counts[2])
	assert.Greater(t, counts[1], counts[2])
}

func TestDrawCategoryRejectsBadWeights(t *testing.T) {
	assert.Panics(t, func() {
		DrawCategory(testServerSeed, testClientSeed, 0, []int64{5000, 4000})
	})
}

func TestDrawPositionsDistinctAndSorted(t *testing.T) {
	for nonce := int64(0); nonce < 500; nonce++ {
		positions := DrawPositions(testServerSeed, testClientSeed, nonce, 25, 5)

		require.Len(t, positions, 5)

		seen := make(map[int]bool)

		for i, p := range positions {
			require.GreaterOrEqual(t, p, 0)
			require.Less(t, p, 25)
			require.False(t, seen[p], "position %d drawn twice at nonce %d", p, nonce)
			seen[p] = true

			if i > 0 {
				require.Greater(t, p, positions[i-1], "not sorted at nonce %d", nonce)
			}
		}
	}
}

func TestDrawPositionsFullBoard(t *testing.T) {
	positions := DrawPositions(testServerSeed, testClientSeed, 3, 25, 24)
	assert.Len(t, positions, 24)

	positions = DrawPositions(testServerSeed, testClientSeed, 3, 25, 25)
	assert.Equal(t, 25, len(positions))
}

func TestVerifyRecomputesOutcome(t *testing.T) {
	weights := []int64{4660, 4660, 680}

	category := DrawCategory(testServerSeed, testClientSeed, 42, weights)
	assert.True(t, VerifyCategory(testServerSeed, testClientSeed, 42, weights, category))
	assert.False(t, VerifyCategory(testServerSeed, "tampered", 42, weights, category))

	positions := DrawPositions(testServerSeed, testClientSeed, 42, 25, 3)
	assert.True(t, VerifyPositions(testServerSeed, testClientSeed, 42, 25, positions))

	tampered := make([]int, len(positions))
	copy(tampered, positions)
	tampered[0] = -1
	assert.False(t, VerifyPositions(testServerSeed, testClientSeed, 42, 25, tampered))
}

func TestHashSeedCommitment(t *testing.T) {
	h := HashSeed(testServerSeed)

	assert.Len(t, h, 64)
	assert.Equal(t, h, HashSeed(testServerSeed))
	assert.NotEqual(t, h, HashSeed(testClientSeed))
}
