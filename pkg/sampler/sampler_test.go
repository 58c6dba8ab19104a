package sampler

import (
	"math/rand/v2"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sitematch/matchsim/pkg/tables"
)

func TestDrawIsPermutation(t *testing.T) {
	t.Parallel()

	pt, err := tables.NewPriorityTable([]string{"A", "B", "C", "D"}, [][]float64{
		{10, 0, 0, 0},
		{0, 10, 0, 0},
		{0, 0, 10, 0},
		{0, 0, 0, 10},
	})
	require.NoError(t, err)

	s, err := New(pt)
	require.NoError(t, err)

	rng := rand.New(rand.NewPCG(1, 2))
	for i := 0; i < 50; i++ {
		out := s.Draw(rng)
		assert.Len(t, out, 4)
		seen := make(map[int]bool, 4)
		for _, v := range out {
			assert.False(t, seen[v], "site %d drawn twice", v)
			seen[v] = true
			assert.GreaterOrEqual(t, v, 0)
			assert.Less(t, v, 4)
		}
	}
}

func TestDrawRespectsStrongRankOneSignal(t *testing.T) {
	t.Parallel()

	// Site 0 overwhelmingly preferred at rank 1; over many draws it
	// should be the rank-1 pick almost every time.
	pt, err := tables.NewPriorityTable([]string{"A", "B", "C"}, [][]float64{
		{1000, 0, 0},
		{0, 1, 0},
		{0, 0, 1},
	})
	require.NoError(t, err)
	s, err := New(pt)
	require.NoError(t, err)

	rng := rand.New(rand.NewPCG(7, 9))
	firstCounts := map[int]int{}
	const trials = 500
	for i := 0; i < trials; i++ {
		out := s.Draw(rng)
		firstCounts[out[0]]++
	}
	assert.Greater(t, firstCounts[0], trials*9/10)
}

func TestDrawFallsBackToUniformOnAllZeroColumn(t *testing.T) {
	t.Parallel()

	// Rank-1 column is all zero: should fall back to uniform over all
	// sites rather than always picking the same one.
	pt, err := tables.NewPriorityTable([]string{"A", "B", "C"}, [][]float64{
		{0, 0, 0},
		{0, 0, 0},
		{0, 0, 0},
	})
	require.NoError(t, err)
	s, err := New(pt)
	require.NoError(t, err)

	rng := rand.New(rand.NewPCG(3, 4))
	firstCounts := map[int]int{}
	const trials = 900
	for i := 0; i < trials; i++ {
		out := s.Draw(rng)
		firstCounts[out[0]]++
	}
	for site := 0; site < 3; site++ {
		assert.Greater(t, firstCounts[site], 0, "site %d never drawn first under uniform fallback", site)
		assert.Less(t, firstCounts[site], trials*6/10, "site %d drawn implausibly often under uniform fallback", site)
	}
}

func TestDrawHandlesMoreSitesThanRanks(t *testing.T) {
	t.Parallel()

	// R=1 rank column, N=3 sites: the last two sites are never observed
	// in any rank column and must still appear, in uniform random order.
	pt, err := tables.NewPriorityTable([]string{"A", "B", "C"}, [][]float64{
		{5},
		{0},
		{0},
	})
	require.NoError(t, err)
	s, err := New(pt)
	require.NoError(t, err)

	rng := rand.New(rand.NewPCG(11, 12))
	out := s.Draw(rng)
	assert.Len(t, out, 3)
	assert.Equal(t, 0, out[0], "overwhelming rank-1 signal for site A should place it first")
}

func TestNewRejectsEmptyTable(t *testing.T) {
	t.Parallel()

	_, err := New(&tables.PriorityTable{})
	assert.Error(t, err)
}
