package cohort

import (
	"math/rand/v2"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sitematch/matchsim/pkg/sampler"
	"github.com/sitematch/matchsim/pkg/tables"
)

func newTestTable(t *testing.T) *tables.PriorityTable {
	t.Helper()
	pt, err := tables.NewPriorityTable([]string{"A", "B", "C"}, [][]float64{
		{5, 3, 2},
		{3, 5, 2},
		{2, 2, 6},
	})
	require.NoError(t, err)
	return pt
}

func TestBuildWithRandPlacesCandidateAtRowZero(t *testing.T) {
	t.Parallel()

	pt := newTestTable(t)
	s, err := sampler.New(pt)
	require.NoError(t, err)

	rng := rand.New(rand.NewPCG(1, 1))
	c, err := BuildWithRand(s, pt, []string{"C", "A", "B"}, 3, rng)
	require.NoError(t, err)

	assert.Equal(t, 3, c.Size())
	assert.Equal(t, []int{2, 0, 1}, c.Preferences[0])
	for peer := 1; peer < c.Size(); peer++ {
		assert.Len(t, c.Preferences[peer], 3)
	}
}

func TestBuildRejectsShortCandidateList(t *testing.T) {
	t.Parallel()

	pt := newTestTable(t)
	s, err := sampler.New(pt)
	require.NoError(t, err)

	_, err = Build(s, pt, []string{"A", "B"}, 3, 1, 0)
	assert.Error(t, err)
}

func TestBuildRejectsDuplicateInCandidateList(t *testing.T) {
	t.Parallel()

	pt := newTestTable(t)
	s, err := sampler.New(pt)
	require.NoError(t, err)

	_, err = Build(s, pt, []string{"A", "A", "B"}, 3, 1, 0)
	assert.Error(t, err)
}

func TestBuildRejectsUnknownSite(t *testing.T) {
	t.Parallel()

	pt := newTestTable(t)
	s, err := sampler.New(pt)
	require.NoError(t, err)

	_, err = Build(s, pt, []string{"A", "B", "Z"}, 3, 1, 0)
	assert.Error(t, err)
}

func TestBuildRejectsZeroCapacity(t *testing.T) {
	t.Parallel()

	pt := newTestTable(t)
	s, err := sampler.New(pt)
	require.NoError(t, err)

	_, err = Build(s, pt, []string{"A", "B", "C"}, 0, 1, 0)
	assert.Error(t, err)
}

func TestBuildIsDeterministicGivenSameSeedAndTrial(t *testing.T) {
	t.Parallel()

	pt := newTestTable(t)
	s, err := sampler.New(pt)
	require.NoError(t, err)

	c1, err := Build(s, pt, []string{"A", "B", "C"}, 5, 42, 7)
	require.NoError(t, err)
	c2, err := Build(s, pt, []string{"A", "B", "C"}, 5, 42, 7)
	require.NoError(t, err)

	assert.Equal(t, c1.Preferences, c2.Preferences)
}

func TestBuildDiffersAcrossTrials(t *testing.T) {
	t.Parallel()

	pt := newTestTable(t)
	s, err := sampler.New(pt)
	require.NoError(t, err)

	c1, err := Build(s, pt, []string{"A", "B", "C"}, 5, 42, 1)
	require.NoError(t, err)
	c2, err := Build(s, pt, []string{"A", "B", "C"}, 5, 42, 2)
	require.NoError(t, err)

	assert.NotEqual(t, c1.Preferences, c2.Preferences)
}
