package trade

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/mat"
)

func TestTradeProducesRowStochasticCapacityRespectingMatrix(t *testing.T) {
	t.Parallel()

	prefs := [][]int{
		{0, 1, 2},
		{1, 0, 2},
		{2, 1, 0},
	}
	// A baseline RSD matrix consistent with each candidate's own top
	// choice being most likely.
	probs := mat.NewDense(3, 3, []float64{
		0.6, 0.3, 0.1,
		0.3, 0.6, 0.1,
		0.1, 0.2, 0.7,
	})
	capacities := []int{1, 1, 1}

	traded, err := Trade(prefs, probs, capacities, 1e-9)
	require.NoError(t, err)

	k, n := traded.Dims()
	require.Equal(t, 3, k)
	require.Equal(t, 3, n)

	for c := 0; c < k; c++ {
		rowSum := 0.0
		for s := 0; s < n; s++ {
			v := traded.At(c, s)
			assert.GreaterOrEqual(t, v, -1e-9)
			rowSum += v
		}
		assert.InDelta(t, 1.0, rowSum, 1e-6, "candidate %d row must be stochastic", c)
	}
	for s := 0; s < n; s++ {
		colSum := 0.0
		for c := 0; c < k; c++ {
			colSum += traded.At(c, s)
		}
		assert.LessOrEqual(t, colSum, float64(capacities[s])+1e-6, "site %d column exceeds capacity", s)
	}
}

func TestTradeSatisfiesIndividualRationality(t *testing.T) {
	t.Parallel()

	prefs := [][]int{
		{0, 1, 2},
		{1, 0, 2},
		{2, 1, 0},
	}
	probs := mat.NewDense(3, 3, []float64{
		0.5, 0.3, 0.2,
		0.3, 0.5, 0.2,
		0.2, 0.3, 0.5,
	})
	capacities := []int{1, 1, 1}
	n := 3

	baselineUtility := func(c int) float64 {
		u := 0.0
		for rank, site := range prefs[c] {
			w := float64(n - rank)
			u += probs.At(c, site) * w * w
		}
		return u
	}
	tradedUtility := func(traded *mat.Dense, c int) float64 {
		u := 0.0
		for rank, site := range prefs[c] {
			w := float64(n - rank)
			u += traded.At(c, site) * w * w
		}
		return u
	}

	traded, err := Trade(prefs, probs, capacities, 1e-9)
	require.NoError(t, err)

	for c := 0; c < 3; c++ {
		assert.GreaterOrEqual(t, tradedUtility(traded, c), baselineUtility(c)-1e-6,
			"candidate %d must be at least as well off as under the RSD baseline", c)
	}
}

func TestTradeRejectsEmptyInput(t *testing.T) {
	t.Parallel()

	_, err := Trade(nil, mat.NewDense(0, 0, nil), nil, 1e-9)
	assert.Error(t, err)
}
