// Package trade implements the probability-trading linear program (spec
// §4.5), grounded on original_source/probability_trading.py
// (trade_probabilities). The original solves with pulp/CBC; this port
// uses gonum's Simplex solver, already part of the numerical stack the
// teacher depends on for its own optimization work (pkg/tuner, before
// it was trimmed), instead of a private MILP wrapper or a fabricated
// binding to a solver this module can't actually fetch.
package trade

import (
	"fmt"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/optimize/convex/lp"

	"github.com/sitematch/matchsim/pkg/matcherr"
)

// Trade solves the squared-rank-utility LP anchored on an RSD baseline
// probs (K x N): maximize total squared-rank happiness subject to row-
// stochasticity, individual rationality against the baseline, and
// column (site) capacity. It returns the optimized K x N probability
// matrix.
func Trade(prefs [][]int, probs *mat.Dense, capacities []int, tol float64) (*mat.Dense, error) {
	k := len(prefs)
	n := len(capacities)
	if k == 0 || n == 0 {
		return nil, matcherr.NewConfig("trade requires a non-empty cohort and site set", nil)
	}

	weight := make([][]float64, k)
	for s := 0; s < k; s++ {
		weight[s] = make([]float64, n)
		for rank, site := range prefs[s] {
			w := float64(n - rank)
			weight[s][site] = w * w
		}
	}

	happiness := make([]float64, k)
	for s := 0; s < k; s++ {
		var h float64
		for site := 0; site < n; site++ {
			h += probs.At(s, site) * weight[s][site]
		}
		happiness[s] = h
	}

	// Variable layout: x[s*n+h] (assignment probs), then K surplus vars
	// for the IR constraints, then N slack vars for capacity.
	numX := k * n
	numSurplus := k
	numSlack := n
	numVars := numX + numSurplus + numSlack

	numRows := k /*IR*/ + k /*row-stochastic*/ + n /*capacity*/
	A := mat.NewDense(numRows, numVars, nil)
	b := make([]float64, numRows)
	c := make([]float64, numVars) // minimized; negate to maximize happiness

	for s := 0; s < k; s++ {
		for site := 0; site < n; site++ {
			c[s*n+site] = -weight[s][site]
		}
	}

	row := 0
	// IR: sum_h w[s,h]*x[s,h] - surplus_s = happiness[s]
	for s := 0; s < k; s++ {
		for site := 0; site < n; site++ {
			A.Set(row, s*n+site, weight[s][site])
		}
		A.Set(row, numX+s, -1)
		b[row] = happiness[s]
		row++
	}
	// Row-stochastic: sum_h x[s,h] = 1
	for s := 0; s < k; s++ {
		for site := 0; site < n; site++ {
			A.Set(row, s*n+site, 1)
		}
		b[row] = 1
		row++
	}
	// Capacity: sum_s x[s,h] + slack_h = cap[h]
	for site := 0; site < n; site++ {
		for s := 0; s < k; s++ {
			A.Set(row, s*n+site, 1)
		}
		A.Set(row, numX+numSurplus+site, 1)
		b[row] = float64(capacities[site])
		row++
	}

	_, x, err := lp.Simplex(c, A, b, tol, nil)
	if err != nil {
		return nil, matcherr.NewOptimization(fmt.Sprintf("probability trading LP (%d candidates, %d sites)", k, n), err)
	}

	out := mat.NewDense(k, n, nil)
	for s := 0; s < k; s++ {
		for site := 0; site < n; site++ {
			v := x[s*n+site]
			if v < 0 {
				v = 0
			}
			out.Set(s, site, v)
		}
	}
	return out, nil
}
