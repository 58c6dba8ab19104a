// Package rsd implements Random Serial Dictatorship and its probability
// matrix, grounded on original_source/rsd.py (run_single_rsd,
// calculate_rsd_probabilities, get_rank_probabilities).
package rsd

import (
	"math/rand/v2"

	"gonum.org/v1/gonum/mat"

	"github.com/sitematch/matchsim/pkg/matcherr"
)

// Engine runs RSD assignment for a fixed set of site capacities.
type Engine struct {
	capacities []int
}

// New builds an Engine over capacities (dense site index -> capacity).
func New(capacities []int) (*Engine, error) {
	for _, c := range capacities {
		if c < 0 {
			return nil, matcherr.NewCapacity("site capacity must be non-negative")
		}
	}
	return &Engine{capacities: append([]int(nil), capacities...)}, nil
}

// RunOnce executes one RSD draw: candidates are processed in a uniformly
// random order, each claiming the most-preferred site with remaining
// capacity. Assignment[c] is the matched site index, or -1 if c's whole
// list was exhausted before a free seat was found.
func (e *Engine) RunOnce(prefs [][]int, rng *rand.Rand) []int {
	k := len(prefs)
	n := len(e.capacities)
	remaining := append([]int(nil), e.capacities...)
	assignment := make([]int, k)
	for i := range assignment {
		assignment[i] = -1
	}

	order := make([]int, k)
	for i := range order {
		order[i] = i
	}
	rng.Shuffle(k, func(i, j int) { order[i], order[j] = order[j], order[i] })

	for _, c := range order {
		for _, site := range prefs[c] {
			if site < 0 || site >= n {
				continue
			}
			if remaining[site] > 0 {
				assignment[c] = site
				remaining[site]--
				break
			}
		}
	}

	return assignment
}

// ProbabilityMatrix estimates, by Monte-Carlo over nSimulations RSD
// draws, P[c][s] = the fraction of draws in which candidate c was
// assigned site s. Rows sum to at most 1 (the remainder is the
// probability of going unmatched).
func (e *Engine) ProbabilityMatrix(prefs [][]int, nSimulations int, rng *rand.Rand) *mat.Dense {
	k := len(prefs)
	n := len(e.capacities)
	counts := mat.NewDense(k, n, nil)

	for t := 0; t < nSimulations; t++ {
		assignment := e.RunOnce(prefs, rng)
		for c, site := range assignment {
			if site >= 0 {
				counts.Set(c, site, counts.At(c, site)+1)
			}
		}
	}

	probs := mat.NewDense(k, n, nil)
	probs.Scale(1/float64(nSimulations), counts)
	return probs
}

// RankProbabilities converts a per-site probability matrix into a
// per-rank probability matrix: out[c][r] is the probability candidate c
// is assigned the site they ranked r-th (spec's original
// get_rank_probabilities, kept for parity with the reporting the Python
// implementation printed alongside every trading run).
func RankProbabilities(prefs [][]int, probs *mat.Dense) *mat.Dense {
	k := len(prefs)
	n := 0
	if k > 0 {
		n = len(prefs[0])
	}
	out := mat.NewDense(k, n, nil)
	for c := 0; c < k; c++ {
		for rank, site := range prefs[c] {
			out.Set(c, rank, probs.At(c, site))
		}
	}
	return out
}
