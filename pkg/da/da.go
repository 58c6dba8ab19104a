// Package da implements tie-aware, capacity-limited deferred acceptance
// (spec §4.3), grounded on the proposer-side Gale-Shapley loop in
// original_source/utils.py:match_interns_to_hospitals and structured,
// wrapper-around-a-Result shape, after the teacher's solver dispatch
// pattern (pkg/solver/solver.go's Solver/Solve before it was trimmed).
package da

import (
	"math/rand/v2"
	"sort"

	"github.com/sitematch/matchsim/pkg/matcherr"
)

// Result is the outcome of one deferred-acceptance run: Assignment[c] is
// the site index matched to candidate c, or -1 if c went unmatched.
type Result struct {
	Assignment []int
}

// holding is one candidate's tentative hold at a site: the candidate
// index and the 0-based rank at which they proposed to it (lower is
// better — it is the candidate's own priority for the site, which spec
// §4.3 uses as the site's acceptance order over its proposers).
type holding struct {
	candidate int
	rankUsed  int
}

// Engine runs deferred acceptance for a fixed set of site capacities.
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

// Run executes deferred acceptance over prefs (K candidates, each a
// permutation of all site indices) and returns each candidate's match.
//
// A site resolves an oversubscribed hold list by grouping holders by
// rank_used — the rank the candidate themself assigned to that site —
// and accepting in ascending rank_used order (spec §4.3 step 4): a
// candidate who ranked this site 1st always beats one who ranked it
// 5th, regardless of proposal timing. Within a group whose members
// can't all fit, the acceptance lottery samples without replacement
// uniformly from that group alone, modelling the real lottery structure
// being studied. This never alters a candidate's own stated preference
// list (spec §9 open question on tie-breaking scope).
func (e *Engine) Run(prefs [][]int, rng *rand.Rand) (*Result, error) {
	k := len(prefs)
	n := len(e.capacities)
	for _, p := range prefs {
		if len(p) != n {
			return nil, matcherr.NewConfig("every preference list must rank all sites", nil)
		}
	}

	next := make([]int, k)    // next proposal index for candidate c
	matched := make([]int, k) // site currently held by candidate c, or -1
	for c := range matched {
		matched[c] = -1
	}
	holders := make([][]holding, n) // candidates currently held by site s

	free := make([]int, k)
	for c := range free {
		free[c] = c
	}

	for len(free) > 0 {
		proposals := make([][]holding, n) // site -> proposing (candidate, rankUsed) this round
		var stillFree []int
		for _, c := range free {
			if next[c] >= n {
				continue // exhausted list, stays unmatched
			}
			rankUsed := next[c]
			site := prefs[c][rankUsed]
			next[c]++
			proposals[site] = append(proposals[site], holding{candidate: c, rankUsed: rankUsed})
		}

		for site, proposers := range proposals {
			if len(proposers) == 0 {
				continue
			}
			pool := append(append([]holding(nil), holders[site]...), proposers...)
			sort.Slice(pool, func(i, j int) bool { return pool[i].rankUsed < pool[j].rankUsed })

			cap := e.capacities[site]
			var kept []holding
			groupStart := 0
			for groupStart < len(pool) && len(kept) < cap {
				groupEnd := groupStart
				for groupEnd < len(pool) && pool[groupEnd].rankUsed == pool[groupStart].rankUsed {
					groupEnd++
				}
				group := pool[groupStart:groupEnd]
				remaining := cap - len(kept)
				if remaining >= len(group) {
					kept = append(kept, group...)
				} else {
					kept = append(kept, sampleWithoutReplacement(rng, group, remaining)...)
				}
				groupStart = groupEnd
			}
			rejected := setDiff(pool, kept)

			for _, h := range kept {
				matched[h.candidate] = site
			}
			holders[site] = kept

			for _, h := range rejected {
				matched[h.candidate] = -1
				stillFree = append(stillFree, h.candidate)
			}
		}

		free = stillFree
	}

	return &Result{Assignment: matched}, nil
}

// sampleWithoutReplacement returns m elements drawn uniformly without
// replacement from group, via a partial Fisher-Yates shuffle (spec §9,
// "reservoir-sampling or Fisher-Yates-partial approach rather than
// materializing shuffled copies").
func sampleWithoutReplacement(rng *rand.Rand, group []holding, m int) []holding {
	pool := append([]holding(nil), group...)
	for i := 0; i < m; i++ {
		j := i + rng.IntN(len(pool)-i)
		pool[i], pool[j] = pool[j], pool[i]
	}
	return pool[:m]
}

// setDiff returns the members of pool not present in kept, matched by
// candidate index (each candidate appears at most once in pool).
func setDiff(pool, kept []holding) []holding {
	keptSet := make(map[int]bool, len(kept))
	for _, h := range kept {
		keptSet[h.candidate] = true
	}
	out := make([]holding, 0, len(pool)-len(kept))
	for _, h := range pool {
		if !keptSet[h.candidate] {
			out = append(out, h)
		}
	}
	return out
}
