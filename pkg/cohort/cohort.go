// Package cohort builds one full match cohort: the real candidate's
// preference list at row 0, plus TotalCapacity-1 sampled peers (spec §4.2).
package cohort

import (
	"math/rand/v2"

	"github.com/sitematch/matchsim/internal/seeding"
	"github.com/sitematch/matchsim/pkg/matcherr"
	"github.com/sitematch/matchsim/pkg/sampler"
	"github.com/sitematch/matchsim/pkg/tables"
)

// Cohort is K ordered preference lists (each a permutation of site
// indices 0..N-1); row 0 is the real candidate.
type Cohort struct {
	Preferences [][]int
}

// Size returns K.
func (c *Cohort) Size() int { return len(c.Preferences) }

// Build validates candidatePrefs (as site identifiers) against table and
// draws the remaining totalCapacity-1 peer preference lists from s,
// using masterSeed and trial to derive reproducible per-peer streams.
func Build(s *sampler.Sampler, table *tables.PriorityTable, candidatePrefs []string, totalCapacity int, masterSeed uint64, trial int) (*Cohort, error) {
	if totalCapacity < 1 {
		return nil, matcherr.NewCapacity("total capacity must be at least 1")
	}

	n := table.NumSites()
	candidateIdx, err := toIndices(table, candidatePrefs)
	if err != nil {
		return nil, err
	}
	if err := validatePermutation(candidateIdx, n); err != nil {
		return nil, err
	}

	prefs := make([][]int, totalCapacity)
	prefs[0] = candidateIdx

	for peer := 1; peer < totalCapacity; peer++ {
		rng := seeding.ForPeer(masterSeed, trial, peer)
		prefs[peer] = s.Draw(rng)
	}

	return &Cohort{Preferences: prefs}, nil
}

// BuildWithRand is like Build but takes an explicit RNG, one draw per
// peer, useful for tests and for callers that manage their own streams.
func BuildWithRand(s *sampler.Sampler, table *tables.PriorityTable, candidatePrefs []string, totalCapacity int, rng *rand.Rand) (*Cohort, error) {
	if totalCapacity < 1 {
		return nil, matcherr.NewCapacity("total capacity must be at least 1")
	}
	n := table.NumSites()
	candidateIdx, err := toIndices(table, candidatePrefs)
	if err != nil {
		return nil, err
	}
	if err := validatePermutation(candidateIdx, n); err != nil {
		return nil, err
	}

	prefs := make([][]int, totalCapacity)
	prefs[0] = candidateIdx
	for peer := 1; peer < totalCapacity; peer++ {
		prefs[peer] = s.Draw(rng)
	}
	return &Cohort{Preferences: prefs}, nil
}

func toIndices(table *tables.PriorityTable, prefs []string) ([]int, error) {
	out := make([]int, len(prefs))
	for i, site := range prefs {
		idx := table.SiteIndex(site)
		if idx < 0 {
			return nil, matcherr.NewConfig("candidate list references unknown site: "+site, nil)
		}
		out[i] = idx
	}
	return out, nil
}

// validatePermutation requires exactly one entry per site 0..n-1. A
// short or padded list is rejected rather than silently completed: the
// original implementation never pads (see original_source/utils.py),
// and inventing a padding policy would assign the candidate preferences
// they never stated.
func validatePermutation(idx []int, n int) error {
	if len(idx) != n {
		return matcherr.NewConfig("candidate preference list must list every site exactly once", nil)
	}
	seen := make([]bool, n)
	for _, i := range idx {
		if seen[i] {
			return matcherr.NewConfig("candidate preference list contains a duplicate site", nil)
		}
		seen[i] = true
	}
	return nil
}
