// Package sampler draws synthetic peer preference lists that are
// statistically consistent with a year's PriorityTable (spec §4.1).
package sampler

import (
	"math/rand/v2"

	"gonum.org/v1/gonum/stat/distuv"

	"github.com/sitematch/matchsim/pkg/matcherr"
	"github.com/sitematch/matchsim/pkg/tables"
)

// source63 adapts a math/rand/v2 generator to the math/rand.Source
// interface gonum's distuv package expects, so every draw in this
// module still flows through the counter-based per-trial *rand.Rand
// handed down from internal/seeding.
type source63 struct{ r *rand.Rand }

func (s source63) Int63() int64 { return int64(s.r.Uint64() >> 1) }
func (s source63) Seed(int64)   {}

// Sampler draws permutations of a fixed set of sites using
// position-conditional categorical sampling without replacement.
type Sampler struct {
	table *tables.PriorityTable
}

// New builds a Sampler over table. table.NumSites() must be >= 1.
func New(table *tables.PriorityTable) (*Sampler, error) {
	if table.NumSites() < 1 {
		return nil, matcherr.NewConfig("priority table has no sites", nil)
	}
	return &Sampler{table: table}, nil
}

// Draw produces one permutation of all N site indices, distributed like
// the empirical ranking behavior encoded by the PriorityTable.
func (s *Sampler) Draw(rng *rand.Rand) []int {
	n := s.table.NumSites()
	rnk := s.table.NumRanks()

	available := make([]int, n)
	for i := range available {
		available[i] = i
	}
	out := make([]int, 0, n)

	for r := 0; r < rnk && len(available) > 0; r++ {
		col := s.table.RankColumn(r)
		idx := drawOne(rng, available, col)
		out = append(out, available[idx])
		available = removeAt(available, idx)
	}

	// N > R: remaining sites (not drawn at any of the R ranks) are
	// appended in uniform random order.
	for len(available) > 0 {
		idx := rng.IntN(len(available))
		out = append(out, available[idx])
		available = removeAt(available, idx)
	}

	return out
}

// drawOne picks one index into `available`, weighted by col restricted
// to those entries; falls back to uniform when the restricted weights
// sum to zero (spec §4.1 step 3, "rank column of all zeros").
func drawOne(rng *rand.Rand, available []int, col []float64) int {
	weights := make([]float64, len(available))
	var total float64
	for i, site := range available {
		w := col[site]
		weights[i] = w
		total += w
	}
	if total <= 0 {
		return rng.IntN(len(available))
	}
	dist := distuv.Categorical{Weights: weights, Src: source63{rng}}
	return int(dist.Rand())
}

func removeAt(s []int, i int) []int {
	last := len(s) - 1
	s[i] = s[last]
	return s[:last]
}
