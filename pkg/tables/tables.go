// Package tables holds the immutable per-year inputs: the priority
// (rank-count) table and the capacity table, with site identifiers
// interned to dense integers 0..N-1 so the hot matching paths never do
// string-keyed lookups (spec §9 "Tabular inputs").
package tables

import (
	"math"

	"gonum.org/v1/gonum/mat"

	"github.com/sitematch/matchsim/pkg/matcherr"
)

// PriorityTable is an N-site x R-rank matrix of historical observed
// counts: Counts.At(s, r) is how many candidates ranked site s at
// position r+1 (0-based rank index internally, 1-based in the spec).
type PriorityTable struct {
	sites  []string
	index  map[string]int
	counts *mat.Dense // N x R
}

// NewPriorityTable builds a PriorityTable from site identifiers (order
// defines the dense index 0..N-1) and an N x R matrix of raw counts.
// NaN entries are coerced to 0 per spec §4.1.
func NewPriorityTable(sites []string, counts [][]float64) (*PriorityTable, error) {
	n := len(sites)
	if n < 1 {
		return nil, matcherr.NewConfig("priority table must have at least one site", nil)
	}
	if len(counts) != n {
		return nil, matcherr.NewConfig("priority table row count must match number of sites", nil)
	}
	r := 0
	if n > 0 {
		r = len(counts[0])
	}
	dense := mat.NewDense(n, r, nil)
	index := make(map[string]int, n)
	for i, s := range sites {
		if _, dup := index[s]; dup {
			return nil, matcherr.NewConfig("duplicate site identifier: "+s, nil)
		}
		index[s] = i
		if len(counts[i]) != r {
			return nil, matcherr.NewConfig("priority table rows must all have the same number of rank columns", nil)
		}
		for j, v := range counts[i] {
			if math.IsNaN(v) || v < 0 {
				v = 0
			}
			dense.Set(i, j, v)
		}
	}
	return &PriorityTable{sites: append([]string(nil), sites...), index: index, counts: dense}, nil
}

// NumSites returns N.
func (t *PriorityTable) NumSites() int { return len(t.sites) }

// NumRanks returns R.
func (t *PriorityTable) NumRanks() int { return t.counts.RawMatrix().Cols }

// Sites returns the site identifiers in dense-index order. The returned
// slice must not be mutated.
func (t *PriorityTable) Sites() []string { return t.sites }

// SiteIndex returns the dense index for a site identifier, or -1 if the
// site is not part of this year's table.
func (t *PriorityTable) SiteIndex(site string) int {
	if i, ok := t.index[site]; ok {
		return i
	}
	return -1
}

// RankColumn returns a copy of the raw counts for rank r (0-based).
func (t *PriorityTable) RankColumn(r int) []float64 {
	n := t.NumSites()
	col := make([]float64, n)
	for i := 0; i < n; i++ {
		col[i] = t.counts.At(i, r)
	}
	return col
}

// CapacityTable maps interned site index -> integer capacity.
type CapacityTable struct {
	sites []string
	index map[string]int
	cap   []int
}

// NewCapacityTable builds a CapacityTable. sites defines the dense
// index; cap[i] is the capacity of sites[i].
func NewCapacityTable(sites []string, cap []int) (*CapacityTable, error) {
	if len(sites) != len(cap) {
		return nil, matcherr.NewConfig("capacity table site/capacity length mismatch", nil)
	}
	index := make(map[string]int, len(sites))
	out := make([]int, len(cap))
	for i, s := range sites {
		if _, dup := index[s]; dup {
			return nil, matcherr.NewConfig("duplicate site identifier: "+s, nil)
		}
		index[s] = i
		if cap[i] < 0 {
			return nil, matcherr.NewConfig("capacity must be non-negative", nil)
		}
		out[i] = cap[i]
	}
	return &CapacityTable{sites: append([]string(nil), sites...), index: index, cap: out}, nil
}

// NumSites returns N.
func (c *CapacityTable) NumSites() int { return len(c.sites) }

// Sites returns the site identifiers in dense-index order.
func (c *CapacityTable) Sites() []string { return c.sites }

// Capacity returns cap(s) for the site at dense index s.
func (c *CapacityTable) Capacity(s int) int { return c.cap[s] }

// Total returns TotalCapacity = sum of all capacities.
func (c *CapacityTable) Total() int {
	total := 0
	for _, v := range c.cap {
		total += v
	}
	return total
}

// AlignedCapacities returns, for every site index in priority table
// order, the capacity from this table. It returns a ConfigError if the
// site sets don't match exactly (a site absent here included), since a
// mismatched year's tables indicate a caller bug (spec §7, "malformed
// tables").
func (c *CapacityTable) AlignedCapacities(pt *PriorityTable) ([]int, error) {
	if c.NumSites() != pt.NumSites() {
		return nil, matcherr.NewConfig("priority and capacity tables disagree on number of sites", nil)
	}
	out := make([]int, pt.NumSites())
	for i, site := range pt.Sites() {
		idx, ok := c.index[site]
		if !ok {
			return nil, matcherr.NewConfig("capacity table missing site: "+site, nil)
		}
		out[i] = c.cap[idx]
	}
	return out, nil
}
