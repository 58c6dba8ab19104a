// Package driver runs the Monte-Carlo simulation described in spec §4.6:
// many independent trials, each building a fresh cohort and clearing it
// with either deferred acceptance or RSD+Trade, aggregated into a
// ResultVector over sites. The worker-pool shape is grounded on
// other_examples/dcb14430_Guimove-clusterfit__internal-simulation-engine.go.go's
// Engine.RunAll (semaphore-bounded goroutines + WaitGroup, per-index result
// slice, context cancellation); the per-trial semantics are grounded on
// original_source/utils.py:run_simulation.
package driver

import (
	"context"
	"fmt"
	"math/rand/v2"
	"runtime"
	"sort"
	"sync"
	"time"

	"gonum.org/v1/gonum/mat"

	"github.com/sitematch/matchsim/internal/seeding"
	"github.com/sitematch/matchsim/internal/telemetry"
	"github.com/sitematch/matchsim/pkg/cohort"
	"github.com/sitematch/matchsim/pkg/config"
	"github.com/sitematch/matchsim/pkg/da"
	"github.com/sitematch/matchsim/pkg/matcherr"
	"github.com/sitematch/matchsim/pkg/rsd"
	"github.com/sitematch/matchsim/pkg/sampler"
	"github.com/sitematch/matchsim/pkg/tables"
	"github.com/sitematch/matchsim/pkg/trade"
)

// ResultVector holds, for the candidate the driver simulated, the
// percentage of trials assigned each site; sites are in the PriorityTable's
// dense order and the vector sums to at most 100 (any remainder is the
// percentage of trials the candidate went unmatched).
type ResultVector struct {
	Sites       []string
	Percentages []float64
}

// Top returns the n sites with the highest assignment percentage,
// highest first, ties broken by site identifier for determinism.
func (r ResultVector) Top(n int) []SiteShare {
	shares := make([]SiteShare, len(r.Sites))
	for i, s := range r.Sites {
		shares[i] = SiteShare{Site: s, Percentage: r.Percentages[i]}
	}
	sort.Slice(shares, func(i, j int) bool {
		if shares[i].Percentage != shares[j].Percentage {
			return shares[i].Percentage > shares[j].Percentage
		}
		return shares[i].Site < shares[j].Site
	})
	if n < len(shares) {
		shares = shares[:n]
	}
	return shares
}

// SiteShare is one entry of a ResultVector ranked by Top.
type SiteShare struct {
	Site       string
	Percentage float64
}

// Summary reports the rank-probability statistics the Python tool
// printed after every run (original_source/probability_trading.py:
// print_assignment_stats), for the real candidate only: the average,
// over all trials, of the candidate's traded probability of landing each
// ranked choice. Populated only for the RSD+Trade method,
// where a full cohort probability matrix exists; DA trials only ever
// resolve a single candidate's realized site and have no matrix to
// average over.
type Summary struct {
	AverageRankProbability []float64
}

// Driver runs the configured number of independent trials for one
// candidate against one year's tables.
type Driver struct {
	priorities *tables.PriorityTable
	capacities []int
	sampler    *sampler.Sampler
	metrics    *telemetry.Metrics
}

// New builds a Driver for a year's PriorityTable/CapacityTable pair.
func New(priorities *tables.PriorityTable, capacityTable *tables.CapacityTable, metrics *telemetry.Metrics) (*Driver, error) {
	caps, err := capacityTable.AlignedCapacities(priorities)
	if err != nil {
		return nil, err
	}
	s, err := sampler.New(priorities)
	if err != nil {
		return nil, err
	}
	return &Driver{priorities: priorities, capacities: caps, sampler: s, metrics: metrics}, nil
}

// Run simulates candidatePrefs (site identifiers, a full permutation of
// this year's sites) opt.NPermutations times and returns the resulting
// ResultVector, plus a Summary when opt.Method is RSD+Trade.
func (d *Driver) Run(ctx context.Context, candidatePrefs []string, opt config.Options) (*ResultVector, *Summary, error) {
	opt = opt.WithDefaults()

	totalCapacity := 0
	for _, c := range d.capacities {
		totalCapacity += c
	}
	if totalCapacity < 1 {
		return nil, nil, matcherr.NewCapacity("year has zero total capacity across all sites")
	}

	masterSeed := opt.Seed
	if !opt.HasSeed {
		masterSeed = rand.Uint64()
	}

	n := d.priorities.NumSites()
	counts := make([]float64, n) // DA: count-based tally
	probSum := make([]float64, n) // RSD+Trade: continuous-probability accumulator

	rankSum := make([]float64, n)
	rankSamples := 0

	parallelism := runtime.NumCPU()
	sem := make(chan struct{}, parallelism)
	var wg sync.WaitGroup
	var mu sync.Mutex
	var firstErr error
	var completed int
	cancelled := false

dispatch:
	for trial := 0; trial < opt.NPermutations; trial++ {
		if opt.Cancel != nil && opt.Cancel() {
			cancelled = true
			break dispatch
		}
		select {
		case <-ctx.Done():
			cancelled = true
			break dispatch
		default:
		}

		wg.Add(1)
		sem <- struct{}{}
		go func(trial int) {
			defer wg.Done()
			defer func() { <-sem }()

			start := time.Now()
			site, probRow, rankProbs, err := d.runOneTrial(candidatePrefs, totalCapacity, masterSeed, trial, opt)

			mu.Lock()
			defer mu.Unlock()
			completed++
			if err != nil {
				if firstErr == nil {
					firstErr = fmt.Errorf("trial %d: %w", trial, err)
				}
				d.metrics.ObserveTrial(string(opt.Method), start, "error")
				return
			}
			if probRow != nil {
				for s, v := range probRow {
					probSum[s] += v
				}
			} else if site >= 0 {
				counts[site]++
				d.metrics.ObserveAssignment(d.priorities.Sites()[site])
			}
			if rankProbs != nil {
				for r, v := range rankProbs {
					rankSum[r] += v
				}
				rankSamples++
			}
			d.metrics.ObserveTrial(string(opt.Method), start, "ok")
			if opt.Progress != nil {
				opt.Progress(float64(completed) / float64(opt.NPermutations))
			}
		}(trial)
	}

	// Wait for every already-dispatched trial to finish before reading any
	// shared state, cancelled or not: a bare early return here would leak
	// the in-flight goroutines above and race on completed/counts/probSum
	// with the read below (spec §5, "terminate the run cleanly").
	wg.Wait()

	if cancelled {
		mu.Lock()
		completedAtCancel := completed
		mu.Unlock()
		return nil, nil, matcherr.NewCancelled(completedAtCancel)
	}

	if firstErr != nil {
		return nil, nil, firstErr
	}

	total := float64(opt.NPermutations)
	pct := make([]float64, n)
	switch opt.Method {
	case config.RSDTrade:
		for i, p := range probSum {
			pct[i] = p / total * 100
		}
	default:
		for i, c := range counts {
			pct[i] = c / total * 100
		}
	}

	var summary *Summary
	if rankSamples > 0 {
		avg := make([]float64, len(rankSum))
		for i, v := range rankSum {
			avg[i] = v / float64(rankSamples)
		}
		summary = &Summary{AverageRankProbability: avg}
	}

	return &ResultVector{Sites: d.priorities.Sites(), Percentages: pct}, summary, nil
}

// runOneTrial builds one fresh cohort and clears it. For DA it returns
// the candidate's assigned site index (-1 if unmatched) and a nil
// probability row. For RSD+Trade it returns the candidate's continuous
// per-site probability row from that trial's traded matrix (spec §4.5,
// §4.6: the driver averages this row across trials directly, rather
// than resampling a single hard assignment from it) alongside the
// per-rank probability row used for Summary.
func (d *Driver) runOneTrial(candidatePrefs []string, totalCapacity int, masterSeed uint64, trial int, opt config.Options) (site int, probRow []float64, rankProbs []float64, err error) {
	c, err := cohort.Build(d.sampler, d.priorities, candidatePrefs, totalCapacity, masterSeed, trial)
	if err != nil {
		return -1, nil, nil, err
	}

	switch opt.Method {
	case config.DA:
		engine, err := da.New(d.capacities)
		if err != nil {
			return -1, nil, nil, err
		}
		rng := seeding.ForTrial(masterSeed, trial)
		result, err := engine.Run(c.Preferences, rng)
		if err != nil {
			return -1, nil, nil, err
		}
		return result.Assignment[0], nil, nil, nil

	case config.RSDTrade:
		engine, err := rsd.New(d.capacities)
		if err != nil {
			return -1, nil, nil, err
		}
		rng := seeding.ForTrial(masterSeed, trial)
		probs := engine.ProbabilityMatrix(c.Preferences, opt.RSDInner, rng)
		traded, err := trade.Trade(c.Preferences, probs, d.capacities, config.SimplexTolerance)
		if err != nil {
			return -1, nil, nil, err
		}
		rankRow := rsd.RankProbabilities(c.Preferences, traded)
		return -1, rowOf(traded, 0), rowOf(rankRow, 0), nil

	default:
		return -1, nil, nil, matcherr.NewConfig("unknown simulation method: "+string(opt.Method), nil)
	}
}

func rowOf(m *mat.Dense, row int) []float64 {
	_, cols := m.Dims()
	out := make([]float64, cols)
	for j := 0; j < cols; j++ {
		out[j] = m.At(row, j)
	}
	return out
}
