// Command matchsim runs the matching-simulation engine against a tiny
// synthetic year and prints the resulting assignment percentages. The
// plain os.Args parsing follows cmd/optimizer/main.go's style in the
// teacher repo rather than pulling in a flag framework the teacher
// itself never used outside the operator's controller-runtime binary.
package main

import (
	"context"
	"fmt"
	"os"
	"strconv"

	"github.com/sitematch/matchsim/internal/telemetry"
	"github.com/sitematch/matchsim/pkg/config"
	"github.com/sitematch/matchsim/pkg/driver"
	"github.com/sitematch/matchsim/pkg/tables"
)

func main() {
	method := config.DA
	if len(os.Args) > 1 && os.Args[1] == string(config.RSDTrade) {
		method = config.RSDTrade
	}

	nPermutations := config.DefaultNPermutations
	if len(os.Args) > 2 {
		if n, err := strconv.Atoi(os.Args[2]); err == nil && n > 0 {
			nPermutations = n
		}
	}

	if err := run(method, nPermutations); err != nil {
		telemetry.Log.Errorw("matchsim run failed", "error", err)
		os.Exit(1)
	}
}

func run(method config.Method, nPermutations int) error {
	sites := []string{"North", "South", "East", "West"}

	priorities, err := tables.NewPriorityTable(sites, [][]float64{
		{40, 20, 10, 5},
		{10, 30, 15, 10},
		{5, 15, 25, 20},
		{5, 5, 10, 25},
	})
	if err != nil {
		return fmt.Errorf("building priority table: %w", err)
	}

	capacities, err := tables.NewCapacityTable(sites, []int{3, 2, 2, 1})
	if err != nil {
		return fmt.Errorf("building capacity table: %w", err)
	}

	metrics, err := telemetry.NewMetrics(nil)
	if err != nil {
		return fmt.Errorf("building metrics: %w", err)
	}

	d, err := driver.New(priorities, capacities, metrics)
	if err != nil {
		return fmt.Errorf("building driver: %w", err)
	}

	candidate := []string{"West", "North", "East", "South"}
	opt := config.Options{
		NPermutations: nPermutations,
		Method:        method,
		Seed:          42,
		HasSeed:       true,
	}

	result, summary, err := d.Run(context.Background(), candidate, opt)
	if err != nil {
		return fmt.Errorf("running simulation: %w", err)
	}

	telemetry.Log.Infow("simulation complete", "method", method, "trials", nPermutations)
	for _, share := range result.Top(len(result.Sites)) {
		fmt.Printf("%-10s %6.2f%%\n", share.Site, share.Percentage)
	}
	if summary != nil {
		for rank, p := range summary.AverageRankProbability {
			fmt.Printf("avg P(rank %d) = %.4f\n", rank+1, p)
		}
	}

	return nil
}
