package optimizer

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/levenlabs/go-lflag"
	"gonum.org/v1/gonum/floats"

	"github.com/raterudder/pvsizer/pkg/log"
	"github.com/raterudder/pvsizer/pkg/types"
)

// Optimizer sweeps PV capacities and picks the cheapest one.
type Optimizer struct {
	workers int
}

// NewOptimizer creates an Optimizer that evaluates candidates on the given
// number of goroutines. Anything below 2 runs the sweep sequentially.
func NewOptimizer(workers int) *Optimizer {
	return &Optimizer{workers: workers}
}

// Configured sets up the Optimizer based on flags.
func Configured() *Optimizer {
	o := &Optimizer{}
	workers := 1
	lflag.JSON(&workers, "optimizer-workers", workers, "Number of goroutines used to evaluate candidate capacities")

	lflag.Do(func() {
		o.workers = workers
	})

	return o
}

// Optimize evaluates every capacity of the scenario's sweep range in
// ascending order and returns all of them along with the minimum-cost and
// maximum-savings candidates. Ties go to the smallest capacity.
func (o *Optimizer) Optimize(
	ctx context.Context,
	generation types.MonthlyGenerationProfile,
	demand types.MonthlyDemandProfile,
	scenario types.Scenario,
) (types.OptimizationResult, error) {
	if err := scenario.Validate(); err != nil {
		return types.OptimizationResult{}, err
	}
	if err := generation.Validate(); err != nil {
		return types.OptimizationResult{}, fmt.Errorf("generation: %w", err)
	}
	if err := demand.Validate(); err != nil {
		return types.OptimizationResult{}, fmt.Errorf("demand: %w", err)
	}

	params := scenario.Financial
	capacities := scenario.Sweep.Capacities()
	log.Ctx(ctx).DebugContext(
		ctx,
		"starting capacity sweep",
		slog.Int("candidates", len(capacities)),
		slog.Float64("minKWp", scenario.Sweep.MinKWp),
		slog.Float64("maxKWp", scenario.Sweep.MaxKWp),
		slog.Float64("stepKWp", scenario.Sweep.StepKWp),
		slog.Int("workers", o.workers),
	)

	results, err := o.sweep(ctx, capacities, generation, demand, params)
	if err != nil {
		return types.OptimizationResult{}, err
	}

	baseline := BaselineCost(demand, params)
	costs := make([]float64, len(results))
	savings := make([]float64, len(results))
	for i := range results {
		results[i].AnnualSavings = baseline.Total - results[i].TotalAnnualCost
		costs[i] = results[i].TotalAnnualCost
		savings[i] = results[i].AnnualSavings
	}

	// MinIdx and MaxIdx return the first extreme which is the smallest capacity
	res := types.OptimizationResult{
		Baseline:   baseline,
		Results:    results,
		MinCost:    results[floats.MinIdx(costs)],
		MaxSavings: results[floats.MaxIdx(savings)],
	}

	log.Ctx(ctx).InfoContext(
		ctx,
		"capacity sweep finished",
		slog.Float64("baselineCost", baseline.Total),
		slog.Float64("optimalKWp", res.MinCost.CapacityKWp),
		slog.Float64("optimalCost", res.MinCost.TotalAnnualCost),
		slog.Float64("maxSavingsKWp", res.MaxSavings.CapacityKWp),
		slog.Float64("maxSavings", res.MaxSavings.AnnualSavings),
	)
	return res, nil
}

// Evaluate dispatches and costs a single capacity. Savings are left at zero
// since they depend on the baseline.
func Evaluate(
	capacityKWp float64,
	generation types.MonthlyGenerationProfile,
	demand types.MonthlyDemandProfile,
	params types.FinancialParameters,
) (types.SimulationResult, error) {
	dispatch := Dispatch(generation.Scaled(capacityKWp), demand, params)
	breakdown, err := AnnualCost(capacityKWp, dispatch, params)
	if err != nil {
		return types.SimulationResult{}, fmt.Errorf("failed to cost %g kWp: %w", capacityKWp, err)
	}
	return types.SimulationResult{
		CapacityKWp:     capacityKWp,
		TotalAnnualCost: breakdown.Total,
		Breakdown:       breakdown,
	}, nil
}

func (o *Optimizer) sweep(
	ctx context.Context,
	capacities []float64,
	generation types.MonthlyGenerationProfile,
	demand types.MonthlyDemandProfile,
	params types.FinancialParameters,
) ([]types.SimulationResult, error) {
	results := make([]types.SimulationResult, len(capacities))
	if o.workers < 2 || len(capacities) < 2 {
		for i, capacity := range capacities {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
			r, err := Evaluate(capacity, generation, demand, params)
			if err != nil {
				return nil, err
			}
			results[i] = r
		}
		return results, nil
	}

	workers := o.workers
	if len(capacities) < workers {
		workers = len(capacities)
	}

	jobs := make(chan int, len(capacities))
	errs := make(chan error, workers)
	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range jobs {
				if err := ctx.Err(); err != nil {
					errs <- err
					return
				}
				r, err := Evaluate(capacities[i], generation, demand, params)
				if err != nil {
					errs <- err
					return
				}
				// each index is written by exactly one worker
				results[i] = r
			}
		}()
	}
	for i := range capacities {
		jobs <- i
	}
	close(jobs)
	wg.Wait()
	close(errs)

	if err := <-errs; err != nil {
		return nil, err
	}
	return results, nil
}
