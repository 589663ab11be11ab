package main

import (
	"context"
	"fmt"
	"math"
	"os"
	"time"

	"github.com/levenlabs/go-lflag"
	"github.com/raterudder/pvsizer/pkg/log"
	"github.com/raterudder/pvsizer/pkg/optimizer"
	"github.com/raterudder/pvsizer/pkg/storage"
	"github.com/raterudder/pvsizer/pkg/types"
)

// seedScenarios are a few assumption sets worth comparing
func seedScenarios() []types.Scenario {
	base := types.DefaultScenario()
	base.Name = "default"

	cheapMoney := base
	cheapMoney.Name = "cheap-money"
	cheapMoney.Financial.InterestRate = 0.02
	cheapMoney.Financial.LoanYears = 20

	expensiveGrid := base
	expensiveGrid.Name = "expensive-grid"
	expensiveGrid.Financial.GridImportPrice = 0.30
	expensiveGrid.Financial.GridExportPrice = 0.05

	fine := base
	fine.Name = "fine-sweep"
	fine.Sweep = types.SweepRange{MinKWp: 0, MaxKWp: 15, StepKWp: 0.25}

	return []types.Scenario{base, cheapMoney, expensiveGrid, fine}
}

// demoProfiles returns a heating-dominated building in a continental
// climate and the yield of a south facade.
func demoProfiles() (types.MonthlyDemandProfile, types.MonthlyGenerationProfile) {
	var d types.MonthlyDemandProfile
	var g types.MonthlyGenerationProfile
	for m := range types.MonthsPerYear {
		// 0 in January, 1 in July
		summer := (1 - math.Cos(2*math.Pi*float64(m)/12)) / 2
		d.DHW[m] = 180 - 40*summer
		d.Heating[m] = math.Max(0, 1400*(1-1.6*summer))
		d.Cooling[m] = math.Max(0, 600*(summer-0.7)/0.3)
		// vertical south facades yield most in the shoulder months
		g.KWHPerKWp[m] = 45 + 30*math.Sin(math.Pi*summer)
	}
	return d, g
}

func main() {
	os.Setenv("FIRESTORE_EMULATOR_HOST", "127.0.0.1:8087")
	s := storage.Configured("firestore")
	lflag.Configure()

	ctx := context.Background()

	log.Ctx(ctx).InfoContext(ctx, "seeding mock data")

	for _, sc := range seedScenarios() {
		if err := s.SaveScenario(ctx, sc); err != nil {
			log.Ctx(ctx).ErrorContext(ctx, "failed to seed scenario", "scenario", sc.Name, "error", err)
			os.Exit(1)
		}
		fmt.Printf("Seeded scenario %s\n", sc.Name)
	}

	demand, generation := demoProfiles()
	sc := seedScenarios()[0]
	res, err := optimizer.NewOptimizer(4).Optimize(ctx, generation, demand, sc)
	if err != nil {
		log.Ctx(ctx).ErrorContext(ctx, "failed to optimize demo run", "error", err)
		os.Exit(1)
	}
	id, err := s.SaveRun(ctx, types.Run{
		ID:         storage.NewRunID(),
		CreatedAt:  time.Now().UTC(),
		Label:      "Mock: demo facade",
		ModelName:  "demo",
		Scenario:   sc,
		Demand:     demand,
		Generation: generation,
		Result:     res,
	})
	if err != nil {
		log.Ctx(ctx).ErrorContext(ctx, "failed to seed run", "error", err)
		os.Exit(1)
	}
	fmt.Printf("Seeded run %s (optimal %.1f kWp, annual cost %.2f)\n", id, res.MinCost.CapacityKWp, res.MinCost.TotalAnnualCost)

	if err := s.Close(); err != nil {
		log.Ctx(ctx).WarnContext(ctx, "failed to close storage", "error", err)
	}
	log.Ctx(ctx).InfoContext(ctx, "seeded mock data successfully")
}
