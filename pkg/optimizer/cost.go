package optimizer

import (
	"fmt"

	"gonum.org/v1/gonum/floats"

	"github.com/raterudder/pvsizer/pkg/finance"
	"github.com/raterudder/pvsizer/pkg/types"
)

// AnnualCost totals the yearly cost of owning capacityKWp of PV given its
// dispatch. The total is not floored at zero: export revenue can exceed the
// other components for heavily oversized systems.
func AnnualCost(capacityKWp float64, dispatch types.DispatchResult, params types.FinancialParameters) (types.CostBreakdown, error) {
	capital, err := finance.AnnualizedCost(capacityKWp*params.CostPerKWp, params.InterestRate, params.LoanYears)
	if err != nil {
		return types.CostBreakdown{}, fmt.Errorf("failed to annualize capital cost: %w", err)
	}

	b := types.CostBreakdown{
		Capital:       capital,
		Biomass:       floats.Sum(dispatch.UnmetThermal()) * params.BiomassPrice,
		GridImport:    floats.Sum(dispatch.UnmetCoolingElec()) * params.GridImportPrice,
		ExportRevenue: floats.Sum(dispatch.SurplusElec()) * params.GridExportPrice,
	}
	b.Total = b.Capital + b.Biomass + b.GridImport - b.ExportRevenue
	return b, nil
}

// BaselineCost is the cost of serving all heating and DHW with biomass and all
// cooling with grid electricity, i.e. no PV at all.
func BaselineCost(demand types.MonthlyDemandProfile, params types.FinancialParameters) types.CostBreakdown {
	b := types.CostBreakdown{
		Biomass:    demand.TotalThermalKWH() * params.BiomassPrice,
		GridImport: demand.TotalCoolingKWH() / params.CoolingEER * params.GridImportPrice,
	}
	b.Total = b.Biomass + b.GridImport
	return b
}
