// Package report renders optimization results for people and spreadsheets.
package report

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"text/tabwriter"

	"github.com/raterudder/pvsizer/pkg/types"
)

// ResultsHeader is the header row of WriteResultsCSV.
var ResultsHeader = []string{"pv_size_kwp", "total_annual_cost", "annual_savings"}

// EnergyBalanceHeader is the header row of WriteEnergyBalanceCSV.
var EnergyBalanceHeader = []string{"month", "dhw_kwh", "heating_kwh", "cooling_kwh", "pv_supply_kwh"}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

// WriteSummary writes a human-readable summary of the sweep.
func WriteSummary(w io.Writer, res types.OptimizationResult) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', tabwriter.AlignRight)

	fmt.Fprintf(w, "Candidates evaluated: %d\n", len(res.Results))
	fmt.Fprintf(w, "Baseline annual cost (no PV): %.2f\n", res.Baseline.Total)
	fmt.Fprintf(w, "Optimal PV size (min cost): %g kWp, annual cost %.2f, savings %.2f\n",
		res.MinCost.CapacityKWp, res.MinCost.TotalAnnualCost, res.MinCost.AnnualSavings)
	fmt.Fprintf(w, "Max savings PV size: %g kWp, annual savings %.2f\n\n",
		res.MaxSavings.CapacityKWp, res.MaxSavings.AnnualSavings)

	fmt.Fprintln(tw, "\tbaseline\tmin cost\tmax savings\t")
	rows := []struct {
		name string
		get  func(types.CostBreakdown) float64
	}{
		{"capital", func(b types.CostBreakdown) float64 { return b.Capital }},
		{"biomass", func(b types.CostBreakdown) float64 { return b.Biomass }},
		{"grid import", func(b types.CostBreakdown) float64 { return b.GridImport }},
		{"export revenue", func(b types.CostBreakdown) float64 { return -b.ExportRevenue }},
		{"total", func(b types.CostBreakdown) float64 { return b.Total }},
	}
	for _, r := range rows {
		fmt.Fprintf(tw, "%s\t%.2f\t%.2f\t%.2f\t\n",
			r.name, r.get(res.Baseline), r.get(res.MinCost.Breakdown), r.get(res.MaxSavings.Breakdown))
	}
	return tw.Flush()
}

// WriteResultsCSV writes one row per evaluated capacity.
func WriteResultsCSV(w io.Writer, results []types.SimulationResult) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(ResultsHeader); err != nil {
		return fmt.Errorf("failed to write header: %w", err)
	}
	for _, r := range results {
		if err := cw.Write([]string{
			formatFloat(r.CapacityKWp),
			formatFloat(r.TotalAnnualCost),
			formatFloat(r.AnnualSavings),
		}); err != nil {
			return fmt.Errorf("failed to write row: %w", err)
		}
	}
	cw.Flush()
	return cw.Error()
}

// WriteEnergyBalanceCSV writes the monthly demand against PV supply.
func WriteEnergyBalanceCSV(w io.Writer, balance [types.MonthsPerYear]types.MonthlyEnergyBalance) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(EnergyBalanceHeader); err != nil {
		return fmt.Errorf("failed to write header: %w", err)
	}
	for _, b := range balance {
		if err := cw.Write([]string{
			b.Month,
			formatFloat(b.DHW),
			formatFloat(b.Heating),
			formatFloat(b.Cooling),
			formatFloat(b.PVSupply),
		}); err != nil {
			return fmt.Errorf("failed to write row: %w", err)
		}
	}
	cw.Flush()
	return cw.Error()
}
