package report

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/raterudder/pvsizer/pkg/types"
)

func testResult() types.OptimizationResult {
	results := []types.SimulationResult{
		{CapacityKWp: 0, TotalAnnualCost: 100, AnnualSavings: 0, Breakdown: types.CostBreakdown{Biomass: 80, GridImport: 20, Total: 100}},
		{CapacityKWp: 0.5, TotalAnnualCost: 90.25, AnnualSavings: 9.75, Breakdown: types.CostBreakdown{Capital: 10, Biomass: 60, GridImport: 21, ExportRevenue: 0.75, Total: 90.25}},
		{CapacityKWp: 1, TotalAnnualCost: 95, AnnualSavings: 5, Breakdown: types.CostBreakdown{Capital: 20, Biomass: 60, GridImport: 16, ExportRevenue: 1, Total: 95}},
	}
	return types.OptimizationResult{
		Baseline:   types.CostBreakdown{Biomass: 80, GridImport: 20, Total: 100},
		Results:    results,
		MinCost:    results[1],
		MaxSavings: results[1],
	}
}

func TestWriteResultsCSV(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteResultsCSV(&buf, testResult().Results))
	assert.Equal(t,
		"pv_size_kwp,total_annual_cost,annual_savings\n"+
			"0,100,0\n"+
			"0.5,90.25,9.75\n"+
			"1,95,5\n",
		buf.String(),
	)
}

func TestWriteEnergyBalanceCSV(t *testing.T) {
	var balance [types.MonthsPerYear]types.MonthlyEnergyBalance
	for i := range balance {
		balance[i] = types.MonthlyEnergyBalance{Month: types.MonthNames[i], DHW: 1, Heating: 2.5, Cooling: 0, PVSupply: 3}
	}

	var buf bytes.Buffer
	require.NoError(t, WriteEnergyBalanceCSV(&buf, balance))
	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 13)
	assert.Equal(t, "month,dhw_kwh,heating_kwh,cooling_kwh,pv_supply_kwh", lines[0])
	assert.Equal(t, types.MonthNames[0]+",1,2.5,0,3", lines[1])
}

func TestWriteSummary(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteSummary(&buf, testResult()))
	out := buf.String()
	assert.Contains(t, out, "Candidates evaluated: 3")
	assert.Contains(t, out, "Baseline annual cost (no PV): 100.00")
	assert.Contains(t, out, "Optimal PV size (min cost): 0.5 kWp, annual cost 90.25, savings 9.75")
	assert.Contains(t, out, "Max savings PV size: 0.5 kWp")
	assert.Contains(t, out, "export revenue")
	assert.Contains(t, out, "-0.75")
}
