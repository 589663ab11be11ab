package optimizer

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/raterudder/pvsizer/pkg/types"
)

func TestDispatchMonth(t *testing.T) {
	t.Run("Reference Month", func(t *testing.T) {
		// 1 kWp producing 100 kWh, COP and EER of 3.5
		md := DispatchMonth(100, 100, 200, 50, 3.5, 3.5)
		assert.InDelta(t, 14.2857, md.CoolingElecRequired, 1e-4)
		assert.InDelta(t, 14.2857, md.CoolingElecFromPV, 1e-4)
		assert.InDelta(t, 0, md.UnmetCoolingElec, 1e-9)
		assert.InDelta(t, 85.7143, md.ElecAfterCooling, 1e-4)
		assert.InDelta(t, 300.0, md.HeatFromPV, 1e-9)
		assert.Equal(t, 300.0, md.ThermalDemand)
		assert.InDelta(t, 0, md.UnmetThermal, 1e-9)
		assert.InDelta(t, 85.7143, md.ElecForHeating, 1e-4)
		assert.InDelta(t, 0, md.SurplusElec, 1e-9)
	})

	t.Run("No PV", func(t *testing.T) {
		md := DispatchMonth(0, 100, 200, 70, 3.5, 3.5)
		assert.Equal(t, 0.0, md.CoolingElecFromPV)
		assert.Equal(t, 0.0, md.HeatFromPV)
		assert.Equal(t, 20.0, md.UnmetCoolingElec)
		assert.Equal(t, 300.0, md.UnmetThermal)
		assert.Equal(t, 0.0, md.ElecForHeating)
		assert.Equal(t, 0.0, md.SurplusElec)
	})

	t.Run("PV Short Of Cooling", func(t *testing.T) {
		// 40 kWh of cooling needs 20 kWh of electricity, only 5 available
		md := DispatchMonth(5, 10, 10, 40, 4, 2)
		assert.Equal(t, 20.0, md.CoolingElecRequired)
		assert.Equal(t, 5.0, md.CoolingElecFromPV)
		assert.Equal(t, 15.0, md.UnmetCoolingElec)
		assert.Equal(t, 0.0, md.ElecAfterCooling)
		assert.Equal(t, 20.0, md.UnmetThermal)
		assert.Equal(t, 0.0, md.SurplusElec)
	})

	t.Run("Partial Heating", func(t *testing.T) {
		// no cooling, 10 kWh drives 30 kWh of heat against 100 kWh demand
		md := DispatchMonth(10, 40, 60, 0, 3, 3)
		assert.Equal(t, 30.0, md.HeatFromPV)
		assert.Equal(t, 70.0, md.UnmetThermal)
		assert.Equal(t, 10.0, md.ElecForHeating)
		assert.Equal(t, 0.0, md.SurplusElec)
	})

	t.Run("Surplus Exported", func(t *testing.T) {
		// 30 kWh of heat needs 10 kWh, cooling 12 kWh needs 4 kWh
		md := DispatchMonth(50, 10, 20, 12, 3, 3)
		assert.Equal(t, 4.0, md.CoolingElecFromPV)
		assert.Equal(t, 46.0, md.ElecAfterCooling)
		assert.Equal(t, 0.0, md.UnmetThermal)
		assert.Equal(t, 10.0, md.ElecForHeating)
		assert.Equal(t, 36.0, md.SurplusElec)
	})
}

func TestDispatchBounds(t *testing.T) {
	demand := testDemand()
	params := types.DefaultFinancialParameters()
	gen := testGeneration()

	for _, capacity := range []float64{0, 0.5, 1, 2.5, 5, 12, 25} {
		res := Dispatch(gen.Scaled(capacity), demand, params)
		for m, md := range res.Months {
			pv := gen.KWHPerKWp[m] * capacity
			assert.LessOrEqual(t, md.CoolingElecFromPV, pv, "month %d capacity %g", m, capacity)
			assert.LessOrEqual(t, md.CoolingElecFromPV, md.CoolingElecRequired, "month %d capacity %g", m, capacity)
			assert.LessOrEqual(t, md.ElecForHeating, md.ElecAfterCooling, "month %d capacity %g", m, capacity)
			assert.GreaterOrEqual(t, md.UnmetThermal, 0.0)
			assert.GreaterOrEqual(t, md.SurplusElec, 0.0)
			// every kWh of PV is used for cooling, heating or exported
			assert.InDelta(t, pv, md.CoolingElecFromPV+md.ElecForHeating+md.SurplusElec, 1e-9)
		}
	}
}

func TestDispatchMonthsIndependent(t *testing.T) {
	demand := testDemand()
	params := types.DefaultFinancialParameters()

	var pv [types.MonthsPerYear]float64
	pv[0] = 10_000
	res := Dispatch(pv, demand, params)

	// a huge surplus in January does not help February
	assert.Greater(t, res.Months[0].SurplusElec, 0.0)
	assert.Equal(t, 0.0, res.Months[1].CoolingElecFromPV)
	assert.Equal(t, demand.ThermalKWH(1), res.Months[1].UnmetThermal)
}

func TestEnergyBalance(t *testing.T) {
	demand := testDemand()
	params := types.DefaultFinancialParameters()
	gen := testGeneration()

	zero := EnergyBalance(0, gen, demand, params)
	for m, b := range zero {
		assert.Equal(t, types.MonthNames[m], b.Month)
		assert.Equal(t, 0.0, b.PVSupply)
		assert.Equal(t, demand.Cooling[m], b.Cooling)
	}

	balance := EnergyBalance(2, gen, demand, params)
	dispatch := Dispatch(gen.Scaled(2), demand, params)
	for m, b := range balance {
		md := dispatch.Months[m]
		assert.InDelta(t, md.CoolingElecFromPV*params.CoolingEER+md.HeatFromPV, b.PVSupply, 1e-9)
	}
}

func testDemand() types.MonthlyDemandProfile {
	return types.MonthlyDemandProfile{
		DHW:     [12]float64{180, 165, 170, 150, 140, 120, 110, 110, 125, 145, 160, 180},
		Heating: [12]float64{1400, 1100, 800, 450, 150, 0, 0, 0, 60, 400, 900, 1300},
		Cooling: [12]float64{0, 0, 0, 0, 80, 350, 600, 550, 250, 20, 0, 0},
	}
}

func testGeneration() types.MonthlyGenerationProfile {
	return types.MonthlyGenerationProfile{
		KWHPerKWp: [12]float64{62, 75, 110, 125, 140, 145, 155, 148, 122, 95, 68, 58},
	}
}
