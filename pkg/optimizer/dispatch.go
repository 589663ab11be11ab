package optimizer

import (
	"math"

	"github.com/raterudder/pvsizer/pkg/types"
)

// DispatchMonth allocates one month of PV electricity. Cooling is served
// first since its only fallback is grid import; what is left drives the heat
// pump for DHW and heating, with any shortfall left for the biomass boiler.
// Electricity the heat pump does not need is exported.
func DispatchMonth(pvKWH, dhwKWH, heatingKWH, coolingKWH, cop, eer float64) types.MonthDispatch {
	coolingElecRequired := coolingKWH / eer
	coolingElecFromPV := math.Min(pvKWH, coolingElecRequired)
	unmetCoolingElec := coolingElecRequired - coolingElecFromPV

	elecAfterCooling := pvKWH - coolingElecFromPV
	heatFromPV := elecAfterCooling * cop

	thermalDemand := dhwKWH + heatingKWH
	unmetThermal := math.Max(0, thermalDemand-heatFromPV)

	// the heat pump only draws what the thermal demand needs
	elecForHeating := math.Min(elecAfterCooling, thermalDemand/cop)
	surplus := elecAfterCooling - elecForHeating

	return types.MonthDispatch{
		PVKWH:               pvKWH,
		CoolingElecRequired: coolingElecRequired,
		CoolingElecFromPV:   coolingElecFromPV,
		UnmetCoolingElec:    unmetCoolingElec,
		ElecAfterCooling:    elecAfterCooling,
		HeatFromPV:          heatFromPV,
		ThermalDemand:       thermalDemand,
		UnmetThermal:        unmetThermal,
		ElecForHeating:      elecForHeating,
		SurplusElec:         surplus,
	}
}

// Dispatch runs DispatchMonth for every month. Months are closed energy
// balances: nothing carries over from one month to the next.
func Dispatch(pvKWH [types.MonthsPerYear]float64, demand types.MonthlyDemandProfile, params types.FinancialParameters) types.DispatchResult {
	var res types.DispatchResult
	for m := 0; m < types.MonthsPerYear; m++ {
		res.Months[m] = DispatchMonth(
			pvKWH[m],
			demand.DHW[m],
			demand.Heating[m],
			demand.Cooling[m],
			params.HeatPumpCOP,
			params.CoolingEER,
		)
	}
	return res
}

// EnergyBalance returns the monthly demand stack next to the useful energy
// PV delivers at the given capacity: cooling served through PV electricity
// (converted back with the EER) plus heat pump output.
func EnergyBalance(
	capacityKWp float64,
	generation types.MonthlyGenerationProfile,
	demand types.MonthlyDemandProfile,
	params types.FinancialParameters,
) [types.MonthsPerYear]types.MonthlyEnergyBalance {
	dispatch := Dispatch(generation.Scaled(capacityKWp), demand, params)

	var out [types.MonthsPerYear]types.MonthlyEnergyBalance
	for m, md := range dispatch.Months {
		out[m] = types.MonthlyEnergyBalance{
			Month:    types.MonthNames[m],
			DHW:      demand.DHW[m],
			Heating:  demand.Heating[m],
			Cooling:  demand.Cooling[m],
			PVSupply: md.CoolingElecFromPV*params.CoolingEER + md.HeatFromPV,
		}
	}
	return out
}
