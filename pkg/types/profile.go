package types

import (
	"fmt"
	"math"
)

// MonthsPerYear is the number of monthly buckets in every profile.
const MonthsPerYear = 12

// MonthNames are the short labels used in reports, January first.
var MonthNames = [MonthsPerYear]string{"Jan", "Feb", "Mar", "Apr", "May", "Jun", "Jul", "Aug", "Sep", "Oct", "Nov", "Dec"}

// MonthlyDemandProfile holds the building's monthly energy demand in kWh.
// Index 0 is January.
type MonthlyDemandProfile struct {
	DHW     [MonthsPerYear]float64 `json:"dhw"`
	Heating [MonthsPerYear]float64 `json:"heating"`
	Cooling [MonthsPerYear]float64 `json:"cooling"`
}

// Validate ensures every monthly value is finite and non-negative.
func (d MonthlyDemandProfile) Validate() error {
	for m := 0; m < MonthsPerYear; m++ {
		if err := checkEnergy("dhw", m, d.DHW[m]); err != nil {
			return err
		}
		if err := checkEnergy("heating", m, d.Heating[m]); err != nil {
			return err
		}
		if err := checkEnergy("cooling", m, d.Cooling[m]); err != nil {
			return err
		}
	}
	return nil
}

// ThermalKWH returns the combined DHW and heating demand for the month.
func (d MonthlyDemandProfile) ThermalKWH(month int) float64 {
	return d.DHW[month] + d.Heating[month]
}

// TotalThermalKWH returns the annual DHW plus heating demand.
func (d MonthlyDemandProfile) TotalThermalKWH() float64 {
	var sum float64
	for m := 0; m < MonthsPerYear; m++ {
		sum += d.ThermalKWH(m)
	}
	return sum
}

// TotalCoolingKWH returns the annual cooling demand.
func (d MonthlyDemandProfile) TotalCoolingKWH() float64 {
	var sum float64
	for _, v := range d.Cooling {
		sum += v
	}
	return sum
}

// MonthlyGenerationProfile is the PV yield per installed kWp for each month.
type MonthlyGenerationProfile struct {
	KWHPerKWp [MonthsPerYear]float64 `json:"kwhPerKWp"`
}

// Validate ensures every monthly value is finite and non-negative.
func (g MonthlyGenerationProfile) Validate() error {
	for m, v := range g.KWHPerKWp {
		if err := checkEnergy("generation", m, v); err != nil {
			return err
		}
	}
	return nil
}

// Scaled returns the monthly generation in kWh for the given installed capacity.
func (g MonthlyGenerationProfile) Scaled(capacityKWp float64) [MonthsPerYear]float64 {
	var out [MonthsPerYear]float64
	for m, v := range g.KWHPerKWp {
		out[m] = v * capacityKWp
	}
	return out
}

// AnnualKWHPerKWp returns the specific yearly yield.
func (g MonthlyGenerationProfile) AnnualKWHPerKWp() float64 {
	var sum float64
	for _, v := range g.KWHPerKWp {
		sum += v
	}
	return sum
}

func checkEnergy(name string, month int, v float64) error {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return fmt.Errorf("%w: %s for %s is not finite", ErrInvalidProfile, name, MonthNames[month])
	}
	if v < 0 {
		return fmt.Errorf("%w: %s for %s is negative (%g)", ErrInvalidProfile, name, MonthNames[month], v)
	}
	return nil
}
