package profile

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/raterudder/pvsizer/pkg/types"
)

// PVGISResponse is the subset of a PVGIS PVcalc JSON response we use.
type PVGISResponse struct {
	Inputs struct {
		Location struct {
			Latitude  float64 `json:"latitude"`
			Longitude float64 `json:"longitude"`
			Elevation float64 `json:"elevation"`
		} `json:"location"`
		PVModule struct {
			Technology string  `json:"technology"`
			PeakPower  float64 `json:"peak_power"`
			SystemLoss float64 `json:"system_loss"`
		} `json:"pv_module"`
		MountingSystem struct {
			Fixed *struct {
				Slope   pvgisValue `json:"slope"`
				Azimuth pvgisValue `json:"azimuth"`
			} `json:"fixed"`
		} `json:"mounting_system"`
	} `json:"inputs"`
	Outputs struct {
		Monthly struct {
			Fixed []PVGISMonth `json:"fixed"`
		} `json:"monthly"`
		Totals struct {
			Fixed *struct {
				EDaily       float64 `json:"E_d"`
				EMonthly     float64 `json:"E_m"`
				EYearly      float64 `json:"E_y"`
				HiYearly     float64 `json:"H(i)_y"`
				TotalLossPct float64 `json:"l_total"`
			} `json:"fixed"`
		} `json:"totals"`
	} `json:"outputs"`
}

type pvgisValue struct {
	Value float64 `json:"value"`
}

// PVGISMonth is one row of the monthly output table.
type PVGISMonth struct {
	Month int     `json:"month"`
	EDay  float64 `json:"E_d"`
	EM    float64 `json:"E_m"`
	HiDay float64 `json:"H(i)_d"`
	HiM   float64 `json:"H(i)_m"`
	SDM   float64 `json:"SD_m"`
}

// DecodePVGIS decodes a PVcalc JSON document.
func DecodePVGIS(r io.Reader) (PVGISResponse, error) {
	var resp PVGISResponse
	if err := json.NewDecoder(r).Decode(&resp); err != nil {
		return PVGISResponse{}, fmt.Errorf("failed to decode pvgis response: %w", err)
	}
	return resp, nil
}

// Generation returns the monthly E_m values divided by the simulated peak
// power so the profile is always per kWp.
func (p PVGISResponse) Generation() (types.MonthlyGenerationProfile, error) {
	var g types.MonthlyGenerationProfile
	if len(p.Outputs.Monthly.Fixed) != types.MonthsPerYear {
		return g, fmt.Errorf("pvgis response has %d monthly rows, expected %d", len(p.Outputs.Monthly.Fixed), types.MonthsPerYear)
	}
	peak := p.Inputs.PVModule.PeakPower
	if peak <= 0 {
		peak = 1
	}
	seen := make(map[int]bool, types.MonthsPerYear)
	for _, row := range p.Outputs.Monthly.Fixed {
		if row.Month < 1 || row.Month > types.MonthsPerYear || seen[row.Month] {
			return g, fmt.Errorf("pvgis response has invalid or duplicate month %d", row.Month)
		}
		seen[row.Month] = true
		g.KWHPerKWp[row.Month-1] = row.EM / peak
	}
	return g, nil
}

// Summary extracts the headline location, module and totals information.
func (p PVGISResponse) Summary() types.PVSummary {
	s := types.PVSummary{
		Latitude:     p.Inputs.Location.Latitude,
		Longitude:    p.Inputs.Location.Longitude,
		Elevation:    p.Inputs.Location.Elevation,
		Technology:   p.Inputs.PVModule.Technology,
		PeakPowerKW:  p.Inputs.PVModule.PeakPower,
		SystemLossPc: p.Inputs.PVModule.SystemLoss,
	}
	if fixed := p.Inputs.MountingSystem.Fixed; fixed != nil {
		s.Slope = fixed.Slope.Value
		s.Azimuth = fixed.Azimuth.Value
	}
	if totals := p.Outputs.Totals.Fixed; totals != nil {
		s.YearlyEnergyKWH = totals.EYearly
		s.AvgDailyEnergyKWH = totals.EDaily
		s.AvgMonthlyEnergyKWH = totals.EMonthly
		s.YearlyIrradiationKWH = totals.HiYearly
		s.TotalLossPct = totals.TotalLossPct
	}
	return s
}
