package types

// Location is a geocoded site.
type Location struct {
	Name      string  `json:"name"`
	Country   string  `json:"country,omitempty"`
	Address   string  `json:"address,omitempty"`
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
	// ElevationM is nil when the elevation service could not be reached
	ElevationM *float64 `json:"elevationM,omitempty"`
}

// PVSummary is the headline information from a PVGIS calculation.
type PVSummary struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
	Elevation float64 `json:"elevation"`

	Technology   string  `json:"technology"`
	PeakPowerKW  float64 `json:"peakPowerKW"`
	SystemLossPc float64 `json:"systemLossPct"`
	Slope        float64 `json:"slope"`
	Azimuth      float64 `json:"azimuth"`

	YearlyEnergyKWH      float64 `json:"yearlyEnergyKWH"`
	AvgDailyEnergyKWH    float64 `json:"avgDailyEnergyKWH"`
	AvgMonthlyEnergyKWH  float64 `json:"avgMonthlyEnergyKWH"`
	YearlyIrradiationKWH float64 `json:"yearlyIrradiationKWHm2"`
	TotalLossPct         float64 `json:"totalLossPct"`
}
