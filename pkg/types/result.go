package types

import "time"

// MonthDispatch is how one month of PV generation was allocated.
// All values are kWh; thermal values are heat, the rest electricity.
type MonthDispatch struct {
	PVKWH               float64 `json:"pvKWH"`
	CoolingElecRequired float64 `json:"coolingElecRequired"`
	CoolingElecFromPV   float64 `json:"coolingElecFromPV"`
	UnmetCoolingElec    float64 `json:"unmetCoolingElec"`
	ElecAfterCooling    float64 `json:"elecAfterCooling"`
	HeatFromPV          float64 `json:"heatFromPV"`
	ThermalDemand       float64 `json:"thermalDemand"`
	UnmetThermal        float64 `json:"unmetThermal"`
	ElecForHeating      float64 `json:"elecForHeating"`
	SurplusElec         float64 `json:"surplusElec"`
}

// DispatchResult is the allocation for every month of the year.
type DispatchResult struct {
	Months [MonthsPerYear]MonthDispatch `json:"months"`
}

// UnmetCoolingElec returns the monthly electricity imported for cooling.
func (d DispatchResult) UnmetCoolingElec() []float64 {
	return d.column(func(m MonthDispatch) float64 { return m.UnmetCoolingElec })
}

// UnmetThermal returns the monthly heat served by the biomass boiler.
func (d DispatchResult) UnmetThermal() []float64 {
	return d.column(func(m MonthDispatch) float64 { return m.UnmetThermal })
}

// SurplusElec returns the monthly electricity exported to the grid.
func (d DispatchResult) SurplusElec() []float64 {
	return d.column(func(m MonthDispatch) float64 { return m.SurplusElec })
}

func (d DispatchResult) column(f func(MonthDispatch) float64) []float64 {
	out := make([]float64, MonthsPerYear)
	for i, m := range d.Months {
		out[i] = f(m)
	}
	return out
}

// CostBreakdown itemizes the annual cost of one candidate.
type CostBreakdown struct {
	Capital       float64 `json:"capital"`
	Biomass       float64 `json:"biomass"`
	GridImport    float64 `json:"gridImport"`
	ExportRevenue float64 `json:"exportRevenue"`
	Total         float64 `json:"total"`
}

// SimulationResult is the outcome of evaluating one PV capacity.
type SimulationResult struct {
	CapacityKWp     float64       `json:"capacityKWp"`
	TotalAnnualCost float64       `json:"totalAnnualCost"`
	AnnualSavings   float64       `json:"annualSavings"`
	Breakdown       CostBreakdown `json:"breakdown"`
}

// OptimizationResult is the output of a full sweep.
type OptimizationResult struct {
	Baseline   CostBreakdown      `json:"baseline"`
	Results    []SimulationResult `json:"results"`
	MinCost    SimulationResult   `json:"minCost"`
	MaxSavings SimulationResult   `json:"maxSavings"`
}

// MonthlyEnergyBalance compares demand with the useful energy PV supplies for
// a single capacity. PVSupply counts cooling delivered via PV electricity plus
// heat delivered by the heat pump.
type MonthlyEnergyBalance struct {
	Month    string  `json:"month"`
	DHW      float64 `json:"dhw"`
	Heating  float64 `json:"heating"`
	Cooling  float64 `json:"cooling"`
	PVSupply float64 `json:"pvSupply"`
}

// Run is a persisted optimization.
type Run struct {
	ID         string                   `json:"id"`
	CreatedAt  time.Time                `json:"createdAt"`
	Label      string                   `json:"label,omitempty"`
	CreatedBy  string                   `json:"createdBy,omitempty"`
	ModelName  string                   `json:"modelName,omitempty"`
	Location   *Location                `json:"location,omitempty"`
	Scenario   Scenario                 `json:"scenario"`
	Demand     MonthlyDemandProfile     `json:"demand"`
	Generation MonthlyGenerationProfile `json:"generation"`
	Result     OptimizationResult       `json:"result"`
}
