package types

import (
	"errors"
	"fmt"
	"math"
)

var (
	ErrInvalidParameters = errors.New("invalid parameters")
	ErrInvalidProfile    = errors.New("invalid profile")
)

// CurrentScenarioVersion is the current version of the Scenario struct.
// Increment this value when adding new fields that require default values.
const CurrentScenarioVersion = 3

// FinancialParameters are the economic and technical assumptions for a run.
// Prices are per kWh in the same currency as CostPerKWp.
type FinancialParameters struct {
	// Installed cost of one kWp of PV
	CostPerKWp float64 `json:"costPerKWp"`
	// Annual loan interest rate, 0.06 is 6%
	InterestRate float64 `json:"interestRate"`
	// Amortization term in years
	LoanYears float64 `json:"loanYears"`

	GridImportPrice float64 `json:"gridImportPrice"`
	GridExportPrice float64 `json:"gridExportPrice"`
	BiomassPrice    float64 `json:"biomassPrice"`

	// Heat pump coefficient of performance (heat out per electricity in)
	HeatPumpCOP float64 `json:"heatPumpCOP"`
	// Cooling energy efficiency ratio (cooling out per electricity in)
	CoolingEER float64 `json:"coolingEER"`
}

// DefaultFinancialParameters returns the reference assumptions.
func DefaultFinancialParameters() FinancialParameters {
	return FinancialParameters{
		CostPerKWp:      1500,
		InterestRate:    0.06,
		LoanYears:       15,
		GridImportPrice: 0.16,
		GridExportPrice: 0.02,
		BiomassPrice:    0.09,
		HeatPumpCOP:     3.5,
		CoolingEER:      3.5,
	}
}

// Validate rejects parameters that would make the cost model undefined, such
// as a zero loan term or a zero COP.
func (p FinancialParameters) Validate() error {
	fields := []struct {
		name string
		v    float64
	}{
		{"costPerKWp", p.CostPerKWp},
		{"interestRate", p.InterestRate},
		{"loanYears", p.LoanYears},
		{"gridImportPrice", p.GridImportPrice},
		{"gridExportPrice", p.GridExportPrice},
		{"biomassPrice", p.BiomassPrice},
		{"heatPumpCOP", p.HeatPumpCOP},
		{"coolingEER", p.CoolingEER},
	}
	for _, f := range fields {
		if math.IsNaN(f.v) || math.IsInf(f.v, 0) {
			return fmt.Errorf("%w: %s must be finite", ErrInvalidParameters, f.name)
		}
	}
	if p.CostPerKWp < 0 {
		return fmt.Errorf("%w: costPerKWp must be >= 0", ErrInvalidParameters)
	}
	if p.InterestRate < 0 {
		return fmt.Errorf("%w: interestRate must be >= 0", ErrInvalidParameters)
	}
	if p.LoanYears <= 0 {
		return fmt.Errorf("%w: loanYears must be > 0", ErrInvalidParameters)
	}
	if p.HeatPumpCOP <= 0 {
		return fmt.Errorf("%w: heatPumpCOP must be > 0", ErrInvalidParameters)
	}
	if p.CoolingEER <= 0 {
		return fmt.Errorf("%w: coolingEER must be > 0", ErrInvalidParameters)
	}
	// prices may legitimately be zero but a negative price flips the model
	if p.GridImportPrice < 0 || p.GridExportPrice < 0 || p.BiomassPrice < 0 {
		return fmt.Errorf("%w: prices must be >= 0", ErrInvalidParameters)
	}
	return nil
}

// SweepRange is the closed range of PV capacities evaluated by the optimizer.
type SweepRange struct {
	MinKWp  float64 `json:"minKWp"`
	MaxKWp  float64 `json:"maxKWp"`
	StepKWp float64 `json:"stepKWp"`
}

// DefaultSweepRange is 0 to 25 kWp in 0.5 kWp steps.
func DefaultSweepRange() SweepRange {
	return SweepRange{MinKWp: 0, MaxKWp: 25, StepKWp: 0.5}
}

// maxSweepCandidates bounds the number of capacities a single sweep evaluates.
const maxSweepCandidates = 100_000

// Validate ensures the range is finite, ascending and has a positive step.
func (r SweepRange) Validate() error {
	for _, v := range []float64{r.MinKWp, r.MaxKWp, r.StepKWp} {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return fmt.Errorf("%w: sweep bounds must be finite", ErrInvalidParameters)
		}
	}
	if r.MinKWp < 0 {
		return fmt.Errorf("%w: sweep minKWp must be >= 0", ErrInvalidParameters)
	}
	if r.MaxKWp < r.MinKWp {
		return fmt.Errorf("%w: sweep maxKWp (%g) is below minKWp (%g)", ErrInvalidParameters, r.MaxKWp, r.MinKWp)
	}
	if r.StepKWp <= 0 {
		return fmt.Errorf("%w: sweep stepKWp must be > 0", ErrInvalidParameters)
	}
	if r.span()+1 > maxSweepCandidates {
		return fmt.Errorf("%w: sweep has more than %d candidates", ErrInvalidParameters, maxSweepCandidates)
	}
	return nil
}

// span is the number of whole steps in the range. A small tolerance keeps
// the upper bound included when (max-min)/step is not exact in binary. The
// result may exceed the int range.
func (r SweepRange) span() float64 {
	return math.Floor((r.MaxKWp-r.MinKWp)/r.StepKWp + 1e-9)
}

// count is the number of candidates in the closed range. Only call it on a
// validated range.
func (r SweepRange) count() int {
	return int(r.span()) + 1
}

// Capacities returns every candidate capacity in ascending order. Each value
// is computed from its index so no rounding error accumulates.
func (r SweepRange) Capacities() []float64 {
	n := r.count()
	out := make([]float64, n)
	for i := range out {
		out[i] = r.MinKWp + float64(i)*r.StepKWp
	}
	return out
}

// Scenario is the immutable parameter set for one optimization.
type Scenario struct {
	Name      string              `json:"name,omitempty"`
	Financial FinancialParameters `json:"financial"`
	Sweep     SweepRange          `json:"sweep"`
}

// DefaultScenario returns the reference financial assumptions and sweep.
func DefaultScenario() Scenario {
	return Scenario{
		Financial: DefaultFinancialParameters(),
		Sweep:     DefaultSweepRange(),
	}
}

// Validate checks both the financial parameters and the sweep range.
func (s Scenario) Validate() error {
	if err := s.Financial.Validate(); err != nil {
		return err
	}
	return s.Sweep.Validate()
}

// MigrateScenario migrates a stored scenario to the current version.
// It returns the migrated scenario, a boolean indicating if changes were made, and an error if migration failed.
func MigrateScenario(s Scenario, currentVersion int) (Scenario, bool, error) {
	if currentVersion >= CurrentScenarioVersion {
		return s, false, nil
	}

	defaults := DefaultScenario()
	migrated := false
	for version := currentVersion + 1; version <= CurrentScenarioVersion; version++ {
		switch version {
		case 1:
			// version 1: initial, loan and efficiency assumptions
			if s.Financial.LoanYears == 0 {
				s.Financial.LoanYears = defaults.Financial.LoanYears
				migrated = true
			}
			if s.Financial.HeatPumpCOP == 0 {
				s.Financial.HeatPumpCOP = defaults.Financial.HeatPumpCOP
				migrated = true
			}
		case 2:
			// version 2: cooling got its own EER instead of sharing the COP
			if s.Financial.CoolingEER == 0 {
				s.Financial.CoolingEER = s.Financial.HeatPumpCOP
				migrated = true
			}
		case 3:
			// version 3: configurable sweep range
			if s.Sweep == (SweepRange{}) {
				s.Sweep = defaults.Sweep
				migrated = true
			}
		default:
			return s, false, fmt.Errorf("unknown scenario version: %d", version)
		}
	}

	return s, migrated, nil
}
