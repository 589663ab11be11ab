package types

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFinancialParametersValidate(t *testing.T) {
	require.NoError(t, DefaultFinancialParameters().Validate())

	tests := []struct {
		name   string
		modify func(p *FinancialParameters)
		errMsg string
	}{
		{"zero loan term", func(p *FinancialParameters) { p.LoanYears = 0 }, "loanYears"},
		{"negative loan term", func(p *FinancialParameters) { p.LoanYears = -5 }, "loanYears"},
		{"zero cop", func(p *FinancialParameters) { p.HeatPumpCOP = 0 }, "heatPumpCOP"},
		{"zero eer", func(p *FinancialParameters) { p.CoolingEER = 0 }, "coolingEER"},
		{"negative rate", func(p *FinancialParameters) { p.InterestRate = -0.01 }, "interestRate"},
		{"nan cost", func(p *FinancialParameters) { p.CostPerKWp = math.NaN() }, "costPerKWp"},
		{"negative price", func(p *FinancialParameters) { p.BiomassPrice = -1 }, "prices"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := DefaultFinancialParameters()
			tt.modify(&p)
			err := p.Validate()
			require.ErrorIs(t, err, ErrInvalidParameters)
			assert.ErrorContains(t, err, tt.errMsg)
		})
	}

	t.Run("zero rate allowed", func(t *testing.T) {
		p := DefaultFinancialParameters()
		p.InterestRate = 0
		assert.NoError(t, p.Validate())
	})
}

func TestSweepRange(t *testing.T) {
	t.Run("default includes both bounds", func(t *testing.T) {
		caps := DefaultSweepRange().Capacities()
		require.Len(t, caps, 51)
		assert.Equal(t, 0.0, caps[0])
		assert.Equal(t, 0.5, caps[1])
		assert.Equal(t, 25.0, caps[50])
	})

	t.Run("inexact step keeps upper bound", func(t *testing.T) {
		caps := SweepRange{MinKWp: 0, MaxKWp: 0.3, StepKWp: 0.1}.Capacities()
		require.Len(t, caps, 4)
		assert.InDelta(t, 0.3, caps[3], 1e-12)
	})

	t.Run("single point", func(t *testing.T) {
		caps := SweepRange{MinKWp: 2, MaxKWp: 2, StepKWp: 1}.Capacities()
		assert.Equal(t, []float64{2}, caps)
	})

	t.Run("invalid", func(t *testing.T) {
		assert.ErrorIs(t, SweepRange{MinKWp: 0, MaxKWp: 5, StepKWp: 0}.Validate(), ErrInvalidParameters)
		assert.ErrorIs(t, SweepRange{MinKWp: 5, MaxKWp: 1, StepKWp: 1}.Validate(), ErrInvalidParameters)
		assert.ErrorIs(t, SweepRange{MinKWp: -1, MaxKWp: 1, StepKWp: 1}.Validate(), ErrInvalidParameters)
		assert.ErrorIs(t, SweepRange{MinKWp: 0, MaxKWp: 1e9, StepKWp: 1e-3}.Validate(), ErrInvalidParameters)
		assert.ErrorIs(t, SweepRange{MinKWp: 0, MaxKWp: 1e20, StepKWp: 1}.Validate(), ErrInvalidParameters)
		assert.ErrorIs(t, SweepRange{MinKWp: 0, MaxKWp: 1e300, StepKWp: 1e-300}.Validate(), ErrInvalidParameters)
	})
}

func TestMigrateScenario(t *testing.T) {
	t.Run("v1: initial defaults", func(t *testing.T) {
		s, changed, err := MigrateScenario(Scenario{}, 0)
		require.NoError(t, err)
		assert.True(t, changed)
		assert.Equal(t, 15.0, s.Financial.LoanYears)
		assert.Equal(t, 3.5, s.Financial.HeatPumpCOP)
		assert.Equal(t, 3.5, s.Financial.CoolingEER)
		assert.Equal(t, DefaultSweepRange(), s.Sweep)
	})

	t.Run("v1 to v2: eer copied from cop", func(t *testing.T) {
		old := Scenario{Financial: FinancialParameters{LoanYears: 10, HeatPumpCOP: 4.2}}
		s, changed, err := MigrateScenario(old, 1)
		require.NoError(t, err)
		assert.True(t, changed)
		assert.Equal(t, 4.2, s.Financial.CoolingEER)
		assert.Equal(t, 10.0, s.Financial.LoanYears)
	})

	t.Run("v2 to v3: keeps existing sweep", func(t *testing.T) {
		old := DefaultScenario()
		old.Sweep = SweepRange{MinKWp: 1, MaxKWp: 3, StepKWp: 0.25}
		s, changed, err := MigrateScenario(old, 2)
		require.NoError(t, err)
		assert.False(t, changed)
		assert.Equal(t, old, s)
	})

	t.Run("no change: current version", func(t *testing.T) {
		current := DefaultScenario()
		s, changed, err := MigrateScenario(current, CurrentScenarioVersion)
		require.NoError(t, err)
		assert.False(t, changed)
		assert.Equal(t, current, s)
	})
}
