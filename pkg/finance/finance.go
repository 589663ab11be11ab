// Package finance converts one-time capital investments into equivalent
// annual payments.
package finance

import (
	"errors"
	"fmt"
	"math"
)

var (
	ErrInvalidTerm = errors.New("loan term must be a positive finite number of years")
	ErrInvalidRate = errors.New("interest rate must be a non-negative finite number")
)

// CapitalRecoveryFactor returns the annuity factor for the given annual rate
// and term. A zero rate spreads the principal evenly over the term.
func CapitalRecoveryFactor(rate, years float64) (float64, error) {
	if math.IsNaN(years) || math.IsInf(years, 0) || years <= 0 {
		return 0, fmt.Errorf("%w: %g", ErrInvalidTerm, years)
	}
	if math.IsNaN(rate) || math.IsInf(rate, 0) || rate < 0 {
		return 0, fmt.Errorf("%w: %g", ErrInvalidRate, rate)
	}
	if rate == 0 {
		return 1 / years, nil
	}
	growth := math.Pow(1+rate, years)
	return rate * growth / (growth - 1), nil
}

// AnnualizedCost returns the yearly payment that amortizes principal over
// years at the given rate.
func AnnualizedCost(principal, rate, years float64) (float64, error) {
	crf, err := CapitalRecoveryFactor(rate, years)
	if err != nil {
		return 0, err
	}
	return principal * crf, nil
}
