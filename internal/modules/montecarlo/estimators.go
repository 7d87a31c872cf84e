package montecarlo

import (
	"fmt"
	"math"

	"github.com/aristath/tailrisk/pkg/formulas"
)

func validateAlpha(name string, alpha float64) error {
	if !isFinite(alpha) || alpha <= 0 || alpha >= 1 {
		return fmt.Errorf("%w: %s %g must lie in (0, 1)", ErrInvalidParameter, name, alpha)
	}
	return nil
}

func validateSample(losses LossSample) error {
	if len(losses) == 0 {
		return fmt.Errorf("%w: loss sample is empty", ErrInsufficientData)
	}
	for i, v := range losses {
		if !isFinite(v) {
			return fmt.Errorf("%w: loss[%d] is %g", ErrInvalidParameter, i, v)
		}
	}
	return nil
}

// EmpiricalVaR returns the alpha-quantile of losses, interpolating linearly
// between order statistics. The result need not be an observed loss.
func EmpiricalVaR(losses LossSample, alpha float64) (float64, error) {
	if err := validateSample(losses); err != nil {
		return 0, err
	}
	if err := validateAlpha("alpha", alpha); err != nil {
		return 0, err
	}
	return formulas.QuantileOf(losses, alpha), nil
}

// ExpectedShortfall computes VaR at alpha and the mean of every loss at or
// above it. Losses equal to the VaR belong to the tail.
//
// When no loss reaches the threshold, ES is reported as the VaR itself and
// Fallback is set.
func ExpectedShortfall(losses LossSample, alpha float64) (TailEstimate, error) {
	q, err := EmpiricalVaR(losses, alpha)
	if err != nil {
		return TailEstimate{}, err
	}

	return shortfallBeyond(losses, alpha, q), nil
}

// shortfallBeyond averages the losses at or above threshold q.
func shortfallBeyond(losses LossSample, alpha, q float64) TailEstimate {
	estimate := TailEstimate{Alpha: alpha, VaR: q}
	mean, count := formulas.TailMean(losses, q)
	if count == 0 {
		estimate.ES = q
		estimate.Fallback = true
		return estimate
	}

	estimate.TailSize = count
	// Every tail value is >= q; keep summation rounding from dipping below it.
	estimate.ES = math.Max(mean, q)
	return estimate
}

// EmpiricalES returns the Expected Shortfall of losses at alpha.
// See ExpectedShortfall for the tail convention and the empty-tail fallback.
func EmpiricalES(losses LossSample, alpha float64) (float64, error) {
	estimate, err := ExpectedShortfall(losses, alpha)
	if err != nil {
		return 0, err
	}
	return estimate.ES, nil
}
