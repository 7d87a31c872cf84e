package montecarlo

import (
	"fmt"
	"math"
	"math/rand/v2"

	"gonum.org/v1/gonum/stat/distuv"
)

// Validate checks the single-asset GBM parameters.
func (p ScenarioParameters) Validate() error {
	if !isFinite(p.InitialPrice) || !isFinite(p.Drift) || !isFinite(p.Volatility) || !isFinite(p.TimeStep) {
		return fmt.Errorf("%w: scenario parameters must be finite", ErrInvalidParameter)
	}
	if p.Volatility < 0 {
		return fmt.Errorf("%w: volatility %g is negative", ErrInvalidParameter, p.Volatility)
	}
	if p.TimeStep <= 0 {
		return fmt.Errorf("%w: time step %g must be positive", ErrInvalidParameter, p.TimeStep)
	}
	return nil
}

// logDrift is the deterministic part of a one-step GBM log-return.
func logDrift(mu, sigma, dt float64) float64 {
	return (mu - 0.5*sigma*sigma) * dt
}

// SimulateSingleAssetReturns draws n independent one-step GBM log-returns
//
//	r = (mu - sigma^2/2)*dt + sigma*sqrt(dt)*Z,  Z ~ N(0, 1)
//
// and the matching P&L S0*exp(r) - S0. All randomness comes from src.
// n <= 0 is rejected with ErrInvalidParameter; an empty sample is never returned.
// Parameters whose P&L overflows float64 are rejected the same way.
func SimulateSingleAssetReturns(src rand.Source, p ScenarioParameters, n int) (pnl, logReturns []float64, err error) {
	if err := p.Validate(); err != nil {
		return nil, nil, err
	}
	if n <= 0 {
		return nil, nil, fmt.Errorf("%w: scenario count %d must be positive", ErrInvalidParameter, n)
	}
	if src == nil {
		return nil, nil, fmt.Errorf("%w: random source is required", ErrInvalidParameter)
	}

	drift := logDrift(p.Drift, p.Volatility, p.TimeStep)
	vol := p.Volatility * math.Sqrt(p.TimeStep)
	z := distuv.Normal{Mu: 0, Sigma: 1, Src: src}

	pnl = make([]float64, n)
	logReturns = make([]float64, n)
	for i := 0; i < n; i++ {
		r := drift + vol*z.Rand()
		logReturns[i] = r
		pnl[i] = p.InitialPrice*math.Exp(r) - p.InitialPrice
		if !isFinite(pnl[i]) {
			return nil, nil, fmt.Errorf("%w: scenario %d P&L overflows (log-return %g)", ErrInvalidParameter, i, r)
		}
	}
	return pnl, logReturns, nil
}

// LossesFromPnL converts P&L values to the loss-positive convention.
func LossesFromPnL(pnl []float64) LossSample {
	losses := make(LossSample, len(pnl))
	for i, v := range pnl {
		losses[i] = -v
	}
	return losses
}

func isFinite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
