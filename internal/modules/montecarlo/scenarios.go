package montecarlo

import (
	"fmt"
	"math"
	"math/rand/v2"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat/distuv"
)

// PortfolioParameters describes a portfolio of correlated GBM assets.
// All vectors are indexed by asset and must have the dimension of Correlation.
type PortfolioParameters struct {
	Weights       []float64
	InitialPrices []float64
	Drifts        []float64
	Volatilities  []float64
	Correlation   mat.Symmetric
	TimeStep      float64
}

// PortfolioScenarios is the output of one correlated simulation run.
type PortfolioScenarios struct {
	// Losses holds one portfolio loss per scenario.
	Losses LossSample
	// LogReturns is the N x n matrix of correlated per-asset log-returns.
	LogReturns *mat.Dense
}

// Assets returns the portfolio dimension after checking that every vector
// agrees with the correlation matrix.
func (p PortfolioParameters) Assets() (int, error) {
	if p.Correlation == nil {
		return 0, fmt.Errorf("%w: correlation matrix is required", ErrDimensionMismatch)
	}
	n := p.Correlation.SymmetricDim()
	if n == 0 {
		return 0, fmt.Errorf("%w: correlation matrix is empty", ErrDimensionMismatch)
	}

	vectors := []struct {
		name   string
		values []float64
	}{
		{"weights", p.Weights},
		{"initial prices", p.InitialPrices},
		{"drifts", p.Drifts},
		{"volatilities", p.Volatilities},
	}
	for _, v := range vectors {
		if len(v.values) != n {
			return 0, fmt.Errorf("%w: %s has length %d, correlation matrix is %dx%d",
				ErrDimensionMismatch, v.name, len(v.values), n, n)
		}
		for i, x := range v.values {
			if !isFinite(x) {
				return 0, fmt.Errorf("%w: %s[%d] is not finite", ErrInvalidParameter, v.name, i)
			}
		}
	}
	for i, sigma := range p.Volatilities {
		if sigma < 0 {
			return 0, fmt.Errorf("%w: volatilities[%d] = %g is negative", ErrInvalidParameter, i, sigma)
		}
	}
	if !isFinite(p.TimeStep) || p.TimeStep <= 0 {
		return 0, fmt.Errorf("%w: time step %g must be positive", ErrInvalidParameter, p.TimeStep)
	}
	return n, nil
}

// BuildCovariance returns the one-step covariance sigma_i*sigma_j*rho_ij*dt.
func BuildCovariance(sigmas []float64, corr mat.Symmetric, dt float64) (*mat.SymDense, error) {
	n := corr.SymmetricDim()
	if len(sigmas) != n {
		return nil, fmt.Errorf("%w: %d volatilities for a %dx%d correlation matrix",
			ErrDimensionMismatch, len(sigmas), n, n)
	}

	cov := mat.NewSymDense(n, nil)
	for i := 0; i < n; i++ {
		for j := i; j < n; j++ {
			cov.SetSym(i, j, sigmas[i]*sigmas[j]*corr.At(i, j)*dt)
		}
	}
	return cov, nil
}

// CholeskyFactor returns the lower-triangular L with L*L^T = cov.
//
// Assets with zero volatility contribute all-zero rows and columns; they are
// left out of the factorisation and get zero rows in L. The remaining
// sub-matrix must be positive definite, otherwise
// ErrNonPositiveDefiniteCovariance is returned.
func CholeskyFactor(cov mat.Symmetric, sigmas []float64) (*mat.TriDense, error) {
	n := cov.SymmetricDim()
	active := make([]int, 0, n)
	for i, sigma := range sigmas {
		if sigma > 0 {
			active = append(active, i)
		}
	}

	factor := mat.NewTriDense(n, mat.Lower, nil)
	if len(active) == 0 {
		return factor, nil
	}

	sub := mat.NewSymDense(len(active), nil)
	for a, i := range active {
		for b := a; b < len(active); b++ {
			sub.SetSym(a, b, cov.At(i, active[b]))
		}
	}

	var chol mat.Cholesky
	if ok := chol.Factorize(sub); !ok {
		return nil, fmt.Errorf("%w: cholesky factorisation failed for %d active assets",
			ErrNonPositiveDefiniteCovariance, len(active))
	}
	var l mat.TriDense
	chol.LTo(&l)

	for a, i := range active {
		for b := 0; b <= a; b++ {
			factor.SetTri(i, active[b], l.At(a, b))
		}
	}
	return factor, nil
}

// SimulatePortfolioScenarios draws N correlated one-step GBM scenarios and
// values the weighted portfolio in each of them. The covariance is factored
// once per call.
func SimulatePortfolioScenarios(src rand.Source, p PortfolioParameters, scenarios int) (*PortfolioScenarios, error) {
	n, err := p.Assets()
	if err != nil {
		return nil, err
	}
	if scenarios <= 0 {
		return nil, fmt.Errorf("%w: scenario count %d must be positive", ErrInvalidParameter, scenarios)
	}
	if src == nil {
		return nil, fmt.Errorf("%w: random source is required", ErrInvalidParameter)
	}

	cov, err := BuildCovariance(p.Volatilities, p.Correlation, p.TimeStep)
	if err != nil {
		return nil, err
	}
	factor, err := CholeskyFactor(cov, p.Volatilities)
	if err != nil {
		return nil, err
	}

	mean := make([]float64, n)
	for i := range mean {
		mean[i] = logDrift(p.Drifts[i], p.Volatilities[i], p.TimeStep)
	}

	normal := distuv.Normal{Mu: 0, Sigma: 1, Src: src}
	draws := make([]float64, scenarios*n)
	for i := range draws {
		draws[i] = normal.Rand()
	}
	z := mat.NewDense(scenarios, n, draws)

	var returns mat.Dense
	returns.Mul(z, factor.T())

	losses := make(LossSample, scenarios)
	assetPnL := make([]float64, n)
	for s := 0; s < scenarios; s++ {
		row := returns.RawRowView(s)
		floats.Add(row, mean)
		for j, r := range row {
			s0 := p.InitialPrices[j]
			assetPnL[j] = (s0*math.Exp(r) - s0) * p.Weights[j]
		}
		losses[s] = -floats.Sum(assetPnL)
		if !isFinite(losses[s]) {
			return nil, fmt.Errorf("%w: scenario %d portfolio loss overflows", ErrInvalidParameter, s)
		}
	}

	return &PortfolioScenarios{Losses: losses, LogReturns: &returns}, nil
}

// SimulatePortfolioLosses is SimulatePortfolioScenarios without the
// per-asset log-return matrix.
func SimulatePortfolioLosses(src rand.Source, p PortfolioParameters, scenarios int) (LossSample, error) {
	result, err := SimulatePortfolioScenarios(src, p, scenarios)
	if err != nil {
		return nil, err
	}
	return result.Losses, nil
}

// CorrelationFromRows builds a symmetric correlation matrix from row slices.
// Rows must form a square, symmetric matrix; entries are not range-checked.
func CorrelationFromRows(rows [][]float64) (*mat.SymDense, error) {
	n := len(rows)
	if n == 0 {
		return nil, fmt.Errorf("%w: correlation matrix is empty", ErrDimensionMismatch)
	}
	for i, row := range rows {
		if len(row) != n {
			return nil, fmt.Errorf("%w: correlation row %d has %d entries, want %d",
				ErrDimensionMismatch, i, len(row), n)
		}
	}

	corr := mat.NewSymDense(n, nil)
	for i := 0; i < n; i++ {
		for j := i; j < n; j++ {
			if !isFinite(rows[i][j]) {
				return nil, fmt.Errorf("%w: correlation[%d][%d] is not finite", ErrInvalidParameter, i, j)
			}
			if rows[i][j] != rows[j][i] {
				return nil, fmt.Errorf("%w: correlation matrix is not symmetric at (%d,%d)",
					ErrInvalidParameter, i, j)
			}
			corr.SetSym(i, j, rows[i][j])
		}
	}
	return corr, nil
}
