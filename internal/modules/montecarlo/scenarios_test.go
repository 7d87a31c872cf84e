package montecarlo

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat"
)

func identity(n int) *mat.SymDense {
	m := mat.NewSymDense(n, nil)
	for i := 0; i < n; i++ {
		m.SetSym(i, i, 1)
	}
	return m
}

func twoAssetPortfolio(rho float64) PortfolioParameters {
	return PortfolioParameters{
		Weights:       []float64{0.5, 0.5},
		InitialPrices: []float64{100, 80},
		Drifts:        []float64{0.05, 0.08},
		Volatilities:  []float64{0.2, 0.3},
		Correlation:   mat.NewSymDense(2, []float64{1, rho, rho, 1}),
		TimeStep:      1.0 / 252,
	}
}

func TestBuildCovariance(t *testing.T) {
	corr := mat.NewSymDense(2, []float64{1, 0.5, 0.5, 1})

	cov, err := BuildCovariance([]float64{0.2, 0.4}, corr, 0.5)
	require.NoError(t, err)

	assert.InDelta(t, 0.2*0.2*0.5, cov.At(0, 0), 1e-15)
	assert.InDelta(t, 0.4*0.4*0.5, cov.At(1, 1), 1e-15)
	assert.InDelta(t, 0.2*0.4*0.5*0.5, cov.At(0, 1), 1e-15)
	assert.Equal(t, cov.At(0, 1), cov.At(1, 0))
}

func TestBuildCovariance_DimensionMismatch(t *testing.T) {
	_, err := BuildCovariance([]float64{0.2}, identity(2), 1)
	assert.ErrorIs(t, err, ErrDimensionMismatch)
}

func TestCholeskyFactor_Reconstructs(t *testing.T) {
	sigmas := []float64{0.2, 0.3, 0.25}
	corr := mat.NewSymDense(3, []float64{
		1, 0.4, 0.1,
		0.4, 1, -0.3,
		0.1, -0.3, 1,
	})
	cov, err := BuildCovariance(sigmas, corr, 1)
	require.NoError(t, err)

	l, err := CholeskyFactor(cov, sigmas)
	require.NoError(t, err)

	var product mat.Dense
	product.Mul(l, l.T())
	assert.True(t, mat.EqualApprox(&product, cov, 1e-12))
}

func TestCholeskyFactor_ZeroVolatilityAssetGetsZeroRow(t *testing.T) {
	sigmas := []float64{0.2, 0, 0.3}
	corr := mat.NewSymDense(3, []float64{
		1, 0.9, 0.5,
		0.9, 1, 0.9,
		0.5, 0.9, 1,
	})
	cov, err := BuildCovariance(sigmas, corr, 1)
	require.NoError(t, err)

	l, err := CholeskyFactor(cov, sigmas)
	require.NoError(t, err)

	for j := 0; j < 3; j++ {
		assert.Equal(t, 0.0, l.At(1, j))
		assert.Equal(t, 0.0, l.At(j, 1))
	}
	var product mat.Dense
	product.Mul(l, l.T())
	assert.True(t, mat.EqualApprox(&product, cov, 1e-12))
}

func TestSimulatePortfolioLosses_NonPositiveDefinite(t *testing.T) {
	params := twoAssetPortfolio(1.5)

	losses, err := SimulatePortfolioLosses(NewSource(1), params, 100)
	assert.ErrorIs(t, err, ErrNonPositiveDefiniteCovariance)
	assert.Nil(t, losses)

	// Three assets with every off-diagonal at 1.5
	three := PortfolioParameters{
		Weights:       []float64{1, 1, 1},
		InitialPrices: []float64{100, 100, 100},
		Drifts:        []float64{0, 0, 0},
		Volatilities:  []float64{0.2, 0.2, 0.2},
		Correlation: mat.NewSymDense(3, []float64{
			1, 1.5, 1.5,
			1.5, 1, 1.5,
			1.5, 1.5, 1,
		}),
		TimeStep: 1,
	}
	_, err = SimulatePortfolioLosses(NewSource(1), three, 100)
	assert.ErrorIs(t, err, ErrNonPositiveDefiniteCovariance)
}

func TestSimulatePortfolioLosses_ZeroVolatility(t *testing.T) {
	params := PortfolioParameters{
		Weights:       []float64{0.5, 0.5},
		InitialPrices: []float64{100, 100},
		Drifts:        []float64{0, 0},
		Volatilities:  []float64{0, 0},
		Correlation:   identity(2),
		TimeStep:      0.25,
	}

	losses, err := SimulatePortfolioLosses(NewSource(3), params, 1000)
	require.NoError(t, err)

	require.Len(t, losses, 1000)
	for _, loss := range losses {
		assert.Equal(t, 0.0, loss)
	}
}

func TestSimulatePortfolioLosses_ScaleInvariance(t *testing.T) {
	base := twoAssetPortfolio(0.3)
	doubled := twoAssetPortfolio(0.3)
	doubled.Weights = []float64{1.0, 1.0}

	a, err := SimulatePortfolioLosses(NewSource(11), base, 2000)
	require.NoError(t, err)
	b, err := SimulatePortfolioLosses(NewSource(11), doubled, 2000)
	require.NoError(t, err)

	require.Len(t, b, len(a))
	for i := range a {
		assert.InDelta(t, 2*a[i], b[i], 1e-12)
	}
}

func TestSimulatePortfolioScenarios_CorrelationRecovered(t *testing.T) {
	params := twoAssetPortfolio(0.6)
	params.TimeStep = 1

	result, err := SimulatePortfolioScenarios(NewSource(5), params, 50000)
	require.NoError(t, err)

	rows, cols := result.LogReturns.Dims()
	require.Equal(t, 50000, rows)
	require.Equal(t, 2, cols)

	x := mat.Col(nil, 0, result.LogReturns)
	y := mat.Col(nil, 1, result.LogReturns)
	assert.InDelta(t, 0.6, stat.Correlation(x, y, nil), 0.02)
	assert.InDelta(t, 0.2, stat.StdDev(x, nil), 0.004)
	assert.InDelta(t, 0.3, stat.StdDev(y, nil), 0.006)
	assert.InDelta(t, 0.05-0.5*0.04, stat.Mean(x, nil), 0.005)
}

func TestSimulatePortfolioScenarios_LossMatchesReturns(t *testing.T) {
	params := twoAssetPortfolio(-0.2)

	result, err := SimulatePortfolioScenarios(NewSource(8), params, 20)
	require.NoError(t, err)

	for s := 0; s < 20; s++ {
		var pnl float64
		for j := 0; j < 2; j++ {
			r := result.LogReturns.At(s, j)
			s0 := params.InitialPrices[j]
			pnl += (s0*math.Exp(r) - s0) * params.Weights[j]
		}
		assert.InDelta(t, -pnl, result.Losses[s], 1e-9)
	}
}

func TestSimulatePortfolioLosses_Validation(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(p *PortfolioParameters)
		n       int
		wantErr error
	}{
		{"weights too short", func(p *PortfolioParameters) { p.Weights = []float64{1} }, 10, ErrDimensionMismatch},
		{"prices too long", func(p *PortfolioParameters) { p.InitialPrices = []float64{1, 2, 3} }, 10, ErrDimensionMismatch},
		{"drifts missing", func(p *PortfolioParameters) { p.Drifts = nil }, 10, ErrDimensionMismatch},
		{"sigmas mismatch", func(p *PortfolioParameters) { p.Volatilities = []float64{0.1} }, 10, ErrDimensionMismatch},
		{"no correlation", func(p *PortfolioParameters) { p.Correlation = nil }, 10, ErrDimensionMismatch},
		{"negative volatility", func(p *PortfolioParameters) { p.Volatilities = []float64{0.1, -0.1} }, 10, ErrInvalidParameter},
		{"zero time step", func(p *PortfolioParameters) { p.TimeStep = 0 }, 10, ErrInvalidParameter},
		{"zero scenarios", func(p *PortfolioParameters) {}, 0, ErrInvalidParameter},
		{"overflowing loss", func(p *PortfolioParameters) {
			p.Drifts = []float64{800, 0}
			p.TimeStep = 1
		}, 10, ErrInvalidParameter},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			params := twoAssetPortfolio(0.2)
			tt.mutate(&params)
			losses, err := SimulatePortfolioLosses(NewSource(1), params, tt.n)
			assert.ErrorIs(t, err, tt.wantErr)
			assert.Nil(t, losses)
		})
	}
}

func TestCorrelationFromRows(t *testing.T) {
	corr, err := CorrelationFromRows([][]float64{{1, 0.3}, {0.3, 1}})
	require.NoError(t, err)
	assert.Equal(t, 2, corr.SymmetricDim())
	assert.Equal(t, 0.3, corr.At(1, 0))

	_, err = CorrelationFromRows(nil)
	assert.ErrorIs(t, err, ErrDimensionMismatch)

	_, err = CorrelationFromRows([][]float64{{1, 0.3}, {0.3}})
	assert.ErrorIs(t, err, ErrDimensionMismatch)

	_, err = CorrelationFromRows([][]float64{{1, 0.3}, {0.4, 1}})
	assert.ErrorIs(t, err, ErrInvalidParameter)

	// Out-of-range entries are left for the factorisation to reject
	corr, err = CorrelationFromRows([][]float64{{1, 1.5}, {1.5, 1}})
	require.NoError(t, err)
	assert.Equal(t, 1.5, corr.At(0, 1))
}
